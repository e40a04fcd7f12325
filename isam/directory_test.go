// Copyright (C) 2022 Sneller, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package isam

import "testing"

func blockWithMinKey(min int) *Block[int, string] {
	b := &Block[int, string]{capacity: 4}
	b.setCache([]int{min, min + 1})
	return b
}

func TestDirectoryLocate(t *testing.T) {
	var d Directory[int, string]
	b0 := blockWithMinKey(0)
	b10 := blockWithMinKey(10)
	b20 := blockWithMinKey(20)
	d.Put(b0)
	d.Put(b10)
	d.Put(b20)

	cases := []struct {
		key  int
		want *Block[int, string]
		ok   bool
	}{
		{-5, nil, false},
		{0, b0, true},
		{5, b0, true},
		{10, b10, true},
		{19, b10, true},
		{20, b20, true},
		{1000, b20, true},
	}
	for _, c := range cases {
		got, ok := d.Locate(c.key)
		if ok != c.ok || got != c.want {
			t.Errorf("Locate(%d) = (%v, %v), want (%v, %v)", c.key, got, ok, c.want, c.ok)
		}
	}
}

func TestDirectoryReindex(t *testing.T) {
	var d Directory[int, string]
	b := blockWithMinKey(10)
	d.Put(b)

	b.setCache([]int{7, 8})
	d.Reindex(b, 10)

	if d.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", d.Len())
	}
	got, ok := d.Locate(7)
	if !ok || got != b {
		t.Fatalf("Locate(7) after reindex = (%v, %v), want (%v, true)", got, ok, b)
	}
	if _, ok := d.Locate(10); ok {
		// 10 still locates to b since b is still the last block whose
		// min-key <= 10; this only confirms the old key 10 was removed
		// as a *registration*, not that 10 stops resolving to b.
		if d.indexOfMinKey(10) != -1 {
			t.Fatalf("old min-key 10 is still registered in the directory")
		}
	}
}

func TestDirectoryFollowingMinKey(t *testing.T) {
	var d Directory[int, string]
	b0 := blockWithMinKey(0)
	b10 := blockWithMinKey(10)
	d.Put(b0)
	d.Put(b10)

	upper, ok := d.FollowingMinKey(b0)
	if !ok || upper != 10 {
		t.Fatalf("FollowingMinKey(b0) = (%d, %v), want (10, true)", upper, ok)
	}
	if _, ok := d.FollowingMinKey(b10); ok {
		t.Fatalf("FollowingMinKey(b10) should have no successor")
	}
}
