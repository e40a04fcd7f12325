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

import (
	"fmt"
	"math/rand"
	"testing"

	"golang.org/x/exp/slices"

	"github.com/ordkv/ordkv/pager/memblock"
)

func newTestIndex(blockCapacity, overflowCapacity int) *Index[int, string] {
	return New[int, string](memblock.New(), GobCodec[int, string]{}, blockCapacity, overflowCapacity)
}

func drain(t *testing.T, ix *Index[int, string]) ([]int, []string) {
	t.Helper()
	c, err := ix.Cursor()
	if err != nil {
		t.Fatalf("cursor: %v", err)
	}
	var keys []int
	var vals []string
	for c.Next() {
		keys = append(keys, c.Key())
		vals = append(vals, c.Value())
	}
	if err := c.Err(); err != nil {
		t.Fatalf("cursor advance: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("cursor close: %v", err)
	}
	return keys, vals
}

// One-entry-per-block index: inserts in arbitrary order iterate
// back in ascending key order.
func TestScenarioOneEntryBlocks(t *testing.T) {
	ix := newTestIndex(1, 2)
	for _, k := range []int{5, 2, 4} {
		if err := ix.Set(k, fmt.Sprint(k)); err != nil {
			t.Fatalf("set %d: %v", k, err)
		}
	}
	keys, vals := drain(t, ix)
	if !slices.Equal(keys, []int{2, 4, 5}) {
		t.Fatalf("keys = %v, want [2 4 5]", keys)
	}
	if !slices.Equal(vals, []string{"2", "4", "5"}) {
		t.Fatalf("vals = %v, want [2 4 5]", vals)
	}
}

// Mixed negative and large keys round-trip through lookup and
// iterate in ascending order.
func TestScenarioNegativeAndLargeKeys(t *testing.T) {
	ix := newTestIndex(2, 2)
	input := []int{5, 2, 4, -1, -2, -4, 1000}
	for _, k := range input {
		if err := ix.Set(k, fmt.Sprint(k)); err != nil {
			t.Fatalf("set %d: %v", k, err)
		}
	}
	for _, k := range input {
		v, err := ix.Get(k)
		if err != nil {
			t.Fatalf("get %d: %v", k, err)
		}
		if v != fmt.Sprint(k) {
			t.Fatalf("get(%d) = %q, want %q", k, v, fmt.Sprint(k))
		}
	}
	keys, _ := drain(t, ix)
	want := slices.Clone(input)
	slices.Sort(want)
	if !slices.Equal(keys, want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
}

// Ascending then descending insert order produces the same ascending
// iteration result either way.
func TestScenarioInsertOrderIndependence(t *testing.T) {
	const n = 1000

	asc := newTestIndex(2, 2)
	for i := 0; i <= n; i++ {
		if err := asc.Set(i, fmt.Sprint(i)); err != nil {
			t.Fatalf("ascending set %d: %v", i, err)
		}
	}
	keys, _ := drain(t, asc)
	want := make([]int, n+1)
	for i := range want {
		want[i] = i
	}
	if !slices.Equal(keys, want) {
		t.Fatalf("ascending keys mismatch (len %d want %d)", len(keys), len(want))
	}

	desc := newTestIndex(2, 2)
	for i := n; i >= 1; i-- {
		if err := desc.Set(i, fmt.Sprint(i)); err != nil {
			t.Fatalf("descending set %d: %v", i, err)
		}
	}
	keys, _ = drain(t, desc)
	want = make([]int, n)
	for i := range want {
		want[i] = i + 1
	}
	if !slices.Equal(keys, want) {
		t.Fatalf("descending keys mismatch (len %d want %d)", len(keys), len(want))
	}
}

func TestLookupInsertRoundTrip(t *testing.T) {
	ix := newTestIndex(4, 3)
	for i := 0; i < 500; i++ {
		k := rand.Intn(2000) - 1000
		v := fmt.Sprintf("v%d", k)
		if err := ix.Set(k, v); err != nil {
			t.Fatalf("set %d: %v", k, err)
		}
		got, err := ix.Get(k)
		if err != nil {
			t.Fatalf("get %d: %v", k, err)
		}
		if got != v {
			t.Fatalf("get(%d) = %q immediately after set, want %q", k, got, v)
		}
	}
}

func TestGetAbsentReturnsZeroValue(t *testing.T) {
	ix := newTestIndex(4, 3)
	if err := ix.Set(1, "one"); err != nil {
		t.Fatal(err)
	}
	v, err := ix.Get(999)
	if err != nil {
		t.Fatal(err)
	}
	if v != "" {
		t.Fatalf("get(absent) = %q, want zero value", v)
	}
}

func TestFlushIdempotent(t *testing.T) {
	ix := newTestIndex(3, 3)
	for i := 0; i < 50; i++ {
		if err := ix.Set(i, fmt.Sprint(i)); err != nil {
			t.Fatal(err)
		}
	}
	if err := ix.Flush(); err != nil {
		t.Fatalf("first flush: %v", err)
	}
	before, _ := drain(t, ix)
	if err := ix.Flush(); err != nil {
		t.Fatalf("second flush: %v", err)
	}
	after, _ := drain(t, ix)
	if !slices.Equal(before, after) {
		t.Fatalf("flush is not idempotent: %v != %v", before, after)
	}
}

// Randomized completeness + ordering property: iterate and compare
// against the multiset of keys ever inserted (minus overwrites).
func TestRandomizedCompletenessAndOrdering(t *testing.T) {
	ix := newTestIndex(3, 4)
	latest := make(map[int]string)
	for i := 0; i < 2000; i++ {
		k := rand.Intn(300)
		v := fmt.Sprintf("%d:%d", k, i)
		if err := ix.Set(k, v); err != nil {
			t.Fatalf("set %d: %v", k, err)
		}
		latest[k] = v
	}

	keys, vals := drain(t, ix)
	if !slices.IsSorted(keys) {
		t.Fatalf("keys not ascending: %v", keys)
	}
	for i := 1; i < len(keys); i++ {
		if keys[i] == keys[i-1] {
			t.Fatalf("duplicate key %d in iteration", keys[i])
		}
	}
	if len(keys) != len(latest) {
		t.Fatalf("iterated %d distinct keys, want %d", len(keys), len(latest))
	}
	for i, k := range keys {
		if vals[i] != latest[k] {
			t.Fatalf("key %d: iterated value %q, want latest %q", k, vals[i], latest[k])
		}
	}
}

// Degenerate single-entry-per-block mode: the upper-bound check in
// MergeOverflow is skipped when capacity < 2.
func TestDegenerateSingleEntryBlocks(t *testing.T) {
	ix := newTestIndex(1, 1)
	input := []int{50, 10, 40, 20, 30, -5, 100, 0}
	for _, k := range input {
		if err := ix.Set(k, fmt.Sprint(k)); err != nil {
			t.Fatalf("set %d: %v", k, err)
		}
	}
	keys, _ := drain(t, ix)
	want := slices.Clone(input)
	slices.Sort(want)
	if !slices.Equal(keys, want) {
		t.Fatalf("keys = %v, want %v", keys, want)
	}
}

func TestCapacityRespectedAfterFlush(t *testing.T) {
	ix := newTestIndex(4, 4)
	for i := 0; i < 200; i++ {
		if err := ix.Set(i, fmt.Sprint(i)); err != nil {
			t.Fatal(err)
		}
	}
	if err := ix.Flush(); err != nil {
		t.Fatal(err)
	}
	if ix.overflow.Len() != 0 {
		t.Fatalf("overflow not empty after flush: %d entries", ix.overflow.Len())
	}
	for b := ix.head; b != nil; b = b.Next() {
		if b.Size() > b.Capacity() {
			t.Fatalf("block %d holds %d entries, capacity %d", b.ID(), b.Size(), b.Capacity())
		}
	}
}
