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

package intersect

import (
	"math/rand"
	"testing"

	"golang.org/x/exp/slices"
)

func rangeList(n int) []uint64 {
	out := make([]uint64, n)
	for i := range out {
		out[i] = uint64(i + 1)
	}
	return out
}

// Eight lists, each [1..1000]: every list fully overlaps.
func TestIntersectScenarioAllOverlap(t *testing.T) {
	lists := make([][]uint64, 8)
	for i := range lists {
		lists[i] = rangeList(1000)
	}
	got, err := Intersect(lists, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, rangeList(1000)) {
		t.Fatalf("got %d ids, want [1..1000]", len(got))
	}
}

// Eight disjoint singleton lists: the intersection is empty.
func TestIntersectScenarioDisjoint(t *testing.T) {
	lists := make([][]uint64, 8)
	for i := range lists {
		lists[i] = []uint64{uint64(i)}
	}
	got, err := Intersect(lists, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Fatalf("got %v, want empty", got)
	}
}

func TestIntersectEmptyInputIsError(t *testing.T) {
	if _, err := Intersect(nil, Options{}); err != ErrEmptyInput {
		t.Fatalf("Intersect(nil) = %v, want ErrEmptyInput", err)
	}
}

func TestIntersectSingleListReturnedDirectly(t *testing.T) {
	list := []uint64{3, 7, 9}
	got, err := Intersect([][]uint64{list}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, list) {
		t.Fatalf("got %v, want %v", got, list)
	}
}

func naiveIntersect(lists [][]uint64) []uint64 {
	counts := make(map[uint64]int)
	for _, l := range lists {
		seen := make(map[uint64]bool)
		for _, v := range l {
			if !seen[v] {
				counts[v]++
				seen[v] = true
			}
		}
	}
	var out []uint64
	for v, c := range counts {
		if c == len(lists) {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return out
}

// Intersection correctness and determinism across a range of worker
// pool sizes and randomized inputs.
func TestIntersectRandomizedAgainstNaive(t *testing.T) {
	for trial := 0; trial < 30; trial++ {
		numLists := rand.Intn(6) + 2
		lists := make([][]uint64, numLists)
		for i := range lists {
			set := make(map[uint64]bool)
			n := rand.Intn(40) + 1
			for len(set) < n {
				set[uint64(rand.Intn(100))] = true
			}
			var ids []uint64
			for id := range set {
				ids = append(ids, id)
			}
			slices.Sort(ids)
			lists[i] = ids
		}
		want := naiveIntersect(lists)

		for _, workers := range []int{1, 2, 4} {
			cp := make([][]uint64, len(lists))
			for i, l := range lists {
				cp[i] = slices.Clone(l)
			}
			got, err := Intersect(cp, Options{Workers: workers})
			if err != nil {
				t.Fatalf("trial %d workers=%d: %v", trial, workers, err)
			}
			if len(got) == 0 {
				got = nil
			}
			if !slices.Equal(got, want) {
				t.Fatalf("trial %d workers=%d: got %v, want %v", trial, workers, got, want)
			}
		}
	}
}

func TestIntersectDeterministicAcrossRuns(t *testing.T) {
	lists := [][]uint64{
		{1, 2, 3, 4, 5, 6, 7, 8},
		{2, 4, 6, 8, 10},
		{2, 3, 4, 8, 16},
	}
	var first []uint64
	for run := 0; run < 20; run++ {
		cp := make([][]uint64, len(lists))
		for i, l := range lists {
			cp[i] = slices.Clone(l)
		}
		got, err := Intersect(cp, Options{Workers: 4})
		if err != nil {
			t.Fatal(err)
		}
		if first == nil {
			first = got
			continue
		}
		if !slices.Equal(got, first) {
			t.Fatalf("run %d: got %v, want %v (first run)", run, got, first)
		}
	}
}
