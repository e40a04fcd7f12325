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

// Package intersect implements a multi-threaded AND-merge: a work
// queue of ascending document-id lists is reduced, by a pool of
// workers pairwise-merging two lists into one, to a single list
// holding the intersection of every input. The coordination pattern —
// one mutex, one sync.Cond, a queue, and an "unprocessed" sentinel
// counting down to 1 — follows the worker-pool idiom used elsewhere
// in this module's ancestry rather than being invented independently.
package intersect

import (
	"errors"
	"runtime"
	"sync"

	"golang.org/x/sys/cpu"
)

// ErrEmptyInput is returned when Intersect is called with no lists.
// Supplying at least one list is the caller's responsibility.
var ErrEmptyInput = errors.New("intersect: at least one list is required")

// Options configures the worker pool.
type Options struct {
	// Workers caps the number of goroutines merging pairs
	// concurrently. Zero selects a default of
	// min(runtime.GOMAXPROCS(0), 8), widened by one (never past 8)
	// when the host has AVX2 (more parallel memory bandwidth helps
	// merges of very large posting lists).
	Workers int
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	n := runtime.GOMAXPROCS(0)
	if n > 8 {
		n = 8
	}
	if cpu.X86.HasAVX2 && n < 8 {
		n++
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Intersect reduces lists — each an ascending, deduplicated
// document-id slice for one feature — to their set intersection, in
// ascending order. The result is independent of worker-pool
// scheduling: AND is associative and commutative, so any pairing tree
// over the inputs yields the same output.
//
// A single input list is returned directly.
func Intersect(lists [][]uint64, opts Options) ([]uint64, error) {
	if len(lists) == 0 {
		return nil, ErrEmptyInput
	}
	if len(lists) == 1 {
		return lists[0], nil
	}

	p := &pool{}
	p.queue = append(p.queue, lists...)
	p.unprocessed = len(lists)
	p.cond = sync.NewCond(&p.mu)

	workers := opts.workers()
	if workers > len(lists)/2 {
		workers = len(lists) / 2
	}
	if workers < 1 {
		workers = 1
	}

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			p.run()
		}()
	}
	wg.Wait()

	return p.queue[0], nil
}

// pool holds the shared mutable state: the queue of lists awaiting
// pairing and the unprocessed counter, both protected by mu.
// unprocessed counts lists plus intermediate results not yet consumed
// as one half of a pair, and terminates the pool when it reaches 1.
type pool struct {
	mu          sync.Mutex
	cond        *sync.Cond
	queue       [][]uint64
	unprocessed int
}

func (p *pool) run() {
	for {
		p.mu.Lock()
		for len(p.queue) < 2 && p.unprocessed != 1 {
			p.cond.Wait()
		}
		if p.unprocessed == 1 {
			p.mu.Unlock()
			p.cond.Broadcast()
			return
		}
		a := p.queue[len(p.queue)-1]
		b := p.queue[len(p.queue)-2]
		p.queue = p.queue[:len(p.queue)-2]
		p.unprocessed--
		p.mu.Unlock()

		merged := mergeIntersect(a, b)

		p.mu.Lock()
		p.queue = append(p.queue, merged)
		p.cond.Broadcast()
		p.mu.Unlock()
	}
}

// mergeIntersect computes the sorted-merge intersection of two
// ascending streams: classic two-pointer intersection. Equal elements
// are emitted once and both pointers advance; otherwise the pointer on
// the smaller side advances alone.
func mergeIntersect(a, b []uint64) []uint64 {
	out := make([]uint64, 0, min(len(a), len(b)))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
