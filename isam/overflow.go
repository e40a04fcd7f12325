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
	"golang.org/x/exp/constraints"
	"golang.org/x/exp/slices"
)

// Overflow is an ordered, in-memory K -> V map buffering recent
// inserts that have not yet been folded into the block list. Its
// size is bounded by the index's overflow capacity at any point
// externally observable between flush calls.
type Overflow[K constraints.Ordered, V any] struct {
	keys []K
	vals []V
}

// Len returns the number of entries currently buffered.
func (o *Overflow[K, V]) Len() int { return len(o.keys) }

func (o *Overflow[K, V]) search(k K) (int, bool) {
	return slices.BinarySearchFunc(o.keys, k, func(a, b K) int {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		default:
			return 0
		}
	})
}

// Get returns the value stored for k, if any.
func (o *Overflow[K, V]) Get(k K) (V, bool) {
	if i, ok := o.search(k); ok {
		return o.vals[i], true
	}
	var zero V
	return zero, false
}

// Put inserts or overwrites the value stored for k.
func (o *Overflow[K, V]) Put(k K, v V) {
	i, ok := o.search(k)
	if ok {
		o.vals[i] = v
		return
	}
	o.keys = slices.Insert(o.keys, i, k)
	o.vals = slices.Insert(o.vals, i, v)
}

// Min returns the smallest key currently buffered and its value. ok
// is false if the overflow is empty.
func (o *Overflow[K, V]) Min() (k K, v V, ok bool) {
	if len(o.keys) == 0 {
		return k, v, false
	}
	return o.keys[0], o.vals[0], true
}

// RemoveMin removes and discards the smallest buffered entry. It is
// a no-op if the overflow is empty.
func (o *Overflow[K, V]) RemoveMin() {
	if len(o.keys) == 0 {
		return
	}
	o.keys = slices.Delete(o.keys, 0, 1)
	o.vals = slices.Delete(o.vals, 0, 1)
}

// Remove deletes the entry for k, if present.
func (o *Overflow[K, V]) Remove(k K) {
	if i, ok := o.search(k); ok {
		o.keys = slices.Delete(o.keys, i, i+1)
		o.vals = slices.Delete(o.vals, i, i+1)
	}
}

// All returns every (key, value) pair in ascending key order. The
// returned slices are owned by the caller.
func (o *Overflow[K, V]) All() (keys []K, vals []V) {
	return append([]K(nil), o.keys...), append([]V(nil), o.vals...)
}
