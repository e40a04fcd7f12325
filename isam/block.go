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

	"github.com/ordkv/ordkv/pager"
)

// Block is the always-resident descriptor for one page of the block
// list: its pager identity, its capacity, and small scalars (size,
// min/max key) cached so that the directory and the flush policy can
// make placement decisions without acquiring a Handle. The block's
// actual (key, value) pairs only exist in memory while a Handle for
// it is held; see Acquire.
//
// Invariant: for a non-nil b.next, MaxKey(b) < MinKey(b.next).
// Invariant: within a loaded block, keys are strictly ascending.
type Block[K constraints.Ordered, V any] struct {
	id       pager.BlockID
	capacity int
	size     int
	minKey   K
	maxKey   K
	hasKeys  bool
	locked   bool
	next     *Block[K, V]
}

func newBlock[K constraints.Ordered, V any](id pager.BlockID, capacity int, next *Block[K, V]) *Block[K, V] {
	return &Block[K, V]{id: id, capacity: capacity, next: next}
}

// ID returns the pager.BlockID backing b.
func (b *Block[K, V]) ID() pager.BlockID { return b.id }

// Capacity returns the maximum number of entries b can hold.
func (b *Block[K, V]) Capacity() int { return b.capacity }

// Size returns the number of entries currently in b.
func (b *Block[K, V]) Size() int { return b.size }

// MinKey returns b's smallest key. ok is false if b has never held
// an entry.
func (b *Block[K, V]) MinKey() (k K, ok bool) { return b.minKey, b.hasKeys }

// MaxKey returns b's largest key. ok is false if b has never held
// an entry.
func (b *Block[K, V]) MaxKey() (k K, ok bool) { return b.maxKey, b.hasKeys }

// Next returns the block immediately after b in ascending key order,
// or nil if b is the tail of the list.
func (b *Block[K, V]) Next() *Block[K, V] { return b.next }

func (b *Block[K, V]) setCache(keys []K) {
	b.size = len(keys)
	if len(keys) == 0 {
		b.hasKeys = false
		return
	}
	b.hasKeys = true
	b.minKey = keys[0]
	b.maxKey = keys[len(keys)-1]
}
