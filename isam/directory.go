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

type dirEntry[K constraints.Ordered, V any] struct {
	minKey K
	block  *Block[K, V]
}

// Directory is the ordered mapping from each block's minimum key to
// the block itself, used to locate the block that might contain a
// given key without loading any block's buffer.
type Directory[K constraints.Ordered, V any] struct {
	entries []dirEntry[K, V]
}

func cmpKey[K constraints.Ordered](a, b K) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Len returns the number of blocks registered.
func (d *Directory[K, V]) Len() int { return len(d.entries) }

// upperBoundIndex returns the index of the first entry whose minKey
// is strictly greater than k, or -1 if none is.
func (d *Directory[K, V]) upperBoundIndex(k K) int {
	return slices.IndexFunc(d.entries, func(e dirEntry[K, V]) bool {
		return e.minKey > k
	})
}

func (d *Directory[K, V]) indexOfMinKey(k K) int {
	i, ok := slices.BinarySearchFunc(d.entries, k, func(e dirEntry[K, V], target K) int {
		return cmpKey(e.minKey, target)
	})
	if !ok {
		return -1
	}
	return i
}

// Locate returns the block that might contain k: the greatest block
// whose min-key is <= k.
func (d *Directory[K, V]) Locate(k K) (*Block[K, V], bool) {
	if len(d.entries) == 0 {
		return nil, false
	}
	idx := d.upperBoundIndex(k)
	if idx == -1 {
		// no entry is strictly greater than k: the last block is the
		// candidate.
		return d.entries[len(d.entries)-1].block, true
	}
	if idx == 0 {
		// every block's min-key is already greater than k.
		return nil, false
	}
	return d.entries[idx-1].block, true
}

// Put registers b's current min-key, inserting it in sorted order.
// It panics if b's min-key is already registered under a different
// block, which would indicate a directory/block-list mismatch.
func (d *Directory[K, V]) Put(b *Block[K, V]) {
	minKey, ok := b.MinKey()
	if !ok {
		panic("isam: cannot register an empty block in the directory")
	}
	i, found := slices.BinarySearchFunc(d.entries, minKey, func(e dirEntry[K, V], target K) int {
		return cmpKey(e.minKey, target)
	})
	if found {
		if d.entries[i].block != b {
			panic("isam: min-key already registered under a different block")
		}
		return
	}
	d.entries = slices.Insert(d.entries, i, dirEntry[K, V]{minKey: minKey, block: b})
}

// Remove deletes the entry keyed by minKey, if present.
func (d *Directory[K, V]) Remove(minKey K) {
	if i := d.indexOfMinKey(minKey); i >= 0 {
		d.entries = slices.Delete(d.entries, i, i+1)
	}
}

// Reindex moves b's registration from oldMinKey to its current
// min-key, called after a merge may have changed which key is
// smallest in b.
func (d *Directory[K, V]) Reindex(b *Block[K, V], oldMinKey K) {
	d.Remove(oldMinKey)
	d.Put(b)
}

// FollowingMinKey returns the min-key of the directory entry
// immediately after the one for b's current min-key, for use as the
// merge upper bound.
func (d *Directory[K, V]) FollowingMinKey(b *Block[K, V]) (upper K, ok bool) {
	minKey, has := b.MinKey()
	if !has {
		return upper, false
	}
	i := d.indexOfMinKey(minKey)
	if i < 0 || i+1 >= len(d.entries) {
		return upper, false
	}
	return d.entries[i+1].minKey, true
}
