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

	"golang.org/x/exp/constraints"

	"github.com/ordkv/ordkv/pager"
)

// Handle is the scoped, exclusive acquisition of one block's (key,
// value) arrays. Acquire loads the block's buffer through the
// pager.Provider and decodes it; Release encodes the current
// contents and stores them back exactly once. A Handle must not be
// copied; a Block may have at most one live Handle at a time (a
// second Acquire on an already-acquired Block panics, since that
// would otherwise risk a double store).
//
// Release is idempotent, so `defer h.Release()` alongside an earlier
// explicit call is safe and stores at most once.
type Handle[K constraints.Ordered, V any] struct {
	provider pager.Provider
	codec    Codec[K, V]
	block    *Block[K, V]
	keys     []K
	vals     []V
	released bool
}

// Acquire loads b's buffer and returns a Handle for mutating it.
func Acquire[K constraints.Ordered, V any](p pager.Provider, codec Codec[K, V], b *Block[K, V]) (*Handle[K, V], error) {
	if b.locked {
		panic("isam: block already has a live handle")
	}
	buf, err := p.LoadBlock(b.id)
	if err != nil {
		return nil, fmt.Errorf("isam: acquire block %d: %w", b.id, err)
	}
	keys, vals, err := codec.Decode(buf)
	if err != nil {
		return nil, fmt.Errorf("isam: decode block %d: %w", b.id, err)
	}
	b.locked = true
	return &Handle[K, V]{provider: p, codec: codec, block: b, keys: keys, vals: vals}, nil
}

// Block returns the descriptor this handle was acquired for.
func (h *Handle[K, V]) Block() *Block[K, V] { return h.block }

// Size returns the number of loaded entries.
func (h *Handle[K, V]) Size() int { return len(h.keys) }

// At returns the i'th (key, value) pair, in ascending order.
func (h *Handle[K, V]) At(i int) (K, V) { return h.keys[i], h.vals[i] }

// Find returns the position of k via binary search. found is false
// if k is absent; Find never returns a neighboring position.
func (h *Handle[K, V]) Find(k K) (i int, found bool) {
	lo, hi := 0, len(h.keys)
	for lo < hi {
		mid := (lo + hi) / 2
		switch {
		case h.keys[mid] < k:
			lo = mid + 1
		case h.keys[mid] > k:
			hi = mid
		default:
			return mid, true
		}
	}
	return -1, false
}

// SetAt overwrites the value at position i, which must be a position
// previously returned by Find.
func (h *Handle[K, V]) SetAt(i int, v V) { h.vals[i] = v }

// Append adds a new trailing entry. The caller must ensure k is
// greater than every existing key and that Size() < Capacity().
func (h *Handle[K, V]) Append(k K, v V) {
	h.keys = append(h.keys, k)
	h.vals = append(h.vals, v)
}

// Split moves the upper half of h's entries into a freshly created
// block using newID, shrinks h in place, and splices the new block
// immediately after h's in the list: count = current_size/2 entries
// move, starting at current_size-count, and the copy walks the moved
// slice by index (not by a fixed offset, which would be an
// off-by-one).
func (h *Handle[K, V]) Split(newID pager.BlockID) (*Block[K, V], error) {
	n := len(h.keys)
	count := n / 2
	start := n - count

	movedKeys := make([]K, count)
	movedVals := make([]V, count)
	for idx := 0; idx < count; idx++ {
		movedKeys[idx] = h.keys[start+idx]
		movedVals[idx] = h.vals[start+idx]
	}

	h.keys = h.keys[:start]
	h.vals = h.vals[:start]
	h.block.setCache(h.keys)

	newBlock := newBlock[K, V](newID, h.block.capacity, h.block.next)
	h.block.next = newBlock

	buf, err := h.codec.Encode(movedKeys, movedVals)
	if err != nil {
		return nil, fmt.Errorf("isam: encode split block %d: %w", newID, err)
	}
	if err := h.provider.StoreBlock(newID, buf); err != nil {
		return nil, fmt.Errorf("isam: store split block %d: %w", newID, err)
	}
	newBlock.setCache(movedKeys)
	return newBlock, nil
}

// MergeOverflow folds overflow entries whose key is less than
// upperBound (or all of them, if hasUpper is false) into h,
// respecting the block's capacity.
func (h *Handle[K, V]) MergeOverflow(ov *Overflow[K, V], upperBound K, hasUpper bool) {
	capacity := h.block.capacity
	skipUpperCheck := capacity < 2
	i := 0
loop:
	for {
		if i == capacity || ov.Len() == 0 {
			break
		}
		mk, _, _ := ov.Min()
		switch {
		case i < len(h.keys) && h.keys[i] < mk:
			i++
		case i < len(h.keys):
			// h.keys[i] >= mk: overflow wins the tie.
			oldKey, oldVal := h.keys[i], h.vals[i]
			nk, nv, _ := ov.Min()
			ov.RemoveMin()
			if oldKey != nk {
				ov.Put(oldKey, oldVal)
			}
			h.keys[i] = nk
			h.vals[i] = nv
			i++
		case len(h.keys) < capacity && (skipUpperCheck || !hasUpper || mk < upperBound):
			nk, nv, _ := ov.Min()
			ov.RemoveMin()
			h.keys = append(h.keys, nk)
			h.vals = append(h.vals, nv)
			i++
		default:
			break loop
		}
	}
	h.block.setCache(h.keys)
}

// Release encodes the handle's current contents and stores them
// back through the pager.Provider. It is safe to call more than
// once; only the first call stores.
func (h *Handle[K, V]) Release() error {
	if h.released {
		return nil
	}
	h.released = true
	h.block.locked = false
	buf, err := h.codec.Encode(h.keys, h.vals)
	if err != nil {
		return fmt.Errorf("isam: encode block %d: %w", h.block.id, err)
	}
	if err := h.provider.StoreBlock(h.block.id, buf); err != nil {
		return fmt.Errorf("isam: store block %d: %w", h.block.id, err)
	}
	return nil
}
