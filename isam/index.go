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

// Index is an ISAM-style ordered key/value index: a sorted, linked
// list of pager-backed blocks fronted by an in-memory overflow
// buffer. It owns the block list head, the directory, the overflow,
// and the two capacity parameters; see doc.go for the concurrency
// model (single-threaded, no internal locking).
//
// Go has no operator overloading, so the mutable/const `index[key]`
// accessors of an associative container are exposed as Set and Get:
// Set locates an existing key's block and mutates it in place (never
// routing an update to an already-resident key through the overflow
// buffer, so a key is never simultaneously "live" in both places
// under normal use), and inserts new keys into the overflow buffer.
// Get checks the block list first and the overflow buffer second, and
// returns the index's stable zero value when the key is absent in
// either place.
type Index[K constraints.Ordered, V any] struct {
	provider pager.Provider
	codec    Codec[K, V]

	blockCapacity    int
	overflowCapacity int

	head      *Block[K, V]
	directory Directory[K, V]
	overflow  Overflow[K, V]

	zero V
}

// New returns an empty Index backed by provider, with the given
// per-block capacity and overflow-buffer capacity. codec governs how
// a block's (keys, values) arrays are turned into the bytes the
// provider actually stores; GobCodec[K, V]{} is a reasonable default.
func New[K constraints.Ordered, V any](provider pager.Provider, codec Codec[K, V], blockCapacity, overflowCapacity int) *Index[K, V] {
	return &Index[K, V]{
		provider:         provider,
		codec:            codec,
		blockCapacity:    blockCapacity,
		overflowCapacity: overflowCapacity,
	}
}

// blockBufferSize is the byte size requested from the provider for a
// freshly created, empty block. Zero is correct here: Codec.Decode
// treats a zero-length buffer as an empty (keys, vals) pair, and
// every subsequent store re-encodes the block's full contents from
// scratch, so there is nothing to gain from pre-sizing a guess at an
// encoded-entry width the Codec never reveals.
func (ix *Index[K, V]) blockBufferSize() int { return 0 }

// Set inserts v for k, overwriting any existing value. If k is
// already present in a block, that block is updated in place and no
// overflow entry is created or disturbed. Otherwise k is buffered in
// the overflow map, which is drained into the block list once it
// reaches overflowCapacity.
func (ix *Index[K, V]) Set(k K, v V) error {
	if ix.overflow.Len() >= ix.overflowCapacity {
		if err := ix.flush(); err != nil {
			return err
		}
	}

	if blk, ok := ix.directory.Locate(k); ok {
		h, err := Acquire(ix.provider, ix.codec, blk)
		if err != nil {
			return err
		}
		if i, found := h.Find(k); found {
			h.SetAt(i, v)
			return h.Release()
		}
		if err := h.Release(); err != nil {
			return err
		}
	}

	ix.overflow.Put(k, v)
	if ix.overflow.Len() >= ix.overflowCapacity {
		return ix.flush()
	}
	return nil
}

// Get returns the value stored for k, or the index's stable zero
// value if k is absent. Get never mutates the block list, directory,
// or overflow, and never triggers a flush.
func (ix *Index[K, V]) Get(k K) (V, error) {
	if blk, ok := ix.directory.Locate(k); ok {
		h, err := Acquire(ix.provider, ix.codec, blk)
		if err != nil {
			return ix.zero, err
		}
		defer h.Release()
		if i, found := h.Find(k); found {
			_, v := h.At(i)
			return v, nil
		}
	}
	if v, ok := ix.overflow.Get(k); ok {
		return v, nil
	}
	return ix.zero, nil
}

// Flush drains the overflow buffer into the block list immediately,
// regardless of whether it has reached overflowCapacity. Two
// consecutive calls are equivalent to one: the second is a no-op
// because the first already emptied the overflow buffer.
func (ix *Index[K, V]) Flush() error {
	return ix.flush()
}

// Cursor returns a forward iterator over every (key, value) pair in
// ascending key order, merging the block list with a snapshot of the
// overflow buffer taken at the moment Cursor is called. The returned
// Cursor must eventually be closed (directly, or implicitly by
// calling Next until it returns false) so any block handle it holds
// is released. A Cursor is invalidated by any subsequent call to Set
// or Flush on ix; this is a precondition on the caller, not something
// the Cursor detects at runtime.
func (ix *Index[K, V]) Cursor() (*Cursor[K, V], error) {
	keys, vals := ix.overflow.All()
	c := &Cursor[K, V]{
		provider:     ix.provider,
		codec:        ix.codec,
		block:        ix.head,
		overflowKeys: keys,
		overflowVals: vals,
	}
	if c.block != nil {
		h, err := Acquire(ix.provider, ix.codec, c.block)
		if err != nil {
			return nil, err
		}
		c.handle = h
	}
	return c, nil
}

// Close releases every block in the list through the provider's
// FreeBlock. The overflow buffer and directory are reset; ix must not
// be used afterward.
func (ix *Index[K, V]) Close() error {
	for b := ix.head; b != nil; {
		next := b.Next()
		if err := ix.provider.FreeBlock(b.ID()); err != nil {
			return err
		}
		b = next
	}
	ix.head = nil
	ix.directory = Directory[K, V]{}
	ix.overflow = Overflow[K, V]{}
	return nil
}
