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

// Cursor is a forward iterator that merges the block list with an
// overflow snapshot into one ascending-key stream. It does not invoke
// flush: it walks whatever block/overflow state it was given at
// construction. Use Next to advance and Key/Value to read the current
// pair; call Close (or exhaust Next) to release any held block
// handle.
type Cursor[K constraints.Ordered, V any] struct {
	provider pager.Provider
	codec    Codec[K, V]

	block    *Block[K, V]
	handle   *Handle[K, V]
	blockIdx int

	overflowKeys []K
	overflowVals []V
	overflowIdx  int

	curKey K
	curVal V
	done   bool
	err    error
}

func (c *Cursor[K, V]) blockHasMore() bool {
	return c.block != nil && c.blockIdx < c.handle.Size()
}

func (c *Cursor[K, V]) overflowHasMore() bool {
	return c.overflowIdx < len(c.overflowKeys)
}

// Next advances the cursor to the next ascending pair and reports
// whether one is available. It must be called once before the first
// Key/Value read.
func (c *Cursor[K, V]) Next() bool {
	if c.err != nil || c.done {
		return false
	}
	if !c.blockHasMore() && !c.overflowHasMore() {
		c.done = true
		return false
	}

	fromOverflow := false
	switch {
	case !c.blockHasMore():
		fromOverflow = true
	case !c.overflowHasMore():
		fromOverflow = false
	default:
		bk, _ := c.handle.At(c.blockIdx)
		fromOverflow = c.overflowKeys[c.overflowIdx] < bk
	}

	if fromOverflow {
		c.curKey = c.overflowKeys[c.overflowIdx]
		c.curVal = c.overflowVals[c.overflowIdx]
		c.overflowIdx++
		return true
	}

	c.curKey, c.curVal = c.handle.At(c.blockIdx)
	c.blockIdx++
	if c.blockIdx == c.handle.Size() {
		if err := c.handle.Release(); err != nil {
			c.err = err
			return false
		}
		c.block = c.block.Next()
		c.blockIdx = 0
		c.handle = nil
		if c.block != nil {
			h, err := Acquire(c.provider, c.codec, c.block)
			if err != nil {
				c.err = err
				return false
			}
			c.handle = h
		}
	}
	return true
}

// Key returns the key of the pair Next last produced.
func (c *Cursor[K, V]) Key() K { return c.curKey }

// Value returns the value of the pair Next last produced.
func (c *Cursor[K, V]) Value() V { return c.curVal }

// Err returns the first error encountered while advancing, if any.
func (c *Cursor[K, V]) Err() error { return c.err }

// Close releases any block handle the cursor currently holds. It is
// safe to call more than once, and a no-op once Next has returned
// false on its own.
func (c *Cursor[K, V]) Close() error {
	if c.handle == nil {
		return nil
	}
	err := c.handle.Release()
	c.handle = nil
	return err
}
