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

import "fmt"

// flushThreshold reports whether b should be split before further
// merging: occupancy at or above ceil(0.75 * capacity), and only for
// non-degenerate capacities.
func flushThreshold(size, capacity int) bool {
	if capacity < 2 {
		return false
	}
	return 4*size >= 3*capacity
}

// flush drains the overflow into the block list. Precondition: any
// cached handle held by the index has already been released. On
// return, the overflow is empty; calling flush again immediately is
// a no-op.
func (ix *Index[K, V]) flush() error {
	for ix.overflow.Len() > 0 {
		k, _, _ := ix.overflow.Min()

		target, ok := ix.directory.Locate(k)
		if !ok {
			id, err := ix.provider.CreateBlock(ix.blockBufferSize())
			if err != nil {
				return fmt.Errorf("isam: flush: create first block: %w", err)
			}
			target = newBlock[K, V](id, ix.blockCapacity, ix.head)
			ix.head = target
			// target is still empty; it is registered in the directory
			// below, once merge_overflow has given it a min-key. Put
			// would panic on an empty block.
		}

		oldMinKey, hadMinKey := target.MinKey()

		// Consider split: only if it would actually be touched by
		// this merge (its max key is not already below k).
		if flushThreshold(target.Size(), target.Capacity()) {
			maxKey, hasMax := target.MaxKey()
			if !(hasMax && maxKey < k) {
				newID, err := ix.provider.CreateBlock(ix.blockBufferSize())
				if err != nil {
					return fmt.Errorf("isam: flush: create split block: %w", err)
				}
				h, err := Acquire(ix.provider, ix.codec, target)
				if err != nil {
					return err
				}
				upper, err := h.Split(newID)
				if err != nil {
					h.Release()
					return err
				}
				if err := h.Release(); err != nil {
					return err
				}
				ix.directory.Put(upper)
			}
		}

		// Consider append: the target is the tail, or is full, and still
		// doesn't reach far enough to hold k; a successor is spliced in
		// right after it.
		if target.Next() == nil || target.Size() >= target.Capacity() {
			maxKey, hasMax := target.MaxKey()
			if hasMax && maxKey < k {
				newID, err := ix.provider.CreateBlock(ix.blockBufferSize())
				if err != nil {
					return fmt.Errorf("isam: flush: create successor block: %w", err)
				}
				succ := newBlock[K, V](newID, ix.blockCapacity, target.next)
				target.next = succ
				target = succ
				hadMinKey = false
			}
		}

		upperBound, hasUpper := ix.directory.FollowingMinKey(target)
		if !hasUpper && target.next != nil {
			// target is not registered yet (a new head or a spliced-in
			// successor): its list successor's min-key bounds the merge.
			upperBound, hasUpper = target.next.MinKey()
		}

		h, err := Acquire(ix.provider, ix.codec, target)
		if err != nil {
			return err
		}
		h.MergeOverflow(&ix.overflow, upperBound, hasUpper)
		if err := h.Release(); err != nil {
			return err
		}

		_, hasNewMinKey := target.MinKey()
		if !hasNewMinKey {
			// target stayed empty (possible only if overflow was
			// already empty by the time we reached it); nothing to
			// register.
			continue
		}
		if hadMinKey {
			ix.directory.Reindex(target, oldMinKey)
		} else {
			ix.directory.Put(target)
		}
	}
	return nil
}
