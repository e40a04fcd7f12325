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

package invidx

import (
	"encoding/binary"

	"github.com/dchest/siphash"
)

// pendingFlushThreshold is the number of buffered FeatureEntry
// records the writer accumulates before copying them into the entry
// table. This is a write-locality nicety (the entry table and the
// in-flight postings region are touched in separate bursts rather
// than interleaved one record at a time); it has no effect on the
// produced bytes.
const pendingFlushThreshold = 20

// Write builds the on-disk layout for postings, one ascending,
// deduplicated document-id slice per feature, indexed by feature id
// (postings[i] is feature i's list). It returns the complete segment:
// the fixed-size entry table, an 8-byte SipHash-2-4 checksum of that
// table, and the concatenated, delta-encoded postings blob — see
// Open for the reader side of this layout.
func Write(postings [][]uint64) ([]byte, error) {
	numFeatures := len(postings)
	headerLen := numFeatures * entrySize

	total := 0
	for _, ids := range postings {
		total += len(ids)
	}
	// Upper-bound size estimate; actual usage is typically far smaller.
	// A delta occasionally needing more than 8 encoded bytes just costs
	// a reallocation, not correctness.
	maxSize := headerLen + 8 + total*8

	buf := make([]byte, headerLen+8, maxSize)

	pending := make([]FeatureEntry, 0, pendingFlushThreshold)
	flushPending := func() {
		for _, e := range pending {
			rec := buf[e.FeatureID*entrySize : e.FeatureID*entrySize+entrySize]
			binary.LittleEndian.PutUint64(rec[0:8], e.FeatureID)
			binary.LittleEndian.PutUint64(rec[8:16], e.ByteCount)
			binary.LittleEndian.PutUint64(rec[16:24], e.ByteOffset)
		}
		pending = pending[:0]
	}

	var nextOffset uint64
	for i, ids := range postings {
		start := len(buf)
		buf = encodeDeltas(buf, ids, 0)
		byteCount := uint64(len(buf) - start)

		pending = append(pending, FeatureEntry{
			FeatureID:  uint64(i),
			ByteCount:  byteCount,
			ByteOffset: nextOffset,
		})
		nextOffset += byteCount

		if len(pending) >= pendingFlushThreshold {
			flushPending()
		}
	}
	flushPending()

	sum := siphash.Hash(checksumKey0, checksumKey1, buf[:headerLen])
	binary.LittleEndian.PutUint64(buf[headerLen:headerLen+8], sum)

	return buf, nil
}
