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
	"errors"
	"fmt"

	"github.com/dchest/siphash"
)

// entrySize is sizeof(FeatureEntry): three little-endian uint64
// fields, laid out bit-exactly so readers and writers agree without
// a version tag.
const entrySize = 24

// checksum key. Fixed, module-wide constants (not a secret; this is
// a torn-write detector, not an authentication tag), matching
// splitter.go's use of two fixed uint64 keys for siphash.Hash.
const (
	checksumKey0 = uint64(0xb16b00b5c0ffee)
	checksumKey1 = uint64(0x0ddc0ffeefacade)
)

// ErrTruncated is returned by Open when the segment is too short to
// hold the entry table it claims, or an entry's byte range runs past
// the end of the postings blob.
var ErrTruncated = errors.New("invidx: truncated segment")

// ErrChecksumMismatch is returned by Open when the entry table's
// SipHash-2-4 checksum does not match the trailer, indicating a torn
// or otherwise corrupted write. This is a read-time sanity check, not
// a recovery mechanism.
var ErrChecksumMismatch = errors.New("invidx: entry table checksum mismatch")

// FeatureEntry is the fixed-size record for one feature's posting
// list: its id, the encoded byte length of its posting list, and that
// list's offset from the start of the postings blob (not from the
// start of the segment).
type FeatureEntry struct {
	FeatureID  uint64
	ByteCount  uint64
	ByteOffset uint64
}

// Storage is a read-only view over a segment laid out as
// entries[0..F], then an 8-byte SipHash-2-4 checksum of the entry
// table, then the concatenated postings blob. Storage
// never mutates its backing segment, so reads are safe from any
// number of concurrent goroutines.
type Storage struct {
	entries []FeatureEntry
	blob    []byte
}

// Open parses seg, which must have been produced by Write, as a
// Storage view with numFeatures entries (the layout carries no
// feature count of its own; the caller must know it, typically
// because it allocated the segment).
func Open(seg []byte, numFeatures int) (*Storage, error) {
	headerLen := numFeatures * entrySize
	if len(seg) < headerLen+8 {
		return nil, fmt.Errorf("invidx: open: %w", ErrTruncated)
	}
	header := seg[:headerLen]
	trailer := seg[headerLen : headerLen+8]
	blob := seg[headerLen+8:]

	want := binary.LittleEndian.Uint64(trailer)
	got := siphash.Hash(checksumKey0, checksumKey1, header)
	if got != want {
		return nil, ErrChecksumMismatch
	}

	entries := make([]FeatureEntry, numFeatures)
	for i := range entries {
		rec := header[i*entrySize : (i+1)*entrySize]
		e := FeatureEntry{
			FeatureID:  binary.LittleEndian.Uint64(rec[0:8]),
			ByteCount:  binary.LittleEndian.Uint64(rec[8:16]),
			ByteOffset: binary.LittleEndian.Uint64(rec[16:24]),
		}
		if e.ByteOffset+e.ByteCount > uint64(len(blob)) {
			return nil, fmt.Errorf("invidx: open: feature %d: %w", e.FeatureID, ErrTruncated)
		}
		entries[i] = e
	}
	return &Storage{entries: entries, blob: blob}, nil
}

// NumFeatures returns the number of features in the entry table.
func (s *Storage) NumFeatures() int { return len(s.entries) }

// Entry returns the FeatureEntry for featureID. ok is false if
// featureID is out of range.
func (s *Storage) Entry(featureID int) (FeatureEntry, bool) {
	if featureID < 0 || featureID >= len(s.entries) {
		return FeatureEntry{}, false
	}
	return s.entries[featureID], true
}

// Postings returns a forward iterator over featureID's document-id
// stream, decoding deltas lazily. ok is false if featureID is out of
// range.
func (s *Storage) Postings(featureID int) (*PostingIterator, bool) {
	e, ok := s.Entry(featureID)
	if !ok {
		return nil, false
	}
	buf := s.blob[e.ByteOffset : e.ByteOffset+e.ByteCount]
	return &PostingIterator{buf: buf}, true
}
