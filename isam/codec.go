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
	"bytes"
	"encoding/gob"
	"fmt"
)

// Codec converts between a block's in-memory (keys, values) arrays
// and the byte buffer a pager.Provider actually stores. The index
// never interprets the buffer itself; only the Codec does.
//
// None of the retrieval pack's third-party dependencies offer a
// generic-type-agnostic structured binary codec (klauspost/compress
// operates on bytes already produced by one; ion is a fixed schema
// tightly coupled to sneller's own Datum type and not a fit for an
// arbitrary K,V pair), so GobCodec below falls back to
// encoding/gob; see DESIGN.md.
type Codec[K any, V any] interface {
	Encode(keys []K, vals []V) ([]byte, error)
	Decode(buf []byte) (keys []K, vals []V, err error)
}

// GobCodec is the default Codec, using encoding/gob. It is adequate
// for any K, V pair whose fields are exported, which is all the
// property tests in this package need.
type GobCodec[K any, V any] struct{}

type gobPage[K any, V any] struct {
	Keys []K
	Vals []V
}

func (GobCodec[K, V]) Encode(keys []K, vals []V) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(gobPage[K, V]{Keys: keys, Vals: vals}); err != nil {
		return nil, fmt.Errorf("isam: gob encode: %w", err)
	}
	return buf.Bytes(), nil
}

func (GobCodec[K, V]) Decode(buf []byte) ([]K, []V, error) {
	if len(buf) == 0 {
		return nil, nil, nil
	}
	var page gobPage[K, V]
	if err := gob.NewDecoder(bytes.NewReader(buf)).Decode(&page); err != nil {
		return nil, nil, fmt.Errorf("isam: gob decode: %w", err)
	}
	return page.Keys, page.Vals, nil
}
