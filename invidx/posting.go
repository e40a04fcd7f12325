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

// PostingIterator is a forward iterator over one feature's posting
// list. It decodes deltas lazily, one at a time, rather than
// materializing the whole document-id stream up front.
type PostingIterator struct {
	buf  []byte
	pos  int
	last uint64
}

// Next decodes and returns the next ascending document id. ok is
// false once the posting list is exhausted.
func (p *PostingIterator) Next() (id uint64, ok bool) {
	if p.pos >= len(p.buf) {
		return 0, false
	}
	delta, n := getVarint(p.buf[p.pos:])
	p.pos += n
	p.last += delta
	return p.last, true
}

// Drain materializes every remaining id in the posting list. The
// intersection engine (intersect.Intersect) takes materialized
// []uint64 lists, so callers Drain each feature's iterator before
// intersecting.
func (p *PostingIterator) Drain() []uint64 {
	var out []uint64
	for {
		id, ok := p.Next()
		if !ok {
			return out
		}
		out = append(out, id)
	}
}
