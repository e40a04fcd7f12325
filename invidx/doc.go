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

// Package invidx implements a write-once inverted index: a feature
// table of fixed-size entries followed by a blob of variable-byte,
// delta-encoded document-id postings.
// Storage is an immutable, read-only view safe for concurrent readers;
// Write is the single-threaded builder that produces the layout in
// one pass. See the invidx/intersect subpackage for the multi-threaded
// conjunctive (AND) query engine that consumes the document-id lists
// drained from Storage's posting iterators.
package invidx
