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

// Package isam implements an ISAM-style ordered key/value index: a
// sorted, linked list of fixed-capacity blocks backed by a
// pager.Provider, fronted by a small in-memory overflow buffer that
// absorbs inserts until it is drained into the block list by a
// fill-factor-driven flush/split policy.
//
// The index is single-threaded: there is no internal locking, and
// mutating calls (Set, flush) assume the caller holds exclusive
// access. Cursor iteration merges the block list and the overflow
// buffer into one ascending stream; a Cursor is invalidated by any
// subsequent mutating call on the Index it was created from.
package isam
