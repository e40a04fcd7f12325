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

// Package pager defines the block-storage collaborator that isam is
// built on top of. A Provider hands out opaque block
// identifiers and lets a caller load and store the byte image backing
// one, without the caller knowing or caring whether that image lives
// in memory, on a local disk, or behind a network call.
package pager

import "errors"

// BlockID identifies a block handed out by a Provider. It is opaque
// to callers: no arithmetic or ordering property of a BlockID is part
// of the contract.
type BlockID uint64

// ErrNoSuchBlock is returned by LoadBlock, StoreBlock, and FreeBlock
// when called with a BlockID the Provider never issued, or one that
// was already freed.
var ErrNoSuchBlock = errors.New("pager: no such block")

// Provider is the storage abstraction consumed by isam.Index. All
// four operations are synchronous. A Provider implementation may
// surface its own I/O errors through the error return; the caller
// (isam) does not attempt to recover from them.
type Provider interface {
	// CreateBlock reserves storage for at least size bytes and
	// returns a fresh BlockID for it.
	CreateBlock(size int) (BlockID, error)
	// LoadBlock returns the bytes currently stored for id. After a
	// StoreBlock call returns, a subsequent LoadBlock reflects the
	// stored bytes.
	LoadBlock(id BlockID) ([]byte, error)
	// StoreBlock persists buf as the image for id. It may be called
	// more than once for the same id.
	StoreBlock(id BlockID, buf []byte) error
	// FreeBlock releases the storage backing id. Further operations
	// on id are undefined after FreeBlock returns.
	FreeBlock(id BlockID) error
}
