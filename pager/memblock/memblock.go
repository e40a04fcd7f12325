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

// Package memblock implements an in-memory pager.Provider. It is the
// provider used by isam's unit and property tests: it has no I/O
// latency of its own, so tests exercise the handle/flush/split
// discipline rather than a disk.
package memblock

import (
	"fmt"
	"sync"

	"golang.org/x/crypto/blake2b"

	"github.com/ordkv/ordkv/pager"
)

// Provider is an in-memory pager.Provider. The zero value is not
// usable; construct one with New.
type Provider struct {
	mu     sync.Mutex
	next   pager.BlockID
	blocks map[pager.BlockID][]byte

	// digests records a 128-bit digest (the first 16 bytes of the
	// BLAKE2b-256 sum) of the bytes last passed to
	// StoreBlock for each id, so tests can assert that a value
	// survived a full store/load round trip rather than having been
	// read back from a cached buffer.
	digests map[pager.BlockID][16]byte
}

// New returns an empty in-memory Provider.
func New() *Provider {
	return &Provider{
		blocks:  make(map[pager.BlockID][]byte),
		digests: make(map[pager.BlockID][16]byte),
	}
}

func (p *Provider) CreateBlock(size int) (pager.BlockID, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next++
	id := p.next
	p.blocks[id] = make([]byte, size)
	p.digests[id] = digestOf(p.blocks[id])
	return id, nil
}

func (p *Provider) LoadBlock(id pager.BlockID) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	buf, ok := p.blocks[id]
	if !ok {
		return nil, fmt.Errorf("memblock: load %d: %w", id, pager.ErrNoSuchBlock)
	}
	out := make([]byte, len(buf))
	copy(out, buf)
	return out, nil
}

func (p *Provider) StoreBlock(id pager.BlockID, buf []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.blocks[id]; !ok {
		return fmt.Errorf("memblock: store %d: %w", id, pager.ErrNoSuchBlock)
	}
	stored := make([]byte, len(buf))
	copy(stored, buf)
	p.blocks[id] = stored
	p.digests[id] = digestOf(stored)
	return nil
}

func (p *Provider) FreeBlock(id pager.BlockID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.blocks[id]; !ok {
		return fmt.Errorf("memblock: free %d: %w", id, pager.ErrNoSuchBlock)
	}
	delete(p.blocks, id)
	delete(p.digests, id)
	return nil
}

// Digest returns the 128-bit digest recorded for id's last
// StoreBlock call, for use in tests that want to confirm a block was
// actually written back rather than merely mutated in place.
func (p *Provider) Digest(id pager.BlockID) ([16]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	d, ok := p.digests[id]
	return d, ok
}

func digestOf(buf []byte) [16]byte {
	// blake2b.Sum256 is overkill for a fixed small test tag; 128 bits
	// are enough to catch accidental aliasing between blocks in tests,
	// so the unkeyed 256-bit sum is truncated.
	full := blake2b.Sum256(buf)
	var out [16]byte
	copy(out[:], full[:16])
	return out
}
