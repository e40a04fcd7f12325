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

// Package filepager implements a pager.Provider backed by a directory
// of plain files, one per block, named by a random UUID rather than a
// sequential counter so that concurrent test runs against the same
// base directory never collide. Block images are optionally
// compressed with s2 before being written.
package filepager

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/klauspost/compress/s2"

	"github.com/ordkv/ordkv/pager"
)

// Provider is a pager.Provider backed by files under Dir.
type Provider struct {
	// Dir is the directory blocks are stored under. It must already
	// exist.
	Dir string
	// Compress enables s2 compression of the stored block image.
	// LoadBlock always returns the decompressed bytes; Compress only
	// changes what's written to disk.
	Compress bool

	mu    sync.Mutex
	next  pager.BlockID
	names map[pager.BlockID]string
}

// New returns a Provider rooted at dir. dir must already exist.
func New(dir string, compress bool) *Provider {
	return &Provider{
		Dir:      dir,
		Compress: compress,
		names:    make(map[pager.BlockID]string),
	}
}

func (p *Provider) path(name string) string {
	return filepath.Join(p.Dir, name+".blk")
}

func (p *Provider) CreateBlock(size int) (pager.BlockID, error) {
	name := uuid.New().String()
	buf := make([]byte, size)
	if err := p.writeFile(name, buf); err != nil {
		return 0, fmt.Errorf("filepager: create block: %w", err)
	}
	p.mu.Lock()
	p.next++
	id := p.next
	p.names[id] = name
	p.mu.Unlock()
	return id, nil
}

func (p *Provider) LoadBlock(id pager.BlockID) ([]byte, error) {
	name, ok := p.nameOf(id)
	if !ok {
		return nil, fmt.Errorf("filepager: load %d: %w", id, pager.ErrNoSuchBlock)
	}
	raw, err := os.ReadFile(p.path(name))
	if err != nil {
		return nil, fmt.Errorf("filepager: load %d: %w", id, err)
	}
	if !p.Compress {
		return raw, nil
	}
	out, err := s2.Decode(nil, raw)
	if err != nil {
		return nil, fmt.Errorf("filepager: decompress %d: %w", id, err)
	}
	return out, nil
}

func (p *Provider) StoreBlock(id pager.BlockID, buf []byte) error {
	name, ok := p.nameOf(id)
	if !ok {
		return fmt.Errorf("filepager: store %d: %w", id, pager.ErrNoSuchBlock)
	}
	return p.writeFile(name, buf)
}

func (p *Provider) FreeBlock(id pager.BlockID) error {
	name, ok := p.nameOf(id)
	if !ok {
		return fmt.Errorf("filepager: free %d: %w", id, pager.ErrNoSuchBlock)
	}
	p.mu.Lock()
	delete(p.names, id)
	p.mu.Unlock()
	if err := os.Remove(p.path(name)); err != nil {
		return fmt.Errorf("filepager: free %d: %w", id, err)
	}
	return nil
}

func (p *Provider) nameOf(id pager.BlockID) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	name, ok := p.names[id]
	return name, ok
}

func (p *Provider) writeFile(name string, buf []byte) error {
	out := buf
	if p.Compress {
		out = s2.Encode(nil, buf)
	}
	return os.WriteFile(p.path(name), out, 0o600)
}
