// Copyright (C) 2025 Brigham Skarda

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.

// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package stringheap builds and reads the deduplicating string heap
// embedded in a .pbi file: a varint-length-prefixed, insertion-ordered
// sequence of UTF-8 strings addressed by 32-bit id. Id 0 is reserved for
// "missing/unknown" and is never stored.
package stringheap

import (
	"encoding/binary"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Builder interns strings during indexing and serialises them once, in
// insertion order, via Finalize.
type Builder struct {
	// Normalize applies NFKC + trim before hashing, so strings identical
	// under Unicode normalisation collapse to one id.
	Normalize bool

	byValue []string
	ids     map[string]uint32
}

// NewBuilder returns an empty Builder. Id 0 is pre-reserved.
func NewBuilder() *Builder {
	return &Builder{ids: make(map[string]uint32)}
}

func (b *Builder) key(s string) string {
	if b.Normalize {
		return strings.TrimSpace(string(norm.NFKC.Bytes([]byte(s))))
	}
	return s
}

// Intern returns the id for s, interning it if not already present. The
// empty string and "?" both map to id 0 and are never stored.
func (b *Builder) Intern(s string) uint32 {
	if s == "" || s == "?" {
		return 0
	}
	key := b.key(s)
	if id, ok := b.ids[key]; ok {
		return id
	}
	b.byValue = append(b.byValue, key)
	id := uint32(len(b.byValue)) // ids are 1-based; 0 is the sentinel
	b.ids[key] = id
	return id
}

// Len reports the number of distinct interned strings (excluding id 0).
func (b *Builder) Len() int {
	return len(b.byValue)
}

// Finalize serialises the heap: each entry is a varint length prefix
// followed by its UTF-8 bytes, in insertion order.
func (b *Builder) Finalize() []byte {
	var out []byte
	var lenBuf [binary.MaxVarintLen64]byte
	for _, s := range b.byValue {
		n := binary.PutUvarint(lenBuf[:], uint64(len(s)))
		out = append(out, lenBuf[:n]...)
		out = append(out, s...)
	}
	return out
}

// Reader resolves heap ids against a finalised blob, via a one-time index
// built over the varint-prefixed entries.
type Reader struct {
	blob    []byte
	offsets []int // offsets[i] is the start of the string payload for id i+1
	lengths []int
}

// NewReader indexes blob so Lookup is O(1).
func NewReader(blob []byte) (*Reader, error) {
	r := &Reader{blob: blob}
	pos := 0
	for pos < len(blob) {
		n, sz := binary.Uvarint(blob[pos:])
		if sz <= 0 {
			return nil, fmt.Errorf("stringheap: corrupt varint length at byte %d", pos)
		}
		pos += sz
		if pos+int(n) > len(blob) {
			return nil, fmt.Errorf("stringheap: string at byte %d overruns heap", pos)
		}
		r.offsets = append(r.offsets, pos)
		r.lengths = append(r.lengths, int(n))
		pos += int(n)
	}
	return r, nil
}

// Lookup returns the bytes for id. Id 0 always returns an empty slice.
func (r *Reader) Lookup(id uint32) ([]byte, error) {
	if id == 0 {
		return nil, nil
	}
	idx := int(id) - 1
	if idx < 0 || idx >= len(r.offsets) {
		return nil, fmt.Errorf("stringheap: id %d out of range (heap has %d entries)", id, len(r.offsets))
	}
	start := r.offsets[idx]
	return r.blob[start : start+r.lengths[idx]], nil
}

// Len reports the number of entries in the heap.
func (r *Reader) Len() int {
	return len(r.offsets)
}
