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

package pbi

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/gofrs/flock"

	"github.com/brighamskarda/pgnforge/internal/pgnerr"
)

// Reader memory-maps a .pbi file for O(1) random access to its header,
// record array, and string heap.
type Reader struct {
	f      *os.File
	data   mmap.MMap
	header Header
}

// Open memory-maps path and validates its header. The caller must call
// Close when done.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pbi: %w", err)
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("pbi: mmap: %w", err)
	}
	h, err := unmarshalHeader(data)
	if err != nil {
		data.Unmap()
		f.Close()
		return nil, err
	}
	r := &Reader{f: f, data: data, header: h}
	if !r.VerifyChecksum() {
		r.Close()
		return nil, fmt.Errorf("pbi: %w: checksum mismatch", pgnerr.ErrIndexCorrupt)
	}
	return r, nil
}

// Close unmaps and closes the underlying file.
func (r *Reader) Close() error {
	err1 := r.data.Unmap()
	err2 := r.f.Close()
	if err1 != nil {
		return err1
	}
	return err2
}

// Header returns the parsed file header.
func (r *Reader) Header() Header {
	return r.header
}

func (r *Reader) recordsRegion() []byte {
	start := headerSize
	end := start + int(r.header.GameCount)*RecordSize
	return r.data[start:end]
}

// Records returns every GameRecord in file order.
func (r *Reader) Records() ([]GameRecord, error) {
	region := r.recordsRegion()
	out := make([]GameRecord, r.header.GameCount)
	for i := range out {
		rec, err := UnmarshalGameRecord(region[i*RecordSize : (i+1)*RecordSize])
		if err != nil {
			return nil, fmt.Errorf("pbi: record %d: %w", i, err)
		}
		out[i] = rec
	}
	return out, nil
}

// Record returns the i'th GameRecord without decoding the whole array.
func (r *Reader) Record(i int) (GameRecord, error) {
	if i < 0 || uint64(i) >= r.header.GameCount {
		return GameRecord{}, fmt.Errorf("pbi: record index %d out of range (%d records)", i, r.header.GameCount)
	}
	region := r.recordsRegion()
	return UnmarshalGameRecord(region[i*RecordSize : (i+1)*RecordSize])
}

// HeapString resolves id against the trailing string heap.
func (r *Reader) HeapString(id uint32) ([]byte, error) {
	if id == 0 {
		return nil, nil
	}
	heap := r.data[r.header.HeapOffset : r.header.HeapOffset+r.header.HeapLength]
	pos := uint64(0)
	// Linear scan: the heap has no separate offset index on disk, matching
	// the format's "addressed by offset+length from the id table" wording
	// where the id table is the insertion order itself. Readers that need
	// repeated random lookups should build a stringheap.Reader once via
	// HeapBlob and reuse it.
	for currentID := uint32(1); pos < uint64(len(heap)); currentID++ {
		n, sz := binary.Uvarint(heap[pos:])
		if sz <= 0 {
			return nil, fmt.Errorf("pbi: corrupt heap at offset %d", pos)
		}
		pos += uint64(sz)
		if currentID == id {
			return heap[pos : pos+n], nil
		}
		pos += n
	}
	return nil, fmt.Errorf("pbi: heap id %d not found", id)
}

// HeapBlob returns the raw trailing string heap bytes, for callers that
// want to build a stringheap.Reader once and perform many O(1) lookups.
func (r *Reader) HeapBlob() []byte {
	return r.data[r.header.HeapOffset : r.header.HeapOffset+r.header.HeapLength]
}

// VerifyChecksum recomputes the CRC32 over the records and heap and
// compares it against the stored checksum.
func (r *Reader) VerifyChecksum() bool {
	records := r.recordsRegion()
	heap := r.data[r.header.HeapOffset : r.header.HeapOffset+r.header.HeapLength]
	return checksum(records, heap) == r.header.Checksum
}

// SetFlags updates the Flags byte of record i in place, then recomputes and
// rewrites the header checksum. This is the single documented exception to
// the "read-only by convention" rule (see DESIGN.md for the Open Question
// this resolves): it requires exclusive access via an advisory file lock and
// must not be called concurrently with any other writer of path.
func SetFlags(path string, i int, flags byte) error {
	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("pbi: %w: %v", pgnerr.ErrTargetLocked, err)
	}
	defer lock.Unlock()

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("pbi: %w", err)
	}
	defer f.Close()

	data, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		return fmt.Errorf("pbi: mmap: %w", err)
	}
	defer data.Unmap()

	h, err := unmarshalHeader(data)
	if err != nil {
		return err
	}
	if i < 0 || uint64(i) >= h.GameCount {
		return fmt.Errorf("pbi: record index %d out of range (%d records)", i, h.GameCount)
	}

	recordOffset := headerSize + i*RecordSize
	data[recordOffset+27] = flags

	recordsRegion := data[headerSize : headerSize+int(h.GameCount)*RecordSize]
	heap := data[h.HeapOffset : h.HeapOffset+h.HeapLength]
	h.Checksum = checksum(recordsRegion, heap)
	copy(data[0:headerSize], h.marshal())

	return data.Flush()
}
