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
	"context"
	"fmt"

	"github.com/brighamskarda/pgnforge/internal/atomicfile"
)

// Builder accumulates GameRecords and a string heap for a single output
// .pbi file. It is owned by exactly one indexer or transformation instance.
type Builder struct {
	records []GameRecord

	WhiteWins      uint32
	BlackWins      uint32
	Draws          uint32
	RatedGameCount uint32
	SumWhiteElo    uint64
	SumBlackElo    uint64
	EarliestDate   uint32
	LatestDate     uint32
}

// Add appends r, updating the running aggregate counters.
func (b *Builder) Add(r GameRecord) {
	b.records = append(b.records, r)
	switch r.Result {
	case ResultWhiteWins:
		b.WhiteWins++
	case ResultBlackWins:
		b.BlackWins++
	case ResultDraw:
		b.Draws++
	}
	if r.WhiteElo > 0 && r.BlackElo > 0 {
		b.RatedGameCount++
	}
	b.SumWhiteElo += uint64(r.WhiteElo)
	b.SumBlackElo += uint64(r.BlackElo)
	if r.DateCompact > 0 {
		if b.EarliestDate == 0 || r.DateCompact < b.EarliestDate {
			b.EarliestDate = r.DateCompact
		}
		if r.DateCompact > b.LatestDate {
			b.LatestDate = r.DateCompact
		}
	}
}

// Records returns the accumulated records in insertion order.
func (b *Builder) Records() []GameRecord {
	return b.records
}

// Write serialises the builder plus heap into dest via the
// temp-file/fsync/atomic-rename discipline.
func Write(ctx context.Context, dest string, b *Builder, heap []byte) error {
	w, err := atomicfile.New(dest)
	if err != nil {
		return fmt.Errorf("pbi: %w", err)
	}

	recordBytes := make([]byte, 0, len(b.records)*RecordSize)
	for _, r := range b.records {
		packed := r.Marshal()
		recordBytes = append(recordBytes, packed[:]...)
	}

	h := Header{
		Version:        Version,
		GameCount:      uint64(len(b.records)),
		WhiteWins:      b.WhiteWins,
		BlackWins:      b.BlackWins,
		Draws:          b.Draws,
		RatedGameCount: b.RatedGameCount,
		SumWhiteElo:    b.SumWhiteElo,
		SumBlackElo:    b.SumBlackElo,
		EarliestDate:   b.EarliestDate,
		LatestDate:     b.LatestDate,
		HeapOffset:     uint64(headerSize + len(recordBytes)),
		HeapLength:     uint64(len(heap)),
		Checksum:       checksum(recordBytes, heap),
	}

	if _, err := w.File().Write(h.marshal()); err != nil {
		w.Abort()
		return fmt.Errorf("pbi: writing header: %w", err)
	}
	if _, err := w.File().Write(recordBytes); err != nil {
		w.Abort()
		return fmt.Errorf("pbi: writing records: %w", err)
	}
	if _, err := w.File().Write(heap); err != nil {
		w.Abort()
		return fmt.Errorf("pbi: writing heap: %w", err)
	}

	return w.Commit(ctx)
}
