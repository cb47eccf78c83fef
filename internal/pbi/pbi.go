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

// Package pbi implements the .pbi binary index format: a fixed header, a
// packed array of 32-byte GameRecords, and a trailing string heap, checked
// with a CRC32 over the records and heap together. Readers memory-map the
// file for O(1) random access.
package pbi

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/brighamskarda/pgnforge/internal/pgnerr"
)

// Magic identifies a .pbi file. Version 3 of the format (PGNIDXv3).
var Magic = [8]byte{'P', 'G', 'N', 'I', 'D', 'X', 'v', '3'}

// Version is the format version this package writes and the newest version
// it will read.
const Version uint32 = 3

// RecordSize is the packed, little-endian size of one GameRecord.
const RecordSize = 32

// headerSize is the fixed byte size of the header preceding the record
// array: magic(8) + version(4) + game count(8) + white_wins(4) +
// black_wins(4) + draws(4) + rated_game_count(4) + sum_white_elo(8) +
// sum_black_elo(8) + earliest_date(4) + latest_date(4) + heap_offset(8) +
// heap_length(8) + checksum(4).
const headerSize = 8 + 4 + 8 + 4 + 4 + 4 + 4 + 8 + 8 + 4 + 4 + 8 + 8 + 4

// Result mirrors GameRecord.Result's packed encoding.
type Result uint8

const (
	ResultUnknown   Result = 0
	ResultWhiteWins Result = 1
	ResultBlackWins Result = 2
	ResultDraw      Result = 3
)

// Flag bits within GameRecord.Flags, per the format's flags bitset.
const (
	FlagHasComments    = 1 << 0
	FlagHasVariations  = 1 << 1
	FlagHasEval        = 1 << 2
	FlagMoveTextNormal = 1 << 3
	FlagElegant        = 1 << 4
	FlagCheckmate      = 1 << 5
	FlagPlyCount       = 1 << 6
)

// GameRecord is the fixed 32-byte, packed little-endian record describing
// one game's location and header metadata.
type GameRecord struct {
	FileOffset   int64
	Length       uint32
	WhiteNameID  uint32
	BlackNameID  uint32
	WhiteElo     uint16
	BlackElo     uint16
	Result       Result
	EcoCategory  byte // ASCII 'A'..'E', or 0
	EcoNumber    byte // 0..99, or 0xFF for unset
	Flags        byte
	DateCompact  uint32
}

// EcoUnset is the sentinel EcoNumber for "no ECO code".
const EcoUnset byte = 0xFF

// Marshal packs r into a 32-byte little-endian record.
func (r GameRecord) Marshal() [RecordSize]byte {
	var buf [RecordSize]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(r.FileOffset))
	binary.LittleEndian.PutUint32(buf[8:12], r.Length)
	binary.LittleEndian.PutUint32(buf[12:16], r.WhiteNameID)
	binary.LittleEndian.PutUint32(buf[16:20], r.BlackNameID)
	binary.LittleEndian.PutUint16(buf[20:22], r.WhiteElo)
	binary.LittleEndian.PutUint16(buf[22:24], r.BlackElo)
	buf[24] = byte(r.Result)
	buf[25] = r.EcoCategory
	buf[26] = r.EcoNumber
	buf[27] = r.Flags
	binary.LittleEndian.PutUint32(buf[28:32], r.DateCompact)
	return buf
}

// UnmarshalGameRecord unpacks a 32-byte little-endian record.
func UnmarshalGameRecord(buf []byte) (GameRecord, error) {
	if len(buf) < RecordSize {
		return GameRecord{}, fmt.Errorf("pbi: record buffer too short (%d bytes)", len(buf))
	}
	return GameRecord{
		FileOffset:  int64(binary.LittleEndian.Uint64(buf[0:8])),
		Length:      binary.LittleEndian.Uint32(buf[8:12]),
		WhiteNameID: binary.LittleEndian.Uint32(buf[12:16]),
		BlackNameID: binary.LittleEndian.Uint32(buf[16:20]),
		WhiteElo:    binary.LittleEndian.Uint16(buf[20:22]),
		BlackElo:    binary.LittleEndian.Uint16(buf[22:24]),
		Result:      Result(buf[24]),
		EcoCategory: buf[25],
		EcoNumber:   buf[26],
		Flags:       buf[27],
		DateCompact: binary.LittleEndian.Uint32(buf[28:32]),
	}, nil
}

// Header is the fixed prefix of a .pbi file.
type Header struct {
	Version        uint32
	GameCount      uint64
	WhiteWins      uint32
	BlackWins      uint32
	Draws          uint32
	RatedGameCount uint32
	SumWhiteElo    uint64
	SumBlackElo    uint64
	EarliestDate   uint32
	LatestDate     uint32
	HeapOffset     uint64
	HeapLength     uint64
	Checksum       uint32
}

func (h Header) marshal() []byte {
	buf := make([]byte, headerSize)
	copy(buf[0:8], Magic[:])
	binary.LittleEndian.PutUint32(buf[8:12], h.Version)
	binary.LittleEndian.PutUint64(buf[12:20], h.GameCount)
	binary.LittleEndian.PutUint32(buf[20:24], h.WhiteWins)
	binary.LittleEndian.PutUint32(buf[24:28], h.BlackWins)
	binary.LittleEndian.PutUint32(buf[28:32], h.Draws)
	binary.LittleEndian.PutUint32(buf[32:36], h.RatedGameCount)
	binary.LittleEndian.PutUint64(buf[36:44], h.SumWhiteElo)
	binary.LittleEndian.PutUint64(buf[44:52], h.SumBlackElo)
	binary.LittleEndian.PutUint32(buf[52:56], h.EarliestDate)
	binary.LittleEndian.PutUint32(buf[56:60], h.LatestDate)
	binary.LittleEndian.PutUint64(buf[60:68], h.HeapOffset)
	binary.LittleEndian.PutUint64(buf[68:76], h.HeapLength)
	binary.LittleEndian.PutUint32(buf[76:80], h.Checksum)
	return buf
}

func unmarshalHeader(buf []byte) (Header, error) {
	if len(buf) < headerSize {
		return Header{}, fmt.Errorf("pbi: file too short to contain a header (%d bytes)", len(buf))
	}
	var magic [8]byte
	copy(magic[:], buf[0:8])
	if magic != Magic {
		return Header{}, fmt.Errorf("pbi: %w: bad magic %q", pgnerr.ErrIndexCorrupt, magic)
	}
	h := Header{
		Version:        binary.LittleEndian.Uint32(buf[8:12]),
		GameCount:      binary.LittleEndian.Uint64(buf[12:20]),
		WhiteWins:      binary.LittleEndian.Uint32(buf[20:24]),
		BlackWins:      binary.LittleEndian.Uint32(buf[24:28]),
		Draws:          binary.LittleEndian.Uint32(buf[28:32]),
		RatedGameCount: binary.LittleEndian.Uint32(buf[32:36]),
		SumWhiteElo:    binary.LittleEndian.Uint64(buf[36:44]),
		SumBlackElo:    binary.LittleEndian.Uint64(buf[44:52]),
		EarliestDate:   binary.LittleEndian.Uint32(buf[52:56]),
		LatestDate:     binary.LittleEndian.Uint32(buf[56:60]),
		HeapOffset:     binary.LittleEndian.Uint64(buf[60:68]),
		HeapLength:     binary.LittleEndian.Uint64(buf[68:76]),
		Checksum:       binary.LittleEndian.Uint32(buf[76:80]),
	}
	if h.Version > Version {
		return Header{}, fmt.Errorf("pbi: %w: file version %d, supported up to %d", pgnerr.ErrIndexVersionTooNew, h.Version, Version)
	}
	return h, nil
}

// checksum computes the CRC32-IEEE checksum over the record array followed
// by the heap blob. The polynomial and seed are Go's hash/crc32 IEEE
// defaults; see DESIGN.md for why this choice was made explicit.
func checksum(records []byte, heap []byte) uint32 {
	c := crc32.NewIEEE()
	c.Write(records)
	c.Write(heap)
	return c.Sum32()
}
