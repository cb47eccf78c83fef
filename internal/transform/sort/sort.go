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

// Package sort orders GameRecords by one primary and one optional secondary
// key, using whichever of three strategies the key kind requires.
package sort

import (
	"cmp"
	"io"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/brighamskarda/pgnforge/internal/board"
	"github.com/brighamskarda/pgnforge/internal/pbi"
)

// Key identifies a sortable field.
type Key int

const (
	KeyNone Key = iota
	KeyDate
	KeyWhiteElo
	KeyBlackElo
	KeyResult
	KeyEco
	KeyWhiteName
	KeyBlackName
	KeyRound
	KeyEvent
	KeyPlyCount
)

func (k Key) isHeapAware() bool {
	return k == KeyWhiteName || k == KeyBlackName
}

func (k Key) isHybridParse() bool {
	return k == KeyRound || k == KeyEvent || k == KeyPlyCount
}

// Options configures one sort pass.
type Options struct {
	Primary    Key
	Secondary  Key
	Descending bool
	// Unstable allows an unstable sort for speed; the default is a stable
	// sort with original index as the final tie-break.
	Unstable bool
}

// maxPlyScan bounds how far the hybrid-parse strategy reads into a game's
// move text when the key is ply count.
const maxPlyScan = 200

// Sort returns a permutation of 0..len(records)-1 in sorted order. heap
// resolves player name ids for heap-aware keys; pgn, when non-nil, is read
// for hybrid-parse keys (round, event, ply count) via each record's
// FileOffset/Length.
func Sort(records []pbi.GameRecord, heap pbiHeap, pgn io.ReaderAt, opts Options) ([]int, error) {
	type entry struct {
		idx    int
		record pbi.GameRecord
		name1  string
		name2  string
		parsed map[Key]string
	}

	entries := make([]entry, len(records))
	for i, r := range records {
		e := entry{idx: i, record: r, parsed: map[Key]string{}}
		if opts.Primary.isHeapAware() || opts.Secondary.isHeapAware() {
			e.name1 = resolveName(heap, r.WhiteNameID)
			e.name2 = resolveName(heap, r.BlackNameID)
		}
		if pgn != nil && (opts.Primary.isHybridParse() || opts.Secondary.isHybridParse()) {
			tags, plies, err := extractHybridKeys(pgn, r, opts.Primary, opts.Secondary)
			if err == nil {
				e.parsed = tags
				if plies >= 0 {
					e.parsed[KeyPlyCount] = strconv.Itoa(plies)
				}
			}
		}
		entries[i] = e
	}

	coll := collate.New(language.Und, collate.IgnoreCase)

	compareKey := func(k Key, a, b entry) int {
		switch {
		case k == KeyWhiteName:
			return compareName(coll, a.name1, b.name1)
		case k == KeyBlackName:
			return compareName(coll, a.name2, b.name2)
		case k.isHybridParse():
			return compareNullableString(a.parsed[k], b.parsed[k])
		default:
			return comparePureIndex(k, a.record, b.record)
		}
	}

	less := func(a, b entry) int {
		if c := compareKey(opts.Primary, a, b); c != 0 {
			if opts.Descending {
				return -c
			}
			return c
		}
		if opts.Secondary != KeyNone {
			if c := compareKey(opts.Secondary, a, b); c != 0 {
				if opts.Descending {
					return -c
				}
				return c
			}
		}
		return cmp.Compare(a.idx, b.idx)
	}

	if opts.Unstable {
		slices.SortFunc(entries, less)
	} else {
		slices.SortStableFunc(entries, less)
	}

	out := make([]int, len(entries))
	for i, e := range entries {
		out[i] = e.idx
	}
	return out, nil
}

// pbiHeap is the minimal interface Sort needs for heap-aware keys,
// satisfied by *stringheap.Reader.
type pbiHeap interface {
	Lookup(id uint32) ([]byte, error)
}

func resolveName(heap pbiHeap, id uint32) string {
	if heap == nil || id == 0 {
		return ""
	}
	b, err := heap.Lookup(id)
	if err != nil {
		return ""
	}
	return string(b)
}

func compareName(coll *collate.Collator, a, b string) int {
	if a == "" && b == "" {
		return 0
	}
	if a == "" {
		return 1
	}
	if b == "" {
		return -1
	}
	return coll.CompareString(a, b)
}

func compareNullableString(a, b string) int {
	if a == "" && b == "" {
		return 0
	}
	if a == "" {
		return 1
	}
	if b == "" {
		return -1
	}
	return strings.Compare(a, b)
}

func comparePureIndex(k Key, a, b pbi.GameRecord) int {
	switch k {
	case KeyDate:
		return compareNullableUint32(a.DateCompact, b.DateCompact)
	case KeyWhiteElo:
		return compareNullableUint16(a.WhiteElo, b.WhiteElo)
	case KeyBlackElo:
		return compareNullableUint16(a.BlackElo, b.BlackElo)
	case KeyResult:
		return cmp.Compare(a.Result, b.Result)
	case KeyEco:
		if c := cmp.Compare(a.EcoCategory, b.EcoCategory); c != 0 {
			return c
		}
		return cmp.Compare(a.EcoNumber, b.EcoNumber)
	default:
		return 0
	}
}

func compareNullableUint32(a, b uint32) int {
	if a == 0 && b == 0 {
		return 0
	}
	if a == 0 {
		return 1
	}
	if b == 0 {
		return -1
	}
	return cmp.Compare(a, b)
}

func compareNullableUint16(a, b uint16) int {
	if a == 0 && b == 0 {
		return 0
	}
	if a == 0 {
		return 1
	}
	if b == 0 {
		return -1
	}
	return cmp.Compare(a, b)
}

// extractHybridKeys reads just enough of one game's PGN bytes to resolve
// Round/Event tags and, if requested, a ply count (bounded at maxPlyScan).
func extractHybridKeys(pgn io.ReaderAt, r pbi.GameRecord, keys ...Key) (map[Key]string, int, error) {
	wantPly := false
	for _, k := range keys {
		if k == KeyPlyCount {
			wantPly = true
		}
	}

	section := io.NewSectionReader(pgn, r.FileOffset, int64(r.Length))
	games, err := board.ParsePGN(section)
	if err != nil || len(games) == 0 {
		return nil, -1, err
	}
	g := games[0]
	out := map[Key]string{
		KeyRound: g.Round,
		KeyEvent: g.Event,
	}

	plies := -1
	if wantPly {
		plies = len(g.MoveHistory())
		if plies > maxPlyScan {
			plies = maxPlyScan
		}
	}
	return out, plies, nil
}
