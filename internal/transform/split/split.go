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

// Package split partitions a set of games by count or by tag value,
// producing one named group per partition.
package split

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/brighamskarda/pgnforge/internal/board"
)

// Mode selects how games are grouped into partitions.
type Mode int

const (
	ByCount Mode = iota
	ByWhitePlayer
	ByBlackPlayer
	ByEitherPlayer // a game with both players appears in both partitions
	ByEvent
	BySite
	ByRound
	ByEco
	ByDate
)

// DatePrecision controls the granularity ByDate groups on.
type DatePrecision int

const (
	PrecisionYear DatePrecision = iota
	PrecisionMonth
	PrecisionDay
	PrecisionDecade
	PrecisionCentury
)

// Options configures one split pass.
type Options struct {
	Mode Mode
	// Count is the fixed partition size for ByCount.
	Count int
	// Precision applies to ByDate.
	Precision DatePrecision
}

// Partition is one output group.
type Partition struct {
	// Key is the raw grouping value, unsanitized (e.g. a player name, an
	// ECO code, or a date string). It is empty for an unkeyed ByCount
	// partition.
	Key   string
	Games []*board.Game
}

// maxKeyLength caps the length, in runes, of the filename that
// SanitizeFilename returns, so a pathological tag value cannot produce an
// unusable path component.
const maxKeyLength = 64

// Split partitions games according to opts. Partition order is
// deterministic: ByCount partitions are emitted in input order; keyed
// partitions are emitted in ascending key order.
func Split(games []*board.Game, opts Options) ([]Partition, error) {
	if opts.Mode == ByCount {
		return splitByCount(games, opts.Count), nil
	}

	buckets := map[string][]*board.Game{}
	for _, g := range games {
		for _, key := range keysFor(g, opts) {
			buckets[key] = append(buckets[key], g)
		}
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Partition, 0, len(keys))
	for _, k := range keys {
		out = append(out, Partition{Key: k, Games: buckets[k]})
	}
	return out, nil
}

func splitByCount(games []*board.Game, count int) []Partition {
	if count <= 0 {
		count = 1
	}
	var out []Partition
	for i := 0; i < len(games); i += count {
		end := i + count
		if end > len(games) {
			end = len(games)
		}
		out = append(out, Partition{Games: games[i:end]})
	}
	return out
}

func keysFor(g *board.Game, opts Options) []string {
	switch opts.Mode {
	case ByWhitePlayer:
		return []string{orUnknown(g.White)}
	case ByBlackPlayer:
		return []string{orUnknown(g.Black)}
	case ByEitherPlayer:
		return []string{orUnknown(g.White), orUnknown(g.Black)}
	case ByEvent:
		return []string{orUnknown(g.Event)}
	case BySite:
		return []string{orUnknown(g.Site)}
	case ByRound:
		return []string{orUnknown(g.Round)}
	case ByEco:
		eco, ok := g.OtherTags["ECO"]
		if !ok || eco == "" {
			return []string{"unknown"}
		}
		return []string{eco}
	case ByDate:
		return []string{dateKey(g.Date, opts.Precision)}
	default:
		return []string{"unknown"}
	}
}

func orUnknown(s string) string {
	if s == "" || s == "?" {
		return "unknown"
	}
	return s
}

// dateKey reduces a PGN date ("YYYY.MM.DD", possibly with "??" fields) to
// the requested precision, mapping any unresolvable component to "unknown".
func dateKey(date string, precision DatePrecision) string {
	parts := strings.SplitN(date, ".", 3)
	for len(parts) < 3 {
		parts = append(parts, "??")
	}
	year, month := parts[0], parts[1]
	if !isDigits(year) {
		return "unknown"
	}
	switch precision {
	case PrecisionCentury:
		y, _ := strconv.Atoi(year)
		return fmt.Sprintf("%02dxx", y/100)
	case PrecisionDecade:
		y, _ := strconv.Atoi(year)
		return fmt.Sprintf("%03dx", y/10)
	case PrecisionYear:
		return year
	case PrecisionMonth:
		if !isDigits(month) {
			return year + "-unknown"
		}
		return year + "-" + month
	case PrecisionDay:
		day := parts[2]
		if !isDigits(month) || !isDigits(day) {
			return year + "-unknown"
		}
		return year + "-" + month + "-" + day
	default:
		return year
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

var invalidFilenameChars = strings.NewReplacer(
	"/", "_", "\\", "_", ":", "_", "*", "_", "?", "_",
	"\"", "_", "<", "_", ">", "_", "|", "_",
)

// SanitizeFilename normalizes a partition key under NFKC, replaces
// characters illegal in common filesystems, and caps the result at
// maxKeyLength runes.
func SanitizeFilename(key string) string {
	normalized := string(norm.NFKC.Bytes([]byte(key)))
	cleaned := invalidFilenameChars.Replace(normalized)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		cleaned = "unnamed"
	}
	r := []rune(cleaned)
	if len(r) > maxKeyLength {
		r = r[:maxKeyLength]
	}
	return string(r)
}

// Disambiguate appends a numeric suffix ("-2", "-3", ...) to any name that
// collides with one already produced earlier in names, preserving order.
func Disambiguate(names []string) []string {
	seen := map[string]int{}
	out := make([]string, len(names))
	for i, n := range names {
		seen[n]++
		if seen[n] == 1 {
			out[i] = n
			continue
		}
		out[i] = fmt.Sprintf("%s-%d", n, seen[n])
	}
	return out
}
