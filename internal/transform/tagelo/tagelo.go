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

// Package tagelo fills missing WhiteElo/BlackElo headers from an external
// rating source, keyed by player name and game month.
package tagelo

import (
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/brighamskarda/pgnforge/internal/board"
)

// Source looks up a rating for name as of the given year and month. A
// returned ok of false means no rating is known.
type Source func(name string, year, month int) (rating uint16, ok bool)

const (
	minElo = 0
	maxElo = 3000
)

// Warning describes a clamp applied while tagging.
type Warning struct {
	Field string // "WhiteElo" or "BlackElo"
	Raw   int
}

// Tagger fills Elo headers, optionally normalising names before lookup and
// caching recent lookups to avoid repeated source calls on sorted input
// where the same players recur. Names are normalised on every lookup,
// before the cache is consulted.
type Tagger struct {
	source    Source
	normalize func(string) string
	cache     *lru.Cache[string, ratingResult]
}

type ratingResult struct {
	rating uint16
	ok     bool
}

// New builds a Tagger. normalize may be nil for exact-name matching.
func New(source Source, normalize func(string) string) *Tagger {
	cache, _ := lru.New[string, ratingResult](4096)
	return &Tagger{source: source, normalize: normalize, cache: cache}
}

// Tag fills g's missing WhiteElo/BlackElo OtherTags entries in place,
// returning any clamp warnings produced.
func (t *Tagger) Tag(g *board.Game) []Warning {
	var warnings []Warning
	year, month := parseDate(g.Date)

	if eloBlank(g.OtherTags["WhiteElo"]) {
		if r, ok := t.lookup(g.White, year, month); ok {
			clamped, warned := clamp(int(r))
			if g.OtherTags == nil {
				g.OtherTags = map[string]string{}
			}
			g.OtherTags["WhiteElo"] = strconv.Itoa(clamped)
			if warned {
				warnings = append(warnings, Warning{Field: "WhiteElo", Raw: int(r)})
			}
		}
	}
	if eloBlank(g.OtherTags["BlackElo"]) {
		if r, ok := t.lookup(g.Black, year, month); ok {
			clamped, warned := clamp(int(r))
			if g.OtherTags == nil {
				g.OtherTags = map[string]string{}
			}
			g.OtherTags["BlackElo"] = strconv.Itoa(clamped)
			if warned {
				warnings = append(warnings, Warning{Field: "BlackElo", Raw: int(r)})
			}
		}
	}
	return warnings
}

func (t *Tagger) lookup(name string, year, month int) (uint16, bool) {
	key := name
	if t.normalize != nil {
		key = t.normalize(name)
	}
	cacheKey := key + "|" + strconv.Itoa(year) + "|" + strconv.Itoa(month)
	if t.cache != nil {
		if v, ok := t.cache.Get(cacheKey); ok {
			return v.rating, v.ok
		}
	}
	rating, ok := t.source(key, year, month)
	if t.cache != nil {
		t.cache.Add(cacheKey, ratingResult{rating: rating, ok: ok})
	}
	return rating, ok
}

func eloBlank(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || s == "0" || s == "?"
}

func clamp(n int) (int, bool) {
	if n < minElo {
		return minElo, true
	}
	if n > maxElo {
		return maxElo, true
	}
	return n, false
}

func parseDate(date string) (year, month int) {
	parts := strings.Split(date, ".")
	if len(parts) != 3 {
		return 0, 0
	}
	y, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil {
		y = 0
	}
	if err2 != nil {
		m = 0
	}
	return y, m
}
