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

// Package join merges games from multiple sources in input order, with
// several optional hash-based deduplication strategies.
package join

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/cespare/xxhash/v2"

	"github.com/brighamskarda/pgnforge/internal/board"
)

// DedupMode selects how two games are compared for equivalence.
type DedupMode int

const (
	// NoDedup keeps every game, regardless of content.
	NoDedup DedupMode = iota
	StrictHash
	MoveTextHash
	PositionalFingerprint
	Structural
	Fuzzy
)

// Retention selects which of a set of duplicates survives.
type Retention int

const (
	KeepFirst Retention = iota
	KeepLast
	KeepHighestRated
	KeepMostComplete
)

// Options configures one join pass.
type Options struct {
	Mode      DedupMode
	Retention Retention
	// AcceptHashOnly skips the byte-exact confirmation step after a hash
	// match. Ignored by Fuzzy, which never does byte-exact comparison.
	AcceptHashOnly bool
	// FuzzyConfidence is the minimum fraction (0..1) of matching per-ply
	// Zobrist hashes required to call two games duplicates under Fuzzy.
	FuzzyConfidence float64
}

// Source is one input's games, kept in their original order.
type Source struct {
	Games []*board.Game
}

// Duplicate records a rejected game and which survivor it matched.
type Duplicate struct {
	SourceIndex int
	GameIndex   int
	KeptAsKey   string
}

// Result is the outcome of a join pass.
type Result struct {
	Games      []*board.Game
	Duplicates []Duplicate
}

type candidate struct {
	sourceIdx int
	gameIdx   int
	game      *board.Game
	hash      [32]byte
	fp        uint64
}

// Join merges sources in order, applying opts.Mode for deduplication.
func Join(sources []Source, opts Options) (Result, error) {
	if opts.Mode == NoDedup {
		res := Result{}
		for _, s := range sources {
			res.Games = append(res.Games, s.Games...)
		}
		return res, nil
	}

	var candidates []candidate
	for si, s := range sources {
		for gi, g := range s.Games {
			c := candidate{sourceIdx: si, gameIdx: gi, game: g}
			switch opts.Mode {
			case StrictHash:
				c.hash = sha256.Sum256([]byte(normalizeFullText(g)))
			case MoveTextHash:
				c.hash = sha256.Sum256([]byte(moveTextOnly(g)))
			case PositionalFingerprint:
				c.fp = positionalFingerprint(g)
				binary.BigEndian.PutUint64(c.hash[:8], c.fp)
			case Structural:
				c.hash = sha256.Sum256([]byte(structuralText(g)))
			case Fuzzy:
				c.fp = xxhash.Sum64String(bucketKey(g))
			}
			candidates = append(candidates, c)
		}
	}

	if opts.Mode == Fuzzy {
		return joinFuzzy(candidates, opts)
	}
	return joinHashed(candidates, opts)
}

func joinHashed(candidates []candidate, opts Options) (Result, error) {
	byHash := map[[32]byte][]int{}
	for i, c := range candidates {
		byHash[c.hash] = append(byHash[c.hash], i)
	}

	keep := roaring.New()
	var dups []Duplicate
	seen := roaring.New()

	for _, group := range byHash {
		if len(group) == 1 {
			keep.Add(uint32(group[0]))
			continue
		}
		if !opts.AcceptHashOnly {
			confirmed := confirmByteExact(candidates, group)
			for _, idx := range group {
				if !slices.Contains(confirmed, idx) {
					keep.Add(uint32(idx))
				}
			}
			group = confirmed
		}
		winner := selectRetained(candidates, group, opts.Retention)
		keep.Add(uint32(winner))
		for _, idx := range group {
			if idx == winner || seen.Contains(uint32(idx)) {
				continue
			}
			seen.Add(uint32(idx))
			dups = append(dups, Duplicate{
				SourceIndex: candidates[idx].sourceIdx,
				GameIndex:   candidates[idx].gameIdx,
				KeptAsKey:   fmt.Sprintf("%x", candidates[winner].hash[:8]),
			})
		}
	}

	res := Result{Duplicates: dups}
	for i, c := range candidates {
		if keep.Contains(uint32(i)) {
			res.Games = append(res.Games, c.game)
		}
	}
	return res, nil
}

// confirmByteExact splits a hash-collision group into subgroups that are
// actually byte-identical, returning only the largest such subgroup (the
// group callers should treat as true duplicates of each other).
func confirmByteExact(candidates []candidate, group []int) []int {
	byText := map[string][]int{}
	for _, idx := range group {
		byText[candidates[idx].game.String()] = append(byText[candidates[idx].game.String()], idx)
	}
	var best []int
	for _, g := range byText {
		if len(g) > len(best) {
			best = g
		}
	}
	return best
}

func joinFuzzy(candidates []candidate, opts Options) (Result, error) {
	confidence := opts.FuzzyConfidence
	if confidence <= 0 {
		confidence = 0.95
	}

	buckets := map[uint64][]int{}
	for i, c := range candidates {
		buckets[c.fp] = append(buckets[c.fp], i)
	}

	keep := roaring.New()
	var dups []Duplicate
	resolved := roaring.New()

	for _, bucket := range buckets {
		sequences := make([][]uint64, len(bucket))
		for i, idx := range bucket {
			sequences[i] = zobristSequence(candidates[idx].game)
		}
		for i := range bucket {
			if resolved.Contains(uint32(bucket[i])) {
				continue
			}
			winner := bucket[i]
			keep.Add(uint32(winner))
			resolved.Add(uint32(winner))
			for j := i + 1; j < len(bucket); j++ {
				if resolved.Contains(uint32(bucket[j])) {
					continue
				}
				if similarity(sequences[i], sequences[j]) >= confidence {
					resolved.Add(uint32(bucket[j]))
					dups = append(dups, Duplicate{
						SourceIndex: candidates[bucket[j]].sourceIdx,
						GameIndex:   candidates[bucket[j]].gameIdx,
						KeptAsKey:   fmt.Sprintf("%d", winner),
					})
				}
			}
		}
	}

	res := Result{Duplicates: dups}
	for i, c := range candidates {
		if keep.Contains(uint32(i)) {
			res.Games = append(res.Games, c.game)
		}
	}
	return res, nil
}

func similarity(a, b []uint64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n == 0 {
		return 0
	}
	matches := 0
	for i := 0; i < n; i++ {
		if a[i] == b[i] {
			matches++
		}
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	return float64(matches) / float64(longest)
}

func zobristSequence(g *board.Game) []uint64 {
	history := g.MoveHistory()
	out := make([]uint64, 0, len(history)+1)
	for i := 0; i <= len(history); i++ {
		out = append(out, g.PositionPly(i).ZobristHash())
	}
	return out
}

func bucketKey(g *board.Game) string {
	return g.White + "|" + g.Black + "|" + g.Result.String()
}

func selectRetained(candidates []candidate, group []int, retention Retention) int {
	switch retention {
	case KeepLast:
		return maxBy(group, func(idx int) int { return idx })
	case KeepHighestRated:
		return maxBy(group, func(idx int) int { return eloSum(candidates[idx].game) })
	case KeepMostComplete:
		return maxBy(group, func(idx int) int { return completeness(candidates[idx].game) })
	default: // KeepFirst
		return minBy(group, func(idx int) int { return idx })
	}
}

func eloSum(g *board.Game) int {
	w, _ := strconv.Atoi(g.OtherTags["WhiteElo"])
	b, _ := strconv.Atoi(g.OtherTags["BlackElo"])
	return w + b
}

func completeness(g *board.Game) int {
	score := len(g.OtherTags)
	for _, pm := range g.MoveHistory() {
		if pm.Commentary != "" {
			score++
		}
		if pm.NumericAnnotation != 0 {
			score++
		}
		score += len(pm.Variation)
	}
	return score
}

func maxBy(indices []int, key func(int) int) int {
	best := indices[0]
	for _, idx := range indices[1:] {
		if key(idx) > key(best) {
			best = idx
		}
	}
	return best
}

func minBy(indices []int, key func(int) int) int {
	best := indices[0]
	for _, idx := range indices[1:] {
		if key(idx) < key(best) {
			best = idx
		}
	}
	return best
}

var whitespaceRe = regexp.MustCompile(`\s+`)

func normalizeFullText(g *board.Game) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(g.String(), " "))
}

func moveTextOnly(g *board.Game) string {
	var sb strings.Builder
	pos := g.PositionPly(0)
	for i, pm := range g.MoveHistory() {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(pm.Move.StringSAN(pos))
		pos = g.PositionPly(i + 1)
	}
	return sb.String()
}

// structuralText canonically serialises the full game tree (main line plus
// variations), excluding comments and NAGs.
func structuralText(g *board.Game) string {
	var sb strings.Builder
	writeLine(&sb, g.MoveHistory(), g.PositionPly(0))
	return sb.String()
}

func writeLine(sb *strings.Builder, moves []board.PgnMove, startPos *board.Position) {
	pos := startPos
	for i, pm := range moves {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(pm.Move.StringSAN(pos))
		next := pos.Copy()
		next.Move(pm.Move)
		for _, v := range pm.Variation {
			sb.WriteString(" (")
			writeLine(sb, v, pos)
			sb.WriteString(")")
		}
		pos = next
	}
}

func positionalFingerprint(g *board.Game) uint64 {
	history := g.MoveHistory()
	n := len(history)
	ply16 := min(16, n)
	ply32 := min(32, n)
	fen := func(ply int) string {
		text, _ := g.PositionPly(ply).MarshalText()
		return string(text)
	}
	key := fen(0) + "|" + fen(ply16) + "|" + fen(ply32) + "|" + fen(n) + "|" + g.Result.String()
	return xxhash.Sum64String(key)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
