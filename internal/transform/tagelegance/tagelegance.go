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

// Package tagelegance scores an already-analyzed game (one carrying
// [%eval ...] comments on its mainline) for aesthetic qualities and writes
// an [Elegance] header.
package tagelegance

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/brighamskarda/pgnforge/internal/board"
)

var evalRe = regexp.MustCompile(`\[%eval\s+(#?-?[0-9.]+)\]`)

// Distribution holds the median/MAD normalisation parameters for one
// component score, estimated from a prior corpus. Defaults approximate a
// broad sample of human games and are conservative placeholders; callers
// analysing a specific population should supply their own.
type Distribution struct {
	Median float64
	MAD    float64
}

// Defaults are built-in normalisation parameters, used when the caller
// supplies no corpus-specific distribution.
var Defaults = Components{
	Soundness: Distribution{Median: 0.6, MAD: 0.2},
	Coherence: Distribution{Median: 0.5, MAD: 0.2},
	Tactical:  Distribution{Median: 0.15, MAD: 0.1},
	Quiet:     Distribution{Median: 0.1, MAD: 0.08},
}

// Components groups the four raw component scores (or their normalisation
// distributions, when used as a [Defaults] value).
type Components struct {
	Soundness Distribution
	Coherence Distribution
	Tactical  Distribution
	Quiet     Distribution
}

// Score is the outcome of scoring one game.
type Score struct {
	Overall   int // 0..100
	Soundness float64
	Coherence float64
	Tactical  float64
	Quiet     float64
}

// evalPoint is one mainline ply's rendered evaluation, in pawn units as
// written in its [%eval] comment, from White's point of view (negative
// favours Black).
type evalPoint struct {
	pawns     float64
	isMate    bool
	isCapture bool
	isCheck   bool
	isPromo   bool
}

// Compute scores g, which must already carry [%eval ...] comments on its
// mainline moves (see internal/analyzer). dist supplies normalisation
// parameters; pass [Defaults] absent a corpus-specific distribution.
func Compute(g *board.Game, dist Components) (Score, error) {
	points, err := extractEvalSequence(g)
	if err != nil {
		return Score{}, err
	}
	if len(points) == 0 {
		return Score{}, fmt.Errorf("tagelegance: game has no [%%eval] comments")
	}

	soundness := soundnessScore(points)
	coherence := coherenceScore(points)
	tactical := tacticalScore(points)
	quiet := quietScore(points)

	normalized := []float64{
		normalize(soundness, dist.Soundness),
		normalize(coherence, dist.Coherence),
		normalize(tactical, dist.Tactical),
		normalize(quiet, dist.Quiet),
	}
	sum := 0.0
	for _, n := range normalized {
		sum += n
	}
	overall := int(math.Round(clamp01(sum/float64(len(normalized))) * 100))

	return Score{
		Overall:   overall,
		Soundness: soundness,
		Coherence: coherence,
		Tactical:  tactical,
		Quiet:     quiet,
	}, nil
}

// Tag writes [Elegance] and [EleganceDetails] headers onto g from s.
func Tag(g *board.Game, s Score) {
	if g.OtherTags == nil {
		g.OtherTags = map[string]string{}
	}
	g.OtherTags["Elegance"] = strconv.Itoa(s.Overall)
	g.OtherTags["EleganceDetails"] = fmt.Sprintf(
		"soundness=%.2f coherence=%.2f tactical=%.2f quiet=%.2f",
		s.Soundness, s.Coherence, s.Tactical, s.Quiet,
	)
}

func extractEvalSequence(g *board.Game) ([]evalPoint, error) {
	history := g.MoveHistory()
	points := make([]evalPoint, 0, len(history))
	pos := g.PositionPly(0)
	for i, pm := range history {
		m := evalRe.FindStringSubmatch(pm.Commentary)
		if m == nil {
			pos = g.PositionPly(i + 1)
			continue
		}
		pawns, isMate, err := parseEvalToken(m[1])
		if err != nil {
			return nil, fmt.Errorf("tagelegance: move %d: %w", i, err)
		}
		isCapture := pos.Piece(pm.Move.ToSquare) != board.NoPiece
		points = append(points, evalPoint{
			pawns:     pawns,
			isMate:    isMate,
			isCapture: isCapture,
			isCheck:   strings.HasSuffix(pm.Move.StringSAN(pos), "+"),
			isPromo:   pm.Move.Promotion != board.NoPieceType,
		})
		pos = g.PositionPly(i + 1)
	}
	return points, nil
}

func parseEvalToken(s string) (pawns float64, isMate bool, err error) {
	if strings.HasPrefix(s, "#") {
		d, err := strconv.Atoi(strings.TrimPrefix(s, "#"))
		if err != nil {
			return 0, false, err
		}
		sign := 1.0
		if d < 0 {
			sign = -1.0
		}
		return sign * 100, true, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, err
	}
	return v, false, nil
}

// soundnessScore rewards not losing material-backed evaluation suddenly: the
// fraction of plies whose eval did not drop more than a tiered threshold
// relative to the previous ply.
func soundnessScore(points []evalPoint) float64 {
	if len(points) < 2 {
		return 1
	}
	sound := 0
	for i := 1; i < len(points); i++ {
		delta := points[i].pawns - points[i-1].pawns
		threshold := -1.5
		if points[i-1].isCapture {
			threshold = -3.0
		}
		if delta >= threshold {
			sound++
		}
	}
	return float64(sound) / float64(len(points)-1)
}

// coherenceScore is the fraction of plies whose eval delta sign matches the
// overall trajectory sign (final minus first).
func coherenceScore(points []evalPoint) float64 {
	if len(points) < 2 {
		return 0
	}
	trend := points[len(points)-1].pawns - points[0].pawns
	if trend == 0 {
		return 0.5
	}
	matches := 0
	for i := 1; i < len(points); i++ {
		delta := points[i].pawns - points[i-1].pawns
		if sameSign(delta, trend) {
			matches++
		}
	}
	return float64(matches) / float64(len(points)-1)
}

func tacticalScore(points []evalPoint) float64 {
	if len(points) == 0 {
		return 0
	}
	tactical := 0
	for _, p := range points {
		if p.isCapture || p.isCheck || p.isPromo || p.isMate {
			tactical++
		}
	}
	return float64(tactical) / float64(len(points))
}

func quietScore(points []evalPoint) float64 {
	if len(points) < 2 {
		return 0
	}
	quiet := 0
	for i := 1; i < len(points); i++ {
		p := points[i]
		if !p.isCapture && !p.isCheck && !p.isPromo && points[i].pawns > points[i-1].pawns {
			quiet++
		}
	}
	return float64(quiet) / float64(len(points)-1)
}

func sameSign(a, b float64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0) || (a == 0 && b == 0)
}

func normalize(value float64, d Distribution) float64 {
	if d.MAD == 0 {
		return clamp01(value)
	}
	z := (value - d.Median) / d.MAD
	return clamp01(0.5 + z/4)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
