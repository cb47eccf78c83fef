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

// Package unannotate strips comments, variations, and NAGs from move text
// while leaving the header tags and result alone.
package unannotate

import (
	"strings"

	"github.com/brighamskarda/pgnforge/internal/board"
)

// Mode selects which kinds of annotation survive.
type Mode int

const (
	// StripAll removes comments, line comments, variations, and NAGs.
	StripAll Mode = iota
	// PreserveMainline removes variations only.
	PreserveMainline
	// PreserveCritical keeps only [%eval ...] and [%clk ...] comments.
	PreserveCritical
	// CommentsOnly removes comments but keeps variations and NAGs.
	CommentsOnly
	// VariationsOnly removes variations but keeps comments and NAGs.
	VariationsOnly
)

// Game returns a copy of g with annotations stripped according to mode. g is
// not modified.
func Game(g *board.Game, mode Mode) *board.Game {
	out := g.Copy()
	history := out.MoveHistory()

	for i := range history {
		stripMove(&history[i], mode)
	}

	for i, pm := range history {
		out.AnnotateMove(i, pm.NumericAnnotation)
		out.CommentMove(i, pm.Commentary)
		for existing := len(out.MoveHistory()[i].Variation); existing > 0; existing-- {
			out.DeleteVariation(i, 0)
		}
		for _, v := range pm.Variation {
			out.MakeVariation(i, v)
		}
	}

	return out
}

func stripMove(pm *board.PgnMove, mode Mode) {
	switch mode {
	case StripAll:
		pm.NumericAnnotation = 0
		pm.Commentary = ""
		pm.Variation = nil
	case PreserveMainline:
		pm.Variation = nil
	case PreserveCritical:
		pm.Commentary = criticalOnly(pm.Commentary)
	case CommentsOnly:
		pm.Commentary = ""
	case VariationsOnly:
		pm.Variation = nil
	}
}

// criticalOnly keeps only [%eval ...] and [%clk ...] directives inside a
// move comment, dropping any surrounding prose.
func criticalOnly(comment string) string {
	if comment == "" {
		return ""
	}
	var kept []string
	for _, directive := range []string{"[%eval", "[%clk"} {
		idx := strings.Index(comment, directive)
		if idx < 0 {
			continue
		}
		end := strings.IndexByte(comment[idx:], ']')
		if end < 0 {
			kept = append(kept, comment[idx:])
			continue
		}
		kept = append(kept, comment[idx:idx+end+1])
	}
	return strings.Join(kept, " ")
}
