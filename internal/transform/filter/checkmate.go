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

// Package filter classifies a game's termination by replaying its mainline
// on the board, and selects games whose termination matches a requested
// class.
package filter

import (
	"fmt"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/brighamskarda/pgnforge/internal/board"
)

// Termination classifies how a game's mainline actually ended, independent
// of its Result tag.
type Termination int

const (
	Incomplete Termination = iota
	Checkmate
	Stalemate
)

func (t Termination) String() string {
	switch t {
	case Checkmate:
		return "checkmate"
	case Stalemate:
		return "stalemate"
	default:
		return "incomplete"
	}
}

// Classification is the outcome of replaying one game.
type Classification struct {
	Termination       Termination
	ResultTagMismatch bool
}

// Classify replays g's already-parsed mainline (board.ParsePGN has already
// verified every move is legal) and determines how it actually ended.
func Classify(g *board.Game) Classification {
	c := Classification{}
	switch {
	case g.IsCheckMate():
		c.Termination = Checkmate
	case g.IsStaleMate():
		c.Termination = Stalemate
	default:
		c.Termination = Incomplete
	}

	switch c.Termination {
	case Checkmate:
		c.ResultTagMismatch = g.Result != board.WhiteWins && g.Result != board.BlackWins
	case Stalemate:
		c.ResultTagMismatch = g.Result != board.Draw
	}
	return c
}

// FastScanCheckmate recognises a trailing "#" on the last mainline SAN token
// as a quick pre-filter, without replaying the board. text is a game's raw
// move text (no headers). It ignores text inside {...} comments and (...)
// variations.
func FastScanCheckmate(moveText string) bool {
	stripped := stripCommentsAndVariations(moveText)
	fields := strings.Fields(stripped)
	for i := len(fields) - 1; i >= 0; i-- {
		f := fields[i]
		if f == "1-0" || f == "0-1" || f == "1/2-1/2" || f == "*" {
			continue
		}
		return strings.HasSuffix(f, "#")
	}
	return false
}

func stripCommentsAndVariations(s string) string {
	var out strings.Builder
	depth := 0
	inComment := false
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '{':
			inComment = true
		case s[i] == '}':
			inComment = false
		case inComment:
		case s[i] == '(':
			depth++
		case s[i] == ')':
			if depth > 0 {
				depth--
			}
		case depth == 0:
			out.WriteByte(s[i])
		}
	}
	return out.String()
}

// Set indexes which games in a batch match a requested termination, using a
// compressed bitmap so large selections stay cheap to hold in memory.
type Set struct {
	kept     *roaring.Bitmap
	rejected *roaring.Bitmap
	want     Termination
	strict   bool
}

// NewSet prepares a selection pass for the given termination class. In
// strict mode, games whose Result tag disagrees with the replayed
// termination are rejected outright rather than merely flagged.
func NewSet(want Termination, strict bool) *Set {
	return &Set{kept: roaring.New(), rejected: roaring.New(), want: want, strict: strict}
}

// Add classifies g (index idx in the source) and records the decision.
func (s *Set) Add(idx uint32, g *board.Game) (Classification, error) {
	c := Classify(g)
	if c.Termination != s.want {
		s.rejected.Add(idx)
		return c, nil
	}
	if s.strict && c.ResultTagMismatch {
		s.rejected.Add(idx)
		return c, fmt.Errorf("filter: game %d: result tag disagrees with replayed termination", idx)
	}
	s.kept.Add(idx)
	return c, nil
}

// Kept returns the indices selected, in ascending order.
func (s *Set) Kept() []uint32 {
	return s.kept.ToArray()
}

// Rejected returns the indices not selected, in ascending order.
func (s *Set) Rejected() []uint32 {
	return s.rejected.ToArray()
}
