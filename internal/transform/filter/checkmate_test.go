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

package filter

import (
	"strings"
	"testing"

	"github.com/brighamskarda/pgnforge/internal/board"
)

const foolsMate = `[Event "Test"]
[Site "?"]
[Date "????.??.??"]
[Round "1"]
[White "A"]
[Black "B"]
[Result "0-1"]

1. f3 e5 2. g4 Qh4# 0-1
`

const incompleteGame = `[Event "Test"]
[Site "?"]
[Date "????.??.??"]
[Round "1"]
[White "A"]
[Black "B"]
[Result "*"]

1. e4 e5 2. Nf3 Nc6 *
`

func TestClassifyCheckmate(t *testing.T) {
	games, err := board.ParsePGN(strings.NewReader(foolsMate))
	if err != nil {
		t.Fatalf("ParsePGN: %v", err)
	}
	c := Classify(games[0])
	if c.Termination != Checkmate {
		t.Errorf("Termination = %v, want Checkmate", c.Termination)
	}
	if c.ResultTagMismatch {
		t.Error("0-1 after black mates should not be a mismatch")
	}
}

func TestClassifyIncomplete(t *testing.T) {
	games, err := board.ParsePGN(strings.NewReader(incompleteGame))
	if err != nil {
		t.Fatalf("ParsePGN: %v", err)
	}
	c := Classify(games[0])
	if c.Termination != Incomplete {
		t.Errorf("Termination = %v, want Incomplete", c.Termination)
	}
}

func TestFastScanCheckmate(t *testing.T) {
	cases := map[string]bool{
		"1. f3 e5 2. g4 Qh4# 0-1":                  true,
		"1. e4 e5 2. Nf3 Nc6 *":                     false,
		"1. f3 { Qh4# mentioned in prose } e5 *":    false,
		"1. f3 (1. e4 Qh4#) e5 2. g4 Qh4# 0-1":      true,
	}
	for text, want := range cases {
		if got := FastScanCheckmate(text); got != want {
			t.Errorf("FastScanCheckmate(%q) = %v, want %v", text, got, want)
		}
	}
}

func TestSetStrictRejectsMismatch(t *testing.T) {
	games, err := board.ParsePGN(strings.NewReader(foolsMate))
	if err != nil {
		t.Fatalf("ParsePGN: %v", err)
	}
	games[0].Result = board.Draw

	s := NewSet(Checkmate, true)
	_, err = s.Add(0, games[0])
	if err == nil {
		t.Error("expected strict mismatch error")
	}
	if len(s.Kept()) != 0 {
		t.Error("mismatched game should not be kept in strict mode")
	}
	if len(s.Rejected()) != 1 {
		t.Error("mismatched game should be recorded as rejected")
	}
}
