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

package tagelegance

import (
	"strings"
	"testing"

	"github.com/brighamskarda/pgnforge/internal/board"
)

const analyzedPGN = `[Event "Test"]
[Site "?"]
[Date "????.??.??"]
[Round "1"]
[White "A"]
[Black "B"]
[Result "1-0"]

1. e4 {[%eval 0.30]} e5 {[%eval 0.25]} 2. Nf3 {[%eval 0.40]} Nc6 {[%eval 0.35]} 1-0
`

func TestComputeProducesScoreInRange(t *testing.T) {
	games, err := board.ParsePGN(strings.NewReader(analyzedPGN))
	if err != nil {
		t.Fatalf("ParsePGN: %v", err)
	}
	score, err := Compute(games[0], Defaults)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	if score.Overall < 0 || score.Overall > 100 {
		t.Errorf("Overall = %d, want 0..100", score.Overall)
	}
}

func TestComputeErrorsWithoutEval(t *testing.T) {
	const noEval = `[Event "Test"]
[Site "?"]
[Date "????.??.??"]
[Round "1"]
[White "A"]
[Black "B"]
[Result "1-0"]

1. e4 e5 1-0
`
	games, err := board.ParsePGN(strings.NewReader(noEval))
	if err != nil {
		t.Fatalf("ParsePGN: %v", err)
	}
	if _, err := Compute(games[0], Defaults); err == nil {
		t.Error("expected an error for a game with no eval comments")
	}
}

func TestTagWritesHeaders(t *testing.T) {
	games, err := board.ParsePGN(strings.NewReader(analyzedPGN))
	if err != nil {
		t.Fatalf("ParsePGN: %v", err)
	}
	score, err := Compute(games[0], Defaults)
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}
	Tag(games[0], score)
	if games[0].OtherTags["Elegance"] == "" {
		t.Error("Elegance header not set")
	}
	if games[0].OtherTags["EleganceDetails"] == "" {
		t.Error("EleganceDetails header not set")
	}
}

func TestParseEvalTokenMate(t *testing.T) {
	pawns, isMate, err := parseEvalToken("#3")
	if err != nil {
		t.Fatalf("%v", err)
	}
	if !isMate || pawns <= 0 {
		t.Errorf("parseEvalToken(#3) = %v, %v", pawns, isMate)
	}
	pawns, isMate, err = parseEvalToken("#-2")
	if err != nil {
		t.Fatalf("%v", err)
	}
	if !isMate || pawns >= 0 {
		t.Errorf("parseEvalToken(#-2) = %v, %v", pawns, isMate)
	}
}
