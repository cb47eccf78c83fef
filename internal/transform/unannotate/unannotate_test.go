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

package unannotate

import (
	"strings"
	"testing"

	"github.com/brighamskarda/pgnforge/internal/board"
)

const annotatedPGN = `[Event "Test"]
[Site "?"]
[Date "????.??.??"]
[Round "1"]
[White "A"]
[Black "B"]
[Result "1-0"]

1. e4 { a good move } (1. d4 d5) e5 $1 2. Nf3 Nc6 1-0
`

func parseOne(t *testing.T) *board.Game {
	t.Helper()
	games, err := board.ParsePGN(strings.NewReader(annotatedPGN))
	if err != nil {
		t.Fatalf("ParsePGN: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("got %d games, want 1", len(games))
	}
	return games[0]
}

func TestStripAllRemovesEverything(t *testing.T) {
	g := parseOne(t)
	out := Game(g, StripAll)
	for _, pm := range out.MoveHistory() {
		if pm.Commentary != "" || pm.NumericAnnotation != 0 || len(pm.Variation) != 0 {
			t.Errorf("move retained annotation after StripAll: %+v", pm)
		}
	}
}

func TestPreserveMainlineKeepsCommentsDropsVariations(t *testing.T) {
	g := parseOne(t)
	out := Game(g, PreserveMainline)
	history := out.MoveHistory()
	if history[0].Commentary == "" {
		t.Error("PreserveMainline should keep comments")
	}
	for _, pm := range history {
		if len(pm.Variation) != 0 {
			t.Error("PreserveMainline should drop variations")
		}
	}
}

func TestVariationsOnlyKeepsComments(t *testing.T) {
	g := parseOne(t)
	out := Game(g, VariationsOnly)
	history := out.MoveHistory()
	if history[0].Commentary == "" {
		t.Error("VariationsOnly should keep comments")
	}
	for _, pm := range history {
		if len(pm.Variation) != 0 {
			t.Error("VariationsOnly should drop variations")
		}
	}
}

func TestCommentsOnlyKeepsVariations(t *testing.T) {
	g := parseOne(t)
	out := Game(g, CommentsOnly)
	history := out.MoveHistory()
	if history[0].Commentary != "" {
		t.Error("CommentsOnly should drop comments")
	}
	if len(history[0].Variation) == 0 {
		t.Error("CommentsOnly should keep variations")
	}
}

func TestCriticalOnlyKeepsEvalAndClk(t *testing.T) {
	got := criticalOnly("some prose [%eval 0.25] more prose [%clk 0:01:00] trailing")
	if !strings.Contains(got, "[%eval 0.25]") || !strings.Contains(got, "[%clk 0:01:00]") {
		t.Errorf("criticalOnly dropped a directive: %q", got)
	}
	if strings.Contains(got, "prose") {
		t.Errorf("criticalOnly kept prose: %q", got)
	}
}
