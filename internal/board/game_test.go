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

package board

import (
	"strings"
	"testing"
)

func TestNewGameStartingPosition(t *testing.T) {
	g := NewGame()
	if g.Position().String() != DefaultFEN {
		t.Errorf("incorrect starting position: got %q", g.Position().String())
	}
	if g.Result != Draw {
		t.Errorf("incorrect default result: got %v", g.Result)
	}
}

func TestNewGameFromFEN(t *testing.T) {
	fen := "4k3/8/8/8/8/8/8/4K2R w K - 0 1"
	g, err := NewGameFromFEN(fen)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Position().String() != fen {
		t.Errorf("incorrect position: got %q want %q", g.Position().String(), fen)
	}

	_, err = NewGameFromFEN("not a fen")
	if err == nil {
		t.Errorf("expected error for invalid fen")
	}
}

func TestGameMoveUCI(t *testing.T) {
	g := NewGame()
	if err := g.MoveUCI("e2e4"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.MoveUCI("e7e5"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(g.MoveHistory()) != 2 {
		t.Errorf("expected 2 moves in history, got %d", len(g.MoveHistory()))
	}

	if err := g.MoveUCI("e1e3"); err == nil {
		t.Errorf("expected error for illegal move")
	}
}

func TestGameMoveSAN(t *testing.T) {
	g := NewGame()
	for _, m := range []string{"e4", "e5", "Nf3", "Nc6", "Bb5"} {
		if err := g.MoveSAN(m); err != nil {
			t.Fatalf("unexpected error playing %s: %v", m, err)
		}
	}
	if len(g.MoveHistory()) != 5 {
		t.Errorf("expected 5 moves in history, got %d", len(g.MoveHistory()))
	}

	if err := g.MoveSAN("Qh5"); err == nil {
		t.Errorf("expected error for illegal move Qh5")
	}
}

func TestGameCheckmate(t *testing.T) {
	g := NewGame()
	for _, m := range []string{"f3", "e5", "g4", "Qh4"} {
		if err := g.MoveSAN(m); err != nil {
			t.Fatalf("unexpected error playing %s: %v", m, err)
		}
	}
	if !g.IsCheckMate() {
		t.Errorf("expected checkmate")
	}
	if g.Result != BlackWins {
		t.Errorf("expected BlackWins, got %v", g.Result)
	}
}

func TestGameStaleMate(t *testing.T) {
	g, err := NewGameFromFEN("k7/2K5/8/8/8/8/4Q3/8 w - - 0 1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := g.MoveSAN("Qe3"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !g.IsStaleMate() {
		t.Errorf("expected stalemate")
	}
}

func TestGamePositionPly(t *testing.T) {
	g := NewGame()
	g.MoveUCI("e2e4")
	g.MoveUCI("e7e5")

	start := g.PositionPly(0)
	if start.String() != DefaultFEN {
		t.Errorf("incorrect position at ply 0: got %q", start.String())
	}

	if g.PositionPly(-1) != nil {
		t.Errorf("expected nil for negative ply")
	}
	if g.PositionPly(100) != nil {
		t.Errorf("expected nil for out of range ply")
	}
}

func TestGameAnnotateAndComment(t *testing.T) {
	g := NewGame()
	g.MoveUCI("e2e4")
	g.AnnotateMove(0, 1)
	g.CommentMove(0, "best by test")

	history := g.MoveHistory()
	if history[0].NumericAnnotation != 1 {
		t.Errorf("expected NAG 1, got %d", history[0].NumericAnnotation)
	}
	if history[0].Commentary != "best by test" {
		t.Errorf("expected comment to be set, got %q", history[0].Commentary)
	}
}

func TestGameCopyIsIndependent(t *testing.T) {
	g := NewGame()
	g.MoveUCI("e2e4")

	c := g.Copy()
	c.MoveUCI("e7e5")

	if len(g.MoveHistory()) != 1 {
		t.Errorf("expected original game unaffected by copy mutation, got %d moves", len(g.MoveHistory()))
	}
	if len(c.MoveHistory()) != 2 {
		t.Errorf("expected copy to have 2 moves, got %d", len(c.MoveHistory()))
	}
}

func TestGameCanClaimDrawThreeFold(t *testing.T) {
	g := NewGame()
	moves := []string{"Nf3", "Nf6", "Ng1", "Ng8", "Nf3", "Nf6", "Ng1", "Ng8"}
	for _, m := range moves {
		if err := g.MoveSAN(m); err != nil {
			t.Fatalf("unexpected error playing %s: %v", m, err)
		}
	}
	if !g.CanClaimDrawThreeFold() {
		t.Errorf("expected three fold repetition to be claimable")
	}
}

func TestGameMakeAndDeleteVariation(t *testing.T) {
	g := NewGame()
	g.MoveUCI("e2e4")
	g.MoveUCI("e7e5")

	variationPos := g.PositionPly(0)
	altMove, parseErr := ParseSANMove("c5", variationPos)
	if parseErr != nil {
		t.Fatalf("unexpected error: %v", parseErr)
	}

	g.MakeVariation(0, []PgnMove{{Move: altMove}})
	history := g.MoveHistory()
	if len(history[0].Variation) != 1 {
		t.Fatalf("expected 1 variation, got %d", len(history[0].Variation))
	}

	g.DeleteVariation(0, 0)
	history = g.MoveHistory()
	if len(history[0].Variation) != 0 {
		t.Errorf("expected variation to be deleted, got %d remaining", len(history[0].Variation))
	}
}

func TestGameGetVariation(t *testing.T) {
	g := NewGame()
	g.MoveUCI("e2e4")
	g.MoveUCI("e7e5")
	g.MoveUCI("g1f3")

	variationPos := g.PositionPly(1)
	altMove, err := ParseSANMove("c5", variationPos)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g.MakeVariation(1, []PgnMove{{Move: altMove}})

	variation := g.GetVariation(1, 0)
	if variation == nil {
		t.Fatalf("expected non-nil variation game")
	}
	if len(variation.MoveHistory()) != 2 {
		t.Errorf("expected 2 moves in variation line, got %d", len(variation.MoveHistory()))
	}
	if variation.MoveHistory()[1].Move != altMove {
		t.Errorf("expected variation's second move to be the alternate move")
	}
}

func TestGameStringRoundTrip(t *testing.T) {
	g := NewGame()
	g.Event = "Test Event"
	g.White = "Alice"
	g.Black = "Bob"
	for _, m := range []string{"e4", "e5", "Nf3", "Nc6"} {
		if err := g.MoveSAN(m); err != nil {
			t.Fatalf("unexpected error playing %s: %v", m, err)
		}
	}

	pgn := g.String()
	if !strings.Contains(pgn, `[Event "Test Event"]`) {
		t.Errorf("expected Event tag in output, got %q", pgn)
	}
	if !strings.Contains(pgn, "1. e4") {
		t.Errorf("expected movetext to start with move number, got %q", pgn)
	}

	games, err := ParsePGN(strings.NewReader(pgn))
	if err != nil {
		t.Fatalf("unexpected error parsing rendered pgn: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("expected 1 game, got %d", len(games))
	}
	if len(games[0].MoveHistory()) != 4 {
		t.Errorf("expected 4 moves parsed back, got %d", len(games[0].MoveHistory()))
	}
	if games[0].White != "Alice" {
		t.Errorf("expected White tag to round trip, got %q", games[0].White)
	}
}

func TestParsePGNMultipleGames(t *testing.T) {
	pgn := `[Event "Game One"]
[Site "?"]
[Date "????.??.??"]
[Round "1"]
[White "?"]
[Black "?"]
[Result "1-0"]

1. e4 e5 2. Qh5 Nc6 3. Bc4 Nf6 4. Qxf7# 1-0

[Event "Game Two"]
[Site "?"]
[Date "????.??.??"]
[Round "1"]
[White "?"]
[Black "?"]
[Result "*"]

1. d4 d5 *
`
	games, err := ParsePGN(strings.NewReader(pgn))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("expected 2 games, got %d", len(games))
	}
	if games[0].Event != "Game One" {
		t.Errorf("expected first game's Event to be Game One, got %q", games[0].Event)
	}
	if games[0].Result != WhiteWins {
		t.Errorf("expected first game to be WhiteWins, got %v", games[0].Result)
	}
	if games[1].Event != "Game Two" {
		t.Errorf("expected second game's Event to be Game Two, got %q", games[1].Event)
	}
	if games[1].Result != NoResult {
		t.Errorf("expected second game to be NoResult, got %v", games[1].Result)
	}
}

func TestParsePGNWithCommentsAndNAGs(t *testing.T) {
	pgn := `[Event "?"]
[Site "?"]
[Date "????.??.??"]
[Round "1"]
[White "?"]
[Black "?"]
[Result "*"]

{Game level comment} 1. e4 $1 {good move} e5 2. Nf3 Nc6 *
`
	games, err := ParsePGN(strings.NewReader(pgn))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(games) != 1 {
		t.Fatalf("expected 1 game, got %d", len(games))
	}
	g := games[0]
	if g.Commentary != "Game level comment" {
		t.Errorf("expected game commentary to be set, got %q", g.Commentary)
	}
	history := g.MoveHistory()
	if history[0].NumericAnnotation != 1 {
		t.Errorf("expected NAG 1 on first move, got %d", history[0].NumericAnnotation)
	}
	if history[0].Commentary != "good move" {
		t.Errorf("expected comment on first move, got %q", history[0].Commentary)
	}
}

func TestParsePGNWithVariation(t *testing.T) {
	pgn := `[Event "?"]
[Site "?"]
[Date "????.??.??"]
[Round "1"]
[White "?"]
[Black "?"]
[Result "*"]

1. e4 e5 (1... c5 2. Nf3) 2. Nf3 Nc6 *
`
	games, err := ParsePGN(strings.NewReader(pgn))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	history := games[0].MoveHistory()
	if len(history[1].Variation) != 1 {
		t.Fatalf("expected 1 variation on second move, got %d", len(history[1].Variation))
	}
	if len(history[1].Variation[0]) != 2 {
		t.Errorf("expected 2 moves in variation, got %d", len(history[1].Variation[0]))
	}
}
