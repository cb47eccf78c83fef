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

package join

import (
	"strings"
	"testing"

	"github.com/brighamskarda/pgnforge/internal/board"
)

const gameA = `[Event "Test"]
[Site "?"]
[Date "2023.05.15"]
[Round "1"]
[White "Carlsen, Magnus"]
[Black "Nakamura, Hikaru"]
[Result "1-0"]
[WhiteElo "2830"]
[BlackElo "2780"]

1. e4 e5 2. Nf3 Nc6 3. Bb5 1-0
`

// parse returns the first game in pgn. Tests that need byte-identical
// duplicates parse gameA twice.
func parse(t *testing.T, pgn string) *board.Game {
	t.Helper()
	games, err := board.ParsePGN(strings.NewReader(pgn))
	if err != nil {
		t.Fatalf("ParsePGN: %v", err)
	}
	return games[0]
}

func TestJoinNoDedupKeepsAll(t *testing.T) {
	g := parse(t, gameA)
	res, err := Join([]Source{{Games: []*board.Game{g, g}}}, Options{Mode: NoDedup})
	if err != nil {
		t.Fatalf("%v", err)
	}
	if len(res.Games) != 2 {
		t.Errorf("len(Games) = %d, want 2", len(res.Games))
	}
}

func TestJoinStrictHashDedupes(t *testing.T) {
	a := parse(t, gameA)
	b := parse(t, gameA)
	res, err := Join([]Source{{Games: []*board.Game{a}}, {Games: []*board.Game{b}}}, Options{Mode: StrictHash})
	if err != nil {
		t.Fatalf("%v", err)
	}
	if len(res.Games) != 1 {
		t.Errorf("len(Games) = %d, want 1", len(res.Games))
	}
	if len(res.Duplicates) != 1 {
		t.Errorf("len(Duplicates) = %d, want 1", len(res.Duplicates))
	}
}

func TestJoinKeepHighestRated(t *testing.T) {
	low := parse(t, gameA)
	low.OtherTags["WhiteElo"] = "2000"
	low.OtherTags["BlackElo"] = "2000"

	high := parse(t, gameA)
	high.OtherTags["WhiteElo"] = "2900"
	high.OtherTags["BlackElo"] = "2900"

	res, err := Join([]Source{{Games: []*board.Game{low, high}}}, Options{Mode: MoveTextHash, Retention: KeepHighestRated, AcceptHashOnly: true})
	if err != nil {
		t.Fatalf("%v", err)
	}
	if len(res.Games) != 1 {
		t.Fatalf("len(Games) = %d, want 1", len(res.Games))
	}
	if res.Games[0].OtherTags["WhiteElo"] != "2900" {
		t.Errorf("kept game has WhiteElo %q, want the higher-rated copy", res.Games[0].OtherTags["WhiteElo"])
	}
}

func TestJoinPositionalFingerprintSeparatesDifferentGames(t *testing.T) {
	a := parse(t, gameA)
	const gameC = `[Event "Test"]
[Site "?"]
[Date "2023.05.15"]
[Round "1"]
[White "A"]
[Black "B"]
[Result "0-1"]

1. d4 d5 2. c4 e6 0-1
`
	c := parse(t, gameC)
	res, err := Join([]Source{{Games: []*board.Game{a, c}}}, Options{Mode: PositionalFingerprint})
	if err != nil {
		t.Fatalf("%v", err)
	}
	if len(res.Games) != 2 {
		t.Errorf("len(Games) = %d, want 2 (different games should not collide)", len(res.Games))
	}
}
