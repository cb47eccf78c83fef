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

package tageco

import (
	"strings"
	"testing"

	"github.com/brighamskarda/pgnforge/internal/board"
)

const referencePGN = `[Event "Ruy Lopez"]
[Site "?"]
[Date "????.??.??"]
[Round "-"]
[White "?"]
[Black "?"]
[Result "*"]
[ECO "C60"]
[Opening "Ruy Lopez"]

1. e4 e5 2. Nf3 Nc6 3. Bb5 *

[Event "Ruy Lopez, Berlin Defense"]
[Site "?"]
[Date "????.??.??"]
[Round "-"]
[White "?"]
[Black "?"]
[Result "*"]
[ECO "C65"]
[Opening "Ruy Lopez"]
[Variation "Berlin Defense"]

1. e4 e5 2. Nf3 Nc6 3. Bb5 Nf6 *
`

const gamePGN = `[Event "Game"]
[Site "?"]
[Date "????.??.??"]
[Round "1"]
[White "A"]
[Black "B"]
[Result "1-0"]

1. e4 e5 2. Nf3 Nc6 3. Bb5 Nf6 4. O-O 1-0
`

func TestTrieDeepestMatchWins(t *testing.T) {
	trie, err := BuildFromReference(strings.NewReader(referencePGN))
	if err != nil {
		t.Fatalf("BuildFromReference: %v", err)
	}
	games, err := board.ParsePGN(strings.NewReader(gamePGN))
	if err != nil {
		t.Fatalf("ParsePGN: %v", err)
	}

	ok := Tag(trie, games[0])
	if !ok {
		t.Fatal("expected a trie match")
	}
	if games[0].OtherTags["ECO"] != "C65" {
		t.Errorf("ECO = %q, want C65 (the deeper Berlin match)", games[0].OtherTags["ECO"])
	}
	if games[0].OtherTags["Variation"] != "Berlin Defense" {
		t.Errorf("Variation = %q, want Berlin Defense", games[0].OtherTags["Variation"])
	}
}

func TestCacheBuildsOnce(t *testing.T) {
	c := NewCache()
	calls := 0
	build := func() (*Trie, error) {
		calls++
		return BuildFromReference(strings.NewReader(referencePGN))
	}
	if _, err := c.Get("ref.pgn", build); err != nil {
		t.Fatalf("%v", err)
	}
	if _, err := c.Get("ref.pgn", build); err != nil {
		t.Fatalf("%v", err)
	}
	if calls != 1 {
		t.Errorf("build called %d times, want 1", calls)
	}
}
