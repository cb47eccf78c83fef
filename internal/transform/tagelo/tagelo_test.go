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

package tagelo

import (
	"testing"

	"github.com/brighamskarda/pgnforge/internal/board"
)

func staticSource(ratings map[string]uint16) Source {
	return func(name string, year, month int) (uint16, bool) {
		r, ok := ratings[name]
		return r, ok
	}
}

func TestTagFillsMissingElo(t *testing.T) {
	g, err := board.NewGameFromFEN(board.DefaultFEN)
	if err != nil {
		t.Fatalf("%v", err)
	}
	g.White = "Carlsen, Magnus"
	g.Black = "Nakamura, Hikaru"
	g.Date = "2023.05.15"
	g.OtherTags = map[string]string{}

	tagger := New(staticSource(map[string]uint16{
		"Carlsen, Magnus":  2830,
		"Nakamura, Hikaru": 2780,
	}), nil)

	warnings := tagger.Tag(g)
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if g.OtherTags["WhiteElo"] != "2830" {
		t.Errorf("WhiteElo = %q, want 2830", g.OtherTags["WhiteElo"])
	}
	if g.OtherTags["BlackElo"] != "2780" {
		t.Errorf("BlackElo = %q, want 2780", g.OtherTags["BlackElo"])
	}
}

func TestTagDoesNotOverwriteExisting(t *testing.T) {
	g, err := board.NewGameFromFEN(board.DefaultFEN)
	if err != nil {
		t.Fatalf("%v", err)
	}
	g.White = "Carlsen, Magnus"
	g.OtherTags = map[string]string{"WhiteElo": "2800"}

	tagger := New(staticSource(map[string]uint16{"Carlsen, Magnus": 2830}), nil)
	tagger.Tag(g)
	if g.OtherTags["WhiteElo"] != "2800" {
		t.Errorf("WhiteElo = %q, want unchanged 2800", g.OtherTags["WhiteElo"])
	}
}

func TestTagClampsOutOfRange(t *testing.T) {
	g, err := board.NewGameFromFEN(board.DefaultFEN)
	if err != nil {
		t.Fatalf("%v", err)
	}
	g.White = "Overrated"
	g.OtherTags = map[string]string{}

	tagger := New(staticSource(map[string]uint16{"Overrated": 3500}), nil)
	warnings := tagger.Tag(g)
	if g.OtherTags["WhiteElo"] != "3000" {
		t.Errorf("WhiteElo = %q, want clamped 3000", g.OtherTags["WhiteElo"])
	}
	if len(warnings) != 1 {
		t.Errorf("warnings = %v, want one clamp warning", warnings)
	}
}
