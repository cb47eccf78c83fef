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

package uci

import (
	"context"
	"testing"
	"time"

	"github.com/brighamskarda/pgnforge/internal/board"
)

func TestSearchTimeout(t *testing.T) {
	cases := []struct {
		depth uint
		want  time.Duration
	}{
		{0, 15 * time.Second},
		{4, 15 * time.Second},
		{10, 25 * time.Second},
		{100, 120 * time.Second},
	}
	for _, c := range cases {
		if got := SearchTimeout(c.depth); got != c.want {
			t.Errorf("SearchTimeout(%d) = %v, want %v", c.depth, got, c.want)
		}
	}
}

func TestMateCentipawns(t *testing.T) {
	if v := MateCentipawns(1); v <= 99_000 {
		t.Errorf("mate in 1 should score near 100000, got %d", v)
	}
	if v := MateCentipawns(-1); v >= -99_000 {
		t.Errorf("being mated in 1 should score near -100000, got %d", v)
	}
	if MateCentipawns(1) <= MateCentipawns(5) {
		t.Error("closer mates should score higher than distant ones")
	}
}

func TestRenderMateRoundTrip(t *testing.T) {
	for _, d := range []int{1, -1, 12, -12} {
		rendered := RenderMate(d)
		got, err := ParseMateRender(rendered)
		if err != nil {
			t.Fatalf("ParseMateRender(%q): %v", rendered, err)
		}
		if got != d {
			t.Errorf("round trip %d -> %q -> %d", d, rendered, got)
		}
	}
}

func TestClient_GoReturnsBestMove(t *testing.T) {
	cp := newDummyClientProgram()
	defer cp.Kill()
	c, err := newClientFromClientProgram(cp, ClientSettings{})
	if err != nil {
		t.Fatalf("%v", err)
	}

	go func() {
		buf := make([]byte, 256)
		cp.stdinReader.Read(buf) // position fen ...
		cp.stdinReader.Read(buf) // go depth ...
		cp.stdoutWriter.Write([]byte("bestmove e2e4 ponder e7e5\n"))
	}()

	result, err := c.Go(context.Background(), "startpos", 4)
	if err != nil {
		t.Fatalf("%v", err)
	}
	want := board.Move{FromSquare: board.E2, ToSquare: board.E4}
	if result.Best != want {
		t.Errorf("got best move %v, want %v", result.Best, want)
	}
	if result.Ponder == nil || *result.Ponder != (board.Move{FromSquare: board.E7, ToSquare: board.E5}) {
		t.Errorf("got ponder move %v", result.Ponder)
	}
}

func TestClient_GoCancelled(t *testing.T) {
	cp := newDummyClientProgram()
	defer cp.Kill()
	c, err := newClientFromClientProgram(cp, ClientSettings{})
	if err != nil {
		t.Fatalf("%v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		buf := make([]byte, 256)
		cp.stdinReader.Read(buf) // position fen ...
		cp.stdinReader.Read(buf) // go depth ...
		cancel()
		cp.stdinReader.Read(buf) // stop
	}()

	_, err = c.Go(ctx, "startpos", 4)
	if err == nil {
		t.Error("expected cancellation error")
	}
}
