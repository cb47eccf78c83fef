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
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/brighamskarda/pgnforge/internal/board"
)

// SetOption sends a "setoption" command, configuring a named engine option
// (e.g. "SyzygyPath"). value may be empty for Button options.
//
// Not safe for concurrent use.
func (c *Client) SetOption(ctx context.Context, name string, value string) error {
	var msg string
	if value == "" {
		msg = fmt.Sprintf("setoption name %s\n", name)
	} else {
		msg = fmt.Sprintf("setoption name %s value %s\n", name, value)
	}
	if err := c.send(ctx, []byte(msg)); err != nil {
		return fmt.Errorf("could not set option %s: %w", name, err)
	}
	return nil
}

// NewGame sends "ucinewgame", informing the engine that the following
// positions are unrelated to any prior search (clears hash tables, history).
//
// Not safe for concurrent use.
func (c *Client) NewGame(ctx context.Context) error {
	if err := c.send(ctx, []byte("ucinewgame\n")); err != nil {
		return fmt.Errorf("could not start new game: %w", err)
	}
	return nil
}

// SearchResult is the outcome of a bounded search started by [Client.Go].
type SearchResult struct {
	// Best is the move the engine recommends.
	Best board.Move
	// Ponder is the engine's predicted reply, if any.
	Ponder *board.Move
	// DeepestScore is the score from the last (deepest) "info" line seen
	// during the search, nil if the engine sent none.
	DeepestScore *Score
	// DeepestDepth is the depth the deepest score was reported at.
	DeepestDepth uint
}

// SearchTimeout clamps a requested search depth to the bounded per-position
// timeout used by the analyzer: ceil(depth * 2.5) seconds, clamped to
// [15, 120] seconds.
func SearchTimeout(depth uint) time.Duration {
	seconds := math.Ceil(float64(depth) * 2.5)
	if seconds < 15 {
		seconds = 15
	}
	if seconds > 120 {
		seconds = 120
	}
	return time.Duration(seconds) * time.Second
}

// Go evaluates fen to the given depth, blocking until the engine replies with
// bestmove or the context is cancelled. On cancellation "stop" is sent and the
// call waits up to 500ms for a trailing bestmove before giving up.
//
// Not safe for concurrent use.
func (c *Client) Go(ctx context.Context, fen string, depth uint) (*SearchResult, error) {
	posMsg := fmt.Sprintf("position fen %s\n", fen)
	if err := c.send(ctx, []byte(posMsg)); err != nil {
		return nil, fmt.Errorf("could not set position: %w", err)
	}

	goMsg := fmt.Sprintf("go depth %d\n", depth)
	if err := c.send(ctx, []byte(goMsg)); err != nil {
		return nil, fmt.Errorf("could not start search: %w", err)
	}

	result := &SearchResult{}

	for {
		cmd, err := c.commandBuf.NextWithContext(ctx)
		if err != nil {
			return c.abortSearch(result)
		}

		switch v := cmd.(type) {
		case bestMove:
			result.Best = v.best
			result.Ponder = v.ponder
			return result, nil
		}
	}
}

// abortSearch is called when ctx is cancelled mid-search. It sends "stop",
// waits up to 500ms for a trailing bestmove, then returns whatever partial
// result was accumulated along with the cancellation error.
func (c *Client) abortSearch(partial *SearchResult) (*SearchResult, error) {
	stopCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	if err := c.send(stopCtx, []byte("stop\n")); err != nil {
		return partial, fmt.Errorf("search cancelled, could not send stop: %w", err)
	}

	for {
		cmd, err := c.commandBuf.NextWithContext(stopCtx)
		if err != nil {
			return partial, errors.New("search cancelled")
		}
		if v, ok := cmd.(bestMove); ok {
			partial.Best = v.best
			partial.Ponder = v.ponder
			return partial, errors.New("search cancelled")
		}
	}
}

// PollInfo drains any buffered [Info] lines received since the last call,
// updating result with the deepest (highest depth) score seen. It is safe to
// call concurrently with an in-progress [Client.Go] to report live progress.
func (c *Client) PollInfo(result *SearchResult) {
	for {
		select {
		case info := <-c.infoBuf.contents:
			if info.Score == nil || info.Depth == nil {
				continue
			}
			if result.DeepestScore == nil || *info.Depth >= result.DeepestDepth {
				result.DeepestScore = info.Score
				result.DeepestDepth = *info.Depth
			}
		default:
			return
		}
	}
}

// MateCentipawns renders score as a synthetic centipawn value suitable for
// ordering mate scores alongside centipawn scores: mates favouring the side
// to move sort above any realistic centipawn evaluation, closer mates higher
// than distant ones.
func MateCentipawns(matePlies int) int {
	sign := 1
	if matePlies < 0 {
		sign = -1
	}
	abs := matePlies
	if abs < 0 {
		abs = -abs
	}
	if abs > 999 {
		abs = 999
	}
	return sign * (100_000 - abs*100)
}

// RenderMate formats a mate-in-d-moves score the way PGN [%eval] annotations
// do: "#d" for the side to move delivering mate, "#-d" for being mated.
func RenderMate(d int) string {
	if d >= 0 {
		return "#" + strconv.Itoa(d)
	}
	return "#-" + strconv.Itoa(-d)
}

// ParseMateRender parses a string produced by [RenderMate] back into a mate
// distance, the inverse of RenderMate.
func ParseMateRender(s string) (int, error) {
	s = strings.TrimPrefix(s, "#")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("could not parse mate render %q: %w", s, err)
	}
	return n, nil
}
