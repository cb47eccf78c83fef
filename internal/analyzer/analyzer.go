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

// Package analyzer drives a UCI engine over a game's mainline, attaching an
// [%eval] comment and a move-quality NAG to every ply.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/brighamskarda/pgnforge/internal/board"
	"github.com/brighamskarda/pgnforge/internal/uci"
)

// NAG values assigned based on the centipawn swing a move costs its mover,
// per the Numeric Annotation Glyph table.
const (
	nagDubious  = 6
	nagMistake  = 2
	nagBlunder  = 4
	dubiousCp   = -60
	mistakeCp   = -150
	blunderCp   = -300
)

const (
	uciHandshakeTimeout = 5 * time.Second
	quitTimeout1        = 2 * time.Second
	quitTimeout2        = 2 * time.Second
)

// Config configures an Analyzer.
type Config struct {
	EnginePath string
	EngineArgs []string
	Depth      uint
	Logger     *zap.SugaredLogger
}

// ErrEngineCrashed is returned by AnalyzeGame when the underlying engine
// process dies mid-game. The Analyzer has already respawned a fresh engine
// process by the time this error is returned; the caller should skip the
// current game and continue with the next one.
var ErrEngineCrashed = errors.New("analyzer: engine crashed")

// Analyzer owns one live engine process.
type Analyzer struct {
	cfg    Config
	client *uci.Client
}

// New spawns the configured engine and performs the UCI handshake.
func New(cfg Config) (*Analyzer, error) {
	a := &Analyzer{cfg: cfg}
	if err := a.spawn(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Analyzer) spawn() error {
	client, err := uci.NewClient(a.cfg.EnginePath, uci.ClientSettings{Args: a.cfg.EngineArgs})
	if err != nil {
		return fmt.Errorf("analyzer: could not start engine: %w", err)
	}
	if _, err := client.Uci(uciHandshakeTimeout); err != nil {
		return fmt.Errorf("analyzer: uci handshake failed: %w", err)
	}
	if !client.IsReady(uciHandshakeTimeout) {
		return errors.New("analyzer: engine did not respond isready")
	}
	a.client = client
	return nil
}

// Close quits the underlying engine process.
func (a *Analyzer) Close() error {
	if a.client == nil {
		return nil
	}
	return a.client.Quit(quitTimeout1, quitTimeout2)
}

// AnalyzeGame evaluates every ply of g's mainline and annotates it with an
// [%eval] comment and, where the swing crosses a threshold, a move-quality
// NAG. If ctx is cancelled mid-game, AnalyzeGame returns ctx.Err() and
// leaves any moves analyzed so far annotated; the caller is responsible for
// discarding partial output. If the engine process dies, Close is called on
// the dead client, a replacement is spawned, and ErrEngineCrashed is
// returned so the caller can skip this game and continue.
func (a *Analyzer) AnalyzeGame(ctx context.Context, g *board.Game) error {
	if err := a.client.NewGame(ctx); err != nil {
		return a.handleEngineError(err)
	}

	history := g.MoveHistory()

	fen0, err := g.PositionPly(0).MarshalText()
	if err != nil {
		return fmt.Errorf("analyzer: position 0: %w", err)
	}
	scoreBefore, err := a.evaluate(ctx, string(fen0))
	if err != nil {
		return a.handleEngineError(err)
	}

	// scoreBefore is always the score of the position at ply i, evaluated
	// from the perspective of the side to move there (the mover of move i).
	for i := range history {
		whiteToMoveAfter := i%2 != 0

		fenAfter, err := g.PositionPly(i + 1).MarshalText()
		if err != nil {
			return fmt.Errorf("analyzer: position %d: %w", i+1, err)
		}
		scoreAfter, err := a.evaluate(ctx, string(fenAfter))
		if err != nil {
			return a.handleEngineError(err)
		}

		moverCpBefore := rawCp(scoreBefore)
		moverCpAfter := -rawCp(scoreAfter)
		delta := moverCpAfter - moverCpBefore

		g.CommentMove(i, formatEval(scoreAfter, whiteToMoveAfter))
		if nag := nagForDelta(delta); nag != 0 {
			g.AnnotateMove(i, nag)
		}

		scoreBefore = scoreAfter
	}
	return nil
}

func (a *Analyzer) evaluate(ctx context.Context, fen string) (*uci.SearchResult, error) {
	timeout := uci.SearchTimeout(a.cfg.Depth)
	searchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	result, err := a.client.Go(searchCtx, fen, a.cfg.Depth)
	if err != nil {
		return nil, err
	}
	// Go returns as soon as bestmove arrives; the deepest "info" line is
	// already sitting in the buffer by then.
	a.client.PollInfo(result)
	return result, nil
}

// handleEngineError distinguishes a cancelled context (propagated to the
// caller unchanged) from an engine crash (respawned, then reported via
// ErrEngineCrashed).
func (a *Analyzer) handleEngineError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	if a.cfg.Logger != nil {
		a.cfg.Logger.Warnw("engine crashed mid-game, respawning", "error", err)
	}
	if a.client != nil {
		a.client.Quit(quitTimeout1, quitTimeout2)
	}
	if spawnErr := a.spawn(); spawnErr != nil {
		return fmt.Errorf("analyzer: engine crashed and respawn failed: %w", spawnErr)
	}
	return ErrEngineCrashed
}

func rawCp(r *uci.SearchResult) int {
	if r == nil || r.DeepestScore == nil {
		return 0
	}
	s := r.DeepestScore
	if s.Mate != nil {
		return uci.MateCentipawns(*s.Mate)
	}
	if s.Cp != nil {
		return *s.Cp
	}
	return 0
}

func nagForDelta(delta int) uint8 {
	switch {
	case delta <= blunderCp:
		return nagBlunder
	case delta <= mistakeCp:
		return nagMistake
	case delta <= dubiousCp:
		return nagDubious
	default:
		return 0
	}
}

// formatEval renders an engine score as a lichess-style [%eval] comment,
// converted to White's point of view. whiteToMove reports whether White is
// to move at the position the score was computed for.
func formatEval(r *uci.SearchResult, whiteToMove bool) string {
	if r == nil || r.DeepestScore == nil {
		return ""
	}
	s := r.DeepestScore
	if s.Mate != nil {
		m := *s.Mate
		if !whiteToMove {
			m = -m
		}
		return "[%eval " + uci.RenderMate(m) + "]"
	}
	cp := 0
	if s.Cp != nil {
		cp = *s.Cp
	}
	pawns := float64(cp) / 100.0
	if !whiteToMove {
		pawns = -pawns
	}
	return "[%eval " + strconv.FormatFloat(pawns, 'f', 2, 64) + "]"
}
