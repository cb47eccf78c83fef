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

// Package validate runs a multi-pass check over a PGN stream: syntax
// (encoding, control characters), structure (required tags, a result
// token), semantic (move legality), and, in strict mode, full tag-roster
// compliance.
package validate

import (
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/brighamskarda/pgnforge/internal/board"
	"github.com/brighamskarda/pgnforge/internal/pgntok"
)

// Severity classifies how serious a Diagnostic is.
type Severity int

const (
	Syntax Severity = iota
	Structure
	Semantic
	Strict
)

func (s Severity) String() string {
	switch s {
	case Syntax:
		return "syntax"
	case Structure:
		return "structure"
	case Semantic:
		return "semantic"
	case Strict:
		return "strict"
	default:
		return "unknown"
	}
}

// Diagnostic is one validation finding.
type Diagnostic struct {
	Code     string
	Offset   int64
	Message  string
	Severity Severity
}

// Report is the outcome of one Validate call.
type Report struct {
	GamesChecked int
	Diagnostics  []Diagnostic
}

// Options configures a validation pass.
type Options struct {
	// Strict additionally checks that the first seven tags follow the
	// seven-tag-roster order. Games with fewer than seven tags are not
	// order-checked, and Strict adds no other checks.
	Strict bool
}

// sevenTagRoster is the mandatory tag order the PGN spec requires before
// any supplemental tags.
var sevenTagRoster = []string{"Event", "Site", "Date", "Round", "White", "Black", "Result"}

// Validate tokenizes the PGN stream backed by src (size bytes long),
// checking each game as it completes. Resynchronization after a
// tokenizer-level syntax error is not possible: an unterminated tag or
// comment consumes every remaining byte looking for its terminator, so a
// truncation diagnostic ends the pass early. This mirrors the same
// limitation documented in the indexer.
func Validate(src io.ReaderAt, size int64, opts Options) (Report, error) {
	section := io.NewSectionReader(src, 0, size)
	s := pgntok.NewScanner(section)

	var report Report
	g := newGameCollector()

	for {
		tok, err := s.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return report, nil
			}
			if errors.Is(err, pgntok.ErrTruncatedGame) {
				report.Diagnostics = append(report.Diagnostics, Diagnostic{
					Code:     "unterminated-game",
					Offset:   g.start,
					Message:  err.Error(),
					Severity: Syntax,
				})
				return report, nil
			}
			return report, fmt.Errorf("validate: %w", err)
		}

		done, gameEnd := g.consume(tok)
		if done {
			report.GamesChecked++
			report.Diagnostics = append(report.Diagnostics, g.diagnose(src, gameEnd, opts)...)
			g = newGameCollector()
		}
	}
}

// gameCollector accumulates one game's tags and flags while the tokenizer
// walks through it.
type gameCollector struct {
	start      int64
	tagOrder   []string
	tags       map[string]string
	sawMove    bool
	resultText string
	resultOff  int64
	syntaxDx   []Diagnostic

	started    bool
	pendingTag string
}

func newGameCollector() *gameCollector {
	return &gameCollector{tags: map[string]string{}}
}

// consume feeds one token into the collector. It returns done=true and the
// byte offset just past the game's Result token once the game is complete.
func (g *gameCollector) consume(tok pgntok.Token) (done bool, end int64) {
	switch tok.Kind {
	case pgntok.TagOpen:
		if !g.started {
			g.start = tok.Offset
			g.started = true
		}
	case pgntok.TagName:
		g.tagOrder = append(g.tagOrder, tok.Text)
		g.pendingTag = tok.Text
	case pgntok.TagValue:
		g.tags[g.pendingTag] = tok.Text
		g.checkText(tok.Text, tok.Offset)
	case pgntok.SanMove:
		g.sawMove = true
	case pgntok.CommentBrace, pgntok.CommentLine:
		g.checkText(tok.Text, tok.Offset)
	case pgntok.Result:
		g.resultText = tok.Text
		g.resultOff = tok.Offset
		return true, tok.Offset + int64(len(tok.Text))
	}
	return false, 0
}

func (g *gameCollector) checkText(text string, offset int64) {
	if !utf8.ValidString(text) {
		g.syntaxDx = append(g.syntaxDx, Diagnostic{
			Code: "invalid-utf8", Offset: offset, Message: "value is not valid UTF-8", Severity: Syntax,
		})
		return
	}
	for i, r := range text {
		if r < 0x20 && r != '\t' {
			g.syntaxDx = append(g.syntaxDx, Diagnostic{
				Code:     "control-character",
				Offset:   offset + int64(i),
				Message:  fmt.Sprintf("control character U+%04X in value", r),
				Severity: Syntax,
			})
		}
	}
}

func (g *gameCollector) diagnose(src io.ReaderAt, end int64, opts Options) []Diagnostic {
	dx := append([]Diagnostic{}, g.syntaxDx...)

	for _, name := range sevenTagRoster {
		if _, ok := g.tags[name]; !ok {
			dx = append(dx, Diagnostic{
				Code:     "missing-required-tag",
				Offset:   g.start,
				Message:  fmt.Sprintf("missing required tag %q", name),
				Severity: Structure,
			})
		}
	}
	if g.resultText == "" {
		dx = append(dx, Diagnostic{
			Code: "missing-result-token", Offset: g.start, Message: "game has no result token", Severity: Structure,
		})
	} else if tagResult, ok := g.tags["Result"]; ok && tagResult != g.resultText {
		dx = append(dx, Diagnostic{
			Code:     "result-mismatch",
			Offset:   g.resultOff,
			Message:  fmt.Sprintf("Result tag %q does not match move text result %q", tagResult, g.resultText),
			Severity: Structure,
		})
	}

	if opts.Strict {
		dx = append(dx, g.checkRosterOrder()...)
	}

	if len(dx) == 0 || allSyntaxOrStructure(dx) {
		section := io.NewSectionReader(src, g.start, end-g.start)
		if _, err := board.ParsePGN(section); err != nil {
			dx = append(dx, Diagnostic{
				Code: "illegal-move-or-parse-error", Offset: g.start, Message: err.Error(), Severity: Semantic,
			})
		}
	}

	return dx
}

func allSyntaxOrStructure(dx []Diagnostic) bool {
	for _, d := range dx {
		if d.Severity != Syntax && d.Severity != Structure {
			return false
		}
	}
	return true
}

func (g *gameCollector) checkRosterOrder() []Diagnostic {
	var dx []Diagnostic
	n := len(sevenTagRoster)
	if len(g.tagOrder) < n {
		return dx
	}
	for i, want := range sevenTagRoster {
		if g.tagOrder[i] != want {
			dx = append(dx, Diagnostic{
				Code:     "tag-roster-order",
				Offset:   g.start,
				Message:  fmt.Sprintf("tag %d is %q, want %q (seven tag roster order)", i+1, g.tagOrder[i], want),
				Severity: Strict,
			})
		}
	}
	return dx
}
