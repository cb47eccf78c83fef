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

// Package indexer performs the single-pass PGN-to-.pbi orchestration:
// tokenize, extract header metadata, detect move-text flags, and emit one
// GameRecord per game plus aggregate header statistics.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/brighamskarda/pgnforge/internal/pbi"
	"github.com/brighamskarda/pgnforge/internal/pgnerr"
	"github.com/brighamskarda/pgnforge/internal/pgntok"
	"github.com/brighamskarda/pgnforge/internal/progress"
	"github.com/brighamskarda/pgnforge/internal/stringheap"
)

// Config configures a single indexing pass.
type Config struct {
	// Logger receives warnings for skipped/malformed games. Defaults to a
	// no-op logger when nil.
	Logger *zap.SugaredLogger
	// NormalizeNames applies NFKC normalisation before interning player
	// names, so visually identical names collapse to one heap id.
	NormalizeNames bool
	// NameAlias optionally rewrites a parsed player name before interning,
	// e.g. to resolve a caller-supplied alias table. Nil means identity.
	NameAlias    func(string) string
	ProgressSink progress.Sink
}

// Report summarises one indexing pass.
type Report struct {
	GamesIndexed int
	GamesSkipped int
}

// Index performs a single streaming pass over the PGN at pgnPath, writing a
// fresh companion index to pbiPath.
func Index(ctx context.Context, pgnPath, pbiPath string, cfg Config) (Report, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	f, err := os.Open(pgnPath)
	if err != nil {
		return Report{}, fmt.Errorf("indexer: %w", err)
	}
	defer f.Close()

	heap := stringheap.NewBuilder()
	heap.Normalize = cfg.NormalizeNames
	builder := &pbi.Builder{}
	reporter := progress.NewReporter(cfg.ProgressSink)

	scanner := pgntok.NewScanner(f)
	report := Report{}

	var pending *pgntok.Token
	for {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("%w", pgnerr.ErrCancelled)
		}

		rec, ok, skipErr, err, next := indexOneGame(scanner, heap, builder, cfg.NameAlias, pending, logger)
		pending = next
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return report, err
		}
		if skipErr != nil {
			logger.Warnw("skipping malformed game", "error", skipErr)
			report.GamesSkipped++
			continue
		}
		if !ok {
			break
		}
		builder.Add(rec)
		report.GamesIndexed++
		reporter.Report(progress.Progress{GamesProcessed: report.GamesIndexed, BytesRead: rec.FileOffset + int64(rec.Length)})
	}
	reporter.Force(progress.Progress{GamesProcessed: report.GamesIndexed})

	if err := pbi.Write(ctx, pbiPath, builder, heap.Finalize()); err != nil {
		return report, fmt.Errorf("indexer: %w", err)
	}
	return report, nil
}

// indexOneGame consumes tokens for exactly one game. ok is false only at a
// clean end of stream (io.EOF returned as err). skipErr is non-nil for a
// malformed game that was resynchronised past; the caller should count it
// as skipped and continue, not abort.
//
// pending, if non-nil, is a token already read by a previous call (the
// opening TagOpen of this game, handed back by that call after it detected
// the prior game ended without a Result token) and is consumed before s is
// read again. next carries the same kind of handback to the caller: a
// TagOpen token that belongs to the game after this one.
func indexOneGame(s *pgntok.Scanner, heap *stringheap.Builder, builder *pbi.Builder, alias func(string) string, pending *pgntok.Token, logger *zap.SugaredLogger) (rec pbi.GameRecord, ok bool, skipErr error, err error, next *pgntok.Token) {
	tags := make(map[string]string)
	var gameStart int64 = -1
	var gameEnd int64
	var lastTagName string
	var flags byte
	var sawResult bool
	var sawMoveText bool
	var lastSan string

	readNext := func() (pgntok.Token, error) {
		if pending != nil {
			tok := *pending
			pending = nil
			return tok, nil
		}
		return s.Next()
	}

	for {
		tok, terr := readNext()
		if terr != nil {
			if errors.Is(terr, io.EOF) {
				return pbi.GameRecord{}, false, nil, io.EOF, nil
			}
			malformed := &pgnerr.MalformedPgn{Offset: offsetOf(gameStart), Reason: terr.Error()}
			return pbi.GameRecord{}, true, malformed, nil, nil
		}

		switch tok.Kind {
		case pgntok.TagOpen:
			switch {
			case gameStart < 0:
				gameStart = tok.Offset
			case sawMoveText && !sawResult:
				logger.Warnw("game missing result token, inferring *", "offset", gameStart)
				tags["Result"] = "*"
				handback := tok
				return buildRecord(tags, gameStart, tok.Offset, flags, heap, alias), true, nil, nil, &handback
			}
		case pgntok.TagName:
			lastTagName = tok.Text
		case pgntok.TagValue:
			tags[lastTagName] = tok.Text
			if lastTagName == "PlyCount" {
				flags |= pbi.FlagPlyCount
			}
		case pgntok.CommentBrace, pgntok.CommentLine:
			flags |= pbi.FlagHasComments
			if strings.Contains(tok.Text, "%eval") {
				flags |= pbi.FlagHasEval
			}
		case pgntok.VariationOpen:
			flags |= pbi.FlagHasVariations
		case pgntok.MoveNumber:
			sawMoveText = true
		case pgntok.SanMove:
			sawMoveText = true
			lastSan = tok.Text
		case pgntok.Result:
			sawResult = true
			gameEnd = tok.Offset + int64(len(tok.Text))
			if strings.HasSuffix(lastSan, "#") {
				flags |= pbi.FlagCheckmate
			}
			return buildRecord(tags, gameStart, gameEnd, flags, heap, alias), true, nil, nil, nil
		case pgntok.GameSeparator:
			if sawResult {
				continue
			}
		}
	}
}

func offsetOf(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

func buildRecord(tags map[string]string, start, end int64, flags byte, heap *stringheap.Builder, alias func(string) string) pbi.GameRecord {
	white := tags["White"]
	black := tags["Black"]
	if alias != nil {
		white = alias(white)
		black = alias(black)
	}

	return pbi.GameRecord{
		FileOffset:  start,
		Length:      uint32(end - start),
		WhiteNameID: heap.Intern(white),
		BlackNameID: heap.Intern(black),
		WhiteElo:    parseElo(tags["WhiteElo"]),
		BlackElo:    parseElo(tags["BlackElo"]),
		Result:      parseResult(tags["Result"]),
		EcoCategory: ecoCategory(tags["ECO"]),
		EcoNumber:   ecoNumber(tags["ECO"]),
		Flags:       flags,
		DateCompact: parseDateCompact(tags["Date"]),
	}
}

func parseElo(s string) uint16 {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	if n > 65535 {
		return 65535
	}
	return uint16(n)
}

func parseResult(s string) pbi.Result {
	switch strings.TrimSpace(s) {
	case "1-0":
		return pbi.ResultWhiteWins
	case "0-1":
		return pbi.ResultBlackWins
	case "1/2-1/2":
		return pbi.ResultDraw
	default:
		return pbi.ResultUnknown
	}
}

func ecoCategory(s string) byte {
	if len(s) != 3 {
		return 0
	}
	c := s[0]
	if c < 'A' || c > 'E' {
		return 0
	}
	if s[1] < '0' || s[1] > '9' || s[2] < '0' || s[2] > '9' {
		return 0
	}
	return c
}

func ecoNumber(s string) byte {
	if len(s) != 3 {
		return pbi.EcoUnset
	}
	n, err := strconv.Atoi(s[1:3])
	if err != nil {
		return pbi.EcoUnset
	}
	return byte(n)
}
