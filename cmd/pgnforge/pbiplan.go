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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/brighamskarda/pgnforge/internal/board"
	"github.com/brighamskarda/pgnforge/internal/indexer"
	"github.com/brighamskarda/pgnforge/internal/pbi"
)

// defaultPbiPath derives a companion index path from a PGN path by swapping
// its extension for .pbi.
func defaultPbiPath(pgnPath string) string {
	if ext := ".pgn"; strings.HasSuffix(pgnPath, ext) {
		return strings.TrimSuffix(pgnPath, ext) + ".pbi"
	}
	return pgnPath + ".pbi"
}

// openOrBuildIndex opens the .pbi at pbiPath, building one alongside pgnPath
// first if it doesn't already exist.
func openOrBuildIndex(ctx context.Context, pgnPath, pbiPath string, logger *zap.SugaredLogger) (*pbi.Reader, error) {
	if _, err := os.Stat(pbiPath); errors.Is(err, os.ErrNotExist) {
		if _, err := indexer.Index(ctx, pgnPath, pbiPath, indexer.Config{Logger: logger}); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	return pbi.Open(pbiPath)
}

// loadGamesFromRecords plans from the record array alone, then streams only
// the bytes each record addresses out of pgnPath. No PGN byte is read until
// this call.
func loadGamesFromRecords(pgnPath string, records []pbi.GameRecord) ([]*board.Game, error) {
	f, err := os.Open(pgnPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	games := make([]*board.Game, len(records))
	for i, rec := range records {
		section := io.NewSectionReader(f, rec.FileOffset, int64(rec.Length))
		parsed, err := board.ParsePGN(section)
		if err != nil {
			return nil, fmt.Errorf("game at offset %d: %w", rec.FileOffset, err)
		}
		if len(parsed) != 1 {
			return nil, fmt.Errorf("game at offset %d: expected 1 game, got %d", rec.FileOffset, len(parsed))
		}
		games[i] = parsed[0]
	}
	return games, nil
}

// writeGamesAndIndex writes games to pgnPath through atomicfile, then builds
// a fresh companion index at pbiPath from the just-written file. Unlike a
// reorder, these transforms rebuild or remap every string they intern, so
// the index is rebuilt from scratch rather than carried over.
func writeGamesAndIndex(ctx context.Context, pgnPath, pbiPath string, games []*board.Game, logger *zap.SugaredLogger) error {
	if err := writeGames(ctx, pgnPath, games); err != nil {
		return err
	}
	if pbiPath == "" {
		return nil
	}
	_, err := indexer.Index(ctx, pgnPath, pbiPath, indexer.Config{Logger: logger})
	return err
}
