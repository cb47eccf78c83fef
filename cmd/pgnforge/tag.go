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
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/brighamskarda/pgnforge/internal/atomicfile"
	"github.com/brighamskarda/pgnforge/internal/board"
	"github.com/brighamskarda/pgnforge/internal/transform/tageco"
	"github.com/brighamskarda/pgnforge/internal/transform/tagelegance"
	"github.com/brighamskarda/pgnforge/internal/transform/tagelo"
)

func newTagCmd(flags *globalFlags) *cobra.Command {
	parent := &cobra.Command{
		Use:   "tag",
		Short: "Annotate games with ECO, Elo, or elegance headers",
	}
	parent.AddCommand(newTagEcoCmd(flags), newTagEloCmd(flags), newTagEleganceCmd(flags))
	return parent
}

// loadGames parses an entire PGN file without consulting a companion index.
// Kept for analyze, which has no index-aware plan step of its own.
func loadGames(path string) ([]*board.Game, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return board.ParsePGN(f)
}

func writeGames(ctx context.Context, path string, games []*board.Game) error {
	w, err := atomicfile.New(path)
	if err != nil {
		return err
	}
	for _, g := range games {
		if _, err := w.File().WriteString(g.String() + "\n"); err != nil {
			w.Abort()
			return err
		}
	}
	return w.Commit(ctx)
}

func newTagEcoCmd(flags *globalFlags) *cobra.Command {
	var reference, pbiPath, out, outPbi string

	cmd := &cobra.Command{
		Use:   "eco <pgn-file>",
		Short: "Tag games with ECO code, opening, and variation from a reference PGN",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if reference == "" {
				return fmt.Errorf("tag eco: --reference is required")
			}
			refFile, err := os.Open(reference)
			if err != nil {
				return fmt.Errorf("tag eco: %w", err)
			}
			trie, err := tageco.BuildFromReference(refFile)
			refFile.Close()
			if err != nil {
				return fmt.Errorf("tag eco: %w", err)
			}

			logger := flags.newLogger()
			ctx := cmd.Context()

			if pbiPath == "" {
				pbiPath = defaultPbiPath(args[0])
			}
			reader, err := openOrBuildIndex(ctx, args[0], pbiPath, logger)
			if err != nil {
				return fmt.Errorf("tag eco: %w", err)
			}
			records, err := reader.Records()
			reader.Close()
			if err != nil {
				return fmt.Errorf("tag eco: %w", err)
			}

			games, err := loadGamesFromRecords(args[0], records)
			if err != nil {
				return fmt.Errorf("tag eco: %w", err)
			}

			tagged := 0
			for _, g := range games {
				if tageco.Tag(trie, g) {
					tagged++
				}
			}

			if outPbi == "" {
				outPbi = defaultPbiPath(out)
			}
			if err := writeGamesAndIndex(ctx, out, outPbi, games, logger); err != nil {
				return fmt.Errorf("tag eco: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tagged %d of %d games with an ECO match to %s and %s\n", tagged, len(games), out, outPbi)
			return nil
		},
	}
	cmd.Flags().StringVar(&reference, "reference", "", "reference PGN of named openings with ECO/Opening/Variation tags")
	cmd.Flags().StringVar(&pbiPath, "pbi", "", "source .pbi companion (defaults to <pgn-file> with a .pbi extension, built if missing)")
	cmd.Flags().StringVar(&out, "out", "eco-tagged.pgn", "output PGN path")
	cmd.Flags().StringVar(&outPbi, "out-pbi", "", "output .pbi path (defaults to --out with a .pbi extension)")
	return cmd
}

func newTagEloCmd(flags *globalFlags) *cobra.Command {
	var ratingsPath, pbiPath, out, outPbi string

	cmd := &cobra.Command{
		Use:   "elo <pgn-file>",
		Short: "Fill missing WhiteElo/BlackElo headers from a ratings table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if ratingsPath == "" {
				return fmt.Errorf("tag elo: --ratings is required")
			}
			ratings, err := loadRatingsTable(ratingsPath)
			if err != nil {
				return fmt.Errorf("tag elo: %w", err)
			}

			logger := flags.newLogger()
			ctx := cmd.Context()

			if pbiPath == "" {
				pbiPath = defaultPbiPath(args[0])
			}
			reader, err := openOrBuildIndex(ctx, args[0], pbiPath, logger)
			if err != nil {
				return fmt.Errorf("tag elo: %w", err)
			}
			records, err := reader.Records()
			reader.Close()
			if err != nil {
				return fmt.Errorf("tag elo: %w", err)
			}

			games, err := loadGamesFromRecords(args[0], records)
			if err != nil {
				return fmt.Errorf("tag elo: %w", err)
			}

			tagger := tagelo.New(ratings.lookup, nil)
			var warnings int
			for _, g := range games {
				warnings += len(tagger.Tag(g))
			}

			if outPbi == "" {
				outPbi = defaultPbiPath(out)
			}
			if err := writeGamesAndIndex(ctx, out, outPbi, games, logger); err != nil {
				return fmt.Errorf("tag elo: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "tagged %d games (%d clamp warnings) to %s and %s\n", len(games), warnings, out, outPbi)
			return nil
		},
	}
	cmd.Flags().StringVar(&ratingsPath, "ratings", "", "CSV ratings table: name,year,month,rating")
	cmd.Flags().StringVar(&pbiPath, "pbi", "", "source .pbi companion (defaults to <pgn-file> with a .pbi extension, built if missing)")
	cmd.Flags().StringVar(&out, "out", "elo-tagged.pgn", "output PGN path")
	cmd.Flags().StringVar(&outPbi, "out-pbi", "", "output .pbi path (defaults to --out with a .pbi extension)")
	return cmd
}

func newTagEleganceCmd(flags *globalFlags) *cobra.Command {
	var pbiPath, out, outPbi string

	cmd := &cobra.Command{
		Use:   "elegance <pgn-file>",
		Short: "Score analyzed games (with [%eval ...] comments) and write an [Elegance] header",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := flags.newLogger()
			ctx := cmd.Context()

			if pbiPath == "" {
				pbiPath = defaultPbiPath(args[0])
			}
			reader, err := openOrBuildIndex(ctx, args[0], pbiPath, logger)
			if err != nil {
				return fmt.Errorf("tag elegance: %w", err)
			}
			records, err := reader.Records()
			reader.Close()
			if err != nil {
				return fmt.Errorf("tag elegance: %w", err)
			}

			games, err := loadGamesFromRecords(args[0], records)
			if err != nil {
				return fmt.Errorf("tag elegance: %w", err)
			}

			scored := 0
			for _, g := range games {
				s, err := tagelegance.Compute(g, tagelegance.Defaults)
				if err != nil {
					continue
				}
				tagelegance.Tag(g, s)
				scored++
			}

			if outPbi == "" {
				outPbi = defaultPbiPath(out)
			}
			if err := writeGamesAndIndex(ctx, out, outPbi, games, logger); err != nil {
				return fmt.Errorf("tag elegance: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "scored %d of %d games to %s and %s\n", scored, len(games), out, outPbi)
			return nil
		},
	}
	cmd.Flags().StringVar(&pbiPath, "pbi", "", "source .pbi companion (defaults to <pgn-file> with a .pbi extension, built if missing)")
	cmd.Flags().StringVar(&out, "out", "elegance-tagged.pgn", "output PGN path")
	cmd.Flags().StringVar(&outPbi, "out-pbi", "", "output .pbi path (defaults to --out with a .pbi extension)")
	return cmd
}

// ratingsTable is a tiny in-memory "name|year|month" -> rating index loaded
// from a CSV file, used to satisfy tagelo.Source.
type ratingsTable struct {
	byKey map[string]uint16
}

func loadRatingsTable(path string) (*ratingsTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t := &ratingsTable{byKey: map[string]uint16{}}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != 4 {
			continue
		}
		name := strings.TrimSpace(fields[0])
		year, err1 := strconv.Atoi(strings.TrimSpace(fields[1]))
		month, err2 := strconv.Atoi(strings.TrimSpace(fields[2]))
		rating, err3 := strconv.Atoi(strings.TrimSpace(fields[3]))
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		t.byKey[ratingsKey(name, year, month)] = uint16(rating)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

func ratingsKey(name string, year, month int) string {
	return name + "|" + strconv.Itoa(year) + "|" + strconv.Itoa(month)
}

func (t *ratingsTable) lookup(name string, year, month int) (uint16, bool) {
	rating, ok := t.byKey[ratingsKey(name, year, month)]
	return rating, ok
}
