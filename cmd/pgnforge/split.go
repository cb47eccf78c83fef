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
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/brighamskarda/pgnforge/internal/transform/split"
)

var splitModeNames = map[string]split.Mode{
	"count":  split.ByCount,
	"white":  split.ByWhitePlayer,
	"black":  split.ByBlackPlayer,
	"either": split.ByEitherPlayer,
	"event":  split.ByEvent,
	"site":   split.BySite,
	"round":  split.ByRound,
	"eco":    split.ByEco,
	"date":   split.ByDate,
}

var splitPrecisionNames = map[string]split.DatePrecision{
	"year":    split.PrecisionYear,
	"month":   split.PrecisionMonth,
	"day":     split.PrecisionDay,
	"decade":  split.PrecisionDecade,
	"century": split.PrecisionCentury,
}

func newSplitCmd(flags *globalFlags) *cobra.Command {
	var mode, precision, pbiPath, outDir string
	var count int
	var withIndex bool

	cmd := &cobra.Command{
		Use:   "split <pgn-file>",
		Short: "Partition a PGN file by count or tag value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, ok := splitModeNames[mode]
			if !ok {
				return fmt.Errorf("split: unknown mode %q", mode)
			}
			p, ok := splitPrecisionNames[precision]
			if !ok {
				return fmt.Errorf("split: unknown date precision %q", precision)
			}

			logger := flags.newLogger()
			ctx := cmd.Context()

			if pbiPath == "" {
				pbiPath = defaultPbiPath(args[0])
			}
			reader, err := openOrBuildIndex(ctx, args[0], pbiPath, logger)
			if err != nil {
				return fmt.Errorf("split: %w", err)
			}
			records, err := reader.Records()
			reader.Close()
			if err != nil {
				return fmt.Errorf("split: %w", err)
			}

			games, err := loadGamesFromRecords(args[0], records)
			if err != nil {
				return fmt.Errorf("split: %w", err)
			}

			parts, err := split.Split(games, split.Options{Mode: m, Count: count, Precision: p})
			if err != nil {
				return fmt.Errorf("split: %w", err)
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("split: %w", err)
			}

			names := make([]string, len(parts))
			for i, part := range parts {
				key := part.Key
				if key == "" {
					key = fmt.Sprintf("part-%04d", i+1)
				}
				names[i] = split.SanitizeFilename(key)
			}
			names = split.Disambiguate(names)

			for i, part := range parts {
				dest := filepath.Join(outDir, names[i]+".pgn")
				// Each partition's heap is rebuilt from the strings it
				// actually references, so its companion index is built
				// fresh rather than sliced out of the source's.
				destPbi := ""
				if withIndex {
					destPbi = defaultPbiPath(dest)
				}
				if err := writeGamesAndIndex(ctx, dest, destPbi, part.Games, logger); err != nil {
					return fmt.Errorf("split: %w", err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d partitions to %s\n", len(parts), outDir)
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "by", "count", "partition mode: count, white, black, either, event, site, round, eco, date")
	cmd.Flags().StringVar(&precision, "precision", "year", "date precision for --by=date: year, month, day, decade, century")
	cmd.Flags().StringVar(&pbiPath, "pbi", "", "source .pbi companion (defaults to <pgn-file> with a .pbi extension, built if missing)")
	cmd.Flags().StringVar(&outDir, "out", ".", "output directory for partition files")
	cmd.Flags().IntVar(&count, "count", 1000, "games per partition for --by=count")
	cmd.Flags().BoolVar(&withIndex, "index", false, "build a .pbi alongside each partition")
	return cmd
}
