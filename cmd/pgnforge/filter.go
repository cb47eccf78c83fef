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

	"github.com/spf13/cobra"

	"github.com/brighamskarda/pgnforge/internal/board"
	"github.com/brighamskarda/pgnforge/internal/transform/filter"
)

func newFilterCmd(flags *globalFlags) *cobra.Command {
	parent := &cobra.Command{
		Use:   "filter",
		Short: "Select games by replayed termination",
	}
	parent.AddCommand(newFilterCheckmateCmd(flags))
	return parent
}

func newFilterCheckmateCmd(flags *globalFlags) *cobra.Command {
	var strict bool
	var pbiPath, out, outPbi string

	cmd := &cobra.Command{
		Use:   "checkmate <pgn-file>",
		Short: "Keep only games whose mainline actually ends in checkmate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := flags.newLogger()
			ctx := cmd.Context()

			if pbiPath == "" {
				pbiPath = defaultPbiPath(args[0])
			}
			reader, err := openOrBuildIndex(ctx, args[0], pbiPath, logger)
			if err != nil {
				return fmt.Errorf("filter checkmate: %w", err)
			}
			records, err := reader.Records()
			reader.Close()
			if err != nil {
				return fmt.Errorf("filter checkmate: %w", err)
			}

			games, err := loadGamesFromRecords(args[0], records)
			if err != nil {
				return fmt.Errorf("filter checkmate: %w", err)
			}

			set := filter.NewSet(filter.Checkmate, strict)
			var mismatches int
			for i, g := range games {
				if _, err := set.Add(uint32(i), g); err != nil {
					// A strict-mode Result-tag mismatch is already recorded
					// in set.Rejected(); skip it and keep classifying the
					// rest of the batch rather than aborting the run.
					mismatches++
					logger.Warnw("filter checkmate: skipping strict mismatch", "error", err)
					continue
				}
			}

			kept := make([]*board.Game, 0, len(set.Kept()))
			for _, idx := range set.Kept() {
				kept = append(kept, games[idx])
			}

			if outPbi == "" {
				outPbi = defaultPbiPath(out)
			}
			if err := writeGamesAndIndex(ctx, out, outPbi, kept, logger); err != nil {
				return fmt.Errorf("filter checkmate: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "kept %d of %d games (checkmate, %d strict mismatches skipped) to %s and %s\n",
				len(set.Kept()), len(games), mismatches, out, outPbi)
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "reject games whose Result tag disagrees with the replayed termination")
	cmd.Flags().StringVar(&pbiPath, "pbi", "", "source .pbi companion (defaults to <pgn-file> with a .pbi extension, built if missing)")
	cmd.Flags().StringVar(&out, "out", "checkmate.pgn", "output PGN path")
	cmd.Flags().StringVar(&outPbi, "out-pbi", "", "output .pbi path (defaults to --out with a .pbi extension)")
	return cmd
}
