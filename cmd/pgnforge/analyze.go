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
	"strings"

	"github.com/spf13/cobra"

	"github.com/brighamskarda/pgnforge/internal/analyzer"
)

func newAnalyzeCmd(flags *globalFlags) *cobra.Command {
	var enginePath, engineArgs, out string
	var depth uint

	cmd := &cobra.Command{
		Use:   "analyze <pgn-file>",
		Short: "Annotate games with engine evaluations and move-quality NAGs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if enginePath == "" {
				return fmt.Errorf("analyze: --engine is required")
			}

			games, err := loadGames(args[0])
			if err != nil {
				return fmt.Errorf("analyze: %w", err)
			}

			var args2 []string
			if engineArgs != "" {
				args2 = strings.Fields(engineArgs)
			}

			a, err := analyzer.New(analyzer.Config{
				EnginePath: enginePath,
				EngineArgs: args2,
				Depth:      depth,
				Logger:     flags.newLogger(),
			})
			if err != nil {
				return fmt.Errorf("analyze: %w", err)
			}
			defer a.Close()

			ctx := cmd.Context()
			var analyzed, skipped int
			for i, g := range games {
				if err := a.AnalyzeGame(ctx, g); err != nil {
					if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
						return fmt.Errorf("analyze: cancelled after %d of %d games: %w", i, len(games), err)
					}
					if errors.Is(err, analyzer.ErrEngineCrashed) {
						skipped++
						continue
					}
					return fmt.Errorf("analyze: game %d: %w", i, err)
				}
				analyzed++
			}

			if err := writeGames(ctx, out, games); err != nil {
				return fmt.Errorf("analyze: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "analyzed %d games (%d skipped after engine crash) to %s\n", analyzed, skipped, out)
			return nil
		},
	}
	cmd.Flags().StringVar(&enginePath, "engine", "", "path to a UCI engine binary")
	cmd.Flags().StringVar(&engineArgs, "engine-args", "", "space-separated arguments passed to the engine")
	cmd.Flags().UintVar(&depth, "depth", 18, "search depth per position")
	cmd.Flags().StringVar(&out, "out", "analyzed.pgn", "output PGN path")
	return cmd
}
