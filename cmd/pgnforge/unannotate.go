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
	"github.com/brighamskarda/pgnforge/internal/transform/unannotate"
)

var unannotateModeNames = map[string]unannotate.Mode{
	"all":        unannotate.StripAll,
	"mainline":   unannotate.PreserveMainline,
	"critical":   unannotate.PreserveCritical,
	"comments":   unannotate.CommentsOnly,
	"variations": unannotate.VariationsOnly,
}

func newUnannotateCmd(flags *globalFlags) *cobra.Command {
	var mode, pbiPath, out, outPbi string

	cmd := &cobra.Command{
		Use:   "unannotate <pgn-file>",
		Short: "Strip comments, variations, and NAGs from move text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, ok := unannotateModeNames[mode]
			if !ok {
				return fmt.Errorf("unannotate: unknown mode %q", mode)
			}

			logger := flags.newLogger()
			ctx := cmd.Context()

			if pbiPath == "" {
				pbiPath = defaultPbiPath(args[0])
			}
			reader, err := openOrBuildIndex(ctx, args[0], pbiPath, logger)
			if err != nil {
				return fmt.Errorf("unannotate: %w", err)
			}
			records, err := reader.Records()
			reader.Close()
			if err != nil {
				return fmt.Errorf("unannotate: %w", err)
			}

			games, err := loadGamesFromRecords(args[0], records)
			if err != nil {
				return fmt.Errorf("unannotate: %w", err)
			}

			stripped := make([]*board.Game, len(games))
			for i, g := range games {
				stripped[i] = unannotate.Game(g, m)
			}

			if outPbi == "" {
				outPbi = defaultPbiPath(out)
			}
			if err := writeGamesAndIndex(ctx, out, outPbi, stripped, logger); err != nil {
				return fmt.Errorf("unannotate: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "unannotated %d games to %s and %s\n", len(stripped), out, outPbi)
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "mode", "all", "strip mode: all, mainline, critical, comments, variations")
	cmd.Flags().StringVar(&pbiPath, "pbi", "", "source .pbi companion (defaults to <pgn-file> with a .pbi extension, built if missing)")
	cmd.Flags().StringVar(&out, "out", "unannotated.pgn", "output PGN path")
	cmd.Flags().StringVar(&outPbi, "out-pbi", "", "output .pbi path (defaults to --out with a .pbi extension)")
	return cmd
}
