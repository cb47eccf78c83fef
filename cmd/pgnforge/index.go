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

	"github.com/brighamskarda/pgnforge/internal/indexer"
	"github.com/brighamskarda/pgnforge/internal/progress"
)

func newIndexCmd(flags *globalFlags) *cobra.Command {
	var normalize bool

	cmd := &cobra.Command{
		Use:   "index <pgn-file> <pbi-file>",
		Short: "Build a .pbi index alongside a PGN file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := indexer.Index(cmd.Context(), args[0], args[1], indexer.Config{
				Logger:         flags.newLogger(),
				NormalizeNames: normalize,
				ProgressSink:   consoleProgressSink(cmd),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d games, skipped %d\n", report.GamesIndexed, report.GamesSkipped)
			return nil
		},
	}
	cmd.Flags().BoolVar(&normalize, "normalize-names", false, "collapse Unicode-equivalent player names to one heap entry")
	return cmd
}

func consoleProgressSink(cmd *cobra.Command) progress.Sink {
	return func(p progress.Progress) {
		fmt.Fprintf(cmd.ErrOrStderr(), "\r%s", p.String())
	}
}
