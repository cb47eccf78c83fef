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

	"github.com/spf13/cobra"

	"github.com/brighamskarda/pgnforge/internal/transform/validate"
)

func newValidateCmd(flags *globalFlags) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate <pgn-file>",
		Short: "Check a PGN file's lexical, structural, and semantic well-formedness",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("validate: %w", err)
			}
			defer f.Close()

			info, err := f.Stat()
			if err != nil {
				return fmt.Errorf("validate: %w", err)
			}

			report, err := validate.Validate(f, info.Size(), validate.Options{Strict: strict})
			if err != nil {
				return fmt.Errorf("validate: %w", err)
			}

			for _, d := range report.Diagnostics {
				fmt.Fprintf(cmd.OutOrStdout(), "%s offset=%d [%s] %s\n", d.Severity, d.Offset, d.Code, d.Message)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "checked %d games, %d diagnostics\n", report.GamesChecked, len(report.Diagnostics))

			if len(report.Diagnostics) > 0 {
				return fmt.Errorf("validate: %d diagnostics found", len(report.Diagnostics))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "also enforce the conventional seven-tag roster order")
	return cmd
}
