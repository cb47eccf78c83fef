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

	"github.com/brighamskarda/pgnforge/internal/transform/join"
)

var joinModeNames = map[string]join.DedupMode{
	"none":        join.NoDedup,
	"strict":      join.StrictHash,
	"movetext":    join.MoveTextHash,
	"fingerprint": join.PositionalFingerprint,
	"structural":  join.Structural,
	"fuzzy":       join.Fuzzy,
}

var joinRetentionNames = map[string]join.Retention{
	"first":         join.KeepFirst,
	"last":          join.KeepLast,
	"highest-elo":   join.KeepHighestRated,
	"most-complete": join.KeepMostComplete,
}

func newJoinCmd(flags *globalFlags) *cobra.Command {
	var mode, retention, out, outPbi string
	var acceptHashOnly bool
	var fuzzyConfidence float64

	cmd := &cobra.Command{
		Use:   "join <pgn-file>... ",
		Short: "Merge PGN files in order, optionally deduplicating games",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, ok := joinModeNames[mode]
			if !ok {
				return fmt.Errorf("join: unknown dedup mode %q", mode)
			}
			r, ok := joinRetentionNames[retention]
			if !ok {
				return fmt.Errorf("join: unknown retention policy %q", retention)
			}

			logger := flags.newLogger()
			ctx := cmd.Context()

			sources := make([]join.Source, len(args))
			for i, path := range args {
				reader, err := openOrBuildIndex(ctx, path, defaultPbiPath(path), logger)
				if err != nil {
					return fmt.Errorf("join: %s: %w", path, err)
				}
				records, err := reader.Records()
				reader.Close()
				if err != nil {
					return fmt.Errorf("join: %s: %w", path, err)
				}

				games, err := loadGamesFromRecords(path, records)
				if err != nil {
					return fmt.Errorf("join: %s: %w", path, err)
				}
				sources[i] = join.Source{Games: games}
			}

			result, err := join.Join(sources, join.Options{
				Mode:            m,
				Retention:       r,
				AcceptHashOnly:  acceptHashOnly,
				FuzzyConfidence: fuzzyConfidence,
			})
			if err != nil {
				return fmt.Errorf("join: %w", err)
			}

			if outPbi == "" {
				outPbi = defaultPbiPath(out)
			}
			if err := writeGamesAndIndex(ctx, out, outPbi, result.Games, logger); err != nil {
				return fmt.Errorf("join: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d games (%d duplicates dropped) to %s and %s\n",
				len(result.Games), len(result.Duplicates), out, outPbi)
			return nil
		},
	}
	cmd.Flags().StringVar(&mode, "dedup", "none", "dedup mode: none, strict, movetext, fingerprint, structural, fuzzy")
	cmd.Flags().StringVar(&retention, "retain", "first", "which duplicate to keep: first, last, highest-elo, most-complete")
	cmd.Flags().BoolVar(&acceptHashOnly, "accept-hash-only", false, "skip the byte-exact confirmation step after a hash match")
	cmd.Flags().Float64Var(&fuzzyConfidence, "fuzzy-confidence", 0.95, "minimum matching-ply fraction for fuzzy dedup")
	cmd.Flags().StringVar(&out, "out", "joined.pgn", "output PGN path")
	cmd.Flags().StringVar(&outPbi, "out-pbi", "", "output .pbi path (defaults to --out with a .pbi extension)")
	return cmd
}
