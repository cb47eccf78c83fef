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
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/brighamskarda/pgnforge/internal/atomicfile"
	"github.com/brighamskarda/pgnforge/internal/pbi"
	"github.com/brighamskarda/pgnforge/internal/stringheap"
	"github.com/brighamskarda/pgnforge/internal/transform/sort"
)

var sortKeyNames = map[string]sort.Key{
	"date":      sort.KeyDate,
	"white-elo": sort.KeyWhiteElo,
	"black-elo": sort.KeyBlackElo,
	"result":    sort.KeyResult,
	"eco":       sort.KeyEco,
	"white":     sort.KeyWhiteName,
	"black":     sort.KeyBlackName,
	"round":     sort.KeyRound,
	"event":     sort.KeyEvent,
	"plycount":  sort.KeyPlyCount,
}

func parseSortKey(s string) (sort.Key, error) {
	if s == "" {
		return sort.KeyNone, nil
	}
	k, ok := sortKeyNames[s]
	if !ok {
		return sort.KeyNone, fmt.Errorf("unknown sort key %q", s)
	}
	return k, nil
}

func newSortCmd(flags *globalFlags) *cobra.Command {
	var pgnPath, outPgnPath, primary, secondary string
	var descending, unstable bool

	cmd := &cobra.Command{
		Use:   "sort <pbi-file> <out-pbi-file>",
		Short: "Reorder a PGN+.pbi pair by one or two keys, rewriting game offsets",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if pgnPath == "" {
				return fmt.Errorf("sort: --pgn is required")
			}
			if outPgnPath == "" {
				return fmt.Errorf("sort: --out-pgn is required")
			}

			primaryKey, err := parseSortKey(primary)
			if err != nil {
				return err
			}
			secondaryKey, err := parseSortKey(secondary)
			if err != nil {
				return err
			}

			reader, err := pbi.Open(args[0])
			if err != nil {
				return fmt.Errorf("sort: %w", err)
			}
			defer reader.Close()

			records, err := reader.Records()
			if err != nil {
				return fmt.Errorf("sort: %w", err)
			}
			heapBlob := reader.HeapBlob()
			heapReader, err := stringheap.NewReader(heapBlob)
			if err != nil {
				return fmt.Errorf("sort: %w", err)
			}

			pgnFile, err := os.Open(pgnPath)
			if err != nil {
				return fmt.Errorf("sort: %w", err)
			}
			defer pgnFile.Close()

			order, err := sort.Sort(records, heapReader, pgnFile, sort.Options{
				Primary:    primaryKey,
				Secondary:  secondaryKey,
				Descending: descending,
				Unstable:   unstable,
			})
			if err != nil {
				return fmt.Errorf("sort: %w", err)
			}

			// Stream each game's bytes into the new file in sorted order,
			// recomputing FileOffset/Length against the rewritten stream.
			// Every other record field, and the heap itself, carries over
			// unchanged: a reorder never renames or re-interns strings.
			pgnWriter, err := atomicfile.New(outPgnPath)
			if err != nil {
				return fmt.Errorf("sort: %w", err)
			}
			builder := &pbi.Builder{}
			var offset int64
			for _, idx := range order {
				rec := records[idx]
				section := io.NewSectionReader(pgnFile, rec.FileOffset, int64(rec.Length))
				n, err := io.Copy(pgnWriter.File(), section)
				if err != nil {
					pgnWriter.Abort()
					return fmt.Errorf("sort: %w", err)
				}
				newRec := rec
				newRec.FileOffset = offset
				newRec.Length = uint32(n)
				builder.Add(newRec)
				offset += n

				if _, err := pgnWriter.File().WriteString("\n\n"); err != nil {
					pgnWriter.Abort()
					return fmt.Errorf("sort: %w", err)
				}
				offset += 2
			}
			if err := pgnWriter.Commit(cmd.Context()); err != nil {
				return fmt.Errorf("sort: %w", err)
			}

			if err := pbi.Write(cmd.Context(), args[1], builder, heapBlob); err != nil {
				return fmt.Errorf("sort: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sorted %d games into %s and %s\n", len(order), outPgnPath, args[1])
			return nil
		},
	}
	cmd.Flags().StringVar(&pgnPath, "pgn", "", "source PGN companion file (required)")
	cmd.Flags().StringVar(&outPgnPath, "out-pgn", "", "output PGN path (required)")
	cmd.Flags().StringVar(&primary, "by", "date", "primary sort key")
	cmd.Flags().StringVar(&secondary, "then-by", "", "secondary sort key")
	cmd.Flags().BoolVar(&descending, "descending", false, "sort descending instead of ascending")
	cmd.Flags().BoolVar(&unstable, "unstable", false, "allow an unstable sort for speed")
	return cmd
}
