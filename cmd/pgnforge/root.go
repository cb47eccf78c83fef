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
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// globalFlags holds persistent flags shared by every subcommand.
type globalFlags struct {
	verbose bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "pgnforge",
		Short:         "Index, transform, and validate PGN chess game archives",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newIndexCmd(flags),
		newSortCmd(flags),
		newSplitCmd(flags),
		newJoinCmd(flags),
		newFilterCmd(flags),
		newTagCmd(flags),
		newUnannotateCmd(flags),
		newValidateCmd(flags),
		newAnalyzeCmd(flags),
	)
	return root
}

// newLogger builds the SugaredLogger every subcommand's internal package
// collaborator expects, honoring -v/--verbose.
func (f *globalFlags) newLogger() *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	if f.verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	cfg.Encoding = "console"
	cfg.EncoderConfig.TimeKey = ""
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger.Sugar()
}
