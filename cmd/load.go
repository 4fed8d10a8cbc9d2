// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"context"
	"io"

	"github.com/featurebasedb/ids/ctl"
	"github.com/spf13/cobra"
)

func newLoadCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	loader := ctl.NewLoadCommand(stdin, stdout, stderr)
	loadCmd := &cobra.Command{
		Use:   "load",
		Short: "Load every register and summarize what was read.",
		Long: `load reads the family file and all per-period register extracts below
--base into memory and prints, per register, how many periods, batches and
rows were loaded. Files which can't be read are listed; they don't stop the
rest of the load.
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return loader.Run(context.Background())
		},
	}
	ctl.BuildConfigFlags(loadCmd, loader.Config)
	flags := loadCmd.Flags()
	flags.StringSliceVar(&loader.Subjects, "subject", nil, "Only load these subjects.")
	flags.StringVar(&loader.SubjectsFile, "subjects-file", "", "File of subjects to load, one per line.")
	return loadCmd
}
