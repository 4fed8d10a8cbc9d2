// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"context"
	"io"

	"github.com/featurebasedb/ids/ctl"
	"github.com/spf13/cobra"
)

func newLookupCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	lookup := ctl.NewLookupCommand(stdin, stdout, stderr)
	lookupCmd := &cobra.Command{
		Use:   "lookup",
		Short: "Look up covariates of subjects as of given dates.",
		Long: `lookup loads the registers for the given subjects and prints each
requested covariate as of each date. Periodic registers (bef, uddf) use the
newest extract on or before the date; annual registers (ind, akm) use the
extract of the date's year.
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return lookup.Run(context.Background())
		},
	}
	ctl.BuildConfigFlags(lookupCmd, lookup.Config)
	flags := lookupCmd.Flags()
	flags.StringSliceVarP(&lookup.Subjects, "subject", "s", nil, "Subjects to look up.")
	flags.StringVar(&lookup.SubjectsFile, "subjects-file", "", "File of subjects to look up, one per line.")
	flags.StringSliceVarP(&lookup.Types, "type", "t", nil, "Covariate types: education, income, occupation, demographics. Default all.")
	flags.StringSliceVarP(&lookup.Dates, "date", "D", nil, "Dates as YYYY-MM-DD. Default today.")
	return lookupCmd
}
