// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"context"
	"io"

	"github.com/featurebasedb/ids/ctl"
	"github.com/spf13/cobra"
)

func newInspectCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	inspecter := ctl.NewInspectCommand(stdin, stdout, stderr)
	inspectCmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show the schema and sample rows of a register file.",
		Long: `
Inspects a Parquet register file: its schema, which registers it can be read
as, and a sample of its rows.
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inspecter.Path = args[0]
			return inspecter.Run(context.Background())
		},
	}
	inspectCmd.Flags().IntVarP(&inspecter.Rows, "rows", "n", inspecter.Rows, "Number of sample rows.")
	return inspectCmd
}
