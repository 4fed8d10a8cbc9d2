// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package ids is the root of the register storage and caching engine. The
// engine itself lives in the subpackages: ingest reads register extracts,
// store answers covariate lookups against them, and cache memoizes those
// lookups.
package ids

import (
	"io"

	"github.com/featurebasedb/ids/logger"
)

// CmdIO holds standard unix inputs and outputs.
type CmdIO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	logger logger.Logger
}

// NewCmdIO returns a new instance of CmdIO with inputs and outputs set to the
// arguments. Log messages go to stderr.
func NewCmdIO(stdin io.Reader, stdout, stderr io.Writer) *CmdIO {
	return &CmdIO{
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
		logger: logger.NewStandardLogger(stderr),
	}
}

func (c *CmdIO) Logger() logger.Logger {
	return c.logger
}

// SetVerbose switches the command's logger to include debug messages.
func (c *CmdIO) SetVerbose(verbose bool) {
	c.logger = logger.New(c.Stderr, verbose)
}
