// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/featurebasedb/ids"
	"github.com/featurebasedb/ids/batch"
	"github.com/featurebasedb/ids/config"
	"github.com/featurebasedb/ids/covariate"
	"github.com/featurebasedb/ids/errors"
	"github.com/featurebasedb/ids/gopsutil"
	"github.com/featurebasedb/ids/ingest"
	"github.com/featurebasedb/ids/logger"
	"github.com/featurebasedb/ids/store"
)

// LoadCommand loads every register below a base directory and prints what
// was loaded.
type LoadCommand struct {
	*ids.CmdIO

	Config *config.Config

	// Subjects and SubjectsFile restrict the load to the named subjects.
	Subjects     []string
	SubjectsFile string
}

// NewLoadCommand returns a new instance of LoadCommand with the default
// configuration.
func NewLoadCommand(stdin io.Reader, stdout, stderr io.Writer) *LoadCommand {
	return &LoadCommand{
		CmdIO:  ids.NewCmdIO(stdin, stdout, stderr),
		Config: config.NewConfig(),
	}
}

// Run loads the registers and writes a summary to stdout.
func (cmd *LoadCommand) Run(ctx context.Context) error {
	cmd.SetVerbose(cmd.Config.Verbose)
	filter, err := subjectFilter(cmd.Subjects, cmd.SubjectsFile)
	if err != nil {
		return err
	}
	st, report, err := loadStore(ctx, cmd.Config, cmd.Logger(), filter)
	if err != nil {
		return err
	}
	defer st.Release()
	writeLoadSummary(cmd.Stdout, st, report)
	return nil
}

// loadStore builds a store as configured by cfg.
func loadStore(ctx context.Context, cfg *config.Config, log logger.Logger, filter batch.Subjects) (*store.Store, *ingest.LoadReport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	loader := ingest.NewLoader(cfg, log)
	if cfg.MappingsDir != "" {
		tr := covariate.DefaultTranslations()
		if err := tr.LoadDir(cfg.MappingsDir); err != nil {
			return nil, nil, errors.Wrap(err, "loading translation tables")
		}
		loader.Translations = tr
	}
	st, report, err := loader.LoadAll(ctx, filter)
	if err != nil {
		return nil, report, errors.Wrap(err, "loading registers")
	}
	return st, report, nil
}

func writeLoadSummary(w io.Writer, st *store.Store, report *ingest.LoadReport) {
	stats := st.Stats()
	t := newTable(w, "register", "periods", "batches", "rows", "indexed", "status")
	for _, rs := range stats.Registers {
		status := "ok"
		if err, ok := report.Failures[rs.Kind]; ok {
			status = err.Error()
		} else if rs.Batches == 0 {
			status = "empty"
		}
		t.AppendRow([]interface{}{
			rs.Kind.Description(),
			rs.Periods,
			rs.Batches,
			humanize.Comma(rs.Rows),
			humanize.Comma(int64(rs.Indexed)),
			status,
		})
	}
	t.AppendFooter([]interface{}{"total", "", stats.Batches(), humanize.Comma(stats.Rows()), "", ""})
	t.Render()

	if len(report.FileErrors) > 0 {
		paths := make([]string, 0, len(report.FileErrors))
		for p := range report.FileErrors {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		fmt.Fprintf(w, "\n%d file(s) could not be read:\n", len(paths))
		for _, p := range paths {
			fmt.Fprintf(w, "  %s: %v\n", p, report.FileErrors[p])
		}
	}
	if report.Diagnostic {
		fmt.Fprintln(w, "\nNo register data could be read; the store holds synthetic diagnostic data.")
	}

	fmt.Fprintf(w, "\nLoaded in %s", report.Duration.Round(time.Millisecond))
	info := gopsutil.NewSystemInfo()
	if avail, err := info.MemAvailable(); err == nil {
		total, _ := info.MemTotal()
		fmt.Fprintf(w, " (%s of %s memory available)", humanize.Bytes(avail), humanize.Bytes(total))
	}
	fmt.Fprintln(w)
}
