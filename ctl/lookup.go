// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/featurebasedb/ids"
	"github.com/featurebasedb/ids/cache"
	"github.com/featurebasedb/ids/config"
	"github.com/featurebasedb/ids/covariate"
	"github.com/featurebasedb/ids/errors"
)

// dateLayout is the format of dates given on the command line.
const dateLayout = "2006-01-02"

// LookupCommand loads the registers and answers covariate lookups for a set
// of subjects, types and dates through a covariate cache.
type LookupCommand struct {
	*ids.CmdIO

	Config *config.Config

	Subjects     []string
	SubjectsFile string

	// Types are covariate type names. Empty means every type.
	Types []string

	// Dates are YYYY-MM-DD dates. Empty means today.
	Dates []string
}

// NewLookupCommand returns a new instance of LookupCommand with the default
// configuration.
func NewLookupCommand(stdin io.Reader, stdout, stderr io.Writer) *LookupCommand {
	return &LookupCommand{
		CmdIO:  ids.NewCmdIO(stdin, stdout, stderr),
		Config: config.NewConfig(),
	}
}

// Run performs the lookups and writes one row per subject, type and date.
func (cmd *LookupCommand) Run(ctx context.Context) error {
	cmd.SetVerbose(cmd.Config.Verbose)
	types, err := parseTypes(cmd.Types)
	if err != nil {
		return err
	}
	dates, err := parseDates(cmd.Dates)
	if err != nil {
		return err
	}
	filter, err := subjectFilter(cmd.Subjects, cmd.SubjectsFile)
	if err != nil {
		return err
	}
	if filter.Len() == 0 {
		return errors.New(errors.ErrValidation, "at least one subject is required")
	}

	st, _, err := loadStore(ctx, cmd.Config, cmd.Logger(), filter)
	if err != nil {
		return err
	}
	defer st.Release()

	c := cache.New(st, cmd.Config.Cache.Capacity, cmd.Logger().WithPrefix("cache: "))
	subjects := filter.Sorted()
	c.BulkLoad(subjects, types, dates)

	t := newTable(cmd.Stdout, "subject", "type", "date", "value", "metadata")
	for _, s := range subjects {
		for _, typ := range types {
			for _, d := range dates {
				cov, err := c.GetOrLoad(cache.NewKey(s, typ, d))
				if err != nil {
					return errors.Wrapf(err, "looking up %s of %s", typ, s)
				}
				value, meta := nullValue, ""
				if cov != nil {
					value, meta = describe(cov)
				}
				t.AppendRow([]interface{}{s, typ.String(), d.Format(dateLayout), value, meta})
			}
		}
	}
	t.Render()

	hits, misses := c.Stats()
	cmd.Logger().Debugf("cache: %d entries, %d hits, %d misses", c.Len(), hits, misses)
	return nil
}

// describe splits a covariate's fields into its value and its metadata.
func describe(c *covariate.Covariate) (value, meta string) {
	var vals, metas []string
	for _, f := range c.Fields() {
		if _, ok := c.Metadata[f[0]]; ok {
			metas = append(metas, f[0]+"="+f[1])
			continue
		}
		vals = append(vals, f[0]+"="+f[1])
	}
	return strings.Join(vals, " "), strings.Join(metas, " ")
}

func parseTypes(names []string) ([]covariate.Type, error) {
	if len(names) == 0 {
		return covariate.Types(), nil
	}
	types := make([]covariate.Type, 0, len(names))
	for _, name := range names {
		t, err := covariate.ParseType(name)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

func parseDates(values []string) ([]time.Time, error) {
	if len(values) == 0 {
		return []time.Time{time.Now().UTC()}, nil
	}
	dates := make([]time.Time, 0, len(values))
	for _, v := range values {
		d, err := time.Parse(dateLayout, v)
		if err != nil {
			return nil, errors.WithCode(errors.Wrapf(err, "parsing date %q", v), errors.ErrValidation)
		}
		dates = append(dates, d)
	}
	return dates, nil
}
