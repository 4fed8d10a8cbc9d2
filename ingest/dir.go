// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"context"
	"sort"
	"sync"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/featurebasedb/ids/batch"
	"github.com/featurebasedb/ids/errors"
	"github.com/featurebasedb/ids/register"
	"github.com/featurebasedb/ids/task"
)

// DirResult is the outcome of a directory scan: the records of every file
// which loaded, keyed by period, and the error of every file which didn't,
// keyed by path.
type DirResult struct {
	Periods map[string][]arrow.Record
	Errors  errors.Multi
}

// Release releases every record held by the result.
func (d *DirResult) Release() {
	for _, recs := range d.Periods {
		batch.Release(recs)
	}
	d.Periods = map[string][]arrow.Record{}
}

// PeriodNames returns the loaded periods in order.
func (d *DirResult) PeriodNames() []string {
	names := make([]string, 0, len(d.Periods))
	for p := range d.Periods {
		names = append(names, p)
	}
	sort.Strings(names)
	return names
}

// ReadDir reads every per-period Parquet file in dir. Files are spread over
// a worker pool; each file's batches are then decoded by its own share of
// r.Workers. A file which fails only adds its error to the result. ReadDir
// returns an error of its own when dir can't be listed, or when every file
// failed. Files whose name doesn't hold a period are skipped with a warning.
func (r *Reader) ReadDir(ctx context.Context, dir string, schema *arrow.Schema, filter batch.Subjects) (*DirResult, error) {
	files, err := register.PeriodFiles(dir)
	if err != nil {
		return nil, err
	}
	res := &DirResult{
		Periods: make(map[string][]arrow.Record),
		Errors:  make(errors.Multi),
	}

	var queued []register.PeriodFile
	for _, f := range files {
		if _, err := register.ParsePeriod(f.Period); err != nil {
			r.Logger.Warnf("skipping %s: %v", f.Path, err)
			continue
		}
		queued = append(queued, f)
	}
	if len(queued) == 0 {
		return res, nil
	}

	outer := r.Workers
	if outer > len(queued) {
		outer = len(queued)
	}
	inner := r.withWorkers(r.Workers / outer)

	var mu sync.Mutex
	pool := task.NewPool(outer, nil, func(_ *task.Worker[register.PeriodFile], f register.PeriodFile) {
		recs, err := inner.ReadFile(ctx, f.Path, schema, filter)
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			r.Logger.Errorf("reading %s: %v", f.Path, err)
			res.Errors.Add(f.Path, err)
			return
		}
		if len(recs) > 0 {
			res.Periods[f.Period] = append(res.Periods[f.Period], recs...)
		}
	}, &poolGauge{})
	for _, f := range queued {
		pool.Push(f)
	}
	pool.Run()

	if len(res.Errors) == len(queued) {
		return res, errors.WithCode(errors.Wrapf(res.Errors, "reading %s", dir), firstCode(res.Errors))
	}
	return res, nil
}

// firstCode returns the code of the error with the lowest key.
func firstCode(m errors.Multi) errors.Code {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		return errors.ErrUncoded
	}
	return errors.CodeOf(m[keys[0]])
}
