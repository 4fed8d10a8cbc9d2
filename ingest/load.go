// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/memory"
	"github.com/featurebasedb/ids/batch"
	"github.com/featurebasedb/ids/config"
	"github.com/featurebasedb/ids/covariate"
	"github.com/featurebasedb/ids/errors"
	"github.com/featurebasedb/ids/logger"
	"github.com/featurebasedb/ids/register"
	"github.com/featurebasedb/ids/store"
	"golang.org/x/sync/semaphore"
)

// maxConcurrentRegisters bounds how many non-family registers load at once.
const maxConcurrentRegisters = 4

// RegisterData is everything read for one register. Family data has a
// single set of batches; the other registers have one set per period.
type RegisterData struct {
	Kind    register.Kind
	Batches []arrow.Record
	Periods map[string][]arrow.Record

	// Errors holds the files which failed while others loaded.
	Errors errors.Multi
}

// Rows is the total number of rows held.
func (d *RegisterData) Rows() int64 {
	n := batch.Rows(d.Batches)
	for _, recs := range d.Periods {
		n += batch.Rows(recs)
	}
	return n
}

// Release releases every record held.
func (d *RegisterData) Release() {
	batch.Release(d.Batches)
	d.Batches = nil
	for _, recs := range d.Periods {
		batch.Release(recs)
	}
	d.Periods = nil
}

// Loader reads registers according to a Config.
type Loader struct {
	Config       *config.Config
	Logger       logger.Logger
	Translations *covariate.Translations
	Mem          memory.Allocator
}

// NewLoader returns a Loader for cfg. A nil cfg uses the defaults.
func NewLoader(cfg *config.Config, log logger.Logger) *Loader {
	if cfg == nil {
		cfg = config.NewConfig()
	}
	if log == nil {
		log = logger.NopLogger
	}
	return &Loader{
		Config:       cfg,
		Logger:       log,
		Translations: covariate.DefaultTranslations(),
		Mem:          memory.DefaultAllocator,
	}
}

// Load reads one register below base with the default configuration
// overlaid with any IDS_* environment variables.
func Load(ctx context.Context, k register.Kind, base string, filter batch.Subjects) (*RegisterData, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	cfg.Base = base
	return NewLoader(cfg, nil).Load(ctx, k, filter)
}

func (l *Loader) reader(k register.Kind) *Reader {
	workers := l.Config.MaxThreads
	if !l.Config.ParallelFor(k) {
		workers = 1
	}
	r := NewReader(l.Config.BatchSize, workers, l.Logger.WithPrefix("ingest: "))
	r.Mem = l.Mem
	r.label = k.String()
	return r
}

// Load reads register k, honoring the configured path override and
// parallel toggle.
func (l *Loader) Load(ctx context.Context, k register.Kind, filter batch.Subjects) (*RegisterData, error) {
	r := l.reader(k)
	if k == register.Family {
		path, ok := register.ResolveFamilyFile(l.Config.Base, l.Config.PathFor(k))
		if !ok {
			return nil, errors.Newf(errors.ErrIO, "no family file found below %q", l.Config.Base)
		}
		recs, err := r.ReadFile(ctx, path, k.Schema(), filter)
		if err != nil {
			return nil, err
		}
		return &RegisterData{Kind: k, Batches: recs}, nil
	}

	dir := register.ResolveDir(k, l.Config.Base, l.Config.PathFor(k))
	res, err := r.ReadDir(ctx, dir, k.Schema(), filter)
	if err != nil {
		if res != nil {
			res.Release()
		}
		return nil, errors.Wrapf(err, "loading %s", k.Description())
	}
	return &RegisterData{Kind: k, Periods: res.Periods, Errors: res.Errors}, nil
}

// LoadReport summarizes LoadAll.
type LoadReport struct {
	Loaded     []register.Kind
	Failures   map[register.Kind]error
	FileErrors errors.Multi
	Rows       map[register.Kind]int64
	Diagnostic bool
	Duration   time.Duration
}

func newLoadReport() *LoadReport {
	return &LoadReport{
		Failures:   make(map[register.Kind]error),
		FileErrors: make(errors.Multi),
		Rows:       make(map[register.Kind]int64),
	}
}

type loadResult struct {
	data *RegisterData
	kind register.Kind
	err  error
}

// LoadAll builds a store from every register below the configured base.
//
// Family data loads first. Unless filter is active, and if
// UseFamilyFiltering is set, the subjects and parents it names then filter
// the other registers, which load concurrently, at most four at a time. A
// register which fails is logged and reported, and never stops the
// others. If nothing at all loads and the diagnostic fallback is enabled,
// a synthetic store is returned instead.
func (l *Loader) LoadAll(ctx context.Context, filter batch.Subjects) (*store.Store, *LoadReport, error) {
	start := time.Now()
	report := newLoadReport()
	st := store.New(l.Translations, l.Logger.WithPrefix("store: "))

	fam, err := l.Load(ctx, register.Family, filter)
	if err != nil {
		l.Logger.Errorf("loading family relations: %v", err)
		report.Failures[register.Family] = err
	} else {
		l.collect(st, report, loadResult{data: fam, kind: register.Family})
	}

	others := filter
	if !others.Active() && l.Config.UseFamilyFiltering && report.Failures[register.Family] == nil {
		others = st.FamilyIdentifiers()
		l.Logger.Infof("filtering registers to %d family identifiers", others.Len())
	}

	results := make(chan loadResult)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for res := range results {
			l.collect(st, report, res)
		}
	}()

	sem := semaphore.NewWeighted(maxConcurrentRegisters)
	var wg sync.WaitGroup
	for _, k := range register.Others() {
		if err := sem.Acquire(ctx, 1); err != nil {
			results <- loadResult{kind: k, err: err}
			continue
		}
		wg.Add(1)
		go func(k register.Kind) {
			defer wg.Done()
			defer sem.Release(1)
			data, err := l.Load(ctx, k, others)
			results <- loadResult{data: data, kind: k, err: err}
		}(k)
	}
	wg.Wait()
	close(results)
	<-done
	report.Duration = time.Since(start)

	if st.Stats().Batches() > 0 {
		return st, report, nil
	}
	if !l.Config.Diagnostic {
		return nil, report, errors.Newf(errors.ErrIO, "no register data could be loaded from %q", l.Config.Base)
	}
	var ids []string
	if filter.Active() {
		ids = filter.Sorted()
	}
	l.Logger.Warnf("no register data could be loaded from %q; using a synthetic diagnostic store", l.Config.Base)
	report.Diagnostic = true
	return store.NewDiagnostic(store.DiagnosticOptions{
		IDs:          ids,
		Translations: l.Translations,
		Logger:       l.Logger.WithPrefix("store: "),
	}), report, nil
}

// collect adds one register's data to st and records the outcome. It owns
// res.data and releases it.
func (l *Loader) collect(st *store.Store, report *LoadReport, res loadResult) {
	if res.err != nil {
		l.Logger.Errorf("loading %s: %v", res.kind.Description(), res.err)
		report.Failures[res.kind] = res.err
		return
	}
	defer res.data.Release()
	for path, err := range res.data.Errors {
		report.FileErrors.Add(path, err)
	}

	var err error
	if res.kind == register.Family {
		err = st.AddFamilyData(res.data.Batches)
	} else {
		for period, recs := range res.data.Periods {
			if aerr := st.AddData(res.kind, period, recs); aerr != nil {
				report.FileErrors.Add(res.kind.String()+"/"+period, aerr)
				err = aerr
			}
		}
	}
	if err != nil {
		l.Logger.Errorf("storing %s: %v", res.kind.Description(), err)
		if res.kind == register.Family {
			report.Failures[res.kind] = err
			return
		}
	}
	report.Loaded = append(report.Loaded, res.kind)
	report.Rows[res.kind] = res.data.Rows()
	l.Logger.Infof("loaded %s: %d rows", res.kind.Description(), report.Rows[res.kind])
}
