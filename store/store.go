// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package store holds register record batches in memory and answers point
// in time covariate lookups against them.
//
// Every register keeps its batches per period. Adding batches extends a
// subject index mapping (register, period, subject) to the batch and row
// holding it, and records the date each period stands for. Both are derived
// from the batches alone. Batches are never modified once added.
package store

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/array"
	"github.com/apache/arrow/go/v10/arrow/memory"
	"github.com/benbjohnson/immutable"
	"github.com/featurebasedb/ids/batch"
	"github.com/featurebasedb/ids/covariate"
	"github.com/featurebasedb/ids/errors"
	"github.com/featurebasedb/ids/logger"
	"github.com/featurebasedb/ids/register"
)

// loc is the position of a subject within one period's batches.
type loc struct {
	batch int
	row   int
}

type indexKey struct {
	kind   register.Kind
	period string
	id     string
}

// Store is an in-memory register store. It is safe for concurrent use:
// writers serialize on the store's lock, and lookups share it.
type Store struct {
	mu           sync.RWMutex
	log          logger.Logger
	mem          memory.Allocator
	translations *covariate.Translations

	batches map[register.Kind]map[string][]arrow.Record
	index   map[indexKey]loc
	indexed map[register.Kind]int

	// periodDates caches the date of every period string seen. Entries
	// are written once.
	periodDates map[string]time.Time

	// resolvers maps, for each periodic register, a period's date (in
	// days since the epoch, newest first) to the period to use for it.
	resolvers map[register.Kind]*immutable.SortedMap[int64, string]

	// years maps, for each annual register, a year to its period.
	years map[register.Kind]map[int]string

	diagnostic bool
}

// New returns an empty store. A nil translations uses the built-in tables.
func New(translations *covariate.Translations, log logger.Logger) *Store {
	if translations == nil {
		translations = covariate.DefaultTranslations()
	}
	if log == nil {
		log = logger.NopLogger
	}
	return &Store{
		log:          log,
		mem:          memory.DefaultAllocator,
		translations: translations,
		batches:      make(map[register.Kind]map[string][]arrow.Record),
		index:        make(map[indexKey]loc),
		indexed:      make(map[register.Kind]int),
		periodDates:  make(map[string]time.Time),
		resolvers:    make(map[register.Kind]*immutable.SortedMap[int64, string]),
		years:        make(map[register.Kind]map[int]string),
	}
}

// Translations returns the code tables used to label covariates.
func (s *Store) Translations() *covariate.Translations {
	return s.translations
}

// Diagnostic reports whether the store holds synthetic data.
func (s *Store) Diagnostic() bool {
	return s.diagnostic
}

// AddFamilyData adds family relation batches.
func (s *Store) AddFamilyData(batches []arrow.Record) error {
	return s.add(register.Family, "", batches)
}

// AddDemographicsData adds BEF batches for a period.
func (s *Store) AddDemographicsData(period string, batches []arrow.Record) error {
	return s.AddData(register.Demographics, period, batches)
}

// AddIncomeData adds IND batches for a year.
func (s *Store) AddIncomeData(period string, batches []arrow.Record) error {
	return s.AddData(register.Income, period, batches)
}

// AddEducationData adds UDDF batches for a period.
func (s *Store) AddEducationData(period string, batches []arrow.Record) error {
	return s.AddData(register.Education, period, batches)
}

// AddEmploymentData adds AKM batches for a year.
func (s *Store) AddEmploymentData(period string, batches []arrow.Record) error {
	return s.AddData(register.Employment, period, batches)
}

// AddData adds batches of register k for period. The store keeps its own
// references; the caller still owns batches. Family data has no period.
func (s *Store) AddData(k register.Kind, period string, batches []arrow.Record) error {
	if k == register.Family {
		return s.add(k, "", batches)
	}
	if _, err := register.ParsePeriod(period); err != nil {
		return errors.Wrapf(err, "adding %s data", k.Description())
	}
	return s.add(k, period, batches)
}

func (s *Store) add(k register.Kind, period string, batches []arrow.Record) error {
	// Normalize outside the lock; only insertion is serialized.
	prepared := make([]arrow.Record, 0, len(batches))
	for _, rec := range batches {
		if err := batch.Validate(rec); err != nil {
			s.log.Warnf("%s %s: %v", k, period, err)
			if rec == nil {
				continue
			}
		}
		out, err := batch.Normalize(rec, s.mem)
		if err != nil {
			batch.Release(prepared)
			return errors.Wrapf(err, "adding %s data", k.Description())
		}
		prepared = append(prepared, out)
	}

	var date time.Time
	if period != "" {
		d, err := register.ParsePeriod(period)
		if err != nil {
			batch.Release(prepared)
			return err
		}
		date = d
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	periods := s.batches[k]
	if periods == nil {
		periods = make(map[string][]arrow.Record)
		s.batches[k] = periods
	}
	start := len(periods[period])
	periods[period] = append(periods[period], prepared...)
	s.indexLocked(k, period, start)
	if period != "" {
		s.memoizePeriodLocked(k, period, date)
	}
	return nil
}

// indexLocked indexes the batches of (k, period) from start on. The first
// occurrence of a subject in a period wins.
func (s *Store) indexLocked(k register.Kind, period string, start int) {
	recs := s.batches[k][period]
	for b := start; b < len(recs); b++ {
		ids := idColumn(recs[b])
		if ids == nil {
			s.log.Warnf("%s %s batch %d has no utf8 subject identifier column; it can only be scanned", k, period, b)
			continue
		}
		for row := 0; row < ids.Len(); row++ {
			if ids.IsNull(row) {
				continue
			}
			key := indexKey{kind: k, period: period, id: ids.Value(row)}
			if _, ok := s.index[key]; ok {
				continue
			}
			s.index[key] = loc{batch: b, row: row}
			s.indexed[k]++
		}
	}
}

func (s *Store) memoizePeriodLocked(k register.Kind, period string, date time.Time) {
	if _, ok := s.periodDates[period]; !ok {
		s.periodDates[period] = date
	}
	date = s.periodDates[period]

	switch {
	case k.Periodic():
		m := s.resolvers[k]
		if m == nil {
			m = immutable.NewSortedMap[int64, string](newestFirst{})
		}
		day := int64(batch.Date32FromTime(date))
		if cur, ok := m.Get(day); !ok || preferPeriod(period, cur) {
			s.resolvers[k] = m.Set(day, period)
		} else {
			s.resolvers[k] = m
		}
	case k.Annual():
		years := s.years[k]
		if years == nil {
			years = make(map[int]string)
			s.years[k] = years
		}
		y := date.Year()
		if cur, ok := years[y]; !ok || (period == strconv.Itoa(y) && cur != period) {
			years[y] = period
		}
	}
}

// preferPeriod reports whether period should replace cur for the same
// date: the longer, more specific string wins, then the lexically smaller.
func preferPeriod(period, cur string) bool {
	if len(period) != len(cur) {
		return len(period) > len(cur)
	}
	return period < cur
}

// newestFirst orders dates descending so that seeking a date finds the
// newest period at or before it.
type newestFirst struct{}

func (newestFirst) Compare(a, b int64) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	}
	return 0
}

// ResolvePeriod returns the most recent period of register k whose date is
// on or before date. When two periods share a date the longer one wins,
// so a month is preferred over a bare year.
func (s *Store) ResolvePeriod(k register.Kind, date time.Time) (string, bool) {
	s.mu.RLock()
	m := s.resolvers[k]
	s.mu.RUnlock()
	return resolve(m, date)
}

func resolve(m *immutable.SortedMap[int64, string], date time.Time) (string, bool) {
	if m == nil {
		return "", false
	}
	itr := m.Iterator()
	itr.Seek(int64(batch.Date32FromTime(date)))
	_, period, ok := itr.Next()
	return period, ok
}

// PeriodDate returns the cached date of a period that has been added.
func (s *Store) PeriodDate(period string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.periodDates[period]
	return d, ok
}

// YearPeriod returns the period of annual register k for year.
func (s *Store) YearPeriod(k register.Kind, year int) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.years[k][year]
	return p, ok
}

// Periods returns the periods of register k which hold batches, in order.
func (s *Store) Periods(k register.Kind) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.batches[k]))
	for p := range s.batches[k] {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Batches returns the batches of register k for period. The slice must not
// be modified.
func (s *Store) Batches(k register.Kind, period string) []arrow.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.batches[k][period]
}

// Release drops the store's references to every batch. The store must not
// be used afterwards.
func (s *Store) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, periods := range s.batches {
		for _, recs := range periods {
			batch.Release(recs)
		}
	}
	s.batches = make(map[register.Kind]map[string][]arrow.Record)
	s.index = make(map[indexKey]loc)
	s.indexed = make(map[register.Kind]int)
}

// idColumn returns the utf8 subject identifier column of rec, or nil.
func idColumn(rec arrow.Record) *array.String {
	idx := register.IDColumn(rec.Schema())
	if idx < 0 {
		return nil
	}
	ids, _ := rec.Column(idx).(*array.String)
	return ids
}
