// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/array"
	"github.com/apache/arrow/go/v10/arrow/memory"
	"github.com/cespare/xxhash"
	"github.com/featurebasedb/ids/batch"
	"github.com/featurebasedb/ids/covariate"
	"github.com/featurebasedb/ids/logger"
	"github.com/featurebasedb/ids/register"
)

// Synthetic population used when no identifiers are given.
const (
	DiagnosticCases    = 100
	DiagnosticControls = 100

	// controlOffset separates the parent and family numbers of controls
	// from those of cases.
	controlOffset = 1000

	diagnosticFirstYear = 2000
	diagnosticLastYear  = 2023
)

// diagnosticMonths are the months of the quarterly periods generated for
// periodic registers.
var diagnosticMonths = []int{3, 6, 9, 12}

// DiagnosticOptions configures NewDiagnostic.
type DiagnosticOptions struct {
	// IDs are the subjects to generate families for. When empty, 100
	// cases (C000000...) and 100 controls (K000000...) are generated.
	IDs []string

	// Seed jitters the generated birth days. When nil and IDs are given,
	// a seed is derived from the IDs, so the same IDs always produce the
	// same store. With neither, the dates follow a fixed pattern.
	Seed *int64

	Translations *covariate.Translations
	Logger       logger.Logger
}

// NewDiagnostic returns a store of synthetic but plausible family
// relations, with period mappings for every register from 2000 through
// 2023. It lets callers keep working when no real register data can be
// loaded. Covariate lookups against it resolve periods but find no values.
func NewDiagnostic(opts DiagnosticOptions) *Store {
	s := New(opts.Translations, opts.Logger)
	s.diagnostic = true

	type subject struct {
		id  string
		pos int // position within cases or controls
		num int // parent and family number
	}
	var subjects []subject
	if len(opts.IDs) == 0 {
		for i := 0; i < DiagnosticCases; i++ {
			subjects = append(subjects, subject{id: fmt.Sprintf("C%06d", i), pos: i, num: i})
		}
		for i := 0; i < DiagnosticControls; i++ {
			subjects = append(subjects, subject{id: fmt.Sprintf("K%06d", i), pos: i, num: i + controlOffset})
		}
	} else {
		for i, id := range opts.IDs {
			subjects = append(subjects, subject{id: id, pos: i, num: i})
		}
	}

	var rng *rand.Rand
	seed, seeded := diagnosticSeed(opts)
	if seeded {
		rng = rand.New(rand.NewSource(seed))
	}
	day := func(pos int) int {
		if rng == nil {
			return 1 + pos%28
		}
		return 1 + (pos+rng.Intn(28))%28
	}

	mem := memory.DefaultAllocator
	schema := register.Family.Schema()
	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	ids := b.Field(0).(*array.StringBuilder)
	born := b.Field(1).(*array.Date32Builder)
	father := b.Field(2).(*array.StringBuilder)
	fatherBorn := b.Field(3).(*array.Date32Builder)
	mother := b.Field(4).(*array.StringBuilder)
	motherBorn := b.Field(5).(*array.Date32Builder)
	family := b.Field(6).(*array.StringBuilder)

	for _, subj := range subjects {
		month := time.Month(1 + subj.pos%12)
		d := day(subj.pos)
		ids.Append(subj.id)
		born.Append(batch.Date32FromTime(register.Date(1990+subj.pos%30, month, d)))
		father.Append(fmt.Sprintf("F%06d", subj.num))
		fatherBorn.Append(batch.Date32FromTime(register.Date(1950+subj.pos%30, month, d)))
		mother.Append(fmt.Sprintf("M%06d", subj.num))
		motherBorn.Append(batch.Date32FromTime(register.Date(1955+subj.pos%30, month, d)))
		family.Append(fmt.Sprintf("FAM%06d", subj.num))
	}
	rec := b.NewRecord()
	defer rec.Release()
	if err := s.AddFamilyData([]arrow.Record{rec}); err != nil {
		s.log.Errorf("building diagnostic family data: %v", err)
	}

	s.mu.Lock()
	for y := diagnosticFirstYear; y <= diagnosticLastYear; y++ {
		year := fmt.Sprint(y)
		for _, k := range register.Others() {
			s.memoizePeriodLocked(k, year, register.Date(y, time.December, 1))
			if !k.Periodic() {
				continue
			}
			for _, m := range diagnosticMonths {
				s.memoizePeriodLocked(k, fmt.Sprintf("%d%02d", y, m), register.Date(y, time.Month(m), 1))
			}
		}
	}
	s.mu.Unlock()

	if seeded {
		s.log.Warnf("using synthetic diagnostic data: %d subjects, seed %d", len(subjects), seed)
	} else {
		s.log.Warnf("using synthetic diagnostic data: %d subjects", len(subjects))
	}
	return s
}

func diagnosticSeed(opts DiagnosticOptions) (int64, bool) {
	if opts.Seed != nil {
		return *opts.Seed, true
	}
	if len(opts.IDs) == 0 {
		return 0, false
	}
	return int64(xxhash.Sum64String(strings.Join(opts.IDs, "\x00"))), true
}
