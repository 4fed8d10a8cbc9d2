// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"time"

	"github.com/featurebasedb/ids/batch"
	"github.com/featurebasedb/ids/errors"
	"github.com/featurebasedb/ids/register"
)

// FamilyRelation is one row of the family register.
type FamilyRelation struct {
	ID              string
	BirthDate       time.Time
	FatherID        *string
	FatherBirthDate *time.Time
	MotherID        *string
	MotherBirthDate *time.Time
	FamilyID        *string
}

// FamilyRelations returns the family row of subject, or nil if the family
// register doesn't name subject.
func (s *Store) FamilyRelations(subject string) (*FamilyRelation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, row, ok := s.lookupLocked(register.Family, "", subject)
	if !ok {
		return nil, nil
	}
	rec := s.batches[register.Family][""][b]

	born, err := batch.Date32Column(rec, register.ColBirthDate)
	if err != nil {
		return nil, errors.Wrap(err, "reading family relations")
	}
	fr := &FamilyRelation{ID: subject}
	if d := batch.OptDate(born, row); d != nil {
		fr.BirthDate = *d
	}

	strs := []struct {
		name string
		dst  **string
	}{
		{register.ColFatherID, &fr.FatherID},
		{register.ColMotherID, &fr.MotherID},
		{register.ColFamilyID, &fr.FamilyID},
	}
	for _, f := range strs {
		if !batch.HasColumn(rec, f.name) {
			continue
		}
		col, err := batch.StringColumn(rec, f.name)
		if err != nil {
			return nil, errors.Wrap(err, "reading family relations")
		}
		*f.dst = batch.OptString(col, row)
	}

	dates := []struct {
		name string
		dst  **time.Time
	}{
		{register.ColFatherBirthDate, &fr.FatherBirthDate},
		{register.ColMotherBirthDate, &fr.MotherBirthDate},
	}
	for _, f := range dates {
		if !batch.HasColumn(rec, f.name) {
			continue
		}
		col, err := batch.Date32Column(rec, f.name)
		if err != nil {
			return nil, errors.Wrap(err, "reading family relations")
		}
		*f.dst = batch.OptDate(col, row)
	}
	return fr, nil
}

// FamilySubjects returns every subject named in the family register, in
// order.
func (s *Store) FamilySubjects() []string {
	ids := s.familyIDs(false)
	return ids.Sorted()
}

// FamilyIdentifiers returns the subjects of the family register together
// with their parents. It is the subject filter used for the other
// registers when family filtering is on.
func (s *Store) FamilyIdentifiers() batch.Subjects {
	return s.familyIDs(true)
}

func (s *Store) familyIDs(parents bool) batch.Subjects {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := batch.NewSubjects()
	for _, rec := range s.batches[register.Family][""] {
		if ids := idColumn(rec); ids != nil {
			for i := 0; i < ids.Len(); i++ {
				if !ids.IsNull(i) {
					out.Add(ids.Value(i))
				}
			}
		}
		if !parents {
			continue
		}
		for _, name := range []string{register.ColFatherID, register.ColMotherID} {
			if !batch.HasColumn(rec, name) {
				continue
			}
			col, err := batch.StringColumn(rec, name)
			if err != nil {
				s.log.Warnf("family identifiers: %v", err)
				continue
			}
			for i := 0; i < col.Len(); i++ {
				if !col.IsNull(i) {
					out.Add(col.Value(i))
				}
			}
		}
	}
	return out
}

// Stats describes what a store holds.
type Stats struct {
	Registers  []RegisterStats
	Diagnostic bool
}

// RegisterStats describes one register of a store.
type RegisterStats struct {
	Kind    register.Kind
	Periods int
	Batches int
	Rows    int64
	Indexed int
}

// Batches is the number of batches across all registers.
func (st Stats) Batches() int {
	n := 0
	for _, r := range st.Registers {
		n += r.Batches
	}
	return n
}

// Rows is the number of rows across all registers.
func (st Stats) Rows() int64 {
	var n int64
	for _, r := range st.Registers {
		n += r.Rows
	}
	return n
}

// Stats returns per-register counts, in register order.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Stats{Diagnostic: s.diagnostic}
	for _, k := range register.Kinds() {
		rs := RegisterStats{Kind: k, Indexed: s.indexed[k]}
		for _, recs := range s.batches[k] {
			rs.Batches += len(recs)
			rs.Rows += batch.Rows(recs)
		}
		if k != register.Family {
			rs.Periods = len(s.batches[k])
		}
		st.Registers = append(st.Registers, rs)
	}
	return st
}
