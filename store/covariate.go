// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"strconv"
	"time"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/featurebasedb/ids/batch"
	"github.com/featurebasedb/ids/covariate"
	"github.com/featurebasedb/ids/errors"
	"github.com/featurebasedb/ids/register"
)

// Income is always reported in Danish kroner.
const incomeCurrency = "DKK"

// RegisterFor returns the register a covariate type is read from.
func RegisterFor(t covariate.Type) (register.Kind, error) {
	switch t {
	case covariate.Demographics:
		return register.Demographics, nil
	case covariate.Income:
		return register.Income, nil
	case covariate.Education:
		return register.Education, nil
	case covariate.Occupation:
		return register.Employment, nil
	}
	return 0, errors.Newf(errors.ErrUnknownCovariate, "no register holds %s", t)
}

// GetCovariate returns subject's covariate of type t as of date.
//
// Periodic registers use the newest period on or before date. Annual
// registers use the period of date's year. A subject, period or value which
// doesn't exist yields nil and no error; errors mean a batch lacks an
// expected column or holds it with the wrong type.
func (s *Store) GetCovariate(subject string, t covariate.Type, date time.Time) (*covariate.Covariate, error) {
	k, err := RegisterFor(t)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var period string
	var ok bool
	if k.Periodic() {
		period, ok = resolve(s.resolvers[k], date)
	} else {
		period, ok = s.years[k][date.Year()]
	}
	if !ok {
		return nil, nil
	}
	b, row, ok := s.lookupLocked(k, period, subject)
	if !ok {
		return nil, nil
	}
	rec := s.batches[k][period][b]

	var c *covariate.Covariate
	switch t {
	case covariate.Demographics:
		c, err = s.demographics(rec, row)
	case covariate.Income:
		c, err = income(rec, row)
	case covariate.Education:
		c, err = s.education(rec, row)
	case covariate.Occupation:
		c, err = s.occupation(rec, row)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s of %s from %s %s", t, subject, k, period)
	}
	return c, nil
}

func (s *Store) demographics(rec arrow.Record, row int) (*covariate.Covariate, error) {
	size, err := batch.Int32Column(rec, register.ColFamilySize)
	if err != nil {
		return nil, err
	}
	if size.IsNull(row) {
		return nil, nil
	}
	kom, err := batch.Int32Column(rec, register.ColMunicipality)
	if err != nil {
		return nil, err
	}
	famType, err := batch.Int32Column(rec, register.ColFamilyType)
	if err != nil {
		return nil, err
	}

	var municipality int32
	if !kom.IsNull(row) {
		municipality = kom.Value(row)
	}
	var familyType string
	if !famType.IsNull(row) {
		familyType = strconv.Itoa(int(famType.Value(row)))
	}
	c := covariate.NewDemographics(size.Value(row), municipality, familyType)

	if batch.HasColumn(rec, register.ColCitizenship) {
		statsb, err := batch.StringColumn(rec, register.ColCitizenship)
		if err != nil {
			return nil, err
		}
		if code := batch.OptString(statsb, row); code != nil {
			c.Demographics.Citizenship = code
			if label, ok := s.translations.Translate(covariate.Statsb, *code); ok {
				c.WithMetadata(covariate.MetaStatsbTranslated, label)
			}
		}
	}
	return c, nil
}

func income(rec arrow.Record, row int) (*covariate.Covariate, error) {
	col, err := batch.Float64Column(rec, register.ColIncome)
	if err != nil {
		return nil, err
	}
	if col.IsNull(row) {
		return nil, nil
	}
	return covariate.NewIncome(col.Value(row), incomeCurrency, register.ColIncome), nil
}

func (s *Store) education(rec arrow.Record, row int) (*covariate.Covariate, error) {
	col, err := batch.StringColumn(rec, register.ColEducation)
	if err != nil {
		return nil, err
	}
	if col.IsNull(row) {
		return nil, nil
	}
	code := col.Value(row)
	c := covariate.NewEducation(code)
	if isced, ok := s.translations.Translate(covariate.Hfaudd, code); ok {
		c.WithMetadata(covariate.MetaISCED, isced)
	}
	return c, nil
}

// optInt32 reads an optional int32 column; an absent column is nil.
func optInt32(rec arrow.Record, name string, row int) (*int32, error) {
	if !batch.HasColumn(rec, name) {
		return nil, nil
	}
	col, err := batch.Int32Column(rec, name)
	if err != nil {
		return nil, err
	}
	return batch.OptInt32(col, row), nil
}

func (s *Store) occupation(rec arrow.Record, row int) (*covariate.Covariate, error) {
	var vals [4]*int32
	for i, name := range []string{register.ColSocio, register.ColSocio02, register.ColSocio13, register.ColPreSocio} {
		v, err := optInt32(rec, name, row)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	socio, socio02, socio13, preSocio := vals[0], vals[1], vals[2], vals[3]

	var code *int32
	for _, v := range []*int32{socio13, socio, socio02} {
		if v != nil {
			code = v
			break
		}
	}
	if code == nil {
		return nil, nil
	}

	c := covariate.NewOccupation(itoa(*code), register.ColSocio)
	c.Occupation.Socio = socio
	c.Occupation.Socio02 = socio02
	c.Occupation.Socio13 = socio13
	c.Occupation.PreSocio = preSocio

	if socio != nil {
		c.WithMetadata(covariate.MetaSocioValue, itoa(*socio))
	}
	if socio02 != nil {
		c.WithMetadata(covariate.MetaSocio02Value, itoa(*socio02))
	}
	if socio13 != nil {
		c.WithMetadata(covariate.MetaSocio13Value, itoa(*socio13))
		if label, ok := s.translations.Translate(covariate.Socio13, itoa(*socio13)); ok {
			c.WithMetadata(covariate.MetaSocio13Category, label)
		}
	}
	if preSocio != nil {
		c.WithMetadata(covariate.MetaPreSocioValue, itoa(*preSocio))
	}
	return c, nil
}

func itoa(v int32) string {
	return strconv.Itoa(int(v))
}
