// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package covariate defines the typed values the store returns for a
// subject at a point in time, and the code tables used to label them.
package covariate

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/featurebasedb/ids/errors"
)

// Type is a kind of covariate.
type Type int

const (
	Education Type = iota
	Income
	Occupation
	Demographics
)

var typeNames = [...]string{
	Education:    "education",
	Income:       "income",
	Occupation:   "occupation",
	Demographics: "demographics",
}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return "Type(" + strconv.Itoa(int(t)) + ")"
	}
	return typeNames[t]
}

// Types returns every covariate type.
func Types() []Type {
	return []Type{Education, Income, Occupation, Demographics}
}

// ParseType parses a covariate type name, case-insensitively.
func ParseType(s string) (Type, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range typeNames {
		if s == name {
			return Type(i), nil
		}
	}
	return 0, errors.Newf(errors.ErrUnknownCovariate, "unknown covariate type %q", s)
}

// Metadata keys attached to covariates.
const (
	MetaStatsbTranslated = "statsb_translated"
	MetaISCED            = "isced"
	MetaSocioValue       = "socio_value"
	MetaSocio02Value     = "socio02_value"
	MetaSocio13Value     = "socio13_value"
	MetaSocio13Category  = "socio13_category"
	MetaPreSocioValue    = "pre_socio_value"
)

// EducationValue is the highest completed education of a subject.
type EducationValue struct {
	Level string
}

// IncomeValue is a subject's annual income.
type IncomeValue struct {
	Amount   float64
	Currency string
	TypeCode string
}

// OccupationValue is a subject's socioeconomic classification. Code is the
// most specific classification available.
type OccupationValue struct {
	Code           string
	Classification string
	Socio          *int32
	Socio02        *int32
	Socio13        *int32
	PreSocio       *int32
}

// DemographicsValue describes a subject's household.
type DemographicsValue struct {
	FamilySize   int32
	Municipality int32
	FamilyType   string
	Citizenship  *string
}

// Covariate is one typed value. Exactly one of the value pointers is set,
// matching Type.
type Covariate struct {
	Type         Type
	Education    *EducationValue
	Income       *IncomeValue
	Occupation   *OccupationValue
	Demographics *DemographicsValue
	Metadata     map[string]string
}

func NewEducation(level string) *Covariate {
	return &Covariate{Type: Education, Education: &EducationValue{Level: level}}
}

func NewIncome(amount float64, currency, typeCode string) *Covariate {
	return &Covariate{Type: Income, Income: &IncomeValue{Amount: amount, Currency: currency, TypeCode: typeCode}}
}

func NewOccupation(code, classification string) *Covariate {
	return &Covariate{Type: Occupation, Occupation: &OccupationValue{Code: code, Classification: classification}}
}

func NewDemographics(familySize, municipality int32, familyType string) *Covariate {
	return &Covariate{Type: Demographics, Demographics: &DemographicsValue{
		FamilySize:   familySize,
		Municipality: municipality,
		FamilyType:   familyType,
	}}
}

// WithMetadata sets key on c and returns c.
func (c *Covariate) WithMetadata(key, value string) *Covariate {
	if c.Metadata == nil {
		c.Metadata = make(map[string]string)
	}
	c.Metadata[key] = value
	return c
}

// Fields flattens the covariate into name/value pairs for display, value
// fields first, then metadata in key order.
func (c *Covariate) Fields() [][2]string {
	var out [][2]string
	add := func(k, v string) { out = append(out, [2]string{k, v}) }
	addInt := func(k string, v *int32) {
		if v != nil {
			add(k, strconv.Itoa(int(*v)))
		}
	}
	switch {
	case c.Education != nil:
		add("level", c.Education.Level)
	case c.Income != nil:
		add("amount", strconv.FormatFloat(c.Income.Amount, 'f', 2, 64))
		add("currency", c.Income.Currency)
		add("type_code", c.Income.TypeCode)
	case c.Occupation != nil:
		add("code", c.Occupation.Code)
		add("classification", c.Occupation.Classification)
		addInt("socio", c.Occupation.Socio)
		addInt("socio02", c.Occupation.Socio02)
		addInt("socio13", c.Occupation.Socio13)
		addInt("pre_socio", c.Occupation.PreSocio)
	case c.Demographics != nil:
		add("family_size", strconv.Itoa(int(c.Demographics.FamilySize)))
		add("municipality", strconv.Itoa(int(c.Demographics.Municipality)))
		add("family_type", c.Demographics.FamilyType)
		if c.Demographics.Citizenship != nil {
			add("citizenship", *c.Demographics.Citizenship)
		}
	}
	keys := make([]string, 0, len(c.Metadata))
	for k := range c.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		add(k, c.Metadata[k])
	}
	return out
}

func (c *Covariate) String() string {
	if c == nil {
		return "<absent>"
	}
	fields := c.Fields()
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f[0] + "=" + f[1]
	}
	return fmt.Sprintf("%s{%s}", c.Type, strings.Join(parts, " "))
}
