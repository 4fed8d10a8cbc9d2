// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package register describes the administrative registers the engine knows
// about: what they are called, where their files live on disk, which
// columns are read from them, and how their periods map to dates.
package register

import (
	"strings"

	"github.com/featurebasedb/ids/errors"
)

// Kind identifies one register.
type Kind int

const (
	Family Kind = iota
	Demographics
	Income
	Education
	Employment
)

var kindInfo = [...]struct {
	dir, name string
	periodic  bool
}{
	Family:       {dir: "family", name: "family relations"},
	Demographics: {dir: "bef", name: "demographics", periodic: true},
	Income:       {dir: "ind", name: "income"},
	Education:    {dir: "uddf", name: "education", periodic: true},
	Employment:   {dir: "akm", name: "employment"},
}

// String returns the register's short name, which is also its directory
// name: family, bef, ind, uddf or akm.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindInfo) {
		return "unknown"
	}
	return kindInfo[k].dir
}

// Description is a human readable name for log messages.
func (k Kind) Description() string {
	if k < 0 || int(k) >= len(kindInfo) {
		return "unknown register"
	}
	return kindInfo[k].name
}

// Periodic reports whether the register is extracted at arbitrary periods
// (YYYY or YYYYMM), so that lookups must resolve the most recent period at
// or before a date. Annual registers are looked up by exact year instead.
func (k Kind) Periodic() bool {
	if k < 0 || int(k) >= len(kindInfo) {
		return false
	}
	return kindInfo[k].periodic
}

// Annual reports whether the register holds one extract per calendar year.
func (k Kind) Annual() bool {
	return k == Income || k == Employment
}

// Kinds returns every register, family first.
func Kinds() []Kind {
	return []Kind{Family, Demographics, Income, Education, Employment}
}

// Others returns every register except family.
func Others() []Kind {
	return []Kind{Demographics, Income, Education, Employment}
}

// Parse accepts either a register's short name ("bef") or its description
// ("demographics"), case-insensitively.
func Parse(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, info := range kindInfo {
		if s == info.dir || s == info.name {
			return Kind(k), nil
		}
	}
	return 0, errors.Newf(errors.ErrUnknownRegister, "unknown register %q", s)
}
