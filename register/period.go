// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package register

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/featurebasedb/ids/errors"
)

// CurrentPeriod names an extract which is valid as of today.
const CurrentPeriod = "current"

// Date returns midnight UTC on the given day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Truncate drops the time of day from t, leaving a UTC date.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return Date(y, m, d)
}

// ParsePeriod resolves a period string to the calendar date it stands for.
//
// A six digit period (YYYYMM) resolves to the first of that month. A four
// digit period (YYYY) resolves to the first of December of that year. Only
// the digits of the final path element count, so "bef/201903.parquet" is
// read as 201903. If the month digits are out of range, the year alone is
// used. "current" resolves to today.
func ParsePeriod(period string) (time.Time, error) {
	if period == CurrentPeriod {
		return Truncate(time.Now().UTC()), nil
	}

	base := filepath.Base(period)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, base)

	if len(digits) >= 6 {
		year, _ := strconv.Atoi(digits[:4])
		month, _ := strconv.Atoi(digits[4:6])
		if month >= 1 && month <= 12 {
			return Date(year, time.Month(month), 1), nil
		}
	}
	if len(digits) >= 4 {
		year, _ := strconv.Atoi(digits[:4])
		return Date(year, time.December, 1), nil
	}
	return time.Time{}, errors.Newf(errors.ErrFormat, "cannot parse period %q", period)
}

// PeriodYear returns the calendar year a period belongs to.
func PeriodYear(period string) (int, error) {
	d, err := ParsePeriod(period)
	if err != nil {
		return 0, err
	}
	return d.Year(), nil
}
