// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package register_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/featurebasedb/ids/errors"
	"github.com/featurebasedb/ids/register"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for in, want := range map[string]register.Kind{
		"bef":          register.Demographics,
		"Demographics": register.Demographics,
		" ind ":        register.Income,
		"uddf":         register.Education,
		"education":    register.Education,
		"akm":          register.Employment,
		"family":       register.Family,
	} {
		got, err := register.Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := register.Parse("lpr")
	assert.True(t, errors.Is(err, errors.ErrUnknownRegister))
}

func TestKinds(t *testing.T) {
	assert.Equal(t, register.Family, register.Kinds()[0])
	assert.NotContains(t, register.Others(), register.Family)
	assert.True(t, register.Demographics.Periodic())
	assert.True(t, register.Education.Periodic())
	assert.False(t, register.Income.Periodic())
	assert.True(t, register.Income.Annual())
	assert.True(t, register.Employment.Annual())
	assert.Equal(t, "akm", register.Employment.String())
	assert.Equal(t, 0, register.IDColumn(register.Demographics.Schema()))

	bogus := register.Kind(42)
	assert.Equal(t, "unknown", bogus.String())
	assert.Equal(t, "unknown register", bogus.Description())
	assert.False(t, bogus.Periodic())
	assert.False(t, register.Kind(-1).Periodic())
	assert.Nil(t, bogus.Schema())
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		period string
		want   time.Time
	}{
		{"2019", register.Date(2019, time.December, 1)},
		{"201903", register.Date(2019, time.March, 1)},
		{"201912", register.Date(2019, time.December, 1)},
		{"bef/202006.parquet", register.Date(2020, time.June, 1)},
		{"2019_q", register.Date(2019, time.December, 1)},
		// Month out of range falls back to the year.
		{"201913", register.Date(2019, time.December, 1)},
	}
	for _, test := range tests {
		got, err := register.ParsePeriod(test.period)
		require.NoError(t, err, test.period)
		assert.True(t, test.want.Equal(got), "%s: got %v want %v", test.period, got, test.want)
	}

	_, err := register.ParsePeriod("latest")
	assert.True(t, errors.Is(err, errors.ErrFormat))

	cur, err := register.ParsePeriod(register.CurrentPeriod)
	require.NoError(t, err)
	assert.Equal(t, register.Truncate(time.Now().UTC()).Year(), cur.Year())

	y, err := register.PeriodYear("201806")
	require.NoError(t, err)
	assert.Equal(t, 2018, y)
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestResolveDir(t *testing.T) {
	base := t.TempDir()

	// Nothing present: base itself.
	assert.Equal(t, base, register.ResolveDir(register.Income, base, ""))

	nested := filepath.Join(base, "registers", "ind")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	assert.Equal(t, nested, register.ResolveDir(register.Income, base, ""))

	direct := filepath.Join(base, "ind")
	require.NoError(t, os.MkdirAll(direct, 0o755))
	assert.Equal(t, direct, register.ResolveDir(register.Income, base, ""))

	override := filepath.Join(base, "elsewhere")
	require.NoError(t, os.MkdirAll(override, 0o755))
	assert.Equal(t, override, register.ResolveDir(register.Income, base, override))

	// A missing override is ignored.
	assert.Equal(t, direct, register.ResolveDir(register.Income, base, filepath.Join(base, "nope")))
}

func TestResolveFamilyFile(t *testing.T) {
	base := t.TempDir()
	_, ok := register.ResolveFamilyFile(base, "")
	assert.False(t, ok)

	deepest := filepath.Join(base, "registers", "family", "family.parquet")
	touch(t, deepest)
	got, ok := register.ResolveFamilyFile(base, "")
	require.True(t, ok)
	assert.Equal(t, deepest, got)

	inFamily := filepath.Join(base, "family", "family.parquet")
	touch(t, inFamily)
	got, _ = register.ResolveFamilyFile(base, "")
	assert.Equal(t, inFamily, got)

	direct := filepath.Join(base, "family.parquet")
	touch(t, direct)
	got, _ = register.ResolveFamilyFile(base, "")
	assert.Equal(t, direct, got)

	got, ok = register.ResolveFamilyFile(direct, "")
	require.True(t, ok)
	assert.Equal(t, direct, got)

	override := filepath.Join(base, "other", "rel.parquet")
	touch(t, override)
	got, _ = register.ResolveFamilyFile(base, override)
	assert.Equal(t, override, got)
}

func TestPeriodFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "201912.parquet"))
	touch(t, filepath.Join(dir, "2019.parquet"))
	touch(t, filepath.Join(dir, "201903.PARQUET"))
	touch(t, filepath.Join(dir, "notes.txt"))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "2020.parquet.d"), 0o755))

	files, err := register.PeriodFiles(dir)
	require.NoError(t, err)
	periods := make([]string, len(files))
	for i, f := range files {
		periods[i] = f.Period
	}
	assert.Equal(t, []string{"2019", "201903", "201912"}, periods)

	single, err := register.PeriodFiles(filepath.Join(dir, "2019.parquet"))
	require.NoError(t, err)
	require.Len(t, single, 1)
	assert.Equal(t, "2019", single[0].Period)

	_, err = register.PeriodFiles(filepath.Join(dir, "missing"))
	assert.True(t, errors.Is(err, errors.ErrIO))
}
