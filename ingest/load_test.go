// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package ingest_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/featurebasedb/ids/batch"
	"github.com/featurebasedb/ids/config"
	"github.com/featurebasedb/ids/covariate"
	"github.com/featurebasedb/ids/errors"
	"github.com/featurebasedb/ids/ingest"
	"github.com/featurebasedb/ids/logger"
	"github.com/featurebasedb/ids/register"
	"github.com/featurebasedb/ids/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeRegisters lays out a small register tree below base: a family file
// naming A and B, and one extract of each other register. The AKM extract
// is corrupt.
func writeRegisters(t *testing.T, base string) {
	t.Helper()
	d := register.Date
	fam := test.NewRecord(nil,
		test.Strs(register.ColPNR, "A", "B"),
		test.Date(register.ColBirthDate, d(2001, time.May, 2), d(2003, time.June, 7)),
		test.Str(register.ColFatherID, "FA", nil),
		test.Date(register.ColFatherBirthDate, d(1970, time.January, 1), nil),
		test.Str(register.ColMotherID, "MA", "MB"),
		test.Date(register.ColMotherBirthDate, d(1972, time.February, 2), d(1975, time.March, 3)),
		test.Str(register.ColFamilyID, "FAM1", "FAM2"),
	)
	defer fam.Release()
	test.MustWriteParquet(t, filepath.Join(base, "family.parquet"), fam)

	writeIncome(t, filepath.Join(base, "ind", "2019.parquet"), "Z", "A", "FA", "MB")

	bef := test.NewRecord(nil,
		test.Strs(register.ColPNR, "A", "Z"),
		test.I32(register.ColFamilySize, 3, 1),
		test.I32(register.ColMunicipality, 101, 147),
		test.I32(register.ColFamilyType, 1, 5),
		test.Str(register.ColCitizenship, "5100", nil),
	)
	defer bef.Release()
	test.MustWriteParquet(t, filepath.Join(base, "bef", "201912.parquet"), bef)

	uddf := test.NewRecord(nil,
		test.Strs(register.ColPNR, "B", "Z"),
		test.Strs(register.ColEducation, "5080", "1010"),
	)
	defer uddf.Release()
	test.MustWriteParquet(t, filepath.Join(base, "uddf", "2020.parquet"), uddf)

	test.MustWriteFile(t, filepath.Join(base, "akm", "2020.parquet"), []byte("garbage"))
}

func newTestConfig(base string) *config.Config {
	cfg := config.NewConfig()
	cfg.Base = base
	cfg.MaxThreads = 2
	cfg.BatchSize = 2
	return cfg
}

func TestLoad(t *testing.T) {
	base := t.TempDir()
	writeRegisters(t, base)

	data, err := ingest.Load(context.Background(), register.Income, base, nil)
	require.NoError(t, err)
	defer data.Release()
	assert.Equal(t, int64(4), data.Rows())
	assert.Contains(t, data.Periods, "2019")

	fam, err := ingest.Load(context.Background(), register.Family, base, batch.NewSubjects("B"))
	require.NoError(t, err)
	defer fam.Release()
	assert.Equal(t, []string{"B"}, test.IDs(fam.Batches, register.ColPNR))

	_, err = ingest.Load(context.Background(), register.Employment, base, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrFormat))
}

func TestLoadFromEnv(t *testing.T) {
	base := t.TempDir()
	writeRegisters(t, base)

	t.Setenv("IDS_BATCH_SIZE", "1")
	data, err := ingest.Load(context.Background(), register.Income, base, nil)
	require.NoError(t, err)
	defer data.Release()
	assert.Len(t, data.Periods["2019"], 4)

	t.Setenv("IDS_BATCH_SIZE", "0")
	_, err = ingest.Load(context.Background(), register.Income, base, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrValidation))
}

func TestLoadPathOverride(t *testing.T) {
	base := t.TempDir()
	elsewhere := t.TempDir()
	writeIncome(t, filepath.Join(elsewhere, "2018.parquet"), "Q")

	cfg := newTestConfig(base)
	cfg.Paths.Income = elsewhere
	data, err := ingest.NewLoader(cfg, nil).Load(context.Background(), register.Income, nil)
	require.NoError(t, err)
	defer data.Release()
	assert.Equal(t, []string{"Q"}, test.IDs(data.Periods["2018"], register.ColPNR))
}

func TestLoadAll(t *testing.T) {
	base := t.TempDir()
	writeRegisters(t, base)

	log := logger.NewBufferLogger()
	st, report, err := ingest.NewLoader(newTestConfig(base), log).LoadAll(context.Background(), nil)
	require.NoError(t, err)
	defer st.Release()

	assert.False(t, report.Diagnostic)
	assert.ElementsMatch(t, []register.Kind{register.Family, register.Demographics, register.Income, register.Education}, report.Loaded)
	require.Contains(t, report.Failures, register.Employment)
	assert.NotContains(t, report.Failures, register.Family)

	// Family filtering keeps subjects and parents only.
	assert.Equal(t, int64(3), report.Rows[register.Income])
	d := register.Date(2019, time.June, 30)
	c, err := st.GetCovariate("FA", covariate.Income, d)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, 2000.0, c.Income.Amount)
	c, err = st.GetCovariate("Z", covariate.Income, d)
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = st.GetCovariate("A", covariate.Demographics, register.Date(2020, time.March, 1))
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, int32(3), c.Demographics.FamilySize)
	assert.Equal(t, "Denmark", c.Metadata[covariate.MetaStatsbTranslated])

	c, err = st.GetCovariate("B", covariate.Education, register.Date(2021, time.January, 1))
	require.NoError(t, err)
	require.NotNil(t, c)

	fr, err := st.FamilyRelations("A")
	require.NoError(t, err)
	require.NotNil(t, fr)
	assert.Equal(t, "FA", *fr.FatherID)

	assert.NotEmpty(t, log.Lines(logger.LevelError))
}

func TestLoadAllCallerFilter(t *testing.T) {
	base := t.TempDir()
	writeRegisters(t, base)

	st, report, err := ingest.NewLoader(newTestConfig(base), nil).LoadAll(context.Background(), batch.NewSubjects("Z"))
	require.NoError(t, err)
	defer st.Release()

	// Z isn't in the family register, but the caller asked for it.
	assert.Equal(t, int64(1), report.Rows[register.Income])
	c, err := st.GetCovariate("Z", covariate.Income, register.Date(2019, time.January, 1))
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, 0.0, c.Income.Amount)
}

func TestLoadAllNoFamilyFiltering(t *testing.T) {
	base := t.TempDir()
	writeRegisters(t, base)
	cfg := newTestConfig(base)
	cfg.UseFamilyFiltering = false

	st, report, err := ingest.NewLoader(cfg, nil).LoadAll(context.Background(), nil)
	require.NoError(t, err)
	defer st.Release()
	assert.Equal(t, int64(4), report.Rows[register.Income])
}

func TestLoadAllSequential(t *testing.T) {
	base := t.TempDir()
	writeRegisters(t, base)
	cfg := newTestConfig(base)
	cfg.Parallel.Income = false
	cfg.Parallel.Demographics = false

	st, report, err := ingest.NewLoader(cfg, nil).LoadAll(context.Background(), nil)
	require.NoError(t, err)
	defer st.Release()
	assert.Equal(t, int64(3), report.Rows[register.Income])
	assert.Equal(t, int64(1), report.Rows[register.Demographics])
}

func TestLoadAllDiagnostic(t *testing.T) {
	t.Run("Fallback", func(t *testing.T) {
		log := logger.NewBufferLogger()
		st, report, err := ingest.NewLoader(newTestConfig(t.TempDir()), log).LoadAll(context.Background(), nil)
		require.NoError(t, err)
		defer st.Release()
		assert.True(t, report.Diagnostic)
		assert.True(t, st.Diagnostic())
		assert.Contains(t, report.Failures, register.Family)
		assert.NotEmpty(t, log.Lines(logger.LevelWarn))
	})

	t.Run("FallbackWithFilter", func(t *testing.T) {
		filter := batch.NewSubjects("X1", "X2")
		st, report, err := ingest.NewLoader(newTestConfig(t.TempDir()), nil).LoadAll(context.Background(), filter)
		require.NoError(t, err)
		defer st.Release()
		assert.True(t, report.Diagnostic)
		assert.Equal(t, []string{"X1", "X2"}, st.FamilySubjects())
	})

	t.Run("Disabled", func(t *testing.T) {
		cfg := newTestConfig(t.TempDir())
		cfg.Diagnostic = false
		st, _, err := ingest.NewLoader(cfg, nil).LoadAll(context.Background(), nil)
		require.Error(t, err)
		assert.Nil(t, st)
		assert.True(t, errors.Is(err, errors.ErrIO))
	})
}
