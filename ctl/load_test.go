// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/featurebasedb/ids/errors"
	"github.com/featurebasedb/ids/register"
	"github.com/featurebasedb/ids/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTree writes a family file and one income and one education extract
// below base.
func writeTree(t *testing.T, base string) {
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
	test.MustWriteParquet(t, filepath.Join(base, "registers", "family.parquet"), fam)

	ind := test.NewRecord(nil,
		test.Strs(register.ColPNR, "A", "B", "FA"),
		test.F64(register.ColIncome, 250000.0, nil, 410000.5),
	)
	defer ind.Release()
	test.MustWriteParquet(t, filepath.Join(base, "registers", "ind", "2019.parquet"), ind)

	uddf := test.NewRecord(nil,
		test.Strs(register.ColPNR, "A"),
		test.Strs(register.ColEducation, "5080"),
	)
	defer uddf.Release()
	test.MustWriteParquet(t, filepath.Join(base, "registers", "uddf", "2018.parquet"), uddf)
	test.MustWriteFile(t, filepath.Join(base, "registers", "uddf", "2019.parquet"), []byte("garbage"))
}

func TestLoadCommand_Run(t *testing.T) {
	base := t.TempDir()
	writeTree(t, base)

	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cm := NewLoadCommand(nil, stdout, stderr)
	cm.Config.Base = base
	require.NoError(t, cm.Run(context.Background()))

	out := stdout.String()
	assert.Contains(t, out, "family relations")
	assert.Contains(t, out, "income")
	assert.Contains(t, out, "1 file(s) could not be read")
	assert.Contains(t, out, "2019.parquet")
	assert.Contains(t, out, "Loaded in")
	assert.NotContains(t, out, "synthetic")
}

func TestLoadCommand_Diagnostic(t *testing.T) {
	stdout := &bytes.Buffer{}
	cm := NewLoadCommand(nil, stdout, &bytes.Buffer{})
	cm.Config.Base = t.TempDir()
	require.NoError(t, cm.Run(context.Background()))
	assert.Contains(t, stdout.String(), "synthetic diagnostic data")

	cm.Config.Diagnostic = false
	err := cm.Run(context.Background())
	assert.True(t, errors.Is(err, errors.ErrIO), "%v", err)
}

func TestLoadCommand_InvalidConfig(t *testing.T) {
	cm := NewLoadCommand(nil, &bytes.Buffer{}, &bytes.Buffer{})
	cm.Config.BatchSize = 0
	err := cm.Run(context.Background())
	assert.True(t, errors.Is(err, errors.ErrValidation), "%v", err)
}

func TestReadSubjectsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "subjects.txt")
	require.NoError(t, os.WriteFile(path, []byte("# cases\nA\n\n  B  \nA\n"), 0o644))
	s, err := ReadSubjectsFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, s.Sorted())

	_, err = ReadSubjectsFile(filepath.Join(t.TempDir(), "nope"))
	assert.True(t, errors.Is(err, errors.ErrIO))

	f, err := subjectFilter(nil, "")
	require.NoError(t, err)
	assert.False(t, f.Active())

	f, err = subjectFilter([]string{"C"}, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, f.Sorted())
}
