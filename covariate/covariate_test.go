// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package covariate_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/featurebasedb/ids/covariate"
	"github.com/featurebasedb/ids/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	for _, typ := range covariate.Types() {
		got, err := covariate.ParseType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}
	got, err := covariate.ParseType(" Income ")
	require.NoError(t, err)
	assert.Equal(t, covariate.Income, got)

	_, err = covariate.ParseType("diagnosis")
	assert.True(t, errors.Is(err, errors.ErrUnknownCovariate))
}

func TestFields(t *testing.T) {
	socio := int32(131)
	c := covariate.NewOccupation("131", "SOCIO").
		WithMetadata(covariate.MetaSocio13Value, "131").
		WithMetadata(covariate.MetaSocio13Category, "Employee, management work")
	c.Occupation.Socio13 = &socio

	want := [][2]string{
		{"code", "131"},
		{"classification", "SOCIO"},
		{"socio13", "131"},
		{"socio13_category", "Employee, management work"},
		{"socio13_value", "131"},
	}
	if diff := cmp.Diff(want, c.Fields()); diff != "" {
		t.Fatal(diff)
	}

	inc := covariate.NewIncome(312000.5, "DKK", "PERINDKIALT_13")
	assert.Equal(t, "income{amount=312000.50 currency=DKK type_code=PERINDKIALT_13}", inc.String())

	var absent *covariate.Covariate
	assert.Equal(t, "<absent>", absent.String())
}

func TestDefaultTranslations(t *testing.T) {
	tr := covariate.DefaultTranslations()
	label, ok := tr.Translate(covariate.Socio13, "322")
	require.True(t, ok)
	assert.Equal(t, "State pensioner", label)
	assert.Greater(t, tr.Len(covariate.Socio13), 10)

	_, ok = tr.Translate(covariate.Hfaudd, "1")
	assert.False(t, ok)
}

func TestTranslationsLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hfaudd.json"),
		[]byte(`{"1090": "ISCED 1", "1190": "ISCED 1", "5080": "ISCED 5"}`), 0o644))

	tr := covariate.DefaultTranslations()
	require.NoError(t, tr.LoadDir(dir))

	label, ok := tr.Translate(covariate.Hfaudd, "5080")
	require.True(t, ok)
	assert.Equal(t, "ISCED 5", label)
	assert.Equal(t, []string{"1090", "1190"}, tr.CodesFor(covariate.Hfaudd, "ISCED 1"))

	// Tables without a file keep their embedded contents.
	_, ok = tr.Translate(covariate.Socio13, "110")
	assert.True(t, ok)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "statsb.json"), []byte(`[1,2]`), 0o644))
	err := tr.LoadDir(dir)
	assert.True(t, errors.Is(err, errors.ErrFormat))
}

func TestTranslationsSet(t *testing.T) {
	tr := covariate.NewTranslations()
	tr.Set(covariate.Statsb, "5100", "Denmark")
	label, ok := tr.Translate(covariate.Statsb, "5100")
	require.True(t, ok)
	assert.Equal(t, "Denmark", label)
	assert.Equal(t, "statsb", covariate.Statsb.String())
}
