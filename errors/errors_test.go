// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package errors_test

import (
	"fmt"
	"io"
	"testing"

	"github.com/featurebasedb/ids/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrors(t *testing.T) {
	t.Run("Is", func(t *testing.T) {
		missingCol := errors.New(errors.ErrData, "column KOM not found")
		badFile := errors.Wrap(errors.New(errors.ErrFormat, "invalid magic"), "opening 2019.parquet")
		coded := errors.WithCode(io.ErrUnexpectedEOF, errors.ErrIO)

		tests := []struct {
			err    error
			target errors.Code
			exp    bool
		}{
			{
				err:    missingCol,
				target: errors.ErrData,
				exp:    true,
			},
			{
				err:    missingCol,
				target: errors.ErrFormat,
				exp:    false,
			},
			{
				err:    badFile,
				target: errors.ErrFormat,
				exp:    true,
			},
			{
				err:    errors.Wrapf(coded, "reading %s", "bef"),
				target: errors.ErrIO,
				exp:    true,
			},
			{
				err:    fmt.Errorf("plain"),
				target: errors.ErrIO,
				exp:    false,
			},
		}

		for i, test := range tests {
			t.Run(fmt.Sprintf("test-%d", i), func(t *testing.T) {
				got := errors.Is(test.err, test.target)
				assert.Equal(t, test.exp, got)
			})
		}
	})

	t.Run("CodeOf", func(t *testing.T) {
		assert.Equal(t, errors.ErrData, errors.CodeOf(errors.Wrap(errors.New(errors.ErrData, "x"), "y")))
		assert.Equal(t, errors.ErrUncoded, errors.CodeOf(fmt.Errorf("plain")))
	})

	t.Run("WithCodeKeepsCause", func(t *testing.T) {
		err := errors.WithCode(io.ErrUnexpectedEOF, errors.ErrIO)
		assert.Equal(t, io.ErrUnexpectedEOF.Error(), err.Error())
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
		assert.Nil(t, errors.WithCode(nil, errors.ErrIO))
	})

	t.Run("Multi", func(t *testing.T) {
		m := errors.Multi{}
		assert.Nil(t, m.ErrorOrNil())
		m.Add("b.parquet", nil)
		assert.Nil(t, m.ErrorOrNil())
		m.Add("b.parquet", errors.New(errors.ErrFormat, "bad footer"))
		m.Add("a.parquet", errors.New(errors.ErrIO, "permission denied"))
		err := m.ErrorOrNil()
		assert.EqualError(t, err, "2 error(s): a.parquet: permission denied; b.parquet: bad footer")
	})
}
