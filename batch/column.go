// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"time"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/array"
	"github.com/featurebasedb/ids/errors"
)

const secondsPerDay = 24 * 60 * 60

func column(rec arrow.Record, name string) (arrow.Array, error) {
	idx := rec.Schema().FieldIndices(name)
	if len(idx) == 0 {
		return nil, errors.Newf(errors.ErrData, "missing column %s", name)
	}
	return rec.Column(idx[0]), nil
}

func wrongType(name string, got arrow.DataType, want string) error {
	return errors.Newf(errors.ErrData, "column %s has type %s, want %s", name, got, want)
}

// StringColumn returns the utf8 column called name.
func StringColumn(rec arrow.Record, name string) (*array.String, error) {
	col, err := column(rec, name)
	if err != nil {
		return nil, err
	}
	s, ok := col.(*array.String)
	if !ok {
		return nil, wrongType(name, col.DataType(), "utf8")
	}
	return s, nil
}

// Int32Column returns the int32 column called name.
func Int32Column(rec arrow.Record, name string) (*array.Int32, error) {
	col, err := column(rec, name)
	if err != nil {
		return nil, err
	}
	v, ok := col.(*array.Int32)
	if !ok {
		return nil, wrongType(name, col.DataType(), "int32")
	}
	return v, nil
}

// Float64Column returns the float64 column called name.
func Float64Column(rec arrow.Record, name string) (*array.Float64, error) {
	col, err := column(rec, name)
	if err != nil {
		return nil, err
	}
	v, ok := col.(*array.Float64)
	if !ok {
		return nil, wrongType(name, col.DataType(), "float64")
	}
	return v, nil
}

// Date32Column returns the date32 column called name.
func Date32Column(rec arrow.Record, name string) (*array.Date32, error) {
	col, err := column(rec, name)
	if err != nil {
		return nil, err
	}
	v, ok := col.(*array.Date32)
	if !ok {
		return nil, wrongType(name, col.DataType(), "date32")
	}
	return v, nil
}

// HasColumn reports whether rec has a column called name.
func HasColumn(rec arrow.Record, name string) bool {
	return len(rec.Schema().FieldIndices(name)) > 0
}

// OptString returns the value at row, or nil if it is null.
func OptString(col *array.String, row int) *string {
	if col == nil || col.IsNull(row) {
		return nil
	}
	v := col.Value(row)
	return &v
}

// OptInt32 returns the value at row, or nil if it is null.
func OptInt32(col *array.Int32, row int) *int32 {
	if col == nil || col.IsNull(row) {
		return nil
	}
	v := col.Value(row)
	return &v
}

// OptDate returns the date at row, or nil if it is null.
func OptDate(col *array.Date32, row int) *time.Time {
	if col == nil || col.IsNull(row) {
		return nil
	}
	t := DateFromDate32(col.Value(row))
	return &t
}

// DateFromDate32 converts days since the epoch to a UTC date.
func DateFromDate32(d arrow.Date32) time.Time {
	return time.Unix(int64(d)*secondsPerDay, 0).UTC()
}

// Date32FromTime converts t to days since the epoch.
func Date32FromTime(t time.Time) arrow.Date32 {
	y, m, d := t.Date()
	days := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / secondsPerDay
	return arrow.Date32(days)
}
