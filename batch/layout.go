// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/array"
	"github.com/apache/arrow/go/v10/arrow/memory"
	"github.com/featurebasedb/ids/errors"
	"github.com/featurebasedb/ids/register"
)

// Normalize returns a record whose columns all start at offset zero of their
// buffers, copying only the columns that don't. Later slicing of the result
// is then zero-copy. The caller owns the returned record.
func Normalize(rec arrow.Record, mem memory.Allocator) (arrow.Record, error) {
	dirty := false
	for _, col := range rec.Columns() {
		if col.Data().Offset() != 0 {
			dirty = true
			break
		}
	}
	if !dirty {
		rec.Retain()
		return rec, nil
	}

	cols := make([]arrow.Array, len(rec.Columns()))
	for i, col := range rec.Columns() {
		if col.Data().Offset() == 0 {
			col.Retain()
			cols[i] = col
			continue
		}
		fresh, err := array.Concatenate([]arrow.Array{col}, mem)
		if err != nil {
			for _, c := range cols[:i] {
				c.Release()
			}
			return nil, errors.Wrapf(err, "normalizing column %s", rec.ColumnName(i))
		}
		cols[i] = fresh
	}
	out := array.NewRecord(rec.Schema(), cols, rec.NumRows())
	for _, c := range cols {
		c.Release()
	}
	return out, nil
}

// Validate checks that rec is a well formed, non-empty batch.
func Validate(rec arrow.Record) error {
	if rec == nil {
		return errors.New(errors.ErrValidation, "nil batch")
	}
	if rec.NumRows() == 0 {
		return errors.New(errors.ErrValidation, "empty batch")
	}
	if got, want := int(rec.NumCols()), len(rec.Schema().Fields()); got != want {
		return errors.Newf(errors.ErrValidation, "batch has %d columns, schema has %d", got, want)
	}
	for i, col := range rec.Columns() {
		if int64(col.Len()) != rec.NumRows() {
			return errors.Newf(errors.ErrValidation, "column %s has %d rows, batch has %d",
				rec.ColumnName(i), col.Len(), rec.NumRows())
		}
	}
	return nil
}

// Projection picks the columns of a file to read for a target schema: every
// column present in both, plus the file's subject identifier column. The
// indices are in file order. truncated reports that some target columns are
// missing from the file. With a nil target every column is read.
func Projection(target, file *arrow.Schema) (indices []int, truncated bool) {
	fields := file.Fields()
	if target == nil {
		indices = make([]int, len(fields))
		for i := range fields {
			indices[i] = i
		}
		return indices, false
	}

	want := make(map[string]bool, len(target.Fields()))
	for _, f := range target.Fields() {
		want[f.Name] = true
	}
	id := register.IDColumn(file)
	found := 0
	for i, f := range fields {
		if want[f.Name] {
			found++
			indices = append(indices, i)
		} else if i == id {
			indices = append(indices, i)
		}
	}
	return indices, found < len(target.Fields())
}

// Rows sums the row counts of recs.
func Rows(recs []arrow.Record) int64 {
	var n int64
	for _, r := range recs {
		n += r.NumRows()
	}
	return n
}

// Release releases every record in recs.
func Release(recs []arrow.Record) {
	for _, r := range recs {
		if r != nil {
			r.Release()
		}
	}
}
