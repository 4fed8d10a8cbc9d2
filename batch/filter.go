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

// run is a half-open range of matching rows.
type run struct{ start, end int64 }

// Filter keeps the rows of rec whose subject identifier is in subjects.
//
// The returned record is owned by the caller and must be released. If no
// row matches, Filter returns a nil record. If every row matches, or the
// filter is inactive, or rec has no identifier column, rec itself is
// returned with an extra reference. Null identifiers never match.
func Filter(rec arrow.Record, subjects Subjects, mem memory.Allocator) (arrow.Record, error) {
	if !subjects.Active() {
		rec.Retain()
		return rec, nil
	}
	idx := register.IDColumn(rec.Schema())
	if idx < 0 {
		rec.Retain()
		return rec, nil
	}
	ids, ok := rec.Column(idx).(*array.String)
	if !ok {
		return nil, errors.Newf(errors.ErrData, "identifier column %q has type %s, want utf8",
			rec.ColumnName(idx), rec.Column(idx).DataType())
	}

	// Build the selection mask as runs so each column is sliced once per
	// contiguous block rather than once per row.
	var runs []run
	var kept int64
	n := int64(ids.Len())
	for i := int64(0); i < n; i++ {
		if ids.IsNull(int(i)) || !subjects.Contains(ids.Value(int(i))) {
			continue
		}
		kept++
		if l := len(runs); l > 0 && runs[l-1].end == i {
			runs[l-1].end = i + 1
		} else {
			runs = append(runs, run{start: i, end: i + 1})
		}
	}

	switch {
	case kept == 0:
		return nil, nil
	case kept == n:
		rec.Retain()
		return rec, nil
	}
	return compact(rec, runs, kept, mem)
}

// compact builds a new record from the given runs of rec.
func compact(rec arrow.Record, runs []run, rows int64, mem memory.Allocator) (arrow.Record, error) {
	if len(runs) == 1 {
		return rec.NewSlice(runs[0].start, runs[0].end), nil
	}
	cols := make([]arrow.Array, 0, rec.NumCols())
	defer func() {
		for _, c := range cols {
			c.Release()
		}
	}()
	for _, col := range rec.Columns() {
		parts := make([]arrow.Array, len(runs))
		for i, r := range runs {
			parts[i] = array.NewSlice(col, r.start, r.end)
		}
		joined, err := array.Concatenate(parts, mem)
		for _, p := range parts {
			p.Release()
		}
		if err != nil {
			return nil, errors.Wrapf(err, "compacting column %s", col.DataType())
		}
		cols = append(cols, joined)
	}
	return array.NewRecord(rec.Schema(), cols, rows), nil
}
