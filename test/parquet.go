// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/array"
	"github.com/apache/arrow/go/v10/parquet"
	"github.com/apache/arrow/go/v10/parquet/pqarrow"
)

// RowGroupSize is the row group length used by MustWriteParquet.
const RowGroupSize = 4096

// MustWriteParquet writes recs, which must share a schema, to a Parquet
// file at path, creating parent directories as needed.
func MustWriteParquet(tb testing.TB, path string, recs ...arrow.Record) {
	tb.Helper()
	if len(recs) == 0 {
		tb.Fatal("MustWriteParquet: no records")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		tb.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		tb.Fatal(err)
	}
	defer f.Close()

	table := array.NewTableFromRecords(recs[0].Schema(), recs)
	defer table.Release()
	props := parquet.NewWriterProperties(parquet.WithDictionaryDefault(false))
	arrProps := pqarrow.DefaultWriterProps()
	if err := pqarrow.WriteTable(table, f, RowGroupSize, props, arrProps); err != nil {
		tb.Fatal(err)
	}
}

// MustWriteFile writes raw bytes to path. Tests use it to plant corrupt
// Parquet files.
func MustWriteFile(tb testing.TB, path string, data []byte) {
	tb.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		tb.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatal(err)
	}
}
