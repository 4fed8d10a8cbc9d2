// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

// Package test holds fixtures shared by the package tests: Arrow record
// builders and Parquet file writers.
package test

import (
	"fmt"
	"time"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/array"
	"github.com/apache/arrow/go/v10/arrow/memory"
	"github.com/featurebasedb/ids/batch"
)

// Col describes one column of a test record. A nil element of Values is a
// null.
type Col struct {
	Name   string
	Type   arrow.DataType
	Values []interface{}
}

// Str is a utf8 column. Elements are strings or nil.
func Str(name string, values ...interface{}) Col {
	return Col{Name: name, Type: arrow.BinaryTypes.String, Values: values}
}

// Strs is a utf8 column without nulls.
func Strs(name string, values ...string) Col {
	vs := make([]interface{}, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return Str(name, vs...)
}

// I32 is an int32 column. Elements are ints, int32s or nil.
func I32(name string, values ...interface{}) Col {
	return Col{Name: name, Type: arrow.PrimitiveTypes.Int32, Values: values}
}

// F64 is a float64 column. Elements are float64s or nil.
func F64(name string, values ...interface{}) Col {
	return Col{Name: name, Type: arrow.PrimitiveTypes.Float64, Values: values}
}

// Date is a date32 column. Elements are time.Times or nil.
func Date(name string, values ...interface{}) Col {
	return Col{Name: name, Type: arrow.FixedWidthTypes.Date32, Values: values}
}

// NewRecord builds a record from cols, which must all have the same
// length. It panics on unsupported element types.
func NewRecord(mem memory.Allocator, cols ...Col) arrow.Record {
	if mem == nil {
		mem = memory.NewGoAllocator()
	}
	fields := make([]arrow.Field, len(cols))
	arrs := make([]arrow.Array, len(cols))
	var rows int64 = -1
	for i, c := range cols {
		fields[i] = arrow.Field{Name: c.Name, Type: c.Type, Nullable: true}
		arrs[i] = buildArray(mem, c)
		if rows >= 0 && int64(len(c.Values)) != rows {
			panic(fmt.Sprintf("column %s has %d values, want %d", c.Name, len(c.Values), rows))
		}
		rows = int64(len(c.Values))
	}
	if rows < 0 {
		rows = 0
	}
	rec := array.NewRecord(arrow.NewSchema(fields, nil), arrs, rows)
	for _, a := range arrs {
		a.Release()
	}
	return rec
}

func buildArray(mem memory.Allocator, c Col) arrow.Array {
	switch c.Type {
	case arrow.BinaryTypes.String:
		b := array.NewStringBuilder(mem)
		defer b.Release()
		for _, v := range c.Values {
			if v == nil {
				b.AppendNull()
				continue
			}
			b.Append(v.(string))
		}
		return b.NewArray()
	case arrow.PrimitiveTypes.Int32:
		b := array.NewInt32Builder(mem)
		defer b.Release()
		for _, v := range c.Values {
			switch v := v.(type) {
			case nil:
				b.AppendNull()
			case int:
				b.Append(int32(v))
			case int32:
				b.Append(v)
			default:
				panic(fmt.Sprintf("column %s: unsupported int32 value %T", c.Name, v))
			}
		}
		return b.NewArray()
	case arrow.PrimitiveTypes.Float64:
		b := array.NewFloat64Builder(mem)
		defer b.Release()
		for _, v := range c.Values {
			if v == nil {
				b.AppendNull()
				continue
			}
			b.Append(v.(float64))
		}
		return b.NewArray()
	case arrow.FixedWidthTypes.Date32:
		b := array.NewDate32Builder(mem)
		defer b.Release()
		for _, v := range c.Values {
			if v == nil {
				b.AppendNull()
				continue
			}
			b.Append(batch.Date32FromTime(v.(time.Time)))
		}
		return b.NewArray()
	}
	panic(fmt.Sprintf("column %s: unsupported type %s", c.Name, c.Type))
}

// IDs returns the values of the utf8 column called name across recs, in
// order, with nulls as "".
func IDs(recs []arrow.Record, name string) []string {
	var out []string
	for _, rec := range recs {
		col, err := batch.StringColumn(rec, name)
		if err != nil {
			panic(err)
		}
		for i := 0; i < col.Len(); i++ {
			out = append(out, col.Value(i))
		}
	}
	return out
}
