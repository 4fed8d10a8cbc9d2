// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/array"
	"github.com/apache/arrow/go/v10/arrow/memory"
	"github.com/apache/arrow/go/v10/parquet/file"
	"github.com/apache/arrow/go/v10/parquet/pqarrow"
	"github.com/dustin/go-humanize"
	"github.com/featurebasedb/ids"
	"github.com/featurebasedb/ids/batch"
	"github.com/featurebasedb/ids/errors"
	"github.com/featurebasedb/ids/register"
)

// DefaultSampleRows is the number of rows InspectCommand prints by default.
const DefaultSampleRows = 10

// InspectCommand displays the schema of a register file, which registers
// it can be read as, and a sample of its rows.
type InspectCommand struct {
	*ids.CmdIO

	// Path to the Parquet file.
	Path string

	// Rows is the number of sample rows to print.
	Rows int
}

// NewInspectCommand returns a new instance of InspectCommand.
func NewInspectCommand(stdin io.Reader, stdout, stderr io.Writer) *InspectCommand {
	return &InspectCommand{
		CmdIO: ids.NewCmdIO(stdin, stdout, stderr),
		Rows:  DefaultSampleRows,
	}
}

// Run displays schema and samples data from a parquet file
func (cmd *InspectCommand) Run(ctx context.Context) error {
	fi, err := os.Stat(cmd.Path)
	if err != nil {
		return errors.WithCode(errors.Wrap(err, "opening file"), errors.ErrIO)
	}
	pf, err := file.OpenParquetFile(cmd.Path, false)
	if err != nil {
		return errors.WithCode(errors.Wrapf(err, "opening parquet file %s", cmd.Path), errors.ErrFormat)
	}
	defer pf.Close()

	mem := memory.NewGoAllocator()
	sample := int64(cmd.Rows)
	if sample <= 0 {
		sample = DefaultSampleRows
	}
	reader, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{BatchSize: sample}, mem)
	if err != nil {
		return errors.WithCode(err, errors.ErrFormat)
	}
	schema, err := reader.Schema()
	if err != nil {
		return errors.WithCode(err, errors.ErrFormat)
	}

	w := cmd.Stdout
	fmt.Fprintf(w, "Name: %s\n", cmd.Path)
	fmt.Fprintf(w, "Size: %s\n", humanize.Bytes(uint64(fi.Size())))
	fmt.Fprintf(w, "Rows: %s in %d row group(s)\n", humanize.Comma(pf.NumRows()), pf.NumRowGroups())
	fmt.Fprintf(w, "Period: %s\n\n", periodOf(cmd.Path))

	t := newTable(w, "#", "name", "type", "nullable")
	for i, f := range schema.Fields() {
		t.AppendRow([]interface{}{i, f.Name, f.Type.String(), f.Nullable})
	}
	t.Render()

	fmt.Fprintln(w)
	t = newTable(w, "register", "columns read", "missing")
	for _, k := range register.Kinds() {
		cols, _ := batch.Projection(k.Schema(), schema)
		if len(cols) == 0 {
			continue
		}
		t.AppendRow([]interface{}{k.Description(), len(cols), strings.Join(missingColumns(k.Schema(), schema), ", ")})
	}
	t.Render()

	if pf.NumRows() == 0 {
		return nil
	}
	rr, err := reader.GetRecordReader(ctx, nil, nil)
	if err != nil {
		return errors.WithCode(err, errors.ErrFormat)
	}
	defer rr.Release()
	rec, err := rr.Read()
	if err != nil {
		return errors.WithCode(errors.Wrap(err, "reading sample"), errors.ErrFormat)
	}

	fmt.Fprintf(w, "\nSample:\n")
	header := make([]interface{}, len(schema.Fields()))
	for i, f := range rec.Schema().Fields() {
		header[i] = f.Name
	}
	t = newTable(w, header...)
	n := int(rec.NumRows())
	if int64(n) > sample {
		n = int(sample)
	}
	for i := 0; i < n; i++ {
		row := make([]interface{}, rec.NumCols())
		for j, col := range rec.Columns() {
			row[j] = valueAt(col, i)
		}
		t.AppendRow(row)
	}
	t.Render()
	return nil
}

func periodOf(path string) string {
	period := register.PeriodOf(path)
	if _, err := register.ParsePeriod(period); err != nil {
		return "none"
	}
	return period
}

// missingColumns lists the columns of target which file lacks.
func missingColumns(target, file *arrow.Schema) []string {
	var out []string
	for _, f := range target.Fields() {
		if len(file.FieldIndices(f.Name)) == 0 {
			out = append(out, f.Name)
		}
	}
	return out
}

// valueAt renders element i of arr for display.
func valueAt(arr arrow.Array, i int) interface{} {
	if arr.IsNull(i) {
		return nullValue
	}
	switch a := arr.(type) {
	case *array.String:
		return a.Value(i)
	case *array.Int32:
		return a.Value(i)
	case *array.Int64:
		return a.Value(i)
	case *array.Float64:
		return a.Value(i)
	case *array.Boolean:
		return a.Value(i)
	case *array.Date32:
		return batch.DateFromDate32(a.Value(i)).Format(dateLayout)
	}
	s := array.NewSlice(arr, int64(i), int64(i+1))
	defer s.Release()
	return strings.Trim(s.String(), "[]")
}
