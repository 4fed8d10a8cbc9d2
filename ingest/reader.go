// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"context"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/memory"
	"github.com/apache/arrow/go/v10/parquet/file"
	"github.com/apache/arrow/go/v10/parquet/pqarrow"
	"github.com/featurebasedb/ids/batch"
	"github.com/featurebasedb/ids/config"
	"github.com/featurebasedb/ids/errors"
	"github.com/featurebasedb/ids/logger"
	"github.com/featurebasedb/ids/register"
	"github.com/featurebasedb/ids/task"
)

// queueFactor sizes the feeder channel relative to the worker count.
const queueFactor = 4

// Reader decodes register files into record batches.
type Reader struct {
	// BatchSize is the number of rows per decoded record.
	BatchSize int

	// Workers is the number of goroutines processing batches of a file.
	Workers int

	Mem    memory.Allocator
	Logger logger.Logger

	// label names the register in metrics.
	label string

	// warned holds one flag per worker ID, set once that worker has
	// reported a truncated schema.
	warned []int32
}

// NewReader returns a Reader with the given batch size and worker count.
// Non-positive values fall back to the defaults.
func NewReader(batchSize, workers int, log logger.Logger) *Reader {
	if batchSize <= 0 {
		batchSize = config.DefaultBatchSize
	}
	if workers <= 0 {
		workers = config.NewConfig().MaxThreads
	}
	if log == nil {
		log = logger.NopLogger
	}
	return &Reader{
		BatchSize: batchSize,
		Workers:   workers,
		Mem:       memory.DefaultAllocator,
		Logger:    log,
		label:     "none",
		warned:    make([]int32, workers),
	}
}

// item is what the feeder hands to the workers: a record or the error
// which ended the file.
type item struct {
	rec arrow.Record
	err error
}

// ReadFile decodes the Parquet file at path.
//
// A single feeder goroutine streams batches of BatchSize rows into a
// bounded channel, and a pool of Workers goroutines filters, validates and
// normalizes them. When schema is non-nil, only the columns it shares with
// the file are read. The returned records are owned by the caller. Their
// order is not guaranteed. If decoding fails part way, every record read so
// far is released and the error is returned.
func (r *Reader) ReadFile(ctx context.Context, path string, schema *arrow.Schema, filter batch.Subjects) ([]arrow.Record, error) {
	recs, err := r.readFile(ctx, path, schema, filter)
	if err != nil {
		CounterFiles.WithLabelValues(r.label, statusError).Inc()
		return nil, err
	}
	CounterFiles.WithLabelValues(r.label, statusOK).Inc()
	return recs, nil
}

func (r *Reader) readFile(ctx context.Context, path string, schema *arrow.Schema, filter batch.Subjects) ([]arrow.Record, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.WithCode(errors.Wrapf(err, "opening %s", path), errors.ErrIO)
	}
	pf, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, errors.WithCode(errors.Wrapf(err, "opening parquet file %s", path), errors.ErrFormat)
	}
	defer pf.Close()

	fr, err := pqarrow.NewFileReader(pf, pqarrow.ArrowReadProperties{BatchSize: int64(r.BatchSize)}, r.Mem)
	if err != nil {
		return nil, errors.WithCode(errors.Wrapf(err, "reading %s", path), errors.ErrFormat)
	}
	fileSchema, err := fr.Schema()
	if err != nil {
		return nil, errors.WithCode(errors.Wrapf(err, "reading schema of %s", path), errors.ErrFormat)
	}
	cols, truncated := batch.Projection(schema, fileSchema)
	if len(cols) == 0 {
		return nil, errors.Newf(errors.ErrFormat, "%s shares no columns with the %s schema", path, r.label)
	}
	if truncated {
		CounterSchemaTruncations.Inc()
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	rr, err := fr.GetRecordReader(ctx, cols, nil)
	if err != nil {
		return nil, errors.WithCode(errors.Wrapf(err, "reading %s", path), errors.ErrFormat)
	}
	defer rr.Release()

	src := make(chan item, queueFactor*r.Workers)
	go r.feed(ctx, path, rr, pf.NumRows(), src)

	var (
		mu       sync.Mutex
		results  []arrow.Record
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}
	failed := func() bool {
		mu.Lock()
		defer mu.Unlock()
		return firstErr != nil
	}

	pool := task.NewPool(r.Workers, src, func(w *task.Worker[item], it item) {
		if it.err != nil {
			fail(it.err)
			return
		}
		defer it.rec.Release()
		if failed() {
			return
		}
		if truncated {
			r.warnTruncated(w.ID, path, fileSchema, schema)
		}
		out, err := r.process(it.rec, filter)
		if err != nil {
			fail(errors.Wrapf(err, "processing batch of %s", path))
			return
		}
		if out == nil {
			return
		}
		mu.Lock()
		results = append(results, out)
		mu.Unlock()
	}, &poolGauge{})
	pool.Run()

	if firstErr != nil {
		batch.Release(results)
		return nil, firstErr
	}
	var rows int64
	for _, rec := range results {
		rows += rec.NumRows()
	}
	CounterBatches.WithLabelValues(r.label).Add(float64(len(results)))
	CounterRows.WithLabelValues(r.label).Add(float64(rows))
	r.Logger.Debugf("read %s: %d batches, %d rows", path, len(results), rows)
	return results, nil
}

// feed streams records from rr into src until the file is exhausted, an
// error occurs, or ctx is cancelled. It always closes src.
//
// The record reader ends early with io.EOF when a data page fails to
// decode, so the end of the stream only counts as the end of the file once
// all of its rows have been read.
func (r *Reader) feed(ctx context.Context, path string, rr pqarrow.RecordReader, rows int64, src chan<- item) {
	defer close(src)
	var n int64
	for {
		if err := ctx.Err(); err != nil {
			src <- item{err: err}
			return
		}
		rec, err := rr.Read()
		if rec != nil && err == nil {
			n += rec.NumRows()
			rec.Retain()
			src <- item{rec: rec}
			continue
		}
		if err == io.EOF || err == nil {
			if n != rows {
				src <- item{err: errors.Newf(errors.ErrIO, "%s: truncated read, decoded %d of %d rows", path, n, rows)}
			}
			return
		}
		src <- item{err: errors.WithCode(errors.Wrapf(err, "decoding %s", path), errors.ErrFormat)}
		return
	}
}

// process applies the per-batch steps in order: subject filter,
// validation, layout normalization. A nil record means the batch was
// dropped.
func (r *Reader) process(rec arrow.Record, filter batch.Subjects) (arrow.Record, error) {
	if filter.Active() && register.IDColumn(rec.Schema()) < 0 {
		r.Logger.Debugf("batch has no subject identifier column, keeping all %d rows", rec.NumRows())
	}
	filtered, err := batch.Filter(rec, filter, r.Mem)
	if err != nil {
		return nil, err
	}
	if filtered == nil {
		CounterBatchesDropped.Inc()
		r.Logger.Debugf("dropped batch of %d rows: no subject matched", rec.NumRows())
		return nil, nil
	}
	defer filtered.Release()
	if filter.Active() {
		r.Logger.Debugf("kept %d of %d rows", filtered.NumRows(), rec.NumRows())
	}

	if err := batch.Validate(filtered); err != nil {
		r.Logger.Warnf("invalid batch: %v", err)
	}
	return batch.Normalize(filtered, r.Mem)
}

func (r *Reader) warnTruncated(worker int, path string, file, target *arrow.Schema) {
	if worker >= len(r.warned) {
		return
	}
	if !atomic.CompareAndSwapInt32(&r.warned[worker], 0, 1) {
		return
	}
	r.Logger.Warnf("worker %d: %s lacks some of the %d %s columns (file has %d); reading the columns they share",
		worker, path, len(target.Fields()), r.label, len(file.Fields()))
}

// withWorkers returns a copy of r which uses n workers and shares r's
// truncation warnings.
func (r *Reader) withWorkers(n int) *Reader {
	c := *r
	if n < 1 {
		n = 1
	}
	c.Workers = n
	if n > len(c.warned) {
		c.warned = make([]int32, n)
	}
	return &c
}
