// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"math"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/array"
	"github.com/featurebasedb/ids/register"
)

// linearScanMax is the largest batch searched row by row. Bigger batches
// are searched in chunks of about √N rows.
const linearScanMax = 1000

// Lookup finds subject in the batches of register k for period and returns
// the batch and row holding it.
func (s *Store) Lookup(k register.Kind, period, subject string) (batchIdx, row int, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookupLocked(k, period, subject)
}

// lookupLocked trusts an index entry only if the batch it names still
// holds subject at that row. Otherwise each batch is searched.
func (s *Store) lookupLocked(k register.Kind, period, subject string) (int, int, bool) {
	recs := s.batches[k][period]
	if l, ok := s.index[indexKey{kind: k, period: period, id: subject}]; ok && l.batch < len(recs) {
		if ids := idColumn(recs[l.batch]); ids != nil && l.row < ids.Len() &&
			!ids.IsNull(l.row) && ids.Value(l.row) == subject {
			return l.batch, l.row, true
		}
	}
	for b, rec := range recs {
		if row := searchBatch(rec, subject); row >= 0 {
			return b, row, true
		}
	}
	return 0, 0, false
}

// searchBatch returns the row of rec holding subject, or -1.
func searchBatch(rec arrow.Record, subject string) int {
	ids := idColumn(rec)
	if ids == nil {
		return -1
	}
	n := ids.Len()
	if n <= linearScanMax {
		return scan(ids, subject, 0, n)
	}

	size := int(math.Sqrt(float64(n)))
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		lo, hi, ok := bounds(ids, start, end)
		if !ok {
			continue
		}
		// Chunks whose first value sorts after the last are reversed or
		// rotated, so their bounds say nothing and they are always scanned.
		if lo <= hi && (subject < lo || subject > hi) {
			continue
		}
		if row := scan(ids, subject, start, end); row >= 0 {
			return row
		}
	}
	return -1
}

// bounds returns the first and last non-null values of ids[start:end].
func bounds(ids *array.String, start, end int) (first, last string, ok bool) {
	i, j := start, end-1
	for i < end && ids.IsNull(i) {
		i++
	}
	for j >= start && ids.IsNull(j) {
		j--
	}
	if i > j {
		return "", "", false
	}
	return ids.Value(i), ids.Value(j), true
}

func scan(ids *array.String, subject string, start, end int) int {
	for i := start; i < end; i++ {
		if !ids.IsNull(i) && ids.Value(i) == subject {
			return i
		}
	}
	return -1
}
