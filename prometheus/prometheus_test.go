// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package prometheus_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/featurebasedb/ids/cache"
	"github.com/featurebasedb/ids/covariate"
	"github.com/featurebasedb/ids/ingest"
	"github.com/featurebasedb/ids/register"
	"github.com/featurebasedb/ids/store"
	"github.com/featurebasedb/ids/test"
	"github.com/prometheus/client_golang/prometheus"
	io_prometheus_client "github.com/prometheus/client_model/go"
)

func TestPrometheusClient_Methods(t *testing.T) {
	// Touch every vector once so that it has a series to gather.
	path := filepath.Join(t.TempDir(), "2020.parquet")
	rec := test.NewRecord(nil, test.Strs(register.ColPNR, "A"), test.F64(register.ColIncome, 1.0))
	defer rec.Release()
	test.MustWriteParquet(t, path, rec)
	recs, err := ingest.NewReader(0, 2, nil).ReadFile(context.Background(), path, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range recs {
		r.Release()
	}
	c := cache.New(store.New(nil, nil), 0, nil)
	if _, err := c.GetOrLoad(cache.NewKey("A", covariate.Income, time.Now())); err != nil {
		t.Fatal(err)
	}

	metricFams, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, metricName := range []string{
		"ids_ingest_files_total",
		"ids_ingest_batches_total",
		"ids_ingest_rows_total",
		"ids_ingest_batches_dropped_total",
		"ids_ingest_schema_truncations_total",
		"ids_ingest_workers",
		"ids_cache_hits_total",
		"ids_cache_misses_total",
		"ids_cache_prefetched_total",
	} {
		if metricExists(metricName, metricFams) {
			continue
		}
		t.Fatalf("metric does not exist: %s", metricName)
	}
}

func metricExists(metricName string, metricFams []*io_prometheus_client.MetricFamily) bool {
	for _, metricFam := range metricFams {
		if metricFam.GetName() == metricName {
			return true
		}
	}
	return false
}
