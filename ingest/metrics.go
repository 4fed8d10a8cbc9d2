// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package ingest

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	MetricFiles             = "files_total"
	MetricBatches           = "batches_total"
	MetricRows              = "rows_total"
	MetricBatchesDropped    = "batches_dropped_total"
	MetricSchemaTruncations = "schema_truncations_total"
	MetricWorkers           = "workers"

	metricNamespace = "ids"
	metricSubsystem = "ingest"

	labelRegister = "register"
	labelStat     = "status"
	statusOK      = "ok"
	statusError   = "error"
)

var CounterFiles = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: metricNamespace,
		Subsystem: metricSubsystem,
		Name:      MetricFiles,
		Help:      "Register files read, by outcome.",
	},
	[]string{labelRegister, labelStat},
)

var CounterBatches = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: metricNamespace,
		Subsystem: metricSubsystem,
		Name:      MetricBatches,
		Help:      "Record batches kept after filtering.",
	},
	[]string{labelRegister},
)

var CounterRows = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: metricNamespace,
		Subsystem: metricSubsystem,
		Name:      MetricRows,
		Help:      "Rows kept after filtering.",
	},
	[]string{labelRegister},
)

var CounterBatchesDropped = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: metricNamespace,
		Subsystem: metricSubsystem,
		Name:      MetricBatchesDropped,
		Help:      "Record batches with no row matching the subject filter.",
	},
)

var CounterSchemaTruncations = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: metricNamespace,
		Subsystem: metricSubsystem,
		Name:      MetricSchemaTruncations,
		Help:      "Files read with fewer columns than the register schema.",
	},
)

var GaugeWorkers = prometheus.NewGauge(
	prometheus.GaugeOpts{
		Namespace: metricNamespace,
		Subsystem: metricSubsystem,
		Name:      MetricWorkers,
		Help:      "Decode workers currently running.",
	},
)

func init() {
	prometheus.MustRegister(CounterFiles)
	prometheus.MustRegister(CounterBatches)
	prometheus.MustRegister(CounterRows)
	prometheus.MustRegister(CounterBatchesDropped)
	prometheus.MustRegister(CounterSchemaTruncations)
	prometheus.MustRegister(GaugeWorkers)
}

// poolGauge feeds one pool's live worker count into GaugeWorkers. Several
// pools run at once, so it adds the change since its last report rather
// than setting the gauge.
type poolGauge struct {
	mu   sync.Mutex
	last int
}

func (g *poolGauge) PoolSize(n int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	GaugeWorkers.Add(float64(n - g.last))
	g.last = n
}
