// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0

package cache

import "github.com/prometheus/client_golang/prometheus"

const (
	MetricHits       = "hits_total"
	MetricMisses     = "misses_total"
	MetricPrefetched = "prefetched_total"
)

var CounterHits = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "ids",
		Subsystem: "cache",
		Name:      MetricHits,
		Help:      "Covariate lookups answered from the cache.",
	},
)

var CounterMisses = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "ids",
		Subsystem: "cache",
		Name:      MetricMisses,
		Help:      "Covariate lookups sent to the register store.",
	},
)

var CounterPrefetched = prometheus.NewCounter(
	prometheus.CounterOpts{
		Namespace: "ids",
		Subsystem: "cache",
		Name:      MetricPrefetched,
		Help:      "Entries added by bulk prefetch.",
	},
)

func init() {
	prometheus.MustRegister(CounterHits)
	prometheus.MustRegister(CounterMisses)
	prometheus.MustRegister(CounterPrefetched)
}
