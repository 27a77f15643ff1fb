// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 OTLib Contributors

package access

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics for access evaluation.
var (
	// checkDuration tracks the latency of CheckAccess calls.
	checkDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "otlib_check_access_duration_seconds",
		Help:    "Histogram of access check latency in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// checkOutcomes counts checks by outcome ("allowed" or the denial
	// level) and denial kind ("" when allowed).
	checkOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "otlib_check_access_total",
		Help: "Total number of access checks by outcome and denial kind",
	}, []string{"outcome", "kind"})
)

// recordCheck records metrics for one completed evaluation.
func recordCheck(duration time.Duration, cond *Condition) {
	checkDuration.Observe(duration.Seconds())
	if cond == nil {
		checkOutcomes.WithLabelValues("allowed", "").Inc()
		return
	}
	checkOutcomes.WithLabelValues(cond.Level().String(), cond.Kind().String()).Inc()
}
