// Package metrics defines the custom Prometheus metrics of the inventory API.
// It is the single source of truth for metric names, labels and help strings.
//
// Metrics are registered with the default registry on package init via promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "inventory"

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts authentication operations.
// Labels:
//   - operation: "register", "login" or "logout"
//   - result: "success" or "failure"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of authentication operations, by operation and result.",
	},
	[]string{"operation", "result"},
)

// ── Item metrics ──────────────────────────────────────────────────────────────

// ItemMutationsTotal counts successful item writes.
// Label:
//   - operation: "create", "update" or "delete"
var ItemMutationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "item_mutations_total",
		Help:      "Total number of successful item mutations, by operation.",
	},
	[]string{"operation"},
)

// ItemSearchDuration measures how long an item listing or search takes.
var ItemSearchDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "item_search_duration_seconds",
		Help:      "Duration of item list and search queries.",
		Buckets:   prometheus.DefBuckets,
	},
)

// ItemSearchResults observes how many items a listing returned.
var ItemSearchResults = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "item_search_results",
		Help:      "Number of items returned per list or search query.",
		Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
	},
)

// ObserveAuth records one authentication attempt.
func ObserveAuth(operation string, err error) {
	result := ResultSuccess
	if err != nil {
		result = ResultFailure
	}
	AuthAttemptsTotal.WithLabelValues(operation, result).Inc()
}
