package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ResolveDuration tracks targeting resolution latency per API surface.
	ResolveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "campaign_resolve_duration_seconds",
			Help:    "Duration of campaign targeting resolutions in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		},
		[]string{"surface", "status"}, // surface: dashboard|tablet, status: success|error
	)

	// CacheRequests counts per-station cache lookups by outcome.
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "campaign_cache_requests_total",
			Help: "Per-station resolution cache lookups by outcome",
		},
		[]string{"surface", "outcome"}, // outcome: hit|miss
	)
)

// ObserveResolve records one resolution on the given surface.
func ObserveResolve(surface string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ResolveDuration.WithLabelValues(surface, status).Observe(time.Since(start).Seconds())
}

func RecordCacheHit(surface string)  { CacheRequests.WithLabelValues(surface, "hit").Inc() }
func RecordCacheMiss(surface string) { CacheRequests.WithLabelValues(surface, "miss").Inc() }
