package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bookingdesk"

// Outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeStale = "stale"
)

var (
	once sync.Once

	apiRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Outbound booking API requests by endpoint and outcome.",
		},
		[]string{"endpoint", "outcome"},
	)

	apiDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Latency of outbound booking API requests.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	viewActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "viewmodel_actions_total",
			Help:      "Slot view actions (load, book, cancel) by outcome.",
		},
		[]string{"action", "outcome"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(apiRequests, apiDuration, viewActions)
	})
}

// ObserveAPI records one outbound request.
func ObserveAPI(endpoint string, started time.Time, err error) {
	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeError
	}
	apiRequests.WithLabelValues(endpoint, outcome).Inc()
	apiDuration.WithLabelValues(endpoint).Observe(time.Since(started).Seconds())
}

// IncAction counts a view-model action.
func IncAction(action, outcome string) {
	viewActions.WithLabelValues(action, outcome).Inc()
}
