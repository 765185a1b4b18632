package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	scoringRequestsTotal  *prometheus.CounterVec
	scoringLatencySeconds *prometheus.HistogramVec
	scoringErrorsTotal    *prometheus.CounterVec
	scoreLinesTotal       *prometheus.CounterVec
	capRejectionsTotal    *prometheus.CounterVec
	auditEntriesTotal     *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the scoring API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		scoringRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scoring_requests_total",
			Help: "Total number of scoring API requests served.",
		}, []string{"method", "route", "status"})

		scoringLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scoring_latency_seconds",
			Help:    "Latency distribution for scoring API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		scoringErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scoring_errors_total",
			Help: "Total number of error responses returned by scoring endpoints.",
		}, []string{"method", "route", "status"})

		scoreLinesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "score_lines_total",
			Help: "Score lines written, by ledger and score type.",
		}, []string{"ledger", "score_type"})

		capRejectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "score_cap_rejections_total",
			Help: "Automatic score lines rejected for exceeding a criterion cap.",
		}, []string{"ledger"})

		auditEntriesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "score_audit_entries_total",
			Help: "Audit entries written by the manual override workflow.",
		}, []string{"action"})

		prometheus.MustRegister(
			scoringRequestsTotal,
			scoringLatencySeconds,
			scoringErrorsTotal,
			scoreLinesTotal,
			capRejectionsTotal,
			auditEntriesTotal,
		)
	})
}

// ScoringRequests exposes the counter for scoring API requests.
func ScoringRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return scoringRequestsTotal
}

// ScoringLatency exposes the latency histogram for scoring API requests.
func ScoringLatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return scoringLatencySeconds
}

// ScoringErrors exposes the counter for scoring error responses.
func ScoringErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return scoringErrorsTotal
}

// ScoreLines exposes the counter for written score lines.
func ScoreLines() *prometheus.CounterVec {
	RegisterMetrics()
	return scoreLinesTotal
}

// CapRejections exposes the counter for cap-policy rejections.
func CapRejections() *prometheus.CounterVec {
	RegisterMetrics()
	return capRejectionsTotal
}

// AuditEntries exposes the counter for written audit entries.
func AuditEntries() *prometheus.CounterVec {
	RegisterMetrics()
	return auditEntriesTotal
}
