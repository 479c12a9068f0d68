package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label names
const (
	LabelOp      = "op"
	LabelChanged = "changed"
	LabelResult  = "result"
	LabelMethod  = "method"
	LabelPath    = "path"
	LabelStatus  = "status"
)

// Import results
const (
	ImportAccepted = "accepted"
	ImportRejected = "rejected"
)

// HTTPLatencyBuckets covers a local UI; everything should be well under a second.
var HTTPLatencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1}

// Board metrics
var (
	TransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bottles_transitions_total",
			Help: "Total number of state transitions applied, by operation and whether state changed",
		},
		[]string{LabelOp, LabelChanged},
	)

	ImportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bottles_imports_total",
			Help: "Total number of snapshot imports, by result",
		},
		[]string{LabelResult},
	)

	BoardSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bottles_board_size",
			Help: "Number of bottles on the board after the last operation",
		},
	)
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		},
	)
)

// RecordTransition counts one applied operation and updates the board size.
func RecordTransition(op string, changed bool, boardSize int) {
	TransitionsTotal.WithLabelValues(op, strconv.FormatBool(changed)).Inc()
	BoardSize.Set(float64(boardSize))
}

// RecordImport counts an import attempt.
func RecordImport(accepted bool) {
	result := ImportRejected
	if accepted {
		result = ImportAccepted
	}
	ImportsTotal.WithLabelValues(result).Inc()
}
