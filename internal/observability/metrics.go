// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Stream metrics
	DepositsDetected  prometheus.Counter
	BatchesSkipped    *prometheus.CounterVec
	DuplicatesSkipped *prometheus.CounterVec
	WSReconnects      prometheus.Counter
	WSConnected       prometheus.Gauge

	// Pipeline metrics
	TransactionsTotal    *prometheus.CounterVec
	OrdersPlaced         *prometheus.CounterVec
	TransfersSubmitted   *prometheus.CounterVec
	ManualReconciliation prometheus.Counter
	StageLatency         *prometheus.HistogramVec
}

// NewMetrics creates a Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "autoswap"
	}

	return &Metrics{
		DepositsDetected: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "deposits_detected_total",
			Help:      "Total number of qualifying USDC deposits handed to the forwarder",
		}),
		BatchesSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "batches_skipped_total",
			Help:      "Ledger batches discarded before processing, by reason",
		}, []string{"reason"}),
		DuplicatesSkipped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "duplicates_skipped_total",
			Help:      "Deposit events discarded as duplicates, by reason",
		}, []string{"reason"}),
		WSReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "ws_reconnects_total",
			Help:      "Total websocket reconnect attempts",
		}),
		WSConnected: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "ws_connected",
			Help:      "Whether the ledger stream connection is up (0 or 1)",
		}),
		TransactionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "transactions_total",
			Help:      "Transactions reaching a terminal status, by status",
		}, []string{"status"}),
		OrdersPlaced: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "orders_placed_total",
			Help:      "Spot orders submitted, by outcome",
		}, []string{"status"}),
		TransfersSubmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "transfers_total",
			Help:      "Forward transfers submitted, by outcome",
		}, []string{"status"}),
		ManualReconciliation: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "manual_reconciliation_total",
			Help:      "Transactions left holding a bought asset after a failed forward transfer",
		}),
		StageLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "stage_latency_seconds",
			Help:      "Pipeline stage latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordDepositDetected increments the deposits detected counter.
func RecordDepositDetected() {
	DefaultMetrics.DepositsDetected.Inc()
}

// RecordBatchSkipped records a discarded ledger batch.
func RecordBatchSkipped(reason string) {
	DefaultMetrics.BatchesSkipped.WithLabelValues(reason).Inc()
}

// RecordDuplicateSkipped records a duplicate deposit event.
func RecordDuplicateSkipped(reason string) {
	DefaultMetrics.DuplicatesSkipped.WithLabelValues(reason).Inc()
}

// RecordReconnect increments the websocket reconnect counter.
func RecordReconnect() {
	DefaultMetrics.WSReconnects.Inc()
}

// SetConnected updates the connection gauge.
func SetConnected(up bool) {
	if up {
		DefaultMetrics.WSConnected.Set(1)
	} else {
		DefaultMetrics.WSConnected.Set(0)
	}
}

// RecordTransaction records a transaction reaching a terminal status.
func RecordTransaction(status string) {
	DefaultMetrics.TransactionsTotal.WithLabelValues(status).Inc()
}

// RecordOrder records an order submission outcome.
func RecordOrder(status string) {
	DefaultMetrics.OrdersPlaced.WithLabelValues(status).Inc()
}

// RecordTransfer records a transfer submission outcome.
func RecordTransfer(status string) {
	DefaultMetrics.TransfersSubmitted.WithLabelValues(status).Inc()
}

// RecordManualReconciliation flags a bought-but-not-forwarded state.
func RecordManualReconciliation() {
	DefaultMetrics.ManualReconciliation.Inc()
}

// RecordStageLatency records one pipeline stage duration.
func RecordStageLatency(stage string, seconds float64) {
	DefaultMetrics.StageLatency.WithLabelValues(stage).Observe(seconds)
}
