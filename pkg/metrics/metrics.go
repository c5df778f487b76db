// Package metrics holds the Prometheus collectors of the ledger.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "wallet_ledger"

var (
	// OperationsTotal counts facade calls by operation and result code.
	OperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Ledger operations by operation and result code.",
		},
		[]string{"operation", "code"},
	)

	OperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Latency of ledger operations.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	ReservationsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reservations_expired_total",
			Help:      "Pending reservations moved to expired by the sweeper.",
		},
	)

	NotificationDeliveries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_notifications_total",
			Help:      "Reservation token deliveries by final status.",
		},
		[]string{"status"},
	)
)

var registerOnce sync.Once

// Register adds the collectors to the default registry. Safe to call twice.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(OperationsTotal, OperationDuration, ReservationsExpired, NotificationDeliveries)
	})
}

// ObserveOperation records one facade call.
func ObserveOperation(operation, code string, elapsed time.Duration) {
	OperationsTotal.WithLabelValues(operation, code).Inc()
	OperationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
