package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "invoicedesk_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "invoicedesk_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	fileOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "invoicedesk_file_operations_total",
		Help: "Count of attachment file transitions by operation and result",
	}, []string{"operation", "result"})

	invoiceDispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "invoicedesk_invoice_dispatches_total",
		Help: "Count of invoice mail dispatch attempts by result",
	}, []string{"result"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveFileOp counts a filesystem transition paired with a database write.
func ObserveFileOp(operation, result string) {
	fileOperations.WithLabelValues(operation, result).Inc()
}

// ObserveDispatch counts an invoice mail dispatch attempt.
func ObserveDispatch(result string) {
	invoiceDispatches.WithLabelValues(result).Inc()
}
