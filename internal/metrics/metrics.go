package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "controleisp_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "controleisp_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	searchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "controleisp_cross_provider_searches_total",
		Help: "Cross-provider searches by mode and result",
	}, []string{"mode", "result"})

	duplicateChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "controleisp_duplicate_checks_total",
		Help: "Duplicate CPF checks by outcome",
	}, []string{"status"})

	exportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "controleisp_exports_total",
		Help: "Client book exports by result",
	}, []string{"result"})
)

func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func ObserveSearch(mode, result string) {
	searchesTotal.WithLabelValues(mode, result).Inc()
}

func ObserveDuplicateCheck(status string) {
	duplicateChecksTotal.WithLabelValues(status).Inc()
}

func ObserveExport(result string) {
	exportsTotal.WithLabelValues(result).Inc()
}
