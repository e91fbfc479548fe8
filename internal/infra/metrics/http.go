package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(httpDuration)
}

var httpDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_ms",
		Help:    "HTTP request latency distribution in milliseconds.",
		Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600, 3000},
	},
	[]string{"path", "method", "status"},
)

func ObserveHTTP(path, method, status string, ms float64) {
	httpDuration.WithLabelValues(path, norm(method), status).Observe(ms)
}
