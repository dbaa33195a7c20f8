package restrpc

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// clientMetrics records per-route dispatch outcomes. Status label "0" means
// the transport failed before a status was obtained.
type clientMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newClientMetrics(reg prometheus.Registerer) *clientMetrics {
	factory := promauto.With(reg)
	return &clientMetrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "restrpc",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Client calls by route and response status.",
		}, []string{"method", "path", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "restrpc",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Client call latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
	}
}

func (m *clientMetrics) observe(route *RouteDescriptor, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(route.method, route.path, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route.method, route.path).Observe(elapsed.Seconds())
}
