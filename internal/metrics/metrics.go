package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"shelfhub/pkg/entity"
)

const namespace = "shelfhub"

// Result labels shared by every protocol.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultInvalid  = "invalid"
	ResultBackend  = "backend"
	ResultLimited  = "rate_limited"
)

var (
	// Registry holds the application collectors.
	Registry = prometheus.NewRegistry()

	requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Entity operations handled, by protocol and outcome.",
		},
		[]string{"protocol", "entity", "op", "result"},
	)

	duration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Duration of entity operations.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"protocol"},
	)
)

func init() {
	Registry.MustRegister(
		requests,
		duration,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Observe records one entity operation.
func Observe(protocol, entityName, op, result string, elapsed time.Duration) {
	requests.WithLabelValues(protocol, entityName, op, result).Inc()
	duration.WithLabelValues(protocol).Observe(elapsed.Seconds())
}

// Result maps an entity operation error onto a result label.
func Result(err error) string {
	if err == nil {
		return ResultOK
	}
	return entity.KindOf(err).String()
}

// Handler exposes the registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
