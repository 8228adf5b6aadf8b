// Package metrics collects Prometheus metrics for Ridwell API traffic and
// exposes them for scraping.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ridwell"

// Collector records request pipeline activity. It satisfies
// graphql.Recorder.
type Collector struct {
	attempts  *prometheus.CounterVec
	refreshes *prometheus.CounterVec
	failures  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		// Labels:
		//   - operation: GraphQL operation name (e.g. "createAuthentication")
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_attempts_total",
			Help:      "Total number of HTTP attempts sent to the Ridwell API.",
		}, []string{"operation"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_refreshes_total",
			Help:      "Total number of re-authentications triggered by an expired session.",
		}, []string{"operation"}),
		// Labels:
		//   - kind: "transport", "invalid_credentials", "refresh_exhausted", "request"
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "request_failures_total",
			Help:      "Total number of requests that ended in an error, by error kind.",
		}, []string{"operation", "kind"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Duration of single HTTP attempts against the Ridwell API.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	reg.MustRegister(c.attempts, c.refreshes, c.failures, c.latency)
	return c
}

// RecordAttempt counts one HTTP attempt and its duration.
func (c *Collector) RecordAttempt(operation string, d time.Duration) {
	c.attempts.WithLabelValues(operation).Inc()
	c.latency.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordRefresh counts one re-authentication.
func (c *Collector) RecordRefresh(operation string) {
	c.refreshes.WithLabelValues(operation).Inc()
}

// RecordFailure counts one failed request.
func (c *Collector) RecordFailure(operation, kind string) {
	c.failures.WithLabelValues(operation, kind).Inc()
}

// Handler returns an HTTP handler serving the metrics in gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
