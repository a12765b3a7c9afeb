// Package metrics owns the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds every metric the server records.  Each instance has its
// own registry so tests can build as many as they like.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	AuthRejections *prometheus.CounterVec
	NearbyResults  prometheus.Histogram
	MemoEvents     *prometheus.CounterVec
	CacheLookups   *prometheus.CounterVec
}

func New(namespace string) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		registry: reg,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		AuthRejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_rejections_total",
				Help:      "Requests rejected by the authentication gate, by reason",
			},
			[]string{"reason"},
		),
		NearbyResults: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "nearby_result_size",
				Help:      "Number of memos returned by nearby queries",
				Buckets:   []float64{0, 1, 5, 10, 20, 50, 100},
			},
		),
		MemoEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "memo_events_published_total",
				Help:      "Memo events handed to the broker, by type and outcome",
			},
			[]string{"type", "outcome"},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "response_cache_lookups_total",
				Help:      "Response cache lookups, by result",
			},
			[]string{"result"},
		),
	}

	reg.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.AuthRejections,
		c.NearbyResults,
		c.MemoEvents,
		c.CacheLookups,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// RejectAuth counts one gate rejection.  Safe on a nil Collector.
func (c *Collector) RejectAuth(reason string) {
	if c == nil {
		return
	}
	c.AuthRejections.WithLabelValues(reason).Inc()
}

// ObserveNearby records the size of a nearby result.  Safe on a nil Collector.
func (c *Collector) ObserveNearby(n int) {
	if c == nil {
		return
	}
	c.NearbyResults.Observe(float64(n))
}

// MemoEvent counts a publish attempt.  Safe on a nil Collector.
func (c *Collector) MemoEvent(eventType string, err error) {
	if c == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.MemoEvents.WithLabelValues(eventType, outcome).Inc()
}

// CacheLookup counts a cache hit or miss.  Safe on a nil Collector.
func (c *Collector) CacheLookup(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.CacheLookups.WithLabelValues(result).Inc()
}
