// Package metrics exposes Prometheus instrumentation for the service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds all metrics. A nil *Collector is valid and records nothing,
// which keeps tests free of registry wiring.
type Collector struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	FeedBuilds   *prometheus.CounterVec
	FeedDuration *prometheus.HistogramVec
	FeedSize     *prometheus.HistogramVec

	SignalDecisions  *prometheus.CounterVec
	CatalogRefreshes *prometheus.CounterVec
	GeocoderCalls    *prometheus.CounterVec
}

func New(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
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
		FeedBuilds: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "feed_builds_total",
				Help:      "Feed builds by feed type and outcome",
			},
			[]string{"type", "outcome"},
		),
		FeedDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "feed_build_duration_seconds",
				Help:      "Time spent assembling a feed",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"type"},
		),
		FeedSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "feed_size_posts",
				Help:      "Number of posts returned per feed",
				Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
			},
			[]string{"type"},
		),
		SignalDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "signal_add_decisions_total",
				Help:      "Signal selection validation outcomes",
			},
			[]string{"allowed"},
		),
		CatalogRefreshes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "catalog_refreshes_total",
				Help:      "Signal catalog snapshot refreshes",
			},
			[]string{"outcome"},
		),
		GeocoderCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "geocoder_calls_total",
				Help:      "Geocoder lookups by source",
			},
			[]string{"source"},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.HTTPRequests,
		c.HTTPDuration,
		c.FeedBuilds,
		c.FeedDuration,
		c.FeedSize,
		c.SignalDecisions,
		c.CatalogRefreshes,
		c.GeocoderCalls,
	)

	return c
}

func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, statusClass(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (c *Collector) ObserveFeed(feedType string, size int, elapsed time.Duration, err error) {
	if c == nil {
		return
	}
	if err != nil {
		c.FeedBuilds.WithLabelValues(feedType, "error").Inc()
		return
	}
	c.FeedBuilds.WithLabelValues(feedType, "ok").Inc()
	c.FeedDuration.WithLabelValues(feedType).Observe(elapsed.Seconds())
	c.FeedSize.WithLabelValues(feedType).Observe(float64(size))
}

func (c *Collector) ObserveSignalDecision(allowed bool) {
	if c == nil {
		return
	}
	if allowed {
		c.SignalDecisions.WithLabelValues("true").Inc()
		return
	}
	c.SignalDecisions.WithLabelValues("false").Inc()
}

func (c *Collector) ObserveCatalogRefresh(err error) {
	if c == nil {
		return
	}
	if err != nil {
		c.CatalogRefreshes.WithLabelValues("error").Inc()
		return
	}
	c.CatalogRefreshes.WithLabelValues("ok").Inc()
}

func (c *Collector) ObserveGeocode(source string) {
	if c == nil {
		return
	}
	c.GeocoderCalls.WithLabelValues(source).Inc()
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
