// Package metrics exposes Prometheus collectors for the forecast service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pricecast"

// Cache lookup results.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Price update outcomes.
const (
	UpdateSuccess = "success"
	UpdateFailure = "failure"
)

// Collector owns a private registry so several instances can coexist in tests.
type Collector struct {
	registry *prometheus.Registry

	forecasts     *prometheus.CounterVec
	inference     *prometheus.HistogramVec
	priceUpdates  *prometheus.CounterVec
	cacheRequests *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
}

// NewCollector creates and registers every collector, including Go runtime
// and process collectors.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		forecasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecasts_total",
			Help:      "Forecasts generated, by model, scenario and recommended action.",
		}, []string{"model", "scenario", "action"}),
		inference: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "forecast_inference_seconds",
			Help:      "Time spent inside the forecasting model.",
			Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}, []string{"model"}),
		priceUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_updates_total",
			Help:      "Per-product price update attempts by outcome.",
		}, []string{"status"}),
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forecast_cache_requests_total",
			Help:      "Forecast cache lookups by result.",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.forecasts,
		c.inference,
		c.priceUpdates,
		c.cacheRequests,
		c.httpRequests,
	)
	return c
}

// RecordForecast counts one forecast and observes its model time.
func (c *Collector) RecordForecast(model, scenario, action string, inference time.Duration) {
	c.forecasts.WithLabelValues(model, scenario, action).Inc()
	c.inference.WithLabelValues(model).Observe(inference.Seconds())
}

// RecordPriceUpdate counts one per-product update attempt.
func (c *Collector) RecordPriceUpdate(status string) {
	c.priceUpdates.WithLabelValues(status).Inc()
}

// RecordCacheLookup counts a forecast cache hit or miss.
func (c *Collector) RecordCacheLookup(hit bool) {
	result := CacheMiss
	if hit {
		result = CacheHit
	}
	c.cacheRequests.WithLabelValues(result).Inc()
}

// RecordHTTPRequest counts a served request.
func (c *Collector) RecordHTTPRequest(method, route, status string) {
	c.httpRequests.WithLabelValues(method, route, status).Inc()
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
