package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate on the local web surface.
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency on the local web surface.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent web requests in flight.
	HTTPRequestsInFlight prometheus.Gauge

	// Weatherstack call rate by status. Watch for: provider_error vs success ratio.
	WeatherAPICallsTotal *prometheus.CounterVec

	// Provider latency per request.
	WeatherAPIDuration *prometheus.HistogramVec

	// Lookups by outcome ("success" or an error category).
	WeatherLookupsTotal *prometheus.CounterVec

	// Lookups cancelled because a newer trigger arrived while they were in flight.
	WeatherLookupsSupersededTotal prometheus.Counter

	// UI state machine transitions by target state.
	UIStateTransitionsTotal *prometheus.CounterVec
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	WeatherAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherApiCallsTotal",
			Help: "Total number of Weatherstack API calls",
		},
		[]string{"status"},
	)
	WeatherAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherApiDurationSeconds",
			Help:    "Weatherstack API latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)
	WeatherLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherLookupsTotal",
			Help: "Total number of weather lookups by outcome",
		},
		[]string{"outcome"},
	)
	WeatherLookupsSupersededTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "weatherLookupsSupersededTotal",
			Help: "Lookups cancelled by a newer trigger before they completed",
		},
	)
	UIStateTransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uiStateTransitionsTotal",
			Help: "UI state machine transitions by target state",
		},
		[]string{"to"},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		WeatherAPICallsTotal, WeatherAPIDuration,
		WeatherLookupsTotal, WeatherLookupsSupersededTotal,
		UIStateTransitionsTotal,
	)
}

// RecordLookup counts one finished lookup under outcome.
func RecordLookup(outcome string) {
	if outcome == "" {
		outcome = "success"
	}
	WeatherLookupsTotal.WithLabelValues(outcome).Inc()
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
