package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce          sync.Once
	apiRequestsTotal      *prometheus.CounterVec
	apiLatencySeconds     *prometheus.HistogramVec
	apiErrorsTotal        *prometheus.CounterVec
	settingsSubscribers   prometheus.Gauge
	settingsEventsTotal   *prometheus.CounterVec
	assistantSessions     prometheus.Gauge
	assistantOutcomeTotal *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "siswa_api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "siswa_api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "siswa_api_errors_total",
			Help: "Total number of error responses returned by the API.",
		}, []string{"method", "route", "status"})

		settingsSubscribers = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "siswa_settings_subscribers",
			Help: "Number of open settings change subscriptions.",
		})

		settingsEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "siswa_settings_events_total",
			Help: "Settings change events broadcast by type.",
		}, []string{"type"})

		assistantSessions = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "siswa_assistant_sessions",
			Help: "Number of assistant chat sessions held in memory.",
		})

		assistantOutcomeTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "siswa_assistant_messages_total",
			Help: "Assistant submissions by outcome.",
		}, []string{"outcome"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			settingsSubscribers,
			settingsEventsTotal,
			assistantSessions,
			assistantOutcomeTotal,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// SettingsSubscribers exposes the open subscription gauge.
func SettingsSubscribers() prometheus.Gauge {
	RegisterMetrics()
	return settingsSubscribers
}

// SettingsEvents exposes the settings broadcast counter.
func SettingsEvents() *prometheus.CounterVec {
	RegisterMetrics()
	return settingsEventsTotal
}

// AssistantSessions exposes the in-memory session gauge.
func AssistantSessions() prometheus.Gauge {
	RegisterMetrics()
	return assistantSessions
}

// AssistantOutcomes exposes the assistant outcome counter.
func AssistantOutcomes() *prometheus.CounterVec {
	RegisterMetrics()
	return assistantOutcomeTotal
}
