package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tsuzuri_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tsuzuri_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	// Generation metrics
	generationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tsuzuri_generation_requests_total",
			Help: "Total number of reply generation requests",
		},
		[]string{"provider", "status"},
	)

	generationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tsuzuri_generation_duration_seconds",
			Help:    "Reply generation duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	// Speech synthesis metrics
	synthesisRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tsuzuri_synthesis_requests_total",
			Help: "Total number of speech synthesis requests",
		},
		[]string{"synthesizer", "status"},
	)

	synthesisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tsuzuri_synthesis_duration_seconds",
			Help:    "Speech synthesis duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"synthesizer"},
	)

	// Diary metrics
	diaryOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tsuzuri_diary_operations_total",
			Help: "Total number of diary store operations",
		},
		[]string{"op", "status"},
	)

	// Session metrics
	sessionTurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tsuzuri_session_turns_total",
			Help: "Total number of conversation turns appended",
		},
		[]string{"role"},
	)

	sessionActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "tsuzuri_session_active",
			Help: "Whether a writing session is currently active",
		},
	)

	initOnce sync.Once
)

// InitMetrics initializes Prometheus metrics
func InitMetrics() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestsTotal,
			httpRequestDuration,
			generationRequestsTotal,
			generationDuration,
			synthesisRequestsTotal,
			synthesisDuration,
			diaryOperationsTotal,
			sessionTurnsTotal,
			sessionActive,
		)
	})
}

// MetricsHandler returns an HTTP handler for Prometheus metrics
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records HTTP request metrics
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordGeneration records reply generation metrics
func RecordGeneration(provider, status string, duration time.Duration) {
	generationRequestsTotal.WithLabelValues(provider, status).Inc()
	generationDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordSynthesis records speech synthesis metrics
func RecordSynthesis(synthesizer, status string, duration time.Duration) {
	synthesisRequestsTotal.WithLabelValues(synthesizer, status).Inc()
	synthesisDuration.WithLabelValues(synthesizer).Observe(duration.Seconds())
}

// RecordDiaryOperation records diary store operation metrics
func RecordDiaryOperation(op, status string) {
	diaryOperationsTotal.WithLabelValues(op, status).Inc()
}

// RecordSessionTurn records a conversation turn by role
func RecordSessionTurn(role string) {
	sessionTurnsTotal.WithLabelValues(role).Inc()
}

// SetSessionActive sets the active session gauge
func SetSessionActive(active bool) {
	if active {
		sessionActive.Set(1)
	} else {
		sessionActive.Set(0)
	}
}
