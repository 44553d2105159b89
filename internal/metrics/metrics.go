package metrics

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"code", "method", "path"},
	)
	httpRequestsDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current Number of HTTP requests being processed.",
		},
	)

	paymentPollCycles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_status_poll_cycles_total",
			Help: "Payment status poll cycles by outcome.",
		},
		[]string{"outcome"},
	)

	paymentPollDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "payment_status_poll_duration_seconds",
			Help:    "Duration of a single payment status request.",
			Buckets: prometheus.DefBuckets,
		},
	)

	paymentTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_status_transitions_total",
			Help: "Payment status transitions observed by watchers.",
		},
		[]string{"status"},
	)

	paymentWatchersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "payment_status_watchers_active",
			Help: "Number of running payment status watchers.",
		},
	)

	paymentWatchersDegraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_status_watcher_health_changes_total",
			Help: "Watcher health changes by resulting health.",
		},
		[]string{"health"},
	)

	countdownExpirations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_countdown_expirations_total",
			Help: "Expired payment countdowns by expiry policy.",
		},
		[]string{"policy"},
	)
)

func init() {
	if err := prometheus.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		slog.Debug("ProcessCollector registration skipped (likely already registered)",
			slog.String("error", err.Error()))
	}

	if err := prometheus.Register(collectors.NewGoCollector()); err != nil {
		slog.Debug("GoCollector registration skipped (likely already registered)",
			slog.String("error", err.Error()))
	}
}

func ObservePoll(outcome string, duration time.Duration) {
	paymentPollCycles.WithLabelValues(outcome).Inc()
	paymentPollDuration.Observe(duration.Seconds())
}

func PaymentTransition(status string) {
	paymentTransitions.WithLabelValues(status).Inc()
}

func WatcherStarted() {
	paymentWatchersActive.Inc()
}

func WatcherStopped() {
	paymentWatchersActive.Dec()
}

func WatcherHealthChanged(health string) {
	paymentWatchersDegraded.WithLabelValues(health).Inc()
}

func CountdownExpired(policy string) {
	countdownExpirations.WithLabelValues(policy).Inc()
}

// wrapper around http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		start := time.Now()
		httpRequestsInFlight.Inc()

		rw := newResponseWriter(w)

		// r.Pattern is set by the mux once routing has happened
		next.ServeHTTP(rw, r)

		pathPattern := r.Pattern
		if pathPattern == "" {
			pathPattern = "unmatched"
		}

		duration := time.Since(start)
		statusCodeStr := strconv.Itoa(rw.statusCode)

		httpRequestsTotal.WithLabelValues(statusCodeStr, r.Method, pathPattern).Inc()
		httpRequestsDuration.WithLabelValues(r.Method, pathPattern).Observe(duration.Seconds())
		httpRequestsInFlight.Dec()

	})
}

// http.Handler for the Prometheus /metrics endpoint
func Handler() http.Handler {

	return promhttp.Handler()
}
