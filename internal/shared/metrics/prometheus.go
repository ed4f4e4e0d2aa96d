package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// Business metrics
	clientsRegistered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "clients_registered_total",
			Help: "Total number of clients registered",
		},
	)

	programsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "programs_created_total",
			Help: "Total number of programs created",
		},
		[]string{"category"},
	)

	enrollmentsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "enrollments_created_total",
			Help: "Total number of enrollment records created",
		},
	)

	enrollmentsRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "enrollments_removed_total",
			Help: "Total number of enrollment records removed",
		},
	)

	loginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Total number of login attempts",
		},
		[]string{"outcome"},
	)

	appointmentsImported = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "appointments_imported_total",
			Help: "Total number of appointments imported from the legacy HIS",
		},
	)

	// Database metrics
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)
)

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware creates HTTP metrics middleware
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		httpRequestsInFlight.Inc()
		defer httpRequestsInFlight.Dec()

		// Wrap response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)

		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// normalizePath normalizes URL paths for metrics to avoid cardinality explosion
func normalizePath(path string) string {
	if len(path) > 100 {
		return "/api/..."
	}
	return path
}

// --- Business metric helpers ---

// RecordClientRegistered records a client registration
func RecordClientRegistered() {
	clientsRegistered.Inc()
}

// RecordProgramCreated records a program creation
func RecordProgramCreated(category string) {
	programsCreated.WithLabelValues(category).Inc()
}

// RecordEnrollmentsCreated records a batch of created enrollments
func RecordEnrollmentsCreated(count int) {
	enrollmentsCreated.Add(float64(count))
}

// RecordEnrollmentRemoved records an enrollment removal
func RecordEnrollmentRemoved() {
	enrollmentsRemoved.Inc()
}

// RecordLoginAttempt records a login attempt outcome
func RecordLoginAttempt(success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	loginAttempts.WithLabelValues(outcome).Inc()
}

// RecordAppointmentsImported records appointments pulled from the legacy HIS
func RecordAppointmentsImported(count int) {
	appointmentsImported.Add(float64(count))
}

// RecordDBQuery records a database query duration
func RecordDBQuery(operation string, duration time.Duration) {
	dbQueryDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
