package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "http_in_flight_requests",
		Help: "In-flight HTTP requests.",
	})

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	authzDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authz_decisions_total",
			Help: "Access gate and permission decisions by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	roleSwitches = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "authz_role_switches_total",
		Help: "Role sessions created via switch-role.",
	})

	sessionsPurged = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "authz_sessions_purged_total",
		Help: "Expired role sessions reclaimed by the purge sweep.",
	})
)

// Init registers the metric set with the default registry.
func Init() {
	prometheus.MustRegister(
		httpInFlight,
		httpRequestsTotal,
		httpRequestDuration,
		authzDecisions,
		roleSwitches,
		sessionsPurged,
	)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveDecision records an allow/deny/error outcome for a gate operation.
func ObserveDecision(operation string, allowed bool, err error) {
	outcome := "deny"
	switch {
	case err != nil:
		outcome = "error"
	case allowed:
		outcome = "allow"
	}
	authzDecisions.WithLabelValues(operation, outcome).Inc()
}

// ObserveRoleSwitch counts a successful switch-role call.
func ObserveRoleSwitch() { roleSwitches.Inc() }

// ObservePurge records how many sessions a purge sweep removed.
func ObservePurge(n int64) {
	if n > 0 {
		sessionsPurged.Add(float64(n))
	}
}

// Instrument wraps an HTTP handler with RED metrics.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)
		httpRequestDuration.WithLabelValues(r.Method, r.URL.Path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
		httpInFlight.Dec()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
