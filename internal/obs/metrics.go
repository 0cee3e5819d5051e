package obs

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP-wide metrics.
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
)

// Token lifecycle and authorization metrics.
var (
	tokensIssuedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_tokens_issued_total",
		Help: "Tokens issued since process start.",
	})

	tokensRevokedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_tokens_revoked_total",
		Help: "Tokens explicitly revoked (logout).",
	})

	verifyFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "auth_verify_failures_total",
			Help: "Token verification failures by kind.",
		},
		[]string{"reason"},
	)

	authzDeniedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_authorization_denied_total",
		Help: "Authorization decisions that resulted in deny.",
	})
)

// Init registers all metrics in the default registry.
func Init() {
	prometheus.MustRegister(
		httpInFlight, httpRequestsTotal, httpRequestDuration,
		tokensIssuedTotal, tokensRevokedTotal, verifyFailuresTotal, authzDeniedTotal,
	)
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// TokenIssued increments the issuance counter.
func TokenIssued() { tokensIssuedTotal.Inc() }

// TokenRevoked increments the revocation counter.
func TokenRevoked() { tokensRevokedTotal.Inc() }

// VerifyFailed counts a verification failure by kind (malformed, expired, revoked).
func VerifyFailed(reason string) { verifyFailuresTotal.WithLabelValues(reason).Inc() }

// AuthorizationDenied counts a fail-closed authorization decision.
func AuthorizationDenied() { authzDeniedTotal.Inc() }

// CanonicalPath collapses resource identifiers so metric labels stay
// bounded. Only the facility resource path carries an id segment.
func CanonicalPath(path string) string {
	if path == "" {
		return "/"
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	const facilities = "/api/admin/facilities/"
	if rest, ok := strings.CutPrefix(path, facilities); ok && rest != "" && !strings.Contains(rest, "/") {
		return facilities + ":id"
	}
	return path
}

// Instrument wraps a handler with RPS/latency/in-flight measurement.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := CanonicalPath(r.URL.Path)
		method := r.Method

		httpInFlight.Inc()
		start := time.Now()

		sw := &statusWriter{ResponseWriter: w, code: 200}
		next.ServeHTTP(sw, r)

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(sw.code)

		httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		httpInFlight.Dec()
	})
}

// statusWriter captures the response code for metrics labels.
type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
