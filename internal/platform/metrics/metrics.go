package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_login_attempts_total",
		Help: "Login attempts by outcome (success, invalid, failed, locked).",
	}, []string{"outcome"})

	Lockouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_login_lockouts_total",
		Help: "Lockouts started after repeated failed sign-ins.",
	})

	ProblemSelections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_problem_selections_total",
		Help: "Problem statement selections by scope (team, individual) and outcome.",
	}, []string{"scope", "outcome"})

	ApplicationsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_applications_submitted_total",
		Help: "Application submissions by problem type.",
	}, []string{"problem_type"})

	Uploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "portal_uploads_total",
		Help: "File uploads by outcome.",
	}, []string{"outcome"})

	ReconciledProfiles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "portal_reconciled_profiles_total",
		Help: "Profiles synced to their team's problem selection by the reconciliation sweep.",
	})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "portal_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Middleware records request latency labelled by the matched chi route
// pattern, so path parameters do not explode label cardinality.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		httpDuration.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Observe(time.Since(start).Seconds())
	})
}
