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

	// Workflow metrics
	complaintsSubmitted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "complaints_submitted_total",
			Help: "Total number of complaints submitted",
		},
	)

	complaintReviews = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complaint_reviews_total",
			Help: "Total number of complaint review decisions",
		},
		[]string{"stage", "action"},
	)

	casesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cases_created_total",
			Help: "Total number of cases created",
		},
		[]string{"source"},
	)

	casesStatusChanged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cases_status_changed_total",
			Help: "Total number of case status changes",
		},
		[]string{"from_status", "to_status"},
	)

	interrogationDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interrogation_decisions_total",
			Help: "Total number of interrogation review decisions",
		},
		[]string{"stage", "decision"},
	)

	tipsReviewed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tips_reviewed_total",
			Help: "Total number of tip review decisions",
		},
		[]string{"stage", "decision"},
	)

	rewardCodesIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reward_codes_issued_total",
			Help: "Total number of reward codes issued",
		},
	)

	notificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total number of notifications emitted",
		},
		[]string{"type"},
	)

	authorizationDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "authorization_decisions_total",
			Help: "Total number of authorization decisions",
		},
		[]string{"resource_type", "action", "decision"},
	)

	// Database metrics
	dbConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_active",
			Help: "Number of active database connections",
		},
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

// --- Workflow metric helpers ---

// RecordComplaintSubmitted records a complaint submission
func RecordComplaintSubmitted() {
	complaintsSubmitted.Inc()
}

// RecordComplaintReview records a cadet or officer review decision
func RecordComplaintReview(stage, action string) {
	complaintReviews.WithLabelValues(stage, action).Inc()
}

// RecordCaseCreated records a case creation by source type
func RecordCaseCreated(source string) {
	casesCreated.WithLabelValues(source).Inc()
}

// RecordCaseStatusChange records a case status change
func RecordCaseStatusChange(fromStatus, toStatus string) {
	casesStatusChanged.WithLabelValues(fromStatus, toStatus).Inc()
}

// RecordInterrogationDecision records an escalation-chain decision
func RecordInterrogationDecision(stage, decision string) {
	interrogationDecisions.WithLabelValues(stage, decision).Inc()
}

// RecordTipReview records a tip review decision
func RecordTipReview(stage, decision string) {
	tipsReviewed.WithLabelValues(stage, decision).Inc()
}

// RecordRewardCodeIssued records a reward code issuance
func RecordRewardCodeIssued() {
	rewardCodesIssued.Inc()
}

// RecordNotification records an emitted notification
func RecordNotification(notifType string) {
	notificationsSent.WithLabelValues(notifType).Inc()
}

// RecordAuthorizationDecision records an authorization decision
func RecordAuthorizationDecision(resourceType, action string, allowed bool) {
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	authorizationDecisions.WithLabelValues(resourceType, action, decision).Inc()
}

// RecordDBConnections records active database connections
func RecordDBConnections(count int) {
	dbConnectionsActive.Set(float64(count))
}
