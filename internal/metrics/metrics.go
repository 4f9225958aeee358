// Package metrics provides Prometheus metrics for the cloudex server.
package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudex_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cloudex_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Catalogue metrics
	catalogueItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cloudex_catalogue_items",
			Help: "Number of explicit records in the file catalogue",
		},
	)

	catalogueBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cloudex_catalogue_bytes",
			Help: "Sum of file sizes in the catalogue",
		},
	)

	fileOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudex_file_operations_total",
			Help: "Catalogue mutations by operation and result",
		},
		[]string{"operation", "result"},
	)

	cascadeAffected = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cloudex_cascade_affected_items",
			Help:    "Descendants rewritten or removed by a folder cascade",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100, 250},
		},
		[]string{"operation"},
	)

	seedLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cloudex_seed_load_duration_seconds",
			Help:    "Time to fetch the seeded dashboard data",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Auth metrics
	authAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudex_auth_attempts_total",
			Help: "Total authentication attempts",
		},
		[]string{"result"},
	)

	// Event stream metrics
	sseConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cloudex_sse_connections_active",
			Help: "Number of active SSE connections",
		},
	)

	wsConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cloudex_ws_connections_active",
			Help: "Number of active WebSocket connections",
		},
	)

	eventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudex_events_total",
			Help: "Total events published",
		},
		[]string{"type"},
	)

	// Inbox and notification metrics
	messagesSentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cloudex_inbox_messages_sent_total",
			Help: "Total inbox messages sent",
		},
	)

	attachmentRejectionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cloudex_inbox_attachment_rejections_total",
			Help: "Messages rejected for an oversized attachment",
		},
	)

	messagesUnread = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cloudex_inbox_messages_unread",
			Help: "Number of unread inbox messages",
		},
	)

	notificationsUnread = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cloudex_notifications_unread",
			Help: "Number of unread notifications",
		},
	)

	// Quota metrics
	rateLimitHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cloudex_rate_limit_hits_total",
			Help: "Total rate limit rejections (429s)",
		},
	)

	quotaExceededTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cloudex_quota_exceeded_total",
			Help: "Uploads rejected by the storage limit",
		},
	)

	// Snapshot metrics
	snapshotOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cloudex_snapshot_operation_duration_seconds",
			Help:    "Snapshot save/load duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)

	snapshotOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cloudex_snapshot_operations_total",
			Help: "Total snapshot operations",
		},
		[]string{"backend", "operation", "status"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// SetCatalogueSize sets the catalogue gauges.
func SetCatalogueSize(items int, bytes int64) {
	catalogueItems.Set(float64(items))
	catalogueBytes.Set(float64(bytes))
}

// RecordFileOperation records a catalogue mutation.
func RecordFileOperation(operation string, success bool) {
	fileOperationsTotal.WithLabelValues(operation, resultLabel(success)).Inc()
}

// RecordCascade records how many descendants a folder cascade touched.
func RecordCascade(operation string, affected int) {
	cascadeAffected.WithLabelValues(operation).Observe(float64(affected))
}

// RecordSeedLoad records the seed fetch duration.
func RecordSeedLoad(duration time.Duration) {
	seedLoadDuration.Observe(duration.Seconds())
}

// RecordAuthAttempt records an authentication attempt.
func RecordAuthAttempt(success bool) {
	authAttemptsTotal.WithLabelValues(resultLabel(success)).Inc()
}

// SetSSEConnectionsActive sets the number of active SSE connections.
func SetSSEConnectionsActive(count int64) {
	sseConnectionsActive.Set(float64(count))
}

// AddWSConnections adjusts the active WebSocket gauge.
func AddWSConnections(delta int) {
	wsConnectionsActive.Add(float64(delta))
}

// RecordEvent records an event publication.
func RecordEvent(eventType string) {
	eventsTotal.WithLabelValues(eventType).Inc()
}

// RecordMessageSent records a sent inbox message.
func RecordMessageSent() {
	messagesSentTotal.Inc()
}

// RecordAttachmentRejected records an oversized attachment rejection.
func RecordAttachmentRejected() {
	attachmentRejectionsTotal.Inc()
}

// SetMessagesUnread sets the unread message gauge.
func SetMessagesUnread(count int) {
	messagesUnread.Set(float64(count))
}

// SetNotificationsUnread sets the unread notification gauge.
func SetNotificationsUnread(count int) {
	notificationsUnread.Set(float64(count))
}

// RecordRateLimitHit records a rate limit rejection.
func RecordRateLimitHit() {
	rateLimitHitsTotal.Inc()
}

// RecordQuotaExceeded records an upload rejected by the storage limit.
func RecordQuotaExceeded() {
	quotaExceededTotal.Inc()
}

// RecordSnapshotOperation records a snapshot backend call.
func RecordSnapshotOperation(backend, operation string, duration time.Duration, success bool) {
	snapshotOperationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds())
	snapshotOperationsTotal.WithLabelValues(backend, operation, resultLabel(success)).Inc()
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return h.Hijack()
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// routeLabel keeps label cardinality bounded by cutting the path after
// the resource segment (/api/v1/files/abc -> /api/v1/files).
func routeLabel(path string) string {
	if !strings.HasPrefix(path, "/api/v1/") {
		return path
	}
	parts := strings.SplitN(strings.TrimPrefix(path, "/api/v1/"), "/", 2)
	return "/api/v1/" + parts[0]
}

// Middleware returns HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		RecordHTTPRequest(r.Method, routeLabel(r.URL.Path), rw.statusCode, time.Since(start))
	})
}
