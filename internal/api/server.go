// Package api provides the HTTP server and handlers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mdmarufa/cloudex/internal/auth"
	"github.com/mdmarufa/cloudex/internal/config"
	"github.com/mdmarufa/cloudex/internal/events"
	"github.com/mdmarufa/cloudex/internal/inbox"
	"github.com/mdmarufa/cloudex/internal/logging"
	"github.com/mdmarufa/cloudex/internal/metrics"
	"github.com/mdmarufa/cloudex/internal/notify"
	"github.com/mdmarufa/cloudex/internal/quota"
	"github.com/mdmarufa/cloudex/internal/snapshot"
	"github.com/mdmarufa/cloudex/internal/vfs"
	"github.com/mdmarufa/cloudex/internal/viewstate"
	"github.com/mdmarufa/cloudex/pkg/protocol"
)

// Deps bundles the components the server exposes.
type Deps struct {
	Files         *vfs.Store
	Inbox         *inbox.Inbox
	Notifications *notify.Center
	Auth          *auth.Auth
	Broadcaster   *events.Broadcaster
	RateLimiter   *quota.RateLimiter
	Snapshots     *snapshot.Manager // nil when snapshots are disabled
	Config        *config.Config
}

// Server is the HTTP server.
type Server struct {
	files         *vfs.Store
	inbox         *inbox.Inbox
	notifications *notify.Center
	auth          *auth.Auth
	broadcaster   *events.Broadcaster
	rateLimiter   *quota.RateLimiter
	snapshots     *snapshot.Manager
	config        *config.Config

	loaded    atomic.Bool
	sseActive atomic.Int64
	upgrader  websocket.Upgrader
}

// NewServer creates a new server.
func NewServer(d Deps) *Server {
	return &Server{
		files:         d.Files,
		inbox:         d.Inbox,
		notifications: d.Notifications,
		auth:          d.Auth,
		broadcaster:   d.Broadcaster,
		rateLimiter:   d.RateLimiter,
		snapshots:     d.Snapshots,
		config:        d.Config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // the dashboard may be served from another origin
			},
		},
	}
}

// MarkLoaded opens the data endpoints once the seed has been fetched.
func (s *Server) MarkLoaded() {
	s.loaded.Store(true)
}

// Loaded reports whether the initial data is available.
func (s *Server) Loaded() bool {
	return s.loaded.Load()
}

// Handler returns the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Public endpoints (no auth required)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/v1/auth/token", s.auth.HandleLogin)

	// Protected endpoints
	protected := http.NewServeMux()

	// Files
	protected.HandleFunc("GET /api/v1/files", s.ready(s.handleListFiles))
	protected.HandleFunc("POST /api/v1/files", s.ready(s.handleUpload))
	protected.HandleFunc("GET /api/v1/files/{id}", s.ready(s.handleGetFile))
	protected.HandleFunc("PATCH /api/v1/files/{id}", s.ready(s.handleRename))
	protected.HandleFunc("DELETE /api/v1/files/{id}", s.ready(s.handleDelete))
	protected.HandleFunc("POST /api/v1/files/{id}/star", s.ready(s.handleStar))
	protected.HandleFunc("POST /api/v1/files/{id}/move", s.ready(s.handleMove))
	protected.HandleFunc("POST /api/v1/folders", s.ready(s.handleCreateFolder))
	protected.HandleFunc("POST /api/v1/bulk/delete", s.ready(s.handleBulkDelete))

	// Virtual file system views
	protected.HandleFunc("GET /api/v1/tree", s.ready(s.handleTree))
	protected.HandleFunc("GET /api/v1/dir", s.ready(s.handleListDir))
	protected.HandleFunc("GET /api/v1/dir/{path...}", s.ready(s.handleListDir))
	protected.HandleFunc("GET /api/v1/resolve", s.ready(s.handleResolve))
	protected.HandleFunc("GET /api/v1/search", s.ready(s.handleSearch))
	protected.HandleFunc("GET /api/v1/stats", s.ready(s.handleStats))

	// Inbox
	protected.HandleFunc("GET /api/v1/inbox", s.ready(s.handleListConversations))
	protected.HandleFunc("POST /api/v1/inbox", s.ready(s.handleSendMessage))
	protected.HandleFunc("GET /api/v1/inbox/{id}", s.ready(s.handleGetConversation))
	protected.HandleFunc("POST /api/v1/inbox/{id}/read", s.ready(s.handleReadConversation))
	protected.HandleFunc("POST /api/v1/inbox/messages/{id}/read", s.ready(s.handleReadMessage))
	protected.HandleFunc("DELETE /api/v1/inbox/messages/{id}", s.ready(s.handleDeleteMessage))

	// Notifications
	protected.HandleFunc("GET /api/v1/notifications", s.ready(s.handleListNotifications))
	protected.HandleFunc("POST /api/v1/notifications/read", s.ready(s.handleReadAllNotifications))
	protected.HandleFunc("POST /api/v1/notifications/{id}/read", s.ready(s.handleReadNotification))
	protected.HandleFunc("DELETE /api/v1/notifications", s.ready(s.handleClearNotifications))

	// View state
	protected.HandleFunc("GET /api/v1/viewstate", s.handleViewState)
	protected.HandleFunc("GET /api/v1/shortcuts", s.handleShortcuts)

	// Live updates
	protected.HandleFunc("GET /api/v1/events", s.handleEvents)
	protected.HandleFunc("GET /api/v1/ws", s.handleWebSocket)

	// Admin
	protected.HandleFunc("POST /api/v1/admin/snapshot", s.ready(s.handleSnapshot))

	authed := s.auth.Middleware(protected)
	getUser := func(ctx context.Context) (int, bool) {
		claims := auth.GetClaims(ctx)
		if claims == nil {
			return 0, false
		}
		return claims.UserID, true
	}
	rpm := 0
	if s.config != nil {
		rpm = s.config.RequestsPerMinute
	}
	rateLimited := quota.RateLimitMiddleware(s.rateLimiter, rpm, getUser)(authed)
	mux.Handle("/api/v1/", rateLimited)

	// Apply logging and metrics middleware
	return metrics.Middleware(logging.Middleware(mux))
}

// ready answers 503 until the initial data has been loaded.
func (s *Server) ready(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.Loaded() {
			w.Header().Set("Retry-After", "1")
			s.sendError(w, http.StatusServiceUnavailable, "loading")
			return
		}
		h(w, r)
	}
}

// ─── Health ─────────────────────────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, protocol.HealthResponse{
		Status: "ok",
		Loaded: s.Loaded(),
		Items:  s.files.Len(),
	})
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func (s *Server) sendJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) sendError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(protocol.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, vfs.ErrNotFound),
		errors.Is(err, inbox.ErrNotFound),
		errors.Is(err, notify.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, vfs.ErrExists):
		return http.StatusConflict
	case errors.Is(err, vfs.ErrQuotaExceeded),
		errors.Is(err, inbox.ErrAttachmentTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, vfs.ErrEmptyName),
		errors.Is(err, vfs.ErrInvalidName),
		errors.Is(err, vfs.ErrInvalidMove),
		errors.Is(err, vfs.ErrVirtual),
		errors.Is(err, inbox.ErrEmptyMessage),
		errors.Is(err, inbox.ErrNoRecipient),
		errors.Is(err, viewstate.ErrInvalidValue),
		errors.Is(err, viewstate.ErrMissingFile):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// sendDomainError writes err with the status it maps to. Unexpected
// errors are logged and hidden from the client.
func (s *Server) sendDomainError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		logging.WithContext(r.Context()).Error("request failed", zap.Error(err))
		s.sendError(w, code, "internal error")
		return
	}
	s.sendError(w, code, err.Error())
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
