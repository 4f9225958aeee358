// Package protocol defines the API request/response types.
package protocol

import (
	"time"

	"github.com/mdmarufa/cloudex/pkg/models"
)

// ErrorResponse is returned on API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Details string `json:"details,omitempty"`
}

// LoginRequest is the body for POST /api/v1/auth/token.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned by POST /api/v1/auth/token.
type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Loaded bool   `json:"loaded"`
	Items  int    `json:"items"`
}

// ─── File Types ─────────────────────────────────────────────────────────────

// TreeResponse is returned by GET /api/v1/tree
type TreeResponse struct {
	Root *models.TreeNode `json:"root"`
}

// ListResponse is returned by the listing endpoints.
type ListResponse struct {
	Path  string            `json:"path,omitempty"`
	Items []models.FileItem `json:"items"`
	Total int               `json:"total"`
}

// ResolveResponse is returned by GET /api/v1/resolve.
type ResolveResponse struct {
	Input  string `json:"input"`
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
}

// CreateFolderRequest is the body for POST /api/v1/folders.
type CreateFolderRequest struct {
	Parent string `json:"parent"`
	Name   string `json:"name"`
}

// UploadFile describes one mock upload.
type UploadFile struct {
	Name string          `json:"name"`
	Size int64           `json:"size"`
	Type models.FileType `json:"type,omitempty"`
}

// UploadRequest is the body for POST /api/v1/files.
type UploadRequest struct {
	Path  string       `json:"path"`
	Files []UploadFile `json:"files"`
}

// RenameRequest is the body for PATCH /api/v1/files/{id}.
type RenameRequest struct {
	Name string `json:"name"`
}

// MoveRequest is the body for POST /api/v1/files/{id}/move.
type MoveRequest struct {
	Destination string `json:"destination"`
}

// DeleteResponse is returned by the delete endpoints.
type DeleteResponse struct {
	Removed []models.FileItem `json:"removed"`
	Count   int               `json:"count"`
}

// BulkDeleteRequest is the body for POST /api/v1/bulk/delete.
type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// ─── Inbox Types ────────────────────────────────────────────────────────────

// SendMessageRequest is the body for POST /api/v1/inbox.
type SendMessageRequest struct {
	ConversationID string              `json:"conversationId,omitempty"`
	To             string              `json:"to"`
	Subject        string              `json:"subject,omitempty"`
	Body           string              `json:"body"`
	Attachments    []models.Attachment `json:"attachments,omitempty"`
}

// InboxResponse is returned by GET /api/v1/inbox.
type InboxResponse struct {
	Conversations []models.Conversation `json:"conversations"`
	Unread        int                   `json:"unread"`
}

// ConversationResponse is returned by GET /api/v1/inbox/{id}.
type ConversationResponse struct {
	Conversation models.Conversation `json:"conversation"`
	Messages     []models.Message    `json:"messages"`
}

// ─── Notification Types ─────────────────────────────────────────────────────

// NotificationsResponse is returned by GET /api/v1/notifications.
type NotificationsResponse struct {
	Notifications []models.Notification `json:"notifications"`
	Unread        int                   `json:"unread"`
}

// ─── View State Types ───────────────────────────────────────────────────────

// ViewState is the normalized dashboard view state.
type ViewState struct {
	Modal  string `json:"modal,omitempty"`
	FileID string `json:"fileId,omitempty"`
	Query  string `json:"q,omitempty"`
	Type   string `json:"type"`
	Date   string `json:"date"`
	Sort   string `json:"sort"`
	Order  string `json:"order"`
	View   string `json:"view"`
}

// ViewStateResponse is returned by GET /api/v1/viewstate. Query is the
// canonical query string; Error lists rejected parameters.
type ViewStateResponse struct {
	State ViewState `json:"state"`
	Query string    `json:"query"`
	Error string    `json:"error,omitempty"`
}

// Shortcut is one keyboard binding.
type Shortcut struct {
	Combo       string `json:"combo"`
	Action      string `json:"action"`
	Description string `json:"description"`
}

// SnapshotResponse is returned by POST /api/v1/admin/snapshot.
type SnapshotResponse struct {
	Backend string    `json:"backend"`
	Items   int       `json:"items"`
	SavedAt time.Time `json:"saved_at"`
}
