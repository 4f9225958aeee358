// Package client provides an HTTP client for the dashboard API with retry
// and token auth.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mdmarufa/cloudex/pkg/models"
	"github.com/mdmarufa/cloudex/pkg/protocol"
	"github.com/mdmarufa/cloudex/pkg/retry"
)

// Client talks to a cloudex server.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	retryConfig retry.Config

	mu        sync.RWMutex
	authToken string
}

// Config holds client configuration.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	RetryConfig retry.Config
	AuthToken   string
}

// New creates a new client.
func New(cfg Config) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RetryConfig.MaxAttempts == 0 {
		cfg.RetryConfig = retry.DefaultConfig()
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		retryConfig: cfg.RetryConfig,
		authToken:   cfg.AuthToken,
	}
}

// SetAuthToken sets the JWT auth token for requests.
func (c *Client) SetAuthToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authToken = token
}

// AuthToken returns the current token.
func (c *Client) AuthToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authToken
}

func (c *Client) applyAuth(req *http.Request) {
	if token := c.AuthToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// retryableStatus lists the answers worth another attempt: server errors,
// rate limiting and the 503 sent while the seed is still loading.
func retryableStatus(code int) bool {
	return code >= 500 || code == http.StatusTooManyRequests
}

// do sends one JSON request with retries and decodes the answer into out
// (which may be nil).
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	return retry.Do(ctx, c.retryConfig, func() error {
		var rd io.Reader
		if payload != nil {
			rd = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, rd)
		if err != nil {
			return err
		}
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set("Accept", "application/json")
		c.applyAuth(req)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.Retryable(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			apiErr := &APIError{Status: resp.StatusCode}
			var errResp protocol.ErrorResponse
			if json.NewDecoder(resp.Body).Decode(&errResp) == nil {
				apiErr.Message = errResp.Error
			}
			if retryableStatus(resp.StatusCode) {
				return retry.Retryable(apiErr)
			}
			return apiErr
		}

		if out == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
		return nil
	})
}

// escapeID escapes an item ID for use as one path segment. Virtual folder
// IDs contain slashes.
func escapeID(id string) string {
	return url.PathEscape(id)
}

// ─── Session ────────────────────────────────────────────────────────────────

// Health returns the server health.
func (c *Client) Health(ctx context.Context) (*protocol.HealthResponse, error) {
	var resp protocol.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/health", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login exchanges credentials for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (*protocol.LoginResponse, error) {
	var resp protocol.LoginResponse
	req := protocol.LoginRequest{Username: username, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/v1/auth/token", nil, req, &resp); err != nil {
		return nil, err
	}
	c.SetAuthToken(resp.Token)
	return &resp, nil
}

// ─── Files ──────────────────────────────────────────────────────────────────

// Tree returns the nested catalogue.
func (c *Client) Tree(ctx context.Context) (*models.TreeNode, error) {
	var resp protocol.TreeResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/tree", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Root, nil
}

// ListDir lists one directory. The path is matched case-insensitively.
func (c *Client) ListDir(ctx context.Context, dir string, query url.Values) (*protocol.ListResponse, error) {
	p := "/api/v1/dir"
	if segs := strings.Trim(dir, "/"); segs != "" {
		parts := strings.Split(segs, "/")
		for i := range parts {
			parts[i] = url.PathEscape(parts[i])
		}
		p += "/" + strings.Join(parts, "/")
	}
	var resp protocol.ListResponse
	if err := c.do(ctx, http.MethodGet, p, query, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListFiles returns the flat catalogue filtered by view-state parameters.
func (c *Client) ListFiles(ctx context.Context, query url.Values) (*protocol.ListResponse, error) {
	var resp protocol.ListResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/files", query, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Search runs a catalogue search.
func (c *Client) Search(ctx context.Context, query url.Values) (*protocol.ListResponse, error) {
	var resp protocol.ListResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/search", query, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Resolve canonicalizes a typed path.
func (c *Client) Resolve(ctx context.Context, path string) (*protocol.ResolveResponse, error) {
	var resp protocol.ResolveResponse
	q := url.Values{"path": {path}}
	if err := c.do(ctx, http.MethodGet, "/api/v1/resolve", q, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetFile returns one item, explicit or virtual.
func (c *Client) GetFile(ctx context.Context, id string) (*models.FileItem, error) {
	var item models.FileItem
	if err := c.do(ctx, http.MethodGet, "/api/v1/files/"+escapeID(id), nil, nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateFolder creates a folder under parent.
func (c *Client) CreateFolder(ctx context.Context, parent, name string) (*models.FileItem, error) {
	var item models.FileItem
	req := protocol.CreateFolderRequest{Parent: parent, Name: name}
	if err := c.do(ctx, http.MethodPost, "/api/v1/folders", nil, req, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Upload records mock uploads in dir.
func (c *Client) Upload(ctx context.Context, dir string, files []protocol.UploadFile) ([]models.FileItem, error) {
	var resp protocol.ListResponse
	req := protocol.UploadRequest{Path: dir, Files: files}
	if err := c.do(ctx, http.MethodPost, "/api/v1/files", nil, req, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// Rename renames an item.
func (c *Client) Rename(ctx context.Context, id, name string) (*models.FileItem, error) {
	var item models.FileItem
	req := protocol.RenameRequest{Name: name}
	if err := c.do(ctx, http.MethodPatch, "/api/v1/files/"+escapeID(id), nil, req, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// ToggleStar flips the starred flag of an item.
func (c *Client) ToggleStar(ctx context.Context, id string) (*models.FileItem, error) {
	var item models.FileItem
	if err := c.do(ctx, http.MethodPost, "/api/v1/files/"+escapeID(id)+"/star", nil, nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Move moves an item into dest.
func (c *Client) Move(ctx context.Context, id, dest string) (*models.FileItem, error) {
	var item models.FileItem
	req := protocol.MoveRequest{Destination: dest}
	if err := c.do(ctx, http.MethodPost, "/api/v1/files/"+escapeID(id)+"/move", nil, req, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete removes an item and, for folders, everything below it.
func (c *Client) Delete(ctx context.Context, id string) (*protocol.DeleteResponse, error) {
	var resp protocol.DeleteResponse
	if err := c.do(ctx, http.MethodDelete, "/api/v1/files/"+escapeID(id), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// BulkDelete removes several items atomically.
func (c *Client) BulkDelete(ctx context.Context, ids []string) (*protocol.DeleteResponse, error) {
	var resp protocol.DeleteResponse
	req := protocol.BulkDeleteRequest{IDs: ids}
	if err := c.do(ctx, http.MethodPost, "/api/v1/bulk/delete", nil, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stats returns storage usage.
func (c *Client) Stats(ctx context.Context) (*models.StorageStats, error) {
	var st models.StorageStats
	if err := c.do(ctx, http.MethodGet, "/api/v1/stats", nil, nil, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// ─── Inbox ──────────────────────────────────────────────────────────────────

// Inbox lists conversations.
func (c *Client) Inbox(ctx context.Context) (*protocol.InboxResponse, error) {
	var resp protocol.InboxResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/inbox", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Conversation returns one conversation with its messages.
func (c *Client) Conversation(ctx context.Context, id string) (*protocol.ConversationResponse, error) {
	var resp protocol.ConversationResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/inbox/"+escapeID(id), nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Send sends a message.
func (c *Client) Send(ctx context.Context, req protocol.SendMessageRequest) (*models.Message, error) {
	var msg models.Message
	if err := c.do(ctx, http.MethodPost, "/api/v1/inbox", nil, req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// MarkConversationRead marks every message of a conversation read.
func (c *Client) MarkConversationRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/inbox/"+escapeID(id)+"/read", nil, nil, nil)
}

// MarkMessageRead marks one message read.
func (c *Client) MarkMessageRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/inbox/messages/"+escapeID(id)+"/read", nil, nil, nil)
}

// DeleteMessage removes one message.
func (c *Client) DeleteMessage(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/inbox/messages/"+escapeID(id), nil, nil, nil)
}

// ─── Notifications ──────────────────────────────────────────────────────────

// Notifications lists the drawer, newest first.
func (c *Client) Notifications(ctx context.Context) (*protocol.NotificationsResponse, error) {
	var resp protocol.NotificationsResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/notifications", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// MarkNotificationRead marks one notification read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/notifications/"+escapeID(id)+"/read", nil, nil, nil)
}

// MarkAllNotificationsRead marks the whole drawer read and returns how
// many entries changed.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) (int, error) {
	var resp struct {
		Marked int `json:"marked"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/notifications/read", nil, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Marked, nil
}

// ClearNotifications empties the drawer.
func (c *Client) ClearNotifications(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/notifications", nil, nil, nil)
}

// ─── View state ─────────────────────────────────────────────────────────────

// ViewState normalizes dashboard URL parameters. An invalid parameter
// yields an *APIError with status 400.
func (c *Client) ViewState(ctx context.Context, query url.Values) (*protocol.ViewStateResponse, error) {
	var resp protocol.ViewStateResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/viewstate", query, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Shortcuts lists the keyboard bindings.
func (c *Client) Shortcuts(ctx context.Context) ([]protocol.Shortcut, error) {
	var out []protocol.Shortcut
	if err := c.do(ctx, http.MethodGet, "/api/v1/shortcuts", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ─── Admin ──────────────────────────────────────────────────────────────────

// Snapshot exports the server state to its snapshot backend.
func (c *Client) Snapshot(ctx context.Context) (*protocol.SnapshotResponse, error) {
	var resp protocol.SnapshotResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/admin/snapshot", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
