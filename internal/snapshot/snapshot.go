// Package snapshot exports and restores the dashboard state through a
// pluggable blob store. Snapshots are optional; by default nothing is
// persisted and the state resets on restart.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"go.uber.org/zap"

	"github.com/mdmarufa/cloudex/internal/inbox"
	"github.com/mdmarufa/cloudex/internal/logging"
	"github.com/mdmarufa/cloudex/internal/metrics"
	"github.com/mdmarufa/cloudex/internal/notify"
	"github.com/mdmarufa/cloudex/internal/vfs"
	"github.com/mdmarufa/cloudex/pkg/models"
)

// FormatVersion is written into every snapshot.
const FormatVersion = 1

// ErrNotFound is returned when the store holds no snapshot yet.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is the serialized dashboard state.
type Snapshot struct {
	Version       int                   `json:"version"`
	SavedAt       time.Time             `json:"saved_at"`
	Files         []models.FileItem     `json:"files"`
	Conversations []models.Conversation `json:"conversations"`
	Messages      []models.Message      `json:"messages"`
	Notifications []models.Notification `json:"notifications"`
}

// Store persists one encoded snapshot blob. Read returns an error wrapping
// fs.ErrNotExist when nothing was written yet.
type Store interface {
	Write(ctx context.Context, data []byte) error
	Read(ctx context.Context) ([]byte, error)
	Type() string
	Close() error
}

// Encode serializes s.
func Encode(s *Snapshot) ([]byte, error) {
	return json.Marshal(s)
}

// Decode parses a snapshot blob.
func Decode(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	if s.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d", s.Version)
	}
	return &s, nil
}

// State bundles the in-memory components a snapshot covers.
type State struct {
	Files         *vfs.Store
	Inbox         *inbox.Inbox
	Notifications *notify.Center
}

// Capture reads the current state.
func (st State) Capture(now time.Time) *Snapshot {
	s := &Snapshot{Version: FormatVersion, SavedAt: now}
	if st.Files != nil {
		s.Files = st.Files.Items()
	}
	if st.Inbox != nil {
		s.Conversations, s.Messages = st.Inbox.Export()
	}
	if st.Notifications != nil {
		s.Notifications = st.Notifications.Export()
	}
	return s
}

// Restore replaces the current state with s.
func (st State) Restore(s *Snapshot) {
	if st.Files != nil {
		st.Files.Load(s.Files)
	}
	if st.Inbox != nil {
		st.Inbox.Load(s.Conversations, s.Messages)
	}
	if st.Notifications != nil {
		st.Notifications.Load(s.Notifications)
	}
}

// Manager saves and loads snapshots through a Store.
type Manager struct {
	store Store
}

// NewManager wraps store.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Type returns the backing store type.
func (m *Manager) Type() string {
	return m.store.Type()
}

// Save writes s to the store.
func (m *Manager) Save(ctx context.Context, s *Snapshot) error {
	start := time.Now()
	data, err := Encode(s)
	if err == nil {
		err = m.store.Write(ctx, data)
	}
	metrics.RecordSnapshotOperation(m.store.Type(), "save", time.Since(start), err == nil)
	if err != nil {
		return fmt.Errorf("save snapshot to %s: %w", m.store.Type(), err)
	}
	logging.Info("snapshot saved",
		zap.String("backend", m.store.Type()),
		zap.Int("files", len(s.Files)),
		zap.Int("bytes", len(data)))
	return nil
}

// Load reads the latest snapshot. ErrNotFound means the store is empty.
func (m *Manager) Load(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	data, err := m.store.Read(ctx)
	var s *Snapshot
	if err == nil {
		s, err = Decode(data)
	}
	metrics.RecordSnapshotOperation(m.store.Type(), "load", time.Since(start), err == nil)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot from %s: %w", m.store.Type(), err)
	}
	logging.Info("snapshot loaded",
		zap.String("backend", m.store.Type()),
		zap.Time("saved_at", s.SavedAt),
		zap.Int("files", len(s.Files)))
	return s, nil
}

// Close releases the store.
func (m *Manager) Close() error {
	return m.store.Close()
}
