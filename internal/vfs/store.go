// Package vfs emulates a file system over a flat, in-memory list of
// catalogue records. Each record carries its parent directory in Path;
// folders exist either as explicit FOLDER records or virtually, inferred
// from the paths of the records below them.
package vfs

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mdmarufa/cloudex/internal/events"
	"github.com/mdmarufa/cloudex/internal/logging"
	"github.com/mdmarufa/cloudex/internal/metrics"
	"github.com/mdmarufa/cloudex/pkg/models"
	"github.com/mdmarufa/cloudex/pkg/vpath"
)

// VirtualPrefix prefixes the synthesized IDs of virtual folders.
const VirtualPrefix = "virtual:"

var (
	ErrNotFound      = errors.New("file not found")
	ErrEmptyName     = errors.New("name is empty")
	ErrInvalidName   = errors.New("invalid name")
	ErrExists        = errors.New("an item with that name already exists")
	ErrInvalidMove   = errors.New("cannot move a folder into itself")
	ErrVirtual       = errors.New("not supported on a virtual folder")
	ErrQuotaExceeded = errors.New("storage limit exceeded")
)

// Publisher receives change events.
type Publisher interface {
	Publish(events.Event)
}

// Options configures a Store.
type Options struct {
	StorageLimit int64 // 0 = unlimited
	Publisher    Publisher
	Now          func() time.Time
	NewID        func() string
}

// Store is the in-memory catalogue.
type Store struct {
	mu    sync.RWMutex
	items []models.FileItem
	limit int64
	pub   Publisher
	now   func() time.Time
	newID func() string
}

// New creates an empty store.
func New(opts Options) *Store {
	s := &Store{
		limit: opts.StorageLimit,
		pub:   opts.Publisher,
		now:   opts.Now,
		newID: opts.NewID,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// VirtualID returns the ID under which the virtual folder at fullPath is
// listed.
func VirtualID(fullPath string) string {
	return VirtualPrefix + fullPath
}

// FullPath returns the effective full path of an item.
func FullPath(item models.FileItem) string {
	return vpath.Join(item.Path, item.Name)
}

// Load replaces the catalogue. Record paths are resolved against the
// loaded folders so that one directory has one spelling: explicit folder
// casing wins, then the first spelling seen.
func (s *Store) Load(items []models.FileItem) {
	s.mu.Lock()
	s.items = make([]models.FileItem, len(items))
	copy(s.items, items)
	for i := range s.items {
		s.items[i].Path = vpath.Normalize(s.items[i].Path)
		s.items[i].Virtual = false
	}
	canonical := make([]string, len(s.items))
	for i := range s.items {
		canonical[i] = s.resolveLocked(s.items[i].Path)
	}
	for i := range s.items {
		s.items[i].Path = canonical[i]
	}
	s.updateMetricsLocked()
	n := len(s.items)
	s.mu.Unlock()

	logging.Info("catalogue loaded", zap.Int("items", n))
	s.publish(events.Event{Type: events.EventLoaded, Path: vpath.Root, Count: n})
}

// Items returns a copy of the catalogue in insertion order.
func (s *Store) Items() []models.FileItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.FileItem, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of explicit records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Limit returns the storage limit in bytes (0 = unlimited).
func (s *Store) Limit() int64 {
	return s.limit
}

// Get returns the item with the given ID. Virtual folder IDs are
// synthesized on the fly.
func (s *Store) Get(id string) (models.FileItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, _, err := s.lookupLocked(id)
	return item, err
}

// lookupLocked finds an explicit record (idx >= 0) or a virtual folder
// (idx == -1).
func (s *Store) lookupLocked(id string) (models.FileItem, int, error) {
	if full, ok := strings.CutPrefix(id, VirtualPrefix); ok {
		full = vpath.Normalize(full)
		if full == vpath.Root || s.explicitFolderIndexLocked(full) >= 0 || !s.hasDescendantsLocked(full) {
			return models.FileItem{}, -1, ErrNotFound
		}
		return s.virtualFolderLocked(vpath.Parent(full), vpath.Base(full)), -1, nil
	}
	for i := range s.items {
		if s.items[i].ID == id {
			return s.items[i], i, nil
		}
	}
	return models.FileItem{}, -1, ErrNotFound
}

func (s *Store) explicitFolderIndexLocked(fullPath string) int {
	for i := range s.items {
		if s.items[i].IsFolder() && FullPath(s.items[i]) == fullPath {
			return i
		}
	}
	return -1
}

func (s *Store) hasDescendantsLocked(dir string) bool {
	for i := range s.items {
		if vpath.IsWithin(s.items[i].Path, dir) {
			return true
		}
	}
	return false
}

// virtualFolderLocked synthesizes the listing entry of a virtual folder.
func (s *Store) virtualFolderLocked(parent, name string) models.FileItem {
	full := vpath.Join(parent, name)
	folder := models.FileItem{
		ID:      VirtualID(full),
		Name:    name,
		Type:    models.TypeFolder,
		Path:    parent,
		Virtual: true,
	}
	for i := range s.items {
		it := &s.items[i]
		if !vpath.IsWithin(it.Path, full) {
			continue
		}
		if !it.IsFolder() {
			folder.Size += it.Size
		}
		if it.ModifiedAt.After(folder.ModifiedAt) {
			folder.ModifiedAt = it.ModifiedAt
			folder.Owner = it.Owner
		}
	}
	return folder
}

func (s *Store) usedLocked() int64 {
	var used int64
	for i := range s.items {
		if !s.items[i].IsFolder() {
			used += s.items[i].Size
		}
	}
	return used
}

func (s *Store) updateMetricsLocked() {
	metrics.SetCatalogueSize(len(s.items), s.usedLocked())
}

func (s *Store) publish(e events.Event) {
	if s.pub != nil {
		s.pub.Publish(e)
	}
}
