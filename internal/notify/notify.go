// Package notify implements the notification drawer.
package notify

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mdmarufa/cloudex/internal/events"
	"github.com/mdmarufa/cloudex/internal/metrics"
	"github.com/mdmarufa/cloudex/pkg/models"
)

// MaxEntries bounds the drawer; older entries are dropped first.
const MaxEntries = 100

var ErrNotFound = errors.New("notification not found")

// Publisher receives change events.
type Publisher interface {
	Publish(events.Event)
}

// Center holds the notifications, newest last.
type Center struct {
	mu    sync.RWMutex
	items []models.Notification
	pub   Publisher
	now   func() time.Time
	newID func() string
}

// NewCenter creates an empty notification center. pub may be nil.
func NewCenter(pub Publisher) *Center {
	return &Center{pub: pub, now: time.Now, newID: uuid.NewString}
}

// Load replaces the notifications.
func (c *Center) Load(items []models.Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = slices.Clone(items)
	slices.SortStableFunc(c.items, func(a, b models.Notification) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	c.trimLocked()
	c.updateMetricsLocked()
}

// Export returns the notifications oldest first.
func (c *Center) Export() []models.Notification {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

// List returns the notifications newest first.
func (c *Center) List() []models.Notification {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Notification, len(c.items))
	for i, n := range c.items {
		out[len(c.items)-1-i] = n
	}
	return out
}

// Add appends a notification and publishes it.
func (c *Center) Add(kind models.NotificationKind, title, body, path string) models.Notification {
	c.mu.Lock()
	n := models.Notification{
		ID:        c.newID(),
		Kind:      kind,
		Title:     title,
		Body:      body,
		Path:      path,
		CreatedAt: c.now(),
	}
	c.items = append(c.items, n)
	c.trimLocked()
	c.updateMetricsLocked()
	c.mu.Unlock()

	if c.pub != nil {
		c.pub.Publish(events.Event{Type: events.EventNotification, ItemID: n.ID, Path: path, Name: title, Data: n})
	}
	return n
}

// MarkRead marks one notification as read.
func (c *Center) MarkRead(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].Read = true
			c.updateMetricsLocked()
			return nil
		}
	}
	return fmt.Errorf("notification %s: %w", id, ErrNotFound)
}

// MarkAllRead marks everything read and returns how many changed.
func (c *Center) MarkAllRead() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for i := range c.items {
		if !c.items[i].Read {
			c.items[i].Read = true
			n++
		}
	}
	c.updateMetricsLocked()
	return n
}

// Clear removes every notification.
func (c *Center) Clear() {
	c.mu.Lock()
	c.items = nil
	c.updateMetricsLocked()
	c.mu.Unlock()
}

// UnreadCount returns the number of unread notifications.
func (c *Center) UnreadCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.unreadLocked()
}

func (c *Center) unreadLocked() int {
	n := 0
	for _, it := range c.items {
		if !it.Read {
			n++
		}
	}
	return n
}

func (c *Center) trimLocked() {
	if over := len(c.items) - MaxEntries; over > 0 {
		c.items = slices.Delete(c.items, 0, over)
	}
}

func (c *Center) updateMetricsLocked() {
	metrics.SetNotificationsUnread(c.unreadLocked())
}
