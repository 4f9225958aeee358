package notify

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mdmarufa/cloudex/internal/events"
	"github.com/mdmarufa/cloudex/pkg/models"
)

func TestCenterAddAndList(t *testing.T) {
	c := NewCenter(nil)
	c.Add(models.NotifyInfo, "first", "", "")
	c.Add(models.NotifySuccess, "second", "", "/Design")

	list := c.List()
	if len(list) != 2 || list[0].Title != "second" || list[1].Title != "first" {
		t.Fatalf("unexpected order %+v", list)
	}
	if c.UnreadCount() != 2 {
		t.Errorf("UnreadCount = %d, want 2", c.UnreadCount())
	}
}

func TestCenterBounded(t *testing.T) {
	c := NewCenter(nil)
	for i := 0; i < MaxEntries+25; i++ {
		c.Add(models.NotifyInfo, fmt.Sprintf("n%d", i), "", "")
	}
	list := c.List()
	if len(list) != MaxEntries {
		t.Fatalf("expected %d entries, got %d", MaxEntries, len(list))
	}
	if list[0].Title != fmt.Sprintf("n%d", MaxEntries+24) {
		t.Errorf("newest entry = %q", list[0].Title)
	}
	if list[len(list)-1].Title != "n25" {
		t.Errorf("oldest kept entry = %q", list[len(list)-1].Title)
	}
}

func TestCenterMarkReadAndClear(t *testing.T) {
	c := NewCenter(nil)
	a := c.Add(models.NotifyInfo, "a", "", "")
	c.Add(models.NotifyInfo, "b", "", "")
	c.Add(models.NotifyInfo, "c", "", "")

	if err := c.MarkRead(a.ID); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if c.UnreadCount() != 2 {
		t.Errorf("UnreadCount = %d, want 2", c.UnreadCount())
	}
	if err := c.MarkRead("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if n := c.MarkAllRead(); n != 2 {
		t.Errorf("MarkAllRead = %d, want 2", n)
	}
	c.Clear()
	if len(c.List()) != 0 || c.UnreadCount() != 0 {
		t.Error("Clear left entries behind")
	}
}

func TestCenterLoadSorts(t *testing.T) {
	now := time.Now()
	c := NewCenter(nil)
	c.Load([]models.Notification{
		{ID: "new", CreatedAt: now},
		{ID: "old", CreatedAt: now.Add(-time.Hour), Read: true},
	})
	list := c.List()
	if list[0].ID != "new" || list[1].ID != "old" {
		t.Errorf("unexpected order %+v", list)
	}
	if c.UnreadCount() != 1 {
		t.Errorf("UnreadCount = %d, want 1", c.UnreadCount())
	}
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		event    events.Event
		wantOK   bool
		wantKind models.NotificationKind
		wantBody string
	}{
		{events.Event{Type: events.EventCreate, Path: "/Design/Drafts", Name: "Drafts"}, true, models.NotifySuccess, "Drafts was created."},
		{events.Event{Type: events.EventUpload, Path: "/Design", Count: 1}, true, models.NotifySuccess, "1 file uploaded to /Design."},
		{events.Event{Type: events.EventUpload, Path: "/", Count: 3}, true, models.NotifySuccess, "3 files uploaded to /."},
		{events.Event{Type: events.EventRename, Path: "/Brand", OldPath: "/Design", Name: "Brand"}, true, models.NotifyInfo, "Design was renamed to Brand."},
		{events.Event{Type: events.EventMove, Path: "/Media/Assets", Name: "Assets"}, true, models.NotifyInfo, "Assets was moved to /Media."},
		{events.Event{Type: events.EventDelete, Path: "/Design", Name: "Design", Count: 4}, true, models.NotifyWarning, "Design and 3 nested items were deleted."},
		{events.Event{Type: events.EventDelete, Path: "/notes.txt", Count: 1}, true, models.NotifyWarning, "notes.txt was deleted."},
		{events.Event{Type: events.EventStar, Path: "/notes.txt"}, false, "", ""},
		{events.Event{Type: events.EventNotification}, false, "", ""},
	}
	for _, tt := range tests {
		n, ok := Describe(tt.event)
		if ok != tt.wantOK {
			t.Errorf("Describe(%s) ok = %v", tt.event.Type, ok)
			continue
		}
		if ok && (n.Kind != tt.wantKind || n.Body != tt.wantBody) {
			t.Errorf("Describe(%s) = %s %q, want %s %q", tt.event.Type, n.Kind, n.Body, tt.wantKind, tt.wantBody)
		}
	}
}

func TestRecorder(t *testing.T) {
	b := events.NewBroadcaster()
	c := NewCenter(b)
	r := NewRecorder(c, b)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	deadline := time.Now().Add(time.Second)
	for b.Count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	b.Publish(events.Event{Type: events.EventCreate, Path: "/Drafts", Name: "Drafts"})
	b.Publish(events.Event{Type: events.EventStar, Path: "/notes.txt"})

	for len(c.List()) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	list := c.List()
	if len(list) != 1 || list[0].Title != "Folder created" {
		t.Errorf("unexpected notifications %+v", list)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("recorder did not stop")
	}
	if b.Count() != 0 {
		t.Errorf("recorder should unsubscribe, %d subscribers left", b.Count())
	}
}
