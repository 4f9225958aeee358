package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mdmarufa/cloudex/internal/events"
	"github.com/mdmarufa/cloudex/internal/logging"
	"github.com/mdmarufa/cloudex/pkg/models"
	"github.com/mdmarufa/cloudex/pkg/vpath"
)

// Source is the subscription side of the events broadcaster.
type Source interface {
	Subscribe() chan events.Event
	Unsubscribe(chan events.Event)
}

// Recorder turns file change events into notifications.
type Recorder struct {
	center *Center
	src    Source
}

// NewRecorder creates a recorder feeding center from src.
func NewRecorder(center *Center, src Source) *Recorder {
	return &Recorder{center: center, src: src}
}

// Run consumes events until ctx is cancelled.
func (r *Recorder) Run(ctx context.Context) {
	ch := r.src.Subscribe()
	defer r.src.Unsubscribe(ch)
	logging.Debug("notification recorder started")

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			if n, ok := Describe(e); ok {
				r.center.Add(n.Kind, n.Title, n.Body, n.Path)
				logging.Debug("notification recorded", zap.String("event", e.Type), zap.String("path", e.Path))
			}
		}
	}
}

// Describe renders a file event as a notification. Events that do not
// concern the catalogue report false.
func Describe(e events.Event) (models.Notification, bool) {
	name := e.Name
	if name == "" {
		name = vpath.Base(e.Path)
	}
	n := models.Notification{Kind: models.NotifySuccess, Path: e.Path}
	switch e.Type {
	case events.EventCreate:
		n.Title = "Folder created"
		n.Body = fmt.Sprintf("%s was created.", name)
	case events.EventUpload:
		n.Title = "Upload complete"
		n.Body = fmt.Sprintf("%d %s uploaded to %s.", e.Count, plural(e.Count, "file", "files"), e.Path)
	case events.EventRename:
		n.Kind = models.NotifyInfo
		n.Title = "Item renamed"
		n.Body = fmt.Sprintf("%s was renamed to %s.", vpath.Base(e.OldPath), name)
	case events.EventMove:
		n.Kind = models.NotifyInfo
		n.Title = "Item moved"
		n.Body = fmt.Sprintf("%s was moved to %s.", name, vpath.Parent(e.Path))
	case events.EventDelete:
		n.Kind = models.NotifyWarning
		n.Title = "Item deleted"
		n.Body = fmt.Sprintf("%s was deleted.", name)
		if e.Count > 1 {
			n.Body = fmt.Sprintf("%s and %d nested %s were deleted.", name, e.Count-1, plural(e.Count-1, "item", "items"))
		}
	default:
		return models.Notification{}, false
	}
	return n, true
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
