package api

import (
	"net/http"
	"time"

	"github.com/mdmarufa/cloudex/internal/snapshot"
	"github.com/mdmarufa/cloudex/pkg/protocol"
)

// handleSnapshot exports the current state to the configured backend.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.snapshots == nil {
		s.sendError(w, http.StatusNotFound, "snapshots are disabled")
		return
	}

	st := snapshot.State{Files: s.files, Inbox: s.inbox, Notifications: s.notifications}
	snap := st.Capture(time.Now().UTC())
	if err := s.snapshots.Save(r.Context(), snap); err != nil {
		s.sendDomainError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusOK, protocol.SnapshotResponse{
		Backend: s.snapshots.Type(),
		Items:   len(snap.Files),
		SavedAt: snap.SavedAt,
	})
}
