package api

import (
	"net/http"

	"github.com/mdmarufa/cloudex/internal/viewstate"
	"github.com/mdmarufa/cloudex/pkg/protocol"
)

// handleViewState normalizes the query parameters of a dashboard URL.
// Rejected values are reported with 400 alongside the normalized state.
func (s *Server) handleViewState(w http.ResponseWriter, r *http.Request) {
	st, err := viewstate.Parse(r.URL.Query())
	resp := protocol.ViewStateResponse{
		State: protocol.ViewState(st),
		Query: st.Encode().Encode(),
	}
	if err != nil {
		resp.Error = err.Error()
		s.sendJSON(w, http.StatusBadRequest, resp)
		return
	}
	s.sendJSON(w, http.StatusOK, resp)
}

func (s *Server) handleShortcuts(w http.ResponseWriter, r *http.Request) {
	out := make([]protocol.Shortcut, len(viewstate.Shortcuts))
	for i, sc := range viewstate.Shortcuts {
		out[i] = protocol.Shortcut{Combo: sc.Display, Action: sc.Action, Description: sc.Description}
	}
	s.sendJSON(w, http.StatusOK, out)
}
