package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/mdmarufa/cloudex/internal/events"
	"github.com/mdmarufa/cloudex/internal/logging"
	"github.com/mdmarufa/cloudex/internal/metrics"
	"github.com/mdmarufa/cloudex/pkg/protocol"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsMaxMessage = 64 << 10
)

// ─── SSE ────────────────────────────────────────────────────────────────────

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.sendError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Subscribe before flushing so nothing published after the client
	// sees the headers is missed.
	ch := s.broadcaster.Subscribe()
	defer s.broadcaster.Unsubscribe(ch)
	metrics.SetSSEConnectionsActive(s.sseActive.Add(1))
	defer func() { metrics.SetSSEConnectionsActive(s.sseActive.Add(-1)) }()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			data, err := events.MarshalEvent(event)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, data)
			flusher.Flush()
		}
	}
}

// ─── WebSocket ──────────────────────────────────────────────────────────────

// wsCommand is a frame sent by a WebSocket client. The only command is
// "send", which delivers a chat message through the inbox.
type wsCommand struct {
	Type    string                      `json:"type"`
	Ref     string                      `json:"ref,omitempty"`
	Message protocol.SendMessageRequest `json:"message"`
}

// wsReply answers a command.
type wsReply struct {
	Type  string `json:"type"` // "ack" or "error"
	Ref   string `json:"ref,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
	Code  int    `json:"code,omitempty"`
}

// handleWebSocket streams change events as JSON text frames and accepts
// chat commands from the client. All writes happen on the handler
// goroutine; the read loop hands replies over a channel.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		logging.WithContext(r.Context()).Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	metrics.AddWSConnections(1)
	defer metrics.AddWSConnections(-1)

	ch := s.broadcaster.Subscribe()
	defer s.broadcaster.Unsubscribe(ch)

	replies := make(chan wsReply, 8)
	done := make(chan struct{})
	quit := make(chan struct{})
	defer close(quit)
	go s.wsReadLoop(conn, replies, done, quit)

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := s.wsWrite(conn, event); err != nil {
				return
			}
		case reply := <-replies:
			if err := s.wsWrite(conn, reply); err != nil {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) wsWrite(conn *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Server) wsReadLoop(conn *websocket.Conn, replies chan<- wsReply, done chan<- struct{}, quit <-chan struct{}) {
	defer close(done)

	conn.SetReadLimit(wsMaxMessage)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.Debug("websocket closed", zap.Error(err))
			}
			return
		}

		var reply wsReply
		var cmd wsCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			reply = wsReply{Type: "error", Error: "invalid frame", Code: http.StatusBadRequest}
		} else {
			reply = s.wsHandle(cmd)
		}
		select {
		case replies <- reply:
		case <-quit:
			return
		}
	}
}

func (s *Server) wsHandle(cmd wsCommand) wsReply {
	switch cmd.Type {
	case "send":
		if !s.Loaded() {
			return wsReply{Type: "error", Ref: cmd.Ref, Error: "loading", Code: http.StatusServiceUnavailable}
		}
		msg, err := s.inbox.Send(draftFrom(cmd.Message))
		if err != nil {
			code := statusFor(err)
			text := err.Error()
			if code == http.StatusInternalServerError {
				text = "internal error"
			}
			return wsReply{Type: "error", Ref: cmd.Ref, Error: text, Code: code}
		}
		return wsReply{Type: "ack", Ref: cmd.Ref, Data: msg}
	default:
		return wsReply{Type: "error", Ref: cmd.Ref, Error: fmt.Sprintf("unknown command %q", cmd.Type), Code: http.StatusBadRequest}
	}
}
