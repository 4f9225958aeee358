package api

import (
	"net/http"

	"github.com/mdmarufa/cloudex/internal/inbox"
	"github.com/mdmarufa/cloudex/pkg/protocol"
)

// ─── Inbox ──────────────────────────────────────────────────────────────────

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, protocol.InboxResponse{
		Conversations: s.inbox.List(),
		Unread:        s.inbox.UnreadCount(),
	})
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	conv, msgs, err := s.inbox.Conversation(r.PathValue("id"))
	if err != nil {
		s.sendDomainError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusOK, protocol.ConversationResponse{Conversation: conv, Messages: msgs})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req protocol.SendMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	msg, err := s.inbox.Send(draftFrom(req))
	if err != nil {
		s.sendDomainError(w, r, err)
		return
	}
	s.sendJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleReadConversation(w http.ResponseWriter, r *http.Request) {
	if _, err := s.inbox.MarkConversationRead(r.PathValue("id")); err != nil {
		s.sendDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReadMessage(w http.ResponseWriter, r *http.Request) {
	if err := s.inbox.MarkRead(r.PathValue("id")); err != nil {
		s.sendDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	if err := s.inbox.Delete(r.PathValue("id")); err != nil {
		s.sendDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func draftFrom(req protocol.SendMessageRequest) inbox.Draft {
	return inbox.Draft{
		ConversationID: req.ConversationID,
		To:             req.To,
		Subject:        req.Subject,
		Body:           req.Body,
		Attachments:    req.Attachments,
	}
}

// ─── Notifications ──────────────────────────────────────────────────────────

func (s *Server) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, http.StatusOK, protocol.NotificationsResponse{
		Notifications: s.notifications.List(),
		Unread:        s.notifications.UnreadCount(),
	})
}

func (s *Server) handleReadNotification(w http.ResponseWriter, r *http.Request) {
	if err := s.notifications.MarkRead(r.PathValue("id")); err != nil {
		s.sendDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReadAllNotifications(w http.ResponseWriter, r *http.Request) {
	n := s.notifications.MarkAllRead()
	s.sendJSON(w, http.StatusOK, map[string]int{"marked": n})
}

func (s *Server) handleClearNotifications(w http.ResponseWriter, r *http.Request) {
	s.notifications.Clear()
	w.WriteHeader(http.StatusNoContent)
}
