// Package inbox keeps the dashboard's conversations and messages in memory.
package inbox

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mdmarufa/cloudex/internal/events"
	"github.com/mdmarufa/cloudex/internal/logging"
	"github.com/mdmarufa/cloudex/internal/metrics"
	"github.com/mdmarufa/cloudex/pkg/models"
)

// DefaultMaxAttachmentSize is the largest mock attachment accepted.
const DefaultMaxAttachmentSize = 10 << 20

const previewLen = 80

var (
	ErrNotFound           = errors.New("message not found")
	ErrEmptyMessage       = errors.New("message has no body and no attachments")
	ErrAttachmentTooLarge = errors.New("attachment too large")
	ErrNoRecipient        = errors.New("recipient is required")
)

// Publisher receives change events.
type Publisher interface {
	Publish(events.Event)
}

// Options configures an Inbox.
type Options struct {
	Owner             string
	MaxAttachmentSize int64
	Publisher         Publisher
	Now               func() time.Time
	NewID             func() string
}

// Draft is a message about to be sent.
type Draft struct {
	ConversationID string
	To             string
	Subject        string
	Body           string
	Attachments    []models.Attachment
}

// Inbox is the in-memory message store of one user.
type Inbox struct {
	mu            sync.RWMutex
	owner         string
	maxAttachment int64
	convs         []models.Conversation
	messages      []models.Message
	pub           Publisher
	now           func() time.Time
	newID         func() string
}

// New creates an empty inbox.
func New(opts Options) *Inbox {
	in := &Inbox{
		owner:         opts.Owner,
		maxAttachment: opts.MaxAttachmentSize,
		pub:           opts.Publisher,
		now:           opts.Now,
		newID:         opts.NewID,
	}
	if in.maxAttachment <= 0 {
		in.maxAttachment = DefaultMaxAttachmentSize
	}
	if in.now == nil {
		in.now = time.Now
	}
	if in.newID == nil {
		in.newID = uuid.NewString
	}
	return in
}

// Load replaces all conversations and messages.
func (in *Inbox) Load(convs []models.Conversation, msgs []models.Message) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.convs = slices.Clone(convs)
	in.messages = slices.Clone(msgs)
	in.updateMetricsLocked()
}

// Export returns copies of the raw conversations and messages.
func (in *Inbox) Export() ([]models.Conversation, []models.Message) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return slices.Clone(in.convs), slices.Clone(in.messages)
}

// List returns every conversation, most recent first, with unread count
// and preview filled in.
func (in *Inbox) List() []models.Conversation {
	in.mu.RLock()
	defer in.mu.RUnlock()

	out := make([]models.Conversation, 0, len(in.convs))
	for _, c := range in.convs {
		out = append(out, in.summaryLocked(c))
	}
	slices.SortStableFunc(out, func(a, b models.Conversation) int {
		return b.LastMessageAt.Compare(a.LastMessageAt)
	})
	return out
}

// Conversation returns a conversation and its messages in send order.
func (in *Inbox) Conversation(id string) (models.Conversation, []models.Message, error) {
	in.mu.RLock()
	defer in.mu.RUnlock()

	i := in.convIndexLocked(id)
	if i < 0 {
		return models.Conversation{}, nil, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	msgs := []models.Message{}
	for _, m := range in.messages {
		if m.ConversationID == id {
			msgs = append(msgs, m)
		}
	}
	slices.SortStableFunc(msgs, func(a, b models.Message) int {
		return a.SentAt.Compare(b.SentAt)
	})
	return in.summaryLocked(in.convs[i]), msgs, nil
}

// Send validates and stores a message from the owner. Without a
// conversation ID the existing one-to-one conversation with the recipient
// is reused or a new one is started.
func (in *Inbox) Send(d Draft) (models.Message, error) {
	d.Body = strings.TrimSpace(d.Body)
	d.To = strings.TrimSpace(d.To)
	if strings.EqualFold(d.To, in.owner) {
		d.To = in.owner
	}
	if d.Body == "" && len(d.Attachments) == 0 {
		return models.Message{}, ErrEmptyMessage
	}
	for _, a := range d.Attachments {
		if a.Size > in.maxAttachment {
			metrics.RecordAttachmentRejected()
			logging.Warn("attachment rejected",
				zap.String("name", a.Name),
				zap.Int64("size", a.Size),
				zap.Int64("max", in.maxAttachment))
			return models.Message{}, fmt.Errorf("%w: %s is %d bytes (max %d)", ErrAttachmentTooLarge, a.Name, a.Size, in.maxAttachment)
		}
	}

	in.mu.Lock()
	var conv *models.Conversation
	if d.ConversationID != "" {
		i := in.convIndexLocked(d.ConversationID)
		if i < 0 {
			in.mu.Unlock()
			return models.Message{}, fmt.Errorf("conversation %s: %w", d.ConversationID, ErrNotFound)
		}
		conv = &in.convs[i]
		if d.To == "" {
			d.To = strings.Join(in.othersLocked(conv), ",")
		}
	}
	if d.To == "" {
		in.mu.Unlock()
		return models.Message{}, ErrNoRecipient
	}
	if conv == nil {
		conv = in.directConversationLocked(d.To)
	}
	if conv == nil {
		subject := d.Subject
		switch {
		case subject != "":
		case d.To == in.owner:
			subject = "Notes"
		default:
			subject = "Conversation with " + d.To
		}
		in.convs = append(in.convs, models.Conversation{
			ID:           in.newID(),
			Participants: []string{in.owner, d.To},
			Subject:      subject,
		})
		conv = &in.convs[len(in.convs)-1]
	}
	if d.Subject == "" {
		d.Subject = conv.Subject
	}

	d.Attachments = slices.Clone(d.Attachments)
	for i := range d.Attachments {
		if d.Attachments[i].Type == "" {
			d.Attachments[i].Type = models.TypeFromName(d.Attachments[i].Name)
		}
	}
	msg := models.Message{
		ID:             in.newID(),
		ConversationID: conv.ID,
		From:           in.owner,
		To:             d.To,
		Subject:        d.Subject,
		Body:           d.Body,
		SentAt:         in.now(),
		Read:           true,
		Attachments:    d.Attachments,
	}
	in.messages = append(in.messages, msg)
	in.updateMetricsLocked()
	in.mu.Unlock()

	metrics.RecordMessageSent()
	logging.Info("message sent",
		zap.String("conversation", msg.ConversationID),
		zap.String("to", msg.To),
		zap.Int("attachments", len(msg.Attachments)))
	if in.pub != nil {
		in.pub.Publish(events.Event{Type: events.EventMessage, ItemID: msg.ID, Name: msg.Subject, Data: msg})
	}
	return msg, nil
}

// Receive stores an incoming message addressed to the owner.
func (in *Inbox) Receive(m models.Message) models.Message {
	in.mu.Lock()
	if m.ID == "" {
		m.ID = in.newID()
	}
	if m.SentAt.IsZero() {
		m.SentAt = in.now()
	}
	if m.To == "" {
		m.To = in.owner
	}
	if in.convIndexLocked(m.ConversationID) < 0 {
		c := in.directConversationLocked(m.From)
		if c == nil {
			in.convs = append(in.convs, models.Conversation{
				ID:           in.newID(),
				Participants: []string{in.owner, m.From},
				Subject:      m.Subject,
			})
			c = &in.convs[len(in.convs)-1]
		}
		m.ConversationID = c.ID
	}
	in.messages = append(in.messages, m)
	in.updateMetricsLocked()
	in.mu.Unlock()

	if in.pub != nil {
		in.pub.Publish(events.Event{Type: events.EventMessage, ItemID: m.ID, Name: m.Subject, Data: m})
	}
	return m
}

// MarkRead marks one message as read.
func (in *Inbox) MarkRead(id string) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	for i := range in.messages {
		if in.messages[i].ID == id {
			in.messages[i].Read = true
			in.updateMetricsLocked()
			return nil
		}
	}
	return fmt.Errorf("mark read %s: %w", id, ErrNotFound)
}

// MarkConversationRead marks every message of a conversation as read and
// returns how many changed.
func (in *Inbox) MarkConversationRead(id string) (int, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.convIndexLocked(id) < 0 {
		return 0, fmt.Errorf("conversation %s: %w", id, ErrNotFound)
	}
	n := 0
	for i := range in.messages {
		if in.messages[i].ConversationID == id && !in.messages[i].Read {
			in.messages[i].Read = true
			n++
		}
	}
	in.updateMetricsLocked()
	return n, nil
}

// Delete removes one message. Conversations left empty are dropped.
func (in *Inbox) Delete(id string) error {
	in.mu.Lock()
	defer in.mu.Unlock()

	i := slices.IndexFunc(in.messages, func(m models.Message) bool { return m.ID == id })
	if i < 0 {
		return fmt.Errorf("delete message %s: %w", id, ErrNotFound)
	}
	convID := in.messages[i].ConversationID
	in.messages = slices.Delete(in.messages, i, i+1)

	if !slices.ContainsFunc(in.messages, func(m models.Message) bool { return m.ConversationID == convID }) {
		in.convs = slices.DeleteFunc(in.convs, func(c models.Conversation) bool { return c.ID == convID })
	}
	in.updateMetricsLocked()
	return nil
}

// UnreadCount returns the number of unread messages addressed to the owner.
func (in *Inbox) UnreadCount() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.unreadLocked("")
}

func (in *Inbox) unreadLocked(convID string) int {
	n := 0
	for _, m := range in.messages {
		if m.Read || m.From == in.owner {
			continue
		}
		if convID == "" || m.ConversationID == convID {
			n++
		}
	}
	return n
}

func (in *Inbox) summaryLocked(c models.Conversation) models.Conversation {
	c.Participants = slices.Clone(c.Participants)
	c.Unread = in.unreadLocked(c.ID)
	for _, m := range in.messages {
		if m.ConversationID != c.ID || m.SentAt.Before(c.LastMessageAt) {
			continue
		}
		c.LastMessageAt = m.SentAt
		c.Preview = preview(m)
	}
	return c
}

func (in *Inbox) convIndexLocked(id string) int {
	return slices.IndexFunc(in.convs, func(c models.Conversation) bool { return c.ID == id })
}

// directConversationLocked finds the one-to-one conversation with contact.
// Notes to self live in an [owner, owner] conversation.
func (in *Inbox) directConversationLocked(contact string) *models.Conversation {
	for i := range in.convs {
		p := in.convs[i].Participants
		if len(p) != 2 {
			continue
		}
		var other string
		switch in.owner {
		case p[0]:
			other = p[1]
		case p[1]:
			other = p[0]
		default:
			continue
		}
		if strings.EqualFold(other, contact) {
			return &in.convs[i]
		}
	}
	return nil
}

// othersLocked returns the participants besides the owner, or the owner
// alone for a self conversation.
func (in *Inbox) othersLocked(c *models.Conversation) []string {
	var out []string
	for _, p := range c.Participants {
		if p != in.owner {
			out = append(out, p)
		}
	}
	if len(out) == 0 && slices.Contains(c.Participants, in.owner) {
		out = []string{in.owner}
	}
	return out
}

func (in *Inbox) updateMetricsLocked() {
	metrics.SetMessagesUnread(in.unreadLocked(""))
}

func preview(m models.Message) string {
	body := m.Body
	if body == "" && len(m.Attachments) > 0 {
		body = "Attachment: " + m.Attachments[0].Name
	}
	if r := []rune(body); len(r) > previewLen {
		return string(r[:previewLen-1]) + "…"
	}
	return body
}
