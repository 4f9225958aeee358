package inbox

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mdmarufa/cloudex/internal/events"
	"github.com/mdmarufa/cloudex/pkg/models"
)

var base = time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)

type capture struct{ events []events.Event }

func (c *capture) Publish(e events.Event) { c.events = append(c.events, e) }

func newTestInbox(t *testing.T) (*Inbox, *capture) {
	t.Helper()
	pub := &capture{}
	n := 0
	in := New(Options{
		Owner:             "demo",
		MaxAttachmentSize: 1000,
		Publisher:         pub,
		Now:               func() time.Time { return base },
		NewID: func() string {
			n++
			return fmt.Sprintf("id%d", n)
		},
	})
	in.Load(
		[]models.Conversation{
			{ID: "c1", Participants: []string{"demo", "sara"}, Subject: "Logo"},
			{ID: "c2", Participants: []string{"demo", "omar", "lena"}, Subject: "Offsite"},
		},
		[]models.Message{
			{ID: "m1", ConversationID: "c1", From: "sara", To: "demo", Body: "first", SentAt: base.Add(-3 * time.Hour), Read: true},
			{ID: "m2", ConversationID: "c1", From: "sara", To: "demo", Body: "second", SentAt: base.Add(-2 * time.Hour)},
			{ID: "m3", ConversationID: "c2", From: "omar", To: "demo", Body: "photos", SentAt: base.Add(-time.Hour)},
			{ID: "m4", ConversationID: "c2", From: "lena", To: "demo", Body: "more", SentAt: base.Add(-90 * time.Minute)},
		},
	)
	return in, pub
}

func TestList(t *testing.T) {
	in, _ := newTestInbox(t)
	convs := in.List()
	if len(convs) != 2 {
		t.Fatalf("expected 2 conversations, got %d", len(convs))
	}
	if convs[0].ID != "c2" {
		t.Errorf("most recent conversation first, got %s", convs[0].ID)
	}
	if convs[0].Unread != 2 || convs[1].Unread != 1 {
		t.Errorf("unread = %d/%d, want 2/1", convs[0].Unread, convs[1].Unread)
	}
	if convs[0].Preview != "photos" || !convs[0].LastMessageAt.Equal(base.Add(-time.Hour)) {
		t.Errorf("unexpected summary %+v", convs[0])
	}
	if in.UnreadCount() != 3 {
		t.Errorf("UnreadCount = %d, want 3", in.UnreadCount())
	}
}

func TestConversationOrdersMessages(t *testing.T) {
	in, _ := newTestInbox(t)
	_, msgs, err := in.Conversation("c2")
	if err != nil {
		t.Fatalf("Conversation: %v", err)
	}
	if len(msgs) != 2 || msgs[0].ID != "m4" || msgs[1].ID != "m3" {
		t.Errorf("unexpected order %+v", msgs)
	}
	if _, _, err := in.Conversation("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSend(t *testing.T) {
	in, pub := newTestInbox(t)

	msg, err := in.Send(Draft{ConversationID: "c1", Body: "  reply  "})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if msg.To != "sara" || msg.Body != "reply" || msg.From != "demo" || msg.Subject != "Logo" {
		t.Errorf("unexpected message %+v", msg)
	}
	if len(pub.events) != 1 || pub.events[0].Type != events.EventMessage {
		t.Errorf("expected one message event, got %+v", pub.events)
	}

	// Reuses the direct conversation with sara.
	msg, err = in.Send(Draft{To: "Sara", Body: "hi again"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if msg.ConversationID != "c1" {
		t.Errorf("expected conversation c1, got %s", msg.ConversationID)
	}

	// Starts a new one.
	msg, err = in.Send(Draft{To: "kim", Attachments: []models.Attachment{{Name: "plan.pdf", Size: 1000}}})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	conv, msgs, err := in.Conversation(msg.ConversationID)
	if err != nil {
		t.Fatalf("Conversation: %v", err)
	}
	if conv.Subject != "Conversation with kim" || len(msgs) != 1 {
		t.Errorf("unexpected new conversation %+v", conv)
	}
	if msgs[0].Attachments[0].Type != models.TypeDocument {
		t.Errorf("attachment type not inferred: %+v", msgs[0].Attachments[0])
	}
	if conv.Preview != "Attachment: plan.pdf" {
		t.Errorf("preview = %q", conv.Preview)
	}
}

func TestSendValidation(t *testing.T) {
	tests := []struct {
		name    string
		draft   Draft
		wantErr error
	}{
		{"empty", Draft{To: "sara", Body: "   "}, ErrEmptyMessage},
		{"too large", Draft{To: "sara", Body: "x", Attachments: []models.Attachment{{Name: "big.zip", Size: 1001}}}, ErrAttachmentTooLarge},
		{"no recipient", Draft{Body: "hello"}, ErrNoRecipient},
		{"unknown conversation", Draft{ConversationID: "zz", Body: "hello"}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, pub := newTestInbox(t)
			if _, err := in.Send(tt.draft); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
			if len(pub.events) != 0 {
				t.Error("rejected message should not publish")
			}
			_, msgs := in.Export()
			if len(msgs) != 4 {
				t.Errorf("rejected message stored, have %d", len(msgs))
			}
		})
	}
}

func TestMarkRead(t *testing.T) {
	in, _ := newTestInbox(t)

	if err := in.MarkRead("m2"); err != nil {
		t.Fatalf("MarkRead: %v", err)
	}
	if in.UnreadCount() != 2 {
		t.Errorf("UnreadCount = %d, want 2", in.UnreadCount())
	}
	n, err := in.MarkConversationRead("c2")
	if err != nil || n != 2 {
		t.Errorf("MarkConversationRead = %d, %v", n, err)
	}
	if in.UnreadCount() != 0 {
		t.Errorf("UnreadCount = %d, want 0", in.UnreadCount())
	}
	if err := in.MarkRead("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	in, _ := newTestInbox(t)

	if err := in.Delete("m1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(in.List()) != 2 {
		t.Error("conversation with messages left should stay")
	}
	if err := in.Delete("m2"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, err := in.Conversation("c1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("empty conversation should be dropped, got %v", err)
	}
	if err := in.Delete("m1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestReceive(t *testing.T) {
	in, pub := newTestInbox(t)
	m := in.Receive(models.Message{From: "sara", Body: "ping"})
	if m.ConversationID != "c1" || m.To != "demo" || !m.SentAt.Equal(base) {
		t.Errorf("unexpected message %+v", m)
	}
	if in.UnreadCount() != 4 {
		t.Errorf("UnreadCount = %d, want 4", in.UnreadCount())
	}
	if len(pub.events) != 1 {
		t.Errorf("expected one event, got %d", len(pub.events))
	}
}

func TestSendToSelf(t *testing.T) {
	in, _ := newTestInbox(t)

	first, err := in.Send(Draft{To: "Demo", Body: "buy milk"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if first.ConversationID == "c1" || first.ConversationID == "c2" {
		t.Fatalf("note to self filed under %s", first.ConversationID)
	}
	if first.To != "demo" {
		t.Errorf("To = %q, want demo", first.To)
	}
	conv, _, err := in.Conversation(first.ConversationID)
	if err != nil {
		t.Fatalf("Conversation: %v", err)
	}
	if len(conv.Participants) != 2 || conv.Participants[0] != "demo" || conv.Participants[1] != "demo" {
		t.Errorf("participants = %v, want [demo demo]", conv.Participants)
	}

	second, err := in.Send(Draft{To: "demo", Body: "and eggs"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if second.ConversationID != first.ConversationID {
		t.Errorf("second note in %s, want %s", second.ConversationID, first.ConversationID)
	}
	reply, err := in.Send(Draft{ConversationID: first.ConversationID, Body: "and bread"})
	if err != nil {
		t.Fatalf("Send into self conversation: %v", err)
	}
	if reply.To != "demo" {
		t.Errorf("reply To = %q, want demo", reply.To)
	}

	sara, err := in.Send(Draft{To: "sara", Body: "hi"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if sara.ConversationID != "c1" {
		t.Errorf("message to sara in %s, want c1", sara.ConversationID)
	}
}

func TestSendDoesNotModifyDraftAttachments(t *testing.T) {
	in, _ := newTestInbox(t)
	atts := []models.Attachment{{Name: "photo.png", Size: 10}}

	msg, err := in.Send(Draft{To: "sara", Attachments: atts})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if atts[0].Type != "" {
		t.Errorf("caller attachment mutated: %+v", atts[0])
	}
	if msg.Attachments[0].Type != models.TypeImage {
		t.Errorf("stored type = %q, want %q", msg.Attachments[0].Type, models.TypeImage)
	}
	atts[0].Name = "changed.png"
	_, msgs, _ := in.Conversation("c1")
	if got := msgs[len(msgs)-1].Attachments[0].Name; got != "photo.png" {
		t.Errorf("stored attachment aliases caller slice: %q", got)
	}
}
