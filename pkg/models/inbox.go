package models

import "time"

// Attachment is a mock file attached to a message. Only metadata is kept.
type Attachment struct {
	Name string   `json:"name"`
	Size int64    `json:"size"`
	Type FileType `json:"type"`
}

// Message is a single inbox message.
type Message struct {
	ID             string       `json:"id"`
	ConversationID string       `json:"conversationId"`
	From           string       `json:"from"`
	To             string       `json:"to"`
	Subject        string       `json:"subject,omitempty"`
	Body           string       `json:"body"`
	SentAt         time.Time    `json:"sentAt"`
	Read           bool         `json:"read"`
	Attachments    []Attachment `json:"attachments,omitempty"`
}

// Conversation groups messages exchanged with one contact.
type Conversation struct {
	ID            string    `json:"id"`
	Participants  []string  `json:"participants"`
	Subject       string    `json:"subject"`
	LastMessageAt time.Time `json:"lastMessageAt"`
	Unread        int       `json:"unread"`
	Preview       string    `json:"preview,omitempty"`
}

// NotificationKind is the severity shown in the notification drawer.
type NotificationKind string

const (
	NotifyInfo    NotificationKind = "info"
	NotifySuccess NotificationKind = "success"
	NotifyWarning NotificationKind = "warning"
	NotifyError   NotificationKind = "error"
)

// Notification is an entry of the notification drawer.
type Notification struct {
	ID        string           `json:"id"`
	Kind      NotificationKind `json:"kind"`
	Title     string           `json:"title"`
	Body      string           `json:"body,omitempty"`
	Path      string           `json:"path,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	Read      bool             `json:"read"`
}
