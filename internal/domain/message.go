package domain

import "time"

// MessageAuthorType indicates who authored a message.
type MessageAuthorType string

const (
	AuthorTypeUser   MessageAuthorType = "user"
	AuthorTypeStaff  MessageAuthorType = "staff"
	AuthorTypeSystem MessageAuthorType = "system"
)

// TicketMessage captures one entry in a ticket thread. Immutable once
// created.
type TicketMessage struct {
	ID          string
	TicketID    string
	AuthorType  MessageAuthorType
	AuthorID    *string
	Body        string
	Source      TicketSource
	ParentID    *string
	Attachments []TicketAttachment
	CreatedAt   time.Time
}

// TicketAttachment stores metadata for a message attachment; the payload
// itself lives in the blob store.
type TicketAttachment struct {
	ID         string
	MessageID  string
	FileName   string
	StorageKey string
	MimeType   string
	SizeBytes  int64
	CreatedAt  time.Time
}
