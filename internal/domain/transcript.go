package domain

import "time"

// TranscriptTrigger records why a transcript was generated.
type TranscriptTrigger string

const (
	TranscriptTriggerClose  TranscriptTrigger = "close"
	TranscriptTriggerManual TranscriptTrigger = "manual"
)

// TranscriptSchemaVersion is the current snapshot layout version.
const TranscriptSchemaVersion = 1

// TicketTranscript is an immutable point-in-time snapshot of a ticket.
// Generated at most once automatically on first close, any number of times
// on manual request.
type TicketTranscript struct {
	ID            string
	TicketID      string
	Trigger       TranscriptTrigger
	SchemaVersion int
	Snapshot      []byte
	GeneratedAt   time.Time
}

// TranscriptSnapshot is the JSON document stored in a transcript row.
type TranscriptSnapshot struct {
	SchemaVersion int               `json:"schema_version"`
	Ticket        Ticket            `json:"ticket"`
	Messages      []TicketMessage   `json:"messages"`
	Claims        []TicketClaim     `json:"claims"`
	AuditEntries  []AuditLogEntry   `json:"audit_entries"`
	Trigger       TranscriptTrigger `json:"trigger"`
	GeneratedAt   time.Time         `json:"generated_at"`
}
