package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated EventType = "ticket.created"
	EventTicketMessage EventType = "ticket.message"
	EventTicketUpdated EventType = "ticket.updated"
)

// Event is a lifecycle notification for live subscribers. It carries the
// ticket's public id and creator so subscribers can apply their own
// visibility filter; it is not a source of truth and clients reconcile by
// re-fetching state after a gap.
type Event struct {
	ID             string    `json:"id"`
	Type           EventType `json:"type"`
	TicketPublicID string    `json:"ticket_id"`
	CreatorUserID  string    `json:"creator_id"`
	Timestamp      time.Time `json:"timestamp"`
	Payload        any       `json:"payload,omitempty"`
}

// TicketUpdatedPayload describes what changed on a ticket.
type TicketUpdatedPayload struct {
	Change string `json:"change"`
}

// TicketMessagePayload describes a new thread message.
type TicketMessagePayload struct {
	AuthorType string `json:"author_type"`
}
