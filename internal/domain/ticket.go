package domain

import "time"

// TicketSource records which channel opened a ticket.
type TicketSource string

const (
	SourceWeb     TicketSource = "web"
	SourceDiscord TicketSource = "discord"
	SourceBot     TicketSource = "bot"
)

// Ticket is the aggregate for a support request. Status, assignee and panel
// are the only staff-mutable fields.
type Ticket struct {
	ID              string
	PublicID        string
	PanelID         string
	StatusID        string
	CreatorUserID   string
	CreatorIdentity *string
	CreatorEmail    string
	Subject         string
	Source          TicketSource
	AssignedStaffID *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	ClosedAt        *time.Time
	LastMessageAt   time.Time
}
