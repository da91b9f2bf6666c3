package domain

import "time"

// TicketStatus is a configurable lifecycle state. Exactly one status should
// carry IsDefaultOpen at steady state; IsClosed marks terminal states.
type TicketStatus struct {
	ID            string
	Name          string
	Slug          string
	IsDefaultOpen bool
	IsClosed      bool
	SortOrder     int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
