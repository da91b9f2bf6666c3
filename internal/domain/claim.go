package domain

import "time"

// ClaimAction distinguishes claim from unclaim history rows.
type ClaimAction string

const (
	ClaimActionClaim   ClaimAction = "claim"
	ClaimActionUnclaim ClaimAction = "unclaim"
)

// TicketClaim is one row of the append-only claim history. The history, not
// the ticket's current assignee, is the audit source of truth, so rows are
// appended even when the action is redundant.
type TicketClaim struct {
	ID        string
	TicketID  string
	StaffID   string
	Action    ClaimAction
	CreatedAt time.Time
}
