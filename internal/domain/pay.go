package domain

import "time"

// StaffPayAdjustment is one ledger row; positive amounts are bonuses,
// negative amounts are docks.
type StaffPayAdjustment struct {
	ID        string
	StaffID   string
	Amount    float64
	Reason    string
	Actor     Actor
	CreatedAt time.Time
}

// MonthlyEarnings is the derived per-staff pay view for a calendar month.
// Adjustments are additive to, not blended into, the base figure.
type MonthlyEarnings struct {
	StaffID      string
	ClaimedCount int
	PayPerTicket float64
	BaseEarnings float64
	Adjustments  float64
	Total        float64
}

// LeaderboardEntry ranks staff by distinct tickets replied to this month.
type LeaderboardEntry struct {
	StaffID         string
	RoleID          string
	Nickname        *string
	AnsweredTickets int
}
