package domain

import "time"

// TicketPanel is a named intake category for tickets.
type TicketPanel struct {
	ID        string
	Name      string
	Active    bool
	SortOrder int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PanelRoleAccess restricts a panel to a role. A panel with no rows is
// visible to all staff; any row restricts visibility to the listed roles
// (admins always see every panel).
type PanelRoleAccess struct {
	PanelID string
	RoleID  string
}
