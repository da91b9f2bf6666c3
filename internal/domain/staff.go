package domain

import "time"

// StaffMember links a User to a Role. A staff member is a capability-bearing
// actor only while Active; deactivation revokes authorization immediately.
type StaffMember struct {
	ID           string
	UserID       string
	RoleID       string
	Role         *Role
	Nickname     *string
	Active       bool
	PayPerTicket float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Rank returns the member's hierarchy position via its role.
func (s *StaffMember) Rank() Rank {
	if s == nil {
		return UnrankedRank()
	}
	return s.Role.Rank()
}

// IsAdmin reports whether the member holds the implicit admin role.
func (s *StaffMember) IsAdmin() bool {
	return s != nil && s.Role != nil && s.Role.IsAdmin
}
