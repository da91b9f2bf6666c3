package domain

import "time"

// User is the domain model for end-users who open tickets. Users are created
// on first login and never deleted; audit history references them.
type User struct {
	ID          string
	IdentityID  string
	DisplayName string
	Email       string
	NotifyByDM  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
