package domain

import "time"

// ActorType identifies who performed an audited action.
type ActorType string

const (
	ActorUser   ActorType = "user"
	ActorStaff  ActorType = "staff"
	ActorSystem ActorType = "system"
)

// Actor is the subject of an audit entry or event.
type Actor struct {
	Type    ActorType `json:"type"`
	UserID  *string   `json:"user_id,omitempty"`
	StaffID *string   `json:"staff_id,omitempty"`
}

// UserActor builds an end-user actor.
func UserActor(userID string) Actor {
	return Actor{Type: ActorUser, UserID: &userID}
}

// StaffActor builds a staff actor.
func StaffActor(staffID string) Actor {
	return Actor{Type: ActorStaff, StaffID: &staffID}
}

// SystemActor marks engine-initiated actions.
func SystemActor() Actor {
	return Actor{Type: ActorSystem}
}

// AuditLogEntry is one row of the append-only audit trail. Never mutated or
// deleted.
type AuditLogEntry struct {
	ID         string         `json:"id"`
	Actor      Actor          `json:"actor"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
