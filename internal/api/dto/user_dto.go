package dto

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// LoginRequest carries the verified external profile delivered by the OAuth
// collaborator after code exchange.
type LoginRequest struct {
	IdentityID  string `json:"identity_id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// PreferencesRequest payload.
type PreferencesRequest struct {
	NotifyByDM bool `json:"notify_by_dm"`
}

// UserResponse describes the authenticated user.
type UserResponse struct {
	ID          string    `json:"id"`
	IdentityID  string    `json:"identity_id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email"`
	NotifyByDM  bool      `json:"notify_by_dm"`
	CreatedAt   time.Time `json:"created_at"`
}

// MeResponse combines user and optional staff context.
type MeResponse struct {
	User  UserResponse   `json:"user"`
	Staff *StaffResponse `json:"staff,omitempty"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:          user.ID,
		IdentityID:  user.IdentityID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		NotifyByDM:  user.NotifyByDM,
		CreatedAt:   user.CreatedAt,
	}
}
