package dto

import (
	"time"

	"github.com/spec-kit/support-desk/internal/domain"
)

// StaffResponse describes a staff member with its hydrated role.
type StaffResponse struct {
	ID           string       `json:"id"`
	UserID       string       `json:"user_id"`
	Nickname     *string      `json:"nickname"`
	Active       bool         `json:"active"`
	PayPerTicket float64      `json:"pay_per_ticket"`
	Role         RoleResponse `json:"role"`
}

// RoleResponse describes a role and its permission strings.
type RoleResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	SortOrder   *int     `json:"sort_order"`
	IsAdmin     bool     `json:"is_admin"`
	Permissions []string `json:"permissions"`
	Color       string   `json:"color"`
}

// PanelResponse describes a panel with its allow-list.
type PanelResponse struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Active        bool     `json:"active"`
	SortOrder     int      `json:"sort_order"`
	AccessRoleIDs []string `json:"access_role_ids,omitempty"`
}

// StatusResponse describes a ticket status.
type StatusResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Slug          string `json:"slug"`
	IsDefaultOpen bool   `json:"is_default_open"`
	IsClosed      bool   `json:"is_closed"`
	SortOrder     int    `json:"sort_order"`
}

// PanelRequest payload for panel create/update.
type PanelRequest struct {
	Name          string   `json:"name"`
	Active        bool     `json:"active"`
	SortOrder     int      `json:"sort_order"`
	AccessRoleIDs []string `json:"access_role_ids"`
}

// StatusRequestBody payload for status create/update.
type StatusRequestBody struct {
	Name          string `json:"name"`
	IsDefaultOpen bool   `json:"is_default_open"`
	IsClosed      bool   `json:"is_closed"`
	SortOrder     int    `json:"sort_order"`
}

// RoleRequest payload for role create/update.
type RoleRequest struct {
	Name        string   `json:"name"`
	SortOrder   *int     `json:"sort_order"`
	IsAdmin     bool     `json:"is_admin"`
	Permissions []string `json:"permissions"`
	Color       string   `json:"color"`
}

// StaffRequest payload for staff create/update.
type StaffRequest struct {
	UserID       string  `json:"user_id"`
	RoleID       string  `json:"role_id"`
	Nickname     *string `json:"nickname"`
	Active       bool    `json:"active"`
	PayPerTicket float64 `json:"pay_per_ticket"`
}

// PayAdjustmentRequest payload for bonus/dock.
type PayAdjustmentRequest struct {
	Amount float64 `json:"amount"`
	Reason string  `json:"reason"`
}

// PayAdjustmentResponse is one ledger row.
type PayAdjustmentResponse struct {
	ID        string    `json:"id"`
	Amount    float64   `json:"amount"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

// EarningsResponse is the derived monthly pay view.
type EarningsResponse struct {
	StaffID      string  `json:"staff_id"`
	ClaimedCount int     `json:"claimed_count"`
	PayPerTicket float64 `json:"pay_per_ticket"`
	BaseEarnings float64 `json:"base_earnings"`
	Adjustments  float64 `json:"adjustments"`
	Total        float64 `json:"total"`
}

// LeaderboardEntryResponse ranks staff by replied tickets.
type LeaderboardEntryResponse struct {
	StaffID         string  `json:"staff_id"`
	RoleID          string  `json:"role_id"`
	Nickname        *string `json:"nickname"`
	AnsweredTickets int     `json:"answered_tickets"`
}

// NotificationResponse is one staff inbox entry.
type NotificationResponse struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	ReadAt    *time.Time     `json:"read_at"`
	CreatedAt time.Time      `json:"created_at"`
}

// NewRoleResponse maps a domain role.
func NewRoleResponse(role *domain.Role) RoleResponse {
	return RoleResponse{
		ID:          role.ID,
		Name:        role.Name,
		SortOrder:   role.SortOrder,
		IsAdmin:     role.IsAdmin,
		Permissions: role.Permissions.Strings(),
		Color:       role.Color,
	}
}

// NewStaffResponse maps a staff member; the role must be hydrated.
func NewStaffResponse(staff *domain.StaffMember) StaffResponse {
	out := StaffResponse{
		ID:           staff.ID,
		UserID:       staff.UserID,
		Nickname:     staff.Nickname,
		Active:       staff.Active,
		PayPerTicket: staff.PayPerTicket,
	}
	if staff.Role != nil {
		out.Role = NewRoleResponse(staff.Role)
	}
	return out
}

// NewPanelResponse maps a panel with its allow-list role ids.
func NewPanelResponse(panel *domain.TicketPanel, accessRoleIDs []string) PanelResponse {
	return PanelResponse{
		ID:            panel.ID,
		Name:          panel.Name,
		Active:        panel.Active,
		SortOrder:     panel.SortOrder,
		AccessRoleIDs: accessRoleIDs,
	}
}

// NewStatusResponse maps a status.
func NewStatusResponse(status *domain.TicketStatus) StatusResponse {
	return StatusResponse{
		ID:            status.ID,
		Name:          status.Name,
		Slug:          status.Slug,
		IsDefaultOpen: status.IsDefaultOpen,
		IsClosed:      status.IsClosed,
		SortOrder:     status.SortOrder,
	}
}

// NewNotificationResponses maps inbox entries.
func NewNotificationResponses(notifications []domain.StaffNotification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(notifications))
	for _, notification := range notifications {
		out = append(out, NotificationResponse{
			ID:        notification.ID,
			Type:      string(notification.Type),
			Message:   notification.Message,
			Metadata:  notification.Metadata,
			ReadAt:    notification.ReadAt,
			CreatedAt: notification.CreatedAt,
		})
	}
	return out
}

// NewEarningsResponse maps the monthly earnings view.
func NewEarningsResponse(earnings *domain.MonthlyEarnings) EarningsResponse {
	return EarningsResponse{
		StaffID:      earnings.StaffID,
		ClaimedCount: earnings.ClaimedCount,
		PayPerTicket: earnings.PayPerTicket,
		BaseEarnings: earnings.BaseEarnings,
		Adjustments:  earnings.Adjustments,
		Total:        earnings.Total,
	}
}
