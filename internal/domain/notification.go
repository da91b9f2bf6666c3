package domain

import "time"

// NotificationType classifies staff inbox entries.
type NotificationType string

const (
	NotifyPayBonus NotificationType = "pay.bonus"
	NotifyPayDock  NotificationType = "pay.dock"
	NotifyPayRate  NotificationType = "pay.rate"
)

// StaffNotification is a small inbox entry drained by the staff client.
type StaffNotification struct {
	ID        string
	StaffID   string
	Type      NotificationType
	Message   string
	Metadata  map[string]any
	ReadAt    *time.Time
	CreatedAt time.Time
}
