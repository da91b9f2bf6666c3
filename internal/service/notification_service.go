package service

import (
	"context"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// NotificationService is the staff inbox: list and mark-read.
type NotificationService struct {
	notifications repository.NotificationRepository
}

// NewNotificationService constructs the service.
func NewNotificationService(notifications repository.NotificationRepository) *NotificationService {
	return &NotificationService{notifications: notifications}
}

// List returns the staff member's own inbox entries, newest first.
func (s *NotificationService) List(ctx context.Context, staff *domain.StaffMember, unreadOnly bool) ([]domain.StaffNotification, error) {
	rows, err := s.notifications.ListByStaff(ctx, staff.ID, unreadOnly)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return rows, nil
}

// MarkRead stamps one of the staff member's own notifications as read. The
// staff scoping happens in the query, so a foreign id reads as not found.
func (s *NotificationService) MarkRead(ctx context.Context, staff *domain.StaffMember, notificationID string) error {
	if err := s.notifications.MarkRead(ctx, notificationID, staff.ID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}
