package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// NotificationRepository stores the staff inbox.
type NotificationRepository interface {
	Create(ctx context.Context, notification *domain.StaffNotification) error
	ListByStaff(ctx context.Context, staffID string, unreadOnly bool) ([]domain.StaffNotification, error)
	MarkRead(ctx context.Context, id, staffID string) error
}

type notificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository builds repository.
func NewNotificationRepository(pool *pgxpool.Pool) NotificationRepository {
	return &notificationRepository{pool: pool}
}

func (r *notificationRepository) Create(ctx context.Context, notification *domain.StaffNotification) error {
	const query = `
        INSERT INTO staff_notifications (staff_id, kind, message, metadata)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		notification.StaffID,
		notification.Type,
		notification.Message,
		notification.Metadata,
	).Scan(&notification.ID, &notification.CreatedAt)
}

func (r *notificationRepository) ListByStaff(ctx context.Context, staffID string, unreadOnly bool) ([]domain.StaffNotification, error) {
	query := `
        SELECT id, staff_id, kind, message, metadata, read_at, created_at
        FROM staff_notifications WHERE staff_id=$1`
	if unreadOnly {
		query += ` AND read_at IS NULL`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, staffID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StaffNotification
	for rows.Next() {
		var notification domain.StaffNotification
		if err := rows.Scan(
			&notification.ID,
			&notification.StaffID,
			&notification.Type,
			&notification.Message,
			&notification.Metadata,
			&notification.ReadAt,
			&notification.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, notification)
	}
	return result, rows.Err()
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, staffID string) error {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE staff_notifications SET read_at=NOW() WHERE id=$1 AND staff_id=$2 AND read_at IS NULL`,
		id, staffID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
