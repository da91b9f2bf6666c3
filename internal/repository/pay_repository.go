package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// PayAdjustmentRepository stores the signed bonus/dock ledger.
type PayAdjustmentRepository interface {
	Create(ctx context.Context, adjustment *domain.StaffPayAdjustment) error
	ListByStaff(ctx context.Context, staffID string) ([]domain.StaffPayAdjustment, error)
	SumByStaff(ctx context.Context, staffID string, from, to time.Time) (float64, error)
}

type payAdjustmentRepository struct {
	pool *pgxpool.Pool
}

// NewPayAdjustmentRepository builds repository.
func NewPayAdjustmentRepository(pool *pgxpool.Pool) PayAdjustmentRepository {
	return &payAdjustmentRepository{pool: pool}
}

func (r *payAdjustmentRepository) Create(ctx context.Context, adjustment *domain.StaffPayAdjustment) error {
	const query = `
        INSERT INTO staff_pay_adjustments (staff_id, amount, reason, actor_type, actor_user_id, actor_staff_id)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		adjustment.StaffID,
		adjustment.Amount,
		adjustment.Reason,
		adjustment.Actor.Type,
		adjustment.Actor.UserID,
		adjustment.Actor.StaffID,
	).Scan(&adjustment.ID, &adjustment.CreatedAt)
}

func (r *payAdjustmentRepository) ListByStaff(ctx context.Context, staffID string) ([]domain.StaffPayAdjustment, error) {
	const query = `
        SELECT id, staff_id, amount, reason, actor_type, actor_user_id, actor_staff_id, created_at
        FROM staff_pay_adjustments WHERE staff_id=$1 ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, staffID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StaffPayAdjustment
	for rows.Next() {
		var adjustment domain.StaffPayAdjustment
		if err := rows.Scan(
			&adjustment.ID,
			&adjustment.StaffID,
			&adjustment.Amount,
			&adjustment.Reason,
			&adjustment.Actor.Type,
			&adjustment.Actor.UserID,
			&adjustment.Actor.StaffID,
			&adjustment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, adjustment)
	}
	return result, rows.Err()
}

func (r *payAdjustmentRepository) SumByStaff(ctx context.Context, staffID string, from, to time.Time) (float64, error) {
	const query = `
        SELECT COALESCE(SUM(amount), 0) FROM staff_pay_adjustments
        WHERE staff_id=$1 AND created_at >= $2 AND created_at < $3`

	var sum float64
	err := r.pool.QueryRow(ctx, query, staffID, from, to).Scan(&sum)
	return sum, err
}
