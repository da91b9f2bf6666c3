package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// StatusRepository handles persistence for configurable ticket statuses.
type StatusRepository interface {
	Create(ctx context.Context, status *domain.TicketStatus) error
	Update(ctx context.Context, status *domain.TicketStatus) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.TicketStatus, error)
	List(ctx context.Context) ([]domain.TicketStatus, error)
	ClearDefaultOpenExcept(ctx context.Context, keepID string) error
	CountTicketReferences(ctx context.Context, statusID string) (int, error)
}

type statusRepository struct {
	pool *pgxpool.Pool
}

// NewStatusRepository instantiates the repository.
func NewStatusRepository(pool *pgxpool.Pool) StatusRepository {
	return &statusRepository{pool: pool}
}

func (r *statusRepository) Create(ctx context.Context, status *domain.TicketStatus) error {
	const query = `
        INSERT INTO ticket_statuses (name, slug, is_default_open, is_closed, sort_order)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		status.Name,
		status.Slug,
		status.IsDefaultOpen,
		status.IsClosed,
		status.SortOrder,
	).Scan(&status.ID, &status.CreatedAt, &status.UpdatedAt)
}

func (r *statusRepository) Update(ctx context.Context, status *domain.TicketStatus) error {
	const query = `
        UPDATE ticket_statuses
        SET name=$1, slug=$2, is_default_open=$3, is_closed=$4, sort_order=$5, updated_at=NOW()
        WHERE id=$6`

	cmd, err := r.pool.Exec(ctx, query,
		status.Name,
		status.Slug,
		status.IsDefaultOpen,
		status.IsClosed,
		status.SortOrder,
		status.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *statusRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM ticket_statuses WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *statusRepository) GetByID(ctx context.Context, id string) (*domain.TicketStatus, error) {
	const query = `
        SELECT id, name, slug, is_default_open, is_closed, sort_order, created_at, updated_at
        FROM ticket_statuses WHERE id=$1`

	var status domain.TicketStatus
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&status.ID,
		&status.Name,
		&status.Slug,
		&status.IsDefaultOpen,
		&status.IsClosed,
		&status.SortOrder,
		&status.CreatedAt,
		&status.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &status, nil
}

func (r *statusRepository) List(ctx context.Context) ([]domain.TicketStatus, error) {
	const query = `
        SELECT id, name, slug, is_default_open, is_closed, sort_order, created_at, updated_at
        FROM ticket_statuses ORDER BY sort_order, id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketStatus
	for rows.Next() {
		var status domain.TicketStatus
		if err := rows.Scan(
			&status.ID,
			&status.Name,
			&status.Slug,
			&status.IsDefaultOpen,
			&status.IsClosed,
			&status.SortOrder,
			&status.CreatedAt,
			&status.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, status)
	}
	return result, rows.Err()
}

func (r *statusRepository) ClearDefaultOpenExcept(ctx context.Context, keepID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE ticket_statuses SET is_default_open=FALSE, updated_at=NOW() WHERE id<>$1 AND is_default_open`,
		keepID)
	return err
}

func (r *statusRepository) CountTicketReferences(ctx context.Context, statusID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE status_id=$1`, statusID).Scan(&count)
	return count, err
}
