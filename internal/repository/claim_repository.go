package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// ClaimRepository stores the append-only claim history.
type ClaimRepository interface {
	Create(ctx context.Context, claim *domain.TicketClaim) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketClaim, error)
	CountClaimsByStaff(ctx context.Context, staffID string, from, to time.Time) (int, error)
}

type claimRepository struct {
	pool *pgxpool.Pool
}

// NewClaimRepository builds repository.
func NewClaimRepository(pool *pgxpool.Pool) ClaimRepository {
	return &claimRepository{pool: pool}
}

func (r *claimRepository) Create(ctx context.Context, claim *domain.TicketClaim) error {
	const query = `
        INSERT INTO ticket_claims (ticket_id, staff_id, action)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		claim.TicketID,
		claim.StaffID,
		claim.Action,
	).Scan(&claim.ID, &claim.CreatedAt)
}

func (r *claimRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketClaim, error) {
	const query = `
        SELECT id, ticket_id, staff_id, action, created_at
        FROM ticket_claims WHERE ticket_id=$1 ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketClaim
	for rows.Next() {
		var claim domain.TicketClaim
		if err := rows.Scan(
			&claim.ID,
			&claim.TicketID,
			&claim.StaffID,
			&claim.Action,
			&claim.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, claim)
	}
	return result, rows.Err()
}

func (r *claimRepository) CountClaimsByStaff(ctx context.Context, staffID string, from, to time.Time) (int, error) {
	const query = `
        SELECT COUNT(*) FROM ticket_claims
        WHERE staff_id=$1 AND action='claim' AND created_at >= $2 AND created_at < $3`

	var count int
	err := r.pool.QueryRow(ctx, query, staffID, from, to).Scan(&count)
	return count, err
}
