package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// ReplyCount is one leaderboard aggregation row.
type ReplyCount struct {
	StaffID string
	Tickets int
}

// TicketMessageRepository stores immutable thread messages.
type TicketMessageRepository interface {
	Create(ctx context.Context, msg *domain.TicketMessage) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketMessage, error)
	CountRepliedTicketsByStaff(ctx context.Context, from, to time.Time) ([]ReplyCount, error)
}

type ticketMessageRepository struct {
	pool *pgxpool.Pool
}

// NewTicketMessageRepository builds repository.
func NewTicketMessageRepository(pool *pgxpool.Pool) TicketMessageRepository {
	return &ticketMessageRepository{pool: pool}
}

func (r *ticketMessageRepository) Create(ctx context.Context, msg *domain.TicketMessage) error {
	const query = `
        INSERT INTO ticket_messages (ticket_id, author_type, author_id, body, source, parent_id)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		msg.TicketID,
		msg.AuthorType,
		msg.AuthorID,
		msg.Body,
		msg.Source,
		msg.ParentID,
	).Scan(&msg.ID, &msg.CreatedAt)
}

func (r *ticketMessageRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketMessage, error) {
	const query = `
        SELECT id, ticket_id, author_type, author_id, body, source, parent_id, created_at
        FROM ticket_messages WHERE ticket_id=$1 ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketMessage
	for rows.Next() {
		var msg domain.TicketMessage
		if err := rows.Scan(
			&msg.ID,
			&msg.TicketID,
			&msg.AuthorType,
			&msg.AuthorID,
			&msg.Body,
			&msg.Source,
			&msg.ParentID,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}

func (r *ticketMessageRepository) CountRepliedTicketsByStaff(ctx context.Context, from, to time.Time) ([]ReplyCount, error) {
	const query = `
        SELECT author_id, COUNT(DISTINCT ticket_id)
        FROM ticket_messages
        WHERE author_type='staff' AND author_id IS NOT NULL AND created_at >= $1 AND created_at < $2
        GROUP BY author_id`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ReplyCount
	for rows.Next() {
		var rc ReplyCount
		if err := rows.Scan(&rc.StaffID, &rc.Tickets); err != nil {
			return nil, err
		}
		result = append(result, rc)
	}
	return result, rows.Err()
}
