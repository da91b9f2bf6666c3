package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// TicketFilter captures staff search parameters. PanelIDs scopes the result
// to the panels the caller may see.
type TicketFilter struct {
	CreatorUserID   *string
	PanelIDs        []string
	StatusIDs       []string
	AssignedStaffID *string
	OpenOnly        bool
	Limit           int
	Offset          int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	GetByPublicID(ctx context.Context, publicID string) (*domain.Ticket, error)
	PublicIDExists(ctx context.Context, publicID string) (bool, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	UnassignStaff(ctx context.Context, staffID string) error
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, public_id, panel_id, status_id, creator_user_id, creator_identity, creator_email,
               subject, source, assigned_staff_id, created_at, updated_at, closed_at, last_message_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (public_id, panel_id, status_id, creator_user_id, creator_identity, creator_email,
                             subject, source, assigned_staff_id, last_message_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW())
        RETURNING id, created_at, updated_at, last_message_at`

	return r.pool.QueryRow(ctx, query,
		ticket.PublicID,
		ticket.PanelID,
		ticket.StatusID,
		ticket.CreatorUserID,
		ticket.CreatorIdentity,
		ticket.CreatorEmail,
		ticket.Subject,
		ticket.Source,
		ticket.AssignedStaffID,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt, &ticket.LastMessageAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets
        SET panel_id=$1, status_id=$2, assigned_staff_id=$3, closed_at=$4, last_message_at=$5, updated_at=NOW()
        WHERE id=$6`

	cmd, err := r.pool.Exec(ctx, query,
		ticket.PanelID,
		ticket.StatusID,
		ticket.AssignedStaffID,
		ticket.ClosedAt,
		ticket.LastMessageAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1`, id)
}

func (r *ticketRepository) GetByPublicID(ctx context.Context, publicID string) (*domain.Ticket, error) {
	return r.fetchSingle(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE public_id=$1`, publicID)
}

func (r *ticketRepository) PublicIDExists(ctx context.Context, publicID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE public_id=$1)`, publicID).Scan(&exists)
	return exists, err
}

func (r *ticketRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Ticket, error) {
	return scanTicket(r.pool.QueryRow(ctx, query, arg))
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT ` + ticketColumns + ` FROM tickets`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CreatorUserID != nil {
		args = append(args, *filter.CreatorUserID)
		clauses = append(clauses, fmt.Sprintf("creator_user_id=$%d", len(args)))
	}
	if len(filter.PanelIDs) > 0 {
		args = append(args, filter.PanelIDs)
		clauses = append(clauses, fmt.Sprintf("panel_id = ANY($%d)", len(args)))
	}
	if len(filter.StatusIDs) > 0 {
		args = append(args, filter.StatusIDs)
		clauses = append(clauses, fmt.Sprintf("status_id = ANY($%d)", len(args)))
	}
	if filter.AssignedStaffID != nil {
		args = append(args, *filter.AssignedStaffID)
		clauses = append(clauses, fmt.Sprintf("assigned_staff_id=$%d", len(args)))
	}
	if filter.OpenOnly {
		clauses = append(clauses, "closed_at IS NULL")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY last_message_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func (r *ticketRepository) UnassignStaff(ctx context.Context, staffID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE tickets SET assigned_staff_id=NULL, updated_at=NOW() WHERE assigned_staff_id=$1`,
		staffID)
	return err
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.PublicID,
		&ticket.PanelID,
		&ticket.StatusID,
		&ticket.CreatorUserID,
		&ticket.CreatorIdentity,
		&ticket.CreatorEmail,
		&ticket.Subject,
		&ticket.Source,
		&ticket.AssignedStaffID,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
		&ticket.ClosedAt,
		&ticket.LastMessageAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}
