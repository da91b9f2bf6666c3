package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// PanelRepository handles persistence for ticket panels and their
// role-access allow-lists.
type PanelRepository interface {
	Create(ctx context.Context, panel *domain.TicketPanel) error
	Update(ctx context.Context, panel *domain.TicketPanel) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.TicketPanel, error)
	List(ctx context.Context, activeOnly bool) ([]domain.TicketPanel, error)
	AccessRoleIDs(ctx context.Context, panelID string) ([]string, error)
	SetAccessRoleIDs(ctx context.Context, panelID string, roleIDs []string) error
	CountTicketReferences(ctx context.Context, panelID string) (int, error)
}

type panelRepository struct {
	pool *pgxpool.Pool
}

// NewPanelRepository instantiates the repository.
func NewPanelRepository(pool *pgxpool.Pool) PanelRepository {
	return &panelRepository{pool: pool}
}

func (r *panelRepository) Create(ctx context.Context, panel *domain.TicketPanel) error {
	const query = `
        INSERT INTO ticket_panels (name, active_flag, sort_order)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		panel.Name,
		panel.Active,
		panel.SortOrder,
	).Scan(&panel.ID, &panel.CreatedAt, &panel.UpdatedAt)
}

func (r *panelRepository) Update(ctx context.Context, panel *domain.TicketPanel) error {
	const query = `
        UPDATE ticket_panels SET name=$1, active_flag=$2, sort_order=$3, updated_at=NOW()
        WHERE id=$4`

	cmd, err := r.pool.Exec(ctx, query,
		panel.Name,
		panel.Active,
		panel.SortOrder,
		panel.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *panelRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM ticket_panels WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *panelRepository) GetByID(ctx context.Context, id string) (*domain.TicketPanel, error) {
	const query = `
        SELECT id, name, active_flag, sort_order, created_at, updated_at
        FROM ticket_panels WHERE id=$1`

	var panel domain.TicketPanel
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&panel.ID,
		&panel.Name,
		&panel.Active,
		&panel.SortOrder,
		&panel.CreatedAt,
		&panel.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &panel, nil
}

func (r *panelRepository) List(ctx context.Context, activeOnly bool) ([]domain.TicketPanel, error) {
	query := `
        SELECT id, name, active_flag, sort_order, created_at, updated_at
        FROM ticket_panels`
	if activeOnly {
		query += ` WHERE active_flag`
	}
	query += ` ORDER BY sort_order, name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketPanel
	for rows.Next() {
		var panel domain.TicketPanel
		if err := rows.Scan(
			&panel.ID,
			&panel.Name,
			&panel.Active,
			&panel.SortOrder,
			&panel.CreatedAt,
			&panel.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, panel)
	}
	return result, rows.Err()
}

func (r *panelRepository) AccessRoleIDs(ctx context.Context, panelID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT role_id FROM panel_role_access WHERE panel_id=$1`, panelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var roleID string
		if err := rows.Scan(&roleID); err != nil {
			return nil, err
		}
		result = append(result, roleID)
	}
	return result, rows.Err()
}

func (r *panelRepository) SetAccessRoleIDs(ctx context.Context, panelID string, roleIDs []string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM panel_role_access WHERE panel_id=$1`, panelID); err != nil {
		return err
	}
	for _, roleID := range roleIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO panel_role_access (panel_id, role_id) VALUES ($1,$2)`,
			panelID, roleID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *panelRepository) CountTicketReferences(ctx context.Context, panelID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE panel_id=$1`, panelID).Scan(&count)
	return count, err
}
