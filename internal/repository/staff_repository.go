package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// StaffRepository handles persistence for staff members. Reads hydrate the
// member's role so rank and permission checks never need a second lookup.
type StaffRepository interface {
	Create(ctx context.Context, staff *domain.StaffMember) error
	Update(ctx context.Context, staff *domain.StaffMember) error
	GetByID(ctx context.Context, id string) (*domain.StaffMember, error)
	GetByUserID(ctx context.Context, userID string) (*domain.StaffMember, error)
	List(ctx context.Context, filter StaffFilter) ([]domain.StaffMember, error)
}

// StaffFilter defines query params for staff listing.
type StaffFilter struct {
	RoleID *string
	Active *bool
	Limit  int
	Offset int
}

type staffRepository struct {
	pool *pgxpool.Pool
}

// NewStaffRepository instantiates the repository.
func NewStaffRepository(pool *pgxpool.Pool) StaffRepository {
	return &staffRepository{pool: pool}
}

const staffSelect = `
    SELECT s.id, s.user_id, s.role_id, s.nickname, s.active_flag, s.pay_per_ticket, s.created_at, s.updated_at,
           r.id, r.name, r.sort_order, r.is_admin, r.permissions, r.color, r.created_at, r.updated_at
    FROM staff_members s
    JOIN roles r ON r.id = s.role_id`

func (r *staffRepository) Create(ctx context.Context, staff *domain.StaffMember) error {
	const query = `
        INSERT INTO staff_members (user_id, role_id, nickname, active_flag, pay_per_ticket)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		staff.UserID,
		staff.RoleID,
		staff.Nickname,
		staff.Active,
		staff.PayPerTicket,
	).Scan(&staff.ID, &staff.CreatedAt, &staff.UpdatedAt)
}

func (r *staffRepository) Update(ctx context.Context, staff *domain.StaffMember) error {
	const query = `
        UPDATE staff_members
        SET role_id=$1, nickname=$2, active_flag=$3, pay_per_ticket=$4, updated_at=NOW()
        WHERE id=$5`

	cmd, err := r.pool.Exec(ctx, query,
		staff.RoleID,
		staff.Nickname,
		staff.Active,
		staff.PayPerTicket,
		staff.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *staffRepository) GetByID(ctx context.Context, id string) (*domain.StaffMember, error) {
	return scanStaff(r.pool.QueryRow(ctx, staffSelect+` WHERE s.id=$1`, id))
}

func (r *staffRepository) GetByUserID(ctx context.Context, userID string) (*domain.StaffMember, error) {
	return scanStaff(r.pool.QueryRow(ctx, staffSelect+` WHERE s.user_id=$1`, userID))
}

func (r *staffRepository) List(ctx context.Context, filter StaffFilter) ([]domain.StaffMember, error) {
	query := staffSelect
	args := []any{}
	clauses := []string{}

	if filter.RoleID != nil {
		args = append(args, *filter.RoleID)
		clauses = append(clauses, fmt.Sprintf("s.role_id=$%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		clauses = append(clauses, fmt.Sprintf("s.active_flag=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY s.created_at"
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StaffMember
	for rows.Next() {
		staff, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *staff)
	}
	return result, rows.Err()
}

func scanStaff(row pgx.Row) (*domain.StaffMember, error) {
	var (
		staff domain.StaffMember
		role  domain.Role
		perms []string
	)
	if err := row.Scan(
		&staff.ID,
		&staff.UserID,
		&staff.RoleID,
		&staff.Nickname,
		&staff.Active,
		&staff.PayPerTicket,
		&staff.CreatedAt,
		&staff.UpdatedAt,
		&role.ID,
		&role.Name,
		&role.SortOrder,
		&role.IsAdmin,
		&perms,
		&role.Color,
		&role.CreatedAt,
		&role.UpdatedAt,
	); err != nil {
		return nil, err
	}
	role.Permissions = domain.ParsePermissions(perms)
	staff.Role = &role
	return &staff, nil
}
