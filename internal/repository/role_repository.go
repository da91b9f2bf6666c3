package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// RoleRepository handles persistence for staff roles.
type RoleRepository interface {
	Create(ctx context.Context, role *domain.Role) error
	Update(ctx context.Context, role *domain.Role) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Role, error)
	List(ctx context.Context) ([]domain.Role, error)
	CountStaffReferences(ctx context.Context, roleID string) (int, error)
	CountPanelReferences(ctx context.Context, roleID string) (int, error)
}

type roleRepository struct {
	pool *pgxpool.Pool
}

// NewRoleRepository instantiates the repository.
func NewRoleRepository(pool *pgxpool.Pool) RoleRepository {
	return &roleRepository{pool: pool}
}

func (r *roleRepository) Create(ctx context.Context, role *domain.Role) error {
	const query = `
        INSERT INTO roles (name, sort_order, is_admin, permissions, color)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		role.Name,
		role.SortOrder,
		role.IsAdmin,
		role.Permissions.Strings(),
		role.Color,
	).Scan(&role.ID, &role.CreatedAt, &role.UpdatedAt)
}

func (r *roleRepository) Update(ctx context.Context, role *domain.Role) error {
	const query = `
        UPDATE roles SET name=$1, sort_order=$2, is_admin=$3, permissions=$4, color=$5, updated_at=NOW()
        WHERE id=$6`

	cmd, err := r.pool.Exec(ctx, query,
		role.Name,
		role.SortOrder,
		role.IsAdmin,
		role.Permissions.Strings(),
		role.Color,
		role.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *roleRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *roleRepository) GetByID(ctx context.Context, id string) (*domain.Role, error) {
	const query = `
        SELECT id, name, sort_order, is_admin, permissions, color, created_at, updated_at
        FROM roles WHERE id=$1`

	return scanRole(r.pool.QueryRow(ctx, query, id))
}

func (r *roleRepository) List(ctx context.Context) ([]domain.Role, error) {
	const query = `
        SELECT id, name, sort_order, is_admin, permissions, color, created_at, updated_at
        FROM roles ORDER BY is_admin DESC, sort_order NULLS LAST, name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *role)
	}
	return result, rows.Err()
}

func (r *roleRepository) CountStaffReferences(ctx context.Context, roleID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM staff_members WHERE role_id=$1`, roleID).Scan(&count)
	return count, err
}

func (r *roleRepository) CountPanelReferences(ctx context.Context, roleID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM panel_role_access WHERE role_id=$1`, roleID).Scan(&count)
	return count, err
}

func scanRole(row pgx.Row) (*domain.Role, error) {
	var (
		role  domain.Role
		perms []string
	)
	if err := row.Scan(
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
	return &role, nil
}
