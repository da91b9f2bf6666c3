package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// AuditRepository stores append-only audit entries. There is deliberately no
// update or delete.
type AuditRepository interface {
	Create(ctx context.Context, entry *domain.AuditLogEntry) error
	ListByEntity(ctx context.Context, entityType, entityID string) ([]domain.AuditLogEntry, error)
}

type auditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository builds repository.
func NewAuditRepository(pool *pgxpool.Pool) AuditRepository {
	return &auditRepository{pool: pool}
}

func (r *auditRepository) Create(ctx context.Context, entry *domain.AuditLogEntry) error {
	const query = `
        INSERT INTO audit_log (actor_type, actor_user_id, actor_staff_id, action, entity_type, entity_id, metadata)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		entry.Actor.Type,
		entry.Actor.UserID,
		entry.Actor.StaffID,
		entry.Action,
		entry.EntityType,
		entry.EntityID,
		entry.Metadata,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *auditRepository) ListByEntity(ctx context.Context, entityType, entityID string) ([]domain.AuditLogEntry, error) {
	const query = `
        SELECT id, actor_type, actor_user_id, actor_staff_id, action, entity_type, entity_id, metadata, created_at
        FROM audit_log WHERE entity_type=$1 AND entity_id=$2 ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AuditLogEntry
	for rows.Next() {
		var entry domain.AuditLogEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.Actor.Type,
			&entry.Actor.UserID,
			&entry.Actor.StaffID,
			&entry.Action,
			&entry.EntityType,
			&entry.EntityID,
			&entry.Metadata,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
