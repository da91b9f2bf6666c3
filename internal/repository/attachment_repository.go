package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// AttachmentRepository stores attachment metadata per message.
type AttachmentRepository interface {
	Create(ctx context.Context, att *domain.TicketAttachment) error
	ListByMessage(ctx context.Context, messageID string) ([]domain.TicketAttachment, error)
}

type attachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository builds repository.
func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepository{pool: pool}
}

func (r *attachmentRepository) Create(ctx context.Context, att *domain.TicketAttachment) error {
	const query = `
        INSERT INTO ticket_attachments (message_id, file_name, storage_key, mime_type, size_bytes)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`

	return r.pool.QueryRow(ctx, query,
		att.MessageID,
		att.FileName,
		att.StorageKey,
		att.MimeType,
		att.SizeBytes,
	).Scan(&att.ID, &att.CreatedAt)
}

func (r *attachmentRepository) ListByMessage(ctx context.Context, messageID string) ([]domain.TicketAttachment, error) {
	const query = `
        SELECT id, message_id, file_name, storage_key, mime_type, size_bytes, created_at
        FROM ticket_attachments WHERE message_id=$1 ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketAttachment
	for rows.Next() {
		var att domain.TicketAttachment
		if err := rows.Scan(
			&att.ID,
			&att.MessageID,
			&att.FileName,
			&att.StorageKey,
			&att.MimeType,
			&att.SizeBytes,
			&att.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, att)
	}
	return result, rows.Err()
}
