package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/support-desk/internal/domain"
)

// TranscriptRepository stores immutable ticket snapshots.
type TranscriptRepository interface {
	Create(ctx context.Context, transcript *domain.TicketTranscript) error
	GetByID(ctx context.Context, id string) (*domain.TicketTranscript, error)
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketTranscript, error)
}

type transcriptRepository struct {
	pool *pgxpool.Pool
}

// NewTranscriptRepository builds repository.
func NewTranscriptRepository(pool *pgxpool.Pool) TranscriptRepository {
	return &transcriptRepository{pool: pool}
}

func (r *transcriptRepository) Create(ctx context.Context, transcript *domain.TicketTranscript) error {
	const query = `
        INSERT INTO ticket_transcripts (ticket_id, trigger_kind, schema_version, snapshot)
        VALUES ($1,$2,$3,$4)
        RETURNING id, generated_at`

	return r.pool.QueryRow(ctx, query,
		transcript.TicketID,
		transcript.Trigger,
		transcript.SchemaVersion,
		transcript.Snapshot,
	).Scan(&transcript.ID, &transcript.GeneratedAt)
}

func (r *transcriptRepository) GetByID(ctx context.Context, id string) (*domain.TicketTranscript, error) {
	const query = `
        SELECT id, ticket_id, trigger_kind, schema_version, snapshot, generated_at
        FROM ticket_transcripts WHERE id=$1`

	var transcript domain.TicketTranscript
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&transcript.ID,
		&transcript.TicketID,
		&transcript.Trigger,
		&transcript.SchemaVersion,
		&transcript.Snapshot,
		&transcript.GeneratedAt,
	); err != nil {
		return nil, err
	}
	return &transcript, nil
}

func (r *transcriptRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketTranscript, error) {
	const query = `
        SELECT id, ticket_id, trigger_kind, schema_version, snapshot, generated_at
        FROM ticket_transcripts WHERE ticket_id=$1 ORDER BY generated_at, id`

	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketTranscript
	for rows.Next() {
		var transcript domain.TicketTranscript
		if err := rows.Scan(
			&transcript.ID,
			&transcript.TicketID,
			&transcript.Trigger,
			&transcript.SchemaVersion,
			&transcript.Snapshot,
			&transcript.GeneratedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, transcript)
	}
	return result, rows.Err()
}
