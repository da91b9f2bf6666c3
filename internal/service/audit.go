package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/repository"
)

// AuditRecorder writes the append-only audit trail. A failed write never
// aborts the triggering operation; it is logged and counted instead, since
// losing forensic trail silently would be worse than losing it loudly.
type AuditRecorder struct {
	repo    repository.AuditRepository
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewAuditRecorder constructs the recorder.
func NewAuditRecorder(repo repository.AuditRepository, logger *zap.Logger, metrics *observability.Metrics) *AuditRecorder {
	return &AuditRecorder{repo: repo, logger: logger, metrics: metrics}
}

// Record appends one entry. Exactly one call per logical action.
func (r *AuditRecorder) Record(ctx context.Context, actor domain.Actor, action, entityType, entityID string, metadata map[string]any) {
	entry := &domain.AuditLogEntry{
		Actor:      actor,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Metadata:   metadata,
	}
	if err := r.repo.Create(ctx, entry); err != nil {
		r.logger.Error("audit write failed",
			zap.String("action", action),
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID),
			zap.Error(err))
		if r.metrics != nil {
			r.metrics.AuditFailures.Inc()
		}
	}
}

// ListByEntity returns the trail for one entity in insertion order.
func (r *AuditRecorder) ListByEntity(ctx context.Context, entityType, entityID string) ([]domain.AuditLogEntry, error) {
	return r.repo.ListByEntity(ctx, entityType, entityID)
}
