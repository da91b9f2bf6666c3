package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

const maxAdjustmentAmount = 1_000_000

// PayService owns the pay ledger: bonus and dock adjustments, the derived
// monthly earnings view and the reply leaderboard.
type PayService struct {
	adjustments   repository.PayAdjustmentRepository
	claims        repository.ClaimRepository
	messages      repository.TicketMessageRepository
	staff         repository.StaffRepository
	notifications repository.NotificationRepository
	audit         *AuditRecorder
}

// PayDependencies bundles collaborators for the pay service.
type PayDependencies struct {
	PayRepo          repository.PayAdjustmentRepository
	ClaimRepo        repository.ClaimRepository
	MessageRepo      repository.TicketMessageRepository
	StaffRepo        repository.StaffRepository
	NotificationRepo repository.NotificationRepository
	Audit            *AuditRecorder
}

// NewPayService constructs the service.
func NewPayService(deps PayDependencies) *PayService {
	return &PayService{
		adjustments:   deps.PayRepo,
		claims:        deps.ClaimRepo,
		messages:      deps.MessageRepo,
		staff:         deps.StaffRepo,
		notifications: deps.NotificationRepo,
		audit:         deps.Audit,
	}
}

// Bonus credits a positive adjustment to a staff member's ledger, notifies
// them and records the act.
func (s *PayService) Bonus(ctx context.Context, actor *domain.StaffMember, staffID string, amount float64, reason string) (*domain.StaffPayAdjustment, error) {
	return s.adjust(ctx, actor, staffID, amount, reason, domain.NotifyPayBonus)
}

// Dock debits a staff member's ledger; the amount is validated positive and
// stored negated.
func (s *PayService) Dock(ctx context.Context, actor *domain.StaffMember, staffID string, amount float64, reason string) (*domain.StaffPayAdjustment, error) {
	return s.adjust(ctx, actor, staffID, amount, reason, domain.NotifyPayDock)
}

func (s *PayService) adjust(ctx context.Context, actor *domain.StaffMember, staffID string, amount float64, reason string, kind domain.NotificationType) (*domain.StaffPayAdjustment, error) {
	if err := auth.RequirePermission(actor, domain.CapPayManage); err != nil {
		return nil, err
	}
	if amount <= 0 || amount > maxAdjustmentAmount {
		return nil, apperrors.NewValidationError("amount must be between 0 and 1,000,000", map[string]any{"amount": amount})
	}
	target, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := auth.RequireCanActOnStaff(actor, target); err != nil {
		return nil, err
	}

	signed := amount
	action := "staff.pay.bonus"
	verb := "received a bonus of"
	if kind == domain.NotifyPayDock {
		signed = -amount
		action = "staff.pay.dock"
		verb = "were docked"
	}

	adjustment := &domain.StaffPayAdjustment{
		StaffID: target.ID,
		Amount:  signed,
		Reason:  reason,
		Actor:   domain.StaffActor(actor.ID),
	}
	if err := s.adjustments.Create(ctx, adjustment); err != nil {
		return nil, apperrors.MapError(err)
	}

	notification := &domain.StaffNotification{
		StaffID: target.ID,
		Type:    kind,
		Message: fmt.Sprintf("You %s %.2f: %s", verb, amount, reason),
		Metadata: map[string]any{
			"amount": signed,
			"reason": reason,
		},
	}
	if err := s.notifications.Create(ctx, notification); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.audit.Record(ctx, domain.StaffActor(actor.ID), action, "staff", target.ID,
		map[string]any{"amount": signed, "reason": reason})
	return adjustment, nil
}

// ListAdjustments returns a staff member's ledger rows, newest first.
func (s *PayService) ListAdjustments(ctx context.Context, actor *domain.StaffMember, staffID string) ([]domain.StaffPayAdjustment, error) {
	if actor.ID != staffID {
		if err := auth.RequirePermission(actor, domain.CapPayManage); err != nil {
			return nil, err
		}
	}
	rows, err := s.adjustments.ListByStaff(ctx, staffID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return rows, nil
}

// monthBounds returns the half-open calendar month containing t, in UTC.
func monthBounds(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	from := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}

// MonthlyEarnings derives the current month's pay for a staff member. Base
// is claim count times rate; ledger adjustments stay a separate line that
// only the total sums in.
func (s *PayService) MonthlyEarnings(ctx context.Context, actor *domain.StaffMember, staffID string, now time.Time) (*domain.MonthlyEarnings, error) {
	if actor.ID != staffID {
		if err := auth.RequirePermission(actor, domain.CapPayManage); err != nil {
			return nil, err
		}
	}
	target, err := s.staff.GetByID(ctx, staffID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	from, to := monthBounds(now)
	claimed, err := s.claims.CountClaimsByStaff(ctx, target.ID, from, to)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	adjustments, err := s.adjustments.SumByStaff(ctx, target.ID, from, to)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	base := float64(claimed) * target.PayPerTicket
	return &domain.MonthlyEarnings{
		StaffID:      target.ID,
		ClaimedCount: claimed,
		PayPerTicket: target.PayPerTicket,
		BaseEarnings: base,
		Adjustments:  adjustments,
		Total:        base + adjustments,
	}, nil
}

// Leaderboard ranks active staff by distinct tickets replied to this month,
// grouped under their role. Pay never factors in.
func (s *PayService) Leaderboard(ctx context.Context, now time.Time) ([]domain.LeaderboardEntry, error) {
	from, to := monthBounds(now)
	counts, err := s.messages.CountRepliedTicketsByStaff(ctx, from, to)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	byStaff := make(map[string]int, len(counts))
	for _, rc := range counts {
		byStaff[rc.StaffID] = rc.Tickets
	}

	active := true
	members, err := s.staff.List(ctx, repository.StaffFilter{Active: &active, Limit: 500})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	entries := make([]domain.LeaderboardEntry, 0, len(members))
	for _, member := range members {
		entries = append(entries, domain.LeaderboardEntry{
			StaffID:         member.ID,
			RoleID:          member.RoleID,
			Nickname:        member.Nickname,
			AnsweredTickets: byStaff[member.ID],
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].RoleID != entries[j].RoleID {
			return entries[i].RoleID < entries[j].RoleID
		}
		return entries[i].AnsweredTickets > entries[j].AnsweredTickets
	})
	return entries, nil
}
