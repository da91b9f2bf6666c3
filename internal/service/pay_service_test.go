package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

type payFixture struct {
	svc           *PayService
	payRepo       *memPayRepo
	claims        *memClaimRepo
	messages      *memMessageRepo
	staffRepo     *memStaffRepo
	notifications *memNotificationRepo
	audits        *memAuditRepo
}

func newPayFixture(t *testing.T) *payFixture {
	t.Helper()
	f := &payFixture{
		payRepo:       newMemPayRepo(),
		claims:        newMemClaimRepo(),
		messages:      newMemMessageRepo(),
		staffRepo:     newMemStaffRepo(),
		notifications: newMemNotificationRepo(),
		audits:        newMemAuditRepo(),
	}
	f.svc = NewPayService(PayDependencies{
		PayRepo:          f.payRepo,
		ClaimRepo:        f.claims,
		MessageRepo:      f.messages,
		StaffRepo:        f.staffRepo,
		NotificationRepo: f.notifications,
		Audit:            NewAuditRecorder(f.audits, zap.NewNop(), nil),
	})
	return f
}

func TestBonusCreatesLedgerNotificationAndAudit(t *testing.T) {
	f := newPayFixture(t)
	manager := seedStaff(t, f.staffRepo, 2, domain.PermissionSet{All: true}, false)
	target := seedStaff(t, f.staffRepo, 5, domain.PermissionSet{All: true}, false)

	adjustment, err := f.svc.Bonus(context.Background(), manager, target.ID, 50, "great work")
	require.NoError(t, err)
	assert.Equal(t, 50.0, adjustment.Amount)

	ledger, err := f.payRepo.ListByStaff(context.Background(), target.ID)
	require.NoError(t, err)
	require.Len(t, ledger, 1)

	inbox, err := f.notifications.ListByStaff(context.Background(), target.ID, true)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, domain.NotifyPayBonus, inbox[0].Type)

	entries := f.audits.byAction("staff.pay.bonus")
	require.Len(t, entries, 1)
	assert.Equal(t, 50.0, entries[0].Metadata["amount"])
}

func TestDockStoresNegativeAmount(t *testing.T) {
	f := newPayFixture(t)
	manager := seedStaff(t, f.staffRepo, 2, domain.PermissionSet{All: true}, false)
	target := seedStaff(t, f.staffRepo, 5, domain.PermissionSet{All: true}, false)

	adjustment, err := f.svc.Dock(context.Background(), manager, target.ID, 20, "missed shift")
	require.NoError(t, err)
	assert.Equal(t, -20.0, adjustment.Amount)

	inbox, err := f.notifications.ListByStaff(context.Background(), target.ID, false)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, domain.NotifyPayDock, inbox[0].Type)
	assert.Len(t, f.audits.byAction("staff.pay.dock"), 1)
}

func TestAdjustmentValidation(t *testing.T) {
	f := newPayFixture(t)
	manager := seedStaff(t, f.staffRepo, 2, domain.PermissionSet{All: true}, false)
	target := seedStaff(t, f.staffRepo, 5, domain.PermissionSet{All: true}, false)

	_, err := f.svc.Bonus(context.Background(), manager, target.ID, 0, "zero")
	assert.Error(t, err)
	_, err = f.svc.Bonus(context.Background(), manager, target.ID, -5, "negative")
	assert.Error(t, err)
	_, err = f.svc.Bonus(context.Background(), manager, target.ID, 1_000_001, "too much")
	assert.Error(t, err)
}

func TestAdjustmentHierarchy(t *testing.T) {
	f := newPayFixture(t)
	junior := seedStaff(t, f.staffRepo, 8, domain.PermissionSet{All: true}, false)
	senior := seedStaff(t, f.staffRepo, 2, domain.PermissionSet{All: true}, false)

	_, err := f.svc.Bonus(context.Background(), junior, senior.ID, 10, "flattery")
	require.Error(t, err, "juniors cannot adjust a senior's pay")
	assert.True(t, apperrors.IsForbidden(err))
}

func TestMonthlyEarnings(t *testing.T) {
	f := newPayFixture(t)
	manager := seedStaff(t, f.staffRepo, 2, domain.PermissionSet{All: true}, false)
	target := seedStaff(t, f.staffRepo, 5, domain.PermissionSet{All: true}, false)

	// Three claims and one unclaim this month; only claims count.
	for i := 0; i < 3; i++ {
		require.NoError(t, f.claims.Create(context.Background(), &domain.TicketClaim{
			TicketID: "ticket", StaffID: target.ID, Action: domain.ClaimActionClaim,
		}))
	}
	require.NoError(t, f.claims.Create(context.Background(), &domain.TicketClaim{
		TicketID: "ticket", StaffID: target.ID, Action: domain.ClaimActionUnclaim,
	}))
	_, err := f.svc.Bonus(context.Background(), manager, target.ID, 50, "great work")
	require.NoError(t, err)

	earnings, err := f.svc.MonthlyEarnings(context.Background(), manager, target.ID, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 3, earnings.ClaimedCount)
	assert.Equal(t, 2.5, earnings.PayPerTicket)
	assert.Equal(t, 7.5, earnings.BaseEarnings)
	assert.Equal(t, 50.0, earnings.Adjustments, "adjustments stay separate from the base figure")
	assert.Equal(t, 57.5, earnings.Total)
}

func TestOwnEarningsNeedNoPayCapability(t *testing.T) {
	f := newPayFixture(t)
	member := seedStaff(t, f.staffRepo, 5, domain.ParsePermissions([]string{"tickets.view"}), false)

	_, err := f.svc.MonthlyEarnings(context.Background(), member, member.ID, time.Now())
	assert.NoError(t, err)

	other := seedStaff(t, f.staffRepo, 6, domain.PermissionSet{All: true}, false)
	_, err = f.svc.MonthlyEarnings(context.Background(), member, other.ID, time.Now())
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))
}

func TestLeaderboardRanksByDistinctRepliedTickets(t *testing.T) {
	f := newPayFixture(t)
	busy := seedStaff(t, f.staffRepo, 5, domain.PermissionSet{All: true}, false)
	quiet := seedStaff(t, f.staffRepo, 5, domain.PermissionSet{All: true}, false)

	// Two messages on the same ticket count once; pay never factors in.
	for _, ticketID := range []string{"t1", "t1", "t2"} {
		require.NoError(t, f.messages.Create(context.Background(), &domain.TicketMessage{
			TicketID:   ticketID,
			AuthorType: domain.AuthorTypeStaff,
			AuthorID:   &busy.ID,
			Body:       "on it",
			Source:     domain.SourceWeb,
		}))
	}
	require.NoError(t, f.messages.Create(context.Background(), &domain.TicketMessage{
		TicketID:   "t3",
		AuthorType: domain.AuthorTypeStaff,
		AuthorID:   &quiet.ID,
		Body:       "hello",
		Source:     domain.SourceWeb,
	}))

	entries, err := f.svc.Leaderboard(context.Background(), time.Now())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byStaff := map[string]int{}
	for _, entry := range entries {
		byStaff[entry.StaffID] = entry.AnsweredTickets
	}
	assert.Equal(t, 2, byStaff[busy.ID])
	assert.Equal(t, 1, byStaff[quiet.ID])
}
