package service

import (
	"context"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/platform/discord"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

type ticketFixture struct {
	svc         *TicketService
	tickets     *memTicketRepo
	messages    *memMessageRepo
	panels      *memPanelRepo
	statuses    *memStatusRepo
	staffRepo   *memStaffRepo
	claims      *memClaimRepo
	transcripts *memTranscriptRepo
	audits      *memAuditRepo
	broadcaster *captureBroadcaster

	user       *domain.User
	panel      *domain.TicketPanel
	openStatus *domain.TicketStatus
	closed     *domain.TicketStatus
	staff      *domain.StaffMember
}

func intp(v int) *int { return &v }

func seedStaff(t *testing.T, repo *memStaffRepo, order int, perms domain.PermissionSet, isAdmin bool) *domain.StaffMember {
	t.Helper()
	role := &domain.Role{
		ID:          uuid.NewString(),
		Name:        "seeded",
		IsAdmin:     isAdmin,
		Permissions: perms,
	}
	if !isAdmin {
		role.SortOrder = intp(order)
	}
	staff := &domain.StaffMember{
		UserID:       uuid.NewString(),
		RoleID:       role.ID,
		Role:         role,
		Active:       true,
		PayPerTicket: 2.5,
	}
	require.NoError(t, repo.Create(context.Background(), staff))
	return staff
}

func newTicketFixture(t *testing.T) *ticketFixture {
	t.Helper()
	f := &ticketFixture{
		tickets:     newMemTicketRepo(),
		messages:    newMemMessageRepo(),
		panels:      newMemPanelRepo(),
		statuses:    newMemStatusRepo(),
		staffRepo:   newMemStaffRepo(),
		claims:      newMemClaimRepo(),
		transcripts: newMemTranscriptRepo(),
		audits:      newMemAuditRepo(),
		broadcaster: &captureBroadcaster{},
	}
	attachments := newMemAttachmentRepo()
	logger := zap.NewNop()

	ctx := context.Background()
	f.user = &domain.User{ID: uuid.NewString(), IdentityID: "discord-1", DisplayName: "Sam", Email: "sam@example.com"}

	f.panel = &domain.TicketPanel{Name: "General", Active: true, SortOrder: 1}
	require.NoError(t, f.panels.Create(ctx, f.panel))
	f.openStatus = &domain.TicketStatus{Name: "Open", Slug: "open", IsDefaultOpen: true, SortOrder: 1}
	require.NoError(t, f.statuses.Create(ctx, f.openStatus))
	f.closed = &domain.TicketStatus{Name: "Closed", Slug: "closed", IsClosed: true, SortOrder: 9}
	require.NoError(t, f.statuses.Create(ctx, f.closed))

	f.staff = seedStaff(t, f.staffRepo, 5, domain.PermissionSet{All: true}, false)

	transcripts := NewTranscriptService(TranscriptDependencies{
		TranscriptRepo: f.transcripts,
		TicketRepo:     f.tickets,
		MessageRepo:    f.messages,
		AttachmentRepo: attachments,
		ClaimRepo:      f.claims,
		AuditRepo:      f.audits,
	})
	f.svc = NewTicketService(TicketDependencies{
		TicketRepo:     f.tickets,
		MessageRepo:    f.messages,
		AttachmentRepo: attachments,
		PanelRepo:      f.panels,
		StatusRepo:     f.statuses,
		StaffRepo:      f.staffRepo,
		ClaimRepo:      f.claims,
		Transcripts:    transcripts,
		Audit:          NewAuditRecorder(f.audits, logger, nil),
		Broadcaster:    f.broadcaster,
		Discord:        discord.NewLogNotifier(logger),
		Logger:         logger,
	})
	return f
}

func (f *ticketFixture) createTicket(t *testing.T) *domain.Ticket {
	t.Helper()
	created, err := f.svc.CreateTicket(context.Background(), f.user, CreateTicketInput{
		PanelID: f.panel.ID,
		Subject: "Cannot log in",
		Body:    "Help",
	})
	require.NoError(t, err)
	return created.Ticket
}

func TestCreateTicket(t *testing.T) {
	f := newTicketFixture(t)

	created, err := f.svc.CreateTicket(context.Background(), f.user, CreateTicketInput{
		PanelID: f.panel.ID,
		Subject: "Cannot log in",
		Body:    "Help",
	})
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^TCK-[0-9A-F]{8}$`), created.Ticket.PublicID)
	assert.Equal(t, f.openStatus.ID, created.Ticket.StatusID, "initial status is the default-open row")
	assert.Equal(t, domain.AuthorTypeUser, created.Message.AuthorType)
	assert.Equal(t, f.user.Email, created.Ticket.CreatorEmail)

	require.Len(t, f.audits.byAction("ticket.created"), 1)
	require.Len(t, f.broadcaster.events, 1)
	assert.Equal(t, events.EventTicketCreated, f.broadcaster.events[0].Type)
	assert.Equal(t, created.Ticket.PublicID, f.broadcaster.events[0].TicketPublicID)
	assert.Equal(t, f.user.ID, f.broadcaster.events[0].CreatorUserID)
}

func TestCreateTicketValidation(t *testing.T) {
	f := newTicketFixture(t)

	_, err := f.svc.CreateTicket(context.Background(), f.user, CreateTicketInput{PanelID: f.panel.ID, Subject: "  ", Body: "x"})
	assert.Error(t, err)

	inactive := &domain.TicketPanel{Name: "Old", Active: false}
	require.NoError(t, f.panels.Create(context.Background(), inactive))
	_, err = f.svc.CreateTicket(context.Background(), f.user, CreateTicketInput{PanelID: inactive.ID, Subject: "s", Body: "b"})
	assert.Error(t, err)
}

func TestClaimLastWriteWins(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t)

	first, err := f.svc.Claim(context.Background(), f.staff, ticket.PublicID)
	require.NoError(t, err)
	require.NotNil(t, first.AssignedStaffID)
	assert.Equal(t, f.staff.ID, *first.AssignedStaffID)

	second := seedStaff(t, f.staffRepo, 6, domain.PermissionSet{All: true}, false)
	after, err := f.svc.Claim(context.Background(), second, ticket.PublicID)
	require.NoError(t, err)
	require.NotNil(t, after.AssignedStaffID)
	assert.Equal(t, second.ID, *after.AssignedStaffID, "last writer wins the assignment")

	rows, err := f.claims.ListByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 2, "every claim appends a history row")
	assert.Len(t, f.audits.byAction("ticket.claim"), 2)
}

func TestUnclaimAppendsHistory(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t)

	_, err := f.svc.Claim(context.Background(), f.staff, ticket.PublicID)
	require.NoError(t, err)
	after, err := f.svc.Unclaim(context.Background(), f.staff, ticket.PublicID)
	require.NoError(t, err)
	assert.Nil(t, after.AssignedStaffID)

	rows, err := f.claims.ListByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, domain.ClaimActionUnclaim, rows[1].Action)
}

func TestCloseGeneratesTranscriptOnce(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t)

	closedTicket, err := f.svc.Close(context.Background(), f.staff, ticket.PublicID)
	require.NoError(t, err)
	require.NotNil(t, closedTicket.ClosedAt)
	firstClosedAt := *closedTicket.ClosedAt

	rows, err := f.transcripts.ListByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, domain.TranscriptTriggerClose, rows[0].Trigger)

	// Re-closing keeps closed_at and adds no automatic transcript.
	again, err := f.svc.Close(context.Background(), f.staff, ticket.PublicID)
	require.NoError(t, err)
	require.NotNil(t, again.ClosedAt)
	assert.Equal(t, firstClosedAt, *again.ClosedAt)

	rows, err = f.transcripts.ListByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	// Manual transcripts always add a row, open or closed.
	manual, err := f.svc.CreateManualTranscript(context.Background(), f.staff, ticket.PublicID)
	require.NoError(t, err)
	assert.Equal(t, domain.TranscriptTriggerManual, manual.Trigger)
	rows, err = f.transcripts.ListByTicket(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestCloseWithoutClosedStatusConflicts(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t)
	require.NoError(t, f.statuses.Delete(context.Background(), f.closed.ID))

	_, err := f.svc.Close(context.Background(), f.staff, ticket.PublicID)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

func TestSetStatusReopenClearsClosedAt(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t)

	_, err := f.svc.Close(context.Background(), f.staff, ticket.PublicID)
	require.NoError(t, err)

	reopened, err := f.svc.SetStatus(context.Background(), f.staff, ticket.PublicID, f.openStatus.ID)
	require.NoError(t, err)
	assert.Nil(t, reopened.ClosedAt)
	assert.Equal(t, f.openStatus.ID, reopened.StatusID)
}

func TestEscalateClearsAssigneeAndChecksTargetPanel(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t)
	_, err := f.svc.Claim(context.Background(), f.staff, ticket.PublicID)
	require.NoError(t, err)

	target := &domain.TicketPanel{Name: "Billing", Active: true, SortOrder: 2}
	require.NoError(t, f.panels.Create(context.Background(), target))

	escalated, err := f.svc.Escalate(context.Background(), f.staff, ticket.PublicID, target.ID)
	require.NoError(t, err)
	assert.Equal(t, target.ID, escalated.PanelID)
	assert.Nil(t, escalated.AssignedStaffID, "escalation forces re-triage")

	entries := f.audits.byAction("ticket.escalate")
	require.Len(t, entries, 1)
	assert.Equal(t, f.panel.ID, entries[0].Metadata["from_panel_id"])
	assert.Equal(t, target.ID, entries[0].Metadata["to_panel_id"])

	// A restricted target panel blocks the escalation.
	restricted := &domain.TicketPanel{Name: "Management", Active: true, SortOrder: 3}
	require.NoError(t, f.panels.Create(context.Background(), restricted))
	require.NoError(t, f.panels.SetAccessRoleIDs(context.Background(), restricted.ID, []string{"some-other-role"}))

	_, err = f.svc.Escalate(context.Background(), f.staff, ticket.PublicID, restricted.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))
}

func TestPanelVisibility(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t)

	// Unrestricted panel: visible to any active staff.
	ok, err := f.svc.StaffCanAccessPanel(context.Background(), f.staff, f.panel.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// Restricting to a different role hides the panel, and the check is
	// re-applied on the next request.
	require.NoError(t, f.panels.SetAccessRoleIDs(context.Background(), f.panel.ID, []string{"another-role"}))
	ok, err = f.svc.StaffCanAccessPanel(context.Background(), f.staff, f.panel.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = f.svc.GetForStaff(context.Background(), f.staff, ticket.PublicID)
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))

	// Admins see restricted panels regardless of rows.
	admin := seedStaff(t, f.staffRepo, 0, domain.PermissionSet{}, true)
	ok, err = f.svc.StaffCanAccessPanel(context.Background(), admin, f.panel.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// Listing the member's role restores visibility.
	require.NoError(t, f.panels.SetAccessRoleIDs(context.Background(), f.panel.ID, []string{"another-role", f.staff.RoleID}))
	ok, err = f.svc.StaffCanAccessPanel(context.Background(), f.staff, f.panel.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAccessiblePanelsOrdering(t *testing.T) {
	f := newTicketFixture(t)
	second := &domain.TicketPanel{Name: "Billing", Active: true, SortOrder: 0}
	require.NoError(t, f.panels.Create(context.Background(), second))
	hidden := &domain.TicketPanel{Name: "Hidden", Active: true, SortOrder: 2}
	require.NoError(t, f.panels.Create(context.Background(), hidden))
	require.NoError(t, f.panels.SetAccessRoleIDs(context.Background(), hidden.ID, []string{"another-role"}))

	visible, err := f.svc.AccessiblePanels(context.Background(), f.staff)
	require.NoError(t, err)
	require.Len(t, visible, 2)
	assert.Equal(t, second.ID, visible[0].ID)
	assert.Equal(t, f.panel.ID, visible[1].ID)
}

func TestStaffReplyRequiresCapability(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t)

	viewer := seedStaff(t, f.staffRepo, 7, domain.ParsePermissions([]string{"tickets.view"}), false)
	_, err := f.svc.StaffReply(context.Background(), viewer, ticket.PublicID, ReplyInput{Body: "hi"})
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))

	message, err := f.svc.StaffReply(context.Background(), f.staff, ticket.PublicID, ReplyInput{Body: "hi"})
	require.NoError(t, err)
	assert.Equal(t, domain.AuthorTypeStaff, message.AuthorType)

	stored, err := f.tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, message.CreatedAt, stored.LastMessageAt)
}

func TestUserReplyOnlyOwnTicket(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t)

	stranger := &domain.User{ID: "someone-else"}
	_, err := f.svc.UserReply(context.Background(), stranger, ticket.PublicID, ReplyInput{Body: "mine now"})
	assert.Error(t, err)

	message, err := f.svc.UserReply(context.Background(), f.user, ticket.PublicID, ReplyInput{Body: "any update?"})
	require.NoError(t, err)
	assert.Equal(t, domain.AuthorTypeUser, message.AuthorType)
}

func TestAssignValidatesTarget(t *testing.T) {
	f := newTicketFixture(t)
	ticket := f.createTicket(t)

	inactive := seedStaff(t, f.staffRepo, 8, domain.PermissionSet{All: true}, false)
	inactive.Active = false
	require.NoError(t, f.staffRepo.Update(context.Background(), inactive))

	_, err := f.svc.Assign(context.Background(), f.staff, ticket.PublicID, &inactive.ID)
	assert.Error(t, err, "tickets cannot be assigned to inactive staff")

	other := seedStaff(t, f.staffRepo, 9, domain.PermissionSet{All: true}, false)
	assigned, err := f.svc.Assign(context.Background(), f.staff, ticket.PublicID, &other.ID)
	require.NoError(t, err)
	require.NotNil(t, assigned.AssignedStaffID)
	assert.Equal(t, other.ID, *assigned.AssignedStaffID)

	cleared, err := f.svc.Assign(context.Background(), f.staff, ticket.PublicID, nil)
	require.NoError(t, err)
	assert.Nil(t, cleared.AssignedStaffID)
}

func TestListForStaffScopedToVisiblePanels(t *testing.T) {
	f := newTicketFixture(t)
	f.createTicket(t)

	hidden := &domain.TicketPanel{Name: "Hidden", Active: true, SortOrder: 5}
	require.NoError(t, f.panels.Create(context.Background(), hidden))
	require.NoError(t, f.panels.SetAccessRoleIDs(context.Background(), hidden.ID, []string{"another-role"}))
	hiddenTicket := &domain.Ticket{
		PublicID:      "TCK-HIDDEN01",
		PanelID:       hidden.ID,
		StatusID:      f.openStatus.ID,
		CreatorUserID: f.user.ID,
		Source:        domain.SourceWeb,
	}
	require.NoError(t, f.tickets.Create(context.Background(), hiddenTicket))

	visible, err := f.svc.ListForStaff(context.Background(), f.staff, StaffListFilter{})
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.NotEqual(t, hiddenTicket.ID, visible[0].ID)

	// Asking for the hidden panel directly is a visibility denial.
	_, err = f.svc.ListForStaff(context.Background(), f.staff, StaffListFilter{PanelID: &hidden.ID})
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))
}
