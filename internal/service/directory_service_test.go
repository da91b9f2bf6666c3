package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

type directoryFixture struct {
	svc           *DirectoryService
	roles         *memRoleRepo
	staffRepo     *memStaffRepo
	panels        *memPanelRepo
	statuses      *memStatusRepo
	users         *memUserRepo
	tickets       *memTicketRepo
	notifications *memNotificationRepo
	audits        *memAuditRepo
}

func newDirectoryFixture(t *testing.T) *directoryFixture {
	t.Helper()
	f := &directoryFixture{
		roles:         newMemRoleRepo(),
		staffRepo:     newMemStaffRepo(),
		panels:        newMemPanelRepo(),
		statuses:      newMemStatusRepo(),
		users:         newMemUserRepo(),
		tickets:       newMemTicketRepo(),
		notifications: newMemNotificationRepo(),
		audits:        newMemAuditRepo(),
	}
	f.svc = NewDirectoryService(DirectoryDependencies{
		PanelRepo:        f.panels,
		StatusRepo:       f.statuses,
		RoleRepo:         f.roles,
		StaffRepo:        f.staffRepo,
		UserRepo:         f.users,
		TicketRepo:       f.tickets,
		NotificationRepo: f.notifications,
		Audit:            NewAuditRecorder(f.audits, zap.NewNop(), nil),
	})
	return f
}

func (f *directoryFixture) seedRole(t *testing.T, order *int, isAdmin bool, perms ...string) *domain.Role {
	t.Helper()
	role := &domain.Role{
		Name:        "role",
		SortOrder:   order,
		IsAdmin:     isAdmin,
		Permissions: domain.ParsePermissions(perms),
	}
	require.NoError(t, f.roles.Create(context.Background(), role))
	return role
}

func TestRoleDeleteHierarchy(t *testing.T) {
	f := newDirectoryFixture(t)
	actor := seedStaff(t, f.staffRepo, 5, domain.PermissionSet{All: true}, false)

	senior := f.seedRole(t, intp(3), false)
	junior := f.seedRole(t, intp(9), false)

	err := f.svc.DeleteRole(context.Background(), actor, senior.ID)
	require.Error(t, err, "rank 5 cannot delete rank 3")
	assert.True(t, apperrors.IsForbidden(err))

	require.NoError(t, f.svc.DeleteRole(context.Background(), actor, junior.ID))
	roles, err := f.svc.ListRoles(context.Background())
	require.NoError(t, err)
	for _, role := range roles {
		assert.NotEqual(t, junior.ID, role.ID, "deleted role must not appear in the listing")
	}
	assert.Len(t, f.audits.byAction("role.deleted"), 1)
}

func TestRoleDeleteStillReferencedConflicts(t *testing.T) {
	f := newDirectoryFixture(t)
	actor := seedStaff(t, f.staffRepo, 1, domain.PermissionSet{All: true}, false)
	junior := f.seedRole(t, intp(9), false)
	f.roles.staffRefs[junior.ID] = 2

	err := f.svc.DeleteRole(context.Background(), actor, junior.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

func TestCreateRoleGrantRules(t *testing.T) {
	f := newDirectoryFixture(t)
	actor := seedStaff(t, f.staffRepo, 4,
		domain.ParsePermissions([]string{"roles.manage", "tickets.view", "tickets.reply"}), false)

	// Granting a capability the actor lacks is privilege escalation.
	_, err := f.svc.CreateRole(context.Background(), actor, RoleInput{
		Name:        "Support",
		SortOrder:   intp(8),
		Permissions: []string{"tickets.view", "pay.manage"},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))

	// Non-admins never mint admin roles.
	_, err = f.svc.CreateRole(context.Background(), actor, RoleInput{Name: "Root", IsAdmin: true})
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))

	// Held capabilities at a junior rank are fine.
	role, err := f.svc.CreateRole(context.Background(), actor, RoleInput{
		Name:        "Support",
		SortOrder:   intp(8),
		Permissions: []string{"tickets.view", "tickets.reply"},
	})
	require.NoError(t, err)
	assert.True(t, role.Permissions.Has(domain.CapTicketsView))

	// A role the actor would not outrank is out of reach.
	_, err = f.svc.CreateRole(context.Background(), actor, RoleInput{
		Name:      "Shadow Lead",
		SortOrder: intp(2),
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsForbidden(err))
}

func TestUpdateRoleAdminDemotionIsAdminOnly(t *testing.T) {
	f := newDirectoryFixture(t)
	admin := seedStaff(t, f.staffRepo, 0, domain.PermissionSet{}, true)
	adminRole := f.seedRole(t, nil, true, "*")

	// An admin may demote the admin role.
	_, err := f.svc.UpdateRole(context.Background(), admin, adminRole.ID, RoleInput{
		Name:      "Former Admins",
		SortOrder: intp(1),
	})
	require.NoError(t, err)

	updated, err := f.roles.GetByID(context.Background(), adminRole.ID)
	require.NoError(t, err)
	assert.False(t, updated.IsAdmin)
}

func TestStatusDefaultOpenStaysUnique(t *testing.T) {
	f := newDirectoryFixture(t)
	admin := seedStaff(t, f.staffRepo, 0, domain.PermissionSet{}, true)

	first, err := f.svc.CreateStatus(context.Background(), admin, StatusInput{Name: "Open", IsDefaultOpen: true, SortOrder: 1})
	require.NoError(t, err)
	assert.Equal(t, "open", first.Slug)

	second, err := f.svc.CreateStatus(context.Background(), admin, StatusInput{Name: "Pending Review", IsDefaultOpen: true, SortOrder: 2})
	require.NoError(t, err)
	assert.Equal(t, "pending-review", second.Slug)

	statuses, err := f.svc.ListStatuses(context.Background())
	require.NoError(t, err)
	defaults := 0
	for _, status := range statuses {
		if status.IsDefaultOpen {
			defaults++
			assert.Equal(t, second.ID, status.ID)
		}
	}
	assert.Equal(t, 1, defaults)
}

func TestStatusCannotBeDefaultOpenAndClosed(t *testing.T) {
	f := newDirectoryFixture(t)
	admin := seedStaff(t, f.staffRepo, 0, domain.PermissionSet{}, true)

	_, err := f.svc.CreateStatus(context.Background(), admin, StatusInput{Name: "Weird", IsDefaultOpen: true, IsClosed: true})
	assert.Error(t, err)
}

func TestUpdateStaffDeactivationUnassignsTickets(t *testing.T) {
	f := newDirectoryFixture(t)
	admin := seedStaff(t, f.staffRepo, 0, domain.PermissionSet{}, true)
	target := seedStaff(t, f.staffRepo, 5, domain.PermissionSet{All: true}, false)

	ticket := &domain.Ticket{
		PublicID:        "TCK-AAAA0001",
		PanelID:         "panel",
		StatusID:        "status",
		CreatorUserID:   "user",
		Source:          domain.SourceWeb,
		AssignedStaffID: &target.ID,
	}
	require.NoError(t, f.tickets.Create(context.Background(), ticket))

	updated, err := f.svc.UpdateStaff(context.Background(), admin, target.ID, StaffInput{
		RoleID:       target.RoleID,
		Active:       false,
		PayPerTicket: target.PayPerTicket,
	})
	require.NoError(t, err)
	assert.False(t, updated.Active)

	stored, err := f.tickets.GetByID(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.AssignedStaffID, "deactivation unassigns the member's tickets")
}

func TestUpdateStaffPayRateNotifies(t *testing.T) {
	f := newDirectoryFixture(t)
	admin := seedStaff(t, f.staffRepo, 0, domain.PermissionSet{}, true)
	target := seedStaff(t, f.staffRepo, 5, domain.PermissionSet{All: true}, false)

	_, err := f.svc.UpdateStaff(context.Background(), admin, target.ID, StaffInput{
		RoleID:       target.RoleID,
		Active:       true,
		PayPerTicket: 4.0,
	})
	require.NoError(t, err)

	inbox, err := f.notifications.ListByStaff(context.Background(), target.ID, false)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	assert.Equal(t, domain.NotifyPayRate, inbox[0].Type)
	assert.Equal(t, 2.5, inbox[0].Metadata["old_rate"])
	assert.Equal(t, 4.0, inbox[0].Metadata["new_rate"])
}

func TestUpdateStaffHierarchy(t *testing.T) {
	f := newDirectoryFixture(t)
	junior := seedStaff(t, f.staffRepo, 7, domain.PermissionSet{All: true}, false)
	senior := seedStaff(t, f.staffRepo, 2, domain.PermissionSet{All: true}, false)

	_, err := f.svc.UpdateStaff(context.Background(), junior, senior.ID, StaffInput{
		RoleID:       senior.RoleID,
		Active:       false,
		PayPerTicket: 0,
	})
	require.Error(t, err, "juniors cannot suspend seniors")
	assert.True(t, apperrors.IsForbidden(err))
}

func TestCreateStaffRequiresKnownUserAndRole(t *testing.T) {
	f := newDirectoryFixture(t)
	admin := seedStaff(t, f.staffRepo, 0, domain.PermissionSet{}, true)
	role := f.seedRole(t, intp(5), false, "tickets.view")

	_, err := f.svc.CreateStaff(context.Background(), admin, StaffInput{UserID: "ghost", RoleID: role.ID, Active: true})
	assert.Error(t, err)

	user := &domain.User{IdentityID: "d-1", DisplayName: "New Hire"}
	require.NoError(t, f.users.Create(context.Background(), user))
	staff, err := f.svc.CreateStaff(context.Background(), admin, StaffInput{UserID: user.ID, RoleID: role.ID, Active: true, PayPerTicket: 1})
	require.NoError(t, err)
	assert.Equal(t, role.ID, staff.RoleID)
	assert.Len(t, f.audits.byAction("staff.created"), 1)
}

func TestPanelDeleteWithTicketsConflicts(t *testing.T) {
	f := newDirectoryFixture(t)
	admin := seedStaff(t, f.staffRepo, 0, domain.PermissionSet{}, true)

	panel, err := f.svc.CreatePanel(context.Background(), admin, PanelInput{Name: "General", Active: true})
	require.NoError(t, err)
	f.panels.ticketRefs[panel.ID] = 3

	err = f.svc.DeletePanel(context.Background(), admin, panel.ID)
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}
