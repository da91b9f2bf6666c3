package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/platform/discord"
	"github.com/spec-kit/support-desk/internal/session"
)

func newIdentityFixture(t *testing.T) (*IdentityService, *memUserRepo, *memStaffRepo, *session.Codec) {
	t.Helper()
	users := newMemUserRepo()
	staff := newMemStaffRepo()
	codec := session.NewCodec("test-secret", time.Hour)
	svc := NewIdentityService(IdentityDependencies{
		UserRepo:  users,
		StaffRepo: staff,
		Codec:     codec,
		Discord:   discord.NewLogNotifier(zap.NewNop()),
		Logger:    zap.NewNop(),
	})
	return svc, users, staff, codec
}

func TestLoginCreatesUserAndSession(t *testing.T) {
	svc, users, _, codec := newIdentityFixture(t)

	user, token, err := svc.Login(context.Background(), ExternalProfile{
		IdentityID:  "discord-42",
		DisplayName: "Robin",
		Email:       "robin@example.com",
	})
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	assert.True(t, user.NotifyByDM, "DM notifications default on")

	payload, ok := codec.Decode(token)
	require.True(t, ok)
	assert.Equal(t, user.ID, payload.UserID)
	assert.Empty(t, payload.StaffID)

	stored, err := users.GetByIdentityID(context.Background(), "discord-42")
	require.NoError(t, err)
	assert.Equal(t, "Robin", stored.DisplayName)
}

func TestLoginRefreshesProfile(t *testing.T) {
	svc, users, _, _ := newIdentityFixture(t)

	first, _, err := svc.Login(context.Background(), ExternalProfile{IdentityID: "d-1", DisplayName: "Old Name", Email: "old@example.com"})
	require.NoError(t, err)

	second, _, err := svc.Login(context.Background(), ExternalProfile{IdentityID: "d-1", DisplayName: "New Name", Email: "new@example.com"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "repeat login resolves the same user")

	stored, err := users.GetByID(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, "New Name", stored.DisplayName)
	assert.Equal(t, "new@example.com", stored.Email)
}

func TestLoginIssuesStaffSessionForActiveStaff(t *testing.T) {
	svc, _, staffRepo, codec := newIdentityFixture(t)

	user, _, err := svc.Login(context.Background(), ExternalProfile{IdentityID: "d-2", DisplayName: "Lee"})
	require.NoError(t, err)

	member := &domain.StaffMember{
		UserID: user.ID,
		RoleID: "role-1",
		Role:   &domain.Role{ID: "role-1", SortOrder: intp(3)},
		Active: true,
	}
	require.NoError(t, staffRepo.Create(context.Background(), member))

	_, token, err := svc.Login(context.Background(), ExternalProfile{IdentityID: "d-2", DisplayName: "Lee"})
	require.NoError(t, err)
	payload, ok := codec.Decode(token)
	require.True(t, ok)
	assert.Equal(t, member.ID, payload.StaffID)

	// Deactivated staff fall back to a plain user session.
	member.Active = false
	require.NoError(t, staffRepo.Update(context.Background(), member))
	_, token, err = svc.Login(context.Background(), ExternalProfile{IdentityID: "d-2", DisplayName: "Lee"})
	require.NoError(t, err)
	payload, ok = codec.Decode(token)
	require.True(t, ok)
	assert.Empty(t, payload.StaffID)
}

func TestLoginRejectsEmptyIdentity(t *testing.T) {
	svc, _, _, _ := newIdentityFixture(t)
	_, _, err := svc.Login(context.Background(), ExternalProfile{IdentityID: "  "})
	assert.Error(t, err)
}

func TestNotificationInbox(t *testing.T) {
	notifications := newMemNotificationRepo()
	svc := NewNotificationService(notifications)
	member := &domain.StaffMember{ID: "staff-1", Active: true}

	require.NoError(t, notifications.Create(context.Background(), &domain.StaffNotification{
		StaffID: member.ID,
		Type:    domain.NotifyPayBonus,
		Message: "You received a bonus of 50.00: great work",
	}))

	inbox, err := svc.List(context.Background(), member, true)
	require.NoError(t, err)
	require.Len(t, inbox, 1)

	require.NoError(t, svc.MarkRead(context.Background(), member, inbox[0].ID))
	unread, err := svc.List(context.Background(), member, true)
	require.NoError(t, err)
	assert.Empty(t, unread)

	// Someone else's notification reads as missing.
	other := &domain.StaffMember{ID: "staff-2", Active: true}
	err = svc.MarkRead(context.Background(), other, inbox[0].ID)
	assert.Error(t, err)
}
