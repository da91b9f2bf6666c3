package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/platform/discord"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/internal/session"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// ExternalProfile is the verified identity delivered by the OAuth
// collaborator after code exchange.
type ExternalProfile struct {
	IdentityID  string
	DisplayName string
	Email       string
}

// IdentityService turns verified external profiles into users and sessions.
type IdentityService struct {
	users   repository.UserRepository
	staff   repository.StaffRepository
	codec   *session.Codec
	discord discord.Notifier
	logger  *zap.Logger
}

// IdentityDependencies bundles collaborators for the identity service.
type IdentityDependencies struct {
	UserRepo  repository.UserRepository
	StaffRepo repository.StaffRepository
	Codec     *session.Codec
	Discord   discord.Notifier
	Logger    *zap.Logger
}

// NewIdentityService constructs the service.
func NewIdentityService(deps IdentityDependencies) *IdentityService {
	return &IdentityService{
		users:   deps.UserRepo,
		staff:   deps.StaffRepo,
		codec:   deps.Codec,
		discord: deps.Discord,
		logger:  deps.Logger,
	}
}

// Login upserts the user for a verified profile and issues a session token.
// First logins create the user and trigger the Discord welcome flow; repeat
// logins refresh the stored profile. Active staff get a staff session.
func (s *IdentityService) Login(ctx context.Context, profile ExternalProfile) (*domain.User, string, error) {
	profile.IdentityID = strings.TrimSpace(profile.IdentityID)
	if profile.IdentityID == "" {
		return nil, "", apperrors.NewValidationError("external profile has no identity id", nil)
	}

	user, err := s.users.GetByIdentityID(ctx, profile.IdentityID)
	switch {
	case err == nil:
		if user.DisplayName != profile.DisplayName || user.Email != profile.Email {
			user.DisplayName = profile.DisplayName
			user.Email = profile.Email
			if err := s.users.Update(ctx, user); err != nil {
				return nil, "", apperrors.MapError(err)
			}
		}
	case errors.Is(err, pgx.ErrNoRows):
		user = &domain.User{
			IdentityID:  profile.IdentityID,
			DisplayName: profile.DisplayName,
			Email:       profile.Email,
			NotifyByDM:  true,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, "", apperrors.MapError(err)
		}
		if err := s.discord.HandleAutoRoleAndWelcome(ctx, user.IdentityID); err != nil {
			s.logger.Warn("discord welcome failed",
				zap.String("identity_id", user.IdentityID),
				zap.Error(err))
		}
	default:
		return nil, "", apperrors.MapError(err)
	}

	payload := session.Payload{UserID: user.ID}
	staff, err := s.staff.GetByUserID(ctx, user.ID)
	if err == nil && staff.Active {
		payload.StaffID = staff.ID
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", apperrors.MapError(err)
	}

	token, err := s.codec.Encode(payload)
	if err != nil {
		return nil, "", apperrors.NewInternalError(err)
	}
	return user, token, nil
}

// UpdatePreferences stores the user's DM notification preference.
func (s *IdentityService) UpdatePreferences(ctx context.Context, user *domain.User, notifyByDM bool) (*domain.User, error) {
	user.NotifyByDM = notifyByDM
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}
