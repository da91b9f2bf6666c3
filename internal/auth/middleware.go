package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/internal/session"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller. Staff is set only when the
// session belongs to an active staff member.
type Principal struct {
	User  *domain.User
	Staff *domain.StaffMember
}

// IsStaff reports whether the caller acts with staff authority.
func (p *Principal) IsStaff() bool {
	return p != nil && p.Staff != nil && p.Staff.Active
}

// SessionMiddleware decodes the session cookie and loads the caller's user
// and, if applicable, staff records. It is the identity resolver: the
// permission checks downstream only ever see hydrated principals.
type SessionMiddleware struct {
	codec      *session.Codec
	cookieName string
	users      repository.UserRepository
	staff      repository.StaffRepository
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(codec *session.Codec, cookieName string, users repository.UserRepository, staff repository.StaffRepository) *SessionMiddleware {
	return &SessionMiddleware{codec: codec, cookieName: cookieName, users: users, staff: staff}
}

// Handle enforces authentication for protected routes.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	payload, ok := m.codec.Decode(c.Cookies(m.cookieName))
	if !ok {
		return apperrors.NewUnauthorized("missing or invalid session")
	}

	user, err := m.users.GetByID(c.Context(), payload.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewUnauthorized("session user not found")
		}
		return apperrors.MapError(err)
	}

	principal := &Principal{User: user}
	if payload.StaffID != "" {
		staff, err := m.staff.GetByID(c.Context(), payload.StaffID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return apperrors.MapError(err)
		}
		// An inactive staff record downgrades the session to a plain user.
		if err == nil && staff.Active && staff.UserID == user.ID {
			principal.Staff = staff
		}
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// RequireStaff ensures the caller is an active staff member.
func RequireStaff() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !principal.IsStaff() {
			return apperrors.NewForbidden("staff access required")
		}
		return c.Next()
	}
}

// RequireCapability gates a route on a single staff capability.
func RequireCapability(capability domain.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if !principal.IsStaff() {
			return apperrors.NewForbidden("staff access required")
		}
		if err := RequirePermission(principal.Staff, capability); err != nil {
			return err
		}
		return c.Next()
	}
}
