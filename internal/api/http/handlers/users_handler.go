package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// UsersHandler covers login, session and profile endpoints.
type UsersHandler struct {
	identity *service.IdentityService
	session  config.SessionConfig
}

// NewUsersHandler constructs handler.
func NewUsersHandler(identity *service.IdentityService, session config.SessionConfig) *UsersHandler {
	return &UsersHandler{identity: identity, session: session}
}

// Login POST /auth/login. The OAuth code exchange happens upstream; this
// endpoint receives the verified profile and sets the session cookie.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, token, err := h.identity.Login(c.Context(), service.ExternalProfile{
		IdentityID:  req.IdentityID,
		DisplayName: req.DisplayName,
		Email:       req.Email,
	})
	if err != nil {
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     h.session.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.session.MaxAge().Seconds()),
		HTTPOnly: true,
		Secure:   h.session.SecureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Logout POST /auth/logout clears the session cookie.
func (h *UsersHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     h.session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HTTPOnly: true,
		Secure:   h.session.SecureCookie,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	return c.JSON(fiber.Map{"data": "logged out"})
}

// Me GET /api/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	response := dto.MeResponse{User: dto.NewUserResponse(principal.User)}
	if principal.IsStaff() {
		staff := dto.NewStaffResponse(principal.Staff)
		response.Staff = &staff
	}
	return c.JSON(fiber.Map{"data": response})
}

// UpdatePreferences PATCH /api/me/preferences.
func (h *UsersHandler) UpdatePreferences(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.PreferencesRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.identity.UpdatePreferences(c.Context(), principal.User, req.NotifyByDM)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}
