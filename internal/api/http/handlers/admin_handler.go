package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// AdminHandler covers the configuration CRUD surface: panels, statuses,
// roles and staff. The service layer enforces capability and hierarchy.
type AdminHandler struct {
	directory *service.DirectoryService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(directory *service.DirectoryService) *AdminHandler {
	return &AdminHandler{directory: directory}
}

// ListPanels GET /api/admin/panels.
func (h *AdminHandler) ListPanels(c *fiber.Ctx) error {
	if _, err := requireStaff(c); err != nil {
		return err
	}
	panels, access, err := h.directory.ListPanels(c.Context())
	if err != nil {
		return err
	}
	out := make([]dto.PanelResponse, 0, len(panels))
	for i := range panels {
		out = append(out, dto.NewPanelResponse(&panels[i], access[panels[i].ID]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// CreatePanel POST /api/admin/panels.
func (h *AdminHandler) CreatePanel(c *fiber.Ctx) error {
	staff, err := requireStaff(c)
	if err != nil {
		return err
	}
	var req dto.PanelRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	panel, err := h.directory.CreatePanel(c.Context(), staff, service.PanelInput{
		Name:          req.Name,
		Active:        req.Active,
		SortOrder:     req.SortOrder,
		AccessRoleIDs: req.AccessRoleIDs,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewPanelResponse(panel, req.AccessRoleIDs)})
}

// UpdatePanel PUT /api/admin/panels/:id.
func (h *AdminHandler) UpdatePanel(c *fiber.Ctx) error {
	staff, err := requireStaff(c)
	if err != nil {
		return err
	}
	var req dto.PanelRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	panel, err := h.directory.UpdatePanel(c.Context(), staff, c.Params("id"), service.PanelInput{
		Name:          req.Name,
		Active:        req.Active,
		SortOrder:     req.SortOrder,
		AccessRoleIDs: req.AccessRoleIDs,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewPanelResponse(panel, req.AccessRoleIDs)})
}

// DeletePanel DELETE /api/admin/panels/:id.
func (h *AdminHandler) DeletePanel(c *fiber.Ctx) error {
	staff, err := requireStaff(c)
	if err != nil {
		return err
	}
	if err := h.directory.DeletePanel(c.Context(), staff, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListStatuses GET /api/admin/statuses.
func (h *AdminHandler) ListStatuses(c *fiber.Ctx) error {
	if _, err := requireStaff(c); err != nil {
		return err
	}
	statuses, err := h.directory.ListStatuses(c.Context())
	if err != nil {
		return err
	}
	out := make([]dto.StatusResponse, 0, len(statuses))
	for i := range statuses {
		out = append(out, dto.NewStatusResponse(&statuses[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// CreateStatus POST /api/admin/statuses.
func (h *AdminHandler) CreateStatus(c *fiber.Ctx) error {
	staff, err := requireStaff(c)
	if err != nil {
		return err
	}
	var req dto.StatusRequestBody
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	status, err := h.directory.CreateStatus(c.Context(), staff, service.StatusInput{
		Name:          req.Name,
		IsDefaultOpen: req.IsDefaultOpen,
		IsClosed:      req.IsClosed,
		SortOrder:     req.SortOrder,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewStatusResponse(status)})
}

// UpdateStatus PUT /api/admin/statuses/:id.
func (h *AdminHandler) UpdateStatus(c *fiber.Ctx) error {
	staff, err := requireStaff(c)
	if err != nil {
		return err
	}
	var req dto.StatusRequestBody
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	status, err := h.directory.UpdateStatus(c.Context(), staff, c.Params("id"), service.StatusInput{
		Name:          req.Name,
		IsDefaultOpen: req.IsDefaultOpen,
		IsClosed:      req.IsClosed,
		SortOrder:     req.SortOrder,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStatusResponse(status)})
}

// DeleteStatus DELETE /api/admin/statuses/:id.
func (h *AdminHandler) DeleteStatus(c *fiber.Ctx) error {
	staff, err := requireStaff(c)
	if err != nil {
		return err
	}
	if err := h.directory.DeleteStatus(c.Context(), staff, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListRoles GET /api/admin/roles.
func (h *AdminHandler) ListRoles(c *fiber.Ctx) error {
	if _, err := requireStaff(c); err != nil {
		return err
	}
	roles, err := h.directory.ListRoles(c.Context())
	if err != nil {
		return err
	}
	out := make([]dto.RoleResponse, 0, len(roles))
	for i := range roles {
		out = append(out, dto.NewRoleResponse(&roles[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// CreateRole POST /api/admin/roles.
func (h *AdminHandler) CreateRole(c *fiber.Ctx) error {
	staff, err := requireStaff(c)
	if err != nil {
		return err
	}
	var req dto.RoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	role, err := h.directory.CreateRole(c.Context(), staff, service.RoleInput{
		Name:        req.Name,
		SortOrder:   req.SortOrder,
		IsAdmin:     req.IsAdmin,
		Permissions: req.Permissions,
		Color:       req.Color,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewRoleResponse(role)})
}

// UpdateRole PUT /api/admin/roles/:id.
func (h *AdminHandler) UpdateRole(c *fiber.Ctx) error {
	staff, err := requireStaff(c)
	if err != nil {
		return err
	}
	var req dto.RoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	role, err := h.directory.UpdateRole(c.Context(), staff, c.Params("id"), service.RoleInput{
		Name:        req.Name,
		SortOrder:   req.SortOrder,
		IsAdmin:     req.IsAdmin,
		Permissions: req.Permissions,
		Color:       req.Color,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRoleResponse(role)})
}

// DeleteRole DELETE /api/admin/roles/:id.
func (h *AdminHandler) DeleteRole(c *fiber.Ctx) error {
	staff, err := requireStaff(c)
	if err != nil {
		return err
	}
	if err := h.directory.DeleteRole(c.Context(), staff, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListStaff GET /api/admin/staff.
func (h *AdminHandler) ListStaff(c *fiber.Ctx) error {
	if _, err := requireStaff(c); err != nil {
		return err
	}
	filter := repository.StaffFilter{
		Limit:  c.QueryInt("limit", 100),
		Offset: c.QueryInt("offset", 0),
	}
	if roleID := c.Query("role_id"); roleID != "" {
		filter.RoleID = &roleID
	}
	members, err := h.directory.ListStaff(c.Context(), filter)
	if err != nil {
		return err
	}
	out := make([]dto.StaffResponse, 0, len(members))
	for i := range members {
		out = append(out, dto.NewStaffResponse(&members[i]))
	}
	return c.JSON(fiber.Map{"data": out})
}

// CreateStaff POST /api/admin/staff.
func (h *AdminHandler) CreateStaff(c *fiber.Ctx) error {
	staff, err := requireStaff(c)
	if err != nil {
		return err
	}
	var req dto.StaffRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	member, err := h.directory.CreateStaff(c.Context(), staff, service.StaffInput{
		UserID:       req.UserID,
		RoleID:       req.RoleID,
		Nickname:     req.Nickname,
		Active:       req.Active,
		PayPerTicket: req.PayPerTicket,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewStaffResponse(member)})
}

// UpdateStaff PUT /api/admin/staff/:id.
func (h *AdminHandler) UpdateStaff(c *fiber.Ctx) error {
	staff, err := requireStaff(c)
	if err != nil {
		return err
	}
	var req dto.StaffRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	member, err := h.directory.UpdateStaff(c.Context(), staff, c.Params("id"), service.StaffInput{
		UserID:       req.UserID,
		RoleID:       req.RoleID,
		Nickname:     req.Nickname,
		Active:       req.Active,
		PayPerTicket: req.PayPerTicket,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewStaffResponse(member)})
}
