package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// StaffTicketsHandler covers the staff ticket queue and lifecycle actions.
type StaffTicketsHandler struct {
	tickets     *service.TicketService
	transcripts *service.TranscriptService
}

// NewStaffTicketsHandler constructs handler.
func NewStaffTicketsHandler(tickets *service.TicketService, transcripts *service.TranscriptService) *StaffTicketsHandler {
	return &StaffTicketsHandler{tickets: tickets, transcripts: transcripts}
}

func requireStaff(c *fiber.Ctx) (*domain.StaffMember, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if !principal.IsStaff() {
		return nil, apperrors.NewForbidden("staff access required")
	}
	return principal.Staff, nil
}

// List GET /api/staff/tickets.
func (h *StaffTicketsHandler) List(c *fiber.Ctx) error {
	staff, err := requireStaff(c)
	if err != nil {
		return err
	}

	filter := service.StaffListFilter{
		OpenOnly: c.QueryBool("open_only", false),
		Limit:    c.QueryInt("limit", 50),
		Offset:   c.QueryInt("offset", 0),
	}
	if panelID := c.Query("panel_id"); panelID != "" {
		filter.PanelID = &panelID
	}
	if statusID := c.Query("status_id"); statusID != "" {
		filter.StatusIDs = []string{statusID}
	}
	if assignee := c.Query("assigned_staff_id"); assignee != "" {
		filter.AssignedStaffID = &assignee
	}

	tickets, err := h.tickets.ListForStaff(c.Context(), staff, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummaries(tickets)})
}

// Get GET /api/staff/tickets/:id.
func (h *StaffTicketsHandler) Get(c *fiber.Ctx) error {
	staff, err := requireStaff(c)
	if err != nil {
		return err
	}
	ticket, messages, err := h.tickets.GetForStaff(c.Context(), staff, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket, messages)})
}

// Reply POST /api/staff/tickets/:id/messages.
func (h *StaffTicketsHandler) Reply(c *fiber.Ctx) error {
	staff, err := requireStaff(c)
	if err != nil {
		return err
	}
	var req dto.ReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	message, err := h.tickets.StaffReply(c.Context(), staff, c.Params("id"), replyInput(req))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewMessageResponse(message)})
}

// Claim POST /api/staff/tickets/:id/claim.
func (h *StaffTicketsHandler) Claim(c *fiber.Ctx) error {
	staff, err := requireStaff(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.Claim(c.Context(), staff, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// Unclaim POST /api/staff/tickets/:id/unclaim.
func (h *StaffTicketsHandler) Unclaim(c *fiber.Ctx) error {
	staff, err := requireStaff(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.Unclaim(c.Context(), staff, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// Assign POST /api/staff/tickets/:id/assign.
func (h *StaffTicketsHandler) Assign(c *fiber.Ctx) error {
	staff, err := requireStaff(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.Assign(c.Context(), staff, c.Params("id"), req.StaffID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// Status POST /api/staff/tickets/:id/status.
func (h *StaffTicketsHandler) Status(c *fiber.Ctx) error {
	staff, err := requireStaff(c)
	if err != nil {
		return err
	}
	var req dto.StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.StatusID == "" {
		return apperrors.NewValidationError("status_id required", nil)
	}
	ticket, err := h.tickets.SetStatus(c.Context(), staff, c.Params("id"), req.StatusID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// Escalate POST /api/staff/tickets/:id/escalate.
func (h *StaffTicketsHandler) Escalate(c *fiber.Ctx) error {
	staff, err := requireStaff(c)
	if err != nil {
		return err
	}
	var req dto.EscalateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.PanelID == "" {
		return apperrors.NewValidationError("panel_id required", nil)
	}
	ticket, err := h.tickets.Escalate(c.Context(), staff, c.Params("id"), req.PanelID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// Close POST /api/staff/tickets/:id/close.
func (h *StaffTicketsHandler) Close(c *fiber.Ctx) error {
	staff, err := requireStaff(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.Close(c.Context(), staff, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// ListTranscripts GET /api/staff/tickets/:id/transcripts.
func (h *StaffTicketsHandler) ListTranscripts(c *fiber.Ctx) error {
	staff, err := requireStaff(c)
	if err != nil {
		return err
	}
	transcripts, err := h.tickets.ListTranscripts(c.Context(), staff, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTranscriptSummaries(transcripts)})
}

// CreateTranscript POST /api/staff/tickets/:id/transcripts.
func (h *StaffTicketsHandler) CreateTranscript(c *fiber.Ctx) error {
	staff, err := requireStaff(c)
	if err != nil {
		return err
	}
	transcript, err := h.tickets.CreateManualTranscript(c.Context(), staff, c.Params("id"))
	if err != nil {
		return err
	}
	summaries := dto.NewTranscriptSummaries([]domain.TicketTranscript{*transcript})
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": summaries[0]})
}

// GetTranscript GET /api/staff/tickets/:id/transcripts/:tid?format=html|json.
func (h *StaffTicketsHandler) GetTranscript(c *fiber.Ctx) error {
	staff, err := requireStaff(c)
	if err != nil {
		return err
	}
	transcript, err := h.tickets.GetTranscript(c.Context(), staff, c.Params("id"), c.Params("tid"))
	if err != nil {
		return err
	}

	if c.Query("format", "json") == "html" {
		html, err := h.transcripts.RenderHTML(transcript)
		if err != nil {
			return apperrors.NewInternalError(err)
		}
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.Send(html)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(h.transcripts.RenderJSON(transcript))
}

// Panels GET /api/staff/panels lists the caller's visible panels.
func (h *StaffTicketsHandler) Panels(c *fiber.Ctx) error {
	staff, err := requireStaff(c)
	if err != nil {
		return err
	}
	panels, err := h.tickets.AccessiblePanels(c.Context(), staff)
	if err != nil {
		return err
	}
	out := make([]dto.PanelResponse, 0, len(panels))
	for i := range panels {
		out = append(out, dto.NewPanelResponse(&panels[i], nil))
	}
	return c.JSON(fiber.Map{"data": out})
}
