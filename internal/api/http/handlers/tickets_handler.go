package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// TicketsHandler manages end-user ticket endpoints.
type TicketsHandler struct {
	tickets *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets}
}

func requireUser(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal, nil
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, err := requireUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	created, err := h.tickets.CreateTicket(c.Context(), principal.User, service.CreateTicketInput{
		PanelID: req.PanelID,
		Subject: req.Subject,
		Body:    req.Message,
		Source:  domain.SourceWeb,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"data": dto.NewTicketDetail(created.Ticket, []domain.TicketMessage{*created.Message}),
	})
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, err := requireUser(c)
	if err != nil {
		return err
	}
	tickets, err := h.tickets.ListForUser(c.Context(), principal.User, c.QueryInt("limit", 50), c.QueryInt("offset", 0))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummaries(tickets)})
}

// GetTicket GET /api/tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, err := requireUser(c)
	if err != nil {
		return err
	}
	ticket, messages, err := h.tickets.GetForUser(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetail(ticket, messages)})
}

// Reply POST /api/tickets/:id/messages.
func (h *TicketsHandler) Reply(c *fiber.Ctx) error {
	principal, err := requireUser(c)
	if err != nil {
		return err
	}
	var req dto.ReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	message, err := h.tickets.UserReply(c.Context(), principal.User, c.Params("id"), replyInput(req))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewMessageResponse(message)})
}

func replyInput(req dto.ReplyRequest) service.ReplyInput {
	input := service.ReplyInput{Body: req.Message, ParentID: req.ParentID}
	for _, att := range req.Attachments {
		input.Attachments = append(input.Attachments, service.AttachmentInput{
			FileName:   att.FileName,
			StorageKey: att.StorageKey,
			MimeType:   att.MimeType,
			SizeBytes:  att.SizeBytes,
		})
	}
	return input
}
