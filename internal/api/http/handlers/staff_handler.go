package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/support-desk/internal/api/dto"
	"github.com/spec-kit/support-desk/internal/domain"
	"github.com/spec-kit/support-desk/internal/service"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// StaffHandler covers the staff member's own surface: inbox, earnings and
// the leaderboard, plus the pay adjustments issued by managers.
type StaffHandler struct {
	pay           *service.PayService
	notifications *service.NotificationService
}

// NewStaffHandler constructs handler.
func NewStaffHandler(pay *service.PayService, notifications *service.NotificationService) *StaffHandler {
	return &StaffHandler{pay: pay, notifications: notifications}
}

// Notifications GET /api/staff/notifications.
func (h *StaffHandler) Notifications(c *fiber.Ctx) error {
	staff, err := requireStaff(c)
	if err != nil {
		return err
	}
	inbox, err := h.notifications.List(c.Context(), staff, c.QueryBool("unread_only", false))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewNotificationResponses(inbox)})
}

// MarkNotificationRead POST /api/staff/notifications/:id/read.
func (h *StaffHandler) MarkNotificationRead(c *fiber.Ctx) error {
	staff, err := requireStaff(c)
	if err != nil {
		return err
	}
	if err := h.notifications.MarkRead(c.Context(), staff, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// PaySummary GET /api/staff/pay/summary. Defaults to the caller's own
// earnings; a staff_id query asks for someone else's and goes through the
// pay capability check in the service.
func (h *StaffHandler) PaySummary(c *fiber.Ctx) error {
	staff, err := requireStaff(c)
	if err != nil {
		return err
	}
	staffID := c.Query("staff_id", staff.ID)
	earnings, err := h.pay.MonthlyEarnings(c.Context(), staff, staffID, time.Now())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewEarningsResponse(earnings)})
}

// Leaderboard GET /api/staff/leaderboard.
func (h *StaffHandler) Leaderboard(c *fiber.Ctx) error {
	if _, err := requireStaff(c); err != nil {
		return err
	}
	entries, err := h.pay.Leaderboard(c.Context(), time.Now())
	if err != nil {
		return err
	}
	out := make([]dto.LeaderboardEntryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, dto.LeaderboardEntryResponse{
			StaffID:         entry.StaffID,
			RoleID:          entry.RoleID,
			Nickname:        entry.Nickname,
			AnsweredTickets: entry.AnsweredTickets,
		})
	}
	return c.JSON(fiber.Map{"data": out})
}

// Bonus POST /api/admin/staff/:id/pay/bonus.
func (h *StaffHandler) Bonus(c *fiber.Ctx) error {
	return h.adjust(c, h.pay.Bonus)
}

// Dock POST /api/admin/staff/:id/pay/dock.
func (h *StaffHandler) Dock(c *fiber.Ctx) error {
	return h.adjust(c, h.pay.Dock)
}

type adjustFunc func(ctx context.Context, actor *domain.StaffMember, staffID string, amount float64, reason string) (*domain.StaffPayAdjustment, error)

func (h *StaffHandler) adjust(c *fiber.Ctx, op adjustFunc) error {
	staff, err := requireStaff(c)
	if err != nil {
		return err
	}
	var req dto.PayAdjustmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	row, err := op(c.Context(), staff, c.Params("id"), req.Amount, req.Reason)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.PayAdjustmentResponse{
		ID:        row.ID,
		Amount:    row.Amount,
		Reason:    row.Reason,
		CreatedAt: row.CreatedAt,
	}})
}

// ListAdjustments GET /api/admin/staff/:id/pay.
func (h *StaffHandler) ListAdjustments(c *fiber.Ctx) error {
	staff, err := requireStaff(c)
	if err != nil {
		return err
	}
	rows, err := h.pay.ListAdjustments(c.Context(), staff, c.Params("id"))
	if err != nil {
		return err
	}
	out := make([]dto.PayAdjustmentResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, dto.PayAdjustmentResponse{
			ID:        row.ID,
			Amount:    row.Amount,
			Reason:    row.Reason,
			CreatedAt: row.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": out})
}
