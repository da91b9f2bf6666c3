package handlers

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/platform/discord"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// PayhipHandler receives purchase webhooks from Payhip. The payload carries
// a signature field holding the SHA-256 digest of the shared API key; the
// request is rejected unless the digest matches.
type PayhipHandler struct {
	apiKey   string
	notifier discord.Notifier
	logger   *zap.Logger
}

// NewPayhipHandler constructs handler.
func NewPayhipHandler(apiKey string, notifier discord.Notifier, logger *zap.Logger) *PayhipHandler {
	return &PayhipHandler{apiKey: apiKey, notifier: notifier, logger: logger}
}

type payhipWebhook struct {
	Signature string `json:"signature"`
	Type      string `json:"type"`
	Email     string `json:"email"`
	ProductID string `json:"product_id"`
}

// Webhook POST /webhooks/payhip.
func (h *PayhipHandler) Webhook(c *fiber.Ctx) error {
	if h.apiKey == "" {
		return apperrors.NewNotFound("webhook", nil)
	}

	var payload payhipWebhook
	if err := c.BodyParser(&payload); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	expected := sha256.Sum256([]byte(h.apiKey))
	expectedHex := hex.EncodeToString(expected[:])
	if subtle.ConstantTimeCompare([]byte(payload.Signature), []byte(expectedHex)) != 1 {
		return apperrors.NewUnauthorized("invalid webhook signature")
	}

	h.logger.Info("payhip webhook received",
		zap.String("type", payload.Type),
		zap.String("product_id", payload.ProductID),
	)

	if payload.Email != "" {
		message := fmt.Sprintf("payhip purchase recorded for %s", payload.Email)
		if err := h.notifier.SendSupportChannelMessage(c.Context(), message); err != nil {
			h.logger.Warn("failed to announce purchase", zap.Error(err))
		}
	}
	return c.JSON(fiber.Map{"data": "ok"})
}
