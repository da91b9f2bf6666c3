package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/spec-kit/support-desk/internal/platform/blob"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

// AttachmentsHandler moves attachment payloads in and out of blob storage.
// Only the storage key travels through the ticket API; callers upload first
// and then reference the key from a reply.
type AttachmentsHandler struct {
	store blob.Store
}

// NewAttachmentsHandler constructs handler.
func NewAttachmentsHandler(store blob.Store) *AttachmentsHandler {
	return &AttachmentsHandler{store: store}
}

// Upload POST /api/attachments. Accepts a multipart form with a "file" field.
func (h *AttachmentsHandler) Upload(c *fiber.Ctx) error {
	if _, err := requireUser(c); err != nil {
		return err
	}

	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("file field required", nil)
	}
	file, err := header.Open()
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	defer file.Close() //nolint:errcheck

	key := uuid.NewString() + "/" + slug.Make(header.Filename)
	storageKey, err := h.store.Put(c.Context(), key, file)
	if err != nil {
		return apperrors.NewInternalError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": fiber.Map{
		"storage_key": storageKey,
		"file_name":   header.Filename,
		"size_bytes":  header.Size,
	}})
}

// Download GET /api/attachments/+. The wildcard captures keys with slashes.
func (h *AttachmentsHandler) Download(c *fiber.Ctx) error {
	if _, err := requireUser(c); err != nil {
		return err
	}

	key := c.Params("+")
	if key == "" {
		return apperrors.NewValidationError("attachment key required", nil)
	}
	reader, err := h.store.Get(c.Context(), key)
	if err != nil {
		return apperrors.NewNotFound("attachment", map[string]any{"key": key})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	return c.SendStream(reader)
}
