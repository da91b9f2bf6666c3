package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/events"
	apperrors "github.com/spec-kit/support-desk/pkg/util/errorutil"
)

const sseKeepaliveInterval = 25 * time.Second

// EventsHandler streams ticket lifecycle events over server-sent events.
type EventsHandler struct {
	bus    *events.Bus
	logger *zap.Logger
}

// NewEventsHandler constructs handler.
func NewEventsHandler(bus *events.Bus, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{bus: bus, logger: logger}
}

// Stream GET /events. Staff receive every event; end users only receive
// events for tickets they created. The subscription lives for the duration
// of the connection and is torn down when the client goes away.
func (h *EventsHandler) Stream(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}

	var filter events.Filter
	if !principal.IsStaff() {
		userID := principal.User.ID
		filter = func(ev events.Event) bool {
			return ev.CreatorUserID == userID
		}
	}
	sub := h.bus.Register(filter)

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer h.bus.Unregister(sub)

		keepalive := time.NewTicker(sseKeepaliveInterval)
		defer keepalive.Stop()

		for {
			select {
			case ev, open := <-sub.C:
				if !open {
					return
				}
				data, err := json.Marshal(ev)
				if err != nil {
					h.logger.Warn("failed to encode stream event", zap.Error(err))
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
				if err := w.Flush(); err != nil {
					return
				}
			case <-keepalive.C:
				fmt.Fprint(w, ": keepalive\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))
	return nil
}
