package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health       *handlers.HealthHandler
	Users        *handlers.UsersHandler
	Tickets      *handlers.TicketsHandler
	StaffTickets *handlers.StaffTicketsHandler
	Staff        *handlers.StaffHandler
	Admin        *handlers.AdminHandler
	Events       *handlers.EventsHandler
	Payhip       *handlers.PayhipHandler
	Attachments  *handlers.AttachmentsHandler
	Session      *auth.SessionMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", metricsHandler())

	app.Post("/webhooks/payhip", cfg.Payhip.Webhook)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/logout", cfg.Users.Logout)

	app.Get("/events", cfg.Session.Handle, cfg.Events.Stream)

	api := app.Group("/api", cfg.Session.Handle)
	api.Get("/me", cfg.Users.Me)
	api.Patch("/me/preferences", cfg.Users.UpdatePreferences)

	tickets := api.Group("/tickets")
	tickets.Post("", cfg.Tickets.CreateTicket)
	tickets.Get("", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Post("/:id/messages", cfg.Tickets.Reply)

	api.Post("/attachments", cfg.Attachments.Upload)
	api.Get("/attachments/+", cfg.Attachments.Download)

	staff := api.Group("/staff", auth.RequireStaff())
	staff.Get("/panels", cfg.StaffTickets.Panels)
	staff.Get("/notifications", cfg.Staff.Notifications)
	staff.Post("/notifications/:id/read", cfg.Staff.MarkNotificationRead)
	staff.Get("/pay/summary", cfg.Staff.PaySummary)
	staff.Get("/leaderboard", cfg.Staff.Leaderboard)

	staffTickets := staff.Group("/tickets")
	staffTickets.Get("", cfg.StaffTickets.List)
	staffTickets.Get("/:id", cfg.StaffTickets.Get)
	staffTickets.Post("/:id/messages", cfg.StaffTickets.Reply)
	staffTickets.Post("/:id/claim", cfg.StaffTickets.Claim)
	staffTickets.Post("/:id/unclaim", cfg.StaffTickets.Unclaim)
	staffTickets.Post("/:id/assign", cfg.StaffTickets.Assign)
	staffTickets.Post("/:id/status", cfg.StaffTickets.Status)
	staffTickets.Post("/:id/escalate", cfg.StaffTickets.Escalate)
	staffTickets.Post("/:id/close", cfg.StaffTickets.Close)
	staffTickets.Get("/:id/transcripts", cfg.StaffTickets.ListTranscripts)
	staffTickets.Post("/:id/transcripts", cfg.StaffTickets.CreateTranscript)
	staffTickets.Get("/:id/transcripts/:tid", cfg.StaffTickets.GetTranscript)

	admin := api.Group("/admin", auth.RequireStaff())
	admin.Get("/panels", cfg.Admin.ListPanels)
	admin.Post("/panels", cfg.Admin.CreatePanel)
	admin.Put("/panels/:id", cfg.Admin.UpdatePanel)
	admin.Delete("/panels/:id", cfg.Admin.DeletePanel)
	admin.Get("/statuses", cfg.Admin.ListStatuses)
	admin.Post("/statuses", cfg.Admin.CreateStatus)
	admin.Put("/statuses/:id", cfg.Admin.UpdateStatus)
	admin.Delete("/statuses/:id", cfg.Admin.DeleteStatus)
	admin.Get("/roles", cfg.Admin.ListRoles)
	admin.Post("/roles", cfg.Admin.CreateRole)
	admin.Put("/roles/:id", cfg.Admin.UpdateRole)
	admin.Delete("/roles/:id", cfg.Admin.DeleteRole)
	admin.Get("/staff", cfg.Admin.ListStaff)
	admin.Post("/staff", cfg.Admin.CreateStaff)
	admin.Put("/staff/:id", cfg.Admin.UpdateStaff)
	admin.Get("/staff/:id/pay", cfg.Staff.ListAdjustments)
	admin.Post("/staff/:id/pay/bonus", cfg.Staff.Bonus)
	admin.Post("/staff/:id/pay/dock", cfg.Staff.Dock)
}

func metricsHandler() fiber.Handler {
	promHandler := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())
	return func(c *fiber.Ctx) error {
		promHandler(c.Context())
		return nil
	}
}
