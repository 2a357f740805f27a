package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/locate-ticket-service/internal/api/http/handlers"
	"github.com/spec-kit/locate-ticket-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Alerts         *handlers.AlertsHandler
	Sweep          *handlers.SweepHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Users.Me)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/stats", cfg.Tickets.Stats)
	tickets.Get("/export", cfg.Tickets.Export)
	tickets.Post("/import", auth.RequireAdmin(), cfg.Tickets.Import)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)
	tickets.Post("/:id/notes", cfg.Tickets.AddNote)

	alerts := app.Group("/alerts", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())
	alerts.Get("/", cfg.Alerts.ListAlerts)
	alerts.Get("/unread-count", cfg.Alerts.UnreadCount)
	alerts.Post("/read-all", cfg.Alerts.MarkAllRead)
	alerts.Post("/:id/read", cfg.Alerts.MarkRead)
	alerts.Delete("/", cfg.Alerts.ClearAll)
	alerts.Delete("/:id", cfg.Alerts.Dismiss)

	app.Post("/sweep", cfg.AuthMiddleware.Handle, auth.RequireAdmin(), cfg.Sweep.Trigger)
}
