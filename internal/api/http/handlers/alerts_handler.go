package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/locate-ticket-service/internal/api/dto"
	"github.com/spec-kit/locate-ticket-service/internal/auth"
	"github.com/spec-kit/locate-ticket-service/internal/service"
	apperrors "github.com/spec-kit/locate-ticket-service/pkg/util"
)

// AlertsHandler exposes the caller's alert inbox.
type AlertsHandler struct {
	service *service.AlertService
}

// NewAlertsHandler constructs handler.
func NewAlertsHandler(alertService *service.AlertService) *AlertsHandler {
	return &AlertsHandler{service: alertService}
}

// ListAlerts GET /alerts.
func (h *AlertsHandler) ListAlerts(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	alerts, err := h.service.ListForCaller(c.Context(), caller)
	if err != nil {
		return err
	}
	items := make([]dto.AlertResponse, 0, len(alerts))
	for i := range alerts {
		items = append(items, dto.FromAlert(&alerts[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UnreadCount GET /alerts/unread-count.
func (h *AlertsHandler) UnreadCount(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	count, err := h.service.UnreadCount(c.Context(), caller)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"unread": count}})
}

// MarkRead POST /alerts/:id/read.
func (h *AlertsHandler) MarkRead(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.MarkAsRead(c.Context(), caller, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// MarkAllRead POST /alerts/read-all.
func (h *AlertsHandler) MarkAllRead(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.MarkAllAsRead(c.Context(), caller); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Dismiss DELETE /alerts/:id.
func (h *AlertsHandler) Dismiss(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.Dismiss(c.Context(), caller, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ClearAll DELETE /alerts.
func (h *AlertsHandler) ClearAll(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.ClearAll(c.Context(), caller); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
