package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/locate-ticket-service/internal/api/dto"
	"github.com/spec-kit/locate-ticket-service/internal/auth"
	"github.com/spec-kit/locate-ticket-service/internal/domain"
	"github.com/spec-kit/locate-ticket-service/internal/service"
	apperrors "github.com/spec-kit/locate-ticket-service/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.TicketCreateInput{
		Title:             req.Title,
		Description:       req.Description,
		Priority:          req.Priority,
		AssignedTo:        req.AssignedTo,
		ExpirationDate:    req.ExpirationDate,
		Location:          req.Location,
		WorkType:          req.WorkType,
		EstimatedDuration: req.EstimatedDuration,
		Notes:             req.Notes,
		Attachments:       req.Attachments,
	}
	ticket, err := h.service.CreateTicket(c.Context(), caller, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	input := parseTicketListQuery(c)
	tickets, err := h.service.ListTickets(c.Context(), caller, input)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.FromTicket(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, err := h.service.GetTicket(c.Context(), caller, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// UpdateTicket PATCH /tickets/:id.
func (h *TicketsHandler) UpdateTicket(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.UpdateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input := service.TicketUpdateInput{
		Title:             req.Title,
		Description:       req.Description,
		Status:            req.Status,
		Priority:          req.Priority,
		AssignedTo:        req.AssignedTo,
		ClearAssignee:     req.ClearAssignee,
		ExpirationDate:    req.ExpirationDate,
		Location:          req.Location,
		WorkType:          req.WorkType,
		EstimatedDuration: req.EstimatedDuration,
		Attachments:       req.Attachments,
	}
	ticket, err := h.service.UpdateTicket(c.Context(), caller, c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// AddNote POST /tickets/:id/notes.
func (h *TicketsHandler) AddNote(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AddNoteRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.AddNote(c.Context(), caller, c.Params("id"), req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.FromTicket(ticket)})
}

// DeleteTicket DELETE /tickets/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.service.DeleteTicket(c.Context(), caller, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Stats GET /tickets/stats.
func (h *TicketsHandler) Stats(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	stats, err := h.service.Stats(c.Context(), caller)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}

// Export GET /tickets/export.
func (h *TicketsHandler) Export(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	tickets, err := h.service.ExportAll(c.Context(), caller)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.FromTicket(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Import POST /tickets/import. Replaces the whole collection; admin only.
func (h *TicketsHandler) Import(c *fiber.Ctx) error {
	caller, ok := auth.CallerFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ImportTicketsRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	tickets := make([]domain.Ticket, 0, len(req.Tickets))
	for _, item := range req.Tickets {
		tickets = append(tickets, item.ToTicket())
	}
	if err := h.service.ImportReplaceAll(c.Context(), caller, tickets); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"imported": len(tickets)}})
}

func parseTicketListQuery(c *fiber.Ctx) service.TicketListInput {
	input := service.TicketListInput{
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	}
	for _, raw := range splitQueryList(c.Query("status")) {
		input.Statuses = append(input.Statuses, domain.TicketStatus(raw))
	}
	for _, raw := range splitQueryList(c.Query("priority")) {
		input.Priorities = append(input.Priorities, domain.TicketPriority(raw))
	}
	if v := c.Query("assigned_to"); v != "" {
		input.AssignedTo = &v
	}
	if v := c.Query("created_by"); v != "" {
		input.CreatedBy = &v
	}
	if v := c.Query("search"); v != "" {
		input.SearchTerm = &v
	}
	if v := c.Query("created_from"); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			input.CreatedFrom = &ts
		}
	}
	if v := c.Query("created_to"); v != "" {
		if ts, err := time.Parse(time.RFC3339, v); err == nil {
			input.CreatedTo = &ts
		}
	}
	return input
}

func splitQueryList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
