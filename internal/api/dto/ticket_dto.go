package dto

import (
	"time"

	"github.com/spec-kit/locate-ticket-service/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title             string                `json:"title"`
	Description       string                `json:"description"`
	Priority          domain.TicketPriority `json:"priority"`
	AssignedTo        *string               `json:"assigned_to"`
	ExpirationDate    time.Time             `json:"expiration_date"`
	Location          domain.Location       `json:"location"`
	WorkType          string                `json:"work_type"`
	EstimatedDuration float64               `json:"estimated_duration"`
	Notes             []string              `json:"notes"`
	Attachments       []string              `json:"attachments"`
}

// UpdateTicketRequest carries partial edits; omitted fields stay unchanged.
type UpdateTicketRequest struct {
	Title             *string                `json:"title"`
	Description       *string                `json:"description"`
	Status            *domain.TicketStatus   `json:"status"`
	Priority          *domain.TicketPriority `json:"priority"`
	AssignedTo        *string                `json:"assigned_to"`
	ClearAssignee     bool                   `json:"clear_assignee"`
	ExpirationDate    *time.Time             `json:"expiration_date"`
	Location          *domain.Location       `json:"location"`
	WorkType          *string                `json:"work_type"`
	EstimatedDuration *float64               `json:"estimated_duration"`
	Attachments       []string               `json:"attachments"`
}

// AddNoteRequest payload.
type AddNoteRequest struct {
	Note string `json:"note"`
}

// ImportTicketsRequest payload for the bulk replace-all surface.
type ImportTicketsRequest struct {
	Tickets []TicketResponse `json:"tickets"`
}

// TicketResponse is the full wire representation of a ticket.
type TicketResponse struct {
	ID                string                `json:"id"`
	TicketNumber      string                `json:"ticket_number"`
	Title             string                `json:"title"`
	Description       string                `json:"description"`
	Status            domain.TicketStatus   `json:"status"`
	Priority          domain.TicketPriority `json:"priority"`
	CreatedBy         string                `json:"created_by"`
	AssignedTo        *string               `json:"assigned_to"`
	CreatedAt         time.Time             `json:"created_at"`
	UpdatedAt         time.Time             `json:"updated_at"`
	ExpirationDate    time.Time             `json:"expiration_date"`
	Location          domain.Location       `json:"location"`
	WorkType          string                `json:"work_type"`
	EstimatedDuration float64               `json:"estimated_duration"`
	Notes             []string              `json:"notes"`
	Attachments       []string              `json:"attachments"`
}

// FromTicket maps a domain ticket to its wire form.
func FromTicket(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:                t.ID,
		TicketNumber:      t.TicketNumber,
		Title:             t.Title,
		Description:       t.Description,
		Status:            t.Status,
		Priority:          t.Priority,
		CreatedBy:         t.CreatedBy,
		AssignedTo:        t.AssignedTo,
		CreatedAt:         t.CreatedAt,
		UpdatedAt:         t.UpdatedAt,
		ExpirationDate:    t.ExpirationDate,
		Location:          t.Location,
		WorkType:          t.WorkType,
		EstimatedDuration: t.EstimatedDuration,
		Notes:             t.Notes,
		Attachments:       t.Attachments,
	}
}

// ToTicket maps a wire ticket back to the domain, used by bulk import.
func (r TicketResponse) ToTicket() domain.Ticket {
	return domain.Ticket{
		ID:                r.ID,
		TicketNumber:      r.TicketNumber,
		Title:             r.Title,
		Description:       r.Description,
		Status:            r.Status,
		Priority:          r.Priority,
		CreatedBy:         r.CreatedBy,
		AssignedTo:        r.AssignedTo,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
		ExpirationDate:    r.ExpirationDate,
		Location:          r.Location,
		WorkType:          r.WorkType,
		EstimatedDuration: r.EstimatedDuration,
		Notes:             r.Notes,
		Attachments:       r.Attachments,
	}
}
