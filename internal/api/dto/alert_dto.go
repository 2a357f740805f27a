package dto

import (
	"time"

	"github.com/spec-kit/locate-ticket-service/internal/domain"
)

// AlertResponse is the wire representation of an inbox alert.
type AlertResponse struct {
	ID         string           `json:"id"`
	Type       domain.AlertType `json:"type"`
	Kind       domain.AlertKind `json:"kind"`
	Title      string           `json:"title"`
	Message    string           `json:"message"`
	TicketID   *string          `json:"ticket_id,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	Read       bool             `json:"read"`
	Persistent bool             `json:"persistent"`
}

// FromAlert maps a domain alert to its wire form.
func FromAlert(a *domain.Alert) AlertResponse {
	return AlertResponse{
		ID:         a.ID,
		Type:       a.Type,
		Kind:       a.Kind,
		Title:      a.Title,
		Message:    a.Message,
		TicketID:   a.TicketID,
		CreatedAt:  a.CreatedAt,
		Read:       a.Read,
		Persistent: a.Persistent,
	}
}
