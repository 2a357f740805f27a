package events

import (
	"time"

	"github.com/spec-kit/locate-ticket-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketDeleted       EventType = "ticket_deleted"
	EventTicketUrgency       EventType = "ticket_urgency"
)

// Event is a domain event emitted by the ticket service or the sweeper.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketNumber string                `json:"ticket_number"`
	Priority     domain.TicketPriority `json:"priority"`
	Title        string                `json:"title"`
	CreatedBy    string                `json:"created_by"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketDeletedPayload payload.
type TicketDeletedPayload struct {
	TicketNumber string `json:"ticket_number"`
}

// TicketUrgencyPayload carries one urgency classification for a ticket. The
// sweeper emits one per ticket and cycle for every non-none classification;
// the notification service turns it into a deduplicated inbox alert.
type TicketUrgencyPayload struct {
	Classification domain.Urgency `json:"classification"`
	HoursRemaining float64        `json:"hours_remaining"`
	TicketNumber   string         `json:"ticket_number"`
}
