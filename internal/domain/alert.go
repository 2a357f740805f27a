package domain

import "time"

// AlertType is the presentational severity of an alert.
type AlertType string

const (
	AlertTypeInfo    AlertType = "info"
	AlertTypeWarning AlertType = "warning"
	AlertTypeError   AlertType = "error"
	AlertTypeSuccess AlertType = "success"
)

// AlertKind names the semantic condition an alert represents. Together with
// the ticket id it forms the deduplication key: the inbox holds at most one
// active alert per (ticket, kind) pair.
type AlertKind string

const (
	AlertKindExpired          AlertKind = "expired"
	AlertKindExpiringCritical AlertKind = "expiring-critical"
	AlertKindExpiringWarning  AlertKind = "expiring-warning"
)

// Alert is an inbox entry referencing at most one ticket. Persistent alerts
// survive dismissal of the on-screen banner and require explicit inbox
// dismissal to remove.
type Alert struct {
	ID         string    `json:"id"`
	Type       AlertType `json:"type"`
	Kind       AlertKind `json:"kind"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	TicketID   *string   `json:"ticket_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	Read       bool      `json:"read"`
	Persistent bool      `json:"persistent"`
}
