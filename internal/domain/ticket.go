package domain

import "time"

// TicketStatus enumerates lifecycle states for locate tickets.
type TicketStatus string

const (
	TicketStatusPending    TicketStatus = "pending"
	TicketStatusInProgress TicketStatus = "in-progress"
	TicketStatusCompleted  TicketStatus = "completed"
	TicketStatusExpired    TicketStatus = "expired"
	TicketStatusCancelled  TicketStatus = "cancelled"
)

// IsTerminal reports whether the status ends the ticket lifecycle. Terminal
// tickets are never auto-mutated by the sweeper; only an explicit edit can
// re-open them.
func (s TicketStatus) IsTerminal() bool {
	switch s {
	case TicketStatusCompleted, TicketStatusExpired, TicketStatusCancelled:
		return true
	}
	return false
}

// Valid reports whether the status is a known lifecycle state.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusPending, TicketStatusInProgress, TicketStatusCompleted,
		TicketStatusExpired, TicketStatusCancelled:
		return true
	}
	return false
}

// TicketPriority enumerates work urgency as requested by the excavator.
type TicketPriority string

const (
	TicketPriorityLow      TicketPriority = "low"
	TicketPriorityMedium   TicketPriority = "medium"
	TicketPriorityHigh     TicketPriority = "high"
	TicketPriorityCritical TicketPriority = "critical"
)

// Valid reports whether the priority is a known value.
func (p TicketPriority) Valid() bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh, TicketPriorityCritical:
		return true
	}
	return false
}

// Coordinates is an optional lat/lng pair for a dig site.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Location describes where the locate work takes place.
type Location struct {
	Address     string       `json:"address"`
	City        string       `json:"city"`
	State       string       `json:"state"`
	ZipCode     string       `json:"zip_code"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// Ticket is the aggregate for a unit of utility-locate work. ID and
// TicketNumber are immutable once assigned by the store.
type Ticket struct {
	ID                string
	TicketNumber      string
	Title             string
	Description       string
	Status            TicketStatus
	Priority          TicketPriority
	CreatedBy         string
	AssignedTo        *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ExpirationDate    time.Time
	Location          Location
	WorkType          string
	EstimatedDuration float64
	Notes             []string
	Attachments       []string
}
