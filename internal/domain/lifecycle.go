package domain

import "time"

// Expiration windows for urgency classification. A ticket inside the
// critical window is about to lapse; inside the warning window it expires
// within the working day.
const (
	CriticalWindow = 4 * time.Hour
	WarningWindow  = 24 * time.Hour
)

// Urgency classifies how close a ticket is to its expiration deadline.
type Urgency string

const (
	UrgencyNone     Urgency = "none"
	UrgencyWarning  Urgency = "warning"
	UrgencyCritical Urgency = "critical"
	UrgencyExpired  Urgency = "expired"
)

// ClassifyUrgency derives a single urgency bucket from the ticket's
// expiration deadline and the current time. Boundaries belong to the
// stricter bucket: exactly 4h/24h left classifies critical/warning, and the
// exact expiration instant is already expired. Completed tickets never
// classify; already-expired tickets no longer classify as expired so the
// sweeper stays idempotent.
func ClassifyUrgency(t *Ticket, now time.Time) Urgency {
	remaining := t.ExpirationDate.Sub(now)

	if remaining <= 0 && t.Status != TicketStatusCompleted && t.Status != TicketStatusExpired {
		return UrgencyExpired
	}
	if t.Status == TicketStatusCompleted {
		return UrgencyNone
	}
	if remaining > 0 && remaining <= CriticalWindow {
		return UrgencyCritical
	}
	if remaining > CriticalWindow && remaining <= WarningWindow {
		return UrgencyWarning
	}
	return UrgencyNone
}

// HoursRemaining reports hours until expiration, negative once past due.
func HoursRemaining(t *Ticket, now time.Time) float64 {
	return t.ExpirationDate.Sub(now).Hours()
}

var allowedTransitions = map[TicketStatus][]TicketStatus{
	TicketStatusPending:    {TicketStatusInProgress, TicketStatusCompleted, TicketStatusExpired, TicketStatusCancelled},
	TicketStatusInProgress: {TicketStatusPending, TicketStatusCompleted, TicketStatusExpired, TicketStatusCancelled},
	TicketStatusCompleted:  {TicketStatusPending, TicketStatusInProgress},
	TicketStatusExpired:    {TicketStatusPending, TicketStatusInProgress},
	TicketStatusCancelled:  {TicketStatusPending, TicketStatusInProgress},
}

// CanTransition reports whether an edit may move a ticket between the given
// statuses. Keeping the current status is always a legal edit. Terminal
// statuses can only be re-opened back to pending or in-progress, and only by
// an explicit edit; the sweeper never moves a ticket out of a terminal state.
func CanTransition(from, to TicketStatus) bool {
	if from == to {
		return from.Valid()
	}
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}
