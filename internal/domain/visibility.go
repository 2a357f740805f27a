package domain

// CanSeeTicket reports whether the caller may view the ticket. Admins see
// everything; everyone else only tickets they created or are assigned to.
func (c Caller) CanSeeTicket(t *Ticket) bool {
	if c.Role == UserRoleAdmin {
		return true
	}
	if t.CreatedBy == c.Email {
		return true
	}
	return t.AssignedTo != nil && *t.AssignedTo == c.Email
}

// FilterTickets projects the full ticket set down to the caller's view.
func FilterTickets(caller Caller, tickets []Ticket) []Ticket {
	if caller.Role == UserRoleAdmin {
		return tickets
	}
	visible := make([]Ticket, 0, len(tickets))
	for i := range tickets {
		if caller.CanSeeTicket(&tickets[i]) {
			visible = append(visible, tickets[i])
		}
	}
	return visible
}

// FilterAlerts scopes alerts by following each alert's ticket reference back
// to ticket ownership. An alert without a ticket has no owner to scope by, so
// only admins see it. The lookup resolves a ticket id to its ticket, nil when
// the ticket no longer exists.
func FilterAlerts(caller Caller, alerts []Alert, lookup func(ticketID string) *Ticket) []Alert {
	if caller.Role == UserRoleAdmin {
		return alerts
	}
	visible := make([]Alert, 0, len(alerts))
	for _, alert := range alerts {
		if alert.TicketID == nil {
			continue
		}
		ticket := lookup(*alert.TicketID)
		if ticket == nil {
			continue
		}
		if caller.CanSeeTicket(ticket) {
			visible = append(visible, alert)
		}
	}
	return visible
}
