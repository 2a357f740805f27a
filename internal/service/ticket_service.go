package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/locate-ticket-service/internal/domain"
	"github.com/spec-kit/locate-ticket-service/internal/events"
	"github.com/spec-kit/locate-ticket-service/internal/repository"
	apperrors "github.com/spec-kit/locate-ticket-service/pkg/util"
)

// TicketService coordinates locate ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title             string
	Description       string
	Priority          domain.TicketPriority
	AssignedTo        *string
	ExpirationDate    time.Time
	Location          domain.Location
	WorkType          string
	EstimatedDuration float64
	Notes             []string
	Attachments       []string
}

// TicketUpdateInput carries partial edits; nil fields are left untouched.
type TicketUpdateInput struct {
	Title             *string
	Description       *string
	Status            *domain.TicketStatus
	Priority          *domain.TicketPriority
	AssignedTo        *string
	ClearAssignee     bool
	ExpirationDate    *time.Time
	Location          *domain.Location
	WorkType          *string
	EstimatedDuration *float64
	Attachments       []string
}

// TicketListInput describes caller-facing list filters.
type TicketListInput struct {
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	AssignedTo  *string
	CreatedBy   *string
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// TicketStats summarizes the caller-visible ticket set for dashboards.
type TicketStats struct {
	Total      int                           `json:"total"`
	ByStatus   map[domain.TicketStatus]int   `json:"by_status"`
	ByPriority map[domain.TicketPriority]int `json:"by_priority"`
	ByUrgency  map[domain.Urgency]int        `json:"by_urgency"`
}

// CreateTicket creates a ticket owned by the caller. Status always starts at
// pending; the priority defaults to medium.
func (s *TicketService) CreateTicket(ctx context.Context, caller domain.Caller, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if title == "" || description == "" {
		return nil, apperrors.NewValidationError("title and description required", nil)
	}
	if input.EstimatedDuration <= 0 {
		return nil, apperrors.NewValidationError("estimated duration must be positive", nil)
	}
	now := time.Now()
	if !input.ExpirationDate.After(now) {
		return nil, apperrors.NewValidationError("expiration date must be in the future", nil)
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}

	number, err := s.nextTicketNumber(ctx, now)
	if err != nil {
		return nil, apperrors.NewStoreError(err)
	}

	ticket := &domain.Ticket{
		TicketNumber:      number,
		Title:             title,
		Description:       description,
		Status:            domain.TicketStatusPending,
		Priority:          priority,
		CreatedBy:         caller.Email,
		AssignedTo:        input.AssignedTo,
		ExpirationDate:    input.ExpirationDate,
		Location:          input.Location,
		WorkType:          input.WorkType,
		EstimatedDuration: input.EstimatedDuration,
		Notes:             input.Notes,
		Attachments:       input.Attachments,
	}
	if ticket.Notes == nil {
		ticket.Notes = []string{}
	}
	if ticket.Attachments == nil {
		ticket.Attachments = []string{}
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.NewStoreError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			TicketNumber: ticket.TicketNumber,
			Priority:     ticket.Priority,
			Title:        ticket.Title,
			CreatedBy:    ticket.CreatedBy,
		},
	})
	return ticket, nil
}

// GetTicket fetches a ticket the caller may see.
func (s *TicketService) GetTicket(ctx context.Context, caller domain.Caller, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !caller.CanSeeTicket(ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}
	return ticket, nil
}

// ListTickets returns the caller-visible slice of the ticket set.
func (s *TicketService) ListTickets(ctx context.Context, caller domain.Caller, input TicketListInput) ([]domain.Ticket, error) {
	filter := repository.TicketFilter{
		Statuses:    input.Statuses,
		Priorities:  input.Priorities,
		AssignedTo:  input.AssignedTo,
		CreatedBy:   input.CreatedBy,
		SearchTerm:  input.SearchTerm,
		CreatedFrom: input.CreatedFrom,
		CreatedTo:   input.CreatedTo,
		Limit:       input.Limit,
		Offset:      input.Offset,
	}
	tickets, err := s.tickets.ListWithFilter(ctx, filter)
	if err != nil {
		return nil, apperrors.NewStoreError(err)
	}
	return domain.FilterTickets(caller, tickets), nil
}

// UpdateTicket applies a partial edit, enforcing transition rules. A user
// explicitly setting status=expired is treated the same as a sweeper expiry
// for alerting: the urgency event fires either way.
func (s *TicketService) UpdateTicket(ctx context.Context, caller domain.Caller, id string, input TicketUpdateInput) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !caller.CanSeeTicket(ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}

	oldStatus := ticket.Status
	if input.Status != nil && *input.Status != oldStatus {
		if !input.Status.Valid() {
			return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": *input.Status})
		}
		if !domain.CanTransition(oldStatus, *input.Status) {
			return nil, apperrors.NewInvalidTransition(string(oldStatus), string(*input.Status))
		}
		ticket.Status = *input.Status
	}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.NewValidationError("title required", nil)
		}
		ticket.Title = title
	}
	if input.Description != nil {
		ticket.Description = strings.TrimSpace(*input.Description)
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": *input.Priority})
		}
		ticket.Priority = *input.Priority
	}
	if input.ClearAssignee {
		ticket.AssignedTo = nil
	} else if input.AssignedTo != nil {
		ticket.AssignedTo = input.AssignedTo
	}
	if input.ExpirationDate != nil {
		ticket.ExpirationDate = *input.ExpirationDate
	}
	if input.Location != nil {
		ticket.Location = *input.Location
	}
	if input.WorkType != nil {
		ticket.WorkType = *input.WorkType
	}
	if input.EstimatedDuration != nil {
		if *input.EstimatedDuration <= 0 {
			return nil, apperrors.NewValidationError("estimated duration must be positive", nil)
		}
		ticket.EstimatedDuration = *input.EstimatedDuration
	}
	if input.Attachments != nil {
		ticket.Attachments = input.Attachments
	}

	now := time.Now()
	ticket.UpdatedAt = now
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	if ticket.Status != oldStatus {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: ticket.ID,
			Payload: events.TicketStatusChangedPayload{
				OldStatus: oldStatus,
				NewStatus: ticket.Status,
			},
		})
		if ticket.Status == domain.TicketStatusExpired {
			s.publishEvent(ctx, events.Event{
				Type:     events.EventTicketUrgency,
				TicketID: ticket.ID,
				Payload: events.TicketUrgencyPayload{
					Classification: domain.UrgencyExpired,
					HoursRemaining: domain.HoursRemaining(ticket, now),
					TicketNumber:   ticket.TicketNumber,
				},
			})
		}
	}
	return ticket, nil
}

// AddNote appends a free-text note to the ticket's ordered note list.
func (s *TicketService) AddNote(ctx context.Context, caller domain.Caller, id, note string) (*domain.Ticket, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, apperrors.NewValidationError("note required", nil)
	}
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !caller.CanSeeTicket(ticket) {
		return nil, apperrors.NewForbidden("access denied")
	}
	ticket.Notes = append(ticket.Notes, note)
	ticket.UpdatedAt = time.Now()
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

// DeleteTicket physically removes a ticket. Admins may delete any ticket,
// everyone else only their own.
func (s *TicketService) DeleteTicket(ctx context.Context, caller domain.Caller, id string) error {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return apperrors.MapError(err)
	}
	if caller.Role != domain.UserRoleAdmin && ticket.CreatedBy != caller.Email {
		return apperrors.NewForbidden("access denied")
	}
	if err := s.tickets.Delete(ctx, id); err != nil {
		return apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticket.ID,
		Payload:  events.TicketDeletedPayload{TicketNumber: ticket.TicketNumber},
	})
	return nil
}

// Stats aggregates status, priority and urgency counts over the tickets the
// caller may see.
func (s *TicketService) Stats(ctx context.Context, caller domain.Caller) (*TicketStats, error) {
	tickets, err := s.tickets.ListAll(ctx)
	if err != nil {
		return nil, apperrors.NewStoreError(err)
	}
	visible := domain.FilterTickets(caller, tickets)

	now := time.Now()
	stats := &TicketStats{
		Total:      len(visible),
		ByStatus:   make(map[domain.TicketStatus]int),
		ByPriority: make(map[domain.TicketPriority]int),
		ByUrgency:  make(map[domain.Urgency]int),
	}
	for i := range visible {
		stats.ByStatus[visible[i].Status]++
		stats.ByPriority[visible[i].Priority]++
		if urgency := domain.ClassifyUrgency(&visible[i], now); urgency != domain.UrgencyNone {
			stats.ByUrgency[urgency]++
		}
	}
	return stats, nil
}

// ExportAll returns the caller-visible ticket collection for JSON export.
func (s *TicketService) ExportAll(ctx context.Context, caller domain.Caller) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListAll(ctx)
	if err != nil {
		return nil, apperrors.NewStoreError(err)
	}
	return domain.FilterTickets(caller, tickets), nil
}

// ImportReplaceAll replaces the whole ticket collection. Admin-only bulk
// surface; ids are assigned where missing, ticket numbers and statuses are
// validated up front so one bad row rejects the batch before any write.
func (s *TicketService) ImportReplaceAll(ctx context.Context, caller domain.Caller, tickets []domain.Ticket) error {
	if caller.Role != domain.UserRoleAdmin {
		return apperrors.NewForbidden("admin role required")
	}
	now := time.Now()
	for i := range tickets {
		t := &tickets[i]
		if t.TicketNumber == "" || t.Title == "" {
			return apperrors.NewValidationError("ticket_number and title required", map[string]any{"index": i})
		}
		if !t.Status.Valid() {
			return apperrors.NewValidationError("unknown status", map[string]any{"index": i, "status": t.Status})
		}
		if !t.Priority.Valid() {
			return apperrors.NewValidationError("unknown priority", map[string]any{"index": i, "priority": t.Priority})
		}
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		if t.UpdatedAt.Before(t.CreatedAt) {
			t.UpdatedAt = t.CreatedAt
		}
		if t.Notes == nil {
			t.Notes = []string{}
		}
		if t.Attachments == nil {
			t.Attachments = []string{}
		}
	}
	if err := s.tickets.ReplaceAll(ctx, tickets); err != nil {
		return apperrors.NewStoreError(err)
	}
	return nil
}

// nextTicketNumber formats the per-year sequential number, e.g. 811-2026-042.
func (s *TicketService) nextTicketNumber(ctx context.Context, now time.Time) (string, error) {
	year := now.Year()
	seq, err := s.tickets.NextTicketSequence(ctx, year)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("811-%d-%03d", year, seq), nil
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
