package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/locate-ticket-service/internal/domain"
	"github.com/spec-kit/locate-ticket-service/internal/events"
	"github.com/spec-kit/locate-ticket-service/internal/observability"
	"github.com/spec-kit/locate-ticket-service/internal/repository"
	apperrors "github.com/spec-kit/locate-ticket-service/pkg/util"
)

// AlertService turns urgency events into deduplicated inbox alerts and owns
// the inbox read/dismiss lifecycle. It only ever reads tickets; ticket state
// transitions stay with the ticket service and the sweeper.
type AlertService struct {
	alerts     repository.AlertRepository
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// AlertDependencies bundles collaborators for the alert service.
type AlertDependencies struct {
	AlertRepo  repository.AlertRepository
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// NewAlertService creates the service.
func NewAlertService(deps AlertDependencies) *AlertService {
	return &AlertService{
		alerts:     deps.AlertRepo,
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
	}
}

// RegisterHandlers subscribes to urgency events.
func (s *AlertService) RegisterHandlers() {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Subscribe(events.EventTicketUrgency, s.handleTicketUrgency)
}

func (s *AlertService) handleTicketUrgency(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketUrgencyPayload)
	if !ok {
		return fmt.Errorf("unexpected payload type %T for %s", event.Payload, event.Type)
	}
	_, err := s.Notify(ctx, event.TicketID, payload)
	return err
}

// Notify creates an inbox alert for one urgency event, or returns nil when an
// active alert for the same (ticket, kind) pair already exists. Read but
// undismissed alerts still suppress re-notification; the user acknowledged
// the condition and is not nagged again until the alert is dismissed.
func (s *AlertService) Notify(ctx context.Context, ticketID string, payload events.TicketUrgencyPayload) (*domain.Alert, error) {
	kind, ok := alertKindFor(payload.Classification)
	if !ok {
		return nil, nil
	}

	existing, err := s.alerts.FindActive(ctx, ticketID, kind)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, nil
	}

	alert := buildAlert(ticketID, kind, payload)
	if err := s.alerts.Append(ctx, alert); err != nil {
		return nil, err
	}
	s.metrics.RecordAlert()
	s.logger.Info("alert created",
		zap.String("ticket_id", ticketID),
		zap.String("kind", string(kind)),
		zap.String("alert_id", alert.ID))
	return alert, nil
}

// ListForCaller returns the caller-visible inbox, newest first.
func (s *AlertService) ListForCaller(ctx context.Context, caller domain.Caller) ([]domain.Alert, error) {
	alerts, err := s.alerts.List(ctx)
	if err != nil {
		return nil, apperrors.NewStoreError(err)
	}
	return domain.FilterAlerts(caller, alerts, s.ticketLookup(ctx)), nil
}

// UnreadCount reports how many caller-visible alerts are unread.
func (s *AlertService) UnreadCount(ctx context.Context, caller domain.Caller) (int, error) {
	alerts, err := s.ListForCaller(ctx, caller)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, alert := range alerts {
		if !alert.Read {
			count++
		}
	}
	return count, nil
}

// MarkAsRead flags one caller-visible alert as read. Unknown ids and alerts
// outside the caller's view are silent no-ops.
func (s *AlertService) MarkAsRead(ctx context.Context, caller domain.Caller, id string) error {
	visible, err := s.callerSeesAlert(ctx, caller, id)
	if err != nil {
		return err
	}
	if !visible {
		return nil
	}
	return s.alerts.MarkRead(ctx, id)
}

// MarkAllAsRead flags every caller-visible alert as read.
func (s *AlertService) MarkAllAsRead(ctx context.Context, caller domain.Caller) error {
	if caller.Role == domain.UserRoleAdmin {
		return s.alerts.MarkAllRead(ctx)
	}
	alerts, err := s.ListForCaller(ctx, caller)
	if err != nil {
		return err
	}
	for i := range alerts {
		if err := s.alerts.MarkRead(ctx, alerts[i].ID); err != nil {
			return err
		}
	}
	return nil
}

// Dismiss removes one caller-visible alert from the inbox permanently.
// Unknown ids and alerts outside the caller's view are silent no-ops.
func (s *AlertService) Dismiss(ctx context.Context, caller domain.Caller, id string) error {
	visible, err := s.callerSeesAlert(ctx, caller, id)
	if err != nil {
		return err
	}
	if !visible {
		return nil
	}
	return s.alerts.Delete(ctx, id)
}

// ClearAll empties the caller's view of the inbox. Admins clear everything;
// other callers only remove alerts they can list.
func (s *AlertService) ClearAll(ctx context.Context, caller domain.Caller) error {
	if caller.Role == domain.UserRoleAdmin {
		return s.alerts.DeleteAll(ctx)
	}
	alerts, err := s.ListForCaller(ctx, caller)
	if err != nil {
		return err
	}
	for i := range alerts {
		if err := s.alerts.Delete(ctx, alerts[i].ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *AlertService) callerSeesAlert(ctx context.Context, caller domain.Caller, id string) (bool, error) {
	alerts, err := s.ListForCaller(ctx, caller)
	if err != nil {
		return false, err
	}
	for i := range alerts {
		if alerts[i].ID == id {
			return true, nil
		}
	}
	return false, nil
}

// ticketLookup resolves alert ticket references for visibility scoping,
// memoizing within one call so a large inbox does not re-fetch tickets.
func (s *AlertService) ticketLookup(ctx context.Context) func(ticketID string) *domain.Ticket {
	cache := make(map[string]*domain.Ticket)
	return func(ticketID string) *domain.Ticket {
		if ticket, seen := cache[ticketID]; seen {
			return ticket
		}
		ticket, err := s.tickets.GetByID(ctx, ticketID)
		if err != nil {
			cache[ticketID] = nil
			return nil
		}
		cache[ticketID] = ticket
		return ticket
	}
}

func alertKindFor(urgency domain.Urgency) (domain.AlertKind, bool) {
	switch urgency {
	case domain.UrgencyExpired:
		return domain.AlertKindExpired, true
	case domain.UrgencyCritical:
		return domain.AlertKindExpiringCritical, true
	case domain.UrgencyWarning:
		return domain.AlertKindExpiringWarning, true
	}
	return "", false
}

func buildAlert(ticketID string, kind domain.AlertKind, payload events.TicketUrgencyPayload) *domain.Alert {
	alert := &domain.Alert{
		ID:        uuid.NewString(),
		Kind:      kind,
		TicketID:  &ticketID,
		CreatedAt: time.Now(),
	}
	hoursLeft := int(math.Floor(payload.HoursRemaining))
	switch kind {
	case domain.AlertKindExpired:
		alert.Type = domain.AlertTypeError
		alert.Persistent = true
		alert.Title = "Ticket Expired"
		alert.Message = fmt.Sprintf("Ticket #%s has expired and requires immediate attention.", payload.TicketNumber)
	case domain.AlertKindExpiringCritical:
		alert.Type = domain.AlertTypeWarning
		alert.Title = "Critical: Ticket Expiring Soon"
		alert.Message = fmt.Sprintf("Ticket #%s expires in %d hours!", payload.TicketNumber, hoursLeft)
	case domain.AlertKindExpiringWarning:
		alert.Type = domain.AlertTypeWarning
		alert.Title = "Ticket Expiring Soon"
		alert.Message = fmt.Sprintf("Ticket #%s expires in %d hours.", payload.TicketNumber, hoursLeft)
	}
	return alert
}
