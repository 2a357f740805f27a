package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/locate-ticket-service/internal/domain"
	"github.com/spec-kit/locate-ticket-service/internal/events"
	"github.com/spec-kit/locate-ticket-service/internal/observability"
	"github.com/spec-kit/locate-ticket-service/internal/repository"
	"github.com/spec-kit/locate-ticket-service/internal/repository/mocks"
	"github.com/spec-kit/locate-ticket-service/internal/service"
)

// memAlertRepo keeps inbox state across calls so dedup and read/dismiss
// flows can be exercised end to end.
type memAlertRepo struct {
	alerts []domain.Alert
}

func (r *memAlertRepo) Append(_ context.Context, alert *domain.Alert) error {
	r.alerts = append(r.alerts, *alert)
	return nil
}

func (r *memAlertRepo) List(context.Context) ([]domain.Alert, error) {
	return append([]domain.Alert{}, r.alerts...), nil
}

func (r *memAlertRepo) FindActive(_ context.Context, ticketID string, kind domain.AlertKind) (*domain.Alert, error) {
	for i := range r.alerts {
		alert := r.alerts[i]
		if alert.Kind == kind && alert.TicketID != nil && *alert.TicketID == ticketID {
			return &alert, nil
		}
	}
	return nil, nil
}

func (r *memAlertRepo) MarkRead(_ context.Context, id string) error {
	for i := range r.alerts {
		if r.alerts[i].ID == id {
			r.alerts[i].Read = true
		}
	}
	return nil
}

func (r *memAlertRepo) MarkAllRead(context.Context) error {
	for i := range r.alerts {
		r.alerts[i].Read = true
	}
	return nil
}

func (r *memAlertRepo) Delete(_ context.Context, id string) error {
	kept := r.alerts[:0]
	for _, alert := range r.alerts {
		if alert.ID != id {
			kept = append(kept, alert)
		}
	}
	r.alerts = kept
	return nil
}

func (r *memAlertRepo) DeleteAll(context.Context) error {
	r.alerts = nil
	return nil
}

var _ repository.AlertRepository = (*memAlertRepo)(nil)

func newAlertService(alerts repository.AlertRepository, tickets repository.TicketRepository) *service.AlertService {
	return service.NewAlertService(service.AlertDependencies{
		AlertRepo:  alerts,
		TicketRepo: tickets,
		Logger:     zap.NewNop(),
		Metrics:    observability.NewMetrics(),
	})
}

func urgencyPayload(classification domain.Urgency, hours float64) events.TicketUrgencyPayload {
	return events.TicketUrgencyPayload{
		Classification: classification,
		HoursRemaining: hours,
		TicketNumber:   "811-2026-042",
	}
}

func TestNotify_ExpiredAlertShape(t *testing.T) {
	repo := &memAlertRepo{}
	svc := newAlertService(repo, nil)

	alert, err := svc.Notify(context.Background(), "t1", urgencyPayload(domain.UrgencyExpired, -2))
	require.NoError(t, err)
	require.NotNil(t, alert)

	require.Equal(t, domain.AlertTypeError, alert.Type)
	require.Equal(t, domain.AlertKindExpired, alert.Kind)
	require.True(t, alert.Persistent)
	require.False(t, alert.Read)
	require.Equal(t, "Ticket Expired", alert.Title)
	require.Equal(t, "Ticket #811-2026-042 has expired and requires immediate attention.", alert.Message)
	require.NotNil(t, alert.TicketID)
	require.Equal(t, "t1", *alert.TicketID)
	require.Len(t, repo.alerts, 1)
}

func TestNotify_ExpiringAlertShapes(t *testing.T) {
	repo := &memAlertRepo{}
	svc := newAlertService(repo, nil)

	critical, err := svc.Notify(context.Background(), "t1", urgencyPayload(domain.UrgencyCritical, 3.5))
	require.NoError(t, err)
	require.Equal(t, domain.AlertTypeWarning, critical.Type)
	require.Equal(t, domain.AlertKindExpiringCritical, critical.Kind)
	require.False(t, critical.Persistent)
	require.Equal(t, "Critical: Ticket Expiring Soon", critical.Title)
	require.Equal(t, "Ticket #811-2026-042 expires in 3 hours!", critical.Message)

	warning, err := svc.Notify(context.Background(), "t2", urgencyPayload(domain.UrgencyWarning, 12.9))
	require.NoError(t, err)
	require.Equal(t, domain.AlertTypeWarning, warning.Type)
	require.Equal(t, domain.AlertKindExpiringWarning, warning.Kind)
	require.Equal(t, "Ticket Expiring Soon", warning.Title)
	require.Equal(t, "Ticket #811-2026-042 expires in 12 hours.", warning.Message)
}

func TestNotify_DeduplicatesPerTicketAndKind(t *testing.T) {
	repo := &memAlertRepo{}
	svc := newAlertService(repo, nil)
	ctx := context.Background()

	first, err := svc.Notify(ctx, "t1", urgencyPayload(domain.UrgencyCritical, 3))
	require.NoError(t, err)
	require.NotNil(t, first)

	// same (ticket, kind) again: suppressed
	second, err := svc.Notify(ctx, "t1", urgencyPayload(domain.UrgencyCritical, 2))
	require.NoError(t, err)
	require.Nil(t, second)
	require.Len(t, repo.alerts, 1)

	// a different kind on the same ticket is a distinct condition
	escalated, err := svc.Notify(ctx, "t1", urgencyPayload(domain.UrgencyExpired, -1))
	require.NoError(t, err)
	require.NotNil(t, escalated)
	require.Len(t, repo.alerts, 2)

	// same kind on another ticket is independent
	other, err := svc.Notify(ctx, "t2", urgencyPayload(domain.UrgencyCritical, 1))
	require.NoError(t, err)
	require.NotNil(t, other)
	require.Len(t, repo.alerts, 3)
}

func TestNotify_ReadAlertStillSuppresses(t *testing.T) {
	repo := &memAlertRepo{}
	svc := newAlertService(repo, nil)
	ctx := context.Background()
	admin := domain.Caller{Email: "admin@example.com", Role: domain.UserRoleAdmin}

	first, err := svc.Notify(ctx, "t1", urgencyPayload(domain.UrgencyWarning, 20))
	require.NoError(t, err)
	require.NoError(t, svc.MarkAsRead(ctx, admin, first.ID))

	again, err := svc.Notify(ctx, "t1", urgencyPayload(domain.UrgencyWarning, 18))
	require.NoError(t, err)
	require.Nil(t, again)

	// only dismissal re-arms the notification
	require.NoError(t, svc.Dismiss(ctx, admin, first.ID))
	renewed, err := svc.Notify(ctx, "t1", urgencyPayload(domain.UrgencyWarning, 16))
	require.NoError(t, err)
	require.NotNil(t, renewed)
}

func TestNotify_NoneClassificationIsIgnored(t *testing.T) {
	repo := &memAlertRepo{}
	svc := newAlertService(repo, nil)

	alert, err := svc.Notify(context.Background(), "t1", urgencyPayload(domain.UrgencyNone, 90))
	require.NoError(t, err)
	require.Nil(t, alert)
	require.Empty(t, repo.alerts)
}

func TestNotify_AppendFailurePropagates(t *testing.T) {
	alerts := new(mocks.AlertRepository)
	alerts.On("FindActive", mock.Anything, "t1", domain.AlertKindExpired).Return(nil, nil)
	alerts.On("Append", mock.Anything, mock.AnythingOfType("*domain.Alert")).
		Return(errors.New("redis unavailable"))

	svc := newAlertService(alerts, nil)
	_, err := svc.Notify(context.Background(), "t1", urgencyPayload(domain.UrgencyExpired, -1))
	require.Error(t, err)
	alerts.AssertExpectations(t)
}

func TestListForCaller_ScopesByTicketOwnership(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	tickets := newMemTicketStore(
		domain.Ticket{ID: "mine", CreatedBy: "worker@example.com", ExpirationDate: now.Add(time.Hour)},
		domain.Ticket{ID: "other", CreatedBy: "someone@example.com", ExpirationDate: now.Add(time.Hour)},
	)
	repo := &memAlertRepo{}
	svc := newAlertService(repo, tickets)
	ctx := context.Background()

	_, err := svc.Notify(ctx, "mine", urgencyPayload(domain.UrgencyCritical, 1))
	require.NoError(t, err)
	_, err = svc.Notify(ctx, "other", urgencyPayload(domain.UrgencyCritical, 1))
	require.NoError(t, err)

	contractor := domain.Caller{Email: "worker@example.com", Role: domain.UserRoleContractor}
	visible, err := svc.ListForCaller(ctx, contractor)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	require.Equal(t, "mine", *visible[0].TicketID)

	admin := domain.Caller{Email: "admin@example.com", Role: domain.UserRoleAdmin}
	all, err := svc.ListForCaller(ctx, admin)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestAlertMutations_ScopedToCallerView(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	tickets := newMemTicketStore(
		domain.Ticket{ID: "mine", CreatedBy: "worker@example.com", ExpirationDate: now.Add(time.Hour)},
		domain.Ticket{ID: "other", CreatedBy: "someone@example.com", ExpirationDate: now.Add(time.Hour)},
	)
	repo := &memAlertRepo{}
	svc := newAlertService(repo, tickets)
	ctx := context.Background()

	mine, err := svc.Notify(ctx, "mine", urgencyPayload(domain.UrgencyCritical, 1))
	require.NoError(t, err)
	foreign, err := svc.Notify(ctx, "other", urgencyPayload(domain.UrgencyCritical, 1))
	require.NoError(t, err)

	contractor := domain.Caller{Email: "worker@example.com", Role: domain.UserRoleContractor}
	admin := domain.Caller{Email: "admin@example.com", Role: domain.UserRoleAdmin}

	// foreign alerts are untouchable, behaving like unknown ids
	require.NoError(t, svc.MarkAsRead(ctx, contractor, foreign.ID))
	require.NoError(t, svc.Dismiss(ctx, contractor, foreign.ID))
	count, err := svc.UnreadCount(ctx, admin)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	// bulk ops only touch the caller's view
	require.NoError(t, svc.MarkAllAsRead(ctx, contractor))
	count, err = svc.UnreadCount(ctx, admin)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	require.NoError(t, svc.ClearAll(ctx, contractor))
	remaining, err := svc.ListForCaller(ctx, admin)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	require.Equal(t, foreign.ID, remaining[0].ID)

	// the caller's own alert is gone
	require.NotEqual(t, mine.ID, remaining[0].ID)
}

func TestUnreadCountAndBulkOps(t *testing.T) {
	repo := &memAlertRepo{}
	svc := newAlertService(repo, nil)
	ctx := context.Background()
	admin := domain.Caller{Email: "admin@example.com", Role: domain.UserRoleAdmin}

	first, err := svc.Notify(ctx, "t1", urgencyPayload(domain.UrgencyWarning, 10))
	require.NoError(t, err)
	_, err = svc.Notify(ctx, "t2", urgencyPayload(domain.UrgencyCritical, 2))
	require.NoError(t, err)

	count, err := svc.UnreadCount(ctx, admin)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	require.NoError(t, svc.MarkAsRead(ctx, admin, first.ID))
	count, err = svc.UnreadCount(ctx, admin)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	require.NoError(t, svc.MarkAllAsRead(ctx, admin))
	count, err = svc.UnreadCount(ctx, admin)
	require.NoError(t, err)
	require.Zero(t, count)

	// unknown ids are silent no-ops
	require.NoError(t, svc.MarkAsRead(ctx, admin, "no-such-alert"))
	require.NoError(t, svc.Dismiss(ctx, admin, "no-such-alert"))

	require.NoError(t, svc.ClearAll(ctx, admin))
	alerts, err := svc.ListForCaller(ctx, admin)
	require.NoError(t, err)
	require.Empty(t, alerts)
}
