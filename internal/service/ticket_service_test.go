package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/locate-ticket-service/internal/domain"
	"github.com/spec-kit/locate-ticket-service/internal/events"
	"github.com/spec-kit/locate-ticket-service/internal/repository"
	"github.com/spec-kit/locate-ticket-service/internal/repository/mocks"
	"github.com/spec-kit/locate-ticket-service/internal/service"
	apperrors "github.com/spec-kit/locate-ticket-service/pkg/util"
)

// memTicketStore is a stateful in-memory TicketRepository mirroring the
// postgres implementation's contract: Create fills server-side fields,
// missing rows surface as pgx.ErrNoRows.
type memTicketStore struct {
	tickets   map[string]domain.Ticket
	sequences map[int]int
	nextID    int
}

func newMemTicketStore(tickets ...domain.Ticket) *memTicketStore {
	store := &memTicketStore{
		tickets:   make(map[string]domain.Ticket),
		sequences: make(map[int]int),
	}
	for _, ticket := range tickets {
		store.tickets[ticket.ID] = ticket
	}
	return store
}

func (s *memTicketStore) Create(_ context.Context, ticket *domain.Ticket) error {
	s.nextID++
	ticket.ID = fmt.Sprintf("ticket-%d", s.nextID)
	now := time.Now()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	s.tickets[ticket.ID] = *ticket
	return nil
}

func (s *memTicketStore) Update(_ context.Context, ticket *domain.Ticket) error {
	if _, ok := s.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	s.tickets[ticket.ID] = *ticket
	return nil
}

func (s *memTicketStore) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := s.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &ticket, nil
}

func (s *memTicketStore) ListAll(context.Context) ([]domain.Ticket, error) {
	result := make([]domain.Ticket, 0, len(s.tickets))
	for _, ticket := range s.tickets {
		result = append(result, ticket)
	}
	return result, nil
}

func (s *memTicketStore) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	all, _ := s.ListAll(ctx)
	result := make([]domain.Ticket, 0, len(all))
	for _, ticket := range all {
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
			continue
		}
		result = append(result, ticket)
	}
	return result, nil
}

func (s *memTicketStore) Delete(_ context.Context, id string) error {
	if _, ok := s.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(s.tickets, id)
	return nil
}

func (s *memTicketStore) ReplaceAll(_ context.Context, tickets []domain.Ticket) error {
	s.tickets = make(map[string]domain.Ticket)
	for _, ticket := range tickets {
		s.tickets[ticket.ID] = ticket
	}
	return nil
}

func (s *memTicketStore) NextTicketSequence(_ context.Context, year int) (int, error) {
	s.sequences[year]++
	return s.sequences[year], nil
}

var _ repository.TicketRepository = (*memTicketStore)(nil)

func containsStatus(statuses []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// recordingDispatcher captures published events for assertions.
type recordingDispatcher struct {
	published []events.Event
}

func (d *recordingDispatcher) Publish(_ context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *recordingDispatcher) Subscribe(events.EventType, events.EventHandler) {}

func (d *recordingDispatcher) ofType(eventType events.EventType) []events.Event {
	var result []events.Event
	for _, event := range d.published {
		if event.Type == eventType {
			result = append(result, event)
		}
	}
	return result
}

func newTicketService(store repository.TicketRepository, dispatcher events.Dispatcher) *service.TicketService {
	return service.NewTicketService(service.TicketDependencies{TicketRepo: store, Dispatcher: dispatcher})
}

var (
	adminCaller      = domain.Caller{ID: "u1", Email: "admin@example.com", Role: domain.UserRoleAdmin}
	contractorCaller = domain.Caller{ID: "u2", Email: "crew@example.com", Role: domain.UserRoleContractor}
)

func validCreateInput() service.TicketCreateInput {
	return service.TicketCreateInput{
		Title:             "Gas Line Locate",
		Description:       "Mark gas lines before excavation",
		ExpirationDate:    time.Now().Add(72 * time.Hour),
		Location:          domain.Location{Address: "123 Main St", City: "Springfield", State: "IL", ZipCode: "62701"},
		WorkType:          "excavation",
		EstimatedDuration: 4,
	}
}

func TestCreateTicket_DefaultsAndNumbering(t *testing.T) {
	store := newMemTicketStore()
	dispatcher := &recordingDispatcher{}
	svc := newTicketService(store, dispatcher)
	ctx := context.Background()

	first, err := svc.CreateTicket(ctx, contractorCaller, validCreateInput())
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusPending, first.Status)
	require.Equal(t, domain.TicketPriorityMedium, first.Priority)
	require.Equal(t, "crew@example.com", first.CreatedBy)
	require.NotEmpty(t, first.ID)
	require.NotNil(t, first.Notes)
	require.NotNil(t, first.Attachments)

	year := time.Now().Year()
	require.Equal(t, fmt.Sprintf("811-%d-001", year), first.TicketNumber)

	second, err := svc.CreateTicket(ctx, contractorCaller, validCreateInput())
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf("811-%d-002", year), second.TicketNumber)

	created := dispatcher.ofType(events.EventTicketCreated)
	require.Len(t, created, 2)
	payload := created[0].Payload.(events.TicketCreatedPayload)
	require.Equal(t, first.TicketNumber, payload.TicketNumber)
}

func TestCreateTicket_Validation(t *testing.T) {
	svc := newTicketService(newMemTicketStore(), nil)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*service.TicketCreateInput)
	}{
		{"blank title", func(in *service.TicketCreateInput) { in.Title = "   " }},
		{"blank description", func(in *service.TicketCreateInput) { in.Description = "" }},
		{"zero duration", func(in *service.TicketCreateInput) { in.EstimatedDuration = 0 }},
		{"negative duration", func(in *service.TicketCreateInput) { in.EstimatedDuration = -2 }},
		{"past expiration", func(in *service.TicketCreateInput) { in.ExpirationDate = time.Now().Add(-time.Hour) }},
		{"unknown priority", func(in *service.TicketCreateInput) { in.Priority = "urgent" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validCreateInput()
			tc.mutate(&input)
			_, err := svc.CreateTicket(ctx, contractorCaller, input)
			var domainErr *apperrors.DomainError
			require.ErrorAs(t, err, &domainErr)
			require.Equal(t, apperrors.CodeValidationFailed, domainErr.Code)
		})
	}
}

func TestUpdateTicket_StatusTransitions(t *testing.T) {
	store := newMemTicketStore()
	dispatcher := &recordingDispatcher{}
	svc := newTicketService(store, dispatcher)
	ctx := context.Background()

	ticket, err := svc.CreateTicket(ctx, contractorCaller, validCreateInput())
	require.NoError(t, err)

	inProgress := domain.TicketStatusInProgress
	updated, err := svc.UpdateTicket(ctx, contractorCaller, ticket.ID, service.TicketUpdateInput{Status: &inProgress})
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusInProgress, updated.Status)

	completed := domain.TicketStatusCompleted
	updated, err = svc.UpdateTicket(ctx, contractorCaller, ticket.ID, service.TicketUpdateInput{Status: &completed})
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusCompleted, updated.Status)

	// completed cannot jump straight to cancelled
	cancelled := domain.TicketStatusCancelled
	_, err = svc.UpdateTicket(ctx, contractorCaller, ticket.ID, service.TicketUpdateInput{Status: &cancelled})
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, apperrors.CodeValidationFailed, domainErr.Code)

	// reopening a completed ticket is allowed
	pending := domain.TicketStatusPending
	updated, err = svc.UpdateTicket(ctx, contractorCaller, ticket.ID, service.TicketUpdateInput{Status: &pending})
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusPending, updated.Status)

	changes := dispatcher.ofType(events.EventTicketStatusChanged)
	require.Len(t, changes, 3)
	last := changes[len(changes)-1].Payload.(events.TicketStatusChangedPayload)
	require.Equal(t, domain.TicketStatusCompleted, last.OldStatus)
	require.Equal(t, domain.TicketStatusPending, last.NewStatus)
}

func TestUpdateTicket_ManualExpireFiresUrgencyEvent(t *testing.T) {
	store := newMemTicketStore()
	dispatcher := &recordingDispatcher{}
	svc := newTicketService(store, dispatcher)
	ctx := context.Background()

	ticket, err := svc.CreateTicket(ctx, contractorCaller, validCreateInput())
	require.NoError(t, err)

	expired := domain.TicketStatusExpired
	updated, err := svc.UpdateTicket(ctx, contractorCaller, ticket.ID, service.TicketUpdateInput{Status: &expired})
	require.NoError(t, err)
	require.Equal(t, domain.TicketStatusExpired, updated.Status)

	urgency := dispatcher.ofType(events.EventTicketUrgency)
	require.Len(t, urgency, 1)
	payload := urgency[0].Payload.(events.TicketUrgencyPayload)
	require.Equal(t, domain.UrgencyExpired, payload.Classification)
	require.Equal(t, ticket.TicketNumber, payload.TicketNumber)
}

func TestUpdateTicket_PartialEdit(t *testing.T) {
	store := newMemTicketStore()
	svc := newTicketService(store, nil)
	ctx := context.Background()

	ticket, err := svc.CreateTicket(ctx, contractorCaller, validCreateInput())
	require.NoError(t, err)

	assignee := "digger@example.com"
	newTitle := "Gas Line Locate (revised)"
	updated, err := svc.UpdateTicket(ctx, contractorCaller, ticket.ID, service.TicketUpdateInput{
		Title:      &newTitle,
		AssignedTo: &assignee,
	})
	require.NoError(t, err)
	require.Equal(t, newTitle, updated.Title)
	require.NotNil(t, updated.AssignedTo)
	require.Equal(t, assignee, *updated.AssignedTo)
	// untouched fields survive
	require.Equal(t, ticket.Description, updated.Description)
	require.Equal(t, ticket.Status, updated.Status)

	cleared, err := svc.UpdateTicket(ctx, contractorCaller, ticket.ID, service.TicketUpdateInput{ClearAssignee: true})
	require.NoError(t, err)
	require.Nil(t, cleared.AssignedTo)
}

func TestGetTicket_EnforcesVisibility(t *testing.T) {
	store := newMemTicketStore()
	svc := newTicketService(store, nil)
	ctx := context.Background()

	ticket, err := svc.CreateTicket(ctx, adminCaller, validCreateInput())
	require.NoError(t, err)

	_, err = svc.GetTicket(ctx, contractorCaller, ticket.ID)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, apperrors.CodeForbidden, domainErr.Code)

	_, err = svc.GetTicket(ctx, contractorCaller, "missing")
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, apperrors.CodeNotFound, domainErr.Code)

	got, err := svc.GetTicket(ctx, adminCaller, ticket.ID)
	require.NoError(t, err)
	require.Equal(t, ticket.ID, got.ID)
}

func TestListTickets_ScopedToCaller(t *testing.T) {
	store := newMemTicketStore()
	svc := newTicketService(store, nil)
	ctx := context.Background()

	_, err := svc.CreateTicket(ctx, contractorCaller, validCreateInput())
	require.NoError(t, err)
	_, err = svc.CreateTicket(ctx, adminCaller, validCreateInput())
	require.NoError(t, err)

	mine, err := svc.ListTickets(ctx, contractorCaller, service.TicketListInput{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, contractorCaller.Email, mine[0].CreatedBy)

	all, err := svc.ListTickets(ctx, adminCaller, service.TicketListInput{})
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestDeleteTicket_Permissions(t *testing.T) {
	store := newMemTicketStore()
	dispatcher := &recordingDispatcher{}
	svc := newTicketService(store, dispatcher)
	ctx := context.Background()

	foreign, err := svc.CreateTicket(ctx, adminCaller, validCreateInput())
	require.NoError(t, err)
	own, err := svc.CreateTicket(ctx, contractorCaller, validCreateInput())
	require.NoError(t, err)

	err = svc.DeleteTicket(ctx, contractorCaller, foreign.ID)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, apperrors.CodeForbidden, domainErr.Code)

	require.NoError(t, svc.DeleteTicket(ctx, contractorCaller, own.ID))
	require.NoError(t, svc.DeleteTicket(ctx, adminCaller, foreign.ID))

	deleted := dispatcher.ofType(events.EventTicketDeleted)
	require.Len(t, deleted, 2)
}

func TestAddNote_AppendsInOrder(t *testing.T) {
	store := newMemTicketStore()
	svc := newTicketService(store, nil)
	ctx := context.Background()

	ticket, err := svc.CreateTicket(ctx, contractorCaller, validCreateInput())
	require.NoError(t, err)

	_, err = svc.AddNote(ctx, contractorCaller, ticket.ID, "called the utility company")
	require.NoError(t, err)
	updated, err := svc.AddNote(ctx, contractorCaller, ticket.ID, "crew dispatched")
	require.NoError(t, err)
	require.Equal(t, []string{"called the utility company", "crew dispatched"}, updated.Notes)

	_, err = svc.AddNote(ctx, contractorCaller, ticket.ID, "  ")
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, apperrors.CodeValidationFailed, domainErr.Code)
}

func TestStats_CountsVisibleSet(t *testing.T) {
	store := newMemTicketStore()
	svc := newTicketService(store, nil)
	ctx := context.Background()

	input := validCreateInput()
	input.Priority = domain.TicketPriorityHigh
	input.ExpirationDate = time.Now().Add(2 * time.Hour)
	_, err := svc.CreateTicket(ctx, contractorCaller, input)
	require.NoError(t, err)

	other := validCreateInput()
	_, err = svc.CreateTicket(ctx, adminCaller, other)
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, contractorCaller)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Total)
	require.Equal(t, 1, stats.ByStatus[domain.TicketStatusPending])
	require.Equal(t, 1, stats.ByPriority[domain.TicketPriorityHigh])
	require.Equal(t, 1, stats.ByUrgency[domain.UrgencyCritical])

	adminStats, err := svc.Stats(ctx, adminCaller)
	require.NoError(t, err)
	require.Equal(t, 2, adminStats.Total)
}

func TestListTickets_StoreFailureSurfacesAsStoreError(t *testing.T) {
	store := new(mocks.TicketRepository)
	store.On("ListWithFilter", mock.Anything, mock.AnythingOfType("repository.TicketFilter")).
		Return(nil, errors.New("connection reset"))

	svc := newTicketService(store, nil)
	_, err := svc.ListTickets(context.Background(), adminCaller, service.TicketListInput{})

	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, apperrors.CodeStoreIO, domainErr.Code)
	store.AssertExpectations(t)
}

func TestImportReplaceAll(t *testing.T) {
	store := newMemTicketStore()
	svc := newTicketService(store, nil)
	ctx := context.Background()

	_, err := svc.CreateTicket(ctx, adminCaller, validCreateInput())
	require.NoError(t, err)

	rows := []domain.Ticket{
		{
			TicketNumber:   "811-2026-100",
			Title:          "Imported",
			Status:         domain.TicketStatusPending,
			Priority:       domain.TicketPriorityLow,
			CreatedBy:      "admin@example.com",
			ExpirationDate: time.Now().Add(48 * time.Hour),
		},
	}

	err = svc.ImportReplaceAll(ctx, contractorCaller, rows)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, apperrors.CodeForbidden, domainErr.Code)

	require.NoError(t, svc.ImportReplaceAll(ctx, adminCaller, rows))
	all, err := svc.ExportAll(ctx, adminCaller)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, "811-2026-100", all[0].TicketNumber)
	require.NotEmpty(t, all[0].ID)

	bad := []domain.Ticket{{TicketNumber: "811-2026-101", Title: "Bad", Status: "archived", Priority: domain.TicketPriorityLow}}
	err = svc.ImportReplaceAll(ctx, adminCaller, bad)
	require.ErrorAs(t, err, &domainErr)
	require.Equal(t, apperrors.CodeValidationFailed, domainErr.Code)
	// failed batch leaves the collection untouched
	all, err = svc.ExportAll(ctx, adminCaller)
	require.NoError(t, err)
	require.Len(t, all, 1)
}
