package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/spec-kit/locate-ticket-service/internal/domain"
	"github.com/spec-kit/locate-ticket-service/internal/repository"
)

// TicketRepository is a mock for repository.TicketRepository.
type TicketRepository struct {
	mock.Mock
}

func (m *TicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *TicketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	args := m.Called(ctx, ticket)
	return args.Error(0)
}

func (m *TicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	args := m.Called(ctx, id)
	if ticket, ok := args.Get(0).(*domain.Ticket); ok {
		return ticket, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TicketRepository) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	args := m.Called(ctx)
	if tickets, ok := args.Get(0).([]domain.Ticket); ok {
		return tickets, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TicketRepository) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	args := m.Called(ctx, filter)
	if tickets, ok := args.Get(0).([]domain.Ticket); ok {
		return tickets, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TicketRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *TicketRepository) ReplaceAll(ctx context.Context, tickets []domain.Ticket) error {
	args := m.Called(ctx, tickets)
	return args.Error(0)
}

func (m *TicketRepository) NextTicketSequence(ctx context.Context, year int) (int, error) {
	args := m.Called(ctx, year)
	return args.Int(0), args.Error(1)
}

// AlertRepository is a mock for repository.AlertRepository.
type AlertRepository struct {
	mock.Mock
}

func (m *AlertRepository) Append(ctx context.Context, alert *domain.Alert) error {
	args := m.Called(ctx, alert)
	return args.Error(0)
}

func (m *AlertRepository) List(ctx context.Context) ([]domain.Alert, error) {
	args := m.Called(ctx)
	if alerts, ok := args.Get(0).([]domain.Alert); ok {
		return alerts, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AlertRepository) FindActive(ctx context.Context, ticketID string, kind domain.AlertKind) (*domain.Alert, error) {
	args := m.Called(ctx, ticketID, kind)
	if alert, ok := args.Get(0).(*domain.Alert); ok {
		return alert, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AlertRepository) MarkRead(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *AlertRepository) MarkAllRead(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *AlertRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *AlertRepository) DeleteAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// UserRepository is a mock for repository.UserRepository.
type UserRepository struct {
	mock.Mock
}

func (m *UserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if user, ok := args.Get(0).(*domain.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if user, ok := args.Get(0).(*domain.User); ok {
		return user, args.Error(1)
	}
	return nil, args.Error(1)
}
