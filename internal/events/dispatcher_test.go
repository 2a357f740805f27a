package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/locate-ticket-service/internal/events"
)

func TestDispatcher_RoutesByEventType(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())

	var created, deleted []events.Event
	dispatcher.Subscribe(events.EventTicketCreated, func(_ context.Context, e events.Event) error {
		created = append(created, e)
		return nil
	})
	dispatcher.Subscribe(events.EventTicketDeleted, func(_ context.Context, e events.Event) error {
		deleted = append(deleted, e)
		return nil
	})

	err := dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketCreated, TicketID: "t1"})
	require.NoError(t, err)

	require.Len(t, created, 1)
	require.Equal(t, "t1", created[0].TicketID)
	require.Empty(t, deleted)
}

func TestDispatcher_HandlerFailureDoesNotStopOthers(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())

	calls := 0
	dispatcher.Subscribe(events.EventTicketUrgency, func(context.Context, events.Event) error {
		return errors.New("boom")
	})
	dispatcher.Subscribe(events.EventTicketUrgency, func(context.Context, events.Event) error {
		calls++
		return nil
	})

	err := dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketUrgency})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestDispatcher_NoSubscribersIsANoOp(t *testing.T) {
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	err := dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketStatusChanged})
	require.NoError(t, err)
}
