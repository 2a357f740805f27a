package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/locate-ticket-service/internal/domain"
	"github.com/spec-kit/locate-ticket-service/internal/events"
	"github.com/spec-kit/locate-ticket-service/internal/observability"
	"github.com/spec-kit/locate-ticket-service/internal/repository"
)

// ExpirationSweeper periodically re-evaluates every ticket against the
// current time: stale tickets are auto-expired, and one urgency event per
// classified ticket is published for the alert pipeline. A sweep is
// idempotent, so running it twice at the same or later time re-fires
// nothing.
type ExpirationSweeper struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
	interval   time.Duration
}

// SweepReport summarizes one completed cycle. Per-ticket store failures are
// collected here rather than aborting the cycle.
type SweepReport struct {
	Scanned int
	Expired int
	Events  int
	Errs    []error
}

// NewExpirationSweeper constructs the sweeper.
func NewExpirationSweeper(tickets repository.TicketRepository, dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics, interval time.Duration) *ExpirationSweeper {
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &ExpirationSweeper{
		tickets:    tickets,
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
		interval:   interval,
	}
}

// Start runs an immediate sweep and then one per interval until the context
// is cancelled. Sweep failures are logged, never propagated: an error must
// not kill future scheduled sweeps.
func (s *ExpirationSweeper) Start(ctx context.Context) {
	go func() {
		s.sweep(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.logger.Info("expiration sweeper stopped")
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

func (s *ExpirationSweeper) sweep(ctx context.Context) {
	report, err := s.RunOnce(ctx, time.Now())
	if err != nil {
		s.logger.Error("sweep failed", zap.Error(err))
		return
	}
	if len(report.Errs) > 0 {
		s.logger.Warn("sweep completed with ticket failures",
			zap.Int("scanned", report.Scanned),
			zap.Int("expired", report.Expired),
			zap.Int("failed", len(report.Errs)))
		return
	}
	s.logger.Debug("sweep completed",
		zap.Int("scanned", report.Scanned),
		zap.Int("expired", report.Expired),
		zap.Int("events", report.Events))
}

// RunOnce performs a single sweep cycle at the given time. Safe to invoke
// on demand; the full ticket set is always processed, one ticket's store
// failure only skips that ticket.
func (s *ExpirationSweeper) RunOnce(ctx context.Context, now time.Time) (*SweepReport, error) {
	tickets, err := s.tickets.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}

	report := &SweepReport{Scanned: len(tickets)}
	for i := range tickets {
		ticket := &tickets[i]

		// Settled tickets are left alone entirely: the sweeper never
		// mutates or re-alerts a terminal status.
		if ticket.Status.IsTerminal() {
			continue
		}

		classification := domain.ClassifyUrgency(ticket, now)
		if classification == domain.UrgencyNone {
			continue
		}

		if classification == domain.UrgencyExpired {
			ticket.Status = domain.TicketStatusExpired
			ticket.UpdatedAt = now
			if err := s.tickets.Update(ctx, ticket); err != nil {
				report.Errs = append(report.Errs, fmt.Errorf("expire ticket %s: %w", ticket.ID, err))
				s.logger.Warn("auto-expire failed",
					zap.String("ticket_id", ticket.ID),
					zap.String("ticket_number", ticket.TicketNumber),
					zap.Error(err))
				continue
			}
			report.Expired++
			s.logger.Info("ticket auto-expired",
				zap.String("ticket_id", ticket.ID),
				zap.String("ticket_number", ticket.TicketNumber))
		}

		s.publishUrgency(ctx, ticket, classification, now)
		report.Events++
	}

	s.metrics.RecordSweep(report.Expired)
	return report, nil
}

func (s *ExpirationSweeper) publishUrgency(ctx context.Context, ticket *domain.Ticket, classification domain.Urgency, now time.Time) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketUrgency,
		TicketID:  ticket.ID,
		Timestamp: now,
		Payload: events.TicketUrgencyPayload{
			Classification: classification,
			HoursRemaining: domain.HoursRemaining(ticket, now),
			TicketNumber:   ticket.TicketNumber,
		},
	})
}
