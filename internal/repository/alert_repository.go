package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/locate-ticket-service/internal/domain"
)

const alertInboxKey = "811:alerts"

// AlertRepository persists the alert inbox. Operations on unknown alert ids
// are silent no-ops: alerts are ephemeral and races between dismiss and read
// are expected.
type AlertRepository interface {
	Append(ctx context.Context, alert *domain.Alert) error
	List(ctx context.Context) ([]domain.Alert, error)
	FindActive(ctx context.Context, ticketID string, kind domain.AlertKind) (*domain.Alert, error)
	MarkRead(ctx context.Context, id string) error
	MarkAllRead(ctx context.Context) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
}

type alertRepository struct {
	client *redis.Client
}

// NewAlertRepository returns a Redis-backed inbox that survives restarts.
func NewAlertRepository(client *redis.Client) AlertRepository {
	return &alertRepository{client: client}
}

func (r *alertRepository) Append(ctx context.Context, alert *domain.Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return err
	}
	return r.client.HSet(ctx, alertInboxKey, alert.ID, payload).Err()
}

func (r *alertRepository) List(ctx context.Context) ([]domain.Alert, error) {
	entries, err := r.client.HGetAll(ctx, alertInboxKey).Result()
	if err != nil {
		return nil, err
	}
	alerts := make([]domain.Alert, 0, len(entries))
	for _, raw := range entries {
		var alert domain.Alert
		if err := json.Unmarshal([]byte(raw), &alert); err != nil {
			continue
		}
		alerts = append(alerts, alert)
	}
	sort.Slice(alerts, func(i, j int) bool {
		return alerts[i].CreatedAt.After(alerts[j].CreatedAt)
	})
	return alerts, nil
}

func (r *alertRepository) FindActive(ctx context.Context, ticketID string, kind domain.AlertKind) (*domain.Alert, error) {
	alerts, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range alerts {
		if alerts[i].Kind != kind {
			continue
		}
		if alerts[i].TicketID != nil && *alerts[i].TicketID == ticketID {
			return &alerts[i], nil
		}
	}
	return nil, nil
}

func (r *alertRepository) MarkRead(ctx context.Context, id string) error {
	raw, err := r.client.HGet(ctx, alertInboxKey, id).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	var alert domain.Alert
	if err := json.Unmarshal([]byte(raw), &alert); err != nil {
		return err
	}
	if alert.Read {
		return nil
	}
	alert.Read = true
	return r.Append(ctx, &alert)
}

func (r *alertRepository) MarkAllRead(ctx context.Context) error {
	alerts, err := r.List(ctx)
	if err != nil {
		return err
	}
	for i := range alerts {
		if alerts[i].Read {
			continue
		}
		alerts[i].Read = true
		if err := r.Append(ctx, &alerts[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *alertRepository) Delete(ctx context.Context, id string) error {
	return r.client.HDel(ctx, alertInboxKey, id).Err()
}

func (r *alertRepository) DeleteAll(ctx context.Context) error {
	return r.client.Del(ctx, alertInboxKey).Err()
}
