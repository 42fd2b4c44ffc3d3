// Package gcppubsub publishes change events to a Google Cloud Pub/Sub topic.
package gcppubsub

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/scoreline/scoreline/internal/events"
	"github.com/scoreline/scoreline/internal/metrics"
)

// Publisher wraps a Pub/Sub topic publisher.
type Publisher struct {
	publisher *pubsub.Publisher
}

// New creates a Publisher for the provided topic publisher.
func New(publisher *pubsub.Publisher) *Publisher {
	return &Publisher{publisher: publisher}
}

// Publish marshals the event to JSON and publishes it. Sport, date, and
// revision ride along as attributes so consumers can filter without decoding.
func (p *Publisher) Publish(ctx context.Context, evt events.ChangeEvent) error {
	if p == nil || p.publisher == nil {
		return fmt.Errorf("pubsub publisher is not configured")
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}

	msg := &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"sport":     string(evt.Sport),
			"game_date": evt.GameDate,
			"game_id":   evt.Game.ID,
			"revision":  fmt.Sprintf("%d", evt.Game.Revision),
		},
	}
	result := p.publisher.Publish(ctx, msg)
	if _, err := result.Get(ctx); err != nil {
		return fmt.Errorf("publish change event: %w", err)
	}
	metrics.ObserveEventPublished(string(evt.Sport))
	return nil
}
