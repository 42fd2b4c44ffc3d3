// Package redisstream publishes change events onto Redis Streams, one stream
// per sport.
package redisstream

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/scoreline/scoreline/internal/events"
	"github.com/scoreline/scoreline/internal/metrics"
)

const defaultStreamPrefix = "scoreline.games"

// Config controls stream naming and retention.
type Config struct {
	StreamPrefix string
	MaxLen       int64
}

// Publisher appends change events to per-sport streams.
type Publisher struct {
	client redis.Cmdable
	prefix string
	maxLen int64
}

// New creates a Publisher on an existing Redis client.
func New(client redis.Cmdable, cfg Config) *Publisher {
	prefix := cfg.StreamPrefix
	if prefix == "" {
		prefix = defaultStreamPrefix
	}
	return &Publisher{client: client, prefix: prefix, maxLen: cfg.MaxLen}
}

// Publish appends the event to the sport's stream. The full record rides in
// the data field; id, status, and revision are split out for cheap filtering.
func (p *Publisher) Publish(ctx context.Context, evt events.ChangeEvent) error {
	if p == nil || p.client == nil {
		return fmt.Errorf("redis publisher is not configured")
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: fmt.Sprintf("%s.%s", p.prefix, evt.Sport),
		Values: map[string]interface{}{
			"data":      string(data),
			"game_id":   evt.Game.ID,
			"game_date": evt.GameDate,
			"status":    string(evt.Game.Status),
			"revision":  evt.Game.Revision,
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("xadd change event: %w", err)
	}
	metrics.ObserveEventPublished(string(evt.Sport))
	return nil
}
