// Package events defines the change events emitted when a stored game record
// changes, and the fan-out hub that delivers them to subscribers.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/scoreline/scoreline/internal/scoreboard"
)

// ChangeEvent carries the full updated record, not a delta. Consumers can
// apply it without fetching anything else.
type ChangeEvent struct {
	Sport     scoreboard.Sport `json:"sport"`
	GameDate  string           `json:"game_date"`
	Game      scoreboard.Game  `json:"game"`
	EmittedAt time.Time        `json:"emitted_at"`
}

// Validate performs coarse validation on event payloads.
func (e ChangeEvent) Validate() error {
	if !e.Sport.Valid() {
		return errors.New("sport is required")
	}
	if e.GameDate == "" {
		return errors.New("game date is required")
	}
	if e.Game.ID == "" {
		return errors.New("game id is required")
	}
	if e.Game.Revision <= 0 {
		return errors.New("game revision is required")
	}
	if e.EmittedAt.IsZero() {
		return errors.New("emitted timestamp is required")
	}
	return nil
}

// Publisher delivers change events to an external destination.
type Publisher interface {
	Publish(ctx context.Context, evt ChangeEvent) error
}
