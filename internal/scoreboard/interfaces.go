package scoreboard

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("not found")

// Adapter fetches and normalizes upstream data for one provider. Adapters are
// pure transforms over their own HTTP response; they classify failures but
// never mask them as an empty result.
type Adapter interface {
	// Provider names the upstream for logs and error tagging.
	Provider() string
	// FetchScoreboard returns every game the provider lists for a sport on
	// one calendar date (YYYY-MM-DD). A nil error with an empty slice means
	// the date genuinely has no games.
	FetchScoreboard(ctx context.Context, sport Sport, date string) ([]Game, error)
}

// GameStore persists canonical records. Implementations must be safe for
// concurrent use and idempotent per record: re-applying identical state is a
// no-op and an older observation never regresses a newer one.
type GameStore interface {
	// Upsert writes a record by (sport, id) and returns the stored state
	// with its revision, plus whether anything mutable actually changed.
	Upsert(ctx context.Context, game Game) (Game, bool, error)
	// Get returns one record or ErrNotFound.
	Get(ctx context.Context, sport Sport, id string) (Game, error)
	// ListByDate returns records for one sport and eastern calendar date,
	// ordered by kickoff then id.
	ListByDate(ctx context.Context, sport Sport, date string) ([]Game, error)
	// AnyInProgress reports whether the sport has a live game right now.
	AnyInProgress(ctx context.Context, sport Sport) (bool, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}
