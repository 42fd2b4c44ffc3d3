// Package memory implements an in-memory game store, used for local runs
// and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/scoreline/scoreline/internal/scoreboard"
	"github.com/scoreline/scoreline/internal/timeutil"
)

type key struct {
	sport scoreboard.Sport
	id    string
}

// Store keeps canonical game records in process memory.
type Store struct {
	mu    sync.RWMutex
	games map[key]scoreboard.Game
}

// New returns an empty Store.
func New() *Store {
	return &Store{games: make(map[key]scoreboard.Game)}
}

// Upsert writes the record if it differs from what is stored. The stored
// revision advances only on a material change, and observations older than
// the stored one are ignored so overlapping sync ticks cannot go backwards.
func (s *Store) Upsert(ctx context.Context, game scoreboard.Game) (scoreboard.Game, bool, error) {
	if err := game.Validate(); err != nil {
		return scoreboard.Game{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key{sport: game.Sport, id: game.ID}
	current, ok := s.games[k]
	if !ok {
		game.Revision = 1
		s.games[k] = game
		return game, true, nil
	}
	if game.UpdatedAt.Before(current.UpdatedAt) {
		return current, false, nil
	}
	if current.MutableEquals(game) {
		return current, false, nil
	}
	game.Revision = current.Revision + 1
	s.games[k] = game
	return game, true, nil
}

// Get returns one record or scoreboard.ErrNotFound.
func (s *Store) Get(ctx context.Context, sport scoreboard.Sport, id string) (scoreboard.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[key{sport: sport, id: id}]
	if !ok {
		return scoreboard.Game{}, scoreboard.ErrNotFound
	}
	return game, nil
}

// ListByDate returns the games whose local game date matches, ordered by
// kickoff then id for a stable response.
func (s *Store) ListByDate(ctx context.Context, sport scoreboard.Sport, date string) ([]scoreboard.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]scoreboard.Game, 0)
	for k, game := range s.games {
		if k.sport != sport {
			continue
		}
		if timeutil.GameDate(game.Kickoff) != date {
			continue
		}
		out = append(out, game)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Kickoff.Equal(out[j].Kickoff) {
			return out[i].Kickoff.Before(out[j].Kickoff)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// AnyInProgress reports whether any stored game for the sport is live.
func (s *Store) AnyInProgress(ctx context.Context, sport scoreboard.Sport) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for k, game := range s.games {
		if k.sport == sport && game.Status == scoreboard.StatusInProgress {
			return true, nil
		}
	}
	return false, nil
}
