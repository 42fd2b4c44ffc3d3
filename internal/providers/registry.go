package providers

import (
	"fmt"

	"github.com/scoreline/scoreline/internal/scoreboard"
)

// Registry maps each sport to the adapter that serves it.
type Registry struct {
	adapters map[scoreboard.Sport]scoreboard.Adapter
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[scoreboard.Sport]scoreboard.Adapter)}
}

// Register binds an adapter to a sport, replacing any previous binding.
func (r *Registry) Register(sport scoreboard.Sport, adapter scoreboard.Adapter) {
	r.adapters[sport] = adapter
}

// ForSport returns the adapter bound to a sport.
func (r *Registry) ForSport(sport scoreboard.Sport) (scoreboard.Adapter, error) {
	adapter, ok := r.adapters[sport]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for sport %q", sport)
	}
	return adapter, nil
}

// Sports lists the sports with a registered adapter.
func (r *Registry) Sports() []scoreboard.Sport {
	out := make([]scoreboard.Sport, 0, len(r.adapters))
	for _, sport := range scoreboard.Sports() {
		if _, ok := r.adapters[sport]; ok {
			out = append(out, sport)
		}
	}
	return out
}
