// Package merge maintains a read-side view of one sport and date by
// combining a polled baseline with pushed change events. The freshest
// revision of each record wins regardless of which path delivered it.
package merge

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/scoreline/scoreline/internal/events"
	"github.com/scoreline/scoreline/internal/metrics"
	"github.com/scoreline/scoreline/internal/scoreboard"
)

const (
	defaultPollInterval    = 30 * time.Second
	defaultBaselineTimeout = 10 * time.Second
)

// StateKind distinguishes an empty view that has loaded from one that has
// not. Consumers render the three cases differently.
type StateKind string

const (
	StateLoading StateKind = "loading"
	StateReady   StateKind = "ready"
	StateFailed  StateKind = "failed"
)

// State is a snapshot of the view's health.
type State struct {
	Kind      StateKind
	LastSync  time.Time
	LastError string
}

// BaselineFunc fetches the authoritative record list for the view's scope.
type BaselineFunc func(ctx context.Context) ([]scoreboard.Game, error)

// Options configures a View.
type Options struct {
	PollInterval    time.Duration
	BaselineTimeout time.Duration
	Logger          *zap.Logger
	Clock           scoreboard.Clock
}

type snapshot struct {
	games []scoreboard.Game
	state State
}

type command func()

// View merges a baseline with overlay events. All mutation happens on one
// goroutine; readers get immutable snapshots and never contend with it.
type View struct {
	baseline BaselineFunc
	sub      *events.Subscription
	opts     Options
	logger   *zap.Logger

	base    map[string]scoreboard.Game
	overlay map[string]scoreboard.Game
	loaded  bool

	snap atomic.Pointer[snapshot]

	commands chan command
	stopCh   chan struct{}
	doneCh   chan struct{}
	closed   atomic.Bool
}

// New starts a View. The first baseline fetch runs immediately; until it
// completes the view reports StateLoading. The subscription may be nil, in
// which case the view is poll-only.
func New(baseline BaselineFunc, sub *events.Subscription, opts Options) *View {
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.BaselineTimeout <= 0 {
		opts.BaselineTimeout = defaultBaselineTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	v := &View{
		baseline: baseline,
		sub:      sub,
		opts:     opts,
		logger:   opts.Logger,
		base:     make(map[string]scoreboard.Game),
		overlay:  make(map[string]scoreboard.Game),
		commands: make(chan command),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	v.snap.Store(&snapshot{games: []scoreboard.Game{}, state: State{Kind: StateLoading}})
	metrics.IncMergeViews()
	go v.run()
	return v
}

// Games returns the current merged records, ordered by kickoff then id.
// The returned slice is never mutated afterwards.
func (v *View) Games() []scoreboard.Game {
	return v.snap.Load().games
}

// State reports whether the view has loaded, and the last baseline error.
func (v *View) State() State {
	return v.snap.Load().state
}

// RefreshNow forces a baseline fetch outside the poll cadence and waits for
// it to complete.
func (v *View) RefreshNow(ctx context.Context) error {
	done := make(chan struct{})
	cmd := func() {
		v.refreshBaseline()
		close(done)
	}
	select {
	case v.commands <- cmd:
	case <-v.stopCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the actor and cancels the subscription. The last published
// snapshot stays readable. Safe to call more than once.
func (v *View) Close() {
	if v.closed.CompareAndSwap(false, true) {
		close(v.stopCh)
		<-v.doneCh
		if v.sub != nil {
			v.sub.Cancel()
		}
		metrics.DecMergeViews()
	}
}

func (v *View) run() {
	defer close(v.doneCh)

	v.refreshBaseline()

	ticker := time.NewTicker(v.opts.PollInterval)
	defer ticker.Stop()

	var eventCh <-chan events.ChangeEvent
	if v.sub != nil {
		eventCh = v.sub.C
	}
	for {
		select {
		case <-v.stopCh:
			return
		case cmd := <-v.commands:
			cmd()
		case <-ticker.C:
			v.refreshBaseline()
		case evt, ok := <-eventCh:
			if !ok {
				eventCh = nil
				continue
			}
			v.applyEvent(evt)
		}
	}
}

func (v *View) refreshBaseline() {
	ctx, cancel := context.WithTimeout(context.Background(), v.opts.BaselineTimeout)
	defer cancel()

	games, err := v.baseline(ctx)
	if err != nil {
		v.logger.Warn("baseline refresh failed", zap.Error(err))
		state := State{Kind: StateFailed, LastError: err.Error()}
		if v.loaded {
			// Keep serving the last good merge; only the health changes.
			state.Kind = StateReady
			state.LastSync = v.snap.Load().state.LastSync
		}
		v.publish(state)
		return
	}

	v.base = make(map[string]scoreboard.Game, len(games))
	for _, g := range games {
		v.base[g.ID] = g
	}
	// An overlay entry the baseline has caught up with is spent.
	for id, g := range v.overlay {
		if baseGame, ok := v.base[id]; ok && baseGame.Revision >= g.Revision {
			delete(v.overlay, id)
		}
	}
	v.loaded = true
	v.publish(State{Kind: StateReady, LastSync: v.now()})
}

func (v *View) applyEvent(evt events.ChangeEvent) {
	game := evt.Game
	if held, ok := v.overlay[game.ID]; ok && held.Revision >= game.Revision {
		return
	}
	if baseGame, ok := v.base[game.ID]; ok && baseGame.Revision >= game.Revision {
		return
	}
	v.overlay[game.ID] = game
	state := v.snap.Load().state
	v.publish(state)
}

func (v *View) publish(state State) {
	merged := make([]scoreboard.Game, 0, len(v.base)+len(v.overlay))
	for id, g := range v.base {
		if over, ok := v.overlay[id]; ok {
			g = over
		}
		merged = append(merged, g)
	}
	for id, g := range v.overlay {
		if _, ok := v.base[id]; !ok {
			merged = append(merged, g)
		}
	}
	sort.Slice(merged, func(i, j int) bool {
		if !merged[i].Kickoff.Equal(merged[j].Kickoff) {
			return merged[i].Kickoff.Before(merged[j].Kickoff)
		}
		return merged[i].ID < merged[j].ID
	})
	v.snap.Store(&snapshot{games: merged, state: state})
}

func (v *View) now() time.Time {
	if v.opts.Clock != nil {
		return v.opts.Clock.Now()
	}
	return time.Now()
}
