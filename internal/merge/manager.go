package merge

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/scoreline/scoreline/internal/events"
	"github.com/scoreline/scoreline/internal/scoreboard"
)

const (
	defaultIdleTTL       = 5 * time.Minute
	defaultSweepInterval = time.Minute
)

// Subscriber hands out filtered change-event subscriptions. A nil Subscriber
// produces poll-only views.
type Subscriber interface {
	Subscribe(filter events.Filter) *events.Subscription
}

// ManagerOptions configures the view pool.
type ManagerOptions struct {
	View          Options
	IdleTTL       time.Duration
	SweepInterval time.Duration
	Logger        *zap.Logger
	Clock         scoreboard.Clock
}

type managedView struct {
	view       *View
	lastAccess time.Time
}

// Manager pools one View per (sport, date) scope, creating them lazily on
// first access and closing them once nothing has read them for IdleTTL. The
// set of scopes a deployment actually serves is small, but it is still driven
// by request paths, so unused views must not accumulate goroutines.
type Manager struct {
	store  scoreboard.GameStore
	subs   Subscriber
	opts   ManagerOptions
	logger *zap.Logger

	mu    sync.Mutex
	views map[string]*managedView

	stopCh    chan struct{}
	doneCh    chan struct{}
	closeOnce sync.Once
}

// NewManager builds a Manager over the shared store. subs may be nil.
func NewManager(store scoreboard.GameStore, subs Subscriber, opts ManagerOptions) *Manager {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = defaultIdleTTL
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = defaultSweepInterval
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	m := &Manager{
		store:  store,
		subs:   subs,
		opts:   opts,
		logger: opts.Logger,
		views:  make(map[string]*managedView),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	go m.sweepLoop()
	return m
}

// ViewFor returns the live view for one sport and date, creating it on first
// access.
func (m *Manager) ViewFor(sport scoreboard.Sport, date string) *View {
	key := string(sport) + "/" + date

	m.mu.Lock()
	defer m.mu.Unlock()

	if mv, ok := m.views[key]; ok {
		mv.lastAccess = m.now()
		return mv.view
	}

	baseline := func(ctx context.Context) ([]scoreboard.Game, error) {
		return m.store.ListByDate(ctx, sport, date)
	}
	var sub *events.Subscription
	if m.subs != nil {
		sub = m.subs.Subscribe(events.Filter{Sport: string(sport), GameDate: date})
	}
	viewOpts := m.opts.View
	if viewOpts.Logger == nil {
		viewOpts.Logger = m.logger.With(zap.String("sport", string(sport)), zap.String("date", date))
	}
	if viewOpts.Clock == nil {
		viewOpts.Clock = m.opts.Clock
	}
	view := New(baseline, sub, viewOpts)
	m.views[key] = &managedView{view: view, lastAccess: m.now()}
	m.logger.Debug("merge view opened", zap.String("scope", key))
	return view
}

// Len reports the number of open views.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.views)
}

// Close stops the sweeper and closes every pooled view. Safe to call more
// than once.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.stopCh)
		<-m.doneCh

		m.mu.Lock()
		views := m.views
		m.views = make(map[string]*managedView)
		m.mu.Unlock()

		for _, mv := range views {
			mv.view.Close()
		}
	})
}

func (m *Manager) sweepLoop() {
	defer close(m.doneCh)
	ticker := time.NewTicker(m.opts.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Manager) sweep() {
	cutoff := m.now().Add(-m.opts.IdleTTL)

	m.mu.Lock()
	var expired []*managedView
	for key, mv := range m.views {
		if mv.lastAccess.Before(cutoff) {
			expired = append(expired, mv)
			delete(m.views, key)
			m.logger.Debug("merge view expired", zap.String("scope", key))
		}
	}
	m.mu.Unlock()

	// Close outside the lock; Close waits for the view's actor to drain.
	for _, mv := range expired {
		mv.view.Close()
	}
}

func (m *Manager) now() time.Time {
	if m.opts.Clock != nil {
		return m.opts.Clock.Now()
	}
	return time.Now()
}
