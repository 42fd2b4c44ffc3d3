// Package sync implements the background loops that keep stored game records
// current with their upstream providers.
package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/scoreline/scoreline/internal/cache"
	"github.com/scoreline/scoreline/internal/events"
	"github.com/scoreline/scoreline/internal/metrics"
	"github.com/scoreline/scoreline/internal/scoreboard"
	"github.com/scoreline/scoreline/internal/timeutil"
)

const (
	defaultDaysBack     = 7
	defaultDaysAhead    = 14
	defaultLiveInterval = 15 * time.Second
	defaultIdleInterval = 60 * time.Second
	defaultFetchTimeout = 10 * time.Second
)

// Config controls one sport's sync loop.
type Config struct {
	DaysBack     int
	DaysAhead    int
	LiveInterval time.Duration
	IdleInterval time.Duration
	FetchTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.DaysBack <= 0 {
		c.DaysBack = defaultDaysBack
	}
	if c.DaysAhead <= 0 {
		c.DaysAhead = defaultDaysAhead
	}
	if c.LiveInterval <= 0 {
		c.LiveInterval = defaultLiveInterval
	}
	if c.IdleInterval <= 0 {
		c.IdleInterval = defaultIdleInterval
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = defaultFetchTimeout
	}
	return c
}

// DateFailure records one date that could not be refreshed during a tick.
type DateFailure struct {
	Date string
	Err  error
}

// TickReport summarizes one pass over the date window.
type TickReport struct {
	Sport     scoreboard.Sport
	Dates     int
	Changed   int
	Failures  []DateFailure
	StartedAt time.Time
	Duration  time.Duration
}

// Status is a point-in-time snapshot of a sport's sync health.
type Status struct {
	Sport               scoreboard.Sport `json:"sport"`
	LastTick            time.Time        `json:"last_tick"`
	LastSuccess         time.Time        `json:"last_success"`
	ConsecutiveFailures int              `json:"consecutive_failures"`
	LastError           string           `json:"last_error,omitempty"`
}

// Scheduler drives the fetch, diff, store, publish cycle for one sport.
type Scheduler struct {
	sport      scoreboard.Sport
	adapter    scoreboard.Adapter
	cache      *cache.Cache
	store      scoreboard.GameStore
	publishers []events.Publisher
	clock      scoreboard.Clock
	logger     *zap.Logger
	cfg        Config

	mu     sync.Mutex
	status Status
	ticked bool
}

// NewScheduler wires one sport's sync loop.
func NewScheduler(
	sport scoreboard.Sport,
	adapter scoreboard.Adapter,
	c *cache.Cache,
	store scoreboard.GameStore,
	publishers []events.Publisher,
	clock scoreboard.Clock,
	logger *zap.Logger,
	cfg Config,
) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		sport:      sport,
		adapter:    adapter,
		cache:      c,
		store:      store,
		publishers: publishers,
		clock:      clock,
		logger:     logger.With(zap.String("sport", string(sport))),
		cfg:        cfg.withDefaults(),
		status:     Status{Sport: sport},
	}
}

// Run ticks until the context is cancelled. The pause between ticks shortens
// while any stored game for the sport is live.
func (s *Scheduler) Run(ctx context.Context) {
	for {
		report, err := s.RunTick(ctx)
		if err != nil && ctx.Err() != nil {
			return
		}
		if err != nil {
			s.logger.Warn("sync tick failed", zap.Error(err))
		} else if len(report.Failures) > 0 {
			s.logger.Warn("sync tick partially failed",
				zap.Int("dates", report.Dates),
				zap.Int("failed_dates", len(report.Failures)),
				zap.Int("changed", report.Changed))
		} else {
			s.logger.Debug("sync tick complete",
				zap.Int("dates", report.Dates),
				zap.Int("changed", report.Changed),
				zap.Duration("took", report.Duration))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.nextInterval(ctx)):
		}
	}
}

// RunTick walks the date window once. A date that fails to refresh is
// recorded and skipped; the remaining dates still run. The returned error is
// non-nil only when every date failed.
func (s *Scheduler) RunTick(ctx context.Context) (TickReport, error) {
	now := s.now()
	today := timeutil.GameDate(now)
	window := timeutil.Window(now, s.cfg.DaysBack, s.cfg.DaysAhead)

	report := TickReport{Sport: s.sport, Dates: len(window), StartedAt: now}
	for _, date := range window {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		changed, err := s.syncDate(ctx, date, date == today)
		if err != nil {
			metrics.ObserveDateFailure(string(s.sport))
			report.Failures = append(report.Failures, DateFailure{Date: date, Err: err})
			s.logger.Warn("date refresh failed", zap.String("date", date), zap.Error(err))
			continue
		}
		report.Changed += changed
	}
	report.Duration = time.Since(now)

	allFailed := len(report.Failures) == len(window) && len(window) > 0
	s.recordTick(now, allFailed, report)
	if allFailed {
		metrics.ObserveTick(string(s.sport), true)
		return report, fmt.Errorf("all %d dates failed, first: %w", len(window), report.Failures[0].Err)
	}
	metrics.ObserveTick(string(s.sport), false)
	return report, nil
}

// Status returns the current sync health snapshot.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Ticked reports whether at least one tick has been attempted.
func (s *Scheduler) Ticked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticked
}

func (s *Scheduler) syncDate(ctx context.Context, date string, isToday bool) (int, error) {
	class := cache.ClassStatic
	if isToday {
		class = cache.ClassLive
	}
	key := fmt.Sprintf("%s/%s", s.sport, date)

	v, err := s.cache.GetOrFetch(ctx, key, class, func(ctx context.Context) (any, error) {
		fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.FetchTimeout)
		defer cancel()
		return s.adapter.FetchScoreboard(fetchCtx, s.sport, date)
	})
	if err != nil {
		return 0, err
	}
	games, ok := v.([]scoreboard.Game)
	if !ok {
		return 0, fmt.Errorf("unexpected cache value %T for %s", v, key)
	}

	changed := 0
	for _, game := range games {
		s.checkTransition(ctx, game)
		game.UpdatedAt = s.now()
		stored, didChange, err := s.store.Upsert(ctx, game)
		if err != nil {
			return changed, fmt.Errorf("upsert game %s: %w", game.ID, err)
		}
		if !didChange {
			continue
		}
		changed++
		metrics.ObserveGameChanged(string(s.sport))
		s.publish(ctx, stored, date)
	}
	return changed, nil
}

// checkTransition flags an upstream status observation that moves backwards
// through the game lifecycle, such as a final game reported live again.
// Upstream remains authoritative, so the observation is still applied; the
// regression is only logged and counted.
func (s *Scheduler) checkTransition(ctx context.Context, incoming scoreboard.Game) {
	prev, err := s.store.Get(ctx, s.sport, incoming.ID)
	if err != nil {
		return
	}
	if scoreboard.ValidTransition(prev.Status, incoming.Status) {
		return
	}
	metrics.ObserveStatusRegression(string(s.sport))
	s.logger.Warn("out-of-order status transition",
		zap.String("game_id", incoming.ID),
		zap.String("from", string(prev.Status)),
		zap.String("to", string(incoming.Status)),
		zap.Bool("from_terminal", prev.Status.Terminal()),
	)
}

func (s *Scheduler) publish(ctx context.Context, game scoreboard.Game, date string) {
	evt := events.ChangeEvent{
		Sport:     s.sport,
		GameDate:  date,
		Game:      game,
		EmittedAt: s.now(),
	}
	for _, pub := range s.publishers {
		if err := pub.Publish(ctx, evt); err != nil {
			s.logger.Warn("change event publish failed",
				zap.String("game_id", game.ID), zap.Error(err))
		}
	}
}

func (s *Scheduler) nextInterval(ctx context.Context) time.Duration {
	live, err := s.store.AnyInProgress(ctx, s.sport)
	if err != nil {
		s.logger.Warn("live check failed", zap.Error(err))
		return s.cfg.IdleInterval
	}
	if live {
		return s.cfg.LiveInterval
	}
	return s.cfg.IdleInterval
}

func (s *Scheduler) recordTick(at time.Time, failed bool, report TickReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ticked = true
	s.status.LastTick = at
	if failed {
		s.status.ConsecutiveFailures++
		s.status.LastError = report.Failures[0].Err.Error()
		return
	}
	s.status.LastSuccess = at
	s.status.ConsecutiveFailures = 0
	s.status.LastError = ""
	if len(report.Failures) > 0 {
		s.status.LastError = report.Failures[0].Err.Error()
	}
}

func (s *Scheduler) now() time.Time {
	if s.clock != nil {
		return s.clock.Now()
	}
	return time.Now()
}
