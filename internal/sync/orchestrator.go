package sync

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/scoreline/scoreline/internal/scoreboard"
)

// Orchestrator runs one scheduler per enabled sport.
type Orchestrator struct {
	schedulers map[scoreboard.Sport]*Scheduler
	logger     *zap.Logger
}

// NewOrchestrator groups schedulers for joint startup and shutdown.
func NewOrchestrator(schedulers []*Scheduler, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	bySport := make(map[scoreboard.Sport]*Scheduler, len(schedulers))
	for _, s := range schedulers {
		bySport[s.sport] = s
	}
	return &Orchestrator{schedulers: bySport, logger: logger}
}

// Run starts every scheduler and blocks until all of them stop.
func (o *Orchestrator) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for sport, sched := range o.schedulers {
		wg.Add(1)
		go func(sport scoreboard.Sport, sched *Scheduler) {
			defer wg.Done()
			o.logger.Info("sync loop starting", zap.String("sport", string(sport)))
			sched.Run(ctx)
			o.logger.Info("sync loop stopped", zap.String("sport", string(sport)))
		}(sport, sched)
	}
	wg.Wait()
}

// Ready reports whether every scheduler has attempted at least one tick.
func (o *Orchestrator) Ready() bool {
	for _, sched := range o.schedulers {
		if !sched.Ticked() {
			return false
		}
	}
	return true
}

// Statuses returns every sport's sync health snapshot.
func (o *Orchestrator) Statuses() []Status {
	out := make([]Status, 0, len(o.schedulers))
	for _, sport := range scoreboard.Sports() {
		if sched, ok := o.schedulers[sport]; ok {
			out = append(out, sched.Status())
		}
	}
	return out
}

// StatusFor returns the sync health snapshot for one sport.
func (o *Orchestrator) StatusFor(sport scoreboard.Sport) (Status, bool) {
	sched, ok := o.schedulers[sport]
	if !ok {
		return Status{}, false
	}
	return sched.Status(), true
}
