package events

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/scoreline/scoreline/internal/metrics"
)

const (
	defaultSubscriberBuffer = 64
	dropLogInterval         = 5 * time.Second
)

// Subscription is one consumer's view of the event stream. C closes when the
// subscription is cancelled or the hub shuts down.
type Subscription struct {
	C      <-chan ChangeEvent
	cancel func()
}

// Cancel detaches the subscription from the hub and closes C. Safe to call
// more than once.
func (s *Subscription) Cancel() {
	if s != nil && s.cancel != nil {
		s.cancel()
	}
}

// Filter limits a subscription to one sport and, optionally, one game date.
// Zero values match everything.
type Filter struct {
	Sport    string
	GameDate string
}

func (f Filter) matches(evt ChangeEvent) bool {
	if f.Sport != "" && f.Sport != string(evt.Sport) {
		return false
	}
	if f.GameDate != "" && f.GameDate != evt.GameDate {
		return false
	}
	return true
}

type subscriber struct {
	filter Filter
	ch     chan ChangeEvent
}

// Hub fans change events out to in-process subscribers. Publish never
// blocks; a subscriber that falls behind loses events rather than stalling
// the sync loop.
type Hub struct {
	logger *zap.Logger

	mu     sync.Mutex
	subs   map[int]*subscriber
	nextID int
	closed bool

	dropped     atomic.Int64
	lastDropLog atomic.Int64
}

// NewHub returns a Hub ready to accept subscribers.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger: logger,
		subs:   make(map[int]*subscriber),
	}
}

// Subscribe registers a consumer for events matching the filter.
func (h *Hub) Subscribe(filter Filter) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan ChangeEvent, defaultSubscriberBuffer)
	if h.closed {
		close(ch)
		return &Subscription{C: ch, cancel: func() {}}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = &subscriber{filter: filter, ch: ch}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub.ch)
			}
		})
	}
	return &Subscription{C: ch, cancel: cancel}
}

// Publish implements Publisher. Invalid events are discarded with a debug
// log rather than surfaced, matching the fire-and-forget contract.
func (h *Hub) Publish(ctx context.Context, evt ChangeEvent) error {
	if err := evt.Validate(); err != nil {
		h.logger.Debug("discarding invalid change event", zap.Error(err))
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	for _, sub := range h.subs {
		if !sub.filter.matches(evt) {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			h.noteDrop()
		}
	}
	return nil
}

// Close detaches all subscribers and closes their channels. Publish becomes
// a no-op afterwards.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		delete(h.subs, id)
		close(sub.ch)
	}
}

func (h *Hub) noteDrop() {
	metrics.ObserveEventsDropped(1)
	h.dropped.Add(1)
	now := time.Now().UnixNano()
	last := h.lastDropLog.Load()
	if now-last < int64(dropLogInterval) {
		return
	}
	if h.lastDropLog.CompareAndSwap(last, now) {
		count := h.dropped.Swap(0)
		h.logger.Warn("change events dropped due to backpressure", zap.Int64("dropped", count))
	}
}
