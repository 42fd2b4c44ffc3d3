package merge

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scoreline/scoreline/internal/events"
	"github.com/scoreline/scoreline/internal/scoreboard"
)

type baselineStub struct {
	mu    sync.Mutex
	games []scoreboard.Game
	err   error
}

func (b *baselineStub) fetch(ctx context.Context) ([]scoreboard.Game, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	return append([]scoreboard.Game(nil), b.games...), nil
}

func (b *baselineStub) set(games []scoreboard.Game, err error) {
	b.mu.Lock()
	b.games = games
	b.err = err
	b.mu.Unlock()
}

func game(id string, revision int64, status scoreboard.GameStatus) scoreboard.Game {
	return scoreboard.Game{
		ID:       id,
		Sport:    scoreboard.SportSoccer,
		Status:   status,
		Kickoff:  time.Date(2024, 3, 9, 20, 0, 0, 0, time.UTC),
		Revision: revision,
	}
}

func changeEvent(g scoreboard.Game) events.ChangeEvent {
	return events.ChangeEvent{
		Sport:     g.Sport,
		GameDate:  "2024-03-09",
		Game:      g,
		EmittedAt: time.Now(),
	}
}

func waitForRevision(t *testing.T, v *View, id string, revision int64) {
	t.Helper()
	require.Eventually(t, func() bool {
		for _, g := range v.Games() {
			if g.ID == id && g.Revision == revision {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
}

func TestViewLoadsBaseline(t *testing.T) {
	t.Parallel()

	stub := &baselineStub{games: []scoreboard.Game{game("401", 1, scoreboard.StatusScheduled)}}
	v := New(stub.fetch, nil, Options{PollInterval: time.Hour})
	defer v.Close()

	waitForRevision(t, v, "401", 1)
	require.Equal(t, StateReady, v.State().Kind)
}

func TestViewEmptyBaselineIsReadyNotLoading(t *testing.T) {
	t.Parallel()

	stub := &baselineStub{}
	v := New(stub.fetch, nil, Options{PollInterval: time.Hour})
	defer v.Close()

	require.Eventually(t, func() bool {
		return v.State().Kind == StateReady
	}, time.Second, 5*time.Millisecond)
	require.Empty(t, v.Games())
}

func TestViewFailedBeforeFirstLoad(t *testing.T) {
	t.Parallel()

	stub := &baselineStub{err: errors.New("store down")}
	v := New(stub.fetch, nil, Options{PollInterval: time.Hour})
	defer v.Close()

	require.Eventually(t, func() bool {
		return v.State().Kind == StateFailed
	}, time.Second, 5*time.Millisecond)
	require.Empty(t, v.Games())
	require.Contains(t, v.State().LastError, "store down")
}

func TestViewOverlayNewerRevisionWins(t *testing.T) {
	t.Parallel()

	hub := events.NewHub(nil)
	defer hub.Close()
	sub := hub.Subscribe(events.Filter{Sport: "soccer"})

	stub := &baselineStub{games: []scoreboard.Game{game("401", 1, scoreboard.StatusScheduled)}}
	v := New(stub.fetch, sub, Options{PollInterval: time.Hour})
	defer v.Close()
	waitForRevision(t, v, "401", 1)

	require.NoError(t, hub.Publish(context.Background(), changeEvent(game("401", 2, scoreboard.StatusInProgress))))
	waitForRevision(t, v, "401", 2)
	require.Equal(t, scoreboard.StatusInProgress, v.Games()[0].Status)
}

func TestViewStaleEventIsIgnored(t *testing.T) {
	t.Parallel()

	hub := events.NewHub(nil)
	defer hub.Close()
	sub := hub.Subscribe(events.Filter{Sport: "soccer"})

	stub := &baselineStub{games: []scoreboard.Game{game("401", 3, scoreboard.StatusInProgress)}}
	v := New(stub.fetch, sub, Options{PollInterval: time.Hour})
	defer v.Close()
	waitForRevision(t, v, "401", 3)

	require.NoError(t, hub.Publish(context.Background(), changeEvent(game("401", 2, scoreboard.StatusScheduled))))
	// Give the stale event time to be (not) applied.
	time.Sleep(50 * time.Millisecond)
	waitForRevision(t, v, "401", 3)
	require.Equal(t, scoreboard.StatusInProgress, v.Games()[0].Status)
}

func TestViewStaleBaselineKeepsOverlay(t *testing.T) {
	t.Parallel()

	hub := events.NewHub(nil)
	defer hub.Close()
	sub := hub.Subscribe(events.Filter{Sport: "soccer"})

	stub := &baselineStub{games: []scoreboard.Game{game("401", 1, scoreboard.StatusScheduled)}}
	v := New(stub.fetch, sub, Options{PollInterval: time.Hour})
	defer v.Close()
	waitForRevision(t, v, "401", 1)

	require.NoError(t, hub.Publish(context.Background(), changeEvent(game("401", 2, scoreboard.StatusInProgress))))
	waitForRevision(t, v, "401", 2)

	// The next poll races the sync pipeline and still carries revision 1.
	require.NoError(t, v.RefreshNow(context.Background()))
	waitForRevision(t, v, "401", 2)

	// Once the baseline catches up the overlay entry is spent.
	stub.set([]scoreboard.Game{game("401", 2, scoreboard.StatusInProgress)}, nil)
	require.NoError(t, v.RefreshNow(context.Background()))
	waitForRevision(t, v, "401", 2)
}

func TestViewBaselineFailureAfterLoadKeepsServing(t *testing.T) {
	t.Parallel()

	stub := &baselineStub{games: []scoreboard.Game{game("401", 1, scoreboard.StatusScheduled)}}
	v := New(stub.fetch, nil, Options{PollInterval: time.Hour})
	defer v.Close()
	waitForRevision(t, v, "401", 1)

	stub.set(nil, errors.New("store down"))
	require.NoError(t, v.RefreshNow(context.Background()))

	require.Equal(t, StateReady, v.State().Kind)
	require.Contains(t, v.State().LastError, "store down")
	waitForRevision(t, v, "401", 1)
}

func TestViewCloseFreezesSnapshot(t *testing.T) {
	t.Parallel()

	stub := &baselineStub{games: []scoreboard.Game{game("401", 1, scoreboard.StatusScheduled)}}
	v := New(stub.fetch, nil, Options{PollInterval: time.Hour})
	waitForRevision(t, v, "401", 1)

	v.Close()
	v.Close()
	require.Len(t, v.Games(), 1)
	require.Equal(t, StateReady, v.State().Kind)
}
