package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scoreline/scoreline/internal/events"
	"github.com/scoreline/scoreline/internal/merge"
	"github.com/scoreline/scoreline/internal/scoreboard"
	"github.com/scoreline/scoreline/internal/store/memory"
	"github.com/scoreline/scoreline/internal/sync"
)

type stubStatus struct {
	ready    bool
	statuses map[scoreboard.Sport]sync.Status
}

func (s *stubStatus) Ready() bool { return s.ready }

func (s *stubStatus) Statuses() []sync.Status {
	out := make([]sync.Status, 0, len(s.statuses))
	for _, st := range s.statuses {
		out = append(out, st)
	}
	return out
}

func (s *stubStatus) StatusFor(sport scoreboard.Sport) (sync.Status, bool) {
	st, ok := s.statuses[sport]
	return st, ok
}

type failingStore struct{}

func (failingStore) Upsert(context.Context, scoreboard.Game) (scoreboard.Game, bool, error) {
	return scoreboard.Game{}, false, errors.New("not implemented")
}

func (failingStore) Get(context.Context, scoreboard.Sport, string) (scoreboard.Game, error) {
	return scoreboard.Game{}, errors.New("connection refused")
}

func (failingStore) ListByDate(context.Context, scoreboard.Sport, string) ([]scoreboard.Game, error) {
	return nil, errors.New("connection refused")
}

func (failingStore) AnyInProgress(context.Context, scoreboard.Sport) (bool, error) {
	return false, errors.New("connection refused")
}

func seedGame(t *testing.T, store *memory.Store, id string) scoreboard.Game {
	t.Helper()
	game := scoreboard.Game{
		ID:        id,
		Sport:     scoreboard.SportSoccer,
		Status:    scoreboard.StatusScheduled,
		HomeTeam:  scoreboard.Team{ID: "h", Name: "Arsenal", Abbreviation: "ARS"},
		AwayTeam:  scoreboard.Team{ID: "a", Name: "Chelsea", Abbreviation: "CHE"},
		Kickoff:   time.Date(2024, 3, 9, 20, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC),
	}
	stored, _, err := store.Upsert(context.Background(), game)
	require.NoError(t, err)
	return stored
}

func newTestServer(store scoreboard.GameStore, status StatusSource, hub EventSource) *httptest.Server {
	srv := NewServer(store, status, hub, nil, nil, nil)
	return httptest.NewServer(srv.Handler())
}

// newTestServerWithViews routes listings through a merge view pool, the way
// the serve command wires the server.
func newTestServerWithViews(t *testing.T, store scoreboard.GameStore, status StatusSource, hub *events.Hub) *httptest.Server {
	t.Helper()
	views := merge.NewManager(store, hub, merge.ManagerOptions{})
	t.Cleanup(views.Close)
	srv := NewServer(store, status, hub, views, nil, nil)
	return httptest.NewServer(srv.Handler())
}

func TestListGamesEmptyDateIsOKWithEmptyList(t *testing.T) {
	t.Parallel()

	ts := newTestServer(memory.New(), &stubStatus{ready: true}, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/sports/soccer/games?date=2024-03-09")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body gamesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "soccer", body.Sport)
	require.NotNil(t, body.Games)
	require.Empty(t, body.Games)
}

func TestListGamesStoreFailureIsServerError(t *testing.T) {
	t.Parallel()

	ts := newTestServer(failingStore{}, &stubStatus{ready: true}, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/sports/soccer/games?date=2024-03-09")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestListGamesIncludesSyncStatus(t *testing.T) {
	t.Parallel()

	store := memory.New()
	seedGame(t, store, "401")
	status := &stubStatus{
		ready: true,
		statuses: map[scoreboard.Sport]sync.Status{
			scoreboard.SportSoccer: {Sport: scoreboard.SportSoccer, ConsecutiveFailures: 2, LastError: "upstream 503"},
		},
	}
	ts := newTestServer(store, status, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/sports/soccer/games?date=2024-03-09")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body gamesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Games, 1)
	require.NotNil(t, body.Sync)
	require.Equal(t, 2, body.Sync.ConsecutiveFailures)
}

func TestListGamesRejectsBadDate(t *testing.T) {
	t.Parallel()

	ts := newTestServer(memory.New(), &stubStatus{ready: true}, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/sports/soccer/games?date=03-09-2024")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUnknownSportIsNotFound(t *testing.T) {
	t.Parallel()

	ts := newTestServer(memory.New(), &stubStatus{ready: true}, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/sports/cricket/games")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetGame(t *testing.T) {
	t.Parallel()

	store := memory.New()
	seedGame(t, store, "401")
	ts := newTestServer(store, &stubStatus{ready: true}, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/sports/soccer/games/401")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var game scoreboard.Game
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&game))
	require.Equal(t, "401", game.ID)
	require.Equal(t, int64(1), game.Revision)

	missing, err := http.Get(ts.URL + "/v1/sports/soccer/games/999")
	require.NoError(t, err)
	defer missing.Body.Close()
	require.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestReadyzReflectsSyncState(t *testing.T) {
	t.Parallel()

	ts := newTestServer(memory.New(), &stubStatus{ready: false}, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/readyz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	healthy, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer healthy.Body.Close()
	require.Equal(t, http.StatusOK, healthy.StatusCode)
}

func TestRequestIDHeaderIsSet(t *testing.T) {
	t.Parallel()

	ts := newTestServer(memory.New(), &stubStatus{ready: true}, nil)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/sports")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestStreamEventsDeliversChange(t *testing.T) {
	t.Parallel()

	hub := events.NewHub(nil)
	defer hub.Close()
	store := memory.New()
	stored := seedGame(t, store, "401")
	ts := newTestServer(store, &stubStatus{ready: true}, hub)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/v1/sports/soccer/events?date=2024-03-09", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// The subscription is registered before the handler writes its headers,
	// so publishing now is safe.
	evt := events.ChangeEvent{
		Sport:     scoreboard.SportSoccer,
		GameDate:  "2024-03-09",
		Game:      stored,
		EmittedAt: time.Now(),
	}
	require.NoError(t, hub.Publish(context.Background(), evt))

	scanner := bufio.NewScanner(resp.Body)
	var dataLine string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			dataLine = strings.TrimPrefix(line, "data: ")
			break
		}
	}
	require.NotEmpty(t, dataLine)

	var received events.ChangeEvent
	require.NoError(t, json.Unmarshal([]byte(dataLine), &received))
	require.Equal(t, "401", received.Game.ID)
	require.Equal(t, "2024-03-09", received.GameDate)
}

func TestListGamesMergesPushedChange(t *testing.T) {
	t.Parallel()

	hub := events.NewHub(nil)
	defer hub.Close()
	store := memory.New()
	stored := seedGame(t, store, "401")
	ts := newTestServerWithViews(t, store, &stubStatus{ready: true}, hub)
	defer ts.Close()

	// First read opens the view and loads the baseline.
	resp, err := http.Get(ts.URL + "/v1/sports/soccer/games?date=2024-03-09")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body gamesResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "ready", body.State)
	require.Len(t, body.Games, 1)
	require.Equal(t, scoreboard.StatusScheduled, body.Games[0].Status)

	// A pushed change with a newer revision reaches the listing without a
	// store write.
	updated := stored
	updated.Status = scoreboard.StatusInProgress
	updated.Period = 1
	updated.HomeTeam.Score = scoreboard.IntPtr(1)
	updated.AwayTeam.Score = scoreboard.IntPtr(0)
	updated.Revision = stored.Revision + 1
	require.NoError(t, hub.Publish(context.Background(), events.ChangeEvent{
		Sport:     scoreboard.SportSoccer,
		GameDate:  "2024-03-09",
		Game:      updated,
		EmittedAt: time.Now(),
	}))

	require.Eventually(t, func() bool {
		r, err := http.Get(ts.URL + "/v1/sports/soccer/games?date=2024-03-09")
		if err != nil {
			return false
		}
		defer r.Body.Close()
		var got gamesResponse
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil || len(got.Games) != 1 {
			return false
		}
		return got.Games[0].Status == scoreboard.StatusInProgress &&
			got.Games[0].Revision == updated.Revision
	}, 2*time.Second, 20*time.Millisecond)
}

func TestListGamesViewLoadFailureIsBadGateway(t *testing.T) {
	t.Parallel()

	hub := events.NewHub(nil)
	defer hub.Close()
	ts := newTestServerWithViews(t, failingStore{}, &stubStatus{ready: true}, hub)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/v1/sports/soccer/games?date=2024-03-09")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
}
