package espn

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	archivememory "github.com/scoreline/scoreline/internal/archive/memory"
	"github.com/scoreline/scoreline/internal/providers"
	"github.com/scoreline/scoreline/internal/scoreboard"
)

const scoreboardFixture = `{
  "events": [
    {
      "id": "401547439",
      "date": "2024-03-09T17:30Z",
      "name": "Arsenal at Chelsea",
      "status": {
        "displayClock": "67:12",
        "period": 2,
        "type": {"name": "STATUS_SECOND_HALF", "state": "in", "completed": false, "detail": "2nd Half", "shortDetail": "2nd"}
      },
      "competitions": [
        {
          "venue": {"fullName": "Stamford Bridge"},
          "broadcasts": [{"names": ["NBC", "Peacock"]}],
          "competitors": [
            {
              "homeAway": "home",
              "score": "1",
              "team": {"id": "363", "displayName": "Chelsea", "abbreviation": "CHE", "logo": "https://cdn.example/che.png"},
              "records": [{"type": "total", "summary": "12-7-9"}]
            },
            {
              "homeAway": "away",
              "score": "2",
              "team": {"id": "359", "displayName": "Arsenal", "abbreviation": "ARS"},
              "records": [{"type": "total", "summary": "20-4-4"}]
            }
          ]
        }
      ]
    }
  ]
}`

func TestFetchScoreboardMapsLiveGame(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/soccer/eng.1/scoreboard", r.URL.Path)
		require.Equal(t, "20240309", r.URL.Query().Get("dates"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(scoreboardFixture))
	}))
	defer ts.Close()

	client := New(Config{BaseURL: ts.URL})
	games, err := client.FetchScoreboard(context.Background(), scoreboard.SportSoccer, "2024-03-09")
	require.NoError(t, err)
	require.Len(t, games, 1)

	game := games[0]
	require.Equal(t, "401547439", game.ID)
	require.Equal(t, scoreboard.StatusInProgress, game.Status)
	require.Equal(t, "2nd Half", game.StatusDetail)
	require.Equal(t, 2, game.Period)
	require.Equal(t, "67:12", game.Clock)
	require.Equal(t, "Stamford Bridge", game.Venue)
	require.Equal(t, "NBC", game.Broadcast)

	require.Equal(t, "Chelsea", game.HomeTeam.Name)
	require.NotNil(t, game.HomeTeam.Score)
	require.Equal(t, 1, *game.HomeTeam.Score)
	require.Equal(t, "12-7-9", game.HomeTeam.Record)
	require.Equal(t, "Arsenal", game.AwayTeam.Name)
	require.NotNil(t, game.AwayTeam.Score)
	require.Equal(t, 2, *game.AwayTeam.Score)
}

func TestFetchScoreboardEmptyDateReturnsEmptySlice(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"events": []}`))
	}))
	defer ts.Close()

	client := New(Config{BaseURL: ts.URL})
	games, err := client.FetchScoreboard(context.Background(), scoreboard.SportBaseball, "2024-12-25")
	require.NoError(t, err, "a date with no games is not an error")
	require.NotNil(t, games)
	require.Empty(t, games)
}

func TestFetchScoreboardUpstreamErrorIsFetchError(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer ts.Close()

	client := New(Config{BaseURL: ts.URL})
	_, err := client.FetchScoreboard(context.Background(), scoreboard.SportFootball, "2024-03-09")
	require.Error(t, err)

	fetchErr, ok := providers.AsFetchError(err)
	require.True(t, ok)
	require.Equal(t, ProviderName, fetchErr.Provider)
	require.Equal(t, http.StatusBadGateway, fetchErr.StatusCode)
	_, isParse := providers.AsParseError(err)
	require.False(t, isParse)
}

func TestFetchScoreboardMalformedBodyIsParseError(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer ts.Close()

	client := New(Config{BaseURL: ts.URL})
	_, err := client.FetchScoreboard(context.Background(), scoreboard.SportSoccer, "2024-03-09")
	require.Error(t, err)

	parseErr, ok := providers.AsParseError(err)
	require.True(t, ok)
	require.Equal(t, ProviderName, parseErr.Provider)
}

func TestFetchScoreboardUnservedSport(t *testing.T) {
	t.Parallel()

	client := New(Config{BaseURL: "http://127.0.0.1:0"})
	_, err := client.FetchScoreboard(context.Background(), scoreboard.SportBasketballPro, "2024-03-09")
	require.Error(t, err)
	_, ok := providers.AsFetchError(err)
	require.True(t, ok)
}

func TestFetchScoreboardRejectsBadDate(t *testing.T) {
	t.Parallel()

	client := New(Config{BaseURL: "http://127.0.0.1:0"})
	_, err := client.FetchScoreboard(context.Background(), scoreboard.SportSoccer, "03/09/2024")
	require.Error(t, err)
}

func TestFetchScoreboardArchivesRawPayload(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"events": []}`))
	}))
	defer ts.Close()

	arch := archivememory.New()
	client := New(Config{BaseURL: ts.URL, Archive: arch})
	_, err := client.FetchScoreboard(context.Background(), scoreboard.SportSoccer, "2024-03-09")
	require.NoError(t, err)
	require.Equal(t, 1, arch.Len())
}
