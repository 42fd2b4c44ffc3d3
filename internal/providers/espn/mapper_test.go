package espn

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scoreline/scoreline/internal/scoreboard"
)

func baseEvent() eventResponse {
	return eventResponse{
		ID:   "401",
		Date: "2024-03-09T17:30Z",
		Status: statusResponse{
			Type: statusTypeResponse{Name: "STATUS_SCHEDULED", State: "pre"},
		},
		Competitions: []competitionResponse{
			{
				Venue: venueResponse{FullName: "Fenway Park"},
				Competitors: []competitorResponse{
					{HomeAway: "home", Score: "0", Team: teamResponse{ID: "2", DisplayName: "Boston Red Sox", Abbreviation: "BOS"}},
					{HomeAway: "away", Score: "0", Team: teamResponse{ID: "10", DisplayName: "New York Yankees", Abbreviation: "NYY"}},
				},
			},
		},
	}
}

func TestMapStatusVocabulary(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		st   statusTypeResponse
		want scoreboard.GameStatus
	}{
		{"scheduled", statusTypeResponse{Name: "STATUS_SCHEDULED", State: "pre"}, scoreboard.StatusScheduled},
		{"halftime", statusTypeResponse{Name: "STATUS_HALFTIME", State: "in"}, scoreboard.StatusInProgress},
		{"end period", statusTypeResponse{Name: "STATUS_END_PERIOD", State: "in"}, scoreboard.StatusInProgress},
		{"final", statusTypeResponse{Name: "STATUS_FINAL", State: "post", Completed: true}, scoreboard.StatusFinal},
		{"canceled folds to final", statusTypeResponse{Name: "STATUS_CANCELED", State: "post"}, scoreboard.StatusFinal},
		{"postponed", statusTypeResponse{Name: "STATUS_POSTPONED", State: "post"}, scoreboard.StatusPostponed},
		{"rain delay", statusTypeResponse{Name: "STATUS_RAIN_DELAY", State: "in"}, scoreboard.StatusDelayed},
		{"unknown live state falls back", statusTypeResponse{Name: "STATUS_SOMETHING_NEW", State: "in"}, scoreboard.StatusInProgress},
		{"unknown completed falls back", statusTypeResponse{Name: "STATUS_SOMETHING_NEW", Completed: true}, scoreboard.StatusFinal},
		{"unknown defaults to scheduled", statusTypeResponse{Name: "STATUS_SOMETHING_NEW"}, scoreboard.StatusScheduled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, mapStatus(tc.st))
		})
	}
}

func TestMapEventScheduledGameHasNilScores(t *testing.T) {
	t.Parallel()

	game, err := mapEvent(scoreboard.SportBaseball, baseEvent())
	require.NoError(t, err)
	require.Equal(t, scoreboard.StatusScheduled, game.Status)
	require.Nil(t, game.HomeTeam.Score, "upstream zero must not become a real score")
	require.Nil(t, game.AwayTeam.Score)
	require.Zero(t, game.Period)
	require.Empty(t, game.Clock)
}

func TestMapEventLiveGameCarriesScoresAndClock(t *testing.T) {
	t.Parallel()

	evt := baseEvent()
	evt.Status = statusResponse{
		DisplayClock: "12:34",
		Period:       3,
		Type:         statusTypeResponse{Name: "STATUS_IN_PROGRESS", State: "in", Detail: "Top 3rd"},
	}
	evt.Competitions[0].Competitors[0].Score = "4"
	evt.Competitions[0].Competitors[1].Score = "2"

	game, err := mapEvent(scoreboard.SportBaseball, evt)
	require.NoError(t, err)
	require.Equal(t, scoreboard.StatusInProgress, game.Status)
	require.Equal(t, "Top 3rd", game.StatusDetail)
	require.Equal(t, 3, game.Period)
	require.Equal(t, "12:34", game.Clock)
	require.Equal(t, 4, *game.HomeTeam.Score)
	require.Equal(t, 2, *game.AwayTeam.Score)
}

func TestMapEventMissingCompetitorsFails(t *testing.T) {
	t.Parallel()

	evt := baseEvent()
	evt.Competitions[0].Competitors = evt.Competitions[0].Competitors[:1]
	_, err := mapEvent(scoreboard.SportBaseball, evt)
	require.Error(t, err)
	require.Contains(t, err.Error(), "home/away")
}

func TestMapEventMissingIDFails(t *testing.T) {
	t.Parallel()

	evt := baseEvent()
	evt.ID = ""
	_, err := mapEvent(scoreboard.SportBaseball, evt)
	require.Error(t, err)
}

func TestParseKickoffVariants(t *testing.T) {
	t.Parallel()

	want := time.Date(2024, 3, 9, 17, 30, 0, 0, time.UTC)
	require.Equal(t, want, parseKickoff("2024-03-09T17:30Z"))
	require.Equal(t, want, parseKickoff("2024-03-09T17:30:00Z"))
	require.True(t, parseKickoff("not a date").IsZero())
	require.True(t, parseKickoff("").IsZero())
}

func TestTeamNamePreference(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Boston Red Sox", teamName(teamResponse{DisplayName: "Boston Red Sox", ShortDisplayName: "Red Sox", Name: "Red Sox"}))
	require.Equal(t, "Red Sox", teamName(teamResponse{ShortDisplayName: "Red Sox", Name: "Sox"}))
	require.Equal(t, "Sox", teamName(teamResponse{Name: "Sox"}))
}

func TestOverallRecordPrefersTotal(t *testing.T) {
	t.Parallel()

	records := []recordResponse{
		{Type: "home", Summary: "10-2"},
		{Type: "total", Summary: "20-8"},
	}
	require.Equal(t, "20-8", overallRecord(records))
	require.Equal(t, "10-2", overallRecord(records[:1]))
	require.Empty(t, overallRecord(nil))
}
