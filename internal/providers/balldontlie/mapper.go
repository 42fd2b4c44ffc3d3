package balldontlie

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/scoreline/scoreline/internal/scoreboard"
)

func mapGame(raw gameResponse) (scoreboard.Game, error) {
	if raw.ID == 0 {
		return scoreboard.Game{}, fmt.Errorf("game has no id")
	}
	status, detail := mapStatus(raw)

	game := scoreboard.Game{
		ID:           strconv.Itoa(raw.ID),
		Sport:        scoreboard.SportBasketballPro,
		Status:       status,
		StatusDetail: detail,
		Period:       raw.Period,
		Clock:        raw.Time,
		HomeTeam:     mapTeam(raw.HomeTeam, raw.HomeTeamScore, status),
		AwayTeam:     mapTeam(raw.VisitorTeam, raw.VisitorTeamScore, status),
		Kickoff:      parseKickoff(raw),
		Extra:        buildExtra(raw),
	}
	if err := game.Validate(); err != nil {
		return scoreboard.Game{}, err
	}
	return game, nil
}

// mapStatus folds the upstream free-form status strings into the canonical
// vocabulary. The API reuses the status field for the scheduled tip-off time,
// so a parseable timestamp means the game has not started.
func mapStatus(raw gameResponse) (scoreboard.GameStatus, string) {
	s := strings.TrimSpace(raw.Status)
	switch {
	case s == "":
		return scoreboard.StatusScheduled, ""
	case strings.EqualFold(s, "Final"):
		return scoreboard.StatusFinal, s
	case strings.Contains(s, "Qtr"), strings.EqualFold(s, "Halftime"), strings.Contains(s, "OT"):
		return scoreboard.StatusInProgress, s
	case strings.EqualFold(s, "Postponed"):
		return scoreboard.StatusPostponed, s
	}
	if _, err := time.Parse(time.RFC3339, s); err == nil {
		return scoreboard.StatusScheduled, ""
	}
	return scoreboard.StatusScheduled, s
}

func mapTeam(raw teamResponse, score int, status scoreboard.GameStatus) scoreboard.Team {
	name := raw.FullName
	if name == "" {
		name = raw.Name
	}
	team := scoreboard.Team{
		ID:           strconv.Itoa(raw.ID),
		Name:         name,
		Abbreviation: raw.Abbreviation,
	}
	if status != scoreboard.StatusScheduled && status != scoreboard.StatusPostponed {
		team.Score = scoreboard.IntPtr(score)
	}
	return team
}

func parseKickoff(raw gameResponse) time.Time {
	if t, err := time.Parse(time.RFC3339, strings.TrimSpace(raw.Status)); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, raw.Date); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", raw.Date); err == nil {
		return t
	}
	return time.Time{}
}

func buildExtra(raw gameResponse) json.RawMessage {
	extra := struct {
		Season     int  `json:"season,omitempty"`
		Postseason bool `json:"postseason,omitempty"`
	}{
		Season:     raw.Season,
		Postseason: raw.Postseason,
	}
	if extra.Season == 0 && !extra.Postseason {
		return nil
	}
	data, err := json.Marshal(extra)
	if err != nil {
		return nil
	}
	return data
}
