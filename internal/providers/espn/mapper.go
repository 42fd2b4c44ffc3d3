package espn

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/scoreline/scoreline/internal/scoreboard"
)

// mapEvent converts one upstream event into a canonical game. An event with
// no competitions cannot be mapped and is a parse failure, never a silent
// skip.
func mapEvent(sport scoreboard.Sport, evt eventResponse) (scoreboard.Game, error) {
	if evt.ID == "" {
		return scoreboard.Game{}, fmt.Errorf("event missing id")
	}
	if len(evt.Competitions) == 0 {
		return scoreboard.Game{}, fmt.Errorf("event %s missing competitions", evt.ID)
	}
	comp := evt.Competitions[0]

	status := mapStatus(evt.Status.Type)
	home, away, err := splitCompetitors(evt.ID, comp.Competitors, status)
	if err != nil {
		return scoreboard.Game{}, err
	}

	game := scoreboard.Game{
		ID:           evt.ID,
		Sport:        sport,
		Status:       status,
		StatusDetail: statusDetail(evt.Status.Type),
		HomeTeam:     home,
		AwayTeam:     away,
		Venue:        comp.Venue.FullName,
		Broadcast:    firstBroadcast(comp.Broadcasts),
		Kickoff:      parseKickoff(evt.Date),
		Extra:        buildExtra(comp, evt.Status.Type),
	}
	if status == scoreboard.StatusInProgress {
		game.Period = evt.Status.Period
		game.Clock = evt.Status.DisplayClock
	}
	if err := game.Validate(); err != nil {
		return scoreboard.Game{}, fmt.Errorf("event %s: %w", evt.ID, err)
	}
	return game, nil
}

func mapStatus(st statusTypeResponse) scoreboard.GameStatus {
	if mapped, ok := statusNames[st.Name]; ok {
		return mapped
	}
	return statusForState(st.State, st.Completed)
}

func statusDetail(st statusTypeResponse) string {
	if st.Detail != "" {
		return st.Detail
	}
	return st.ShortDetail
}

func splitCompetitors(eventID string, competitors []competitorResponse, status scoreboard.GameStatus) (home, away scoreboard.Team, err error) {
	var haveHome, haveAway bool
	for _, comp := range competitors {
		team := mapTeam(comp, status)
		switch comp.HomeAway {
		case "home":
			home, haveHome = team, true
		case "away":
			away, haveAway = team, true
		}
	}
	if !haveHome || !haveAway {
		return scoreboard.Team{}, scoreboard.Team{}, fmt.Errorf("event %s missing home/away competitors", eventID)
	}
	return home, away, nil
}

func mapTeam(comp competitorResponse, status scoreboard.GameStatus) scoreboard.Team {
	team := scoreboard.Team{
		ID:           comp.Team.ID,
		Name:         teamName(comp.Team),
		Abbreviation: comp.Team.Abbreviation,
		Logo:         teamLogo(comp.Team),
		Record:       overallRecord(comp.Records),
	}
	// Upstream reports "0" for unstarted games; the canonical score stays
	// nil until the event is underway.
	if status != scoreboard.StatusScheduled && status != scoreboard.StatusPostponed {
		if score, ok := parseScore(comp.Score); ok {
			team.Score = &score
		}
	}
	return team
}

// teamName applies the displayName > shortDisplayName > name preference.
func teamName(t teamResponse) string {
	if t.DisplayName != "" {
		return t.DisplayName
	}
	if t.ShortDisplayName != "" {
		return t.ShortDisplayName
	}
	return t.Name
}

func teamLogo(t teamResponse) string {
	if t.Logo != "" {
		return t.Logo
	}
	if len(t.Logos) > 0 {
		return t.Logos[0].Href
	}
	return ""
}

func overallRecord(records []recordResponse) string {
	for _, r := range records {
		if r.Type == "total" || r.Type == "" {
			return r.Summary
		}
	}
	if len(records) > 0 {
		return records[0].Summary
	}
	return ""
}

func parseScore(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	score, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return score, true
}

func firstBroadcast(broadcasts []broadcastResponse) string {
	for _, b := range broadcasts {
		if len(b.Names) > 0 {
			return b.Names[0]
		}
	}
	return ""
}

// parseKickoff handles both RFC3339 and the upstream's minute-precision
// variant ("2026-04-12T17:30Z").
func parseKickoff(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse("2006-01-02T15:04Z", raw); err == nil {
		return t.UTC()
	}
	return time.Time{}
}

func buildExtra(comp competitionResponse, st statusTypeResponse) json.RawMessage {
	extra := extraPayload{
		Situation:  comp.Situation,
		ShortLabel: st.ShortDetail,
	}
	for _, competitor := range comp.Competitors {
		switch competitor.HomeAway {
		case "home":
			extra.HomeLines = competitor.Linescores
		case "away":
			extra.AwayLines = competitor.Linescores
		}
	}
	if extra.Situation == nil && extra.HomeLines == nil && extra.AwayLines == nil && extra.ShortLabel == "" {
		return nil
	}
	data, err := json.Marshal(extra)
	if err != nil {
		return nil
	}
	return data
}
