package espn

import (
	"time"

	"github.com/scoreline/scoreline/internal/scoreboard"
)

const (
	// ProviderName tags errors and archived payloads from this adapter.
	ProviderName = "espn"

	defaultBaseURL   = "https://site.api.espn.com/apis/site/v2/sports"
	defaultUserAgent = "scoreline/1.0"
	defaultTimeout   = 10 * time.Second

	// Upstream scoreboard endpoints take dates as YYYYMMDD.
	queryDateLayout = "20060102"
)

// sportPaths maps canonical sports to upstream URL path segments.
var sportPaths = map[scoreboard.Sport]string{
	scoreboard.SportSoccer:            "soccer/eng.1",
	scoreboard.SportBasketballCollege: "basketball/mens-college-basketball",
	scoreboard.SportBaseball:          "baseball/mlb",
	scoreboard.SportFootball:          "football/nfl",
	scoreboard.SportMotorsport:        "racing/f1",
}

// statusNames maps the upstream status vocabulary to canonical statuses.
// The table is additive: names observed in the wild get an explicit row, and
// anything unmapped falls back through statusForState and then to scheduled,
// so a new upstream status never drops an event from rotation.
var statusNames = map[string]scoreboard.GameStatus{
	"STATUS_SCHEDULED":   scoreboard.StatusScheduled,
	"STATUS_IN_PROGRESS": scoreboard.StatusInProgress,
	"STATUS_FIRST_HALF":  scoreboard.StatusInProgress,
	"STATUS_SECOND_HALF": scoreboard.StatusInProgress,
	"STATUS_HALFTIME":    scoreboard.StatusInProgress,
	"STATUS_END_PERIOD":  scoreboard.StatusInProgress,
	"STATUS_OVERTIME":    scoreboard.StatusInProgress,
	"STATUS_SHOOTOUT":    scoreboard.StatusInProgress,
	"STATUS_FINAL":       scoreboard.StatusFinal,
	"STATUS_FINAL_OT":    scoreboard.StatusFinal,
	"STATUS_FULL_TIME":   scoreboard.StatusFinal,
	"STATUS_CANCELED":    scoreboard.StatusFinal,
	"STATUS_FORFEIT":     scoreboard.StatusFinal,
	"STATUS_POSTPONED":   scoreboard.StatusPostponed,
	"STATUS_SUSPENDED":   scoreboard.StatusDelayed,
	"STATUS_DELAYED":     scoreboard.StatusDelayed,
	"STATUS_RAIN_DELAY":  scoreboard.StatusDelayed,
}

// statusForState is the coarse fallback on the upstream "state" field.
func statusForState(state string, completed bool) scoreboard.GameStatus {
	if completed {
		return scoreboard.StatusFinal
	}
	switch state {
	case "in":
		return scoreboard.StatusInProgress
	case "post":
		return scoreboard.StatusFinal
	default:
		return scoreboard.StatusScheduled
	}
}
