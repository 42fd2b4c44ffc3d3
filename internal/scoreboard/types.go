// Package scoreboard defines the canonical event model shared by every
// provider adapter, the sync pipeline, and the read-side consumers. Adapters
// normalize upstream payloads into these types; nothing downstream ever sees a
// provider-specific shape.
package scoreboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Sport identifies one upstream feed namespace. Game IDs are only unique
// within a sport.
type Sport string

// Supported sports.
const (
	SportSoccer            Sport = "soccer"
	SportBasketballCollege Sport = "basketball-college"
	SportBasketballPro     Sport = "basketball-pro"
	SportBaseball          Sport = "baseball"
	SportFootball          Sport = "football"
	SportMotorsport        Sport = "motorsport"
)

// Sports lists every supported sport in a stable order.
func Sports() []Sport {
	return []Sport{
		SportSoccer,
		SportBasketballCollege,
		SportBasketballPro,
		SportBaseball,
		SportFootball,
		SportMotorsport,
	}
}

// Valid reports whether s is one of the supported sports.
func (s Sport) Valid() bool {
	_, err := ParseSport(string(s))
	return err == nil
}

// ParseSport validates a sport string from config or an API path.
func ParseSport(s string) (Sport, error) {
	for _, sport := range Sports() {
		if string(sport) == s {
			return sport, nil
		}
	}
	return "", fmt.Errorf("unknown sport %q", s)
}

// Team is one side of a game. Score is nil until the event starts.
type Team struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation,omitempty"`
	Logo         string `json:"logo,omitempty"`
	Record       string `json:"record,omitempty"`
	Score        *int   `json:"score,omitempty"`
}

// Game is the canonical record for one sporting event. It is created the
// first time an adapter returns it and mutated in place by identity on every
// subsequent sync; it is never deleted, only aged out of the active window.
type Game struct {
	ID           string          `json:"id"`
	Sport        Sport           `json:"sport"`
	Status       GameStatus      `json:"status"`
	StatusDetail string          `json:"status_detail,omitempty"`
	Period       int             `json:"period,omitempty"`
	Clock        string          `json:"clock,omitempty"`
	HomeTeam     Team            `json:"home_team"`
	AwayTeam     Team            `json:"away_team"`
	Venue        string          `json:"venue,omitempty"`
	Broadcast    string          `json:"broadcast,omitempty"`
	Kickoff      time.Time       `json:"kickoff"`
	Extra        json.RawMessage `json:"extra,omitempty"`

	// Revision is assigned by the store and increases monotonically per
	// record. Consumers resolve ordering with it, never with upstream
	// timestamps.
	Revision  int64     `json:"revision"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Key returns the store identity for the record.
func (g Game) Key() string {
	return string(g.Sport) + "/" + g.ID
}

// Validate enforces the normalization contract every adapter must satisfy.
func (g Game) Validate() error {
	if g.ID == "" {
		return errors.New("game id is required")
	}
	if _, err := ParseSport(string(g.Sport)); err != nil {
		return err
	}
	if !g.Status.Valid() {
		return fmt.Errorf("invalid status %q", g.Status)
	}
	if g.HomeTeam.Name == "" || g.AwayTeam.Name == "" {
		return errors.New("both teams must be populated")
	}
	return nil
}

// MutableEquals reports whether the fields that change over a game's lifetime
// are identical. Identity and kickoff are excluded; they are compared by the
// store separately.
func (g Game) MutableEquals(other Game) bool {
	return g.Status == other.Status &&
		g.StatusDetail == other.StatusDetail &&
		g.Period == other.Period &&
		g.Clock == other.Clock &&
		scoreEqual(g.HomeTeam.Score, other.HomeTeam.Score) &&
		scoreEqual(g.AwayTeam.Score, other.AwayTeam.Score) &&
		string(g.Extra) == string(other.Extra)
}

func scoreEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// IntPtr is a small helper for building optional scores.
func IntPtr(v int) *int {
	return &v
}
