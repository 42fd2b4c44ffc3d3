package espn

import "encoding/json"

// Raw response shapes for the upstream scoreboard payload. Fields are typed
// explicitly so a mapping gap is visible in review instead of surfacing as a
// silent zero value at runtime. Only the fields the mapper consumes are
// declared; everything else is ignored by the decoder.

type scoreboardResponse struct {
	Events []eventResponse `json:"events"`
}

type eventResponse struct {
	ID           string                `json:"id"`
	Date         string                `json:"date"`
	Name         string                `json:"name"`
	Status       statusResponse        `json:"status"`
	Competitions []competitionResponse `json:"competitions"`
}

type competitionResponse struct {
	ID          string               `json:"id"`
	Venue       venueResponse        `json:"venue"`
	Competitors []competitorResponse `json:"competitors"`
	Broadcasts  []broadcastResponse  `json:"broadcasts"`
	Status      statusResponse       `json:"status"`
	// Situation carries live sport-specific context (count/outs/possession).
	// It is passed through opaque; the merge layer never inspects it.
	Situation json.RawMessage `json:"situation,omitempty"`
}

type competitorResponse struct {
	ID         string            `json:"id"`
	HomeAway   string            `json:"homeAway"`
	Score      string            `json:"score"`
	Team       teamResponse      `json:"team"`
	Records    []recordResponse  `json:"records"`
	Linescores []json.RawMessage `json:"linescores,omitempty"`
}

type teamResponse struct {
	ID               string         `json:"id"`
	DisplayName      string         `json:"displayName"`
	ShortDisplayName string         `json:"shortDisplayName"`
	Name             string         `json:"name"`
	Abbreviation     string         `json:"abbreviation"`
	Logo             string         `json:"logo"`
	Logos            []logoResponse `json:"logos"`
}

type logoResponse struct {
	Href string `json:"href"`
}

type recordResponse struct {
	Type    string `json:"type"`
	Summary string `json:"summary"`
}

type venueResponse struct {
	FullName string `json:"fullName"`
}

type broadcastResponse struct {
	Names []string `json:"names"`
}

type statusResponse struct {
	DisplayClock string             `json:"displayClock"`
	Period       int                `json:"period"`
	Type         statusTypeResponse `json:"type"`
}

type statusTypeResponse struct {
	Name        string `json:"name"`
	State       string `json:"state"`
	Completed   bool   `json:"completed"`
	Detail      string `json:"detail"`
	ShortDetail string `json:"shortDetail"`
}

// extraPayload is the sport-specific bag attached to canonical records.
type extraPayload struct {
	Situation  json.RawMessage   `json:"situation,omitempty"`
	HomeLines  []json.RawMessage `json:"home_linescores,omitempty"`
	AwayLines  []json.RawMessage `json:"away_linescores,omitempty"`
	ShortLabel string            `json:"short_label,omitempty"`
}
