package balldontlie

// Raw response shapes for the upstream games endpoint. The schema is flat and
// incompatible with other providers: integer ids, scores always present (zero
// pre-game), and a free-text status that doubles as a tip-off timestamp for
// unstarted games.

type gamesResponse struct {
	Data []gameResponse `json:"data"`
	Meta metaResponse   `json:"meta"`
}

type metaResponse struct {
	TotalPages  int `json:"total_pages"`
	CurrentPage int `json:"current_page"`
}

type gameResponse struct {
	ID               int          `json:"id"`
	Date             string       `json:"date"`
	Season           int          `json:"season"`
	Status           string       `json:"status"`
	Period           int          `json:"period"`
	Time             string       `json:"time"`
	Postseason       bool         `json:"postseason"`
	HomeTeamScore    int          `json:"home_team_score"`
	VisitorTeamScore int          `json:"visitor_team_score"`
	HomeTeam         teamResponse `json:"home_team"`
	VisitorTeam      teamResponse `json:"visitor_team"`
}

type teamResponse struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	FullName     string `json:"full_name"`
	Abbreviation string `json:"abbreviation"`
	City         string `json:"city"`
}
