package balldontlie

import "time"

const (
	// ProviderName tags errors and archived payloads from this adapter.
	ProviderName = "balldontlie"

	defaultBaseURL = "https://api.balldontlie.io/v1"
	defaultTimeout = 10 * time.Second
	defaultPerPage = 100
	// defaultMaxPages bounds pagination against a misbehaving upstream.
	defaultMaxPages = 10
)
