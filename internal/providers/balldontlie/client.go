// Package balldontlie adapts the balldontlie games API (pro basketball) into
// canonical records.
package balldontlie

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/scoreline/scoreline/internal/archive"
	"github.com/scoreline/scoreline/internal/metrics"
	"github.com/scoreline/scoreline/internal/providers"
	"github.com/scoreline/scoreline/internal/scoreboard"
)

// Config controls how the client reaches the upstream API.
type Config struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	HTTPClient        *http.Client
	MaxPages          int
	RequestsPerSecond float64
	Archive           archive.Archive
	Logger            *zap.Logger
}

// Client fetches games and maps them to canonical records.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxPages   int
	limiter    *rate.Limiter
	archive    archive.Archive
	logger     *zap.Logger
}

// New constructs a Client with the provided configuration.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = defaultMaxPages
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	arch := cfg.Archive
	if arch == nil {
		arch = archive.Nop{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		maxPages:   cfg.MaxPages,
		limiter:    limiter,
		archive:    arch,
		logger:     logger,
	}
}

// Provider implements scoreboard.Adapter.
func (c *Client) Provider() string {
	return ProviderName
}

// FetchScoreboard returns the canonical games for one calendar date,
// following pagination until the upstream reports the last page.
func (c *Client) FetchScoreboard(ctx context.Context, sport scoreboard.Sport, date string) ([]scoreboard.Game, error) {
	if sport != scoreboard.SportBasketballPro {
		return nil, &providers.FetchError{Provider: ProviderName, Err: fmt.Errorf("sport %q not served", sport)}
	}

	page := 1
	games := make([]scoreboard.Game, 0)
	for {
		payload, err := c.fetchPage(ctx, sport, date, page)
		if err != nil {
			return nil, err
		}
		for _, raw := range payload.Data {
			game, mapErr := mapGame(raw)
			if mapErr != nil {
				return nil, &providers.ParseError{Provider: ProviderName, Err: mapErr}
			}
			games = append(games, game)
		}

		switch {
		case payload.Meta.TotalPages > 0 && page >= payload.Meta.TotalPages:
			return games, nil
		case payload.Meta.TotalPages == 0 && len(payload.Data) < defaultPerPage:
			return games, nil
		case page >= c.maxPages:
			return games, nil
		}
		page++
	}
}

func (c *Client) fetchPage(ctx context.Context, sport scoreboard.Sport, date string, page int) (gamesResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return gamesResponse{}, &providers.FetchError{Provider: ProviderName, Err: fmt.Errorf("rate limit wait: %w", err)}
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/games", nil)
	if err != nil {
		return gamesResponse{}, &providers.FetchError{Provider: ProviderName, Err: fmt.Errorf("build request: %w", err)}
	}
	q := req.URL.Query()
	q.Set("dates[]", date)
	q.Set("per_page", strconv.Itoa(defaultPerPage))
	q.Set("page", strconv.Itoa(page))
	req.URL.RawQuery = q.Encode()
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ObserveFetch(ProviderName, time.Since(start))
	if err != nil {
		return gamesResponse{}, &providers.FetchError{Provider: ProviderName, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return gamesResponse{}, &providers.FetchError{
			Provider:   ProviderName,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %s", strings.TrimSpace(string(snippet))),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gamesResponse{}, &providers.FetchError{Provider: ProviderName, Err: fmt.Errorf("read body: %w", err)}
	}
	if page == 1 {
		if _, archiveErr := c.archive.PutPayload(ctx, ProviderName, sport, date, body); archiveErr != nil {
			c.logger.Warn("payload archive failed", zap.Error(archiveErr))
		}
	}

	var payload gamesResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return gamesResponse{}, &providers.ParseError{Provider: ProviderName, Err: fmt.Errorf("decode games page %d: %w", page, err)}
	}
	return payload, nil
}
