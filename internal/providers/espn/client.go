// Package espn adapts the public scoreboard API that backs soccer, college
// basketball, baseball, football, and motorsport into canonical records.
package espn

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/scoreline/scoreline/internal/archive"
	"github.com/scoreline/scoreline/internal/metrics"
	"github.com/scoreline/scoreline/internal/providers"
	"github.com/scoreline/scoreline/internal/scoreboard"
	"github.com/scoreline/scoreline/internal/timeutil"
)

// Config controls how the client reaches the upstream API.
type Config struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	HTTPClient *http.Client
	// RequestsPerSecond throttles outbound calls; zero disables throttling.
	RequestsPerSecond float64
	Archive           archive.Archive
	Logger            *zap.Logger
}

// Client fetches scoreboard data and maps it to canonical games.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	archive    archive.Archive
	logger     *zap.Logger
}

// New constructs a Client with the provided configuration.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
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
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		httpClient: httpClient,
		limiter:    limiter,
		archive:    arch,
		logger:     logger,
	}
}

// Provider implements scoreboard.Adapter.
func (c *Client) Provider() string {
	return ProviderName
}

// FetchScoreboard returns the canonical games for a sport on one calendar
// date. Transport failures surface as *providers.FetchError and unmappable
// payloads as *providers.ParseError; an empty slice with a nil error means
// the date has no games.
func (c *Client) FetchScoreboard(ctx context.Context, sport scoreboard.Sport, date string) ([]scoreboard.Game, error) {
	path, ok := sportPaths[sport]
	if !ok {
		return nil, &providers.FetchError{Provider: ProviderName, Err: fmt.Errorf("sport %q not served", sport)}
	}
	day, err := timeutil.ParseDate(date)
	if err != nil {
		return nil, &providers.FetchError{Provider: ProviderName, Err: fmt.Errorf("invalid date %q: %w", date, err)}
	}
	url := fmt.Sprintf("%s/%s/scoreboard?dates=%s", c.baseURL, path, day.Format(queryDateLayout))

	body, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	if uri, archiveErr := c.archive.PutPayload(ctx, ProviderName, sport, date, body); archiveErr != nil {
		c.logger.Warn("payload archive failed", zap.String("sport", string(sport)), zap.Error(archiveErr))
	} else if uri != "" {
		c.logger.Debug("payload archived", zap.String("uri", uri))
	}

	var payload scoreboardResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &providers.ParseError{Provider: ProviderName, Err: fmt.Errorf("decode scoreboard: %w", err)}
	}

	games := make([]scoreboard.Game, 0, len(payload.Events))
	for _, evt := range payload.Events {
		game, mapErr := mapEvent(sport, evt)
		if mapErr != nil {
			return nil, &providers.ParseError{Provider: ProviderName, Err: mapErr}
		}
		games = append(games, game)
	}
	return games, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &providers.FetchError{Provider: ProviderName, Err: fmt.Errorf("rate limit wait: %w", err)}
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &providers.FetchError{Provider: ProviderName, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.ObserveFetch(ProviderName, time.Since(start))
	if err != nil {
		return nil, &providers.FetchError{Provider: ProviderName, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &providers.FetchError{
			Provider:   ProviderName,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %s", string(snippet)),
		}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &providers.FetchError{Provider: ProviderName, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}
