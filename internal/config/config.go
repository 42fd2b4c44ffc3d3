// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/scoreline/scoreline/internal/scoreboard"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig               `mapstructure:"server"`
	Providers ProvidersConfig            `mapstructure:"providers"`
	Cache     CacheConfig                `mapstructure:"cache"`
	Sync      SyncConfig                 `mapstructure:"sync"`
	Store     StoreConfig                `mapstructure:"store"`
	Events    EventsConfig               `mapstructure:"events"`
	Archive   ArchiveConfig              `mapstructure:"archive"`
	Logging   LoggingConfig              `mapstructure:"logging"`
	Sports    map[string]SportSyncConfig `mapstructure:"sports"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// ProvidersConfig holds upstream API settings.
type ProvidersConfig struct {
	ESPN        ESPNConfig        `mapstructure:"espn"`
	Balldontlie BalldontlieConfig `mapstructure:"balldontlie"`
}

// ESPNConfig configures the ESPN scoreboard client.
type ESPNConfig struct {
	BaseURL           string  `mapstructure:"base_url"`
	UserAgent         string  `mapstructure:"user_agent"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// BalldontlieConfig configures the balldontlie games client.
type BalldontlieConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	BaseURL           string  `mapstructure:"base_url"`
	APIKey            string  `mapstructure:"api_key"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	MaxPages          int     `mapstructure:"max_pages"`
}

// CacheConfig sets the scoreboard cache TTLs.
type CacheConfig struct {
	LiveTTLSeconds       int `mapstructure:"live_ttl_seconds"`
	StaticTTLSeconds     int `mapstructure:"static_ttl_seconds"`
	SweepIntervalSeconds int `mapstructure:"sweep_interval_seconds"`
}

// SyncConfig sets the default sync loop cadence and window.
type SyncConfig struct {
	DaysBack            int      `mapstructure:"days_back"`
	DaysAhead           int      `mapstructure:"days_ahead"`
	LiveIntervalSeconds int      `mapstructure:"live_interval_seconds"`
	IdleIntervalSeconds int      `mapstructure:"idle_interval_seconds"`
	FetchTimeoutSeconds int      `mapstructure:"fetch_timeout_seconds"`
	EnabledSports       []string `mapstructure:"enabled_sports"`
}

// SportSyncConfig overrides the sync cadence for one sport.
type SportSyncConfig struct {
	DaysBack            int `mapstructure:"days_back"`
	DaysAhead           int `mapstructure:"days_ahead"`
	LiveIntervalSeconds int `mapstructure:"live_interval_seconds"`
	IdleIntervalSeconds int `mapstructure:"idle_interval_seconds"`
}

// StoreConfig selects and configures the game store backend.
type StoreConfig struct {
	Provider        string `mapstructure:"provider"`
	DSN             string `mapstructure:"dsn"`
	MaxConns        int32  `mapstructure:"max_conns"`
	MinConns        int32  `mapstructure:"min_conns"`
	MaxConnLifetime string `mapstructure:"max_conn_lifetime"`
}

// EventsConfig selects the external change-event publisher, if any.
type EventsConfig struct {
	Provider     string `mapstructure:"provider"`
	ProjectID    string `mapstructure:"project_id"`
	TopicName    string `mapstructure:"topic_name"`
	RedisAddr    string `mapstructure:"redis_addr"`
	StreamPrefix string `mapstructure:"stream_prefix"`
	StreamMaxLen int64  `mapstructure:"stream_max_len"`
}

// ArchiveConfig selects where raw provider payloads are kept.
type ArchiveConfig struct {
	Provider  string `mapstructure:"provider"`
	Dir       string `mapstructure:"dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SCORELINE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("providers.espn.timeout_seconds", 10)
	v.SetDefault("providers.espn.requests_per_second", 4)
	v.SetDefault("providers.balldontlie.enabled", false)
	v.SetDefault("providers.balldontlie.timeout_seconds", 10)
	v.SetDefault("providers.balldontlie.requests_per_second", 1)
	v.SetDefault("providers.balldontlie.max_pages", 10)
	v.SetDefault("cache.live_ttl_seconds", 15)
	v.SetDefault("cache.static_ttl_seconds", 60)
	v.SetDefault("cache.sweep_interval_seconds", 300)
	v.SetDefault("sync.days_back", 7)
	v.SetDefault("sync.days_ahead", 14)
	v.SetDefault("sync.live_interval_seconds", 15)
	v.SetDefault("sync.idle_interval_seconds", 60)
	v.SetDefault("sync.fetch_timeout_seconds", 10)
	v.SetDefault("sync.enabled_sports", []string{
		"soccer", "basketball-college", "basketball-pro",
		"baseball", "football", "motorsport",
	})
	v.SetDefault("store.provider", "memory")
	v.SetDefault("events.provider", "none")
	v.SetDefault("events.stream_prefix", "scoreline.games")
	v.SetDefault("archive.provider", "none")
	v.SetDefault("archive.prefix", "payloads")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Cache.LiveTTLSeconds <= 0 || c.Cache.StaticTTLSeconds <= 0 {
		return fmt.Errorf("cache TTLs must be > 0")
	}
	if c.Sync.DaysBack < 0 || c.Sync.DaysAhead < 0 {
		return fmt.Errorf("sync window must not be negative")
	}
	if len(c.Sync.EnabledSports) == 0 {
		return fmt.Errorf("sync.enabled_sports must not be empty")
	}
	for _, s := range c.Sync.EnabledSports {
		if _, err := scoreboard.ParseSport(s); err != nil {
			return fmt.Errorf("sync.enabled_sports: %w", err)
		}
	}
	switch c.Store.Provider {
	case "memory":
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn must be set when store.provider is postgres")
		}
	default:
		return fmt.Errorf("unknown store.provider %q", c.Store.Provider)
	}
	switch c.Events.Provider {
	case "none":
	case "pubsub":
		if c.Events.ProjectID == "" || c.Events.TopicName == "" {
			return fmt.Errorf("events.project_id and events.topic_name must be set for pubsub")
		}
	case "redis":
		if c.Events.RedisAddr == "" {
			return fmt.Errorf("events.redis_addr must be set for redis")
		}
	default:
		return fmt.Errorf("unknown events.provider %q", c.Events.Provider)
	}
	switch c.Archive.Provider {
	case "none", "memory":
	case "local":
		if c.Archive.Dir == "" {
			return fmt.Errorf("archive.dir must be set when archive.provider is local")
		}
	case "gcs":
		if c.Archive.GCSBucket == "" {
			return fmt.Errorf("archive.gcs_bucket must be set when archive.provider is gcs")
		}
	default:
		return fmt.Errorf("unknown archive.provider %q", c.Archive.Provider)
	}
	return nil
}

// EnabledSports returns the parsed sports the sync loops should run.
func (c Config) EnabledSports() []scoreboard.Sport {
	out := make([]scoreboard.Sport, 0, len(c.Sync.EnabledSports))
	for _, s := range c.Sync.EnabledSports {
		sport, err := scoreboard.ParseSport(s)
		if err != nil {
			continue
		}
		out = append(out, sport)
	}
	return out
}

// SyncConfigFor resolves the effective cadence for one sport, applying any
// per-sport override on top of the defaults.
func (c Config) SyncConfigFor(sport scoreboard.Sport) (daysBack, daysAhead int, live, idle, fetchTimeout time.Duration) {
	daysBack = c.Sync.DaysBack
	daysAhead = c.Sync.DaysAhead
	liveSec := c.Sync.LiveIntervalSeconds
	idleSec := c.Sync.IdleIntervalSeconds
	if override, ok := c.Sports[string(sport)]; ok {
		if override.DaysBack > 0 {
			daysBack = override.DaysBack
		}
		if override.DaysAhead > 0 {
			daysAhead = override.DaysAhead
		}
		if override.LiveIntervalSeconds > 0 {
			liveSec = override.LiveIntervalSeconds
		}
		if override.IdleIntervalSeconds > 0 {
			idleSec = override.IdleIntervalSeconds
		}
	}
	live = time.Duration(liveSec) * time.Second
	idle = time.Duration(idleSec) * time.Second
	fetchTimeout = time.Duration(c.Sync.FetchTimeoutSeconds) * time.Second
	return daysBack, daysAhead, live, idle, fetchTimeout
}
