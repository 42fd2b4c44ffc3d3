// Package postgres implements the game store on a Postgres pool.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scoreline/scoreline/internal/scoreboard"
	"github.com/scoreline/scoreline/internal/timeutil"
)

// Config controls the Postgres connection pool.
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Store persists canonical game records in a games table.
type Store struct {
	pool querier
}

// New connects a pool using the provided config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(pool querier) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &Store{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the games table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	query := `
CREATE TABLE IF NOT EXISTS games (
	sport         TEXT        NOT NULL,
	event_id      TEXT        NOT NULL,
	game_date     TEXT        NOT NULL,
	status        TEXT        NOT NULL,
	status_detail TEXT        NOT NULL DEFAULT '',
	period        INTEGER     NOT NULL DEFAULT 0,
	clock         TEXT        NOT NULL DEFAULT '',
	home_team     JSONB       NOT NULL,
	away_team     JSONB       NOT NULL,
	venue         TEXT        NOT NULL DEFAULT '',
	broadcast     TEXT        NOT NULL DEFAULT '',
	kickoff       TIMESTAMPTZ NOT NULL,
	extra         JSONB,
	revision      BIGINT      NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (sport, event_id)
);
CREATE INDEX IF NOT EXISTS games_date_idx ON games (sport, game_date);`
	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const upsertQuery = `
INSERT INTO games (
	sport, event_id, game_date, status, status_detail, period, clock,
	home_team, away_team, venue, broadcast, kickoff, extra, revision, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,1,$14)
ON CONFLICT (sport, event_id) DO UPDATE SET
	status = EXCLUDED.status,
	status_detail = EXCLUDED.status_detail,
	period = EXCLUDED.period,
	clock = EXCLUDED.clock,
	home_team = EXCLUDED.home_team,
	away_team = EXCLUDED.away_team,
	venue = EXCLUDED.venue,
	broadcast = EXCLUDED.broadcast,
	kickoff = EXCLUDED.kickoff,
	extra = EXCLUDED.extra,
	revision = games.revision + 1,
	updated_at = EXCLUDED.updated_at
WHERE games.updated_at <= EXCLUDED.updated_at
	AND (games.status, games.status_detail, games.period, games.clock,
	     games.home_team, games.away_team, games.extra)
	    IS DISTINCT FROM
	    (EXCLUDED.status, EXCLUDED.status_detail, EXCLUDED.period, EXCLUDED.clock,
	     EXCLUDED.home_team, EXCLUDED.away_team, EXCLUDED.extra)
RETURNING revision, updated_at`

// Upsert writes the record if it differs from the stored row. The guard
// clause makes the write a no-op both for identical payloads and for
// observations older than the stored one, so retried and overlapping ticks
// never move a record backwards.
func (s *Store) Upsert(ctx context.Context, game scoreboard.Game) (scoreboard.Game, bool, error) {
	if err := game.Validate(); err != nil {
		return scoreboard.Game{}, false, err
	}
	homeJSON, err := json.Marshal(game.HomeTeam)
	if err != nil {
		return scoreboard.Game{}, false, fmt.Errorf("marshal home team: %w", err)
	}
	awayJSON, err := json.Marshal(game.AwayTeam)
	if err != nil {
		return scoreboard.Game{}, false, fmt.Errorf("marshal away team: %w", err)
	}

	row := s.pool.QueryRow(ctx, upsertQuery,
		string(game.Sport),
		game.ID,
		timeutil.GameDate(game.Kickoff),
		string(game.Status),
		game.StatusDetail,
		game.Period,
		game.Clock,
		homeJSON,
		awayJSON,
		game.Venue,
		game.Broadcast,
		game.Kickoff,
		[]byte(game.Extra),
		game.UpdatedAt,
	)
	if err := row.Scan(&game.Revision, &game.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// The guard rejected the write; report the stored row.
			current, getErr := s.Get(ctx, game.Sport, game.ID)
			if getErr != nil {
				return scoreboard.Game{}, false, getErr
			}
			return current, false, nil
		}
		return scoreboard.Game{}, false, fmt.Errorf("upsert game: %w", err)
	}
	return game, true, nil
}

const selectColumns = `
	sport, event_id, status, status_detail, period, clock,
	home_team, away_team, venue, broadcast, kickoff, extra, revision, updated_at`

// Get returns one record or scoreboard.ErrNotFound.
func (s *Store) Get(ctx context.Context, sport scoreboard.Sport, id string) (scoreboard.Game, error) {
	query := `SELECT` + selectColumns + ` FROM games WHERE sport = $1 AND event_id = $2`
	row := s.pool.QueryRow(ctx, query, string(sport), id)
	game, err := scanGame(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return scoreboard.Game{}, scoreboard.ErrNotFound
		}
		return scoreboard.Game{}, fmt.Errorf("get game: %w", err)
	}
	return game, nil
}

// ListByDate returns the games for one local game date, ordered by kickoff
// then id for a stable response.
func (s *Store) ListByDate(ctx context.Context, sport scoreboard.Sport, date string) ([]scoreboard.Game, error) {
	query := `SELECT` + selectColumns + `
	FROM games WHERE sport = $1 AND game_date = $2 ORDER BY kickoff, event_id`
	rows, err := s.pool.Query(ctx, query, string(sport), date)
	if err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	defer rows.Close()

	games := make([]scoreboard.Game, 0)
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("scan game: %w", err)
		}
		games = append(games, game)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list games: %w", err)
	}
	return games, nil
}

// AnyInProgress reports whether any stored game for the sport is live.
func (s *Store) AnyInProgress(ctx context.Context, sport scoreboard.Sport) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM games WHERE sport = $1 AND status = $2)`
	var live bool
	if err := s.pool.QueryRow(ctx, query, string(sport), string(scoreboard.StatusInProgress)).Scan(&live); err != nil {
		return false, fmt.Errorf("check in-progress: %w", err)
	}
	return live, nil
}

func scanGame(row pgx.Row) (scoreboard.Game, error) {
	var (
		game     scoreboard.Game
		sport    string
		status   string
		homeJSON []byte
		awayJSON []byte
		extra    []byte
	)
	err := row.Scan(
		&sport,
		&game.ID,
		&status,
		&game.StatusDetail,
		&game.Period,
		&game.Clock,
		&homeJSON,
		&awayJSON,
		&game.Venue,
		&game.Broadcast,
		&game.Kickoff,
		&extra,
		&game.Revision,
		&game.UpdatedAt,
	)
	if err != nil {
		return scoreboard.Game{}, err
	}
	game.Sport = scoreboard.Sport(sport)
	game.Status = scoreboard.GameStatus(status)
	if err := json.Unmarshal(homeJSON, &game.HomeTeam); err != nil {
		return scoreboard.Game{}, fmt.Errorf("unmarshal home team: %w", err)
	}
	if err := json.Unmarshal(awayJSON, &game.AwayTeam); err != nil {
		return scoreboard.Game{}, fmt.Errorf("unmarshal away team: %w", err)
	}
	if len(extra) > 0 {
		game.Extra = json.RawMessage(extra)
	}
	return game, nil
}
