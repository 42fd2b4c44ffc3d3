package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/scoreline/scoreline/internal/merge"
	"github.com/scoreline/scoreline/internal/scoreboard"
	"github.com/scoreline/scoreline/internal/sync"
	"github.com/scoreline/scoreline/internal/timeutil"
)

type gamesResponse struct {
	Sport string            `json:"sport"`
	Date  string            `json:"date"`
	State string            `json:"state"`
	Games []scoreboard.Game `json:"games"`
	Sync  *sync.Status      `json:"sync,omitempty"`
}

func (s *Server) listSports(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sports": scoreboard.Sports()})
}

// listGames returns the games for one sport and date. A date with no games
// is a 200 with an empty list; only a load failure produces an error status,
// so the two cases are never conflated.
func (s *Server) listGames(w http.ResponseWriter, r *http.Request) {
	sport, ok := s.parseSport(w, r)
	if !ok {
		return
	}
	date, ok := s.parseDate(w, r)
	if !ok {
		return
	}

	var (
		games []scoreboard.Game
		state = merge.StateReady
	)
	if s.views != nil {
		view := s.views.ViewFor(sport, date)
		if view.State().Kind == merge.StateLoading {
			// First reader of this scope; wait for the initial baseline.
			if err := view.RefreshNow(r.Context()); err != nil {
				writeError(w, http.StatusGatewayTimeout, "timed out loading games")
				return
			}
		}
		vs := view.State()
		if vs.Kind == merge.StateFailed {
			s.logger.Error("list games failed",
				zap.String("sport", string(sport)), zap.String("date", date),
				zap.String("cause", vs.LastError))
			writeError(w, http.StatusBadGateway, "failed to load games")
			return
		}
		games = view.Games()
		state = vs.Kind
	} else {
		stored, err := s.store.ListByDate(r.Context(), sport, date)
		if err != nil {
			s.logger.Error("list games failed",
				zap.String("sport", string(sport)), zap.String("date", date), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to load games")
			return
		}
		games = stored
	}
	if games == nil {
		games = []scoreboard.Game{}
	}

	resp := gamesResponse{Sport: string(sport), Date: date, State: string(state), Games: games}
	if s.status != nil {
		if st, ok := s.status.StatusFor(sport); ok {
			resp.Sync = &st
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getGame(w http.ResponseWriter, r *http.Request) {
	sport, ok := s.parseSport(w, r)
	if !ok {
		return
	}
	gameID := chi.URLParam(r, "game_id")

	game, err := s.store.Get(r.Context(), sport, gameID)
	if err != nil {
		if errors.Is(err, scoreboard.ErrNotFound) {
			writeError(w, http.StatusNotFound, "game not found")
			return
		}
		s.logger.Error("get game failed",
			zap.String("sport", string(sport)), zap.String("game_id", gameID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load game")
		return
	}
	writeJSON(w, http.StatusOK, game)
}

func (s *Server) parseSport(w http.ResponseWriter, r *http.Request) (scoreboard.Sport, bool) {
	sport, err := scoreboard.ParseSport(chi.URLParam(r, "sport"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return "", false
	}
	return sport, true
}

func (s *Server) parseDate(w http.ResponseWriter, r *http.Request) (string, bool) {
	date := r.URL.Query().Get("date")
	if date == "" {
		return timeutil.GameDate(s.now()), true
	}
	if _, err := timeutil.ParseDate(date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return "", false
	}
	return date, true
}

func (s *Server) now() time.Time {
	if s.clock != nil {
		return s.clock.Now()
	}
	return time.Now()
}
