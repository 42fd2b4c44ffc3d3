package providers

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scoreline/scoreline/internal/scoreboard"
)

type stubAdapter struct {
	name string
}

func (a *stubAdapter) Provider() string { return a.name }

func (a *stubAdapter) FetchScoreboard(context.Context, scoreboard.Sport, string) ([]scoreboard.Game, error) {
	return nil, nil
}

func TestRegistryForSport(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	espn := &stubAdapter{name: "espn"}
	reg.Register(scoreboard.SportSoccer, espn)

	got, err := reg.ForSport(scoreboard.SportSoccer)
	require.NoError(t, err)
	require.Equal(t, "espn", got.Provider())

	_, err = reg.ForSport(scoreboard.SportBaseball)
	require.Error(t, err)
}

func TestRegistryRegisterReplaces(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(scoreboard.SportBasketballPro, &stubAdapter{name: "espn"})
	reg.Register(scoreboard.SportBasketballPro, &stubAdapter{name: "balldontlie"})

	got, err := reg.ForSport(scoreboard.SportBasketballPro)
	require.NoError(t, err)
	require.Equal(t, "balldontlie", got.Provider())
}

func TestRegistrySportsStableOrder(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(scoreboard.SportFootball, &stubAdapter{name: "espn"})
	reg.Register(scoreboard.SportSoccer, &stubAdapter{name: "espn"})
	reg.Register(scoreboard.SportBaseball, &stubAdapter{name: "espn"})

	require.Equal(t, []scoreboard.Sport{
		scoreboard.SportSoccer,
		scoreboard.SportBaseball,
		scoreboard.SportFootball,
	}, reg.Sports())
}

func TestErrorTaxonomy(t *testing.T) {
	t.Parallel()

	fetch := &FetchError{Provider: "espn", StatusCode: 503, Err: errors.New("upstream unavailable")}
	wrapped := fmt.Errorf("sync soccer: %w", fetch)

	fe, ok := AsFetchError(wrapped)
	require.True(t, ok)
	require.Equal(t, 503, fe.StatusCode)
	require.Contains(t, fe.Error(), "status=503")

	_, ok = AsParseError(wrapped)
	require.False(t, ok)

	parse := &ParseError{Provider: "balldontlie", Err: errors.New("unexpected end of JSON input")}
	pe, ok := AsParseError(fmt.Errorf("sync basketball-pro: %w", parse))
	require.True(t, ok)
	require.Equal(t, "balldontlie", pe.Provider)
}
