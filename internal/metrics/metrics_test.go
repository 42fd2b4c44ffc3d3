package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

// TestObservationsNeedNoSetup exercises every helper without any prior
// registration call; the collectors must be usable from package load.
func TestObservationsNeedNoSetup(t *testing.T) {
	require.NotPanics(t, func() {
		ObserveTick("soccer", false)
		ObserveTick("soccer", true)
		ObserveDateFailure("soccer")
		ObserveGameChanged("soccer")
		ObserveStatusRegression("soccer")
		ObserveEventPublished("soccer")
		ObserveEventsDropped(3)
		ObserveCacheHit("live")
		ObserveCacheMiss("static")
		ObserveCacheSharedFetch()
		ObserveFetch("espn", 120*time.Millisecond)
		IncMergeViews()
		DecMergeViews()
		ObserveHTTPRequest("GET", "/v1/sports/{sport}/games", 200, 5*time.Millisecond)
	})

	require.Equal(t, float64(0), testutil.ToFloat64(mergeViewsActive))
	require.GreaterOrEqual(t, testutil.ToFloat64(cacheSharedFetchesTotal), float64(1))
	require.GreaterOrEqual(t, testutil.ToFloat64(changeEventsDroppedTotal), float64(3))
}
