package geo

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nakurusafety/incident-analytics/internal/domain"
	"github.com/nakurusafety/incident-analytics/internal/observability"
)

type fakeRemote struct {
	queries []string
	results map[string]domain.Geo
	err     error
}

func (f *fakeRemote) Search(_ context.Context, query string) (domain.Geo, bool, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return domain.Geo{}, false, f.err
	}
	g, ok := f.results[query]
	return g, ok, nil
}

func newTestResolver(remote RemoteGeocoder) *Resolver {
	r := NewResolver(NewMatcher(), remote, 10, slog.Default(), observability.NewMetricsForTesting())
	r.retryWait = 0
	r.errWait = 0
	return r
}

func TestResolver_GazetteerFastPath(t *testing.T) {
	remote := &fakeRemote{}
	r := newTestResolver(remote)

	g, ok := r.Resolve(context.Background(), "Wakulima Market", "Nakuru Town East", 3)
	require.True(t, ok)
	assert.InDelta(t, -0.3025, g.Lat, 0.0001)
	assert.Empty(t, remote.queries, "gazetteer hits never reach the network")
}

func TestResolver_PrimaryThenBroadenedQuery(t *testing.T) {
	remote := &fakeRemote{
		results: map[string]domain.Geo{
			"Kiti Plains, Nakuru, Kenya": {Lat: -0.32, Lon: 36.10},
		},
	}
	r := newTestResolver(remote)

	g, ok := r.Resolve(context.Background(), "Kiti Plains", "Nakuru Town East", 3)
	require.True(t, ok)
	assert.InDelta(t, -0.32, g.Lat, 0.0001)
	require.Len(t, remote.queries, 2)
	assert.Equal(t, "Kiti Plains, Nakuru Town East, Nakuru County, Kenya", remote.queries[0])
	assert.Equal(t, "Kiti Plains, Nakuru, Kenya", remote.queries[1])
}

func TestResolver_EmptyConstituencyDefaults(t *testing.T) {
	remote := &fakeRemote{}
	r := newTestResolver(remote)

	_, ok := r.Resolve(context.Background(), "Kiti Plains", "", 1)
	assert.False(t, ok)
	require.NotEmpty(t, remote.queries)
	assert.Equal(t, "Kiti Plains, Nakuru, Nakuru County, Kenya", remote.queries[0])
}

func TestResolver_RejectsOutOfCountyResults(t *testing.T) {
	// Nairobi coordinates come back for every query.
	remote := &fakeRemote{
		results: map[string]domain.Geo{
			"Kiti Plains, Nakuru Town East, Nakuru County, Kenya": {Lat: -1.2833, Lon: 36.8167},
			"Kiti Plains, Nakuru, Kenya":                          {Lat: -1.2833, Lon: 36.8167},
		},
	}
	r := newTestResolver(remote)

	_, ok := r.Resolve(context.Background(), "Kiti Plains", "Nakuru Town East", 2)
	assert.False(t, ok)
}

func TestResolver_RetriesBroadenedOnly(t *testing.T) {
	remote := &fakeRemote{}
	r := newTestResolver(remote)

	_, ok := r.Resolve(context.Background(), "Kiti Plains", "Nakuru Town East", 3)
	assert.False(t, ok)
	// Attempt 0: primary + broadened. Attempts 1 and 2: broadened only.
	require.Len(t, remote.queries, 4)
	assert.Equal(t, "Kiti Plains, Nakuru, Kenya", remote.queries[2])
	assert.Equal(t, "Kiti Plains, Nakuru, Kenya", remote.queries[3])
}

func TestResolver_TransportErrorNeverSurfaces(t *testing.T) {
	remote := &fakeRemote{err: errors.New("connection refused")}
	r := newTestResolver(remote)

	g, ok := r.Resolve(context.Background(), "Kiti Plains", "Nakuru Town East", 2)
	assert.False(t, ok)
	assert.Zero(t, g)
}

func TestResolver_CachesSuccessfulResolutions(t *testing.T) {
	remote := &fakeRemote{
		results: map[string]domain.Geo{
			"Kiti Plains, Nakuru, Kenya": {Lat: -0.32, Lon: 36.10},
		},
	}
	r := newTestResolver(remote)

	_, ok := r.Resolve(context.Background(), "Kiti Plains", "Nakuru Town East", 3)
	require.True(t, ok)
	callsAfterFirst := len(remote.queries)

	g, ok := r.Resolve(context.Background(), "Kiti Plains", "Nakuru Town East", 3)
	require.True(t, ok)
	assert.InDelta(t, -0.32, g.Lat, 0.0001)
	assert.Len(t, remote.queries, callsAfterFirst, "second call served from cache")
}

func TestResolver_NilRemote(t *testing.T) {
	r := newTestResolver(nil)

	_, ok := r.Resolve(context.Background(), "Kiti Plains", "Nakuru Town East", 3)
	assert.False(t, ok)

	g, ok := r.Resolve(context.Background(), "stage", "", 3)
	require.True(t, ok)
	assert.InDelta(t, -0.3035, g.Lat, 0.0001)
}

func TestResolver_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	remote := &fakeRemote{}
	r := newTestResolver(remote)
	r.retryWait = 1 // non-zero so the sleep path sees the cancelled context

	_, ok := r.Resolve(ctx, "Kiti Plains", "Nakuru Town East", 3)
	assert.False(t, ok)
}
