package pipeline_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nakurusafety/incident-analytics/internal/domain"
	"github.com/nakurusafety/incident-analytics/internal/geo"
	"github.com/nakurusafety/incident-analytics/internal/pipeline"
	"github.com/nakurusafety/incident-analytics/internal/scoring"
)

type stubDetector struct {
	code  string
	calls int
}

func (s *stubDetector) Detect(context.Context, string) string {
	s.calls++
	return s.code
}

func newTestTransformer(detector pipeline.LanguageDetector) *pipeline.ReportTransformer {
	matcher := geo.NewMatcher()
	resolver := geo.NewResolver(matcher, nil, 10, slog.Default(), newTestMetrics())
	scorer := scoring.NewSpamScorer(matcher, resolver, nil, newTestMetrics())
	return pipeline.NewTransformer(detector, resolver, scorer, slog.Default())
}

func rawFromRecord(t *testing.T, rec domain.RawReportRecord) domain.RawReport {
	t.Helper()
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	return domain.RawReport{Value: data}
}

func TestTransform_ReportedCoordinatesKept(t *testing.T) {
	frozen := time.Date(2025, 3, 15, 6, 0, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(frozen))
	t.Cleanup(func() { domain.SetClock(nil) })

	raw := rawFromRecord(t, domain.RawReportRecord{
		Category:       "theft",
		Description:    "My phone was stolen at the market this morning by two men",
		ManualLocation: "Wakulima Market",
		Constituency:   "Nakuru Town East",
		Lat:            "-0.3000",
		Lon:            "36.0900",
		Language:       "en",
		CreatedAt:      "2025-03-10T08:00:00Z",
	})

	out, err := newTestTransformer(nil).Transform(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, domain.GeoSourceReported, out.GeoSource)
	assert.InDelta(t, -0.30, out.Geo.Lat, 0.0001)
	assert.InDelta(t, 36.09, out.Geo.Lon, 0.0001)
	assert.Equal(t, domain.ActionAccept, out.Spam.Action)
	assert.Equal(t, pipeline.StatusPending, out.Status)
	assert.Equal(t, frozen, out.ProcessedAt)
	assert.Equal(t, domain.HotspotKey{
		Constituency: "Nakuru Town East",
		Location:     "Wakulima Market",
	}, out.Hotspot)
	assert.Regexp(t, `^rpt-[0-9a-f]{16}$`, out.ID)
}

func TestTransform_ResolvesMissingCoordinates(t *testing.T) {
	raw := rawFromRecord(t, domain.RawReportRecord{
		Category:       "theft",
		Description:    "My phone was stolen at the market this morning by two men",
		ManualLocation: "Wakulima Market",
		Constituency:   "Nakuru Town East",
		Language:       "en",
	})

	out, err := newTestTransformer(nil).Transform(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, domain.GeoSourceResolved, out.GeoSource)
	assert.InDelta(t, -0.3025, out.Geo.Lat, 0.0001)
	assert.InDelta(t, 36.0795, out.Geo.Lon, 0.0001)
	assert.Equal(t, domain.ActionAccept, out.Spam.Action)
}

func TestTransform_NullCoordinatesTriggerResolution(t *testing.T) {
	raw := rawFromRecord(t, domain.RawReportRecord{
		Category:       "theft",
		Description:    "My phone was stolen at the market this morning by two men",
		ManualLocation: "Wakulima Market",
		Constituency:   "Nakuru Town East",
		Lat:            "0",
		Lon:            "0",
		Language:       "en",
	})

	out, err := newTestTransformer(nil).Transform(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, domain.GeoSourceResolved, out.GeoSource)
}

func TestTransform_UnresolvableLocationPenalized(t *testing.T) {
	raw := rawFromRecord(t, domain.RawReportRecord{
		Category:       "theft",
		Description:    "My phone was stolen at the market this morning by two men",
		ManualLocation: "somewhere far away from here",
		Constituency:   "Nakuru Town East",
		Language:       "en",
	})

	out, err := newTestTransformer(nil).Transform(context.Background(), raw)
	require.NoError(t, err)

	assert.Equal(t, domain.GeoSourceUnresolved, out.GeoSource)
	assert.Zero(t, out.Geo)
	assert.Contains(t, out.Spam.Reasons, "Location not found")
}

func TestTransform_DetectsUndeclaredLanguage(t *testing.T) {
	detector := &stubDetector{code: "sw"}
	raw := rawFromRecord(t, domain.RawReportRecord{
		Category:       "theft",
		Description:    "Nimeibiwa simu yangu sokoni leo asubuhi hapa mjini",
		ManualLocation: "Wakulima Market",
		Constituency:   "Nakuru Town East",
	})

	out, err := newTestTransformer(detector).Transform(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "sw", out.Language)
	assert.Equal(t, 1, detector.calls)
}

func TestTransform_DeclaredLanguageSkipsDetection(t *testing.T) {
	detector := &stubDetector{code: "sw"}
	raw := rawFromRecord(t, domain.RawReportRecord{
		Category:       "theft",
		Description:    "My phone was stolen at the market this morning by two men",
		ManualLocation: "Wakulima Market",
		Constituency:   "Nakuru Town East",
		Language:       "en",
	})

	out, err := newTestTransformer(detector).Transform(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, "en", out.Language)
	assert.Zero(t, detector.calls)
}

func TestTransform_SpamRejectedStatus(t *testing.T) {
	raw := rawFromRecord(t, domain.RawReportRecord{
		Description:    "test test test",
		ManualLocation: "x",
		Language:       "en",
	})

	out, err := newTestTransformer(nil).Transform(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionReject, out.Spam.Action)
	assert.Equal(t, pipeline.StatusRejected, out.Status)
}

func TestTransform_InvalidJSON(t *testing.T) {
	_, err := newTestTransformer(nil).Transform(context.Background(), domain.RawReport{Value: []byte("not json")})
	assert.Error(t, err)
}
