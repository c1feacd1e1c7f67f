package analytics_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nakurusafety/incident-analytics/internal/analytics"
	"github.com/nakurusafety/incident-analytics/internal/domain"
)

func freezeTime(t *testing.T, at time.Time) {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(at))
	t.Cleanup(func() { domain.SetClock(nil) })
}

func reportAt(category string, ts time.Time) domain.Report {
	return domain.Report{
		Category:    category,
		Description: "incident report",
		CreatedAt:   ts.Format(time.RFC3339),
	}
}

func TestAnalyzeTrends_EmptyBatchNeutralSummary(t *testing.T) {
	got := analytics.AnalyzeTrends(nil, 7)

	want := domain.TrendSummary{
		Total:              0,
		Recent:             0,
		Trend:              domain.TrendStable,
		Categories:         map[string]int{},
		PeakHour:           12,
		MostCommonCategory: domain.NoCategory,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("neutral summary mismatch (-want +got):\n%s", diff)
	}
}

func TestAnalyzeTrends_CountsAndCategories(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	freezeTime(t, now)

	reports := []domain.Report{
		reportAt("theft", now.Add(-24*time.Hour)),
		reportAt("theft", now.Add(-48*time.Hour)),
		reportAt("assault", now.Add(-72*time.Hour)),
		reportAt("theft", now.Add(-20*24*time.Hour)), // outside the window
	}

	got := analytics.AnalyzeTrends(reports, 7)

	assert.Equal(t, 4, got.Total)
	assert.Equal(t, 3, got.Recent)
	assert.Equal(t, map[string]int{"theft": 3, "assault": 1}, got.Categories)
	assert.Equal(t, "theft", got.MostCommonCategory)
}

func TestAnalyzeTrends_PeakHour(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	freezeTime(t, now)

	reports := []domain.Report{
		reportAt("theft", time.Date(2025, 3, 14, 22, 15, 0, 0, time.UTC)),
		reportAt("theft", time.Date(2025, 3, 13, 22, 40, 0, 0, time.UTC)),
		reportAt("theft", time.Date(2025, 3, 13, 9, 5, 0, 0, time.UTC)),
	}

	got := analytics.AnalyzeTrends(reports, 7)
	assert.Equal(t, 22, got.PeakHour)
}

func TestAnalyzeTrends_IncreasingTrend(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	freezeTime(t, now)

	// Ten reports over sixty days, eight of them inside the last week:
	// recent rate 8/7 far exceeds 1.2x the overall rate 10/60.
	reports := []domain.Report{
		reportAt("theft", now.Add(-60*24*time.Hour)),
		reportAt("theft", now.Add(-40*24*time.Hour)),
	}
	for i := 0; i < 8; i++ {
		reports = append(reports, reportAt("theft", now.Add(-time.Duration(i+1)*12*time.Hour)))
	}

	got := analytics.AnalyzeTrends(reports, 7)
	assert.Equal(t, domain.TrendIncreasing, got.Trend)
}

func TestAnalyzeTrends_DecreasingTrend(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	freezeTime(t, now)

	// All activity happened a month ago; nothing recent.
	reports := []domain.Report{
		reportAt("theft", now.Add(-30*24*time.Hour)),
		reportAt("theft", now.Add(-29*24*time.Hour)),
		reportAt("theft", now.Add(-28*24*time.Hour)),
	}

	got := analytics.AnalyzeTrends(reports, 7)
	assert.Equal(t, domain.TrendDecreasing, got.Trend)
}

func TestAnalyzeTrends_SingleReportStaysStable(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	freezeTime(t, now)

	got := analytics.AnalyzeTrends([]domain.Report{reportAt("theft", now)}, 7)
	assert.Equal(t, domain.TrendStable, got.Trend)
}

func TestAnalyzeTrends_MalformedTimestampCountsAsNow(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	freezeTime(t, now)

	reports := []domain.Report{
		{Category: "theft", CreatedAt: "not a timestamp"},
		{Category: "theft", CreatedAt: ""},
	}

	got := analytics.AnalyzeTrends(reports, 7)
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, 2, got.Recent)
	assert.Equal(t, now.Hour(), got.PeakHour)
}

func TestAnalyzeTrends_MissingCategoryBecomesUnknown(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	freezeTime(t, now)

	reports := []domain.Report{
		{CreatedAt: now.Format(time.RFC3339)},
		{CreatedAt: now.Format(time.RFC3339)},
		reportAt("theft", now),
	}

	got := analytics.AnalyzeTrends(reports, 7)
	require.Equal(t, map[string]int{"Unknown": 2, "theft": 1}, got.Categories)
	assert.Equal(t, "Unknown", got.MostCommonCategory)
}

func TestAnalyzeTrends_ZoneLessTimestampAccepted(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	freezeTime(t, now)

	got := analytics.AnalyzeTrends([]domain.Report{
		{Category: "theft", CreatedAt: "2025-03-14T09:30:00"},
	}, 7)

	assert.Equal(t, 9, got.PeakHour)
	assert.Equal(t, 1, got.Recent)
}
