package analytics

import (
	"time"

	"github.com/nakurusafety/incident-analytics/internal/domain"
)

// DefaultTrendWindowDays is the recent window when no setting is supplied.
const DefaultTrendWindowDays = 7

// NeutralPeakHour is reported when no reports carry timestamps to rank.
const NeutralPeakHour = 12

// NeutralTrendSummary is the answer for an empty batch: no counts, a stable
// direction, and midday as the peak hour placeholder.
func NeutralTrendSummary() domain.TrendSummary {
	return domain.TrendSummary{
		Total:              0,
		Recent:             0,
		Trend:              domain.TrendStable,
		Categories:         map[string]int{},
		PeakHour:           NeutralPeakHour,
		MostCommonCategory: domain.NoCategory,
	}
}

// AnalyzeTrends summarizes a batch of reports over a recent window of
// windowDays: total and recent counts, a trend direction comparing the
// recent daily rate against the overall daily rate, per-category counts,
// the peak reporting hour, and the dominant category.
//
// A report with a missing or unparseable created_at counts as created now,
// so it always lands inside the recent window.
func AnalyzeTrends(reports []domain.Report, windowDays int) domain.TrendSummary {
	if windowDays <= 0 {
		windowDays = DefaultTrendWindowDays
	}
	if len(reports) == 0 {
		return NeutralTrendSummary()
	}

	now := domain.Now()
	cutoff := now.Add(-time.Duration(windowDays) * 24 * time.Hour)

	var hourly [24]int
	categories := make(map[string]int, 8)
	var categoryOrder []string
	recent := 0
	oldest := now

	for _, r := range reports {
		ts := parseReportTime(r.CreatedAt, now)
		hourly[ts.Hour()]++
		if !ts.Before(cutoff) {
			recent++
		}
		if ts.Before(oldest) {
			oldest = ts
		}

		cat := r.Category
		if cat == "" {
			cat = "Unknown"
		}
		if _, seen := categories[cat]; !seen {
			categoryOrder = append(categoryOrder, cat)
		}
		categories[cat]++
	}

	total := len(reports)

	// Direction needs at least two points to mean anything.
	trend := domain.TrendStable
	if total >= 2 {
		totalDays := int(now.Sub(oldest).Hours() / 24)
		if totalDays < 1 {
			totalDays = 1
		}
		recentRate := float64(recent) / float64(windowDays)
		overallRate := float64(total) / float64(totalDays)
		switch {
		case recentRate > overallRate*1.2:
			trend = domain.TrendIncreasing
		case recentRate < overallRate*0.8:
			trend = domain.TrendDecreasing
		}
	}

	peak := 0
	for h := 1; h < 24; h++ {
		if hourly[h] > hourly[peak] {
			peak = h
		}
	}

	mostCommon := domain.NoCategory
	best := 0
	for _, cat := range categoryOrder {
		if categories[cat] > best {
			best = categories[cat]
			mostCommon = cat
		}
	}

	return domain.TrendSummary{
		Total:              total,
		Recent:             recent,
		Trend:              trend,
		Categories:         categories,
		PeakHour:           peak,
		MostCommonCategory: mostCommon,
	}
}

// parseReportTime accepts RFC 3339 as well as the zone-less form the web
// forms historically submitted.
func parseReportTime(value string, fallback time.Time) time.Time {
	if value == "" {
		return fallback
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	if ts, err := time.Parse("2006-01-02T15:04:05", value); err == nil {
		return ts
	}
	return fallback
}
