package analytics

import (
	"context"
	"fmt"
	"strings"

	"github.com/nakurusafety/incident-analytics/internal/domain"
	"github.com/nakurusafety/incident-analytics/internal/scoring"
)

// maxCriticalZones caps how many zones a patrol recommendation names.
const maxCriticalZones = 3

// Engine composes density classification, trend analysis, and anomaly
// detection into patrol recommendations for a region.
type Engine struct {
	settings domain.SettingsProvider
}

// NewEngine returns an Engine reading thresholds from the provider. A nil
// provider means the documented defaults.
func NewEngine(settings domain.SettingsProvider) *Engine {
	return &Engine{settings: settings}
}

// Recommend produces up to five recommendations in a fixed order:
// critical-density patrols, peak-hour coverage, category focus, trend
// alert, urgent response. Peak-hour coverage is always present; the rest
// are conditional on the underlying analysis. Any panic in the composed
// analyses degrades to an empty list.
func (e *Engine) Recommend(ctx context.Context, hotspots []domain.Hotspot, reports []domain.Report, region string) (recs []domain.Recommendation) {
	defer func() {
		if r := recover(); r != nil {
			recs = []domain.Recommendation{}
		}
	}()

	settings := domain.SettingsOrDefault(ctx, e.settings)

	density := Densify(hotspots, DefaultDensityRadius, settings)
	trends := AnalyzeTrends(reports, settings.TrendWindowDays)
	anomalies := scoring.DetectAnomalies(reports)

	recs = make([]domain.Recommendation, 0, 5)

	var critical []domain.DensityResult
	for _, d := range density {
		if d.RiskLevel == domain.RiskCritical {
			critical = append(critical, d)
		}
	}
	if len(critical) > 0 {
		top := critical
		if len(top) > maxCriticalZones {
			top = top[:maxCriticalZones]
		}
		names := make([]string, len(top))
		for i, z := range top {
			names[i] = z.Hotspot.Location
			if names[i] == "" {
				names[i] = "Unknown"
			}
		}
		recs = append(recs, domain.Recommendation{
			Type:      domain.RecHighDensityPatrol,
			Priority:  domain.PriorityCritical,
			Locations: top,
			Message:   fmt.Sprintf("Deploy patrols to %d critical zones: %s", len(critical), strings.Join(names, ", ")),
		})
	}

	peak := trends.PeakHour
	end := (peak + 2) % 24
	recs = append(recs, domain.Recommendation{
		Type:       domain.RecPeakHourCoverage,
		Priority:   domain.PriorityHigh,
		TimeWindow: fmt.Sprintf("%02d:00 - %02d:00", peak, end),
		Message:    fmt.Sprintf("Increase presence during peak hours (%02d:00-%02d:00)", peak, end),
	})

	if trends.MostCommonCategory != domain.NoCategory {
		recs = append(recs, domain.Recommendation{
			Type:     domain.RecCategoryFocus,
			Priority: domain.PriorityMedium,
			Category: trends.MostCommonCategory,
			Message:  fmt.Sprintf("Focus on %s prevention", trends.MostCommonCategory),
		})
	}

	if trends.Trend == domain.TrendIncreasing {
		recs = append(recs, domain.Recommendation{
			Type:     domain.RecTrendAlert,
			Priority: domain.PriorityHigh,
			Message:  fmt.Sprintf("Crime trend is INCREASING in %s", region),
		})
	}

	criticalIncidents := 0
	for _, a := range anomalies {
		if a.Priority == domain.PriorityCritical {
			criticalIncidents++
		}
	}
	if criticalIncidents > 0 {
		recs = append(recs, domain.Recommendation{
			Type:     domain.RecUrgentResponse,
			Priority: domain.PriorityCritical,
			Message:  fmt.Sprintf("%d CRITICAL incidents need immediate attention", criticalIncidents),
		})
	}

	return recs
}
