package pipeline

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/nakurusafety/incident-analytics/internal/domain"
	"github.com/nakurusafety/incident-analytics/internal/geo"
	"github.com/nakurusafety/incident-analytics/internal/scoring"
)

// Report statuses stamped onto pipeline output. The persistence collaborator
// treats everything except rejected as awaiting review.
const (
	StatusPending  = "pending"
	StatusRejected = "rejected"
)

// LanguageDetector identifies the language of free text.
type LanguageDetector interface {
	Detect(ctx context.Context, text string) string
}

// CoordinateResolver resolves a free-text place name to coordinates.
type CoordinateResolver interface {
	Resolve(ctx context.Context, text, constituency string, retries int) (domain.Geo, bool)
}

// ReportTransformer implements Transformer: parse, detect language if
// undeclared, resolve coordinates if absent, score for spam.
type ReportTransformer struct {
	detector LanguageDetector
	resolver CoordinateResolver
	scorer   *scoring.SpamScorer
	logger   *slog.Logger
}

// NewTransformer creates a ReportTransformer. Pass a nil detector or
// resolver to disable that enrichment.
func NewTransformer(detector LanguageDetector, resolver CoordinateResolver, scorer *scoring.SpamScorer, logger *slog.Logger) *ReportTransformer {
	return &ReportTransformer{
		detector: detector,
		resolver: resolver,
		scorer:   scorer,
		logger:   logger,
	}
}

func (t *ReportTransformer) Transform(ctx context.Context, raw domain.RawReport) (domain.ScoredReport, error) {
	report, err := domain.ParseRawReport(raw)
	if err != nil {
		return domain.ScoredReport{}, err
	}

	if report.Language == "" && t.detector != nil {
		report.Language = t.detector.Detect(ctx, report.Description)
	}

	point, source := t.resolveCoordinates(ctx, &report)

	verdict := t.scorer.Score(ctx, report)

	status := StatusPending
	if verdict.Action == domain.ActionReject {
		status = StatusRejected
	}

	return domain.ScoredReport{
		ID:             domain.GenerateID(report),
		Category:       report.Category,
		Description:    report.Description,
		ManualLocation: report.ManualLocation,
		Constituency:   report.Constituency,
		Language:       report.Language,
		Geo:            point,
		GeoSource:      source,
		MediaPath:      report.MediaPath,
		Spam:           verdict,
		Status:         status,
		Hotspot: domain.HotspotKey{
			Constituency: report.Constituency,
			Location:     report.ManualLocation,
		},
		CreatedAt:   report.CreatedAt,
		ProcessedAt: domain.Now(),
		RawPayload:  raw.Value,
	}, nil
}

// resolveCoordinates decides where the output coordinates come from.
// Submitted coordinates win when both parse and are not the (0, 0) null
// island pair. Absent or null coordinates trigger place-name resolution;
// resolved values are written back onto the report so spam scoring sees
// them. Unparseable submitted values stay untouched for the scorer to
// penalize.
func (t *ReportTransformer) resolveCoordinates(ctx context.Context, report *domain.Report) (domain.Geo, string) {
	if report.Lat != "" && report.Lon != "" {
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(report.Lat), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(report.Lon), 64)
		if errLat != nil || errLon != nil {
			return domain.Geo{}, domain.GeoSourceUnresolved
		}
		if lat != 0 || lon != 0 {
			return domain.Geo{Lat: lat, Lon: lon}, domain.GeoSourceReported
		}
	}

	if t.resolver == nil || strings.TrimSpace(report.ManualLocation) == "" {
		return domain.Geo{}, domain.GeoSourceUnresolved
	}

	point, ok := t.resolver.Resolve(ctx, report.ManualLocation, report.Constituency, geo.DefaultRetries)
	if !ok {
		t.logger.Warn("coordinate resolution failed",
			"location", report.ManualLocation, "constituency", report.Constituency)
		return domain.Geo{}, domain.GeoSourceUnresolved
	}

	report.Lat = strconv.FormatFloat(point.Lat, 'f', -1, 64)
	report.Lon = strconv.FormatFloat(point.Lon, 'f', -1, 64)
	return point, domain.GeoSourceResolved
}
