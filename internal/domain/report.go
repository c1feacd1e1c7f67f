package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// County bounding box. Coordinates outside this range are treated as
// implausible for every component in the service.
const (
	MinLat = -1.2
	MaxLat = 0.2
	MinLon = 35.7
	MaxLon = 36.5
)

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// InCountyBounds reports whether the pair falls inside the Nakuru County
// bounding box.
func InCountyBounds(lat, lon float64) bool {
	return lat >= MinLat && lat <= MaxLat && lon >= MinLon && lon <= MaxLon
}

// RawReportRecord represents the flat JSON structure produced by the intake
// boundary. Lat and Lon stay strings on purpose: they are raw form values.
type RawReportRecord struct {
	Category       string `json:"category"`
	Description    string `json:"description"`
	ManualLocation string `json:"manual_location"`
	Constituency   string `json:"constituency"`
	Lat            string `json:"lat"`
	Lon            string `json:"lon"`
	Language       string `json:"language"`
	MediaPath      string `json:"media_path"`
	CreatedAt      string `json:"created_at"` // RFC 3339, may be empty
}

// RawReport represents an unprocessed message from the source topic.
type RawReport struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Report is the parsed submission consumed read-only by the scorers and
// analyzers. Coordinate fields keep their raw string form; validation is a
// scoring concern, not a parsing one.
type Report struct {
	Category       string `json:"category"`
	Description    string `json:"description"`
	ManualLocation string `json:"manual_location"`
	Constituency   string `json:"constituency"`
	Lat            string `json:"lat"`
	Lon            string `json:"lon"`
	Language       string `json:"language"`
	MediaPath      string `json:"media_path,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
}

// ParseRawReport deserializes a RawReport's value into a Report.
func ParseRawReport(raw RawReport) (Report, error) {
	var rec RawReportRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return Report{}, fmt.Errorf("parse raw report: %w", err)
	}

	return Report{
		Category:       rec.Category,
		Description:    rec.Description,
		ManualLocation: rec.ManualLocation,
		Constituency:   rec.Constituency,
		Lat:            rec.Lat,
		Lon:            rec.Lon,
		Language:       rec.Language,
		MediaPath:      rec.MediaPath,
		CreatedAt:      rec.CreatedAt,
	}, nil
}

// IsKiswahili reports whether a declared language label selects the
// Kiswahili keyword tables. Everything else falls back to English.
func IsKiswahili(language string) bool {
	return LanguageCode(language) == "sw"
}

// LanguageCode normalizes a language label onto the two supported wire
// codes. Kikuyu maps to Kiswahili, matching the platform's fallback policy;
// anything unrecognized maps to English.
func LanguageCode(label string) string {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "sw", "swahili", "kiswahili", "ki", "kikuyu":
		return "sw"
	}
	return "en"
}

// TranslationUnavailable is the sentinel the translation boundary returns
// when the remote service cannot be reached. It is display text, never an
// error.
const TranslationUnavailable = "[Translation unavailable]"

// Spam verdict actions.
const (
	ActionAccept = "accept"
	ActionReview = "review"
	ActionReject = "reject"
)

// SpamVerdict is the outcome of the rule-based spam checks. The score is an
// unclamped sum of the fired check weights; only Confidence is clamped.
type SpamVerdict struct {
	Score      int      `json:"spam_score"`
	IsSpam     bool     `json:"is_spam"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons"`
	Action     string   `json:"action"`
}

// Anomaly priorities.
const (
	PriorityCritical = "CRITICAL"
	PriorityHigh     = "HIGH"
	PriorityMedium   = "MEDIUM"
)

// AnomalyVerdict flags a report as urgent. UrgencyScore is clamped to
// [0, 100]; Priority derives from the raw score before clamping.
type AnomalyVerdict struct {
	Report       Report   `json:"report"`
	UrgencyScore int      `json:"urgency_score"`
	Priority     string   `json:"priority"`
	Reasons      []string `json:"reasons"`
}

// Hotspot is the location-level incident aggregate read back from the
// persistence collaborator.
type Hotspot struct {
	Constituency  string    `json:"constituency"`
	Location      string    `json:"location"`
	Lat           float64   `json:"lat"`
	Lon           float64   `json:"lon"`
	IncidentCount int       `json:"incident_count"`
	LastIncident  time.Time `json:"last_incident,omitzero"`
}

// HotspotKey identifies the aggregate a scored report belongs to. The
// persistence collaborator uses it for its increment-or-insert.
type HotspotKey struct {
	Constituency string `json:"constituency"`
	Location     string `json:"location"`
}

// ClusterAssignment labels a hotspot with a flat cluster number.
type ClusterAssignment struct {
	Hotspot Hotspot `json:"hotspot"`
	Label   int     `json:"label"`
}

// Density risk levels.
const (
	RiskLow      = "LOW"
	RiskMedium   = "MEDIUM"
	RiskHigh     = "HIGH"
	RiskCritical = "CRITICAL"
)

// DensityResult reports how many hotspots (including the point itself) fall
// within the density radius of a point.
type DensityResult struct {
	Hotspot   Hotspot `json:"hotspot"`
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Density   int     `json:"density"`
	RiskLevel string  `json:"risk_level"`
}

// Trend directions.
const (
	TrendIncreasing = "increasing"
	TrendDecreasing = "decreasing"
	TrendStable     = "stable"
)

// NoCategory is the sentinel for a batch with no categories at all.
const NoCategory = "none"

// TrendSummary aggregates a report batch over a time window.
type TrendSummary struct {
	Total              int            `json:"total"`
	Recent             int            `json:"recent"`
	Trend              string         `json:"trend"`
	Categories         map[string]int `json:"categories"`
	PeakHour           int            `json:"peak_hour"`
	MostCommonCategory string         `json:"most_common_category"`
}

// Recommendation types, in their fixed emission order.
const (
	RecHighDensityPatrol = "HIGH_DENSITY_PATROL"
	RecPeakHourCoverage  = "PEAK_HOUR_COVERAGE"
	RecCategoryFocus     = "CATEGORY_FOCUS"
	RecTrendAlert        = "TREND_ALERT"
	RecUrgentResponse    = "URGENT_RESPONSE"
)

// Recommendation is one ranked patrol action for the dashboard.
type Recommendation struct {
	Type       string          `json:"type"`
	Priority   string          `json:"priority"`
	Message    string          `json:"message"`
	Locations  []DensityResult `json:"locations,omitempty"`
	TimeWindow string          `json:"time_window,omitempty"`
	Category   string          `json:"category,omitempty"`
}

// Geo resolution sources stamped onto scored reports.
const (
	GeoSourceReported   = "reported"
	GeoSourceResolved   = "resolved"
	GeoSourceUnresolved = "unresolved"
)

// ScoredReport is the pipeline output destined for the sink topic: the
// report enriched with coordinates, its spam verdict, and the hotspot key
// the persistence collaborator increments.
type ScoredReport struct {
	ID             string      `json:"id"`
	Category       string      `json:"category"`
	Description    string      `json:"description"`
	ManualLocation string      `json:"manual_location"`
	Constituency   string      `json:"constituency"`
	Language       string      `json:"language"`
	Geo            Geo         `json:"geo"`
	GeoSource      string      `json:"geo_source"`
	MediaPath      string      `json:"media_path,omitempty"`
	Spam           SpamVerdict `json:"spam"`
	Status         string      `json:"status"`
	Hotspot        HotspotKey  `json:"hotspot"`
	CreatedAt      string      `json:"created_at,omitempty"`
	ProcessedAt    time.Time   `json:"processed_at"`

	RawPayload []byte `json:"-"`
}

// OutputReport is the serialized form destined for the sink topic.
type OutputReport struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// GenerateID produces a deterministic ID from the report's key fields.
// Deterministic IDs enable idempotent upserts downstream and replay safety
// without distributed coordination.
func GenerateID(r Report) string {
	input := fmt.Sprintf("%s|%s|%s|%s|%s", r.Category, r.Constituency, r.ManualLocation, r.CreatedAt, r.Description)
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])
	return "rpt-" + short
}

// SerializeScoredReport marshals a scored report into an output message.
func SerializeScoredReport(r ScoredReport) (OutputReport, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return OutputReport{}, fmt.Errorf("serialize scored report: %w", err)
	}
	return OutputReport{
		Key:   []byte(r.ID),
		Value: data,
		Headers: map[string]string{
			"action":       r.Spam.Action,
			"processed_at": r.ProcessedAt.Format(time.RFC3339),
		},
	}, nil
}
