// Package scoring implements the rule-based spam and urgency scorers.
//
// Both scorers are total functions: malformed input degrades to a penalty
// or a skipped signal, never an error. Weights and keyword tables are the
// operational values the county reviewed; changing them changes moderation
// outcomes, so they live here as named constants rather than configuration.
package scoring

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/nakurusafety/incident-analytics/internal/domain"
	"github.com/nakurusafety/incident-analytics/internal/geo"
	"github.com/nakurusafety/incident-analytics/internal/observability"
)

// Spam check weights.
const (
	weightTestKeywords   = 50
	weightPromo          = 50
	weightShortDesc      = 40
	weightFewWords       = 30
	weightBadLocation    = 30
	weightUnknownPlace   = 20
	weightNullCoords     = 20
	weightOutsideCounty  = 30
	weightBadCoordFormat = 20
	weightRepetition     = 25
)

var (
	testKeywordsEn = regexp.MustCompile(`\b(test|testing|asdf|qwerty|spam|fake|xxx|dummy|sample|trial|check)\b`)
	testKeywordsSw = regexp.MustCompile(`\b(jaribio|majaribio|bandia|uwongo|fake|test|kujaribu)\b`)

	promoPatternEn = regexp.MustCompile(`(buy|sale|discount|click\s*here|www\.|http|offer|deal|cheap|visit|order)`)
	promoPatternSw = regexp.MustCompile(`(nunua|uza|punguzo|bonyeza\s*hapa|bei\s*nafuu|ofa|tembelea)`)
)

// LocationResolver is the resolution chain the location validity check
// consults after the gazetteer misses.
type LocationResolver interface {
	Resolve(ctx context.Context, text, constituency string, retries int) (domain.Geo, bool)
}

// SpamScorer scores reports for spam likelihood.
type SpamScorer struct {
	gazetteer *geo.Matcher
	resolver  LocationResolver
	settings  domain.SettingsProvider
	metrics   *observability.Metrics
}

// NewSpamScorer creates a SpamScorer. A nil resolver limits the location
// check to the gazetteer; a nil settings provider applies the defaults.
func NewSpamScorer(gazetteer *geo.Matcher, resolver LocationResolver, settings domain.SettingsProvider, metrics *observability.Metrics) *SpamScorer {
	return &SpamScorer{
		gazetteer: gazetteer,
		resolver:  resolver,
		settings:  settings,
		metrics:   metrics,
	}
}

// Score runs every spam check against the report and derives the verdict.
// Each check fires at most once; the final score is the unclamped sum and
// the reasons list preserves check evaluation order.
func (s *SpamScorer) Score(ctx context.Context, report domain.Report) domain.SpamVerdict {
	settings := domain.SettingsOrDefault(ctx, s.settings)

	description := strings.ToLower(report.Description)
	location := strings.ToLower(report.ManualLocation)
	kiswahili := domain.IsKiswahili(report.Language)

	score := 0
	reasons := []string{}

	// Check 1: test/spam keywords.
	if pickPattern(kiswahili, testKeywordsSw, testKeywordsEn).MatchString(description) {
		score += weightTestKeywords
		reasons = append(reasons, "Contains test/spam keywords")
	}

	// Check 2: promotional content.
	if pickPattern(kiswahili, promoPatternSw, promoPatternEn).MatchString(description) {
		score += weightPromo
		reasons = append(reasons, "Promotional content detected")
	}

	// Check 3: description quality. Length check wins over word count.
	if utf8.RuneCountInString(description) < 15 {
		score += weightShortDesc
		reasons = append(reasons, "Description too short")
	} else if len(strings.Fields(description)) < 5 {
		score += weightFewWords
		reasons = append(reasons, "Too few words")
	}

	// Check 4: location validation.
	if utf8.RuneCountInString(location) < 3 {
		score += weightBadLocation
		reasons = append(reasons, "Invalid location")
	} else if !s.resolvable(ctx, location, report.Constituency) {
		score += weightUnknownPlace
		reasons = append(reasons, "Location not found")
	}

	// Check 5: GPS validation. Only runs when both form fields are filled.
	if report.Lat != "" && report.Lon != "" {
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(report.Lat), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(report.Lon), 64)
		switch {
		case errLat != nil || errLon != nil:
			score += weightBadCoordFormat
			reasons = append(reasons, "Invalid GPS format")
		case lat == 0 && lon == 0:
			score += weightNullCoords
			reasons = append(reasons, "Null coordinates")
		case !domain.InCountyBounds(lat, lon):
			score += weightOutsideCounty
			reasons = append(reasons, "Outside Nakuru County")
		}
	}

	// Check 6: any character repeated six or more times in a row.
	if hasRepeatedRun(description, 6) {
		score += weightRepetition
		reasons = append(reasons, "Excessive repetition")
	}

	isSpam := score >= settings.SpamThreshold
	action := domain.ActionAccept
	switch {
	case score >= settings.AutoRejectThreshold:
		action = domain.ActionReject
	case isSpam:
		action = domain.ActionReview
	}

	if s.metrics != nil {
		s.metrics.SpamDecisions.WithLabelValues(action).Inc()
	}

	return domain.SpamVerdict{
		Score:      score,
		IsSpam:     isSpam,
		Confidence: min(float64(score)/100, 1.0),
		Reasons:    reasons,
		Action:     action,
	}
}

// resolvable checks the gazetteer first, then the full resolution chain.
func (s *SpamScorer) resolvable(ctx context.Context, location, constituency string) bool {
	if _, _, ok := s.gazetteer.Match(location); ok {
		return true
	}
	if s.resolver == nil {
		return false
	}
	_, ok := s.resolver.Resolve(ctx, location, constituency, geo.DefaultRetries)
	return ok
}

func pickPattern(kiswahili bool, sw, en *regexp.Regexp) *regexp.Regexp {
	if kiswahili {
		return sw
	}
	return en
}

// hasRepeatedRun reports whether any rune repeats at least n times
// consecutively. Go's regexp has no backreferences, so this is a scan.
func hasRepeatedRun(s string, n int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev {
			run++
		} else {
			prev = r
			run = 1
		}
		if run >= n {
			return true
		}
	}
	return false
}
