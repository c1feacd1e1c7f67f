// Package lang distinguishes the platform's two supported languages,
// English ("en") and Kiswahili ("sw"), and drives display translation.
package lang

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/nakurusafety/incident-analytics/internal/observability"
)

// Supported language codes.
const (
	English   = "en"
	Kiswahili = "sw"
)

// DefaultCacheSize bounds the detection result cache.
const DefaultCacheSize = 200

// swahiliIndicators are common Kiswahili words: verbs, pronouns,
// crime-reporting vocabulary, time and location words, possessives.
var swahiliIndicators = wordSet(
	"ni", "na", "wa", "kwa", "ya", "cha", "za",
	"mimi", "wewe", "yeye", "sisi", "ninyi", "wao",
	"hii", "hiyo", "hizo", "yule", "huyu", "wale", "hawa",
	"watu", "mtu", "kitu", "vitu", "mahali", "wakati",
	"polisi", "usalama", "tukio", "uhalifu", "ajali",
	"tafadhali", "asante", "habari", "jambo", "karibu", "samahani",
	"sasa", "leo", "jana", "kesho", "juzi", "asubuhi", "jioni",
	"hapa", "pale", "kule", "mbali",
	"kuna", "hakuna", "ndiyo", "hapana", "kwamba", "lakini",
	"yake", "yangu", "yako", "yetu", "yenu", "yao",
	"nimewona", "nimesikia", "ninaomba", "nataka", "nina",
	"ameua", "ameibiwa", "amelipuka", "amepigwa",
)

// englishIndicators are function words that rarely appear in Kiswahili.
var englishIndicators = wordSet(
	"the", "and", "are", "was", "were", "been", "being",
	"have", "has", "had", "having", "can", "could", "would",
	"should", "will", "shall", "may", "might", "must",
	"this", "that", "these", "those", "there", "where",
	"what", "when", "why", "how", "which", "who", "whom",
)

// swahiliPatterns match morphology typical of Kiswahili: preposition + noun
// pairs, verb prefixes, and common suffixes.
var swahiliPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bni\s+\w+`),
	regexp.MustCompile(`\bna\s+\w+`),
	regexp.MustCompile(`\bkwa\s+\w+`),
	regexp.MustCompile(`\bya\s+\w+`),
	regexp.MustCompile(`(ame|ana|ta)\w+`),
	regexp.MustCompile(`\w+(ni|na|li|wa|ya|cha|za)$`),
}

// RemoteIdentifier asks an external service to identify a language.
type RemoteIdentifier interface {
	Detect(ctx context.Context, text string) (string, error)
}

// Detector classifies text as English or Kiswahili. It tries the remote
// identifier first and falls back to a layered local heuristic. Detection
// is deterministic and side-effect free; results are cached by input text.
type Detector struct {
	remote  RemoteIdentifier
	cache   *lru.Cache[string, string]
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewDetector creates a Detector. Pass a nil remote to detect with the
// local heuristic only.
func NewDetector(remote RemoteIdentifier, cacheSize int, logger *slog.Logger, metrics *observability.Metrics) *Detector {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, _ := lru.New[string, string](cacheSize)
	return &Detector{
		remote:  remote,
		cache:   cache,
		logger:  logger,
		metrics: metrics,
	}
}

// Detect returns "en" or "sw" for the given text. Blank text defaults to
// English. Detect never fails: remote errors fall through to the heuristic.
func (d *Detector) Detect(ctx context.Context, text string) string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return English
	}

	if code, ok := d.cache.Get(trimmed); ok {
		d.metrics.LanguageDetections.WithLabelValues("cache").Inc()
		return code
	}

	if code, ok := d.detectRemote(ctx, trimmed); ok {
		d.metrics.LanguageDetections.WithLabelValues("remote").Inc()
		d.cache.Add(trimmed, code)
		return code
	}

	code := detectHeuristic(trimmed)
	d.metrics.LanguageDetections.WithLabelValues("heuristic").Inc()
	d.cache.Add(trimmed, code)
	return code
}

// detectRemote maps a remote identification onto the supported pair.
// Ambiguous or unsupported labels are treated as a miss so the heuristic
// decides.
func (d *Detector) detectRemote(ctx context.Context, text string) (string, bool) {
	if d.remote == nil {
		return "", false
	}
	detected, err := d.remote.Detect(ctx, text)
	if err != nil {
		d.logger.Warn("remote language detection failed", "error", err)
		return "", false
	}
	switch detected {
	case "sw", "swahili", "kiswahili":
		return Kiswahili, true
	case "en", "english":
		return English, true
	}
	return "", false
}

// detectHeuristic applies the layered local classifier:
//
//  1. Kiswahili wins on 2+ indicator words or a 20% indicator fraction.
//  2. English wins on 3+ indicator words or a 30% indicator fraction.
//  3. Kiswahili wins on 2+ distinct morphological pattern matches.
//  4. Default English.
func detectHeuristic(text string) string {
	lower := strings.ToLower(text)
	words := strings.Fields(lower)
	if len(words) == 0 {
		return English
	}

	swCount, enCount := 0, 0
	for _, w := range words {
		clean := stripPunct(w)
		if swahiliIndicators[clean] {
			swCount++
		}
		if englishIndicators[clean] {
			enCount++
		}
	}

	total := float64(len(words))
	if swCount >= 2 || float64(swCount)/total >= 0.20 {
		return Kiswahili
	}
	if enCount >= 3 || float64(enCount)/total >= 0.30 {
		return English
	}

	patternMatches := 0
	for _, p := range swahiliPatterns {
		if p.MatchString(lower) {
			patternMatches++
		}
	}
	if patternMatches >= 2 {
		return Kiswahili
	}

	return English
}

// stripPunct keeps only letters and digits, so "sasa!" matches "sasa".
func stripPunct(w string) string {
	var b strings.Builder
	for _, r := range w {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
