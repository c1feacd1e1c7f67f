package scoring

import (
	"regexp"
	"sort"
	"strings"

	"github.com/nakurusafety/incident-analytics/internal/domain"
)

// Urgency signal weights.
const (
	weightCriticalKeywords = 70
	weightUrgentKeywords   = 40
	weightHighEmotion      = 15
	weightTimeSensitive    = 20
	weightHighRiskLocation = 10

	// urgencyFloor excludes low-signal reports from the anomaly list.
	urgencyFloor = 40
)

// Keyword tables are checked for both languages regardless of the report's
// declared language: a Kiswahili report quoting an English threat still
// needs to surface.
var (
	criticalKeywords = []*regexp.Regexp{
		regexp.MustCompile(`\b(murder|rape|gun|weapon|knife|kill|death|bomb|shot|shooting|stabbing)\b`),
		regexp.MustCompile(`\b(mauaji|ubakaji|bunduki|silaha|kisu|kuua|kifo|bomu|risasi)\b`),
	}

	urgentKeywords = []*regexp.Regexp{
		regexp.MustCompile(`\b(emergency|urgent|help|attack|violence|fire|accident|danger|bleeding)\b`),
		regexp.MustCompile(`\b(dharura|haraka|msaada|shambulio|jeuri|moto|ajali|hatari|damu)\b`),
	}

	timePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(now|currently|happening|ongoing|right\s*now)\b`),
		regexp.MustCompile(`\b(sasa|inaendelea|inatokea|hivi\s*sasa)\b`),
	}
)

// highRiskLocations are substrings marking high-traffic places where
// incidents endanger more people.
var highRiskLocations = []string{"school", "hospital", "market", "cbd", "bank", "station"}

// DetectAnomalies scores each report for urgency and returns the reports
// at or above the urgency floor, sorted by descending clamped score with
// input order breaking ties. Verdicts are ephemeral; callers recompute
// them per view.
func DetectAnomalies(reports []domain.Report) []domain.AnomalyVerdict {
	if len(reports) == 0 {
		return nil
	}

	verdicts := make([]domain.AnomalyVerdict, 0, len(reports))
	for _, report := range reports {
		score, reasons := scoreUrgency(report)
		if score < urgencyFloor {
			continue
		}

		priority := domain.PriorityHigh
		if score >= weightCriticalKeywords {
			priority = domain.PriorityCritical
		}

		verdicts = append(verdicts, domain.AnomalyVerdict{
			Report:       report,
			UrgencyScore: min(score, 100),
			Priority:     priority,
			Reasons:      reasons,
		})
	}

	sort.SliceStable(verdicts, func(i, j int) bool {
		return verdicts[i].UrgencyScore > verdicts[j].UrgencyScore
	})
	return verdicts
}

// scoreUrgency accumulates the raw (unclamped) urgency score for a report.
func scoreUrgency(report domain.Report) (int, []string) {
	description := strings.ToLower(report.Description)
	location := strings.ToLower(report.ManualLocation)

	score := 0
	var reasons []string

	if matchAny(criticalKeywords, description) {
		score += weightCriticalKeywords
		reasons = append(reasons, "Critical keywords detected")
	}

	// The urgent check only fires when the critical one has not already
	// pushed the score to its weight.
	if score < weightCriticalKeywords && matchAny(urgentKeywords, description) {
		score += weightUrgentKeywords
		reasons = append(reasons, "Urgent keywords detected")
	}

	if strings.Count(description, "!") >= 3 {
		score += weightHighEmotion
		reasons = append(reasons, "High emotion detected")
	}

	if matchAny(timePatterns, description) {
		score += weightTimeSensitive
		reasons = append(reasons, "Time-sensitive incident")
	}

	for _, area := range highRiskLocations {
		if strings.Contains(location, area) {
			score += weightHighRiskLocation
			reasons = append(reasons, "High-traffic location")
			break
		}
	}

	return score, reasons
}

func matchAny(patterns []*regexp.Regexp, text string) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}
