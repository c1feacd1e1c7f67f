// Command genreports generates deterministic citizen report fixtures for the
// test suites. It pushes every generated submission through the actual
// scoring path (gazetteer resolution only, no network) so the scored
// fixture matches real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genreports \
//	  -raw-out data/mock/raw_reports.json \
//	  -scored-out data/mock/scored_reports.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/nakurusafety/incident-analytics/internal/domain"
	"github.com/nakurusafety/incident-analytics/internal/geo"
	"github.com/nakurusafety/incident-analytics/internal/observability"
	"github.com/nakurusafety/incident-analytics/internal/pipeline"
	"github.com/nakurusafety/incident-analytics/internal/scoring"
)

var baseDate = time.Date(2025, time.March, 10, 8, 0, 0, 0, time.UTC)

type template struct {
	category    string
	description string
	location    string
	language    string
}

var templates = []template{
	{"theft", "My phone was snatched by two men on a motorbike near the matatu stage", "Nakuru Town", "en"},
	{"theft", "Nimeibiwa simu yangu sokoni asubuhi leo na vijana wawili", "Wakulima Market", "sw"},
	{"assault", "A man was beaten and robbed outside the bar last night, he is in hospital", "Section 58", "en"},
	{"burglary", "Our house was broken into while we were at church, electronics stolen", "Milimani", "en"},
	{"vandalism", "Street lights along the main road have been destroyed again", "Lanet", "en"},
	{"drugs", "Vijana wanauza dawa za kulevya karibu na shule hapa mtaani", "Flamingo Estate", "sw"},
	{"robbery", "Armed men stopped a boda boda rider and took his motorcycle at gunpoint", "Njoro", "en"},
	{"theft", "Mifugo wameibiwa usiku kutoka boma letu", "Rongai", "sw"},
	{"assault", "There was a violent fight at the market and a trader was badly injured", "Naivasha Town", "en"},
	{"other", "Suspicious group gathering at the abandoned building every evening", "Free Area", "en"},
	// Deliberate junk submissions to exercise the spam path.
	{"other", "test test test", "xx", "en"},
	{"other", "CONGRATULATIONS you have won KSH 1,000,000 click here to claim your prize", "Nakuru Town", "en"},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	rawOut := flag.String("raw-out", "", "output path for the raw submission fixture")
	scoredOut := flag.String("scored-out", "", "output path for the scored report fixture")
	count := flag.Int("count", 60, "number of submissions to generate")
	flag.Parse()

	if *rawOut == "" || *scoredOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -raw-out, -scored-out")
	}

	// Fixed clock for reproducible ProcessedAt timestamps.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2025, time.March, 15, 6, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	metrics := observability.NewMetricsForTesting()
	gazetteer := geo.NewMatcher()
	resolver := geo.NewResolver(gazetteer, nil, 0, logger, metrics)
	scorer := scoring.NewSpamScorer(gazetteer, resolver, nil, metrics)
	transformer := pipeline.NewTransformer(nil, resolver, scorer, logger)

	rng := rand.New(rand.NewSource(42))

	records := make([]domain.RawReportRecord, 0, *count)
	scored := make([]domain.ScoredReport, 0, *count)

	for i := 0; i < *count; i++ {
		tpl := templates[i%len(templates)]
		created := baseDate.Add(time.Duration(rng.Intn(5*24)) * time.Hour)

		rec := domain.RawReportRecord{
			Category:       tpl.category,
			Description:    tpl.description,
			ManualLocation: tpl.location,
			Constituency:   "Nakuru Town East",
			Language:       tpl.language,
			CreatedAt:      created.Format(time.RFC3339),
		}
		records = append(records, rec)

		rawJSON, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}

		out, err := transformer.Transform(context.Background(), domain.RawReport{
			Value:     rawJSON,
			Timestamp: created,
		})
		if err != nil {
			return fmt.Errorf("transform record %d: %w", i, err)
		}
		scored = append(scored, out)
	}

	if err := writeJSON(*rawOut, records); err != nil {
		return fmt.Errorf("writing raw fixture: %w", err)
	}
	log.Printf("wrote raw fixture: %s (%d records)", *rawOut, len(records))

	if err := writeJSON(*scoredOut, scored); err != nil {
		return fmt.Errorf("writing scored fixture: %w", err)
	}
	log.Printf("wrote scored fixture: %s", *scoredOut)

	printStats(scored)
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(scored []domain.ScoredReport) {
	actions := map[string]int{}
	sources := map[string]int{}
	for i := range scored {
		actions[scored[i].Spam.Action]++
		sources[scored[i].GeoSource]++
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total: %d\n", len(scored))
	fmt.Printf("By action: accept=%d, review=%d, reject=%d\n",
		actions[domain.ActionAccept], actions[domain.ActionReview], actions[domain.ActionReject])
	fmt.Printf("By geo source: reported=%d, resolved=%d, unresolved=%d\n",
		sources[domain.GeoSourceReported], sources[domain.GeoSourceResolved], sources[domain.GeoSourceUnresolved])
}
