//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/nakurusafety/incident-analytics/internal/domain"
	"github.com/nakurusafety/incident-analytics/internal/geo"
	"github.com/nakurusafety/incident-analytics/internal/lang"
	"github.com/nakurusafety/incident-analytics/internal/observability"
	"github.com/nakurusafety/incident-analytics/internal/pipeline"
	"github.com/nakurusafety/incident-analytics/internal/scoring"
)

// startKafka launches a single-node Kafka container and returns its broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx,
		"confluentinc/confluent-local:7.5.0",
		tckafka.WithClusterID("test-cluster"),
	)
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "resolve kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic via the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "resolve controller")

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTransformer wires the transformer exactly as the service does, minus
// the remote geocoding and translation backends.
func newTransformer(metrics *observability.Metrics) *pipeline.ReportTransformer {
	logger := discardLogger()
	settings := &domain.StaticSettings{Settings: domain.DefaultSettings()}

	gazetteer := geo.NewMatcher()
	resolver := geo.NewResolver(gazetteer, nil, 0, logger, metrics)
	detector := lang.NewDetector(nil, 0, logger, metrics)
	scorer := scoring.NewSpamScorer(gazetteer, resolver, settings, metrics)
	return pipeline.NewTransformer(detector, resolver, scorer, logger)
}

// sampleRecords returns a fixed batch of raw submissions: two genuine
// reports with resolvable locations, one with reported coordinates, and
// one obvious junk submission that should be auto-rejected.
func sampleRecords() []domain.RawReportRecord {
	return []domain.RawReportRecord{
		{
			Category:       "theft",
			Description:    "My phone was stolen by two men at the market entrance this morning",
			ManualLocation: "Wakulima Market",
			Constituency:   "Nakuru Town East",
			Language:       "en",
			CreatedAt:      "2025-03-10T08:00:00Z",
		},
		{
			Category:       "assault",
			Description:    "Nimeshambuliwa na kikundi cha vijana karibu na stendi ya mabasi jana usiku",
			ManualLocation: "Nakuru Bus Station",
			Constituency:   "Nakuru Town East",
			CreatedAt:      "2025-03-10T21:00:00Z",
		},
		{
			Category:       "vandalism",
			Description:    "Street lights along the highway were smashed overnight near the stage",
			ManualLocation: "Free Area",
			Constituency:   "Nakuru Town East",
			Lat:            "-0.295",
			Lon:            "36.095",
			Language:       "en",
			CreatedAt:      "2025-03-11T06:30:00Z",
		},
		{
			Category:       "other",
			Description:    "test test test",
			ManualLocation: "x",
			Constituency:   "Nakuru Town East",
			Language:       "en",
			CreatedAt:      "2025-03-11T07:00:00Z",
		},
	}
}
