package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/nakurusafety/incident-analytics/internal/adapter/http"
	kafkaadapter "github.com/nakurusafety/incident-analytics/internal/adapter/kafka"
	"github.com/nakurusafety/incident-analytics/internal/adapter/nominatim"
	"github.com/nakurusafety/incident-analytics/internal/adapter/translate"
	"github.com/nakurusafety/incident-analytics/internal/config"
	"github.com/nakurusafety/incident-analytics/internal/domain"
	"github.com/nakurusafety/incident-analytics/internal/geo"
	"github.com/nakurusafety/incident-analytics/internal/lang"
	"github.com/nakurusafety/incident-analytics/internal/observability"
	"github.com/nakurusafety/incident-analytics/internal/pipeline"
	"github.com/nakurusafety/incident-analytics/internal/scoring"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	settings := &domain.StaticSettings{Settings: cfg.Settings}
	gazetteer := geo.NewMatcher()

	// Remote geocoding is feature-flagged; the gazetteer alone still
	// resolves the common place names.
	var remote geo.RemoteGeocoder
	if cfg.GeocodeEnabled {
		remote = nominatim.NewClient(cfg.GeocodeBaseURL, cfg.GeocodeTimeout, logger)
		logger.Info("remote geocoding enabled", "base_url", cfg.GeocodeBaseURL, "cache_size", cfg.GeocodeCacheSize)
	} else {
		logger.Info("remote geocoding disabled")
	}
	resolver := geo.NewResolver(gazetteer, remote, cfg.GeocodeCacheSize, logger, metrics)

	// Remote language identification rides on the translation service.
	var translateClient *translate.Client
	var identifier lang.RemoteIdentifier
	if cfg.TranslateEnabled {
		translateClient = translate.NewClient(cfg.TranslateBaseURL, cfg.TranslateAPIKey, 0, logger, metrics)
		identifier = translateClient
		logger.Info("translation service enabled", "base_url", cfg.TranslateBaseURL)
	} else {
		logger.Info("translation service disabled")
	}
	detector := lang.NewDetector(identifier, cfg.LanguageCacheSize, logger, metrics)

	var translator *lang.Translator
	if translateClient != nil {
		translator = lang.NewTranslator(translateClient, detector)
	}

	scorer := scoring.NewSpamScorer(gazetteer, resolver, settings, metrics)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(detector, resolver, scorer, logger)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, settings, translator, cfg.Region, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start intake pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
