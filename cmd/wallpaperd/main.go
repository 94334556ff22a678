package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"
	"github.com/joho/godotenv"

	httpadapter "github.com/osikes/hemisphere/internal/adapter/http"
	kafkaadapter "github.com/osikes/hemisphere/internal/adapter/kafka"
	"github.com/osikes/hemisphere/internal/adapter/rainviewer"
	"github.com/osikes/hemisphere/internal/adapter/tiles"
	"github.com/osikes/hemisphere/internal/compositor"
	"github.com/osikes/hemisphere/internal/config"
	"github.com/osikes/hemisphere/internal/generator"
	"github.com/osikes/hemisphere/internal/observability"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	feed := rainviewer.NewClient(cfg.FeedURL, cfg.FeedTimeout, logger, metrics)
	fetcher := tiles.NewFetcher(cfg.TileTimeout, cfg.MaxConcurrentFetches, cfg.TileCacheSize, logger, metrics)
	store := generator.NewMemoryStore()

	// Event sinks: logging is always on, Kafka is feature-flagged via
	// KAFKA_BROKERS / EVENTS_ENABLED.
	sinks := generator.MultiSink{generator.SlogSink{Logger: logger}}
	var publisher *kafkaadapter.Publisher
	if cfg.EventsEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, logger)
		sinks = append(sinks, publisher)
		logger.Info("kafka event publishing enabled", "topic", cfg.KafkaEventsTopic, "brokers", cfg.KafkaBrokers)
	} else {
		logger.Info("kafka event publishing disabled")
	}

	coordinator := generator.New(generator.Deps{
		Feed:       feed,
		Tiles:      fetcher,
		Compositor: compositor.New(logger),
		Base:       compositor.SolidBase{},
		Applier:    store,
		Events:     sinks,
		Templates: generator.Templates{
			Base:      tiles.Template(cfg.BaseTileTemplate),
			Radar:     tiles.Template(cfg.RadarTileTemplate),
			Satellite: tiles.Template(cfg.SatelliteTileTemplate),
			Color:     cfg.ColorScheme,
		},
		Logger:  logger,
		Metrics: metrics,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, coordinator, store, store, cfg.Request, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Generate at startup, then on every refresh tick. API requests go
	// through the same coordinator and coalesce with the ticker's.
	go func() {
		coordinator.Request(ctx, cfg.Request())

		ticker := clockwork.NewRealClock().NewTicker(cfg.RefreshInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				coordinator.Request(ctx, cfg.Request())
			}
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
