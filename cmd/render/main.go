// Command render runs one wallpaper generation and writes the result to
// OUTPUT_PATH, for cron jobs and desktop integration scripts.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

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

	sinks := generator.MultiSink{generator.SlogSink{Logger: logger}}
	var publisher *kafkaadapter.Publisher
	if cfg.EventsEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, logger)
		sinks = append(sinks, publisher)
	}

	coordinator := generator.New(generator.Deps{
		Feed:       rainviewer.NewClient(cfg.FeedURL, cfg.FeedTimeout, logger, metrics),
		Tiles:      tiles.NewFetcher(cfg.TileTimeout, cfg.MaxConcurrentFetches, cfg.TileCacheSize, logger, metrics),
		Compositor: compositor.New(logger),
		Base:       compositor.SolidBase{},
		Applier:    generator.FileApplier{Path: cfg.OutputPath},
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exitCode := 0
	if err := coordinator.Render(ctx, cfg.Request()); err != nil {
		logger.Error("render failed", "error", err)
		exitCode = 1
	} else {
		logger.Info("wallpaper written", "path", cfg.OutputPath)
	}

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}
	os.Exit(exitCode)
}
