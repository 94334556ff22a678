// Package generator coordinates wallpaper generation: it serializes
// requests, runs the feed-fetch, tile-fetch, composite pipeline, and applies
// the finished image.
package generator

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/osikes/hemisphere/internal/adapter/tiles"
	"github.com/osikes/hemisphere/internal/compositor"
	"github.com/osikes/hemisphere/internal/domain"
	"github.com/osikes/hemisphere/internal/observability"
	"github.com/osikes/hemisphere/internal/projector"
)

// mosaicMinZoom is the zoom floor for mosaic base grids, so even
// continent-scale regions get a dense enough tile grid for the base layer.
const mosaicMinZoom = 4

// FeedClient resolves the current overlay frames. Implementations never fail
// the caller; an unreachable feed yields an empty frame set.
type FeedClient interface {
	Fetch(ctx context.Context) domain.WeatherFrameSet
}

// TileFetcher downloads one layer's tiles, dropping failures.
type TileFetcher interface {
	FetchLayer(ctx context.Context, coords []domain.TileCoordinate, urlFor tiles.URLFunc, layer domain.Layer) []domain.FetchedTile
}

// ImageCompositor renders the fetched layers onto a canvas.
type ImageCompositor interface {
	Compose(in compositor.Input) (image.Image, error)
}

// BaseSource produces the base snapshot for non-mosaic styles.
type BaseSource interface {
	BaseSnapshot(req domain.GenerationRequest) (image.Image, error)
}

// Applier receives the finished wallpaper. A failed apply fails the
// generation; the previously applied wallpaper stays in place.
type Applier interface {
	Apply(ctx context.Context, img image.Image, req domain.GenerationRequest) error
}

// EventSink receives generation lifecycle events. Publish errors are logged
// and never fail a generation.
type EventSink interface {
	Publish(ctx context.Context, ev domain.GenerationEvent) error
}

// Templates carries the bound tile URL patterns for each layer plus the
// radar color scheme.
type Templates struct {
	Base      tiles.Template
	Radar     tiles.Template
	Satellite tiles.Template
	Color     string
}

// Deps wires the coordinator's collaborators.
type Deps struct {
	Feed       FeedClient
	Tiles      TileFetcher
	Compositor ImageCompositor
	Base       BaseSource
	Applier    Applier
	Events     EventSink
	Templates  Templates
	Logger     *slog.Logger
	Metrics    *observability.Metrics
}

// Coordinator serializes generations. At most one pipeline runs at a time;
// requests arriving mid-flight collapse into a single pending slot where the
// latest request wins. A finished generation whose epoch was overtaken by a
// newer request is not applied.
type Coordinator struct {
	feed       FeedClient
	tiles      TileFetcher
	compositor ImageCompositor
	base       BaseSource
	applier    Applier
	events     EventSink
	templates  Templates
	logger     *slog.Logger
	metrics    *observability.Metrics

	mu         sync.Mutex
	generating bool
	pending    *domain.GenerationRequest
	epoch      uint64
}

func New(deps Deps) *Coordinator {
	return &Coordinator{
		feed:       deps.Feed,
		tiles:      deps.Tiles,
		compositor: deps.Compositor,
		base:       deps.Base,
		applier:    deps.Applier,
		events:     deps.Events,
		templates:  deps.Templates,
		logger:     deps.Logger,
		metrics:    deps.Metrics,
	}
}

// Request asks for a generation with the given parameters. If a generation
// is already running, the request is parked in the pending slot (replacing
// any earlier parked request) and picked up when the current run finishes.
// Request never blocks on the pipeline itself.
func (c *Coordinator) Request(ctx context.Context, req domain.GenerationRequest) {
	c.mu.Lock()
	c.epoch++
	if c.generating {
		c.pending = &req
		c.mu.Unlock()
		c.metrics.RequestsCoalesced.Inc()
		c.logger.Debug("generation in flight, request parked", "style", req.Style, "region", req.Region.Name)
		return
	}
	c.generating = true
	epoch := c.epoch
	c.mu.Unlock()

	// Generations outlive their trigger (an HTTP handler returning 202, a
	// ticker firing); once started, a run goes to completion.
	go c.run(context.WithoutCancel(ctx), req, epoch)
}

// Render runs one generation synchronously. Used by the one-shot binary;
// the serving path goes through Request.
func (c *Coordinator) Render(ctx context.Context, req domain.GenerationRequest) error {
	c.mu.Lock()
	c.epoch++
	epoch := c.epoch
	c.mu.Unlock()
	return c.generate(ctx, req, epoch)
}

// run drains the pending slot: it generates, then loops while new requests
// arrived during the run, so a burst of N requests costs at most two
// generations.
func (c *Coordinator) run(ctx context.Context, req domain.GenerationRequest, epoch uint64) {
	for {
		if err := c.generate(ctx, req, epoch); err != nil {
			c.logger.Error("generation failed", "error", err, "style", req.Style, "region", req.Region.Name)
		}

		c.mu.Lock()
		if c.pending == nil {
			c.generating = false
			c.mu.Unlock()
			return
		}
		req = *c.pending
		c.pending = nil
		epoch = c.epoch
		c.mu.Unlock()
	}
}

// generate runs one full pipeline pass. Overlay problems degrade the output;
// only canvas, base-snapshot, compose, and apply errors are fatal.
func (c *Coordinator) generate(ctx context.Context, req domain.GenerationRequest, epoch uint64) error {
	start := time.Now()
	c.metrics.GenerationInFlight.Set(1)
	defer c.metrics.GenerationInFlight.Set(0)

	c.emit(ctx, domain.GenerationEvent{Kind: domain.EventStarted, Epoch: epoch, Style: req.Style, Region: req.Region.Name})

	size := req.PixelSize()
	frames := c.feed.Fetch(ctx)

	minZoom := 0
	if req.Style.Mosaic() {
		minZoom = mosaicMinZoom
	}
	coords := projector.TileSet(req.Region, size.AspectRatio(), minZoom)

	input := compositor.Input{Size: size, Region: req.Region, Style: req.Style}

	if req.Style.Mosaic() {
		input.BaseTiles = c.tiles.FetchLayer(ctx, coords, c.templates.Base.Bind("", ""), domain.LayerBase)
		if len(input.BaseTiles) == 0 {
			c.degrade(ctx, epoch, req, domain.LayerBase, "no base tiles fetched", 0, len(coords))
		}
	} else {
		snapshot, err := c.base.BaseSnapshot(req)
		if err != nil {
			return c.fail(ctx, epoch, req, start, err)
		}
		input.BaseSnapshot = snapshot
	}

	if req.SatelliteEnabled {
		input.SatelliteTiles = c.fetchOverlay(ctx, epoch, req, coords, domain.LayerSatellite,
			c.templates.Satellite, frames.SatellitePath, frames.HasSatellite())
	}
	if req.RadarEnabled {
		input.RadarTiles = c.fetchOverlay(ctx, epoch, req, coords, domain.LayerRadar,
			c.templates.Radar, frames.RadarPath, frames.HasRadar())
	}

	img, err := c.compositor.Compose(input)
	if err != nil {
		return c.fail(ctx, epoch, req, start, err)
	}

	// A request that arrived while this run was in flight has bumped the
	// epoch; its result is about to be generated, so this one is stale.
	c.mu.Lock()
	superseded := c.epoch != epoch
	c.mu.Unlock()
	if superseded {
		c.metrics.GenerationsTotal.WithLabelValues("superseded").Inc()
		c.emit(ctx, domain.GenerationEvent{
			Kind: domain.EventSuperseded, Epoch: epoch, Style: req.Style, Region: req.Region.Name,
			Reason: "newer request arrived during generation", Duration: time.Since(start).Seconds(),
		})
		c.logger.Info("generation superseded, skipping apply", "epoch", epoch)
		return nil
	}

	if err := c.applier.Apply(ctx, img, req); err != nil {
		return c.fail(ctx, epoch, req, start, err)
	}

	elapsed := time.Since(start)
	c.metrics.GenerationsTotal.WithLabelValues("success").Inc()
	c.metrics.GenerationDuration.Observe(elapsed.Seconds())
	c.emit(ctx, domain.GenerationEvent{
		Kind: domain.EventFinished, Epoch: epoch, Style: req.Style, Region: req.Region.Name,
		Duration: elapsed.Seconds(),
	})
	c.logger.Info("wallpaper generated",
		"style", req.Style, "region", req.Region.Name,
		"size", size, "duration", elapsed)
	return nil
}

// fetchOverlay downloads one overlay layer, emitting a degraded event when
// the feed offered no frame or every tile failed.
func (c *Coordinator) fetchOverlay(ctx context.Context, epoch uint64, req domain.GenerationRequest, coords []domain.TileCoordinate, layer domain.Layer, tpl tiles.Template, framePath string, available bool) []domain.FetchedTile {
	if !available {
		c.degrade(ctx, epoch, req, layer, "feed offered no frame", 0, 0)
		return nil
	}

	fetched := c.tiles.FetchLayer(ctx, coords, tpl.Bind(framePath, c.templates.Color), layer)
	if len(fetched) == 0 {
		c.degrade(ctx, epoch, req, layer, "every tile failed", 0, len(coords))
	}
	return fetched
}

func (c *Coordinator) degrade(ctx context.Context, epoch uint64, req domain.GenerationRequest, layer domain.Layer, reason string, fetched, wanted int) {
	c.metrics.LayersDegraded.WithLabelValues(string(layer)).Inc()
	c.logger.Warn("layer degraded", "layer", layer, "reason", reason)
	c.emit(ctx, domain.GenerationEvent{
		Kind: domain.EventDegraded, Epoch: epoch, Style: req.Style, Region: req.Region.Name,
		Layer: layer, Reason: reason, TilesFetched: fetched, TilesWanted: wanted,
	})
}

func (c *Coordinator) fail(ctx context.Context, epoch uint64, req domain.GenerationRequest, start time.Time, err error) error {
	c.metrics.GenerationsTotal.WithLabelValues("failed").Inc()
	c.emit(ctx, domain.GenerationEvent{
		Kind: domain.EventFailed, Epoch: epoch, Style: req.Style, Region: req.Region.Name,
		Error: err.Error(), Duration: time.Since(start).Seconds(),
	})
	return err
}

func (c *Coordinator) emit(ctx context.Context, ev domain.GenerationEvent) {
	ev.EmittedAt = domain.Now()
	if err := c.events.Publish(ctx, ev); err != nil {
		c.logger.Warn("event publish failed", "kind", ev.Kind, "error", err)
	}
}
