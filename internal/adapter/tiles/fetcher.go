// Package tiles downloads map tile images over HTTP with bounded
// concurrency, tolerating individual tile failures.
package tiles

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"sync"
	"time"

	// Tile servers answer with PNG or JPEG payloads.
	_ "image/jpeg"
	_ "image/png"

	"github.com/osikes/hemisphere/internal/domain"
	"github.com/osikes/hemisphere/internal/observability"
)

// Fetcher is the tile fetch pool: it fans one request per tile out across a
// bounded number of goroutines, joins on all of them, and returns only the
// tiles that downloaded and decoded successfully. A failed tile (malformed
// URL, transport error, non-success status, undecodable payload, timeout) is
// logged and omitted; it never fails the layer.
type Fetcher struct {
	httpClient    *http.Client
	maxConcurrent int
	cache         *imageCache
	logger        *slog.Logger
	metrics       *observability.Metrics
}

// NewFetcher creates a fetch pool. timeout bounds each individual tile
// download so one stalled server cannot stall a whole generation. cacheSize
// of 0 disables the decoded-tile cache.
func NewFetcher(timeout time.Duration, maxConcurrent, cacheSize int, logger *slog.Logger, metrics *observability.Metrics) *Fetcher {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	f := &Fetcher{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        64,
				MaxIdleConnsPerHost: 16,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		maxConcurrent: maxConcurrent,
		logger:        logger,
		metrics:       metrics,
	}
	if cacheSize > 0 {
		f.cache = newImageCache(cacheSize)
	}
	return f
}

// FetchLayer downloads every tile in coords for one layer. It blocks until
// all outstanding requests finish, then returns the successes. Order of the
// result follows completion order and carries no meaning; the compositor's
// pixel placement depends only on each tile's coordinate.
func (f *Fetcher) FetchLayer(ctx context.Context, coords []domain.TileCoordinate, urlFor URLFunc, layer domain.Layer) []domain.FetchedTile {
	if len(coords) == 0 {
		return nil
	}
	f.metrics.TilesPerLayer.WithLabelValues(string(layer)).Observe(float64(len(coords)))

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		fetched = make([]domain.FetchedTile, 0, len(coords))
	)
	sem := make(chan struct{}, f.maxConcurrent)

	for _, coord := range coords {
		wg.Add(1)
		sem <- struct{}{}
		go func(coord domain.TileCoordinate) {
			defer wg.Done()
			defer func() { <-sem }()

			start := time.Now()
			img, err := f.fetchTile(ctx, urlFor, coord)
			f.metrics.TileFetchDuration.WithLabelValues(string(layer)).Observe(time.Since(start).Seconds())
			if err != nil {
				f.logger.Warn("tile fetch failed, dropping tile",
					"layer", layer, "tile", coord.String(), "error", err)
				f.metrics.TilesFetched.WithLabelValues(string(layer), "error").Inc()
				return
			}
			f.metrics.TilesFetched.WithLabelValues(string(layer), "success").Inc()

			mu.Lock()
			fetched = append(fetched, domain.FetchedTile{Coord: coord, Layer: layer, Image: img})
			mu.Unlock()
		}(coord)
	}
	wg.Wait()

	return fetched
}

// fetchTile downloads and decodes a single tile. Decode is all-or-nothing:
// a partially readable payload is treated as a failure.
func (f *Fetcher) fetchTile(ctx context.Context, urlFor URLFunc, coord domain.TileCoordinate) (image.Image, error) {
	tileURL, err := urlFor(coord)
	if err != nil {
		return nil, err
	}

	if f.cache != nil {
		if img, ok := f.cache.get(tileURL); ok {
			return img, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	// OSM and friends reject requests without an identifying agent.
	req.Header.Set("User-Agent", "hemisphere-wallpaper/1.0")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tile request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("tile server error: status %s", resp.Status)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode tile: %w", err)
	}

	if f.cache != nil {
		f.cache.put(tileURL, img)
	}
	return img, nil
}
