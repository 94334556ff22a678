// Package rainviewer fetches the public weather-maps feed and selects the
// most recent radar and satellite-infrared frame per layer.
package rainviewer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/osikes/hemisphere/internal/domain"
	"github.com/osikes/hemisphere/internal/observability"
)

// Client implements generator.FeedClient against the RainViewer weather-maps
// API (or any feed with the same shape).
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a weather feed client with a bounded request timeout.
func NewClient(url string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// Fetch returns the freshest frame set. It never fails the caller: network
// errors, non-success statuses, and parse errors all yield an empty frame
// set with a logged diagnostic, because weather overlays are an enhancement
// and their absence must not block wallpaper generation.
func (c *Client) Fetch(ctx context.Context) domain.WeatherFrameSet {
	frames, err := c.fetch(ctx)
	if err != nil {
		c.logger.Warn("weather feed unavailable, proceeding without overlays", "url", c.url, "error", err)
		c.metrics.FeedFetches.WithLabelValues("error").Inc()
		return domain.WeatherFrameSet{}
	}
	c.metrics.FeedFetches.WithLabelValues("success").Inc()
	return frames
}

func (c *Client) fetch(ctx context.Context) (domain.WeatherFrameSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return domain.WeatherFrameSet{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WeatherFrameSet{}, fmt.Errorf("feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return domain.WeatherFrameSet{}, fmt.Errorf("feed API error: status %d: %s", resp.StatusCode, body)
	}

	var f feed
	if err := json.NewDecoder(resp.Body).Decode(&f); err != nil {
		return domain.WeatherFrameSet{}, fmt.Errorf("decode feed: %w", err)
	}

	return f.frameSet(), nil
}

// Feed response types. The radar history ("past") is ordered oldest first;
// the last entry is the most recent frame. The satellite section and its
// infrared list are both optional; any missing shape simply means no
// satellite frame this cycle.

type feed struct {
	Radar struct {
		Past    []frame `json:"past"`
		Nowcast []frame `json:"nowcast"`
	} `json:"radar"`
	Satellite *struct {
		Infrared []frame `json:"infrared"`
	} `json:"satellite"`
}

type frame struct {
	Time int64  `json:"time"`
	Path string `json:"path"`
}

func (f feed) frameSet() domain.WeatherFrameSet {
	var set domain.WeatherFrameSet
	if n := len(f.Radar.Past); n > 0 {
		last := f.Radar.Past[n-1]
		set.RadarPath = last.Path
		set.RadarTime = time.Unix(last.Time, 0).UTC()
	}
	if f.Satellite != nil {
		if n := len(f.Satellite.Infrared); n > 0 {
			last := f.Satellite.Infrared[n-1]
			set.SatellitePath = last.Path
			set.SatelliteTime = time.Unix(last.Time, 0).UTC()
		}
	}
	return set
}
