package config

import (
	"testing"
	"time"

	"github.com/osikes/hemisphere/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "https://api.rainviewer.com/public/weather-maps.json", cfg.FeedURL)
	assert.Equal(t, 5*time.Second, cfg.FeedTimeout)
	assert.Equal(t, 10*time.Second, cfg.TileTimeout)
	assert.Equal(t, 8, cfg.MaxConcurrentFetches)
	assert.Equal(t, 256, cfg.TileCacheSize)
	assert.Equal(t, 15*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, domain.StyleSatellite, cfg.Style)
	assert.Equal(t, "continental-us", cfg.Region.Name)
	assert.Equal(t, 2560, cfg.Width)
	assert.Equal(t, 1440, cfg.Height)
	assert.Equal(t, 1.0, cfg.ScaleFactor)
	assert.True(t, cfg.RadarEnabled)
	assert.False(t, cfg.SatelliteEnabled)
	assert.Equal(t, "wallpaper.png", cfg.OutputPath)
	assert.False(t, cfg.EventsEnabled)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "wallpaper-generation-events", cfg.KafkaEventsTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("FEED_URL", "http://localhost:7070/feed.json")
	t.Setenv("FEED_TIMEOUT", "2s")
	t.Setenv("TILE_TIMEOUT", "3s")
	t.Setenv("MAX_CONCURRENT_FETCHES", "16")
	t.Setenv("TILE_CACHE_SIZE", "32")
	t.Setenv("REFRESH_INTERVAL", "5m")
	t.Setenv("STYLE", "dark")
	t.Setenv("REGION", "europe")
	t.Setenv("WIDTH", "1920")
	t.Setenv("HEIGHT", "1080")
	t.Setenv("SCALE_FACTOR", "2")
	t.Setenv("RADAR_ENABLED", "false")
	t.Setenv("SATELLITE_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_EVENTS_TOPIC", "custom-events")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "http://localhost:7070/feed.json", cfg.FeedURL)
	assert.Equal(t, 2*time.Second, cfg.FeedTimeout)
	assert.Equal(t, 3*time.Second, cfg.TileTimeout)
	assert.Equal(t, 16, cfg.MaxConcurrentFetches)
	assert.Equal(t, 32, cfg.TileCacheSize)
	assert.Equal(t, 5*time.Minute, cfg.RefreshInterval)
	assert.Equal(t, domain.StyleDark, cfg.Style)
	assert.Equal(t, "europe", cfg.Region.Name)
	assert.Equal(t, 1920, cfg.Width)
	assert.Equal(t, 1080, cfg.Height)
	assert.Equal(t, 2.0, cfg.ScaleFactor)
	assert.False(t, cfg.RadarEnabled)
	assert.True(t, cfg.SatelliteEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-events", cfg.KafkaEventsTopic)
	assert.True(t, cfg.EventsEnabled)
}

func TestLoad_CustomRegion(t *testing.T) {
	t.Setenv("REGION", "custom")
	t.Setenv("REGION_LAT", "51.5")
	t.Setenv("REGION_LON", "-0.1")
	t.Setenv("REGION_SPAN", "6")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "custom", cfg.Region.Name)
	assert.Equal(t, 51.5, cfg.Region.Lat)
	assert.Equal(t, -0.1, cfg.Region.Lon)
	assert.Equal(t, 6.0, cfg.Region.SpanDegrees)
}

func TestLoad_CustomRegionInvalidSpan(t *testing.T) {
	t.Setenv("REGION", "custom")
	t.Setenv("REGION_LAT", "51.5")
	t.Setenv("REGION_LON", "-0.1")
	// REGION_SPAN unset defaults to zero, which is invalid.
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "span")
}

func TestLoad_UnknownRegion(t *testing.T) {
	t.Setenv("REGION", "atlantis")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REGION")
}

func TestLoad_UnknownStyle(t *testing.T) {
	t.Setenv("STYLE", "sepia")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STYLE")
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeTileTimeout(t *testing.T) {
	t.Setenv("TILE_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TILE_TIMEOUT")
}

func TestLoad_MaxConcurrentFetchesOutOfRange(t *testing.T) {
	t.Setenv("MAX_CONCURRENT_FETCHES", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_CONCURRENT_FETCHES")
}

func TestLoad_TemplateMissingPlaceholder(t *testing.T) {
	t.Setenv("BASE_TILE_TEMPLATE", "https://tiles.example.com/{z}/{x}.png")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "{y}")
}

func TestLoad_EventsEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("EVENTS_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_BrokersImplyEventsEnabled(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.EventsEnabled)
}

func TestLoad_EventsExplicitlyDisabled(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "localhost:9092")
	t.Setenv("EVENTS_ENABLED", "false")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.EventsEnabled)
}

func TestConfig_RequestSnapshot(t *testing.T) {
	t.Setenv("STYLE", "blackout")
	t.Setenv("REGION", "japan")
	t.Setenv("SCALE_FACTOR", "2")

	cfg, err := Load()
	require.NoError(t, err)

	req := cfg.Request()
	assert.Equal(t, domain.StyleBlackout, req.Style)
	assert.Equal(t, "japan", req.Region.Name)
	assert.Equal(t, domain.TargetSize{Width: 2560, Height: 1440}, req.Size)
	assert.Equal(t, domain.TargetSize{Width: 5120, Height: 2880}, req.PixelSize())
}
