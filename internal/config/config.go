package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/osikes/hemisphere/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Weather feed.
	FeedURL     string
	FeedTimeout time.Duration

	// Tile URL templates, parameterized by {z}/{x}/{y} and, for overlays,
	// the feed-provided {path} fragment and the fixed {color} scheme.
	BaseTileTemplate      string
	RadarTileTemplate     string
	SatelliteTileTemplate string
	ColorScheme           string

	TileTimeout          time.Duration
	MaxConcurrentFetches int
	TileCacheSize        int

	RefreshInterval time.Duration

	// Wallpaper parameters; together they form the default generation request.
	Style            domain.Style
	Region           domain.Region
	Width            int
	Height           int
	ScaleFactor      float64
	RadarEnabled     bool
	SatelliteEnabled bool

	// Destination for cmd/render.
	OutputPath string

	// Kafka event publishing (feature-flagged via KAFKA_BROKERS / EVENTS_ENABLED).
	KafkaBrokers     []string
	KafkaEventsTopic string
	EventsEnabled    bool
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := durationEnv("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	feedTimeout, err := durationEnv("FEED_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	tileTimeout, err := durationEnv("TILE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	refreshInterval, err := durationEnv("REFRESH_INTERVAL", 15*time.Minute)
	if err != nil {
		return nil, err
	}

	maxFetches, err := intEnv("MAX_CONCURRENT_FETCHES", 8, 1, 64)
	if err != nil {
		return nil, err
	}
	cacheSize, err := intEnv("TILE_CACHE_SIZE", 256, 0, 1<<16)
	if err != nil {
		return nil, err
	}
	width, err := intEnv("WIDTH", 2560, 1, 1<<15)
	if err != nil {
		return nil, err
	}
	height, err := intEnv("HEIGHT", 1440, 1, 1<<15)
	if err != nil {
		return nil, err
	}
	scale, err := floatEnv("SCALE_FACTOR", 1.0)
	if err != nil {
		return nil, err
	}
	if scale <= 0 || scale > 4 {
		return nil, fmt.Errorf("SCALE_FACTOR must be in (0, 4], got %v", scale)
	}

	style, err := domain.ParseStyle(envOrDefault("STYLE", string(domain.StyleSatellite)))
	if err != nil {
		return nil, fmt.Errorf("STYLE: %w", err)
	}

	region, err := loadRegion()
	if err != nil {
		return nil, err
	}

	brokers := parseBrokers(os.Getenv("KAFKA_BROKERS"))
	eventsEnabled := len(brokers) > 0
	if v := os.Getenv("EVENTS_ENABLED"); v != "" {
		eventsEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		FeedURL:     envOrDefault("FEED_URL", "https://api.rainviewer.com/public/weather-maps.json"),
		FeedTimeout: feedTimeout,

		BaseTileTemplate:      envOrDefault("BASE_TILE_TEMPLATE", "https://tile.openstreetmap.org/{z}/{x}/{y}.png"),
		RadarTileTemplate:     envOrDefault("RADAR_TILE_TEMPLATE", "https://tilecache.rainviewer.com{path}/256/{z}/{x}/{y}/{color}/1_1.png"),
		SatelliteTileTemplate: envOrDefault("SATELLITE_TILE_TEMPLATE", "https://tilecache.rainviewer.com{path}/256/{z}/{x}/{y}/0/0_0.png"),
		ColorScheme:           envOrDefault("COLOR_SCHEME", "4"),

		TileTimeout:          tileTimeout,
		MaxConcurrentFetches: maxFetches,
		TileCacheSize:        cacheSize,

		RefreshInterval: refreshInterval,

		Style:            style,
		Region:           region,
		Width:            width,
		Height:           height,
		ScaleFactor:      scale,
		RadarEnabled:     boolEnv("RADAR_ENABLED", true),
		SatelliteEnabled: boolEnv("SATELLITE_ENABLED", false),

		OutputPath: envOrDefault("OUTPUT_PATH", "wallpaper.png"),

		KafkaBrokers:     brokers,
		KafkaEventsTopic: envOrDefault("KAFKA_EVENTS_TOPIC", "wallpaper-generation-events"),
		EventsEnabled:    eventsEnabled,
	}

	if cfg.FeedURL == "" {
		return nil, fmt.Errorf("FEED_URL is required")
	}
	for _, tpl := range []struct{ name, value string }{
		{"BASE_TILE_TEMPLATE", cfg.BaseTileTemplate},
		{"RADAR_TILE_TEMPLATE", cfg.RadarTileTemplate},
		{"SATELLITE_TILE_TEMPLATE", cfg.SatelliteTileTemplate},
	} {
		if err := validateTemplate(tpl.name, tpl.value); err != nil {
			return nil, err
		}
	}
	if cfg.EventsEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("EVENTS_ENABLED is true but KAFKA_BROKERS is not set")
	}

	return cfg, nil
}

// Request builds the default generation request from the loaded settings.
// Callers treat the returned value as an immutable snapshot.
func (c *Config) Request() domain.GenerationRequest {
	return domain.GenerationRequest{
		Style:            c.Style,
		Region:           c.Region,
		Size:             domain.TargetSize{Width: c.Width, Height: c.Height},
		ScaleFactor:      c.ScaleFactor,
		RadarEnabled:     c.RadarEnabled,
		SatelliteEnabled: c.SatelliteEnabled,
	}
}

// loadRegion resolves REGION against the catalog, or builds a custom region
// from REGION_LAT / REGION_LON / REGION_SPAN when REGION=custom.
func loadRegion() (domain.Region, error) {
	name := envOrDefault("REGION", "continental-us")
	if !strings.EqualFold(name, "custom") {
		region, ok := domain.RegionByName(name)
		if !ok {
			return domain.Region{}, fmt.Errorf("REGION %q is not in the catalog (use REGION=custom with REGION_LAT/LON/SPAN)", name)
		}
		return region, nil
	}

	lat, err := floatEnv("REGION_LAT", 0)
	if err != nil {
		return domain.Region{}, err
	}
	lon, err := floatEnv("REGION_LON", 0)
	if err != nil {
		return domain.Region{}, err
	}
	span, err := floatEnv("REGION_SPAN", 0)
	if err != nil {
		return domain.Region{}, err
	}
	region := domain.Region{Name: "custom", Lat: lat, Lon: lon, SpanDegrees: span}
	if err := region.Validate(); err != nil {
		return domain.Region{}, fmt.Errorf("REGION=custom: %w", err)
	}
	return region, nil
}

func validateTemplate(name, value string) error {
	for _, p := range []string{"{z}", "{x}", "{y}"} {
		if !strings.Contains(value, p) {
			return fmt.Errorf("%s: placeholder %s not found", name, p)
		}
	}
	return nil
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, s)
	}
	return d, nil
}

func intEnv(key string, def, minVal, maxVal int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minVal || n > maxVal {
		return 0, fmt.Errorf("%s must be an integer in [%d, %d], got %q", key, minVal, maxVal, s)
	}
	return n, nil
}

func floatEnv(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", key, s)
	}
	return f, nil
}

func boolEnv(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true"
	}
	return def
}
