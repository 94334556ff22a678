// Package http exposes the service's HTTP surface: health, readiness,
// metrics, and the wallpaper API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/osikes/hemisphere/internal/domain"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Trigger accepts generation requests. Implementations must not block on
// the pipeline itself.
type Trigger interface {
	Request(ctx context.Context, req domain.GenerationRequest)
}

// WallpaperSource serves the latest generated wallpaper.
type WallpaperSource interface {
	Latest() (data []byte, generatedAt time.Time, ok bool)
}

// Server exposes health, readiness, metrics, and wallpaper API endpoints.
type Server struct {
	httpServer *http.Server
	trigger    Trigger
	wallpapers WallpaperSource
	defaults   func() domain.GenerationRequest
	logger     *slog.Logger
}

// NewServer creates the HTTP server. defaults supplies the configured
// generation parameters; API callers may override individual fields.
func NewServer(addr string, trigger Trigger, wallpapers WallpaperSource, ready ReadinessChecker, defaults func() domain.GenerationRequest, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		trigger:    trigger,
		wallpapers: wallpapers,
		defaults:   defaults,
		logger:     logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("POST /api/generate", s.handleGenerate)
	mux.HandleFunc("GET /api/wallpaper.png", s.handleWallpaper)
	mux.HandleFunc("GET /api/regions", s.handleRegions)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// generateOverrides are the optional per-request deviations from the
// configured defaults. Absent fields keep their default values.
type generateOverrides struct {
	Style            *string  `json:"style"`
	Region           *string  `json:"region"`
	Width            *int     `json:"width"`
	Height           *int     `json:"height"`
	ScaleFactor      *float64 `json:"scale_factor"`
	RadarEnabled     *bool    `json:"radar_enabled"`
	SatelliteEnabled *bool    `json:"satellite_enabled"`
}

// handleGenerate queues one generation and returns 202 immediately; the
// pipeline runs asynchronously and the result appears at /api/wallpaper.png.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	req, err := s.requestFromBody(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s.trigger.Request(r.Context(), req)
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "generation requested"})
}

func (s *Server) requestFromBody(body io.Reader) (domain.GenerationRequest, error) {
	req := s.defaults()

	var ov generateOverrides
	dec := json.NewDecoder(io.LimitReader(body, 4096))
	if err := dec.Decode(&ov); err != nil {
		if errors.Is(err, io.EOF) {
			return req, nil // empty body means "use the defaults"
		}
		return domain.GenerationRequest{}, fmt.Errorf("decode request body: %w", err)
	}

	if ov.Style != nil {
		style, err := domain.ParseStyle(*ov.Style)
		if err != nil {
			return domain.GenerationRequest{}, err
		}
		req.Style = style
	}
	if ov.Region != nil {
		region, ok := domain.RegionByName(*ov.Region)
		if !ok {
			return domain.GenerationRequest{}, fmt.Errorf("unknown region %q", *ov.Region)
		}
		req.Region = region
	}
	if ov.Width != nil {
		req.Size.Width = *ov.Width
	}
	if ov.Height != nil {
		req.Size.Height = *ov.Height
	}
	if req.Size.Width <= 0 || req.Size.Height <= 0 {
		return domain.GenerationRequest{}, fmt.Errorf("size %dx%d is not a valid canvas", req.Size.Width, req.Size.Height)
	}
	if ov.ScaleFactor != nil {
		if *ov.ScaleFactor <= 0 || *ov.ScaleFactor > 4 {
			return domain.GenerationRequest{}, fmt.Errorf("scale_factor must be in (0, 4], got %v", *ov.ScaleFactor)
		}
		req.ScaleFactor = *ov.ScaleFactor
	}
	if ov.RadarEnabled != nil {
		req.RadarEnabled = *ov.RadarEnabled
	}
	if ov.SatelliteEnabled != nil {
		req.SatelliteEnabled = *ov.SatelliteEnabled
	}
	return req, nil
}

// handleWallpaper serves the latest composited wallpaper, or 404 before the
// first generation completes.
func (s *Server) handleWallpaper(w http.ResponseWriter, _ *http.Request) {
	data, generatedAt, ok := s.wallpapers.Latest()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no wallpaper generated yet"})
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Last-Modified", generatedAt.UTC().Format(http.TimeFormat))
	w.WriteHeader(http.StatusOK)
	w.Write(data) //nolint:errcheck // client disconnects are not actionable
}

func (s *Server) handleRegions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.Catalog())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
