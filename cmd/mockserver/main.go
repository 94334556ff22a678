// Command mockserver serves a fake weather feed and deterministic generated
// tiles for local development, so the pipeline can run end to end without
// touching RainViewer or OpenStreetMap.
//
// Usage:
//
//	go run ./cmd/mockserver -addr :9090
//
// Then point the service at it:
//
//	FEED_URL=http://localhost:9090/public/weather-maps.json
//	BASE_TILE_TEMPLATE=http://localhost:9090/base/{z}/{x}/{y}.png
//	RADAR_TILE_TEMPLATE=http://localhost:9090{path}/256/{z}/{x}/{y}/{color}/1_1.png
//	SATELLITE_TILE_TEMPLATE=http://localhost:9090{path}/256/{z}/{x}/{y}/0/0_0.png
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
	"log"
	"net/http"
	"time"
)

func main() {
	addr := flag.String("addr", ":9090", "listen address")
	flag.Parse()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /public/weather-maps.json", handleFeed)
	mux.HandleFunc("GET /", handleTile)

	log.Printf("mock weather server listening on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, mux))
}

// handleFeed mimics the RainViewer weather-maps response: a short radar
// history (oldest first) and one satellite infrared frame.
func handleFeed(w http.ResponseWriter, _ *http.Request) {
	now := time.Now().Truncate(10 * time.Minute)
	past := make([]map[string]any, 0, 3)
	for i := 2; i >= 0; i-- {
		ts := now.Add(-time.Duration(i) * 10 * time.Minute).Unix()
		past = append(past, map[string]any{
			"time": ts,
			"path": fmt.Sprintf("/v2/radar/%d", ts),
		})
	}

	feed := map[string]any{
		"radar": map[string]any{
			"past":    past,
			"nowcast": []any{},
		},
		"satellite": map[string]any{
			"infrared": []map[string]any{
				{"time": now.Unix(), "path": fmt.Sprintf("/v2/satellite/%d", now.Unix())},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(feed) //nolint:errcheck
}

// handleTile answers any other path with a 256x256 PNG whose color is a hash
// of the path, so adjacent tiles are visually distinct but reproducible.
func handleTile(w http.ResponseWriter, r *http.Request) {
	h := fnv.New32a()
	h.Write([]byte(r.URL.Path)) //nolint:errcheck
	sum := h.Sum32()

	fill := color.RGBA{
		R: uint8(sum),
		G: uint8(sum >> 8),
		B: uint8(sum >> 16),
		A: 0xff,
	}

	img := image.NewRGBA(image.Rect(0, 0, 256, 256))
	for y := 0; y < 256; y++ {
		for x := 0; x < 256; x++ {
			img.SetRGBA(x, y, fill)
		}
	}
	// Thin border so tile boundaries are visible in composited output.
	edge := color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}
	for i := 0; i < 256; i++ {
		img.SetRGBA(i, 0, edge)
		img.SetRGBA(0, i, edge)
	}

	w.Header().Set("Content-Type", "image/png")
	png.Encode(w, img) //nolint:errcheck
}
