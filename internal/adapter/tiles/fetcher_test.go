package tiles_test

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/osikes/hemisphere/internal/adapter/tiles"
	"github.com/osikes/hemisphere/internal/domain"
	"github.com/osikes/hemisphere/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tilePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newFetcher(cacheSize int) *tiles.Fetcher {
	return tiles.NewFetcher(2*time.Second, 4, cacheSize, slog.Default(), observability.NewMetricsForTesting())
}

func gridCoords(zoom, n int) []domain.TileCoordinate {
	coords := make([]domain.TileCoordinate, 0, n*n)
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			coords = append(coords, domain.TileCoordinate{X: x, Y: y, Zoom: zoom})
		}
	}
	return coords
}

func TestFetchLayer_AllTilesSucceed(t *testing.T) {
	payload := tilePNG(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(payload) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)

	urlFor := tiles.Template(srv.URL + "/{z}/{x}/{y}.png").Bind("", "")
	coords := gridCoords(4, 3)

	fetched := newFetcher(0).FetchLayer(context.Background(), coords, urlFor, domain.LayerBase)

	require.Len(t, fetched, len(coords))
	seen := map[domain.TileCoordinate]bool{}
	for _, ft := range fetched {
		assert.Equal(t, domain.LayerBase, ft.Layer)
		assert.NotNil(t, ft.Image)
		seen[ft.Coord] = true
	}
	assert.Len(t, seen, len(coords), "each coordinate fetched exactly once")
}

func TestFetchLayer_DropsFailedTiles(t *testing.T) {
	payload := tilePNG(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.Contains(r.URL.Path, "/1/"): // x == 1 column
			http.NotFound(w, r)
		case strings.Contains(r.URL.Path, "/2/"): // x == 2 column: not an image
			w.Write([]byte("<html>not a tile</html>")) //nolint:errcheck
		default:
			w.Write(payload) //nolint:errcheck
		}
	}))
	t.Cleanup(srv.Close)

	urlFor := tiles.Template(srv.URL + "/{z}/{x}/{y}.png").Bind("", "")
	coords := []domain.TileCoordinate{
		{X: 0, Y: 0, Zoom: 4},
		{X: 1, Y: 0, Zoom: 4},
		{X: 2, Y: 0, Zoom: 4},
		{X: 3, Y: 0, Zoom: 4},
	}

	fetched := newFetcher(0).FetchLayer(context.Background(), coords, urlFor, domain.LayerRadar)

	require.Len(t, fetched, 2)
	for _, ft := range fetched {
		assert.NotEqual(t, 1, ft.Coord.X)
		assert.NotEqual(t, 2, ft.Coord.X)
	}
}

func TestFetchLayer_AllFailuresYieldEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no tiles today", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	urlFor := tiles.Template(srv.URL + "/{z}/{x}/{y}.png").Bind("", "")

	fetched := newFetcher(0).FetchLayer(context.Background(), gridCoords(4, 2), urlFor, domain.LayerSatellite)

	assert.Empty(t, fetched)
}

func TestFetchLayer_MalformedURLDropsTile(t *testing.T) {
	urlFor := func(domain.TileCoordinate) (string, error) {
		return "", fmt.Errorf("no template for layer")
	}

	fetched := newFetcher(0).FetchLayer(context.Background(), gridCoords(4, 2), urlFor, domain.LayerRadar)

	assert.Empty(t, fetched)
}

func TestFetchLayer_TimeoutTreatedAsFailure(t *testing.T) {
	payload := tilePNG(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(5 * time.Second):
			w.Write(payload) //nolint:errcheck
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)

	f := tiles.NewFetcher(50*time.Millisecond, 4, 0, slog.Default(), observability.NewMetricsForTesting())
	urlFor := tiles.Template(srv.URL + "/{z}/{x}/{y}.png").Bind("", "")

	fetched := f.FetchLayer(context.Background(), gridCoords(4, 1), urlFor, domain.LayerBase)

	assert.Empty(t, fetched)
}

func TestFetchLayer_CachesDecodedTiles(t *testing.T) {
	payload := tilePNG(t)
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Write(payload) //nolint:errcheck
	}))
	t.Cleanup(srv.Close)

	f := newFetcher(64)
	urlFor := tiles.Template(srv.URL + "/{z}/{x}/{y}.png").Bind("", "")
	coords := gridCoords(4, 2)

	first := f.FetchLayer(context.Background(), coords, urlFor, domain.LayerBase)
	require.Len(t, first, len(coords))
	served := hits.Load()

	second := f.FetchLayer(context.Background(), coords, urlFor, domain.LayerBase)
	require.Len(t, second, len(coords))
	assert.Equal(t, served, hits.Load(), "second pass should be served from cache")
}

func TestTemplate_Bind(t *testing.T) {
	urlFor := tiles.Template("https://tiles.example.com{path}/256/{z}/{x}/{y}/{color}/1_1.png").Bind("/v2/radar/abc", "4")

	u, err := urlFor(domain.TileCoordinate{X: 3, Y: 6, Zoom: 4})
	require.NoError(t, err)
	assert.Equal(t, "https://tiles.example.com/v2/radar/abc/256/4/3/6/4/1_1.png", u)
}

func TestTemplate_RejectsNonHTTPScheme(t *testing.T) {
	urlFor := tiles.Template("file:///{z}/{x}/{y}.png").Bind("", "")

	_, err := urlFor(domain.TileCoordinate{X: 1, Y: 1, Zoom: 1})
	assert.Error(t, err)
}
