// Package projector holds the pure geographic math of the pipeline: zoom
// selection, Web-Mercator coordinate/tile conversion, tile-set enumeration,
// and the inverse mapping from a tile to its canvas pixel rectangle. No I/O,
// no shared state.
package projector

import (
	"image"
	"math"

	"github.com/osikes/hemisphere/internal/domain"
)

// bufferFraction expands the region bounding box on each side so tiles fully
// cover the canvas edges after rounding.
const bufferFraction = 0.05

// mercatorLatLimit is the latitude cutoff of the Web Mercator projection;
// tile y indices are undefined beyond it.
const mercatorLatLimit = 85.05112878

// ZoomLevel selects a slippy-map zoom for the given latitude span by walking
// a fixed descending threshold table, then clamps the result to be no lower
// than minimumZoom. Mosaic styles pass a higher floor so the base tile grid
// is dense enough to cover the canvas.
func ZoomLevel(latSpanDegrees float64, minimumZoom int) int {
	var zoom int
	switch {
	case latSpanDegrees >= 30:
		zoom = 4
	case latSpanDegrees >= 15:
		zoom = 5
	case latSpanDegrees >= 8:
		zoom = 6
	case latSpanDegrees >= 4:
		zoom = 7
	default:
		zoom = 8
	}
	if zoom < minimumZoom {
		zoom = minimumZoom
	}
	return zoom
}

// GeoToTile converts a WGS-84 coordinate to integer tile indices at the
// given zoom. Longitude maps linearly over [-180, 180); latitude maps through
// the inverse hyperbolic sine. Indices are clamped to [0, 2^zoom-1].
func GeoToTile(lat, lon float64, zoom int) (x, y int) {
	fx, fy := tilePoint(lat, lon, zoom)
	n := 1 << zoom
	return clampIndex(int(math.Floor(fx)), n), clampIndex(int(math.Floor(fy)), n)
}

// tilePoint is the fractional form of GeoToTile: the exact position within
// tile space, before truncation.
func tilePoint(lat, lon float64, zoom int) (fx, fy float64) {
	n := float64(int(1) << zoom)
	if lat > mercatorLatLimit {
		lat = mercatorLatLimit
	}
	if lat < -mercatorLatLimit {
		lat = -mercatorLatLimit
	}
	latRad := lat * math.Pi / 180
	fx = (lon + 180) / 360 * n
	fy = (1 - math.Asinh(math.Tan(latRad))/math.Pi) / 2 * n
	return fx, fy
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}

// TileSet computes the full rectangular set of tiles covering the region at
// the zoom chosen for its span. The longitude span is widened by the target
// aspect ratio (width/height) so wide canvases are not distorted, and the
// box grows by a fixed 5% buffer per side to guarantee edge coverage. The
// result is deterministic for a given (region, aspect ratio, zoom floor).
func TileSet(region domain.Region, targetAspectRatio float64, minimumZoom int) []domain.TileCoordinate {
	if targetAspectRatio <= 0 {
		targetAspectRatio = 1
	}
	zoom := ZoomLevel(region.SpanDegrees, minimumZoom)

	halfLat := region.SpanDegrees * (1 + 2*bufferFraction) / 2
	halfLon := region.SpanDegrees * targetAspectRatio * (1 + 2*bufferFraction) / 2

	// Northwest corner has the smallest tile indices on both axes.
	x0, y0 := GeoToTile(region.Lat+halfLat, region.Lon-halfLon, zoom)
	x1, y1 := GeoToTile(region.Lat-halfLat, region.Lon+halfLon, zoom)

	tiles := make([]domain.TileCoordinate, 0, (x1-x0+1)*(y1-y0+1))
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			tiles = append(tiles, domain.TileCoordinate{X: x, Y: y, Zoom: zoom})
		}
	}
	return tiles
}

// TileToPixelRect inverse-maps a tile's geographic bounds onto canvas pixel
// coordinates for the same region and canvas size used to build the tile
// set. The mapping is linear in Mercator tile space over the unbuffered,
// aspect-corrected view box, so adjacent tiles land on exactly abutting
// rectangles regardless of draw order.
func TileToPixelRect(tile domain.TileCoordinate, region domain.Region, canvasSize domain.TargetSize) image.Rectangle {
	aspect := canvasSize.AspectRatio()
	if aspect <= 0 {
		return image.Rectangle{}
	}
	halfLat := region.SpanDegrees / 2
	halfLon := region.SpanDegrees * aspect / 2

	minX, minY := tilePoint(region.Lat+halfLat, region.Lon-halfLon, tile.Zoom)
	maxX, maxY := tilePoint(region.Lat-halfLat, region.Lon+halfLon, tile.Zoom)
	if maxX <= minX || maxY <= minY {
		return image.Rectangle{}
	}

	scaleX := float64(canvasSize.Width) / (maxX - minX)
	scaleY := float64(canvasSize.Height) / (maxY - minY)

	px0 := int(math.Round((float64(tile.X) - minX) * scaleX))
	py0 := int(math.Round((float64(tile.Y) - minY) * scaleY))
	px1 := int(math.Round((float64(tile.X+1) - minX) * scaleX))
	py1 := int(math.Round((float64(tile.Y+1) - minY) * scaleY))

	return image.Rect(px0, py0, px1, py1)
}
