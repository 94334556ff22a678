// Package compositor draws the base layer and weather overlays onto a
// single canvas in a fixed order and blend mode.
package compositor

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"

	xdraw "golang.org/x/image/draw"

	"github.com/osikes/hemisphere/internal/domain"
	"github.com/osikes/hemisphere/internal/projector"
)

// ErrNoCanvas means the target size is unusable; the generation aborts.
var ErrNoCanvas = errors.New("compositor: target canvas has no size")

// ErrNoBase means a non-mosaic style had no base snapshot to draw; the
// generation aborts.
var ErrNoBase = errors.New("compositor: no base image available")

// Overlay alphas and draw order are fixed constants of the design, not
// configurable per call. Satellite draws before radar so radar stays
// visually on top.
const (
	satelliteAlpha = 0.5
	radarAlpha     = 0.7
)

// mosaicBackground fills the canvas before base tiles are drawn, so gaps
// from missing tiles read as dark ocean rather than undefined pixels.
var mosaicBackground = color.RGBA{R: 0x0e, G: 0x14, B: 0x1e, A: 0xff}

// styleBackgrounds are the solid base snapshots for non-mosaic styles.
var styleBackgrounds = map[domain.Style]color.RGBA{
	domain.StyleDark:     {R: 0x1c, G: 0x1f, B: 0x26, A: 0xff},
	domain.StyleLight:    {R: 0xe9, G: 0xea, B: 0xee, A: 0xff},
	domain.StyleBlackout: {R: 0x00, G: 0x00, B: 0x00, A: 0xff},
}

// Input bundles everything one composite pass needs. The canvas it produces
// is owned by this single pass; inputs are never mutated.
type Input struct {
	Size   domain.TargetSize
	Region domain.Region
	Style  domain.Style

	// BaseSnapshot is drawn stretched to the canvas for non-mosaic styles.
	BaseSnapshot image.Image
	// BaseTiles form the base grid for the mosaic style.
	BaseTiles []domain.FetchedTile

	SatelliteTiles []domain.FetchedTile
	RadarTiles     []domain.FetchedTile
}

// Compositor renders composite wallpapers. It holds no per-generation
// state; the coordinator guarantees at most one Compose runs at a time.
type Compositor struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Compositor {
	return &Compositor{logger: logger}
}

// Compose renders the layers in the fixed order base, satellite, radar.
// Tiles within one layer occupy disjoint rectangles, so the output is
// byte-identical regardless of the order fetches completed in.
func (c *Compositor) Compose(in Input) (image.Image, error) {
	if in.Size.Width <= 0 || in.Size.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrNoCanvas, in.Size.Width, in.Size.Height)
	}

	canvas := image.NewRGBA(image.Rect(0, 0, in.Size.Width, in.Size.Height))

	if in.Style.Mosaic() {
		draw.Draw(canvas, canvas.Bounds(), image.NewUniform(mosaicBackground), image.Point{}, draw.Src)
		for _, tile := range in.BaseTiles {
			c.drawTile(canvas, tile, in.Region, in.Size, 1)
		}
		if len(in.BaseTiles) == 0 {
			c.logger.Warn("no base tiles available, composing over background fill", "style", in.Style)
		}
	} else {
		if in.BaseSnapshot == nil {
			return nil, fmt.Errorf("style %s: %w", in.Style, ErrNoBase)
		}
		xdraw.ApproxBiLinear.Scale(canvas, canvas.Bounds(), in.BaseSnapshot, in.BaseSnapshot.Bounds(), xdraw.Src, nil)
	}

	for _, tile := range in.SatelliteTiles {
		c.drawTile(canvas, tile, in.Region, in.Size, satelliteAlpha)
	}
	for _, tile := range in.RadarTiles {
		c.drawTile(canvas, tile, in.Region, in.Size, radarAlpha)
	}

	return canvas, nil
}

// drawTile scales one tile into its projected canvas rectangle. Each tile is
// painted exactly once; alpha < 1 blends through a uniform mask.
func (c *Compositor) drawTile(canvas *image.RGBA, tile domain.FetchedTile, region domain.Region, size domain.TargetSize, alpha float64) {
	rect := projector.TileToPixelRect(tile.Coord, region, size)
	if rect.Empty() || !rect.Overlaps(canvas.Bounds()) {
		return
	}

	if alpha >= 1 {
		xdraw.ApproxBiLinear.Scale(canvas, rect, tile.Image, tile.Image.Bounds(), xdraw.Over, nil)
		return
	}

	scaled := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), tile.Image, tile.Image.Bounds(), xdraw.Src, nil)
	mask := image.NewUniform(color.Alpha{A: uint8(alpha*255 + 0.5)})
	draw.DrawMask(canvas, rect, scaled, image.Point{}, mask, image.Point{}, draw.Over)
}

// SolidBase is the default base snapshot source for non-mosaic styles: a
// solid background in the style's color, stretched by the compositor.
// Implements generator.BaseSource.
type SolidBase struct{}

// BaseSnapshot returns a small filled image; the compositor stretches it to
// canvas size.
func (SolidBase) BaseSnapshot(req domain.GenerationRequest) (image.Image, error) {
	return SolidSnapshot(req.Style, 8, 8), nil
}

// SolidSnapshot builds a w x h image filled with the style's background
// color. Unknown styles fall back to blackout.
func SolidSnapshot(style domain.Style, w, h int) image.Image {
	bg, ok := styleBackgrounds[style]
	if !ok {
		bg = styleBackgrounds[domain.StyleBlackout]
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)
	return img
}
