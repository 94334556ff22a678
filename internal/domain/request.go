package domain

import (
	"fmt"
	"math"
	"strings"
)

// Style selects how the wallpaper base layer is produced.
type Style string

const (
	// StyleSatellite is the mosaic style: the base is assembled from a grid
	// of map tiles rather than a ready-made snapshot.
	StyleSatellite Style = "satellite"
	StyleDark      Style = "dark"
	StyleLight     Style = "light"
	StyleBlackout  Style = "blackout"
)

// ParseStyle converts a config or API string into a Style.
func ParseStyle(s string) (Style, error) {
	switch Style(strings.ToLower(s)) {
	case StyleSatellite:
		return StyleSatellite, nil
	case StyleDark:
		return StyleDark, nil
	case StyleLight:
		return StyleLight, nil
	case StyleBlackout:
		return StyleBlackout, nil
	default:
		return "", fmt.Errorf("unknown style %q (want satellite, dark, light, or blackout)", s)
	}
}

// Mosaic reports whether the style builds its base from a tile grid.
func (s Style) Mosaic() bool {
	return s == StyleSatellite
}

// TargetSize is a display resolution in logical pixels.
type TargetSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// AspectRatio returns width/height, or 0 when the size is degenerate.
func (t TargetSize) AspectRatio() float64 {
	if t.Height <= 0 {
		return 0
	}
	return float64(t.Width) / float64(t.Height)
}

// GenerationRequest captures every parameter of one wallpaper generation.
// The coordinator snapshots it when a generation starts; later changes to
// the live configuration never affect an in-flight generation.
type GenerationRequest struct {
	Style            Style      `json:"style"`
	Region           Region     `json:"region"`
	Size             TargetSize `json:"size"`
	ScaleFactor      float64    `json:"scale_factor"`
	RadarEnabled     bool       `json:"radar_enabled"`
	SatelliteEnabled bool       `json:"satellite_enabled"`
}

// PixelSize returns the physical canvas size after applying the device
// scale factor. A zero or negative factor is treated as 1.
func (r GenerationRequest) PixelSize() TargetSize {
	scale := r.ScaleFactor
	if scale <= 0 {
		scale = 1
	}
	return TargetSize{
		Width:  int(math.Round(float64(r.Size.Width) * scale)),
		Height: int(math.Round(float64(r.Size.Height) * scale)),
	}
}
