package domain

import (
	"fmt"
	"image"
)

// TileCoordinate addresses one slippy-map tile. Equality is structural.
type TileCoordinate struct {
	X    int `json:"x"`
	Y    int `json:"y"`
	Zoom int `json:"zoom"`
}

// String renders the conventional z/x/y form used in URLs and logs.
func (t TileCoordinate) String() string {
	return fmt.Sprintf("%d/%d/%d", t.Zoom, t.X, t.Y)
}

// Layer tags one visual stratum of the composited wallpaper.
type Layer string

const (
	LayerBase      Layer = "base"
	LayerSatellite Layer = "satellite"
	LayerRadar     Layer = "radar"
)

// FetchedTile is a successfully downloaded and decoded tile. Tiles that
// fail to fetch or decode are dropped, never represented partially.
type FetchedTile struct {
	Coord TileCoordinate
	Layer Layer
	Image image.Image
}
