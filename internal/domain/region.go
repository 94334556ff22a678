package domain

import (
	"fmt"
	"strings"
)

// Region is a named geographic area centered on a coordinate with a square
// angular span in degrees. The same span applies to both axes; the projector
// widens the longitude axis by the canvas aspect ratio before tiling.
type Region struct {
	Name        string  `json:"name"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	SpanDegrees float64 `json:"span_degrees"`
}

// catalog is the fixed set of selectable regions. Spans are tuned so the
// zoom table lands on a tile count that fetches in one or two round trips.
var catalog = []Region{
	{Name: "continental-us", Lat: 39.8, Lon: -98.5, SpanDegrees: 35},
	{Name: "europe", Lat: 50.0, Lon: 10.0, SpanDegrees: 30},
	{Name: "japan", Lat: 36.5, Lon: 138.0, SpanDegrees: 12},
	{Name: "australia", Lat: -25.5, Lon: 134.0, SpanDegrees: 35},
	{Name: "north-atlantic", Lat: 45.0, Lon: -40.0, SpanDegrees: 50},
	{Name: "world", Lat: 0.0, Lon: 0.0, SpanDegrees: 140},
}

// Catalog returns the fixed region catalog in stable order.
func Catalog() []Region {
	out := make([]Region, len(catalog))
	copy(out, catalog)
	return out
}

// RegionByName looks up a catalog region by its name, case-insensitively.
func RegionByName(name string) (Region, bool) {
	for _, r := range catalog {
		if strings.EqualFold(r.Name, name) {
			return r, true
		}
	}
	return Region{}, false
}

// Validate checks that a region (catalog or user-supplied) is geographically
// sensible.
func (r Region) Validate() error {
	if r.Lat < -90 || r.Lat > 90 {
		return fmt.Errorf("region %q: latitude %v out of range [-90, 90]", r.Name, r.Lat)
	}
	if r.Lon < -180 || r.Lon > 180 {
		return fmt.Errorf("region %q: longitude %v out of range [-180, 180]", r.Name, r.Lon)
	}
	if r.SpanDegrees <= 0 || r.SpanDegrees > 170 {
		return fmt.Errorf("region %q: span %v out of range (0, 170]", r.Name, r.SpanDegrees)
	}
	return nil
}
