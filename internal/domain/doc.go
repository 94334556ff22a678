// Package domain models the wallpaper generation domain: regions, styles,
// tile coordinates, weather frames, and generation lifecycle events.
//
// # Tiling Scheme
//
// Tiles follow the standard slippy-map scheme: the Web Mercator projection
// of the world is recursively quartered, and a tile is addressed by integer
// (zoom, x, y). At zoom z there are 2^z tiles per axis; x grows eastward
// from longitude -180, y grows southward from latitude ~85.0511 (the
// Mercator cutoff). Latitude maps through the inverse hyperbolic sine:
//
//	x = (lon + 180) / 360 * 2^z
//	y = (1 - asinh(tan(lat)) / π) / 2 * 2^z
//
// # Weather Feed
//
// Overlay frames come from a RainViewer-style weather-maps feed: a JSON
// object with a radar history list ("radar.past") and an optional satellite
// section with an infrared frame list ("satellite.infrared"). Each entry
// carries a Unix timestamp and an opaque path fragment that is substituted
// into a per-layer tile URL template. The last entry of each list is the
// most recent frame. Either layer may be absent; that is a normal state,
// not an error.
//
// # Styles
//
// Four wallpaper styles are supported. "satellite" is the mosaic style: its
// base is assembled from a grid of map tiles fetched at a floored zoom so
// the mosaic always covers the canvas. "dark", "light", and "blackout" draw
// a pre-available base snapshot (by default a solid background) stretched to
// the canvas, with weather overlays on top.
package domain
