package domain

import "time"

// WeatherFrameSet holds the most recent tile-path template fragment per
// overlay layer, as selected from the weather feed. Either path may be
// empty; an absent layer is a normal, non-error state.
type WeatherFrameSet struct {
	RadarPath     string
	RadarTime     time.Time
	SatellitePath string
	SatelliteTime time.Time
}

// HasRadar reports whether the feed offered a radar frame.
func (f WeatherFrameSet) HasRadar() bool {
	return f.RadarPath != ""
}

// HasSatellite reports whether the feed offered a satellite infrared frame.
func (f WeatherFrameSet) HasSatellite() bool {
	return f.SatellitePath != ""
}

// Empty reports whether no overlay layer is available at all.
func (f WeatherFrameSet) Empty() bool {
	return !f.HasRadar() && !f.HasSatellite()
}
