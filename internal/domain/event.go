package domain

import "time"

// EventKind classifies a generation lifecycle event.
type EventKind string

const (
	// EventStarted marks the beginning of one generation pipeline run.
	EventStarted EventKind = "started"
	// EventFinished marks a successful generation whose image was applied.
	EventFinished EventKind = "finished"
	// EventFailed marks a generation aborted by a fatal error (the previously
	// applied wallpaper stays in place).
	EventFailed EventKind = "failed"
	// EventDegraded marks a layer that was requested but could not be
	// rendered this cycle (feed offered no frame, or every tile failed).
	EventDegraded EventKind = "degraded"
	// EventSuperseded marks a completed generation whose result was not
	// applied because a newer request arrived while it ran.
	EventSuperseded EventKind = "superseded"
)

// GenerationEvent is the structured record the coordinator emits at each
// lifecycle transition. Subscribers (log sink, Kafka publisher) render or
// forward it; the core never talks to observability backends directly.
type GenerationEvent struct {
	Kind         EventKind `json:"kind"`
	Epoch        uint64    `json:"epoch"`
	Style        Style     `json:"style"`
	Region       string    `json:"region"`
	Layer        Layer     `json:"layer,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	TilesFetched int       `json:"tiles_fetched,omitempty"`
	TilesWanted  int       `json:"tiles_wanted,omitempty"`
	Duration     float64   `json:"duration_seconds,omitempty"`
	Error        string    `json:"error,omitempty"`
	EmittedAt    time.Time `json:"emitted_at"`
}
