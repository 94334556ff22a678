package generator

import (
	"context"
	"errors"
	"log/slog"

	"github.com/osikes/hemisphere/internal/domain"
)

// SlogSink renders generation events to the structured log. It is always
// wired; Kafka publishing is layered on top via MultiSink when enabled.
type SlogSink struct {
	Logger *slog.Logger
}

func (s SlogSink) Publish(_ context.Context, ev domain.GenerationEvent) error {
	attrs := []any{
		"kind", ev.Kind,
		"epoch", ev.Epoch,
		"style", ev.Style,
		"region", ev.Region,
	}
	if ev.Layer != "" {
		attrs = append(attrs, "layer", ev.Layer)
	}
	if ev.Reason != "" {
		attrs = append(attrs, "reason", ev.Reason)
	}
	if ev.Error != "" {
		attrs = append(attrs, "error", ev.Error)
	}
	if ev.Duration > 0 {
		attrs = append(attrs, "duration_seconds", ev.Duration)
	}

	switch ev.Kind {
	case domain.EventFailed:
		s.Logger.Error("generation event", attrs...)
	case domain.EventDegraded:
		s.Logger.Warn("generation event", attrs...)
	default:
		s.Logger.Info("generation event", attrs...)
	}
	return nil
}

// MultiSink fans one event out to every sink, collecting errors.
type MultiSink []EventSink

func (m MultiSink) Publish(ctx context.Context, ev domain.GenerationEvent) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
