package stores

import (
	"context"
	"time"

	"github.com/toolforge/toolforge/pkg/engine"
	"github.com/toolforge/toolforge/pkg/telemetry"
)

// EventSink adapts a Store to engine.EventSink. Persistence is best effort:
// a write failure is logged and absorbed, never surfaced to the run.
type EventSink struct {
	store Store
	log   *telemetry.Logger
}

// NewEventSink creates a sink persisting events to the given store.
func NewEventSink(store Store, log *telemetry.Logger) *EventSink {
	return &EventSink{store: store, log: log}
}

// Record implements engine.EventSink.
func (s *EventSink) Record(event engine.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.store.AppendEvent(ctx, event); err != nil {
		s.log.WithError(err).Warn("failed to persist run event")
	}
}
