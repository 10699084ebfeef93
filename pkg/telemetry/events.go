package telemetry

import (
	"sync"
	"time"

	"github.com/toolforge/toolforge/pkg/engine"
)

// EventLog is the run's append-only event fan-out. It implements
// engine.EventSink, retains every event in occurrence order for the final
// report, and forwards each event synchronously to the attached sinks. A
// slow sink slows the run; it never reorders or drops events.
type EventLog struct {
	mu     sync.Mutex
	events []engine.Event
	sinks  []engine.EventSink
}

// NewEventLog creates an event log forwarding to the given sinks.
func NewEventLog(sinks ...engine.EventSink) *EventLog {
	return &EventLog{sinks: sinks}
}

// Record implements engine.EventSink.
func (l *EventLog) Record(event engine.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	l.mu.Lock()
	l.events = append(l.events, event)
	sinks := l.sinks
	l.mu.Unlock()

	for _, sink := range sinks {
		sink.Record(event)
	}
}

// Events returns a copy of the retained events in occurrence order.
func (l *EventLog) Events() []engine.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]engine.Event, len(l.events))
	copy(out, l.events)
	return out
}

// LoggerSink writes events to the structured logger at the severity the
// phase dictates.
type LoggerSink struct {
	log *Logger
}

// NewLoggerSink creates a sink over the given logger.
func NewLoggerSink(log *Logger) *LoggerSink {
	return &LoggerSink{log: log}
}

// Record implements engine.EventSink.
func (s *LoggerSink) Record(event engine.Event) {
	log := s.log.WithRunID(event.RunID)
	if event.ComponentID != "" {
		log = log.WithComponent(event.ComponentID)
	}
	if event.Method != "" {
		log = log.WithMethod(event.Method)
	}

	msg := string(event.Phase)
	if event.Diagnostic != "" {
		msg = msg + ": " + event.Diagnostic
	}

	switch event.Phase.Severity() {
	case "error":
		log.Error(msg)
	default:
		log.Info(msg)
	}
}
