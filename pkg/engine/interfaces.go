package engine

import (
	"context"
	"time"

	"github.com/toolforge/toolforge/pkg/catalog"
)

// Method is one concrete installation strategy for a component. Attempt is
// side-effecting, terminates in finite time, and reports an opaque outcome:
// a nil error is a self-reported success, a non-nil error carries the
// diagnostic text. The engine never trusts this outcome alone; the probe
// decides.
type Method interface {
	// Name identifies the method within its component.
	Name() string

	// Attempt performs the installation action.
	Attempt(ctx context.Context) error
}

// Probe is a side-effect-free check for a component's actual presence. It
// must re-resolve any durable configuration it depends on (such as the
// search path) from its authoritative source on every call, because methods
// may mutate that configuration as a side effect.
type Probe interface {
	Check(ctx context.Context) (ProbeResult, error)
}

// Component pairs a catalog spec with its executable methods and probe.
// Methods are in the spec's declaration order.
type Component struct {
	Spec    catalog.ComponentSpec
	Methods []Method
	Probe   Probe
}

// Event is one entry of the append-only run log. Events are emitted as they
// occur, not only at the end, so a crash mid-run still leaves a usable
// partial log.
type Event struct {
	// RunID is the run this event belongs to.
	RunID string `json:"run_id"`

	// ComponentID is the component, empty for run-level events.
	ComponentID string `json:"component_id,omitempty"`

	// Method is the method name, if applicable.
	Method string `json:"method,omitempty"`

	// Phase is the lifecycle phase.
	Phase Phase `json:"phase"`

	// Diagnostic is free-text detail for the event.
	Diagnostic string `json:"diagnostic,omitempty"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`
}

// EventSink receives events in occurrence order. Implementations must not
// fail the run: delivery problems are theirs to absorb.
type EventSink interface {
	Record(event Event)
}

// NopSink is an EventSink that discards everything.
type NopSink struct{}

// Record implements EventSink.
func (NopSink) Record(Event) {}
