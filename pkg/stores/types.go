package stores

import (
	"context"
	"time"

	"github.com/toolforge/toolforge/pkg/engine"
)

// RunRecord is one persisted run.
type RunRecord struct {
	ID          string     `json:"id"`
	Profile     string     `json:"profile"`
	Status      string     `json:"status"`
	Hostname    string     `json:"hostname"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ComponentResultRecord is one component's persisted outcome within a run.
type ComponentResultRecord struct {
	ID          int64      `json:"id"`
	RunID       string     `json:"run_id"`
	ComponentID string     `json:"component_id"`
	Status      string     `json:"status"`
	Method      string     `json:"method,omitempty"`
	SkipReason  string     `json:"skip_reason,omitempty"`
	Diagnostic  string     `json:"diagnostic,omitempty"`
	Version     string     `json:"version,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// EventRecord is one persisted run-log event.
type EventRecord struct {
	ID          int64     `json:"id"`
	RunID       string    `json:"run_id"`
	ComponentID string    `json:"component_id,omitempty"`
	Method      string    `json:"method,omitempty"`
	Phase       string    `json:"phase"`
	Diagnostic  string    `json:"diagnostic,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Store persists run history for later inspection through the report
// command. All methods are safe for sequential use from a single run.
type Store interface {
	// Init opens the database and applies pragmas.
	Init(ctx context.Context) error

	// Migrate brings the schema up to date.
	Migrate(ctx context.Context) error

	// Close releases the database.
	Close() error

	// CreateRun records a run at start.
	CreateRun(ctx context.Context, run *RunRecord) error

	// FinishRun records a run's terminal status and completion time.
	FinishRun(ctx context.Context, runID, status string, completedAt time.Time) error

	// SaveComponentResult appends one component result to a run.
	SaveComponentResult(ctx context.Context, runID string, result engine.ComponentResult) error

	// AppendEvent appends one event to a run's log.
	AppendEvent(ctx context.Context, event engine.Event) error

	// GetLatestRun returns the most recently started run, or nil when the
	// store is empty.
	GetLatestRun(ctx context.Context) (*RunRecord, error)

	// ListResults returns a run's component results in insertion order.
	ListResults(ctx context.Context, runID string) ([]ComponentResultRecord, error)

	// ListEvents returns a run's events in insertion order.
	ListEvents(ctx context.Context, runID string) ([]EventRecord, error)
}
