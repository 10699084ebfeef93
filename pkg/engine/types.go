package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/toolforge/toolforge/pkg/catalog"
)

// ProbeResult is the outcome of a presence probe.
type ProbeResult struct {
	// Present reports whether the component is actually usable.
	Present bool `json:"present"`

	// Version is the detected version string, if any.
	Version string `json:"version,omitempty"`
}

// InstallAttempt records one method execution and the probe observation
// taken immediately after it.
type InstallAttempt struct {
	// ComponentID is the component the attempt belongs to.
	ComponentID string `json:"component_id"`

	// Method is the name of the method that was attempted.
	Method string `json:"method"`

	// StartedAt is when the attempt started.
	StartedAt time.Time `json:"started_at"`

	// CompletedAt is when the attempt (including verification) completed.
	CompletedAt time.Time `json:"completed_at"`

	// AttemptErr is the diagnostic text of the method's own reported
	// outcome; empty means the method reported success. The probe, not this
	// field, decides whether the attempt actually worked.
	AttemptErr string `json:"attempt_err,omitempty"`

	// Probe is the verification result observed right after the attempt.
	Probe ProbeResult `json:"probe"`
}

// InstallAttempt diagnostics roll up into the component result when every
// method is exhausted.
func (a InstallAttempt) diagnostic() string {
	if a.AttemptErr != "" {
		return a.AttemptErr
	}
	return fmt.Sprintf("method %s reported success but verification found the component absent", a.Method)
}

// ComponentResult is the terminal outcome for one component, written exactly
// once per run and never mutated afterwards.
type ComponentResult struct {
	// ComponentID is the component identifier.
	ComponentID string `json:"component_id"`

	// Status is the final component status.
	Status ComponentStatus `json:"status"`

	// Method is the name of the method that succeeded, if Status is Success.
	Method string `json:"method,omitempty"`

	// SkipReason explains a Skipped status.
	SkipReason SkipReason `json:"skip_reason,omitempty"`

	// Diagnostic carries the last attempt's outcome text for Failed results.
	Diagnostic string `json:"diagnostic,omitempty"`

	// Version is the probe-detected version for Success and AlreadyPresent.
	Version string `json:"version,omitempty"`

	// Attempts are the install attempts in method declaration order.
	Attempts []InstallAttempt `json:"attempts,omitempty"`

	// StartedAt is when handling of the component began.
	StartedAt time.Time `json:"started_at"`

	// CompletedAt is when the result was finalized.
	CompletedAt time.Time `json:"completed_at"`
}

// Duration returns how long the component took.
func (r ComponentResult) Duration() time.Duration {
	return r.CompletedAt.Sub(r.StartedAt)
}

// RunState is the explicit per-run state threaded through the orchestrator:
// the selected profile, the two monotonic failure flags, and the append-only
// component results. It replaces process-wide globals.
type RunState struct {
	// RunID uniquely identifies this run.
	RunID string `json:"run_id"`

	// Profile is the selected profile.
	Profile catalog.ProfileID `json:"profile"`

	// StartedAt is when the run started.
	StartedAt time.Time `json:"started_at"`

	// CompletedAt is when the run finished, zero while running.
	CompletedAt time.Time `json:"completed_at,omitempty"`

	mu              sync.Mutex
	criticalFailure bool
	halted          bool
	results         []ComponentResult
	recorded        map[string]bool
}

// NewRunState creates a fresh run state for the selected profile.
func NewRunState(profile catalog.ProfileID) *RunState {
	return &RunState{
		RunID:     uuid.New().String(),
		Profile:   profile,
		StartedAt: time.Now(),
		recorded:  make(map[string]bool),
	}
}

// SetCriticalFailure sets the critical-failure flag. The flag is monotonic:
// once set it is never cleared within a run.
func (s *RunState) SetCriticalFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criticalFailure = true
}

// CriticalFailure reports whether a critical component has failed.
func (s *RunState) CriticalFailure() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.criticalFailure
}

// Halt sets the halted flag. Monotonic, like SetCriticalFailure.
func (s *RunState) Halt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.halted = true
}

// Halted reports whether the run has been halted.
func (s *RunState) Halted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.halted
}

// Append records a component result. Each component may be recorded exactly
// once per run; a second append for the same component is a programmer error
// and is rejected.
func (s *RunState) Append(result ComponentResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.recorded[result.ComponentID] {
		return fmt.Errorf("component %s already has a recorded result", result.ComponentID)
	}
	s.recorded[result.ComponentID] = true
	s.results = append(s.results, result)
	return nil
}

// Results returns the component results in execution order.
func (s *RunState) Results() []ComponentResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ComponentResult, len(s.results))
	copy(out, s.results)
	return out
}

// Summary computes outcome totals for the run.
func (s *RunState) Summary() RunSummary {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := RunSummary{Total: len(s.results)}
	for _, r := range s.results {
		switch r.Status {
		case StatusSuccess:
			summary.Succeeded++
		case StatusAlreadyPresent:
			summary.AlreadyPresent++
		case StatusFailed:
			summary.Failed++
		case StatusSkipped:
			summary.Skipped++
		}
	}
	return summary
}

// RunSummary provides outcome totals for a run.
type RunSummary struct {
	// Total is the number of components reached.
	Total int `json:"total"`

	// Succeeded is the number of components installed by a verified method.
	Succeeded int `json:"succeeded"`

	// AlreadyPresent is the number of components found present before any
	// method ran.
	AlreadyPresent int `json:"already_present"`

	// Failed is the number of components whose methods were all exhausted.
	Failed int `json:"failed"`

	// Skipped is the number of components skipped for any reason.
	Skipped int `json:"skipped"`
}
