package engine

import (
	"encoding/json"
	"fmt"
)

// ComponentStatus is the final status of one component within a run.
type ComponentStatus string

const (
	// StatusSuccess indicates a method's post-attempt probe confirmed
	// presence.
	StatusSuccess ComponentStatus = "success"

	// StatusAlreadyPresent indicates the pre-method probe found the
	// component usable, so no method ran.
	StatusAlreadyPresent ComponentStatus = "already_present"

	// StatusFailed indicates every method was exhausted without a confirmed
	// install.
	StatusFailed ComponentStatus = "failed"

	// StatusSkipped indicates the component was never attempted; see the
	// result's SkipReason.
	StatusSkipped ComponentStatus = "skipped"
)

// Validate checks if the component status is valid.
func (s ComponentStatus) Validate() error {
	switch s {
	case StatusSuccess, StatusAlreadyPresent, StatusFailed, StatusSkipped:
		return nil
	default:
		return fmt.Errorf("invalid component status: %s", s)
	}
}

// Installed reports whether the component ended up usable.
func (s ComponentStatus) Installed() bool {
	return s == StatusSuccess || s == StatusAlreadyPresent
}

// UnmarshalJSON implements JSON unmarshaling with validation.
func (s *ComponentStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = ComponentStatus(str)
	return s.Validate()
}

// SkipReason explains why a component was skipped.
type SkipReason string

const (
	// SkipNotInProfile indicates the component is not relevant to the
	// selected profile.
	SkipNotInProfile SkipReason = "not_in_profile"

	// SkipPriorCriticalFailure indicates an earlier critical component
	// failed, so this critical component was not attempted.
	SkipPriorCriticalFailure SkipReason = "prior_critical_failure"

	// SkipHalted indicates the run was halted before this component was
	// reached.
	SkipHalted SkipReason = "halted"
)

// Validate checks if the skip reason is valid.
func (r SkipReason) Validate() error {
	switch r {
	case SkipNotInProfile, SkipPriorCriticalFailure, SkipHalted:
		return nil
	default:
		return fmt.Errorf("invalid skip reason: %s", r)
	}
}

// RunStatus is the overall status of a run.
type RunStatus string

const (
	// RunStatusRunning indicates the run is executing.
	RunStatusRunning RunStatus = "running"

	// RunStatusCompleted indicates the run walked the whole catalog without
	// halting; individual components may still have failed.
	RunStatusCompleted RunStatus = "completed"

	// RunStatusHalted indicates a critical halt-on-failure component failed
	// and the remaining components were skipped.
	RunStatusHalted RunStatus = "halted"
)

// IsTerminal returns true if the run status is final.
func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusHalted
}

// Phase identifies where in a component's lifecycle an event was emitted.
type Phase string

const (
	// PhaseStarted marks the beginning of a component's handling.
	PhaseStarted Phase = "started"

	// PhaseAttempted marks one method execution.
	PhaseAttempted Phase = "attempted"

	// PhaseVerified marks a post-attempt probe observation.
	PhaseVerified Phase = "verified"

	// PhaseSkipped marks a component recorded without any attempt.
	PhaseSkipped Phase = "skipped"

	// PhaseSucceeded marks a verified install or an already-present find.
	PhaseSucceeded Phase = "succeeded"

	// PhaseFailed marks method exhaustion.
	PhaseFailed Phase = "failed"
)

// Severity returns the log severity for the phase.
func (p Phase) Severity() string {
	if p == PhaseFailed {
		return "error"
	}
	return "info"
}
