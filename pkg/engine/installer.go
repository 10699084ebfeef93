package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Installer executes one component's methods in declaration order until one
// is independently verified. It never trusts a method's self-reported
// outcome: an attempt that reports failure can still leave the target usable
// (and is then a success), and an attempt that reports success can leave it
// unusable (and the next method runs).
type Installer struct {
	sink  EventSink
	force bool
	log   zerolog.Logger
}

// InstallerOptions configures an Installer.
type InstallerOptions struct {
	// ForceReinstall bypasses the pre-method already-present short-circuit.
	// Post-attempt verification is never bypassed.
	ForceReinstall bool

	// Logger is the structured logger for installer diagnostics.
	Logger zerolog.Logger
}

// NewInstaller creates an installer that reports progress to sink.
func NewInstaller(sink EventSink, opts InstallerOptions) *Installer {
	if sink == nil {
		sink = NopSink{}
	}
	return &Installer{
		sink:  sink,
		force: opts.ForceReinstall,
		log:   opts.Logger,
	}
}

// Install runs the per-component state machine:
//
//	NotStarted -> Trying(i) -> Verifying(i) -> Success(i) | Trying(i+1)
//
// terminating in Success, or Failed after the last method. A probe runs once
// before any method (idempotent re-run safety) and once immediately after
// every attempt, regardless of the attempt's own outcome. Probes are never
// cached across attempts: methods are permitted to mutate durable
// configuration the probe depends on.
func (in *Installer) Install(ctx context.Context, runID string, comp Component) ComponentResult {
	spec := comp.Spec
	result := ComponentResult{
		ComponentID: spec.ID,
		StartedAt:   time.Now(),
	}

	in.emit(runID, spec.ID, "", PhaseStarted, spec.Description)

	if !in.force {
		if probe := in.probe(ctx, comp); probe.Present {
			result.Status = StatusAlreadyPresent
			result.Version = probe.Version
			result.CompletedAt = time.Now()
			in.emit(runID, spec.ID, "", PhaseSucceeded, alreadyPresentText(probe))
			return result
		}
	}

	for _, method := range comp.Methods {
		attempt := InstallAttempt{
			ComponentID: spec.ID,
			Method:      method.Name(),
			StartedAt:   time.Now(),
		}

		attemptErr := in.attempt(ctx, method)
		if attemptErr != nil {
			attempt.AttemptErr = attemptErr.Error()
		}
		in.emit(runID, spec.ID, method.Name(), PhaseAttempted, attemptText(attemptErr))

		// Mandatory verification, even when the attempt reported failure.
		probe := in.probe(ctx, comp)
		attempt.Probe = probe
		attempt.CompletedAt = time.Now()
		result.Attempts = append(result.Attempts, attempt)
		in.emit(runID, spec.ID, method.Name(), PhaseVerified, verifyText(probe))

		if probe.Present {
			result.Status = StatusSuccess
			result.Method = method.Name()
			result.Version = probe.Version
			result.CompletedAt = time.Now()
			in.emit(runID, spec.ID, method.Name(), PhaseSucceeded, verifyText(probe))
			return result
		}

		if attemptErr == nil {
			in.log.Warn().
				Str("component", spec.ID).
				Str("method", method.Name()).
				Msg("method reported success but verification found the component absent")
		}
	}

	result.Status = StatusFailed
	result.CompletedAt = time.Now()
	if n := len(result.Attempts); n > 0 {
		result.Diagnostic = result.Attempts[n-1].diagnostic()
	} else {
		result.Diagnostic = "component has no installation methods"
	}
	in.emit(runID, spec.ID, "", PhaseFailed, result.Diagnostic)
	return result
}

// attempt invokes the method, containing panics as failed attempts. Failures
// never propagate past the component they belong to.
func (in *Installer) attempt(ctx context.Context, method Method) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = NewExecutionError(fmt.Sprintf("attempt panicked: %v", r), nil).WithMethod(method.Name())
		}
	}()
	return method.Attempt(ctx)
}

// probe runs the component's probe. A probe error is treated as "absent":
// the probe is the sole authority on presence and an unanswerable probe
// cannot confirm anything.
func (in *Installer) probe(ctx context.Context, comp Component) ProbeResult {
	res, err := comp.Probe.Check(ctx)
	if err != nil {
		in.log.Debug().
			Str("component", comp.Spec.ID).
			Err(err).
			Msg("probe failed, treating component as absent")
		return ProbeResult{}
	}
	return res
}

func (in *Installer) emit(runID, componentID, method string, phase Phase, diagnostic string) {
	in.sink.Record(Event{
		RunID:       runID,
		ComponentID: componentID,
		Method:      method,
		Phase:       phase,
		Diagnostic:  diagnostic,
		Timestamp:   time.Now(),
	})
}

func attemptText(err error) string {
	if err != nil {
		return err.Error()
	}
	return "attempt reported success"
}

func verifyText(probe ProbeResult) string {
	if !probe.Present {
		return "probe: absent"
	}
	if probe.Version != "" {
		return fmt.Sprintf("probe: present (version %s)", probe.Version)
	}
	return "probe: present"
}

func alreadyPresentText(probe ProbeResult) string {
	if probe.Version != "" {
		return fmt.Sprintf("already present (version %s)", probe.Version)
	}
	return "already present"
}
