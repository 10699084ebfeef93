package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/toolforge/toolforge/pkg/catalog"
)

// Orchestrator walks the component catalog in its declared order, exactly
// once per run, applying profile relevance and the halt/critical-failure
// policy, and delegating runnable components to the Installer. Execution is
// strictly sequential: install actions mutate machine-wide durable state
// (search path, package-manager caches and locks) that must never see two
// concurrent writers.
type Orchestrator struct {
	catalog    *catalog.Catalog
	components []Component
	installer  *Installer
	sink       EventSink
	log        zerolog.Logger
}

// NewOrchestrator creates an orchestrator over the given executable
// components. The components must be the catalog's components, in catalog
// order; relevance and policy decisions come from their specs.
func NewOrchestrator(cat *catalog.Catalog, components []Component, installer *Installer, sink EventSink, log zerolog.Logger) *Orchestrator {
	if sink == nil {
		sink = NopSink{}
	}
	return &Orchestrator{
		catalog:    cat,
		components: components,
		installer:  installer,
		sink:       sink,
		log:        log,
	}
}

// Run executes a full single pass over the catalog against a freshly created
// run state. An unknown profile aborts before any component runs. Otherwise
// every component receives exactly one ComponentResult, including Skipped
// entries for the tail after a halt, so the final report is complete rather
// than truncated. The returned error is reserved for pre-run failures;
// component failures are reported through the run state only.
func (o *Orchestrator) Run(ctx context.Context, state *RunState) error {
	profile := state.Profile
	if _, err := o.catalog.Profiles().Resolve(profile); err != nil {
		return err
	}

	log := o.log.With().Str("run_id", state.RunID).Str("profile", string(profile)).Logger()
	log.Info().Int("components", len(o.components)).Msg("run started")

	for _, comp := range o.components {
		spec := comp.Spec

		switch {
		case state.Halted():
			// The loop keeps going after a halt so the tail is recorded,
			// but no install action is ever invoked again.
			o.skip(state, spec.ID, SkipHalted)

		case state.CriticalFailure() && spec.Critical:
			o.skip(state, spec.ID, SkipPriorCriticalFailure)

		default:
			relevant, err := o.catalog.ShouldRun(profile, spec)
			if err != nil {
				// Unreachable after the pre-run Resolve; treat as a skip so
				// the result list stays complete.
				log.Error().Err(err).Str("component", spec.ID).Msg("relevance check failed")
				relevant = false
			}
			if !relevant {
				o.skip(state, spec.ID, SkipNotInProfile)
				continue
			}

			result := o.installer.Install(ctx, state.RunID, comp)
			o.append(state, result)

			if result.Status == StatusFailed && spec.Critical {
				state.SetCriticalFailure()
				log.Warn().Str("component", spec.ID).Msg("critical component failed")
				if spec.HaltOnFailure {
					state.Halt()
					log.Error().Str("component", spec.ID).Msg("halting remainder of run")
				}
			}
		}
	}

	state.CompletedAt = time.Now()
	status := RunStatusCompleted
	if state.Halted() {
		status = RunStatusHalted
	}
	summary := state.Summary()
	log.Info().
		Str("status", string(status)).
		Int("succeeded", summary.Succeeded).
		Int("already_present", summary.AlreadyPresent).
		Int("failed", summary.Failed).
		Int("skipped", summary.Skipped).
		Msg("run finished")

	return nil
}

// Status returns the terminal run status for a finished state.
func (o *Orchestrator) Status(state *RunState) RunStatus {
	if state.Halted() {
		return RunStatusHalted
	}
	return RunStatusCompleted
}

// ExitCode maps a finished run to the process exit status: non-zero iff the
// run halted. Non-critical failures are reported but do not fail the run.
func (o *Orchestrator) ExitCode(state *RunState) int {
	if state.Halted() {
		return 1
	}
	return 0
}

func (o *Orchestrator) skip(state *RunState, componentID string, reason SkipReason) {
	now := time.Now()
	o.append(state, ComponentResult{
		ComponentID: componentID,
		Status:      StatusSkipped,
		SkipReason:  reason,
		StartedAt:   now,
		CompletedAt: now,
	})
	o.sink.Record(Event{
		RunID:       state.RunID,
		ComponentID: componentID,
		Phase:       PhaseSkipped,
		Diagnostic:  string(reason),
		Timestamp:   now,
	})
}

func (o *Orchestrator) append(state *RunState, result ComponentResult) {
	if err := state.Append(result); err != nil {
		// Duplicate catalog entries are rejected at build time, so this
		// only fires on an engine bug. Log it; do not lose the run.
		o.log.Error().Err(err).Str("component", result.ComponentID).Msg("dropping duplicate component result")
	}
}
