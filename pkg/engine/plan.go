package engine

import (
	"github.com/toolforge/toolforge/pkg/catalog"
)

// PlanAction says what a plan entry would do.
type PlanAction string

const (
	// PlanActionInstall means the component would be attempted.
	PlanActionInstall PlanAction = "install"

	// PlanActionSkip means the component is not relevant to the profile.
	PlanActionSkip PlanAction = "skip"
)

// PlanEntry previews one component of a prospective run.
type PlanEntry struct {
	// ComponentID is the component identifier.
	ComponentID string `json:"component_id"`

	// Description is the component description.
	Description string `json:"description"`

	// Action is install or skip.
	Action PlanAction `json:"action"`

	// SkipReason is set for skip entries.
	SkipReason SkipReason `json:"skip_reason,omitempty"`

	// Methods are the method names in the order they would be tried.
	Methods []string `json:"methods,omitempty"`

	// Critical and HaltOnFailure mirror the component's failure policy.
	Critical      bool `json:"critical,omitempty"`
	HaltOnFailure bool `json:"halt_on_failure,omitempty"`
}

// Plan resolves, without side effects, which catalog components a run with
// the selected profile would attempt and which it would skip. Failure-driven
// skips cannot be predicted here; only profile relevance is resolved.
func Plan(cat *catalog.Catalog, profile catalog.ProfileID) ([]PlanEntry, error) {
	if _, err := cat.Profiles().Resolve(profile); err != nil {
		return nil, err
	}

	specs := cat.Components()
	entries := make([]PlanEntry, 0, len(specs))

	for _, spec := range specs {
		entry := PlanEntry{
			ComponentID:   spec.ID,
			Description:   spec.Description,
			Critical:      spec.Critical,
			HaltOnFailure: spec.HaltOnFailure,
		}

		relevant, err := cat.ShouldRun(profile, spec)
		if err != nil {
			return nil, err
		}
		if relevant {
			entry.Action = PlanActionInstall
			for _, m := range spec.Methods {
				entry.Methods = append(entry.Methods, m.Name)
			}
		} else {
			entry.Action = PlanActionSkip
			entry.SkipReason = SkipNotInProfile
		}

		entries = append(entries, entry)
	}

	return entries, nil
}
