package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// ProfileID identifies an installation profile.
type ProfileID string

// Built-in profile identifiers.
const (
	ProfileMinimal          ProfileID = "Minimal"
	ProfileVCSDevEssentials ProfileID = "VCS_Dev_Essentials"
	ProfileDataScienceCore  ProfileID = "Data_Science_Core"
	ProfileAIMLStack        ProfileID = "AI_ML_Stack"
	ProfileBigDataStack     ProfileID = "Big_Data_Stack"
	ProfileFull             ProfileID = "Full"
)

// Profile is a named bundle selecting which components are relevant for a use
// case. A profile may imply other profiles; implication edges form a DAG.
type Profile struct {
	// ID is the profile identifier.
	ID ProfileID `json:"id" yaml:"id" validate:"required"`

	// Description is the human-readable profile description.
	Description string `json:"description" yaml:"description"`

	// Implies lists profiles whose components are also relevant when this
	// profile is selected.
	Implies []ProfileID `json:"implies,omitempty" yaml:"implies,omitempty"`
}

// UnknownProfileError reports a profile identifier that is not part of the
// catalog. It aborts a run before any component is reached.
type UnknownProfileError struct {
	Profile ProfileID
	Known   []ProfileID
}

// Error implements the error interface.
func (e *UnknownProfileError) Error() string {
	known := make([]string, 0, len(e.Known))
	for _, id := range e.Known {
		known = append(known, string(id))
	}
	return fmt.Sprintf("unknown profile %q (known profiles: %s)", e.Profile, strings.Join(known, ", "))
}

// ProfileSet is the immutable profile catalog: the set of known profiles, the
// designated full profile, and the precomputed reachability closure over the
// implies edges.
type ProfileSet struct {
	profiles map[ProfileID]Profile
	full     ProfileID

	// closure maps each profile to the set of profiles reachable from it by
	// following implies edges, including itself. Computed once at build time
	// so relevance checks are pure map lookups.
	closure map[ProfileID]map[ProfileID]bool
}

// NewProfileSet builds a profile set from profile definitions. It validates
// that identifiers are unique, that every implies edge targets a known
// profile, and that the implies edges form a DAG. Cyclic hierarchies are
// rejected here so relevance resolution never has to consider them.
func NewProfileSet(profiles []Profile, full ProfileID) (*ProfileSet, error) {
	if len(profiles) == 0 {
		return nil, fmt.Errorf("profile set is empty")
	}

	ps := &ProfileSet{
		profiles: make(map[ProfileID]Profile, len(profiles)),
		full:     full,
		closure:  make(map[ProfileID]map[ProfileID]bool, len(profiles)),
	}

	for _, p := range profiles {
		if p.ID == "" {
			return nil, fmt.Errorf("profile has empty identifier")
		}
		if _, exists := ps.profiles[p.ID]; exists {
			return nil, fmt.Errorf("duplicate profile identifier: %s", p.ID)
		}
		ps.profiles[p.ID] = p
	}

	if _, ok := ps.profiles[full]; !ok {
		return nil, fmt.Errorf("designated full profile %q is not defined", full)
	}

	for _, p := range ps.profiles {
		for _, target := range p.Implies {
			if _, ok := ps.profiles[target]; !ok {
				return nil, fmt.Errorf("profile %s implies unknown profile %s", p.ID, target)
			}
		}
	}

	if err := ps.detectCycles(); err != nil {
		return nil, err
	}

	for id := range ps.profiles {
		ps.closure[id] = ps.computeReachable(id)
	}

	return ps, nil
}

// detectCycles runs a DFS over the implies edges and rejects any cycle.
func (ps *ProfileSet) detectCycles() error {
	visited := make(map[ProfileID]bool)
	inStack := make(map[ProfileID]bool)

	var visit func(id ProfileID, path []ProfileID) error
	visit = func(id ProfileID, path []ProfileID) error {
		visited[id] = true
		inStack[id] = true
		path = append(path, id)

		for _, next := range ps.profiles[id].Implies {
			if inStack[next] {
				return fmt.Errorf("cyclic profile implication: %s", formatProfileCycle(append(path, next)))
			}
			if !visited[next] {
				if err := visit(next, path); err != nil {
					return err
				}
			}
		}

		inStack[id] = false
		return nil
	}

	// Iterate in sorted order so error messages are deterministic.
	for _, id := range ps.IDs() {
		if !visited[id] {
			if err := visit(id, nil); err != nil {
				return err
			}
		}
	}
	return nil
}

// computeReachable returns the set of profiles reachable from id, including
// id itself. The traversal is order-independent: the result is a set, so two
// catalogs declaring the same edges in different order resolve identically.
func (ps *ProfileSet) computeReachable(id ProfileID) map[ProfileID]bool {
	reachable := make(map[ProfileID]bool)
	stack := []ProfileID{id}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reachable[current] {
			continue
		}
		reachable[current] = true
		stack = append(stack, ps.profiles[current].Implies...)
	}

	return reachable
}

// Resolve returns the profile for the given identifier.
func (ps *ProfileSet) Resolve(id ProfileID) (Profile, error) {
	p, ok := ps.profiles[id]
	if !ok {
		return Profile{}, &UnknownProfileError{Profile: id, Known: ps.IDs()}
	}
	return p, nil
}

// Reachable returns the profiles reachable from id by following implies
// edges, including id itself.
func (ps *ProfileSet) Reachable(id ProfileID) (map[ProfileID]bool, error) {
	if _, ok := ps.profiles[id]; !ok {
		return nil, &UnknownProfileError{Profile: id, Known: ps.IDs()}
	}

	// Copy so callers cannot mutate the precomputed closure.
	out := make(map[ProfileID]bool, len(ps.closure[id]))
	for k, v := range ps.closure[id] {
		out[k] = v
	}
	return out, nil
}

// Full returns the designated full profile identifier.
func (ps *ProfileSet) Full() ProfileID {
	return ps.full
}

// IDs returns all profile identifiers in sorted order.
func (ps *ProfileSet) IDs() []ProfileID {
	ids := make([]ProfileID, 0, len(ps.profiles))
	for id := range ps.profiles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ShouldRun reports whether a component is relevant to the selected profile.
// The full profile matches every component; a component with no declared
// profiles is relevant to every valid profile; otherwise the component is
// relevant iff any profile reachable from the selection intersects the
// component's declared profiles.
func (ps *ProfileSet) ShouldRun(selected ProfileID, spec ComponentSpec) (bool, error) {
	if _, ok := ps.profiles[selected]; !ok {
		return false, &UnknownProfileError{Profile: selected, Known: ps.IDs()}
	}

	if selected == ps.full {
		return true, nil
	}
	if len(spec.Profiles) == 0 {
		return true, nil
	}

	reachable := ps.closure[selected]
	for _, p := range spec.Profiles {
		if reachable[p] {
			return true, nil
		}
	}
	return false, nil
}

func formatProfileCycle(cycle []ProfileID) string {
	parts := make([]string, 0, len(cycle))
	for _, id := range cycle {
		parts = append(parts, string(id))
	}
	return strings.Join(parts, " -> ")
}
