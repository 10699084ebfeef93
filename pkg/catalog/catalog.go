// Package catalog defines the static profile and component catalogs that
// drive an installation run. Catalogs are built once at startup, validated
// eagerly (unique identifiers, acyclic profile implications, well-formed
// method and probe specs), and never mutated afterwards.
package catalog

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Catalog is the immutable pairing of a profile set with an ordered component
// list. Component order is authored order and encodes coarse dependencies
// (e.g. a runtime before the package installers that need it); the catalog
// author, not the engine, is responsible for correct ordering.
type Catalog struct {
	profiles   *ProfileSet
	components []ComponentSpec
}

// Build constructs and validates a catalog. It is the single choke point for
// catalog invariants: anything that passes Build is safe to execute without
// further structural checks.
func Build(profiles []Profile, full ProfileID, components []ComponentSpec) (*Catalog, error) {
	ps, err := NewProfileSet(profiles, full)
	if err != nil {
		return nil, fmt.Errorf("invalid profile catalog: %w", err)
	}

	v := validator.New()
	seen := make(map[string]bool, len(components))

	for i, spec := range components {
		if err := v.Struct(spec); err != nil {
			return nil, fmt.Errorf("component %q (index %d) is invalid: %w", spec.ID, i, err)
		}
		if seen[spec.ID] {
			return nil, fmt.Errorf("duplicate component identifier: %s", spec.ID)
		}
		seen[spec.ID] = true

		if spec.Probe.Binary == "" && spec.Probe.Command == "" {
			return nil, fmt.Errorf("component %q has no probe (binary or command required)", spec.ID)
		}
		if spec.Probe.Binary != "" && spec.Probe.Command != "" {
			return nil, fmt.Errorf("component %q probe sets both binary and command", spec.ID)
		}

		for _, p := range spec.Profiles {
			if _, err := ps.Resolve(p); err != nil {
				return nil, fmt.Errorf("component %q references unknown profile %s", spec.ID, p)
			}
		}

		for _, m := range spec.Methods {
			if err := validateMethod(spec.ID, m); err != nil {
				return nil, err
			}
		}
	}

	specs := make([]ComponentSpec, len(components))
	copy(specs, components)

	return &Catalog{profiles: ps, components: specs}, nil
}

func validateMethod(componentID string, m MethodSpec) error {
	switch m.Kind {
	case MethodKindPkg, MethodKindPip:
		if m.Package == "" {
			return fmt.Errorf("component %q method %q: kind %s requires a package name", componentID, m.Name, m.Kind)
		}
	case MethodKindScript:
		if m.Command == "" {
			return fmt.Errorf("component %q method %q: script method requires a command", componentID, m.Name)
		}
	case MethodKindDownload:
		if m.URL == "" {
			return fmt.Errorf("component %q method %q: download method requires a url", componentID, m.Name)
		}
	default:
		return fmt.Errorf("component %q method %q: unknown kind %q", componentID, m.Name, m.Kind)
	}
	return nil
}

// Profiles returns the profile set.
func (c *Catalog) Profiles() *ProfileSet {
	return c.profiles
}

// Components returns the components in catalog order.
func (c *Catalog) Components() []ComponentSpec {
	out := make([]ComponentSpec, len(c.components))
	copy(out, c.components)
	return out
}

// Component returns the component with the given identifier.
func (c *Catalog) Component(id string) (ComponentSpec, bool) {
	for _, spec := range c.components {
		if spec.ID == id {
			return spec, true
		}
	}
	return ComponentSpec{}, false
}

// Len returns the number of components in the catalog.
func (c *Catalog) Len() int {
	return len(c.components)
}

// ShouldRun reports whether the component is relevant to the selected profile.
func (c *Catalog) ShouldRun(selected ProfileID, spec ComponentSpec) (bool, error) {
	return c.profiles.ShouldRun(selected, spec)
}

// Merge returns a new catalog with the overlay applied: overlay components
// replace built-in components with the same identifier in place, new overlay
// components are appended in their declared order, and overlay profiles are
// added to the profile set. The receiver is not modified.
func (c *Catalog) Merge(overlay *File) (*Catalog, error) {
	profiles := make([]Profile, 0, len(c.profiles.profiles)+len(overlay.Profiles))
	for _, id := range c.profiles.IDs() {
		profiles = append(profiles, c.profiles.profiles[id])
	}
	known := make(map[ProfileID]bool, len(profiles))
	for _, p := range profiles {
		known[p.ID] = true
	}
	for _, p := range overlay.Profiles {
		if known[p.ID] {
			return nil, fmt.Errorf("overlay redefines built-in profile %s", p.ID)
		}
		profiles = append(profiles, p)
	}

	components := make([]ComponentSpec, len(c.components))
	copy(components, c.components)
	index := make(map[string]int, len(components))
	for i, spec := range components {
		index[spec.ID] = i
	}

	for _, spec := range overlay.Components {
		if i, ok := index[spec.ID]; ok {
			components[i] = spec
		} else {
			components = append(components, spec)
		}
	}

	return Build(profiles, c.profiles.full, components)
}
