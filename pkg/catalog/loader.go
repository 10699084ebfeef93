package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

// File is a declarative catalog overlay loaded from disk. Overlay components
// replace or extend the built-in catalog; overlay profiles extend the profile
// hierarchy. Structural validation happens in Build when the overlay is
// merged, not here.
type File struct {
	Profiles   []Profile       `json:"profiles,omitempty" yaml:"profiles,omitempty"`
	Components []ComponentSpec `json:"components,omitempty" yaml:"components,omitempty"`
}

// LoadFile reads a catalog overlay from a CUE or YAML file, selected by file
// extension.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return parseCUE(path, data)
	case ".yaml", ".yml":
		return parseYAML(path, data)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q (expected .cue, .yaml, or .yml)", filepath.Ext(path))
	}
}

// parseCUE compiles and decodes a CUE catalog file.
func parseCUE(path string, data []byte) (*File, error) {
	cctx := cuecontext.New()

	value := cctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("failed to compile %s: %s", path, cueerrors.Details(err, nil))
	}

	if err := value.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("catalog %s is not concrete: %s", path, cueerrors.Details(err, nil))
	}

	var file File
	if err := value.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return &file, nil
}

// parseYAML decodes a YAML catalog file.
func parseYAML(path string, data []byte) (*File, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return &file, nil
}
