package methods

import (
	"context"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/toolforge/toolforge/pkg/catalog"
	"github.com/toolforge/toolforge/pkg/engine"
)

var versionPattern = regexp.MustCompile(`\d+\.\d+(?:\.\d+)*`)

// execProbe verifies a component's actual presence. It is side-effect free
// and resolves the durable search path through the pathenv resolver on every
// call, so configuration written by a previous attempt is visible without a
// process restart.
type execProbe struct {
	spec   catalog.ProbeSpec
	runner CommandRunner
	lookup BinaryLookup
}

// BinaryLookup locates an executable on the durable search path.
type BinaryLookup interface {
	Lookup(name string) (string, bool)
}

// Check implements engine.Probe.
func (p *execProbe) Check(ctx context.Context) (engine.ProbeResult, error) {
	if p.spec.Command != "" {
		return p.checkCommand(ctx)
	}
	return p.checkBinary(ctx)
}

func (p *execProbe) checkCommand(ctx context.Context) (engine.ProbeResult, error) {
	result, err := p.runner.RunShell(ctx, p.spec.Command)
	if err != nil {
		return engine.ProbeResult{}, err
	}
	if result.ExitCode != 0 {
		return engine.ProbeResult{}, nil
	}
	return p.withVersionFloor(engine.ProbeResult{
		Present: true,
		Version: ExtractVersion(result.Output()),
	}), nil
}

func (p *execProbe) checkBinary(ctx context.Context) (engine.ProbeResult, error) {
	path, ok := p.lookup.Lookup(p.spec.Binary)
	if !ok {
		return engine.ProbeResult{}, nil
	}

	probe := engine.ProbeResult{Present: true}
	if len(p.spec.VersionArgs) > 0 {
		result, err := p.runner.Run(ctx, path, p.spec.VersionArgs...)
		if err == nil && result.ExitCode == 0 {
			probe.Version = ExtractVersion(result.Output())
		}
	}
	return p.withVersionFloor(probe), nil
}

// withVersionFloor applies the catalog's semver floor: a binary that is
// present but older than the floor is reported absent so later methods still
// get a chance to upgrade it. A version string semver cannot parse counts as
// present; a working tool with an odd version format must not be reinstalled
// forever.
func (p *execProbe) withVersionFloor(probe engine.ProbeResult) engine.ProbeResult {
	if !probe.Present || p.spec.MinVersion == "" || probe.Version == "" {
		return probe
	}

	floor, err := semver.NewVersion(p.spec.MinVersion)
	if err != nil {
		return probe
	}
	found, err := semver.NewVersion(probe.Version)
	if err != nil {
		return probe
	}
	if found.LessThan(floor) {
		probe.Present = false
	}
	return probe
}

// ExtractVersion pulls the first dotted version number out of command
// output, searching the first line first (where most tools print it).
func ExtractVersion(output string) string {
	for _, line := range strings.Split(output, "\n") {
		if m := versionPattern.FindString(line); m != "" {
			return m
		}
	}
	return ""
}
