package methods

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/toolforge/toolforge/pkg/catalog"
	"github.com/toolforge/toolforge/pkg/engine"
	"github.com/toolforge/toolforge/pkg/facts"
	"github.com/toolforge/toolforge/pkg/pathenv"
)

// Build turns catalog specs into executable components, in spec order. The
// runner and resolver are shared across all components; the catalog has
// already validated the specs, so an unknown kind here is a programming
// error.
func Build(specs []catalog.ComponentSpec, machine *facts.Facts, runner CommandRunner, paths *pathenv.Resolver) []engine.Component {
	client := &http.Client{Timeout: 10 * time.Minute}

	components := make([]engine.Component, 0, len(specs))
	for _, spec := range specs {
		comp := engine.Component{
			Spec:  spec,
			Probe: &execProbe{spec: spec.Probe, runner: runner, lookup: paths},
		}
		for _, m := range spec.Methods {
			comp.Methods = append(comp.Methods, buildMethod(m, machine, runner, paths, client))
		}
		components = append(components, comp)
	}
	return components
}

func buildMethod(spec catalog.MethodSpec, machine *facts.Facts, runner CommandRunner, paths *pathenv.Resolver, client *http.Client) engine.Method {
	switch spec.Kind {
	case catalog.MethodKindPkg:
		return &pkgMethod{
			name:    spec.Name,
			manager: spec.Manager,
			pkg:     spec.Package,
			machine: machine,
			runner:  runner,
		}
	case catalog.MethodKindPip:
		return &pipMethod{
			name:   spec.Name,
			pkg:    spec.Package,
			runner: runner,
		}
	case catalog.MethodKindScript:
		return &scriptMethod{
			name:    spec.Name,
			command: withEnv(spec.Env, spec.Command),
			runner:  runner,
		}
	case catalog.MethodKindDownload:
		return &downloadMethod{
			name:   spec.Name,
			url:    spec.URL,
			dest:   spec.Dest,
			binary: binaryNameFromURL(spec.URL),
			paths:  paths,
			client: client,
		}
	default:
		panic(fmt.Sprintf("methods: unknown method kind %q", spec.Kind))
	}
}

// withEnv prefixes a script with its environment assignments, sorted for a
// deterministic command line.
func withEnv(env map[string]string, command string) string {
	if len(env) == 0 {
		return command
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "export %s=%q\n", k, env[k])
	}
	b.WriteString(command)
	return b.String()
}
