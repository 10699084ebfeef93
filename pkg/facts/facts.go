// Package facts discovers the local machine state that installation methods
// depend on: platform, available package managers, and the effective search
// path. Facts are collected once at startup and treated as read-only; the
// search path itself is always re-resolved live by probes, never from here.
package facts

import (
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/toolforge/toolforge/pkg/pathenv"
)

// SupportedManagers lists the package managers toolforge knows how to drive,
// in detection preference order.
var SupportedManagers = []string{"apt", "dnf", "yum", "zypper", "brew", "apk"}

// Facts is the discovered machine state.
type Facts struct {
	// OS is the operating system (runtime.GOOS).
	OS string `json:"os"`

	// Arch is the CPU architecture (runtime.GOARCH).
	Arch string `json:"arch"`

	// Hostname is the machine hostname.
	Hostname string `json:"hostname"`

	// PackageManager is the preferred available package manager, empty when
	// none of the supported managers is present.
	PackageManager string `json:"package_manager,omitempty"`

	// PackageManagers lists every supported manager found on the machine.
	PackageManagers []string `json:"package_managers,omitempty"`

	// PathDirs is the effective search path at collection time.
	PathDirs []string `json:"path_dirs"`

	// CollectedAt is when the facts were collected.
	CollectedAt time.Time `json:"collected_at"`
}

// Collect gathers machine facts.
func Collect(paths *pathenv.Resolver) *Facts {
	if paths == nil {
		paths = pathenv.NewResolver()
	}

	hostname, _ := os.Hostname()

	f := &Facts{
		OS:          runtime.GOOS,
		Arch:        runtime.GOARCH,
		Hostname:    hostname,
		PathDirs:    paths.Resolve(),
		CollectedAt: time.Now(),
	}

	for _, mgr := range SupportedManagers {
		if _, err := exec.LookPath(mgr); err == nil {
			f.PackageManagers = append(f.PackageManagers, mgr)
		}
	}
	if len(f.PackageManagers) > 0 {
		f.PackageManager = f.PackageManagers[0]
	}

	return f
}

// HasManager reports whether the given package manager was detected.
func (f *Facts) HasManager(name string) bool {
	for _, mgr := range f.PackageManagers {
		if mgr == name {
			return true
		}
	}
	return false
}
