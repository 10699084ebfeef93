package catalog

// MethodKind selects the mechanism an installation method uses.
type MethodKind string

const (
	// MethodKindPkg installs through the system package manager.
	MethodKindPkg MethodKind = "pkg"

	// MethodKindPip installs a Python package for the current user.
	MethodKindPip MethodKind = "pip"

	// MethodKindScript runs a shell script.
	MethodKindScript MethodKind = "script"

	// MethodKindDownload fetches a binary over HTTP into a local bin
	// directory and registers that directory on the durable search path.
	MethodKindDownload MethodKind = "download"
)

// MethodSpec is the declarative description of one installation strategy.
// Methods are tried in declaration order; the first one whose post-attempt
// probe confirms presence wins.
type MethodSpec struct {
	// Name identifies the method within its component (e.g. "apt", "pip-user").
	Name string `json:"name" yaml:"name" validate:"required"`

	// Kind selects the method mechanism.
	Kind MethodKind `json:"kind" yaml:"kind" validate:"required,oneof=pkg pip script download"`

	// Package is the package name for pkg and pip methods.
	Package string `json:"package,omitempty" yaml:"package,omitempty"`

	// Manager pins a specific package manager for pkg methods. Empty means
	// use whichever supported manager the machine facts detected.
	Manager string `json:"manager,omitempty" yaml:"manager,omitempty"`

	// Command is the shell script body for script methods.
	Command string `json:"command,omitempty" yaml:"command,omitempty"`

	// URL is the artifact location for download methods.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// Dest overrides the destination directory for download methods.
	Dest string `json:"dest,omitempty" yaml:"dest,omitempty"`

	// Env holds extra environment variables for the attempt.
	Env map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
}

// ProbeSpec describes the side-effect-free presence check for a component.
// Exactly one of Binary or Command must be set.
type ProbeSpec struct {
	// Binary is the executable to look up on the durable search path.
	Binary string `json:"binary,omitempty" yaml:"binary,omitempty"`

	// VersionArgs are passed to the binary to capture a version string
	// (e.g. ["--version"]). Empty means presence is lookup-only.
	VersionArgs []string `json:"version_args,omitempty" yaml:"version_args,omitempty"`

	// MinVersion is an optional semver floor. A binary that is present but
	// older than the floor is reported absent so later methods still run.
	MinVersion string `json:"min_version,omitempty" yaml:"min_version,omitempty"`

	// Command is a shell probe used instead of a binary lookup; exit status
	// zero means present and the first output line is taken as the version.
	Command string `json:"command,omitempty" yaml:"command,omitempty"`
}

// ComponentSpec is one immutable catalog entry: an installable unit, its
// failure policy, the profiles it is relevant to, and its ordered methods.
type ComponentSpec struct {
	// ID is the unique component identifier.
	ID string `json:"id" yaml:"id" validate:"required"`

	// Description is the human-readable component description.
	Description string `json:"description" yaml:"description"`

	// Critical marks a component whose failure degrades guarantees relied on
	// by later critical components.
	Critical bool `json:"critical,omitempty" yaml:"critical,omitempty"`

	// HaltOnFailure halts the remainder of the run when this component fails.
	// Only meaningful together with Critical.
	HaltOnFailure bool `json:"halt_on_failure,omitempty" yaml:"halt_on_failure,omitempty"`

	// Profiles lists the profiles this component is relevant to. Empty means
	// the component is relevant to every profile.
	Profiles []ProfileID `json:"profiles,omitempty" yaml:"profiles,omitempty"`

	// Methods are the ordered installation strategies.
	Methods []MethodSpec `json:"methods" yaml:"methods" validate:"required,min=1,dive"`

	// Probe verifies actual presence independently of any method's own
	// reported outcome.
	Probe ProbeSpec `json:"probe" yaml:"probe"`
}
