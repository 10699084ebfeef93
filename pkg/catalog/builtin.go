package catalog

import "fmt"

// BuiltinProfiles returns the built-in profile hierarchy.
//
// Full implies everything; AI_ML_Stack builds on Data_Science_Core, which
// builds on VCS_Dev_Essentials; Big_Data_Stack shares the VCS base.
func BuiltinProfiles() []Profile {
	return []Profile{
		{
			ID:          ProfileMinimal,
			Description: "Core command-line utilities",
		},
		{
			ID:          ProfileVCSDevEssentials,
			Description: "Version control and developer essentials",
			Implies:     []ProfileID{ProfileMinimal},
		},
		{
			ID:          ProfileDataScienceCore,
			Description: "Python data-science core stack",
			Implies:     []ProfileID{ProfileVCSDevEssentials},
		},
		{
			ID:          ProfileAIMLStack,
			Description: "Machine-learning stack on top of the data-science core",
			Implies:     []ProfileID{ProfileDataScienceCore},
		},
		{
			ID:          ProfileBigDataStack,
			Description: "JVM big-data tooling",
			Implies:     []ProfileID{ProfileVCSDevEssentials},
		},
		{
			ID:          ProfileFull,
			Description: "Everything in the catalog",
			Implies: []ProfileID{
				ProfileAIMLStack,
				ProfileBigDataStack,
			},
		},
	}
}

// BuiltinComponents returns the built-in component catalog in execution
// order. The order encodes coarse dependencies: transports first (curl),
// runtimes (python3, java) before the package installers that need them.
func BuiltinComponents() []ComponentSpec {
	return []ComponentSpec{
		{
			ID:            "curl",
			Description:   "HTTP transfer tool, required by download fallbacks",
			Critical:      true,
			HaltOnFailure: true,
			Methods: []MethodSpec{
				{Name: "system-pkg", Kind: MethodKindPkg, Package: "curl"},
			},
			Probe: ProbeSpec{Binary: "curl", VersionArgs: []string{"--version"}},
		},
		{
			ID:          "git",
			Description: "Distributed version control",
			Critical:    true,
			Methods: []MethodSpec{
				{Name: "system-pkg", Kind: MethodKindPkg, Package: "git"},
			},
			Probe: ProbeSpec{Binary: "git", VersionArgs: []string{"--version"}, MinVersion: "2.0.0"},
		},
		{
			ID:          "jq",
			Description: "Command-line JSON processor",
			Profiles:    []ProfileID{ProfileMinimal},
			Methods: []MethodSpec{
				{Name: "system-pkg", Kind: MethodKindPkg, Package: "jq"},
			},
			Probe: ProbeSpec{Binary: "jq", VersionArgs: []string{"--version"}},
		},
		{
			ID:          "htop",
			Description: "Interactive process viewer",
			Profiles:    []ProfileID{ProfileMinimal},
			Methods: []MethodSpec{
				{Name: "system-pkg", Kind: MethodKindPkg, Package: "htop"},
			},
			Probe: ProbeSpec{Binary: "htop", VersionArgs: []string{"--version"}},
		},
		{
			ID:          "make",
			Description: "Build automation tool",
			Profiles:    []ProfileID{ProfileVCSDevEssentials},
			Methods: []MethodSpec{
				{Name: "system-pkg", Kind: MethodKindPkg, Package: "make"},
			},
			Probe: ProbeSpec{Binary: "make", VersionArgs: []string{"--version"}},
		},
		{
			ID:          "github-cli",
			Description: "GitHub command-line interface",
			Profiles:    []ProfileID{ProfileVCSDevEssentials},
			Methods: []MethodSpec{
				{Name: "system-pkg", Kind: MethodKindPkg, Package: "gh"},
				{
					Name:    "webi-script",
					Kind:    MethodKindScript,
					Command: "curl -fsSL https://webi.sh/gh | sh",
				},
			},
			Probe: ProbeSpec{Binary: "gh", VersionArgs: []string{"--version"}},
		},
		{
			ID:          "docker",
			Description: "Container runtime and CLI",
			Profiles:    []ProfileID{ProfileVCSDevEssentials},
			Methods: []MethodSpec{
				{Name: "system-pkg", Kind: MethodKindPkg, Package: "docker.io"},
				{
					Name:    "convenience-script",
					Kind:    MethodKindScript,
					Command: "curl -fsSL https://get.docker.com | sh",
				},
			},
			Probe: ProbeSpec{Binary: "docker", VersionArgs: []string{"--version"}},
		},
		{
			ID:          "kubectl",
			Description: "Kubernetes command-line client",
			Profiles:    []ProfileID{ProfileVCSDevEssentials},
			Methods: []MethodSpec{
				{Name: "system-pkg", Kind: MethodKindPkg, Package: "kubectl"},
				{
					Name: "release-download",
					Kind: MethodKindDownload,
					URL:  "https://dl.k8s.io/release/v1.31.0/bin/linux/amd64/kubectl",
				},
			},
			Probe: ProbeSpec{Binary: "kubectl", VersionArgs: []string{"version", "--client", "--output=yaml"}},
		},
		{
			ID:            "python3",
			Description:   "Python runtime, required by the pip-based components",
			Critical:      true,
			HaltOnFailure: true,
			Profiles:      []ProfileID{ProfileDataScienceCore, ProfileAIMLStack},
			Methods: []MethodSpec{
				{Name: "system-pkg", Kind: MethodKindPkg, Package: "python3"},
			},
			Probe: ProbeSpec{Binary: "python3", VersionArgs: []string{"--version"}, MinVersion: "3.9.0"},
		},
		{
			ID:          "python3-pip",
			Description: "Python package installer",
			Critical:    true,
			Profiles:    []ProfileID{ProfileDataScienceCore, ProfileAIMLStack},
			Methods: []MethodSpec{
				{Name: "system-pkg", Kind: MethodKindPkg, Package: "python3-pip"},
				{
					Name:    "ensurepip",
					Kind:    MethodKindScript,
					Command: "python3 -m ensurepip --upgrade --user",
				},
			},
			Probe: ProbeSpec{Command: "python3 -m pip --version"},
		},
		{
			ID:          "numpy",
			Description: "Numerical computing library",
			Profiles:    []ProfileID{ProfileDataScienceCore},
			Methods: []MethodSpec{
				{Name: "pip-user", Kind: MethodKindPip, Package: "numpy"},
				{Name: "system-pkg", Kind: MethodKindPkg, Package: "python3-numpy"},
			},
			Probe: ProbeSpec{Command: "python3 -c 'import numpy; print(numpy.__version__)'"},
		},
		{
			ID:          "pandas",
			Description: "Dataframe library",
			Profiles:    []ProfileID{ProfileDataScienceCore},
			Methods: []MethodSpec{
				{Name: "pip-user", Kind: MethodKindPip, Package: "pandas"},
				{Name: "system-pkg", Kind: MethodKindPkg, Package: "python3-pandas"},
			},
			Probe: ProbeSpec{Command: "python3 -c 'import pandas; print(pandas.__version__)'"},
		},
		{
			ID:          "jupyterlab",
			Description: "Interactive notebook environment",
			Profiles:    []ProfileID{ProfileDataScienceCore},
			Methods: []MethodSpec{
				{Name: "pip-user", Kind: MethodKindPip, Package: "jupyterlab"},
			},
			Probe: ProbeSpec{Command: "python3 -m jupyterlab --version"},
		},
		{
			ID:          "pytorch",
			Description: "Deep-learning framework",
			Profiles:    []ProfileID{ProfileAIMLStack},
			Methods: []MethodSpec{
				{Name: "pip-user", Kind: MethodKindPip, Package: "torch"},
			},
			Probe: ProbeSpec{Command: "python3 -c 'import torch; print(torch.__version__)'"},
		},
		{
			ID:          "transformers",
			Description: "Pretrained model library",
			Profiles:    []ProfileID{ProfileAIMLStack},
			Methods: []MethodSpec{
				{Name: "pip-user", Kind: MethodKindPip, Package: "transformers"},
			},
			Probe: ProbeSpec{Command: "python3 -c 'import transformers; print(transformers.__version__)'"},
		},
		{
			ID:            "java",
			Description:   "JVM runtime, required by the big-data tooling",
			Critical:      true,
			HaltOnFailure: true,
			Profiles:      []ProfileID{ProfileBigDataStack},
			Methods: []MethodSpec{
				{Name: "system-pkg-deb", Kind: MethodKindPkg, Manager: "apt", Package: "default-jre-headless"},
				{Name: "system-pkg-rpm", Kind: MethodKindPkg, Package: "java-17-openjdk-headless"},
			},
			Probe: ProbeSpec{Command: "java -version 2>&1"},
		},
		{
			ID:          "spark",
			Description: "Apache Spark distribution under ~/.local/spark",
			Profiles:    []ProfileID{ProfileBigDataStack},
			Methods: []MethodSpec{
				{
					Name: "tarball",
					Kind: MethodKindScript,
					// The export line lands in the shell profile, which the
					// probe re-reads on every check.
					Command: "mkdir -p ~/.local/spark && " +
						"curl -fsSL https://archive.apache.org/dist/spark/spark-3.5.1/spark-3.5.1-bin-hadoop3.tgz | " +
						"tar -xz --strip-components=1 -C ~/.local/spark && " +
						"echo 'export PATH=\"$HOME/.local/spark/bin:$PATH\"' >> ~/.profile",
				},
			},
			Probe: ProbeSpec{Binary: "spark-submit", VersionArgs: []string{"--version"}},
		},
	}
}

// Builtin returns the built-in catalog. The built-in data is a compile-time
// constant, so a validation failure here is a programmer error.
func Builtin() *Catalog {
	c, err := Build(BuiltinProfiles(), ProfileFull, BuiltinComponents())
	if err != nil {
		panic(fmt.Sprintf("built-in catalog is invalid: %v", err))
	}
	return c
}
