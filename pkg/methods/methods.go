package methods

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"github.com/toolforge/toolforge/pkg/engine"
	"github.com/toolforge/toolforge/pkg/facts"
	"github.com/toolforge/toolforge/pkg/pathenv"
)

// pkgMethod installs through a system package manager. The manager is either
// pinned by the catalog or taken from the machine facts.
type pkgMethod struct {
	name    string
	manager string
	pkg     string
	machine *facts.Facts
	runner  CommandRunner
}

func (m *pkgMethod) Name() string { return m.name }

func (m *pkgMethod) Attempt(ctx context.Context) error {
	manager := m.manager
	if manager == "" {
		manager = m.machine.PackageManager
	}
	if manager == "" {
		return engine.NewNotFoundError("no supported package manager on this machine", nil).WithMethod(m.name)
	}
	if !m.machine.HasManager(manager) {
		return engine.NewNotFoundError(fmt.Sprintf("package manager %s not available", manager), nil).WithMethod(m.name)
	}

	name, args, err := installCommand(manager, m.pkg)
	if err != nil {
		return engine.NewNotFoundError(err.Error(), nil).WithMethod(m.name)
	}

	result, err := m.runner.Run(ctx, name, args...)
	if err != nil {
		return engine.NewExecutionError("package install could not start", err).WithMethod(m.name)
	}
	if result.ExitCode != 0 {
		return engine.NewExecutionError(
			fmt.Sprintf("%s exited with status %d: %s", name, result.ExitCode, result.Tail(3)), nil,
		).WithMethod(m.name)
	}
	return nil
}

// installCommand maps a manager to its install invocation.
func installCommand(manager, pkg string) (string, []string, error) {
	switch manager {
	case "apt":
		return "apt-get", []string{"install", "-y", pkg}, nil
	case "dnf", "yum", "zypper":
		return manager, []string{"install", "-y", pkg}, nil
	case "brew":
		return "brew", []string{"install", pkg}, nil
	case "apk":
		return "apk", []string{"add", pkg}, nil
	default:
		return "", nil, fmt.Errorf("unsupported package manager: %s", manager)
	}
}

// pipMethod installs a Python package for the invoking user.
type pipMethod struct {
	name   string
	pkg    string
	runner CommandRunner
}

func (m *pipMethod) Name() string { return m.name }

func (m *pipMethod) Attempt(ctx context.Context) error {
	result, err := m.runner.Run(ctx, "python3", "-m", "pip", "install", "--user", "--upgrade", m.pkg)
	if err != nil {
		return engine.NewNotFoundError("python3 is not available", err).WithMethod(m.name)
	}
	if result.ExitCode != 0 {
		return engine.NewExecutionError(
			fmt.Sprintf("pip exited with status %d: %s", result.ExitCode, result.Tail(3)), nil,
		).WithMethod(m.name)
	}
	return nil
}

// scriptMethod runs a shell script from the catalog.
type scriptMethod struct {
	name    string
	command string
	runner  CommandRunner
}

func (m *scriptMethod) Name() string { return m.name }

func (m *scriptMethod) Attempt(ctx context.Context) error {
	result, err := m.runner.RunShell(ctx, m.command)
	if err != nil {
		return engine.NewExecutionError("script could not start", err).WithMethod(m.name)
	}
	if result.ExitCode != 0 {
		return engine.NewExecutionError(
			fmt.Sprintf("script exited with status %d: %s", result.ExitCode, result.Tail(3)), nil,
		).WithMethod(m.name)
	}
	return nil
}

// downloadMethod fetches a single binary into a local bin directory and
// durably registers that directory on the search path. The search-path write
// is the durable-configuration mutation the probes re-resolve for.
type downloadMethod struct {
	name   string
	url    string
	dest   string
	binary string
	paths  *pathenv.Resolver
	client *http.Client
}

func (m *downloadMethod) Name() string { return m.name }

func (m *downloadMethod) Attempt(ctx context.Context) error {
	dest := m.dest
	if dest == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return engine.NewConfigurationError("cannot resolve home directory", err).WithMethod(m.name)
		}
		dest = filepath.Join(home, ".local", "bin")
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return engine.NewConfigurationError("cannot create destination directory", err).WithMethod(m.name)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.url, nil)
	if err != nil {
		return engine.NewExecutionError("invalid download url", err).WithMethod(m.name)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return engine.NewExecutionError("download failed", err).WithMethod(m.name)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return engine.NewExecutionError(fmt.Sprintf("download returned status %d", resp.StatusCode), nil).WithMethod(m.name)
	}

	target := filepath.Join(dest, m.binary)
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return engine.NewConfigurationError("cannot write downloaded binary", err).WithMethod(m.name)
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(target)
		return engine.NewExecutionError("download interrupted", err).WithMethod(m.name)
	}
	if err := f.Close(); err != nil {
		return engine.NewConfigurationError("cannot finalize downloaded binary", err).WithMethod(m.name)
	}

	if err := m.paths.AppendPersistent(dest); err != nil {
		return engine.NewConfigurationError("binary downloaded but search path update failed", err).WithMethod(m.name)
	}
	return nil
}

// binaryNameFromURL derives the installed binary name from the download URL.
func binaryNameFromURL(url string) string {
	return path.Base(url)
}
