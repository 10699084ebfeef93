// Package pathenv models the durable search-path configuration as a single
// serialized resource. Install methods may append to it; probes must observe
// those appends within the same process, even though the process environment
// was fixed at startup. The resolver therefore re-reads the authoritative
// sources (process PATH plus the shell profile files) on every call and
// never caches between calls.
package pathenv

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Resolver resolves the effective search path from its authoritative
// sources. The zero value is not usable; construct with NewResolver.
type Resolver struct {
	profileFiles []string
	home         string
}

// NewResolver creates a resolver over the invoking user's shell profile
// files.
func NewResolver() *Resolver {
	home, _ := os.UserHomeDir()
	return &Resolver{
		home: home,
		profileFiles: []string{
			filepath.Join(home, ".profile"),
			filepath.Join(home, ".bashrc"),
			filepath.Join(home, ".zshrc"),
		},
	}
}

// NewResolverWithFiles creates a resolver over explicit profile files.
// Used by tests and by callers that manage their own profile location.
func NewResolverWithFiles(home string, files ...string) *Resolver {
	return &Resolver{home: home, profileFiles: files}
}

// Resolve returns the effective search directories: the process PATH
// followed by directories exported in the profile files. Sources are re-read
// on every call; a method that appended an export line mid-run is visible to
// the very next probe.
func (r *Resolver) Resolve() []string {
	seen := make(map[string]bool)
	var dirs []string

	add := func(dir string) {
		dir = strings.TrimSpace(dir)
		if dir == "" || seen[dir] {
			return
		}
		seen[dir] = true
		dirs = append(dirs, dir)
	}

	for _, dir := range filepath.SplitList(os.Getenv("PATH")) {
		add(dir)
	}
	for _, file := range r.profileFiles {
		for _, dir := range r.parseProfileFile(file) {
			add(dir)
		}
	}
	return dirs
}

// parseProfileFile extracts directories from export PATH= lines. Only the
// common append forms are recognized; anything else is ignored rather than
// evaluated.
func (r *Resolver) parseProfileFile(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var dirs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		if !strings.HasPrefix(line, "PATH=") {
			continue
		}
		value := strings.Trim(strings.TrimPrefix(line, "PATH="), `"'`)
		for _, part := range strings.Split(value, ":") {
			part = strings.TrimSpace(part)
			if part == "" || part == "$PATH" || part == "${PATH}" {
				continue
			}
			part = strings.ReplaceAll(part, "$HOME", r.home)
			part = strings.ReplaceAll(part, "${HOME}", r.home)
			if strings.HasPrefix(part, "~/") {
				part = filepath.Join(r.home, part[2:])
			}
			if strings.Contains(part, "$") {
				// Unresolvable variable reference; skip rather than guess.
				continue
			}
			dirs = append(dirs, part)
		}
	}
	return dirs
}

// Lookup searches the resolved directories for an executable with the given
// name. It is the probe-facing replacement for exec.LookPath: exec.LookPath
// only consults the process PATH, which goes stale the moment a method
// mutates the durable configuration.
func (r *Resolver) Lookup(name string) (string, bool) {
	for _, dir := range r.Resolve() {
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		if info.Mode()&0o111 != 0 {
			return candidate, true
		}
	}
	return "", false
}

// AppendPersistent durably appends a directory to the search path by writing
// an export line to the first writable profile file. The caller maps a
// returned error to a configuration failure.
func (r *Resolver) AppendPersistent(dir string) error {
	line := fmt.Sprintf("export PATH=\"%s:$PATH\"\n", dir)

	var lastErr error
	for _, file := range r.profileFiles {
		if r.alreadyExported(file, dir) {
			return nil
		}
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			lastErr = err
			continue
		}
		_, werr := f.WriteString(line)
		cerr := f.Close()
		if werr != nil {
			lastErr = werr
			continue
		}
		if cerr != nil {
			lastErr = cerr
			continue
		}
		return nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no profile file configured")
	}
	return fmt.Errorf("failed to persist %s on the search path: %w", dir, lastErr)
}

func (r *Resolver) alreadyExported(file, dir string) bool {
	data, err := os.ReadFile(file)
	if err != nil {
		return false
	}
	return strings.Contains(string(data), fmt.Sprintf("PATH=\"%s:$PATH\"", dir))
}
