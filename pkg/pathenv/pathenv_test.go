package pathenv

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeProfile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write profile file: %v", err)
	}
}

func TestResolver_Resolve_ReadsExportLines(t *testing.T) {
	home := t.TempDir()
	profile := filepath.Join(home, ".profile")
	writeProfile(t, profile, `
# comment
export PATH="$HOME/.local/bin:$PATH"
PATH="/opt/tools:$PATH"
export OTHER="ignored"
`)

	r := NewResolverWithFiles(home, profile)
	dirs := r.Resolve()

	want := []string{
		filepath.Join(home, ".local", "bin"),
		"/opt/tools",
	}
	for _, w := range want {
		found := false
		for _, d := range dirs {
			if d == w {
				found = true
			}
		}
		if !found {
			t.Errorf("Expected %s in resolved dirs, got %v", w, dirs)
		}
	}
}

func TestResolver_Resolve_SkipsUnresolvableVariables(t *testing.T) {
	home := t.TempDir()
	profile := filepath.Join(home, ".profile")
	writeProfile(t, profile, `export PATH="$CUSTOM_ROOT/bin:$PATH"`)

	r := NewResolverWithFiles(home, profile)
	for _, d := range r.Resolve() {
		if strings.Contains(d, "$") {
			t.Errorf("Expected unresolvable entries to be skipped, got %s", d)
		}
	}
}

func TestResolver_Resolve_SeesWritesWithinSameProcess(t *testing.T) {
	home := t.TempDir()
	profile := filepath.Join(home, ".profile")
	writeProfile(t, profile, "")

	r := NewResolverWithFiles(home, profile)
	dir := filepath.Join(home, "spark", "bin")

	for _, d := range r.Resolve() {
		if d == dir {
			t.Fatal("Did not expect dir before the append")
		}
	}

	if err := r.AppendPersistent(dir); err != nil {
		t.Fatalf("AppendPersistent failed: %v", err)
	}

	// The very next resolution must observe the write, no restart needed.
	found := false
	for _, d := range r.Resolve() {
		if d == dir {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected %s visible on the next resolution", dir)
	}
}

func TestResolver_AppendPersistent_Idempotent(t *testing.T) {
	home := t.TempDir()
	profile := filepath.Join(home, ".profile")
	writeProfile(t, profile, "")

	r := NewResolverWithFiles(home, profile)
	dir := filepath.Join(home, "bin")

	if err := r.AppendPersistent(dir); err != nil {
		t.Fatalf("First append failed: %v", err)
	}
	if err := r.AppendPersistent(dir); err != nil {
		t.Fatalf("Second append failed: %v", err)
	}

	data, err := os.ReadFile(profile)
	if err != nil {
		t.Fatalf("Failed to read profile: %v", err)
	}
	if got := strings.Count(string(data), dir); got != 1 {
		t.Errorf("Expected exactly one export line, found %d occurrences", got)
	}
}

func TestResolver_AppendPersistent_NoWritableFile(t *testing.T) {
	home := t.TempDir()
	r := NewResolverWithFiles(home)

	if err := r.AppendPersistent("/opt/bin"); err == nil {
		t.Fatal("Expected error when no profile file is configured")
	}
}

func TestResolver_Lookup_FindsExecutable(t *testing.T) {
	home := t.TempDir()
	profile := filepath.Join(home, ".profile")
	binDir := filepath.Join(home, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("Failed to create bin dir: %v", err)
	}
	writeProfile(t, profile, `export PATH="`+binDir+`:$PATH"`)

	bin := filepath.Join(binDir, "mytool")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("Failed to write binary: %v", err)
	}

	r := NewResolverWithFiles(home, profile)
	path, ok := r.Lookup("mytool")
	if !ok {
		t.Fatal("Expected to find mytool")
	}
	if path != bin {
		t.Errorf("Expected %s, got %s", bin, path)
	}

	if _, ok := r.Lookup("missing-tool"); ok {
		t.Error("Expected missing tool not to be found")
	}
}

func TestResolver_Lookup_IgnoresNonExecutable(t *testing.T) {
	home := t.TempDir()
	profile := filepath.Join(home, ".profile")
	binDir := filepath.Join(home, "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("Failed to create bin dir: %v", err)
	}
	writeProfile(t, profile, `export PATH="`+binDir+`:$PATH"`)

	if err := os.WriteFile(filepath.Join(binDir, "data"), []byte("x"), 0o644); err != nil {
		t.Fatalf("Failed to write file: %v", err)
	}

	r := NewResolverWithFiles(home, profile)
	if _, ok := r.Lookup("data"); ok {
		t.Error("Expected non-executable file to be skipped")
	}
}
