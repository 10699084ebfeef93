package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/toolforge/toolforge/pkg/engine"
)

func finishedState(t *testing.T) *engine.RunState {
	t.Helper()
	state := engine.NewRunState("Data_Science_Core")

	results := []engine.ComponentResult{
		{ComponentID: "curl", Status: engine.StatusAlreadyPresent, Version: "8.5.0"},
		{ComponentID: "git", Status: engine.StatusSuccess, Method: "apt", Version: "2.43.0"},
		{ComponentID: "numpy", Status: engine.StatusFailed, Diagnostic: "pip exited with status 1"},
		{ComponentID: "java", Status: engine.StatusSkipped, SkipReason: engine.SkipNotInProfile},
	}
	for _, r := range results {
		if err := state.Append(r); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	state.CompletedAt = state.StartedAt.Add(time.Minute)
	return state
}

func testEvents(state *engine.RunState) []engine.Event {
	return []engine.Event{
		{RunID: state.RunID, ComponentID: "git", Method: "apt", Phase: engine.PhaseAttempted, Timestamp: state.StartedAt},
		{RunID: state.RunID, ComponentID: "git", Method: "apt", Phase: engine.PhaseVerified, Diagnostic: "probe: present (version 2.43.0)", Timestamp: state.StartedAt},
	}
}

func TestReport_Render_ContainsAllSections(t *testing.T) {
	state := finishedState(t)
	rep := Build(state, engine.RunStatusCompleted, testEvents(state), nil)

	text, err := rep.Render()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	for _, want := range []string{
		"== components ==",
		"== events ==",
		"== summary ==",
		state.RunID,
		"profile: Data_Science_Core",
		"status: completed",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected report to contain %q", want)
		}
	}
}

func TestReport_Render_ComponentLines(t *testing.T) {
	state := finishedState(t)
	rep := Build(state, engine.RunStatusCompleted, testEvents(state), nil)

	text, err := rep.Render()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	cases := []string{
		"already_present (version 8.5.0)",
		"success (method apt, version 2.43.0)",
		"failed: pip exited with status 1",
		"skipped (not_in_profile)",
	}
	for _, want := range cases {
		if !strings.Contains(text, want) {
			t.Errorf("Expected report to contain %q\n%s", want, text)
		}
	}
}

func TestReport_Render_SummaryTotals(t *testing.T) {
	state := finishedState(t)
	rep := Build(state, engine.RunStatusCompleted, nil, nil)

	text, err := rep.Render()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	for _, want := range []string{
		"total: 4",
		"succeeded: 1",
		"already_present: 1",
		"failed: 1",
		"skipped: 1",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected summary to contain %q", want)
		}
	}
}

func TestReport_Persist_WritesFile(t *testing.T) {
	state := finishedState(t)
	rep := Build(state, engine.RunStatusHalted, testEvents(state), nil)

	path := filepath.Join(t.TempDir(), "report.log")
	if err := rep.Persist(path); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected report file: %v", err)
	}
	if !strings.Contains(string(data), "status: halted") {
		t.Error("Expected persisted report to carry the run status")
	}
}

func TestReport_Persist_FailureStillLeavesArtifact(t *testing.T) {
	state := finishedState(t)
	rep := Build(state, engine.RunStatusCompleted, testEvents(state), nil)

	// An unwritable directory fails both renderings; the error must say so.
	path := filepath.Join(t.TempDir(), "missing", "report.log")
	if err := rep.Persist(path); err == nil {
		t.Fatal("Expected error for unwritable path")
	}
}
