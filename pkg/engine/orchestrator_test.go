package engine

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/toolforge/toolforge/pkg/catalog"
)

// buildCatalog assembles a small catalog with one flat profile plus Full.
func buildCatalog(t *testing.T, specs ...catalog.ComponentSpec) *catalog.Catalog {
	t.Helper()
	profiles := []catalog.Profile{
		{ID: "Basic"},
		{ID: "Extra", Implies: []catalog.ProfileID{"Basic"}},
		{ID: "Full", Implies: []catalog.ProfileID{"Extra"}},
	}
	cat, err := catalog.Build(profiles, "Full", specs)
	if err != nil {
		t.Fatalf("Failed to build catalog: %v", err)
	}
	return cat
}

func spec(id string, critical, halt bool, profiles ...catalog.ProfileID) catalog.ComponentSpec {
	return catalog.ComponentSpec{
		ID:            id,
		Critical:      critical,
		HaltOnFailure: halt,
		Profiles:      profiles,
		Methods:       []catalog.MethodSpec{{Name: "m", Kind: catalog.MethodKindScript, Command: "true"}},
		Probe:         catalog.ProbeSpec{Binary: id},
	}
}

// component pairs a spec with a scripted method and probe outcome.
func component(s catalog.ComponentSpec, method *fakeMethod, probe *fakeProbe) Component {
	return Component{Spec: s, Methods: []Method{method}, Probe: probe}
}

func failing() (*fakeMethod, *fakeProbe) {
	return &fakeMethod{name: "m", err: NewExecutionError("install failed", nil)},
		&fakeProbe{results: []ProbeResult{{Present: false}}}
}

func succeeding() (*fakeMethod, *fakeProbe) {
	return &fakeMethod{name: "m"},
		&fakeProbe{results: []ProbeResult{{Present: false}, {Present: true}}}
}

func newTestOrchestrator(cat *catalog.Catalog, components []Component, sink EventSink) *Orchestrator {
	installer := NewInstaller(sink, InstallerOptions{Logger: zerolog.Nop()})
	return NewOrchestrator(cat, components, installer, sink, zerolog.Nop())
}

func runProfile(t *testing.T, orch *Orchestrator, profile catalog.ProfileID) *RunState {
	t.Helper()
	state := NewRunState(profile)
	if err := orch.Run(context.Background(), state); err != nil {
		t.Fatalf("Expected no run error, got: %v", err)
	}
	return state
}

func statusOf(t *testing.T, state *RunState, id string) ComponentResult {
	t.Helper()
	for _, r := range state.Results() {
		if r.ComponentID == id {
			return r
		}
	}
	t.Fatalf("No result recorded for %s", id)
	return ComponentResult{}
}

func TestOrchestrator_Run_HaltSkipsTailCompletely(t *testing.T) {
	specs := []catalog.ComponentSpec{
		spec("curl", true, true),
		spec("git", true, false),
		spec("jq", false, false),
	}
	cat := buildCatalog(t, specs...)

	failM, failP := failing()
	okM1, okP1 := succeeding()
	okM2, okP2 := succeeding()
	components := []Component{
		component(specs[0], failM, failP),
		component(specs[1], okM1, okP1),
		component(specs[2], okM2, okP2),
	}

	orch := newTestOrchestrator(cat, components, nil)
	state := runProfile(t, orch, "Full")

	if !state.Halted() {
		t.Fatal("Expected run to be halted")
	}
	if got := len(state.Results()); got != 3 {
		t.Fatalf("Expected a result for every component, got %d", got)
	}

	if statusOf(t, state, "curl").Status != StatusFailed {
		t.Error("Expected curl to fail")
	}
	for _, id := range []string{"git", "jq"} {
		r := statusOf(t, state, id)
		if r.Status != StatusSkipped || r.SkipReason != SkipHalted {
			t.Errorf("Expected %s skipped (halted), got %s (%s)", id, r.Status, r.SkipReason)
		}
	}

	// No install action ran after the halt.
	if okM1.calls != 0 || okM2.calls != 0 {
		t.Errorf("Expected no attempts after halt, got git=%d jq=%d", okM1.calls, okM2.calls)
	}

	if code := orch.ExitCode(state); code != 1 {
		t.Errorf("Expected exit code 1 for halted run, got %d", code)
	}
	if orch.Status(state) != RunStatusHalted {
		t.Errorf("Expected halted status, got %s", orch.Status(state))
	}
}

func TestOrchestrator_Run_CriticalFailureGatesOnlyCritical(t *testing.T) {
	specs := []catalog.ComponentSpec{
		spec("git", true, false),
		spec("jq", false, false),
		spec("python3", true, false),
	}
	cat := buildCatalog(t, specs...)

	failM, failP := failing()
	okM, okP := succeeding()
	critM, critP := succeeding()
	components := []Component{
		component(specs[0], failM, failP),
		component(specs[1], okM, okP),
		component(specs[2], critM, critP),
	}

	orch := newTestOrchestrator(cat, components, nil)
	state := runProfile(t, orch, "Full")

	if state.Halted() {
		t.Fatal("Expected run not to halt on a non-halting critical failure")
	}
	if !state.CriticalFailure() {
		t.Fatal("Expected critical-failure flag to be set")
	}

	if statusOf(t, state, "jq").Status != StatusSuccess {
		t.Error("Expected non-critical jq to still run")
	}

	r := statusOf(t, state, "python3")
	if r.Status != StatusSkipped || r.SkipReason != SkipPriorCriticalFailure {
		t.Errorf("Expected python3 skipped (prior_critical_failure), got %s (%s)", r.Status, r.SkipReason)
	}
	if critM.calls != 0 {
		t.Errorf("Expected no attempt for gated critical component, got %d", critM.calls)
	}

	if code := orch.ExitCode(state); code != 0 {
		t.Errorf("Expected exit code 0 for completed run, got %d", code)
	}
}

func TestOrchestrator_Run_ProfileFiltering(t *testing.T) {
	specs := []catalog.ComponentSpec{
		spec("base", false, false), // no profiles: always relevant
		spec("basic-tool", false, false, "Basic"),
		spec("extra-tool", false, false, "Extra"),
	}
	cat := buildCatalog(t, specs...)

	m1, p1 := succeeding()
	m2, p2 := succeeding()
	m3, p3 := succeeding()
	components := []Component{
		component(specs[0], m1, p1),
		component(specs[1], m2, p2),
		component(specs[2], m3, p3),
	}

	orch := newTestOrchestrator(cat, components, nil)
	state := runProfile(t, orch, "Basic")

	if statusOf(t, state, "base").Status != StatusSuccess {
		t.Error("Expected profile-less component to run")
	}
	if statusOf(t, state, "basic-tool").Status != StatusSuccess {
		t.Error("Expected Basic component to run")
	}

	r := statusOf(t, state, "extra-tool")
	if r.Status != StatusSkipped || r.SkipReason != SkipNotInProfile {
		t.Errorf("Expected extra-tool skipped (not_in_profile), got %s (%s)", r.Status, r.SkipReason)
	}
	if m3.calls != 0 {
		t.Errorf("Expected no attempt for irrelevant component, got %d", m3.calls)
	}
}

func TestOrchestrator_Run_UnknownProfileAbortsBeforeAnyWork(t *testing.T) {
	s := spec("git", false, false)
	cat := buildCatalog(t, s)
	m, p := succeeding()

	orch := newTestOrchestrator(cat, []Component{component(s, m, p)}, nil)
	state := NewRunState("Bogus")

	err := orch.Run(context.Background(), state)
	if err == nil {
		t.Fatal("Expected error for unknown profile")
	}
	if len(state.Results()) != 0 {
		t.Errorf("Expected no results for aborted run, got %d", len(state.Results()))
	}
	if m.calls != 0 {
		t.Errorf("Expected no attempts for aborted run, got %d", m.calls)
	}
}

func TestOrchestrator_Run_EmitsSkipEvents(t *testing.T) {
	specs := []catalog.ComponentSpec{
		spec("curl", true, true),
		spec("git", false, false),
	}
	cat := buildCatalog(t, specs...)

	failM, failP := failing()
	okM, okP := succeeding()
	sink := &recordingSink{}

	orch := newTestOrchestrator(cat, []Component{
		component(specs[0], failM, failP),
		component(specs[1], okM, okP),
	}, sink)
	runProfile(t, orch, "Full")

	var skips int
	for _, e := range sink.events {
		if e.Phase == PhaseSkipped {
			skips++
			if e.ComponentID != "git" {
				t.Errorf("Expected skip event for git, got %s", e.ComponentID)
			}
			if e.Diagnostic != string(SkipHalted) {
				t.Errorf("Expected halted diagnostic, got %q", e.Diagnostic)
			}
		}
	}
	if skips != 1 {
		t.Errorf("Expected exactly 1 skip event, got %d", skips)
	}
}

func TestRunState_Append_RejectsDuplicates(t *testing.T) {
	state := NewRunState("Full")

	if err := state.Append(ComponentResult{ComponentID: "git", Status: StatusSuccess}); err != nil {
		t.Fatalf("Expected first append to succeed, got: %v", err)
	}
	if err := state.Append(ComponentResult{ComponentID: "git", Status: StatusFailed}); err == nil {
		t.Fatal("Expected duplicate append to be rejected")
	}
	if len(state.Results()) != 1 {
		t.Errorf("Expected 1 result, got %d", len(state.Results()))
	}
}

func TestRunState_Summary(t *testing.T) {
	state := NewRunState("Full")
	results := []ComponentResult{
		{ComponentID: "a", Status: StatusSuccess},
		{ComponentID: "b", Status: StatusAlreadyPresent},
		{ComponentID: "c", Status: StatusFailed},
		{ComponentID: "d", Status: StatusSkipped, SkipReason: SkipNotInProfile},
		{ComponentID: "e", Status: StatusSuccess},
	}
	for _, r := range results {
		if err := state.Append(r); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	s := state.Summary()
	if s.Total != 5 || s.Succeeded != 2 || s.AlreadyPresent != 1 || s.Failed != 1 || s.Skipped != 1 {
		t.Errorf("Unexpected summary: %+v", s)
	}
}
