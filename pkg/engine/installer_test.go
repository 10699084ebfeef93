package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/toolforge/toolforge/pkg/catalog"
)

// fakeMethod is a scriptable method: it records invocations and can run a
// side effect against the fake machine before returning its configured error.
type fakeMethod struct {
	name   string
	err    error
	panics bool
	onRun  func()
	calls  int
}

func (m *fakeMethod) Name() string { return m.name }

func (m *fakeMethod) Attempt(ctx context.Context) error {
	m.calls++
	if m.onRun != nil {
		m.onRun()
	}
	if m.panics {
		panic("boom")
	}
	return m.err
}

// fakeProbe returns scripted results in order, repeating the last one when
// exhausted. Each call is counted so tests can assert verification happened.
type fakeProbe struct {
	results []ProbeResult
	errs    []error
	calls   int
}

func (p *fakeProbe) Check(ctx context.Context) (ProbeResult, error) {
	i := p.calls
	p.calls++
	if i >= len(p.results) {
		i = len(p.results) - 1
	}
	var err error
	if i < len(p.errs) {
		err = p.errs[i]
	}
	return p.results[i], err
}

// recordingSink retains every event for assertions.
type recordingSink struct {
	events []Event
}

func (s *recordingSink) Record(event Event) {
	s.events = append(s.events, event)
}

func (s *recordingSink) phases() []Phase {
	out := make([]Phase, len(s.events))
	for i, e := range s.events {
		out[i] = e.Phase
	}
	return out
}

func testComponent(probe *fakeProbe, ms ...*fakeMethod) Component {
	methods := make([]Method, len(ms))
	for i, m := range ms {
		methods[i] = m
	}
	return Component{
		Spec:    catalog.ComponentSpec{ID: "tool"},
		Methods: methods,
		Probe:   probe,
	}
}

func newTestInstaller(sink EventSink, force bool) *Installer {
	return NewInstaller(sink, InstallerOptions{
		ForceReinstall: force,
		Logger:         zerolog.Nop(),
	})
}

func TestInstaller_Install_AlreadyPresent(t *testing.T) {
	method := &fakeMethod{name: "apt"}
	probe := &fakeProbe{results: []ProbeResult{{Present: true, Version: "1.2.3"}}}
	in := newTestInstaller(nil, false)

	result := in.Install(context.Background(), "run-1", testComponent(probe, method))

	if result.Status != StatusAlreadyPresent {
		t.Fatalf("Expected already_present, got %s", result.Status)
	}
	if result.Version != "1.2.3" {
		t.Errorf("Expected version 1.2.3, got %q", result.Version)
	}
	if method.calls != 0 {
		t.Errorf("Expected no method invocations, got %d", method.calls)
	}
	if len(result.Attempts) != 0 {
		t.Errorf("Expected no attempts recorded, got %d", len(result.Attempts))
	}
}

func TestInstaller_Install_SelfReportedSuccessIsNotTrusted(t *testing.T) {
	first := &fakeMethod{name: "apt"}  // reports success
	second := &fakeMethod{name: "pip"} // reports success
	probe := &fakeProbe{results: []ProbeResult{
		{Present: false}, // pre-method
		{Present: false}, // after apt: its success report was a lie
		{Present: true, Version: "2.0"}, // after pip
	}}
	in := newTestInstaller(nil, false)

	result := in.Install(context.Background(), "run-1", testComponent(probe, first, second))

	if result.Status != StatusSuccess {
		t.Fatalf("Expected success, got %s", result.Status)
	}
	if result.Method != "pip" {
		t.Errorf("Expected winning method pip, got %s", result.Method)
	}
	if first.calls != 1 || second.calls != 1 {
		t.Errorf("Expected each method tried once, got apt=%d pip=%d", first.calls, second.calls)
	}
	if len(result.Attempts) != 2 {
		t.Fatalf("Expected 2 attempts recorded, got %d", len(result.Attempts))
	}
	if result.Attempts[0].AttemptErr != "" {
		t.Errorf("Expected first attempt to self-report success, got %q", result.Attempts[0].AttemptErr)
	}
	if result.Attempts[0].Probe.Present {
		t.Error("Expected first attempt's probe to observe absence")
	}
}

func TestInstaller_Install_ReportedFailureButProbePresent(t *testing.T) {
	method := &fakeMethod{name: "script", err: NewExecutionError("script exited with status 1", nil)}
	probe := &fakeProbe{results: []ProbeResult{
		{Present: false},
		{Present: true},
	}}
	in := newTestInstaller(nil, false)

	result := in.Install(context.Background(), "run-1", testComponent(probe, method))

	if result.Status != StatusSuccess {
		t.Fatalf("Expected success when probe confirms despite reported failure, got %s", result.Status)
	}
	if result.Method != "script" {
		t.Errorf("Expected method script, got %s", result.Method)
	}
}

func TestInstaller_Install_StopsAtFirstVerifiedMethod(t *testing.T) {
	first := &fakeMethod{name: "apt"}
	second := &fakeMethod{name: "pip"}
	probe := &fakeProbe{results: []ProbeResult{
		{Present: false},
		{Present: true},
	}}
	in := newTestInstaller(nil, false)

	result := in.Install(context.Background(), "run-1", testComponent(probe, first, second))

	if result.Status != StatusSuccess || result.Method != "apt" {
		t.Fatalf("Expected apt to win, got %s via %s", result.Status, result.Method)
	}
	if second.calls != 0 {
		t.Errorf("Expected later method untouched after verified success, got %d calls", second.calls)
	}
}

func TestInstaller_Install_ExhaustionUsesLastDiagnostic(t *testing.T) {
	first := &fakeMethod{name: "apt", err: NewNotFoundError("no package manager", nil)}
	second := &fakeMethod{name: "pip", err: NewExecutionError("pip exited with status 1", nil)}
	probe := &fakeProbe{results: []ProbeResult{{Present: false}}}
	in := newTestInstaller(nil, false)

	result := in.Install(context.Background(), "run-1", testComponent(probe, first, second))

	if result.Status != StatusFailed {
		t.Fatalf("Expected failed, got %s", result.Status)
	}
	if !strings.Contains(result.Diagnostic, "pip exited with status 1") {
		t.Errorf("Expected last attempt's diagnostic, got %q", result.Diagnostic)
	}
	if len(result.Attempts) != 2 {
		t.Errorf("Expected 2 attempts recorded, got %d", len(result.Attempts))
	}
}

func TestInstaller_Install_LyingSuccessDiagnostic(t *testing.T) {
	method := &fakeMethod{name: "apt"} // reports success, probe says absent
	probe := &fakeProbe{results: []ProbeResult{{Present: false}}}
	in := newTestInstaller(nil, false)

	result := in.Install(context.Background(), "run-1", testComponent(probe, method))

	if result.Status != StatusFailed {
		t.Fatalf("Expected failed, got %s", result.Status)
	}
	if !strings.Contains(result.Diagnostic, "verification found the component absent") {
		t.Errorf("Expected verification diagnostic, got %q", result.Diagnostic)
	}
}

func TestInstaller_Install_PanicIsContained(t *testing.T) {
	bad := &fakeMethod{name: "apt", panics: true}
	good := &fakeMethod{name: "pip"}
	probe := &fakeProbe{results: []ProbeResult{
		{Present: false},
		{Present: false},
		{Present: true},
	}}
	in := newTestInstaller(nil, false)

	result := in.Install(context.Background(), "run-1", testComponent(probe, bad, good))

	if result.Status != StatusSuccess || result.Method != "pip" {
		t.Fatalf("Expected pip to win after contained panic, got %s via %s", result.Status, result.Method)
	}
	if !strings.Contains(result.Attempts[0].AttemptErr, "attempt panicked") {
		t.Errorf("Expected panic recorded as attempt error, got %q", result.Attempts[0].AttemptErr)
	}
}

func TestInstaller_Install_ProbeErrorMeansAbsent(t *testing.T) {
	method := &fakeMethod{name: "apt"}
	probe := &fakeProbe{
		results: []ProbeResult{{Present: false}, {Present: false}},
		errs:    []error{nil, NewVerificationError("probe broke", nil)},
	}
	in := newTestInstaller(nil, false)

	result := in.Install(context.Background(), "run-1", testComponent(probe, method))

	if result.Status != StatusFailed {
		t.Fatalf("Expected failed when probe cannot confirm, got %s", result.Status)
	}
}

func TestInstaller_Install_ProbeRunsAfterEveryAttempt(t *testing.T) {
	first := &fakeMethod{name: "a", err: NewExecutionError("x", nil)}
	second := &fakeMethod{name: "b", err: NewExecutionError("y", nil)}
	third := &fakeMethod{name: "c", err: NewExecutionError("z", nil)}
	probe := &fakeProbe{results: []ProbeResult{{Present: false}}}
	in := newTestInstaller(nil, false)

	in.Install(context.Background(), "run-1", testComponent(probe, first, second, third))

	// One pre-method probe plus one per attempt.
	if probe.calls != 4 {
		t.Errorf("Expected 4 probe calls, got %d", probe.calls)
	}
}

func TestInstaller_Install_ForceBypassesOnlyPreProbe(t *testing.T) {
	method := &fakeMethod{name: "apt"}
	probe := &fakeProbe{results: []ProbeResult{{Present: true, Version: "1.0"}}}
	in := newTestInstaller(nil, true)

	result := in.Install(context.Background(), "run-1", testComponent(probe, method))

	if method.calls != 1 {
		t.Fatalf("Expected method to run under force-reinstall, got %d calls", method.calls)
	}
	if result.Status != StatusSuccess {
		t.Errorf("Expected success from post-attempt verification, got %s", result.Status)
	}
	// Post-attempt verification still happened.
	if probe.calls != 1 {
		t.Errorf("Expected exactly 1 probe call (post-attempt only), got %d", probe.calls)
	}
}

func TestInstaller_Install_EmitsLifecycleEvents(t *testing.T) {
	method := &fakeMethod{name: "apt"}
	probe := &fakeProbe{results: []ProbeResult{
		{Present: false},
		{Present: true},
	}}
	sink := &recordingSink{}
	in := newTestInstaller(sink, false)

	in.Install(context.Background(), "run-1", testComponent(probe, method))

	want := []Phase{PhaseStarted, PhaseAttempted, PhaseVerified, PhaseSucceeded}
	got := sink.phases()
	if len(got) != len(want) {
		t.Fatalf("Expected %d events, got %d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Event %d: expected %s, got %s", i, want[i], got[i])
		}
	}
	for _, e := range sink.events {
		if e.RunID != "run-1" {
			t.Errorf("Expected run id run-1 on every event, got %q", e.RunID)
		}
	}
}
