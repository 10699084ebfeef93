package stores

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/toolforge/toolforge/pkg/engine"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_RunLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	started := time.Now()
	run := &RunRecord{
		ID:        "run-1",
		Profile:   "Minimal",
		Status:    "running",
		Hostname:  "devbox",
		StartedAt: started,
	}
	if err := store.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	completed := started.Add(time.Minute)
	if err := store.FinishRun(ctx, "run-1", "completed", completed); err != nil {
		t.Fatalf("FinishRun failed: %v", err)
	}

	latest, err := store.GetLatestRun(ctx)
	if err != nil {
		t.Fatalf("GetLatestRun failed: %v", err)
	}
	if latest == nil {
		t.Fatal("Expected a run")
	}
	if latest.ID != "run-1" || latest.Status != "completed" {
		t.Errorf("Unexpected run: %+v", latest)
	}
	if latest.CompletedAt == nil {
		t.Error("Expected completed_at to be set")
	}
}

func TestSQLiteStore_FinishRun_UnknownRun(t *testing.T) {
	store := newTestStore(t)
	if err := store.FinishRun(context.Background(), "missing", "completed", time.Now()); err == nil {
		t.Fatal("Expected error for unknown run")
	}
}

func TestSQLiteStore_ResultsAndEvents(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	run := &RunRecord{ID: "run-1", Profile: "Full", Status: "running", StartedAt: time.Now()}
	if err := store.CreateRun(ctx, run); err != nil {
		t.Fatalf("CreateRun failed: %v", err)
	}

	results := []engine.ComponentResult{
		{ComponentID: "git", Status: engine.StatusSuccess, Method: "apt", Version: "2.43.0", StartedAt: time.Now(), CompletedAt: time.Now()},
		{ComponentID: "jq", Status: engine.StatusSkipped, SkipReason: engine.SkipNotInProfile},
	}
	for _, r := range results {
		if err := store.SaveComponentResult(ctx, "run-1", r); err != nil {
			t.Fatalf("SaveComponentResult failed: %v", err)
		}
	}

	events := []engine.Event{
		{RunID: "run-1", ComponentID: "git", Method: "apt", Phase: engine.PhaseAttempted, Timestamp: time.Now()},
		{RunID: "run-1", ComponentID: "git", Phase: engine.PhaseSucceeded, Timestamp: time.Now()},
	}
	for _, e := range events {
		if err := store.AppendEvent(ctx, e); err != nil {
			t.Fatalf("AppendEvent failed: %v", err)
		}
	}

	gotResults, err := store.ListResults(ctx, "run-1")
	if err != nil {
		t.Fatalf("ListResults failed: %v", err)
	}
	if len(gotResults) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(gotResults))
	}
	if gotResults[0].ComponentID != "git" || gotResults[0].Method != "apt" {
		t.Errorf("Unexpected first result: %+v", gotResults[0])
	}
	if gotResults[1].SkipReason != string(engine.SkipNotInProfile) {
		t.Errorf("Expected skip reason persisted, got %+v", gotResults[1])
	}
	if gotResults[1].StartedAt != nil {
		t.Error("Expected zero started_at to persist as null")
	}

	gotEvents, err := store.ListEvents(ctx, "run-1")
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(gotEvents) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(gotEvents))
	}
	if gotEvents[0].Phase != string(engine.PhaseAttempted) {
		t.Errorf("Expected insertion order preserved, got %+v", gotEvents[0])
	}
}

func TestSQLiteStore_GetLatestRun_Empty(t *testing.T) {
	store := newTestStore(t)
	run, err := store.GetLatestRun(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if run != nil {
		t.Errorf("Expected nil run for empty store, got %+v", run)
	}
}
