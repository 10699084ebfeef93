package engine

import (
	"testing"

	"github.com/toolforge/toolforge/pkg/catalog"
)

func TestPlan_ResolvesRelevance(t *testing.T) {
	specs := []catalog.ComponentSpec{
		spec("base", false, false),
		spec("basic-tool", true, true, "Basic"),
		spec("extra-tool", false, false, "Extra"),
	}
	cat := buildCatalog(t, specs...)

	entries, err := Plan(cat, "Basic")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}

	if entries[0].Action != PlanActionInstall {
		t.Errorf("Expected base to install, got %s", entries[0].Action)
	}
	if entries[1].Action != PlanActionInstall || !entries[1].Critical || !entries[1].HaltOnFailure {
		t.Errorf("Expected basic-tool install with failure policy, got %+v", entries[1])
	}
	if len(entries[1].Methods) != 1 || entries[1].Methods[0] != "m" {
		t.Errorf("Expected method names in plan, got %v", entries[1].Methods)
	}
	if entries[2].Action != PlanActionSkip || entries[2].SkipReason != SkipNotInProfile {
		t.Errorf("Expected extra-tool skip (not_in_profile), got %+v", entries[2])
	}
}

func TestPlan_UnknownProfile(t *testing.T) {
	cat := buildCatalog(t, spec("git", false, false))
	if _, err := Plan(cat, "Bogus"); err == nil {
		t.Fatal("Expected error for unknown profile")
	}
}
