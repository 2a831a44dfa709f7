package collections_test

import (
	"testing"

	"projectcontrols/collections"
	"projectcontrols/config"
	"projectcontrols/testhelpers"
)

func TestSeed_CreatesReferenceData(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	if err := collections.Seed(app, config.DefaultGates()); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}

	counts := map[string]int{
		"disciplines":    8,
		"progress_gates": len(config.DefaultGates()),
		"staff":          5,
		"rate_schedule":  7,
	}
	for name, want := range counts {
		records, err := app.FindAllRecords(name)
		if err != nil {
			t.Fatalf("query %s error: %v", name, err)
		}
		if len(records) != want {
			t.Errorf("%s: expected %d records, got %d", name, want, len(records))
		}
	}

	gate, err := app.FindFirstRecordByData("progress_gates", "name", "internal_review")
	if err != nil {
		t.Fatalf("internal_review gate not seeded: %v", err)
	}
	if gate.GetFloat("default_percent") != 75 {
		t.Errorf("internal_review percent = %v, want 75", gate.GetFloat("default_percent"))
	}
	if gate.GetString("project") != "" {
		t.Errorf("seeded gate should be global, got project %q", gate.GetString("project"))
	}
}

func TestSeed_Idempotent(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	if err := collections.Seed(app, config.DefaultGates()); err != nil {
		t.Fatalf("first Seed() error: %v", err)
	}
	if err := collections.Seed(app, config.DefaultGates()); err != nil {
		t.Fatalf("second Seed() error: %v", err)
	}

	staff, _ := app.FindAllRecords("staff")
	if len(staff) != 5 {
		t.Errorf("expected 5 staff after two seeds, got %d", len(staff))
	}
}

func TestSeed_KeepsExistingData(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestRate(t, app, "Principal", 300, "2024-01-01", "")

	if err := collections.Seed(app, config.DefaultGates()); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}

	rates, _ := app.FindAllRecords("rate_schedule")
	if len(rates) != 1 {
		t.Errorf("rate_schedule was not empty, expected it untouched with 1 record, got %d", len(rates))
	}
}
