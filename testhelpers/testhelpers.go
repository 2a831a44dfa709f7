// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"projectcontrols/collections"
	"projectcontrols/config"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app, runs collections.Setup to create all tables and
// registers the record guards. The temporary directory is cleaned up
// automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)
	collections.RegisterGuards(app)

	return app
}

// NewSeededTestApp is NewTestApp plus the reference data seed: disciplines,
// the default global gate table, staff and rates.
func NewSeededTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	app := NewTestApp(t)
	if err := collections.Seed(app, config.DefaultGates()); err != nil {
		t.Fatalf("failed to seed test app: %v", err)
	}
	return app
}

// CreateTestProject creates an active project with the given code and
// contingency seed and returns it.
func CreateTestProject(t *testing.T, app *pocketbase.PocketBase, code string, contingencyHours float64) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("projects")
	if err != nil {
		t.Fatalf("failed to find projects collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("project_code", code)
	record.Set("name", "Project "+code)
	record.Set("status", "active")
	record.Set("contingency_seed_hours", contingencyHours)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test project: %v", err)
	}

	return record
}

// CreateTestDeliverable creates a gated deliverable at the first gate with
// FTC equal to its budget and returns it.
func CreateTestDeliverable(t *testing.T, app *pocketbase.PocketBase, projectID, name, function, discipline string, budget float64) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("deliverables")
	if err != nil {
		t.Fatalf("failed to find deliverables collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("project", projectID)
	record.Set("name", name)
	record.Set("wbs_code", name)
	record.Set("function", function)
	record.Set("discipline", discipline)
	record.Set("budget_hours", budget)
	record.Set("progress_mode", "gated")
	record.Set("status", "not_started")
	record.Set("forecast_to_complete", budget)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test deliverable: %v", err)
	}

	return record
}

// CreateTestStaff creates a staff roster entry and returns it.
func CreateTestStaff(t *testing.T, app *pocketbase.PocketBase, name, function, discipline, position string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("staff")
	if err != nil {
		t.Fatalf("failed to find staff collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("name", name)
	record.Set("function", function)
	record.Set("discipline", discipline)
	record.Set("position", position)
	record.Set("active", true)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test staff: %v", err)
	}

	return record
}

// CreateTestRate creates a rate interval. An empty end date is open-ended.
func CreateTestRate(t *testing.T, app *pocketbase.PocketBase, position string, rate float64, effective, end string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("rate_schedule")
	if err != nil {
		t.Fatalf("failed to find rate_schedule collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("position", position)
	record.Set("rate", rate)
	record.Set("effective_date", effective)
	record.Set("end_date", end)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test rate: %v", err)
	}

	return record
}

// CreateTestChangeOrder creates a change order in the given status with
// engineering hours only and returns it.
func CreateTestChangeOrder(t *testing.T, app *pocketbase.PocketBase, projectID, number, status string, engHours float64) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("change_orders")
	if err != nil {
		t.Fatalf("failed to find change_orders collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("project", projectID)
	record.Set("co_number", number)
	record.Set("description", "Change "+number)
	record.Set("status", status)
	record.Set("hours_eng", engHours)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test change order: %v", err)
	}

	return record
}

// CreateTestPurchaseOrder creates an issued purchase order and returns it.
func CreateTestPurchaseOrder(t *testing.T, app *pocketbase.PocketBase, projectID, poNumber string, commitment float64) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("purchase_orders")
	if err != nil {
		t.Fatalf("failed to find purchase_orders collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("project", projectID)
	record.Set("po_number", poNumber)
	record.Set("supplier", "Test Supplier")
	record.Set("commitment_value", commitment)
	record.Set("status", "issued")

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test purchase order: %v", err)
	}

	return record
}

// AssertBodyContains checks that body contains all specified fragments.
func AssertBodyContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected body to contain %q, but it was not found\nbody (first 500 chars): %s",
				frag, truncate(body, 500))
		}
	}
}

// DecodeJSON unmarshals a response body into v, failing the test on error.
func DecodeJSON(t *testing.T, body string, v any) {
	t.Helper()

	if err := json.Unmarshal([]byte(body), v); err != nil {
		t.Fatalf("invalid JSON response: %v\nbody (first 500 chars): %s", err, truncate(body, 500))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
