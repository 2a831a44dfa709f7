package services

import (
	"bytes"
	"math"
	"testing"
	"time"

	"projectcontrols/config"
	"projectcontrols/testhelpers"
)

// bytesReader wraps a byte slice in a bytes.Reader for use with excelize.OpenReader.
func bytesReader(b []byte) *bytes.Reader {
	return bytes.NewReader(b)
}

// newTestEngine returns an engine over a seeded temporary app.
func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return NewEngine(testhelpers.NewSeededTestApp(t), config.DefaultConfig())
}

func ptr(v float64) *float64 { return &v }

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	if err != nil {
		t.Fatalf("ParseDate(%q): %v", s, err)
	}
	return d
}

// newDeliverable creates a deliverable through the engine and fails the test
// on error.
func newDeliverable(t *testing.T, eng *Engine, projectID string, in DeliverableInput) Deliverable {
	t.Helper()
	d, err := eng.CreateDeliverable(projectID, in)
	if err != nil {
		t.Fatalf("CreateDeliverable(%s): %v", in.Name, err)
	}
	return d
}

func findRow(rows []BreakdownRow, key string) BreakdownRow {
	for _, r := range rows {
		if r.Key == key {
			return r
		}
	}
	return BreakdownRow{Key: key}
}

// newProject creates an active project with a fixed contingency seed.
func newProject(t *testing.T, eng *Engine, code string, contingency float64) Project {
	t.Helper()
	p, err := eng.CreateProject(ProjectInput{Code: code, Name: "Project " + code, ContingencySeedHours: &contingency})
	if err != nil {
		t.Fatalf("CreateProject(%s): %v", code, err)
	}
	return p
}
