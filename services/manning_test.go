package services

import (
	"errors"
	"testing"
)

func TestUpsertManning(t *testing.T) {
	eng := newTestEngine(t)
	proj := newProject(t, eng, "MAN", 0)

	// A Wednesday normalizes to the Saturday that closes its week.
	m, err := eng.UpsertManning(proj.ID, ManningInput{PersonName: "Ben Robinson", WeekEnding: "2025-03-12", ForecastHours: 32})
	if err != nil {
		t.Fatalf("UpsertManning: %v", err)
	}
	if m.WeekEnding != "2025-03-15" {
		t.Errorf("week ending = %s, want 2025-03-15", m.WeekEnding)
	}
	if m.Position != "Senior Engineer" || m.Discipline != "ME" || m.Function != FunctionEngineering {
		t.Errorf("roster fallback = %+v", m)
	}
	if m.HourlyRate != 170 || !approx(m.ForecastCost, 32*170) {
		t.Errorf("rate %v cost %v, want 170 and %v", m.HourlyRate, m.ForecastCost, 32*170)
	}

	// Same person and week replaces the row.
	rate := 200.0
	m2, err := eng.UpsertManning(proj.ID, ManningInput{PersonName: "Ben Robinson", WeekEnding: "2025-03-15", ForecastHours: 40, HourlyRate: &rate})
	if err != nil {
		t.Fatalf("UpsertManning (replace): %v", err)
	}
	if m2.ID != m.ID {
		t.Errorf("expected the same row to be updated, got %s and %s", m.ID, m2.ID)
	}
	if !approx(m2.ForecastCost, 8000) {
		t.Errorf("forecast cost = %v, want 8000", m2.ForecastCost)
	}

	rows, err := ListManning(eng.App, proj.ID, "")
	if err != nil {
		t.Fatalf("ListManning: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected 1 manning row, got %d", len(rows))
	}
}

func TestUpsertManning_NoRate(t *testing.T) {
	eng := newTestEngine(t)
	proj := newProject(t, eng, "MAN2", 0)

	_, err := eng.UpsertManning(proj.ID, ManningInput{PersonName: "Contractor X", WeekEnding: "2025-03-15", ForecastHours: 10})
	if !errors.Is(err, ErrNoRateFound) {
		t.Errorf("unknown person without position: expected ErrNoRateFound, got %v", err)
	}

	_, err = eng.UpsertManning(proj.ID, ManningInput{PersonName: "Contractor X", Position: "Astronaut", WeekEnding: "2025-03-15", ForecastHours: 10})
	if !errors.Is(err, ErrNoRateFound) {
		t.Errorf("position without rate: expected ErrNoRateFound, got %v", err)
	}
}
