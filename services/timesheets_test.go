package services

import (
	"errors"
	"testing"
)

func TestFunctionForTask(t *testing.T) {
	tests := []struct {
		task string
		want string
	}{
		{"PM - weekly meeting", FunctionManagement},
		{"Project management", FunctionManagement},
		{"DF layout", FunctionDrafting},
		{"Drafting GA", FunctionDrafting},
		{"3D model", FunctionDrafting},
		{"Pump sizing", FunctionEngineering},
		{"", FunctionEngineering},
	}
	for _, tt := range tests {
		t.Run(tt.task, func(t *testing.T) {
			if got := FunctionForTask(tt.task); got != tt.want {
				t.Errorf("FunctionForTask(%q) = %s, want %s", tt.task, got, tt.want)
			}
		})
	}
}

func TestRecordTimesheetBatch(t *testing.T) {
	eng := newTestEngine(t)
	proj := newProject(t, eng, "TS", 0)
	d := newDeliverable(t, eng, proj.ID, DeliverableInput{WBSCode: "1", Name: "Pump datasheets", Function: FunctionEngineering, Discipline: "ME", BudgetHours: 80})

	rows := []TimesheetInput{
		{Date: "2025-03-03", StaffName: "Will Smith", TaskName: "Pump sizing", Hours: 8, DeliverableID: d.ID},
		{Date: "2025-03-04", StaffName: "Mark Rankin", TaskName: "DF markups", Hours: 4},
	}

	res, err := eng.RecordTimesheetBatch(proj.ID, "2025-W10", rows)
	if err != nil {
		t.Fatalf("RecordTimesheetBatch: %v", err)
	}
	if res.Duplicate || res.EntryCount != 2 {
		t.Errorf("result = %+v", res)
	}
	// Will Smith: Lead Engineer 195/h; Mark Rankin: Drawing Office Manager 195/h.
	if !approx(res.TotalHours, 12) || !approx(res.TotalCost, 12*195) {
		t.Errorf("totals = %v h, %v; want 12 h, %v", res.TotalHours, res.TotalCost, 12*195)
	}

	entries, err := ListTimesheets(eng.App, proj.ID, "", "")
	if err != nil {
		t.Fatalf("ListTimesheets: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	first := entries[0]
	if first.WeekEnding != "2025-03-08" || first.Function != FunctionEngineering || first.Position != "Lead Engineer" {
		t.Errorf("first entry = %+v", first)
	}
	if entries[1].Function != FunctionDrafting || entries[1].Discipline != "GN" {
		t.Errorf("second entry = %+v", entries[1])
	}

	again, err := eng.RecordTimesheetBatch(proj.ID, "2025-W10", rows)
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if !again.Duplicate || again.EntryCount != 2 {
		t.Errorf("re-import result = %+v, want duplicate of 2 entries", again)
	}

	summary, err := eng.GetProjectSummary(proj.ID, mustDate(t, "2025-03-08"))
	if err != nil {
		t.Fatalf("GetProjectSummary: %v", err)
	}
	if !approx(summary.ActualHours, 12) {
		t.Errorf("actual hours after re-import = %v, want 12", summary.ActualHours)
	}

	report, _ := eng.GetDeliverableProgress(proj.ID)
	if !approx(report.Rows[0].OwnActual, 8) {
		t.Errorf("deliverable actual = %v, want 8", report.Rows[0].OwnActual)
	}
}

func TestRecordTimesheetBatch_CostFrozen(t *testing.T) {
	eng := newTestEngine(t)
	proj := newProject(t, eng, "TS2", 0)

	if _, err := eng.RecordTimesheetBatch(proj.ID, "b1", []TimesheetInput{
		{Date: "2025-03-03", StaffName: "Will Smith", Hours: 10},
	}); err != nil {
		t.Fatalf("RecordTimesheetBatch: %v", err)
	}

	// A later rate change leaves recorded cost alone.
	old, err := eng.App.FindFirstRecordByData("rate_schedule", "position", "Lead Engineer")
	if err != nil {
		t.Fatalf("find seeded rate: %v", err)
	}
	old.Set("end_date", "2025-06-01")
	if err := eng.App.Save(old); err != nil {
		t.Fatalf("close seeded rate: %v", err)
	}
	if _, err := eng.AddRate(RateEntry{Position: "Lead Engineer", Rate: 250, EffectiveDate: "2025-06-01"}); err != nil {
		t.Fatalf("AddRate: %v", err)
	}

	entries, _ := ListTimesheets(eng.App, proj.ID, "", "")
	if len(entries) != 1 || !approx(entries[0].Cost, 1950) {
		t.Fatalf("entries = %+v, want one with cost 1950", entries)
	}

	res, err := eng.RecordTimesheetBatch(proj.ID, "b2", []TimesheetInput{
		{Date: "2025-06-02", StaffName: "Will Smith", Hours: 10},
	})
	if err != nil {
		t.Fatalf("RecordTimesheetBatch (new rate): %v", err)
	}
	if !approx(res.TotalCost, 2500) {
		t.Errorf("cost at new rate = %v, want 2500", res.TotalCost)
	}
}

func TestRecordTimesheetBatch_AbortsOnBadRow(t *testing.T) {
	eng := newTestEngine(t)
	proj := newProject(t, eng, "TS3", 0)

	_, err := eng.RecordTimesheetBatch(proj.ID, "bad", []TimesheetInput{
		{Date: "2025-03-03", StaffName: "Will Smith", Hours: 8},
		{Date: "2025-03-03", StaffName: "Unknown Person", Hours: 8},
	})
	if !errors.Is(err, ErrNoRateFound) {
		t.Fatalf("expected ErrNoRateFound, got %v", err)
	}

	entries, _ := ListTimesheets(eng.App, proj.ID, "", "")
	if len(entries) != 0 {
		t.Errorf("a failed batch must write nothing, found %d entries", len(entries))
	}
	batches, _ := eng.App.FindAllRecords("timesheet_batches")
	if len(batches) != 0 {
		t.Errorf("a failed batch must not be recorded, found %d", len(batches))
	}

	// Rates before the first interval are also rejected.
	_, err = eng.RecordTimesheetBatch(proj.ID, "early", []TimesheetInput{
		{Date: "2024-12-31", StaffName: "Will Smith", Hours: 8},
	})
	if !errors.Is(err, ErrNoRateFound) {
		t.Errorf("date before any rate: expected ErrNoRateFound, got %v", err)
	}

	_, err = eng.RecordTimesheetBatch(proj.ID, "neg", []TimesheetInput{
		{Date: "2025-03-03", StaffName: "Will Smith", Hours: -2},
	})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("negative hours: expected ErrValidation, got %v", err)
	}
}

func TestRecordTimesheetBatch_GeneratedID(t *testing.T) {
	eng := newTestEngine(t)
	proj := newProject(t, eng, "TS4", 0)

	res, err := eng.RecordTimesheetBatch(proj.ID, "", []TimesheetInput{
		{Date: "2025-03-03", StaffName: "Ben Bowles", Hours: 1},
	})
	if err != nil {
		t.Fatalf("RecordTimesheetBatch: %v", err)
	}
	if len(res.BatchID) != 36 {
		t.Errorf("generated batch id = %q, want a uuid", res.BatchID)
	}
}

func TestWeeklySpend(t *testing.T) {
	entries := []TimesheetEntry{
		{WeekEnding: "2025-03-08", Function: FunctionEngineering, Discipline: "ME", Hours: 8, Cost: 1560},
		{WeekEnding: "2025-03-08", Function: FunctionEngineering, Discipline: "ME", Hours: 4, Cost: 780},
		{WeekEnding: "2025-03-01", Function: FunctionDrafting, Discipline: "CAD", Hours: 6, Cost: 840},
		{WeekEnding: "2025-03-15", Function: FunctionEngineering, Discipline: "ME", Hours: 2, Cost: 390},
	}

	rows := WeeklySpend(entries, "", "2025-03-08")
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %+v", rows)
	}
	if rows[0].WeekEnding != "2025-03-01" {
		t.Errorf("rows not in week order: %+v", rows)
	}
	if !approx(rows[1].Hours, 12) || !approx(rows[1].Cost, 2340) {
		t.Errorf("grouped row = %+v", rows[1])
	}

	if got := ActualHours(entries, Scope{Discipline: "ME"}); !approx(got, 14) {
		t.Errorf("ME hours = %v, want 14", got)
	}
	if got := ActualCost(entries, Scope{WeekEnding: "2025-03-01"}); !approx(got, 840) {
		t.Errorf("week cost = %v, want 840", got)
	}
}
