package services

import (
	"errors"
	"testing"
)

func TestCreateSnapshot_Frozen(t *testing.T) {
	eng := newTestEngine(t)
	proj := newProject(t, eng, "SNAP", 40)
	d := newDeliverable(t, eng, proj.ID, DeliverableInput{WBSCode: "1", Name: "Layouts", Function: FunctionDrafting, Discipline: "CAD", BudgetHours: 100})

	if _, err := eng.UpdateProgress(proj.ID, d.ID, ProgressUpdate{Status: "internal_review"}); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if _, err := eng.RecordTimesheetBatch(proj.ID, "w10", []TimesheetInput{
		{Date: "2025-03-04", StaffName: "Mark Rankin", TaskName: "Drafting", Hours: 30, DeliverableID: d.ID},
	}); err != nil {
		t.Fatalf("RecordTimesheetBatch: %v", err)
	}

	snap, err := eng.CreateSnapshot(proj.ID, "2025-03-08", "controller", "week 10")
	if err != nil {
		t.Fatalf("CreateSnapshot: %v", err)
	}
	if !approx(snap.EarnedHours, 75) || !approx(snap.ActualHours, 30) || !approx(snap.ContingencyBalance, 40) {
		t.Errorf("snapshot = %+v", snap)
	}

	// Later changes leave the stored snapshot alone.
	if _, err := eng.UpdateProgress(proj.ID, d.ID, ProgressUpdate{Status: "complete"}); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if _, err := eng.DrawContingency(proj.ID, DrawdownInput{Date: "2025-03-05", Hours: 10, Reason: "late scope"}); err != nil {
		t.Fatalf("DrawContingency: %v", err)
	}

	got, err := eng.GetSnapshot(proj.ID, "2025-03-08")
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if !approx(got.EarnedHours, 75) || !approx(got.ContingencyBalance, 40) {
		t.Errorf("stored snapshot changed: %+v", got)
	}
	if got.State == nil || !approx(got.State.Summary.EarnedHours, 75) || len(got.State.Progress.Rows) != 1 {
		t.Fatalf("stored state = %+v", got.State)
	}
	if len(got.State.WeeklySpend) != 1 || !approx(got.State.WeeklySpend[0].Hours, 30) {
		t.Errorf("stored weekly spend = %+v", got.State.WeeklySpend)
	}

	live, _ := eng.GetProjectSummary(proj.ID, mustDate(t, "2025-03-08"))
	if !approx(live.EarnedHours, 100) || !approx(live.BudgetHours, 110) {
		t.Errorf("live earned %v budget %v, want 100 and 110", live.EarnedHours, live.BudgetHours)
	}

	_, err = eng.CreateSnapshot(proj.ID, "2025-03-08", "controller", "again")
	if !errors.Is(err, ErrSnapshotExists) {
		t.Fatalf("second snapshot: expected ErrSnapshotExists, got %v", err)
	}

	list, err := eng.ListSnapshots(proj.ID)
	if err != nil {
		t.Fatalf("ListSnapshots: %v", err)
	}
	if len(list) != 1 || list[0].Notes != "week 10" || list[0].State != nil {
		t.Errorf("list = %+v", list)
	}
}

func TestCreateSnapshot_AsOfCut(t *testing.T) {
	eng := newTestEngine(t)
	proj := newProject(t, eng, "SNAP2", 0)

	if _, err := eng.RecordTimesheetBatch(proj.ID, "b", []TimesheetInput{
		{Date: "2025-03-04", StaffName: "Will Smith", Hours: 8},
		{Date: "2025-03-11", StaffName: "Will Smith", Hours: 8},
	}); err != nil {
		t.Fatalf("RecordTimesheetBatch: %v", err)
	}

	snap, err := eng.CreateSnapshot(proj.ID, "2025-03-08", "", "")
	if err != nil {
		t.Fatalf("CreateSnapshot: %v", err)
	}
	if !approx(snap.ActualHours, 8) {
		t.Errorf("actual hours = %v, want 8 (later week excluded)", snap.ActualHours)
	}

	if _, err := eng.GetSnapshot(proj.ID, "2025-03-15"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing week: expected ErrNotFound, got %v", err)
	}
	if _, err := eng.CreateSnapshot(proj.ID, "not-a-date", "", ""); !errors.Is(err, ErrValidation) {
		t.Errorf("bad week: expected ErrValidation, got %v", err)
	}
}

func TestCreateSnapshot_StateUsesOneCut(t *testing.T) {
	eng := newTestEngine(t)
	proj := newProject(t, eng, "SNAP3", 40)
	d := newDeliverable(t, eng, proj.ID, DeliverableInput{WBSCode: "1", Name: "Pump datasheets", Function: FunctionEngineering, Discipline: "ME", BudgetHours: 100})

	if _, err := eng.UpdateProgress(proj.ID, d.ID, ProgressUpdate{Status: "internal_review"}); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if _, err := eng.RecordTimesheetBatch(proj.ID, "b", []TimesheetInput{
		{Date: "2025-03-04", StaffName: "Will Smith", TaskName: "Pump sizing", Hours: 8, DeliverableID: d.ID},
		{Date: "2025-03-11", StaffName: "Will Smith", TaskName: "Pump sizing", Hours: 8, DeliverableID: d.ID},
	}); err != nil {
		t.Fatalf("RecordTimesheetBatch: %v", err)
	}
	if _, err := eng.DrawContingency(proj.ID, DrawdownInput{Date: "2025-03-12", Hours: 20, Reason: "extra pumps", DeliverableID: d.ID}); err != nil {
		t.Fatalf("DrawContingency: %v", err)
	}

	snap, err := eng.CreateSnapshot(proj.ID, "2025-03-08", "", "")
	if err != nil {
		t.Fatalf("CreateSnapshot: %v", err)
	}
	sum, prog := snap.State.Summary, snap.State.Progress
	if !approx(prog.Budget, sum.BudgetHours) || !approx(prog.Earned, sum.EarnedHours) || !approx(prog.Actual, sum.ActualHours) {
		t.Errorf("progress budget/earned/actual = %v/%v/%v, summary = %v/%v/%v",
			prog.Budget, prog.Earned, prog.Actual, sum.BudgetHours, sum.EarnedHours, sum.ActualHours)
	}
	if !approx(prog.Budget, 100) || !approx(prog.Earned, 75) || !approx(prog.Actual, 8) {
		t.Errorf("progress budget/earned/actual = %v/%v/%v, want 100/75/8", prog.Budget, prog.Earned, prog.Actual)
	}
	if len(prog.Rows) != 1 || !approx(prog.Rows[0].RolledBudget, 100) {
		t.Errorf("progress rows = %+v", prog.Rows)
	}
}
