package services

import (
	"errors"
	"testing"
)

func TestResolveContingencySeed(t *testing.T) {
	pct := func(v float64) *float64 { return &v }

	tests := []struct {
		name     string
		in       ProjectInput
		wantPct  float64
		wantSeed float64
	}{
		{"default percent", ProjectInput{BaselineHours: 1000}, 10, 100},
		{"explicit percent", ProjectInput{BaselineHours: 1000, ContingencyPct: pct(5)}, 5, 50},
		{"explicit seed wins", ProjectInput{BaselineHours: 1000, ContingencyPct: pct(5), ContingencySeedHours: pct(80)}, 5, 80},
		{"zero percent", ProjectInput{BaselineHours: 1000, ContingencyPct: pct(0)}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotPct, gotSeed := ResolveContingencySeed(tt.in, 10)
			if gotPct != tt.wantPct || !approx(gotSeed, tt.wantSeed) {
				t.Errorf("ResolveContingencySeed = %v, %v; want %v, %v", gotPct, gotSeed, tt.wantPct, tt.wantSeed)
			}
		})
	}
}

func TestCreateProject_SeedFixed(t *testing.T) {
	eng := newTestEngine(t)
	p, err := eng.CreateProject(ProjectInput{Code: "P-2001", Name: "Seeded", BaselineHours: 2000, ContractValue: 500000})
	if err != nil {
		t.Fatalf("CreateProject: %v", err)
	}
	if p.ContingencySeedHours != 200 || p.Status != ProjectActive {
		t.Errorf("project = %+v", p)
	}

	value := 900000.0
	updated, err := eng.UpdateProject(p.ID, ProjectUpdate{ContractValue: &value})
	if err != nil {
		t.Fatalf("UpdateProject: %v", err)
	}
	if updated.ContractValue != 900000 || updated.ContingencySeedHours != 200 {
		t.Errorf("after contract change = %+v", updated)
	}

	if _, err := eng.CreateProject(ProjectInput{Name: "No code"}); !errors.Is(err, ErrValidation) {
		t.Errorf("missing code: expected ErrValidation, got %v", err)
	}
}

func TestCanTransitionProject(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{ProjectActive, ProjectOnHold, true},
		{ProjectOnHold, ProjectActive, true},
		{ProjectActive, ProjectComplete, true},
		{ProjectComplete, ProjectArchived, true},
		{ProjectComplete, ProjectActive, false},
		{ProjectArchived, ProjectActive, false},
		{ProjectActive, ProjectArchived, false},
	}
	for _, tt := range tests {
		if got := CanTransitionProject(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransitionProject(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestClosedProjectRejectsMutations(t *testing.T) {
	eng := newTestEngine(t)
	proj := newProject(t, eng, "CLOSED", 50)
	d := newDeliverable(t, eng, proj.ID, DeliverableInput{WBSCode: "1", Name: "Report", Function: FunctionEngineering, Discipline: "ME", BudgetHours: 10})
	co, _ := eng.CreateChangeOrder(proj.ID, ChangeOrderInput{Description: "Pending"})

	if _, err := eng.SetProjectStatus(proj.ID, ProjectComplete); err != nil {
		t.Fatalf("SetProjectStatus: %v", err)
	}

	mutations := map[string]func() error{
		"create deliverable": func() error {
			_, err := eng.CreateDeliverable(proj.ID, DeliverableInput{Name: "Late", Function: FunctionEngineering})
			return err
		},
		"update progress": func() error {
			_, err := eng.UpdateProgress(proj.ID, d.ID, ProgressUpdate{Status: "complete"})
			return err
		},
		"set ftc": func() error { return eng.SetForecastToComplete(proj.ID, d.ID, 0) },
		"draw contingency": func() error {
			_, err := eng.DrawContingency(proj.ID, DrawdownInput{Date: "2025-03-03", Hours: 1, Reason: "r"})
			return err
		},
		"transfer": func() error {
			_, err := eng.ApplyTransfer(proj.ID, TransferInput{Date: "2025-03-03", From: Bucket{FunctionEngineering, "ME"}, To: Bucket{FunctionDrafting, "CAD"}, Hours: 1, Reason: "r"})
			return err
		},
		"timesheets": func() error {
			_, err := eng.RecordTimesheetBatch(proj.ID, "late", []TimesheetInput{{Date: "2025-03-03", StaffName: "Will Smith", Hours: 1}})
			return err
		},
		"manning": func() error {
			_, err := eng.UpsertManning(proj.ID, ManningInput{PersonName: "Will Smith", WeekEnding: "2025-03-08", ForecastHours: 1})
			return err
		},
		"review change order": func() error {
			_, err := eng.ReviewChangeOrder(proj.ID, co.ID, COReview{Status: COSubmitted})
			return err
		},
		"create po": func() error {
			_, err := eng.CreatePO(proj.ID, POInput{Number: "PO-9", Supplier: "S", CommitmentValue: 1})
			return err
		},
		"snapshot": func() error {
			_, err := eng.CreateSnapshot(proj.ID, "2025-03-08", "", "")
			return err
		},
		"gate override": func() error {
			return eng.SetGateOverride(proj.ID, Gate{Name: "issued", DefaultPercent: 90, SortOrder: 50})
		},
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			err := mutate()
			if !errors.Is(err, ErrProjectClosed) {
				t.Errorf("expected ErrProjectClosed, got %v", err)
			}
			if !errors.Is(err, ErrConsistency) {
				t.Errorf("ErrProjectClosed should be a consistency error: %v", err)
			}
		})
	}

	// Reads and commentary still work.
	if _, err := eng.GetProjectSummary(proj.ID, mustDate(t, "2025-03-08")); err != nil {
		t.Errorf("GetProjectSummary on closed project: %v", err)
	}
	if _, err := eng.SaveCommentary(proj.ID, Commentary{WeekEnding: "2025-03-08", GeneralNotes: "Closed out"}); err != nil {
		t.Errorf("SaveCommentary on closed project: %v", err)
	}

	if _, err := eng.SetProjectStatus(proj.ID, ProjectActive); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("reopening: expected ErrInvalidTransition, got %v", err)
	}
}

func TestMissingProject(t *testing.T) {
	eng := newTestEngine(t)
	if _, err := eng.GetProjectSummary("missing", mustDate(t, "2025-03-08")); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := eng.CreateDeliverable("missing", DeliverableInput{Name: "x", Function: FunctionEngineering}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
