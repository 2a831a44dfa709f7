package services

import (
	"fmt"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// SnapshotState is the frozen bundle stored with a weekly snapshot.
type SnapshotState struct {
	Summary     ProjectSummary `json:"summary"`
	Progress    ProgressReport `json:"progress"`
	WeeklySpend []SpendRow     `json:"weekly_spend"`
}

// Snapshot is the immutable computed state of a project for one week.
type Snapshot struct {
	ID                 string         `json:"id"`
	ProjectID          string         `json:"project"`
	WeekEnding         string         `json:"week_ending"`
	SnapshotDate       string         `json:"snapshot_date"`
	BudgetHours        float64        `json:"budget_hours"`
	ActualHours        float64        `json:"actual_hours"`
	ActualCost         float64        `json:"actual_cost"`
	EarnedHours        float64        `json:"earned_hours"`
	DeliverableFTC     float64        `json:"deliverable_ftc"`
	ManningFTC         float64        `json:"manning_ftc"`
	FACDeliverable     float64        `json:"fac_deliverable"`
	FACManning         float64        `json:"fac_manning"`
	Variance           float64        `json:"variance"`
	ContingencyBalance float64        `json:"contingency_balance"`
	CreatedBy          string         `json:"created_by,omitempty"`
	Notes              string         `json:"notes,omitempty"`
	State              *SnapshotState `json:"state,omitempty"`
}

// BuildSnapshotState computes the bundle frozen for week.
func BuildSnapshotState(pd ProjectData, week time.Time, tolerance float64) (SnapshotState, error) {
	progress, err := ComputeProgress(pd.AsOf(week))
	if err != nil {
		return SnapshotState{}, err
	}
	return SnapshotState{
		Summary:     ComputeSummary(pd, week, tolerance),
		Progress:    progress,
		WeeklySpend: WeeklySpend(pd.AsOf(week).Timesheets, "", FormatDate(week)),
	}, nil
}

// CreateSnapshot freezes the project's computed state for weekEnding. A
// snapshot per (project, week) can be created once: a second attempt fails
// with ErrSnapshotExists and leaves the first untouched.
func (eng *Engine) CreateSnapshot(projectID, weekEnding, createdBy, notes string) (Snapshot, error) {
	week, err := ParseDate(weekEnding)
	if err != nil {
		return Snapshot{}, fmt.Errorf("create snapshot: %w: %v", ErrValidation, err)
	}
	weekEnding = FormatDate(week)

	unlock := eng.locks.lock(projectID)
	defer unlock()

	var out Snapshot
	err = eng.App.RunInTransaction(func(txApp core.App) error {
		if _, err := requireMutableProject(txApp, projectID); err != nil {
			return err
		}
		if _, err := findSnapshotRecord(txApp, projectID, weekEnding); err == nil {
			return fmt.Errorf("snapshot for week %s: %w", weekEnding, ErrSnapshotExists)
		}

		pd, err := LoadProjectData(txApp, projectID)
		if err != nil {
			return err
		}
		state, err := BuildSnapshotState(pd, week, eng.Config.Commitments.Tolerance)
		if err != nil {
			return err
		}

		col, err := txApp.FindCollectionByNameOrId("weekly_snapshots")
		if err != nil {
			return err
		}
		s := state.Summary
		r := core.NewRecord(col)
		r.Set("project", projectID)
		r.Set("week_ending", weekEnding)
		r.Set("snapshot_date", time.Now().UTC().Format(time.RFC3339))
		r.Set("budget_hours", s.BudgetHours)
		r.Set("actual_hours", s.ActualHours)
		r.Set("actual_cost", s.ActualCost)
		r.Set("earned_hours", s.EarnedHours)
		r.Set("deliverable_ftc", s.Forecast.DeliverableFTC)
		r.Set("manning_ftc", s.Forecast.ManningFTC)
		r.Set("fac_deliverable", s.Forecast.FACDeliverable)
		r.Set("fac_manning", s.Forecast.FACManning)
		r.Set("variance", s.Forecast.Variance)
		r.Set("contingency_balance", s.Contingency.Balance)
		r.Set("state", state)
		r.Set("created_by", createdBy)
		r.Set("notes", notes)
		if err := txApp.Save(r); err != nil {
			// The unique (project, week_ending) index backs the check above.
			return fmt.Errorf("snapshot for week %s: %w: %v", weekEnding, ErrSnapshotExists, err)
		}

		out = snapshotFromRecord(r)
		out.State = &state
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}

	eng.logger().Info("snapshots: created",
		"project", projectID, "week", weekEnding, "earned", out.EarnedHours, "variance", out.Variance)
	return out, nil
}

// GetSnapshot reads a snapshot with its frozen state.
func (eng *Engine) GetSnapshot(projectID, weekEnding string) (Snapshot, error) {
	r, err := findSnapshotRecord(eng.App, projectID, weekEnding)
	if err != nil {
		return Snapshot{}, notFound("snapshot", weekEnding)
	}
	out := snapshotFromRecord(r)
	var state SnapshotState
	if err := r.UnmarshalJSONField("state", &state); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot %s: %w", weekEnding, err)
	}
	out.State = &state
	return out, nil
}

// ListSnapshots returns a project's snapshot history, oldest first, without
// the frozen state bundles.
func (eng *Engine) ListSnapshots(projectID string) ([]Snapshot, error) {
	if _, err := LoadProject(eng.App, projectID); err != nil {
		return nil, err
	}
	records, err := eng.App.FindRecordsByFilter("weekly_snapshots", "project = {:project}", "week_ending", 0, 0,
		dbx.Params{"project": projectID})
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	out := make([]Snapshot, 0, len(records))
	for _, r := range records {
		out = append(out, snapshotFromRecord(r))
	}
	return out, nil
}

func findSnapshotRecord(app core.App, projectID, weekEnding string) (*core.Record, error) {
	return app.FindFirstRecordByFilter("weekly_snapshots",
		"project = {:project} && week_ending = {:week}",
		dbx.Params{"project": projectID, "week": weekEnding})
}

func snapshotFromRecord(r *core.Record) Snapshot {
	return Snapshot{
		ID:                 r.Id,
		ProjectID:          r.GetString("project"),
		WeekEnding:         r.GetString("week_ending"),
		SnapshotDate:       r.GetString("snapshot_date"),
		BudgetHours:        r.GetFloat("budget_hours"),
		ActualHours:        r.GetFloat("actual_hours"),
		ActualCost:         r.GetFloat("actual_cost"),
		EarnedHours:        r.GetFloat("earned_hours"),
		DeliverableFTC:     r.GetFloat("deliverable_ftc"),
		ManningFTC:         r.GetFloat("manning_ftc"),
		FACDeliverable:     r.GetFloat("fac_deliverable"),
		FACManning:         r.GetFloat("fac_manning"),
		Variance:           r.GetFloat("variance"),
		ContingencyBalance: r.GetFloat("contingency_balance"),
		CreatedBy:          r.GetString("created_by"),
		Notes:              r.GetString("notes"),
	}
}
