package services

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// DeliverableInput creates a deliverable. BudgetHours is the base budget and
// is fixed from here on: scope changes go through transfers, change orders
// and contingency drawdowns.
type DeliverableInput struct {
	ParentID           string   `json:"parent"`
	WBSCode            string   `json:"wbs_code"`
	Name               string   `json:"name"`
	Discipline         string   `json:"discipline"`
	Function           string   `json:"function"`
	BudgetHours        float64  `json:"budget_hours"`
	Status             string   `json:"status"`
	ForecastToComplete *float64 `json:"forecast_to_complete"`
	PlannedStart       string   `json:"planned_start"`
	PlannedComplete    string   `json:"planned_complete"`
}

// Validate checks the input in isolation.
func (in DeliverableInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required),
		validation.Field(&in.Function, validation.Required, validation.In(stringsToAny(Functions)...)),
		validation.Field(&in.BudgetHours, validation.Min(0.0)),
		validation.Field(&in.ForecastToComplete, validation.Min(0.0)),
		validation.Field(&in.PlannedStart, validation.Date(DateLayout)),
		validation.Field(&in.PlannedComplete, validation.Date(DateLayout)),
	)
}

// CreateDeliverable adds a deliverable to an open project. A new deliverable
// has no descendants, so only the parent's existence needs checking. FTC
// defaults to the base budget.
func (eng *Engine) CreateDeliverable(projectID string, in DeliverableInput) (Deliverable, error) {
	if err := validationErr("create deliverable", in.Validate()); err != nil {
		return Deliverable{}, err
	}
	unlock := eng.locks.lock(projectID)
	defer unlock()

	var out Deliverable
	err := eng.App.RunInTransaction(func(txApp core.App) error {
		if _, err := requireMutableProject(txApp, projectID); err != nil {
			return err
		}
		if in.ParentID != "" {
			if _, err := findProjectRecord(txApp, "deliverables", in.ParentID, projectID); err != nil {
				return err
			}
		}
		if err := requireDiscipline(txApp, in.Discipline); err != nil {
			return err
		}

		gates, err := LoadGateTable(txApp, projectID)
		if err != nil {
			return err
		}
		status := in.Status
		if status == "" {
			if g := gates.Gates(); len(g) > 0 {
				status = g[0].Name
			}
		}
		if !gates.Has(status) {
			return fmt.Errorf("status %q is not a progress gate: %w", status, ErrValidation)
		}

		col, err := txApp.FindCollectionByNameOrId("deliverables")
		if err != nil {
			return err
		}
		r := core.NewRecord(col)
		r.Set("project", projectID)
		r.Set("parent", in.ParentID)
		r.Set("wbs_code", in.WBSCode)
		r.Set("name", in.Name)
		r.Set("discipline", in.Discipline)
		r.Set("function", in.Function)
		r.Set("budget_hours", in.BudgetHours)
		setProgressFields(r, Gated{Status: status})
		ftc := in.BudgetHours
		if in.ForecastToComplete != nil {
			ftc = *in.ForecastToComplete
		}
		r.Set("forecast_to_complete", ftc)
		r.Set("planned_start", in.PlannedStart)
		r.Set("planned_complete", in.PlannedComplete)
		if err := txApp.Save(r); err != nil {
			return fmt.Errorf("save deliverable: %w", err)
		}

		out, err = deliverableFromRecord(r)
		return err
	})
	return out, err
}

// SetDeliverableParent re-parents a deliverable, rejecting any link that
// would make it its own ancestor.
func (eng *Engine) SetDeliverableParent(projectID, deliverableID, parentID string) error {
	unlock := eng.locks.lock(projectID)
	defer unlock()

	return eng.App.RunInTransaction(func(txApp core.App) error {
		if _, err := requireMutableProject(txApp, projectID); err != nil {
			return err
		}
		r, err := findProjectRecord(txApp, "deliverables", deliverableID, projectID)
		if err != nil {
			return err
		}

		records, err := txApp.FindAllRecords("deliverables", dbx.HashExp{"project": projectID})
		if err != nil {
			return fmt.Errorf("load deliverables: %w", err)
		}
		parents := make(map[string]string, len(records))
		for _, d := range records {
			parents[d.Id] = d.GetString("parent")
		}
		if err := CheckParent(parents, deliverableID, parentID); err != nil {
			return err
		}

		r.Set("parent", parentID)
		return txApp.Save(r)
	})
}

// ProgressUpdate changes how a deliverable's earned value is measured.
type ProgressUpdate struct {
	Mode             string   `json:"mode"`
	Status           string   `json:"status"`
	PhysicalProgress *float64 `json:"physical_progress,omitempty"`
	EarnedHours      *float64 `json:"earned_hours,omitempty"`
	ActualStart      string   `json:"actual_start"`
	ActualComplete   string   `json:"actual_complete"`
}

// Progress returns the mode the update asks for.
func (u ProgressUpdate) Progress() (ProgressMode, error) {
	return ProgressFields{
		Mode:             u.Mode,
		Status:           u.Status,
		PhysicalProgress: u.PhysicalProgress,
		EarnedHours:      u.EarnedHours,
	}.Parse()
}

// Validate checks the update in isolation.
func (u ProgressUpdate) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.Mode, validation.In("", "gated", "measured", "manual")),
		validation.Field(&u.Status, validation.Required),
		validation.Field(&u.PhysicalProgress, validation.Min(0.0), validation.Max(100.0)),
		validation.Field(&u.EarnedHours, validation.Min(0.0)),
		validation.Field(&u.ActualStart, validation.Date(DateLayout)),
		validation.Field(&u.ActualComplete, validation.Date(DateLayout)),
	)
}

// UpdateProgress records a deliverable's status and progress mode. Status may
// move backward for rework; previously recorded actuals and snapshots are
// untouched.
func (eng *Engine) UpdateProgress(projectID, deliverableID string, u ProgressUpdate) (Deliverable, error) {
	if err := validationErr("update progress", u.Validate()); err != nil {
		return Deliverable{}, err
	}
	mode, err := u.Progress()
	if err != nil {
		return Deliverable{}, err
	}

	unlock := eng.locks.lock(projectID)
	defer unlock()

	var out Deliverable
	err = eng.App.RunInTransaction(func(txApp core.App) error {
		if _, err := requireMutableProject(txApp, projectID); err != nil {
			return err
		}
		r, err := findProjectRecord(txApp, "deliverables", deliverableID, projectID)
		if err != nil {
			return err
		}
		gates, err := LoadGateTable(txApp, projectID)
		if err != nil {
			return err
		}
		if !gates.Has(u.Status) {
			return fmt.Errorf("status %q is not a progress gate: %w", u.Status, ErrValidation)
		}

		setProgressFields(r, mode)
		if u.ActualStart != "" {
			r.Set("actual_start", u.ActualStart)
		}
		if u.ActualComplete != "" {
			r.Set("actual_complete", u.ActualComplete)
		}
		if err := txApp.Save(r); err != nil {
			return err
		}
		out, err = deliverableFromRecord(r)
		return err
	})
	return out, err
}

// SetForecastToComplete records a deliverable's remaining-hours estimate.
func (eng *Engine) SetForecastToComplete(projectID, deliverableID string, hours float64) error {
	if hours < 0 {
		return fmt.Errorf("forecast to complete %.2f: %w", hours, ErrValidation)
	}
	unlock := eng.locks.lock(projectID)
	defer unlock()

	return eng.App.RunInTransaction(func(txApp core.App) error {
		if _, err := requireMutableProject(txApp, projectID); err != nil {
			return err
		}
		r, err := findProjectRecord(txApp, "deliverables", deliverableID, projectID)
		if err != nil {
			return err
		}
		r.Set("forecast_to_complete", hours)
		return txApp.Save(r)
	})
}

func stringsToAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
