package services

import (
	"fmt"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/pocketbase/core"
)

// ProjectInput creates a project. The contingency pool seed is resolved once
// here: ContingencySeedHours when given, else ContingencyPct of BaselineHours.
// It is stored and never recomputed when contract value or budgets change.
type ProjectInput struct {
	Code                 string   `json:"project_code"`
	Name                 string   `json:"name"`
	Client               string   `json:"client"`
	ProjectType          string   `json:"project_type"`
	StartDate            string   `json:"start_date"`
	EndDate              string   `json:"end_date"`
	ReportDate           string   `json:"report_date"`
	ContractValue        float64  `json:"contract_value"`
	ContingencyPct       *float64 `json:"contingency_pct"`
	BaselineHours        float64  `json:"baseline_hours"`
	ContingencySeedHours *float64 `json:"contingency_seed_hours"`
	Notes                string   `json:"notes"`
}

// Validate checks the input in isolation.
func (in ProjectInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Code, validation.Required, validation.Length(1, 40)),
		validation.Field(&in.Name, validation.Required),
		validation.Field(&in.StartDate, validation.Date(DateLayout)),
		validation.Field(&in.EndDate, validation.Date(DateLayout)),
		validation.Field(&in.ReportDate, validation.Date(DateLayout)),
		validation.Field(&in.ContractValue, validation.Min(0.0)),
		validation.Field(&in.ContingencyPct, validation.Min(0.0), validation.Max(100.0)),
		validation.Field(&in.BaselineHours, validation.Min(0.0)),
		validation.Field(&in.ContingencySeedHours, validation.Min(0.0)),
	)
}

// ResolveContingencySeed applies the seed rule for in, using defaultPct when
// the input carries no percentage.
func ResolveContingencySeed(in ProjectInput, defaultPct float64) (pct, seed float64) {
	pct = defaultPct
	if in.ContingencyPct != nil {
		pct = *in.ContingencyPct
	}
	if in.ContingencySeedHours != nil {
		return pct, *in.ContingencySeedHours
	}
	return pct, in.BaselineHours * pct / 100
}

// CreateProject inserts an active project with its resolved contingency seed.
func (eng *Engine) CreateProject(in ProjectInput) (Project, error) {
	if err := validationErr("create project", in.Validate()); err != nil {
		return Project{}, err
	}
	pct, seed := ResolveContingencySeed(in, eng.Config.Contingency.DefaultPercent)

	col, err := eng.App.FindCollectionByNameOrId("projects")
	if err != nil {
		return Project{}, fmt.Errorf("projects collection not found: %w", err)
	}
	r := core.NewRecord(col)
	r.Set("project_code", in.Code)
	r.Set("name", in.Name)
	r.Set("client", in.Client)
	r.Set("project_type", in.ProjectType)
	r.Set("start_date", in.StartDate)
	r.Set("end_date", in.EndDate)
	r.Set("report_date", in.ReportDate)
	r.Set("contract_value", in.ContractValue)
	r.Set("contingency_pct", pct)
	r.Set("baseline_hours", in.BaselineHours)
	r.Set("contingency_seed_hours", seed)
	r.Set("status", ProjectActive)
	r.Set("notes", in.Notes)
	if err := eng.App.Save(r); err != nil {
		return Project{}, fmt.Errorf("create project %s: %w: %v", in.Code, ErrValidation, err)
	}

	eng.logger().Info("projects: created", "project", r.Id, "code", in.Code, "contingency_seed", seed)
	return projectFromRecord(r), nil
}

// ProjectUpdate changes descriptive project fields. Nil fields are left alone.
// Contract value may change but never re-seeds contingency.
type ProjectUpdate struct {
	Name          *string  `json:"name"`
	Client        *string  `json:"client"`
	ReportDate    *string  `json:"report_date"`
	EndDate       *string  `json:"end_date"`
	ContractValue *float64 `json:"contract_value"`
}

// Validate checks the update in isolation.
func (u ProjectUpdate) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.Name, validation.NilOrNotEmpty),
		validation.Field(&u.ReportDate, validation.Date(DateLayout)),
		validation.Field(&u.EndDate, validation.Date(DateLayout)),
		validation.Field(&u.ContractValue, validation.Min(0.0)),
	)
}

// UpdateProject applies u to an open project.
func (eng *Engine) UpdateProject(projectID string, u ProjectUpdate) (Project, error) {
	if err := validationErr("update project", u.Validate()); err != nil {
		return Project{}, err
	}
	unlock := eng.locks.lock(projectID)
	defer unlock()

	var out Project
	err := eng.App.RunInTransaction(func(txApp core.App) error {
		if _, err := requireMutableProject(txApp, projectID); err != nil {
			return err
		}
		r, err := txApp.FindRecordById("projects", projectID)
		if err != nil {
			return notFound("project", projectID)
		}
		if u.Name != nil {
			r.Set("name", *u.Name)
		}
		if u.Client != nil {
			r.Set("client", *u.Client)
		}
		if u.ReportDate != nil {
			r.Set("report_date", *u.ReportDate)
		}
		if u.EndDate != nil {
			r.Set("end_date", *u.EndDate)
		}
		if u.ContractValue != nil {
			r.Set("contract_value", *u.ContractValue)
		}
		if err := txApp.Save(r); err != nil {
			return err
		}
		out = projectFromRecord(r)
		return nil
	})
	return out, err
}

var projectTransitions = map[string][]string{
	ProjectActive:   {ProjectOnHold, ProjectComplete},
	ProjectOnHold:   {ProjectActive, ProjectComplete},
	ProjectComplete: {ProjectArchived},
}

// CanTransitionProject reports whether a project may move from one status to
// another. Archived is terminal and complete only moves on to archived.
func CanTransitionProject(from, to string) bool {
	for _, s := range projectTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// SetProjectStatus moves a project through its lifecycle.
func (eng *Engine) SetProjectStatus(projectID, status string) (Project, error) {
	unlock := eng.locks.lock(projectID)
	defer unlock()

	var out Project
	err := eng.App.RunInTransaction(func(txApp core.App) error {
		r, err := txApp.FindRecordById("projects", projectID)
		if err != nil {
			return notFound("project", projectID)
		}
		from := r.GetString("status")
		if !CanTransitionProject(from, status) {
			return fmt.Errorf("project %s: %s -> %s: %w", projectID, from, status, ErrInvalidTransition)
		}
		r.Set("status", status)
		if err := txApp.Save(r); err != nil {
			return err
		}
		out = projectFromRecord(r)
		return nil
	})
	if err != nil {
		return Project{}, err
	}

	eng.logger().Info("projects: status changed", "project", projectID, "status", status)
	return out, nil
}

// ListProjects returns every project ordered by project code.
func ListProjects(app core.App) ([]Project, error) {
	records, err := app.FindAllRecords("projects")
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}
	out := make([]Project, 0, len(records))
	for _, r := range records {
		out = append(out, projectFromRecord(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}
