package services

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// Commentary is the controller's narrative for one project week.
type Commentary struct {
	ID                    string `json:"id,omitempty"`
	ProjectID             string `json:"project"`
	WeekEnding            string `json:"week_ending"`
	KeyActivities         string `json:"key_activities"`
	NextPeriodActivities  string `json:"next_period_activities"`
	IssuesRisks           string `json:"issues_risks"`
	GeneralNotes          string `json:"general_notes"`
	ScheduleVarianceNotes string `json:"schedule_variance_notes"`
	CostVarianceNotes     string `json:"cost_variance_notes"`
	ForecastChangeNotes   string `json:"forecast_change_notes"`
	CreatedBy             string `json:"created_by,omitempty"`
}

// Validate checks the commentary in isolation.
func (c Commentary) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.WeekEnding, validation.Required, validation.Date(DateLayout)),
	)
}

// SaveCommentary writes the commentary for a project week, replacing any
// earlier version. Commentary is accepted on closed projects too.
func (eng *Engine) SaveCommentary(projectID string, c Commentary) (Commentary, error) {
	if err := validationErr("save commentary", c.Validate()); err != nil {
		return Commentary{}, err
	}
	unlock := eng.locks.lock(projectID)
	defer unlock()

	var out Commentary
	err := eng.App.RunInTransaction(func(txApp core.App) error {
		if _, err := LoadProject(txApp, projectID); err != nil {
			return err
		}
		r, err := findCommentaryRecord(txApp, projectID, c.WeekEnding)
		if err != nil {
			col, err := txApp.FindCollectionByNameOrId("weekly_commentary")
			if err != nil {
				return err
			}
			r = core.NewRecord(col)
			r.Set("project", projectID)
			r.Set("week_ending", c.WeekEnding)
		}
		r.Set("key_activities", c.KeyActivities)
		r.Set("next_period_activities", c.NextPeriodActivities)
		r.Set("issues_risks", c.IssuesRisks)
		r.Set("general_notes", c.GeneralNotes)
		r.Set("schedule_variance_notes", c.ScheduleVarianceNotes)
		r.Set("cost_variance_notes", c.CostVarianceNotes)
		r.Set("forecast_change_notes", c.ForecastChangeNotes)
		r.Set("created_by", c.CreatedBy)
		if err := txApp.Save(r); err != nil {
			return fmt.Errorf("save commentary for %s: %w", c.WeekEnding, err)
		}
		out = commentaryFromRecord(r)
		return nil
	})
	return out, err
}

// GetCommentary reads the commentary for a project week.
func (eng *Engine) GetCommentary(projectID, weekEnding string) (Commentary, error) {
	r, err := findCommentaryRecord(eng.App, projectID, weekEnding)
	if err != nil {
		return Commentary{}, notFound("commentary", weekEnding)
	}
	return commentaryFromRecord(r), nil
}

func findCommentaryRecord(app core.App, projectID, weekEnding string) (*core.Record, error) {
	return app.FindFirstRecordByFilter("weekly_commentary",
		"project = {:project} && week_ending = {:week}",
		dbx.Params{"project": projectID, "week": weekEnding})
}

func commentaryFromRecord(r *core.Record) Commentary {
	return Commentary{
		ID:                    r.Id,
		ProjectID:             r.GetString("project"),
		WeekEnding:            r.GetString("week_ending"),
		KeyActivities:         r.GetString("key_activities"),
		NextPeriodActivities:  r.GetString("next_period_activities"),
		IssuesRisks:           r.GetString("issues_risks"),
		GeneralNotes:          r.GetString("general_notes"),
		ScheduleVarianceNotes: r.GetString("schedule_variance_notes"),
		CostVarianceNotes:     r.GetString("cost_variance_notes"),
		ForecastChangeNotes:   r.GetString("forecast_change_notes"),
		CreatedBy:             r.GetString("created_by"),
	}
}
