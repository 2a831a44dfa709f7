package services

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// ManningInput sets one person's forecast hours for one week.
type ManningInput struct {
	PersonName    string   `json:"person_name"`
	WeekEnding    string   `json:"week_ending"`
	ForecastHours float64  `json:"forecast_hours"`
	Position      string   `json:"position"`
	Discipline    string   `json:"discipline"`
	Function      string   `json:"function"`
	HourlyRate    *float64 `json:"hourly_rate"`
}

// Validate checks the input in isolation.
func (in ManningInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.PersonName, validation.Required),
		validation.Field(&in.WeekEnding, validation.Required, validation.Date(DateLayout)),
		validation.Field(&in.ForecastHours, validation.Min(0.0)),
		validation.Field(&in.Function, validation.In(stringsToAny(Functions)...)),
		validation.Field(&in.HourlyRate, validation.Min(0.0)),
	)
}

// UpsertManning records a forecast row, replacing any existing row for the
// same person and week. The week is normalized to its week-ending day. The
// rate is taken from the input or resolved as of the week and the forecast
// cost is frozen with it.
func (eng *Engine) UpsertManning(projectID string, in ManningInput) (ManningEntry, error) {
	if err := validationErr("upsert manning", in.Validate()); err != nil {
		return ManningEntry{}, err
	}
	day, _ := ParseDate(in.WeekEnding)
	week := FormatDate(WeekEnding(day, eng.Config.WeekEnding()))

	unlock := eng.locks.lock(projectID)
	defer unlock()

	var out ManningEntry
	err := eng.App.RunInTransaction(func(txApp core.App) error {
		if _, err := requireMutableProject(txApp, projectID); err != nil {
			return err
		}

		roster, err := loadRoster(txApp, []TimesheetInput{{StaffName: in.PersonName}})
		if err != nil {
			return err
		}
		staff := roster[in.PersonName]
		position := firstNonEmpty(in.Position, staff.Position)
		discipline := firstNonEmpty(in.Discipline, staff.Discipline)
		function := firstNonEmpty(in.Function, staff.Function, FunctionEngineering)

		var rate float64
		if in.HourlyRate != nil {
			rate = *in.HourlyRate
		} else {
			if position == "" {
				return fmt.Errorf("no position for %q: %w", in.PersonName, ErrNoRateFound)
			}
			schedule, err := LoadRateSchedule(txApp, position)
			if err != nil {
				return err
			}
			if rate, err = schedule.Resolve(position, WeekEnding(day, eng.Config.WeekEnding())); err != nil {
				return err
			}
		}

		r, err := txApp.FindFirstRecordByFilter("manning_forecast",
			"project = {:project} && person_name = {:person} && week_ending = {:week}",
			dbx.Params{"project": projectID, "person": in.PersonName, "week": week})
		if err != nil {
			col, err := txApp.FindCollectionByNameOrId("manning_forecast")
			if err != nil {
				return err
			}
			r = core.NewRecord(col)
			r.Set("project", projectID)
			r.Set("person_name", in.PersonName)
			r.Set("week_ending", week)
		}
		r.Set("position", position)
		r.Set("discipline", discipline)
		r.Set("function", function)
		r.Set("forecast_hours", in.ForecastHours)
		r.Set("hourly_rate", rate)
		r.Set("forecast_cost", in.ForecastHours*rate)
		if err := txApp.Save(r); err != nil {
			return fmt.Errorf("save manning for %s week %s: %w", in.PersonName, week, err)
		}
		out = manningFromRecord(r)
		return nil
	})
	if err != nil {
		return ManningEntry{}, err
	}

	eng.logger().Info("manning: forecast saved",
		"project", projectID, "person", out.PersonName, "week", out.WeekEnding, "hours", out.ForecastHours)
	return out, nil
}

// ListManning returns a project's forecast rows from fromWeek on, ordered by
// week and person.
func ListManning(app core.App, projectID, fromWeek string) ([]ManningEntry, error) {
	filter := "project = {:project}"
	params := dbx.Params{"project": projectID}
	if fromWeek != "" {
		filter += " && week_ending >= {:from}"
		params["from"] = fromWeek
	}
	records, err := app.FindRecordsByFilter("manning_forecast", filter, "week_ending,person_name", 0, 0, params)
	if err != nil {
		return nil, fmt.Errorf("list manning: %w", err)
	}
	out := make([]ManningEntry, 0, len(records))
	for _, r := range records {
		out = append(out, manningFromRecord(r))
	}
	return out, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
