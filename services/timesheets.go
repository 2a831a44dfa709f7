package services

import (
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// TimesheetInput is one imported timesheet row. Position, discipline and
// function fall back to the staff roster and the task name.
type TimesheetInput struct {
	Date          string  `json:"date"`
	StaffName     string  `json:"staff_name"`
	TaskName      string  `json:"task_name"`
	Hours         float64 `json:"hours"`
	Function      string  `json:"function"`
	Discipline    string  `json:"discipline"`
	Position      string  `json:"position"`
	DeliverableID string  `json:"deliverable"`
}

// Validate checks the row in isolation.
func (in TimesheetInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Date, validation.Required, validation.Date(DateLayout)),
		validation.Field(&in.StaffName, validation.Required),
		validation.Field(&in.Hours, validation.Min(0.0)),
		validation.Field(&in.Function, validation.In(stringsToAny(Functions)...)),
	)
}

// BatchResult describes a recorded import batch. Duplicate is set when the
// batch id was already imported and nothing was written.
type BatchResult struct {
	BatchID    string  `json:"batch_id"`
	Duplicate  bool    `json:"duplicate"`
	EntryCount int     `json:"entry_count"`
	TotalHours float64 `json:"total_hours"`
	TotalCost  float64 `json:"total_cost"`
}

// FunctionForTask maps a timesheet task name to a function.
func FunctionForTask(task string) string {
	t := strings.ToUpper(task)
	switch {
	case strings.Contains(t, "PM"), strings.Contains(t, "MANAGEMENT"):
		return FunctionManagement
	case strings.Contains(t, "DF"), strings.Contains(t, "DRAFT"), strings.Contains(t, "3D"):
		return FunctionDrafting
	default:
		return FunctionEngineering
	}
}

// RecordTimesheetBatch imports entries as one batch. The batch id is the
// idempotency key: a second call with the same id writes nothing and reports
// the stored batch. An empty id gets a generated one, echoed in the result.
// Each entry's rate is resolved as of its date and its cost frozen. Any
// failing row aborts the whole batch.
func (eng *Engine) RecordTimesheetBatch(projectID, batchID string, entries []TimesheetInput) (BatchResult, error) {
	if batchID == "" {
		batchID = uuid.NewString()
	}
	for i, in := range entries {
		if err := validationErr(fmt.Sprintf("timesheet row %d", i+1), in.Validate()); err != nil {
			return BatchResult{}, err
		}
	}

	unlock := eng.locks.lock(projectID)
	defer unlock()

	result := BatchResult{BatchID: batchID}
	err := eng.App.RunInTransaction(func(txApp core.App) error {
		if _, err := requireMutableProject(txApp, projectID); err != nil {
			return err
		}

		existing, err := txApp.FindFirstRecordByFilter("timesheet_batches",
			"project = {:project} && batch_id = {:batch}",
			dbx.Params{"project": projectID, "batch": batchID})
		if err == nil {
			result.Duplicate = true
			result.EntryCount = existing.GetInt("entry_count")
			result.TotalHours = existing.GetFloat("total_hours")
			result.TotalCost = existing.GetFloat("total_cost")
			return nil
		}

		roster, err := loadRoster(txApp, entries)
		if err != nil {
			return err
		}
		schedule, err := LoadRateSchedule(txApp)
		if err != nil {
			return err
		}

		rows := make([]TimesheetEntry, 0, len(entries))
		checked := map[string]bool{}
		for i, in := range entries {
			row, err := eng.resolveTimesheetRow(in, roster, schedule)
			if err != nil {
				return fmt.Errorf("timesheet row %d (%s): %w", i+1, in.StaffName, err)
			}
			if id := row.DeliverableID; id != "" && !checked[id] {
				if _, err := findProjectRecord(txApp, "deliverables", id, projectID); err != nil {
					return fmt.Errorf("timesheet row %d: %w", i+1, err)
				}
				checked[id] = true
			}
			rows = append(rows, row)
			result.TotalHours += row.Hours
			result.TotalCost += row.Cost
		}
		result.EntryCount = len(rows)

		batchCol, err := txApp.FindCollectionByNameOrId("timesheet_batches")
		if err != nil {
			return err
		}
		batch := core.NewRecord(batchCol)
		batch.Set("project", projectID)
		batch.Set("batch_id", batchID)
		batch.Set("entry_count", result.EntryCount)
		batch.Set("total_hours", result.TotalHours)
		batch.Set("total_cost", result.TotalCost)
		if err := txApp.Save(batch); err != nil {
			return fmt.Errorf("save batch %s: %w", batchID, err)
		}

		col, err := txApp.FindCollectionByNameOrId("timesheets")
		if err != nil {
			return err
		}
		for _, row := range rows {
			r := core.NewRecord(col)
			r.Set("project", projectID)
			r.Set("batch", batch.Id)
			r.Set("date", row.Date)
			r.Set("week_ending", row.WeekEnding)
			r.Set("staff_name", row.StaffName)
			r.Set("task_name", row.TaskName)
			r.Set("hours", row.Hours)
			r.Set("function", row.Function)
			r.Set("discipline", row.Discipline)
			r.Set("position", row.Position)
			r.Set("rate", row.Rate)
			r.Set("cost", row.Cost)
			r.Set("deliverable", row.DeliverableID)
			if err := txApp.Save(r); err != nil {
				return fmt.Errorf("save timesheet for %s on %s: %w", row.StaffName, row.Date, err)
			}
		}
		return nil
	})
	if err != nil {
		return BatchResult{}, err
	}

	if result.Duplicate {
		eng.logger().Info("timesheets: batch already imported", "project", projectID, "batch", batchID)
	} else {
		eng.logger().Info("timesheets: batch imported",
			"project", projectID, "batch", batchID, "entries", result.EntryCount,
			"hours", result.TotalHours, "cost", result.TotalCost)
	}
	return result, nil
}

func (eng *Engine) resolveTimesheetRow(in TimesheetInput, roster map[string]StaffMember, schedule RateSchedule) (TimesheetEntry, error) {
	day, err := ParseDate(in.Date)
	if err != nil {
		return TimesheetEntry{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	staff := roster[in.StaffName]

	row := TimesheetEntry{
		Date:          in.Date,
		WeekEnding:    FormatDate(WeekEnding(day, eng.Config.WeekEnding())),
		StaffName:     in.StaffName,
		TaskName:      in.TaskName,
		Hours:         in.Hours,
		Function:      in.Function,
		Discipline:    in.Discipline,
		Position:      in.Position,
		DeliverableID: in.DeliverableID,
	}
	if row.Function == "" {
		row.Function = FunctionForTask(in.TaskName)
	}
	if row.Discipline == "" {
		row.Discipline = staff.Discipline
	}
	if row.Position == "" {
		row.Position = staff.Position
	}
	if row.Position == "" {
		return TimesheetEntry{}, fmt.Errorf("no position for %q: %w", in.StaffName, ErrNoRateFound)
	}

	rate, err := schedule.Resolve(row.Position, day)
	if err != nil {
		return TimesheetEntry{}, err
	}
	row.Rate = rate
	row.Cost = row.Hours * rate
	return row, nil
}

// loadRoster reads the staff records named in entries.
func loadRoster(app core.App, entries []TimesheetInput) (map[string]StaffMember, error) {
	names := make([]any, 0, len(entries))
	seen := map[string]bool{}
	for _, e := range entries {
		if !seen[e.StaffName] {
			seen[e.StaffName] = true
			names = append(names, e.StaffName)
		}
	}
	roster := make(map[string]StaffMember, len(names))
	if len(names) == 0 {
		return roster, nil
	}
	records, err := app.FindAllRecords("staff", dbx.In("name", names...))
	if err != nil {
		return nil, fmt.Errorf("load staff: %w", err)
	}
	for _, r := range records {
		roster[r.GetString("name")] = staffFromRecord(r)
	}
	return roster, nil
}

func staffFromRecord(r *core.Record) StaffMember {
	return StaffMember{
		Name:       r.GetString("name"),
		Function:   r.GetString("function"),
		Discipline: r.GetString("discipline"),
		Position:   r.GetString("position"),
		Active:     r.GetBool("active"),
	}
}

// ListTimesheets returns a project's entries, optionally restricted to an
// inclusive date range.
func ListTimesheets(app core.App, projectID, from, to string) ([]TimesheetEntry, error) {
	filter := "project = {:project}"
	params := dbx.Params{"project": projectID}
	if from != "" {
		filter += " && date >= {:from}"
		params["from"] = from
	}
	if to != "" {
		filter += " && date <= {:to}"
		params["to"] = to
	}
	records, err := app.FindRecordsByFilter("timesheets", filter, "date,staff_name", 0, 0, params)
	if err != nil {
		return nil, fmt.Errorf("list timesheets: %w", err)
	}
	out := make([]TimesheetEntry, 0, len(records))
	for _, r := range records {
		out = append(out, timesheetFromRecord(r))
	}
	return out, nil
}
