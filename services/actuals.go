package services

import "sort"

// Scope filters timesheet entries. Empty fields match everything, so the
// zero Scope plus a ProjectID is the whole project.
type Scope struct {
	ProjectID     string
	DeliverableID string
	WeekEnding    string
	Discipline    string
	Function      string
}

func (s Scope) matches(e TimesheetEntry) bool {
	return (s.ProjectID == "" || e.ProjectID == s.ProjectID) &&
		(s.DeliverableID == "" || e.DeliverableID == s.DeliverableID) &&
		(s.WeekEnding == "" || e.WeekEnding == s.WeekEnding) &&
		(s.Discipline == "" || e.Discipline == s.Discipline) &&
		(s.Function == "" || e.Function == s.Function)
}

// ActualHours sums hours of the entries in scope.
func ActualHours(entries []TimesheetEntry, scope Scope) float64 {
	var total float64
	for _, e := range entries {
		if scope.matches(e) {
			total += e.Hours
		}
	}
	return total
}

// ActualCost sums the frozen cost of the entries in scope.
func ActualCost(entries []TimesheetEntry, scope Scope) float64 {
	var total float64
	for _, e := range entries {
		if scope.matches(e) {
			total += e.Cost
		}
	}
	return total
}

// SpendRow is one (week, function, discipline) cell of the weekly spend table.
type SpendRow struct {
	WeekEnding string  `json:"week_ending"`
	Function   string  `json:"function"`
	Discipline string  `json:"discipline"`
	Hours      float64 `json:"hours"`
	Cost       float64 `json:"cost"`
}

// WeeklySpend groups entries with week_ending in [from, to] by week, function
// and discipline. Empty bounds are open.
func WeeklySpend(entries []TimesheetEntry, from, to string) []SpendRow {
	type key struct{ week, fn, disc string }
	cells := make(map[key]*SpendRow)
	for _, e := range entries {
		if (from != "" && e.WeekEnding < from) || (to != "" && e.WeekEnding > to) {
			continue
		}
		k := key{e.WeekEnding, e.Function, e.Discipline}
		row, ok := cells[k]
		if !ok {
			row = &SpendRow{WeekEnding: e.WeekEnding, Function: e.Function, Discipline: e.Discipline}
			cells[k] = row
		}
		row.Hours += e.Hours
		row.Cost += e.Cost
	}

	rows := make([]SpendRow, 0, len(cells))
	for _, r := range cells {
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.WeekEnding != b.WeekEnding {
			return a.WeekEnding < b.WeekEnding
		}
		if a.Function != b.Function {
			return a.Function < b.Function
		}
		return a.Discipline < b.Discipline
	})
	return rows
}

// hoursByDeliverable sums hours per deliverable id in one pass.
func hoursByDeliverable(entries []TimesheetEntry) map[string]float64 {
	out := make(map[string]float64)
	for _, e := range entries {
		if e.DeliverableID != "" {
			out[e.DeliverableID] += e.Hours
		}
	}
	return out
}
