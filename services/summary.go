package services

import (
	"sort"
	"time"
)

// BreakdownRow is one function's or discipline's figures.
type BreakdownRow struct {
	Key         string  `json:"key"`
	Budget      float64 `json:"budget_hours"`
	Actual      float64 `json:"actual_hours"`
	ActualCost  float64 `json:"actual_cost"`
	Earned      float64 `json:"earned_hours"`
	FTC         float64 `json:"forecast_to_complete"`
	FAC         float64 `json:"forecast_at_completion"`
	Variance    float64 `json:"variance"`
	Performance float64 `json:"performance_factor"`
}

// ContingencySummary is the state of the contingency pool.
type ContingencySummary struct {
	Seed    float64 `json:"seed_hours"`
	Drawn   float64 `json:"drawn_hours"`
	Balance float64 `json:"balance_hours"`
}

// ChangeOrderPipeline counts change orders and their hours by status.
type ChangeOrderPipeline struct {
	Count map[string]int     `json:"count"`
	Hours map[string]float64 `json:"hours"`
	Cost  map[string]float64 `json:"cost"`
}

// ProjectSummary is the project-level report as of a date.
type ProjectSummary struct {
	Project           Project             `json:"project"`
	AsOf              string              `json:"as_of"`
	BudgetHours       float64             `json:"budget_hours"`
	ActualHours       float64             `json:"actual_hours"`
	ActualCost        float64             `json:"actual_cost"`
	EarnedHours       float64             `json:"earned_hours"`
	PercentComplete   float64             `json:"percent_complete"`
	PerformanceFactor float64             `json:"performance_factor"`
	Forecast          Reconciliation      `json:"forecast"`
	ByFunction        []BreakdownRow      `json:"by_function"`
	ByDiscipline      []BreakdownRow      `json:"by_discipline"`
	Contingency       ContingencySummary  `json:"contingency"`
	ChangeOrders      ChangeOrderPipeline `json:"change_orders"`
	Commitments       CommitmentTotals    `json:"commitments"`
}

// PerformanceFactor is budget over forecast-at-completion. Above 1 the work is
// forecast to finish under budget. A zero FAC reports 1.
func PerformanceFactor(budget, fac float64) float64 {
	if fac == 0 {
		return 1
	}
	return budget / fac
}

// ComputeSummary builds the project summary for pd as of asOf. Ledger
// records and actuals dated after asOf are ignored.
func ComputeSummary(pd ProjectData, asOf time.Time, tolerance float64) ProjectSummary {
	cut := pd.AsOf(asOf)
	ledger := BuildLedger(cut)
	rec := Reconcile(cut, asOf)

	s := ProjectSummary{
		Project:     pd.Project,
		AsOf:        FormatDate(asOf),
		BudgetHours: ledger.ProjectBudget(),
		ActualHours: rec.ActualHours,
		ActualCost:  ActualCost(cut.Timesheets, Scope{}),
		Forecast:    rec,
		Contingency: ContingencySummary{
			Seed:    ledger.ContingencySeed(),
			Drawn:   ledger.ContingencyDrawn(),
			Balance: ledger.ContingencyBalance(),
		},
	}

	byFunction := map[string]*BreakdownRow{}
	byDiscipline := map[string]*BreakdownRow{}
	row := func(m map[string]*BreakdownRow, key string) *BreakdownRow {
		r, ok := m[key]
		if !ok {
			r = &BreakdownRow{Key: key}
			m[key] = r
		}
		return r
	}
	for _, fn := range Functions {
		row(byFunction, fn)
	}

	for fn, h := range ledger.FunctionBudgets() {
		row(byFunction, fn).Budget += h
	}
	for disc, h := range ledger.DisciplineBudgets() {
		row(byDiscipline, disc).Budget += h
	}
	for _, d := range cut.Deliverables {
		earned := EarnedHours(d.Progress, ledger.EffectiveBudget(d.ID), cut.Gates)
		s.EarnedHours += earned
		row(byFunction, d.Function).Earned += earned
		row(byFunction, d.Function).FTC += d.ForecastToComplete
		row(byDiscipline, d.Discipline).Earned += earned
		row(byDiscipline, d.Discipline).FTC += d.ForecastToComplete
	}
	for _, e := range cut.Timesheets {
		row(byFunction, e.Function).Actual += e.Hours
		row(byFunction, e.Function).ActualCost += e.Cost
		row(byDiscipline, e.Discipline).Actual += e.Hours
		row(byDiscipline, e.Discipline).ActualCost += e.Cost
	}

	s.ByFunction = finishBreakdown(byFunction, Functions)
	s.ByDiscipline = finishBreakdown(byDiscipline, nil)

	if s.BudgetHours > 0 {
		s.PercentComplete = clampPercent(s.EarnedHours / s.BudgetHours * 100)
	}
	s.PerformanceFactor = PerformanceFactor(s.BudgetHours, rec.FACDeliverable)

	s.ChangeOrders = ChangeOrderPipeline{Count: map[string]int{}, Hours: map[string]float64{}, Cost: map[string]float64{}}
	for _, co := range cut.ChangeOrders {
		s.ChangeOrders.Count[co.Status]++
		s.ChangeOrders.Hours[co.Status] += co.TotalHours()
		cost := co.EstimatedCost
		if co.Status == COApproved || co.Status == COIncorporated {
			cost = co.ApprovedCost
		}
		s.ChangeOrders.Cost[co.Status] += cost
	}

	_, s.Commitments = SumCommitments(cut.POs, cut.Invoices, tolerance)
	return s
}

// finishBreakdown derives FAC, variance and performance per row and orders
// the rows: keys in order first, the rest alphabetically.
func finishBreakdown(rows map[string]*BreakdownRow, order []string) []BreakdownRow {
	rank := make(map[string]int, len(order))
	for i, k := range order {
		rank[k] = i + 1
	}
	out := make([]BreakdownRow, 0, len(rows))
	for _, r := range rows {
		r.FAC = r.Actual + r.FTC
		r.Variance = r.Budget - r.FAC
		r.Performance = PerformanceFactor(r.Budget, r.FAC)
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		ri, rj := rank[out[i].Key], rank[out[j].Key]
		if ri != rj {
			if ri == 0 || rj == 0 {
				return ri != 0
			}
			return ri < rj
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// DeliverableProgress is one row of the progress report.
type DeliverableProgress struct {
	*Node
	Mode   string `json:"mode"`
	Status string `json:"status"`
}

// ProgressReport lists deliverables in WBS order with own and rolled figures.
// Totals are the sums over the root nodes, which equal the project totals.
type ProgressReport struct {
	Rows   []DeliverableProgress `json:"rows"`
	Budget float64               `json:"budget_hours"`
	Earned float64               `json:"earned_hours"`
	FTC    float64               `json:"forecast_to_complete"`
	Actual float64               `json:"actual_hours"`
}

// ComputeProgress builds the rolled-up deliverable tree for pd.
func ComputeProgress(pd ProjectData) (ProgressReport, error) {
	forest, err := BuildForest(pd.Deliverables)
	if err != nil {
		return ProgressReport{}, err
	}
	ledger := BuildLedger(pd)
	actuals := hoursByDeliverable(pd.Timesheets)

	for _, n := range forest.Nodes {
		d := n.Deliverable
		n.OwnBudget = ledger.EffectiveBudget(d.ID)
		n.OwnEarned = EarnedHours(d.Progress, n.OwnBudget, pd.Gates)
		n.OwnFTC = d.ForecastToComplete
		n.OwnActual = actuals[d.ID]
	}
	forest.Rollup()

	report := ProgressReport{Rows: make([]DeliverableProgress, 0, len(forest.Order))}
	for _, id := range forest.Order {
		n := forest.Nodes[id]
		report.Rows = append(report.Rows, DeliverableProgress{
			Node:   n,
			Mode:   FlattenProgress(n.Deliverable.Progress).Mode,
			Status: StatusOf(n.Deliverable.Progress),
		})
	}
	for _, id := range forest.Roots {
		n := forest.Nodes[id]
		report.Budget += n.RolledBudget
		report.Earned += n.RolledEarned
		report.FTC += n.RolledFTC
		report.Actual += n.RolledActual
	}
	return report, nil
}

// GetProjectSummary loads a project and computes its summary as of asOf.
func (eng *Engine) GetProjectSummary(projectID string, asOf time.Time) (ProjectSummary, error) {
	pd, err := LoadProjectData(eng.App, projectID)
	if err != nil {
		return ProjectSummary{}, err
	}
	return ComputeSummary(pd, asOf, eng.Config.Commitments.Tolerance), nil
}

// GetDeliverableProgress loads a project and computes its progress report.
func (eng *Engine) GetDeliverableProgress(projectID string) (ProgressReport, error) {
	pd, err := LoadProjectData(eng.App, projectID)
	if err != nil {
		return ProgressReport{}, err
	}
	return ComputeProgress(pd)
}

// GetWeeklySpend returns the weekly spend table for weeks in [from, to].
func (eng *Engine) GetWeeklySpend(projectID, from, to string) ([]SpendRow, error) {
	if _, err := LoadProject(eng.App, projectID); err != nil {
		return nil, err
	}
	entries, err := loadTimesheets(eng.App, projectID)
	if err != nil {
		return nil, err
	}
	return WeeklySpend(entries, from, to), nil
}

// GetForecastReconciliation loads a project and reconciles its forecasts as
// of asOf.
func (eng *Engine) GetForecastReconciliation(projectID string, asOf time.Time) (Reconciliation, error) {
	pd, err := LoadProjectData(eng.App, projectID)
	if err != nil {
		return Reconciliation{}, err
	}
	return Reconcile(pd, asOf), nil
}
