package services

import "time"

// Reconciliation compares the two independent forecast-to-complete methods.
// The engine never blends them: both FACs are reported side by side.
type Reconciliation struct {
	AsOf           string  `json:"as_of"`
	ActualHours    float64 `json:"actual_hours"`
	DeliverableFTC float64 `json:"deliverable_ftc"`
	ManningFTC     float64 `json:"manning_ftc"`
	// Variance is DeliverableFTC - ManningFTC. Positive means the deliverable
	// estimates need more hours than the staffing plan provides.
	Variance       float64 `json:"variance"`
	FACDeliverable float64 `json:"fac_deliverable"`
	FACManning     float64 `json:"fac_manning"`
	ManningCost    float64 `json:"manning_cost"`
}

// DeliverableFTC sums forecast_to_complete over every deliverable, leaf and
// non-leaf alike, exactly as entered.
func DeliverableFTC(deliverables []Deliverable) float64 {
	var total float64
	for _, d := range deliverables {
		total += d.ForecastToComplete
	}
	return total
}

// ManningFTC sums forecast hours and cost for weeks strictly after asOf.
func ManningFTC(entries []ManningEntry, asOf time.Time) (hours, cost float64) {
	cut := FormatDate(asOf)
	for _, m := range entries {
		if m.WeekEnding > cut {
			hours += m.ForecastHours
			cost += m.ForecastCost
		}
	}
	return hours, cost
}

// Reconcile computes both forecasts for pd as of asOf. Actuals are the
// timesheet hours dated on or before asOf.
func Reconcile(pd ProjectData, asOf time.Time) Reconciliation {
	cut := FormatDate(asOf)
	var actual float64
	for _, e := range pd.Timesheets {
		if e.Date <= cut {
			actual += e.Hours
		}
	}

	deliverable := DeliverableFTC(pd.Deliverables)
	manning, manningCost := ManningFTC(pd.Manning, asOf)

	return Reconciliation{
		AsOf:           cut,
		ActualHours:    actual,
		DeliverableFTC: deliverable,
		ManningFTC:     manning,
		Variance:       deliverable - manning,
		FACDeliverable: actual + deliverable,
		FACManning:     actual + manning,
		ManningCost:    manningCost,
	}
}
