package services

import "time"

// Functions a deliverable, timesheet or change order hour can belong to.
const (
	FunctionManagement  = "MANAGEMENT"
	FunctionEngineering = "ENGINEERING"
	FunctionDrafting    = "DRAFTING"
)

// Functions lists the function tags in report order.
var Functions = []string{FunctionManagement, FunctionEngineering, FunctionDrafting}

// Project statuses.
const (
	ProjectActive   = "active"
	ProjectOnHold   = "on_hold"
	ProjectComplete = "complete"
	ProjectArchived = "archived"
)

// Project is the root of every project-scoped record.
type Project struct {
	ID                   string  `json:"id"`
	Code                 string  `json:"project_code"`
	Name                 string  `json:"name"`
	Client               string  `json:"client"`
	ProjectType          string  `json:"project_type"`
	StartDate            string  `json:"start_date,omitempty"`
	EndDate              string  `json:"end_date,omitempty"`
	ReportDate           string  `json:"report_date,omitempty"`
	ContractValue        float64 `json:"contract_value"`
	ContingencyPct       float64 `json:"contingency_pct"`
	BaselineHours        float64 `json:"baseline_hours"`
	ContingencySeedHours float64 `json:"contingency_seed_hours"`
	Status               string  `json:"status"`
}

// Closed reports whether the project no longer accepts mutations.
func (p Project) Closed() bool {
	return p.Status == ProjectComplete || p.Status == ProjectArchived
}

// Bucket is a (function, discipline) budget bucket.
type Bucket struct {
	Function   string `json:"function"`
	Discipline string `json:"discipline"`
}

// Deliverable is one node of the project's deliverable tree.
type Deliverable struct {
	ID                 string       `json:"id"`
	ProjectID          string       `json:"project"`
	ParentID           string       `json:"parent,omitempty"`
	WBSCode            string       `json:"wbs_code"`
	Name               string       `json:"name"`
	Discipline         string       `json:"discipline"`
	Function           string       `json:"function"`
	BudgetHours        float64      `json:"budget_hours"`
	Progress           ProgressMode `json:"-"`
	ForecastToComplete float64      `json:"forecast_to_complete"`
}

// Bucket returns the deliverable's (function, discipline) bucket.
func (d Deliverable) Bucket() Bucket {
	return Bucket{Function: d.Function, Discipline: d.Discipline}
}

// Change order statuses.
const (
	CODraft        = "draft"
	COSubmitted    = "submitted"
	COApproved     = "approved"
	CORejected     = "rejected"
	COIncorporated = "incorporated"
)

// ChangeOrder carries estimated hours per function. Only incorporated change
// orders feed the budget ledger.
type ChangeOrder struct {
	ID               string             `json:"id"`
	ProjectID        string             `json:"project"`
	Number           string             `json:"co_number"`
	Description      string             `json:"description"`
	ChangeType       string             `json:"change_type"`
	ClientBillable   bool               `json:"client_billable"`
	Status           string             `json:"status"`
	Hours            map[string]float64 `json:"hours"`
	EstimatedCost    float64            `json:"estimated_cost"`
	ApprovedCost     float64            `json:"approved_cost"`
	FeeRecovery      float64            `json:"fee_recovery"`
	IncorporatedDate string             `json:"incorporated_date,omitempty"`
	Deliverables     []string           `json:"deliverables"`
}

// TotalHours sums the function breakdown.
func (co ChangeOrder) TotalHours() float64 {
	var total float64
	for _, h := range co.Hours {
		total += h
	}
	return total
}

// Transfer moves hours between two buckets or two deliverables.
type Transfer struct {
	ID              string  `json:"id"`
	ProjectID       string  `json:"project"`
	Date            string  `json:"transfer_date"`
	From            Bucket  `json:"from"`
	To              Bucket  `json:"to"`
	FromDeliverable string  `json:"from_deliverable,omitempty"`
	ToDeliverable   string  `json:"to_deliverable,omitempty"`
	Hours           float64 `json:"hours"`
	Reason          string  `json:"reason"`
	ApprovedBy      string  `json:"approved_by,omitempty"`
}

// Drawdown consumes contingency hours, optionally allocating them to a deliverable.
type Drawdown struct {
	ID            string  `json:"id"`
	ProjectID     string  `json:"project"`
	Date          string  `json:"drawdown_date"`
	Hours         float64 `json:"hours"`
	Reason        string  `json:"reason"`
	DeliverableID string  `json:"deliverable,omitempty"`
	ApprovedBy    string  `json:"approved_by,omitempty"`
}

// TimesheetEntry is an immutable actual. Cost is frozen at import.
type TimesheetEntry struct {
	ID            string  `json:"id"`
	ProjectID     string  `json:"project"`
	BatchID       string  `json:"batch_id"`
	Date          string  `json:"date"`
	WeekEnding    string  `json:"week_ending"`
	StaffName     string  `json:"staff_name"`
	TaskName      string  `json:"task_name,omitempty"`
	Hours         float64 `json:"hours"`
	Function      string  `json:"function"`
	Discipline    string  `json:"discipline"`
	Position      string  `json:"position"`
	Rate          float64 `json:"rate"`
	Cost          float64 `json:"cost"`
	DeliverableID string  `json:"deliverable,omitempty"`
}

// ManningEntry is one person's forecast for one week.
type ManningEntry struct {
	ID            string  `json:"id"`
	ProjectID     string  `json:"project"`
	PersonName    string  `json:"person_name"`
	Position      string  `json:"position"`
	Discipline    string  `json:"discipline"`
	Function      string  `json:"function"`
	WeekEnding    string  `json:"week_ending"`
	ForecastHours float64 `json:"forecast_hours"`
	HourlyRate    float64 `json:"hourly_rate"`
	ForecastCost  float64 `json:"forecast_cost"`
}

// Purchase order statuses.
const (
	POIssued            = "issued"
	POPartiallyInvoiced = "partially_invoiced"
	POFullyInvoiced     = "fully_invoiced"
	POClosed            = "closed"
)

// PurchaseOrder is a supplier commitment.
type PurchaseOrder struct {
	ID              string   `json:"id"`
	ProjectID       string   `json:"project"`
	Number          string   `json:"po_number"`
	Supplier        string   `json:"supplier"`
	Description     string   `json:"description"`
	Category        string   `json:"category"`
	CommitmentValue float64  `json:"commitment_value"`
	AccruedWorkDone float64  `json:"accrued_work_done"`
	Status          string   `json:"status"`
	Deliverables    []string `json:"deliverables"`
}

// Invoice payment statuses, in order.
const (
	InvoiceReceived    = "received"
	InvoiceUnderReview = "under_review"
	InvoiceApproved    = "approved"
	InvoicePaid        = "paid"
)

// Invoice belongs to exactly one purchase order.
type Invoice struct {
	ID            string  `json:"id"`
	POID          string  `json:"purchase_order"`
	Number        string  `json:"invoice_number"`
	Date          string  `json:"invoice_date"`
	Amount        float64 `json:"amount"`
	PaymentStatus string  `json:"payment_status"`
}

// StaffMember is a roster entry.
type StaffMember struct {
	Name       string `json:"name"`
	Function   string `json:"function"`
	Discipline string `json:"discipline"`
	Position   string `json:"position"`
	Active     bool   `json:"active"`
}

// ProjectData is everything the engine reads to compute a project's figures.
// Every computation in this package is a pure function of a ProjectData value.
type ProjectData struct {
	Project      Project
	Deliverables []Deliverable
	Gates        GateTable
	ChangeOrders []ChangeOrder
	Transfers    []Transfer
	Drawdowns    []Drawdown
	Timesheets   []TimesheetEntry
	Manning      []ManningEntry
	POs          []PurchaseOrder
	Invoices     []Invoice
}

// AsOf returns a copy restricted to ledger records, actuals and invoices
// dated on or before asOf. Deliverable state and forecasts are current-state data and are
// kept as is.
func (pd ProjectData) AsOf(asOf time.Time) ProjectData {
	cut := FormatDate(asOf)
	out := pd

	out.Transfers = nil
	for _, t := range pd.Transfers {
		if t.Date <= cut {
			out.Transfers = append(out.Transfers, t)
		}
	}
	out.Drawdowns = nil
	for _, d := range pd.Drawdowns {
		if d.Date <= cut {
			out.Drawdowns = append(out.Drawdowns, d)
		}
	}
	out.ChangeOrders = nil
	for _, co := range pd.ChangeOrders {
		if co.Status == COIncorporated && co.IncorporatedDate > cut {
			co.Status = COApproved
		}
		out.ChangeOrders = append(out.ChangeOrders, co)
	}
	out.Timesheets = nil
	for _, e := range pd.Timesheets {
		if e.Date <= cut {
			out.Timesheets = append(out.Timesheets, e)
		}
	}
	out.Invoices = nil
	for _, inv := range pd.Invoices {
		if inv.Date <= cut {
			out.Invoices = append(out.Invoices, inv)
		}
	}
	return out
}
