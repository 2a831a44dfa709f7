package services

import (
	"fmt"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// LoadProject reads a project record.
func LoadProject(app core.App, projectID string) (Project, error) {
	r, err := app.FindRecordById("projects", projectID)
	if err != nil {
		return Project{}, notFound("project", projectID)
	}
	return projectFromRecord(r), nil
}

// requireMutableProject loads a project and rejects complete/archived ones.
func requireMutableProject(app core.App, projectID string) (Project, error) {
	p, err := LoadProject(app, projectID)
	if err != nil {
		return Project{}, err
	}
	if p.Closed() {
		return Project{}, fmt.Errorf("project %s is %s: %w", p.Code, p.Status, ErrProjectClosed)
	}
	return p, nil
}

// LoadProjectData reads every record the engine computes over for a project.
// Absent optional data loads as empty slices, never as an error.
func LoadProjectData(app core.App, projectID string) (ProjectData, error) {
	project, err := LoadProject(app, projectID)
	if err != nil {
		return ProjectData{}, err
	}
	pd := ProjectData{Project: project}
	byProject := dbx.HashExp{"project": projectID}

	gates, err := LoadGateTable(app, projectID)
	if err != nil {
		return ProjectData{}, err
	}
	pd.Gates = gates

	deliverables, err := app.FindAllRecords("deliverables", byProject)
	if err != nil {
		return ProjectData{}, fmt.Errorf("load deliverables: %w", err)
	}
	for _, r := range deliverables {
		d, err := deliverableFromRecord(r)
		if err != nil {
			return ProjectData{}, err
		}
		pd.Deliverables = append(pd.Deliverables, d)
	}

	cos, err := app.FindAllRecords("change_orders", byProject)
	if err != nil {
		return ProjectData{}, fmt.Errorf("load change orders: %w", err)
	}
	for _, r := range cos {
		co := changeOrderFromRecord(r)
		co.Deliverables, err = linkedDeliverables(app, "change_order_deliverables", "change_order", r.Id)
		if err != nil {
			return ProjectData{}, err
		}
		pd.ChangeOrders = append(pd.ChangeOrders, co)
	}

	transfers, err := app.FindAllRecords("budget_transfers", byProject)
	if err != nil {
		return ProjectData{}, fmt.Errorf("load transfers: %w", err)
	}
	for _, r := range transfers {
		pd.Transfers = append(pd.Transfers, transferFromRecord(r))
	}

	drawdowns, err := app.FindAllRecords("contingency_drawdowns", byProject)
	if err != nil {
		return ProjectData{}, fmt.Errorf("load drawdowns: %w", err)
	}
	for _, r := range drawdowns {
		pd.Drawdowns = append(pd.Drawdowns, drawdownFromRecord(r))
	}

	if pd.Timesheets, err = loadTimesheets(app, projectID); err != nil {
		return ProjectData{}, err
	}

	manning, err := app.FindAllRecords("manning_forecast", byProject)
	if err != nil {
		return ProjectData{}, fmt.Errorf("load manning forecast: %w", err)
	}
	for _, r := range manning {
		pd.Manning = append(pd.Manning, manningFromRecord(r))
	}

	pos, err := app.FindAllRecords("purchase_orders", byProject)
	if err != nil {
		return ProjectData{}, fmt.Errorf("load purchase orders: %w", err)
	}
	for _, r := range pos {
		po := purchaseOrderFromRecord(r)
		po.Deliverables, err = linkedDeliverables(app, "purchase_order_deliverables", "purchase_order", r.Id)
		if err != nil {
			return ProjectData{}, err
		}
		pd.POs = append(pd.POs, po)

		invoices, err := loadInvoices(app, r.Id)
		if err != nil {
			return ProjectData{}, err
		}
		pd.Invoices = append(pd.Invoices, invoices...)
	}

	return pd, nil
}

func loadTimesheets(app core.App, projectID string) ([]TimesheetEntry, error) {
	records, err := app.FindAllRecords("timesheets", dbx.HashExp{"project": projectID})
	if err != nil {
		return nil, fmt.Errorf("load timesheets: %w", err)
	}
	out := make([]TimesheetEntry, 0, len(records))
	for _, r := range records {
		out = append(out, timesheetFromRecord(r))
	}
	return out, nil
}

func loadInvoices(app core.App, poID string) ([]Invoice, error) {
	records, err := app.FindAllRecords("invoices", dbx.HashExp{"purchase_order": poID})
	if err != nil {
		return nil, fmt.Errorf("load invoices: %w", err)
	}
	out := make([]Invoice, 0, len(records))
	for _, r := range records {
		out = append(out, invoiceFromRecord(r))
	}
	return out, nil
}

func linkedDeliverables(app core.App, joinCollection, ownerField, ownerID string) ([]string, error) {
	links, err := app.FindAllRecords(joinCollection, dbx.HashExp{ownerField: ownerID})
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", joinCollection, err)
	}
	ids := make([]string, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.GetString("deliverable"))
	}
	return ids, nil
}

// findProjectRecord loads a project-scoped record and checks its owner, so a
// record id from another project reads as not found.
func findProjectRecord(app core.App, collection, id, projectID string) (*core.Record, error) {
	r, err := app.FindRecordById(collection, id)
	if err != nil || r.GetString("project") != projectID {
		return nil, notFound(collection, id)
	}
	return r, nil
}

// requireDiscipline rejects a discipline code missing from the catalog. An
// empty code means untagged and is allowed.
func requireDiscipline(app core.App, code string) error {
	if code == "" {
		return nil
	}
	if _, err := app.FindFirstRecordByData("disciplines", "code", code); err != nil {
		return fmt.Errorf("discipline %q is not in the catalog: %w", code, ErrValidation)
	}
	return nil
}

// ── record converters ─────────────────────────────────────────────────────

func projectFromRecord(r *core.Record) Project {
	return Project{
		ID:                   r.Id,
		Code:                 r.GetString("project_code"),
		Name:                 r.GetString("name"),
		Client:               r.GetString("client"),
		ProjectType:          r.GetString("project_type"),
		StartDate:            r.GetString("start_date"),
		EndDate:              r.GetString("end_date"),
		ReportDate:           r.GetString("report_date"),
		ContractValue:        r.GetFloat("contract_value"),
		ContingencyPct:       r.GetFloat("contingency_pct"),
		BaselineHours:        r.GetFloat("baseline_hours"),
		ContingencySeedHours: r.GetFloat("contingency_seed_hours"),
		Status:               r.GetString("status"),
	}
}

func deliverableFromRecord(r *core.Record) (Deliverable, error) {
	mode, err := ParseProgress(
		r.GetString("progress_mode"),
		r.GetString("status"),
		r.GetFloat("physical_progress"),
		r.GetFloat("earned_hours"),
	)
	if err != nil {
		return Deliverable{}, fmt.Errorf("deliverable %s: %w", r.Id, err)
	}
	return Deliverable{
		ID:                 r.Id,
		ProjectID:          r.GetString("project"),
		ParentID:           r.GetString("parent"),
		WBSCode:            r.GetString("wbs_code"),
		Name:               r.GetString("name"),
		Discipline:         r.GetString("discipline"),
		Function:           r.GetString("function"),
		BudgetHours:        r.GetFloat("budget_hours"),
		Progress:           mode,
		ForecastToComplete: r.GetFloat("forecast_to_complete"),
	}, nil
}

// setProgressFields writes a mode's flat fields, clearing those the mode does
// not use.
func setProgressFields(r *core.Record, m ProgressMode) {
	flat := FlattenProgress(m)
	r.Set("progress_mode", flat.Mode)
	r.Set("status", flat.Status)
	r.Set("physical_progress", 0)
	r.Set("earned_hours", 0)
	if flat.PhysicalProgress != nil {
		r.Set("physical_progress", *flat.PhysicalProgress)
	}
	if flat.EarnedHours != nil {
		r.Set("earned_hours", *flat.EarnedHours)
	}
}

func changeOrderFromRecord(r *core.Record) ChangeOrder {
	return ChangeOrder{
		ID:             r.Id,
		ProjectID:      r.GetString("project"),
		Number:         r.GetString("co_number"),
		Description:    r.GetString("description"),
		ChangeType:     r.GetString("change_type"),
		ClientBillable: r.GetBool("client_billable"),
		Status:         r.GetString("status"),
		Hours: map[string]float64{
			FunctionManagement:  r.GetFloat("hours_mgmt"),
			FunctionEngineering: r.GetFloat("hours_eng"),
			FunctionDrafting:    r.GetFloat("hours_draft"),
		},
		EstimatedCost:    r.GetFloat("estimated_cost"),
		ApprovedCost:     r.GetFloat("approved_cost"),
		FeeRecovery:      r.GetFloat("fee_recovery"),
		IncorporatedDate: r.GetString("incorporated_date"),
	}
}

func transferFromRecord(r *core.Record) Transfer {
	return Transfer{
		ID:              r.Id,
		ProjectID:       r.GetString("project"),
		Date:            r.GetString("transfer_date"),
		From:            Bucket{Function: r.GetString("from_function"), Discipline: r.GetString("from_discipline")},
		To:              Bucket{Function: r.GetString("to_function"), Discipline: r.GetString("to_discipline")},
		FromDeliverable: r.GetString("from_deliverable"),
		ToDeliverable:   r.GetString("to_deliverable"),
		Hours:           r.GetFloat("hours"),
		Reason:          r.GetString("reason"),
		ApprovedBy:      r.GetString("approved_by"),
	}
}

func drawdownFromRecord(r *core.Record) Drawdown {
	return Drawdown{
		ID:            r.Id,
		ProjectID:     r.GetString("project"),
		Date:          r.GetString("drawdown_date"),
		Hours:         r.GetFloat("hours"),
		Reason:        r.GetString("reason"),
		DeliverableID: r.GetString("deliverable"),
		ApprovedBy:    r.GetString("approved_by"),
	}
}

func timesheetFromRecord(r *core.Record) TimesheetEntry {
	return TimesheetEntry{
		ID:            r.Id,
		ProjectID:     r.GetString("project"),
		BatchID:       r.GetString("batch"),
		Date:          r.GetString("date"),
		WeekEnding:    r.GetString("week_ending"),
		StaffName:     r.GetString("staff_name"),
		TaskName:      r.GetString("task_name"),
		Hours:         r.GetFloat("hours"),
		Function:      r.GetString("function"),
		Discipline:    r.GetString("discipline"),
		Position:      r.GetString("position"),
		Rate:          r.GetFloat("rate"),
		Cost:          r.GetFloat("cost"),
		DeliverableID: r.GetString("deliverable"),
	}
}

func manningFromRecord(r *core.Record) ManningEntry {
	return ManningEntry{
		ID:            r.Id,
		ProjectID:     r.GetString("project"),
		PersonName:    r.GetString("person_name"),
		Position:      r.GetString("position"),
		Discipline:    r.GetString("discipline"),
		Function:      r.GetString("function"),
		WeekEnding:    r.GetString("week_ending"),
		ForecastHours: r.GetFloat("forecast_hours"),
		HourlyRate:    r.GetFloat("hourly_rate"),
		ForecastCost:  r.GetFloat("forecast_cost"),
	}
}

func purchaseOrderFromRecord(r *core.Record) PurchaseOrder {
	return PurchaseOrder{
		ID:              r.Id,
		ProjectID:       r.GetString("project"),
		Number:          r.GetString("po_number"),
		Supplier:        r.GetString("supplier"),
		Description:     r.GetString("description"),
		Category:        r.GetString("category"),
		CommitmentValue: r.GetFloat("commitment_value"),
		AccruedWorkDone: r.GetFloat("accrued_work_done"),
		Status:          r.GetString("status"),
	}
}

func invoiceFromRecord(r *core.Record) Invoice {
	return Invoice{
		ID:            r.Id,
		POID:          r.GetString("purchase_order"),
		Number:        r.GetString("invoice_number"),
		Date:          r.GetString("invoice_date"),
		Amount:        r.GetFloat("amount"),
		PaymentStatus: r.GetString("payment_status"),
	}
}
