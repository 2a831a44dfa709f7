package collections

import (
	"fmt"
	"log"

	"github.com/pocketbase/pocketbase/core"
)

var functionValues = []string{"MANAGEMENT", "ENGINEERING", "DRAFTING"}

// Setup programmatically creates/ensures every project-controls collection
// exists. Safe to call on every startup.
func Setup(app core.App) {
	projects := ensureCollection(app, "projects", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "project_code", Required: true})
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.TextField{Name: "client"})
		c.Fields.Add(&core.TextField{Name: "project_type"})
		c.Fields.Add(&core.TextField{Name: "start_date"})
		c.Fields.Add(&core.TextField{Name: "end_date"})
		c.Fields.Add(&core.TextField{Name: "report_date"})
		c.Fields.Add(&core.NumberField{Name: "contract_value"})
		c.Fields.Add(&core.NumberField{Name: "contingency_pct"})
		c.Fields.Add(&core.NumberField{Name: "baseline_hours"})
		c.Fields.Add(&core.NumberField{Name: "contingency_seed_hours"})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  true,
			Values:    []string{"active", "on_hold", "complete", "archived"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.TextField{Name: "notes", Max: 20000})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_projects_code", true, "project_code", "")
	})

	ensureCollection(app, "disciplines", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "code", Required: true})
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.SelectField{Name: "function", Required: true, Values: functionValues, MaxSelect: 1})
		c.Fields.Add(&core.BoolField{Name: "active"})
		c.AddIndex("idx_disciplines_code", true, "code", "")
	})

	ensureCollection(app, "staff", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.SelectField{Name: "function", Required: true, Values: functionValues, MaxSelect: 1})
		c.Fields.Add(&core.TextField{Name: "discipline"})
		c.Fields.Add(&core.TextField{Name: "position", Required: true})
		c.Fields.Add(&core.BoolField{Name: "active"})
		c.Fields.Add(&core.TextField{Name: "start_date"})
		c.Fields.Add(&core.TextField{Name: "end_date"})
		c.AddIndex("idx_staff_name", true, "name", "")
	})

	ensureCollection(app, "rate_schedule", func(c *core.Collection) {
		c.Fields.Add(&core.TextField{Name: "position", Required: true})
		c.Fields.Add(&core.NumberField{Name: "rate"})
		c.Fields.Add(&core.TextField{Name: "effective_date", Required: true})
		c.Fields.Add(&core.TextField{Name: "end_date"})
		c.AddIndex("idx_rate_schedule_position_effective", true, "position, effective_date", "")
	})

	ensureCollection(app, "progress_gates", func(c *core.Collection) {
		c.Fields.Add(projectRelation(projects, false))
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.TextField{Name: "label"})
		c.Fields.Add(&core.NumberField{Name: "default_percent"})
		c.Fields.Add(&core.NumberField{Name: "sort_order", OnlyInt: true})
		c.AddIndex("idx_progress_gates_project_name", true, "project, name", "")
	})

	deliverables := ensureCollection(app, "deliverables", func(c *core.Collection) {
		c.Fields.Add(projectRelation(projects, true))
		c.Fields.Add(&core.TextField{Name: "wbs_code"})
		c.Fields.Add(&core.TextField{Name: "name", Required: true})
		c.Fields.Add(&core.TextField{Name: "discipline"})
		c.Fields.Add(&core.SelectField{Name: "function", Required: true, Values: functionValues, MaxSelect: 1})
		c.Fields.Add(&core.NumberField{Name: "budget_hours"})
		c.Fields.Add(&core.TextField{Name: "status"})
		c.Fields.Add(&core.SelectField{
			Name:      "progress_mode",
			Required:  true,
			Values:    []string{"gated", "measured", "manual"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.NumberField{Name: "physical_progress"})
		c.Fields.Add(&core.NumberField{Name: "earned_hours"})
		c.Fields.Add(&core.NumberField{Name: "forecast_to_complete"})
		c.Fields.Add(&core.TextField{Name: "planned_start"})
		c.Fields.Add(&core.TextField{Name: "planned_complete"})
		c.Fields.Add(&core.TextField{Name: "actual_start"})
		c.Fields.Add(&core.TextField{Name: "actual_complete"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})
	ensureSelfRelation(app, deliverables, "parent")

	changeOrders := ensureCollection(app, "change_orders", func(c *core.Collection) {
		c.Fields.Add(projectRelation(projects, true))
		c.Fields.Add(&core.TextField{Name: "co_number", Required: true})
		c.Fields.Add(&core.TextField{Name: "description", Required: true})
		c.Fields.Add(&core.TextField{Name: "change_type"})
		c.Fields.Add(&core.BoolField{Name: "client_billable"})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  true,
			Values:    []string{"draft", "submitted", "approved", "rejected", "incorporated"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.NumberField{Name: "hours_mgmt"})
		c.Fields.Add(&core.NumberField{Name: "hours_eng"})
		c.Fields.Add(&core.NumberField{Name: "hours_draft"})
		c.Fields.Add(&core.NumberField{Name: "estimated_cost"})
		c.Fields.Add(&core.NumberField{Name: "approved_cost"})
		c.Fields.Add(&core.NumberField{Name: "fee_recovery"})
		c.Fields.Add(&core.TextField{Name: "submitted_date"})
		c.Fields.Add(&core.TextField{Name: "approval_date"})
		c.Fields.Add(&core.TextField{Name: "incorporated_date"})
		c.Fields.Add(&core.TextField{Name: "approved_by"})
		c.Fields.Add(&core.TextField{Name: "approval_notes"})
		// Legacy serialized list, drained into change_order_deliverables at startup.
		c.Fields.Add(&core.TextField{Name: "linked_deliverables"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_change_orders_project_number", true, "project, co_number", "")
	})

	ensureCollection(app, "change_order_deliverables", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "change_order",
			Required:      true,
			CollectionId:  changeOrders.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(deliverableRelation(deliverables, true))
		c.AddIndex("idx_co_deliverables_pair", true, "change_order, deliverable", "")
	})

	ensureCollection(app, "budget_transfers", func(c *core.Collection) {
		c.Fields.Add(projectRelation(projects, true))
		c.Fields.Add(&core.TextField{Name: "transfer_date", Required: true})
		c.Fields.Add(&core.TextField{Name: "from_function"})
		c.Fields.Add(&core.TextField{Name: "from_discipline"})
		c.Fields.Add(&core.TextField{Name: "to_function"})
		c.Fields.Add(&core.TextField{Name: "to_discipline"})
		c.Fields.Add(&core.RelationField{Name: "from_deliverable", CollectionId: deliverables.Id, MaxSelect: 1})
		c.Fields.Add(&core.RelationField{Name: "to_deliverable", CollectionId: deliverables.Id, MaxSelect: 1})
		c.Fields.Add(&core.NumberField{Name: "hours"})
		c.Fields.Add(&core.TextField{Name: "reason", Required: true})
		c.Fields.Add(&core.TextField{Name: "approved_by"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
	})

	ensureCollection(app, "contingency_drawdowns", func(c *core.Collection) {
		c.Fields.Add(projectRelation(projects, true))
		c.Fields.Add(&core.TextField{Name: "drawdown_date", Required: true})
		c.Fields.Add(&core.NumberField{Name: "hours"})
		c.Fields.Add(&core.TextField{Name: "reason", Required: true})
		c.Fields.Add(deliverableRelation(deliverables, false))
		c.Fields.Add(&core.TextField{Name: "approved_by"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
	})

	batches := ensureCollection(app, "timesheet_batches", func(c *core.Collection) {
		c.Fields.Add(projectRelation(projects, true))
		c.Fields.Add(&core.TextField{Name: "batch_id", Required: true})
		c.Fields.Add(&core.NumberField{Name: "entry_count", OnlyInt: true})
		c.Fields.Add(&core.NumberField{Name: "total_hours"})
		c.Fields.Add(&core.NumberField{Name: "total_cost"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.AddIndex("idx_timesheet_batches_project_batch", true, "project, batch_id", "")
	})

	ensureCollection(app, "timesheets", func(c *core.Collection) {
		c.Fields.Add(projectRelation(projects, true))
		c.Fields.Add(&core.RelationField{
			Name:          "batch",
			CollectionId:  batches.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "date", Required: true})
		c.Fields.Add(&core.TextField{Name: "week_ending", Required: true})
		c.Fields.Add(&core.TextField{Name: "staff_name", Required: true})
		c.Fields.Add(&core.TextField{Name: "task_name"})
		c.Fields.Add(&core.NumberField{Name: "hours"})
		c.Fields.Add(&core.TextField{Name: "function", Required: true})
		c.Fields.Add(&core.TextField{Name: "discipline"})
		c.Fields.Add(&core.TextField{Name: "position"})
		c.Fields.Add(&core.NumberField{Name: "rate"})
		c.Fields.Add(&core.NumberField{Name: "cost"})
		c.Fields.Add(deliverableRelation(deliverables, false))
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.AddIndex("idx_timesheets_project_week", false, "project, week_ending", "")
	})

	ensureCollection(app, "manning_forecast", func(c *core.Collection) {
		c.Fields.Add(projectRelation(projects, true))
		c.Fields.Add(&core.TextField{Name: "person_name", Required: true})
		c.Fields.Add(&core.TextField{Name: "position"})
		c.Fields.Add(&core.TextField{Name: "discipline"})
		c.Fields.Add(&core.TextField{Name: "function"})
		c.Fields.Add(&core.TextField{Name: "week_ending", Required: true})
		c.Fields.Add(&core.NumberField{Name: "forecast_hours"})
		c.Fields.Add(&core.NumberField{Name: "hourly_rate"})
		c.Fields.Add(&core.NumberField{Name: "forecast_cost"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_manning_project_person_week", true, "project, person_name, week_ending", "")
	})

	purchaseOrders := ensureCollection(app, "purchase_orders", func(c *core.Collection) {
		c.Fields.Add(projectRelation(projects, true))
		c.Fields.Add(&core.TextField{Name: "po_number", Required: true})
		c.Fields.Add(&core.TextField{Name: "supplier", Required: true})
		c.Fields.Add(&core.TextField{Name: "description"})
		c.Fields.Add(&core.TextField{Name: "category"})
		c.Fields.Add(&core.NumberField{Name: "commitment_value"})
		c.Fields.Add(&core.NumberField{Name: "invoiced_to_date"})
		c.Fields.Add(&core.NumberField{Name: "pending_invoices"})
		c.Fields.Add(&core.NumberField{Name: "accrued_work_done"})
		c.Fields.Add(&core.NumberField{Name: "remaining_commitment"})
		c.Fields.Add(&core.SelectField{
			Name:      "status",
			Required:  true,
			Values:    []string{"issued", "partially_invoiced", "fully_invoiced", "closed"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.TextField{Name: "warning"})
		c.Fields.Add(&core.TextField{Name: "issue_date"})
		c.Fields.Add(&core.TextField{Name: "expected_completion_date"})
		c.Fields.Add(&core.TextField{Name: "close_date"})
		c.Fields.Add(&core.TextField{Name: "linked_deliverables"})
		c.Fields.Add(&core.TextField{Name: "notes"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_purchase_orders_project_number", true, "project, po_number", "")
	})

	ensureCollection(app, "purchase_order_deliverables", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "purchase_order",
			Required:      true,
			CollectionId:  purchaseOrders.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(deliverableRelation(deliverables, true))
		c.AddIndex("idx_po_deliverables_pair", true, "purchase_order, deliverable", "")
	})

	ensureCollection(app, "invoices", func(c *core.Collection) {
		c.Fields.Add(&core.RelationField{
			Name:          "purchase_order",
			Required:      true,
			CollectionId:  purchaseOrders.Id,
			CascadeDelete: true,
			MaxSelect:     1,
		})
		c.Fields.Add(&core.TextField{Name: "invoice_number", Required: true})
		c.Fields.Add(&core.TextField{Name: "invoice_date", Required: true})
		c.Fields.Add(&core.NumberField{Name: "amount"})
		c.Fields.Add(&core.SelectField{
			Name:      "payment_status",
			Required:  true,
			Values:    []string{"received", "under_review", "approved", "paid"},
			MaxSelect: 1,
		})
		c.Fields.Add(&core.TextField{Name: "due_date"})
		c.Fields.Add(&core.TextField{Name: "paid_date"})
		c.Fields.Add(&core.TextField{Name: "payment_reference"})
		c.Fields.Add(&core.TextField{Name: "notes"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
	})

	ensureCollection(app, "weekly_snapshots", func(c *core.Collection) {
		c.Fields.Add(projectRelation(projects, true))
		c.Fields.Add(&core.TextField{Name: "week_ending", Required: true})
		c.Fields.Add(&core.TextField{Name: "snapshot_date", Required: true})
		c.Fields.Add(&core.NumberField{Name: "budget_hours"})
		c.Fields.Add(&core.NumberField{Name: "actual_hours"})
		c.Fields.Add(&core.NumberField{Name: "actual_cost"})
		c.Fields.Add(&core.NumberField{Name: "earned_hours"})
		c.Fields.Add(&core.NumberField{Name: "deliverable_ftc"})
		c.Fields.Add(&core.NumberField{Name: "manning_ftc"})
		c.Fields.Add(&core.NumberField{Name: "fac_deliverable"})
		c.Fields.Add(&core.NumberField{Name: "fac_manning"})
		c.Fields.Add(&core.NumberField{Name: "variance"})
		c.Fields.Add(&core.NumberField{Name: "contingency_balance"})
		c.Fields.Add(&core.JSONField{Name: "state", MaxSize: 5 << 20})
		c.Fields.Add(&core.TextField{Name: "created_by"})
		c.Fields.Add(&core.TextField{Name: "notes"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.AddIndex("idx_weekly_snapshots_project_week", true, "project, week_ending", "")
	})

	ensureCollection(app, "weekly_commentary", func(c *core.Collection) {
		c.Fields.Add(projectRelation(projects, true))
		c.Fields.Add(&core.TextField{Name: "week_ending", Required: true})
		c.Fields.Add(&core.TextField{Name: "key_activities", Max: 20000})
		c.Fields.Add(&core.TextField{Name: "next_period_activities", Max: 20000})
		c.Fields.Add(&core.TextField{Name: "issues_risks", Max: 20000})
		c.Fields.Add(&core.TextField{Name: "general_notes", Max: 20000})
		c.Fields.Add(&core.TextField{Name: "schedule_variance_notes", Max: 20000})
		c.Fields.Add(&core.TextField{Name: "cost_variance_notes", Max: 20000})
		c.Fields.Add(&core.TextField{Name: "forecast_change_notes", Max: 20000})
		c.Fields.Add(&core.TextField{Name: "created_by"})
		c.Fields.Add(&core.AutodateField{Name: "created", OnCreate: true})
		c.Fields.Add(&core.AutodateField{Name: "updated", OnCreate: true, OnUpdate: true})
		c.AddIndex("idx_weekly_commentary_project_week", true, "project, week_ending", "")
	})
}

func projectRelation(projects *core.Collection, required bool) *core.RelationField {
	return &core.RelationField{
		Name:          "project",
		Required:      required,
		CollectionId:  projects.Id,
		CascadeDelete: true,
		MaxSelect:     1,
	}
}

func deliverableRelation(deliverables *core.Collection, required bool) *core.RelationField {
	return &core.RelationField{
		Name:          "deliverable",
		Required:      required,
		CollectionId:  deliverables.Id,
		CascadeDelete: required,
		MaxSelect:     1,
	}
}

// ensureSelfRelation adds a relation field pointing back at the collection
// itself. It needs the collection id, so it can only run after the first save.
func ensureSelfRelation(app core.App, c *core.Collection, name string) {
	if c.Fields.GetByName(name) != nil {
		return
	}
	c.Fields.Add(&core.RelationField{Name: name, CollectionId: c.Id, MaxSelect: 1})
	if err := app.Save(c); err != nil {
		log.Fatalf("Failed to add relation %q to %q: %v", name, c.Name, err)
	}
}

// ensureCollection checks if a collection already exists by name. If it does,
// the existing collection is returned. Otherwise a new base collection is
// created, the addFields callback is invoked to populate its fields, and the
// collection is saved.
func ensureCollection(app core.App, name string, addFields func(*core.Collection)) *core.Collection {
	existing, err := app.FindCollectionByNameOrId(name)
	if err == nil && existing != nil {
		log.Printf("Collection %q already exists, skipping creation.\n", name)
		return existing
	}

	collection := core.NewBaseCollection(name)
	addFields(collection)

	if err := app.Save(collection); err != nil {
		log.Fatalf("Failed to create collection %q: %v", name, err)
	}

	fmt.Printf("Created collection %q (id=%s)\n", name, collection.Id)
	return collection
}
