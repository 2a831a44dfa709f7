package collections

import (
	"errors"
	"fmt"

	"github.com/pocketbase/pocketbase/core"
)

var (
	errSnapshotImmutable  = errors.New("weekly snapshots are immutable; record a new snapshot for a later week")
	errTimesheetImmutable = errors.New("timesheet entries are immutable once imported")
	errLedgerImmutable    = errors.New("ledger records are immutable; record a compensating entry instead")
	errCOIncorporated     = errors.New("change order is incorporated and can no longer be modified")
	errBudgetFixed        = errors.New("deliverable budget is fixed at creation; move hours with a budget transfer or contingency drawdown")
)

// RegisterGuards binds record hooks that keep history records append-only.
// Deletes are left alone so project cascade deletes still work, and clearing
// an optional deliverable relation (which PocketBase does when the
// deliverable is deleted) is allowed.
func RegisterGuards(app core.App) {
	app.OnRecordUpdate("weekly_snapshots").BindFunc(func(e *core.RecordEvent) error {
		return errSnapshotImmutable
	})

	app.OnRecordUpdate("timesheets").BindFunc(rejectChanged(errTimesheetImmutable,
		"project", "batch", "date", "week_ending", "staff_name", "task_name",
		"hours", "function", "discipline", "position", "rate", "cost"))

	app.OnRecordUpdate("budget_transfers").BindFunc(rejectChanged(errLedgerImmutable,
		"project", "transfer_date", "from_function", "from_discipline",
		"to_function", "to_discipline", "hours", "reason"))

	app.OnRecordUpdate("contingency_drawdowns").BindFunc(rejectChanged(errLedgerImmutable,
		"project", "drawdown_date", "hours", "reason"))

	app.OnRecordUpdate("deliverables").BindFunc(rejectChanged(errBudgetFixed,
		"project", "budget_hours"))

	app.OnRecordUpdate("change_orders").BindFunc(func(e *core.RecordEvent) error {
		if e.Record.Original().GetString("status") == "incorporated" {
			return errCOIncorporated
		}
		return e.Next()
	})
}

// rejectChanged fails an update that alters any of fields.
func rejectChanged(err error, fields ...string) func(e *core.RecordEvent) error {
	return func(e *core.RecordEvent) error {
		original := e.Record.Original()
		for _, f := range fields {
			if fmt.Sprint(original.Get(f)) != fmt.Sprint(e.Record.Get(f)) {
				return fmt.Errorf("%s: %w", f, err)
			}
		}
		return e.Next()
	}
}
