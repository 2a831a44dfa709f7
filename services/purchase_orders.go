package services

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// POInput creates a purchase order.
type POInput struct {
	Number                 string   `json:"po_number"`
	Supplier               string   `json:"supplier"`
	Description            string   `json:"description"`
	Category               string   `json:"category"`
	CommitmentValue        float64  `json:"commitment_value"`
	IssueDate              string   `json:"issue_date"`
	ExpectedCompletionDate string   `json:"expected_completion_date"`
	Notes                  string   `json:"notes"`
	Deliverables           []string `json:"deliverables"`
}

// Validate checks the input in isolation.
func (in POInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Number, validation.Required),
		validation.Field(&in.Supplier, validation.Required),
		validation.Field(&in.CommitmentValue, validation.Min(0.0)),
		validation.Field(&in.IssueDate, validation.Date(DateLayout)),
		validation.Field(&in.ExpectedCompletionDate, validation.Date(DateLayout)),
	)
}

// InvoiceInput records a supplier invoice against a purchase order.
type InvoiceInput struct {
	Number           string  `json:"invoice_number"`
	Date             string  `json:"invoice_date"`
	Amount           float64 `json:"amount"`
	DueDate          string  `json:"due_date"`
	PaymentReference string  `json:"payment_reference"`
	Notes            string  `json:"notes"`
}

// Validate checks the input in isolation.
func (in InvoiceInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Number, validation.Required),
		validation.Field(&in.Date, validation.Required, validation.Date(DateLayout)),
		validation.Field(&in.Amount, validation.Min(0.0)),
		validation.Field(&in.DueDate, validation.Date(DateLayout)),
	)
}

// CreatePO inserts an issued purchase order and links its deliverables.
func (eng *Engine) CreatePO(projectID string, in POInput) (CommitmentFigures, error) {
	if err := validationErr("create purchase order", in.Validate()); err != nil {
		return CommitmentFigures{}, err
	}
	unlock := eng.locks.lock(projectID)
	defer unlock()

	var out CommitmentFigures
	err := eng.App.RunInTransaction(func(txApp core.App) error {
		if _, err := requireMutableProject(txApp, projectID); err != nil {
			return err
		}
		col, err := txApp.FindCollectionByNameOrId("purchase_orders")
		if err != nil {
			return err
		}
		r := core.NewRecord(col)
		r.Set("project", projectID)
		r.Set("po_number", in.Number)
		r.Set("supplier", in.Supplier)
		r.Set("description", in.Description)
		r.Set("category", in.Category)
		r.Set("commitment_value", in.CommitmentValue)
		r.Set("issue_date", in.IssueDate)
		r.Set("expected_completion_date", in.ExpectedCompletionDate)
		r.Set("notes", in.Notes)
		r.Set("status", POIssued)
		if err := txApp.Save(r); err != nil {
			return fmt.Errorf("create purchase order %s: %w: %v", in.Number, ErrValidation, err)
		}
		if err := replaceLinks(txApp, "purchase_order_deliverables", "purchase_order", r.Id, projectID, in.Deliverables); err != nil {
			return err
		}
		out, err = eng.refreshPO(txApp, r)
		return err
	})
	if err != nil {
		return CommitmentFigures{}, err
	}

	eng.logger().Info("commitments: purchase order issued",
		"project", projectID, "po", in.Number, "commitment", in.CommitmentValue)
	return out, nil
}

// RecordInvoice adds a received invoice to an open purchase order and
// refreshes the PO's figures.
func (eng *Engine) RecordInvoice(projectID, poID string, in InvoiceInput) (Invoice, CommitmentFigures, error) {
	if err := validationErr("record invoice", in.Validate()); err != nil {
		return Invoice{}, CommitmentFigures{}, err
	}
	unlock := eng.locks.lock(projectID)
	defer unlock()

	var inv Invoice
	var figures CommitmentFigures
	err := eng.App.RunInTransaction(func(txApp core.App) error {
		if _, err := requireMutableProject(txApp, projectID); err != nil {
			return err
		}
		po, err := findProjectRecord(txApp, "purchase_orders", poID, projectID)
		if err != nil {
			return err
		}
		if po.GetString("status") == POClosed {
			return fmt.Errorf("purchase order %s is closed: %w", po.GetString("po_number"), ErrInvalidTransition)
		}

		col, err := txApp.FindCollectionByNameOrId("invoices")
		if err != nil {
			return err
		}
		r := core.NewRecord(col)
		r.Set("purchase_order", po.Id)
		r.Set("invoice_number", in.Number)
		r.Set("invoice_date", in.Date)
		r.Set("amount", in.Amount)
		r.Set("payment_status", InvoiceReceived)
		r.Set("due_date", in.DueDate)
		r.Set("payment_reference", in.PaymentReference)
		r.Set("notes", in.Notes)
		if err := txApp.Save(r); err != nil {
			return fmt.Errorf("save invoice %s: %w", in.Number, err)
		}
		inv = invoiceFromRecord(r)
		figures, err = eng.refreshPO(txApp, po)
		return err
	})
	if err != nil {
		return Invoice{}, CommitmentFigures{}, err
	}
	eng.logCommitment(projectID, "commitments: invoice recorded", figures)
	return inv, figures, nil
}

// AdvanceInvoice moves an invoice one step along
// received -> under_review -> approved -> paid.
func (eng *Engine) AdvanceInvoice(projectID, invoiceID, paymentReference string) (Invoice, CommitmentFigures, error) {
	unlock := eng.locks.lock(projectID)
	defer unlock()

	var inv Invoice
	var figures CommitmentFigures
	err := eng.App.RunInTransaction(func(txApp core.App) error {
		if _, err := requireMutableProject(txApp, projectID); err != nil {
			return err
		}
		r, err := txApp.FindRecordById("invoices", invoiceID)
		if err != nil {
			return notFound("invoice", invoiceID)
		}
		po, err := findProjectRecord(txApp, "purchase_orders", r.GetString("purchase_order"), projectID)
		if err != nil {
			return notFound("invoice", invoiceID)
		}

		next, err := NextInvoiceStatus(r.GetString("payment_status"))
		if err != nil {
			return err
		}
		r.Set("payment_status", next)
		if next == InvoicePaid {
			r.Set("paid_date", FormatDate(time.Now()))
			if paymentReference != "" {
				r.Set("payment_reference", paymentReference)
			}
		}
		if err := txApp.Save(r); err != nil {
			return err
		}
		inv = invoiceFromRecord(r)
		figures, err = eng.refreshPO(txApp, po)
		return err
	})
	if err != nil {
		return Invoice{}, CommitmentFigures{}, err
	}
	eng.logCommitment(projectID, "commitments: invoice advanced", figures)
	return inv, figures, nil
}

// UpdateAccrual sets the value of work done but not yet invoiced.
func (eng *Engine) UpdateAccrual(projectID, poID string, accrued float64) (CommitmentFigures, error) {
	if accrued < 0 {
		return CommitmentFigures{}, fmt.Errorf("accrued work done %.2f: %w", accrued, ErrValidation)
	}
	return eng.mutatePO(projectID, poID, "commitments: accrual updated", func(po *core.Record) error {
		if po.GetString("status") == POClosed {
			return fmt.Errorf("purchase order %s is closed: %w", po.GetString("po_number"), ErrInvalidTransition)
		}
		po.Set("accrued_work_done", accrued)
		return nil
	})
}

// ClosePO closes a purchase order. Closing is explicit and final.
func (eng *Engine) ClosePO(projectID, poID, date string) (CommitmentFigures, error) {
	if date == "" {
		date = FormatDate(time.Now())
	}
	if _, err := ParseDate(date); err != nil {
		return CommitmentFigures{}, fmt.Errorf("close purchase order: %w: %v", ErrValidation, err)
	}
	return eng.mutatePO(projectID, poID, "commitments: purchase order closed", func(po *core.Record) error {
		if po.GetString("status") == POClosed {
			return fmt.Errorf("purchase order %s is already closed: %w", po.GetString("po_number"), ErrInvalidTransition)
		}
		po.Set("status", POClosed)
		po.Set("close_date", date)
		return nil
	})
}

// LinkPODeliverables replaces the deliverables a purchase order supports.
func (eng *Engine) LinkPODeliverables(projectID, poID string, deliverableIDs []string) error {
	unlock := eng.locks.lock(projectID)
	defer unlock()

	return eng.App.RunInTransaction(func(txApp core.App) error {
		if _, err := requireMutableProject(txApp, projectID); err != nil {
			return err
		}
		po, err := findProjectRecord(txApp, "purchase_orders", poID, projectID)
		if err != nil {
			return err
		}
		return replaceLinks(txApp, "purchase_order_deliverables", "purchase_order", po.Id, projectID, deliverableIDs)
	})
}

// ListPurchaseOrders returns a project's purchase orders with figures
// computed from their current invoices, plus the project totals.
func ListPurchaseOrders(app core.App, projectID string, tolerance float64) ([]CommitmentFigures, CommitmentTotals, error) {
	records, err := app.FindRecordsByFilter("purchase_orders", "project = {:project}", "po_number", 0, 0,
		dbx.Params{"project": projectID})
	if err != nil {
		return nil, CommitmentTotals{}, fmt.Errorf("list purchase orders: %w", err)
	}
	pos := make([]PurchaseOrder, 0, len(records))
	var invoices []Invoice
	for _, r := range records {
		pos = append(pos, purchaseOrderFromRecord(r))
		inv, err := loadInvoices(app, r.Id)
		if err != nil {
			return nil, CommitmentTotals{}, err
		}
		invoices = append(invoices, inv...)
	}
	figures, totals := SumCommitments(pos, invoices, tolerance)
	return figures, totals, nil
}

func (eng *Engine) mutatePO(projectID, poID, msg string, mutate func(po *core.Record) error) (CommitmentFigures, error) {
	unlock := eng.locks.lock(projectID)
	defer unlock()

	var figures CommitmentFigures
	err := eng.App.RunInTransaction(func(txApp core.App) error {
		if _, err := requireMutableProject(txApp, projectID); err != nil {
			return err
		}
		po, err := findProjectRecord(txApp, "purchase_orders", poID, projectID)
		if err != nil {
			return err
		}
		if err := mutate(po); err != nil {
			return err
		}
		figures, err = eng.refreshPO(txApp, po)
		return err
	})
	if err != nil {
		return CommitmentFigures{}, err
	}
	eng.logCommitment(projectID, msg, figures)
	return figures, nil
}

// refreshPO recomputes a PO's derived figures from its invoices and stores
// them on the record.
func (eng *Engine) refreshPO(txApp core.App, po *core.Record) (CommitmentFigures, error) {
	invoices, err := loadInvoices(txApp, po.Id)
	if err != nil {
		return CommitmentFigures{}, err
	}
	f := ComputeCommitment(purchaseOrderFromRecord(po), invoices, eng.Config.Commitments.Tolerance)
	po.Set("invoiced_to_date", f.Invoiced)
	po.Set("pending_invoices", f.Pending)
	po.Set("remaining_commitment", f.Remaining)
	po.Set("status", f.Status)
	po.Set("warning", strings.Join(f.Warnings, "; "))
	if err := txApp.Save(po); err != nil {
		return CommitmentFigures{}, fmt.Errorf("save purchase order %s: %w", po.GetString("po_number"), err)
	}
	return f, nil
}

func (eng *Engine) logCommitment(projectID, msg string, f CommitmentFigures) {
	attrs := []any{"project", projectID, "po", f.POID, "status", f.Status,
		"invoiced", f.Invoiced, "pending", f.Pending, "remaining", f.Remaining}
	if len(f.Warnings) > 0 {
		eng.logger().Warn(msg, append(attrs, "warnings", f.Warnings)...)
		return
	}
	eng.logger().Info(msg, attrs...)
}
