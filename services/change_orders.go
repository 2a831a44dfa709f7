package services

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// ChangeOrderInput creates a change order or replaces a draft's estimates.
type ChangeOrderInput struct {
	Description    string   `json:"description"`
	ChangeType     string   `json:"change_type"`
	ClientBillable bool     `json:"client_billable"`
	HoursMgmt      float64  `json:"hours_mgmt"`
	HoursEng       float64  `json:"hours_eng"`
	HoursDraft     float64  `json:"hours_draft"`
	EstimatedCost  float64  `json:"estimated_cost"`
	FeeRecovery    float64  `json:"fee_recovery"`
	Deliverables   []string `json:"deliverables"`
}

// Validate checks the input in isolation.
func (in ChangeOrderInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Description, validation.Required),
		validation.Field(&in.HoursMgmt, validation.Min(0.0)),
		validation.Field(&in.HoursEng, validation.Min(0.0)),
		validation.Field(&in.HoursDraft, validation.Min(0.0)),
		validation.Field(&in.EstimatedCost, validation.Min(0.0)),
		validation.Field(&in.FeeRecovery, validation.Min(0.0)),
	)
}

// coTransitions lists the statuses reachable by the review flow. Incorporation
// is a separate operation because it posts to the ledger.
var coTransitions = map[string][]string{
	CODraft:     {COSubmitted},
	COSubmitted: {COApproved, CORejected, CODraft},
	CORejected:  {CODraft},
}

// CanTransitionChangeOrder reports whether the review flow allows from -> to.
func CanTransitionChangeOrder(from, to string) bool {
	for _, s := range coTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CreateChangeOrder inserts a draft change order with the next CO number and
// links its deliverables.
func (eng *Engine) CreateChangeOrder(projectID string, in ChangeOrderInput) (ChangeOrder, error) {
	if err := validationErr("create change order", in.Validate()); err != nil {
		return ChangeOrder{}, err
	}
	unlock := eng.locks.lock(projectID)
	defer unlock()

	var out ChangeOrder
	err := eng.App.RunInTransaction(func(txApp core.App) error {
		if _, err := requireMutableProject(txApp, projectID); err != nil {
			return err
		}
		number, err := GenerateCONumber(txApp, projectID)
		if err != nil {
			return err
		}

		col, err := txApp.FindCollectionByNameOrId("change_orders")
		if err != nil {
			return err
		}
		r := core.NewRecord(col)
		r.Set("project", projectID)
		r.Set("co_number", number)
		r.Set("status", CODraft)
		setChangeOrderEstimates(r, in)
		if err := txApp.Save(r); err != nil {
			return fmt.Errorf("save change order: %w", err)
		}
		if err := replaceLinks(txApp, "change_order_deliverables", "change_order", r.Id, projectID, in.Deliverables); err != nil {
			return err
		}

		out = changeOrderFromRecord(r)
		out.Deliverables, err = linkedDeliverables(txApp, "change_order_deliverables", "change_order", r.Id)
		return err
	})
	if err != nil {
		return ChangeOrder{}, err
	}

	eng.logger().Info("change orders: created", "project", projectID, "co", out.Number, "hours", out.TotalHours())
	return out, nil
}

// UpdateChangeOrder replaces a draft change order's estimates and links.
// Once submitted the estimates are fixed.
func (eng *Engine) UpdateChangeOrder(projectID, coID string, in ChangeOrderInput) (ChangeOrder, error) {
	if err := validationErr("update change order", in.Validate()); err != nil {
		return ChangeOrder{}, err
	}
	unlock := eng.locks.lock(projectID)
	defer unlock()

	var out ChangeOrder
	err := eng.App.RunInTransaction(func(txApp core.App) error {
		if _, err := requireMutableProject(txApp, projectID); err != nil {
			return err
		}
		r, err := findProjectRecord(txApp, "change_orders", coID, projectID)
		if err != nil {
			return err
		}
		if status := r.GetString("status"); status != CODraft {
			return fmt.Errorf("change order %s is %s, estimates are fixed: %w",
				r.GetString("co_number"), status, ErrInvalidTransition)
		}
		setChangeOrderEstimates(r, in)
		if err := txApp.Save(r); err != nil {
			return err
		}
		if err := replaceLinks(txApp, "change_order_deliverables", "change_order", r.Id, projectID, in.Deliverables); err != nil {
			return err
		}
		out = changeOrderFromRecord(r)
		out.Deliverables, err = linkedDeliverables(txApp, "change_order_deliverables", "change_order", r.Id)
		return err
	})
	return out, err
}

// COReview carries the fields recorded along a review transition.
type COReview struct {
	Status        string   `json:"status"`
	Date          string   `json:"date"`
	ApprovedBy    string   `json:"approved_by"`
	ApprovedCost  *float64 `json:"approved_cost"`
	ApprovalNotes string   `json:"approval_notes"`
}

// Validate checks the review in isolation.
func (rv COReview) Validate() error {
	return validation.ValidateStruct(&rv,
		validation.Field(&rv.Status, validation.Required, validation.In(CODraft, COSubmitted, COApproved, CORejected)),
		validation.Field(&rv.Date, validation.Date(DateLayout)),
		validation.Field(&rv.ApprovedCost, validation.Min(0.0)),
	)
}

// ReviewChangeOrder moves a change order through draft, submitted, approved
// and rejected. The transition date defaults to today.
func (eng *Engine) ReviewChangeOrder(projectID, coID string, rv COReview) (ChangeOrder, error) {
	if err := validationErr("review change order", rv.Validate()); err != nil {
		return ChangeOrder{}, err
	}
	date := rv.Date
	if date == "" {
		date = FormatDate(time.Now())
	}

	unlock := eng.locks.lock(projectID)
	defer unlock()

	var out ChangeOrder
	err := eng.App.RunInTransaction(func(txApp core.App) error {
		if _, err := requireMutableProject(txApp, projectID); err != nil {
			return err
		}
		r, err := findProjectRecord(txApp, "change_orders", coID, projectID)
		if err != nil {
			return err
		}
		from := r.GetString("status")
		if !CanTransitionChangeOrder(from, rv.Status) {
			return fmt.Errorf("change order %s: %s -> %s: %w",
				r.GetString("co_number"), from, rv.Status, ErrInvalidTransition)
		}

		r.Set("status", rv.Status)
		switch rv.Status {
		case COSubmitted:
			r.Set("submitted_date", date)
		case COApproved, CORejected:
			r.Set("approval_date", date)
			r.Set("approved_by", rv.ApprovedBy)
			r.Set("approval_notes", rv.ApprovalNotes)
			if rv.Status == COApproved {
				cost := r.GetFloat("estimated_cost")
				if rv.ApprovedCost != nil {
					cost = *rv.ApprovedCost
				}
				r.Set("approved_cost", cost)
			}
		}
		if err := txApp.Save(r); err != nil {
			return err
		}
		out = changeOrderFromRecord(r)
		out.Deliverables, err = linkedDeliverables(txApp, "change_order_deliverables", "change_order", r.Id)
		return err
	})
	if err != nil {
		return ChangeOrder{}, err
	}

	eng.logger().Info("change orders: reviewed", "project", projectID, "co", out.Number, "status", out.Status)
	return out, nil
}

// IncorporateChangeOrder folds an approved change order's hours into the
// budget ledger as of date. The change order is immutable afterwards.
func (eng *Engine) IncorporateChangeOrder(projectID, coID, date string) (ChangeOrder, error) {
	if date == "" {
		date = FormatDate(time.Now())
	}
	if _, err := ParseDate(date); err != nil {
		return ChangeOrder{}, fmt.Errorf("incorporate change order: %w: %v", ErrValidation, err)
	}

	unlock := eng.locks.lock(projectID)
	defer unlock()

	var out ChangeOrder
	err := eng.App.RunInTransaction(func(txApp core.App) error {
		if _, err := requireMutableProject(txApp, projectID); err != nil {
			return err
		}
		r, err := findProjectRecord(txApp, "change_orders", coID, projectID)
		if err != nil {
			return err
		}
		if status := r.GetString("status"); status != COApproved {
			return fmt.Errorf("change order %s is %s, only approved change orders can be incorporated: %w",
				r.GetString("co_number"), status, ErrInvalidTransition)
		}
		r.Set("status", COIncorporated)
		r.Set("incorporated_date", date)
		if err := txApp.Save(r); err != nil {
			return err
		}
		out = changeOrderFromRecord(r)
		out.Deliverables, err = linkedDeliverables(txApp, "change_order_deliverables", "change_order", r.Id)
		return err
	})
	if err != nil {
		return ChangeOrder{}, err
	}

	eng.logger().Info("ledger: change order incorporated",
		"project", projectID, "co", out.Number, "hours", out.TotalHours(), "date", date)
	return out, nil
}

// LinkChangeOrderDeliverables replaces the deliverables a change order
// touches. Links are frozen once the change order is incorporated.
func (eng *Engine) LinkChangeOrderDeliverables(projectID, coID string, deliverableIDs []string) error {
	unlock := eng.locks.lock(projectID)
	defer unlock()

	return eng.App.RunInTransaction(func(txApp core.App) error {
		if _, err := requireMutableProject(txApp, projectID); err != nil {
			return err
		}
		r, err := findProjectRecord(txApp, "change_orders", coID, projectID)
		if err != nil {
			return err
		}
		if r.GetString("status") == COIncorporated {
			return fmt.Errorf("change order %s is incorporated: %w", r.GetString("co_number"), ErrInvalidTransition)
		}
		return replaceLinks(txApp, "change_order_deliverables", "change_order", r.Id, projectID, deliverableIDs)
	})
}

// ListChangeOrders returns a project's change orders ordered by number.
func ListChangeOrders(app core.App, projectID string) ([]ChangeOrder, error) {
	records, err := app.FindRecordsByFilter("change_orders", "project = {:project}", "co_number", 0, 0,
		dbx.Params{"project": projectID})
	if err != nil {
		return nil, fmt.Errorf("list change orders: %w", err)
	}
	out := make([]ChangeOrder, 0, len(records))
	for _, r := range records {
		co := changeOrderFromRecord(r)
		if co.Deliverables, err = linkedDeliverables(app, "change_order_deliverables", "change_order", r.Id); err != nil {
			return nil, err
		}
		out = append(out, co)
	}
	return out, nil
}

func setChangeOrderEstimates(r *core.Record, in ChangeOrderInput) {
	r.Set("description", in.Description)
	r.Set("change_type", in.ChangeType)
	r.Set("client_billable", in.ClientBillable)
	r.Set("hours_mgmt", in.HoursMgmt)
	r.Set("hours_eng", in.HoursEng)
	r.Set("hours_draft", in.HoursDraft)
	r.Set("estimated_cost", in.EstimatedCost)
	r.Set("fee_recovery", in.FeeRecovery)
}

// replaceLinks rewrites the join rows of one owner so they match ids. Every
// id must name a deliverable of the same project.
func replaceLinks(txApp core.App, joinCollection, ownerField, ownerID, projectID string, ids []string) error {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || want[id] {
			continue
		}
		if _, err := findProjectRecord(txApp, "deliverables", id, projectID); err != nil {
			return err
		}
		want[id] = true
	}

	existing, err := txApp.FindAllRecords(joinCollection, dbx.HashExp{ownerField: ownerID})
	if err != nil {
		return fmt.Errorf("load %s: %w", joinCollection, err)
	}
	for _, l := range existing {
		id := l.GetString("deliverable")
		if want[id] {
			delete(want, id)
			continue
		}
		if err := txApp.Delete(l); err != nil {
			return fmt.Errorf("unlink %s: %w", id, err)
		}
	}

	col, err := txApp.FindCollectionByNameOrId(joinCollection)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if !want[id] {
			continue
		}
		delete(want, id)
		link := core.NewRecord(col)
		link.Set(ownerField, ownerID)
		link.Set("deliverable", id)
		if err := txApp.Save(link); err != nil {
			return fmt.Errorf("link %s: %w", id, err)
		}
	}
	return nil
}
