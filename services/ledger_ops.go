package services

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
)

// TransferInput moves hours from one side to the other. Each side is either a
// deliverable or a (function, discipline) bucket. A single amount is posted to
// both sides, so a transfer is balanced by construction.
type TransferInput struct {
	Date            string  `json:"transfer_date"`
	From            Bucket  `json:"from"`
	To              Bucket  `json:"to"`
	FromDeliverable string  `json:"from_deliverable"`
	ToDeliverable   string  `json:"to_deliverable"`
	Hours           float64 `json:"hours"`
	Reason          string  `json:"reason"`
	ApprovedBy      string  `json:"approved_by"`
}

// Validate checks the input in isolation.
func (in TransferInput) Validate() error {
	err := validation.ValidateStruct(&in,
		validation.Field(&in.Date, validation.Required, validation.Date(DateLayout)),
		validation.Field(&in.Hours, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&in.Reason, validation.Required),
	)
	if err != nil {
		return err
	}
	functions := validation.In(stringsToAny(Functions)...)
	if err := validation.Validate(in.From.Function, functions); err != nil {
		return fmt.Errorf("from function: %w", err)
	}
	if err := validation.Validate(in.To.Function, functions); err != nil {
		return fmt.Errorf("to function: %w", err)
	}
	if in.FromDeliverable == "" && in.From.Function == "" {
		return errors.New("from: needs a deliverable or a function bucket")
	}
	if in.ToDeliverable == "" && in.To.Function == "" {
		return errors.New("to: needs a deliverable or a function bucket")
	}
	if in.FromDeliverable != "" && in.FromDeliverable == in.ToDeliverable {
		return errors.New("from and to are the same deliverable")
	}
	if in.FromDeliverable == "" && in.ToDeliverable == "" && in.From == in.To {
		return errors.New("from and to are the same bucket")
	}
	return nil
}

// ApplyTransfer records a budget transfer. Both sides are written as one
// record inside one transaction, so a transfer is never half applied.
func (eng *Engine) ApplyTransfer(projectID string, in TransferInput) (Transfer, error) {
	if err := validationErr("apply transfer", in.Validate()); err != nil {
		return Transfer{}, err
	}
	unlock := eng.locks.lock(projectID)
	defer unlock()

	var out Transfer
	err := eng.App.RunInTransaction(func(txApp core.App) error {
		if _, err := requireMutableProject(txApp, projectID); err != nil {
			return err
		}

		for _, code := range []string{in.From.Discipline, in.To.Discipline} {
			if err := requireDiscipline(txApp, code); err != nil {
				return err
			}
		}

		from, to := in.From, in.To
		if in.FromDeliverable != "" {
			d, err := findProjectRecord(txApp, "deliverables", in.FromDeliverable, projectID)
			if err != nil {
				return err
			}
			from = Bucket{Function: d.GetString("function"), Discipline: d.GetString("discipline")}
		}
		if in.ToDeliverable != "" {
			d, err := findProjectRecord(txApp, "deliverables", in.ToDeliverable, projectID)
			if err != nil {
				return err
			}
			to = Bucket{Function: d.GetString("function"), Discipline: d.GetString("discipline")}
		}

		col, err := txApp.FindCollectionByNameOrId("budget_transfers")
		if err != nil {
			return err
		}
		r := core.NewRecord(col)
		r.Set("project", projectID)
		r.Set("transfer_date", in.Date)
		r.Set("from_function", from.Function)
		r.Set("from_discipline", from.Discipline)
		r.Set("to_function", to.Function)
		r.Set("to_discipline", to.Discipline)
		r.Set("from_deliverable", in.FromDeliverable)
		r.Set("to_deliverable", in.ToDeliverable)
		r.Set("hours", in.Hours)
		r.Set("reason", in.Reason)
		r.Set("approved_by", in.ApprovedBy)
		if err := txApp.Save(r); err != nil {
			return fmt.Errorf("save transfer: %w", err)
		}
		out = transferFromRecord(r)
		return nil
	})
	if err != nil {
		return Transfer{}, err
	}

	eng.logger().Info("ledger: transfer applied",
		"project", projectID, "transfer", out.ID, "hours", out.Hours,
		"from", fmt.Sprintf("%s/%s", out.From.Function, out.From.Discipline),
		"to", fmt.Sprintf("%s/%s", out.To.Function, out.To.Discipline))
	return out, nil
}

// DrawdownInput consumes contingency hours.
type DrawdownInput struct {
	Date          string  `json:"drawdown_date"`
	Hours         float64 `json:"hours"`
	Reason        string  `json:"reason"`
	DeliverableID string  `json:"deliverable"`
	ApprovedBy    string  `json:"approved_by"`
}

// Validate checks the input in isolation.
func (in DrawdownInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Date, validation.Required, validation.Date(DateLayout)),
		validation.Field(&in.Hours, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&in.Reason, validation.Required),
	)
}

// ContingencyBalance returns seed minus cumulative drawdowns for a project.
func ContingencyBalance(app core.App, projectID string) (seed, drawn float64, err error) {
	project, err := LoadProject(app, projectID)
	if err != nil {
		return 0, 0, err
	}
	records, err := app.FindAllRecords("contingency_drawdowns", dbx.HashExp{"project": projectID})
	if err != nil {
		return 0, 0, fmt.Errorf("load drawdowns: %w", err)
	}
	for _, r := range records {
		drawn += r.GetFloat("hours")
	}
	return project.ContingencySeedHours, drawn, nil
}

// DrawContingency records a drawdown. Drawing more than the pool holds fails
// with ErrContingencyExceeded and writes nothing.
func (eng *Engine) DrawContingency(projectID string, in DrawdownInput) (Drawdown, error) {
	if err := validationErr("draw contingency", in.Validate()); err != nil {
		return Drawdown{}, err
	}
	unlock := eng.locks.lock(projectID)
	defer unlock()

	var out Drawdown
	var balance float64
	err := eng.App.RunInTransaction(func(txApp core.App) error {
		if _, err := requireMutableProject(txApp, projectID); err != nil {
			return err
		}
		if in.DeliverableID != "" {
			if _, err := findProjectRecord(txApp, "deliverables", in.DeliverableID, projectID); err != nil {
				return err
			}
		}

		seed, drawn, err := ContingencyBalance(txApp, projectID)
		if err != nil {
			return err
		}
		balance = seed - drawn
		if in.Hours > balance {
			return fmt.Errorf("draw %.2fh with %.2fh available: %w", in.Hours, balance, ErrContingencyExceeded)
		}

		col, err := txApp.FindCollectionByNameOrId("contingency_drawdowns")
		if err != nil {
			return err
		}
		r := core.NewRecord(col)
		r.Set("project", projectID)
		r.Set("drawdown_date", in.Date)
		r.Set("hours", in.Hours)
		r.Set("reason", in.Reason)
		r.Set("deliverable", in.DeliverableID)
		r.Set("approved_by", in.ApprovedBy)
		if err := txApp.Save(r); err != nil {
			return fmt.Errorf("save drawdown: %w", err)
		}
		out = drawdownFromRecord(r)
		balance -= in.Hours
		return nil
	})
	if err != nil {
		return Drawdown{}, err
	}

	eng.logger().Info("ledger: contingency drawn",
		"project", projectID, "hours", out.Hours, "deliverable", out.DeliverableID, "balance", balance)
	return out, nil
}

// DeliverableLedger returns a deliverable's effective budget and the
// chronological entries that produced it.
func (eng *Engine) DeliverableLedger(projectID, deliverableID string) (float64, []LedgerEntry, error) {
	pd, err := LoadProjectData(eng.App, projectID)
	if err != nil {
		return 0, nil, err
	}
	found := false
	for _, d := range pd.Deliverables {
		if d.ID == deliverableID {
			found = true
			break
		}
	}
	if !found {
		return 0, nil, notFound("deliverable", deliverableID)
	}
	l := BuildLedger(pd)
	return l.EffectiveBudget(deliverableID), l.History(deliverableID), nil
}
