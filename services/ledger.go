package services

import (
	"fmt"
	"sort"
)

// Ledger entry sources.
const (
	SourceBase        = "base"
	SourceTransferIn  = "transfer_in"
	SourceTransferOut = "transfer_out"
	SourceChangeOrder = "change_order"
	SourceDrawdown    = "contingency"
)

// LedgerEntry is one record's effect on a deliverable or bucket budget.
type LedgerEntry struct {
	Date        string  `json:"date"`
	Source      string  `json:"source"`
	RecordID    string  `json:"record_id,omitempty"`
	Description string  `json:"description"`
	Hours       float64 `json:"hours"`
	Balance     float64 `json:"balance"`
}

// Unallocated is the bucket holding budget that no deliverable owns yet:
// change-order hours for a function none of its linked deliverables carry,
// and contingency drawn without a deliverable.
var Unallocated = Bucket{}

// Ledger is the folded budget state of one project. It is a pure function of
// the record set it was built from; rebuilding from the same records yields
// the same figures.
type Ledger struct {
	effective   map[string]float64
	history     map[string][]LedgerEntry
	adjustments map[Bucket]float64
	deliverable map[string]Deliverable
	seed        float64
	drawn       float64
}

type ledgerEvent struct {
	date  string
	order int
	id    string
	apply func(l *Ledger)
}

// BuildLedger folds base budgets, approved transfers, incorporated change
// orders and contingency drawdowns in chronological order.
func BuildLedger(pd ProjectData) Ledger {
	l := Ledger{
		effective:   make(map[string]float64, len(pd.Deliverables)),
		history:     make(map[string][]LedgerEntry, len(pd.Deliverables)),
		adjustments: make(map[Bucket]float64),
		deliverable: make(map[string]Deliverable, len(pd.Deliverables)),
		seed:        pd.Project.ContingencySeedHours,
	}
	for _, d := range pd.Deliverables {
		l.deliverable[d.ID] = d
		l.post(d.ID, LedgerEntry{Source: SourceBase, RecordID: d.ID, Description: "base budget", Hours: d.BudgetHours})
	}

	var events []ledgerEvent

	for _, t := range pd.Transfers {
		t := t
		events = append(events, ledgerEvent{date: t.Date, order: 1, id: t.ID, apply: func(l *Ledger) { l.applyTransfer(t) }})
	}
	for _, co := range pd.ChangeOrders {
		if co.Status != COIncorporated {
			continue
		}
		co := co
		events = append(events, ledgerEvent{date: co.IncorporatedDate, order: 2, id: co.ID, apply: func(l *Ledger) { l.applyChangeOrder(co) }})
	}
	for _, dd := range pd.Drawdowns {
		dd := dd
		events = append(events, ledgerEvent{date: dd.Date, order: 3, id: dd.ID, apply: func(l *Ledger) { l.applyDrawdown(dd) }})
	}

	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		if a.date != b.date {
			return a.date < b.date
		}
		if a.order != b.order {
			return a.order < b.order
		}
		return a.id < b.id
	})
	for _, ev := range events {
		ev.apply(&l)
	}
	return l
}

func (l *Ledger) post(deliverableID string, e LedgerEntry) {
	if _, ok := l.deliverable[deliverableID]; !ok {
		return
	}
	l.effective[deliverableID] += e.Hours
	e.Balance = l.effective[deliverableID]
	l.history[deliverableID] = append(l.history[deliverableID], e)
}

func (l *Ledger) applyTransfer(t Transfer) {
	desc := t.Reason
	if t.FromDeliverable != "" {
		l.post(t.FromDeliverable, LedgerEntry{Date: t.Date, Source: SourceTransferOut, RecordID: t.ID, Description: desc, Hours: -t.Hours})
	} else {
		l.adjustments[t.From] -= t.Hours
	}
	if t.ToDeliverable != "" {
		l.post(t.ToDeliverable, LedgerEntry{Date: t.Date, Source: SourceTransferIn, RecordID: t.ID, Description: desc, Hours: t.Hours})
	} else {
		l.adjustments[t.To] += t.Hours
	}
}

// applyChangeOrder allocates each function's hours evenly across the linked
// deliverables of that function. Hours for a function with no linked
// deliverable land in the function's unallocated bucket.
func (l *Ledger) applyChangeOrder(co ChangeOrder) {
	byFunction := make(map[string][]string)
	for _, id := range co.Deliverables {
		d, ok := l.deliverable[id]
		if !ok {
			continue
		}
		byFunction[d.Function] = append(byFunction[d.Function], id)
	}

	functions := make([]string, 0, len(co.Hours))
	for fn := range co.Hours {
		functions = append(functions, fn)
	}
	sort.Strings(functions)

	for _, fn := range functions {
		hours := co.Hours[fn]
		if hours == 0 {
			continue
		}
		targets := byFunction[fn]
		if len(targets) == 0 {
			l.adjustments[Bucket{Function: fn}] += hours
			continue
		}
		share := hours / float64(len(targets))
		for _, id := range targets {
			l.post(id, LedgerEntry{
				Date:        co.IncorporatedDate,
				Source:      SourceChangeOrder,
				RecordID:    co.ID,
				Description: fmt.Sprintf("%s %s", co.Number, fn),
				Hours:       share,
			})
		}
	}
}

func (l *Ledger) applyDrawdown(dd Drawdown) {
	l.drawn += dd.Hours
	if dd.DeliverableID != "" {
		if _, ok := l.deliverable[dd.DeliverableID]; ok {
			l.post(dd.DeliverableID, LedgerEntry{Date: dd.Date, Source: SourceDrawdown, RecordID: dd.ID, Description: dd.Reason, Hours: dd.Hours})
			return
		}
	}
	l.adjustments[Unallocated] += dd.Hours
}

// EffectiveBudget returns a deliverable's own effective budget (no children).
func (l Ledger) EffectiveBudget(deliverableID string) float64 {
	return l.effective[deliverableID]
}

// History returns the chronological ledger entries of a deliverable with the
// running effective budget after each.
func (l Ledger) History(deliverableID string) []LedgerEntry {
	out := make([]LedgerEntry, len(l.history[deliverableID]))
	copy(out, l.history[deliverableID])
	return out
}

// BucketBudgets returns effective budget per (function, discipline) bucket,
// including bucket-level transfers and unallocated hours.
func (l Ledger) BucketBudgets() map[Bucket]float64 {
	out := make(map[Bucket]float64)
	for id, d := range l.deliverable {
		out[d.Bucket()] += l.effective[id]
	}
	for b, h := range l.adjustments {
		out[b] += h
	}
	return out
}

// FunctionBudgets sums BucketBudgets by function.
func (l Ledger) FunctionBudgets() map[string]float64 {
	out := make(map[string]float64)
	for b, h := range l.BucketBudgets() {
		out[b.Function] += h
	}
	return out
}

// DisciplineBudgets sums BucketBudgets by discipline.
func (l Ledger) DisciplineBudgets() map[string]float64 {
	out := make(map[string]float64)
	for b, h := range l.BucketBudgets() {
		out[b.Discipline] += h
	}
	return out
}

// ProjectBudget is the total effective budget of the project.
func (l Ledger) ProjectBudget() float64 {
	var total float64
	for _, h := range l.BucketBudgets() {
		total += h
	}
	return total
}

// ContingencySeed is the pool size resolved at project creation.
func (l Ledger) ContingencySeed() float64 { return l.seed }

// ContingencyDrawn is the cumulative drawdown.
func (l Ledger) ContingencyDrawn() float64 { return l.drawn }

// ContingencyBalance is seed minus cumulative drawdowns.
func (l Ledger) ContingencyBalance() float64 { return l.seed - l.drawn }
