package services

import "fmt"

// CommitmentFigures are the derived figures of one purchase order.
type CommitmentFigures struct {
	POID          string   `json:"purchase_order"`
	Commitment    float64  `json:"commitment_value"`
	Invoiced      float64  `json:"invoiced_to_date"`
	Pending       float64  `json:"pending_invoices"`
	Accrued       float64  `json:"accrued_work_done"`
	Remaining     float64  `json:"remaining_commitment"`
	Status        string   `json:"status"`
	OverCommitted bool     `json:"over_committed"`
	OverInvoiced  bool     `json:"over_invoiced"`
	Warnings      []string `json:"warnings,omitempty"`
}

// countsAsInvoiced reports whether an invoice in status is committed spend.
// Received and under-review amounts are only pending.
func countsAsInvoiced(status string) bool {
	return status == InvoiceApproved || status == InvoicePaid
}

// ComputeCommitment derives invoiced, pending and remaining figures and the
// PO status from the PO and its invoices. Closing is never automatic: a
// closed PO stays closed.
func ComputeCommitment(po PurchaseOrder, invoices []Invoice, tolerance float64) CommitmentFigures {
	f := CommitmentFigures{
		POID:       po.ID,
		Commitment: po.CommitmentValue,
		Accrued:    po.AccruedWorkDone,
	}

	var count int
	for _, inv := range invoices {
		if inv.POID != po.ID {
			continue
		}
		count++
		if countsAsInvoiced(inv.PaymentStatus) {
			f.Invoiced += inv.Amount
		} else {
			f.Pending += inv.Amount
		}
	}

	remaining := f.Commitment - f.Invoiced - f.Accrued
	if remaining < 0 {
		f.OverCommitted = true
		f.Warnings = append(f.Warnings, fmt.Sprintf(
			"invoiced %.2f plus accrued %.2f exceeds commitment %.2f by %.2f",
			f.Invoiced, f.Accrued, f.Commitment, -remaining))
		remaining = 0
	}
	f.Remaining = remaining

	if f.Invoiced > f.Commitment+tolerance {
		f.OverInvoiced = true
		f.Warnings = append(f.Warnings, fmt.Sprintf(
			"invoiced %.2f exceeds commitment %.2f", f.Invoiced, f.Commitment))
	}

	switch {
	case po.Status == POClosed:
		f.Status = POClosed
	case count == 0:
		f.Status = POIssued
	case f.Invoiced+f.Accrued >= f.Commitment-tolerance:
		f.Status = POFullyInvoiced
	default:
		f.Status = POPartiallyInvoiced
	}
	return f
}

// CommitmentTotals sums figures across a project's purchase orders.
type CommitmentTotals struct {
	Commitment float64 `json:"commitment_value"`
	Invoiced   float64 `json:"invoiced_to_date"`
	Pending    float64 `json:"pending_invoices"`
	Accrued    float64 `json:"accrued_work_done"`
	Remaining  float64 `json:"remaining_commitment"`
	Flagged    int     `json:"flagged"`
}

// SumCommitments computes every PO's figures and their totals.
func SumCommitments(pos []PurchaseOrder, invoices []Invoice, tolerance float64) ([]CommitmentFigures, CommitmentTotals) {
	var totals CommitmentTotals
	figures := make([]CommitmentFigures, 0, len(pos))
	for _, po := range pos {
		f := ComputeCommitment(po, invoices, tolerance)
		figures = append(figures, f)
		totals.Commitment += f.Commitment
		totals.Invoiced += f.Invoiced
		totals.Pending += f.Pending
		totals.Accrued += f.Accrued
		totals.Remaining += f.Remaining
		if f.OverCommitted || f.OverInvoiced {
			totals.Flagged++
		}
	}
	return figures, totals
}

var invoiceFlow = []string{InvoiceReceived, InvoiceUnderReview, InvoiceApproved, InvoicePaid}

// NextInvoiceStatus returns the status after current, or an error when the
// invoice is already paid or current is unknown.
func NextInvoiceStatus(current string) (string, error) {
	for i, s := range invoiceFlow {
		if s == current && i+1 < len(invoiceFlow) {
			return invoiceFlow[i+1], nil
		}
	}
	return "", fmt.Errorf("invoice status %q has no successor: %w", current, ErrInvalidTransition)
}
