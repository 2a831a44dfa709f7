package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"projectcontrols/services"
)

// invoiceResponse pairs an invoice with its PO's refreshed figures.
type invoiceResponse struct {
	Invoice    services.Invoice           `json:"invoice"`
	Commitment services.CommitmentFigures `json:"commitment"`
}

// HandlePOList returns every purchase order's figures and the project totals.
func HandlePOList(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		figures, totals, err := services.ListPurchaseOrders(eng.App, projectID(e), eng.Config.Commitments.Tolerance)
		if err != nil {
			return ErrorJSON(e, err)
		}
		return e.JSON(http.StatusOK, map[string]any{
			"purchase_orders": figures,
			"totals":          totals,
		})
	}
}

// HandlePOCreate issues a purchase order.
func HandlePOCreate(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in services.POInput
		if err := decodeBody(e, &in); err != nil {
			return ErrorJSON(e, err)
		}
		figures, err := eng.CreatePO(projectID(e), in)
		return respond(e, http.StatusCreated, figures, err)
	}
}

// HandleInvoiceRecord records a received invoice against a purchase order.
func HandleInvoiceRecord(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in services.InvoiceInput
		if err := decodeBody(e, &in); err != nil {
			return ErrorJSON(e, err)
		}
		inv, figures, err := eng.RecordInvoice(projectID(e), e.Request.PathValue("poId"), in)
		return respond(e, http.StatusCreated, invoiceResponse{Invoice: inv, Commitment: figures}, err)
	}
}

// HandleInvoiceAdvance moves an invoice one payment step forward.
func HandleInvoiceAdvance(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var body struct {
			PaymentReference string `json:"payment_reference"`
		}
		if err := decodeBody(e, &body); err != nil {
			return ErrorJSON(e, err)
		}
		inv, figures, err := eng.AdvanceInvoice(projectID(e), e.Request.PathValue("invoiceId"), body.PaymentReference)
		return respond(e, http.StatusOK, invoiceResponse{Invoice: inv, Commitment: figures}, err)
	}
}

// HandlePOAccrual sets a purchase order's accrued work done.
func HandlePOAccrual(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var body struct {
			Accrued float64 `json:"accrued_work_done"`
		}
		if err := decodeBody(e, &body); err != nil {
			return ErrorJSON(e, err)
		}
		figures, err := eng.UpdateAccrual(projectID(e), e.Request.PathValue("poId"), body.Accrued)
		return respond(e, http.StatusOK, figures, err)
	}
}

// HandlePOClose closes a purchase order.
func HandlePOClose(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var body struct {
			Date string `json:"close_date"`
		}
		if err := decodeBody(e, &body); err != nil {
			return ErrorJSON(e, err)
		}
		figures, err := eng.ClosePO(projectID(e), e.Request.PathValue("poId"), body.Date)
		return respond(e, http.StatusOK, figures, err)
	}
}

// HandlePOLinks replaces the deliverables a purchase order supports.
func HandlePOLinks(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var body struct {
			Deliverables []string `json:"deliverables"`
		}
		if err := decodeBody(e, &body); err != nil {
			return ErrorJSON(e, err)
		}
		if err := eng.LinkPODeliverables(projectID(e), e.Request.PathValue("poId"), body.Deliverables); err != nil {
			return ErrorJSON(e, err)
		}
		return e.NoContent(http.StatusNoContent)
	}
}
