package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"projectcontrols/services"
)

// HandleChangeOrderList returns the project's change orders.
func HandleChangeOrderList(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		cos, err := services.ListChangeOrders(eng.App, projectID(e))
		return respond(e, http.StatusOK, cos, err)
	}
}

// HandleChangeOrderCreate creates a draft change order with the next number.
func HandleChangeOrderCreate(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in services.ChangeOrderInput
		if err := decodeBody(e, &in); err != nil {
			return ErrorJSON(e, err)
		}
		co, err := eng.CreateChangeOrder(projectID(e), in)
		return respond(e, http.StatusCreated, co, err)
	}
}

// HandleChangeOrderUpdate replaces a change order's estimates.
func HandleChangeOrderUpdate(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in services.ChangeOrderInput
		if err := decodeBody(e, &in); err != nil {
			return ErrorJSON(e, err)
		}
		co, err := eng.UpdateChangeOrder(projectID(e), e.Request.PathValue("coId"), in)
		return respond(e, http.StatusOK, co, err)
	}
}

// HandleChangeOrderReview moves a change order along the review flow.
func HandleChangeOrderReview(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var rv services.COReview
		if err := decodeBody(e, &rv); err != nil {
			return ErrorJSON(e, err)
		}
		co, err := eng.ReviewChangeOrder(projectID(e), e.Request.PathValue("coId"), rv)
		return respond(e, http.StatusOK, co, err)
	}
}

// HandleChangeOrderIncorporate posts an approved change order to the budget
// ledger.
func HandleChangeOrderIncorporate(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var body struct {
			Date string `json:"incorporated_date"`
		}
		if err := decodeBody(e, &body); err != nil {
			return ErrorJSON(e, err)
		}
		co, err := eng.IncorporateChangeOrder(projectID(e), e.Request.PathValue("coId"), body.Date)
		return respond(e, http.StatusOK, co, err)
	}
}

// HandleChangeOrderLinks replaces the deliverables a change order is
// allocated to.
func HandleChangeOrderLinks(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var body struct {
			Deliverables []string `json:"deliverables"`
		}
		if err := decodeBody(e, &body); err != nil {
			return ErrorJSON(e, err)
		}
		if err := eng.LinkChangeOrderDeliverables(projectID(e), e.Request.PathValue("coId"), body.Deliverables); err != nil {
			return ErrorJSON(e, err)
		}
		return e.NoContent(http.StatusNoContent)
	}
}
