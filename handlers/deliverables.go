package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"projectcontrols/services"
)

// deliverableView is a deliverable with its progress mode in flat form.
type deliverableView struct {
	services.Deliverable
	services.ProgressFields
}

func newDeliverableView(d services.Deliverable) deliverableView {
	return deliverableView{Deliverable: d, ProgressFields: services.FlattenProgress(d.Progress)}
}

// HandleDeliverableCreate adds a deliverable to the project tree.
func HandleDeliverableCreate(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in services.DeliverableInput
		if err := decodeBody(e, &in); err != nil {
			return ErrorJSON(e, err)
		}
		d, err := eng.CreateDeliverable(projectID(e), in)
		if err != nil {
			return ErrorJSON(e, err)
		}
		return e.JSON(http.StatusCreated, newDeliverableView(d))
	}
}

// HandleDeliverableParent reparents a deliverable. An empty parent makes it
// a root.
func HandleDeliverableParent(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var body struct {
			Parent string `json:"parent"`
		}
		if err := decodeBody(e, &body); err != nil {
			return ErrorJSON(e, err)
		}
		err := eng.SetDeliverableParent(projectID(e), e.Request.PathValue("deliverableId"), body.Parent)
		if err != nil {
			return ErrorJSON(e, err)
		}
		return e.NoContent(http.StatusNoContent)
	}
}

// HandleProgressUpdate records a deliverable's status and progress mode.
func HandleProgressUpdate(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var u services.ProgressUpdate
		if err := decodeBody(e, &u); err != nil {
			return ErrorJSON(e, err)
		}
		d, err := eng.UpdateProgress(projectID(e), e.Request.PathValue("deliverableId"), u)
		if err != nil {
			return ErrorJSON(e, err)
		}
		return e.JSON(http.StatusOK, newDeliverableView(d))
	}
}

// HandleForecastUpdate records a deliverable's forecast to complete.
func HandleForecastUpdate(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var body struct {
			Hours float64 `json:"forecast_to_complete"`
		}
		if err := decodeBody(e, &body); err != nil {
			return ErrorJSON(e, err)
		}
		if err := eng.SetForecastToComplete(projectID(e), e.Request.PathValue("deliverableId"), body.Hours); err != nil {
			return ErrorJSON(e, err)
		}
		return e.NoContent(http.StatusNoContent)
	}
}

// HandleDeliverableLedger returns a deliverable's effective budget and the
// ledger history behind it.
func HandleDeliverableLedger(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		budget, history, err := eng.DeliverableLedger(projectID(e), e.Request.PathValue("deliverableId"))
		if err != nil {
			return ErrorJSON(e, err)
		}
		return e.JSON(http.StatusOK, map[string]any{
			"effective_budget": budget,
			"history":          history,
		})
	}
}

// HandleProgressReport returns the rolled-up deliverable tree.
func HandleProgressReport(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		report, err := eng.GetDeliverableProgress(projectID(e))
		return respond(e, http.StatusOK, report, err)
	}
}
