package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"projectcontrols/services"
)

// HandleTransfer moves budget hours between buckets or deliverables.
func HandleTransfer(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in services.TransferInput
		if err := decodeBody(e, &in); err != nil {
			return ErrorJSON(e, err)
		}
		t, err := eng.ApplyTransfer(projectID(e), in)
		return respond(e, http.StatusCreated, t, err)
	}
}

// HandleDrawdown consumes contingency hours.
func HandleDrawdown(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in services.DrawdownInput
		if err := decodeBody(e, &in); err != nil {
			return ErrorJSON(e, err)
		}
		dd, err := eng.DrawContingency(projectID(e), in)
		return respond(e, http.StatusCreated, dd, err)
	}
}

// HandleContingency returns the pool's seed, drawn and balance hours.
func HandleContingency(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		seed, drawn, err := services.ContingencyBalance(eng.App, projectID(e))
		return respond(e, http.StatusOK, services.ContingencySummary{
			Seed:    seed,
			Drawn:   drawn,
			Balance: seed - drawn,
		}, err)
	}
}
