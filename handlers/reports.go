package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"projectcontrols/services"
)

// HandleSummary returns the project summary as of the as_of query date
// (default today).
func HandleSummary(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		asOf, err := dateParam(e, "as_of")
		if err != nil {
			return ErrorJSON(e, err)
		}
		summary, err := eng.GetProjectSummary(projectID(e), asOf)
		return respond(e, http.StatusOK, summary, err)
	}
}

// HandleForecast returns both forecasts-at-completion and their variance.
func HandleForecast(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		asOf, err := dateParam(e, "as_of")
		if err != nil {
			return ErrorJSON(e, err)
		}
		rec, err := eng.GetForecastReconciliation(projectID(e), asOf)
		return respond(e, http.StatusOK, rec, err)
	}
}

// HandleWeeklySpend returns hours and cost per week ending, function and
// discipline for the optional from/to week range.
func HandleWeeklySpend(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		q := e.Request.URL.Query()
		rows, err := eng.GetWeeklySpend(projectID(e), q.Get("from"), q.Get("to"))
		return respond(e, http.StatusOK, rows, err)
	}
}

// HandleSnapshotCreate records the immutable snapshot of a week.
func HandleSnapshotCreate(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var body struct {
			WeekEnding string `json:"week_ending"`
			CreatedBy  string `json:"created_by"`
			Notes      string `json:"notes"`
		}
		if err := decodeBody(e, &body); err != nil {
			return ErrorJSON(e, err)
		}
		snap, err := eng.CreateSnapshot(projectID(e), body.WeekEnding, body.CreatedBy, body.Notes)
		return respond(e, http.StatusCreated, snap, err)
	}
}

// HandleSnapshotList returns the project's snapshot history.
func HandleSnapshotList(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		snaps, err := eng.ListSnapshots(projectID(e))
		return respond(e, http.StatusOK, snaps, err)
	}
}

// HandleSnapshotView returns one week's snapshot with its frozen state.
func HandleSnapshotView(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		snap, err := eng.GetSnapshot(projectID(e), e.Request.PathValue("week"))
		return respond(e, http.StatusOK, snap, err)
	}
}

// HandleCommentarySave writes the narrative for a project week.
func HandleCommentarySave(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var c services.Commentary
		if err := decodeBody(e, &c); err != nil {
			return ErrorJSON(e, err)
		}
		c.WeekEnding = e.Request.PathValue("week")
		saved, err := eng.SaveCommentary(projectID(e), c)
		return respond(e, http.StatusOK, saved, err)
	}
}

// HandleCommentaryView returns the narrative for a project week.
func HandleCommentaryView(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		c, err := eng.GetCommentary(projectID(e), e.Request.PathValue("week"))
		return respond(e, http.StatusOK, c, err)
	}
}

// HandleRateAdd inserts a rate interval for a position.
func HandleRateAdd(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var entry services.RateEntry
		if err := decodeBody(e, &entry); err != nil {
			return ErrorJSON(e, err)
		}
		added, err := eng.AddRate(entry)
		return respond(e, http.StatusCreated, added, err)
	}
}

// HandleRateResolve resolves a position's rate as of a date.
func HandleRateResolve(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		asOf, err := dateParam(e, "as_of")
		if err != nil {
			return ErrorJSON(e, err)
		}
		position := e.Request.URL.Query().Get("position")
		rate, err := eng.ResolveRate(position, asOf)
		return respond(e, http.StatusOK, map[string]any{
			"position": position,
			"as_of":    services.FormatDate(asOf),
			"rate":     rate,
		}, err)
	}
}
