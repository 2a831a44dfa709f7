package handlers

import (
	"net/http"
	"testing"

	"projectcontrols/services"
	"projectcontrols/testhelpers"
)

func TestHandleDrawdown_ExceedsBalance(t *testing.T) {
	app, eng := newTestEngine(t)
	project := testhelpers.CreateTestProject(t, app, "P-CG", 50)

	rec := serve(t, app, HandleDrawdown(eng), http.MethodPost, "/drawdowns",
		services.DrawdownInput{Date: "2025-02-10", Hours: 30, Reason: "design growth"},
		"projectId", project.Id)
	assertStatus(t, rec, http.StatusCreated)

	rec = serve(t, app, HandleDrawdown(eng), http.MethodPost, "/drawdowns",
		services.DrawdownInput{Date: "2025-02-17", Hours: 25, Reason: "more growth"},
		"projectId", project.Id)
	assertStatus(t, rec, http.StatusConflict)

	rec = serve(t, app, HandleContingency(eng), http.MethodGet, "/contingency", nil, "projectId", project.Id)
	assertStatus(t, rec, http.StatusOK)

	var got services.ContingencySummary
	testhelpers.DecodeJSON(t, rec.Body.String(), &got)
	if got.Seed != 50 || got.Drawn != 30 || got.Balance != 20 {
		t.Errorf("unexpected contingency %+v", got)
	}
}

func TestHandleDrawdown_MissingReason(t *testing.T) {
	app, eng := newTestEngine(t)
	project := testhelpers.CreateTestProject(t, app, "P-CR", 50)

	rec := serve(t, app, HandleDrawdown(eng), http.MethodPost, "/drawdowns",
		services.DrawdownInput{Date: "2025-02-10", Hours: 5},
		"projectId", project.Id)
	assertStatus(t, rec, http.StatusBadRequest)
}

func TestHandleTransfer_BetweenBuckets(t *testing.T) {
	app, eng := newTestEngine(t)
	project := testhelpers.CreateTestProject(t, app, "P-TR", 0)
	testhelpers.CreateTestDeliverable(t, app, project.Id, "Calcs", services.FunctionEngineering, "ME", 100)
	testhelpers.CreateTestDeliverable(t, app, project.Id, "Drawings", services.FunctionDrafting, "CAD", 50)

	rec := serve(t, app, HandleTransfer(eng), http.MethodPost, "/transfers",
		services.TransferInput{
			Date:   "2025-03-01",
			From:   services.Bucket{Function: services.FunctionEngineering, Discipline: "ME"},
			To:     services.Bucket{Function: services.FunctionDrafting, Discipline: "CAD"},
			Hours:  10,
			Reason: "drafting support",
		},
		"projectId", project.Id)
	assertStatus(t, rec, http.StatusCreated)

	rec = serve(t, app, HandleSummary(eng), http.MethodGet, "/summary?as_of=2025-03-08", nil, "projectId", project.Id)
	assertStatus(t, rec, http.StatusOK)

	var summary services.ProjectSummary
	testhelpers.DecodeJSON(t, rec.Body.String(), &summary)
	if summary.BudgetHours != 150 {
		t.Errorf("budget = %v, want 150", summary.BudgetHours)
	}
	for _, row := range summary.ByFunction {
		switch row.Key {
		case services.FunctionEngineering:
			if row.Budget != 90 {
				t.Errorf("engineering budget = %v, want 90", row.Budget)
			}
		case services.FunctionDrafting:
			if row.Budget != 60 {
				t.Errorf("drafting budget = %v, want 60", row.Budget)
			}
		}
	}
}
