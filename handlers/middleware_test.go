package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"projectcontrols/services"
	"projectcontrols/testhelpers"
)

func TestGetProject_FromContext(t *testing.T) {
	expected := &services.Project{ID: "test123", Code: "P-1"}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := context.WithValue(req.Context(), ProjectKey, expected)
	req = req.WithContext(ctx)

	got := GetProject(req)
	if got == nil {
		t.Fatal("expected project, got nil")
	}
	if got.ID != expected.ID {
		t.Errorf("expected ID %q, got %q", expected.ID, got.ID)
	}
}

func TestGetProject_NotInContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := GetProject(req); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestProjectMiddleware_LoadsProject(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	project := testhelpers.CreateTestProject(t, app, "P-MW", 10)

	req := httptest.NewRequest(http.MethodGet, "/api/controls/projects/"+project.Id+"/summary", nil)
	req.SetPathValue("projectId", project.Id)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	if err := ProjectMiddleware(app)(e); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}

	got := GetProject(e.Request)
	if got == nil {
		t.Fatal("expected project in context")
	}
	if got.Code != "P-MW" {
		t.Errorf("expected code P-MW, got %q", got.Code)
	}
	if projectID(e) != project.Id {
		t.Errorf("projectID() = %q, want %q", projectID(e), project.Id)
	}
}

func TestProjectMiddleware_MissingProject(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/controls/projects/nonexistent/summary", nil)
	req.SetPathValue("projectId", "nonexistent")
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	if err := ProjectMiddleware(app)(e); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}

	assertStatus(t, rec, http.StatusNotFound)
	if GetProject(e.Request) != nil {
		t.Error("expected no project in context")
	}
}

func TestProjectMiddleware_NoPathValue(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	req := httptest.NewRequest(http.MethodGet, "/api/controls/projects", nil)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	if err := ProjectMiddleware(app)(e); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected pass-through, got status %d", rec.Code)
	}
}
