package handlers

import (
	"context"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"projectcontrols/services"
)

type contextKey string

const ProjectKey contextKey = "project"

// GetProject extracts the project loaded by ProjectMiddleware from the
// request context.
func GetProject(r *http.Request) *services.Project {
	if val, ok := r.Context().Value(ProjectKey).(*services.Project); ok {
		return val
	}
	return nil
}

// ProjectMiddleware resolves the {projectId} path value, answers 404 when the
// project does not exist and stores the project in the request context so
// handlers and logs can use it.
func ProjectMiddleware(app core.App) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("projectId")
		if id == "" {
			return e.Next()
		}

		project, err := services.LoadProject(app, id)
		if err != nil {
			return ErrorJSON(e, err)
		}

		ctx := context.WithValue(e.Request.Context(), ProjectKey, &project)
		e.Request = e.Request.WithContext(ctx)
		return e.Next()
	}
}

// projectID returns the project path value of a project-scoped route.
func projectID(e *core.RequestEvent) string {
	if p := GetProject(e.Request); p != nil {
		return p.ID
	}
	return e.Request.PathValue("projectId")
}
