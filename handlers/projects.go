package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"projectcontrols/services"
)

// HandleProjectList returns every project.
func HandleProjectList(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		projects, err := services.ListProjects(eng.App)
		return respond(e, http.StatusOK, projects, err)
	}
}

// HandleProjectCreate creates a project and resolves its contingency seed.
func HandleProjectCreate(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in services.ProjectInput
		if err := decodeBody(e, &in); err != nil {
			return ErrorJSON(e, err)
		}
		project, err := eng.CreateProject(in)
		return respond(e, http.StatusCreated, project, err)
	}
}

// HandleProjectView returns one project.
func HandleProjectView(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if p := GetProject(e.Request); p != nil {
			return e.JSON(http.StatusOK, p)
		}
		project, err := services.LoadProject(eng.App, projectID(e))
		return respond(e, http.StatusOK, project, err)
	}
}

// HandleProjectUpdate changes descriptive project fields.
func HandleProjectUpdate(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var u services.ProjectUpdate
		if err := decodeBody(e, &u); err != nil {
			return ErrorJSON(e, err)
		}
		project, err := eng.UpdateProject(projectID(e), u)
		return respond(e, http.StatusOK, project, err)
	}
}

// HandleProjectStatus moves a project through its lifecycle.
func HandleProjectStatus(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var body struct {
			Status string `json:"status"`
		}
		if err := decodeBody(e, &body); err != nil {
			return ErrorJSON(e, err)
		}
		project, err := eng.SetProjectStatus(projectID(e), body.Status)
		return respond(e, http.StatusOK, project, err)
	}
}

// HandleGateList returns the project's resolved gate table.
func HandleGateList(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		table, err := services.LoadGateTable(eng.App, projectID(e))
		if err != nil {
			return ErrorJSON(e, err)
		}
		return e.JSON(http.StatusOK, table.Gates())
	}
}

// HandleGateOverride records a project-scoped gate override.
func HandleGateOverride(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var gate services.Gate
		if err := decodeBody(e, &gate); err != nil {
			return ErrorJSON(e, err)
		}
		if err := eng.SetGateOverride(projectID(e), gate); err != nil {
			return ErrorJSON(e, err)
		}
		return e.NoContent(http.StatusNoContent)
	}
}
