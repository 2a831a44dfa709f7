package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase/core"

	"projectcontrols/services"
)

// sanitizeFilename removes characters that are unsafe for filenames.
func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = strings.ReplaceAll(s, ":", "-")
	s = strings.ReplaceAll(s, `"`, "")
	return s
}

// HandleExportExcel returns a handler that generates and downloads the
// project controls workbook as of the as_of query date.
func HandleExportExcel(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		asOf, err := dateParam(e, "as_of")
		if err != nil {
			return ErrorJSON(e, err)
		}

		data, err := eng.BuildExportData(projectID(e), asOf)
		if err != nil {
			return ErrorJSON(e, err)
		}

		xlsxBytes, err := services.GenerateWorkbook(data)
		if err != nil {
			return ErrorJSON(e, fmt.Errorf("generate workbook: %w", err))
		}

		filename := fmt.Sprintf("Controls_%s_%s.xlsx", sanitizeFilename(data.Title), data.AsOf)

		e.Response.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		e.Response.WriteHeader(http.StatusOK)
		_, err = e.Response.Write(xlsxBytes)
		return err
	}
}
