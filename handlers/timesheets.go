package handlers

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/pocketbase/pocketbase/core"

	"projectcontrols/services"
)

// maxUploadBytes caps a timesheet file upload.
const maxUploadBytes = 10 << 20

// timesheetBatchRequest is one import batch. The batch id is the idempotency
// key; an empty one is generated and echoed back.
type timesheetBatchRequest struct {
	BatchID string                    `json:"batch_id"`
	Entries []services.TimesheetInput `json:"entries"`
}

// HandleTimesheetBatch imports a batch of timesheet rows. A re-sent batch
// answers 200 with the stored batch instead of 201.
func HandleTimesheetBatch(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var body timesheetBatchRequest
		if err := decodeBody(e, &body); err != nil {
			return ErrorJSON(e, err)
		}
		result, err := eng.RecordTimesheetBatch(projectID(e), body.BatchID, body.Entries)
		if err != nil {
			return ErrorJSON(e, err)
		}
		status := http.StatusCreated
		if result.Duplicate {
			status = http.StatusOK
		}
		return e.JSON(status, result)
	}
}

// HandleTimesheetList returns timesheet rows dated in the optional from/to
// range.
func HandleTimesheetList(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		q := e.Request.URL.Query()
		entries, err := services.ListTimesheets(eng.App, projectID(e), q.Get("from"), q.Get("to"))
		return respond(e, http.StatusOK, entries, err)
	}
}

// HandleManningUpsert records one person's forecast for one week.
func HandleManningUpsert(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		var in services.ManningInput
		if err := decodeBody(e, &in); err != nil {
			return ErrorJSON(e, err)
		}
		m, err := eng.UpsertManning(projectID(e), in)
		return respond(e, http.StatusOK, m, err)
	}
}

// HandleManningList returns the manning forecast from an optional week on.
func HandleManningList(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		entries, err := services.ListManning(eng.App, projectID(e), e.Request.URL.Query().Get("from"))
		return respond(e, http.StatusOK, entries, err)
	}
}

// importErrorBody reports an upload whose rows failed to parse.
type importErrorBody struct {
	errorBody
	Import *services.ImportResult `json:"import"`
}

// importResponse is a recorded upload: the parse summary and the batch.
type importResponse struct {
	Import *services.ImportResult `json:"import"`
	Batch  services.BatchResult   `json:"batch"`
}

// HandleTimesheetImport accepts a .csv or .xlsx timesheet export as the
// multipart "file" field and records it as one batch. The batch id defaults
// to a hash of the file so a re-upload is a duplicate. Row errors reject the
// whole file; with ?report=xlsx they are returned as a spreadsheet.
func HandleTimesheetImport(eng *services.Engine) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if err := e.Request.ParseMultipartForm(maxUploadBytes); err != nil {
			return ErrorJSON(e, fmt.Errorf("%w: file too large or invalid form data", services.ErrValidation))
		}
		file, header, err := e.Request.FormFile("file")
		if err != nil {
			return ErrorJSON(e, fmt.Errorf("%w: select a file to upload", services.ErrValidation))
		}
		defer file.Close()

		content, err := io.ReadAll(file)
		if err != nil {
			return ErrorJSON(e, fmt.Errorf("%w: read upload: %v", services.ErrValidation, err))
		}
		result, err := services.ParseTimesheetFile(content, header.Filename)
		if err != nil {
			return ErrorJSON(e, err)
		}

		if !result.OK() {
			if e.Request.URL.Query().Get("report") == "xlsx" {
				report, err := services.GenerateErrorReport(result.Errors)
				if err != nil {
					return ErrorJSON(e, fmt.Errorf("generate error report: %w", err))
				}
				name := strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
				e.Response.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
				e.Response.Header().Set("Content-Disposition",
					fmt.Sprintf(`attachment; filename="%s_errors.xlsx"`, sanitizeFilename(name)))
				e.Response.WriteHeader(http.StatusOK)
				_, err = e.Response.Write(report)
				return err
			}
			msg := fmt.Sprintf("%d of %d rows have errors", result.ErrorRows, result.TotalRows)
			return e.JSON(http.StatusBadRequest, importErrorBody{
				errorBody: errorBody{Error: msg, Kind: "validation"},
				Import:    result,
			})
		}

		if id := strings.TrimSpace(e.Request.FormValue("batch_id")); id != "" {
			result.BatchID = id
		}
		batch, err := eng.RecordTimesheetBatch(projectID(e), result.BatchID, result.Entries)
		if err != nil {
			return ErrorJSON(e, err)
		}
		status := http.StatusCreated
		if batch.Duplicate {
			status = http.StatusOK
		}
		return e.JSON(status, importResponse{Import: result, Batch: batch})
	}
}
