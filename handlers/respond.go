package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pocketbase/pocketbase/core"

	"projectcontrols/services"
)

// errorBody is the JSON shape of every failed request.
type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// errorStatus maps an engine error kind to its HTTP status. Errors of no
// known kind are internal.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest, "validation"
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, services.ErrConsistency):
		return http.StatusConflict, "consistency"
	}
	return http.StatusInternalServerError, "internal"
}

// ErrorJSON writes err as a JSON error response with the status of its kind.
// Internal errors are logged and their detail is not echoed to the client.
func ErrorJSON(e *core.RequestEvent, err error) error {
	status, kind := errorStatus(err)
	if status == http.StatusInternalServerError {
		e.App.Logger().Error("controls: request failed",
			"method", e.Request.Method, "path", e.Request.URL.Path, "error", err)
		return e.JSON(status, errorBody{Error: "internal error", Kind: kind})
	}
	return e.JSON(status, errorBody{Error: err.Error(), Kind: kind})
}

// respond writes v as JSON with status, or the error response when err is set.
func respond(e *core.RequestEvent, status int, v any, err error) error {
	if err != nil {
		return ErrorJSON(e, err)
	}
	return e.JSON(status, v)
}

// decodeBody reads a JSON request body into dst. An empty body leaves dst
// untouched.
func decodeBody(e *core.RequestEvent, dst any) error {
	if e.Request.Body == nil {
		return nil
	}
	err := json.NewDecoder(e.Request.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("request body: %w: %v", services.ErrValidation, err)
}

// dateParam parses a YYYY-MM-DD query parameter, defaulting to today.
func dateParam(e *core.RequestEvent, name string) (time.Time, error) {
	v := e.Request.URL.Query().Get(name)
	if v == "" {
		return services.ParseDate(services.FormatDate(time.Now()))
	}
	return services.ParseDate(v)
}
