package services

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pocketbase/pocketbase/core"
)

// formatCONumber constructs the change order number from its parts.
func formatCONumber(projectCode string, sequence int) string {
	return fmt.Sprintf("CO-%s-%03d", projectCode, sequence)
}

// GenerateCONumber returns the next change order number for a project.
// Format: CO-{project_code}-{sequence}
//   - project_code: the project's code (falls back to the project ID if empty)
//   - sequence: 3-digit zero-padded, one past the highest number in use
//
// Deleting a change order below the highest number leaves a gap. Deleting the
// highest one frees its number, and every number above the new highest is
// issued again.
func GenerateCONumber(app core.App, projectID string) (string, error) {
	project, err := app.FindRecordById("projects", projectID)
	if err != nil {
		return "", notFound("project", projectID)
	}
	code := project.GetString("project_code")
	if code == "" {
		code = projectID
	}
	prefix := fmt.Sprintf("CO-%s-", code)

	existing, err := app.FindRecordsByFilter(
		"change_orders",
		"project = {:projectId} && co_number ~ {:prefix}",
		"",
		0,
		0,
		map[string]any{
			"projectId": projectID,
			"prefix":    prefix + "%",
		},
	)
	if err != nil {
		existing = nil
	}

	next := 1
	for _, r := range existing {
		if seq, ok := parseCOSequence(r.GetString("co_number"), prefix); ok && seq >= next {
			next = seq + 1
		}
	}
	return formatCONumber(code, next), nil
}

func parseCOSequence(number, prefix string) (int, bool) {
	if !strings.HasPrefix(number, prefix) {
		return 0, false
	}
	seq, err := strconv.Atoi(strings.TrimPrefix(number, prefix))
	if err != nil {
		return 0, false
	}
	return seq, true
}
