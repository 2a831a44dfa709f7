package services

import "time"

// ExportData holds everything written to the project controls workbook.
type ExportData struct {
	Title     string
	AsOf      string
	Summary   ProjectSummary
	Progress  ProgressReport
	Spend     []SpendRow
	Snapshots []Snapshot
}

// BuildExportData gathers the workbook contents for a project as of asOf.
func (eng *Engine) BuildExportData(projectID string, asOf time.Time) (ExportData, error) {
	pd, err := LoadProjectData(eng.App, projectID)
	if err != nil {
		return ExportData{}, err
	}
	progress, err := ComputeProgress(pd)
	if err != nil {
		return ExportData{}, err
	}
	snapshots, err := eng.ListSnapshots(projectID)
	if err != nil {
		return ExportData{}, err
	}
	cut := FormatDate(asOf)
	return ExportData{
		Title:     pd.Project.Code + " " + pd.Project.Name,
		AsOf:      cut,
		Summary:   ComputeSummary(pd, asOf, eng.Config.Commitments.Tolerance),
		Progress:  progress,
		Spend:     WeeklySpend(pd.AsOf(asOf).Timesheets, "", cut),
		Snapshots: snapshots,
	}, nil
}
