package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Workbook sheet names.
const (
	SheetSummary      = "Summary"
	SheetDeliverables = "Deliverables"
	SheetWeeklySpend  = "Weekly Spend"
	SheetSnapshots    = "Snapshots"
)

type workbookStyles struct {
	title, subtitle, header, row, bold, hours, money int
}

// GenerateWorkbook creates the project controls workbook from data and
// returns the file contents.
func GenerateWorkbook(data ExportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetSummary); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}
	for _, name := range []string{SheetDeliverables, SheetWeeklySpend, SheetSnapshots} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("add sheet %s: %w", name, err)
		}
	}

	st, err := newWorkbookStyles(f)
	if err != nil {
		return nil, err
	}

	if err := writeSummarySheet(f, st, data); err != nil {
		return nil, err
	}
	if err := writeDeliverablesSheet(f, st, data.Progress); err != nil {
		return nil, err
	}
	if err := writeSpendSheet(f, st, data.Spend); err != nil {
		return nil, err
	}
	if err := writeSnapshotsSheet(f, st, data.Snapshots); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

func newWorkbookStyles(f *excelize.File) (workbookStyles, error) {
	var st workbookStyles
	var err error

	// Title style: bold, 16pt.
	if st.title, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}}); err != nil {
		return st, fmt.Errorf("create title style: %w", err)
	}
	if st.subtitle, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Size: 11}}); err != nil {
		return st, fmt.Errorf("create subtitle style: %w", err)
	}

	// Column header style: bold, white text, charcoal background, centered.
	st.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: thinBorders(),
	})
	if err != nil {
		return st, fmt.Errorf("create header style: %w", err)
	}

	if st.row, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Size: 10}, Border: thinBorders()}); err != nil {
		return st, fmt.Errorf("create row style: %w", err)
	}
	if st.bold, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 10}, Border: thinBorders()}); err != nil {
		return st, fmt.Errorf("create bold style: %w", err)
	}

	hoursFmt := "#,##0.0"
	if st.hours, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Size: 10}, Border: thinBorders(), CustomNumFmt: &hoursFmt}); err != nil {
		return st, fmt.Errorf("create hours style: %w", err)
	}
	moneyFmt := "#,##0.00"
	if st.money, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Size: 10}, Border: thinBorders(), CustomNumFmt: &moneyFmt}); err != nil {
		return st, fmt.Errorf("create money style: %w", err)
	}
	return st, nil
}

// writeTable writes headers at headerRow and returns the first data row.
func writeTable(f *excelize.File, sheet string, st workbookStyles, headerRow int, headers []string, widths []float64) (int, error) {
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, widths[i]); err != nil {
			return 0, fmt.Errorf("set col width %s: %w", col, err)
		}
		f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, headerRow), h)
	}
	last, _ := excelize.ColumnNumberToName(len(headers))
	f.SetCellStyle(sheet, fmt.Sprintf("A%d", headerRow), fmt.Sprintf("%s%d", last, headerRow), st.header)
	return headerRow + 1, nil
}

// setRow writes values from column A and applies style to each cell.
func setRow(f *excelize.File, sheet string, row int, values []any, styles []int) {
	for i, v := range values {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := fmt.Sprintf("%s%d", col, row)
		if s, ok := v.(string); ok {
			v = sanitizeExcelCell(s)
		}
		f.SetCellValue(sheet, cell, v)
		f.SetCellStyle(sheet, cell, cell, styles[i])
	}
}

func writeSummarySheet(f *excelize.File, st workbookStyles, data ExportData) error {
	sheet := SheetSummary
	if err := f.MergeCell(sheet, "A1", "I1"); err != nil {
		return fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(sheet, "A1", sanitizeExcelCell(data.Title))
	f.SetCellStyle(sheet, "A1", "I1", st.title)
	f.SetCellValue(sheet, "A2", "As of: "+data.AsOf)
	f.SetCellStyle(sheet, "A2", "A2", st.subtitle)

	s := data.Summary
	facts := []struct {
		label string
		value float64
		style int
	}{
		{"Budget hours", s.BudgetHours, st.hours},
		{"Actual hours", s.ActualHours, st.hours},
		{"Actual cost", s.ActualCost, st.money},
		{"Earned hours", s.EarnedHours, st.hours},
		{"Deliverable FTC", s.Forecast.DeliverableFTC, st.hours},
		{"Manning FTC", s.Forecast.ManningFTC, st.hours},
		{"FTC variance", s.Forecast.Variance, st.hours},
		{"FAC (deliverables)", s.Forecast.FACDeliverable, st.hours},
		{"FAC (manning)", s.Forecast.FACManning, st.hours},
		{"Performance factor", s.PerformanceFactor, st.money},
		{"Contingency balance", s.Contingency.Balance, st.hours},
		{"Remaining commitment", s.Commitments.Remaining, st.money},
	}
	row := 4
	for _, fact := range facts {
		setRow(f, sheet, row, []any{fact.label, fact.value}, []int{st.bold, fact.style})
		row++
	}

	row++
	headers := []string{"Function", "Budget", "Actual", "Actual Cost", "Earned", "FTC", "FAC", "Variance", "PF"}
	widths := []float64{22, 12, 12, 14, 12, 12, 12, 12, 8}
	row, err := writeTable(f, sheet, st, row, headers, widths)
	if err != nil {
		return err
	}
	for _, groups := range [][]BreakdownRow{s.ByFunction, s.ByDiscipline} {
		for _, r := range groups {
			key := r.Key
			if key == "" {
				key = "(none)"
			}
			setRow(f, sheet, row,
				[]any{key, r.Budget, r.Actual, r.ActualCost, r.Earned, r.FTC, r.FAC, r.Variance, r.Performance},
				[]int{st.bold, st.hours, st.hours, st.money, st.hours, st.hours, st.hours, st.hours, st.money})
			row++
		}
		row++
	}
	return nil
}

func writeDeliverablesSheet(f *excelize.File, st workbookStyles, p ProgressReport) error {
	sheet := SheetDeliverables
	headers := []string{"WBS", "Deliverable", "Function", "Discipline", "Status", "Budget", "Earned", "% Complete", "Actual", "FTC"}
	widths := []float64{10, 40, 14, 12, 16, 12, 12, 12, 12, 12}
	row, err := writeTable(f, sheet, st, 1, headers, widths)
	if err != nil {
		return err
	}
	for _, r := range p.Rows {
		d := r.Deliverable
		name := strings.Repeat("  ", r.Depth) + d.Name
		style := st.row
		if len(r.Children) > 0 {
			style = st.bold
		}
		setRow(f, sheet, row,
			[]any{d.WBSCode, name, d.Function, d.Discipline, r.Status,
				r.RolledBudget, r.RolledEarned, r.PercentComplete, r.RolledActual, r.RolledFTC},
			[]int{style, style, style, style, style, st.hours, st.hours, st.hours, st.hours, st.hours})
		row++
	}
	setRow(f, sheet, row+1,
		[]any{"", "Total", "", "", "", p.Budget, p.Earned, "", p.Actual, p.FTC},
		[]int{st.bold, st.bold, st.bold, st.bold, st.bold, st.hours, st.hours, st.bold, st.hours, st.hours})
	return nil
}

func writeSpendSheet(f *excelize.File, st workbookStyles, spend []SpendRow) error {
	sheet := SheetWeeklySpend
	headers := []string{"Week Ending", "Function", "Discipline", "Hours", "Cost"}
	widths := []float64{14, 16, 12, 12, 14}
	row, err := writeTable(f, sheet, st, 1, headers, widths)
	if err != nil {
		return err
	}
	for _, r := range spend {
		setRow(f, sheet, row,
			[]any{r.WeekEnding, r.Function, r.Discipline, r.Hours, r.Cost},
			[]int{st.row, st.row, st.row, st.hours, st.money})
		row++
	}
	return nil
}

func writeSnapshotsSheet(f *excelize.File, st workbookStyles, snapshots []Snapshot) error {
	sheet := SheetSnapshots
	headers := []string{"Week Ending", "Budget", "Actual", "Actual Cost", "Earned", "Deliverable FTC", "Manning FTC", "Variance", "Contingency"}
	widths := []float64{14, 12, 12, 14, 12, 16, 14, 12, 14}
	row, err := writeTable(f, sheet, st, 1, headers, widths)
	if err != nil {
		return err
	}
	for _, s := range snapshots {
		setRow(f, sheet, row,
			[]any{s.WeekEnding, s.BudgetHours, s.ActualHours, s.ActualCost, s.EarnedHours,
				s.DeliverableFTC, s.ManningFTC, s.Variance, s.ContingencyBalance},
			[]int{st.row, st.hours, st.hours, st.money, st.hours, st.hours, st.hours, st.hours, st.hours})
		row++
	}
	return nil
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous leading
// characters with a single quote. Excel interprets cells starting with =, +, -,
// @, \t or \r as formulas, which can be abused for code execution or data theft.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

// thinBorders returns a slice of excelize.Border for thin borders on all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{
			Type:  side,
			Color: "#000000",
			Style: 1, // thin
		}
	}
	return borders
}
