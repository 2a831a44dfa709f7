package services

import (
	"testing"

	"github.com/xuri/excelize/v2"
)

func sampleExportData() ExportData {
	parent := &Node{
		Deliverable:  Deliverable{ID: "d1", WBSCode: "1", Name: "Process Design", Function: FunctionEngineering, Discipline: "ME"},
		Children:     []string{"d2"},
		RolledBudget: 150, RolledEarned: 90, RolledFTC: 60, RolledActual: 80,
		PercentComplete: 60,
	}
	child := &Node{
		Deliverable:  Deliverable{ID: "d2", ParentID: "d1", WBSCode: "1.1", Name: "=P&ID set", Function: FunctionDrafting, Discipline: "CAD"},
		Depth:        1,
		RolledBudget: 50, RolledEarned: 40, RolledFTC: 10, RolledActual: 30,
		PercentComplete: 80,
	}
	return ExportData{
		Title: "P-1001 Test Plant",
		AsOf:  "2025-03-08",
		Summary: ProjectSummary{
			BudgetHours: 150,
			ActualHours: 80,
			EarnedHours: 90,
			ByFunction: []BreakdownRow{
				{Key: FunctionEngineering, Budget: 100, Actual: 50, FTC: 50, FAC: 100, Performance: 1},
			},
		},
		Progress: ProgressReport{
			Rows: []DeliverableProgress{
				{Node: parent, Mode: "gated", Status: "in_progress"},
				{Node: child, Mode: "measured", Status: "in_progress"},
			},
			Budget: 150, Earned: 90, FTC: 60, Actual: 80,
		},
		Spend: []SpendRow{
			{WeekEnding: "2025-03-01", Function: FunctionEngineering, Discipline: "ME", Hours: 40, Cost: 6000},
			{WeekEnding: "2025-03-08", Function: FunctionDrafting, Discipline: "CAD", Hours: 30, Cost: 3300},
		},
		Snapshots: []Snapshot{
			{WeekEnding: "2025-03-01", BudgetHours: 150, EarnedHours: 60},
		},
	}
}

func TestGenerateWorkbook_Sheets(t *testing.T) {
	result, err := GenerateWorkbook(sampleExportData())
	if err != nil {
		t.Fatalf("GenerateWorkbook() error = %v", err)
	}
	if len(result) == 0 {
		t.Fatal("GenerateWorkbook() returned empty bytes")
	}

	f, err := excelize.OpenReader(bytesReader(result))
	if err != nil {
		t.Fatalf("result is not valid Excel: %v", err)
	}
	defer f.Close()

	want := []string{SheetSummary, SheetDeliverables, SheetWeeklySpend, SheetSnapshots}
	got := f.GetSheetList()
	if len(got) != len(want) {
		t.Fatalf("sheets = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sheet %d = %q, want %q", i, got[i], want[i])
		}
	}

	title, _ := f.GetCellValue(SheetSummary, "A1")
	if title != "P-1001 Test Plant" {
		t.Errorf("title = %q, want %q", title, "P-1001 Test Plant")
	}
}

func TestGenerateWorkbook_DeliverableIndentAndSanitize(t *testing.T) {
	result, err := GenerateWorkbook(sampleExportData())
	if err != nil {
		t.Fatalf("GenerateWorkbook() error = %v", err)
	}
	f, err := excelize.OpenReader(bytesReader(result))
	if err != nil {
		t.Fatalf("result is not valid Excel: %v", err)
	}
	defer f.Close()

	parent, _ := f.GetCellValue(SheetDeliverables, "B2")
	if parent != "Process Design" {
		t.Errorf("parent name = %q, want %q", parent, "Process Design")
	}
	child, _ := f.GetCellValue(SheetDeliverables, "B3")
	if child != "  =P&ID set" {
		t.Errorf("child name = %q, want indented name", child)
	}
	budget, _ := f.GetCellValue(SheetDeliverables, "F2", excelize.Options{RawCellValue: true})
	if budget != "150" {
		t.Errorf("parent budget = %q, want %q", budget, "150")
	}
}

func TestGenerateWorkbook_SpendRows(t *testing.T) {
	result, err := GenerateWorkbook(sampleExportData())
	if err != nil {
		t.Fatalf("GenerateWorkbook() error = %v", err)
	}
	f, err := excelize.OpenReader(bytesReader(result))
	if err != nil {
		t.Fatalf("result is not valid Excel: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetWeeklySpend)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("spend rows = %d, want header + 2", len(rows))
	}
	if rows[2][0] != "2025-03-08" || rows[2][2] != "CAD" {
		t.Errorf("second spend row = %v", rows[2])
	}
}

func TestGenerateWorkbook_Empty(t *testing.T) {
	result, err := GenerateWorkbook(ExportData{Title: "Empty"})
	if err != nil {
		t.Fatalf("GenerateWorkbook() error = %v", err)
	}
	if len(result) == 0 {
		t.Fatal("GenerateWorkbook() returned empty bytes")
	}
}

func TestSanitizeExcelCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty string", "", ""},
		{"normal text", "Hello", "Hello"},
		{"starts with equals", "=SUM(A1:A10)", "'=SUM(A1:A10)"},
		{"starts with plus", "+1234", "'+1234"},
		{"starts with minus", "-100", "'-100"},
		{"starts with at", "@import", "'@import"},
		{"starts with tab", "\tdata", "'\tdata"},
		{"starts with pipe", "|command", "'|command"},
		{"starts with carriage return", "\rdata", "'\rdata"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sanitizeExcelCell(tt.input)
			if got != tt.want {
				t.Errorf("sanitizeExcelCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestThinBorders(t *testing.T) {
	borders := thinBorders()
	if len(borders) != 4 {
		t.Errorf("thinBorders() returned %d borders, want 4", len(borders))
	}

	sides := map[string]bool{"left": false, "top": false, "bottom": false, "right": false}
	for _, b := range borders {
		sides[b.Type] = true
		if b.Style != 1 {
			t.Errorf("border %s style = %d, want 1 (thin)", b.Type, b.Style)
		}
	}
	for side, found := range sides {
		if !found {
			t.Errorf("missing border side: %s", side)
		}
	}
}
