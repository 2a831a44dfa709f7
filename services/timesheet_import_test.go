package services

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestParseCSV_Valid(t *testing.T) {
	input := "Date,Staff,Hours\n2025-03-03,Will Smith,8\n2025-03-04,Will Smith,4\n"
	headers, rows, err := parseCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("parseCSV() error = %v", err)
	}
	if len(headers) != 3 {
		t.Errorf("expected 3 headers, got %d", len(headers))
	}
	if len(rows) != 2 {
		t.Errorf("expected 2 data rows, got %d", len(rows))
	}
}

func TestParseCSV_HeaderOnly(t *testing.T) {
	_, _, err := parseCSV(strings.NewReader("Date,Staff,Hours\n"))
	if err == nil {
		t.Fatal("expected error for header-only file")
	}
	if !strings.Contains(err.Error(), "at least one data row") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestParseCSV_Empty(t *testing.T) {
	if _, _, err := parseCSV(strings.NewReader("")); err == nil {
		t.Error("expected error for empty file")
	}
}

func TestMapHeadersToColumns(t *testing.T) {
	headers := []string{" Work Date ", "STAFF NAME", "Task", "Hrs *", "Cost Centre"}
	keys, unrecognized := mapHeadersToColumns(headers)

	want := []string{"date", "staff_name", "task_name", "hours", ""}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("column %d (%q) = %q, want %q", i, headers[i], keys[i], want[i])
		}
	}
	if len(unrecognized) != 1 || unrecognized[0] != "Cost Centre" {
		t.Errorf("unrecognized = %v, want [Cost Centre]", unrecognized)
	}
}

func TestParseImportDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2025-03-03", "2025-03-03", true},
		{"3/3/2025", "2025-03-03", true},
		{"14/03/2025", "2025-03-14", true},
		{"3-Mar-25", "2025-03-03", true},
		{"March third", "March third", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseImportDate(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("parseImportDate(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestParseImportHours(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"7.5", 7.5, false},
		{"1,200", 1200, false},
		{"7:30", 7.5, false},
		{"1:15:00", 1.25, false},
		{"0:45", 0.75, false},
		{"7:x", 0, true},
		{"1:2:3:4", 0, true},
		{"eight", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseImportHours(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseImportHours(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && !approx(got, tt.want) {
				t.Errorf("parseImportHours(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseTimesheetFile_WorkflowMaxExport(t *testing.T) {
	input := "[Time] Date,[Staff] Name,[Job Task] Name,[Time] Time,[Job] Client\n" +
		"2025-03-03,Will Smith,Pump sizing,7:30,Acme\n"
	result, err := ParseTimesheetFile([]byte(input), "wfm.csv")
	if err != nil {
		t.Fatalf("ParseTimesheetFile() error = %v", err)
	}
	if !result.OK() || len(result.Entries) != 1 {
		t.Fatalf("result = %+v", result)
	}
	got := result.Entries[0]
	if got.StaffName != "Will Smith" || got.TaskName != "Pump sizing" || !approx(got.Hours, 7.5) {
		t.Errorf("entry = %+v", got)
	}
}

func TestParseTimesheetFile_CSV(t *testing.T) {
	input := "Date,Staff,Task,Hours,Function\n" +
		"3/3/2025,Will Smith,Pump sizing,8,engineering\n" +
		",,,,\n" +
		"2025-03-04,Mark Rankin,DF markups,\"1,5\",\n"
	result, err := ParseTimesheetFile([]byte(input), "week10.CSV")
	if err != nil {
		t.Fatalf("ParseTimesheetFile() error = %v", err)
	}
	if !result.OK() {
		t.Fatalf("unexpected row errors: %+v", result.Errors)
	}
	if result.TotalRows != 2 || result.ValidRows != 2 {
		t.Errorf("rows = %d total, %d valid; want 2, 2", result.TotalRows, result.ValidRows)
	}
	first := result.Entries[0]
	if first.Date != "2025-03-03" || first.Function != FunctionEngineering || first.Hours != 8 {
		t.Errorf("first entry = %+v", first)
	}
	if result.Entries[1].Hours != 15 {
		t.Errorf("second entry hours = %v, want 15", result.Entries[1].Hours)
	}
	if result.BatchID != ImportBatchID([]byte(input)) {
		t.Errorf("batch id = %q, want content-derived id", result.BatchID)
	}
}

func TestParseTimesheetFile_RowErrors(t *testing.T) {
	input := "Date,Staff,Hours,Function\n" +
		"2025-03-03,Will Smith,eight,\n" +
		"someday,,4,\n" +
		"2025-03-05,Will Smith,-2,QA\n" +
		"2025-03-06,Will Smith,3,\n"
	result, err := ParseTimesheetFile([]byte(input), "bad.csv")
	if err != nil {
		t.Fatalf("ParseTimesheetFile() error = %v", err)
	}
	if result.OK() {
		t.Fatal("expected row errors")
	}
	if result.TotalRows != 4 || result.ErrorRows != 3 || result.ValidRows != 1 {
		t.Errorf("rows = %d total, %d errors, %d valid; want 4, 3, 1",
			result.TotalRows, result.ErrorRows, result.ValidRows)
	}
	if len(result.Entries) != 1 || result.Entries[0].Date != "2025-03-06" {
		t.Errorf("entries = %+v", result.Entries)
	}

	byRow := map[int][]string{}
	for _, e := range result.Errors {
		byRow[e.Row] = append(byRow[e.Row], e.Field)
	}
	if got := byRow[2]; len(got) != 1 || got[0] != "Hours" {
		t.Errorf("row 2 errors = %v, want [Hours]", got)
	}
	if got := byRow[3]; len(got) != 1 || got[0] != "Date" {
		t.Errorf("row 3 errors = %v, want [Date]", got)
	}
	if got := byRow[4]; len(got) != 2 || got[0] != "Function" || got[1] != "Hours" {
		t.Errorf("row 4 errors = %v, want [Function Hours]", got)
	}
}

func TestParseTimesheetFile_MissingColumns(t *testing.T) {
	_, err := ParseTimesheetFile([]byte("Staff,Task\nWill Smith,Pump sizing\n"), "x.csv")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if !strings.Contains(err.Error(), "Date") || !strings.Contains(err.Error(), "Hours") {
		t.Errorf("error should name missing columns: %v", err)
	}
}

func TestParseTimesheetFile_UnsupportedFormat(t *testing.T) {
	_, err := ParseTimesheetFile([]byte("anything"), "timesheet.pdf")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestParseTimesheetFile_Excel(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	f.SetSheetRow(sheet, "A1", &[]any{"Date", "Staff Name", "Task", "Hours"})
	f.SetSheetRow(sheet, "A2", &[]any{"2025-03-03", "Will Smith", "Pump sizing", 7.5})
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	f.Close()

	result, err := ParseTimesheetFile(buf.Bytes(), "week10.xlsx")
	if err != nil {
		t.Fatalf("ParseTimesheetFile() error = %v", err)
	}
	if !result.OK() || len(result.Entries) != 1 {
		t.Fatalf("result = %+v", result)
	}
	if got := result.Entries[0]; got.StaffName != "Will Smith" || got.Hours != 7.5 {
		t.Errorf("entry = %+v", got)
	}
}

func TestImportBatchID_Stable(t *testing.T) {
	a := ImportBatchID([]byte("Date,Staff,Hours\n2025-03-03,Will Smith,8\n"))
	b := ImportBatchID([]byte("Date,Staff,Hours\n2025-03-03,Will Smith,8\n"))
	c := ImportBatchID([]byte("Date,Staff,Hours\n2025-03-03,Will Smith,9\n"))
	if a != b {
		t.Errorf("same content gave %q and %q", a, b)
	}
	if a == c {
		t.Error("different content gave the same batch id")
	}
}

func TestParsedFileRecordsAsBatch(t *testing.T) {
	eng := newTestEngine(t)
	proj := newProject(t, eng, "IMP", 0)

	content := []byte("Date,Staff,Task,Hours\n2025-03-03,Will Smith,Pump sizing,8\n2025-03-04,Will Smith,Pump sizing,2\n")
	parsed, err := ParseTimesheetFile(content, "week10.csv")
	if err != nil {
		t.Fatalf("ParseTimesheetFile: %v", err)
	}
	res, err := eng.RecordTimesheetBatch(proj.ID, parsed.BatchID, parsed.Entries)
	if err != nil {
		t.Fatalf("RecordTimesheetBatch: %v", err)
	}
	if res.EntryCount != 2 || !approx(res.TotalCost, 10*195) {
		t.Errorf("result = %+v", res)
	}

	again, err := eng.RecordTimesheetBatch(proj.ID, parsed.BatchID, parsed.Entries)
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if !again.Duplicate {
		t.Error("re-uploading the same file should be a duplicate batch")
	}
}

func TestGenerateErrorReport_WithErrors(t *testing.T) {
	errs := []ImportRowError{
		{Row: 2, Field: "Hours", Message: `hours "eight" is not a number`},
		{Row: 3, Field: "Date", Message: "=cmd"},
	}
	result, err := GenerateErrorReport(errs)
	if err != nil {
		t.Fatalf("GenerateErrorReport() error = %v", err)
	}

	f, err := excelize.OpenReader(bytesReader(result))
	if err != nil {
		t.Fatalf("result is not valid Excel: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Errors")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[1][0] != "2" || rows[1][1] != "Hours" {
		t.Errorf("first error row = %v", rows[1])
	}
	if rows[2][2] != "'=cmd" {
		t.Errorf("message should be sanitized, got %q", rows[2][2])
	}
}

func TestGenerateErrorReport_NoErrors(t *testing.T) {
	result, err := GenerateErrorReport(nil)
	if err != nil {
		t.Fatalf("GenerateErrorReport() error = %v", err)
	}
	if len(result) == 0 {
		t.Fatal("GenerateErrorReport() returned empty bytes")
	}
}
