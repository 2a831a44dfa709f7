package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// ImportRowError is a single field-level problem on one row of an uploaded
// timesheet file. Row is the spreadsheet row number, header included.
type ImportRowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ImportResult is the outcome of parsing an uploaded timesheet file.
type ImportResult struct {
	FileName  string           `json:"file_name"`
	BatchID   string           `json:"batch_id"`
	TotalRows int              `json:"total_rows"`
	ValidRows int              `json:"valid_rows"`
	ErrorRows int              `json:"error_rows"`
	Errors    []ImportRowError `json:"errors"`
	Entries   []TimesheetInput `json:"-"`
}

// OK reports whether every row parsed cleanly.
func (r *ImportResult) OK() bool { return len(r.Errors) == 0 }

// timesheetColumn describes one recognised upload column. Aliases are
// matched case-insensitively after trimming and include the bracketed
// headers of a Workflow Max time export.
type timesheetColumn struct {
	Key      string
	Label    string
	Aliases  []string
	Required bool
}

var timesheetColumns = []timesheetColumn{
	{Key: "date", Label: "Date", Aliases: []string{"date", "work date", "[time] date"}, Required: true},
	{Key: "staff_name", Label: "Staff", Aliases: []string{"staff", "staff name", "employee", "name", "[staff] name"}, Required: true},
	{Key: "task_name", Label: "Task", Aliases: []string{"task", "task name", "activity", "[job task] name"}},
	{Key: "hours", Label: "Hours", Aliases: []string{"hours", "hrs", "time", "[time] time"}, Required: true},
	{Key: "function", Label: "Function", Aliases: []string{"function"}},
	{Key: "discipline", Label: "Discipline", Aliases: []string{"discipline"}},
	{Key: "position", Label: "Position", Aliases: []string{"position", "role"}},
	{Key: "deliverable", Label: "Deliverable", Aliases: []string{"deliverable", "deliverable id"}},
}

// importDateLayouts are the date formats accepted in uploaded files, tried in
// order. Day-first slashes match the timesheet system's export.
var importDateLayouts = []string{DateLayout, "2/1/2006", "02/01/2006", "2-Jan-06", "2 Jan 2006"}

// ImportBatchID derives a stable batch id from file contents so re-uploading
// the same file is recognised as a duplicate batch.
func ImportBatchID(content []byte) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, content).String()
}

// ParseTimesheetFile parses an uploaded .csv or .xlsx timesheet export. A
// file-level problem (format, missing columns) is returned as an error; row
// problems are collected in the result so they can be reported together.
func ParseTimesheetFile(content []byte, fileName string) (*ImportResult, error) {
	var headers []string
	var dataRows [][]string
	var err error

	lowerName := strings.ToLower(fileName)
	switch {
	case strings.HasSuffix(lowerName, ".csv"):
		headers, dataRows, err = parseCSV(bytes.NewReader(content))
	case strings.HasSuffix(lowerName, ".xlsx"):
		headers, dataRows, err = parseExcel(bytes.NewReader(content))
	default:
		return nil, fmt.Errorf("%w: unsupported file format: must be .csv or .xlsx", ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	columnKeys, _ := mapHeadersToColumns(headers)
	present := make(map[string]bool, len(columnKeys))
	for _, k := range columnKeys {
		present[k] = true
	}
	var missing []string
	for _, c := range timesheetColumns {
		if c.Required && !present[c.Key] {
			missing = append(missing, c.Label)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required columns: %s", ErrValidation, strings.Join(missing, ", "))
	}

	result := &ImportResult{
		FileName: fileName,
		BatchID:  ImportBatchID(content),
	}
	errorRows := map[int]bool{}
	for rowIdx, row := range dataRows {
		rowNum := rowIdx + 2
		data := make(map[string]string, len(columnKeys))
		blank := true
		for colIdx, key := range columnKeys {
			if key == "" || colIdx >= len(row) {
				continue
			}
			v := strings.TrimSpace(row[colIdx])
			if v != "" {
				blank = false
			}
			data[key] = v
		}
		if blank {
			continue
		}
		result.TotalRows++

		in, rowErrs := timesheetInputFromRow(rowNum, data)
		if len(rowErrs) > 0 {
			result.Errors = append(result.Errors, rowErrs...)
			errorRows[rowNum] = true
			continue
		}
		result.Entries = append(result.Entries, in)
	}
	result.ErrorRows = len(errorRows)
	result.ValidRows = result.TotalRows - result.ErrorRows
	if result.TotalRows == 0 {
		return nil, fmt.Errorf("%w: file contains no timesheet rows", ErrValidation)
	}
	return result, nil
}

// timesheetInputFromRow converts one mapped row, reporting every problem on
// it rather than stopping at the first.
func timesheetInputFromRow(rowNum int, data map[string]string) (TimesheetInput, []ImportRowError) {
	var errs []ImportRowError
	in := TimesheetInput{
		StaffName:     data["staff_name"],
		TaskName:      data["task_name"],
		Function:      strings.ToUpper(data["function"]),
		Discipline:    data["discipline"],
		Position:      data["position"],
		DeliverableID: data["deliverable"],
	}

	if raw := data["date"]; raw != "" {
		d, ok := parseImportDate(raw)
		if !ok {
			errs = append(errs, ImportRowError{Row: rowNum, Field: "Date", Message: fmt.Sprintf("unrecognised date %q", raw)})
		}
		in.Date = d
	}
	if raw := data["hours"]; raw != "" {
		h, err := parseImportHours(raw)
		if err != nil {
			errs = append(errs, ImportRowError{Row: rowNum, Field: "Hours", Message: fmt.Sprintf("hours %q is not a number", raw)})
		}
		in.Hours = h
	} else {
		errs = append(errs, ImportRowError{Row: rowNum, Field: "Hours", Message: "Hours is required"})
	}
	if len(errs) > 0 {
		return in, errs
	}

	var verrs validation.Errors
	if err := in.Validate(); errors.As(err, &verrs) {
		for _, key := range sortedKeys(verrs) {
			errs = append(errs, ImportRowError{Row: rowNum, Field: columnLabel(key), Message: verrs[key].Error()})
		}
	} else if err != nil {
		errs = append(errs, ImportRowError{Row: rowNum, Message: err.Error()})
	}
	return in, errs
}

func parseImportDate(s string) (string, bool) {
	for _, layout := range importDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return FormatDate(t), true
		}
	}
	return s, false
}

// parseImportHours reads decimal hours or an H:MM / H:MM:SS duration.
func parseImportHours(s string) (float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) == 1 {
		return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	}
	if len(parts) > 3 {
		return 0, fmt.Errorf("bad duration %q", s)
	}
	var hours float64
	scale := 1.0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("bad duration %q", s)
		}
		hours += float64(n) / scale
		scale *= 60
	}
	return hours, nil
}

func columnLabel(key string) string {
	for _, c := range timesheetColumns {
		if c.Key == key {
			return c.Label
		}
	}
	return key
}

func sortedKeys(m validation.Errors) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// parseCSV reads a CSV file and returns headers + data rows.
func parseCSV(file io.Reader) ([]string, [][]string, error) {
	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	allRows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(allRows) < 2 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}
	return allRows[0], allRows[1:], nil
}

// parseExcel reads an xlsx file and returns headers + data rows from the first sheet.
func parseExcel(file io.Reader) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("file must contain a header row and at least one data row")
	}
	return rows[0], rows[1:], nil
}

// mapHeadersToColumns maps uploaded column headers to timesheet column keys.
// Returns one key per header ("" when unrecognised) and the unrecognised
// headers.
func mapHeadersToColumns(headers []string) ([]string, []string) {
	aliasToKey := make(map[string]string)
	for _, c := range timesheetColumns {
		for _, a := range c.Aliases {
			aliasToKey[a] = c.Key
		}
	}

	mapped := make([]string, len(headers))
	var unrecognized []string
	for i, h := range headers {
		norm := strings.ToLower(strings.TrimSpace(h))
		norm = strings.TrimSpace(strings.TrimSuffix(norm, " *"))
		if key, ok := aliasToKey[norm]; ok {
			mapped[i] = key
		} else {
			unrecognized = append(unrecognized, h)
		}
	}
	return mapped, unrecognized
}

// GenerateErrorReport creates a downloadable .xlsx file listing row errors.
func GenerateErrorReport(errs []ImportRowError) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Errors"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DC2626"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	f.SetCellValue(sheet, "A1", "Row #")
	f.SetCellValue(sheet, "B1", "Field")
	f.SetCellValue(sheet, "C1", "Error")
	f.SetCellStyle(sheet, "A1", "C1", headerStyle)
	f.SetColWidth(sheet, "A", "A", 8)
	f.SetColWidth(sheet, "B", "B", 22)
	f.SetColWidth(sheet, "C", "C", 55)

	for i, e := range errs {
		row := strconv.Itoa(i + 2)
		f.SetCellValue(sheet, "A"+row, e.Row)
		f.SetCellValue(sheet, "B"+row, sanitizeExcelCell(e.Field))
		f.SetCellValue(sheet, "C"+row, sanitizeExcelCell(e.Message))
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write error report: %w", err)
	}
	return buf.Bytes(), nil
}
