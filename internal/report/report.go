// Package report renders project and allocation data as Excel workbooks.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/UnknownOlympus/talentfit/internal/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ErrNoRows is returned when a report is requested for an empty data set.
var ErrNoRows = errors.New("failed to generate report, 0 rows were provided")

const (
	dateLayout     = "02.01.2006"
	maxSheetName   = 31
	headerRowIndex = 1
	openEnded      = "Open-ended"
	budgetNumFmt   = 4 // #,##0.00
)

// ProjectRow is one project line of the portfolio report.
type ProjectRow struct {
	ID        int64
	Name      string
	Client    string
	Status    models.ProjectStatus
	Priority  models.Priority
	StartDate time.Time
	EndDate   time.Time
	TeamSize  string // "allocated/required"
	Need      string
	Budget    decimal.NullDecimal
}

// AllocationRow is one employee line of an allocation roster.
type AllocationRow struct {
	EmployeeID     int64
	EmployeeName   string
	AllocationType models.AllocationType
	StartDate      time.Time
	EndDate        *time.Time
	Conflicts      []string
}

// Generator holds the workbook being built.
type Generator struct {
	file *excelize.File
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{
		file: excelize.NewFile(),
	}
}

type column struct {
	header string
	width  float64
}

var projectColumns = []column{
	{"Project ID", 12}, {"Name", 35}, {"Client", 25}, {"Priority", 12}, {"Start Date", 14},
	{"End Date", 14}, {"Team", 10}, {"Staffing", 18}, {"Budget", 16},
}

var allocationColumns = []column{
	{"Employee ID", 12}, {"Employee", 30}, {"Type", 12}, {"Start Date", 14}, {"End Date", 14}, {"Conflicts", 60},
}

// GenerateProjectsReport builds the portfolio workbook: one sheet per project status,
// known statuses first in display order, each with a styled header and a table.
func GenerateProjectsReport(rows []ProjectRow) (*bytes.Buffer, error) {
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	rowsByStatus := make(map[models.ProjectStatus][]ProjectRow)
	for _, row := range rows {
		rowsByStatus[row.Status] = append(rowsByStatus[row.Status], row)
	}

	gen := NewGenerator()
	defer gen.file.Close()

	for _, status := range statusOrder(rowsByStatus) {
		statusRows := rowsByStatus[status]
		sheetName := sheetName(string(status))

		data := make([][]any, 0, len(statusRows))
		for _, row := range statusRows {
			data = append(data, []any{
				row.ID,
				row.Name,
				row.Client,
				string(row.Priority),
				row.StartDate.Format(dateLayout),
				row.EndDate.Format(dateLayout),
				row.TeamSize,
				row.Need,
				budgetValue(row.Budget),
			})
		}

		if err := gen.addSheet(sheetName, projectColumns, data); err != nil {
			return nil, err
		}
		if err := gen.formatColumn(sheetName, len(projectColumns), len(data), budgetNumFmt); err != nil {
			return nil, err
		}
	}

	return gen.finish()
}

// GenerateAllocationReport builds the roster of one project: a summary sheet and an
// allocation table with the conflicts of every employee.
func GenerateAllocationReport(project models.Project, rows []AllocationRow) (*bytes.Buffer, error) {
	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	gen := NewGenerator()
	defer gen.file.Close()

	data := make([][]any, 0, len(rows))
	for _, row := range rows {
		end := openEnded
		if row.EndDate != nil {
			end = row.EndDate.Format(dateLayout)
		}
		data = append(data, []any{
			row.EmployeeID,
			row.EmployeeName,
			string(row.AllocationType),
			row.StartDate.Format(dateLayout),
			end,
			strings.Join(row.Conflicts, "; "),
		})
	}

	if err := gen.addSheet("Allocations", allocationColumns, data); err != nil {
		return nil, err
	}
	if err := gen.addSummary(project); err != nil {
		return nil, err
	}

	return gen.finish()
}

// addSheet creates a sheet with a styled header, the data rows and a table over them.
func (g *Generator) addSheet(name string, columns []column, data [][]any) error {
	if _, err := g.file.NewSheet(name); err != nil {
		return fmt.Errorf("failed to generate new sheet '%s': %w", name, err)
	}

	if err := g.setupHeader(name, columns); err != nil {
		return fmt.Errorf("failed to setup sheet '%s': %w", name, err)
	}

	for i, values := range data {
		rowNum := i + headerRowIndex + 1
		cell, _ := excelize.CoordinatesToCellName(1, rowNum)
		if err := g.file.SetSheetRow(name, cell, &values); err != nil {
			return fmt.Errorf("failed to add row '%d': %w", rowNum, err)
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(columns))
	if err := g.file.AddTable(name, &excelize.Table{
		Range:     fmt.Sprintf("A1:%s%d", lastCol, len(data)+headerRowIndex),
		Name:      tableName(name),
		StyleName: "TableStyleMedium9",
	}); err != nil {
		return fmt.Errorf("failed to add table: %w", err)
	}

	return nil
}

func (g *Generator) setupHeader(sheet string, columns []column) error {
	headerStyle, err := g.file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Vertical: "center", Horizontal: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create new style: %w", err)
	}

	headers := make([]any, 0, len(columns))
	for _, col := range columns {
		headers = append(headers, col.header)
	}

	const rowHeight = 20
	if err = g.file.SetRowHeight(sheet, headerRowIndex, rowHeight); err != nil {
		return fmt.Errorf("failed to set row height for headers: %w", err)
	}
	if err = g.file.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("failed to set sheet row for headers: %w", err)
	}

	lastCol, _ := excelize.ColumnNumberToName(len(columns))
	if err = g.file.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return fmt.Errorf("failed to set cell style for headers: %w", err)
	}

	for i, col := range columns {
		name, _ := excelize.ColumnNumberToName(i + 1)
		if err = g.file.SetColWidth(sheet, name, name, col.width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	return nil
}

// formatColumn applies a built-in number format to the data cells of one column.
func (g *Generator) formatColumn(sheet string, col, rowCount, numFmt int) error {
	style, err := g.file.NewStyle(&excelize.Style{NumFmt: numFmt})
	if err != nil {
		return fmt.Errorf("failed to create number style: %w", err)
	}
	first, _ := excelize.CoordinatesToCellName(col, headerRowIndex+1)
	last, _ := excelize.CoordinatesToCellName(col, rowCount+headerRowIndex)
	if err = g.file.SetCellStyle(sheet, first, last, style); err != nil {
		return fmt.Errorf("failed to set number style: %w", err)
	}
	return nil
}

func (g *Generator) addSummary(project models.Project) error {
	const sheet = "Project"
	if _, err := g.file.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to generate new sheet '%s': %w", sheet, err)
	}

	summary := [][]any{
		{"Project", project.Name},
		{"Client", project.ClientName},
		{"Status", string(project.Status)},
		{"Start Date", project.StartDate.Format(dateLayout)},
		{"End Date", project.EndDate.Format(dateLayout)},
		{"Required Seats", project.RequiredSeats},
		{"Budget", budgetValue(project.Budget)},
	}
	for i, values := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := g.file.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to add summary row '%d': %w", i+1, err)
		}
	}
	if err := g.file.SetColWidth(sheet, "A", "A", 18); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}
	return g.file.SetColWidth(sheet, "B", "B", 40)
}

// finish activates the first sheet, drops the default one and serializes the workbook.
func (g *Generator) finish() (*bytes.Buffer, error) {
	if sheetIndex, _ := g.file.GetSheetIndex("Sheet1"); sheetIndex != -1 {
		if err := g.file.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("failed to delete default sheet 'Sheet1': %w", err)
		}
	}
	g.file.SetActiveSheet(0)

	buffer, err := g.file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write data from saved file: %w", err)
	}

	return buffer, nil
}

// statusOrder lists the present statuses, known ones in display order, unknown ones sorted.
func statusOrder(rowsByStatus map[models.ProjectStatus][]ProjectRow) []models.ProjectStatus {
	order := make([]models.ProjectStatus, 0, len(rowsByStatus))
	for _, status := range models.ProjectStatuses {
		if _, ok := rowsByStatus[status]; ok {
			order = append(order, status)
		}
	}
	var unknown []models.ProjectStatus
	for status := range rowsByStatus {
		if !slices.Contains(models.ProjectStatuses, status) {
			unknown = append(unknown, status)
		}
	}
	slices.Sort(unknown)
	return append(order, unknown...)
}

func budgetValue(budget decimal.NullDecimal) any {
	if !budget.Valid {
		return ""
	}
	return budget.Decimal.InexactFloat64()
}

// sheetName makes a valid sheet name: no reserved characters, at most 31 runes.
func sheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '-'
		}
		return r
	}, name)
	if name == "" {
		name = "Unknown"
	}
	if utf8.RuneCountInString(name) > maxSheetName {
		return string([]rune(name)[:maxSheetName])
	}
	return name
}

// tableName derives a table name from a sheet name. Table names accept letters, digits
// and underscores only.
func tableName(sheet string) string {
	var b strings.Builder
	b.WriteString("table_")
	for _, r := range sheet {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
