package report_test

import (
	"testing"
	"time"

	"github.com/UnknownOlympus/talentfit/internal/models"
	"github.com/UnknownOlympus/talentfit/internal/report"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var (
	start = time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	end   = time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC)
)

func TestGenerateProjectsReport(t *testing.T) {
	t.Parallel()

	rows := []report.ProjectRow{
		{
			ID: 1, Name: "Mobile App", Status: models.ProjectOpen, Priority: models.PriorityHigh,
			StartDate: start, EndDate: end, TeamSize: "0/5", Need: "5 more needed",
			Budget: decimal.NewNullDecimal(decimal.RequireFromString("250000")),
		},
		{ID: 2, Name: "Legacy CRM", Status: models.ProjectClosed, StartDate: start, EndDate: end},
		{ID: 3, Name: "Data Dashboard", Status: models.ProjectOpen, StartDate: start, EndDate: end},
		{ID: 4, Name: "Archive", Status: "Archived", StartDate: start, EndDate: end},
	}

	t.Run("successful report generation", func(t *testing.T) {
		t.Parallel()
		buffer, err := report.GenerateProjectsReport(rows)
		require.NoError(t, err)
		require.NotNil(t, buffer)

		f, err := excelize.OpenReader(buffer)
		require.NoError(t, err)
		defer f.Close()

		assert.Equal(t, []string{"Open", "Closed", "Archived"}, f.GetSheetList())

		header, err := f.GetCellValue("Open", "A1")
		require.NoError(t, err)
		assert.Equal(t, "Project ID", header)

		budgetHeader, err := f.GetCellValue("Open", "I1")
		require.NoError(t, err)
		assert.Equal(t, "Budget", budgetHeader)

		name, err := f.GetCellValue("Open", "B3")
		require.NoError(t, err)
		assert.Equal(t, "Data Dashboard", name)

		team, err := f.GetCellValue("Open", "G2")
		require.NoError(t, err)
		assert.Equal(t, "0/5", team)

		budget, err := f.GetCellValue("Open", "I2", excelize.Options{RawCellValue: true})
		require.NoError(t, err)
		assert.Equal(t, "250000", budget)

		noBudget, err := f.GetCellValue("Open", "I3")
		require.NoError(t, err)
		assert.Empty(t, noBudget)

		startCell, err := f.GetCellValue("Closed", "E2")
		require.NoError(t, err)
		assert.Equal(t, "01.07.2024", startCell)
	})

	t.Run("no rows", func(t *testing.T) {
		t.Parallel()
		buffer, err := report.GenerateProjectsReport(nil)

		require.ErrorIs(t, err, report.ErrNoRows)
		assert.Nil(t, buffer)
	})
}

func TestGenerateAllocationReport(t *testing.T) {
	t.Parallel()

	project := models.Project{
		Name: "Mobile App", Status: models.ProjectOpen, StartDate: start, EndDate: end, RequiredSeats: 5,
	}
	rows := []report.AllocationRow{
		{
			EmployeeID: 1, EmployeeName: "Sarah Chen", AllocationType: models.AllocationFullTime,
			StartDate: start, EndDate: &end,
			Conflicts: []string{"Data Dashboard (01.06.2024 - 15.07.2024)", "Legacy CRM (Open-ended)"},
		},
		{EmployeeID: 8, EmployeeName: "Maria Garcia", AllocationType: models.AllocationFullTime, StartDate: start},
	}

	t.Run("successful report generation", func(t *testing.T) {
		t.Parallel()
		buffer, err := report.GenerateAllocationReport(project, rows)
		require.NoError(t, err)

		f, err := excelize.OpenReader(buffer)
		require.NoError(t, err)
		defer f.Close()

		assert.Equal(t, []string{"Allocations", "Project"}, f.GetSheetList())

		conflicts, err := f.GetCellValue("Allocations", "F2")
		require.NoError(t, err)
		assert.Equal(t, "Data Dashboard (01.06.2024 - 15.07.2024); Legacy CRM (Open-ended)", conflicts)

		openEnd, err := f.GetCellValue("Allocations", "E3")
		require.NoError(t, err)
		assert.Equal(t, "Open-ended", openEnd)

		name, err := f.GetCellValue("Project", "B1")
		require.NoError(t, err)
		assert.Equal(t, "Mobile App", name)
	})

	t.Run("no rows", func(t *testing.T) {
		t.Parallel()
		_, err := report.GenerateAllocationReport(project, nil)
		require.ErrorIs(t, err, report.ErrNoRows)
	})
}
