package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/UnknownOlympus/talentfit/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.DateOnly, value)
	require.NoError(t, err)
	return parsed
}

func ptr[T any](v T) *T {
	return &v
}

func TestDeriveStatus(t *testing.T) {
	t.Parallel()

	notice := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 8, 20, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		flag     bool
		notice   *time.Time
		end      *time.Time
		expected models.EmployeeStatus
	}{
		{name: "notice date wins over availability", flag: true, notice: &notice, end: &end, expected: models.StatusRollingOff},
		{name: "notice date wins over allocation", flag: false, notice: &notice, expected: models.StatusRollingOff},
		{name: "unavailable is allocated", flag: false, end: &end, expected: models.StatusAllocated},
		{name: "available without end date is bench", flag: true, expected: models.StatusBench},
		{name: "available with end date", flag: true, end: &end, expected: models.StatusAvailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, models.DeriveStatus(tt.flag, tt.notice, tt.end))
		})
	}
}

func TestSplitSkills(t *testing.T) {
	t.Parallel()

	primary, secondary := models.SplitSkills([]string{"React", "TypeScript", "Node.js", "CSS", "Tailwind"})
	assert.Equal(t, []string{"React", "TypeScript", "Node.js"}, primary)
	assert.Equal(t, []string{"CSS", "Tailwind"}, secondary)

	primary, secondary = models.SplitSkills([]string{"Go"})
	assert.Equal(t, []string{"Go"}, primary)
	assert.Empty(t, secondary)

	primary, secondary = models.SplitSkills(nil)
	assert.Empty(t, primary)
	assert.Empty(t, secondary)
}

func TestToEmployee(t *testing.T) {
	t.Parallel()

	profile := models.EmployeeProfile{
		UserID:           7,
		Geo:              "Europe",
		Skills:           []string{"Go", "PostgreSQL", "Docker", "Kubernetes"},
		AvailabilityFlag: false,
		User:             models.User{ID: 7, FirstName: "Jane", LastName: "Smith"},
	}

	employee := models.ToEmployee(profile)

	assert.Equal(t, int64(7), employee.ID())
	assert.Equal(t, models.StatusAllocated, employee.Status)
	assert.Equal(t, []string{"Kubernetes"}, employee.SecondarySkills)
	assert.Equal(t, "Jane Smith", employee.DisplayName())

	profile.User = models.User{}
	profile.Name = "J. Smith"
	assert.Equal(t, "J. Smith", models.ToEmployee(profile).DisplayName())
}

func TestProjectSeats(t *testing.T) {
	t.Parallel()

	project := models.Project{RequiredSeats: 5}
	mismatch, required, byType := project.SeatsMismatch()
	assert.False(t, mismatch)
	assert.Equal(t, 5, required)
	assert.Equal(t, 0, byType)

	project.SeatsByType = map[string]int{"Frontend": 2, "Backend": 2, "UI": 1}
	mismatch, _, byType = project.SeatsMismatch()
	assert.False(t, mismatch)
	assert.Equal(t, 5, byType)

	project.SeatsByType["Tester"] = 1
	mismatch, required, byType = project.SeatsMismatch()
	assert.True(t, mismatch)
	assert.Equal(t, 5, required)
	assert.Equal(t, 6, byType)
}

func TestProjectUrgency(t *testing.T) {
	t.Parallel()

	now := date(t, "2024-05-01")
	project := models.Project{Priority: models.PriorityHigh, StartDate: date(t, "2024-05-06")}

	assert.Equal(t, 5, project.DaysUntilStart(now))
	assert.True(t, project.IsUrgent(now))

	project.StartDate = date(t, "2024-05-20")
	assert.False(t, project.IsUrgent(now))

	project.StartDate = date(t, "2024-05-02")
	project.Priority = models.PriorityMedium
	assert.False(t, project.IsUrgent(now))
}

func TestDurationWeeks(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, models.DurationWeeks(date(t, "2024-01-01"), date(t, "2024-01-08")))
	assert.Equal(t, 2, models.DurationWeeks(date(t, "2024-01-01"), date(t, "2024-01-09")))
	assert.Equal(t, 0, models.DurationWeeks(date(t, "2024-01-09"), date(t, "2024-01-01")))
}

func TestProjectBudgetJSON(t *testing.T) {
	t.Parallel()

	var project models.Project
	require.NoError(t, json.Unmarshal([]byte(`{"id": 1, "name": "Mobile App", "budget": 500000.50}`), &project))
	assert.True(t, project.Budget.Valid)
	assert.True(t, decimal.RequireFromString("500000.5").Equal(project.Budget.Decimal))

	require.NoError(t, json.Unmarshal([]byte(`{"id": 2, "budget": null}`), &project))
	assert.False(t, project.Budget.Valid)
}

func TestAllocationIsActive(t *testing.T) {
	t.Parallel()

	now := date(t, "2024-05-01")
	alloc := models.Allocation{StartDate: date(t, "2024-01-01")}
	assert.True(t, alloc.IsActive(now))

	alloc.EndDate = ptr(date(t, "2024-04-30"))
	assert.False(t, alloc.IsActive(now))

	alloc.EndDate = ptr(date(t, "2024-05-01"))
	assert.True(t, alloc.IsActive(now))

	alloc.StartDate = date(t, "2024-06-01")
	alloc.EndDate = nil
	assert.False(t, alloc.IsActive(now))
}

func TestAllocationRequestOmitsOpenEnd(t *testing.T) {
	t.Parallel()

	req := models.AllocationRequest{
		EmployeeID:     3,
		StartDate:      date(t, "2024-07-01"),
		AllocationType: models.AllocationFullTime,
	}
	body, err := json.Marshal(req)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "end_date")
	assert.Contains(t, string(body), `"allocation_type":"Full-time"`)
}

func TestMatchBreakdown(t *testing.T) {
	t.Parallel()

	breakdown := models.MatchBreakdown{Skills: 95, Availability: 100, RoleFit: 90, Industry: 85, Geo: 90}
	assert.Equal(t, 94, breakdown.Weighted())
	assert.Equal(t, 100, models.WeightSkills+models.WeightAvailability+models.WeightRoleFit+
		models.WeightIndustry+models.WeightGeo)

	assert.Equal(t, models.ConfidenceHigh, models.ConfidenceFor(92))
	assert.Equal(t, models.ConfidenceMedium, models.ConfidenceFor(70))
	assert.Equal(t, models.ConfidenceLow, models.ConfidenceFor(69))
}

func TestSuggestion_Overall(t *testing.T) {
	t.Parallel()

	var s models.Suggestion
	require.NoError(t, json.Unmarshal([]byte(`{
		"candidate_id": 1,
		"reason": "Strong React skills",
		"breakdown": {"skills": 95, "availability": 100, "role_fit": 90, "industry": 85, "geo": 90}
	}`), &s))
	require.NotNil(t, s.Breakdown)
	assert.Equal(t, 90, s.Breakdown.RoleFit)
	assert.Equal(t, 94, s.Overall())

	s.Score = 88
	assert.Equal(t, 88, s.Overall())

	assert.Equal(t, 0, models.Suggestion{}.Overall())
}
