package bot

import (
	"testing"
	"time"

	"github.com/UnknownOlympus/talentfit/internal/models"
	"github.com/UnknownOlympus/talentfit/internal/profile"
	"github.com/UnknownOlympus/talentfit/internal/projects"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeatsByType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		answer   string
		expected map[string]int
		wantErr  bool
	}{
		{name: "empty clears", answer: "  ", expected: nil},
		{name: "equals", answer: "Frontend=2, Backend=3", expected: map[string]int{"Frontend": 2, "Backend": 3}},
		{name: "colon and case", answer: "frontend: 1,ui:2", expected: map[string]int{"Frontend": 1, "UI": 2}},
		{name: "repeated role adds up", answer: "Tester=1, tester=2", expected: map[string]int{"Tester": 3}},
		{name: "unknown role kept", answer: "DevOps=1", expected: map[string]int{"DevOps": 1}},
		{name: "trailing comma", answer: "AI=1,", expected: map[string]int{"AI": 1}},
		{name: "missing count", answer: "Frontend", wantErr: true},
		{name: "not a number", answer: "Frontend=two", wantErr: true},
		{name: "missing role", answer: "=2", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			seats, err := parseSeatsByType(tt.answer)
			if tt.wantErr {
				require.ErrorIs(t, err, profile.ErrInvalidAnswer)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, seats)
		})
	}
}

func TestSeatsByTypeText(t *testing.T) {
	t.Parallel()

	assert.Empty(t, seatsByTypeText(nil))
	assert.Equal(t, "Backend=3, Frontend=2", seatsByTypeText(map[string]int{"Frontend": 2, "Backend": 3}))
}

func TestParseBudget(t *testing.T) {
	t.Parallel()

	tests := []struct {
		answer   string
		expected string
		valid    bool
		wantErr  bool
	}{
		{answer: "250000", expected: "250000", valid: true},
		{answer: "$250,000", expected: "250000", valid: true},
		{answer: "1 200.50", expected: "1200.5", valid: true},
		{answer: "", valid: false},
		{answer: "a lot", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			t.Parallel()

			budget, err := parseBudget(tt.answer)
			if tt.wantErr {
				require.ErrorIs(t, err, profile.ErrInvalidAnswer)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.valid, budget.Valid)
			if tt.valid {
				assert.Equal(t, tt.expected, budget.Decimal.String())
			}
		})
	}
}

func TestFormatBudget(t *testing.T) {
	t.Parallel()

	assert.Equal(t, noValue, formatBudget(decimal.NullDecimal{}))
	assert.Equal(t, "$250,000", formatBudget(decimal.NewNullDecimal(decimal.NewFromInt(250000))))
	assert.Equal(t, "$1,200.50", formatBudget(decimal.NewNullDecimal(decimal.RequireFromString("1200.5"))))
	assert.Equal(t, "$999", formatBudget(decimal.NewNullDecimal(decimal.NewFromInt(999))))
	assert.Equal(t, "-$1,000", formatBudget(decimal.NewNullDecimal(decimal.NewFromInt(-1000))))
}

func TestChoiceAnswer(t *testing.T) {
	t.Parallel()

	choices := []string{"Yes", "No"}

	answer, err := choiceAnswer(choices, "1")
	require.NoError(t, err)
	assert.Equal(t, "No", answer)

	for _, data := range []string{"2", "-1", "x", ""} {
		_, err = choiceAnswer(choices, data)
		require.ErrorIs(t, err, profile.ErrInvalidAnswer, data)
	}
}

func TestRequireText(t *testing.T) {
	t.Parallel()

	text, err := requireText("  Apollo ")
	require.NoError(t, err)
	assert.Equal(t, "Apollo", text)

	_, err = requireText("   ")
	require.ErrorIs(t, err, profile.ErrInvalidAnswer)
}

func TestParseCountAndID(t *testing.T) {
	t.Parallel()

	n, err := parseCount(" 4 ")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = parseCount("four")
	require.ErrorIs(t, err, profile.ErrInvalidAnswer)

	id, err := parseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = parseID("42|x")
	require.Error(t, err)
}

func TestFirstFailing(t *testing.T) {
	t.Parallel()

	assert.Equal(t, -1, firstFailing(projectSteps, nil))
	assert.Equal(t, 5, firstFailing(projectSteps, map[string]string{"budget": "x", "start_date": "y"}))
	assert.Equal(t, -1, firstFailing(projectSteps, map[string]string{"form": "broken"}))
}

func TestStepFields(t *testing.T) {
	t.Parallel()

	fields := stepFields(projectSteps)
	assert.Equal(t, "name", fields[0])
	assert.Len(t, fields, len(projectSteps))
	assert.NotContains(t, fields, "status")

	assert.Equal(t, append(fields, "status"), editableFields)

	step, ok := stepByField(editSteps, "status")
	require.True(t, ok)
	assert.Equal(t, statusChoices(), step.Choices)

	_, ok = stepByField(projectSteps, "status")
	assert.False(t, ok)
}

func TestProjectSteps_Apply(t *testing.T) {
	t.Parallel()

	answers := map[string]string{
		"name":            "Apollo",
		"description":     "Customer portal rewrite",
		"client_name":     "Acme",
		"required_seats":  "3",
		"seats_by_type":   "Frontend=1, Backend=2",
		"start_date":      "2025-01-06",
		"end_date":        "2025-03-31",
		"priority":        "High",
		"required_skills": "Go, React",
		"role_type":       "Backend",
		"industry":        "Finance",
		"geo_preference":  "EU",
		"budget":          "$120,000",
	}

	var in projects.Input
	for _, step := range projectSteps {
		require.NoError(t, step.Apply(&in, answers[step.Field]), step.Field)
	}

	assert.Equal(t, "Apollo", in.Name)
	assert.Equal(t, 3, in.RequiredSeats)
	assert.Equal(t, map[string]int{"Frontend": 1, "Backend": 2}, in.SeatsByType)
	assert.Equal(t, time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC), in.StartDate)
	assert.Equal(t, models.PriorityHigh, in.Priority)
	assert.Equal(t, "$120,000", projectSteps[len(projectSteps)-1].Current(&in))

	priority, _ := stepByField(projectSteps, "priority")
	require.ErrorIs(t, priority.Apply(&in, "urgent"), profile.ErrInvalidAnswer)

	status, _ := stepByField(editSteps, "status")
	require.NoError(t, status.Apply(&in, "on hold"))
	assert.Equal(t, models.ProjectOnHold, in.Status)
	require.ErrorIs(t, status.Apply(&in, "archived"), profile.ErrInvalidAnswer)
}

func TestEditedProject(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	created := time.Date(2024, 12, 1, 9, 0, 0, 0, time.UTC)
	before := models.Project{
		ID:            9,
		Name:          "Apollo",
		Summary:       "portal",
		Progress:      40,
		StartDate:     start,
		EndDate:       end,
		DurationWeeks: 99,
		CreatedAt:     created,
	}

	in := projects.FromProject(before)
	in.Name = "Apollo 2"

	after := editedProject(before, in)
	assert.Equal(t, int64(9), after.ID)
	assert.Equal(t, "Apollo 2", after.Name)
	assert.Equal(t, "portal", after.Summary)
	assert.Equal(t, 40, after.Progress)
	assert.Equal(t, created, after.CreatedAt)
	assert.Equal(t, 99, after.DurationWeeks)

	in.EndDate = end.AddDate(0, 0, 7)
	after = editedProject(before, in)
	assert.Equal(t, models.DurationWeeks(start, in.EndDate), after.DurationWeeks)
}
