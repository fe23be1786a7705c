package profile_test

import (
	"testing"
	"time"

	"github.com/UnknownOlympus/talentfit/internal/models"
	"github.com/UnknownOlympus/talentfit/internal/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() profile.Form {
	return profile.Form{
		Geo:               "Europe",
		Skills:            []string{"Go", "PostgreSQL"},
		YearsOfExperience: 6,
		Industry:          "Fintech",
		EmploymentType:    profile.EmploymentFullTime,
		DateOfJoining:     "2021-03-01",
	}
}

func TestFormValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutate   func(f *profile.Form)
		expected map[string]string
	}{
		{name: "valid", mutate: func(*profile.Form) {}},
		{name: "missing geo", mutate: func(f *profile.Form) { f.Geo = "" }, expected: map[string]string{"geo": "is required"}},
		{name: "no skills", mutate: func(f *profile.Form) { f.Skills = nil }, expected: map[string]string{"skills": "is required"}},
		{name: "blank skill", mutate: func(f *profile.Form) { f.Skills = []string{"Go", ""} }, expected: map[string]string{"skills": "is required"}},
		{
			name:     "too many years",
			mutate:   func(f *profile.Form) { f.YearsOfExperience = 61 },
			expected: map[string]string{"years_of_experience": "must be between 0 and 60"},
		},
		{
			name:     "employment type",
			mutate:   func(f *profile.Form) { f.EmploymentType = "Intern" },
			expected: map[string]string{"employment_type": "must be one of: Full-time, Contract"},
		},
		{
			name:     "bad joining date",
			mutate:   func(f *profile.Form) { f.DateOfJoining = "01/03/2021" },
			expected: map[string]string{"date_of_joining": "must be a date like 2024-01-31"},
		},
		{name: "joining date optional", mutate: func(f *profile.Form) { f.DateOfJoining = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			form := validForm()
			tt.mutate(&form)
			assert.Equal(t, tt.expected, form.Validate())
		})
	}
}

func TestFromProfileAndInput(t *testing.T) {
	t.Parallel()

	joined := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	form := profile.FromProfile(models.EmployeeProfile{
		Geo:               "US-East",
		Skills:            []string{"Go"},
		YearsOfExperience: 8,
		Industry:          "Fintech",
		EmploymentType:    profile.EmploymentContract,
		AvailabilityFlag:  true,
		DateOfJoining:     &joined,
	})
	assert.Equal(t, "2021-03-01", form.DateOfJoining)

	input := form.Input()
	require.NotNil(t, input.YearsOfExperience)
	assert.Equal(t, 8, *input.YearsOfExperience)
	require.NotNil(t, input.AvailabilityFlag)
	assert.True(t, *input.AvailabilityFlag)
	assert.Equal(t, []string{"Go"}, input.Skills)
}

func TestParseAnswers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"Go", "PostgreSQL", "Docker"}, profile.ParseSkills(" Go, PostgreSQL,,Docker , go, docker"))
	assert.Nil(t, profile.ParseSkills(" , "))

	years, err := profile.ParseYears(" 7 ")
	require.NoError(t, err)
	assert.Equal(t, 7, years)
	_, err = profile.ParseYears("seven")
	require.ErrorIs(t, err, profile.ErrInvalidAnswer)

	date, err := profile.ParseDate("2024-07-01")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC), date)
	_, err = profile.ParseDate("July 1st")
	require.ErrorIs(t, err, profile.ErrInvalidAnswer)

	yes, err := profile.ParseYesNo("Yes")
	require.NoError(t, err)
	assert.True(t, yes)
	no, err := profile.ParseYesNo("ні")
	require.NoError(t, err)
	assert.False(t, no)
	_, err = profile.ParseYesNo("maybe")
	require.ErrorIs(t, err, profile.ErrInvalidAnswer)
}
