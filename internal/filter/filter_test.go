package filter_test

import (
	"net/url"
	"testing"

	"github.com/UnknownOlympus/talentfit/internal/filter"
	"github.com/UnknownOlympus/talentfit/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func projectIDs(projects []models.Project) []int64 {
	ids := make([]int64, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	return ids
}

func employeeIDs(employees []models.Employee) []int64 {
	ids := make([]int64, 0, len(employees))
	for _, e := range employees {
		ids = append(ids, e.ID())
	}
	return ids
}

func TestFilterProjects_SearchScenario(t *testing.T) {
	t.Parallel()

	got := filter.FilterProjects(projectFixture(), filter.ProjectCriteria{Search: "Mobile"}, nil, day("2024-05-01"))

	require.Len(t, got, 1)
	assert.Equal(t, "Mobile App", got[0].Name)
}

func TestFilterProjects_Facets(t *testing.T) {
	t.Parallel()

	now := day("2024-05-01")
	allocated := map[int64]int{1: 5, 2: 1}

	tests := []struct {
		name     string
		criteria filter.ProjectCriteria
		expected []int64
	}{
		{name: "search is case insensitive over client", criteria: filter.ProjectCriteria{Search: "finbank"}, expected: []int64{2}},
		{name: "search over role title", criteria: filter.ProjectCriteria{Search: "data engineer"}, expected: []int64{3}},
		{name: "status", criteria: filter.ProjectCriteria{Status: "Open"}, expected: []int64{1}},
		{name: "skill substring", criteria: filter.ProjectCriteria{Skill: "react"}, expected: []int64{1, 2}},
		{name: "priority", criteria: filter.ProjectCriteria{Priority: "low"}, expected: []int64{3}},
		{name: "geo", criteria: filter.ProjectCriteria{Geo: "US-West"}, expected: []int64{1, 3}},
		{name: "industry", criteria: filter.ProjectCriteria{Industry: "Finance"}, expected: []int64{2}},
		{name: "needs resources", criteria: filter.ProjectCriteria{Resource: filter.ResourceNeeds}, expected: []int64{2, 3}},
		{name: "fully allocated", criteria: filter.ProjectCriteria{Resource: filter.ResourceFull}, expected: []int64{1}},
		{name: "starting soon", criteria: filter.ProjectCriteria{Date: filter.DateStartingSoon}, expected: []int64{2}},
		{name: "active", criteria: filter.ProjectCriteria{Date: filter.DateActive}, expected: []int64{1}},
		{name: "future", criteria: filter.ProjectCriteria{Date: filter.DateFuture}, expected: []int64{2, 3}},
		{
			name:     "facets are combined",
			criteria: filter.ProjectCriteria{Geo: "US-West", Resource: filter.ResourceNeeds},
			expected: []int64{3},
		},
		{
			name:     "sentinels pass",
			criteria: filter.ProjectCriteria{Status: "all_status", Priority: "all_priority", Date: "all_dates"},
			expected: []int64{1, 2, 3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := filter.FilterProjects(projectFixture(), tt.criteria, allocated, now)
			assert.Equal(t, tt.expected, projectIDs(got))
		})
	}
}

func TestFilterProjects_Properties(t *testing.T) {
	t.Parallel()

	now := day("2024-05-01")
	projects := projectFixture()
	before := projectFixture()

	criteria := []filter.ProjectCriteria{
		{},
		{Search: "a"},
		{Status: "Planning", Skill: "go"},
		{Resource: filter.ResourceNeeds, Date: filter.DateFuture},
		{Geo: "Nowhere"},
	}

	for _, c := range criteria {
		once := filter.FilterProjects(projects, c, nil, now)
		twice := filter.FilterProjects(once, c, nil, now)

		assert.Subset(t, projectIDs(projects), projectIDs(once))
		assert.Equal(t, once, twice, "filtering is idempotent")
	}

	identity := filter.FilterProjects(projects, filter.ProjectCriteria{}, nil, now)
	assert.ElementsMatch(t, projects, identity)
	assert.Equal(t, before, projects, "input is not mutated")
}

func TestProjectCriteria_Query(t *testing.T) {
	t.Parallel()

	criteria := filter.ProjectCriteria{Search: "Mobile", Status: "all_status", Priority: "medium"}

	query := criteria.Query()
	assert.Equal(t, "priority=medium&search=Mobile", query.Encode())
	assert.Equal(t, 2, criteria.ActiveCount())

	restored := filter.ParseProjectCriteria(query)
	assert.Equal(t, filter.ProjectCriteria{Search: "Mobile", Priority: "medium"}, restored)

	parsed, err := url.ParseQuery("status=Open&date=all_dates&unknown=x")
	require.NoError(t, err)
	assert.Equal(t, filter.ProjectCriteria{Status: "Open"}, filter.ParseProjectCriteria(parsed))

	cleared, notice := restored.Clear()
	assert.Equal(t, filter.ProjectCriteria{}, cleared)
	assert.Equal(t, "All filters cleared", notice)
	assert.Empty(t, cleared.Query())
}

func TestProjectCriteria_With(t *testing.T) {
	t.Parallel()

	criteria := filter.ProjectCriteria{}.With(filter.FacetSkill, "  Go ").With("unknown", "x")
	assert.Equal(t, "Go", criteria.Skill)
	assert.Equal(t, "Go", criteria.Get(filter.FacetSkill))
	assert.Empty(t, criteria.Get("unknown"))
}

func TestOptionsForProjects(t *testing.T) {
	t.Parallel()

	options := filter.OptionsForProjects(projectFixture())
	assert.Equal(t, []string{"Go", "PostgreSQL", "Python", "React", "React Native", "TypeScript"}, options.Skills)
	assert.Equal(t, []string{"Europe", "US-West"}, options.Geos)
	assert.Equal(t, []string{"E-commerce", "Finance", "Technology"}, options.Industries)
}

func TestSortProjects(t *testing.T) {
	t.Parallel()

	projects := projectFixture()

	assert.Equal(t, []int64{3, 1, 2}, projectIDs(filter.SortProjects(projects, filter.SortByName)))
	assert.Equal(t, []int64{1, 2, 3}, projectIDs(filter.SortProjects(projects, filter.SortByStart)))
	assert.Equal(t, []int64{1, 2, 3}, projectIDs(filter.SortProjects(projects, filter.SortByPriority)))
	assert.Equal(t, []int64{1, 2, 3}, projectIDs(filter.SortProjects(projects, "unknown")))
	assert.Equal(t, []int64{1, 2, 3}, projectIDs(projects))
}

func TestFilterEmployees_StatusScenario(t *testing.T) {
	t.Parallel()

	got := filter.FilterEmployees(employeeFixture(), filter.EmployeeCriteria{Status: "available"}, nil)
	assert.Equal(t, []int64{1, 8}, employeeIDs(got))
}

func TestFilterEmployees_Facets(t *testing.T) {
	t.Parallel()

	allocations := []models.Allocation{
		{ProjectID: 2, EmployeeID: 1},
		{ProjectID: 3, EmployeeID: 8},
	}

	tests := []struct {
		name     string
		criteria filter.EmployeeCriteria
		expected []int64
	}{
		{name: "no criteria", criteria: filter.EmployeeCriteria{}, expected: []int64{1, 2, 3, 4, 5, 6, 7, 8}},
		{name: "search by name", criteria: filter.EmployeeCriteria{Search: "john"}, expected: []int64{1, 3}},
		{name: "search by skill", criteria: filter.EmployeeCriteria{Search: "python"}, expected: []int64{3, 4}},
		{name: "secondary skill", criteria: filter.EmployeeCriteria{Skill: "Kubernetes"}, expected: []int64{2}},
		{name: "location substring", criteria: filter.EmployeeCriteria{Location: "us"}, expected: []int64{1, 2, 5, 6}},
		{
			name:     "available includes open to extra work",
			criteria: filter.EmployeeCriteria{Availability: filter.AvailabilityAvailable},
			expected: []int64{1, 3, 5, 6, 8},
		},
		{name: "bench", criteria: filter.EmployeeCriteria{Availability: filter.AvailabilityBench}, expected: []int64{3, 6}},
		{name: "rolling off", criteria: filter.EmployeeCriteria{Status: "rolling_off"}, expected: []int64{2, 5}},
		{name: "excludes allocated to project", criteria: filter.EmployeeCriteria{ExcludeProject: 2}, expected: []int64{2, 3, 4, 5, 6, 7, 8}},
		{
			name:     "exclusion combines with status",
			criteria: filter.EmployeeCriteria{Status: "available", ExcludeProject: 3},
			expected: []int64{1},
		},
		{name: "sentinel", criteria: filter.EmployeeCriteria{Status: "all_status"}, expected: []int64{1, 2, 3, 4, 5, 6, 7, 8}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := filter.FilterEmployees(employeeFixture(), tt.criteria, allocations)
			assert.Equal(t, tt.expected, employeeIDs(got))
		})
	}
}

func TestEmployeeCriteria_Query(t *testing.T) {
	t.Parallel()

	criteria := filter.EmployeeCriteria{Skill: "Go", Availability: "all_availability", ExcludeProject: 456}
	query := criteria.Query()

	assert.Equal(t, "exclude_project=456&skill=Go", query.Encode())
	assert.Equal(t, 1, criteria.ActiveCount())
	assert.Equal(t, filter.EmployeeCriteria{Skill: "Go", ExcludeProject: 456}, filter.ParseEmployeeCriteria(query))
}

func TestOptionsForEmployees(t *testing.T) {
	t.Parallel()

	options := filter.OptionsForEmployees(employeeFixture())
	assert.Equal(t, []string{"Asia-Pacific", "Canada", "Europe", "US-Central", "US-East", "US-West"}, options.Geos)
	assert.Contains(t, options.Skills, "Kubernetes")
}

func TestSuggestValues(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"Kubernetes"}, filter.SuggestValues("kube", []string{"Docker", "Kubernetes", "Go"}))
	assert.Equal(t, []string{"Python", "PyTorch"}, filter.SuggestValues("py", []string{"PyTorch", "Python", "Spring"}))
	assert.Nil(t, filter.SuggestValues("go", []string{"Go", "Google Cloud"}))
	assert.Nil(t, filter.SuggestValues("  ", []string{"Go"}))
	assert.Empty(t, filter.SuggestValues("rust", []string{"Go"}))
}
