package filter

import (
	"net/url"
	"strconv"

	"github.com/UnknownOlympus/talentfit/internal/models"
)

// Employee facet names, also used as query parameter keys.
const (
	FacetLocation     = "location"
	FacetAvailability = "availability"
	FacetExclude      = "exclude_project"
)

// Availability buckets.
const (
	AvailabilityAvailable = "available"
	AvailabilityBench     = "bench"
)

// EmployeeFacets lists the employee facets in display order.
var EmployeeFacets = []string{FacetSearch, FacetSkill, FacetLocation, FacetAvailability, FacetStatus}

// EmployeeCriteria is the filter state of an employee list. ExcludeProject drops everyone
// already allocated to that project.
type EmployeeCriteria struct {
	Search         string
	Skill          string
	Location       string
	Availability   string
	Status         string
	ExcludeProject int64
}

func (c *EmployeeCriteria) field(facet string) *string {
	switch facet {
	case FacetSearch:
		return &c.Search
	case FacetSkill:
		return &c.Skill
	case FacetLocation:
		return &c.Location
	case FacetAvailability:
		return &c.Availability
	case FacetStatus:
		return &c.Status
	default:
		return nil
	}
}

// Get returns the value of a facet.
func (c EmployeeCriteria) Get(facet string) string {
	if f := c.field(facet); f != nil {
		return *f
	}
	return ""
}

// With returns a copy with the facet set. Unknown facets are ignored.
func (c EmployeeCriteria) With(facet, value string) EmployeeCriteria {
	if f := c.field(facet); f != nil {
		*f = value
	}
	return c
}

// ActiveCount returns the number of facets that filter anything, ignoring the project exclusion.
func (c EmployeeCriteria) ActiveCount() int {
	count := 0
	for _, facet := range EmployeeFacets {
		if IsSet(c.Get(facet)) {
			count++
		}
	}
	return count
}

// Query encodes the active facets.
func (c EmployeeCriteria) Query() url.Values {
	values := url.Values{}
	for _, facet := range EmployeeFacets {
		if value := c.Get(facet); IsSet(value) {
			values.Set(facet, value)
		}
	}
	if c.ExcludeProject != 0 {
		values.Set(FacetExclude, strconv.FormatInt(c.ExcludeProject, 10))
	}
	return values
}

// ParseEmployeeCriteria restores criteria from query parameters.
func ParseEmployeeCriteria(values url.Values) EmployeeCriteria {
	var c EmployeeCriteria
	for _, facet := range EmployeeFacets {
		if value := values.Get(facet); IsSet(value) {
			c = c.With(facet, value)
		}
	}
	if id, err := strconv.ParseInt(values.Get(FacetExclude), 10, 64); err == nil {
		c.ExcludeProject = id
	}
	return c
}

// FilterEmployees returns the employees matching every set facet. Allocations are joined
// on employee id to apply ExcludeProject.
func FilterEmployees(
	employees []models.Employee,
	c EmployeeCriteria,
	allocations []models.Allocation,
) []models.Employee {
	excluded := make(map[int64]struct{})
	if c.ExcludeProject != 0 {
		for _, a := range allocations {
			if a.ProjectID == c.ExcludeProject {
				excluded[a.EmployeeID] = struct{}{}
			}
		}
	}

	result := make([]models.Employee, 0, len(employees))
	for _, e := range employees {
		if _, skip := excluded[e.ID()]; skip {
			continue
		}
		if matchEmployee(e, c) {
			result = append(result, e)
		}
	}
	return result
}

func matchEmployee(e models.Employee, c EmployeeCriteria) bool {
	if IsSet(c.Search) {
		haystack := append([]string{e.DisplayName()}, e.PrimarySkills...)
		haystack = append(haystack, e.SecondarySkills...)
		if !containsFold(c.Search, haystack...) {
			return false
		}
	}
	if IsSet(c.Skill) && !containsFold(c.Skill, append(append([]string{}, e.PrimarySkills...), e.SecondarySkills...)...) {
		return false
	}
	if IsSet(c.Location) && !containsFold(c.Location, e.Geo) {
		return false
	}
	if IsSet(c.Availability) && !matchAvailability(e, c.Availability) {
		return false
	}
	if IsSet(c.Status) && string(e.Status) != c.Status {
		return false
	}
	return true
}

func matchAvailability(e models.Employee, bucket string) bool {
	switch bucket {
	case AvailabilityAvailable:
		return e.AvailabilityFlag || e.Status == models.StatusAvailable
	case AvailabilityBench:
		return e.Status == models.StatusBench
	default:
		return true
	}
}

// EmployeeOptions are the distinct facet values present in an employee list.
type EmployeeOptions struct {
	Skills []string
	Geos   []string
}

// OptionsForEmployees collects sorted unique skills and geos.
func OptionsForEmployees(employees []models.Employee) EmployeeOptions {
	var skills, geos []string
	for _, e := range employees {
		skills = append(skills, e.Skills...)
		geos = append(geos, e.Geo)
	}
	return EmployeeOptions{Skills: uniqueSorted(skills), Geos: uniqueSorted(geos)}
}
