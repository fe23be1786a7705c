// Package filter holds the pure list derivations behind the project and employee screens.
// Every filter returns a new slice and leaves its input untouched.
package filter

import (
	"net/url"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/UnknownOlympus/talentfit/internal/models"
)

// AllPrefix marks a facet value that means "no filter", for example all_status.
const AllPrefix = "all_"

// ClearedNotice is shown after all filters are cleared.
const ClearedNotice = "All filters cleared"

// Project facet names, also used as query parameter keys.
const (
	FacetSearch   = "search"
	FacetStatus   = "status"
	FacetSkill    = "skill"
	FacetPriority = "priority"
	FacetGeo      = "geo"
	FacetIndustry = "industry"
	FacetResource = "resource"
	FacetDate     = "date"
)

// Resource buckets.
const (
	ResourceNeeds = "needs_resources"
	ResourceFull  = "fully_allocated"
)

// Date buckets.
const (
	DateStartingSoon = "starting_soon"
	DateActive       = "active"
	DateFuture       = "future"
)

const startingSoonWindow = 30 * 24 * time.Hour

// ProjectFacets lists the project facets in display order.
var ProjectFacets = []string{
	FacetSearch, FacetStatus, FacetSkill, FacetPriority, FacetGeo, FacetIndustry, FacetResource, FacetDate,
}

// IsSet reports whether a facet value filters anything.
func IsSet(value string) bool {
	return value != "" && !strings.HasPrefix(value, AllPrefix)
}

// ProjectCriteria is the filter state of the project list.
type ProjectCriteria struct {
	Search   string
	Status   string
	Skill    string
	Priority string
	Geo      string
	Industry string
	Resource string
	Date     string
}

func (c *ProjectCriteria) field(facet string) *string {
	switch facet {
	case FacetSearch:
		return &c.Search
	case FacetStatus:
		return &c.Status
	case FacetSkill:
		return &c.Skill
	case FacetPriority:
		return &c.Priority
	case FacetGeo:
		return &c.Geo
	case FacetIndustry:
		return &c.Industry
	case FacetResource:
		return &c.Resource
	case FacetDate:
		return &c.Date
	default:
		return nil
	}
}

// Get returns the value of a facet.
func (c ProjectCriteria) Get(facet string) string {
	if f := c.field(facet); f != nil {
		return *f
	}
	return ""
}

// With returns a copy with the facet set. Unknown facets are ignored.
func (c ProjectCriteria) With(facet, value string) ProjectCriteria {
	if f := c.field(facet); f != nil {
		*f = strings.TrimSpace(value)
	}
	return c
}

// ActiveCount returns the number of facets that filter anything.
func (c ProjectCriteria) ActiveCount() int {
	count := 0
	for _, facet := range ProjectFacets {
		if IsSet(c.Get(facet)) {
			count++
		}
	}
	return count
}

// Query encodes the active facets for a shareable link.
func (c ProjectCriteria) Query() url.Values {
	values := url.Values{}
	for _, facet := range ProjectFacets {
		if value := c.Get(facet); IsSet(value) {
			values.Set(facet, value)
		}
	}
	return values
}

// ParseProjectCriteria restores criteria from query parameters.
func ParseProjectCriteria(values url.Values) ProjectCriteria {
	var c ProjectCriteria
	for _, facet := range ProjectFacets {
		if value := values.Get(facet); IsSet(value) {
			c = c.With(facet, value)
		}
	}
	return c
}

// Clear drops every facet and returns the notice to show.
func (c ProjectCriteria) Clear() (ProjectCriteria, string) {
	return ProjectCriteria{}, ClearedNotice
}

// FilterProjects returns the projects matching every set facet. allocated maps a project
// id to its number of active allocations and drives the resource facet.
func FilterProjects(
	projects []models.Project,
	c ProjectCriteria,
	allocated map[int64]int,
	now time.Time,
) []models.Project {
	result := make([]models.Project, 0, len(projects))
	for _, p := range projects {
		if matchProject(p, c, allocated, now) {
			result = append(result, p)
		}
	}
	return result
}

func matchProject(p models.Project, c ProjectCriteria, allocated map[int64]int, now time.Time) bool {
	if IsSet(c.Search) && !containsFold(c.Search, p.Name, p.Description, p.ClientName, p.RoleTitle) {
		return false
	}
	if IsSet(c.Status) && string(p.Status) != c.Status {
		return false
	}
	if IsSet(c.Skill) && !containsFold(c.Skill, p.RequiredSkills...) {
		return false
	}
	if IsSet(c.Priority) && string(p.Priority) != c.Priority {
		return false
	}
	if IsSet(c.Geo) && p.GeoPreference != c.Geo {
		return false
	}
	if IsSet(c.Industry) && p.Industry != c.Industry {
		return false
	}
	if IsSet(c.Resource) && !matchResource(p, c.Resource, allocated) {
		return false
	}
	if IsSet(c.Date) && !matchDate(p, c.Date, now) {
		return false
	}
	return true
}

func matchResource(p models.Project, bucket string, allocated map[int64]int) bool {
	remaining := p.RequiredSeats - allocated[p.ID]
	switch bucket {
	case ResourceNeeds:
		return remaining > 0
	case ResourceFull:
		return remaining <= 0
	default:
		return true
	}
}

func matchDate(p models.Project, bucket string, now time.Time) bool {
	switch bucket {
	case DateStartingSoon:
		return !p.StartDate.Before(now) && !p.StartDate.After(now.Add(startingSoonWindow))
	case DateActive:
		return !p.StartDate.After(now) && !p.EndDate.Before(now)
	case DateFuture:
		return p.StartDate.After(now)
	default:
		return true
	}
}

func containsFold(needle string, haystack ...string) bool {
	needle = strings.ToLower(strings.TrimSpace(needle))
	for _, h := range haystack {
		if strings.Contains(strings.ToLower(h), needle) {
			return true
		}
	}
	return false
}

// ProjectOptions are the distinct facet values present in a project list.
type ProjectOptions struct {
	Skills     []string
	Geos       []string
	Industries []string
}

// OptionsForProjects collects sorted unique skills, geos and industries.
func OptionsForProjects(projects []models.Project) ProjectOptions {
	var skills, geos, industries []string
	for _, p := range projects {
		skills = append(skills, p.RequiredSkills...)
		geos = append(geos, p.GeoPreference)
		industries = append(industries, p.Industry)
	}
	return ProjectOptions{
		Skills:     uniqueSorted(skills),
		Geos:       uniqueSorted(geos),
		Industries: uniqueSorted(industries),
	}
}

func uniqueSorted(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Sort keys for SortProjects.
const (
	SortByName     = "name"
	SortByStart    = "start"
	SortByPriority = "priority"
)

var priorityRank = map[models.Priority]int{
	models.PriorityHigh:   0,
	models.PriorityMedium: 1,
	models.PriorityLow:    2,
}

// SortProjects returns a sorted copy. Unknown keys keep the input order.
func SortProjects(projects []models.Project, key string) []models.Project {
	sorted := slices.Clone(projects)
	switch key {
	case SortByName:
		sort.SliceStable(sorted, func(i, j int) bool {
			return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
		})
	case SortByStart:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].StartDate.Before(sorted[j].StartDate)
		})
	case SortByPriority:
		sort.SliceStable(sorted, func(i, j int) bool {
			ri, rj := rankOf(sorted[i].Priority), rankOf(sorted[j].Priority)
			if ri != rj {
				return ri < rj
			}
			return sorted[i].StartDate.Before(sorted[j].StartDate)
		})
	}
	return sorted
}

func rankOf(p models.Priority) int {
	if rank, ok := priorityRank[p]; ok {
		return rank
	}
	return len(priorityRank)
}
