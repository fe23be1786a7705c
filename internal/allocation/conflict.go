package allocation

import (
	"time"

	"github.com/UnknownOlympus/talentfit/internal/models"
)

// openEndSentinel stands in for a missing end date when comparing ranges. It is never stored.
var openEndSentinel = time.Date(2099, time.December, 31, 0, 0, 0, 0, time.UTC)

// Interval is a date range whose End may be open.
type Interval struct {
	Start time.Time
	End   *time.Time
}

func (i Interval) end() time.Time {
	if i.End == nil {
		return openEndSentinel
	}
	return *i.End
}

// Overlaps reports whether two ranges share at least one day.
func Overlaps(a, b Interval) bool {
	return !a.Start.After(b.end()) && !a.end().Before(b.Start)
}

// Conflict is an existing allocation that overlaps a proposed one.
type Conflict struct {
	Allocation models.Allocation
}

// ProjectName returns the name of the conflicting project when the backend included it.
func (c Conflict) ProjectName() string {
	if c.Allocation.Project != nil {
		return c.Allocation.Project.Name
	}
	return ""
}

// FindConflicts returns every existing allocation of the employee that overlaps proposed.
func FindConflicts(employeeID int64, proposed Interval, existing []models.Allocation) []Conflict {
	var conflicts []Conflict
	for _, a := range existing {
		if a.EmployeeID != 0 && a.EmployeeID != employeeID {
			continue
		}
		if Overlaps(proposed, Interval{Start: a.StartDate, End: a.EndDate}) {
			conflicts = append(conflicts, Conflict{Allocation: a})
		}
	}
	return conflicts
}
