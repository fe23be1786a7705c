package allocation

import (
	"fmt"
	"time"

	"github.com/UnknownOlympus/talentfit/internal/models"
)

// Seats is the staffing level of a project.
type Seats struct {
	Allocated int
	Required  int
}

// SeatSummary counts the allocations of the project that are active at now.
func SeatSummary(project models.Project, allocations []models.Allocation, now time.Time) Seats {
	seats := Seats{Required: project.RequiredSeats}
	for _, a := range allocations {
		if a.ProjectID != 0 && a.ProjectID != project.ID {
			continue
		}
		if a.IsActive(now) {
			seats.Allocated++
		}
	}
	return seats
}

// Remaining returns how many seats are still open, never below zero.
func (s Seats) Remaining() int {
	return max(s.Required-s.Allocated, 0)
}

// TeamSize renders "allocated/required".
func (s Seats) TeamSize() string {
	return fmt.Sprintf("%d/%d", s.Allocated, s.Required)
}

// Need renders the open demand, for example "5 more needed".
func (s Seats) Need() string {
	if s.Remaining() == 0 {
		return "Fully staffed"
	}
	return fmt.Sprintf("%d more needed", s.Remaining())
}
