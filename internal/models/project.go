package models

import (
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProjectStatus is the lifecycle state of a project.
type ProjectStatus string

const (
	ProjectOpen     ProjectStatus = "Open"
	ProjectClosed   ProjectStatus = "Closed"
	ProjectOnHold   ProjectStatus = "On Hold"
	ProjectPlanning ProjectStatus = "Planning"
)

// Priority is the staffing priority of a project.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

const (
	hoursPerDay     = 24
	daysPerWeek     = 7
	urgentStartDays = 7
)

// RoleTypes lists the seat categories offered by the project form.
var RoleTypes = []string{"Frontend", "Backend", "Fullstack", "AI", "UI", "UX", "Tester", "Manager"}

// Industries lists the industries offered by the project form.
var Industries = []string{
	"Technology", "Finance", "Healthcare", "E-commerce", "Education", "Entertainment",
	"Manufacturing", "Consulting", "Real Estate", "Transportation", "Energy", "Retail",
}

// ProjectStatuses lists every known project status in display order.
var ProjectStatuses = []ProjectStatus{ProjectOpen, ProjectPlanning, ProjectOnHold, ProjectClosed}

// Priorities lists every known priority in display order.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// Project is a unit of staffing demand.
type Project struct {
	ID               int64               `json:"id"`
	Name             string              `json:"name"`
	Description      string              `json:"description"`
	Summary          string              `json:"summary,omitempty"`
	RequiredSeats    int                 `json:"required_seats"`
	SeatsByType      map[string]int      `json:"seats_by_type,omitempty"`
	StartDate        time.Time           `json:"start_date"`
	EndDate          time.Time           `json:"end_date"`
	Status           ProjectStatus       `json:"status"`
	ClientName       string              `json:"client_name,omitempty"`
	RoleTitle        string              `json:"role_title,omitempty"`
	RequiredSkills   []string            `json:"required_skills,omitempty"`
	NiceToHaveSkills []string            `json:"nice_to_have_skills,omitempty"`
	RoleType         string              `json:"role_type,omitempty"`
	Industry         string              `json:"industry,omitempty"`
	GeoPreference    string              `json:"geo_preference,omitempty"`
	DurationWeeks    int                 `json:"duration_weeks,omitempty"`
	Priority         Priority            `json:"priority,omitempty"`
	Progress         int                 `json:"progress,omitempty"`
	Budget           decimal.NullDecimal `json:"budget"`
	ProjectManager   string              `json:"project_manager,omitempty"`
	CreatedAt        time.Time           `json:"created_at,omitzero"`
	UpdatedAt        time.Time           `json:"updated_at,omitzero"`
}

// SeatsByTypeTotal sums the per-role seat counts.
func (p Project) SeatsByTypeTotal() int {
	total := 0
	for _, n := range p.SeatsByType {
		total += n
	}
	return total
}

// SeatsMismatch reports whether a populated seats_by_type disagrees with required_seats.
// Both numbers are returned so callers can show them side by side.
func (p Project) SeatsMismatch() (bool, int, int) {
	if len(p.SeatsByType) == 0 {
		return false, p.RequiredSeats, 0
	}
	byType := p.SeatsByTypeTotal()
	return byType != p.RequiredSeats, p.RequiredSeats, byType
}

// DaysUntilStart returns the whole days left before the project starts, rounded up.
func (p Project) DaysUntilStart(now time.Time) int {
	return int(math.Ceil(p.StartDate.Sub(now).Hours() / hoursPerDay))
}

// IsUrgent is true for high priority projects starting within a week.
func (p Project) IsUrgent(now time.Time) bool {
	return p.Priority == PriorityHigh && p.DaysUntilStart(now) <= urgentStartDays
}

// ValidPriority reports whether the value is one of the known priorities.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// DurationWeeks returns the number of weeks between two dates, rounded up.
func DurationWeeks(start, end time.Time) int {
	if !end.After(start) {
		return 0
	}
	days := end.Sub(start).Hours() / hoursPerDay
	return int(math.Ceil(days / daysPerWeek))
}

// Draft is a project form kept locally because it was not accepted by the backend yet.
type Draft struct {
	ID      uuid.UUID `json:"id"`
	Project Project   `json:"project"`
	SavedAt time.Time `json:"saved_at"`
}

// ChangeEntry is one audited edit of a project, stored as a JSON Patch.
type ChangeEntry struct {
	ID        uuid.UUID       `json:"id"`
	ProjectID int64           `json:"project_id"`
	AuthorID  int64           `json:"author_id"`
	Patch     json.RawMessage `json:"patch"`
	CreatedAt time.Time       `json:"created_at"`
}
