package models

import "time"

// AllocationType is the engagement kind of an allocation.
type AllocationType string

const (
	AllocationFullTime AllocationType = "Full-time"
	AllocationPartTime AllocationType = "Part-time"
	AllocationExtra    AllocationType = "Extra"
)

// Allocation binds one employee to one project for a date range.
// A nil EndDate means the allocation is open-ended.
type Allocation struct {
	ID             int64          `json:"id"`
	ProjectID      int64          `json:"project_id"`
	EmployeeID     int64          `json:"employee_id"`
	AllocationType AllocationType `json:"allocation_type"`
	StartDate      time.Time      `json:"start_date"`
	EndDate        *time.Time     `json:"end_date"`
	Project        *Project       `json:"project,omitempty"`
}

// IsActive reports whether the allocation covers the given moment.
func (a Allocation) IsActive(now time.Time) bool {
	if a.StartDate.After(now) {
		return false
	}
	return a.EndDate == nil || !a.EndDate.Before(now)
}

// AllocationRequest is one entry of the batch sent when allocating employees to a project.
type AllocationRequest struct {
	EmployeeID     int64          `json:"employee_id"`
	StartDate      time.Time      `json:"start_date"`
	EndDate        *time.Time     `json:"end_date,omitempty"`
	AllocationType AllocationType `json:"allocation_type"`
}
