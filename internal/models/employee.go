package models

import (
	"strings"
	"time"
)

// Role is the role of an authenticated user as reported by the backend.
type Role string

const (
	RoleEmployee Role = "Employee"
	RoleManager  Role = "Manager"
)

// EmployeeStatus is the staffing status shown on employee cards and used by filters.
type EmployeeStatus string

const (
	StatusAvailable  EmployeeStatus = "available"
	StatusAllocated  EmployeeStatus = "allocated"
	StatusBench      EmployeeStatus = "bench"
	StatusRollingOff EmployeeStatus = "rolling_off"
)

// primarySkillCount is the number of leading skills treated as primary.
const primarySkillCount = 3

// User is the account record linked to an employee profile.
type User struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Type      string    `json:"type,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// FullName joins first and last name, skipping empty parts.
func (u User) FullName() string {
	return strings.TrimSpace(strings.Join([]string{u.FirstName, u.LastName}, " "))
}

// EmployeeProfile is the staffing profile as returned by the backend.
type EmployeeProfile struct {
	ID                int64      `json:"id"`
	UserID            int64      `json:"user_id"`
	Name              string     `json:"name,omitempty"`
	Geo               string     `json:"geo"`
	DateOfJoining     *time.Time `json:"date_of_joining"`
	EndDate           *time.Time `json:"end_date"`
	NoticeDate        *time.Time `json:"notice_date"`
	Type              string     `json:"type,omitempty"`
	Skills            []string   `json:"skills"`
	YearsOfExperience int        `json:"years_of_experience"`
	Industry          string     `json:"industry"`
	AvailabilityFlag  bool       `json:"availability_flag"`
	EmploymentType    string     `json:"employment_type,omitempty"`
	UtilizationPct    int        `json:"utilization_pct,omitempty"`
	CurrentClient     string     `json:"current_client,omitempty"`
	User              User       `json:"user"`
	CreatedAt         time.Time  `json:"created_at,omitzero"`
	UpdatedAt         time.Time  `json:"updated_at,omitzero"`
}

// DisplayName prefers the linked user's full name and falls back to the profile name.
func (p EmployeeProfile) DisplayName() string {
	if name := p.User.FullName(); name != "" {
		return name
	}
	return p.Name
}

// Employee is the view of a profile used by cards, filters and the allocation dialog.
type Employee struct {
	EmployeeProfile

	Status          EmployeeStatus `json:"status"`
	PrimarySkills   []string       `json:"primary_skills"`
	SecondarySkills []string       `json:"secondary_skills"`
}

// ID returns the identifier allocations refer to, which is the user id.
func (e Employee) ID() int64 {
	return e.UserID
}

// DeriveStatus computes the staffing status from the canonical profile fields.
// A notice date wins over everything else, then a cleared availability flag.
func DeriveStatus(availabilityFlag bool, noticeDate, endDate *time.Time) EmployeeStatus {
	switch {
	case noticeDate != nil:
		return StatusRollingOff
	case !availabilityFlag:
		return StatusAllocated
	case endDate == nil:
		return StatusBench
	default:
		return StatusAvailable
	}
}

// SplitSkills returns the first three skills as primary and the rest as secondary.
func SplitSkills(skills []string) ([]string, []string) {
	if len(skills) <= primarySkillCount {
		return append([]string{}, skills...), []string{}
	}
	return append([]string{}, skills[:primarySkillCount]...), append([]string{}, skills[primarySkillCount:]...)
}

// ToEmployee builds the employee view for a backend profile.
func ToEmployee(profile EmployeeProfile) Employee {
	primary, secondary := SplitSkills(profile.Skills)
	return Employee{
		EmployeeProfile: profile,
		Status:          DeriveStatus(profile.AvailabilityFlag, profile.NoticeDate, profile.EndDate),
		PrimarySkills:   primary,
		SecondarySkills: secondary,
	}
}

// ToEmployees converts a list of profiles.
func ToEmployees(profiles []EmployeeProfile) []Employee {
	employees := make([]Employee, 0, len(profiles))
	for _, p := range profiles {
		employees = append(employees, ToEmployee(p))
	}
	return employees
}
