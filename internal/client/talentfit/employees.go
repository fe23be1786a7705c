package talentfit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/UnknownOlympus/talentfit/internal/models"
)

// EmployeeQuery narrows the employee list on the backend side.
type EmployeeQuery struct {
	Skills        []string
	Geos          []string
	AvailableOnly bool
}

func (q EmployeeQuery) values() url.Values {
	values := url.Values{}
	if len(q.Skills) > 0 {
		values.Set("skills", strings.Join(q.Skills, ","))
	}
	if len(q.Geos) > 0 {
		values.Set("geo", strings.Join(q.Geos, ","))
	}
	if q.AvailableOnly {
		values.Set("available", "true")
	}
	return values
}

// ProfileInput is the payload for creating or updating an employee profile.
type ProfileInput struct {
	Geo               string   `json:"geo,omitempty"`
	Skills            []string `json:"skills,omitempty"`
	YearsOfExperience *int     `json:"years_of_experience,omitempty"`
	Industry          string   `json:"industry,omitempty"`
	AvailabilityFlag  *bool    `json:"availability_flag,omitempty"`
	EmploymentType    string   `json:"employment_type,omitempty"`
	Type              string   `json:"type,omitempty"`
	DateOfJoining     string   `json:"date_of_joining,omitempty"`
}

// GetMe returns the staffing profile of the signed-in user.
// Use IsRecordNotFound on the error to detect a user without a profile.
func (c *Client) GetMe(ctx context.Context) (models.EmployeeProfile, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/v1/employee/me", nil, nil, &raw); err != nil {
		return models.EmployeeProfile{}, fmt.Errorf("failed to get current profile: %w", err)
	}

	var profile models.EmployeeProfile
	if err := decodeData(raw, &profile); err != nil {
		return models.EmployeeProfile{}, fmt.Errorf("failed to get current profile: %w", err)
	}
	return profile, nil
}

// GetEmployee returns one employee profile by id.
func (c *Client) GetEmployee(ctx context.Context, id int64) (models.EmployeeProfile, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/employee/%d", id), nil, nil, &raw); err != nil {
		return models.EmployeeProfile{}, fmt.Errorf("failed to get employee %d: %w", id, err)
	}

	var profile models.EmployeeProfile
	if err := decodeData(raw, &profile); err != nil {
		return models.EmployeeProfile{}, fmt.Errorf("failed to get employee %d: %w", id, err)
	}
	return profile, nil
}

// GetEmployeeAllocations returns the allocations of one employee.
func (c *Client) GetEmployeeAllocations(ctx context.Context, id int64) ([]models.Allocation, error) {
	var raw json.RawMessage
	path := fmt.Sprintf("/api/v1/employee/%d/projects", id)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &raw); err != nil {
		return nil, fmt.Errorf("failed to get allocations of employee %d: %w", id, err)
	}

	allocations := []models.Allocation{}
	if err := decodeData(raw, &allocations); err != nil {
		return nil, fmt.Errorf("failed to get allocations of employee %d: %w", id, err)
	}
	return allocations, nil
}

// ListEmployees returns employee profiles matching the query.
func (c *Client) ListEmployees(ctx context.Context, query EmployeeQuery) ([]models.EmployeeProfile, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/v1/employees", query.values(), nil, &raw); err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	profiles := []models.EmployeeProfile{}
	if err := decodeData(raw, &profiles); err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return profiles, nil
}

// CreateProfile creates the staffing profile of a user.
func (c *Client) CreateProfile(ctx context.Context, userID int64, input ProfileInput) (models.EmployeeProfile, error) {
	var raw json.RawMessage
	path := fmt.Sprintf("/api/v1/employee/%d", userID)
	if err := c.do(ctx, http.MethodPost, path, nil, input, &raw); err != nil {
		return models.EmployeeProfile{}, fmt.Errorf("failed to create profile: %w", err)
	}

	var profile models.EmployeeProfile
	if err := decodeData(raw, &profile); err != nil {
		return models.EmployeeProfile{}, fmt.Errorf("failed to create profile: %w", err)
	}
	return profile, nil
}

// UpdateProfile applies a partial update to the staffing profile of a user.
func (c *Client) UpdateProfile(ctx context.Context, userID int64, input ProfileInput) (models.EmployeeProfile, error) {
	var raw json.RawMessage
	path := fmt.Sprintf("/api/v1/employee/%d", userID)
	if err := c.do(ctx, http.MethodPatch, path, nil, input, &raw); err != nil {
		return models.EmployeeProfile{}, fmt.Errorf("failed to update profile: %w", err)
	}

	var profile models.EmployeeProfile
	if err := decodeData(raw, &profile); err != nil {
		return models.EmployeeProfile{}, fmt.Errorf("failed to update profile: %w", err)
	}
	return profile, nil
}
