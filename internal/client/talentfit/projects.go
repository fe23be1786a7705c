package talentfit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"

	"github.com/UnknownOlympus/talentfit/internal/models"
)

// ListProjects returns every project visible to the signed-in user.
func (c *Client) ListProjects(ctx context.Context) ([]models.Project, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/v1/projects", nil, nil, &raw); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	projects := []models.Project{}
	if err := decodeData(raw, &projects); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// GetProject returns one project by id.
func (c *Client) GetProject(ctx context.Context, id int64) (models.Project, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/v1/project/%d", id), nil, nil, &raw); err != nil {
		return models.Project{}, fmt.Errorf("failed to get project %d: %w", id, err)
	}

	var project models.Project
	if err := decodeData(raw, &project); err != nil {
		return models.Project{}, fmt.Errorf("failed to get project %d: %w", id, err)
	}
	return project, nil
}

// CreateProject creates a project and returns the stored version.
func (c *Client) CreateProject(ctx context.Context, project models.Project) (models.Project, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, "/api/v1/projects", nil, project, &raw); err != nil {
		return models.Project{}, fmt.Errorf("failed to create project: %w", err)
	}

	var created models.Project
	if err := decodeData(raw, &created); err != nil {
		return models.Project{}, fmt.Errorf("failed to create project: %w", err)
	}
	return created, nil
}

// UpdateProject sends a partial update of the project fields in patch.
func (c *Client) UpdateProject(ctx context.Context, id int64, patch map[string]any) (models.Project, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/v1/project/%d", id), nil, patch, &raw); err != nil {
		return models.Project{}, fmt.Errorf("failed to update project %d: %w", id, err)
	}

	var updated models.Project
	if err := decodeData(raw, &updated); err != nil {
		return models.Project{}, fmt.Errorf("failed to update project %d: %w", id, err)
	}
	return updated, nil
}

// GetSuggestions returns ranked match suggestions for a project, best score first.
func (c *Client) GetSuggestions(ctx context.Context, projectID int64) ([]models.Suggestion, error) {
	var raw json.RawMessage
	path := fmt.Sprintf("/api/v1/project/%d/suggestions", projectID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &raw); err != nil {
		return nil, fmt.Errorf("failed to get suggestions for project %d: %w", projectID, err)
	}

	suggestions := []models.Suggestion{}
	if err := decodeData(raw, &suggestions); err != nil {
		return nil, fmt.Errorf("failed to get suggestions for project %d: %w", projectID, err)
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Overall() > suggestions[j].Overall()
	})
	return suggestions, nil
}

// GetProjectAllocations returns the allocations of a project.
func (c *Client) GetProjectAllocations(ctx context.Context, projectID int64) ([]models.Allocation, error) {
	var raw json.RawMessage
	path := fmt.Sprintf("/api/v1/project/%d/allocations", projectID)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &raw); err != nil {
		return nil, fmt.Errorf("failed to get allocations of project %d: %w", projectID, err)
	}

	allocations := []models.Allocation{}
	if err := decodeData(raw, &allocations); err != nil {
		return nil, fmt.Errorf("failed to get allocations of project %d: %w", projectID, err)
	}
	return allocations, nil
}

// CreateAllocations submits a batch of allocations for one project in a single call.
// The backend does not report partial failures, so any error means the batch failed.
func (c *Client) CreateAllocations(
	ctx context.Context,
	projectID int64,
	requests []models.AllocationRequest,
) ([]models.Allocation, error) {
	var raw json.RawMessage
	path := fmt.Sprintf("/api/v1/project/%d/allocations", projectID)
	if err := c.do(ctx, http.MethodPost, path, nil, requests, &raw); err != nil {
		return nil, fmt.Errorf("failed to create allocations for project %d: %w", projectID, err)
	}

	created := []models.Allocation{}
	if len(raw) == 0 {
		return created, nil
	}
	if err := decodeData(raw, &created); err != nil {
		return nil, fmt.Errorf("failed to create allocations for project %d: %w", projectID, err)
	}
	return created, nil
}
