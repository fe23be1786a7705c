package talentfit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/UnknownOlympus/talentfit/internal/models"
)

// DashboardMetrics returns the manager dashboard counters.
func (c *Client) DashboardMetrics(ctx context.Context) (models.DashboardMetrics, error) {
	var metrics models.DashboardMetrics
	if err := c.do(ctx, http.MethodGet, "/api/v1/manager/dashboard/metrics", nil, nil, &metrics); err != nil {
		return models.DashboardMetrics{}, fmt.Errorf("failed to get dashboard metrics: %w", err)
	}
	return metrics, nil
}

// Notifications returns the notifications of the signed-in user, newest first as sent.
func (c *Client) Notifications(ctx context.Context) ([]models.Notification, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/v1/notifications", nil, nil, &raw); err != nil {
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}

	notifications := []models.Notification{}
	if err := decodeData(raw, &notifications); err != nil {
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}
	return notifications, nil
}
