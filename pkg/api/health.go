package api

import (
	"context"
	"net/http"
)

// HealthStatus represents the server health status
type HealthStatus struct {
	Status   string `json:"status"`
	Monitors int    `json:"monitors"`
}

// Health checks if a sensorcharts server is healthy
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return nil, err
	}

	var health HealthStatus
	if err := decodeJSON(resp, &health); err != nil {
		return nil, err
	}

	return &health, nil
}
