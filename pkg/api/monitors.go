package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/sguter90/sensorcharts/pkg/models"
)

// GetMonitors retrieves all monitors running on a sensorcharts server
func (c *Client) GetMonitors(ctx context.Context) ([]models.MonitorInfo, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/v1/monitors", nil)
	if err != nil {
		return nil, err
	}

	var monitors []models.MonitorInfo
	if err := decodeJSON(resp, &monitors); err != nil {
		return nil, err
	}

	return monitors, nil
}

// GetChart retrieves the chart state of one monitor for a measurement kind
func (c *Client) GetChart(ctx context.Context, monitorID uuid.UUID, kind string, params url.Values) (*models.ChartResponse, error) {
	path := fmt.Sprintf("/api/v1/monitors/%s/charts/%s", monitorID, url.PathEscape(kind))
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	var chart models.ChartResponse
	if err := decodeJSON(resp, &chart); err != nil {
		return nil, err
	}

	return &chart, nil
}

// ClearChart resets the chart state of one monitor for a measurement kind
func (c *Client) ClearChart(ctx context.Context, monitorID uuid.UUID, kind string) error {
	path := fmt.Sprintf("/api/v1/monitors/%s/charts/%s/clear", monitorID, url.PathEscape(kind))

	resp, err := c.doRequest(ctx, http.MethodPost, path, nil)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
