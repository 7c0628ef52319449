package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

var (
	// ErrNoToken is returned when no valid access token is available
	ErrNoToken = errors.New("no valid access token")

	// ErrInvalidWebSocketURL is returned when the platform hands out a non-ws(s) URL
	ErrInvalidWebSocketURL = errors.New("invalid websocket url")
)

// wsURLFields are checked in order on object responses
var wsURLFields = []string{"ws_url", "websocket_url", "url"}

// ResolveWebSocketURL asks the platform for the live-stream URL of a device.
// The response may be a bare string, an object, or an array whose first
// element is either.
func (c *Client) ResolveWebSocketURL(ctx context.Context, deviceID string) (string, error) {
	if c.tokens == nil {
		return "", ErrNoToken
	}
	token := c.tokens.ValidToken()
	if token == "" {
		return "", ErrNoToken
	}

	path := fmt.Sprintf("infrastructure/device/%s/get_ws_link/", url.PathEscape(deviceID))
	resp, err := c.doRequest(ctx, http.MethodPost, path, map[string]string{"access_token": token})
	if err != nil {
		return "", fmt.Errorf("failed to request websocket url: %w", err)
	}

	var body interface{}
	if err := decodeJSON(resp, &body); err != nil {
		return "", err
	}

	wsURL := extractWebSocketURL(body)
	if err := ValidateWebSocketURL(wsURL); err != nil {
		return "", err
	}
	return wsURL, nil
}

func extractWebSocketURL(body interface{}) string {
	switch v := body.(type) {
	case string:
		return v
	case []interface{}:
		if len(v) == 0 {
			return ""
		}
		return extractWebSocketURL(v[0])
	case map[string]interface{}:
		for _, field := range wsURLFields {
			if s, ok := v[field].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// ValidateWebSocketURL checks that a URL uses the ws or wss scheme
func ValidateWebSocketURL(wsURL string) error {
	if wsURL == "" {
		return fmt.Errorf("%w: empty", ErrInvalidWebSocketURL)
	}
	if !strings.HasPrefix(wsURL, "ws://") && !strings.HasPrefix(wsURL, "wss://") {
		return fmt.Errorf("%w: %s", ErrInvalidWebSocketURL, wsURL)
	}
	return nil
}
