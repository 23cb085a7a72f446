package geocode

// REVERSE GEOCODER

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// Client resolves coordinates to a display address through a Nominatim compatible
// reverse endpoint.
type Client struct {
	endpoint   string
	userAgent  string
	httpClient *http.Client
	retry      func() backoff.BackOff
	logger     *zap.Logger
}

func NewClient(endpoint, userAgent string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		endpoint:  endpoint,
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		retry: func() backoff.BackOff {
			policy := backoff.NewExponentialBackOff()
			policy.InitialInterval = 300 * time.Millisecond
			policy.MaxElapsedTime = 3 * time.Second
			return backoff.WithMaxRetries(policy, 2)
		},
		logger: logger,
	}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
}

// Reverse returns the display name for the point, or "" when the lookup fails. Failures
// are logged and never surfaced to the caller.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) string {
	var address string
	err := backoff.Retry(func() error {
		name, err := c.lookup(ctx, lat, lon)
		if err != nil {
			return err
		}
		address = name
		return nil
	}, backoff.WithContext(c.retry(), ctx))
	if err != nil {
		c.logger.Warn("Reverse geocoding failed",
			zap.Float64("lat", lat),
			zap.Float64("lon", lon),
			zap.Error(err))
		return ""
	}
	return address
}

func (c *Client) lookup(ctx context.Context, lat, lon float64) (string, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("zoom", "18")
	params.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return "", fmt.Errorf("unexpected status: %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return "", backoff.Permanent(fmt.Errorf("unexpected status: %d", resp.StatusCode))
	}

	var result reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	if result.DisplayName == "" {
		return "", backoff.Permanent(errors.New("empty display name"))
	}
	return result.DisplayName, nil
}
