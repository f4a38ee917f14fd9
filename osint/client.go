// SPDX-License-Identifier: GPL-3.0-only

package osint

import (
	"bytes"
	"context"
	"csint-server/commons"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

const defaultTimeout = 30 * time.Second

// UpstreamError reports a failed or non-2xx provider call.
type UpstreamError struct {
	StatusCode int
	Status     string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("search provider returned %s", e.Status)
}

// Client performs lookups against the external OSINT provider. Every call
// is bounded by the client timeout and the request context; a timed-out or
// failed call surfaces as an error, never a hang.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewClient() *Client {
	timeout := defaultTimeout
	if v := commons.GetEnv("OSINT_TIMEOUT_SECONDS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			timeout = time.Duration(i) * time.Second
		}
	}
	return &Client{
		BaseURL: commons.GetEnv("OSINTDOG_URL", "https://osintdog.com/search/api/search"),
		APIKey:  commons.GetEnv("OSINTDOG_KEY"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// Search runs one lookup of the given type and returns the provider's
// payload with its attribution fields stripped.
func (c *Client) Search(ctx context.Context, searchType, query string) (map[string]any, error) {
	payload := map[string]any{
		"field": []map[string]string{{searchType: query}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("X-API-Key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search provider request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	var data map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	cleanData(data)
	return data, nil
}

// cleanData strips the provider's self-attribution from the payload in
// place, recursing through nested objects and arrays.
func cleanData(data any) {
	switch value := data.(type) {
	case map[string]any:
		for key, nested := range value {
			if key == "credit" {
				if s, ok := nested.(string); ok && s == "lookup made by https://osintdog.com" {
					delete(value, key)
					continue
				}
			}
			if key == "osintdog" {
				delete(value, key)
				continue
			}
			cleanData(nested)
		}
	case []any:
		for _, nested := range value {
			cleanData(nested)
		}
	}
}
