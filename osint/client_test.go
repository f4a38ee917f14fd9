// SPDX-License-Identifier: GPL-3.0-only

package osint

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestSearch(t *testing.T) {
	var gotBody map[string]any
	var gotAPIKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("X-API-Key")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("Failed to decode request body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"results": {
				"breach": {"name": "example", "credit": "lookup made by https://osintdog.com"},
				"osintdog": {"version": "1.0"}
			}
		}`))
	}))
	defer server.Close()

	c := &Client{
		BaseURL: server.URL,
		APIKey:  "test-key",
		HTTP:    &http.Client{Timeout: 5 * time.Second},
	}

	data, err := c.Search(context.Background(), "email", "a@x.com")
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}

	if gotAPIKey != "test-key" {
		t.Errorf("Expected X-API-Key test-key, got %s", gotAPIKey)
	}
	fields, ok := gotBody["field"].([]any)
	if !ok || len(fields) != 1 {
		t.Fatalf("Unexpected request payload: %v", gotBody)
	}
	if q := fields[0].(map[string]any)["email"]; q != "a@x.com" {
		t.Errorf("Expected email query a@x.com, got %v", q)
	}

	results := data["results"].(map[string]any)
	if _, present := results["osintdog"]; present {
		t.Error("Provider self-attribution object should be stripped")
	}
	breach := results["breach"].(map[string]any)
	if _, present := breach["credit"]; present {
		t.Error("Provider credit line should be stripped")
	}
	if breach["name"] != "example" {
		t.Error("Payload fields should survive cleaning")
	}
}

func TestSearchUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broke", http.StatusBadGateway)
	}))
	defer server.Close()

	c := &Client{BaseURL: server.URL, HTTP: &http.Client{Timeout: 5 * time.Second}}

	_, err := c.Search(context.Background(), "email", "a@x.com")
	var upstreamErr *UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("Expected UpstreamError, got %v", err)
	}
	if upstreamErr.StatusCode != http.StatusBadGateway {
		t.Errorf("Expected status 502, got %d", upstreamErr.StatusCode)
	}
}

func TestSearchTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	c := &Client{BaseURL: server.URL, HTTP: &http.Client{Timeout: 20 * time.Millisecond}}

	if _, err := c.Search(context.Background(), "email", "a@x.com"); err == nil {
		t.Error("Expected an error when the provider exceeds the timeout")
	}
}

func TestValidateQuery(t *testing.T) {
	cases := []struct {
		searchType string
		query      string
		want       string
		wantErr    bool
	}{
		{"email", "a@x.com", "a@x.com", false},
		{"email", "not-an-email", "", true},
		{"domain", "example.com", "example.com", false},
		{"domain", "-bad-.com", "", true},
		{"ip", "192.168.1.1", "192.168.1.1", false},
		{"ip", "999.1.1.1", "", true},
		{"phone", "+1 (555) 123-4567", "15551234567", false},
		{"phone", "12345", "", true},
		{"username", "john_doe-99", "john_doe-99", false},
		{"username", "ab", "", true},
		{"username", "<script>", "", true},
		{"dns", "anything", "", true},
		{"email", "", "", true},
	}

	for _, tc := range cases {
		got, err := ValidateQuery(tc.searchType, tc.query)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ValidateQuery(%q, %q) expected error, got %q", tc.searchType, tc.query, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ValidateQuery(%q, %q) failed: %v", tc.searchType, tc.query, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ValidateQuery(%q, %q) = %q, want %q", tc.searchType, tc.query, got, tc.want)
		}
	}
}

func TestSanitizeInput(t *testing.T) {
	got := SanitizeInput(`<img src="x">`)
	if got != "&lt;img src=&quot;x&quot;&gt;" {
		t.Errorf("Unexpected sanitized output: %s", got)
	}
}
