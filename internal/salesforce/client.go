// File path: internal/salesforce/client.go
package salesforce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/cloudblazer/sfexporter/internal/common"
)

// Client issues Salesforce REST and OAuth2 requests. All calls are blocking
// and sequential; the zero concurrency inside the client keeps ordering
// guarantees with the upstream API responses.
type Client struct {
	cfg Config

	queryClient *http.Client
	listClient  *http.Client
}

// New constructs a client using the provided configuration.
func New(cfg Config) *Client {
	cfg.applyDefaults()
	return &Client{
		cfg:         cfg,
		queryClient: &http.Client{Timeout: cfg.QueryTimeout},
		listClient:  &http.Client{Timeout: cfg.ListTimeout},
	}
}

// NewFromEnv constructs a client from environment configuration.
func NewFromEnv() *Client {
	return New(LoadConfig())
}

// APIVersion returns the REST API version the client targets.
func (c *Client) APIVersion() string { return c.cfg.APIVersion }

func (c *Client) restURL(instanceURL, path string) string {
	return strings.TrimRight(instanceURL, "/") + "/services/data/" + c.cfg.APIVersion + path
}

// getJSON issues an authenticated GET and decodes the response body into out.
// Non-2xx responses and transport failures are returned as *APIError.
func (c *Client) getJSON(ctx context.Context, client *http.Client, operation, rawURL, accessToken string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return &APIError{Operation: operation, Detail: "build request", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return &APIError{Operation: operation, Detail: "network error", Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Operation: operation, Status: resp.StatusCode, Detail: "read response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Operation: operation, Status: resp.StatusCode, Detail: apiErrorDetail(body)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &APIError{Operation: operation, Status: resp.StatusCode, Detail: "decode response", Err: err}
	}
	return nil
}

// soqlQuery runs a SOQL query and decodes the records array into out.
func (c *Client) soqlQuery(ctx context.Context, client *http.Client, operation, accessToken, instanceURL, query string, out interface{}) error {
	queryURL := c.restURL(instanceURL, "/query") + "?q=" + url.QueryEscape(query)
	var envelope struct {
		Records json.RawMessage `json:"records"`
	}
	if err := c.getJSON(ctx, client, operation, queryURL, accessToken, &envelope); err != nil {
		return err
	}
	if len(envelope.Records) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Records, out); err != nil {
		return &APIError{Operation: operation, Detail: "decode records", Err: err}
	}
	return nil
}

// apiErrorDetail extracts a human-readable message from a Salesforce error
// body, which may be a JSON object or an array of objects.
func apiErrorDetail(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return "unknown error"
	}
	var single map[string]interface{}
	if err := json.Unmarshal(body, &single); err == nil {
		if detail := messageFromMap(single); detail != "" {
			return detail
		}
	}
	var many []map[string]interface{}
	if err := json.Unmarshal(body, &many); err == nil && len(many) > 0 {
		if detail := messageFromMap(many[0]); detail != "" {
			return detail
		}
	}
	return trimmed
}

func messageFromMap(m map[string]interface{}) string {
	for _, key := range []string{"error_description", "message", "error"} {
		if value, ok := m[key].(string); ok && strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func logAPIFailure(operation string, err error) {
	common.Logger().Warn(fmt.Sprintf("salesforce: %s failed", operation), "error", err)
}
