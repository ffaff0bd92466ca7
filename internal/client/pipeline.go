// Package client provides an HTTP client for the pipeline API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// RefreshResult mirrors the price refresh response of the pipeline API.
type RefreshResult struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	UpdatedCount int    `json:"updated_count"`
	PricesFound  int    `json:"prices_found"`
	FailedCount  int    `json:"failed_count"`
}

// MetadataResult mirrors the master metadata refresh response.
type MetadataResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Updated int    `json:"updated"`
}

// PipelineClient triggers the scheduled refreshes of the API server.
type PipelineClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewPipelineClient creates a new pipeline API client.
func NewPipelineClient(baseURL, apiKey string, httpClient *http.Client) *PipelineClient {
	return &PipelineClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// RefreshPrices triggers a master price refresh in the given mode
// ("full" or "retry"). An empty mode lets the server pick its default.
func (c *PipelineClient) RefreshPrices(ctx context.Context, mode string) (*RefreshResult, error) {
	path := "/api/v1/pipeline/prices/refresh"
	if mode != "" {
		path += "?mode=" + url.QueryEscape(mode)
	}

	var result RefreshResult
	if err := c.post(ctx, path, "refreshing prices", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RefreshMetadata triggers the master name and sector refresh.
func (c *PipelineClient) RefreshMetadata(ctx context.Context) (*MetadataResult, error) {
	var result MetadataResult
	if err := c.post(ctx, "/api/v1/pipeline/securities/refresh-master", "refreshing metadata", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *PipelineClient) post(ctx context.Context, path, op string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d%s", op, resp.StatusCode, errorMessage(resp.Body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", op, err)
	}
	return nil
}

// errorMessage extracts the error message of an API error body, if any.
func errorMessage(body io.Reader) string {
	var payload struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(body, 64<<10)).Decode(&payload); err != nil || payload.Error.Message == "" {
		return ""
	}
	return ": " + payload.Error.Message
}
