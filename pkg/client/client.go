package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kurihiro0119/gitlab-commit-checker/internal/domain"
)

// Client is the API client for gitlab-commit-checker
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// CheckRequest is the request body of a check
type CheckRequest struct {
	GitLabURL  string          `json:"gitlabUrl,omitempty"`
	Projects   string          `json:"projects,omitempty"`
	Targets    []domain.Target `json:"targets,omitempty"`
	ContextURL string          `json:"contextUrl,omitempty"`
}

// APIError is an error reported by the server
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error: HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("API error: %s - %s", e.Code, e.Message)
}

// Check runs a batch on the server
func (c *Client) Check(ctx context.Context, req CheckRequest) (*domain.Batch, error) {
	var response struct {
		Data *domain.Batch `json:"data"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/check", nil, req, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// ListHistory retrieves up to limit history records, newest first
func (c *Client) ListHistory(ctx context.Context, limit int) ([]*domain.HistoryRecord, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var response struct {
		Data []*domain.HistoryRecord `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/history", params, nil, &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// ClearHistory removes all history records on the server
func (c *Client) ClearHistory(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/history", nil, nil, nil)
}

// HealthCheck checks if the API is healthy
func (c *Client) HealthCheck(ctx context.Context) error {
	var response struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodGet, "/health", nil, nil, &response); err != nil {
		return err
	}
	if response.Status != "ok" {
		return fmt.Errorf("unhealthy status: %s", response.Status)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, result interface{}) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return err
	}
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope struct {
			Error *APIError `json:"error"`
		}
		if data, _ := io.ReadAll(resp.Body); json.Unmarshal(data, &envelope) == nil && envelope.Error != nil {
			apiErr.Code = envelope.Error.Code
			apiErr.Message = envelope.Error.Message
		}
		return apiErr
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(result)
}
