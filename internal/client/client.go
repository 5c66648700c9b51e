// Package client is a typed HTTP client for the companion server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prasanna12art/skill-boost-automator/internal/models"
)

// APIError is a non-2xx reply from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// ListParams mirrors the GET /labs query.
type ListParams struct {
	Search       string
	Statuses     []models.LabStatus
	Difficulties []models.Difficulty
	Sort         string
}

func (p ListParams) encode() string {
	v := url.Values{}
	if p.Search != "" {
		v.Set("q", p.Search)
	}
	if len(p.Statuses) > 0 {
		parts := make([]string, len(p.Statuses))
		for i, s := range p.Statuses {
			parts[i] = string(s)
		}
		v.Set("status", strings.Join(parts, ","))
	}
	if len(p.Difficulties) > 0 {
		parts := make([]string, len(p.Difficulties))
		for i, d := range p.Difficulties {
			parts[i] = string(d)
		}
		v.Set("difficulty", strings.Join(parts, ","))
	}
	if p.Sort != "" {
		v.Set("sort", p.Sort)
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

func (c *Client) ListLabs(ctx context.Context, p ListParams) (*models.ListLabsResponse, error) {
	var out models.ListLabsResponse
	return &out, c.doJSON(ctx, http.MethodGet, "/labs"+p.encode(), nil, &out)
}

func (c *Client) GetLab(ctx context.Context, id string) (*models.Lab, error) {
	var out models.Lab
	return &out, c.doJSON(ctx, http.MethodGet, "/labs/"+url.PathEscape(id), nil, &out)
}

func (c *Client) UpdateLab(ctx context.Context, id string, req models.UpdateLabRequest) (*models.Lab, error) {
	var out models.Lab
	return &out, c.doJSON(ctx, http.MethodPatch, "/labs/"+url.PathEscape(id), req, &out)
}

func (c *Client) Stats(ctx context.Context) (*models.StatsResponse, error) {
	var out models.StatsResponse
	return &out, c.doJSON(ctx, http.MethodGet, "/labs/stats", nil, &out)
}

func (c *Client) GenerateSteps(ctx context.Context, id string) (*models.Lab, error) {
	var out models.Lab
	return &out, c.doJSON(ctx, http.MethodPost, "/labs/"+url.PathEscape(id)+"/steps/generate", nil, &out)
}

func (c *Client) ToggleStep(ctx context.Context, id, stepID string) (*models.Lab, error) {
	var out models.Lab
	path := fmt.Sprintf("/labs/%s/steps/%s/toggle", url.PathEscape(id), url.PathEscape(stepID))
	return &out, c.doJSON(ctx, http.MethodPost, path, nil, &out)
}

// Copilot issues run, pause or reset for a lab.
func (c *Client) Copilot(ctx context.Context, id, action string) (*models.Lab, error) {
	var out models.Lab
	return &out, c.doJSON(ctx, http.MethodPost, "/labs/"+url.PathEscape(id)+"/copilot/"+action, nil, &out)
}

// Select sets the selected lab; an empty id clears it. It returns nil when
// nothing ends up selected.
func (c *Client) Select(ctx context.Context, id string) (*models.Lab, error) {
	req := models.SelectRequest{}
	if id != "" {
		req.LabID = &id
	}
	var out models.Lab
	status, err := c.do(ctx, http.MethodPut, "/selection", req, &out)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNoContent {
		return nil, nil
	}
	return &out, nil
}

func (c *Client) Insights(ctx context.Context) (*models.InsightsResponse, error) {
	var out models.InsightsResponse
	return &out, c.doJSON(ctx, http.MethodGet, "/insights", nil, &out)
}

func (c *Client) RefreshInsights(ctx context.Context) (*models.InsightsResponse, error) {
	var out models.InsightsResponse
	return &out, c.doJSON(ctx, http.MethodPost, "/insights/refresh", nil, &out)
}

func (c *Client) Theme(ctx context.Context) (models.Theme, error) {
	var out models.ThemeResponse
	err := c.doJSON(ctx, http.MethodGet, "/preferences/theme", nil, &out)
	return out.Theme, err
}

func (c *Client) ToggleTheme(ctx context.Context) (models.Theme, error) {
	var out models.ThemeResponse
	err := c.doJSON(ctx, http.MethodPost, "/preferences/theme/toggle", nil, &out)
	return out.Theme, err
}

func (c *Client) Health(ctx context.Context) (*models.HealthResponse, error) {
	var out models.HealthResponse
	_, err := c.do(ctx, http.MethodGet, "/health", nil, &out)
	return &out, err
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	_, err := c.do(ctx, method, path, body, out)
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) (int, error) {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var e models.ErrorResponse
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(data))
		}
		return resp.StatusCode, &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if resp.StatusCode == http.StatusNoContent || out == nil {
		return resp.StatusCode, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return resp.StatusCode, nil
}

func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return resp, nil
}
