package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prasanna12art/skill-boost-automator/internal/models"
)

// OllamaClient generates steps and insights with a local Ollama model.
type OllamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewOllamaClient(baseURL, model string, timeout time.Duration) *OllamaClient {
	return &OllamaClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout, // LLM generation can be slow
		},
	}
}

func (c *OllamaClient) Name() string { return "ollama:" + c.model }

// ollamaRequest is the request body for Ollama /api/generate.
type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
	Format any    `json:"format,omitempty"`
}

// ollamaResponse is the response body from Ollama /api/generate.
type ollamaResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (c *OllamaClient) GenerateSteps(ctx context.Context, title, description string) ([]models.StepSuggestion, error) {
	text, err := c.generate(ctx, buildStepsPrompt(title, description), stepsSchema)
	if err != nil {
		return nil, err
	}
	return parseSteps(text)
}

func (c *OllamaClient) GenerateInsights(ctx context.Context, labs []models.LabSummary) (string, error) {
	prompt, err := buildInsightsPrompt(labs)
	if err != nil {
		return "", generationErr("%v", err)
	}
	return c.generate(ctx, prompt, nil)
}

func (c *OllamaClient) generate(ctx context.Context, prompt string, format any) (string, error) {
	body, err := json.Marshal(ollamaRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Format: format,
	})
	if err != nil {
		return "", generationErr("marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", generationErr("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", generationErr("ollama generate: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", generationErr("ollama returned %d: %s", resp.StatusCode, string(respBody))
	}

	var result ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", generationErr("decode ollama response: %v", err)
	}
	if strings.TrimSpace(result.Response) == "" {
		return "", generationErr("empty response from ollama")
	}
	return strings.TrimSpace(result.Response), nil
}

// HealthCheck verifies Ollama is reachable.
func (c *OllamaClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ollama unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama health check: status %d", resp.StatusCode)
	}
	return nil
}
