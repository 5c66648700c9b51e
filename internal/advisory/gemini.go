package advisory

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

// GeminiClient calls the Generative Language REST API.
type GeminiClient struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

func NewGeminiClient(baseURL, model, apiKey string, timeout time.Duration) *GeminiClient {
	return &GeminiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *GeminiClient) Name() string { return "gemini:" + c.model }

// geminiStepsSchema is stepsSchema in the API's OpenAPI subset, which spells
// types in upper case.
var geminiStepsSchema = map[string]any{
	"type": "ARRAY",
	"items": map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			"title":        map[string]any{"type": "STRING", "description": "The title of the lab step."},
			"instructions": map[string]any{"type": "STRING", "description": "The instructions for completing the lab step."},
		},
		"required": []string{"title", "instructions"},
	},
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string         `json:"responseMimeType,omitempty"`
	ResponseSchema   map[string]any `json:"responseSchema,omitempty"`
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// GenerateSteps asks for 4-5 steps as a schema-constrained JSON array.
func (c *GeminiClient) GenerateSteps(ctx context.Context, title, description string) ([]models.StepSuggestion, error) {
	text, err := c.generate(ctx, buildStepsPrompt(title, description), &geminiGenerationConfig{
		ResponseMimeType: "application/json",
		ResponseSchema:   geminiStepsSchema,
	})
	if err != nil {
		return nil, err
	}
	return parseSteps(text)
}

// GenerateInsights returns a markdown analysis of the learner's progress.
func (c *GeminiClient) GenerateInsights(ctx context.Context, labs []models.LabSummary) (string, error) {
	prompt, err := buildInsightsPrompt(labs)
	if err != nil {
		return "", generationErr("%v", err)
	}
	return c.generate(ctx, prompt, nil)
}

func (c *GeminiClient) generate(ctx context.Context, prompt string, gen *geminiGenerationConfig) (string, error) {
	if c.apiKey == "" {
		return "", generationErr("GEMINI_API_KEY is not set")
	}

	body, err := json.Marshal(geminiRequest{
		Contents:         []geminiContent{{Role: "user", Parts: []geminiPart{{Text: prompt}}}},
		GenerationConfig: gen,
	})
	if err != nil {
		return "", generationErr("marshal request: %v", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", generationErr("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", generationErr("gemini generate: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", generationErr("read gemini response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", generationErr("gemini returned %d: %s", resp.StatusCode, string(respBody))
	}

	var gr geminiResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		return "", generationErr("decode gemini response: %v", err)
	}
	if gr.PromptFeedback != nil && gr.PromptFeedback.BlockReason != "" {
		return "", generationErr("prompt blocked: %s", gr.PromptFeedback.BlockReason)
	}

	var sb strings.Builder
	if len(gr.Candidates) > 0 {
		for _, p := range gr.Candidates[0].Content.Parts {
			sb.WriteString(p.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", generationErr("empty response from gemini")
	}
	return text, nil
}

// HealthCheck verifies the model exists and the key is accepted.
func (c *GeminiClient) HealthCheck(ctx context.Context) error {
	if c.apiKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is not set")
	}
	endpoint := fmt.Sprintf("%s/v1beta/models/%s", c.baseURL, url.PathEscape(c.model))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gemini unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gemini health check: status %d", resp.StatusCode)
	}
	return nil
}
