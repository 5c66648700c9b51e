package advisory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/prasanna12art/skill-boost-automator/internal/config"
	"github.com/prasanna12art/skill-boost-automator/internal/models"
)

// ErrGeneration wraps every failure to obtain usable output from the model:
// transport errors, non-200 replies, empty bodies and malformed step lists.
var ErrGeneration = errors.New("generation failed")

// Advisor produces step suggestions and progress insights from a generative
// model.
type Advisor interface {
	GenerateSteps(ctx context.Context, title, description string) ([]models.StepSuggestion, error)
	GenerateInsights(ctx context.Context, labs []models.LabSummary) (string, error)
	HealthCheck(ctx context.Context) error
	Name() string
}

// New builds the advisor selected by cfg.AdvisorProvider.
func New(cfg *config.Config) (Advisor, error) {
	switch cfg.AdvisorProvider {
	case "gemini":
		return NewGeminiClient(cfg.GeminiBaseURL, cfg.GeminiModel, cfg.GeminiAPIKey, cfg.AdvisorTimeout), nil
	case "ollama":
		return NewOllamaClient(cfg.OllamaBaseURL, cfg.OllamaModel, cfg.AdvisorTimeout), nil
	default:
		return nil, fmt.Errorf("unknown advisor provider %q", cfg.AdvisorProvider)
	}
}

func generationErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrGeneration, fmt.Sprintf(format, args...))
}

type rawStep struct {
	Title        *string `json:"title"`
	Instructions *string `json:"instructions"`
}

// parseSteps decodes a JSON array of {title, instructions}. Models sometimes
// wrap JSON in a markdown fence; that is stripped first.
func parseSteps(text string) ([]models.StepSuggestion, error) {
	text = stripFence(strings.TrimSpace(text))
	if text == "" {
		return nil, generationErr("empty step list")
	}

	var raw []rawStep
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, generationErr("decode steps: %v", err)
	}

	steps := make([]models.StepSuggestion, 0, len(raw))
	for i, r := range raw {
		if r.Title == nil || r.Instructions == nil {
			return nil, generationErr("step %d missing title or instructions", i+1)
		}
		steps = append(steps, models.StepSuggestion{
			Title:        strings.TrimSpace(*r.Title),
			Instructions: strings.TrimSpace(*r.Instructions),
		})
	}
	return steps, nil
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
