package advisory

import (
	"encoding/json"
	"fmt"

	"github.com/prasanna12art/skill-boost-automator/internal/models"
)

const stepsPrompt = `Based on the following Google Cloud Platform lab title and description, generate a concise list of 4-5 high-level steps to complete the lab.
Each step must have a 'title' and 'instructions'.
The instructions should be brief, clear, and actionable (1-2 sentences).

Lab Title: %q
Lab Description: %q

Return the output as a JSON array of objects.`

const insightsPrompt = `As an expert Google Cloud learning advisor, analyze the following user's lab progress data.
Provide brief, actionable insights to guide their learning journey.
The response must be in Markdown format.

### Analysis Summary
Start with a one-sentence encouraging summary of their progress.

### Key Patterns
- Identify the top 2-3 most frequently used GCP services.
- Briefly comment on their preferred lab difficulty level.

### Recommended Next Step
- Suggest one specific lab from their "Not Started" list to tackle next. Explain why it's a good choice based on their history (e.g., builds on skills, introduces a new, relevant service).

### Pro Tip
- Offer one specific, actionable tip for improvement or a concept to explore further based on the data.

User's Lab Data:
%s`

// stepsSchema constrains structured output to [{title, instructions}].
var stepsSchema = map[string]any{
	"type": "array",
	"items": map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":        map[string]any{"type": "string", "description": "The title of the lab step."},
			"instructions": map[string]any{"type": "string", "description": "The instructions for completing the lab step."},
		},
		"required": []string{"title", "instructions"},
	},
}

func buildStepsPrompt(title, description string) string {
	return fmt.Sprintf(stepsPrompt, title, description)
}

func buildInsightsPrompt(labs []models.LabSummary) (string, error) {
	data, err := json.MarshalIndent(labs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal lab summaries: %w", err)
	}
	return fmt.Sprintf(insightsPrompt, data), nil
}
