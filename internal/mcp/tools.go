package mcp

import "github.com/prasanna12art/skill-boost-automator/internal/models"

func labIDField() Field {
	return Field{Type: "string", Description: "Lab id as shown by labs_list"}
}

func statusNames() []string {
	out := make([]string, len(models.LabStatuses))
	for i, s := range models.LabStatuses {
		out[i] = string(s)
	}
	return out
}

func difficultyNames() []string {
	out := make([]string, len(models.Difficulties))
	for i, d := range models.Difficulties {
		out[i] = string(d)
	}
	return out
}

// Tools returns the tool catalog served on tools/list.
func Tools() []Tool {
	return []Tool{
		{
			Name: "labs_list",
			Description: "List tracked labs. Optional filters narrow by a case-insensitive title search, " +
				"by status and by difficulty.",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Field{
					"search": {Type: "string", Description: "Case-insensitive substring of the title"},
					"statuses": {Type: "array", Description: "Statuses to keep",
						Items: &Field{Type: "string", Enum: statusNames()}},
					"difficulties": {Type: "array", Description: "Difficulties to keep",
						Items: &Field{Type: "string", Enum: difficultyNames()}},
					"sort": {Type: "string", Description: "Sort key",
						Enum: []string{"default", "title", "status", "difficulty", "estimatedTime"}},
				},
			},
		},
		{
			Name:        "lab_get",
			Description: "Get one lab with its steps, notes and copilot session log.",
			InputSchema: Schema{
				Type:       "object",
				Properties: map[string]Field{"labId": labIDField()},
				Required:   []string{"labId"},
			},
		},
		{
			Name: "lab_generate_steps",
			Description: "Ask the AI advisor for step-by-step instructions for a lab that has none yet. " +
				"Labs that already have steps are returned unchanged.",
			InputSchema: Schema{
				Type:       "object",
				Properties: map[string]Field{"labId": labIDField()},
				Required:   []string{"labId"},
			},
		},
		{
			Name:        "copilot_run",
			Description: "Start or resume the simulated copilot, which completes one step every interval.",
			InputSchema: Schema{
				Type:       "object",
				Properties: map[string]Field{"labId": labIDField()},
				Required:   []string{"labId"},
			},
		},
		{
			Name:        "copilot_pause",
			Description: "Pause a running copilot session.",
			InputSchema: Schema{
				Type:       "object",
				Properties: map[string]Field{"labId": labIDField()},
				Required:   []string{"labId"},
			},
		},
		{
			Name:        "copilot_reset",
			Description: "Reset the copilot session and mark every step incomplete.",
			InputSchema: Schema{
				Type:       "object",
				Properties: map[string]Field{"labId": labIDField()},
				Required:   []string{"labId"},
			},
		},
		{
			Name: "labs_insights",
			Description: "Get AI study recommendations across all labs as Markdown. " +
				"Set refresh to discard the cached result and fetch again.",
			InputSchema: Schema{
				Type: "object",
				Properties: map[string]Field{
					"refresh": {Type: "boolean", Description: "Force a new fetch"},
				},
			},
		},
		{
			Name:        "labs_stats",
			Description: "Aggregate progress: counts by status, average time by difficulty, top GCP services.",
			InputSchema: Schema{Type: "object"},
		},
	}
}
