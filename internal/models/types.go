package models

// --- Request / Response types ---

// UpdateLabRequest is the payload for PATCH /labs/{id}. Nil fields are left
// unchanged.
type UpdateLabRequest struct {
	Status *LabStatus `json:"status,omitempty"`
	Notes  *string    `json:"notes,omitempty"`
}

// ListLabsResponse is returned from GET /labs.
type ListLabsResponse struct {
	Labs  []Lab `json:"labs"`
	Total int   `json:"total"` // size of the unfiltered store
}

// SelectRequest is the payload for PUT /selection. A nil LabID clears the
// selection.
type SelectRequest struct {
	LabID *string `json:"labId"`
}

// InsightStatus tracks the lifecycle of the advisory insight fetch.
type InsightStatus string

const (
	InsightNotFetched InsightStatus = "not_fetched"
	InsightLoading    InsightStatus = "loading"
	InsightLoaded     InsightStatus = "loaded"
	InsightFailed     InsightStatus = "failed"
)

// InsightsResponse is returned from GET /insights.
type InsightsResponse struct {
	Status   InsightStatus `json:"status"`
	Markdown string        `json:"markdown,omitempty"`
}

// ThemeRequest is the payload for PUT /preferences/theme.
type ThemeRequest struct {
	Theme Theme `json:"theme"`
}

// ThemeResponse is returned from the theme endpoints.
type ThemeResponse struct {
	Theme Theme `json:"theme"`
}

// StatusCount is one bar of the labs-by-status breakdown.
type StatusCount struct {
	Status LabStatus `json:"status"`
	Count  int       `json:"count"`
}

// DifficultyTime is the rounded average estimated time for one difficulty.
type DifficultyTime struct {
	Difficulty     Difficulty `json:"difficulty"`
	AverageMinutes int        `json:"averageMinutes"`
	Labs           int        `json:"labs"`
}

// ServiceCount is how many labs use a GCP service.
type ServiceCount struct {
	Service string `json:"service"`
	Count   int    `json:"count"`
}

// StatsResponse is returned from GET /labs/stats.
type StatsResponse struct {
	TotalLabs           int              `json:"totalLabs"`
	StepsCompleted      int              `json:"stepsCompleted"`
	StepsTotal          int              `json:"stepsTotal"`
	ByStatus            []StatusCount    `json:"byStatus"`
	AvgTimeByDifficulty []DifficultyTime `json:"avgTimeByDifficulty"`
	TopServices         []ServiceCount   `json:"topServices"`
}

// ServiceCheck is the health of one dependency.
type ServiceCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthResponse is returned from GET /health.
type HealthResponse struct {
	Status   string       `json:"status"`
	Store    ServiceCheck `json:"store"`
	Advisor  ServiceCheck `json:"advisor"`
	LabCount int          `json:"labCount"`
}

// StreamEvent is pushed over the /stream websocket.
type StreamEvent struct {
	Type string `json:"type"`
	Lab  *Lab   `json:"lab,omitempty"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}
