package models

// LabStatus is the learner-assigned progress label of a lab. It is set by the
// user and is never derived from step completion.
type LabStatus string

const (
	StatusNotStarted   LabStatus = "Not Started"
	StatusInProgress   LabStatus = "In Progress"
	StatusCompleted    LabStatus = "Completed"
	StatusReviewNeeded LabStatus = "Review Needed"
	StatusMastered     LabStatus = "Mastered"
)

// LabStatuses lists every status in display order.
var LabStatuses = []LabStatus{
	StatusNotStarted,
	StatusInProgress,
	StatusCompleted,
	StatusReviewNeeded,
	StatusMastered,
}

func (s LabStatus) IsValid() bool {
	for _, v := range LabStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Difficulty is an ordered enumeration, easiest first.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "Beginner"
	DifficultyIntermediate Difficulty = "Intermediate"
	DifficultyAdvanced     Difficulty = "Advanced"
	DifficultyExpert       Difficulty = "Expert"
)

var Difficulties = []Difficulty{
	DifficultyBeginner,
	DifficultyIntermediate,
	DifficultyAdvanced,
	DifficultyExpert,
}

// Rank returns the position of d in Difficulties, or -1 if d is unknown.
func (d Difficulty) Rank() int {
	for i, v := range Difficulties {
		if d == v {
			return i
		}
	}
	return -1
}

func (d Difficulty) IsValid() bool {
	return d.Rank() >= 0
}

// CopilotStatus is the state of a lab's simulated walkthrough.
type CopilotStatus string

const (
	CopilotIdle      CopilotStatus = "Idle"
	CopilotRunning   CopilotStatus = "Running"
	CopilotPaused    CopilotStatus = "Paused"
	CopilotCompleted CopilotStatus = "Completed"
	CopilotError     CopilotStatus = "Error"
)

func (s CopilotStatus) IsValid() bool {
	switch s {
	case CopilotIdle, CopilotRunning, CopilotPaused, CopilotCompleted, CopilotError:
		return true
	}
	return false
}

// LabStep is one actionable instruction within a lab.
type LabStep struct {
	ID           string `json:"id" yaml:"id"`
	Title        string `json:"title" yaml:"title"`
	Instructions string `json:"instructions" yaml:"instructions"`
	IsCompleted  bool   `json:"isCompleted" yaml:"isCompleted"`
}

// CopilotSession is the execution state of the walkthrough for one lab.
// CurrentStepIndex is the index of the next step to execute.
type CopilotSession struct {
	Status           CopilotStatus `json:"status" yaml:"status"`
	CurrentStepIndex int           `json:"currentStepIndex" yaml:"currentStepIndex"`
	Logs             []string      `json:"logs" yaml:"logs"`
}

// IdleSession returns the session every lab starts with and returns to on reset.
func IdleSession() CopilotSession {
	return CopilotSession{Status: CopilotIdle, CurrentStepIndex: 0, Logs: []string{}}
}

// Lab is a trackable cloud-training exercise.
type Lab struct {
	ID             string         `json:"id" yaml:"id"`
	Title          string         `json:"title" yaml:"title"`
	Description    string         `json:"description" yaml:"description"`
	Course         string         `json:"course" yaml:"course"`
	Difficulty     Difficulty     `json:"difficulty" yaml:"difficulty"`
	Status         LabStatus      `json:"status" yaml:"status"`
	EstimatedTime  int            `json:"estimatedTime" yaml:"estimatedTime"` // minutes
	Notes          string         `json:"notes" yaml:"notes"`
	GCPServices    []string       `json:"gcpServices" yaml:"gcpServices"`
	Steps          []LabStep      `json:"steps" yaml:"steps"`
	CopilotSession CopilotSession `json:"copilotSession" yaml:"copilotSession"`
}

// Clone returns a deep copy so callers never share slices with the store.
func (l Lab) Clone() Lab {
	out := l
	out.GCPServices = append([]string{}, l.GCPServices...)
	out.Steps = append([]LabStep{}, l.Steps...)
	out.CopilotSession.Logs = append([]string{}, l.CopilotSession.Logs...)
	return out
}

// Normalize fills zero values that older persisted records may lack: a
// missing session becomes Idle and nil slices become empty.
func (l *Lab) Normalize() {
	if l.GCPServices == nil {
		l.GCPServices = []string{}
	}
	if l.Steps == nil {
		l.Steps = []LabStep{}
	}
	if l.CopilotSession.Status == "" {
		l.CopilotSession.Status = CopilotIdle
	}
	if l.CopilotSession.Logs == nil {
		l.CopilotSession.Logs = []string{}
	}
	if l.CopilotSession.CurrentStepIndex < 0 {
		l.CopilotSession.CurrentStepIndex = 0
	}
	if l.CopilotSession.CurrentStepIndex > len(l.Steps) {
		l.CopilotSession.CurrentStepIndex = len(l.Steps)
	}
}

// CompletedSteps counts the steps marked complete.
func (l Lab) CompletedSteps() int {
	n := 0
	for _, s := range l.Steps {
		if s.IsCompleted {
			n++
		}
	}
	return n
}

// StepSuggestion is a step proposed by the advisory service, before it is
// given an id and attached to a lab.
type StepSuggestion struct {
	Title        string `json:"title"`
	Instructions string `json:"instructions"`
}

// LabSummary is the reduced view of a lab sent to the advisory service when
// generating insights.
type LabSummary struct {
	Title         string     `json:"title"`
	Status        LabStatus  `json:"status"`
	Difficulty    Difficulty `json:"difficulty"`
	GCPServices   []string   `json:"gcpServices"`
	EstimatedTime int        `json:"estimatedTime"`
	Notes         string     `json:"notes,omitempty"`
}

// Theme is the stored display preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

func (t Theme) IsValid() bool {
	return t == ThemeLight || t == ThemeDark
}
