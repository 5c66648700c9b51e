// Package tui is the terminal front end for the companion server.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/prasanna12art/skill-boost-automator/internal/client"
	"github.com/prasanna12art/skill-boost-automator/internal/models"
)

// Backend is the slice of the server API the TUI drives.
type Backend interface {
	ListLabs(ctx context.Context, p client.ListParams) (*models.ListLabsResponse, error)
	GetLab(ctx context.Context, id string) (*models.Lab, error)
	UpdateLab(ctx context.Context, id string, req models.UpdateLabRequest) (*models.Lab, error)
	Stats(ctx context.Context) (*models.StatsResponse, error)
	GenerateSteps(ctx context.Context, id string) (*models.Lab, error)
	ToggleStep(ctx context.Context, id, stepID string) (*models.Lab, error)
	Copilot(ctx context.Context, id, action string) (*models.Lab, error)
	Select(ctx context.Context, id string) (*models.Lab, error)
	Insights(ctx context.Context) (*models.InsightsResponse, error)
	RefreshInsights(ctx context.Context) (*models.InsightsResponse, error)
	Theme(ctx context.Context) (models.Theme, error)
	ToggleTheme(ctx context.Context) (models.Theme, error)
}

// ViewMode represents the current screen
type ViewMode int

const (
	ViewModeList ViewMode = iota
	ViewModeDetail
	ViewModeStats
	ViewModeInsights
	ViewModeHelp
)

const (
	requestTimeout = 10 * time.Second
	pollInterval   = time.Second
	logTail        = 8
)

var sortKeys = []string{"default", "title", "status", "difficulty", "estimatedTime"}

// Messages
type labsLoadedMsg struct {
	labs  []models.Lab
	total int
	err   error
}

type labMsg struct {
	lab    *models.Lab
	action string
	err    error
}

type statsMsg struct {
	stats *models.StatsResponse
	err   error
}

type insightsMsg struct {
	insights *models.InsightsResponse
	err      error
}

type themeMsg struct {
	theme models.Theme
	err   error
}

type tickMsg time.Time

// Model is the root Bubble Tea model
type Model struct {
	api    Backend
	keys   KeyMap
	help   help.Model
	theme  models.Theme
	styles Styles

	width  int
	height int
	ready  bool

	mode     ViewMode
	prevMode ViewMode

	// List shaping; filter indexes of 0 mean "all"
	search    textinput.Model
	searching bool
	statusIdx int
	diffIdx   int
	sortIdx   int

	labs   []models.Lab
	total  int
	cursor int

	selected   *models.Lab
	stepCursor int

	stats    *models.StatsResponse
	insights *models.InsightsResponse
	viewport viewport.Model

	flash string
	err   error
}

func NewModel(api Backend) Model {
	ti := textinput.New()
	ti.Placeholder = "search lab titles"
	ti.Prompt = "/ "
	ti.CharLimit = 120
	ti.Width = 60

	m := Model{
		api:      api,
		keys:     DefaultKeyMap(),
		help:     help.New(),
		theme:    models.ThemeLight,
		search:   ti,
		viewport: viewport.New(80, 20),
	}
	m.applyTheme(models.ThemeLight)
	return m
}

func (m *Model) applyTheme(t models.Theme) {
	m.theme = t
	m.styles = NewStyles(t)
	m.search.PromptStyle = m.styles.Prompt
	m.help.Styles.ShortKey = m.styles.HelpKey
	m.help.Styles.ShortDesc = m.styles.Dim
	m.help.Styles.FullKey = m.styles.HelpKey
	m.help.Styles.FullDesc = m.styles.HelpDesc
}

// Init loads the catalog and theme and starts polling
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		m.loadLabsCmd(),
		m.loadThemeCmd(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// params builds the list query from the current search, filters and sort
func (m Model) params() client.ListParams {
	p := client.ListParams{
		Search: m.search.Value(),
		Sort:   sortKeys[m.sortIdx],
	}
	if m.statusIdx > 0 {
		p.Statuses = []models.LabStatus{models.LabStatuses[m.statusIdx-1]}
	}
	if m.diffIdx > 0 {
		p.Difficulties = []models.Difficulty{models.Difficulties[m.diffIdx-1]}
	}
	return p
}

func (m Model) currentLab() *models.Lab {
	if m.cursor < 0 || m.cursor >= len(m.labs) {
		return nil
	}
	lab := m.labs[m.cursor]
	return &lab
}

// --- commands ---

func (m Model) loadLabsCmd() tea.Cmd {
	api, p := m.api, m.params()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		resp, err := api.ListLabs(ctx, p)
		if err != nil {
			return labsLoadedMsg{err: err}
		}
		return labsLoadedMsg{labs: resp.Labs, total: resp.Total}
	}
}

// labCmd runs one lab-returning call and tags the result with action.
func (m Model) labCmd(action string, fn func(ctx context.Context, api Backend) (*models.Lab, error)) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		timeout := requestTimeout
		if action == "generate" {
			timeout = 2 * time.Minute
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		lab, err := fn(ctx, api)
		return labMsg{lab: lab, action: action, err: err}
	}
}

func (m Model) loadStatsCmd() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		s, err := api.Stats(ctx)
		return statsMsg{stats: s, err: err}
	}
}

func (m Model) loadInsightsCmd(refresh bool) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		var (
			resp *models.InsightsResponse
			err  error
		)
		if refresh {
			resp, err = api.RefreshInsights(ctx)
		} else {
			resp, err = api.Insights(ctx)
		}
		return insightsMsg{insights: resp, err: err}
	}
}

func (m Model) loadThemeCmd() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		t, err := api.Theme(ctx)
		return themeMsg{theme: t, err: err}
	}
}

func (m Model) toggleThemeCmd() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		t, err := api.ToggleTheme(ctx)
		return themeMsg{theme: t, err: err}
	}
}

// --- update ---

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.search.Width = max(msg.Width-10, 10)
		m.viewport.Width = max(msg.Width-6, 10)
		m.viewport.Height = max(msg.Height-8, 1)
		m.refreshViewport()

	case tickMsg:
		cmds = append(cmds, m.loadLabsCmd(), tickCmd())
		if m.selected != nil {
			id := m.selected.ID
			cmds = append(cmds, m.labCmd("poll", func(ctx context.Context, api Backend) (*models.Lab, error) {
				return api.GetLab(ctx, id)
			}))
		}
		if m.mode == ViewModeInsights && m.insightsPending() {
			cmds = append(cmds, m.loadInsightsCmd(false))
		}

	case labsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			break
		}
		m.labs = msg.labs
		m.total = msg.total
		m.cursor = clamp(m.cursor, 0, len(m.labs)-1)

	case labMsg:
		m.applyLab(msg)

	case statsMsg:
		if msg.err != nil {
			m.err = msg.err
			break
		}
		m.stats = msg.stats

	case insightsMsg:
		if msg.err != nil {
			m.err = msg.err
			break
		}
		m.insights = msg.insights
		m.refreshViewport()

	case themeMsg:
		if msg.err != nil {
			m.err = msg.err
			break
		}
		m.applyTheme(msg.theme)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) applyLab(msg labMsg) {
	if msg.err != nil {
		if msg.action != "poll" {
			m.err = msg.err
		}
		return
	}
	m.err = nil
	if msg.lab == nil {
		// selection cleared
		if msg.action == "select" {
			m.selected = nil
		}
		return
	}

	lab := *msg.lab
	for i := range m.labs {
		if m.labs[i].ID == lab.ID {
			m.labs[i] = lab
		}
	}
	if msg.action == "select" || (m.selected != nil && m.selected.ID == lab.ID) {
		m.selected = &lab
		m.stepCursor = clamp(m.stepCursor, 0, len(lab.Steps)-1)
	}

	switch msg.action {
	case "run":
		m.flash = "copilot started"
	case "pause":
		m.flash = "copilot paused"
	case "reset":
		m.flash = "copilot reset"
	case "generate":
		m.flash = "steps ready"
	case "status":
		m.flash = "status: " + string(lab.Status)
	}
}

func (m Model) insightsPending() bool {
	return m.insights == nil ||
		m.insights.Status == models.InsightLoading ||
		m.insights.Status == models.InsightNotFetched
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Interrupt) {
		return m, tea.Quit
	}

	if m.searching {
		switch {
		case key.Matches(msg, m.keys.Escape), key.Matches(msg, m.keys.Enter):
			m.searching = false
			m.search.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		m.cursor = 0
		return m, tea.Batch(cmd, m.loadLabsCmd())
	}

	if m.mode == ViewModeHelp {
		m.mode = m.prevMode
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.prevMode, m.mode = m.mode, ViewModeHelp
		return m, nil
	case key.Matches(msg, m.keys.Theme):
		return m, m.toggleThemeCmd()
	case key.Matches(msg, m.keys.Stats):
		m.mode = ViewModeStats
		return m, m.loadStatsCmd()
	case key.Matches(msg, m.keys.Insights):
		m.mode = ViewModeInsights
		m.refreshViewport()
		return m, m.loadInsightsCmd(false)
	case key.Matches(msg, m.keys.Escape):
		m.mode = ViewModeList
		m.flash = ""
		return m, nil
	}

	switch m.mode {
	case ViewModeList:
		return m.handleListKey(msg)
	case ViewModeDetail:
		return m.handleDetailKey(msg)
	case ViewModeInsights:
		if key.Matches(msg, m.keys.Refresh) {
			m.insights = &models.InsightsResponse{Status: models.InsightLoading}
			m.refreshViewport()
			return m, m.loadInsightsCmd(true)
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.cursor = clamp(m.cursor-1, 0, len(m.labs)-1)
	case key.Matches(msg, m.keys.Down):
		m.cursor = clamp(m.cursor+1, 0, len(m.labs)-1)
	case key.Matches(msg, m.keys.Search):
		m.searching = true
		cmd := m.search.Focus()
		return m, cmd
	case key.Matches(msg, m.keys.Sort):
		m.sortIdx = (m.sortIdx + 1) % len(sortKeys)
		return m, m.loadLabsCmd()
	case key.Matches(msg, m.keys.Status):
		m.statusIdx = (m.statusIdx + 1) % (len(models.LabStatuses) + 1)
		m.cursor = 0
		return m, m.loadLabsCmd()
	case key.Matches(msg, m.keys.Difficulty):
		m.diffIdx = (m.diffIdx + 1) % (len(models.Difficulties) + 1)
		m.cursor = 0
		return m, m.loadLabsCmd()
	case key.Matches(msg, m.keys.Enter):
		lab := m.currentLab()
		if lab == nil {
			return m, nil
		}
		id := lab.ID
		m.mode = ViewModeDetail
		m.stepCursor = 0
		m.flash = ""
		return m, m.labCmd("select", func(ctx context.Context, api Backend) (*models.Lab, error) {
			return api.Select(ctx, id)
		})
	case key.Matches(msg, m.keys.MarkStatus):
		if lab := m.currentLab(); lab != nil {
			return m, m.markStatusCmd(lab)
		}
	}
	return m, nil
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	lab := m.selected
	if lab == nil {
		return m, nil
	}
	id := lab.ID

	switch {
	case key.Matches(msg, m.keys.Up):
		m.stepCursor = clamp(m.stepCursor-1, 0, len(lab.Steps)-1)
	case key.Matches(msg, m.keys.Down):
		m.stepCursor = clamp(m.stepCursor+1, 0, len(lab.Steps)-1)
	case key.Matches(msg, m.keys.ToggleStep):
		if m.stepCursor < len(lab.Steps) {
			stepID := lab.Steps[m.stepCursor].ID
			return m, m.labCmd("toggle", func(ctx context.Context, api Backend) (*models.Lab, error) {
				return api.ToggleStep(ctx, id, stepID)
			})
		}
	case key.Matches(msg, m.keys.Generate):
		m.flash = "generating steps..."
		return m, m.labCmd("generate", func(ctx context.Context, api Backend) (*models.Lab, error) {
			return api.GenerateSteps(ctx, id)
		})
	case key.Matches(msg, m.keys.MarkStatus):
		return m, m.markStatusCmd(lab)
	case key.Matches(msg, m.keys.Run):
		return m, m.copilotCmd(id, "run")
	case key.Matches(msg, m.keys.Pause):
		return m, m.copilotCmd(id, "pause")
	case key.Matches(msg, m.keys.Reset):
		return m, m.copilotCmd(id, "reset")
	}
	return m, nil
}

func (m Model) copilotCmd(id, action string) tea.Cmd {
	return m.labCmd(action, func(ctx context.Context, api Backend) (*models.Lab, error) {
		return api.Copilot(ctx, id, action)
	})
}

func (m Model) markStatusCmd(lab *models.Lab) tea.Cmd {
	id, next := lab.ID, nextStatus(lab.Status)
	return m.labCmd("status", func(ctx context.Context, api Backend) (*models.Lab, error) {
		return api.UpdateLab(ctx, id, models.UpdateLabRequest{Status: &next})
	})
}

// nextStatus cycles through the statuses in display order.
func nextStatus(s models.LabStatus) models.LabStatus {
	for i, v := range models.LabStatuses {
		if v == s {
			return models.LabStatuses[(i+1)%len(models.LabStatuses)]
		}
	}
	return models.LabStatuses[0]
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}
