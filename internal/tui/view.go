package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/prasanna12art/skill-boost-automator/internal/models"
)

// View renders the current screen
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var body string
	switch m.mode {
	case ViewModeHelp:
		body = m.helpView()
	case ViewModeDetail:
		body = m.detailView()
	case ViewModeStats:
		body = m.statsView()
	case ViewModeInsights:
		body = m.insightsView()
	default:
		body = m.listView()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderStatusBar(),
	)
}

func (m Model) renderHeader() string {
	title := m.styles.Header.Render("GCP LAB COMPANION")
	subtitle := m.styles.Subtitle.Render("Skill Boost study tracker")

	var labInfo string
	if m.selected != nil {
		labInfo = m.styles.Dim.Render(" · " + m.selected.Title)
	}
	return lipgloss.NewStyle().Width(m.width).Render(title+"  "+subtitle+labInfo) + "\n"
}

func (m Model) filterLine() string {
	status, diff := "all", "all"
	if m.statusIdx > 0 {
		status = string(models.LabStatuses[m.statusIdx-1])
	}
	if m.diffIdx > 0 {
		diff = string(models.Difficulties[m.diffIdx-1])
	}
	return m.styles.Dim.Render(fmt.Sprintf("status: %s │ difficulty: %s │ sort: %s │ %d of %d labs",
		status, diff, sortKeys[m.sortIdx], len(m.labs), m.total))
}

func (m Model) listView() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Labs"))
	b.WriteString("\n")
	b.WriteString(m.filterLine())
	b.WriteString("\n\n")

	if len(m.labs) == 0 {
		b.WriteString(m.styles.Dim.Render("No labs match the current search and filters."))
	}
	for i, lab := range m.labs {
		b.WriteString(m.renderLabRow(lab, i == m.cursor))
		b.WriteString("\n")
	}

	list := m.styles.Panel.Width(max(m.width-2, 20)).Render(b.String())

	search := m.search.View()
	if !m.searching && m.search.Value() == "" {
		search = m.styles.Dim.Render("press / to search")
	}
	return lipgloss.JoinVertical(lipgloss.Left, list, m.styles.Input.Width(max(m.width-2, 20)).Render(search))
}

func (m Model) renderLabRow(lab models.Lab, active bool) string {
	cursor := "  "
	title := m.styles.Text.Render(lab.Title)
	if active {
		cursor = m.styles.Cursor.Render("❯ ")
		title = m.styles.Cursor.Render(lab.Title)
	}

	done, total := lab.CompletedSteps(), len(lab.Steps)
	meta := m.styles.Dim.Render(fmt.Sprintf("  %s · %dm · %d/%d steps",
		lab.Difficulty, lab.EstimatedTime, done, total))

	status := m.styles.StatusStyle(lab.Status).Render("[" + string(lab.Status) + "]")
	copilot := ""
	if lab.CopilotSession.Status != models.CopilotIdle {
		copilot = " " + m.styles.CopilotStyle(lab.CopilotSession.Status).Render("copilot "+strings.ToLower(string(lab.CopilotSession.Status)))
	}
	return cursor + status + " " + title + meta + copilot
}

func (m Model) detailView() string {
	lab := m.selected
	if lab == nil {
		return m.styles.Panel.Render(m.styles.Dim.Render("No lab selected. Press esc to go back."))
	}

	var b strings.Builder
	b.WriteString(m.styles.Title.Render(lab.Title))
	b.WriteString("\n")
	b.WriteString(m.styles.StatusStyle(lab.Status).Render(string(lab.Status)))
	b.WriteString(m.styles.Dim.Render(fmt.Sprintf(" · %s · %d min · %s", lab.Difficulty, lab.EstimatedTime, lab.Course)))
	b.WriteString("\n")
	if len(lab.GCPServices) > 0 {
		b.WriteString(m.styles.Dim.Render("services: " + strings.Join(lab.GCPServices, ", ")))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.styles.Text.Render(lab.Description))
	b.WriteString("\n")
	if lab.Notes != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.Warning.Render("notes: "))
		b.WriteString(m.styles.Text.Render(lab.Notes))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Title.Render(fmt.Sprintf("Steps (%d/%d)", lab.CompletedSteps(), len(lab.Steps))))
	b.WriteString("\n")
	if len(lab.Steps) == 0 {
		b.WriteString(m.styles.Dim.Render("No steps yet. Press g to generate them."))
		b.WriteString("\n")
	}
	for i, step := range lab.Steps {
		b.WriteString(m.renderStep(i, step, lab.CopilotSession))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.renderCopilot(lab))

	if m.flash != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.Success.Render(m.flash))
	}
	return m.styles.Panel.Width(max(m.width-2, 20)).Render(b.String())
}

func (m Model) renderStep(i int, step models.LabStep, session models.CopilotSession) string {
	check := m.styles.Dim.Render("[ ]")
	if step.IsCompleted {
		check = m.styles.Success.Render("[x]")
	}
	cursor := "  "
	if i == m.stepCursor {
		cursor = m.styles.Cursor.Render("❯ ")
	}
	marker := ""
	if session.Status == models.CopilotRunning && i == session.CurrentStepIndex {
		marker = m.styles.Warning.Render(" ◀ next")
	}
	return fmt.Sprintf("%s%s %d. %s%s", cursor, check, i+1, m.styles.Text.Render(step.Title), marker)
}

func (m Model) renderCopilot(lab *models.Lab) string {
	s := lab.CopilotSession
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Copilot "))
	b.WriteString(m.styles.CopilotStyle(s.Status).Render(string(s.Status)))
	b.WriteString(m.styles.Dim.Render(fmt.Sprintf(" · step %d/%d", min(s.CurrentStepIndex, len(lab.Steps)), len(lab.Steps))))
	b.WriteString("\n")

	logs := s.Logs
	if len(logs) > logTail {
		logs = logs[len(logs)-logTail:]
	}
	for _, line := range logs {
		style := m.styles.Dim
		if strings.HasPrefix(line, "Error:") {
			style = m.styles.Error
		}
		b.WriteString(style.Render("  " + line))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) statsView() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Progress"))
	b.WriteString("\n\n")

	st := m.stats
	if st == nil {
		b.WriteString(m.styles.Dim.Render("Loading stats..."))
		return m.styles.Panel.Width(max(m.width-2, 20)).Render(b.String())
	}

	fmt.Fprintf(&b, "%s %d labs · %d/%d steps completed\n\n",
		m.styles.Text.Render("Total:"), st.TotalLabs, st.StepsCompleted, st.StepsTotal)

	b.WriteString(m.styles.Title.Render("By status"))
	b.WriteString("\n")
	for _, c := range st.ByStatus {
		b.WriteString(m.styles.StatusStyle(c.Status).Render(fmt.Sprintf("  %-14s", c.Status)))
		b.WriteString(m.styles.Text.Render(fmt.Sprintf(" %s %d", bar(c.Count, st.TotalLabs, 20), c.Count)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Title.Render("Average time by difficulty"))
	b.WriteString("\n")
	for _, d := range st.AvgTimeByDifficulty {
		b.WriteString(m.styles.Text.Render(fmt.Sprintf("  %-13s %4d min (%d labs)", d.Difficulty, d.AverageMinutes, d.Labs)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Title.Render("Top GCP services"))
	b.WriteString("\n")
	for _, s := range st.TopServices {
		b.WriteString(m.styles.Text.Render(fmt.Sprintf("  %-28s %d", s.Service, s.Count)))
		b.WriteString("\n")
	}
	return m.styles.Panel.Width(max(m.width-2, 20)).Render(b.String())
}

// bar draws a proportional block bar of the given width.
func bar(n, total, width int) string {
	if total <= 0 {
		return strings.Repeat("░", width)
	}
	filled := n * width / total
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func (m Model) insightsView() string {
	header := m.styles.Title.Render("AI insights") + m.styles.Dim.Render("  R refresh · ↑/↓ scroll")
	return m.styles.Panel.Width(max(m.width-2, 20)).Render(header + "\n\n" + m.viewport.View())
}

// refreshViewport reloads the insights text into the scroll area.
func (m *Model) refreshViewport() {
	m.viewport.SetContent(m.insightsContent())
}

func (m Model) insightsContent() string {
	if m.insights == nil {
		return m.styles.Dim.Render("Loading insights...")
	}
	switch m.insights.Status {
	case models.InsightLoaded:
		return m.styles.Text.Render(m.insights.Markdown)
	case models.InsightFailed:
		return m.styles.Error.Render(m.insights.Markdown)
	default:
		return m.styles.Dim.Render("Analyzing your labs...")
	}
}

func (m Model) helpView() string {
	title := m.styles.Title.Render("Keyboard Shortcuts")
	m.help.ShowAll = true
	return m.styles.Panel.Padding(1, 2).Render(title + "\n\n" + m.help.View(m.keys) + "\n\n" +
		m.styles.Dim.Render("Press any key to close"))
}

func (m Model) renderStatusBar() string {
	var left string
	switch {
	case m.err != nil:
		left = m.styles.Error.Render("● " + m.err.Error())
	case m.searching:
		left = m.styles.Warning.Render("● searching") + m.styles.Dim.Render(" │ enter/esc done")
	default:
		left = m.styles.Success.Render("● connected") + m.styles.Dim.Render(" │ theme: "+string(m.theme))
	}
	return m.styles.Bar.Render(left + m.styles.Dim.Render(" │ ") + m.help.ShortHelpView(m.keys.ShortHelp()))
}
