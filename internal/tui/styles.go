package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/prasanna12art/skill-boost-automator/internal/models"
)

// Palette is one set of theme colors.
type Palette struct {
	Fg     lipgloss.Color
	Muted  lipgloss.Color
	Accent lipgloss.Color
	Border lipgloss.Color
	Red    lipgloss.Color
	Green  lipgloss.Color
	Yellow lipgloss.Color
	Blue   lipgloss.Color
	Purple lipgloss.Color
}

// One Dark for the dark theme, One Light for the light one.
var (
	darkPalette = Palette{
		Fg:     lipgloss.Color("#ABB2BF"),
		Muted:  lipgloss.Color("#636B78"),
		Accent: lipgloss.Color("#61AFEF"),
		Border: lipgloss.Color("#3F4451"),
		Red:    lipgloss.Color("#E06C75"),
		Green:  lipgloss.Color("#98C379"),
		Yellow: lipgloss.Color("#E5C07B"),
		Blue:   lipgloss.Color("#61AFEF"),
		Purple: lipgloss.Color("#C678DD"),
	}
	lightPalette = Palette{
		Fg:     lipgloss.Color("#383A42"),
		Muted:  lipgloss.Color("#A0A1A7"),
		Accent: lipgloss.Color("#4078F2"),
		Border: lipgloss.Color("#D0D0D0"),
		Red:    lipgloss.Color("#E45649"),
		Green:  lipgloss.Color("#50A14F"),
		Yellow: lipgloss.Color("#C18401"),
		Blue:   lipgloss.Color("#4078F2"),
		Purple: lipgloss.Color("#A626A4"),
	}
)

// Styles holds every style the views render with.
type Styles struct {
	Palette Palette

	Header   lipgloss.Style
	Subtitle lipgloss.Style
	Panel    lipgloss.Style
	Title    lipgloss.Style
	Cursor   lipgloss.Style
	Dim      lipgloss.Style
	Text     lipgloss.Style
	Error    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Input    lipgloss.Style
	Prompt   lipgloss.Style
	HelpKey  lipgloss.Style
	HelpDesc lipgloss.Style
	Bar      lipgloss.Style
}

func NewStyles(theme models.Theme) Styles {
	p := darkPalette
	if theme == models.ThemeLight {
		p = lightPalette
	}

	return Styles{
		Palette: p,
		Header: lipgloss.NewStyle().
			Foreground(p.Red).
			Bold(true).
			PaddingLeft(1),
		Subtitle: lipgloss.NewStyle().
			Foreground(p.Muted),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(0, 1),
		Title: lipgloss.NewStyle().
			Foreground(p.Purple).
			Bold(true),
		Cursor: lipgloss.NewStyle().
			Foreground(p.Accent).
			Bold(true),
		Dim:     lipgloss.NewStyle().Foreground(p.Muted),
		Text:    lipgloss.NewStyle().Foreground(p.Fg),
		Error:   lipgloss.NewStyle().Foreground(p.Red),
		Success: lipgloss.NewStyle().Foreground(p.Green),
		Warning: lipgloss.NewStyle().Foreground(p.Yellow),
		Input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(p.Border).
			Padding(0, 1),
		Prompt:   lipgloss.NewStyle().Foreground(p.Green),
		HelpKey:  lipgloss.NewStyle().Foreground(p.Yellow),
		HelpDesc: lipgloss.NewStyle().Foreground(p.Fg),
		Bar: lipgloss.NewStyle().
			Foreground(p.Muted).
			PaddingLeft(1).
			PaddingRight(1),
	}
}

// StatusStyle colors a lab status badge.
func (s Styles) StatusStyle(st models.LabStatus) lipgloss.Style {
	switch st {
	case models.StatusCompleted, models.StatusMastered:
		return s.Success
	case models.StatusInProgress:
		return s.Warning
	case models.StatusReviewNeeded:
		return s.Error
	default:
		return s.Dim
	}
}

// CopilotStyle colors a copilot session status.
func (s Styles) CopilotStyle(st models.CopilotStatus) lipgloss.Style {
	switch st {
	case models.CopilotRunning:
		return s.Success.Bold(true)
	case models.CopilotPaused:
		return s.Warning
	case models.CopilotCompleted:
		return s.Success
	case models.CopilotError:
		return s.Error
	default:
		return s.Dim
	}
}
