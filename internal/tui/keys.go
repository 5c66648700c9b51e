package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for the companion
type KeyMap struct {
	// Navigation
	Up     key.Binding
	Down   key.Binding
	Enter  key.Binding
	Escape key.Binding

	// List shaping
	Search     key.Binding
	Sort       key.Binding
	Status     key.Binding
	Difficulty key.Binding

	// Lab actions
	ToggleStep key.Binding
	Generate   key.Binding
	MarkStatus key.Binding
	Run        key.Binding
	Pause      key.Binding
	Reset      key.Binding

	// Panels
	Stats    key.Binding
	Insights key.Binding
	Refresh  key.Binding
	Theme    key.Binding
	Help     key.Binding

	Quit      key.Binding
	Interrupt key.Binding
}

// DefaultKeyMap returns the default key bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open lab"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Sort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort"),
		),
		Status: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "status filter"),
		),
		Difficulty: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "difficulty filter"),
		),
		ToggleStep: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "toggle step"),
		),
		Generate: key.NewBinding(
			key.WithKeys("g"),
			key.WithHelp("g", "generate steps"),
		),
		MarkStatus: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "next status"),
		),
		Run: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "run copilot"),
		),
		Pause: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "pause copilot"),
		),
		Reset: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "reset copilot"),
		),
		Stats: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "stats"),
		),
		Insights: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "insights"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("R"),
			key.WithHelp("R", "refresh insights"),
		),
		Theme: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle theme"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Interrupt: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the status bar
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Enter, k.Run, k.Insights, k.Help, k.Quit}
}

// FullHelp returns the bindings shown in the help overlay
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Enter, k.Escape},
		{k.Search, k.Sort, k.Status, k.Difficulty},
		{k.ToggleStep, k.Generate, k.MarkStatus, k.Run, k.Pause, k.Reset},
		{k.Stats, k.Insights, k.Refresh, k.Theme, k.Help, k.Quit},
	}
}
