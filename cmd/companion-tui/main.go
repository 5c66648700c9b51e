package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/prasanna12art/skill-boost-automator/internal/client"
	"github.com/prasanna12art/skill-boost-automator/internal/config"
	"github.com/prasanna12art/skill-boost-automator/internal/tui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(
		tui.NewModel(client.New(cfg.CompanionServerURL, cfg.APIKey)),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
