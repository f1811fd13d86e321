package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"apitui/config"
	"apitui/storage"
	"apitui/ui"
)

const Version = "v0.1.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize debug logging after config is loaded
	config.InitDebugLog(cfg.DataDir())

	mirror, err := storage.NewMirror(cfg.DataDir())
	if err != nil {
		fmt.Printf("Failed to open state mirror: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := mirror.Close(); err != nil && config.DebugLog != nil {
			config.DebugLog.Printf("Warning: failed to close state mirror: %v", err)
		}
	}()

	p := tea.NewProgram(
		ui.NewAppView(cfg, mirror),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running apitui: %v\n", err)
		os.Exit(1)
	}
}
