// cmd/moveboard/main.go
//
// Entry point for the moveboard TUI. Loads the process-wide configuration,
// opens the session logbook, picks the data-access binding (HTTP against
// the configured service, or in-memory with --offline), and hands all of it
// to the bubbletea program.
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kendrickhart/moveboard/internal/config"
	"github.com/kendrickhart/moveboard/internal/logbook"
	"github.com/kendrickhart/moveboard/internal/moveapi"
	"github.com/kendrickhart/moveboard/internal/moveapi/memapi"
	"github.com/kendrickhart/moveboard/internal/tui"
)

func main() {
	configDir := flag.String("config", "", "config directory (default: user config dir)")
	apiURL := flag.String("api", "", "service base URL (overrides config)")
	offline := flag.Bool("offline", false, "run against an in-memory store instead of the service")
	flag.Parse()

	dir := *configDir
	if dir == "" {
		var err error
		dir, err = config.DefaultDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "moveboard: %v\n", err)
			os.Exit(1)
		}
	}
	cfg, err := config.New(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "moveboard: %v\n", err)
		os.Exit(1)
	}

	lb, err := logbook.New(cfg.LogPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "moveboard: open logbook: %v\n", err)
		os.Exit(1)
	}

	client, err := buildClient(cfg, *apiURL, *offline)
	if err != nil {
		fmt.Fprintf(os.Stderr, "moveboard: %v\n", err)
		os.Exit(1)
	}

	lb.Info("Session %s opened", cfg.SessionID())
	p := tea.NewProgram(
		tui.NewApp(cfg, client, tui.WithLogbook(lb)),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "moveboard: %v\n", err)
		os.Exit(1)
	}
}

func buildClient(cfg *config.Config, apiURL string, offline bool) (moveapi.Client, error) {
	if offline || cfg.File.Offline {
		// Scratch board: no service, no triage.
		return memapi.New(), nil
	}
	base := apiURL
	if base == "" {
		base = cfg.APIBaseURL()
	}
	return moveapi.NewHTTP(base)
}
