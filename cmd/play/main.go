package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"flapneat/internal/config"
	"flapneat/internal/logging"
)

func main() {
	configPath := flag.String("config", "configs/default.yaml", "path to config file (.yaml or .ini)")
	championPath := flag.String("champion", "", "champion file used by save/load (defaults to logging.champion_path)")
	logPath := flag.String("log", "", "write structured logs to this file instead of discarding them")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *championPath == "" {
		*championPath = cfg.Logging.ChampionPath
	}

	// The terminal belongs to the UI, so logs go to a file or nowhere
	var out io.Writer = io.Discard
	if *logPath != "" {
		f, err := os.Create(*logPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	log := logging.NewSlog(out, cfg.Logging.Level)
	slog.SetDefault(log)

	m, err := newModel(cfg, *championPath, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating population: %v\n", err)
		os.Exit(1)
	}

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "UI error: %v\n", err)
		os.Exit(1)
	}
}
