package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"todo-app/app"
	"todo-app/config"
	"todo-app/model"
	"todo-app/store"
	"todo-app/tui"
)

func main() {
	cfgPath := flag.String("config", "", "path to config file")
	flag.Parse()

	path := *cfgPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to locate config: %v\n", err)
			os.Exit(1)
		}
	}

	cfg, err := config.LoadOrCreate(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})
	if cfg.Debug || os.Getenv("TODO_APP_DEBUG") != "" {
		logger.SetLevel(log.DebugLevel)
	}

	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir, err = config.DefaultDataDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to locate data dir: %v\n", err)
			os.Exit(1)
		}
	}

	adapter := store.New(dataDir, logger)

	state := model.NewState()
	state.Tasks = adapter.LoadTasks()
	state.Filter = model.FilterAll

	gate := app.NewGate()
	svc := app.NewService(state, adapter, gate.Confirm, logger)
	svc.SeedIfEmpty()

	theme := adapter.LoadTheme()
	if !adapter.HasTheme() && cfg.DefaultTheme == store.ThemeDark {
		theme = store.ThemeDark
		adapter.SaveTheme(theme)
	}

	m := tui.NewModel(svc, adapter, gate, cfg, theme, logger)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error running program: %v\n", err)
		os.Exit(1)
	}
}
