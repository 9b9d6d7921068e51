package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"guestbook/internal/config"
	"guestbook/internal/coordinator"
	"guestbook/internal/repository"
	"guestbook/internal/service"
	"guestbook/internal/tui"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, closeLog, err := openLogger(cfg.Log)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer closeLog()

	repo := repository.NewMemoryRepo(logger)
	if err := repository.SeedDefaults(ctx, repo, cfg.Data.SeedSize); err != nil {
		log.Fatalf("seed guests: %v", err)
	}

	svc := &service.QueryService{Guests: repo}

	list := coordinator.NewGuestList(svc, cfg.UI.SearchDebounce(), logger)
	panel := coordinator.NewPanel(cfg.UI.ExpandedPanelWidth, cfg.UI.AnimationDuration(), cfg.UI.AnimationSteps, logger)
	tabs := coordinator.NewTabs(cfg.UI.TabLabels)
	defer list.Close()
	defer panel.Close()
	defer tabs.Close()

	app := tui.New(ctx, cfg, tui.Coordinators{List: list, Panel: panel, Tabs: tabs}, svc)
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("error: %v\n", err)
		os.Exit(1)
	}
}

func openLogger(cfg config.LogConfig) (zerolog.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return zerolog.Nop(), nil, err
	}
	f, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return zerolog.Nop(), nil, err
	}
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(f).Level(level).With().Timestamp().Logger()
	return logger, func() { _ = f.Close() }, nil
}
