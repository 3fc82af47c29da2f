// Command subpulse is a terminal dashboard charting community
// statistics from the shared stats spreadsheet.
package main

import (
	"context"
	"log"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/subpulse/internal/catalog"
	"github.com/abelbrown/subpulse/internal/config"
	"github.com/abelbrown/subpulse/internal/coord"
	"github.com/abelbrown/subpulse/internal/logging"
	"github.com/abelbrown/subpulse/internal/project"
	"github.com/abelbrown/subpulse/internal/sheets"
	"github.com/abelbrown/subpulse/internal/stats"
	"github.com/abelbrown/subpulse/internal/ui"
)

func main() {
	// Setup context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())

	if err := logging.Init(); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Close()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ds := stats.NewDataset()
	cat := catalog.New()

	opts := []sheets.Option{
		sheets.WithTimeout(time.Duration(cfg.Sheet.TimeoutSec) * time.Second),
	}
	if cfg.Sheet.NoQuantize {
		opts = append(opts, sheets.WithoutQuantization())
	}
	if cfg.Sheet.BaseURL != "" {
		opts = append(opts, sheets.WithBaseURL(cfg.Sheet.BaseURL))
	}
	client := sheets.NewClient(cfg.Sheet.Doc, ds.Index, opts...)

	proj := project.Projector{
		DecayConstant: cfg.Chart.DecayConstant,
		RankLookahead: cfg.Chart.RankLookahead,
	}

	coordinator := coord.New(ds, cat, client, proj,
		time.Duration(cfg.Fetch.QuietMs)*time.Millisecond,
		int64(cfg.Fetch.MarginDays)*24*60*60)
	coordinator.SetWindowSpan(int64(cfg.Chart.WindowHours) * 60 * 60)

	app := ui.NewApp(coordinator)

	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())

	coordinator.Start(ctx, program)

	logging.Info("starting dashboard", "doc", cfg.Sheet.Doc)

	// Run UI (blocks until quit)
	if _, err := program.Run(); err != nil {
		log.Printf("Error running program: %v", err)
	}

	// Graceful shutdown
	cancel()
	coordinator.Wait()
}
