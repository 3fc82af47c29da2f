package main

import (
	"log"
	"time"

	"github.com/abelbrown/subpulse/internal/archive"
	"github.com/abelbrown/subpulse/internal/config"
	"github.com/abelbrown/subpulse/internal/sheets"
	"github.com/abelbrown/subpulse/internal/stats"
	"github.com/abelbrown/subpulse/internal/timeindex"
)

// loadConfig loads the shared config or fatals.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// newClient builds a sheets client from config plus flag overrides.
// The throwaway index satisfies the client's registrar without dragging
// the whole dataset in.
func newClient(cfg *config.Config, doc string, full bool) *sheets.Client {
	if doc == "" {
		doc = cfg.Sheet.Doc
	}
	opts := []sheets.Option{
		sheets.WithTimeout(time.Duration(cfg.Sheet.TimeoutSec) * time.Second),
	}
	if full || cfg.Sheet.NoQuantize {
		opts = append(opts, sheets.WithoutQuantization())
	}
	if cfg.Sheet.BaseURL != "" {
		opts = append(opts, sheets.WithBaseURL(cfg.Sheet.BaseURL))
	}
	return sheets.NewClient(doc, timeindex.New(), opts...)
}

// openArchive opens the in-memory archive or fatals.
func openArchive() *archive.Archive {
	a, err := archive.Open(":memory:")
	if err != nil {
		log.Fatalf("failed to open archive: %v", err)
	}
	return a
}

// parseMetric validates a --metric flag value or fatals.
func parseMetric(name string) stats.Metric {
	m := stats.Metric(name)
	switch m {
	case stats.MetricActiveUsers, stats.MetricSubscribers, stats.MetricScores,
		stats.MetricRanks, stats.MetricComments, stats.MetricUpvoteRatios:
		return m
	}
	log.Fatalf("unknown metric %q", name)
	return ""
}

// window returns the [from, to] pair for the trailing N hours.
func window(hours int) (int64, int64) {
	now := time.Now().Unix()
	return now - int64(hours)*60*60, now
}
