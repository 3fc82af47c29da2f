package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"
)

func runFetch() {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	metricName := fs.String("metric", "scores", "Metric to fetch (active_users, subscribers, scores, ranks, comments, upvote_ratios)")
	hours := fs.Int("hours", 24, "Trailing window in hours")
	doc := fs.String("doc", "", "Spreadsheet document id (default from config)")
	full := fs.Bool("full", false, "Disable quantization even on wide windows")
	limit := fs.Int("limit", 50, "Max rows to print, 0 for all")
	fs.Parse(os.Args[1:])

	cfg := loadConfig()
	metric := parseMetric(*metricName)
	client := newClient(cfg, *doc, *full)
	from, to := window(*hours)

	arc := openArchive()
	defer arc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if metric.Scalar() {
		rec, err := client.FetchScalar(ctx, metric, from, to)
		if err != nil {
			log.Fatalf("fetch failed: %v", err)
		}
		if _, err := arc.SaveScalar(metric, rec); err != nil {
			log.Fatalf("archive failed: %v", err)
		}
	} else {
		rec, ranks, err := client.FetchSeries(ctx, metric, from, to)
		if err != nil {
			log.Fatalf("fetch failed: %v", err)
		}
		if _, err := arc.SaveSeries(metric, rec, ranks); err != nil {
			log.Fatalf("archive failed: %v", err)
		}
	}

	rows, err := arc.Rows(metric, "")
	if err != nil {
		log.Fatalf("query failed: %v", err)
	}

	fmt.Printf("%s: %d samples over %dh\n\n", metric, len(rows), *hours)
	for i, r := range rows {
		if *limit > 0 && i >= *limit {
			fmt.Printf("... %d more\n", len(rows)-i)
			break
		}
		ts := time.Unix(r.Timestamp, 0).Format("01/02 15:04:05")
		if r.PostID == "" {
			fmt.Printf("  %s  %12.2f\n", ts, r.Value)
		} else if r.Ranked() {
			fmt.Printf("  %s  %-12s %12.2f  #%.0f\n", ts, r.PostID, r.Value, r.Rank)
		} else {
			fmt.Printf("  %s  %-12s %12.2f\n", ts, r.PostID, r.Value)
		}
	}
}
