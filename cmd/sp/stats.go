package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/abelbrown/subpulse/internal/stats"
)

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	hours := fs.Int("hours", 24, "Trailing window in hours")
	doc := fs.String("doc", "", "Spreadsheet document id (default from config)")
	fs.Parse(os.Args[1:])

	cfg := loadConfig()
	client := newClient(cfg, *doc, false)
	from, to := window(*hours)

	arc := openArchive()
	defer arc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	for _, m := range []stats.Metric{stats.MetricActiveUsers, stats.MetricSubscribers} {
		rec, err := client.FetchScalar(ctx, m, from, to)
		if err != nil {
			log.Printf("warning: %s fetch failed: %v", m, err)
			continue
		}
		if _, err := arc.SaveScalar(m, rec); err != nil {
			log.Fatalf("archive failed: %v", err)
		}
	}
	for _, m := range stats.SeriesMetrics() {
		rec, ranks, err := client.FetchSeries(ctx, m, from, to)
		if err != nil {
			log.Printf("warning: %s fetch failed: %v", m, err)
			continue
		}
		if _, err := arc.SaveSeries(m, rec, ranks); err != nil {
			log.Fatalf("archive failed: %v", err)
		}
	}

	posts, err := client.FetchPosts(ctx, from, to)
	if err != nil {
		log.Printf("warning: posts fetch failed: %v", err)
	} else if _, err := arc.SavePosts(posts); err != nil {
		log.Fatalf("archive failed: %v", err)
	}

	summary, err := arc.Stats()
	if err != nil {
		log.Fatalf("stats failed: %v", err)
	}

	fmt.Printf("Coverage for the last %dh:\n\n", *hours)
	fmt.Printf("  %-15s %8s %7s  %s\n", "metric", "samples", "posts", "range")
	for _, m := range []stats.Metric{
		stats.MetricActiveUsers, stats.MetricSubscribers,
		stats.MetricScores, stats.MetricComments, stats.MetricUpvoteRatios,
	} {
		ms, ok := summary[m]
		if !ok {
			fmt.Printf("  %-15s %8s\n", m, "-")
			continue
		}
		first := time.Unix(ms.FirstTime, 0).Format("01/02 15:04")
		last := time.Unix(ms.LastTime, 0).Format("01/02 15:04")
		fmt.Printf("  %-15s %8d %7d  %s .. %s\n", m, ms.Samples, ms.Posts, first, last)
	}

	_, ids, err := arc.Posts()
	if err != nil {
		log.Fatalf("posts query failed: %v", err)
	}
	fmt.Printf("\n  %d posts cataloged\n", len(ids))
}
