package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"
)

func runPosts() {
	fs := flag.NewFlagSet("posts", flag.ExitOnError)
	days := fs.Int("days", 5, "Trailing window in days")
	doc := fs.String("doc", "", "Spreadsheet document id (default from config)")
	fs.Parse(os.Args[1:])

	cfg := loadConfig()
	client := newClient(cfg, *doc, false)
	from, to := window(*days * 24)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	posts, err := client.FetchPosts(ctx, from, to)
	if err != nil {
		log.Fatalf("fetch failed: %v", err)
	}

	arc := openArchive()
	defer arc.Close()
	if _, err := arc.SavePosts(posts); err != nil {
		log.Fatalf("archive failed: %v", err)
	}

	stored, ids, err := arc.Posts()
	if err != nil {
		log.Fatalf("query failed: %v", err)
	}

	fmt.Printf("%d posts in the last %dd\n\n", len(stored), *days)
	for i, p := range stored {
		ts := time.Unix(p.PostTime, 0).Format("01/02 15:04")
		flair := ""
		if p.Flair != "" {
			flair = " [" + p.Flair + "]"
		}
		fmt.Printf("  %s  %-12s %-20s %s%s\n", ts, ids[i], p.Author, p.Title, flair)
	}
}
