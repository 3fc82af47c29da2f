// Command sp is the unified CLI for subpulse debugging and inspection.
//
// Usage:
//
//	sp                      Show help
//	sp fetch                Fetch one metric into an in-memory archive and dump it
//	sp posts                Fetch and list posts
//	sp stats                Fetch every metric and summarize what came back
package main

import (
	"fmt"
	"os"
)

const usage = `sp - subpulse debug & inspection CLI

Usage:
  sp <command> [flags]

Commands:
  fetch       Fetch one metric's samples and dump them
  posts       Fetch and list posts in a time window
  stats       Fetch every metric and summarize coverage

Environment:
  SUBPULSE_SHEET_DOC  Override the spreadsheet document id

Run 'sp <command> -h' for command-specific help.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(0)
	}

	cmd := os.Args[1]
	// Strip the program name + subcommand so flag sets see only their flags
	os.Args = os.Args[1:]

	switch cmd {
	case "fetch":
		runFetch()
	case "posts":
		runPosts()
	case "stats":
		runStats()
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "sp: unknown command %q\n\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}
