// Package sheets fetches community stats from the Google Sheets gviz
// endpoint that backs the dashboard.
//
// Two sheets are consumed: "sub_stats" holds one row per sample
// timestamp (aggregate counts plus semicolon-joined per-post lists),
// and "posts" holds one row per post with its metadata. Both are pulled
// as CSV through gviz range queries.
package sheets

import (
	"fmt"
	"net/url"

	"github.com/abelbrown/subpulse/internal/stats"
)

// DefaultDoc is the public spreadsheet the dashboard reads from.
const DefaultDoc = "1XbSqIH7CzYTgKkjVmGP3FFPHs1sqM3D3aj7O4lFPfn0"

const (
	statsSheet = "sub_stats"
	postsSheet = "posts"
)

// Quantization tier boundaries, in seconds of requested window. Windows
// up to three days get every sample; up to thirty-nine days every 10th;
// anything wider every 100th. A request-side throttle on response size,
// not a correctness rule, so it can be switched off.
const (
	fullResolutionSpan = 3 * 24 * 60 * 60
	tenthSampleSpan    = 39 * 24 * 60 * 60
)

// columnLetter maps sheet columns to their spreadsheet letters.
var columnLetter = map[string]string{
	"index":         "A",
	"current_time":  "B",
	"active_users":  "C",
	"subscribers":   "D",
	"ids":           "E",
	"scores":        "F",
	"ranks":         "G",
	"comments":      "H",
	"upvote_ratios": "J",
}

// quantizationTerm returns the extra query clause that decimates wide
// windows, or "" for full resolution.
func quantizationTerm(from, to int64) string {
	span := to - from
	switch {
	case span <= fullResolutionSpan:
		return ""
	case span <= tenthSampleSpan:
		return fmt.Sprintf(` and %s ends with "0"`, columnLetter["index"])
	default:
		return fmt.Sprintf(` and %s ends with "00"`, columnLetter["index"])
	}
}

// statsQuery builds the gviz select for a metric over [from, to]
// inclusive. Scalar metrics fetch (time, value); per-post metrics also
// fetch the id list and the front-page rank list.
func statsQuery(metric stats.Metric, from, to int64, quantize bool) string {
	timeCol := columnLetter["current_time"]

	cols := timeCol
	if !metric.Scalar() {
		cols += "," + columnLetter["ids"] + "," + columnLetter["ranks"]
	}
	cols += "," + columnLetter[string(metric)]

	term := ""
	if quantize {
		term = quantizationTerm(from, to)
	}
	return fmt.Sprintf("select %s where (%s >= %d and %s <= %d%s)", cols, timeCol, from, timeCol, to, term)
}

// postsQuery builds the gviz select for posts created in [from, to].
// Column D is post_time.
func postsQuery(from, to int64) string {
	return fmt.Sprintf("select * where (D >= %d and D <= %d)", from, to)
}

// gvizURL assembles the CSV export URL for a sheet and query.
func gvizURL(doc, sheet, query string) string {
	return fmt.Sprintf(
		"https://docs.google.com/spreadsheets/d/%s/gviz/tq?tqx=out:csv&sheet=%s&tq=%s",
		doc, sheet, url.QueryEscape(query),
	)
}
