package sheets

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/abelbrown/subpulse/internal/catalog"
	"github.com/abelbrown/subpulse/internal/logging"
	"github.com/abelbrown/subpulse/internal/stats"
)

// Registrar receives every timestamp parsed out of a response. The
// dataset's time index satisfies this.
type Registrar interface {
	Add(ts int64)
}

// parseScalar reads a scalar metric response: a discarded header line,
// then one "timestamp,value" line per sample. Rows with a missing or
// unparsable field are skipped; everything else in the response is
// still used.
func parseScalar(r io.Reader, reg Registrar) (stats.ScalarRecord, error) {
	out := make(stats.ScalarRecord)
	err := eachDataLine(r, func(line string) {
		fields := strings.Split(line, ",")
		if len(fields) < 2 {
			return
		}
		ts, ok := parseTimestamp(fields[0])
		if !ok {
			return
		}
		v, err := strconv.ParseFloat(unquote(fields[1]), 64)
		if err != nil {
			logging.Debug("skipping scalar row", "line", line, "error", err)
			return
		}
		if reg != nil {
			reg.Add(ts)
		}
		out[ts] = v
	})
	return out, err
}

// parseSeries reads a per-post metric response: header line, then
// "timestamp,ids,fpranks,values" with semicolon-joined lists. Rows
// missing the id list or the value list are skipped. A row repeating an
// id keeps the first occurrence only, so a post carries at most one
// value per timestamp. Front-page ranks are optional per entry;
// unparsable entries become NaN ("unknown").
func parseSeries(r io.Reader, reg Registrar) (stats.SeriesRecord, stats.RankTable, error) {
	rec := make(stats.SeriesRecord)
	ranks := make(stats.RankTable)

	err := eachDataLine(r, func(line string) {
		fields := strings.Split(line, ",")
		if len(fields) < 4 {
			return
		}
		ts, ok := parseTimestamp(fields[0])
		if !ok {
			return
		}
		idsRaw := unquote(fields[1])
		ranksRaw := unquote(fields[2])
		valuesRaw := unquote(fields[3])
		if idsRaw == "" || valuesRaw == "" {
			return
		}

		ids := strings.Split(idsRaw, ";")
		values := splitFloats(valuesRaw)
		rankVals := splitFloats(ranksRaw)

		var sample stats.Sample
		byID := make(map[string]float64, len(ids))
		seen := make(map[string]bool, len(ids))
		for i, id := range ids {
			if i >= len(values) {
				break
			}
			if seen[id] {
				continue
			}
			seen[id] = true
			sample.IDs = append(sample.IDs, id)
			sample.Values = append(sample.Values, values[i])
			if i < len(rankVals) {
				byID[id] = rankVals[i]
			}
		}
		if len(sample.IDs) == 0 {
			return
		}

		if reg != nil {
			reg.Add(ts)
		}
		rec[ts] = sample
		if len(byID) > 0 {
			ranks[ts] = byID
		}
	})
	return rec, ranks, err
}

// parsePosts reads the posts metadata response: header line, then
// "id,author,flair,post_time,title" with every field quoted.
func parsePosts(r io.Reader) (map[string]catalog.Post, error) {
	out := make(map[string]catalog.Post)
	err := eachDataLine(r, func(line string) {
		fields := strings.SplitN(line, ",", 5)
		if len(fields) < 5 {
			return
		}
		id := unquote(fields[0])
		postTime, err := strconv.ParseInt(unquote(fields[3]), 10, 64)
		if id == "" || err != nil {
			logging.Debug("skipping posts row", "line", line, "error", err)
			return
		}
		out[id] = catalog.Post{
			Author:   unquote(fields[1]),
			Flair:    unquote(fields[2]),
			PostTime: postTime,
			Title:    unquote(fields[4]),
		}
	})
	return out, err
}

// eachDataLine scans r line by line, discarding the header row and
// blank lines, and hands every data line to fn.
func eachDataLine(r io.Reader, fn func(line string)) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	first := true
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if first {
			first = false
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		fn(line)
	}
	return sc.Err()
}

func parseTimestamp(field string) (int64, bool) {
	ts, err := strconv.ParseInt(unquote(field), 10, 64)
	if err != nil {
		logging.Debug("skipping row with bad timestamp", "field", field)
		return 0, false
	}
	return ts, true
}

// splitFloats parses a semicolon-joined list; entries that do not parse
// become NaN so positions stay aligned with the id list.
func splitFloats(s string) []float64 {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ";")
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			v = math.NaN()
		}
		out[i] = v
	}
	return out
}

// unquote strips one layer of surrounding double quotes, the way the
// gviz CSV export wraps fields.
func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
