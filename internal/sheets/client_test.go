package sheets

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/abelbrown/subpulse/internal/stats"
	"github.com/abelbrown/subpulse/internal/timeindex"
)

// sheetServer serves canned CSV keyed by sheet name and records the
// last gviz query it saw.
func sheetServer(t *testing.T, bodies map[string]string) (*httptest.Server, *string) {
	t.Helper()
	var lastQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sheet := r.URL.Query().Get("sheet")
		lastQuery, _ = url.QueryUnescape(r.URL.Query().Get("tq"))
		body, ok := bodies[sheet]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &lastQuery
}

func TestFetchScalar(t *testing.T) {
	srv, _ := sheetServer(t, map[string]string{
		"sub_stats": "\"current_time\",\"active_users\"\n" +
			"\"100\",\"42\"\n" +
			"\"200\",\"\"\n" + // missing value: skipped
			"\"300\",\"57\"\n",
	})

	idx := timeindex.New()
	c := NewClient("testdoc", idx, WithBaseURL(srv.URL))

	rec, err := c.FetchScalar(context.Background(), stats.MetricActiveUsers, 0, 1000)
	if err != nil {
		t.Fatalf("FetchScalar failed: %v", err)
	}
	if len(rec) != 2 || rec[100] != 42 || rec[300] != 57 {
		t.Errorf("unexpected record: %v", rec)
	}
	if !idx.Contains(100) || !idx.Contains(300) {
		t.Error("parsed timestamps not registered in the index")
	}
	if idx.Contains(200) {
		t.Error("skipped row should not register its timestamp")
	}
}

func TestFetchSeries(t *testing.T) {
	srv, _ := sheetServer(t, map[string]string{
		"sub_stats": "\"current_time\",\"ids\",\"ranks\",\"scores\"\n" +
			"\"100\",\"a;b\",\"1;\",\"10;20\"\n" +
			"\"200\",\"\",\"\",\"30\"\n" + // missing ids: skipped
			"\"300\",\"a\",\"2\",\"15\"\n",
	})

	idx := timeindex.New()
	c := NewClient("testdoc", idx, WithBaseURL(srv.URL))

	rec, ranks, err := c.FetchSeries(context.Background(), stats.MetricScores, 0, 1000)
	if err != nil {
		t.Fatalf("FetchSeries failed: %v", err)
	}

	if len(rec) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(rec))
	}
	s := rec[100]
	if len(s.IDs) != 2 || s.IDs[0] != "a" || s.Values[1] != 20 {
		t.Errorf("unexpected sample at 100: %+v", s)
	}

	if ranks[100]["a"] != 1 {
		t.Errorf("expected rank 1 for a at 100, got %v", ranks[100]["a"])
	}
	if r, ok := ranks[100]["b"]; !ok || !math.IsNaN(r) {
		t.Errorf("expected NaN rank for b at 100, got %v ok=%v", r, ok)
	}
	if ranks[300]["a"] != 2 {
		t.Errorf("expected rank 2 for a at 300, got %v", ranks[300]["a"])
	}
}

func TestFetchSeriesDropsRepeatedIDs(t *testing.T) {
	srv, _ := sheetServer(t, map[string]string{
		"sub_stats": "\"current_time\",\"ids\",\"ranks\",\"scores\"\n" +
			"\"100\",\"a;a;b\",\"1;2;3\",\"10;99;20\"\n",
	})
	c := NewClient("testdoc", nil, WithBaseURL(srv.URL))

	rec, ranks, err := c.FetchSeries(context.Background(), stats.MetricScores, 0, 1000)
	if err != nil {
		t.Fatalf("FetchSeries failed: %v", err)
	}

	// A repeated id within a row keeps its first value only, so every
	// post shows up at most once per timestamp.
	s := rec[100]
	if len(s.IDs) != 2 || s.IDs[0] != "a" || s.IDs[1] != "b" {
		t.Fatalf("expected deduplicated ids [a b], got %v", s.IDs)
	}
	if s.Values[0] != 10 || s.Values[1] != 20 {
		t.Errorf("expected first-occurrence values [10 20], got %v", s.Values)
	}
	if ranks[100]["a"] != 1 || ranks[100]["b"] != 3 {
		t.Errorf("ranks misaligned after dedup: %v", ranks[100])
	}
}

func TestFetchSeriesSendsQuantizedQuery(t *testing.T) {
	srv, lastQuery := sheetServer(t, map[string]string{
		"sub_stats": "header\n",
	})
	c := NewClient("testdoc", nil, WithBaseURL(srv.URL))

	_, _, err := c.FetchSeries(context.Background(), stats.MetricScores, 0, 10*day)
	if err != nil {
		t.Fatalf("FetchSeries failed: %v", err)
	}
	if !strings.Contains(*lastQuery, `ends with "0"`) {
		t.Errorf("expected decimated query, got %q", *lastQuery)
	}
}

func TestFetchPosts(t *testing.T) {
	srv, lastQuery := sheetServer(t, map[string]string{
		"posts": "\"id\",\"author\",\"flair\",\"post_time\",\"title\"\n" +
			"\"p1\",\"alice\",\"legacy comic\",\"1000\",\"hello, world\"\n" +
			"\"p2\",\"bob\",\"\",\"bogus\",\"broken row\"\n" +
			"\"p3\",\"carol\",\"\",\"2000\",\"another\"\n",
	})
	c := NewClient("testdoc", nil, WithBaseURL(srv.URL))

	posts, err := c.FetchPosts(context.Background(), 500, 3000)
	if err != nil {
		t.Fatalf("FetchPosts failed: %v", err)
	}

	if len(posts) != 2 {
		t.Fatalf("expected 2 posts (1 malformed skipped), got %d", len(posts))
	}
	p1 := posts["p1"]
	if p1.Author != "alice" || p1.Flair != "legacy comic" || p1.PostTime != 1000 {
		t.Errorf("unexpected p1: %+v", p1)
	}
	// Titles may contain commas; only the first four fields are split.
	if p1.Title != `hello, world` {
		t.Errorf("comma in title mangled: %q", p1.Title)
	}
	if !strings.Contains(*lastQuery, "D >= 500") {
		t.Errorf("unexpected posts query: %q", *lastQuery)
	}
}

func TestFetchScalarHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient("testdoc", nil, WithBaseURL(srv.URL))
	if _, err := c.FetchScalar(context.Background(), stats.MetricSubscribers, 0, 100); err == nil {
		t.Fatal("expected error on HTTP 500")
	}
}

func TestFetchScalarRejectsSeriesMetric(t *testing.T) {
	c := NewClient("testdoc", nil)
	if _, err := c.FetchScalar(context.Background(), stats.MetricScores, 0, 100); err == nil {
		t.Error("expected error for non-scalar metric")
	}
	if _, _, err := c.FetchSeries(context.Background(), stats.MetricActiveUsers, 0, 100); err == nil {
		t.Error("expected error for non-series metric")
	}
}
