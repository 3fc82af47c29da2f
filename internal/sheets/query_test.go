package sheets

import (
	"strings"
	"testing"

	"github.com/abelbrown/subpulse/internal/stats"
)

const day = 24 * 60 * 60

func TestQuantizationBoundaries(t *testing.T) {
	cases := []struct {
		name string
		span int64
		want string
	}{
		{"exactly 3 days keeps full resolution", 3 * day, ""},
		{"3 days + 1s decimates to every 10th", 3*day + 1, ` and A ends with "0"`},
		{"39 days stays at every 10th", 39 * day, ` and A ends with "0"`},
		{"39 days + 1s decimates to every 100th", 39*day + 1, ` and A ends with "00"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := quantizationTerm(0, tc.span); got != tc.want {
				t.Errorf("span %d: expected %q, got %q", tc.span, tc.want, got)
			}
		})
	}
}

func TestStatsQueryScalar(t *testing.T) {
	q := statsQuery(stats.MetricActiveUsers, 100, 200, true)
	want := "select B,C where (B >= 100 and B <= 200)"
	if q != want {
		t.Errorf("expected %q, got %q", want, q)
	}
}

func TestStatsQuerySeriesIncludesIDsAndRanks(t *testing.T) {
	q := statsQuery(stats.MetricScores, 100, 200, true)
	want := "select B,E,G,F where (B >= 100 and B <= 200)"
	if q != want {
		t.Errorf("expected %q, got %q", want, q)
	}
}

func TestStatsQueryQuantizationToggle(t *testing.T) {
	from, to := int64(0), int64(10*day)

	q := statsQuery(stats.MetricScores, from, to, true)
	if !strings.Contains(q, `ends with "0"`) {
		t.Errorf("expected quantization clause in %q", q)
	}

	q = statsQuery(stats.MetricScores, from, to, false)
	if strings.Contains(q, "ends with") {
		t.Errorf("quantization override ignored: %q", q)
	}
}

func TestGvizURL(t *testing.T) {
	u := gvizURL("doc123", "sub_stats", `select B,C where (B >= 1)`)
	if !strings.HasPrefix(u, "https://docs.google.com/spreadsheets/d/doc123/gviz/tq?tqx=out:csv&sheet=sub_stats&tq=") {
		t.Errorf("unexpected URL prefix: %s", u)
	}
	if strings.Contains(u, " ") {
		t.Errorf("query not escaped: %s", u)
	}
}

func TestPostsQuery(t *testing.T) {
	q := postsQuery(50, 150)
	want := "select * where (D >= 50 and D <= 150)"
	if q != want {
		t.Errorf("expected %q, got %q", want, q)
	}
}
