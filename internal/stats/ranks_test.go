package stats

import (
	"math"
	"testing"
)

// rankFixture builds a sparse rank table: known timestamps
// 0..150 every 30s, post "a" ranked 10 at t=0 and 12 at t=90.
func rankFixture() *Dataset {
	d := NewDataset()
	for _, ts := range []int64{0, 30, 60, 90, 120, 150} {
		d.Index.Add(ts)
	}
	d.MergeRanks(RankTable{
		0:  {"a": 10},
		90: {"a": 12},
	})
	return d
}

func TestResolveExactMatch(t *testing.T) {
	r := NewResolver(rankFixture(), 5)
	got, ok := r.Resolve("a", 90)
	if !ok || got != 12 {
		t.Errorf("expected exact rank 12, got %v ok=%v", got, ok)
	}
}

func TestResolveBackwardFill(t *testing.T) {
	// t=30 has no rank, but t=90 is ranked within the lookahead
	// window, so the gap is filled with the most recent earlier rank.
	r := NewResolver(rankFixture(), 5)
	got, ok := r.Resolve("a", 30)
	if !ok || got != 10 {
		t.Errorf("expected backward-filled rank 10, got %v ok=%v", got, ok)
	}
}

func TestResolveNoFutureRankMeansNone(t *testing.T) {
	// t=120: nothing ranked in the next lookahead timestamps, so the
	// post is treated as permanently off the ranking even though an
	// earlier rank exists.
	r := NewResolver(rankFixture(), 5)
	if _, ok := r.Resolve("a", 120); ok {
		t.Error("expected no rank at t=120")
	}
}

func TestResolveBoundedLookahead(t *testing.T) {
	d := NewDataset()
	for ts := int64(0); ts <= 300; ts += 30 {
		d.Index.Add(ts)
	}
	// Valid rank only at t=300: 9 known timestamps after t=0.
	d.MergeRanks(RankTable{300: {"a": 1}})

	r := NewResolver(d, 5)
	if _, ok := r.Resolve("a", 0); ok {
		t.Error("rank beyond lookahead window should not count")
	}

	wide := NewResolver(d, 12)
	// With a wide enough window the future rank is found, but there is
	// still nothing valid to fill backward with.
	if _, ok := wide.Resolve("a", 0); ok {
		t.Error("no backward rank exists, expected none")
	}
}

func TestResolveSkipsNaN(t *testing.T) {
	d := rankFixture()
	d.MergeRanks(RankTable{30: {"a": math.NaN()}})

	r := NewResolver(d, 5)
	got, ok := r.Resolve("a", 30)
	if !ok || got != 10 {
		t.Errorf("NaN rank should be ignored, expected 10, got %v ok=%v", got, ok)
	}
}

func TestResolveUnknownPost(t *testing.T) {
	r := NewResolver(rankFixture(), 5)
	if _, ok := r.Resolve("nope", 0); ok {
		t.Error("expected no rank for a post with no rank history")
	}
}

func TestHotnessProperties(t *testing.T) {
	// Score passes through unchanged at the creation instant.
	if got := Hotness(DefaultDecayConstant, 0, 0, 100); got != 100 {
		t.Errorf("expected 100 at age 0, got %v", got)
	}

	// Strictly decreasing with age.
	prev := math.Inf(1)
	for _, age := range []int64{0, 3600, 86400, 7 * 86400} {
		v := Hotness(DefaultDecayConstant, age, 0, 100)
		if v >= prev {
			t.Fatalf("hotness not strictly decreasing at age %d: %v >= %v", age, v, prev)
		}
		prev = v
	}

	// One hour of decay on a score of 100 lands just under 99.99.
	got := Hotness(DefaultDecayConstant, 3600, 0, 100)
	if math.Abs(got-99.98129) > 1e-3 {
		t.Errorf("expected ~99.98 after one hour, got %v", got)
	}
}
