package stats

import (
	"math"
	"reflect"
	"testing"
)

func sampleRecord() SeriesRecord {
	return SeriesRecord{
		100: {IDs: []string{"a", "b"}, Values: []float64{1, 2}},
		200: {IDs: []string{"a"}, Values: []float64{3}},
	}
}

func TestMergeSeriesAddsAllTimestamps(t *testing.T) {
	d := NewDataset()
	d.MergeSeries(MetricScores, sampleRecord())

	rec := d.Series(MetricScores)
	if len(rec) != 2 {
		t.Fatalf("expected 2 timestamps, got %d", len(rec))
	}
	if !d.Index.Contains(100) || !d.Index.Contains(200) {
		t.Error("merged timestamps not registered in index")
	}
}

func TestNewDatasetAllocatesValueSeriesOnly(t *testing.T) {
	d := NewDataset()
	for _, m := range SeriesMetrics() {
		if m == MetricRanks {
			t.Fatal("ranks listed as a value series")
		}
		if d.Series(m) == nil {
			t.Errorf("no record allocated for %s", m)
		}
	}
	// Ranks live in the rank table, never in a value record.
	if d.Series(MetricRanks) != nil {
		t.Error("dataset allocated a value record for ranks")
	}
}

func TestMergeSeriesFirstWriteWins(t *testing.T) {
	d := NewDataset()
	d.MergeSeries(MetricScores, SeriesRecord{
		100: {IDs: []string{"a"}, Values: []float64{1}},
	})
	d.MergeSeries(MetricScores, SeriesRecord{
		100: {IDs: []string{"a", "b"}, Values: []float64{99, 2}},
	})

	got := d.Series(MetricScores)[100]
	if got.Values[got.indexOf("a")] != 1 {
		t.Errorf("existing point overwritten: got %v", got.Values)
	}
	if got.indexOf("b") == -1 {
		t.Error("new post b not added at existing timestamp")
	}
}

func TestMergeSeriesIdempotent(t *testing.T) {
	d1 := NewDataset()
	d1.MergeSeries(MetricScores, sampleRecord())
	once := d1.Series(MetricScores)

	d2 := NewDataset()
	d2.MergeSeries(MetricScores, sampleRecord())
	d2.MergeSeries(MetricScores, sampleRecord())
	twice := d2.Series(MetricScores)

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("merge not idempotent:\nonce:  %v\ntwice: %v", once, twice)
	}
}

func TestMergeSeriesDoesNotAliasInput(t *testing.T) {
	d := NewDataset()
	in := sampleRecord()
	d.MergeSeries(MetricScores, in)

	in[100].IDs[0] = "mutated"
	if d.Series(MetricScores)[100].IDs[0] == "mutated" {
		t.Error("merged sample aliases fetch result")
	}
}

func TestMergeScalarIdempotentAndOverwrites(t *testing.T) {
	d := NewDataset()
	d.MergeScalar(MetricActiveUsers, ScalarRecord{100: 5, 200: 6})
	d.MergeScalar(MetricActiveUsers, ScalarRecord{100: 5, 200: 6})

	rec := d.Scalar(MetricActiveUsers)
	if len(rec) != 2 || rec[100] != 5 || rec[200] != 6 {
		t.Errorf("unexpected record after repeat merge: %v", rec)
	}

	// Last write wins for scalars.
	d.MergeScalar(MetricActiveUsers, ScalarRecord{100: 7})
	if d.Scalar(MetricActiveUsers)[100] != 7 {
		t.Error("scalar overwrite did not apply")
	}
}

func TestPerPostOrderingInvariant(t *testing.T) {
	d := NewDataset()
	d.MergeSeries(MetricScores, SeriesRecord{
		300: {IDs: []string{"a"}, Values: []float64{3}},
	})
	d.MergeSeries(MetricScores, SeriesRecord{
		100: {IDs: []string{"a"}, Values: []float64{1}},
		200: {IDs: []string{"a"}, Values: []float64{2}},
	})
	d.MergeSeries(MetricScores, SeriesRecord{
		200: {IDs: []string{"a"}, Values: []float64{99}},
	})

	// Materialize post "a" the way the projector does: walking the
	// index in order.
	var times []int64
	rec := d.Series(MetricScores)
	for i := 0; i < d.Index.Len(); i++ {
		ts := d.Index.At(i)
		if s, ok := rec[ts]; ok && s.indexOf("a") != -1 {
			times = append(times, ts)
		}
	}

	if len(times) != 3 {
		t.Fatalf("expected 3 points for post a, got %d", len(times))
	}
	for i := 1; i < len(times); i++ {
		if times[i-1] >= times[i] {
			t.Fatalf("timestamps not strictly ascending: %v", times)
		}
	}
}

func TestMergeRanks(t *testing.T) {
	d := NewDataset()
	d.MergeRanks(RankTable{100: {"a": 3}})
	d.MergeRanks(RankTable{100: {"a": 5, "b": 1}, 200: {"a": 2}})

	if d.Ranks()[100]["a"] != 5 {
		t.Error("rank refetch should overwrite")
	}
	if d.Ranks()[100]["b"] != 1 || d.Ranks()[200]["a"] != 2 {
		t.Error("new rank entries missing")
	}
}

func TestSeedPost(t *testing.T) {
	d := NewDataset()
	d.SeedPost("p1", 1000)

	if got := d.Series(MetricScores)[1000]; got.indexOf("p1") == -1 || got.Values[0] != 0 {
		t.Errorf("expected zero score seed at 1000, got %v", got)
	}
	if got := d.Series(MetricComments)[1000]; got.indexOf("p1") == -1 || got.Values[0] != 0 {
		t.Errorf("expected zero comments seed at 1000, got %v", got)
	}
	if got := d.Series(MetricUpvoteRatios)[1000]; got.indexOf("p1") == -1 || got.Values[0] != 1.0 {
		t.Errorf("expected ratio-neutral seed at 1000, got %v", got)
	}
	if !d.Index.Contains(1000) {
		t.Error("seed timestamp not registered")
	}
}

func TestSeedPostNeverOverwritesRealSample(t *testing.T) {
	d := NewDataset()
	d.MergeSeries(MetricScores, SeriesRecord{
		1000: {IDs: []string{"p1"}, Values: []float64{42}},
	})
	d.SeedPost("p1", 1000)

	got := d.Series(MetricScores)[1000]
	if got.Values[got.indexOf("p1")] != 42 {
		t.Errorf("seed clobbered real sample: %v", got)
	}
}

func TestValidRank(t *testing.T) {
	if ValidRank(math.NaN()) {
		t.Error("NaN should not be a valid rank")
	}
	if ValidRank(math.Inf(1)) {
		t.Error("Inf should not be a valid rank")
	}
	if !ValidRank(0) || !ValidRank(25) {
		t.Error("plain numbers should be valid ranks")
	}
}
