package stats

import (
	"github.com/abelbrown/subpulse/internal/timeindex"
)

// Dataset is the cumulative in-memory store of everything fetched so
// far: scalar metric history, per-post metric history, the sparse
// front-page rank table, and the ordered index of all timestamps seen.
type Dataset struct {
	Index   *timeindex.Index
	scalars map[Metric]ScalarRecord
	series  map[Metric]SeriesRecord
	ranks   RankTable
}

// NewDataset returns an empty dataset with all metric records created.
func NewDataset() *Dataset {
	d := &Dataset{
		Index:   timeindex.New(),
		scalars: make(map[Metric]ScalarRecord),
		series:  make(map[Metric]SeriesRecord),
		ranks:   make(RankTable),
	}
	d.scalars[MetricActiveUsers] = make(ScalarRecord)
	d.scalars[MetricSubscribers] = make(ScalarRecord)
	for _, m := range SeriesMetrics() {
		d.series[m] = make(SeriesRecord)
	}
	return d
}

// Scalar returns the cumulative record for an aggregate metric.
func (d *Dataset) Scalar(m Metric) ScalarRecord {
	return d.scalars[m]
}

// Series returns the cumulative record for a per-post metric.
func (d *Dataset) Series(m Metric) SeriesRecord {
	return d.series[m]
}

// Ranks returns the cumulative front-page rank table.
func (d *Dataset) Ranks() RankTable {
	return d.ranks
}

// MergeScalar folds a freshly fetched aggregate slice into the
// cumulative record. Scalar fetches for overlapping windows are not
// expected to disagree, so overwrite-or-insert is fine.
func (d *Dataset) MergeScalar(m Metric, in ScalarRecord) {
	rec := d.scalars[m]
	if rec == nil {
		rec = make(ScalarRecord)
		d.scalars[m] = rec
	}
	for t, v := range in {
		rec[t] = v
		d.Index.Add(t)
	}
}

// MergeSeries folds a freshly fetched per-post slice into the
// cumulative record.
//
// Every timestamp present in either input survives. Within a timestamp,
// posts already recorded keep their existing value (first write wins);
// posts seen for the first time are appended. Merging the same slice
// twice leaves the dataset unchanged.
func (d *Dataset) MergeSeries(m Metric, in SeriesRecord) {
	rec := d.series[m]
	if rec == nil {
		rec = make(SeriesRecord)
		d.series[m] = rec
	}
	for t, sample := range in {
		d.Index.Add(t)
		cur, ok := rec[t]
		if !ok {
			rec[t] = sample.clone()
			continue
		}
		for i, id := range sample.IDs {
			if i >= len(sample.Values) {
				break
			}
			if cur.indexOf(id) == -1 {
				cur.IDs = append(cur.IDs, id)
				cur.Values = append(cur.Values, sample.Values[i])
			}
		}
		rec[t] = cur
	}
}

// MergeRanks folds freshly parsed front-page ranks into the cumulative
// table. Unlike the per-post values, a later fetch of the same
// (timestamp, post) pair overwrites: the sheet is the authority and the
// table only ever reflects what it last said.
func (d *Dataset) MergeRanks(in RankTable) {
	for t, byID := range in {
		cur, ok := d.ranks[t]
		if !ok {
			cur = make(map[string]float64, len(byID))
			d.ranks[t] = cur
		}
		for id, r := range byID {
			cur[id] = r
		}
	}
}

// SeedPost plants a placeholder origin point for a newly cataloged post
// at its creation time, so the post shows on the chart before its first
// real sample arrives. Scores and comments start at zero; upvote ratio
// starts at the neutral 1.0. Existing samples at that timestamp are
// never disturbed.
func (d *Dataset) SeedPost(id string, postTime int64) {
	d.Index.Add(postTime)
	d.seedValue(MetricScores, id, postTime, 0)
	d.seedValue(MetricComments, id, postTime, 0)
	d.seedValue(MetricUpvoteRatios, id, postTime, 1.0)
}

func (d *Dataset) seedValue(m Metric, id string, t int64, v float64) {
	rec := d.series[m]
	cur, ok := rec[t]
	if !ok {
		rec[t] = Sample{IDs: []string{id}, Values: []float64{v}}
		return
	}
	if cur.indexOf(id) != -1 {
		return
	}
	cur.IDs = append(cur.IDs, id)
	cur.Values = append(cur.Values, v)
	rec[t] = cur
}
