// Package stats holds the cumulative time-series data model.
//
// Dataset is the source of truth for everything the chart draws. Slices
// of per-metric history arrive from the sheets fetcher and are folded in
// by the merge methods; the projector reads the merged state to build
// per-post plotted series.
//
// # Thread Safety
//
// Dataset is not safe for concurrent use. The coordinator is the single
// writer: each fetch cycle performs its merges as one synchronous step
// before projection, so readers never observe a half-merged state.
package stats

import "math"

// Metric identifies a column of the remote stats sheet.
type Metric string

const (
	MetricActiveUsers  Metric = "active_users"
	MetricSubscribers  Metric = "subscribers"
	MetricScores       Metric = "scores"
	MetricRanks        Metric = "ranks"
	MetricComments     Metric = "comments"
	MetricUpvoteRatios Metric = "upvote_ratios"
)

// Scalar reports whether the metric carries one aggregate value per
// timestamp rather than parallel per-post lists.
func (m Metric) Scalar() bool {
	return m == MetricActiveUsers || m == MetricSubscribers
}

// SeriesMetrics lists the per-post value metrics in sheet order. Ranks
// are not a value series: every series fetch carries them alongside and
// they land in the dataset's rank table.
func SeriesMetrics() []Metric {
	return []Metric{MetricScores, MetricComments, MetricUpvoteRatios}
}

// Mode is the user-selected view of the data.
type Mode string

const (
	ModeHotness     Mode = "hotness"
	ModeScore       Mode = "score"
	ModeComments    Mode = "comments"
	ModeActiveUsers Mode = "active_users"
	ModeSubscribers Mode = "subscribers"
	ModeUpvoteRatio Mode = "upvote_ratio"
)

// Modes lists the selectable modes in display order.
func Modes() []Mode {
	return []Mode{ModeHotness, ModeScore, ModeComments, ModeActiveUsers, ModeSubscribers, ModeUpvoteRatio}
}

// Metric returns the sheet column backing the mode. Hotness is derived
// from raw scores at projection time, so it loads the scores column.
func (m Mode) Metric() Metric {
	switch m {
	case ModeHotness, ModeScore:
		return MetricScores
	case ModeComments:
		return MetricComments
	case ModeActiveUsers:
		return MetricActiveUsers
	case ModeSubscribers:
		return MetricSubscribers
	case ModeUpvoteRatio:
		return MetricUpvoteRatios
	}
	return MetricScores
}

// Title returns the human-readable mode name.
func (m Mode) Title() string {
	switch m {
	case ModeHotness:
		return "Hotness"
	case ModeScore:
		return "Score"
	case ModeComments:
		return "Comments"
	case ModeActiveUsers:
		return "Active Users"
	case ModeSubscribers:
		return "Subscribers"
	case ModeUpvoteRatio:
		return "Upvote Ratio"
	}
	return string(m)
}

// ScalarRecord maps an epoch-second timestamp to one aggregate value.
type ScalarRecord map[int64]float64

// Sample holds the parallel post-id and value lists observed at one
// timestamp of a per-post metric. Invariant: len(IDs) == len(Values)
// and an id appears at most once.
type Sample struct {
	IDs    []string
	Values []float64
}

// clone returns a deep copy so merged state never aliases fetch results.
func (s Sample) clone() Sample {
	out := Sample{
		IDs:    make([]string, len(s.IDs)),
		Values: make([]float64, len(s.Values)),
	}
	copy(out.IDs, s.IDs)
	copy(out.Values, s.Values)
	return out
}

// indexOf returns the position of id in the sample, or -1.
func (s Sample) indexOf(id string) int {
	for i, v := range s.IDs {
		if v == id {
			return i
		}
	}
	return -1
}

// SeriesRecord maps an epoch-second timestamp to the per-post sample
// taken at that instant.
type SeriesRecord map[int64]Sample

// RankTable is the sparse front-page rank history: timestamp -> post id
// -> rank. A missing entry means "rank unknown at that instant"; a NaN
// entry means the sheet carried no parsable rank.
type RankTable map[int64]map[string]float64

// ValidRank reports whether r is a usable rank value.
func ValidRank(r float64) bool {
	return !math.IsNaN(r) && !math.IsInf(r, 0)
}
