// Package project turns the merged dataset into the per-post series
// the chart draws.
//
// Projection is a pure function over the dataset: it never mutates
// shared state, and every mode switch or merge produces a fresh
// Snapshot for the rendering surface to diff however it likes.
package project

import (
	"math"

	"github.com/abelbrown/subpulse/internal/catalog"
	"github.com/abelbrown/subpulse/internal/stats"
)

// Point is one plotted point. Rank is NaN when the post was unranked at
// that instant.
type Point struct {
	TimeMs int64
	Value  float64
	Rank   float64
}

// Ranked reports whether the point carries a front-page rank.
func (p Point) Ranked() bool {
	return stats.ValidRank(p.Rank)
}

// Series is one named line on the chart.
type Series struct {
	ID     string // post id, or the mode title for aggregate series
	Label  string
	Author string
	Flair  string
	Points []Point
}

// Latest returns the last point of the series.
func (s Series) Latest() (Point, bool) {
	if len(s.Points) == 0 {
		return Point{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// Snapshot is the immutable projection result pushed to the UI.
type Snapshot struct {
	Mode    stats.Mode
	Series  []Series
	Authors []string // distinct catalog authors, for filter suggestions
	FromSec int64
	ToSec   int64
}

// Projector builds snapshots from the cumulative dataset.
type Projector struct {
	// DecayConstant drives the hotness transform; zero means the
	// default.
	DecayConstant float64
	// RankLookahead bounds the rank resolver's gap search; zero means
	// the default.
	RankLookahead int
}

// Project regroups the selected mode's metric into one ascending series
// per post (or a single aggregate series), applying the mode transform
// and attaching front-page ranks. An empty authorFilter shows all
// posts; otherwise only posts whose author matches exactly survive.
func (p Projector) Project(ds *stats.Dataset, cat *catalog.Catalog, mode stats.Mode, authorFilter string, fromSec, toSec int64) Snapshot {
	snap := Snapshot{
		Mode:    mode,
		Authors: cat.Authors(),
		FromSec: fromSec,
		ToSec:   toSec,
	}

	metric := mode.Metric()
	if metric.Scalar() {
		snap.Series = []Series{p.projectScalar(ds, mode, metric)}
		return snap
	}

	snap.Series = p.projectPerPost(ds, cat, mode, metric, authorFilter)
	return snap
}

func (p Projector) projectScalar(ds *stats.Dataset, mode stats.Mode, metric stats.Metric) Series {
	rec := ds.Scalar(metric)
	s := Series{ID: string(metric), Label: mode.Title()}

	idx := ds.Index
	for i := 0; i < idx.Len(); i++ {
		ts := idx.At(i)
		v, ok := rec[ts]
		if !ok || math.IsNaN(v) {
			continue
		}
		s.Points = append(s.Points, Point{TimeMs: ts * 1000, Value: v, Rank: math.NaN()})
	}
	return s
}

func (p Projector) projectPerPost(ds *stats.Dataset, cat *catalog.Catalog, mode stats.Mode, metric stats.Metric, authorFilter string) []Series {
	rec := ds.Series(metric)
	resolver := stats.NewResolver(ds, p.RankLookahead)
	decay := p.DecayConstant
	if decay == 0 {
		decay = stats.DefaultDecayConstant
	}

	byID := make(map[string]*Series)
	var order []string

	idx := ds.Index
	for i := 0; i < idx.Len(); i++ {
		ts := idx.At(i)
		sample, ok := rec[ts]
		if !ok {
			continue
		}
		for j, id := range sample.IDs {
			if j >= len(sample.Values) {
				break
			}
			value := sample.Values[j]
			if math.IsNaN(value) {
				// Missing value mid-series: drop the point.
				continue
			}

			post, known := cat.Get(id)
			switch mode {
			case stats.ModeHotness:
				if !known {
					// No creation time, no decay baseline.
					continue
				}
				value = stats.Hotness(decay, ts, post.PostTime, value)
			case stats.ModeUpvoteRatio:
				value *= 100
			}

			series, ok := byID[id]
			if !ok {
				series = &Series{ID: id, Label: id}
				if known {
					series.Author = post.Author
					series.Flair = post.Flair
					if post.Title != "" {
						series.Label = post.Title
					}
				}
				byID[id] = series
				order = append(order, id)
			}

			rank := math.NaN()
			if r, ok := resolver.Resolve(id, ts); ok {
				rank = r
			}
			series.Points = append(series.Points, Point{TimeMs: ts * 1000, Value: value, Rank: rank})
		}
	}

	out := make([]Series, 0, len(order))
	for _, id := range order {
		s := byID[id]
		if authorFilter != "" && s.Author != authorFilter {
			continue
		}
		out = append(out, *s)
	}
	return out
}
