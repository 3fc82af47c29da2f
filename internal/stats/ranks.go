package stats

// DefaultRankLookahead is how many known timestamps the resolver scans
// ahead (and then behind) of a gap. Empirical tuning value; override
// via config.
const DefaultRankLookahead = 5

// Resolver answers "what front-page rank best represents this post at
// this instant" against the sparse rank table.
//
// Sampling gaps are papered over with a bounded look-ahead-then-
// look-behind: a stale rank is only reused when a valid rank also
// exists shortly after the gap, so a post that has genuinely fallen off
// the front page is never resurrected.
type Resolver struct {
	dataset   *Dataset
	lookahead int
}

// NewResolver returns a resolver over the dataset's rank table.
// A lookahead <= 0 falls back to DefaultRankLookahead.
func NewResolver(d *Dataset, lookahead int) *Resolver {
	if lookahead <= 0 {
		lookahead = DefaultRankLookahead
	}
	return &Resolver{dataset: d, lookahead: lookahead}
}

// Resolve returns the most representative rank for the post at ts, and
// whether one exists.
func (r *Resolver) Resolve(id string, ts int64) (float64, bool) {
	if rank, ok := r.rankAt(id, ts); ok {
		return rank, true
	}

	idx := r.dataset.Index

	// A valid rank must exist within the next lookahead known
	// timestamps, otherwise the post is considered permanently off the
	// ranking and the gap is not painted over.
	ahead := false
	pos := idx.SearchFrom(ts + 1)
	for i := pos; i < idx.Len() && i < pos+r.lookahead; i++ {
		if _, ok := r.rankAt(id, idx.At(i)); ok {
			ahead = true
			break
		}
	}
	if !ahead {
		return 0, false
	}

	// Walk backward for the most recent valid rank before ts.
	back := idx.SearchFrom(ts) - 1
	for i := back; i >= 0 && i > back-r.lookahead; i-- {
		if rank, ok := r.rankAt(id, idx.At(i)); ok {
			return rank, true
		}
	}
	return 0, false
}

func (r *Resolver) rankAt(id string, ts int64) (float64, bool) {
	byID, ok := r.dataset.ranks[ts]
	if !ok {
		return 0, false
	}
	rank, ok := byID[id]
	if !ok || !ValidRank(rank) {
		return 0, false
	}
	return rank, true
}
