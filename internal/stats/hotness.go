package stats

import "math"

// DefaultDecayConstant is the per-second exponential decay applied to
// raw scores in hotness mode. Roughly a 3.7 hour half-life; an
// empirical tuning value, overridable via config.
const DefaultDecayConstant = 5.1966223406838415e-08

// Hotness converts a raw score sampled at ts into a time-decayed
// popularity value: score * exp(-decay * age), with age measured from
// the post's creation time in seconds. At ts == postTime the score
// passes through unchanged.
func Hotness(decay float64, ts, postTime int64, score float64) float64 {
	age := float64(ts - postTime)
	return score * math.Exp(-decay*age)
}
