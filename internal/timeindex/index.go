// Package timeindex maintains the ordered set of sample timestamps
// observed across all metrics.
//
// The index is the backbone of rank resolution and projection: every
// parsed sample timestamp is registered here, and lookups ("the next K
// known timestamps after t") are answered by binary search over the
// backing slice.
package timeindex

import "sort"

// Index is a sorted, deduplicated set of epoch-second timestamps.
//
// The index grows monotonically during normal operation; Remove exists
// for completeness and tests. Not safe for concurrent use - the fetch
// cycle is the single writer.
type Index struct {
	items []int64
}

// New returns an empty index.
func New() *Index {
	return &Index{}
}

// Add inserts t, keeping the backing slice sorted. Adding a timestamp
// that is already present is a no-op.
func (x *Index) Add(t int64) {
	pos := sort.Search(len(x.items), func(i int) bool { return x.items[i] >= t })
	if pos < len(x.items) && x.items[pos] == t {
		return
	}
	x.items = append(x.items, 0)
	copy(x.items[pos+1:], x.items[pos:])
	x.items[pos] = t
}

// Remove deletes t from the index. Returns false if t was not present.
func (x *Index) Remove(t int64) bool {
	pos := x.IndexOf(t)
	if pos == -1 {
		return false
	}
	x.items = append(x.items[:pos], x.items[pos+1:]...)
	return true
}

// Contains reports whether t has been registered.
func (x *Index) Contains(t int64) bool {
	return x.IndexOf(t) != -1
}

// IndexOf returns the position of t in the sorted sequence, or -1 if t
// is not present.
func (x *Index) IndexOf(t int64) int {
	pos := sort.Search(len(x.items), func(i int) bool { return x.items[i] >= t })
	if pos < len(x.items) && x.items[pos] == t {
		return pos
	}
	return -1
}

// SearchFrom returns the position of the first timestamp >= t. The
// result may equal Len when every known timestamp is before t.
func (x *Index) SearchFrom(t int64) int {
	return sort.Search(len(x.items), func(i int) bool { return x.items[i] >= t })
}

// At returns the timestamp at position i. Callers must keep i in range.
func (x *Index) At(i int) int64 {
	return x.items[i]
}

// Len returns the number of distinct timestamps registered.
func (x *Index) Len() int {
	return len(x.items)
}

// Values returns a copy of the sorted timestamps.
func (x *Index) Values() []int64 {
	out := make([]int64, len(x.items))
	copy(out, x.items)
	return out
}

// Clear empties the index.
func (x *Index) Clear() {
	x.items = x.items[:0]
}
