// Package catalog tracks metadata for every post seen so far.
package catalog

import "sort"

// Post is the immutable metadata for one tracked post.
type Post struct {
	Author   string
	Flair    string
	PostTime int64 // epoch seconds
	Title    string
}

// Catalog is the union of all post metadata fetched so far. Entries are
// write-once: refetching a window never replaces what an earlier fetch
// recorded. Not safe for concurrent use; the fetch cycle is the single
// writer.
type Catalog struct {
	posts map[string]Post
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{posts: make(map[string]Post)}
}

// Add records a post if its id is new. Returns true when the post was
// actually added, false when it was already known.
func (c *Catalog) Add(id string, p Post) bool {
	if _, ok := c.posts[id]; ok {
		return false
	}
	c.posts[id] = p
	return true
}

// Get returns the metadata for id.
func (c *Catalog) Get(id string) (Post, bool) {
	p, ok := c.posts[id]
	return p, ok
}

// Len returns the number of known posts.
func (c *Catalog) Len() int {
	return len(c.posts)
}

// IDs returns all known post ids, sorted.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.posts))
	for id := range c.posts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Authors returns the distinct author names, sorted. Used for the
// author filter suggestions.
func (c *Catalog) Authors() []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range c.posts {
		if p.Author == "" || seen[p.Author] {
			continue
		}
		seen[p.Author] = true
		out = append(out, p.Author)
	}
	sort.Strings(out)
	return out
}
