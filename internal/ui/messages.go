// Package ui provides the Bubble Tea TUI for subpulse.
package ui

import "github.com/abelbrown/subpulse/internal/project"

// CycleStartedMsg is sent when a fetch cycle begins; the UI shows the
// loading spinner until the matching SnapshotMsg arrives.
type CycleStartedMsg struct{}

// SnapshotMsg carries a finished projection. Fetch errors are best
// effort information: a failed half still yields a snapshot built from
// whatever merged.
type SnapshotMsg struct {
	Snap     project.Snapshot
	NewPosts int
	StatsErr error
	PostsErr error
}
