// Package coord drives the fetch-merge-project cycle behind the chart.
//
// The coordinator is the viewport controller: it owns the current
// window, mode and author filter, debounces rapid viewport changes, and
// is the single writer of the dataset and catalog. Each cycle runs the
// metric fetch and the posts fetch jointly, folds whatever succeeded
// into the cumulative state in one synchronous step, reprojects, and
// pushes the snapshot to the UI via program.Send.
package coord

import (
	"context"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/subpulse/internal/catalog"
	"github.com/abelbrown/subpulse/internal/logging"
	"github.com/abelbrown/subpulse/internal/project"
	"github.com/abelbrown/subpulse/internal/stats"
	"github.com/abelbrown/subpulse/internal/ui"
)

// DefaultQuietPeriod is how long a burst of viewport changes must go
// silent before the last one triggers a fetch.
const DefaultQuietPeriod = time.Second

// DefaultCatalogMargin widens the posts fetch window backward so posts
// created shortly before the visible range still render in full.
const DefaultCatalogMargin = 5 * 24 * 60 * 60 // seconds

// DefaultWindowSpan is the initial visible range at startup.
const DefaultWindowSpan = 2 * 24 * 60 * 60 // seconds

// fetchTimeout bounds each cycle's remote calls.
const fetchTimeout = 30 * time.Second

// Source is the remote data dependency, satisfied by *sheets.Client
// and by fakes in tests.
type Source interface {
	FetchScalar(ctx context.Context, metric stats.Metric, from, to int64) (stats.ScalarRecord, error)
	FetchSeries(ctx context.Context, metric stats.Metric, from, to int64) (stats.SeriesRecord, stats.RankTable, error)
	FetchPosts(ctx context.Context, from, to int64) (map[string]catalog.Post, error)
}

// Sender delivers messages to the UI loop, satisfied by *tea.Program.
type Sender interface {
	Send(msg tea.Msg)
}

// Coordinator serializes fetch cycles over the shared dataset.
type Coordinator struct {
	mu      sync.Mutex
	ds      *stats.Dataset
	cat     *catalog.Catalog
	source  Source
	proj    project.Projector
	program Sender

	quiet  time.Duration
	margin int64
	window int64

	ctx    context.Context
	mode   stats.Mode
	filter string
	from   int64
	to     int64

	timerMu sync.Mutex
	timer   *time.Timer

	wg sync.WaitGroup
}

// New creates a Coordinator. quiet <= 0 and margin <= 0 fall back to
// the defaults.
func New(ds *stats.Dataset, cat *catalog.Catalog, source Source, proj project.Projector, quiet time.Duration, margin int64) *Coordinator {
	if quiet <= 0 {
		quiet = DefaultQuietPeriod
	}
	if margin <= 0 {
		margin = DefaultCatalogMargin
	}
	return &Coordinator{
		ds:     ds,
		cat:    cat,
		source: source,
		proj:   proj,
		quiet:  quiet,
		margin: margin,
		window: DefaultWindowSpan,
		mode:   stats.ModeHotness,
	}
}

// SetWindowSpan overrides the initial visible range used by Start.
// Call before Start.
func (c *Coordinator) SetWindowSpan(sec int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if sec > 0 {
		c.window = sec
	}
}

// Start records the context and program and fires the bootstrap cycle:
// an explicit initial viewport event covering the default window ending
// now.
func (c *Coordinator) Start(ctx context.Context, program Sender) {
	c.mu.Lock()
	c.ctx = ctx
	c.program = program
	now := time.Now().Unix()
	c.from, c.to = now-c.window, now
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.runCycle()
	}()
}

// Wait blocks until in-flight cycles finish. Call after canceling the
// context passed to Start.
func (c *Coordinator) Wait() {
	c.stopTimer()
	c.wg.Wait()
}

// Request registers a viewport change to [from, to] seconds. Requests
// are debounced: only the most recent one within the quiet period runs;
// superseded requests are discarded, never queued.
func (c *Coordinator) Request(from, to int64) {
	c.mu.Lock()
	c.from, c.to = from, to
	c.mu.Unlock()

	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.quiet, c.runCycle)
}

// SetMode switches the selected mode. A mode backed by a different
// sheet column triggers a fresh fetch cycle; otherwise the merged data
// is simply reprojected.
func (c *Coordinator) SetMode(m stats.Mode) {
	c.mu.Lock()
	refetch := m.Metric() != c.mode.Metric()
	c.mode = m
	c.mu.Unlock()

	if refetch {
		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			c.runCycle()
		}()
		return
	}
	c.reproject()
}

// SetAuthorFilter updates the author filter and reprojects. An empty
// string clears the filter.
func (c *Coordinator) SetAuthorFilter(author string) {
	c.mu.Lock()
	c.filter = author
	c.mu.Unlock()
	c.reproject()
}

func (c *Coordinator) stopTimer() {
	c.timerMu.Lock()
	defer c.timerMu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// reproject rebuilds the snapshot from the already-merged dataset
// without touching the network. The send happens after the mutex is
// released: program.Send can block on the UI event loop, and that loop
// may itself be waiting to take the mutex.
func (c *Coordinator) reproject() {
	c.mu.Lock()
	program := c.program
	snap := c.proj.Project(c.ds, c.cat, c.mode, c.filter, c.from, c.to)
	c.mu.Unlock()

	send(program, ui.SnapshotMsg{Snap: snap})
}

// runCycle performs one Loading pass: joint fetch, synchronous merge,
// reprojection.
//
// The mutex is held only to snapshot the cycle parameters and for the
// merge+project step, never across the network fetch or program.Send.
// Holding it through either would stall every viewport change for the
// fetch duration and, because Send blocks on the UI event loop while
// that loop blocks in Request, deadlock the program outright.
func (c *Coordinator) runCycle() {
	c.mu.Lock()
	ctx := c.ctx
	program := c.program
	mode, filter := c.mode, c.filter
	from, to := c.from, c.to
	c.mu.Unlock()

	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return
	}
	fetchCtx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	send(program, ui.CycleStartedMsg{})

	metric := mode.Metric()

	var (
		scalarRec stats.ScalarRecord
		seriesRec stats.SeriesRecord
		rankTab   stats.RankTable
		posts     map[string]catalog.Post
		statsErr  error
		postsErr  error
	)

	// The two fetches are independent; one failing never aborts the
	// other, so a partial result still merges below.
	var g errgroup.Group
	g.Go(func() error {
		if metric.Scalar() {
			scalarRec, statsErr = c.source.FetchScalar(fetchCtx, metric, from, to)
		} else {
			seriesRec, rankTab, statsErr = c.source.FetchSeries(fetchCtx, metric, from, to)
		}
		return nil
	})
	g.Go(func() error {
		posts, postsErr = c.source.FetchPosts(fetchCtx, from-c.margin, to)
		return nil
	})
	_ = g.Wait()

	if statsErr != nil {
		logging.Error("stats fetch failed", "metric", metric, "from", from, "to", to, "error", statsErr)
	}
	if postsErr != nil {
		logging.Error("posts fetch failed", "from", from-c.margin, "to", to, "error", postsErr)
	}

	// Merge+project is one synchronous step per cycle.
	c.mu.Lock()
	if statsErr == nil {
		if metric.Scalar() {
			c.ds.MergeScalar(metric, scalarRec)
		} else {
			c.ds.MergeSeries(metric, seriesRec)
			c.ds.MergeRanks(rankTab)
		}
	}
	newPosts := 0
	if postsErr == nil {
		for id, p := range posts {
			if c.cat.Add(id, p) {
				c.ds.SeedPost(id, p.PostTime)
				newPosts++
			}
		}
	}

	snap := c.proj.Project(c.ds, c.cat, mode, filter, from, to)
	c.mu.Unlock()

	send(program, ui.SnapshotMsg{
		Snap:     snap,
		NewPosts: newPosts,
		StatsErr: statsErr,
		PostsErr: postsErr,
	})
}

func send(program Sender, msg tea.Msg) {
	if program != nil {
		program.Send(msg)
	}
}
