package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	tslc "github.com/NimbleMarkets/ntcharts/linechart/timeserieslinechart"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/abelbrown/subpulse/internal/project"
	"github.com/abelbrown/subpulse/internal/stats"
)

// ViewportRequester is the controller behind the chart. The App never
// fetches or merges anything itself; it reports viewport, mode and
// filter changes and waits for SnapshotMsg.
type ViewportRequester interface {
	Request(from, to int64)
	SetMode(m stats.Mode)
	SetAuthorFilter(author string)
}

// Preset spans for the zoom keys, in seconds.
const (
	spanHour  = 60 * 60
	spanDay   = 24 * spanHour
	spanWeek  = 7 * spanDay
	spanMonth = 30 * spanDay
	spanYear  = 365 * spanDay
)

// Lines the header and status bar take away from the chart.
const (
	headerLines = 1
	footerLines = 1
)

// legendRows bounds the legend panel height.
const legendRows = 5

// flairLegacyComic marks posts drawn with the thin line style so the
// long-running comic series stands apart from regular posts.
const flairLegacyComic = "legacy comic"

// App is the root Bubble Tea model.
// IMPORTANT: App does NOT hold the dataset. It receives snapshots via
// messages and reports viewport changes through the requester.
type App struct {
	requester ViewportRequester

	chart   tslc.Model
	spinner spinner.Model
	filter  textinput.Model

	snap      project.Snapshot
	mode      stats.Mode
	braille   bool
	legend    bool
	newPosts  int
	statsErr  error
	postsErr  error
	width     int
	height    int
	ready     bool
	loading   bool
	filtering bool

	// last reported viewport, to detect pan/zoom done by the chart
	viewMin float64
	viewMax float64
}

// NewApp creates the root model. The requester is typically the
// coordinator; tests pass a fake.
func NewApp(requester ViewportRequester) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	fi := textinput.New()
	fi.Placeholder = "author"
	fi.Prompt = "filter: "
	fi.CharLimit = 64

	return App{
		requester: requester,
		spinner:   sp,
		filter:    fi,
		mode:      stats.ModeHotness,
		braille:   true,
	}
}

// Init starts the spinner.
func (a App) Init() tea.Cmd {
	return a.spinner.Tick
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.rebuildChart()
		a.ready = true
		return a, nil

	case CycleStartedMsg:
		a.loading = true
		return a, nil

	case SnapshotMsg:
		a.loading = false
		a.snap = msg.Snap
		if msg.Snap.Mode != "" {
			a.mode = msg.Snap.Mode
		}
		a.newPosts = msg.NewPosts
		a.statsErr = msg.StatsErr
		a.postsErr = msg.PostsErr
		a.applySnapshot()
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}

	return a.updateChart(msg)
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.filtering {
		return a.handleFilterKey(msg)
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit

	case "1", "2", "3", "4", "5", "6":
		modes := stats.Modes()
		i := int(msg.String()[0] - '1')
		if i < len(modes) && modes[i] != a.mode {
			a.mode = modes[i]
			a.loading = true
			a.requester.SetMode(a.mode)
		}
		return a, nil

	case "h":
		return a.zoomTo(spanHour)
	case "d":
		return a.zoomTo(spanDay)
	case "w":
		return a.zoomTo(spanWeek)
	case "m":
		return a.zoomTo(spanMonth)
	case "y":
		return a.zoomTo(spanYear)

	case "/":
		a.filtering = true
		a.filter.Focus()
		return a, textinput.Blink

	case "esc":
		if a.filter.Value() != "" {
			a.filter.SetValue("")
			a.requester.SetAuthorFilter("")
		}
		return a, nil

	case "b":
		a.braille = !a.braille
		a.redraw()
		return a, nil

	case "l":
		a.legend = !a.legend
		a.rebuildChart()
		return a, nil
	}

	return a.updateChart(msg)
}

// handleFilterKey routes keys into the author filter input.
func (a App) handleFilterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		a.filtering = false
		a.filter.Blur()
		a.requester.SetAuthorFilter(a.filter.Value())
		return a, nil
	case "esc":
		a.filtering = false
		a.filter.Blur()
		a.filter.SetValue("")
		a.requester.SetAuthorFilter("")
		return a, nil
	}

	var cmd tea.Cmd
	a.filter, cmd = a.filter.Update(msg)
	return a, cmd
}

// zoomTo sets the viewport to the preset span ending just past now, so
// the newest samples sit slightly left of the right edge.
func (a App) zoomTo(span int64) (tea.Model, tea.Cmd) {
	now := time.Now().Unix()
	from := now - span - span*3/100
	to := now + span*3/100
	a.chart.SetViewTimeRange(time.Unix(from, 0), time.Unix(to, 0))
	a.viewMin, a.viewMax = float64(from), float64(to)
	a.redraw()
	a.requester.Request(from, to)
	return a, nil
}

// updateChart forwards a message to the chart and reports any viewport
// change it caused (mouse wheel zoom, arrow key pans).
func (a App) updateChart(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	a.chart, cmd = a.chart.Update(msg)

	min, max := a.chart.ViewMinX(), a.chart.ViewMaxX()
	if min != a.viewMin || max != a.viewMax {
		a.viewMin, a.viewMax = min, max
		a.requester.Request(int64(min), int64(max))
	}
	a.redraw()
	return a, cmd
}

// rebuildChart recreates the chart at the current terminal size and
// repaints whatever snapshot is held.
func (a *App) rebuildChart() {
	w := a.width
	h := a.height - headerLines - footerLines
	if a.legend {
		h -= legendRows
	}
	if w < 10 {
		w = 10
	}
	if h < 4 {
		h = 4
	}

	a.chart = tslc.New(w, h,
		tslc.WithAxesStyles(AxisStyle, LabelStyle),
		tslc.WithXYSteps(4, 5),
	)
	a.chart.XLabelFormatter = tslc.DateTimeLabelFormatter()
	a.chart.Focus()
	a.applySnapshot()
}

// applySnapshot repaints the chart from the held snapshot: one data set
// per series, colored by author, the viewport restored to the
// snapshot's window.
func (a *App) applySnapshot() {
	if a.chart.Width() == 0 {
		return
	}
	a.chart.ClearAllData()

	minY, maxY := 0.0, 1.0
	first := true
	for _, s := range a.snap.Series {
		a.chart.SetDataSetStyle(s.ID, lipgloss.NewStyle().Foreground(seriesColor(s.Author)))
		if s.Flair == flairLegacyComic {
			a.chart.SetDataSetLineStyle(s.ID, runes.ThinLineStyle)
		}
		for _, p := range s.Points {
			a.chart.PushDataSet(s.ID, tslc.TimePoint{
				Time:  time.UnixMilli(p.TimeMs),
				Value: p.Value,
			})
			if first || p.Value < minY {
				minY = p.Value
			}
			if first || p.Value > maxY {
				maxY = p.Value
			}
			first = false
		}
	}
	if maxY <= minY {
		maxY = minY + 1
	}
	a.chart.SetYRange(minY, maxY)
	a.chart.SetViewYRange(minY, maxY)

	if a.snap.FromSec < a.snap.ToSec {
		a.chart.SetTimeRange(time.Unix(a.snap.FromSec, 0), time.Unix(a.snap.ToSec, 0))
		a.chart.SetViewTimeRange(time.Unix(a.snap.FromSec, 0), time.Unix(a.snap.ToSec, 0))
		a.viewMin = float64(a.snap.FromSec)
		a.viewMax = float64(a.snap.ToSec)
	}
	a.redraw()
}

func (a *App) redraw() {
	if a.chart.Width() == 0 {
		return
	}
	if a.braille {
		a.chart.DrawBrailleAll()
	} else {
		a.chart.DrawAll()
	}
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}
	body := a.renderHeader() + "\n" + a.chart.View() + "\n"
	if a.legend {
		body += a.renderLegend()
	}
	return body + a.renderFooter()
}

// renderLegend lists the largest visible series with author, latest
// value and front-page rank.
func (a App) renderLegend() string {
	series := make([]project.Series, len(a.snap.Series))
	copy(series, a.snap.Series)
	sort.SliceStable(series, func(i, j int) bool {
		pi, iok := series[i].Latest()
		pj, jok := series[j].Latest()
		if iok != jok {
			return iok
		}
		return pi.Value > pj.Value
	})

	var b strings.Builder
	for i, s := range series {
		if i >= legendRows {
			break
		}
		mark := lipgloss.NewStyle().Foreground(seriesColor(s.Author)).Render("─")
		line := fmt.Sprintf("%s %s", mark, s.Label)
		if s.Author != "" {
			line += StatusBarText.Render(" by " + s.Author)
		}
		if p, ok := s.Latest(); ok {
			line += StatusBarText.Render(fmt.Sprintf("  %.1f", p.Value))
			if p.Ranked() {
				line += StatusBarKey.Render(fmt.Sprintf(" #%.0f", p.Rank))
			}
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	for i := len(series); i < legendRows; i++ {
		b.WriteString("\n")
	}
	return b.String()
}

// renderHeader draws the title and the mode tabs.
func (a App) renderHeader() string {
	var tabs []string
	for i, m := range stats.Modes() {
		label := fmt.Sprintf("%d %s", i+1, m.Title())
		if m == a.mode {
			tabs = append(tabs, ModeActive.Render(label))
		} else {
			tabs = append(tabs, ModeInactive.Render(label))
		}
	}
	return TitleStyle.Render("subpulse") + strings.Join(tabs, "")
}

// renderFooter draws the status bar: filter input while editing, fetch
// errors when present, otherwise the state line with key hints.
func (a App) renderFooter() string {
	if a.filtering {
		return FilterPromptStyle.Render(a.filter.View())
	}
	if a.statsErr != nil {
		return ErrorStyle.Width(a.width).Render("stats fetch failed: " + a.statsErr.Error())
	}
	if a.postsErr != nil {
		return ErrorStyle.Width(a.width).Render("posts fetch failed: " + a.postsErr.Error())
	}

	var b strings.Builder
	if a.loading {
		b.WriteString(a.spinner.View())
	}
	b.WriteString(StatusBarText.Render(fmt.Sprintf(" %d series", len(a.snap.Series))))
	if a.newPosts > 0 {
		b.WriteString(StatusBarText.Render(fmt.Sprintf(" · %d new", a.newPosts)))
	}
	if f := a.filter.Value(); f != "" {
		b.WriteString(StatusBarText.Render(" · author=" + f))
	}
	b.WriteString("  ")
	b.WriteString(StatusBarKey.Render("1-6"))
	b.WriteString(StatusBarText.Render(" mode "))
	b.WriteString(StatusBarKey.Render("h/d/w/m/y"))
	b.WriteString(StatusBarText.Render(" zoom "))
	b.WriteString(StatusBarKey.Render("/"))
	b.WriteString(StatusBarText.Render(" filter "))
	b.WriteString(StatusBarKey.Render("q"))
	b.WriteString(StatusBarText.Render(" quit"))
	return StatusBar.Width(a.width).Render(b.String())
}

// Mode returns the selected mode (for testing).
func (a App) Mode() stats.Mode {
	return a.mode
}

// Snapshot returns the held snapshot (for testing).
func (a App) Snapshot() project.Snapshot {
	return a.snap
}
