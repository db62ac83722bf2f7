// Package statusgrid renders the operator console's six-row step status
// grid, throttled to a configurable refresh cadence.
package statusgrid

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/deltawash/deltawash/internal/domain"
)

// Grid renders STEP | STATE | MS, marking the active step with ">" and a
// completed step with "*". It is dirty-tracked and throttled: Render only
// writes when a state change has occurred since the last flush and at
// least refreshEvery has elapsed since that flush (the first flush is
// never throttled).
type Grid struct {
	w             io.Writer
	refreshEvery  time.Duration
	dirty         bool
	lastFlush     time.Time
	lastSnapshot  map[domain.StepID]domain.StepStatus
	activeStepID  *domain.StepID
}

// New returns a grid writing to w, refreshing no more than once per
// refreshEvery, and only after a state change has marked it dirty.
func New(w io.Writer, refreshEvery time.Duration) *Grid {
	return &Grid{w: w, refreshEvery: refreshEvery}
}

// Observe records the latest snapshot and active step, marking the grid
// dirty if either differs from what was last rendered.
func (g *Grid) Observe(snapshot map[domain.StepID]domain.StepStatus, activeStepID *domain.StepID) {
	if g.snapshotChanged(snapshot) || g.activeChanged(activeStepID) {
		g.dirty = true
	}
	g.lastSnapshot = snapshot
	g.activeStepID = activeStepID
}

func (g *Grid) snapshotChanged(snapshot map[domain.StepID]domain.StepStatus) bool {
	if len(g.lastSnapshot) != len(snapshot) {
		return true
	}
	for id, status := range snapshot {
		prev, ok := g.lastSnapshot[id]
		if !ok || prev.State != status.State || prev.AccumulatedMs != status.AccumulatedMs || prev.Orientation != status.Orientation {
			return true
		}
	}
	return false
}

func (g *Grid) activeChanged(activeStepID *domain.StepID) bool {
	if (g.activeStepID == nil) != (activeStepID == nil) {
		return true
	}
	return g.activeStepID != nil && activeStepID != nil && *g.activeStepID != *activeStepID
}

// Render flushes the grid to the writer if it is dirty and the refresh
// cadence has elapsed; it is a no-op otherwise. now is passed in rather
// than read from the clock so replay runs stay deterministic.
func (g *Grid) Render(now time.Time) {
	if !g.dirty {
		return
	}
	if !g.lastFlush.IsZero() && now.Sub(g.lastFlush) < g.refreshEvery {
		return
	}

	table := tablewriter.NewTable(g.w,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleASCII),
		})),
		tablewriter.WithHeaderAlignment(tw.AlignLeft),
		tablewriter.WithRowAlignment(tw.AlignLeft),
	)
	table.Header("", "STEP", "STATE", "MS")

	for _, id := range domain.AllSteps {
		status := g.lastSnapshot[id]
		marker := ""
		switch {
		case status.State == domain.Completed:
			marker = "*"
		case g.activeStepID != nil && *g.activeStepID == id:
			marker = ">"
		}
		table.Append(marker, string(id), string(status.State), fmt.Sprintf("%d", status.AccumulatedMs))
	}

	table.Render()
	g.dirty = false
	g.lastFlush = now
}
