// Package gate implements the session gate: a sliding-window Idle/Active
// state machine that decides when a wash session starts and ends from
// per-frame presence and motion signals.
package gate

import (
	"github.com/google/uuid"

	"github.com/deltawash/deltawash/internal/config"
	"github.com/deltawash/deltawash/internal/domain"
)

// State is the gate's own lifecycle, distinct from domain.StepState.
type State int

const (
	Idle State = iota
	Active
)

// Gate holds the fixed-size FIFO presence window and the Active state's
// session bookkeeping. It never fails: insufficient signals simply keep
// it Idle.
type Gate struct {
	cfg config.SessionConfig

	window    []bool
	windowLen int

	state         State
	sessionID     string
	sessionStart  int64
	lastActiveTs  int64
}

// New returns a gate in the Idle state with an empty window.
func New(cfg config.SessionConfig) *Gate {
	return &Gate{
		cfg:    cfg,
		window: make([]bool, 0, cfg.StartWindowFrames),
	}
}

// Observation is the per-frame input the gate evaluates into gate_ok.
type Observation struct {
	TimestampMs    int64
	HandCount      int
	HandsInROI     int
	MeanVelocity   float64
	RelativeMotion float64
}

func (g *Gate) gateOK(o Observation) bool {
	if o.HandCount < g.cfg.MinHands || o.HandsInROI < g.cfg.MinHands {
		return false
	}
	if g.cfg.RequireMotion {
		if o.MeanVelocity < g.cfg.MotionThreshold || o.RelativeMotion < g.cfg.RelativeMotionThreshold {
			return false
		}
	}
	return true
}

// Step feeds one frame's observation through the state machine. It
// returns a SessionStarted and/or SessionEnded event; both are nil on
// most frames.
func (g *Gate) Step(o Observation) (started *domain.SessionStarted, ended *domain.SessionEnded) {
	ok := g.gateOK(o)

	switch g.state {
	case Idle:
		g.pushWindow(ok)
		if g.windowFullAndOK() {
			g.state = Active
			g.sessionID = uuid.NewString()
			g.sessionStart = o.TimestampMs
			g.lastActiveTs = o.TimestampMs
			started = &domain.SessionStarted{SessionID: g.sessionID, StartTs: g.sessionStart}
		}

	case Active:
		if ok {
			g.lastActiveTs = o.TimestampMs
		} else if o.TimestampMs-g.lastActiveTs >= g.cfg.StopTimeoutMs {
			ended = &domain.SessionEnded{
				SessionID:  g.sessionID,
				EndTs:      o.TimestampMs,
				Reason:     domain.EndTimeout,
				DurationMs: o.TimestampMs - g.sessionStart,
			}
			g.toIdle()
		}
	}

	return started, ended
}

// Reset ends an Active session explicitly, with reason "reset", using
// lastTs as the end timestamp. It is a no-op (returns nil) when Idle.
func (g *Gate) Reset(lastTs int64) *domain.SessionEnded {
	if g.state != Active {
		return nil
	}
	ended := &domain.SessionEnded{
		SessionID:  g.sessionID,
		EndTs:      lastTs,
		Reason:     domain.EndReset,
		DurationMs: lastTs - g.sessionStart,
	}
	g.toIdle()
	return ended
}

func (g *Gate) toIdle() {
	g.state = Idle
	g.window = g.window[:0]
	g.sessionID = ""
}

func (g *Gate) pushWindow(ok bool) {
	if len(g.window) < g.cfg.StartWindowFrames {
		g.window = append(g.window, ok)
		return
	}
	copy(g.window, g.window[1:])
	g.window[len(g.window)-1] = ok
}

func (g *Gate) windowFullAndOK() bool {
	if len(g.window) < g.cfg.StartWindowFrames {
		return false
	}
	for _, v := range g.window {
		if !v {
			return false
		}
	}
	return true
}

// CurrentState reports whether the gate is currently Active, for components
// (status grid, session logger) that need to know without driving the
// state machine themselves.
func (g *Gate) CurrentState() State { return g.state }

// SessionID returns the current session id, or "" when Idle.
func (g *Gate) SessionID() string { return g.sessionID }
