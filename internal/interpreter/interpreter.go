// Package interpreter implements the wash interpreter state machine:
// spec.md §4.F, the hardest and largest single component in the
// pipeline. It owns per-step dwell accumulation, active-step selection,
// uncertainty pausing, and completion, and drives the LED publisher and
// the event stream that the status grid and session logger subscribe to.
package interpreter

import (
	"go.uber.org/zap"

	"github.com/deltawash/deltawash/internal/config"
	"github.com/deltawash/deltawash/internal/domain"
)

// LEDPublisher is the subset of the LED publisher's surface the
// interpreter drives. Defined here, rather than imported concretely, so
// tests can substitute a recording fake without touching HTTP.
type LEDPublisher interface {
	StartSession(sessionID string)
	SetActiveStep(stepID *domain.StepID, ts int64)
	SetStepState(status domain.StepStatus, ts int64)
	EndSession(ts int64)
}

type published struct {
	state         domain.StepState
	accumulatedMs int64
	orientation   domain.StepOrientation
}

// Interpreter is not safe for concurrent use; the pipeline drives it from
// a single goroutine, one frame at a time.
type Interpreter struct {
	cfg    *config.Config
	led    LEDPublisher
	logger *zap.Logger

	steps           map[domain.StepID]*domain.StepStatus
	lastConfidentTs map[domain.StepID]*int64
	lastPublished   map[domain.StepID]published
	activeStepID    *domain.StepID

	uncertaintyEvents []domain.UncertaintyEvent
	fallbackEvents    []domain.FallbackEvent
	counters          domain.Counters

	sessionID     string
	configVersion string
	modelVersion  string
	roi           domain.Rect
	demoMode      bool
	demoAssetID   string
	startTs       int64
}

// New builds an interpreter bound to cfg's per-step durations and
// confidence floors, driving led on every active-step or step-state
// change.
func New(cfg *config.Config, led LEDPublisher, logger *zap.Logger) *Interpreter {
	return &Interpreter{
		cfg:    cfg,
		led:    led,
		logger: logger,
	}
}

// StartOpts carries the per-session metadata the interpreter stamps onto
// the eventual SessionRecord; none of it affects the state machine.
type StartOpts struct {
	ConfigVersion string
	ModelVersion  string
	ROI           domain.Rect
	DemoMode      bool
	DemoAssetID   string
}

// Start begins a new session: every step is zeroed, an initial (forced)
// StepStateChanged event fires for each, the LED publisher is told to
// start a fresh session, and the active step is cleared.
func (it *Interpreter) Start(started domain.SessionStarted, opts StartOpts) []any {
	it.steps = make(map[domain.StepID]*domain.StepStatus, len(domain.AllSteps))
	it.lastConfidentTs = make(map[domain.StepID]*int64, len(domain.AllSteps))
	it.lastPublished = make(map[domain.StepID]published, len(domain.AllSteps))
	it.activeStepID = nil
	it.uncertaintyEvents = nil
	it.fallbackEvents = nil
	it.counters = domain.Counters{}

	it.sessionID = started.SessionID
	it.startTs = started.StartTs
	it.configVersion = opts.ConfigVersion
	it.modelVersion = opts.ModelVersion
	it.roi = opts.ROI
	it.demoMode = opts.DemoMode
	it.demoAssetID = opts.DemoAssetID

	var events []any
	for _, id := range domain.AllSteps {
		status := domain.NewStepStatus(id)
		it.steps[id] = &status
		it.lastPublished[id] = published{state: status.State, accumulatedMs: status.AccumulatedMs, orientation: status.Orientation}
		events = append(events, domain.StepStateChanged{Status: status, TimestampMs: started.StartTs})
	}

	it.led.StartSession(it.sessionID)
	return events
}

// Frame advances the state machine by one frame. signals must contain
// exactly one StepSignal per domain.StepID; the order of the returned
// events is: one StepStateChanged per step whose (state, accumulated_ms,
// orientation) tuple changed, in domain.AllSteps order, then
// ActiveStepChanged (if any).
func (it *Interpreter) Frame(signals []domain.StepSignal, ts int64) []any {
	var events []any

	byStep := make(map[domain.StepID]domain.StepSignal, len(signals))
	for _, s := range signals {
		byStep[s.StepID] = s
		it.recordCounters(s)
	}

	// Emission order within a frame: per-step StepState updates first,
	// then ActiveStep (if changed), then the LED publishes the change
	// drives — matching spec.md §5's ordering guarantee.
	for _, id := range domain.AllSteps {
		status := it.steps[id]
		if status.State == domain.Completed {
			continue
		}

		signal, present := byStep[id]
		if present && signal.IsConfident {
			it.applyConfidentSignal(status, signal)
		} else {
			it.applyUnconfidentFrame(status, ts)
		}

		if it.publishIfChanged(status) {
			events = append(events, domain.StepStateChanged{Status: *status, TimestampMs: ts})
			it.led.SetStepState(*status, ts)
		}
	}

	if changed, newActive := it.selectActiveStep(byStep); changed {
		events = append(events, domain.ActiveStepChanged{Previous: it.activeStepID, Current: newActive, TimestampMs: ts})
		it.activeStepID = newActive
		it.led.SetActiveStep(newActive, ts)
	}

	return events
}

func (it *Interpreter) recordCounters(s domain.StepSignal) {
	switch s.Source {
	case domain.SourceModel:
		it.counters.ModelInferenceCount++
		it.counters.ModelConfidenceSum += s.Confidence
		it.counters.ModelConfidenceSamples++
	case domain.SourceHeuristic:
		it.counters.HeuristicFallbackCount++
		it.fallbackEvents = append(it.fallbackEvents, domain.FallbackEvent{StepID: s.StepID, Source: s.Source, TimestampMs: s.TimestampMs})
	}
}

// selectActiveStep picks the confident signal with maximum confidence.
// Ties keep the numerically lower step (domain.AllSteps order).
func (it *Interpreter) selectActiveStep(byStep map[domain.StepID]domain.StepSignal) (changed bool, newActive *domain.StepID) {
	var best *domain.StepID
	bestConfidence := -1.0
	for _, id := range domain.AllSteps {
		s, ok := byStep[id]
		if !ok || !s.IsConfident {
			continue
		}
		if s.Confidence > bestConfidence {
			id := id
			best = &id
			bestConfidence = s.Confidence
		}
	}

	if (it.activeStepID == nil) != (best == nil) {
		return true, best
	}
	if it.activeStepID != nil && best != nil && *it.activeStepID != *best {
		return true, best
	}
	return false, best
}

func (it *Interpreter) applyConfidentSignal(status *domain.StepStatus, signal domain.StepSignal) {
	if signal.Orientation != domain.OrientationNone {
		status.Orientation = signal.Orientation
	}

	if status.State == domain.NotStarted || status.State == domain.Uncertain {
		status.State = domain.InProgress
	}

	var delta int64
	if last := it.lastConfidentTs[status.StepID]; last != nil {
		delta = signal.TimestampMs - *last
		if delta < 0 {
			delta = 0
		}
	}
	status.AccumulatedMs += delta

	ts := signal.TimestampMs
	it.lastConfidentTs[status.StepID] = &ts

	threshold := it.cfg.StepConfig(status.StepID).DurationMs
	if status.AccumulatedMs >= threshold {
		status.State = domain.Completed
		completedTs := signal.TimestampMs
		status.CompletedTs = &completedTs
		it.lastConfidentTs[status.StepID] = nil
	}
}

func (it *Interpreter) applyUnconfidentFrame(status *domain.StepStatus, ts int64) {
	it.lastConfidentTs[status.StepID] = nil

	if status.State == domain.InProgress {
		status.State = domain.Uncertain
		status.UncertaintyCount++
		it.uncertaintyEvents = append(it.uncertaintyEvents, domain.UncertaintyEvent{
			StepID:      status.StepID,
			Reason:      domain.LowConfidence,
			TimestampMs: ts,
		})
	}
}

func (it *Interpreter) publishIfChanged(status *domain.StepStatus) bool {
	last := it.lastPublished[status.StepID]
	current := published{state: status.State, accumulatedMs: status.AccumulatedMs, orientation: status.Orientation}
	if current == last {
		return false
	}
	it.lastPublished[status.StepID] = current
	return true
}

// End finalizes the session: active step is cleared, the LED publisher
// is told to drive every lamp to idle and close its session, and a
// SessionRecord snapshot is returned for the session logger.
func (it *Interpreter) End(ended domain.SessionEnded) domain.SessionRecord {
	it.activeStepID = nil
	it.led.EndSession(ended.EndTs)

	steps := make(map[domain.StepID]domain.StepStatus, len(it.steps))
	var totalRubbing int64
	for id, status := range it.steps {
		steps[id] = *status
		totalRubbing += status.AccumulatedMs
	}

	return domain.SessionRecord{
		SessionID:              it.sessionID,
		ConfigVersion:          it.configVersion,
		ModelVersion:           it.modelVersion,
		StartTs:                it.startTs,
		EndTs:                  ended.EndTs,
		ROIRect:                it.roi,
		DemoMode:               it.demoMode,
		DemoAssetID:            it.demoAssetID,
		Steps:                  steps,
		UncertaintyEvents:      it.uncertaintyEvents,
		FallbackEvents:         it.fallbackEvents,
		ModelInferenceCount:    it.counters.ModelInferenceCount,
		HeuristicFallbackCount: it.counters.HeuristicFallbackCount,
		ModelConfidenceSum:     it.counters.ModelConfidenceSum,
		ModelConfidenceSamples: it.counters.ModelConfidenceSamples,
		InferenceTimeSumMs:     it.counters.InferenceTimeSumMs,
		InferenceTimeSamples:   it.counters.InferenceTimeSamples,
		TotalRubbingMs:         totalRubbing,
	}
}

// Snapshot returns the current StepStatus for every step, for the status
// grid to render without driving the state machine.
func (it *Interpreter) Snapshot() map[domain.StepID]domain.StepStatus {
	out := make(map[domain.StepID]domain.StepStatus, len(it.steps))
	for id, status := range it.steps {
		out[id] = *status
	}
	return out
}
