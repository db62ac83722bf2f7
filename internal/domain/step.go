// Package domain holds the value types shared by every stage of the wash
// interpreter pipeline: frame packets, step signals, per-step status, and
// the session record emitted at the end of a wash.
package domain

import "fmt"

// StepID is the closed set of WHO handwashing steps the interpreter tracks.
// Step 1 (wet hands) and step 8 (dry hands) are not modeled; only the six
// rubbing gestures carry a timer.
type StepID string

const (
	Step2 StepID = "STEP_2" // palm to palm
	Step3 StepID = "STEP_3" // back of hands (interlaced)
	Step4 StepID = "STEP_4" // fingers interlaced
	Step5 StepID = "STEP_5" // backs of fingers interlocked
	Step6 StepID = "STEP_6" // thumbs
	Step7 StepID = "STEP_7" // fingertips
)

// AllSteps is the canonical numeric ordering used for iteration. It is
// *not* a completion-order constraint; steps may complete out of order.
var AllSteps = [6]StepID{Step2, Step3, Step4, Step5, Step6, Step7}

// Valid reports whether s is one of the six known steps.
func (s StepID) Valid() bool {
	for _, known := range AllSteps {
		if s == known {
			return true
		}
	}
	return false
}

// Ordinal returns the numeric WHO step number (2..7), or 0 if invalid.
func (s StepID) Ordinal() int {
	switch s {
	case Step2:
		return 2
	case Step3:
		return 3
	case Step4:
		return 4
	case Step5:
		return 5
	case Step6:
		return 6
	case Step7:
		return 7
	default:
		return 0
	}
}

func (s StepID) String() string { return string(s) }

// StepOrientation distinguishes hand-relative variants of a gesture.
// Only steps 3, 6 and 7 carry meaningful orientation; the rest use None.
type StepOrientation string

const (
	OrientationNone             StepOrientation = "NONE"
	OrientationLeftOverRight    StepOrientation = "LEFT_OVER_RIGHT"
	OrientationRightOverLeft    StepOrientation = "RIGHT_OVER_LEFT"
	OrientationLeftThumb        StepOrientation = "LEFT_THUMB"
	OrientationRightThumb       StepOrientation = "RIGHT_THUMB"
	OrientationLeftFingertips   StepOrientation = "LEFT_FINGERTIPS"
	OrientationRightFingertips  StepOrientation = "RIGHT_FINGERTIPS"
)

// StepState is the lifecycle of a single step within a session.
// Completed is terminal: once reached, a step never mutates again.
type StepState string

const (
	NotStarted StepState = "NOT_STARTED"
	InProgress StepState = "IN_PROGRESS"
	Completed  StepState = "COMPLETED"
	Uncertain  StepState = "UNCERTAIN"
)

// SignalSource identifies which classifier produced a StepSignal.
type SignalSource string

const (
	SourceModel     SignalSource = "MODEL"
	SourceHeuristic SignalSource = "HEURISTIC"
	SourceDemo      SignalSource = "DEMO"
)

// StepSignal is one classifier observation for one step at one frame.
type StepSignal struct {
	StepID       StepID
	Orientation  StepOrientation
	Confidence   float64
	IsConfident  bool
	TimestampMs  int64
	Source       SignalSource
	Notes        string
}

// NewStepSignal builds a signal and derives IsConfident from the step's
// configured threshold, enforcing the invariant
// "is_confident ⇔ confidence ≥ step_threshold.confidence_min".
func NewStepSignal(stepID StepID, orientation StepOrientation, confidence float64, confidenceMin float64, ts int64, source SignalSource) StepSignal {
	return StepSignal{
		StepID:      stepID,
		Orientation: orientation,
		Confidence:  confidence,
		IsConfident: confidence >= confidenceMin,
		TimestampMs: ts,
		Source:      source,
	}
}

// StepStatus is the mutable per-step state the interpreter owns for the
// duration of one session.
type StepStatus struct {
	StepID            StepID
	Orientation       StepOrientation
	State             StepState
	AccumulatedMs     int64
	CompletedTs       *int64
	UncertaintyCount  int
}

// NewStepStatus returns the zero value for a step at session start.
func NewStepStatus(stepID StepID) StepStatus {
	return StepStatus{
		StepID:      stepID,
		Orientation: OrientationNone,
		State:       NotStarted,
	}
}

// Validate checks the invariants from spec.md §3/§8 that must hold at
// every frame boundary. It never mutates the receiver.
func (s StepStatus) Validate(durationThreshold int64) error {
	if s.AccumulatedMs < 0 {
		return fmt.Errorf("step %s: accumulated_ms is negative (%d)", s.StepID, s.AccumulatedMs)
	}
	if s.State == Completed {
		if s.AccumulatedMs < durationThreshold {
			return fmt.Errorf("step %s: completed with accumulated_ms %d < threshold %d", s.StepID, s.AccumulatedMs, durationThreshold)
		}
		if s.CompletedTs == nil {
			return fmt.Errorf("step %s: completed with nil completed_ts", s.StepID)
		}
	}
	if s.CompletedTs != nil && s.State != Completed {
		return fmt.Errorf("step %s: completed_ts set but state is %s", s.StepID, s.State)
	}
	return nil
}
