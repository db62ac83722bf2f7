package domain

// UncertaintyReason enumerates why an UncertaintyEvent was recorded.
type UncertaintyReason string

// LowConfidence is currently the only reason the interpreter emits.
const LowConfidence UncertaintyReason = "LOW_CONFIDENCE"

// UncertaintyEvent records that an in-progress step lost its confident
// signal for one frame.
type UncertaintyEvent struct {
	StepID      StepID
	Reason      UncertaintyReason
	TimestampMs int64
}

// FallbackEvent records that a non-model classifier source produced the
// signal actually used on a frame.
type FallbackEvent struct {
	StepID      StepID
	Source      SignalSource
	TimestampMs int64
}

// EndReason is why a session ended.
type EndReason string

const (
	EndTimeout EndReason = "timeout"
	EndReset   EndReason = "reset"
)

// SessionStarted is emitted by the session gate when a wash begins.
type SessionStarted struct {
	SessionID string
	StartTs   int64
}

// SessionEnded is emitted by the session gate when a wash ends.
type SessionEnded struct {
	SessionID  string
	EndTs      int64
	Reason     EndReason
	DurationMs int64
}

// ActiveStepChanged is emitted by the interpreter when the frame's argmax
// confident step differs from the previous frame's.
type ActiveStepChanged struct {
	Previous    *StepID
	Current     *StepID
	TimestampMs int64
}

// StepStateChanged is emitted by the interpreter whenever a step's
// (state, accumulated_ms, orientation) tuple changes.
type StepStateChanged struct {
	Status      StepStatus
	TimestampMs int64
}

// Counters accumulates the per-session inference statistics the logger
// needs to populate a SessionRecord.
type Counters struct {
	ModelInferenceCount     int64
	HeuristicFallbackCount  int64
	ModelConfidenceSum      float64
	ModelConfidenceSamples  int64
	InferenceTimeSumMs      float64
	InferenceTimeSamples    int64
}

// SessionRecord is the write-once record emitted at end of session and
// appended to the JSONL session log.
type SessionRecord struct {
	SessionID              string                     `json:"session_id"`
	ConfigVersion          string                     `json:"config_version"`
	ModelVersion            string                     `json:"model_version"`
	StartTs                int64                      `json:"start_ts"`
	EndTs                  int64                      `json:"end_ts"`
	ROIRect                Rect                       `json:"roi_rect"`
	DemoMode               bool                       `json:"demo_mode"`
	DemoAssetID            string                     `json:"demo_asset_id,omitempty"`
	Steps                  map[StepID]StepStatus      `json:"steps"`
	UncertaintyEvents      []UncertaintyEvent         `json:"uncertainty_events"`
	FallbackEvents         []FallbackEvent            `json:"fallback_events"`
	ModelInferenceCount    int64                      `json:"model_inference_count"`
	HeuristicFallbackCount int64                      `json:"heuristic_fallback_count"`
	ModelConfidenceSum     float64                    `json:"model_confidence_sum"`
	ModelConfidenceSamples int64                      `json:"model_confidence_samples"`
	InferenceTimeSumMs     float64                    `json:"inference_time_sum_ms"`
	InferenceTimeSamples   int64                      `json:"inference_time_samples"`
	TotalRubbingMs         int64                      `json:"total_rubbing_ms"`
}

// CompletedSteps returns the steps that reached Completed, in the order
// their completed_ts values occur (not numeric step order).
func (r SessionRecord) CompletedSteps() []StepID {
	var ids []StepID
	for id, status := range r.Steps {
		if status.State == Completed {
			ids = append(ids, id)
		}
	}
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0; j-- {
			a, b := r.Steps[ids[j-1]], r.Steps[ids[j]]
			if a.CompletedTs != nil && b.CompletedTs != nil && *a.CompletedTs > *b.CompletedTs {
				ids[j-1], ids[j] = ids[j], ids[j-1]
			}
		}
	}
	return ids
}
