package classify

import (
	"github.com/deltawash/deltawash/internal/config"
	"github.com/deltawash/deltawash/internal/domain"
)

// DemoClassifier is the replay source: when a frame carries a
// DemoAnnotation, it emits a pinned, fully-confident signal for the
// annotated step and orientation so that replay of the same manifest
// asset is byte-identical run over run.
type DemoClassifier struct{}

// NewDemoClassifier returns a stateless demo-annotation synthesizer.
func NewDemoClassifier() *DemoClassifier {
	return &DemoClassifier{}
}

func (c *DemoClassifier) Classify(pkt domain.FramePacket, cfg *config.Config) []domain.StepSignal {
	signals := make([]domain.StepSignal, 0, len(domain.AllSteps))

	demo := pkt.Metadata.Demo
	for _, id := range domain.AllSteps {
		threshold := cfg.StepConfig(id).ConfidenceMin
		confidence := 0.0
		orientation := domain.OrientationNone
		ts := pkt.TimestampMs

		if demo != nil && demo.StepID == id {
			confidence = 1.0
			orientation = demo.Orientation
			// Pin the signal timestamp inside the annotation window so a
			// replay's dwell accumulation never depends on frame cadence
			// rounding drifting the packet timestamp past the window edge.
			ts = clampMs(pkt.TimestampMs, demo.StepStartMs, demo.StepEndMs)
		}

		signals = append(signals, domain.NewStepSignal(id, orientation, confidence, threshold, ts, domain.SourceDemo))
	}
	return signals
}

func clampMs(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
