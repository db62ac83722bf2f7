// Package classify implements the three StepSignal sources named in
// spec.md §4.D — the production CNN, the deterministic replay/demo
// synthesizer, and the hash-derived sample source used for end-to-end
// tests — behind one Classifier contract, plus a thin caching runner that
// smooths brief occlusions.
package classify

import (
	"github.com/deltawash/deltawash/internal/config"
	"github.com/deltawash/deltawash/internal/domain"
)

// Classifier produces exactly one StepSignal per domain.StepID for a
// single frame. Each implementation applies confidence gating
// (is_confident) itself, by building its signals with
// domain.NewStepSignal against the step's configured confidence_min.
type Classifier interface {
	Classify(pkt domain.FramePacket, cfg *config.Config) []domain.StepSignal
}

// Label is one of the seven classes the CNN predicts.
type Label string

const (
	LabelBackground  Label = "Background"
	LabelPalm        Label = "Palm"
	LabelDorsum      Label = "Dorsum"
	LabelInterlaced  Label = "Interlaced"
	LabelInterlocked Label = "Interlocked"
	LabelThumbs      Label = "Thumbs"
	LabelFingertips  Label = "Fingertips"
)

// stepForLabel maps a CNN class to the StepID it represents; Background
// maps to no step.
var stepForLabel = map[Label]domain.StepID{
	LabelPalm:        domain.Step2,
	LabelDorsum:      domain.Step3,
	LabelInterlaced:  domain.Step4,
	LabelInterlocked: domain.Step5,
	LabelThumbs:      domain.Step6,
	LabelFingertips:  domain.Step7,
}

// signalsFromLabel builds the six-element signal slice spec.md §4.D
// requires: the predicted step carries the model's confidence, every
// other step carries zero.
func signalsFromLabel(label Label, confidence float64, ts int64, cfg *config.Config, source domain.SignalSource) []domain.StepSignal {
	matched := stepForLabel[label]

	signals := make([]domain.StepSignal, 0, len(domain.AllSteps))
	for _, id := range domain.AllSteps {
		conf := 0.0
		if id == matched {
			conf = confidence
		}
		threshold := cfg.StepConfig(id).ConfidenceMin
		signals = append(signals, domain.NewStepSignal(id, domain.OrientationNone, conf, threshold, ts, source))
	}
	return signals
}
