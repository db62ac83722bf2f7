package classify

import (
	"github.com/tidwall/gjson"

	"github.com/deltawash/deltawash/internal/config"
	"github.com/deltawash/deltawash/internal/domain"
)

// Runner wraps a Classifier with the "hand pair geometry" cache spec.md
// §4.D describes: when a frame's cached geometry blob reports the hand
// pair present, the runner remembers the timestamp; when a later frame
// reports it absent, the runner scales every signal's confidence down by
// a factor that decays linearly over MaxStalenessMs, smoothing brief
// occlusions without ever boosting a signal above what the inner
// classifier reported.
type Runner struct {
	inner          Classifier
	maxStalenessMs int64

	lastGeometryMs int64
	haveGeometry   bool
}

// NewRunner wraps inner with a geometry-staleness cache that decays to
// zero scale after maxStalenessMs without an observed hand pair.
func NewRunner(inner Classifier, maxStalenessMs int64) *Runner {
	return &Runner{inner: inner, maxStalenessMs: maxStalenessMs}
}

func (r *Runner) Classify(pkt domain.FramePacket, cfg *config.Config) []domain.StepSignal {
	signals := r.inner.Classify(pkt, cfg)

	present := gjson.Get(pkt.Metadata.ClassifierCacheJSON, "hand_pair.present").Bool()
	if present {
		r.lastGeometryMs = pkt.TimestampMs
		r.haveGeometry = true
	}

	scale := r.confidenceScale(pkt.TimestampMs, present)
	if scale >= 1 {
		return signals
	}

	scaled := make([]domain.StepSignal, len(signals))
	for i, s := range signals {
		s.Confidence *= scale
		s.IsConfident = s.Confidence >= cfg.StepConfig(s.StepID).ConfidenceMin
		scaled[i] = s
	}
	return scaled
}

// confidenceScale returns 1.0 whenever geometry is present this frame or
// was never observed; otherwise it decays linearly from 1.0 at zero
// staleness to 0.0 at MaxStalenessMs and beyond.
func (r *Runner) confidenceScale(ts int64, present bool) float64 {
	if present || !r.haveGeometry || r.maxStalenessMs <= 0 {
		return 1.0
	}
	staleness := ts - r.lastGeometryMs
	if staleness <= 0 {
		return 1.0
	}
	if staleness >= r.maxStalenessMs {
		return 0.0
	}
	return 1.0 - float64(staleness)/float64(r.maxStalenessMs)
}

// Reset forgets any cached geometry, as when starting a fresh session.
func (r *Runner) Reset() {
	r.haveGeometry = false
	r.lastGeometryMs = 0
}
