package classify

import (
	"hash/fnv"

	"github.com/deltawash/deltawash/internal/config"
	"github.com/deltawash/deltawash/internal/domain"
)

// SampleClassifier is the end-to-end test source: it derives a
// reproducible (label, confidence) from a hash of (asset_id, frame_id,
// timestamp_ms) and the frame's attached demo annotation rather than
// running a model, so test suites can exercise the pipeline against
// asset-shaped traffic without a CNN. A frame with no demo annotation
// always yields a zero-confidence Background signal.
type SampleClassifier struct {
	// DropoutRate is the fraction of frames that deterministically
	// receive a zero-confidence Background signal regardless of the
	// annotation window.
	DropoutRate float64
	// MislabelRate is the fraction of frames that deterministically
	// receive their envelope confidence on the *wrong* step.
	MislabelRate float64
}

// NewSampleClassifier returns a sample classifier with the given dropout
// and mislabel rates, each in [0,1].
func NewSampleClassifier(dropoutRate, mislabelRate float64) *SampleClassifier {
	return &SampleClassifier{DropoutRate: dropoutRate, MislabelRate: mislabelRate}
}

func (c *SampleClassifier) Classify(pkt domain.FramePacket, cfg *config.Config) []domain.StepSignal {
	demo := pkt.Metadata.Demo
	if demo == nil {
		return signalsFromLabel(LabelBackground, 0, pkt.TimestampMs, cfg, domain.SourceDemo)
	}

	assetHash := hashOf(demo.AssetID, pkt.FrameID, pkt.TimestampMs)
	unit := float64(assetHash%1_000_000) / 1_000_000.0

	if unit < c.DropoutRate {
		return signalsFromLabel(LabelBackground, 0, pkt.TimestampMs, cfg, domain.SourceDemo)
	}

	targetStep := demo.StepID
	if unit < c.DropoutRate+c.MislabelRate {
		targetStep = wrongStep(targetStep, assetHash)
	}

	confidence := triangularEnvelope(pkt.TimestampMs, demo.StepStartMs, demo.StepEndMs)
	return signalsFromLabel(labelForStep(targetStep), confidence, pkt.TimestampMs, cfg, domain.SourceDemo)
}

// triangularEnvelope rises linearly from 0 at the window start to just
// under 1 at the midpoint, then falls linearly back to 0 at the window
// end; outside the window it is 0.
func triangularEnvelope(ts, startMs, endMs int64) float64 {
	if ts < startMs || ts > endMs || endMs <= startMs {
		return 0
	}
	mid := startMs + (endMs-startMs)/2
	if ts <= mid {
		return float64(ts-startMs) / float64(mid-startMs+1)
	}
	return float64(endMs-ts) / float64(endMs-mid+1)
}

func hashOf(assetID string, frameID, timestampMs int64) uint64 {
	h := fnv.New64a()
	h.Write([]byte(assetID))
	var buf [16]byte
	putInt64(buf[0:8], frameID)
	putInt64(buf[8:16], timestampMs)
	h.Write(buf[:])
	return h.Sum64()
}

func putInt64(b []byte, v int64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func wrongStep(correct domain.StepID, hash uint64) domain.StepID {
	offset := int(hash%5) + 1
	idx := 0
	for i, id := range domain.AllSteps {
		if id == correct {
			idx = i
			break
		}
	}
	return domain.AllSteps[(idx+offset)%len(domain.AllSteps)]
}

func labelForStep(id domain.StepID) Label {
	for label, step := range stepForLabel {
		if step == id {
			return label
		}
	}
	return LabelBackground
}
