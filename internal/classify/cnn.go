package classify

import (
	"github.com/deltawash/deltawash/internal/config"
	"github.com/deltawash/deltawash/internal/domain"
)

// Model is the inference backend a CnnClassifier delegates to. Swapping
// implementations (ONNX runtime, a remote inference service, a stub for
// tests) never touches the classifier's signal-shaping logic.
type Model interface {
	Predict(roi []byte, width, height int) (Label, float64)
	Version() string
}

// CnnClassifier is the production source: a single forward pass per
// frame over the seven-class label set, mapped onto the six StepIDs.
// Orientation is always NONE — the current model does not predict it.
type CnnClassifier struct {
	model Model
}

// NewCnnClassifier wraps an inference backend.
func NewCnnClassifier(model Model) *CnnClassifier {
	return &CnnClassifier{model: model}
}

// ModelVersion returns the backing model's version string, used to
// stamp SessionRecord.ModelVersion.
func (c *CnnClassifier) ModelVersion() string {
	return c.model.Version()
}

func (c *CnnClassifier) Classify(pkt domain.FramePacket, cfg *config.Config) []domain.StepSignal {
	label, confidence := c.model.Predict(pkt.Image, pkt.ROI.Width, pkt.ROI.Height)
	return signalsFromLabel(label, confidence, pkt.TimestampMs, cfg, domain.SourceModel)
}
