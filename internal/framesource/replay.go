package framesource

import "github.com/deltawash/deltawash/internal/domain"

// Annotation is one ground-truth interval in a manifest asset: "step id
// performed from StartMs to EndMs with this orientation."
type Annotation struct {
	StepID      domain.StepID
	Orientation domain.StepOrientation
	StartMs     int64
	EndMs       int64
}

// Asset is one manifest entry: a named clip with a known frame rate and
// count, an optional ROI override, and the ground-truth annotations the
// replay verifier checks session output against.
type Asset struct {
	ID            string
	FPS           float64
	TotalFrames   int64
	ROI           *domain.Rect
	Annotations   []Annotation
	ConfigVersion string
}

// Replay is the canonical correctness oracle: it emits exactly
// asset.TotalFrames packets with timestamp_ms = frame_id * round(1000/fps)
// and zero motion fields, attaching the annotation (if any) covering each
// frame's timestamp to Metadata.Demo. Two replays of the same asset
// produce byte-identical output.
type Replay struct {
	asset       Asset
	defaultROI  domain.Rect
	frameID     int64
	intervalMs  int64
}

// NewReplay builds a replay source over asset. defaultROI is used when
// the asset does not override it.
func NewReplay(asset Asset, defaultROI domain.Rect) *Replay {
	return &Replay{
		asset:      asset,
		defaultROI: defaultROI,
		intervalMs: roundDiv(1000, asset.FPS),
	}
}

func (r *Replay) Next() (domain.FramePacket, bool, error) {
	if r.frameID >= r.asset.TotalFrames {
		return domain.FramePacket{}, false, nil
	}

	roi := r.defaultROI
	if r.asset.ROI != nil {
		roi = *r.asset.ROI
	}

	ts := r.frameID * r.intervalMs
	pkt := domain.FramePacket{
		FrameID:       r.frameID,
		TimestampMs:   ts,
		ROI:           roi,
		ConfigVersion: r.asset.ConfigVersion,
		Motion:        domain.Motion{},
		Metadata: domain.FrameMetadata{
			HandCount:  2,
			HandsInROI: 2,
			Demo:       r.annotationAt(ts),
		},
	}
	r.frameID++
	return pkt, true, nil
}

func (r *Replay) annotationAt(ts int64) *domain.DemoAnnotation {
	for _, a := range r.asset.Annotations {
		if ts >= a.StartMs && ts <= a.EndMs {
			return &domain.DemoAnnotation{
				AssetID:         r.asset.ID,
				StepID:          a.StepID,
				Orientation:     a.Orientation,
				StepStartMs:     a.StartMs,
				StepEndMs:       a.EndMs,
				FrameIntervalMs: r.intervalMs,
			}
		}
	}
	return nil
}

func (r *Replay) Close() error { return nil }

// roundDiv returns round(num/denom) using the same half-up rounding a
// frame-interval computation needs to stay an integer millisecond count.
func roundDiv(num int, denom float64) int64 {
	if denom <= 0 {
		return 0
	}
	return int64(float64(num)/denom + 0.5)
}
