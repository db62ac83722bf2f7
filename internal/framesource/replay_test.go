package framesource

import (
	"testing"

	"github.com/deltawash/deltawash/internal/domain"
)

func testAsset() Asset {
	return Asset{
		ID:          "asset-1",
		FPS:         10,
		TotalFrames: 5,
		Annotations: []Annotation{
			{StepID: domain.Step2, Orientation: domain.OrientationNone, StartMs: 0, EndMs: 200},
		},
	}
}

func TestReplayEmitsExactFrameCountWithComputedTimestamps(t *testing.T) {
	r := NewReplay(testAsset(), domain.Rect{Width: 100, Height: 100})

	var frames []domain.FramePacket
	for {
		pkt, ok, err := r.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		frames = append(frames, pkt)
	}

	if len(frames) != 5 {
		t.Fatalf("expected 5 frames, got %d", len(frames))
	}
	for i, pkt := range frames {
		want := int64(i) * 100 // round(1000/10)
		if pkt.TimestampMs != want {
			t.Fatalf("frame %d: expected ts %d, got %d", i, want, pkt.TimestampMs)
		}
		if pkt.Motion != (domain.Motion{}) {
			t.Fatalf("frame %d: expected zero motion, got %+v", i, pkt.Motion)
		}
	}
}

func TestReplayAttachesAnnotationWithinWindow(t *testing.T) {
	r := NewReplay(testAsset(), domain.Rect{Width: 100, Height: 100})

	pkt, _, _ := r.Next() // ts=0, within [0,200]
	if pkt.Metadata.Demo == nil || pkt.Metadata.Demo.StepID != domain.Step2 {
		t.Fatalf("expected annotation for frame 0, got %+v", pkt.Metadata.Demo)
	}

	for i := 0; i < 2; i++ {
		r.Next() // advance past the annotation window (ts=100, ts=200 still in range)
	}
	pkt, _, _ = r.Next() // ts=300, outside [0,200]
	if pkt.Metadata.Demo != nil {
		t.Fatalf("expected no annotation outside window, got %+v", pkt.Metadata.Demo)
	}
}

func TestReplayUsesAssetROIOverrideWhenPresent(t *testing.T) {
	asset := testAsset()
	asset.ROI = &domain.Rect{X: 5, Y: 5, Width: 10, Height: 10}
	r := NewReplay(asset, domain.Rect{Width: 100, Height: 100})

	pkt, _, _ := r.Next()
	if pkt.ROI != *asset.ROI {
		t.Fatalf("expected asset ROI override, got %+v", pkt.ROI)
	}
}
