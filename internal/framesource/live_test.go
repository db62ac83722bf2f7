package framesource

import (
	"errors"
	"testing"

	"github.com/deltawash/deltawash/internal/domain"
)

type fakeCamera struct {
	frames [][]byte
	width  int
	height int
	idx    int
	err    error
}

func (c *fakeCamera) Capture() ([]byte, int, int, error) {
	if c.err != nil {
		return nil, 0, 0, c.err
	}
	if c.idx >= len(c.frames) {
		return nil, 0, 0, errors.New("exhausted")
	}
	frame := c.frames[c.idx]
	c.idx++
	return frame, c.width, c.height, nil
}

func (c *fakeCamera) Close() error { return nil }

func solidFrame(width, height int, value byte) []byte {
	buf := make([]byte, width*height*3)
	for i := range buf {
		buf[i] = value
	}
	return buf
}

func TestLiveNextCropsROIAndStampsFrameID(t *testing.T) {
	cam := &fakeCamera{
		frames: [][]byte{solidFrame(4, 4, 10), solidFrame(4, 4, 200)},
		width:  4,
		height: 4,
	}
	roi := domain.Rect{X: 1, Y: 1, Width: 2, Height: 2}
	l := NewLive(cam, roi, "v1")

	pkt, ok, err := l.Next()
	if err != nil || !ok {
		t.Fatalf("Next: ok=%v err=%v", ok, err)
	}
	if pkt.FrameID != 0 {
		t.Fatalf("expected frame id 0, got %d", pkt.FrameID)
	}
	if len(pkt.Image) != roi.Width*roi.Height*3 {
		t.Fatalf("expected cropped image len %d, got %d", roi.Width*roi.Height*3, len(pkt.Image))
	}
	if pkt.ConfigVersion != "v1" {
		t.Fatalf("expected config_version v1, got %q", pkt.ConfigVersion)
	}

	pkt2, _, _ := l.Next()
	if pkt2.FrameID != 1 {
		t.Fatalf("expected frame id 1, got %d", pkt2.FrameID)
	}
	if pkt2.Motion.MeanVelocity <= 0 {
		t.Fatalf("expected nonzero motion between a dark and bright frame, got %v", pkt2.Motion.MeanVelocity)
	}
}

func TestLiveNextPropagatesCameraError(t *testing.T) {
	cam := &fakeCamera{err: errors.New("device unplugged")}
	l := NewLive(cam, domain.Rect{Width: 2, Height: 2}, "v1")
	_, ok, err := l.Next()
	if ok || err == nil {
		t.Fatalf("expected propagated camera error, got ok=%v err=%v", ok, err)
	}
}
