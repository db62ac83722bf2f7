package replay

import (
	"testing"

	"github.com/deltawash/deltawash/internal/domain"
	"github.com/deltawash/deltawash/internal/framesource"
)

type scriptedSource struct {
	packets []domain.FramePacket
	idx     int
}

func (s *scriptedSource) Next() (domain.FramePacket, bool, error) {
	if s.idx >= len(s.packets) {
		return domain.FramePacket{}, false, nil
	}
	pkt := s.packets[s.idx]
	s.idx++
	return pkt, true, nil
}

func (s *scriptedSource) Close() error { return nil }

func TestPrimingSourceEmitsWarmupThenDelegates(t *testing.T) {
	inner := &scriptedSource{packets: []domain.FramePacket{{FrameID: 0, TimestampMs: 0}}}
	src := NewPrimingSource(inner, 3, 100, 2)

	var timestamps []int64
	for {
		pkt, ok, err := src.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		timestamps = append(timestamps, pkt.TimestampMs)
		if pkt.TimestampMs < 0 {
			if pkt.Metadata.HandCount != 2 || pkt.Metadata.HandsInROI != 2 {
				t.Fatalf("expected priming frame to report min hands present, got %+v", pkt.Metadata)
			}
		}
	}

	want := []int64{-300, -200, -100, 0}
	if len(timestamps) != len(want) {
		t.Fatalf("expected %d frames, got %d (%v)", len(want), len(timestamps), timestamps)
	}
	for i, ts := range want {
		if timestamps[i] != ts {
			t.Fatalf("frame %d: expected ts %d, got %d", i, ts, timestamps[i])
		}
	}
}

func TestPrimingSourceZeroCountDelegatesImmediately(t *testing.T) {
	inner := &scriptedSource{packets: []domain.FramePacket{{FrameID: 0, TimestampMs: 42}}}
	src := NewPrimingSource(inner, 0, 100, 2)

	pkt, ok, err := src.Next()
	if err != nil || !ok || pkt.TimestampMs != 42 {
		t.Fatalf("expected immediate delegate frame, got pkt=%+v ok=%v err=%v", pkt, ok, err)
	}
}

var _ framesource.Source = (*primingSource)(nil)
