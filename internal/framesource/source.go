// Package framesource implements the two FramePacket producers named in
// spec.md §4.B: a live camera source and a deterministic replay source
// driven by a manifest asset. Both share the Source contract so the
// pipeline never branches on which one it was handed.
package framesource

import "github.com/deltawash/deltawash/internal/domain"

// Source produces a lazy, non-restartable sequence of FramePackets with
// monotonic TimestampMs and FrameID. Next returns ok=false once the
// stream is exhausted (replay) or the underlying device is closed
// (live); it never blocks forever once that happens.
type Source interface {
	Next() (pkt domain.FramePacket, ok bool, err error)
	Close() error
}
