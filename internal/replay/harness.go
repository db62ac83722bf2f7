package replay

import (
	"github.com/deltawash/deltawash/internal/domain"
	"github.com/deltawash/deltawash/internal/framesource"
)

// primingSource prepends a fixed number of synthetic warmup packets to an
// inner Source. Replay assets carry zero motion fields by construction
// (spec.md §4.B), so without priming the session gate's sliding window
// would never fill with gate_ok=true frames purely from asset content;
// priming fills the window deterministically before the first real
// annotated frame arrives, rather than mutating the asset's own packets.
type primingSource struct {
	inner       framesource.Source
	remaining   int
	intervalMs  int64
	minHands    int
	nextID      int64
	nextTs      int64
}

// NewPrimingSource wraps inner with primeCount synthetic frames, each
// intervalMs apart, the last at -intervalMs, so the first real frame at
// timestamp 0 follows on the same cadence with its own timestamp
// undisturbed. Warmup frame ids likewise run from -primeCount to -1, so
// ids stay monotonic into the inner source's ids starting at 0.
func NewPrimingSource(inner framesource.Source, primeCount int, intervalMs int64, minHands int) framesource.Source {
	return &primingSource{
		inner:      inner,
		remaining:  primeCount,
		intervalMs: intervalMs,
		minHands:   minHands,
		nextID:     -int64(primeCount),
		nextTs:     -int64(primeCount) * intervalMs,
	}
}

func (p *primingSource) Next() (domain.FramePacket, bool, error) {
	if p.remaining > 0 {
		pkt := domain.FramePacket{
			FrameID:     p.nextID,
			TimestampMs: p.nextTs,
			Motion:      domain.Motion{MeanVelocity: 1.0, RelativeMotion: 1.0},
			Metadata: domain.FrameMetadata{
				HandCount:  p.minHands,
				HandsInROI: p.minHands,
			},
		}
		p.remaining--
		p.nextID++
		p.nextTs += p.intervalMs
		return pkt, true, nil
	}
	return p.inner.Next()
}

func (p *primingSource) Close() error {
	return p.inner.Close()
}
