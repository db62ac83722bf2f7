// Package motion computes per-frame motion statistics from the ROI crop
// of successive frames. It is stateful (it holds the previous grayscale
// crop) and is not safe for concurrent use; the pipeline owns exactly one
// instance per frame source.
package motion

import "math"

// Estimator holds the previous grayscale ROI crop and derives
// mean_velocity/relative_motion from the absolute difference with the
// current crop.
type Estimator struct {
	prev []byte // grayscale, row-major, width*height bytes
	w, h int
}

// New returns an estimator with no previous frame recorded.
func New() *Estimator {
	return &Estimator{}
}

// Observe converts roi (width*height*3, RGB, row-major) to grayscale and
// returns the motion statistics against the previously observed crop. The
// first call for a given (or reset) stream returns the zero Motion.
func (e *Estimator) Observe(rgb []byte, width, height int) (meanVelocity, relativeMotion float64) {
	gray := toGrayscale(rgb, width, height)

	if e.prev == nil || e.w != width || e.h != height {
		e.prev, e.w, e.h = gray, width, height
		return 0, 0
	}

	n := len(gray)
	var sum, sumSq float64
	for i := 0; i < n; i++ {
		d := absDiff(gray[i], e.prev[i])
		v := float64(d) / 255.0
		sum += v
		sumSq += v * v
	}
	e.prev = gray

	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	if variance < 0 {
		variance = 0
	}
	relative := math.Sqrt(variance)

	// Pure-translation guard: a hand sliding uniformly through the ROI can
	// produce near-zero standard deviation despite real motion.
	if relative == 0 && mean > 0 {
		relative = mean
	}

	return clamp01(mean), clamp01(relative)
}

// Reset discards the previous crop, so the next Observe call yields (0,0)
// as if it were the first frame of a new stream.
func (e *Estimator) Reset() {
	e.prev = nil
}

func toGrayscale(rgb []byte, width, height int) []byte {
	n := width * height
	gray := make([]byte, n)
	for i := 0; i < n; i++ {
		r := int(rgb[i*3])
		g := int(rgb[i*3+1])
		b := int(rgb[i*3+2])
		// ITU-R BT.601 luma.
		gray[i] = byte((299*r + 587*g + 114*b) / 1000)
	}
	return gray
}

func absDiff(a, b byte) byte {
	if a > b {
		return a - b
	}
	return b - a
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
