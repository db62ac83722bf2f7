package framesource

import (
	"fmt"
	"io"
)

// RawStreamCamera adapts any io.Reader producing a flat stream of
// width*height*3 RGB24 frames (the common "pipe frames from an external
// capture tool" pattern, e.g. a v4l2-ctl or ffmpeg raw-video pipe) to the
// Camera interface. The actual camera driver stays out of this module's
// scope; this is the minimal realization the `capture` CLI needs to run
// end to end against anything that can produce that byte stream.
type RawStreamCamera struct {
	r             io.ReadCloser
	width, height int
}

// NewRawStreamCamera wraps r, which must yield width*height*3 bytes per
// Capture call.
func NewRawStreamCamera(r io.ReadCloser, width, height int) *RawStreamCamera {
	return &RawStreamCamera{r: r, width: width, height: height}
}

func (c *RawStreamCamera) Capture() ([]byte, int, int, error) {
	buf := make([]byte, c.width*c.height*3)
	if _, err := io.ReadFull(c.r, buf); err != nil {
		return nil, 0, 0, fmt.Errorf("framesource: reading raw frame: %w", err)
	}
	return buf, c.width, c.height, nil
}

func (c *RawStreamCamera) Close() error {
	return c.r.Close()
}
