package framesource

import (
	"time"

	"github.com/deltawash/deltawash/internal/domain"
	"github.com/deltawash/deltawash/internal/motion"
)

// Camera is the external collaborator spec.md §1 places out of scope: it
// captures one RGB frame at the configured resolution. The driver itself
// is not part of this module. Frames are used as captured: neither Live
// nor RawStreamCamera applies a horizontal or vertical flip, and no
// configuration option selects one.
type Camera interface {
	Capture() (rgb []byte, width, height int, err error)
	Close() error
}

// Live is the production Source: it stamps each captured frame with
// wall-clock milliseconds and runs it through a Motion Estimator before
// handing it downstream.
type Live struct {
	camera        Camera
	estimator     *motion.Estimator
	roi           domain.Rect
	configVersion string
	nextFrameID   int64
}

// NewLive wraps camera with the motion estimator and ROI/config stamping
// every packet carries.
func NewLive(camera Camera, roi domain.Rect, configVersion string) *Live {
	return &Live{
		camera:        camera,
		estimator:     motion.New(),
		roi:           roi,
		configVersion: configVersion,
	}
}

func (l *Live) Next() (domain.FramePacket, bool, error) {
	rgb, width, height, err := l.camera.Capture()
	if err != nil {
		return domain.FramePacket{}, false, err
	}

	roiRGB := cropROI(rgb, width, height, l.roi)
	meanVelocity, relativeMotion := l.estimator.Observe(roiRGB, l.roi.Width, l.roi.Height)

	pkt := domain.FramePacket{
		FrameID:       l.nextFrameID,
		TimestampMs:   time.Now().UnixMilli(),
		ROI:           l.roi,
		ConfigVersion: l.configVersion,
		Motion: domain.Motion{
			MeanVelocity:   meanVelocity,
			RelativeMotion: relativeMotion,
		},
		Image: roiRGB,
	}
	l.nextFrameID++
	return pkt, true, nil
}

func (l *Live) Close() error {
	return l.camera.Close()
}

// cropROI extracts the RGB sub-rectangle roi from a full-frame buffer.
func cropROI(rgb []byte, width, _ int, roi domain.Rect) []byte {
	out := make([]byte, roi.Width*roi.Height*3)
	for y := 0; y < roi.Height; y++ {
		srcStart := ((roi.Y+y)*width + roi.X) * 3
		dstStart := y * roi.Width * 3
		copy(out[dstStart:dstStart+roi.Width*3], rgb[srcStart:srcStart+roi.Width*3])
	}
	return out
}
