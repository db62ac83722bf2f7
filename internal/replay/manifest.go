// Package replay parses a manifest of annotated assets, drives the
// deterministic replay frame source through the pipeline, and verifies
// the post-replay invariants spec.md §4.B and §9 name: replay is the
// canonical correctness oracle, so two replays of the same asset must
// produce byte-identical SessionRecords.
package replay

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/deltawash/deltawash/internal/domain"
	"github.com/deltawash/deltawash/internal/framesource"
)

// Manifest is the top-level replay manifest: a list of annotated assets.
type Manifest struct {
	Assets []ManifestAsset `json:"assets"`
}

// ManifestAsset is one manifest entry, as read off disk; file paths are
// relative to the manifest file's own directory.
type ManifestAsset struct {
	ID            string               `json:"id"`
	File          string               `json:"file"`
	FPS           float64              `json:"fps"`
	TotalFrames   int64                `json:"total_frames"`
	ConfigVersion string               `json:"config_version,omitempty"`
	ROI           *domain.Rect         `json:"roi,omitempty"`
	Annotations   []ManifestAnnotation `json:"annotations"`
}

// ManifestAnnotation is one ground-truth interval within an asset.
type ManifestAnnotation struct {
	StepID      domain.StepID          `json:"step_id"`
	Orientation domain.StepOrientation `json:"orientation,omitempty"`
	StartMs     int64                  `json:"start_ms"`
	EndMs       int64                  `json:"end_ms"`
	// DurationMs, if set, is the annotation's own implied dwell. It is
	// decoded but not read anywhere: ToAsset drops it, `analytics
	// accuracy` ignores it, and the session verifier uses EndMs-StartMs
	// against the config's duration_ms instead.
	DurationMs int64 `json:"duration_ms,omitempty"`
}

// ParseManifest reads and decodes a manifest file and validates it:
// asset ids must be present and unique, fps and total_frames positive,
// and every annotation must name a known StepID with end_ms > start_ms.
// ToAsset performs no further validation.
func ParseManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("replay: reading manifest %s: %w", path, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("replay: decoding manifest %s: %w", path, err)
	}
	seen := make(map[string]bool, len(m.Assets))
	for i, asset := range m.Assets {
		if asset.ID == "" {
			return nil, fmt.Errorf("replay: manifest %s: asset %d missing id", path, i)
		}
		if seen[asset.ID] {
			return nil, fmt.Errorf("replay: manifest %s: duplicate asset id %s", path, asset.ID)
		}
		seen[asset.ID] = true
		for _, ann := range asset.Annotations {
			if !ann.StepID.Valid() {
				return nil, fmt.Errorf("replay: manifest %s: asset %s has unknown step_id %q", path, asset.ID, ann.StepID)
			}
			if ann.EndMs <= ann.StartMs {
				return nil, fmt.Errorf("replay: manifest %s: asset %s has annotation with end_ms <= start_ms", path, asset.ID)
			}
		}
		if asset.FPS <= 0 {
			return nil, fmt.Errorf("replay: manifest %s: asset %s has non-positive fps", path, asset.ID)
		}
		if asset.TotalFrames <= 0 {
			return nil, fmt.Errorf("replay: manifest %s: asset %s has non-positive total_frames", path, asset.ID)
		}
	}
	return &m, nil
}

// ToAsset converts a manifest entry to the value framesource.Replay
// consumes.
func (a ManifestAsset) ToAsset() framesource.Asset {
	annotations := make([]framesource.Annotation, 0, len(a.Annotations))
	for _, ann := range a.Annotations {
		annotations = append(annotations, framesource.Annotation{
			StepID:      ann.StepID,
			Orientation: ann.Orientation,
			StartMs:     ann.StartMs,
			EndMs:       ann.EndMs,
		})
	}
	return framesource.Asset{
		ID:            a.ID,
		FPS:           a.FPS,
		TotalFrames:   a.TotalFrames,
		ROI:           a.ROI,
		Annotations:   annotations,
		ConfigVersion: a.ConfigVersion,
	}
}
