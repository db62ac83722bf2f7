package analytics

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/deltawash/deltawash/internal/analytics/store"
	"github.com/deltawash/deltawash/internal/domain"
	"github.com/deltawash/deltawash/internal/replay"
)

// AssetAccuracyResult is one asset's accuracy: how many of its annotated
// steps the interpreter actually completed when replayed.
type AssetAccuracyResult struct {
	AssetID       string
	ExpectedSteps int
	MatchedSteps  int
	Accuracy      float64
}

// Accuracy compares a finalized SessionRecord produced by replaying
// asset against the asset's own manifest annotations: a step is
// "expected" if the asset annotates it at all, and "matched" if the
// record completed that same step.
func Accuracy(asset replay.ManifestAsset, record domain.SessionRecord) AssetAccuracyResult {
	expected := make(map[domain.StepID]bool)
	for _, ann := range asset.Annotations {
		expected[ann.StepID] = true
	}

	result := AssetAccuracyResult{AssetID: asset.ID, ExpectedSteps: len(expected)}
	for id := range expected {
		status, ok := record.Steps[id]
		if ok && status.State == domain.Completed {
			result.MatchedSteps++
		}
	}
	if result.ExpectedSteps > 0 {
		result.Accuracy = float64(result.MatchedSteps) / float64(result.ExpectedSteps)
	}
	return result
}

// PersistAccuracy records one accuracy run for dashboards and trend
// analysis to query later.
func PersistAccuracy(db *gorm.DB, configVersion, classifierName string, result AssetAccuracyResult) error {
	row := store.AssetAccuracy{
		AssetID:        result.AssetID,
		ConfigVersion:  configVersion,
		ClassifierName: classifierName,
		ExpectedSteps:  result.ExpectedSteps,
		MatchedSteps:   result.MatchedSteps,
		Accuracy:       result.Accuracy,
		RunAt:          time.Now().UTC(),
	}
	if err := db.Create(&row).Error; err != nil {
		return fmt.Errorf("analytics: persisting accuracy for %s: %w", result.AssetID, err)
	}
	return nil
}
