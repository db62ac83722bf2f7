package replay

import (
	"testing"

	"github.com/deltawash/deltawash/internal/config"
	"github.com/deltawash/deltawash/internal/domain"
	"github.com/deltawash/deltawash/internal/framesource"
)

func verifyTestConfig() *config.Config {
	steps := make(map[string]config.Step)
	for _, id := range domain.AllSteps {
		steps[string(id)] = config.Step{DurationMs: 3000, ConfidenceMin: 0.6}
	}
	return &config.Config{Steps: steps}
}

func completedTs(ms int64) *int64 { return &ms }

func annotationsCoveringAllSteps(durationMs int64) []framesource.Annotation {
	annotations := make([]framesource.Annotation, 0, len(domain.AllSteps))
	for _, id := range domain.AllSteps {
		annotations = append(annotations, framesource.Annotation{StepID: id, StartMs: 0, EndMs: durationMs})
	}
	return annotations
}

func TestVerifyPassesWhenEveryInvariantHolds(t *testing.T) {
	cfg := verifyTestConfig()
	asset := framesource.Asset{Annotations: annotationsCoveringAllSteps(3000)}

	steps := make(map[domain.StepID]domain.StepStatus)
	for _, id := range domain.AllSteps {
		steps[id] = domain.StepStatus{StepID: id, State: domain.Completed, AccumulatedMs: 3000, CompletedTs: completedTs(1000)}
	}
	record := domain.SessionRecord{Steps: steps}

	verdicts, err := Verify(record, cfg, asset)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !AllPassed(verdicts) {
		t.Fatalf("expected all invariants to pass, got %+v", verdicts)
	}
}

func TestVerifyFailsWhenCompletedBelowThreshold(t *testing.T) {
	cfg := verifyTestConfig()
	asset := framesource.Asset{Annotations: []framesource.Annotation{
		{StepID: domain.Step2, StartMs: 0, EndMs: 100},
	}}

	steps := make(map[domain.StepID]domain.StepStatus)
	for _, id := range domain.AllSteps {
		steps[id] = domain.StepStatus{StepID: id, State: domain.NotStarted}
	}
	steps[domain.Step2] = domain.StepStatus{StepID: domain.Step2, State: domain.Completed, AccumulatedMs: 100, CompletedTs: completedTs(1000)}
	record := domain.SessionRecord{Steps: steps}

	verdicts, err := Verify(record, cfg, asset)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if AllPassed(verdicts) {
		t.Fatal("expected Step2's verdict to fail: completed below annotation duration threshold")
	}
}

func TestVerifyFailsOnMissingStep(t *testing.T) {
	cfg := verifyTestConfig()
	record := domain.SessionRecord{Steps: map[domain.StepID]domain.StepStatus{}}

	verdicts, err := Verify(record, cfg, framesource.Asset{})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if AllPassed(verdicts) {
		t.Fatal("expected failure for every missing step")
	}
}

func TestVerifyFailsWhenCompletedStepWasNeverAnnotated(t *testing.T) {
	cfg := verifyTestConfig()
	steps := make(map[domain.StepID]domain.StepStatus)
	for _, id := range domain.AllSteps {
		steps[id] = domain.StepStatus{StepID: id, State: domain.NotStarted}
	}
	steps[domain.Step4] = domain.StepStatus{StepID: domain.Step4, State: domain.Completed, AccumulatedMs: 9999, CompletedTs: completedTs(1000)}
	record := domain.SessionRecord{Steps: steps}

	verdicts, err := Verify(record, cfg, framesource.Asset{})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if AllPassed(verdicts) {
		t.Fatal("expected failure: STEP_4 completed but never annotated")
	}
}

// seed scenario S5: an asset with STEP_2 annotated 0-3000ms and STEP_3
// annotated 3200-6200ms (RIGHT_OVER_LEFT), both thresholds 3000ms.
// Both steps complete and verify passes, with STEP_3's orientation
// matching the last annotated orientation.
func TestVerifyPassesScenarioS5(t *testing.T) {
	steps := make(map[string]config.Step)
	for _, id := range domain.AllSteps {
		steps[string(id)] = config.Step{DurationMs: 3000, ConfidenceMin: 0.6}
	}
	cfg := &config.Config{Steps: steps}

	asset := framesource.Asset{Annotations: []framesource.Annotation{
		{StepID: domain.Step2, StartMs: 0, EndMs: 3000},
		{StepID: domain.Step3, StartMs: 3200, EndMs: 6200, Orientation: domain.OrientationRightOverLeft},
	}}

	steps2 := make(map[domain.StepID]domain.StepStatus)
	for _, id := range domain.AllSteps {
		steps2[id] = domain.StepStatus{StepID: id, State: domain.NotStarted}
	}
	steps2[domain.Step2] = domain.StepStatus{StepID: domain.Step2, State: domain.Completed, AccumulatedMs: 3000, CompletedTs: completedTs(3000)}
	steps2[domain.Step3] = domain.StepStatus{StepID: domain.Step3, State: domain.Completed, Orientation: domain.OrientationRightOverLeft, AccumulatedMs: 3000, CompletedTs: completedTs(6200)}
	record := domain.SessionRecord{Steps: steps2}

	verdicts, err := Verify(record, cfg, asset)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !AllPassed(verdicts) {
		t.Fatalf("expected S5 to pass, got %+v", verdicts)
	}
}

// seed scenario S6: the same asset as S5, but thresholds raised to
// 5000ms so neither step's annotated duration (3000ms) clears the bar.
// A record that (incorrectly) marks both steps COMPLETED must fail
// verification with exactly two failing entries.
func TestVerifyFailsScenarioS6(t *testing.T) {
	steps := make(map[string]config.Step)
	for _, id := range domain.AllSteps {
		steps[string(id)] = config.Step{DurationMs: 5000, ConfidenceMin: 0.6}
	}
	cfg := &config.Config{Steps: steps}

	asset := framesource.Asset{Annotations: []framesource.Annotation{
		{StepID: domain.Step2, StartMs: 0, EndMs: 3000},
		{StepID: domain.Step3, StartMs: 3200, EndMs: 6200, Orientation: domain.OrientationRightOverLeft},
	}}

	steps2 := make(map[domain.StepID]domain.StepStatus)
	for _, id := range domain.AllSteps {
		steps2[id] = domain.StepStatus{StepID: id, State: domain.NotStarted}
	}
	steps2[domain.Step2] = domain.StepStatus{StepID: domain.Step2, State: domain.Completed, AccumulatedMs: 3000, CompletedTs: completedTs(3000)}
	steps2[domain.Step3] = domain.StepStatus{StepID: domain.Step3, State: domain.Completed, Orientation: domain.OrientationRightOverLeft, AccumulatedMs: 3000, CompletedTs: completedTs(6200)}
	record := domain.SessionRecord{Steps: steps2}

	verdicts, err := Verify(record, cfg, asset)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	failed := 0
	for _, v := range verdicts {
		if !v.Passed {
			failed++
		}
	}
	if failed != 2 {
		t.Fatalf("expected exactly 2 failing verdicts, got %d (%+v)", failed, verdicts)
	}
}
