package interpreter

import (
	"testing"

	"go.uber.org/zap"

	"github.com/deltawash/deltawash/internal/config"
	"github.com/deltawash/deltawash/internal/domain"
)

type fakeLED struct {
	started bool
	ended   bool
	active  *domain.StepID
	states  []domain.StepStatus
}

func (f *fakeLED) StartSession(string)                        { f.started = true }
func (f *fakeLED) SetActiveStep(id *domain.StepID, ts int64)  { f.active = id }
func (f *fakeLED) SetStepState(s domain.StepStatus, ts int64) { f.states = append(f.states, s) }
func (f *fakeLED) EndSession(ts int64)                        { f.ended = true }

func testCfg() *config.Config {
	steps := map[string]config.Step{}
	for _, key := range []string{"STEP_2", "STEP_3", "STEP_4", "STEP_5", "STEP_6", "STEP_7"} {
		steps[key] = config.Step{DurationMs: 300, ConfidenceMin: 0.6}
	}
	return &config.Config{Steps: steps}
}

func allSignalsAt(ts int64, confident domain.StepID, confidence float64) []domain.StepSignal {
	out := make([]domain.StepSignal, 0, len(domain.AllSteps))
	for _, id := range domain.AllSteps {
		conf := 0.0
		if id == confident {
			conf = confidence
		}
		out = append(out, domain.NewStepSignal(id, domain.OrientationNone, conf, 0.6, ts, domain.SourceModel))
	}
	return out
}

// TestScenarioS1StraightThroughCompletion implements spec seed scenario
// S1: duration_ms=300 for all steps, confident STEP_2 signals at
// ts=300,450,600 complete it with accumulated_ms=300, completed_ts=600.
func TestScenarioS1StraightThroughCompletion(t *testing.T) {
	led := &fakeLED{}
	it := New(testCfg(), led, zap.NewNop())

	it.Start(domain.SessionStarted{SessionID: "s1", StartTs: 200}, StartOpts{})
	if !led.started {
		t.Fatal("expected LED StartSession to be called")
	}

	for _, ts := range []int64{300, 450, 600} {
		it.Frame(allSignalsAt(ts, domain.Step2, 0.9), ts)
	}

	snap := it.Snapshot()
	step2 := snap[domain.Step2]
	if step2.State != domain.Completed {
		t.Fatalf("expected STEP_2 completed, got %v", step2.State)
	}
	if step2.AccumulatedMs != 300 {
		t.Fatalf("expected accumulated_ms 300, got %d", step2.AccumulatedMs)
	}
	if step2.CompletedTs == nil || *step2.CompletedTs != 600 {
		t.Fatalf("expected completed_ts 600, got %v", step2.CompletedTs)
	}

	for _, id := range domain.AllSteps {
		if id == domain.Step2 {
			continue
		}
		if snap[id].State != domain.NotStarted {
			t.Fatalf("expected step %s to remain NOT_STARTED, got %v", id, snap[id].State)
		}
	}

	record := it.End(domain.SessionEnded{SessionID: "s1", EndTs: 1400, Reason: domain.EndTimeout, DurationMs: 1200})
	if !led.ended {
		t.Fatal("expected LED EndSession to be called")
	}
	if record.TotalRubbingMs != 300 {
		t.Fatalf("expected total_rubbing_ms 300, got %d", record.TotalRubbingMs)
	}
}

func TestUnconfidentFrameResetsContributingEdgeNotTotal(t *testing.T) {
	led := &fakeLED{}
	it := New(testCfg(), led, zap.NewNop())
	it.Start(domain.SessionStarted{SessionID: "s2", StartTs: 0}, StartOpts{})

	it.Frame(allSignalsAt(100, domain.Step2, 0.9), 100)
	// An unconfident frame should pause the step without discarding
	// accumulated_ms, and the next confident signal contributes only its
	// own delta rather than the gap across the unconfident frame.
	it.Frame(allSignalsAt(200, domain.Step2, 0.0), 200)
	it.Frame(allSignalsAt(300, domain.Step2, 0.9), 300)

	snap := it.Snapshot()
	step2 := snap[domain.Step2]
	if step2.State != domain.InProgress {
		t.Fatalf("expected IN_PROGRESS after resumed confident signal, got %v", step2.State)
	}
	if step2.AccumulatedMs != 0 {
		t.Fatalf("expected accumulated_ms to stay 0 across the reset edge, got %d", step2.AccumulatedMs)
	}
}

func TestCompletedStepNeverMutates(t *testing.T) {
	led := &fakeLED{}
	it := New(testCfg(), led, zap.NewNop())
	it.Start(domain.SessionStarted{SessionID: "s3", StartTs: 0}, StartOpts{})

	for _, ts := range []int64{100, 250, 400} {
		it.Frame(allSignalsAt(ts, domain.Step2, 0.9), ts)
	}
	snap := it.Snapshot()
	completedTs := *snap[domain.Step2].CompletedTs

	it.Frame(allSignalsAt(500, domain.Step2, 0.0), 500)
	snap = it.Snapshot()
	if snap[domain.Step2].State != domain.Completed {
		t.Fatalf("expected step to remain COMPLETED, got %v", snap[domain.Step2].State)
	}
	if *snap[domain.Step2].CompletedTs != completedTs {
		t.Fatalf("expected completed_ts to stay %d, got %d", completedTs, *snap[domain.Step2].CompletedTs)
	}
}
