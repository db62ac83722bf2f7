package statusgrid

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/deltawash/deltawash/internal/domain"
)

func snapshotWith(state domain.StepState) map[domain.StepID]domain.StepStatus {
	snap := make(map[domain.StepID]domain.StepStatus, len(domain.AllSteps))
	for _, id := range domain.AllSteps {
		snap[id] = domain.StepStatus{StepID: id, State: domain.NotStarted}
	}
	snap[domain.Step2] = domain.StepStatus{StepID: domain.Step2, State: state, AccumulatedMs: 1500}
	return snap
}

func TestRenderSkipsWhenNotDirty(t *testing.T) {
	var buf bytes.Buffer
	g := New(&buf, time.Second)
	g.Render(time.Unix(0, 0))
	if buf.Len() != 0 {
		t.Fatalf("expected no output before any Observe, got %q", buf.String())
	}
}

func TestRenderWritesOnceDirtyAndMarksStep(t *testing.T) {
	var buf bytes.Buffer
	g := New(&buf, time.Second)
	step := domain.Step2
	g.Observe(snapshotWith(domain.InProgress), &step)
	g.Render(time.Unix(0, 0))

	out := buf.String()
	if !strings.Contains(out, "STEP_2") {
		t.Fatalf("expected STEP_2 row in output, got %q", out)
	}
	if !strings.Contains(out, "IN_PROGRESS") {
		t.Fatalf("expected IN_PROGRESS state in output, got %q", out)
	}
}

func TestRenderThrottlesWithinCadence(t *testing.T) {
	var buf bytes.Buffer
	g := New(&buf, time.Minute)
	step := domain.Step2
	now := time.Unix(1000, 0)

	g.Observe(snapshotWith(domain.InProgress), &step)
	g.Render(now)
	firstLen := buf.Len()

	g.Observe(snapshotWith(domain.Completed), &step)
	g.Render(now.Add(time.Second)) // within cadence, but dirty

	if buf.Len() != firstLen {
		t.Fatalf("expected no additional render within refresh cadence, got %d extra bytes", buf.Len()-firstLen)
	}

	g.Render(now.Add(time.Minute + time.Second)) // cadence elapsed
	if buf.Len() == firstLen {
		t.Fatal("expected a render once the refresh cadence elapsed")
	}
}
