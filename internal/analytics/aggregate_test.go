package analytics

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/deltawash/deltawash/internal/domain"
)

func writeSessionLog(t *testing.T, dir string, date time.Time, records []domain.SessionRecord) {
	t.Helper()
	path := filepath.Join(dir, date.UTC().Format("2006-01-02")+".jsonl")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create log: %v", err)
	}
	defer f.Close()
	for _, r := range records {
		encoded, err := json.Marshal(r)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if _, err := f.Write(append(encoded, '\n')); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
}

func completedRecord(missingStep domain.StepID) domain.SessionRecord {
	steps := make(map[domain.StepID]domain.StepStatus)
	for _, id := range domain.AllSteps {
		state := domain.Completed
		if id == missingStep {
			state = domain.InProgress
		}
		steps[id] = domain.StepStatus{StepID: id, State: state, AccumulatedMs: 300}
	}
	return domain.SessionRecord{SessionID: "s", StartTs: 0, EndTs: 5000, Steps: steps}
}

func TestSummarizeComputesComplianceAndMostMissed(t *testing.T) {
	dir := t.TempDir()
	date := time.Date(2026, 7, 20, 0, 0, 0, 0, time.UTC)

	records := []domain.SessionRecord{
		completedRecord(domain.Step6),
		completedRecord(domain.Step6),
		completedRecord(""),
	}
	writeSessionLog(t, dir, date, records)

	summary, err := Summarize(dir, date)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary.TotalSessions != 3 {
		t.Fatalf("expected 3 sessions, got %d", summary.TotalSessions)
	}
	if summary.CompletedSessions != 1 {
		t.Fatalf("expected 1 fully-completed session, got %d", summary.CompletedSessions)
	}
	if summary.MostMissedStep != domain.Step6 {
		t.Fatalf("expected most missed step STEP_6, got %v", summary.MostMissedStep)
	}
}

func TestSummarizeMissingFileReturnsZeroSummary(t *testing.T) {
	dir := t.TempDir()
	summary, err := Summarize(dir, time.Now())
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if summary.TotalSessions != 0 {
		t.Fatalf("expected 0 sessions for missing file, got %d", summary.TotalSessions)
	}
}
