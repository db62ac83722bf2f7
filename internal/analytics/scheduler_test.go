package analytics

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/deltawash/deltawash/internal/analytics/store"
)

func TestSchedulerStartRegistersDailyJobAndStops(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "analytics.db")
	db, err := store.Connect(store.DriverSQLite, dbPath)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	s := NewScheduler(db, t.TempDir(), zap.NewNop())

	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	entries := s.cron.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected exactly one scheduled job, got %d", len(entries))
	}

	s.Stop()
}
