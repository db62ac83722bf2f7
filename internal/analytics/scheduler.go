package analytics

import (
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Scheduler runs the daily aggregation job spec.md's analytics
// subsystem needs to turn a day's JSONL session log into persisted
// compliance metrics, without requiring an operator to invoke
// `analytics summarize` by hand every morning.
type Scheduler struct {
	db     *gorm.DB
	logDir string
	logger *zap.Logger
	cron   *cron.Cron
}

// NewScheduler builds a scheduler that reads session logs from logDir.
func NewScheduler(db *gorm.DB, logDir string, logger *zap.Logger) *Scheduler {
	return &Scheduler{db: db, logDir: logDir, logger: logger}
}

// Start schedules the aggregation job at 02:00 UTC daily, summarizing
// the previous UTC day, and starts the cron runner.
func (s *Scheduler) Start() error {
	s.cron = cron.New(cron.WithLocation(time.UTC))

	_, err := s.cron.AddFunc("0 2 * * *", func() {
		yesterday := time.Now().UTC().AddDate(0, 0, -1).Truncate(24 * time.Hour)
		s.logger.Info("starting scheduled analytics aggregation", zap.Time("date", yesterday))

		summary, err := Summarize(s.logDir, yesterday)
		if err != nil {
			s.logger.Error("daily summarize failed", zap.Error(err))
			return
		}
		if err := Persist(s.db, summary); err != nil {
			s.logger.Error("daily metric persist failed", zap.Error(err))
			return
		}

		s.logger.Info("completed scheduled analytics aggregation",
			zap.Time("date", yesterday),
			zap.Int("sessions", summary.TotalSessions),
			zap.String("most_missed_step", string(summary.MostMissedStep)))
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("analytics scheduler started (runs daily at 02:00 UTC)")
	return nil
}

// Stop halts the cron runner.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}
