// Package store persists the analytics subsystem's computed aggregates —
// daily compliance summaries and per-asset accuracy runs — behind gorm,
// so the dashboard web API (out of core scope) has a stable place to
// read them from instead of re-parsing JSONL on every request.
package store

import "time"

// DailyMetric is one UTC day's compliance rollup across all sessions
// logged that day.
type DailyMetric struct {
	ID                uint      `gorm:"primaryKey"`
	Date              time.Time `gorm:"uniqueIndex:idx_daily_metric_date"`
	TotalSessions      int
	CompletedSessions  int // every one of the six steps reached COMPLETED
	ComplianceRate     float64
	MostMissedStep     string
	MostMissedStepRate float64
	AvgDurationMs      int64
	CreatedAt          time.Time
}

// StepMetric is one day's per-step completion rate, the detail behind
// DailyMetric.MostMissedStep.
type StepMetric struct {
	ID             uint      `gorm:"primaryKey"`
	Date           time.Time `gorm:"uniqueIndex:idx_step_metric_date_step"`
	StepID         string    `gorm:"uniqueIndex:idx_step_metric_date_step"`
	SessionsSeen   int
	SessionsMissed int
	CompletionRate float64
	AvgAccumulatedMs int64
}

// AssetAccuracy is one replay-manifest asset's accuracy run: how many of
// its annotated steps the interpreter actually completed, under a given
// config and classifier source.
type AssetAccuracy struct {
	ID             uint   `gorm:"primaryKey"`
	AssetID        string `gorm:"index"`
	ConfigVersion  string
	ClassifierName string
	ExpectedSteps  int
	MatchedSteps   int
	Accuracy       float64
	RunAt          time.Time
}

// DeviceUptime records one day's observed device activity window, used
// to estimate uptime percentage against a 24h day.
type DeviceUptime struct {
	ID               uint      `gorm:"primaryKey"`
	Date             time.Time `gorm:"uniqueIndex:idx_device_uptime_date"`
	FirstSessionTs   int64
	LastSessionTs    int64
	ActiveSeconds    int64
	UptimeEstimate   float64
}

// Models lists every type AutoMigrate should register.
func Models() []any {
	return []any{&DailyMetric{}, &StepMetric{}, &AssetAccuracy{}, &DeviceUptime{}}
}
