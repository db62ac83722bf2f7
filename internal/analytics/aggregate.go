// Package analytics implements the second subsystem spec.md §1
// describes: aggregating many session records into daily compliance,
// most-missed-step, and device-uptime operational metrics, plus
// per-asset replay accuracy. It reads the JSONL files the core's
// Session Logger writes; it has no dependency on the live pipeline.
package analytics

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/deltawash/deltawash/internal/analytics/store"
	"github.com/deltawash/deltawash/internal/domain"
)

// DailySummary is the computed rollup for one UTC date.
type DailySummary struct {
	Date               time.Time
	TotalSessions      int
	CompletedSessions  int
	ComplianceRate     float64
	MostMissedStep     domain.StepID
	MostMissedStepRate float64
	AvgDurationMs      int64
	PerStep            map[domain.StepID]StepSummary
}

// StepSummary is one step's completion rate across a day's sessions.
type StepSummary struct {
	SessionsSeen     int
	SessionsMissed   int
	CompletionRate   float64
	AvgAccumulatedMs int64
}

// Summarize reads logDir/YYYY-MM-DD.jsonl for date and computes a
// DailySummary. A missing file is not an error: it summarizes to zero
// sessions.
func Summarize(logDir string, date time.Time) (DailySummary, error) {
	path := filepath.Join(logDir, fmt.Sprintf("%s.jsonl", date.UTC().Format("2006-01-02")))

	records, err := readSessions(path)
	if err != nil {
		return DailySummary{}, err
	}

	summary := DailySummary{
		Date:    date.UTC().Truncate(24 * time.Hour),
		PerStep: make(map[domain.StepID]StepSummary, len(domain.AllSteps)),
	}
	if len(records) == 0 {
		return summary, nil
	}

	stepSeen := make(map[domain.StepID]int)
	stepMissed := make(map[domain.StepID]int)
	stepAccumMs := make(map[domain.StepID]int64)

	var totalDuration int64
	for _, r := range records {
		summary.TotalSessions++
		totalDuration += r.EndTs - r.StartTs

		allCompleted := true
		for _, id := range domain.AllSteps {
			status, ok := r.Steps[id]
			stepSeen[id]++
			stepAccumMs[id] += status.AccumulatedMs
			if !ok || status.State != domain.Completed {
				stepMissed[id]++
				allCompleted = false
			}
		}
		if allCompleted {
			summary.CompletedSessions++
		}
	}

	summary.AvgDurationMs = totalDuration / int64(summary.TotalSessions)
	summary.ComplianceRate = float64(summary.CompletedSessions) / float64(summary.TotalSessions)

	for _, id := range domain.AllSteps {
		seen := stepSeen[id]
		missed := stepMissed[id]
		var completionRate float64
		if seen > 0 {
			completionRate = 1 - float64(missed)/float64(seen)
		}
		var avgAccum int64
		if seen > 0 {
			avgAccum = stepAccumMs[id] / int64(seen)
		}
		summary.PerStep[id] = StepSummary{
			SessionsSeen:     seen,
			SessionsMissed:   missed,
			CompletionRate:   completionRate,
			AvgAccumulatedMs: avgAccum,
		}
	}
	summary.MostMissedStep, summary.MostMissedStepRate = mostMissed(summary.PerStep, summary.TotalSessions)

	return summary, nil
}

func mostMissed(perStep map[domain.StepID]StepSummary, totalSessions int) (domain.StepID, float64) {
	var worst domain.StepID
	var worstRate float64 = -1
	for _, id := range domain.AllSteps {
		s := perStep[id]
		var missRate float64
		if totalSessions > 0 {
			missRate = float64(s.SessionsMissed) / float64(totalSessions)
		}
		if missRate > worstRate {
			worstRate = missRate
			worst = id
		}
	}
	return worst, worstRate
}

// ReadAllSessions reads every YYYY-MM-DD.jsonl file under dir, in
// lexical (and therefore chronological) filename order. Used by
// `analytics accuracy`, which spans however many dates a demo run
// touched rather than one fixed UTC day.
func ReadAllSessions(dir string) ([]domain.SessionRecord, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "????-??-??.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("analytics: globbing %s: %w", dir, err)
	}
	sort.Strings(paths)

	var all []domain.SessionRecord
	for _, path := range paths {
		records, err := readSessions(path)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}
	return all, nil
}

func readSessions(path string) ([]domain.SessionRecord, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("analytics: opening %s: %w", path, err)
	}
	defer f.Close()

	var records []domain.SessionRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		// Blank lines and lines that fail to decode are skipped, not fatal.
		var r domain.SessionRecord
		if err := json.Unmarshal(scanner.Bytes(), &r); err != nil {
			continue
		}
		records = append(records, r)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("analytics: scanning %s: %w", path, err)
	}
	return records, nil
}

// Persist upserts summary into the daily_metrics and step_metrics tables.
func Persist(db *gorm.DB, summary DailySummary) error {
	metric := store.DailyMetric{
		Date:               summary.Date,
		TotalSessions:      summary.TotalSessions,
		CompletedSessions:  summary.CompletedSessions,
		ComplianceRate:     summary.ComplianceRate,
		MostMissedStep:     string(summary.MostMissedStep),
		MostMissedStepRate: summary.MostMissedStepRate,
		AvgDurationMs:      summary.AvgDurationMs,
	}
	if err := db.Where(store.DailyMetric{Date: summary.Date}).
		Assign(metric).
		FirstOrCreate(&metric).Error; err != nil {
		return fmt.Errorf("analytics: persisting daily metric: %w", err)
	}

	for id, s := range summary.PerStep {
		stepMetric := store.StepMetric{
			Date:             summary.Date,
			StepID:           string(id),
			SessionsSeen:     s.SessionsSeen,
			SessionsMissed:   s.SessionsMissed,
			CompletionRate:   s.CompletionRate,
			AvgAccumulatedMs: s.AvgAccumulatedMs,
		}
		if err := db.Where(store.StepMetric{Date: summary.Date, StepID: string(id)}).
			Assign(stepMetric).
			FirstOrCreate(&stepMetric).Error; err != nil {
			return fmt.Errorf("analytics: persisting step metric %s: %w", id, err)
		}
	}
	return nil
}
