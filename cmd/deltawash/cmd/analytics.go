package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/deltawash/deltawash/internal/analytics"
	"github.com/deltawash/deltawash/internal/analytics/store"
	"github.com/deltawash/deltawash/internal/obslog"
	"github.com/deltawash/deltawash/internal/replay"
)

var (
	analyticsLogsDir   string
	analyticsOut       string
	analyticsDBDriver  string
	analyticsDBDSN     string
	analyticsDate      string
	analyticsManifest  string
	analyticsThreshold float64
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Aggregate session logs into operational metrics",
}

var analyticsSummarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Compute daily compliance and most-missed-step metrics from JSONL logs",
	RunE:  runAnalyticsSummarize,
}

var analyticsAccuracyCmd = &cobra.Command{
	Use:   "accuracy",
	Short: "Compute per-asset replay accuracy against manifest ground truth",
	RunE:  runAnalyticsAccuracy,
}

var analyticsServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the daily aggregation job on a cron schedule",
	RunE:  runAnalyticsServe,
}

func init() {
	rootCmd.AddCommand(analyticsCmd)
	analyticsCmd.AddCommand(analyticsSummarizeCmd, analyticsAccuracyCmd, analyticsServeCmd)

	for _, c := range []*cobra.Command{analyticsSummarizeCmd, analyticsAccuracyCmd, analyticsServeCmd} {
		c.Flags().StringVar(&analyticsLogsDir, "logs", "./sessions", "directory of YYYY-MM-DD.jsonl session log files")
		c.Flags().StringVar(&analyticsDBDriver, "db-driver", string(store.DriverSQLite), "analytics database driver (postgres|sqlite)")
		c.Flags().StringVar(&analyticsDBDSN, "db-dsn", "./deltawash-analytics.db", "analytics database DSN (file path for sqlite)")
	}
	analyticsSummarizeCmd.Flags().StringVar(&analyticsOut, "out", "./summary.json", "file to write the computed summaries to")
	analyticsSummarizeCmd.Flags().StringVar(&analyticsDate, "date", "", "summarize only this UTC date (YYYY-MM-DD); default is every date found in --logs")

	analyticsAccuracyCmd.Flags().StringVar(&analyticsManifest, "manifest", "", "replay manifest path")
	analyticsAccuracyCmd.Flags().StringVar(&analyticsOut, "out", "./accuracy.json", "file to write per-asset accuracy to")
	analyticsAccuracyCmd.Flags().Float64Var(&analyticsThreshold, "threshold", 0, "minimum acceptable per-asset accuracy; below this, the command exits 3")
	analyticsAccuracyCmd.MarkFlagRequired("manifest")
}

func runAnalyticsSummarize(cmd *cobra.Command, args []string) error {
	db, err := store.Connect(store.Driver(analyticsDBDriver), analyticsDBDSN)
	if err != nil {
		return err
	}

	dates, err := summarizeDates()
	if err != nil {
		return err
	}

	summaries := make([]analytics.DailySummary, 0, len(dates))
	for _, date := range dates {
		summary, err := analytics.Summarize(analyticsLogsDir, date)
		if err != nil {
			return err
		}
		if err := analytics.Persist(db, summary); err != nil {
			return err
		}
		summaries = append(summaries, summary)
	}

	return writeJSON(analyticsOut, summaries)
}

// summarizeDates returns either the single --date requested or every
// date implied by a YYYY-MM-DD.jsonl filename under --logs.
func summarizeDates() ([]time.Time, error) {
	if analyticsDate != "" {
		date, err := time.Parse("2006-01-02", analyticsDate)
		if err != nil {
			return nil, &ManifestError{Path: analyticsDate, Reason: "invalid --date, want YYYY-MM-DD"}
		}
		return []time.Time{date}, nil
	}

	paths, err := filepath.Glob(filepath.Join(analyticsLogsDir, "????-??-??.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("analytics: globbing %s: %w", analyticsLogsDir, err)
	}
	sort.Strings(paths)

	dates := make([]time.Time, 0, len(paths))
	for _, path := range paths {
		base := strings.TrimSuffix(filepath.Base(path), ".jsonl")
		date, err := time.Parse("2006-01-02", base)
		if err != nil {
			continue
		}
		dates = append(dates, date)
	}
	return dates, nil
}

func runAnalyticsAccuracy(cmd *cobra.Command, args []string) error {
	manifest, err := replay.ParseManifest(analyticsManifest)
	if err != nil {
		return &ManifestError{Path: analyticsManifest, Reason: err.Error()}
	}
	assetsByID := make(map[string]replay.ManifestAsset, len(manifest.Assets))
	for _, a := range manifest.Assets {
		assetsByID[a.ID] = a
	}

	db, err := store.Connect(store.Driver(analyticsDBDriver), analyticsDBDSN)
	if err != nil {
		return err
	}

	records, err := analytics.ReadAllSessions(analyticsLogsDir)
	if err != nil {
		return err
	}

	type accumulator struct {
		sumAccuracy float64
		count       int
	}
	byAsset := make(map[string]*accumulator)

	for _, r := range records {
		if !r.DemoMode || r.DemoAssetID == "" {
			continue
		}
		asset, ok := assetsByID[r.DemoAssetID]
		if !ok {
			continue
		}
		result := analytics.Accuracy(asset, r)
		if err := analytics.PersistAccuracy(db, r.ConfigVersion, r.ModelVersion, result); err != nil {
			return err
		}
		acc, ok := byAsset[asset.ID]
		if !ok {
			acc = &accumulator{}
			byAsset[asset.ID] = acc
		}
		acc.sumAccuracy += result.Accuracy
		acc.count++
	}

	type assetReport struct {
		AssetID  string  `json:"asset_id"`
		Runs     int     `json:"runs"`
		Accuracy float64 `json:"accuracy"`
	}
	reports := make([]assetReport, 0, len(byAsset))
	belowThreshold := false
	for id, acc := range byAsset {
		avg := acc.sumAccuracy / float64(acc.count)
		reports = append(reports, assetReport{AssetID: id, Runs: acc.count, Accuracy: avg})
		if avg < analyticsThreshold {
			belowThreshold = true
		}
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i].AssetID < reports[j].AssetID })

	if err := writeJSON(analyticsOut, reports); err != nil {
		return err
	}

	if belowThreshold {
		return &VerificationError{Reason: fmt.Sprintf("one or more assets fell below accuracy threshold %.3f", analyticsThreshold)}
	}
	return nil
}

func runAnalyticsServe(cmd *cobra.Command, args []string) error {
	logger := obslog.ForMode(verbose)
	defer logger.Sync()

	db, err := store.Connect(store.Driver(analyticsDBDriver), analyticsDBDSN)
	if err != nil {
		return err
	}

	scheduler := analytics.NewScheduler(db, analyticsLogsDir, logger)
	if err := scheduler.Start(); err != nil {
		return err
	}
	defer scheduler.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	return nil
}

func writeJSON(path string, v any) error {
	encoded, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("analytics: encoding %s: %w", path, err)
	}
	return os.WriteFile(path, encoded, 0o644)
}
