package cmd

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/deltawash/deltawash/internal/classify"
	"github.com/deltawash/deltawash/internal/config"
	"github.com/deltawash/deltawash/internal/domain"
	"github.com/deltawash/deltawash/internal/framesource"
	"github.com/deltawash/deltawash/internal/obslog"
	"github.com/deltawash/deltawash/internal/replay"
)

var (
	demoAssetID       string
	demoManifestPath  string
	demoVerify        bool
	demoLogDir        string
	demoStatusCadence time.Duration
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Replay one manifest asset through the full pipeline",
	RunE:  runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.Flags().StringVar(&demoAssetID, "asset", "", "manifest asset id to replay")
	demoCmd.Flags().StringVar(&demoManifestPath, "manifest", "", "replay manifest path")
	demoCmd.Flags().BoolVar(&demoVerify, "verify", false, "check the finalized session against post-replay invariants")
	demoCmd.Flags().StringVar(&demoLogDir, "log-dir", "./sessions", "directory session JSONL files are appended to")
	demoCmd.Flags().DurationVar(&demoStatusCadence, "status-cadence", time.Second, "minimum interval between status grid redraws")
	demoCmd.MarkFlagRequired("asset")
	demoCmd.MarkFlagRequired("manifest")
}

// recordingPublisher captures the last SessionRecord finalized so --verify
// can check it without sessionlog.Logger exposing any other read path.
type recordingPublisher struct {
	last *domain.SessionRecord
}

func (p *recordingPublisher) Publish(record domain.SessionRecord) error {
	p.last = &record
	return nil
}

func runDemo(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	logger := obslog.ForMode(verbose)
	defer logger.Sync()

	manifest, err := replay.ParseManifest(demoManifestPath)
	if err != nil {
		return &ManifestError{Path: demoManifestPath, Reason: err.Error()}
	}

	var found *replay.ManifestAsset
	for i := range manifest.Assets {
		if manifest.Assets[i].ID == demoAssetID {
			found = &manifest.Assets[i]
			break
		}
	}
	if found == nil {
		return &ManifestError{Path: demoManifestPath, Reason: fmt.Sprintf("asset %q not found", demoAssetID)}
	}

	asset := found.ToAsset()
	replaySource := framesource.NewReplay(asset, cfg.ROI)

	intervalMs := int64(math.Round(1000 / asset.FPS))
	source := replay.NewPrimingSource(replaySource, cfg.Session.StartWindowFrames, intervalMs, cfg.Session.MinHands)

	recorder := &recordingPublisher{}
	p := buildPipelineWithPublisher(cfg, source, classify.NewDemoClassifier(), demoLogDir, demoStatusCadence, logger, recorder)
	p.WithSessionMetadata("demo", true, demoAssetID)

	if err := p.Run(); err != nil {
		return err
	}

	if !demoVerify {
		return nil
	}
	if recorder.last == nil {
		return &VerificationError{Reason: "replay produced no finalized session"}
	}

	verdicts, err := replay.Verify(*recorder.last, cfg, asset)
	if err != nil {
		return err
	}
	if !replay.AllPassed(verdicts) {
		for _, v := range verdicts {
			if !v.Passed {
				logger.Error("replay invariant failed", zap.String("step_id", string(v.StepID)), zap.String("failure", v.Failure))
			}
		}
		return &VerificationError{Reason: "one or more steps failed post-replay invariants"}
	}
	return nil
}
