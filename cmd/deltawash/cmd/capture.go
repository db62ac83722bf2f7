package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/deltawash/deltawash/internal/classify"
	"github.com/deltawash/deltawash/internal/config"
	"github.com/deltawash/deltawash/internal/framesource"
	"github.com/deltawash/deltawash/internal/obslog"
)

var (
	captureDevice        string
	captureStatusCadence time.Duration
	captureLogDir        string
	captureModelVersion  string
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Run the full pipeline against a live camera feed",
	RunE:  runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)
	captureCmd.Flags().StringVar(&captureDevice, "device", "", "raw RGB24 frame stream to read (default: stdin)")
	captureCmd.Flags().DurationVar(&captureStatusCadence, "status-cadence", time.Second, "minimum interval between status grid redraws")
	captureCmd.Flags().StringVar(&captureLogDir, "log-dir", "./sessions", "directory session JSONL files are appended to")
	captureCmd.Flags().StringVar(&captureModelVersion, "model-version", "unknown", "classifier model version stamped onto session records")
}

func runCapture(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	logger := obslog.ForMode(verbose)
	defer logger.Sync()

	reader := os.Stdin
	if captureDevice != "" {
		f, err := os.Open(captureDevice)
		if err != nil {
			return err
		}
		reader = f
	}
	camera := framesource.NewRawStreamCamera(reader, cfg.Resolution.Width, cfg.Resolution.Height)
	source := framesource.NewLive(camera, cfg.ROI, cfg.ConfigVersion)
	defer source.Close()

	p := buildPipeline(cfg, source, classify.NewCnnClassifier(classify.NewNullModel(captureModelVersion)), captureLogDir, captureStatusCadence, logger)
	p.WithSessionMetadata(captureModelVersion, false, "")

	return p.Run()
}
