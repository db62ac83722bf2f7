package cmd

import (
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/deltawash/deltawash/internal/classify"
	"github.com/deltawash/deltawash/internal/config"
	"github.com/deltawash/deltawash/internal/framesource"
	"github.com/deltawash/deltawash/internal/gate"
	"github.com/deltawash/deltawash/internal/interpreter"
	"github.com/deltawash/deltawash/internal/led"
	"github.com/deltawash/deltawash/internal/pipeline"
	"github.com/deltawash/deltawash/internal/sessionlog"
	"github.com/deltawash/deltawash/internal/statusgrid"
)

// buildPipeline assembles the stages every CLI surface shares: a
// staleness-aware classifier runner, the session gate, the interpreter
// bound to the LED publisher, the operator status grid, and the JSONL
// session logger. Callers set per-surface session metadata afterward via
// Pipeline.WithSessionMetadata.
func buildPipeline(
	cfg *config.Config,
	source framesource.Source,
	inner classify.Classifier,
	logDir string,
	statusCadence time.Duration,
	logger *zap.Logger,
) *pipeline.Pipeline {
	return buildPipelineWithPublisher(cfg, source, inner, logDir, statusCadence, logger, nil)
}

// buildPipelineWithPublisher is buildPipeline plus an optional sessionlog
// republish target (e.g. Kafka, or a test/verify recorder); a nil
// publisher disables republishing, matching sessionlog.New's contract.
func buildPipelineWithPublisher(
	cfg *config.Config,
	source framesource.Source,
	inner classify.Classifier,
	logDir string,
	statusCadence time.Duration,
	logger *zap.Logger,
	publisher sessionlog.Publisher,
) *pipeline.Pipeline {
	const geometryStalenessMs = 2000
	runner := classify.NewRunner(inner, geometryStalenessMs)

	ledHost := cfg.ESP8266.Host
	if !cfg.ESP8266.Enabled {
		ledHost = ""
	}
	ledPublisher := led.New(ledHost, time.Duration(cfg.ESP8266.TimeoutMs)*time.Millisecond, cfg.ESP8266.BlinkHz, logger)
	g := gate.New(cfg.Session)
	interp := interpreter.New(cfg, ledPublisher, logger)
	grid := statusgrid.New(os.Stdout, statusCadence)

	if publisher == nil && cfg.Kafka.Enabled {
		kafkaPublisher, err := sessionlog.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			logger.Warn("kafka session republish disabled: dial failed", zap.Error(err))
		} else {
			publisher = kafkaPublisher
		}
	}
	sLogger := sessionlog.New(logDir, publisher, logger)

	return pipeline.New(cfg, source, runner, g, interp, grid, sLogger, logger)
}
