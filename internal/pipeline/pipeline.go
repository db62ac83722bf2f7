// Package pipeline wires the frame source, motion estimator, classifier,
// session gate, interpreter, LED publisher, status grid, and session
// logger into the single cooperative loop spec.md §5 describes: for
// each packet, motion -> classifier -> session gate -> interpreter ->
// led -> status reporter -> session logger, with no internal
// parallelism.
package pipeline

import (
	"time"

	"go.uber.org/zap"

	"github.com/deltawash/deltawash/internal/classify"
	"github.com/deltawash/deltawash/internal/config"
	"github.com/deltawash/deltawash/internal/domain"
	"github.com/deltawash/deltawash/internal/framesource"
	"github.com/deltawash/deltawash/internal/gate"
	"github.com/deltawash/deltawash/internal/interpreter"
	"github.com/deltawash/deltawash/internal/sessionlog"
	"github.com/deltawash/deltawash/internal/statusgrid"
)

// Pipeline owns the stages and the one session currently open, if any.
type Pipeline struct {
	cfg        *config.Config
	source     framesource.Source
	classifier classify.Classifier
	gate       *gate.Gate
	interp     *interpreter.Interpreter
	grid       *statusgrid.Grid
	sessionlog *sessionlog.Logger
	logger     *zap.Logger

	modelVersion string
	demoMode     bool
	demoAssetID  string

	sessionOpen bool
	lastTs      int64
}

// New assembles a pipeline from its already-constructed stages.
func New(
	cfg *config.Config,
	source framesource.Source,
	classifier classify.Classifier,
	g *gate.Gate,
	interp *interpreter.Interpreter,
	grid *statusgrid.Grid,
	logger *sessionlog.Logger,
	zlog *zap.Logger,
) *Pipeline {
	return &Pipeline{
		cfg:        cfg,
		source:     source,
		classifier: classifier,
		gate:       g,
		interp:     interp,
		grid:       grid,
		sessionlog: logger,
		logger:     zlog,
	}
}

// WithSessionMetadata stamps every SessionRecord this pipeline finalizes
// with the given model version and demo provenance.
func (p *Pipeline) WithSessionMetadata(modelVersion string, demoMode bool, demoAssetID string) {
	p.modelVersion = modelVersion
	p.demoMode = demoMode
	p.demoAssetID = demoAssetID
}

// Run drives the loop until the source is exhausted or returns an error.
// On normal exhaustion, any open session is ended with reason "reset",
// matching spec.md §5's termination semantics.
func (p *Pipeline) Run() error {
	for {
		pkt, ok, err := p.source.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		if err := p.step(pkt); err != nil {
			return err
		}
	}

	if p.sessionOpen {
		if ended := p.gate.Reset(p.lastTs); ended != nil {
			p.finishSession(*ended)
		}
	}
	return nil
}

func (p *Pipeline) step(pkt domain.FramePacket) error {
	p.lastTs = pkt.TimestampMs

	signals := p.classifier.Classify(pkt, p.cfg)

	obs := gate.Observation{
		TimestampMs:    pkt.TimestampMs,
		HandCount:      pkt.Metadata.HandCount,
		HandsInROI:     pkt.Metadata.HandsInROI,
		MeanVelocity:   pkt.Motion.MeanVelocity,
		RelativeMotion: pkt.Motion.RelativeMotion,
	}
	started, ended := p.gate.Step(obs)

	if started != nil {
		p.interp.Start(*started, interpreter.StartOpts{
			ConfigVersion: p.cfg.ConfigVersion,
			ModelVersion:  p.modelVersion,
			ROI:           pkt.ROI,
			DemoMode:      p.demoMode,
			DemoAssetID:   p.demoAssetID,
		})
		p.sessionOpen = true
	}

	if p.sessionOpen {
		p.interp.Frame(signals, pkt.TimestampMs)
		p.grid.Observe(p.interp.Snapshot(), nil)
		p.grid.Render(time.UnixMilli(pkt.TimestampMs))
	}

	if ended != nil {
		p.finishSession(*ended)
	}

	return nil
}

func (p *Pipeline) finishSession(ended domain.SessionEnded) {
	record := p.interp.End(ended)
	p.sessionOpen = false

	if err := p.sessionlog.Append(record); err != nil && p.logger != nil {
		p.logger.Error("session log append failed", zap.String("session_id", record.SessionID), zap.Error(err))
	}
}
