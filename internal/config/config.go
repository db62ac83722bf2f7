// Package config loads and validates the declarative run-time configuration
// that freezes every tunable of the wash interpreter pipeline: ROI,
// resolution, session-gate thresholds, per-step durations/confidence
// floors, the LED endpoint, and the collaborator retention policies.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/deltawash/deltawash/internal/domain"
)

// Config is the frozen, immutable configuration tree. Every field is
// populated by Load and never mutated afterward; components hold it by
// value or by read-only pointer.
type Config struct {
	ConfigVersion string          `mapstructure:"config_version"`
	Resolution    Resolution      `mapstructure:"resolution"`
	ROI           domain.Rect     `mapstructure:"roi"`
	Session       SessionConfig   `mapstructure:"session"`
	Steps         map[string]Step `mapstructure:"steps"`
	ESP8266       LEDConfig       `mapstructure:"esp8266"`
	VideoCapture  RetentionConfig `mapstructure:"video_capture"`
	DemoRecording DemoRecording   `mapstructure:"demo_recording"`
	HandTracking  HandTracking    `mapstructure:"hand_tracking"`
	Kafka         KafkaConfig     `mapstructure:"kafka"`
}

// KafkaConfig backs the optional session-record republish stream
// internal/sessionlog.KafkaPublisher implements; absent or disabled, the
// JSONL append remains the only durable write.
type KafkaConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

// Resolution is the camera's configured capture size in pixels.
type Resolution struct {
	Width  int `mapstructure:"width"`
	Height int `mapstructure:"height"`
}

// SessionConfig parameterizes the session gate's Idle/Active state machine.
type SessionConfig struct {
	MotionThreshold         float64 `mapstructure:"motion_threshold"`
	RelativeMotionThreshold float64 `mapstructure:"relative_motion_threshold"`
	StartWindowFrames       int     `mapstructure:"start_window_frames"`
	StopTimeoutMs           int64   `mapstructure:"stop_timeout_ms"`
	MinHands                int     `mapstructure:"min_hands"`
	RequireMotion           bool    `mapstructure:"require_motion"`
}

// Step is one of the six steps.STEP_{2..7} blocks.
type Step struct {
	DurationMs     int64                   `mapstructure:"duration_ms"`
	ConfidenceMin  float64                 `mapstructure:"confidence_min"`
	OrientationHint domain.StepOrientation `mapstructure:"orientation_hint"`
}

// LEDConfig is the esp8266 block: the LED strip's HTTP endpoint.
type LEDConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Host      string `mapstructure:"host"`
	TimeoutMs int64  `mapstructure:"timeout_ms"`
	BlinkHz   float64 `mapstructure:"blink_hz"`
}

// RetentionConfig backs video_capture: a collaborator resource policy with
// two mutually exclusive retention modes.
type RetentionConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	StoragePath      string `mapstructure:"storage_path"`
	RetentionSeconds int64  `mapstructure:"retention_seconds"`
	MaxSessions      int    `mapstructure:"max_sessions"`
}

// DemoRecording backs demo_recording.
type DemoRecording struct {
	Enabled    bool   `mapstructure:"enabled"`
	OutputPath string `mapstructure:"output_path"`
}

// HandTracking holds the hand-detector tunables. Load decodes them
// without validating them beyond type; no pipeline stage reads them.
type HandTracking struct {
	MinDetectionConfidence float64 `mapstructure:"min_detection_confidence"`
	MinTrackingConfidence  float64 `mapstructure:"min_tracking_confidence"`
	MaxHands               int     `mapstructure:"max_hands"`
}

// requiredSteps is the closed set of steps.STEP_* keys the config file
// must define; see domain.AllSteps for the matching StepID enum.
var requiredSteps = [...]string{"STEP_2", "STEP_3", "STEP_4", "STEP_5", "STEP_6", "STEP_7"}

// Load reads path (YAML or JSON, detected by extension) and returns a
// validated Config. The loader is pure: identical bytes always produce an
// identical Config, and any structural or range problem is reported as a
// *ConfigError rather than a bare error, so callers can map it to exit
// code 2 without string matching.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, &ConfigError{Key: "", Reason: fmt.Sprintf("reading config file: %v", err)}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigError{Key: "", Reason: fmt.Sprintf("decoding config: %v", err)}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// validate enforces every invariant spec.md §4.A names. It returns the
// first violation found; order is deterministic (top-level keys, then
// steps, then ROI-vs-resolution, then LED, then retention, then kafka) so repeated
// runs against the same broken file always fail identically.
func (c Config) validate() error {
	if c.ConfigVersion == "" {
		return &ConfigError{Key: "config_version", Reason: "missing required key"}
	}
	if c.Resolution.Width <= 0 || c.Resolution.Height <= 0 {
		return &ConfigError{Key: "resolution", Reason: "width and height must be positive"}
	}

	if c.Session.StartWindowFrames <= 0 {
		return &ConfigError{Key: "session.start_window_frames", Reason: "must be positive"}
	}
	if c.Session.StopTimeoutMs <= 0 {
		return &ConfigError{Key: "session.stop_timeout_ms", Reason: "must be positive"}
	}
	if c.Session.MotionThreshold < 0 || c.Session.MotionThreshold > 1 {
		return &ConfigError{Key: "session.motion_threshold", Reason: "must be in [0,1]"}
	}
	if c.Session.RelativeMotionThreshold < 0 || c.Session.RelativeMotionThreshold > 1 {
		return &ConfigError{Key: "session.relative_motion_threshold", Reason: "must be in [0,1]"}
	}
	if c.Session.MinHands < 0 {
		return &ConfigError{Key: "session.min_hands", Reason: "must be non-negative"}
	}

	for _, key := range requiredSteps {
		step, ok := c.Steps[key]
		if !ok {
			return &ConfigError{Key: "steps." + key, Reason: "missing required step entry"}
		}
		if step.DurationMs <= 0 {
			return &ConfigError{Key: "steps." + key + ".duration_ms", Reason: "must be positive"}
		}
		if step.ConfidenceMin < 0 || step.ConfidenceMin > 1 {
			return &ConfigError{Key: "steps." + key + ".confidence_min", Reason: "must be in [0,1]"}
		}
	}

	if c.ROI.X < 0 || c.ROI.Y < 0 || c.ROI.Width <= 0 || c.ROI.Height <= 0 {
		return &ConfigError{Key: "roi", Reason: "must have positive width/height and non-negative origin"}
	}
	if c.ROI.X+c.ROI.Width > c.Resolution.Width || c.ROI.Y+c.ROI.Height > c.Resolution.Height {
		return &ConfigError{Key: "roi", Reason: "exceeds configured resolution"}
	}

	if c.ESP8266.Enabled && c.ESP8266.Host == "" {
		return &ConfigError{Key: "esp8266.host", Reason: "required when esp8266.enabled is true"}
	}
	if c.ESP8266.Enabled && c.ESP8266.TimeoutMs <= 0 {
		return &ConfigError{Key: "esp8266.timeout_ms", Reason: "must be positive when esp8266.enabled is true"}
	}

	if c.VideoCapture.Enabled && c.VideoCapture.RetentionSeconds > 0 && c.VideoCapture.MaxSessions > 0 {
		return &ConfigError{Key: "video_capture", Reason: "retention_seconds and max_sessions are mutually exclusive"}
	}

	if c.Kafka.Enabled && (len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "") {
		return &ConfigError{Key: "kafka", Reason: "brokers and topic are required when kafka.enabled is true"}
	}

	return nil
}

// StepConfig returns the configured block for one step, looked up by
// domain.StepID rather than the raw string key validate works against.
func (c Config) StepConfig(id domain.StepID) Step {
	return c.Steps[string(id)]
}
