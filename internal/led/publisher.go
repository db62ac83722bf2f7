// Package led implements the LED publisher: a stateful HTTP client that
// mirrors the interpreter's view of (active_step, completed_steps) to an
// ESP8266 microcontroller, grounded on the agent's heartbeat client's
// self-disabling HTTP pattern.
package led

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/deltawash/deltawash/internal/domain"
)

// LampState is the tri-state value mirrored per step on the microcontroller.
type LampState string

const (
	LampIdle      LampState = "IDLE"
	LampCurrent   LampState = "CURRENT"
	LampCompleted LampState = "COMPLETED"
)

// signalPayload is the body posted to the esp8266's /signal endpoint,
// matching spec.md §6's wire protocol exactly.
type signalPayload struct {
	Step        int       `json:"step"`
	StepID      string    `json:"step_id"`
	State       LampState `json:"state"`
	TimestampMs int64     `json:"timestamp_ms"`
	BlinkHz     float64   `json:"blink_hz"`
}

// Publisher owns its own mirror of last-published lamp state per step, a
// disabled flag, and the last transport error. It never panics or blocks
// the interpreter: every Set call is best-effort.
type Publisher struct {
	client  *http.Client
	host    string
	blinkHz float64
	logger  *zap.Logger

	sessionID string
	lamps     map[domain.StepID]LampState
	disabled  bool
	lastErr   string
}

// New builds a publisher against host (e.g. "http://192.168.1.50")
// with the given per-call timeout and blink frequency. An empty host
// disables publishing entirely (esp8266.enabled: false).
func New(host string, timeout time.Duration, blinkHz float64, logger *zap.Logger) *Publisher {
	p := &Publisher{
		client:  &http.Client{Timeout: timeout},
		host:    host,
		blinkHz: blinkHz,
		logger:  logger,
		lamps:   make(map[domain.StepID]LampState, len(domain.AllSteps)),
	}
	if host == "" {
		p.disabled = true
	}
	return p
}

// StartSession issues a reset call to the endpoint, clears per-step
// state, and re-enables publishing (restoring it after a prior
// session's transport failure).
func (p *Publisher) StartSession(sessionID string) {
	if p.host == "" {
		return
	}
	p.disabled = false
	p.lastErr = ""
	p.sessionID = sessionID
	for _, id := range domain.AllSteps {
		p.lamps[id] = LampIdle
	}
	p.reset()
}

// SetActiveStep drives stepID to CURRENT and every other non-completed
// step back to IDLE, one /signal POST per step whose lamp state
// actually changed.
func (p *Publisher) SetActiveStep(stepID *domain.StepID, ts int64) {
	for _, id := range domain.AllSteps {
		if p.lamps[id] == LampCompleted {
			continue
		}
		want := LampIdle
		if stepID != nil && *stepID == id {
			want = LampCurrent
		}
		p.publish(id, want, ts)
	}
}

// SetStepState mirrors a single step's COMPLETED transition; other state
// transitions (IN_PROGRESS, UNCERTAIN) do not change the lamp's
// CURRENT/IDLE assignment, which SetActiveStep already owns.
func (p *Publisher) SetStepState(status domain.StepStatus, ts int64) {
	if status.State != domain.Completed {
		return
	}
	p.publish(status.StepID, LampCompleted, ts)
}

// EndSession forces every lamp to IDLE and clears the session id.
func (p *Publisher) EndSession(ts int64) {
	if p.host == "" {
		return
	}
	for _, id := range domain.AllSteps {
		p.publish(id, LampIdle, ts)
	}
	p.sessionID = ""
}

// publish suppresses the call if disabled or if last_published_led_state
// for step already equals state — dedup keyed per (step, led_state)
// transition, as §8's invariant requires.
func (p *Publisher) publish(step domain.StepID, state LampState, ts int64) {
	if p.disabled || p.host == "" {
		return
	}
	if p.lamps[step] == state {
		return
	}

	body := signalPayload{
		Step:        step.Ordinal(),
		StepID:      string(step),
		State:       state,
		TimestampMs: ts,
		BlinkHz:     p.blinkHz,
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		p.disable(err)
		return
	}

	if err := p.post("/signal", encoded); err != nil {
		p.disable(err)
		return
	}
	p.lamps[step] = state
}

// reset posts the idempotent, bodyless /reset call StartSession issues.
func (p *Publisher) reset() {
	if err := p.post("/reset", nil); err != nil {
		p.disable(err)
	}
}

func (p *Publisher) post(path string, body []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.client.Timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.host+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("led %s failed: %s: %s", path, resp.Status, string(respBody))
	}
	return nil
}

func (p *Publisher) disable(err error) {
	p.disabled = true
	p.lastErr = err.Error()
	if p.logger != nil {
		p.logger.Warn("led publisher disabled after transport error", zap.Error(err))
	}
}

// Disabled reports whether the publisher is currently refusing to send.
func (p *Publisher) Disabled() bool { return p.disabled }

// LastError returns the most recent transport error string, or "".
func (p *Publisher) LastError() string { return p.lastErr }
