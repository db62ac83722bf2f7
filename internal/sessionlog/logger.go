// Package sessionlog appends one finalized SessionRecord per line to a
// daily JSONL file, and optionally republishes the same record to a
// Kafka topic for downstream consumers that want a stream instead of a
// file tail.
package sessionlog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/deltawash/deltawash/internal/domain"
)

// Publisher optionally republishes a finalized SessionRecord; the Kafka
// publisher in kafka.go implements this, and a nil Publisher is valid
// (Kafka is disabled by default).
type Publisher interface {
	Publish(record domain.SessionRecord) error
}

// Logger owns the directory new daily files are written under. It is not
// safe for concurrent use, matching the single-threaded pipeline.
type Logger struct {
	dir       string
	logger    *zap.Logger
	publisher Publisher
}

// New returns a Logger writing one file per UTC date under dir, named
// YYYY-MM-DD.jsonl. publisher may be nil.
func New(dir string, publisher Publisher, logger *zap.Logger) *Logger {
	return &Logger{dir: dir, publisher: publisher, logger: logger}
}

// Append serializes record as one JSON line and appends it to the file
// for record's start-UTC date. It also forwards the record to the
// optional Kafka publisher; a publish failure is logged and swallowed —
// the JSONL append is the durable write of record, and the core has no
// external calls on its hot path that can fail the session.
func (l *Logger) Append(record domain.SessionRecord) error {
	path, err := l.pathFor(record.StartTs)
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("sessionlog: marshal record: %w", err)
	}
	encoded = append(encoded, '\n')

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("sessionlog: open %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(encoded); err != nil {
		return fmt.Errorf("sessionlog: write %s: %w", path, err)
	}

	if l.publisher != nil {
		if err := l.publisher.Publish(record); err != nil && l.logger != nil {
			l.logger.Warn("session record publish failed", zap.String("session_id", record.SessionID), zap.Error(err))
		}
	}

	return nil
}

func (l *Logger) pathFor(startTsMs int64) (string, error) {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return "", fmt.Errorf("sessionlog: mkdir %s: %w", l.dir, err)
	}
	date := time.UnixMilli(startTsMs).UTC().Format("2006-01-02")
	return filepath.Join(l.dir, fmt.Sprintf("%s.jsonl", date)), nil
}
