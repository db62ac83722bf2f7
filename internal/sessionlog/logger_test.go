package sessionlog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/deltawash/deltawash/internal/domain"
)

func TestAppendWritesOneJSONLineForStartDate(t *testing.T) {
	dir := t.TempDir()
	l := New(dir, nil, nil)

	startTs := time.Date(2026, 7, 15, 10, 0, 0, 0, time.UTC).UnixMilli()
	record := domain.SessionRecord{SessionID: "sess-1", StartTs: startTs}

	if err := l.Append(record); err != nil {
		t.Fatalf("Append: %v", err)
	}

	path := filepath.Join(dir, "2026-07-15.jsonl")
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("expected file %s to exist: %v", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var lines int
	for scanner.Scan() {
		var got domain.SessionRecord
		if err := json.Unmarshal(scanner.Bytes(), &got); err != nil {
			t.Fatalf("unmarshal line: %v", err)
		}
		if got.SessionID != "sess-1" {
			t.Fatalf("expected session_id sess-1, got %s", got.SessionID)
		}
		lines++
	}
	if lines != 1 {
		t.Fatalf("expected exactly 1 line, got %d", lines)
	}
}

func TestAppendKeysByStartDateAcrossMidnight(t *testing.T) {
	dir := t.TempDir()
	l := New(dir, nil, nil)

	startTs := time.Date(2026, 7, 15, 23, 58, 0, 0, time.UTC).UnixMilli()
	endTs := time.Date(2026, 7, 16, 0, 2, 0, 0, time.UTC).UnixMilli()
	record := domain.SessionRecord{SessionID: "sess-midnight", StartTs: startTs, EndTs: endTs}

	if err := l.Append(record); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "2026-07-15.jsonl")); err != nil {
		t.Fatalf("expected the session keyed by its start-UTC date, got: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "2026-07-16.jsonl")); !os.IsNotExist(err) {
		t.Fatalf("expected no file under the end-UTC date, got err=%v", err)
	}
}

type fakePublisher struct {
	published []domain.SessionRecord
	fail      bool
}

func (f *fakePublisher) Publish(record domain.SessionRecord) error {
	if f.fail {
		return errFakePublish
	}
	f.published = append(f.published, record)
	return nil
}

var errFakePublish = &publishError{"boom"}

type publishError struct{ msg string }

func (e *publishError) Error() string { return e.msg }

func TestAppendForwardsToPublisher(t *testing.T) {
	dir := t.TempDir()
	pub := &fakePublisher{}
	l := New(dir, pub, nil)

	record := domain.SessionRecord{SessionID: "sess-2", EndTs: time.Now().UnixMilli()}
	if err := l.Append(record); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if len(pub.published) != 1 || pub.published[0].SessionID != "sess-2" {
		t.Fatalf("expected record forwarded to publisher, got %+v", pub.published)
	}
}

func TestAppendSwallowsPublisherFailure(t *testing.T) {
	dir := t.TempDir()
	pub := &fakePublisher{fail: true}
	l := New(dir, pub, nil)

	record := domain.SessionRecord{SessionID: "sess-3", EndTs: time.Now().UnixMilli()}
	if err := l.Append(record); err != nil {
		t.Fatalf("expected Append to swallow publisher failure, got %v", err)
	}
}
