// File path: internal/store/store_test.go
package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "history.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAndGetRun(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	record := RunRecord{
		ID:        "run-1",
		Status:    "running",
		Flow:      "password",
		AppLabel:  "Sales App",
		Namespace: "acme",
		StartedAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := s.SaveRun(ctx, record); err != nil {
		t.Fatalf("save run: %v", err)
	}

	record.Status = "completed"
	record.ObjectsProcessed = 12
	record.FieldsExtracted = 240
	record.MetadataPath = "input/salesforce_metadata.csv"
	record.FinishedAt.Time = time.Now().UTC().Truncate(time.Second)
	record.FinishedAt.Valid = true
	if err := s.SaveRun(ctx, record); err != nil {
		t.Fatalf("update run: %v", err)
	}

	got, err := s.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.Status != "completed" || got.ObjectsProcessed != 12 || got.FieldsExtracted != 240 {
		t.Fatalf("unexpected record: %+v", got)
	}
	if !got.FinishedAt.Valid {
		t.Fatalf("expected finished timestamp: %+v", got)
	}
	if got.AppLabel != "Sales App" || got.Namespace != "acme" {
		t.Fatalf("insert-time fields lost on update: %+v", got)
	}
}

func TestGetRunNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetRun(context.Background(), "missing"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAppendLogsKeepsSequence(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.SaveRun(ctx, RunRecord{ID: "run-2", Status: "running", Flow: "token", StartedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("save run: %v", err)
	}
	now := time.Now().UTC()
	if err := s.AppendLogs(ctx, "run-2", []string{"first", "second"}, now); err != nil {
		t.Fatalf("append logs: %v", err)
	}
	if err := s.AppendLogs(ctx, "run-2", []string{"third"}, now); err != nil {
		t.Fatalf("append more logs: %v", err)
	}
	logs, err := s.RunLogs(ctx, "run-2")
	if err != nil {
		t.Fatalf("run logs: %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("expected 3 log entries, got %d", len(logs))
	}
	for i, entry := range logs {
		if entry.Seq != i+1 {
			t.Fatalf("unexpected sequence at %d: %+v", i, entry)
		}
	}
	if logs[2].Message != "third" {
		t.Fatalf("unexpected last message %q", logs[2].Message)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)
	for i, id := range []string{"a", "b", "c"} {
		record := RunRecord{ID: id, Status: "completed", Flow: "password", StartedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := s.SaveRun(ctx, record); err != nil {
			t.Fatalf("save run %s: %v", id, err)
		}
	}
	runs, err := s.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "c" || runs[1].ID != "b" {
		t.Fatalf("unexpected order: %+v", runs)
	}
}
