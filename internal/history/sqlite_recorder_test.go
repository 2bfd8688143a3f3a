package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func TestSQLiteRecorder_FileDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "audit.db")
	rec, err := NewSQLite(dbPath)
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	defer func() {
		if err := rec.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	}()

	ctx := context.Background()
	events := []Event{
		{Type: EventDaemonized, Name: "worker", PID: 100, OccurredAt: time.Now().Add(-2 * time.Minute)},
		{Type: EventKilled, Name: "worker", PID: 100, Detail: "signal 9", OccurredAt: time.Now().Add(-time.Minute)},
		{Type: EventDaemonized, Name: "other", SubPath: "grp", PID: 200, OccurredAt: time.Now()},
	}
	for _, e := range events {
		if err := rec.Record(ctx, e); err != nil {
			t.Fatalf("record %v: %v", e.Type, err)
		}
	}

	got, err := rec.Recent(ctx, "worker", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("recent(worker) = %d events, want 2", len(got))
	}
	// Newest first.
	if got[0].Type != EventKilled || got[0].Detail != "signal 9" {
		t.Fatalf("unexpected newest event: %+v", got[0])
	}
	if got[1].Type != EventDaemonized || got[1].PID != 100 {
		t.Fatalf("unexpected oldest event: %+v", got[1])
	}

	all, err := rec.Recent(ctx, "", 10)
	if err != nil {
		t.Fatalf("recent all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("recent(all) = %d events, want 3", len(all))
	}
	if all[0].Name != "other" || all[0].SubPath != "grp" {
		t.Fatalf("unexpected newest overall: %+v", all[0])
	}
}

func TestSQLiteRecorder_InMemory(t *testing.T) {
	rec, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	defer func() { _ = rec.Close() }()

	ctx := context.Background()
	if err := rec.Record(ctx, Event{Type: EventTerminated, Name: "mem", PID: 1}); err != nil {
		t.Fatalf("record: %v", err)
	}
	got, err := rec.Recent(ctx, "mem", 1)
	if err != nil || len(got) != 1 {
		t.Fatalf("recent: %v (%d events)", err, len(got))
	}
	if got[0].OccurredAt.IsZero() {
		t.Fatalf("zero OccurredAt should be filled at record time")
	}
}

func TestSQLiteRecorder_DSNPrefix(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "p.db")
	rec, err := NewSQLite("sqlite://" + dbPath)
	if err != nil {
		t.Fatalf("NewSQLite with prefix: %v", err)
	}
	_ = rec.Close()

	if _, err := NewSQLite("   "); err == nil {
		t.Fatalf("blank DSN accepted")
	}
}

func TestSQLiteRecorder_RecentLimit(t *testing.T) {
	rec, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	defer func() { _ = rec.Close() }()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		e := Event{Type: EventKilled, Name: "n", PID: i, OccurredAt: time.Now().Add(time.Duration(i) * time.Second)}
		if err := rec.Record(ctx, e); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
	}
	got, err := rec.Recent(ctx, "n", 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("limit not applied, got %d", len(got))
	}
	if got[0].PID != 4 {
		t.Fatalf("newest first expected, got pid %d", got[0].PID)
	}
}
