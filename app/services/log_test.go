package services

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"testing"

	"Cmprssr/internal/core"
)

func TestLogService(t *testing.T) {
	logger := log.New(os.Stderr, "[Test] ", log.LstdFlags)
	ls := NewLogService(context.Background(), logger)

	ls.EmitJobUpdate(core.JobUpdateEvent{
		JobID:   "compress-1",
		State:   core.JobRunning,
		Message: "Compressing...",
		Params:  map[string]string{"sourcePath": "/in/a.txt", "codec": "gzip", "destinationFolder": "/out"},
	})
	ls.EmitJobUpdate(core.JobUpdateEvent{JobID: "compress-1", State: core.JobFailed, Message: "gzip compress /in/a.txt: denied"})

	entries, err := ls.GetRecentLogs(10)
	if err != nil {
		t.Fatalf("GetRecentLogs failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Message != "Compressing... /in/a.txt (gzip) -> /out" {
		t.Errorf("unexpected running entry %q", entries[0].Message)
	}
	if entries[1].Level != "error" {
		t.Errorf("expected error level, got %s", entries[1].Level)
	}

	if last, _ := ls.GetRecentLogs(1); len(last) != 1 || last[0].Level != "error" {
		t.Errorf("unexpected tail %+v", last)
	}

	out := filepath.Join(t.TempDir(), "log.json")
	path, err := ls.ExportLogs(out)
	if err != nil || path != out {
		t.Fatalf("ExportLogs = %s, %v", path, err)
	}
	data, _ := os.ReadFile(out)
	var exported []LogEntry
	if err := json.Unmarshal(data, &exported); err != nil {
		t.Fatalf("export is not valid JSON: %v", err)
	}
	if len(exported) != 2 {
		t.Errorf("expected 2 exported entries, got %d", len(exported))
	}
}

func TestLogService_Bounded(t *testing.T) {
	ls := NewLogService(context.Background(), log.New(os.Stderr, "[Test] ", 0))
	for i := 0; i < maxLogEntries+25; i++ {
		ls.EmitJobUpdate(core.JobUpdateEvent{State: core.JobCompleted, Message: "done"})
	}
	entries, _ := ls.GetRecentLogs(-1)
	if len(entries) != maxLogEntries {
		t.Errorf("expected %d entries, got %d", maxLogEntries, len(entries))
	}
}

func TestRevealTarget(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.gz")
	os.WriteFile(file, []byte("x"), 0644)

	if got, err := revealTarget(dir); err != nil || got != dir {
		t.Errorf("revealTarget(dir) = %s, %v", got, err)
	}
	if got, err := revealTarget(file); err != nil || got != dir {
		t.Errorf("revealTarget(file) = %s, %v", got, err)
	}
	if _, err := revealTarget(filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing path")
	}
}
