package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestLogger(t *testing.T, maxFileSize int64) (*RotatingLogger, string) {
	t.Helper()

	dir := t.TempDir()
	rl := NewRotatingLoggerWithSizeLimit(dir, 2, maxFileSize)
	t.Cleanup(func() {
		// The cleanup goroutine only runs under SetupLoggerWithRetention;
		// close the done channel so Close does not block on it.
		close(rl.cleanupDone)
		_ = rl.Close()
	})
	return rl, dir
}

func TestWriteCreatesWeeklyFile(t *testing.T) {
	rl, dir := newTestLogger(t, 100*1024*1024)

	if _, err := rl.Write([]byte("first line\n")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	want := fmt.Sprintf("labelcheck-%s.log", getWeekKey(time.Now()))
	if _, err := os.Stat(filepath.Join(dir, want)); err != nil {
		t.Errorf("expected log file %s: %v", want, err)
	}
}

func TestWriteAppends(t *testing.T) {
	rl, dir := newTestLogger(t, 100*1024*1024)

	lines := []string{"line one\n", "line two\n", "line three\n"}
	for _, line := range lines {
		if _, err := rl.Write([]byte(line)); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}

	path := filepath.Join(dir, fmt.Sprintf("labelcheck-%s.log", getWeekKey(time.Now())))
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	for _, line := range lines {
		if !strings.Contains(string(content), strings.TrimSpace(line)) {
			t.Errorf("log file missing %q", line)
		}
	}
}

func TestSizeRotation(t *testing.T) {
	// Tiny limit so a couple of writes force a numbered rollover.
	rl, dir := newTestLogger(t, 64)

	payload := []byte(strings.Repeat("x", 40) + "\n")
	for i := 0; i < 4; i++ {
		if _, err := rl.Write(payload); err != nil {
			t.Fatalf("write %d failed: %v", i, err)
		}
	}

	week := getWeekKey(time.Now())
	matches, err := filepath.Glob(filepath.Join(dir, fmt.Sprintf("labelcheck-%s_??.log", week)))
	if err != nil {
		t.Fatalf("glob failed: %v", err)
	}
	if len(matches) == 0 {
		t.Error("expected at least one size-rotated numbered log file")
	}
}

func TestParseNumberedFile(t *testing.T) {
	rl, dir := newTestLogger(t, 100*1024*1024)

	name := fmt.Sprintf("labelcheck-%s_03.log", getWeekKey(time.Now()))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("payload"), 0644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	num, size := rl.parseNumberedFile(path)
	if num != 3 {
		t.Errorf("sequence number = %d, want 3", num)
	}
	if size != int64(len("payload")) {
		t.Errorf("size = %d, want %d", size, len("payload"))
	}

	if num, _ := rl.parseNumberedFile(filepath.Join(dir, "unrelated.log")); num != 0 {
		t.Errorf("unrelated file must parse to 0, got %d", num)
	}
}

func TestCleanupOldLogs(t *testing.T) {
	rl, dir := newTestLogger(t, 100*1024*1024)

	oldFile := filepath.Join(dir, "labelcheck-2020-W01.log")
	if err := os.WriteFile(oldFile, []byte("ancient"), 0644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	ancient := time.Now().Add(-rl.retention - time.Hour)
	if err := os.Chtimes(oldFile, ancient, ancient); err != nil {
		t.Fatalf("chtimes failed: %v", err)
	}

	recentFile := filepath.Join(dir, fmt.Sprintf("labelcheck-%s.log", getWeekKey(time.Now())))
	if err := os.WriteFile(recentFile, []byte("fresh"), 0644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	if err := rl.cleanupOldLogs(); err != nil {
		t.Fatalf("cleanup failed: %v", err)
	}

	if _, err := os.Stat(oldFile); !os.IsNotExist(err) {
		t.Error("expired log file should have been removed")
	}
	if _, err := os.Stat(recentFile); err != nil {
		t.Error("recent log file must survive cleanup")
	}
}

func TestGetWeekKey(t *testing.T) {
	// ISO week 1 of 2026 starts on Dec 29, 2025.
	key := getWeekKey(time.Date(2025, 12, 29, 12, 0, 0, 0, time.UTC))
	if key != "2026-W01" {
		t.Errorf("week key = %q, want 2026-W01", key)
	}

	key = getWeekKey(time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC))
	if key != "2026-W36" {
		t.Errorf("week key = %q, want 2026-W36", key)
	}
}

func TestSetupLoggerWithUnwritableDir(t *testing.T) {
	// A path under a file cannot be created; setup must fall back to console.
	blocker := filepath.Join(t.TempDir(), "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	logger := SetupLogger(filepath.Join(blocker, "logs"))
	if logger == nil {
		t.Fatal("setup must always return a usable logger")
	}
	logger.Info("still works")
}
