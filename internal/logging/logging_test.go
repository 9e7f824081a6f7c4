package logging

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"info", LevelInfo},
		{"warn", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"ERROR", LevelError},
		{" info ", LevelInfo},
		{"verbose", LevelInfo},
		{"", LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatLine(t *testing.T) {
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	got := formatLine(ts, LevelWarn, "executor", "commit failed",
		errors.New("disk full"), []Field{F("path", "/tv/a.mkv"), F("count", 2)})

	want := "2026-03-14T09:26:53Z [WARN] [executor] commit failed | error=disk full | path=/tv/a.mkv | count=2\n"
	if got != want {
		t.Errorf("formatLine = %q, want %q", got, want)
	}
}

func TestLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	l := &Logger{level: LevelWarn, console: buf}
	c := l.Component("test")

	c.Debug("dropped")
	c.Info("dropped too")
	c.Warn("kept")
	c.Error("kept", errors.New("boom"))

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("lines below level leaked: %q", out)
	}
	if strings.Count(out, "kept") != 2 {
		t.Errorf("expected 2 kept lines, got: %q", out)
	}
}

func TestNopDiscardsEverything(t *testing.T) {
	l := Nop()
	c := l.Component("test")
	c.Error("nowhere", errors.New("x"))
	if l.FilePath() != "" {
		t.Errorf("Nop has a file path: %q", l.FilePath())
	}
	if err := l.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestRotationShiftsBackups(t *testing.T) {
	dir := t.TempDir()
	live := filepath.Join(dir, "jellyrename.log")

	if err := os.WriteFile(live, []byte("current"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(backupPath(live, 1), []byte("older"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(backupPath(live, 2), []byte("oldest"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := rotateFiles(live, 2); err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(live); !os.IsNotExist(err) {
		t.Error("live log should have moved to slot 1")
	}
	got, err := os.ReadFile(backupPath(live, 1))
	if err != nil || string(got) != "current" {
		t.Errorf("slot 1 = %q, %v; want current", got, err)
	}
	got, err = os.ReadFile(backupPath(live, 2))
	if err != nil || string(got) != "older" {
		t.Errorf("slot 2 = %q, %v; want older", got, err)
	}
	if _, err := os.Stat(backupPath(live, 3)); !os.IsNotExist(err) {
		t.Error("backups past the keep window must be dropped, not shifted")
	}
}

func TestLoggerRotatesWhenFileGrows(t *testing.T) {
	dir := t.TempDir()
	live := filepath.Join(dir, "jellyrename.log")

	l, err := New(Config{Level: "info", File: live, MaxSizeMB: 10, MaxBackups: 3})
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	l.console = nil
	l.maxSize = 64

	c := l.Component("test")
	for i := 0; i < 10; i++ {
		c.Info("a line long enough to pass the rotation threshold quickly")
	}

	if _, err := os.Stat(backupPath(live, 1)); err != nil {
		t.Errorf("expected a rotated backup: %v", err)
	}
	if _, err := os.Stat(live); err != nil {
		t.Errorf("live log should have been reopened: %v", err)
	}
}
