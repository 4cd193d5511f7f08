package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLogger_WritesJSONFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	log, err := NewLogger(Options{Dir: dir, Level: "debug"})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	log.Debug("test_message_from_logging_test")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(dir, "pingboard.log"))
	if err != nil {
		t.Fatalf("log file missing: %v", err)
	}
	if !strings.Contains(string(content), `"msg":"test_message_from_logging_test"`) {
		t.Fatalf("unexpected log content: %s", content)
	}
	if !strings.Contains(string(content), `"ts":`) {
		t.Fatalf("time key missing: %s", content)
	}
}

func TestNewLogger_LevelFilters(t *testing.T) {
	dir := t.TempDir()
	log, err := NewLogger(Options{Dir: dir, Level: "warn"})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	log.Info("dropped")
	log.Warn("kept")
	_ = log.Sync()

	content, _ := os.ReadFile(filepath.Join(dir, "pingboard.log"))
	if strings.Contains(string(content), "dropped") || !strings.Contains(string(content), "kept") {
		t.Fatalf("level not applied: %s", content)
	}
}

func TestNewLogger_BadLevel(t *testing.T) {
	if _, err := NewLogger(Options{Dir: t.TempDir(), Level: "loud"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
