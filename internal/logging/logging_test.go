package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/microsoft/soundscape-core/internal/config"
)

func TestNewWritesConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "soundscape.log")

	l, err := New(config.LoggingConfig{Level: "debug", File: path, MaxSizeMB: 1}, &console)
	if err != nil {
		t.Fatalf("expected logger, got %v", err)
	}
	l.Debug("waypoint reached", "index", 2)
	if err := l.Close(); err != nil {
		t.Fatalf("expected close to succeed, got %v", err)
	}

	lines := strings.Split(strings.TrimSpace(console.String()), "\n")
	var record map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &record); err != nil {
		t.Fatalf("expected JSON record, got %q", lines[len(lines)-1])
	}
	if record["msg"] != "waypoint reached" || record["index"] != float64(2) {
		t.Fatalf("expected waypoint record, got %v", record)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected log file, got %v", err)
	}
	if !strings.Contains(string(data), "waypoint reached") {
		t.Fatalf("expected log file to contain the record, got %q", data)
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	var console bytes.Buffer
	l, err := New(config.LoggingConfig{Level: "warn"}, &console)
	if err != nil {
		t.Fatalf("expected logger, got %v", err)
	}

	l.Info("hidden")
	if strings.Contains(console.String(), "hidden") {
		t.Fatalf("expected info record to be dropped at warn level")
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(config.LoggingConfig{Level: "loud"}, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
