package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "soundscape.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("expected to write config file, got %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("expected defaults to load, got %v", err)
	}

	if cfg.Guidance.ArrivalDistance != 12 {
		t.Fatalf("expected arrival distance 12, got %v", cfg.Guidance.ArrivalDistance)
	}
	if cfg.Guidance.AmbientBlockDistance != 40 {
		t.Fatalf("expected ambient block distance 40, got %v", cfg.Guidance.AmbientBlockDistance)
	}
	if cfg.Audio.Backend != "console" {
		t.Fatalf("expected console backend, got %q", cfg.Audio.Backend)
	}
}

func TestLoadFileAndEnvironment(t *testing.T) {
	path := writeFile(t, `
logging:
  level: debug
guidance:
  arrival_distance: 20
  filter:
    min_time: 2s
spatial:
  fixture: seattle.msgpack
  include_unnamed_roads: true
`)
	t.Setenv("SOUNDSCAPE_GUIDANCE__DEPARTURE_DISTANCE", "15")
	t.Setenv("SOUNDSCAPE_MONITOR__ADDRESS", "localhost:8089")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("expected config to load, got %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Fatalf("expected debug level, got %q", cfg.Logging.Level)
	}
	if cfg.Guidance.ArrivalDistance != 20 {
		t.Fatalf("expected arrival distance from file, got %v", cfg.Guidance.ArrivalDistance)
	}
	if cfg.Guidance.DepartureDistance != 15 {
		t.Fatalf("expected departure distance from environment, got %v", cfg.Guidance.DepartureDistance)
	}
	if cfg.Guidance.Filter.MinTime != 2*time.Second {
		t.Fatalf("expected filter min time 2s, got %v", cfg.Guidance.Filter.MinTime)
	}
	if cfg.Guidance.Filter.UpdateRangeUpper != 50 {
		t.Fatalf("expected untouched defaults to survive, got %v", cfg.Guidance.Filter.UpdateRangeUpper)
	}
	if !cfg.Spatial.IncludeUnnamedRoads || cfg.Spatial.Fixture != "seattle.msgpack" {
		t.Fatalf("expected spatial settings from file, got %+v", cfg.Spatial)
	}
	if cfg.Monitor.Address != "localhost:8089" {
		t.Fatalf("expected monitor address from environment, got %q", cfg.Monitor.Address)
	}
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	cases := map[string]string{
		"backend":  "audio:\n  backend: radio\n",
		"level":    "logging:\n  level: loud\n",
		"distance": "guidance:\n  arrival_distance: 0\n",
		"range":    "guidance:\n  filter:\n    beacon_range_lower: 600\n",
	}

	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeFile(t, content))
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestOptionsCoverSettings(t *testing.T) {
	cfg := DefaultConfig()

	if got := len(cfg.Guidance.Options(nil)); got != 7 {
		t.Fatalf("expected 7 guidance options, got %d", got)
	}
	if got := len(cfg.Ambient.AutoOptions(nil)); got != 4 {
		t.Fatalf("expected 4 ambient options, got %d", got)
	}
	if got := len(cfg.Spatial.StoreOptions()); got != 2 {
		t.Fatalf("expected 2 store options, got %d", got)
	}
}

func TestSchema(t *testing.T) {
	data, err := SchemaJSON()
	if err != nil {
		t.Fatalf("expected schema, got %v", err)
	}

	for _, key := range []string{`"guidance"`, `"arrival_distance"`, `"include_unnamed_roads"`, `"console"`} {
		if !strings.Contains(string(data), key) {
			t.Fatalf("expected schema to mention %s", key)
		}
	}
}
