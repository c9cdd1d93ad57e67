// Package config holds the settings shared by the soundscape binaries.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/microsoft/soundscape-core/core/ambient"
	"github.com/microsoft/soundscape-core/core/beacon"
	"github.com/microsoft/soundscape-core/core/filters"
	"github.com/microsoft/soundscape-core/core/guidance"
	"github.com/microsoft/soundscape-core/core/roads"
	"github.com/microsoft/soundscape-core/core/spatial"
)

// Config is the complete configuration tree. Every field has a default, see
// DefaultConfig.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging"`
	Spatial  SpatialConfig  `yaml:"spatial"`
	Ambient  AmbientConfig  `yaml:"ambient"`
	Guidance GuidanceConfig `yaml:"guidance"`
	Beacon   BeaconConfig   `yaml:"beacon"`
	Roads    RoadsConfig    `yaml:"roads"`
	Audio    AudioConfig    `yaml:"audio"`
	Monitor  MonitorConfig  `yaml:"monitor"`
}

type LoggingConfig struct {
	Level      string `yaml:"level" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

type SpatialConfig struct {
	// Fixture is a .json, .msgpack or .zst road and marker data set.
	Fixture             string        `yaml:"fixture"`
	IncludeUnnamedRoads bool          `yaml:"include_unnamed_roads"`
	CacheSize           int           `yaml:"cache_size"`
	CacheTTL            time.Duration `yaml:"cache_ttl"`
}

type AmbientConfig struct {
	SearchDistance    float64       `yaml:"search_distance"`
	IntersectionRange float64       `yaml:"intersection_range"`
	MinTime           time.Duration `yaml:"min_time"`
	MinDistance       float64       `yaml:"min_distance"`
	HistoryWindow     time.Duration `yaml:"history_window"`
	HistoryRadius     float64       `yaml:"history_radius"`
}

type GuidanceConfig struct {
	ArrivalDistance      float64 `yaml:"arrival_distance"`
	DepartureDistance    float64 `yaml:"departure_distance"`
	AmbientBlockDistance float64 `yaml:"ambient_block_distance"`
	Resume               bool    `yaml:"resume"`
	BeaconAudio          bool    `yaml:"beacon_audio"`
	// StateDir is where tour progress is saved. Progress is not saved when
	// it is empty.
	StateDir string             `yaml:"state_dir"`
	Filter   BeaconFilterConfig `yaml:"filter"`
}

// BeaconFilterConfig throttles distance callouts to the current waypoint.
type BeaconFilterConfig struct {
	MinTime          time.Duration `yaml:"min_time"`
	UpdateRangeLower float64       `yaml:"update_range_lower"`
	UpdateRangeUpper float64       `yaml:"update_range_upper"`
	BeaconRangeLower float64       `yaml:"beacon_range_lower"`
	BeaconRangeUpper float64       `yaml:"beacon_range_upper"`
}

type BeaconConfig struct {
	EndMelody time.Duration `yaml:"end_melody"`
}

type RoadsConfig struct {
	PreferMainIntersections bool    `yaml:"prefer_main_intersections"`
	MaxSegments             int     `yaml:"max_segments"`
	PreviewSearchDistance   float64 `yaml:"preview_search_distance"`
}

type AudioConfig struct {
	// Backend is "console" to print callouts, or "miniaudio" or "portaudio" to
	// synthesize them and play them on that device.
	Backend        string        `yaml:"backend" jsonschema:"enum=console,enum=miniaudio,enum=portaudio"`
	WordsPerSecond float64       `yaml:"words_per_second"`
	EarconDuration time.Duration `yaml:"earcon_duration"`
	Voice          string        `yaml:"voice"`
	APIKey         string        `yaml:"api_key"`
}

type MonitorConfig struct {
	// Address serves the callout monitor websocket. Empty disables it.
	Address string `yaml:"address"`
}

func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  32,
			MaxBackups: 1,
		},
		Spatial: SpatialConfig{
			CacheSize: spatial.DefaultCacheSize,
			CacheTTL:  spatial.DefaultCacheTTL,
		},
		Ambient: AmbientConfig{
			SearchDistance:    ambient.DefaultSearchDistance,
			IntersectionRange: ambient.DefaultIntersectionRange,
			MinTime:           filters.DefaultGeneratorMinTime,
			MinDistance:       filters.DefaultGeneratorMinDistance,
			HistoryWindow:     roads.DefaultHistoryWindow,
			HistoryRadius:     roads.DefaultHistoryRadius,
		},
		Guidance: GuidanceConfig{
			ArrivalDistance:      guidance.DefaultArrivalDistance,
			DepartureDistance:    guidance.DefaultDepartureDistance,
			AmbientBlockDistance: guidance.DefaultAmbientBlockDistance,
			Resume:               true,
			BeaconAudio:          true,
			Filter: BeaconFilterConfig{
				MinTime:          filters.DefaultBeaconMinTime,
				UpdateRangeLower: filters.DefaultBeaconUpdateRange.Lower,
				UpdateRangeUpper: filters.DefaultBeaconUpdateRange.Upper,
				BeaconRangeLower: filters.DefaultBeaconRange.Lower,
				BeaconRangeUpper: filters.DefaultBeaconRange.Upper,
			},
		},
		Beacon: BeaconConfig{
			EndMelody: beacon.DefaultEndMelodyDuration,
		},
		Roads: RoadsConfig{
			PreferMainIntersections: true,
			MaxSegments:             roads.DefaultMaxSegments,
			PreviewSearchDistance:   500,
		},
		Audio: AudioConfig{
			Backend:        "console",
			WordsPerSecond: 3,
			EarconDuration: 400 * time.Millisecond,
		},
	}
}

// Validate reports the first setting that the navigation core cannot work
// with.
func (c *Config) Validate() error {
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	switch c.Audio.Backend {
	case "console", "miniaudio", "portaudio":
	default:
		return fmt.Errorf("audio.backend %q: %w", c.Audio.Backend, ErrInvalid)
	}
	if c.Guidance.ArrivalDistance <= 0 {
		return fmt.Errorf("guidance.arrival_distance must be positive: %w", ErrInvalid)
	}
	if c.Guidance.DepartureDistance <= 0 {
		return fmt.Errorf("guidance.departure_distance must be positive: %w", ErrInvalid)
	}
	f := c.Guidance.Filter
	if f.UpdateRangeLower > f.UpdateRangeUpper || f.BeaconRangeLower > f.BeaconRangeUpper {
		return fmt.Errorf("guidance.filter ranges must be ordered: %w", ErrInvalid)
	}
	if c.Spatial.CacheSize <= 0 {
		return fmt.Errorf("spatial.cache_size must be positive: %w", ErrInvalid)
	}
	return nil
}

func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("logging.level %q: %w", level, ErrInvalid)
}

func (c SpatialConfig) StoreOptions() []spatial.StoreOption {
	return []spatial.StoreOption{
		spatial.WithCache(c.CacheSize, c.CacheTTL),
		spatial.WithUnnamedRoads(c.IncludeUnnamedRoads),
	}
}

func (c RoadsConfig) FinderOptions() []roads.FinderOption {
	return []roads.FinderOption{
		roads.WithMainIntersections(c.PreferMainIntersections),
		roads.WithMaxSegments(c.MaxSegments),
	}
}

// AutoOptions configures the ambient generator. now is the clock its
// filter and marker history run on.
func (c AmbientConfig) AutoOptions(now func() time.Time) []ambient.AutoOption {
	if now == nil {
		now = time.Now
	}
	filter := filters.NewGeneratorUpdateFilter(c.MinTime, c.MinDistance, filters.WithGeneratorClock(now))
	history := roads.NewMarkerHistory(
		roads.WithHistoryWindow(c.HistoryWindow, c.HistoryRadius),
		roads.WithHistoryClock(now),
	)
	return []ambient.AutoOption{
		ambient.WithSearchDistance(c.SearchDistance),
		ambient.WithIntersectionRange(c.IntersectionRange),
		ambient.WithUpdateFilter(filter),
		ambient.WithHistory(history),
	}
}

// Options turns the guidance settings into guidance options. The spatial
// provider and store are wired by the caller.
func (c GuidanceConfig) Options(now func() time.Time) []guidance.Option {
	if now == nil {
		now = time.Now
	}
	filter := filters.NewBeaconUpdateFilter(c.Filter.MinTime,
		filters.Range{Lower: c.Filter.UpdateRangeLower, Upper: c.Filter.UpdateRangeUpper},
		filters.Range{Lower: c.Filter.BeaconRangeLower, Upper: c.Filter.BeaconRangeUpper},
		filters.WithBeaconClock(now),
	)
	return []guidance.Option{
		guidance.WithClock(now),
		guidance.WithArrivalDistance(c.ArrivalDistance),
		guidance.WithDepartureDistance(c.DepartureDistance),
		guidance.WithAmbientBlock(ambient.AutoGeneratorID, c.AmbientBlockDistance),
		guidance.WithResume(c.Resume),
		guidance.WithBeaconAudio(c.BeaconAudio),
		guidance.WithBeaconFilter(filter),
	}
}

func (c BeaconConfig) Options() []beacon.MemoryManagerOption {
	return []beacon.MemoryManagerOption{beacon.WithEndMelody(c.EndMelody)}
}
