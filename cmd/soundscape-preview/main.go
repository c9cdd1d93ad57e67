// Command soundscape-preview walks the road graph from a starting point in
// the terminal, the way street preview does on a phone.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	navigation "github.com/microsoft/soundscape-core/core"
	"github.com/microsoft/soundscape-core/core/callouts"
	"github.com/microsoft/soundscape-core/core/geometry"
	"github.com/microsoft/soundscape-core/core/preview"
	"github.com/microsoft/soundscape-core/core/roads"
	"github.com/microsoft/soundscape-core/internal/app"
	"github.com/microsoft/soundscape-core/internal/config"
	"github.com/microsoft/soundscape-core/internal/logging"
)

var (
	configPath = flag.String("config", "", "YAML configuration file")
	latitude   = flag.Float64("lat", 0, "latitude of the starting point")
	longitude  = flag.Float64("lon", 0, "longitude of the starting point")
)

func main() {
	flag.Parse()

	start := geometry.Coordinate{Latitude: *latitude, Longitude: *longitude}
	if (*latitude == 0 && *longitude == 0) || !start.IsValid() {
		fmt.Fprintln(os.Stderr, "a valid -lat and -lon are required")
		os.Exit(2)
	}

	if err := run(start); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(start geometry.Coordinate) error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if cfg.Spatial.Fixture == "" {
		return fmt.Errorf("spatial.fixture is required for street preview")
	}

	// The terminal belongs to the program, records only go to the log file.
	logger, err := logging.New(cfg.Logging, io.Discard)
	if err != nil {
		return err
	}
	defer logger.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	services, err := app.New(ctx, cfg, io.Discard, nil)
	if err != nil {
		return err
	}
	defer services.Close()

	updates := make(chan tea.Msg, 64)
	send := func(msg tea.Msg) {
		select {
		case updates <- msg:
		default:
			logger.Warn("dropping preview update, program is not keeping up")
		}
	}

	navigator := navigation.NewNavigator(services.Engine, services.Ambient,
		navigation.WithGeolocation(services.Geolocation),
		navigation.WithCalloutCallback(func(_ *callouts.Group, callout callouts.Callout) {
			if c, ok := callout.(*callouts.StringCallout); ok && c.Text() != "" {
				send(calloutMsg(c.Text()))
			}
		}),
	)

	behavior := preview.NewBehavior(services.Store, start,
		preview.WithGeolocation(services.Geolocation),
		preview.WithSearchDistance(cfg.Roads.PreviewSearchDistance),
		preview.WithFinderOptions(cfg.Roads.FinderOptions()...),
	)

	unnamed := services.Store.IncludesUnnamedRoads()
	refresh := func() {
		navigator.Dispatch(func() { send(snapshotMsg(takeSnapshot(behavior, unnamed))) })
	}
	behavior.OnNodeChanged(func(*roads.DecisionPoint) { send(snapshotMsg(takeSnapshot(behavior, unnamed))) })

	if err := navigator.Start(ctx); err != nil {
		return err
	}
	defer navigator.Close()
	if err := navigator.ActivateCustomBehavior(behavior); err != nil {
		return err
	}

	controls := controls{
		process: navigator.Process,
		hush:    func() { navigator.Hush(true) },
		toggleUnnamed: func() {
			navigator.Dispatch(func() {
				unnamed = !unnamed
				services.Store.SetIncludeUnnamedRoads(unnamed)
				if err := behavior.Refresh(); err != nil {
					logger.Warn("failed to refresh street preview", "error", err)
				}
			})
		},
		refresh: refresh,
	}

	program := tea.NewProgram(newModel(controls, updates), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("street preview failed: %w", err)
	}
	return nil
}
