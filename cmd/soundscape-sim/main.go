// Command soundscape-sim replays a recorded location trace through a guided
// tour or route and prints the callouts it would hear.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	navigation "github.com/microsoft/soundscape-core/core"
	"github.com/microsoft/soundscape-core/core/beacon"
	"github.com/microsoft/soundscape-core/core/callouts"
	"github.com/microsoft/soundscape-core/core/geolocation"
	"github.com/microsoft/soundscape-core/core/guidance"
	"github.com/microsoft/soundscape-core/core/spatial"
	"github.com/microsoft/soundscape-core/internal/app"
	"github.com/microsoft/soundscape-core/internal/config"
	"github.com/microsoft/soundscape-core/internal/logging"
)

var (
	configPath  = flag.String("config", "", "YAML configuration file")
	contentPath = flag.String("content", "", "tour or route JSON file")
	tracePath   = flag.String("trace", "", "location trace JSON file")
	asRoute     = flag.Bool("route", false, "guide the content as a route instead of a tour")
	speed       = flag.Float64("speed", 1, "replay speed multiplier, 0 replays without pauses")
	kmlPath     = flag.String("kml", "", "write the trace, waypoints and callouts to this KML file")
	printSchema = flag.Bool("print-schema", false, "print the configuration JSON schema and exit")
	drainLimit  = flag.Duration("drain", 30*time.Second, "how long to wait for callouts after the trace ends")
)

func main() {
	flag.Parse()

	if *printSchema {
		data, err := config.SchemaJSON()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(string(data))
		return
	}

	if *contentPath == "" || *tracePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging, os.Stderr)
	if err != nil {
		return err
	}
	defer logger.Close()

	content, err := guidance.LoadContent(*contentPath)
	if err != nil {
		return err
	}
	trace, err := loadTrace(*tracePath)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	clock := &traceClock{}
	services, err := app.New(ctx, cfg, os.Stdout, clock.Now)
	if err != nil {
		return err
	}
	defer services.Close()

	provider := geolocation.NewSimulatedLocationProvider("trace")
	services.Geolocation.AddLocationProvider(provider)

	mon := newMonitor(logger.Logger)
	var (
		recordsMu sync.Mutex
		records   []calloutRecord
		navigator *navigation.Navigator
	)
	onCallout := func(group *callouts.Group, callout callouts.Callout) {
		record := calloutRecord{GroupID: group.ID, Category: callout.LogCategory(), Time: clock.Now()}
		if c, ok := callout.(*callouts.StringCallout); ok {
			record.Text = c.Text()
		}
		if location, ok := navigator.Location(); ok {
			record.Latitude, record.Longitude = location.Latitude, location.Longitude
		}

		recordsMu.Lock()
		records = append(records, record)
		recordsMu.Unlock()
		mon.publish(record)
	}

	navigator = navigation.NewNavigator(services.Engine, services.Ambient,
		navigation.WithGeolocation(services.Geolocation),
		navigation.WithCalloutCallback(onCallout),
	)

	behavior, err := newGuidance(cfg, content, services.Beacons, services.Store, clock.Now)
	if err != nil {
		return err
	}
	behavior.OnProgress(func(progress guidance.Progress) {
		logger.Info("progress", "completed", progress.Completed, "total", progress.Total, "finished", progress.IsDone)
	})

	if err := navigator.Start(ctx); err != nil {
		return err
	}
	defer navigator.Close()
	if err := navigator.ActivateCustomBehavior(behavior); err != nil {
		return err
	}

	replayCtx, cancelReplay := context.WithCancel(ctx)
	defer cancelReplay()

	eg, egCtx := errgroup.WithContext(replayCtx)
	eg.Go(func() error {
		defer cancelReplay()
		if err := replay(egCtx, trace, provider, clock, *speed); err != nil {
			return err
		}
		return drain(egCtx, navigator, *drainLimit)
	})
	if cfg.Monitor.Address != "" {
		eg.Go(func() error { return mon.serve(egCtx, cfg.Monitor.Address) })
	}

	if err := eg.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	var summary guidance.Progress
	done := make(chan struct{})
	navigator.Dispatch(func() {
		defer close(done)
		summary = behavior.Progress()
	})
	select {
	case <-done:
		fmt.Printf("%d of %d waypoints completed\n", summary.Completed, summary.Total)
	case <-time.After(time.Second):
	}

	if *kmlPath != "" {
		recordsMu.Lock()
		defer recordsMu.Unlock()
		if err := exportKML(*kmlPath, content, trace, records); err != nil {
			return err
		}
		logger.Info("wrote KML", "path", *kmlPath)
	}
	return nil
}

func newGuidance(cfg *config.Config, content guidance.Content, beacons beacon.Manager, store *spatial.Store, now func() time.Time) (*guidance.Guidance, error) {
	opts := append(cfg.Guidance.Options(now), guidance.WithSpatialProvider(store))
	if cfg.Guidance.StateDir != "" {
		opts = append(opts, guidance.WithStore(guidance.NewFileStore(cfg.Guidance.StateDir)))
	}

	if *asRoute {
		return guidance.NewRouteGuidance(content, beacons, opts...)
	}
	return guidance.NewGuidedTour(content, beacons, opts...)
}

// drain waits until the navigator has nothing left to say.
func drain(ctx context.Context, navigator *navigation.Navigator, limit time.Duration) error {
	deadline := time.After(limit)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		idle := make(chan bool, 1)
		navigator.Dispatch(func() { idle <- !navigator.IsCalloutPlaying() })

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return nil
		case ok := <-idle:
			if ok {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return nil
		case <-ticker.C:
		}
	}
}
