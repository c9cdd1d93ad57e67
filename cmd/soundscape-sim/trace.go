package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/microsoft/soundscape-core/core/geolocation"
	"github.com/microsoft/soundscape-core/core/geometry"
)

var errEmptyTrace = errors.New("trace has no locations")

// loadTrace reads a JSON array of locations ordered by time.
func loadTrace(path string) ([]geometry.Location, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read trace: %w", err)
	}

	var trace []geometry.Location
	if err := json.Unmarshal(data, &trace); err != nil {
		return nil, fmt.Errorf("failed to decode trace %s: %w", path, err)
	}
	if len(trace) == 0 {
		return nil, fmt.Errorf("%s: %w", path, errEmptyTrace)
	}

	for i := range trace {
		if trace[i].Timestamp.IsZero() {
			return nil, fmt.Errorf("location %d of %s has no timestamp", i, path)
		}
		if i > 0 && trace[i].Timestamp.Before(trace[i-1].Timestamp) {
			return nil, fmt.Errorf("location %d of %s is out of order", i, path)
		}
	}
	return trace, nil
}

// traceClock reports the time of the location being replayed so that
// filters see the trace's pace regardless of the replay speed.
type traceClock struct {
	at atomic.Int64
}

func (c *traceClock) Now() time.Time {
	if at := c.at.Load(); at != 0 {
		return time.Unix(0, at)
	}
	return time.Now()
}

func (c *traceClock) set(t time.Time) {
	c.at.Store(t.UnixNano())
}

// replay feeds trace into provider, waiting between locations for the
// recorded gap divided by speed.
func replay(ctx context.Context, trace []geometry.Location, provider *geolocation.SimulatedLocationProvider, clock *traceClock, speed float64) error {
	for i, location := range trace {
		if i > 0 && speed > 0 {
			gap := time.Duration(float64(location.Timestamp.Sub(trace[i-1].Timestamp)) / speed)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(gap):
			}
		}

		clock.set(location.Timestamp)
		provider.SetLocation(location)
	}
	return nil
}
