// Package filters throttles location driven work. A filter decides whether a
// new location is worth recomputing callouts for and guards against starting
// a second computation while one is still in flight.
package filters

import (
	"time"

	"github.com/microsoft/soundscape-core/core/geometry"
)

// UpdateFilter is the contract shared by every filter in this package.
//
// IsUpdating and DidUpdate must be called in pairs. While an update is in
// flight ShouldUpdate returns false for every location.
type UpdateFilter interface {
	ShouldUpdate(location geometry.Location) bool
	IsUpdating(location geometry.Location)
	DidUpdate(location geometry.Location, success bool)
	Reset()
}

// MotionActivity reports what the user is currently doing.
type MotionActivity interface {
	IsInVehicle() bool
}

// Update describes the last successful update accepted by a filter.
type Update struct {
	Time     time.Time
	Location geometry.Location
	// Elapsed and Distance are measured from the update before this one and
	// are zero for the first update.
	Elapsed  time.Duration
	Distance float64
}

func nextUpdate(previous *Update, location geometry.Location, now time.Time) *Update {
	update := &Update{Time: now, Location: location}
	if previous != nil {
		update.Elapsed = now.Sub(previous.Time)
		update.Distance = geometry.Distance(previous.Location.Coordinate, location.Coordinate)
	}
	return update
}

// Record performs IsUpdating and DidUpdate(success) in a single call for work
// that completes synchronously.
func Record(filter UpdateFilter, location geometry.Location, success bool) {
	filter.IsUpdating(location)
	filter.DidUpdate(location, success)
}
