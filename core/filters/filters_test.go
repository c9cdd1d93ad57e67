package filters

import (
	"testing"
	"time"

	"github.com/microsoft/soundscape-core/core/geometry"
)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time                 { return c.now }
func (c *fakeClock) Advance(duration time.Duration) { c.now = c.now.Add(duration) }

type fakeMotion struct{ inVehicle bool }

func (m fakeMotion) IsInVehicle() bool { return m.inVehicle }

var origin = geometry.Coordinate{Latitude: 47.6205, Longitude: -122.3493}

func locationAt(distanceEast float64) geometry.Location {
	return geometry.NewLocation(geometry.Destination(origin, 90, distanceEast), time.Time{})
}

func TestFiltersUpdateImmediatelyAfterReset(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	generator := NewGeneratorUpdateFilter(time.Second, 10, WithGeneratorClock(clock.Now))
	beacon := NewBeaconUpdateFilter(time.Second, DefaultBeaconUpdateRange, DefaultBeaconRange, WithBeaconClock(clock.Now))
	beacon.Start(geometry.Destination(origin, 0, 1000))

	for name, filter := range map[string]UpdateFilter{"generator": generator, "beacon": beacon} {
		t.Run(name, func(t *testing.T) {
			Record(filter, locationAt(0), true)
			filter.Reset()

			if !filter.ShouldUpdate(locationAt(0)) {
				t.Fatalf("expected update to be allowed right after reset")
			}
		})
	}
}

func TestBeaconResetKeepsArrivalUntilStart(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}

	fresh := NewBeaconUpdateFilter(time.Second, DefaultBeaconUpdateRange, DefaultBeaconRange, WithBeaconClock(clock.Now))
	fresh.Reset()
	if fresh.ShouldUpdate(locationAt(0)) {
		t.Fatalf("expected a filter that was never started to stay closed after reset")
	}

	arrived := NewBeaconUpdateFilter(time.Second, DefaultBeaconUpdateRange, DefaultBeaconRange, WithBeaconClock(clock.Now))
	arrived.Start(locationAt(10).Coordinate)
	Record(arrived, locationAt(0), true)
	if _, ok := arrived.Target(); ok {
		t.Fatalf("expected target to be cleared on arrival")
	}
	arrived.Reset()
	if arrived.ShouldUpdate(locationAt(0)) {
		t.Fatalf("expected an arrived filter to stay closed after reset")
	}

	arrived.Start(locationAt(1000).Coordinate)
	Record(arrived, locationAt(0), true)
	arrived.Reset()
	if !arrived.ShouldUpdate(locationAt(0)) {
		t.Fatalf("expected update to be allowed after start and reset")
	}
}

func TestFiltersRejectUpdatesWhileUpdating(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	generator := NewGeneratorUpdateFilter(time.Second, 10, WithGeneratorClock(clock.Now))
	beacon := NewBeaconUpdateFilter(time.Second, DefaultBeaconUpdateRange, DefaultBeaconRange, WithBeaconClock(clock.Now))
	beacon.Start(origin)

	for name, filter := range map[string]UpdateFilter{"generator": generator, "beacon": beacon} {
		t.Run(name, func(t *testing.T) {
			filter.IsUpdating(locationAt(600))

			for _, distance := range []float64{0, 50, 5000} {
				if filter.ShouldUpdate(locationAt(distance)) {
					t.Fatalf("expected no update while another is in flight (distance %v)", distance)
				}
			}

			filter.DidUpdate(locationAt(600), false)
			if !filter.ShouldUpdate(locationAt(600)) {
				t.Fatalf("expected failed update to release the filter")
			}
		})
	}
}

func TestGeneratorFilterRequiresTimeAndDistance(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	filter := NewGeneratorUpdateFilter(5*time.Second, 10, WithGeneratorClock(clock.Now))

	Record(filter, locationAt(0), true)

	clock.Advance(10 * time.Second)
	if filter.ShouldUpdate(locationAt(5)) {
		t.Fatalf("expected 5m of movement to be filtered out")
	}

	clock.now = time.Unix(2, 0)
	if filter.ShouldUpdate(locationAt(50)) {
		t.Fatalf("expected update within minimum time to be filtered out")
	}

	clock.Advance(10 * time.Second)
	if !filter.ShouldUpdate(locationAt(50)) {
		t.Fatalf("expected update after enough time and distance")
	}

	last, ok := filter.LastUpdate()
	if !ok || last.Location.Coordinate != locationAt(0).Coordinate {
		t.Fatalf("expected last update at origin, got %+v", last)
	}
}

func TestGeneratorFilterScalesDistanceInVehicle(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	motion := &fakeMotion{inVehicle: true}
	filter := NewGeneratorUpdateFilter(time.Second, 10, WithGeneratorClock(clock.Now), WithMotionActivity(motion, 4))

	Record(filter, locationAt(0), true)
	clock.Advance(time.Minute)

	if filter.ShouldUpdate(locationAt(30)) {
		t.Fatalf("expected 30m to be below the 40m vehicle gate")
	}

	motion.inVehicle = false
	if !filter.ShouldUpdate(locationAt(30)) {
		t.Fatalf("expected 30m to pass the walking gate")
	}
}

func TestBeaconFilterRequiredDistanceIsMonotonic(t *testing.T) {
	filter := NewBeaconUpdateFilter(time.Second, Range{Lower: 5, Upper: 50}, Range{Lower: 20, Upper: 500})
	location := locationAt(0)

	previous := filter.RequiredUpdateDistance(20.5, location)
	for distance := 21.0; distance < 500; distance += 7 {
		required := filter.RequiredUpdateDistance(distance, location)
		if required < previous {
			t.Fatalf("expected required distance to grow with beacon distance, %v at %vm after %v", required, distance, previous)
		}
		previous = required
	}

	if got := filter.RequiredUpdateDistance(10, location); got != 0 {
		t.Fatalf("expected no movement required inside beacon range, got %v", got)
	}
	if got := filter.RequiredUpdateDistance(1000, location); got != 50 {
		t.Fatalf("expected upper update distance outside beacon range, got %v", got)
	}
	if got := filter.RequiredUpdateDistance(260, location); got != 27.5 {
		t.Fatalf("expected interpolated distance 27.5, got %v", got)
	}
}

func TestBeaconFilterScalesRangesWithVehicleSpeed(t *testing.T) {
	filter := NewBeaconUpdateFilter(time.Second, Range{Lower: 5, Upper: 50}, Range{Lower: 20, Upper: 500}, WithBeaconMotionActivity(fakeMotion{inVehicle: true}))

	driving := locationAt(0)
	driving.Speed = 14

	if got := filter.RequiredUpdateDistance(5000, driving); got != 200 {
		t.Fatalf("expected speed factor capped at 4, got %v", got)
	}
	if got := filter.RequiredUpdateDistance(60, driving); got != 0 {
		t.Fatalf("expected scaled lower beacon range to include 60m, got %v", got)
	}
}

func TestBeaconFilterClearsTargetOnArrival(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	filter := NewBeaconUpdateFilter(time.Second, DefaultBeaconUpdateRange, DefaultBeaconRange, WithBeaconClock(clock.Now))

	if filter.ShouldUpdate(locationAt(0)) {
		t.Fatalf("expected no updates without a beacon")
	}

	beacon := locationAt(300).Coordinate
	filter.Start(beacon)
	Record(filter, locationAt(0), true)

	clock.Advance(100 * time.Millisecond)
	if !filter.ShouldUpdate(locationAt(290)) {
		t.Fatalf("expected arrival range to bypass the minimum time")
	}

	Record(filter, locationAt(290), true)
	if _, ok := filter.Target(); ok {
		t.Fatalf("expected target to be cleared after arrival")
	}

	clock.Advance(time.Hour)
	if filter.ShouldUpdate(locationAt(0)) {
		t.Fatalf("expected no updates until the next beacon starts")
	}

	filter.Start(beacon)
	if !filter.ShouldUpdate(locationAt(0)) {
		t.Fatalf("expected updates after restarting the filter")
	}
}
