package filters

import (
	"math"
	"sync"
	"time"

	"github.com/microsoft/soundscape-core/core/geometry"
)

// Range is a closed interval of distances in meters.
type Range struct {
	Lower float64
	Upper float64
}

func (r Range) scaled(factor float64) Range {
	return Range{Lower: r.Lower * factor, Upper: r.Upper * factor}
}

const (
	DefaultBeaconMinTime = 3 * time.Second

	// walkingSpeed is the speed (m/s) under which no vehicle scaling applies.
	walkingSpeed   = 1.4
	maxSpeedFactor = 4.0
)

var (
	DefaultBeaconUpdateRange = Range{Lower: 5, Upper: 50}
	DefaultBeaconRange       = Range{Lower: 20, Upper: 500}
)

// BeaconUpdateFilter throttles beacon distance updates. The further the user
// is from the beacon, the more they must move before the next update:
// beyond the upper beacon range the upper update distance applies, inside the
// lower beacon range every update is let through, and in between the
// required distance is interpolated linearly.
type BeaconUpdateFilter struct {
	mu sync.Mutex

	minTime     time.Duration
	updateRange Range
	beaconRange Range
	motion      MotionActivity
	now         func() time.Time

	target   *geometry.Coordinate
	last     *Update
	updating bool
}

type BeaconOption func(*BeaconUpdateFilter)

func WithBeaconMotionActivity(motion MotionActivity) BeaconOption {
	return func(f *BeaconUpdateFilter) { f.motion = motion }
}

func WithBeaconClock(now func() time.Time) BeaconOption {
	return func(f *BeaconUpdateFilter) {
		if now != nil {
			f.now = now
		}
	}
}

func NewBeaconUpdateFilter(minTime time.Duration, updateRange, beaconRange Range, opts ...BeaconOption) *BeaconUpdateFilter {
	f := &BeaconUpdateFilter{
		minTime:     minTime,
		updateRange: updateRange,
		beaconRange: beaconRange,
		now:         time.Now,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// Start points the filter at a new beacon and forgets any previous update.
func (f *BeaconUpdateFilter) Start(beacon geometry.Coordinate) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.target = &beacon
	f.last = nil
	f.updating = false
}

// Target returns the beacon the filter is tracking. It is cleared once an
// update lands inside the lower beacon range.
func (f *BeaconUpdateFilter) Target() (geometry.Coordinate, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.target == nil {
		return geometry.Coordinate{}, false
	}
	return *f.target, true
}

// speedFactor scales both ranges for users travelling faster than walking
// pace in a vehicle.
func (f *BeaconUpdateFilter) speedFactor(location geometry.Location) float64 {
	if f.motion == nil || !f.motion.IsInVehicle() || !location.HasSpeed() {
		return 1
	}
	return math.Max(1, math.Min(maxSpeedFactor, location.Speed/walkingSpeed))
}

// RequiredUpdateDistance returns how far the user must have moved since the
// last update, given their distance to the beacon.
func (f *BeaconUpdateFilter) RequiredUpdateDistance(distanceToBeacon float64, location geometry.Location) float64 {
	factor := f.speedFactor(location)
	return requiredDistance(distanceToBeacon, f.updateRange.scaled(factor), f.beaconRange.scaled(factor))
}

func requiredDistance(distanceToBeacon float64, update, beacon Range) float64 {
	switch {
	case distanceToBeacon <= beacon.Lower:
		return 0
	case distanceToBeacon >= beacon.Upper || beacon.Upper <= beacon.Lower:
		return update.Upper
	}

	t := (distanceToBeacon - beacon.Lower) / (beacon.Upper - beacon.Lower)
	return update.Lower + t*(update.Upper-update.Lower)
}

func (f *BeaconUpdateFilter) ShouldUpdate(location geometry.Location) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updating || f.target == nil {
		return false
	}
	if f.last == nil {
		return true
	}

	distanceToBeacon := geometry.Distance(location.Coordinate, *f.target)
	factor := f.speedFactor(location)
	if distanceToBeacon <= f.beaconRange.Lower*factor {
		return true
	}

	moved := geometry.Distance(f.last.Location.Coordinate, location.Coordinate)
	elapsed := f.now().Sub(f.last.Time)
	required := requiredDistance(distanceToBeacon, f.updateRange.scaled(factor), f.beaconRange.scaled(factor))
	return elapsed > f.minTime && moved > required
}

func (f *BeaconUpdateFilter) IsUpdating(location geometry.Location) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.updating = true
}

func (f *BeaconUpdateFilter) DidUpdate(location geometry.Location, success bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.updating {
		logger.Debug("beacon filter update finished without a matching start")
	}
	f.updating = false

	if !success {
		return
	}

	f.last = nextUpdate(f.last, location, f.now())
	if f.target != nil && geometry.Distance(location.Coordinate, *f.target) <= f.beaconRange.Lower*f.speedFactor(location) {
		logger.Debug("beacon reached, clearing filter target")
		f.target = nil
	}
}

// Reset forgets the last update but keeps tracking the current beacon. A
// filter without a target, never started or already arrived, stays closed
// until the next Start.
func (f *BeaconUpdateFilter) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.last = nil
	f.updating = false
}
