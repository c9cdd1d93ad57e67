package filters

import (
	"sync"
	"time"

	"github.com/microsoft/soundscape-core/core/geometry"
)

const (
	DefaultGeneratorMinTime     = 5 * time.Second
	DefaultGeneratorMinDistance = 10.0
	// DefaultVehicleMultiplier scales the distance gate while travelling in a
	// vehicle.
	DefaultVehicleMultiplier = 4.0
)

// GeneratorUpdateFilter lets an update through once the user has moved more
// than minDistance and more than minTime has elapsed since the last
// successful update.
type GeneratorUpdateFilter struct {
	mu sync.Mutex

	minTime           time.Duration
	minDistance       float64
	motion            MotionActivity
	vehicleMultiplier float64
	now               func() time.Time

	last     *Update
	updating bool
}

type GeneratorOption func(*GeneratorUpdateFilter)

// WithMotionActivity makes the filter multiply its distance gate by
// multiplier whenever motion reports the user is in a vehicle.
func WithMotionActivity(motion MotionActivity, multiplier float64) GeneratorOption {
	return func(f *GeneratorUpdateFilter) {
		f.motion = motion
		if multiplier > 0 {
			f.vehicleMultiplier = multiplier
		}
	}
}

func WithGeneratorClock(now func() time.Time) GeneratorOption {
	return func(f *GeneratorUpdateFilter) {
		if now != nil {
			f.now = now
		}
	}
}

func NewGeneratorUpdateFilter(minTime time.Duration, minDistance float64, opts ...GeneratorOption) *GeneratorUpdateFilter {
	f := &GeneratorUpdateFilter{
		minTime:           minTime,
		minDistance:       minDistance,
		vehicleMultiplier: DefaultVehicleMultiplier,
		now:               time.Now,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

func (f *GeneratorUpdateFilter) ShouldUpdate(location geometry.Location) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.updating {
		return false
	}
	if f.last == nil {
		return true
	}

	distance := geometry.Distance(f.last.Location.Coordinate, location.Coordinate)
	elapsed := f.now().Sub(f.last.Time)
	return distance > f.minDistance*f.multiplier() && elapsed > f.minTime
}

func (f *GeneratorUpdateFilter) multiplier() float64 {
	if f.motion != nil && f.motion.IsInVehicle() {
		return f.vehicleMultiplier
	}
	return 1
}

func (f *GeneratorUpdateFilter) IsUpdating(location geometry.Location) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.updating = true
}

func (f *GeneratorUpdateFilter) DidUpdate(location geometry.Location, success bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.updating {
		logger.Debug("generator filter update finished without a matching start")
	}
	f.updating = false

	if success {
		f.last = nextUpdate(f.last, location, f.now())
	}
}

func (f *GeneratorUpdateFilter) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.last = nil
	f.updating = false
}

// LastUpdate returns the last successful update, if any.
func (f *GeneratorUpdateFilter) LastUpdate() (Update, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.last == nil {
		return Update{}, false
	}
	return *f.last, true
}
