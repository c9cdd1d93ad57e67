package geolocation

import (
	"github.com/microsoft/soundscape-core/core/geometry"
)

// LocationProvider is a source of location updates, such as a GPS receiver
// or a simulation.
type LocationProvider interface {
	ID() string
	// Location returns the most recent location, if any.
	Location() (geometry.Location, bool)
	// Subscribe registers fn for future updates and returns a function that
	// removes it.
	Subscribe(fn func(geometry.Location)) (unsubscribe func())
}

// HeadingProvider reports a bearing in degrees. Course providers report the
// direction of travel, user heading providers the direction the user faces
// and device heading providers the direction of the device.
type HeadingProvider interface {
	ID() string
	Heading() (float64, bool)
}

// HeadingType selects a kind of heading in Manager.Heading.
type HeadingType int

const (
	HeadingCourse HeadingType = iota
	HeadingUser
	HeadingDevice
)

var headingTypeNames = [...]string{"course", "user", "device"}

func (t HeadingType) String() string {
	if int(t) < len(headingTypeNames) {
		return headingTypeNames[t]
	}
	return "unknown"
}

// DefaultHeadingOrder is used when Heading is called without an order.
var DefaultHeadingOrder = []HeadingType{HeadingCourse, HeadingUser, HeadingDevice}
