package events

import (
	"time"

	"github.com/microsoft/soundscape-core/core/geometry"
)

const (
	KindLocationUpdated     Kind = "location.updated"
	KindBehaviorActivated   Kind = "behavior.activated"
	KindBehaviorDeactivated Kind = "behavior.deactivated"
)

// LocationUpdated carries a new user location to every generator.
type LocationUpdated struct {
	Base
	Location geometry.Location
}

func NewLocationUpdated(location geometry.Location, opts ...BaseOption) LocationUpdated {
	opts = append([]BaseOption{Broadcasted(), Blockable()}, opts...)
	if !location.Timestamp.IsZero() {
		opts = append(opts, WithTimestamp(location.Timestamp))
	}
	return LocationUpdated{Base: NewBase(KindLocationUpdated, opts...), Location: location}
}

// BehaviorActivated is sent to a custom behavior right after it becomes
// active so its generators can announce it.
type BehaviorActivated struct {
	Base
	BehaviorID string
}

func NewBehaviorActivated(behaviorID string) BehaviorActivated {
	return BehaviorActivated{Base: NewBase(KindBehaviorActivated), BehaviorID: behaviorID}
}

type BehaviorDeactivated struct {
	Base
	BehaviorID string
}

func NewBehaviorDeactivated(behaviorID string) BehaviorDeactivated {
	return BehaviorDeactivated{Base: NewBase(KindBehaviorDeactivated), BehaviorID: behaviorID}
}

// Age reports how long ago event happened.
func Age(event Event, now time.Time) time.Duration {
	return now.Sub(event.Timestamp())
}
