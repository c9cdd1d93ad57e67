package behaviors

import (
	"slices"

	"github.com/microsoft/soundscape-core/core/events"
	"github.com/microsoft/soundscape-core/core/geometry"
)

// GeneratorID names a generator so that behaviors can block it.
type GeneratorID string

// Generator turns events into actions. Handle returns false when the
// generator does not handle event, which is different from handling it with
// NoAction.
type Generator interface {
	ID() GeneratorID
	RespondsTo(kind events.Kind) bool
	Handle(event events.Event, delegate Delegate) (Action, bool)
}

// Delegate is what generators may ask of the navigator while handling an
// event. It is only used on the navigator's goroutine.
type Delegate interface {
	// Process queues event to be processed after the current one.
	Process(event events.Event)
	// Dispatch runs fn on the navigator's goroutine. It is safe to call from
	// any goroutine.
	Dispatch(fn func())
	// Location returns the user's latest location.
	Location() (geometry.Location, bool)
	// IsCalloutPlaying reports whether a callout group is playing or queued.
	IsCalloutPlaying() bool
}

// Kinds is a helper for RespondsTo implementations.
type Kinds []events.Kind

func (k Kinds) Contains(kind events.Kind) bool {
	return slices.Contains(k, kind)
}
