package navigation

import (
	"github.com/microsoft/soundscape-core/core/callouts"
	"github.com/microsoft/soundscape-core/core/events"
	"github.com/microsoft/soundscape-core/core/geolocation"
)

type NavigatorOption func(*Navigator)

// WithGeolocation turns every location the manager reports into a
// LocationUpdated event.
func WithGeolocation(manager *geolocation.Manager) NavigatorOption {
	return func(n *Navigator) { n.geolocation = manager }
}

// WithEventCallback registers a callback for every event the navigator
// processes, before the behaviors handle it.
//
// The callback runs on the event loop and must not block.
func WithEventCallback(callback func(event events.Event)) NavigatorOption {
	return func(n *Navigator) { n.onEvent = callback }
}

// WithCalloutCallback registers a callback for every callout that starts
// playing. It is not called for callouts of groups that carry their own
// delegate.
//
// The callback runs on the event loop and must not block.
func WithCalloutCallback(callback func(group *callouts.Group, callout callouts.Callout)) NavigatorOption {
	return func(n *Navigator) { n.onCallout = callback }
}

// WithGroupSkippedCallback registers a callback for groups dropped from the
// queue before they played.
func WithGroupSkippedCallback(callback func(group *callouts.Group)) NavigatorOption {
	return func(n *Navigator) { n.onGroupSkipped = callback }
}
