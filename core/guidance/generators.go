package guidance

import (
	"fmt"
	"math"

	"github.com/microsoft/soundscape-core/core/audio"
	"github.com/microsoft/soundscape-core/core/behaviors"
	"github.com/microsoft/soundscape-core/core/callouts"
	"github.com/microsoft/soundscape-core/core/events"
	"github.com/microsoft/soundscape-core/core/geometry"
)

const (
	AutoGeneratorID   behaviors.GeneratorID = "guidance.auto"
	ManualGeneratorID behaviors.GeneratorID = "guidance.manual"
)

// AutoGenerator reacts to location updates and to the guidance's own
// arrival and departure events.
type AutoGenerator struct {
	guidance *Guidance
}

func (a *AutoGenerator) ID() behaviors.GeneratorID { return AutoGeneratorID }

func (a *AutoGenerator) RespondsTo(kind events.Kind) bool {
	flavor := a.guidance.flavor
	switch kind {
	case events.KindLocationUpdated, events.KindBehaviorActivated, flavor.ArrivalKind, flavor.DepartureKind:
		return true
	}
	return false
}

func (a *AutoGenerator) Handle(event events.Event, delegate behaviors.Delegate) (behaviors.Action, bool) {
	g := a.guidance
	switch e := event.(type) {
	case events.LocationUpdated:
		return g.locationUpdated(e.Location, delegate), true
	case events.BehaviorActivated:
		if e.BehaviorID != g.ID() {
			return behaviors.Action{}, false
		}
		return behaviors.PlayCallouts(g.introduction()), true
	case WaypointArrival:
		if e.ContentID != g.content.ID {
			return behaviors.Action{}, false
		}
		return behaviors.PlayCallouts(g.arrivalCallouts(e)), true
	case WaypointDeparture:
		if e.ContentID != g.content.ID {
			return behaviors.Action{}, false
		}
		return behaviors.PlayCallouts(g.departureCallouts(e)), true
	}
	return behaviors.Action{}, false
}

func (g *Guidance) locationUpdated(location geometry.Location, delegate behaviors.Delegate) behaviors.Action {
	if g.state.IsFinal {
		// No waypoint is left to stay quiet for.
		g.updateAmbientBlock(math.Inf(1))
		return behaviors.NoAction()
	}

	g.trackNearestIntersection(location)

	waypoint, _, ok := g.CurrentWaypoint()
	if !ok {
		return behaviors.NoAction()
	}
	distance := geometry.Distance(location.Coordinate, waypoint.Location)
	g.updateAmbientBlock(distance)

	if distance < g.arrivalDistance {
		g.completeCurrentWaypoint(location)
		return behaviors.NoAction()
	}

	if g.awaitingDeparture && g.arrivalLocation != nil &&
		geometry.Distance(location.Coordinate, *g.arrivalLocation) > g.departureDistance {
		g.awaitingDeparture = false
		g.arrivalLocation = nil
		if event, ok := g.departureEvent(); ok {
			return behaviors.ProcessEvents(event)
		}
		return behaviors.NoAction()
	}

	if g.pending != nil || g.awaitingArrivalCallout || g.awaitingDeparture || g.awaitingDepartureCalloutCompletion {
		return behaviors.NoAction()
	}
	if delegate.IsCalloutPlaying() || !g.filter.ShouldUpdate(location) {
		return behaviors.NoAction()
	}

	g.filter.IsUpdating(location)
	update := callouts.NewDistanceCallout(g.flavor.Name, waypoint.Name, waypoint.Location, audio.EarconBeaconFound)
	return behaviors.PlayCallouts(callouts.NewGroup([]callouts.Callout{update},
		callouts.WithLogContext(g.logContext()),
		callouts.WithOnComplete(func(finished bool) { g.filter.DidUpdate(location, finished) }),
		callouts.WithOnSkip(func() { g.filter.DidUpdate(location, false) }),
	))
}

func (g *Guidance) introduction() *callouts.Group {
	text := fmt.Sprintf("Started %s %s, %d waypoints", g.flavor.Name, g.content.Name, len(g.content.Waypoints))
	if completed := len(g.state.Visited); completed > 0 {
		text = fmt.Sprintf("Resumed %s %s, %d of %d waypoints completed", g.flavor.Name, g.content.Name, completed, len(g.content.Waypoints))
	}
	return callouts.NewGroup([]callouts.Callout{callouts.NewStringCallout(g.flavor.Name, text)},
		callouts.WithModeSounds(),
		callouts.WithLogContext(g.logContext()),
	)
}

func (g *Guidance) arrivalCallouts(e WaypointArrival) *callouts.Group {
	list := []callouts.Callout{
		callouts.NewStringCallout(g.flavor.Name, "Arrived at "+e.Waypoint.Name,
			callouts.WithEarcon(g.flavor.ArrivalEarcon),
			callouts.WithTarget(e.Waypoint.Location),
		),
	}
	if e.Waypoint.ArrivalText != "" {
		list = append(list, callouts.NewStringCallout(g.flavor.Name, e.Waypoint.ArrivalText))
	}
	if e.Progress.IsDone {
		list = append(list, callouts.NewStringCallout(g.flavor.Name, "Completed "+g.content.Name))
	}

	return callouts.NewGroup(list,
		callouts.WithAction(callouts.InterruptAndClear),
		callouts.WithLogContext(g.logContext()),
		callouts.WithOnComplete(func(bool) { g.arrivalCalloutFinished() }),
		callouts.WithOnSkip(g.arrivalCalloutFinished),
	)
}

func (g *Guidance) departureCallouts(e WaypointDeparture) *callouts.Group {
	list := []callouts.Callout{
		callouts.NewStringCallout(g.flavor.Name, "Next waypoint", callouts.WithEarcon(audio.EarconDeparture)),
		callouts.NewDistanceCallout(g.flavor.Name, e.Waypoint.Name, e.Waypoint.Location, ""),
	}
	if e.Waypoint.DepartureText != "" {
		list = append(list, callouts.NewStringCallout(g.flavor.Name, e.Waypoint.DepartureText))
	}

	return callouts.NewGroup(list,
		callouts.WithLogContext(g.logContext()),
		callouts.WithOnComplete(func(bool) { g.departureCalloutFinished() }),
		callouts.WithOnSkip(g.departureCalloutFinished),
	)
}

// ManualGenerator handles the user's requests to skip between waypoints.
type ManualGenerator struct {
	guidance *Guidance
}

func (m *ManualGenerator) ID() behaviors.GeneratorID { return ManualGeneratorID }

func (m *ManualGenerator) RespondsTo(kind events.Kind) bool {
	return kind == KindNextWaypoint || kind == KindPreviousWaypoint
}

func (m *ManualGenerator) Handle(event events.Event, _ behaviors.Delegate) (behaviors.Action, bool) {
	g := m.guidance
	switch event.(type) {
	case NextWaypoint:
		if !g.NextWaypoint() {
			return behaviors.PlayCallouts(g.invalid("This is the last waypoint")), true
		}
		return behaviors.NoAction(), true
	case PreviousWaypoint:
		if !g.PreviousWaypoint() {
			return behaviors.PlayCallouts(g.invalid("This is the first waypoint")), true
		}
		return behaviors.NoAction(), true
	}
	return behaviors.Action{}, false
}

func (g *Guidance) invalid(text string) *callouts.Group {
	return callouts.NewGroup(
		[]callouts.Callout{callouts.NewStringCallout(g.flavor.Name, text, callouts.WithEarcon(audio.EarconInvalid))},
		callouts.WithAction(callouts.InterruptAndClear),
		callouts.WithLogContext(g.logContext()),
	)
}
