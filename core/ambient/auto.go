// Package ambient implements the default behavior: calling out what is
// around the user while they move, and answering locate requests.
package ambient

import (
	"strings"

	"github.com/microsoft/soundscape-core/core/audio"
	"github.com/microsoft/soundscape-core/core/behaviors"
	"github.com/microsoft/soundscape-core/core/callouts"
	"github.com/microsoft/soundscape-core/core/events"
	"github.com/microsoft/soundscape-core/core/filters"
	"github.com/microsoft/soundscape-core/core/roads"
	"github.com/microsoft/soundscape-core/core/spatial"
)

const (
	AutoGeneratorID behaviors.GeneratorID = "ambient.auto"

	DefaultSearchDistance    = 200.0
	DefaultIntersectionRange = 20.0

	// markerSearchRadius covers the largest marker trigger range.
	markerSearchRadius = 40.0
)

// AutoGenerator calls out markers and main intersections as the user comes
// within range of them. Updates are throttled by a GeneratorUpdateFilter and
// every place is called out at most once while the user stays near it.
type AutoGenerator struct {
	provider          spatial.Provider
	filter            filters.UpdateFilter
	history           *roads.MarkerHistory
	searchDistance    float64
	intersectionRange float64
}

type AutoOption func(*AutoGenerator)

func WithUpdateFilter(filter filters.UpdateFilter) AutoOption {
	return func(g *AutoGenerator) { g.filter = filter }
}

func WithHistory(history *roads.MarkerHistory) AutoOption {
	return func(g *AutoGenerator) { g.history = history }
}

func WithSearchDistance(distance float64) AutoOption {
	return func(g *AutoGenerator) { g.searchDistance = distance }
}

func WithIntersectionRange(distance float64) AutoOption {
	return func(g *AutoGenerator) { g.intersectionRange = distance }
}

func NewAutoGenerator(provider spatial.Provider, opts ...AutoOption) *AutoGenerator {
	g := &AutoGenerator{
		provider:          provider,
		searchDistance:    DefaultSearchDistance,
		intersectionRange: DefaultIntersectionRange,
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.filter == nil {
		g.filter = filters.NewGeneratorUpdateFilter(filters.DefaultGeneratorMinTime, filters.DefaultGeneratorMinDistance)
	}
	if g.history == nil {
		g.history = roads.NewMarkerHistory()
	}
	return g
}

func (g *AutoGenerator) ID() behaviors.GeneratorID { return AutoGeneratorID }

func (g *AutoGenerator) RespondsTo(kind events.Kind) bool {
	return kind == events.KindLocationUpdated
}

func (g *AutoGenerator) Handle(event events.Event, _ behaviors.Delegate) (behaviors.Action, bool) {
	update, ok := event.(events.LocationUpdated)
	if !ok {
		return behaviors.Action{}, false
	}

	location := update.Location
	if !g.filter.ShouldUpdate(location) {
		return behaviors.NoAction(), true
	}
	g.filter.IsUpdating(location)

	view, err := g.provider.DataView(location.Coordinate, g.searchDistance)
	if err != nil {
		logger.Warn("failed to load data view", "error", err)
		g.filter.DidUpdate(location, false)
		return behaviors.NoAction(), true
	}

	var list []callouts.Callout
	for _, marker := range view.MarkersWithin(location.Coordinate, markerSearchRadius) {
		if location.Distance(marker.Location) > spatial.TriggerRange(marker.Category) {
			continue
		}
		if !g.history.ShouldCallOut(marker.Key, location.Coordinate) {
			continue
		}
		g.history.Record(marker.Key, location.Coordinate)
		list = append(list, callouts.NewStringCallout("poi", marker.Name,
			callouts.WithEarcon(audio.EarconSensePOI),
			callouts.WithTarget(marker.Location),
		))
	}

	if intersection, distance, ok := view.NearestIntersection(location.Coordinate); ok && distance <= g.intersectionRange && intersection.IsMain() {
		key := "intersection:" + intersection.Key
		if g.history.ShouldCallOut(key, location.Coordinate) {
			g.history.Record(key, location.Coordinate)
			list = append(list, callouts.NewStringCallout("intersection",
				"Approaching intersection, "+strings.Join(intersection.RoadNames(), " and "),
				callouts.WithTarget(intersection.Coordinate),
			))
		}
	}

	g.filter.DidUpdate(location, true)
	if len(list) == 0 {
		return behaviors.NoAction(), true
	}

	logger.Debug("ambient callouts", "count", len(list))
	return behaviors.PlayCallouts(callouts.NewGroup(list, callouts.WithLogContext("ambient"))), true
}

// Reset forgets throttling state and call-out history, e.g. when the user
// teleports into a preview.
func (g *AutoGenerator) Reset() {
	g.filter.Reset()
	g.history.Reset()
}
