package ambient

import (
	"fmt"
	"strings"

	"github.com/microsoft/soundscape-core/core/audio"
	"github.com/microsoft/soundscape-core/core/behaviors"
	"github.com/microsoft/soundscape-core/core/callouts"
	"github.com/microsoft/soundscape-core/core/events"
	"github.com/microsoft/soundscape-core/core/geometry"
	"github.com/microsoft/soundscape-core/core/spatial"
)

const LocateGeneratorID behaviors.GeneratorID = "ambient.locate"

// LocateGenerator answers the user's requests: where am I, and single
// earcon glyphs.
type LocateGenerator struct {
	provider       spatial.Provider
	heading        func() (float64, bool)
	searchDistance float64
}

type LocateOption func(*LocateGenerator)

// WithHeading describes directions relative to the heading fn returns
// instead of compass directions.
func WithHeading(fn func() (float64, bool)) LocateOption {
	return func(g *LocateGenerator) { g.heading = fn }
}

func WithLocateSearchDistance(distance float64) LocateOption {
	return func(g *LocateGenerator) { g.searchDistance = distance }
}

func NewLocateGenerator(provider spatial.Provider, opts ...LocateOption) *LocateGenerator {
	g := &LocateGenerator{provider: provider, searchDistance: DefaultSearchDistance}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *LocateGenerator) ID() behaviors.GeneratorID { return LocateGeneratorID }

func (g *LocateGenerator) RespondsTo(kind events.Kind) bool {
	return kind == events.KindLocate || kind == events.KindGlyph
}

func (g *LocateGenerator) Handle(event events.Event, delegate behaviors.Delegate) (behaviors.Action, bool) {
	switch e := event.(type) {
	case events.Glyph:
		glyph := callouts.NewStringCallout("glyph", "", callouts.WithEarcon(e.Earcon))
		return behaviors.PlayCallouts(callouts.NewGroup([]callouts.Callout{glyph}, callouts.WithLogContext("glyph"))), true

	case events.Locate:
		return behaviors.PlayCallouts(callouts.NewGroup(g.locate(delegate),
			callouts.WithAction(callouts.InterruptAndClear),
			callouts.WithLogContext("locate"),
		)), true
	}
	return behaviors.Action{}, false
}

func (g *LocateGenerator) locate(delegate behaviors.Delegate) []callouts.Callout {
	location, ok := delegate.Location()
	if !ok {
		return []callouts.Callout{callouts.NewStringCallout("locate", "Current location is not available", callouts.WithEarcon(audio.EarconInvalid))}
	}

	view, err := g.provider.DataView(location.Coordinate, g.searchDistance)
	if err != nil {
		logger.Warn("failed to load data view for locate", "error", err)
		return []callouts.Callout{callouts.NewStringCallout("locate", "Nothing is known around you", callouts.WithEarcon(audio.EarconInvalid))}
	}

	list := []callouts.Callout{}
	if road, point, distance, ok := view.NearestRoad(location.Coordinate); ok {
		text := fmt.Sprintf("Nearest road, %s", road.DisplayName())
		if distance > 5 {
			text = fmt.Sprintf("%s, %s %s", text, callouts.FormatDistance(distance), g.direction(location, point))
		}
		list = append(list, callouts.NewStringCallout("locate", text, callouts.WithEarcon(audio.EarconSenseLocation), callouts.WithTarget(point)))
	}

	if intersection, distance, ok := view.NearestIntersection(location.Coordinate); ok {
		text := fmt.Sprintf("Nearest intersection, %s, %s %s",
			strings.Join(intersection.RoadNames(), " and "),
			callouts.FormatDistance(distance),
			g.direction(location, intersection.Coordinate),
		)
		list = append(list, callouts.NewStringCallout("locate", text, callouts.WithTarget(intersection.Coordinate)))
	}

	if len(list) == 0 {
		list = append(list, callouts.NewStringCallout("locate", "No roads nearby", callouts.WithEarcon(audio.EarconSenseLocation)))
	}
	return list
}

func (g *LocateGenerator) direction(location geometry.Location, target geometry.Coordinate) string {
	bearing := geometry.Bearing(location.Coordinate, target)
	if g.heading != nil {
		if heading, ok := g.heading(); ok {
			return geometry.RelativeDirection(heading, bearing)
		}
	}
	return geometry.CardinalDirection(bearing)
}
