// Package preview lets the user walk the road graph from a chosen starting
// point without moving. The user focuses one of the roads leaving the
// current decision point and walks it to the next one.
package preview

import (
	"errors"
	"fmt"
	"time"

	"github.com/microsoft/soundscape-core/core/ambient"
	"github.com/microsoft/soundscape-core/core/behaviors"
	"github.com/microsoft/soundscape-core/core/events"
	"github.com/microsoft/soundscape-core/core/geolocation"
	"github.com/microsoft/soundscape-core/core/geometry"
	"github.com/microsoft/soundscape-core/core/roads"
	"github.com/microsoft/soundscape-core/core/spatial"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultSearchDistance = 500.0

	providerID = "preview"
)

var (
	ErrNotActive   = errors.New("preview is not active")
	ErrNoFocus     = errors.New("no road is focused")
	ErrNoHistory   = errors.New("nothing to go back to")
	ErrNoRoadsNear = errors.New("no roads near the starting point")
)

// visit is a decision point left behind, kept for going back.
type visit struct {
	location geometry.Coordinate
	key      string
}

// Behavior is the street preview. It is only used from the navigator's
// goroutine.
type Behavior struct {
	*behaviors.Base

	provider       spatial.Provider
	geolocation    *geolocation.Manager
	start          geometry.Coordinate
	searchDistance float64
	finderOptions  []roads.FinderOption
	history        *roads.MarkerHistory
	now            func() time.Time

	location *geolocation.SimulatedLocationProvider
	heading  *geolocation.StaticHeadingProvider

	current *roads.DecisionPoint
	via     *roads.AdjacentView
	focus   int
	trail   []visit

	observers []func(*roads.DecisionPoint)
}

type Option func(*Behavior)

// WithGeolocation installs simulated location and course providers into
// manager while the preview is active.
func WithGeolocation(manager *geolocation.Manager) Option {
	return func(b *Behavior) { b.geolocation = manager }
}

func WithSearchDistance(distance float64) Option {
	return func(b *Behavior) { b.searchDistance = distance }
}

func WithFinderOptions(opts ...roads.FinderOption) Option {
	return func(b *Behavior) { b.finderOptions = opts }
}

func WithMarkerHistory(history *roads.MarkerHistory) Option {
	return func(b *Behavior) { b.history = history }
}

func WithClock(now func() time.Time) Option {
	return func(b *Behavior) { b.now = now }
}

func NewBehavior(provider spatial.Provider, start geometry.Coordinate, opts ...Option) *Behavior {
	b := &Behavior{
		provider:       provider,
		start:          start,
		searchDistance: DefaultSearchDistance,
		now:            time.Now,
		focus:          -1,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.history == nil {
		b.history = roads.NewMarkerHistory(roads.WithHistoryClock(b.now))
	}

	b.Base = behaviors.NewBase("Street preview",
		behaviors.WithAutoGenerators(&AutoGenerator{preview: b}),
		behaviors.WithManualGenerators(&ManualGenerator{preview: b}),
	)
	return b
}

// OnNodeChanged registers fn to be called with every decision point the
// preview moves to.
func (b *Behavior) OnNodeChanged(fn func(*roads.DecisionPoint)) {
	b.observers = append(b.observers, fn)
}

// Current returns the decision point the preview is at.
func (b *Behavior) Current() (*roads.DecisionPoint, bool) {
	return b.current, b.current != nil
}

// Focused returns the edge the user is facing.
func (b *Behavior) Focused() (*roads.AdjacentView, bool) {
	if b.current == nil || b.focus < 0 || b.focus >= len(b.current.Edges) {
		return nil, false
	}
	return b.current.Edges[b.focus], true
}

// CanGoBack reports whether there is a previous decision point.
func (b *Behavior) CanGoBack() bool {
	return len(b.trail) > 0
}

func (b *Behavior) Activate(parent behaviors.Behavior, delegate behaviors.Delegate) {
	b.Base.Activate(parent, delegate)
	b.Block(ambient.AutoGeneratorID, false)

	if b.geolocation != nil {
		b.location = geolocation.NewSimulatedLocationProvider(providerID)
		b.heading = geolocation.NewStaticHeadingProvider(providerID)
		b.geolocation.AddLocationProvider(b.location)
		b.geolocation.AddHeadingProvider(geolocation.HeadingCourse, b.heading)
	}

	finder, err := b.finderAt(b.start)
	if err != nil {
		logger.Error("failed to start preview", "error", err)
		return
	}
	point, ok := roads.DecisionPointNear(finder, b.start)
	if !ok {
		logger.Warn("no roads near the preview start", "start", b.start.String())
		return
	}
	b.arrive(nil, point, nil, nil, false)
}

func (b *Behavior) Deactivate() behaviors.Behavior {
	if b.geolocation != nil {
		b.geolocation.RemoveLocationProvider(providerID)
		b.geolocation.RemoveHeadingProvider(geolocation.HeadingCourse, providerID)
	}
	b.location = nil
	b.heading = nil
	b.current = nil
	b.via = nil
	b.focus = -1
	b.trail = nil
	b.history.Reset()

	return b.Base.Deactivate()
}

func (b *Behavior) finderAt(location geometry.Coordinate) (*roads.Finder, error) {
	view, err := b.provider.DataView(location, b.searchDistance)
	if err != nil {
		return nil, fmt.Errorf("failed to load data view: %w", err)
	}
	return roads.NewFinder(view, b.finderOptions...), nil
}

// pointAt rebuilds the decision point at location from fresh data.
func (b *Behavior) pointAt(location geometry.Coordinate) (*roads.DecisionPoint, error) {
	finder, err := b.finderAt(location)
	if err != nil {
		return nil, err
	}
	view := finder.View()
	if intersection, ok := view.IntersectionAt(location); ok {
		return roads.NewDecisionPoint(finder, intersection), nil
	}
	for _, road := range view.Roads {
		if road.HasEndpoint(location) {
			node := &spatial.Intersection{Key: roads.RoadEndKey, Coordinate: location, Roads: []*spatial.Road{road}}
			return roads.NewDecisionPoint(finder, node), nil
		}
	}
	point, ok := roads.DecisionPointNear(finder, location)
	if !ok {
		return nil, ErrNoRoadsNear
	}
	return point, nil
}

// arrive makes point current, moves the simulated location there and
// announces it.
func (b *Behavior) arrive(from, point *roads.DecisionPoint, edge *roads.AdjacentView, passed []roads.AdjacentMarker, back bool) {
	b.current = point
	b.via = edge
	b.focus = -1

	heading := -1.0
	if edge != nil {
		if bearing, ok := edge.Result.ApproachBearing(); ok {
			heading = bearing
		}
	}
	if heading >= 0 {
		if next, ok := point.EdgeNearest(heading); ok {
			b.focusEdge(next)
		}
	}

	if b.location != nil {
		b.location.SetLocation(geometry.NewLocation(point.Location(), b.now()))
	}
	for _, fn := range b.observers {
		fn(point)
	}

	if delegate := b.Delegate(); delegate != nil {
		delegate.Process(NodeChanged{
			Base:    events.NewBase(KindNodeChanged),
			From:    from,
			To:      point,
			Edge:    edge,
			Markers: passed,
			Back:    back,
		})
	}
}

func (b *Behavior) focusEdge(edge *roads.AdjacentView) {
	for i, candidate := range b.current.Edges {
		if candidate == edge {
			b.setFocus(i)
			return
		}
	}
}

func (b *Behavior) setFocus(index int) {
	b.focus = index
	if b.heading == nil {
		return
	}
	if bearing, ok := b.current.Edges[index].Bearing(); ok {
		b.heading.SetHeading(bearing)
	}
}

// FocusNext focuses the next edge clockwise.
func (b *Behavior) FocusNext() (*roads.AdjacentView, bool) {
	return b.cycleFocus(1)
}

// FocusPrevious focuses the next edge counterclockwise.
func (b *Behavior) FocusPrevious() (*roads.AdjacentView, bool) {
	return b.cycleFocus(-1)
}

func (b *Behavior) cycleFocus(step int) (*roads.AdjacentView, bool) {
	if b.current == nil || len(b.current.Edges) == 0 {
		return nil, false
	}

	count := len(b.current.Edges)
	index := b.focus + step
	if b.focus < 0 && step < 0 {
		index = count - 1
	}
	b.setFocus((index%count + count) % count)
	return b.Focused()
}

// FocusBearing focuses the edge closest to bearing.
func (b *Behavior) FocusBearing(bearing float64) (*roads.AdjacentView, bool) {
	if b.current == nil {
		return nil, false
	}
	edge, ok := b.current.EdgeNearest(bearing)
	if !ok {
		return nil, false
	}
	b.focusEdge(edge)
	return edge, true
}

// Go walks the focused edge to the decision point at its end.
func (b *Behavior) Go() error {
	if !b.IsActive() || b.current == nil {
		return ErrNotActive
	}
	edge, ok := b.Focused()
	if !ok {
		return ErrNoFocus
	}

	_, span := tracer.Start(bgCtx, "walk edge", trace.WithAttributes(
		attribute.String("preview.road", edge.Name()),
		attribute.String("preview.endpoint", edge.Endpoint().Key),
		attribute.String("preview.style", edge.Result.Style.String()),
	))
	defer span.End()

	endpoint := edge.Endpoint().Coordinate
	finder, err := b.finderAt(endpoint)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load destination")
		return err
	}
	next := edge.Destination(finder)

	passed := b.passedMarkers(edge)
	from := b.current
	b.trail = append(b.trail, visit{location: from.Location(), key: from.Node.Key})
	logger.Debug("walked edge", "road", edge.Name(), "length", edge.Length(), "markers", len(passed))

	b.arrive(from, next, edge, passed, false)
	return nil
}

// passedMarkers returns the markers along edge that were not called out
// recently near the spot where the edge passes them.
func (b *Behavior) passedMarkers(edge *roads.AdjacentView) []roads.AdjacentMarker {
	var passed []roads.AdjacentMarker
	for _, marker := range edge.Markers {
		where, ok := geometry.ReferenceCoordinate(edge.Path, marker.Along)
		if !ok || !b.history.ShouldCallOut(marker.Key, where) {
			continue
		}
		b.history.Record(marker.Key, where)
		passed = append(passed, marker)
	}
	return passed
}

// Back returns to the decision point the last Go started from.
func (b *Behavior) Back() error {
	if !b.IsActive() || b.current == nil {
		return ErrNotActive
	}
	if len(b.trail) == 0 {
		return ErrNoHistory
	}

	last := b.trail[len(b.trail)-1]
	point, err := b.pointAt(last.location)
	if err != nil {
		return err
	}
	b.trail = b.trail[:len(b.trail)-1]

	logger.Debug("going back", "node", last.key)

	from := b.current
	b.arrive(from, point, nil, nil, true)
	for _, edge := range point.Edges {
		if edge.Endpoint().Coordinate == from.Location() {
			b.focusEdge(edge)
			break
		}
	}
	return nil
}

// Refresh rebuilds the current decision point from fresh data, for example
// after unnamed roads were hidden. The focus moves to the edge leaving in the
// direction of the previously focused one.
func (b *Behavior) Refresh() error {
	if !b.IsActive() || b.current == nil {
		return ErrNotActive
	}

	focused, hadFocus := b.Focused()
	point, err := b.pointAt(b.current.Location())
	if err != nil {
		return err
	}
	b.current = point
	b.focus = -1

	if !hadFocus {
		return nil
	}
	finder, err := b.finderAt(point.Location())
	if err != nil {
		return err
	}
	if refreshed, ok := focused.Refreshed(finder); ok {
		focused = refreshed
	}
	if bearing, ok := focused.Bearing(); ok {
		b.FocusBearing(bearing)
	}
	return nil
}
