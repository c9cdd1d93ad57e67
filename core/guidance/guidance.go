// Package guidance walks the user through an ordered list of waypoints,
// either as a guided tour or as route guidance.
//
// Arrival at a waypoint does not play anything right away. The waypoint is
// marked visited, the beacon moves on to the next waypoint and the arrival
// callout plays only once the old beacon's end melody has finished. Output
// is ordered arrival, then departure, then distance updates towards the next
// waypoint.
package guidance

import (
	"fmt"
	"math"
	"time"

	"github.com/jinzhu/copier"
	"github.com/microsoft/soundscape-core/core/ambient"
	"github.com/microsoft/soundscape-core/core/beacon"
	"github.com/microsoft/soundscape-core/core/behaviors"
	"github.com/microsoft/soundscape-core/core/events"
	"github.com/microsoft/soundscape-core/core/filters"
	"github.com/microsoft/soundscape-core/core/geometry"
	"github.com/microsoft/soundscape-core/core/spatial"
	"github.com/microsoft/soundscape-core/internal/utils"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultArrivalDistance      = 12.0
	DefaultDepartureDistance    = 10.0
	DefaultAmbientBlockDistance = 40.0

	intersectionSearchDistance = 100.0
)

// pendingTransition is a beacon change waiting for the outgoing beacon's
// player to finish.
type pendingTransition struct {
	playerID    string
	target      *int
	enableAudio bool
	arrival     *int
	departure   bool
}

// Guidance is the behavior shared by guided tours and route guidance. It is
// only used from the navigator's goroutine.
type Guidance struct {
	*behaviors.Base

	flavor   Flavor
	content  Content
	beacon   beacon.Manager
	store    Store
	provider spatial.Provider
	filter   *filters.BeaconUpdateFilter
	now      func() time.Time

	arrivalDistance      float64
	departureDistance    float64
	ambientBlockDistance float64
	ambientGenerator     behaviors.GeneratorID
	shouldResume         bool
	beaconAudio          bool

	state    State
	lastTick time.Time

	pending                            *pendingTransition
	awaitingArrivalCallout             bool
	awaitingDeparture                  bool
	awaitingDepartureCalloutCompletion bool
	arrivalLocation                    *geometry.Coordinate

	nearestIntersection *spatial.Intersection
	unsubscribe         func()

	progressObservers []func(Progress)
	stateObservers    []func(State)
}

type Option func(*Guidance)

func WithStore(store Store) Option {
	return func(g *Guidance) { g.store = store }
}

// WithSpatialProvider lets tours track the intersection nearest to the
// user.
func WithSpatialProvider(provider spatial.Provider) Option {
	return func(g *Guidance) { g.provider = provider }
}

func WithArrivalDistance(distance float64) Option {
	return func(g *Guidance) { g.arrivalDistance = distance }
}

func WithDepartureDistance(distance float64) Option {
	return func(g *Guidance) { g.departureDistance = distance }
}

// WithAmbientBlock blocks the generator with id while the user is within
// distance of the current waypoint.
func WithAmbientBlock(id behaviors.GeneratorID, distance float64) Option {
	return func(g *Guidance) {
		g.ambientGenerator = id
		g.ambientBlockDistance = distance
	}
}

// WithResume continues from the saved state on activation instead of
// starting over. Only resumable flavors honor it.
func WithResume(resume bool) Option {
	return func(g *Guidance) { g.shouldResume = resume }
}

func WithBeaconAudio(enabled bool) Option {
	return func(g *Guidance) { g.beaconAudio = enabled }
}

// WithBeaconFilter replaces the filter that throttles distance callouts.
func WithBeaconFilter(filter *filters.BeaconUpdateFilter) Option {
	return func(g *Guidance) { g.filter = filter }
}

func WithClock(now func() time.Time) Option {
	return func(g *Guidance) { g.now = now }
}

func New(flavor Flavor, content Content, beaconManager beacon.Manager, opts ...Option) (*Guidance, error) {
	if err := content.Validate(); err != nil {
		return nil, err
	}

	g := &Guidance{
		flavor:  flavor,
		content: content,
		beacon:  beaconManager,
		now:     time.Now,

		arrivalDistance:      DefaultArrivalDistance,
		departureDistance:    DefaultDepartureDistance,
		ambientBlockDistance: DefaultAmbientBlockDistance,
		ambientGenerator:     ambient.AutoGeneratorID,
		beaconAudio:          true,

		state: State{ContentID: content.ID},
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.filter == nil {
		g.filter = filters.NewBeaconUpdateFilter(filters.DefaultBeaconMinTime, filters.DefaultBeaconUpdateRange, filters.DefaultBeaconRange, filters.WithBeaconClock(g.now))
	}

	g.Base = behaviors.NewBase(fmt.Sprintf("%s: %s", flavor.Name, content.Name),
		behaviors.WithAutoGenerators(&AutoGenerator{guidance: g}),
		behaviors.WithManualGenerators(&ManualGenerator{guidance: g}),
	)
	return g, nil
}

func NewGuidedTour(content Content, beaconManager beacon.Manager, opts ...Option) (*Guidance, error) {
	return New(Tour, content, beaconManager, opts...)
}

func NewRouteGuidance(content Content, beaconManager beacon.Manager, opts ...Option) (*Guidance, error) {
	return New(Route, content, beaconManager, opts...)
}

func (g *Guidance) Flavor() Flavor   { return g.flavor }
func (g *Guidance) Content() Content { return g.content }

// OnProgress registers fn to be called with the progress after every state
// change.
func (g *Guidance) OnProgress(fn func(Progress)) {
	g.progressObservers = append(g.progressObservers, fn)
}

// OnStateChanged registers fn to be called with a copy of the state after
// every state change.
func (g *Guidance) OnStateChanged(fn func(State)) {
	g.stateObservers = append(g.stateObservers, fn)
}

// State returns a deep copy of the current state.
func (g *Guidance) State() State {
	var snapshot State
	if err := copier.CopyWithOption(&snapshot, &g.state, copier.Option{DeepCopy: true}); err != nil {
		logger.Error("failed to copy guidance state", "error", err)
	}
	return snapshot
}

func (g *Guidance) Progress() Progress {
	return progressOf(&g.state, len(g.content.Waypoints))
}

// CurrentWaypoint returns the waypoint the user is heading to.
func (g *Guidance) CurrentWaypoint() (Waypoint, int, bool) {
	if g.state.WaypointIndex == nil {
		return Waypoint{}, 0, false
	}
	index := *g.state.WaypointIndex
	return g.content.Waypoints[index], index, true
}

// NearestIntersection is the intersection closest to the user, tracked by
// tours when a spatial provider is available.
func (g *Guidance) NearestIntersection() (*spatial.Intersection, bool) {
	return g.nearestIntersection, g.nearestIntersection != nil
}

// IsAwaitingTransition reports whether a beacon change is waiting for the
// outgoing beacon to finish.
func (g *Guidance) IsAwaitingTransition() bool {
	return g.pending != nil
}

func (g *Guidance) logContext() string {
	return g.flavor.Name + ":" + g.content.ID
}

func (g *Guidance) Activate(parent behaviors.Behavior, delegate behaviors.Delegate) {
	g.Base.Activate(parent, delegate)

	g.unsubscribe = g.beacon.OnPlayerFinished(func(playerID string) {
		delegate.Dispatch(func() { g.playerFinished(playerID) })
	})

	g.loadState()
	g.lastTick = g.now()
	if g.state.WaypointIndex == nil {
		g.state.WaypointIndex = utils.Ptr(0)
	}
	g.save()

	if !g.state.IsFinal {
		g.setOrTransitionBeacon(utils.Ptr(*g.state.WaypointIndex), nil, false)
	}
}

func (g *Guidance) loadState() {
	g.state = State{ContentID: g.content.ID}
	if g.store == nil || !g.flavor.Resumable || !g.shouldResume {
		return
	}

	state, ok := g.store.Load(g.flavor.Name, g.content.ID)
	if !ok {
		return
	}
	if !state.valid(len(g.content.Waypoints)) {
		logger.Warn("discarding saved state that does not fit the content", "content_id", g.content.ID)
		return
	}
	g.state = state
	logger.Info("resuming guidance", "content_id", g.content.ID, "visited", len(state.Visited))
}

func (g *Guidance) Deactivate() behaviors.Behavior {
	if g.unsubscribe != nil {
		g.unsubscribe()
		g.unsubscribe = nil
	}

	g.pending = nil
	g.awaitingArrivalCallout = false
	g.awaitingDeparture = false
	g.awaitingDepartureCalloutCompletion = false
	g.arrivalLocation = nil

	if g.beacon.IsDestinationSet() {
		if err := g.beacon.ClearDestination(g.logContext()); err != nil {
			logger.Error("failed to clear beacon", "error", err, "context", g.logContext())
		}
	}
	g.save()

	return g.Base.Deactivate()
}

// save persists the state and notifies the observers.
func (g *Guidance) save() {
	now := g.now()
	if !g.lastTick.IsZero() {
		g.state.TotalTime += now.Sub(g.lastTick)
	}
	g.lastTick = now

	snapshot := g.State()
	if g.store != nil {
		if err := g.store.Save(g.flavor.Name, snapshot); err != nil {
			logger.Error("failed to save guidance state", "error", err, "content_id", g.content.ID)
		}
	}

	progress := g.Progress()
	for _, fn := range g.stateObservers {
		fn(snapshot)
	}
	for _, fn := range g.progressObservers {
		fn(progress)
	}
}

func (g *Guidance) setBeacon(index int, enableAudio bool) {
	waypoint := g.content.Waypoints[index]

	var userLocation *geometry.Location
	if delegate := g.Delegate(); delegate != nil {
		if location, ok := delegate.Location(); ok {
			userLocation = &location
		}
	}

	destination := beacon.Destination{ID: waypoint.ID, Name: waypoint.Name, Location: waypoint.Location}
	if err := g.beacon.SetDestination(destination, enableAudio, userLocation, g.logContext()); err != nil {
		logger.Error("failed to set beacon", "error", err, "waypoint", index, "context", g.logContext())
		return
	}
	g.filter.Start(waypoint.Location)
}

// setOrTransitionBeacon moves the beacon to target, or only clears it when
// target is nil. When the current beacon finishes asynchronously the change,
// and the arrival or departure it announces, waits for its player to finish.
func (g *Guidance) setOrTransitionBeacon(target *int, arrival *int, departure bool) {
	_, span := tracer.Start(bgCtx, "transition beacon", trace.WithAttributes(
		attribute.String("guidance.flavor", g.flavor.Name),
		attribute.Bool("guidance.departure", departure),
	))
	defer span.End()

	if !g.beacon.IsDestinationSet() {
		if target != nil {
			g.setBeacon(*target, g.beaconAudio)
		}
		g.finishTransition(arrival, departure)
		return
	}

	audioEnabled := g.beacon.IsAudioEnabled()
	if audioEnabled && g.beacon.IsCurrentBeaconAsyncFinishable() {
		playerID, _ := g.beacon.PlayerID()
		if err := g.beacon.ClearDestination(g.logContext()); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to clear beacon")
			logger.Error("failed to clear beacon", "error", err, "context", g.logContext())
		} else {
			g.pending = &pendingTransition{
				playerID:    playerID,
				target:      target,
				enableAudio: audioEnabled,
				arrival:     arrival,
				departure:   departure,
			}
			span.AddEvent("waiting for beacon player", trace.WithAttributes(attribute.String("beacon.player_id", playerID)))
			return
		}
	} else if err := g.beacon.ClearDestination(g.logContext()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to clear beacon")
		logger.Error("failed to clear beacon", "error", err, "context", g.logContext())
	}

	if target != nil {
		g.setBeacon(*target, audioEnabled)
	}
	g.finishTransition(arrival, departure)
}

func (g *Guidance) playerFinished(playerID string) {
	if !g.IsActive() || g.pending == nil || g.pending.playerID != playerID {
		logger.Debug("ignoring beacon player finish", "player", playerID)
		return
	}

	pending := g.pending
	g.pending = nil
	if pending.target != nil {
		g.setBeacon(*pending.target, pending.enableAudio)
	}
	g.finishTransition(pending.arrival, pending.departure)
}

func (g *Guidance) finishTransition(arrival *int, departure bool) {
	delegate := g.Delegate()
	if delegate == nil {
		return
	}

	if arrival != nil {
		g.awaitingArrivalCallout = true
		delegate.Process(g.arrivalEvent(*arrival))
	}
	if departure {
		if event, ok := g.departureEvent(); ok {
			delegate.Process(event)
		}
	}
}

func (g *Guidance) arrivalEvent(index int) WaypointArrival {
	return WaypointArrival{
		Base:      events.NewBase(g.flavor.ArrivalKind),
		ContentID: g.content.ID,
		Index:     index,
		Waypoint:  g.content.Waypoints[index],
		Progress:  g.Progress(),
	}
}

func (g *Guidance) departureEvent() (WaypointDeparture, bool) {
	waypoint, index, ok := g.CurrentWaypoint()
	if !ok || g.state.IsFinal {
		return WaypointDeparture{}, false
	}
	g.awaitingDepartureCalloutCompletion = true
	return WaypointDeparture{
		Base:      events.NewBase(g.flavor.DepartureKind),
		ContentID: g.content.ID,
		Index:     index,
		Waypoint:  waypoint,
		Progress:  g.Progress(),
	}, true
}

// completeCurrentWaypoint marks the current waypoint visited and moves on to
// the next one. Completing a waypoint that was visited before only advances.
func (g *Guidance) completeCurrentWaypoint(location geometry.Location) {
	_, index, ok := g.CurrentWaypoint()
	if !ok || g.state.IsFinal || g.pending != nil || g.awaitingArrivalCallout {
		return
	}

	if g.state.visit(index) {
		waypointsCompleted.Add(bgCtx, 1, metric.WithAttributes(attribute.String("guidance.flavor", g.flavor.Name)))
	}
	g.arrivalLocation = &location.Coordinate
	g.awaitingDeparture = false
	logger.Info("waypoint reached", "index", index, "content_id", g.content.ID, "visited", len(g.state.Visited))

	if index == len(g.content.Waypoints)-1 {
		g.state.IsFinal = true
		g.save()
		g.setOrTransitionBeacon(nil, &index, false)
		return
	}

	g.state.WaypointIndex = utils.Ptr(index + 1)
	g.save()
	g.setOrTransitionBeacon(utils.Ptr(index+1), &index, false)
}

// NextWaypoint skips ahead to the next waypoint and announces the departure.
// It returns false on the last waypoint.
func (g *Guidance) NextWaypoint() bool {
	_, index, ok := g.CurrentWaypoint()
	if !ok || index >= len(g.content.Waypoints)-1 {
		return false
	}
	g.moveTo(index + 1)
	return true
}

// PreviousWaypoint goes back to the previous waypoint and announces the
// departure. It returns false on the first waypoint. Going back from a
// completed route or tour reopens it at the second to last waypoint.
func (g *Guidance) PreviousWaypoint() bool {
	_, index, ok := g.CurrentWaypoint()
	if !ok || index <= 0 {
		return false
	}
	g.moveTo(index - 1)
	return true
}

func (g *Guidance) moveTo(index int) {
	if pending := g.pending; pending != nil {
		g.pending = nil
		g.finishTransition(pending.arrival, false)
	}

	g.state.IsFinal = false
	g.state.WaypointIndex = &index
	g.awaitingDeparture = false
	g.arrivalLocation = nil
	g.save()

	g.setOrTransitionBeacon(&index, nil, true)
}

func (g *Guidance) arrivalCalloutFinished() {
	g.awaitingArrivalCallout = false
	if g.state.IsFinal {
		logger.Info("guidance complete", "content_id", g.content.ID, "total_time", g.state.TotalTime)
		g.updateAmbientBlock(math.Inf(1))
		return
	}
	g.awaitingDeparture = g.arrivalLocation != nil
}

func (g *Guidance) departureCalloutFinished() {
	g.awaitingDepartureCalloutCompletion = false
	if delegate := g.Delegate(); delegate != nil {
		if location, ok := delegate.Location(); ok {
			filters.Record(g.filter, location, true)
		}
	}
}

// updateAmbientBlock keeps ambient callouts quiet near the current waypoint
// and while an arrival is in flight.
func (g *Guidance) updateAmbientBlock(distance float64) {
	if g.ambientGenerator == "" {
		return
	}

	near := distance <= g.ambientBlockDistance || g.pending != nil || g.awaitingArrivalCallout
	if near == g.IsBlocking(g.ambientGenerator, false) {
		return
	}
	if near {
		g.Block(g.ambientGenerator, false)
	} else {
		g.Unblock(g.ambientGenerator, false)
	}
}

func (g *Guidance) trackNearestIntersection(location geometry.Location) {
	if !g.flavor.TrackNearestIntersection || g.provider == nil {
		return
	}

	view, err := g.provider.DataView(location.Coordinate, intersectionSearchDistance)
	if err != nil {
		logger.Debug("failed to load data view for nearest intersection", "error", err)
		return
	}

	intersection, _, ok := view.NearestIntersection(location.Coordinate)
	if !ok {
		g.nearestIntersection = nil
		return
	}
	if g.nearestIntersection == nil || g.nearestIntersection.Key != intersection.Key {
		logger.Debug("nearest intersection changed", "intersection", intersection.Key)
	}
	g.nearestIntersection = intersection
}
