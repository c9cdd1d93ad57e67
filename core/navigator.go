// Package navigation ties behaviors, generators and the callout state
// machine together into a single event loop.
package navigation

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/microsoft/soundscape-core/core/audio"
	"github.com/microsoft/soundscape-core/core/behaviors"
	"github.com/microsoft/soundscape-core/core/callouts"
	"github.com/microsoft/soundscape-core/core/events"
	"github.com/microsoft/soundscape-core/core/geolocation"
	"github.com/microsoft/soundscape-core/core/geometry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrClosed        = errors.New("navigator is closed")
	ErrNotActive     = errors.New("no custom behavior is active")
	ErrAlreadyActive = errors.New("behavior is already active")
)

// Navigator processes events on a single goroutine. The default behavior is
// always at the bottom of the behavior chain, at most one custom behavior
// sits on top of it.
type Navigator struct {
	engine          audio.Engine
	geolocation     *geolocation.Manager
	defaultBehavior behaviors.Behavior

	onEvent        func(events.Event)
	onCallout      func(*callouts.Group, callouts.Callout)
	onGroupSkipped func(*callouts.Group)

	player  *eventPlayer
	machine *callouts.StateMachine
	pending []*callouts.Group

	// Owned by the event loop.
	custom   behaviors.Behavior
	location *geometry.Location
	sleeping bool

	customActive atomic.Bool

	unsubscribe func()
	closeOnce   sync.Once
}

func NewNavigator(engine audio.Engine, defaultBehavior behaviors.Behavior, opts ...NavigatorOption) *Navigator {
	n := &Navigator{
		engine:          engine,
		defaultBehavior: defaultBehavior,
		player:          newEventPlayer(),
	}
	for _, opt := range opts {
		opt(n)
	}

	return n
}

// Start runs the event loop until ctx is done or Close is called. Events
// processed before Start wait in the queue.
func (n *Navigator) Start(ctx context.Context) error {
	if !n.player.CanIngest() {
		return ErrClosed
	}

	n.machine = callouts.NewStateMachine(n.engine, n, n,
		callouts.WithContext(ctx),
		callouts.WithLocationProvider(func() *geometry.Location { return n.location }),
	)
	if !n.player.StartLoop(ctx, n.processEvent) {
		return ErrClosed
	}

	n.Dispatch(func() {
		n.defaultBehavior.Activate(nil, n)
		logger.Info("navigator started", "behavior", n.defaultBehavior.Description())
	})

	if n.geolocation != nil {
		n.unsubscribe = n.geolocation.Subscribe(func(location geometry.Location) {
			n.Process(events.NewLocationUpdated(location))
		})
		if location, ok := n.geolocation.Location(); ok {
			n.Process(events.NewLocationUpdated(location))
		}
	}
	return nil
}

// Close stops the event loop and deactivates the custom behavior. Queued
// events are dropped.
func (n *Navigator) Close() {
	n.closeOnce.Do(func() {
		if n.unsubscribe != nil {
			n.unsubscribe()
		}

		n.player.Stop()
		n.player.AwaitDone()

		if n.custom != nil {
			n.custom.Deactivate()
			n.custom = nil
			n.customActive.Store(false)
		}
		if n.machine != nil {
			n.machine.Stop()
		}
		logger.Info("navigator closed")
	})
}

// Process queues event to be handled after everything already queued. It
// is safe to call from any goroutine.
func (n *Navigator) Process(event events.Event) {
	if !n.player.Ingest(event) {
		logger.Debug("dropping event, navigator is closed", "event", event.Kind())
	}
}

// Dispatch runs fn on the event loop. It is safe to call from any goroutine.
func (n *Navigator) Dispatch(fn func()) {
	if !n.player.IngestFunc(fn) {
		logger.Debug("dropping dispatched function, navigator is closed")
	}
}

// Location returns the latest location. Only call it from the event loop.
func (n *Navigator) Location() (geometry.Location, bool) {
	if n.location == nil {
		return geometry.Location{}, false
	}
	return *n.location, true
}

// IsCalloutPlaying reports whether a group is playing or waiting to play.
// Only call it from the event loop.
func (n *Navigator) IsCalloutPlaying() bool {
	return n.machine.IsActive() || len(n.pending) > 0
}

func (n *Navigator) IsCustomBehaviorActive() bool {
	return n.customActive.Load()
}

// ActivateCustomBehavior puts behavior on top of the default one, replacing
// the current custom behavior.
func (n *Navigator) ActivateCustomBehavior(behavior behaviors.Behavior) error {
	if behavior == nil {
		return errors.New("behavior is nil")
	}
	if !n.player.CanIngest() {
		return ErrClosed
	}

	n.customActive.Store(true)
	n.Dispatch(func() { n.activate(behavior) })
	return nil
}

// DeactivateCustomBehavior removes the custom behavior.
func (n *Navigator) DeactivateCustomBehavior() error {
	if !n.player.CanIngest() {
		return ErrClosed
	}
	if !n.customActive.Swap(false) {
		return ErrNotActive
	}

	n.Dispatch(n.deactivate)
	return nil
}

func (n *Navigator) activate(behavior behaviors.Behavior) {
	if n.custom == behavior {
		logger.Warn("behavior already active", "behavior", behavior.Description(), "error", ErrAlreadyActive)
		return
	}
	if n.custom != nil {
		n.deactivate()
		n.customActive.Store(true)
	}

	n.hush(false)
	behavior.Activate(n.defaultBehavior, n)
	n.custom = behavior
	n.processNow(events.NewBehaviorActivated(behavior.ID()))
}

func (n *Navigator) deactivate() {
	if n.custom == nil {
		return
	}

	behavior := n.custom
	n.custom = nil
	n.hush(false)
	behavior.Deactivate()
	n.processNow(events.NewBehaviorDeactivated(behavior.ID()))
}

// Hush silences the current callout and drops the queued ones.
func (n *Navigator) Hush(playSound bool) {
	n.Dispatch(func() { n.hush(playSound) })
}

func (n *Navigator) hush(playSound bool) {
	n.clearQueue()
	if n.machine.IsActive() {
		n.machine.Hush(playSound)
		return
	}
	if playSound {
		n.engine.Play([]audio.Sound{audio.NewEarcon(audio.EarconHush)}, nil)
	}
}

// Sleep silences the navigator and ignores events other than behavior
// changes until Wake.
func (n *Navigator) Sleep() {
	n.Dispatch(func() {
		if n.sleeping {
			return
		}
		n.sleeping = true
		n.hush(false)
		logger.Info("navigator sleeping")
	})
}

func (n *Navigator) Wake() {
	n.Dispatch(func() {
		if !n.sleeping {
			return
		}
		n.sleeping = false
		if resetter, ok := n.defaultBehavior.(interface{ Reset() }); ok {
			resetter.Reset()
		}
		logger.Info("navigator awake")
	})
}

func (n *Navigator) top() behaviors.Behavior {
	if n.custom != nil {
		return n.custom
	}
	return n.defaultBehavior
}

// processNow handles event immediately instead of queueing it. Only call
// it from the event loop.
func (n *Navigator) processNow(event events.Event) {
	n.processEvent(bgCtx, event)
}

func (n *Navigator) processEvent(ctx context.Context, event events.Event) {
	span := trace.SpanFromContext(ctx)
	if n.onEvent != nil {
		n.onEvent(event)
	}

	switch e := event.(type) {
	case events.Hush:
		n.hush(e.PlaySound)
		return
	case events.LocationUpdated:
		location := e.Location
		n.location = &location
	}

	if n.sleeping {
		switch event.Kind() {
		case events.KindBehaviorActivated, events.KindBehaviorDeactivated:
		default:
			span.AddEvent("dropped while sleeping")
			return
		}
	}

	eventsProcessed.Add(ctx, 1, metric.WithAttributes(attribute.String("event.kind", string(event.Kind()))))
	actions := behaviors.Handle(n.top(), event, n)
	span.SetAttributes(attribute.Int("event.actions", len(actions)))

	for _, action := range actions {
		switch action.Kind {
		case behaviors.ActionPlayCallouts:
			n.enqueue(action.Group)
		case behaviors.ActionProcessEvents:
			for _, next := range action.Events {
				n.Process(next)
			}
		case behaviors.ActionInterruptAndClearQueue:
			n.hush(false)
		}
	}
}
