package navigation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/microsoft/soundscape-core/core/audio"
	"github.com/microsoft/soundscape-core/core/behaviors"
	"github.com/microsoft/soundscape-core/core/callouts"
	"github.com/microsoft/soundscape-core/core/events"
	"github.com/microsoft/soundscape-core/core/geolocation"
	"github.com/microsoft/soundscape-core/core/geometry"
)

type fakeEngine struct {
	mu          sync.Mutex
	plays       [][]audio.Sound
	completion  func(bool)
	stoppedWith []audio.Sound
	stops       int
}

func (e *fakeEngine) Play(sounds []audio.Sound, completion func(bool)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.plays = append(e.plays, sounds)
	if completion != nil {
		e.completion = completion
	}
}

func (e *fakeEngine) finish(success bool) {
	e.mu.Lock()
	completion := e.completion
	e.completion = nil
	e.mu.Unlock()

	if completion != nil {
		completion(success)
	}
}

func (e *fakeEngine) StopDiscrete(with audio.Sound) {
	e.mu.Lock()
	completion := e.completion
	e.completion = nil
	e.stops++
	if with != nil {
		e.stoppedWith = append(e.stoppedWith, with)
	}
	e.mu.Unlock()

	if completion != nil {
		completion(false)
	}
}

func (e *fakeEngine) IsDiscreteAudioPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.completion != nil
}

func (e *fakeEngine) played() [][]audio.Sound {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([][]audio.Sound(nil), e.plays...)
}

// glyphGenerator plays the group registered for a glyph's earcon.
type glyphGenerator struct {
	groups map[string]*callouts.Group
	chain  map[string]events.Event
}

func (g *glyphGenerator) ID() behaviors.GeneratorID { return "test.glyph" }

func (g *glyphGenerator) RespondsTo(kind events.Kind) bool {
	return kind == events.KindGlyph || kind == events.KindLocate
}

func (g *glyphGenerator) Handle(event events.Event, _ behaviors.Delegate) (behaviors.Action, bool) {
	switch e := event.(type) {
	case events.Glyph:
		if next, ok := g.chain[e.Earcon]; ok {
			return behaviors.ProcessEvents(next), true
		}
		if group, ok := g.groups[e.Earcon]; ok {
			return behaviors.PlayCallouts(group), true
		}
	case events.Locate:
		return behaviors.PlayCallouts(callouts.NewGroup([]callouts.Callout{callouts.NewStringCallout("test", "Here")})), true
	}
	return behaviors.NoAction(), false
}

type activationGenerator struct{ text string }

func (g activationGenerator) ID() behaviors.GeneratorID { return "test.activation" }

func (g activationGenerator) RespondsTo(kind events.Kind) bool {
	return kind == events.KindBehaviorActivated
}

func (g activationGenerator) Handle(events.Event, behaviors.Delegate) (behaviors.Action, bool) {
	group := callouts.NewGroup([]callouts.Callout{callouts.NewStringCallout("test", g.text)})
	return behaviors.PlayCallouts(group), true
}

type resettableBehavior struct {
	*behaviors.Base
	resets int
}

func (b *resettableBehavior) Reset() { b.resets++ }

type harness struct {
	navigator *Navigator
	engine    *fakeEngine
	glyphs    *glyphGenerator
	base      *resettableBehavior

	mu      sync.Mutex
	spoken  []string
	skipped []string
	seen    []events.Kind
}

func newHarness(t *testing.T, opts ...NavigatorOption) *harness {
	t.Helper()

	h := &harness{
		engine: &fakeEngine{},
		glyphs: &glyphGenerator{groups: map[string]*callouts.Group{}, chain: map[string]events.Event{}},
	}
	h.base = &resettableBehavior{Base: behaviors.NewBase("default", behaviors.WithManualGenerators(h.glyphs))}

	opts = append([]NavigatorOption{
		WithCalloutCallback(func(_ *callouts.Group, callout callouts.Callout) {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := callout.(*callouts.StringCallout); ok {
				h.spoken = append(h.spoken, c.Text())
			}
		}),
		WithGroupSkippedCallback(func(group *callouts.Group) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.skipped = append(h.skipped, group.ID)
		}),
		WithEventCallback(func(event events.Event) {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.seen = append(h.seen, event.Kind())
		}),
	}, opts...)

	h.navigator = NewNavigator(h.engine, h.base, opts...)
	if err := h.navigator.Start(context.Background()); err != nil {
		t.Fatalf("expected navigator to start, got %v", err)
	}
	t.Cleanup(h.navigator.Close)

	h.settle(t)
	return h
}

// settle waits until the navigator has processed everything queued,
// including the events queued while processing.
func (h *harness) settle(t *testing.T) {
	t.Helper()

	for range 50 {
		done := make(chan int)
		h.navigator.Dispatch(func() { done <- h.navigator.player.queuedEventCount() })

		select {
		case remaining := <-done:
			if remaining == 0 {
				return
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("expected navigator to settle")
		}
	}
	t.Fatalf("expected navigator queue to drain")
}

// onLoop runs fn on the navigator's goroutine and waits for it.
func (h *harness) onLoop(t *testing.T, fn func()) {
	t.Helper()

	done := make(chan struct{})
	h.navigator.Dispatch(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected dispatched function to run")
	}
}

func (h *harness) finish(t *testing.T) {
	t.Helper()
	h.engine.finish(true)
	h.settle(t)
}

func (h *harness) spokenTexts() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.spoken...)
}

func group(text string, opts ...callouts.GroupOption) *callouts.Group {
	return callouts.NewGroup([]callouts.Callout{callouts.NewStringCallout("test", text)}, opts...)
}

func TestNavigatorPlaysCalloutsFromGenerators(t *testing.T) {
	h := newHarness(t)

	h.navigator.Process(events.NewLocate())
	h.settle(t)

	if got := h.spokenTexts(); len(got) != 1 || got[0] != "Here" {
		t.Fatalf("expected [Here] to be spoken, got %v", got)
	}

	var playing bool
	h.onLoop(t, func() { playing = h.navigator.IsCalloutPlaying() })
	if !playing {
		t.Fatalf("expected callout to be playing")
	}

	h.finish(t)
	h.onLoop(t, func() { playing = h.navigator.IsCalloutPlaying() })
	if playing {
		t.Fatalf("expected nothing to be playing after the callout finished")
	}
}

func TestNavigatorQueueActions(t *testing.T) {
	h := newHarness(t)

	var skippedB, skippedC bool
	var finishedA *bool
	a := group("A", callouts.WithOnComplete(func(finished bool) { finishedA = &finished }))
	b := group("B", callouts.WithOnSkip(func() { skippedB = true }))
	c := group("C", callouts.WithAction(callouts.Clear), callouts.WithOnSkip(func() { skippedC = true }))
	d := group("D", callouts.WithAction(callouts.InterruptAndClear))
	for name, g := range map[string]*callouts.Group{"a": a, "b": b, "c": c, "d": d} {
		h.glyphs.groups[name] = g
	}

	for _, name := range []string{"a", "b"} {
		h.navigator.Process(events.NewGlyph(name))
	}
	h.settle(t)
	if got := h.spokenTexts(); len(got) != 1 || got[0] != "A" {
		t.Fatalf("expected only A to have started, got %v", got)
	}

	h.navigator.Process(events.NewGlyph("c"))
	h.settle(t)
	if !skippedB {
		t.Fatalf("expected clear to skip B")
	}

	h.navigator.Process(events.NewGlyph("d"))
	h.settle(t)
	if !skippedC {
		t.Fatalf("expected interrupt to skip C")
	}
	if finishedA == nil || *finishedA {
		t.Fatalf("expected A to complete unfinished, got %v", finishedA)
	}
	if got := h.spokenTexts(); len(got) != 2 || got[1] != "D" {
		t.Fatalf("expected D to play after A was interrupted, got %v", got)
	}

	h.mu.Lock()
	skipped := len(h.skipped)
	h.mu.Unlock()
	if skipped != 2 {
		t.Fatalf("expected 2 skipped groups, got %d", skipped)
	}
}

func TestNavigatorPlaysQueuedGroupsInOrder(t *testing.T) {
	h := newHarness(t)
	h.glyphs.groups["first"] = group("first")
	h.glyphs.groups["second"] = group("second")

	h.navigator.Process(events.NewGlyph("first"))
	h.navigator.Process(events.NewGlyph("second"))
	h.settle(t)
	h.finish(t)

	if got := h.spokenTexts(); len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Fatalf("expected [first second], got %v", got)
	}
}

func TestNavigatorHush(t *testing.T) {
	h := newHarness(t)

	h.navigator.Process(events.NewLocate())
	h.settle(t)
	h.navigator.Process(events.NewHush(true))
	h.settle(t)

	h.engine.mu.Lock()
	stoppedWith := append([]audio.Sound(nil), h.engine.stoppedWith...)
	h.engine.mu.Unlock()
	if len(stoppedWith) != 1 || stoppedWith[0] != audio.NewEarcon(audio.EarconHush) {
		t.Fatalf("expected callout to be stopped with the hush earcon, got %v", stoppedWith)
	}

	var playing bool
	h.onLoop(t, func() { playing = h.navigator.IsCalloutPlaying() })
	if playing {
		t.Fatalf("expected nothing to be playing after hush")
	}

	// Nothing is playing, the earcon is played on its own.
	h.navigator.Hush(true)
	h.settle(t)
	plays := h.engine.played()
	last := plays[len(plays)-1]
	if len(last) != 1 || last[0] != audio.NewEarcon(audio.EarconHush) {
		t.Fatalf("expected hush earcon to be played, got %v", last)
	}
}

func TestNavigatorProcessEventsAction(t *testing.T) {
	h := newHarness(t)
	h.glyphs.chain["chain"] = events.NewGlyph("target")
	h.glyphs.groups["target"] = group("chained")

	h.navigator.Process(events.NewGlyph("chain"))
	h.settle(t)

	if got := h.spokenTexts(); len(got) != 1 || got[0] != "chained" {
		t.Fatalf("expected chained event to play its callout, got %v", got)
	}
}

func TestNavigatorCustomBehavior(t *testing.T) {
	h := newHarness(t)

	first := behaviors.NewBase("first", behaviors.WithAutoGenerators(activationGenerator{text: "first started"}))
	if err := h.navigator.ActivateCustomBehavior(first); err != nil {
		t.Fatalf("expected activation to succeed, got %v", err)
	}
	h.settle(t)

	if !h.navigator.IsCustomBehaviorActive() {
		t.Fatalf("expected custom behavior to be active")
	}
	if !first.IsActive() || first.Parent() != h.base {
		t.Fatalf("expected custom behavior to be active on top of the default one")
	}
	if got := h.spokenTexts(); len(got) != 1 || got[0] != "first started" {
		t.Fatalf("expected activation callout, got %v", got)
	}

	// Manual events still reach the default behavior's generators.
	h.finish(t)
	h.navigator.Process(events.NewLocate())
	h.settle(t)
	if got := h.spokenTexts(); len(got) != 2 || got[1] != "Here" {
		t.Fatalf("expected default generator to handle locate, got %v", got)
	}

	second := behaviors.NewBase("second", behaviors.WithAutoGenerators(activationGenerator{text: "second started"}))
	if err := h.navigator.ActivateCustomBehavior(second); err != nil {
		t.Fatalf("expected activation to succeed, got %v", err)
	}
	h.settle(t)
	if first.IsActive() {
		t.Fatalf("expected first behavior to be replaced")
	}
	if got := h.spokenTexts(); got[len(got)-1] != "second started" {
		t.Fatalf("expected second activation callout, got %v", got)
	}

	if err := h.navigator.DeactivateCustomBehavior(); err != nil {
		t.Fatalf("expected deactivation to succeed, got %v", err)
	}
	h.settle(t)
	if h.navigator.IsCustomBehaviorActive() || second.IsActive() {
		t.Fatalf("expected custom behavior to be deactivated")
	}
	if err := h.navigator.DeactivateCustomBehavior(); !errors.Is(err, ErrNotActive) {
		t.Fatalf("expected ErrNotActive, got %v", err)
	}
}

func TestNavigatorSleepAndWake(t *testing.T) {
	h := newHarness(t)

	h.navigator.Sleep()
	h.navigator.Process(events.NewLocate())
	h.settle(t)
	if got := h.spokenTexts(); len(got) != 0 {
		t.Fatalf("expected nothing spoken while sleeping, got %v", got)
	}

	h.navigator.Wake()
	h.settle(t)
	if h.base.resets != 1 {
		t.Fatalf("expected default behavior to be reset on wake, got %d resets", h.base.resets)
	}

	h.navigator.Process(events.NewLocate())
	h.settle(t)
	if got := h.spokenTexts(); len(got) != 1 {
		t.Fatalf("expected locate to be handled after wake, got %v", got)
	}
}

func TestNavigatorTracksLocation(t *testing.T) {
	manager := geolocation.NewManager()
	provider := geolocation.NewSimulatedLocationProvider("sim")
	manager.AddLocationProvider(provider)

	h := newHarness(t, WithGeolocation(manager))

	location := geometry.Location{Coordinate: geometry.Coordinate{Latitude: 47.6, Longitude: -122.3}}
	provider.SetLocation(location)
	h.settle(t)

	var got geometry.Location
	var ok bool
	h.onLoop(t, func() { got, ok = h.navigator.Location() })
	if !ok || got.Coordinate != location.Coordinate {
		t.Fatalf("expected location %v, got %v (%v)", location.Coordinate, got.Coordinate, ok)
	}
}

func TestNavigatorClose(t *testing.T) {
	h := newHarness(t)

	custom := behaviors.NewBase("custom")
	if err := h.navigator.ActivateCustomBehavior(custom); err != nil {
		t.Fatalf("expected activation to succeed, got %v", err)
	}
	h.settle(t)

	h.navigator.Close()
	if custom.IsActive() {
		t.Fatalf("expected custom behavior to be deactivated on close")
	}
	if err := h.navigator.ActivateCustomBehavior(custom); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
