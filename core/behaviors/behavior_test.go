package behaviors

import (
	"testing"

	"github.com/microsoft/soundscape-core/core/events"
	"github.com/microsoft/soundscape-core/core/geometry"
)

type recordingGenerator struct {
	id      GeneratorID
	kinds   Kinds
	handles bool
	seen    []events.Kind
}

func (g *recordingGenerator) ID() GeneratorID                  { return g.id }
func (g *recordingGenerator) RespondsTo(kind events.Kind) bool { return g.kinds.Contains(kind) }

func (g *recordingGenerator) Handle(event events.Event, _ Delegate) (Action, bool) {
	g.seen = append(g.seen, event.Kind())
	if !g.handles {
		return Action{}, false
	}
	return NoAction(), true
}

type nopDelegate struct{}

func (nopDelegate) Process(events.Event)                {}
func (nopDelegate) Dispatch(fn func())                  { fn() }
func (nopDelegate) Location() (geometry.Location, bool) { return geometry.Location{}, false }
func (nopDelegate) IsCalloutPlaying() bool              { return false }

func chain(top, bottom *Base) *Base {
	bottom.Activate(nil, nopDelegate{})
	top.Activate(bottom, nopDelegate{})
	return top
}

func TestConsumedEventStopsAtFirstHandler(t *testing.T) {
	skipping := &recordingGenerator{id: "skipping", kinds: Kinds{events.KindLocate}}
	handling := &recordingGenerator{id: "handling", kinds: Kinds{events.KindLocate}, handles: true}
	below := &recordingGenerator{id: "below", kinds: Kinds{events.KindLocate}, handles: true}

	top := chain(
		NewBase("custom", WithManualGenerators(skipping, handling)),
		NewBase("default", WithManualGenerators(below)),
	)

	actions := Handle(top, events.NewLocate(), nopDelegate{})
	if len(actions) != 1 {
		t.Fatalf("expected 1 action, got %d", len(actions))
	}
	if len(skipping.seen) != 1 || len(handling.seen) != 1 {
		t.Fatalf("expected both custom generators to be asked, got %v and %v", skipping.seen, handling.seen)
	}
	if len(below.seen) != 0 {
		t.Fatalf("expected consumed event not to reach the default behavior, got %v", below.seen)
	}
}

func TestUnhandledEventFallsThroughToParent(t *testing.T) {
	custom := &recordingGenerator{id: "custom", kinds: Kinds{events.KindLocate}}
	fallback := &recordingGenerator{id: "fallback", kinds: Kinds{events.KindLocate}, handles: true}

	top := chain(NewBase("custom", WithManualGenerators(custom)), NewBase("default", WithManualGenerators(fallback)))

	if actions := Handle(top, events.NewLocate(), nopDelegate{}); len(actions) != 1 {
		t.Fatalf("expected the parent to handle the event, got %d actions", len(actions))
	}
	if len(fallback.seen) != 1 {
		t.Fatalf("expected fallback to see the event")
	}
}

func TestBroadcastReachesAutoGenerators(t *testing.T) {
	guidance := &recordingGenerator{id: "guidance", kinds: Kinds{events.KindLocationUpdated}, handles: true}
	ambient := &recordingGenerator{id: "ambient", kinds: Kinds{events.KindLocationUpdated}, handles: true}
	locate := &recordingGenerator{id: "locate", kinds: Kinds{events.KindLocationUpdated}, handles: true}

	top := chain(
		NewBase("custom", WithAutoGenerators(guidance)),
		NewBase("default", WithAutoGenerators(ambient), WithManualGenerators(locate)),
	)

	actions := Handle(top, events.NewLocationUpdated(geometry.Location{}), nopDelegate{})
	if len(actions) != 2 {
		t.Fatalf("expected 2 actions, got %d", len(actions))
	}
	if len(locate.seen) != 0 {
		t.Fatalf("expected manual generators not to see state changes, got %v", locate.seen)
	}
}

func TestBlockedGeneratorsSkipBlockableEvents(t *testing.T) {
	ambient := &recordingGenerator{id: "ambient", kinds: Kinds{events.KindLocationUpdated, events.KindBehaviorActivated}, handles: true}
	custom := NewBase("custom")
	top := chain(custom, NewBase("default", WithAutoGenerators(ambient)))

	custom.Block("ambient", false)
	if !custom.IsBlocking("ambient", false) {
		t.Fatalf("expected ambient to be blocked")
	}

	Handle(top, events.NewLocationUpdated(geometry.Location{}), nopDelegate{})
	if len(ambient.seen) != 0 {
		t.Fatalf("expected blocked generator to be skipped, got %v", ambient.seen)
	}

	Handle(top, events.NewBehaviorActivated(custom.ID()), nopDelegate{})
	if len(ambient.seen) != 1 {
		t.Fatalf("expected non blockable event to reach blocked generator, got %v", ambient.seen)
	}

	custom.Unblock("ambient", false)
	Handle(top, events.NewLocationUpdated(geometry.Location{}), nopDelegate{})
	if len(ambient.seen) != 2 {
		t.Fatalf("expected unblocked generator to see the event, got %v", ambient.seen)
	}
}

func TestDeactivateReturnsParentAndClearsBlocks(t *testing.T) {
	parent := NewBase("default")
	custom := NewBase("custom")
	chain(custom, parent)
	custom.Block("ambient", false)

	if got := custom.Deactivate(); got != Behavior(parent) {
		t.Fatalf("expected parent to be returned, got %v", got)
	}
	if custom.IsActive() || custom.Parent() != nil {
		t.Fatalf("expected custom behavior to be inactive and detached")
	}
	if len(custom.BlockedGenerators(false)) != 0 {
		t.Fatalf("expected blocks to be cleared")
	}
}
