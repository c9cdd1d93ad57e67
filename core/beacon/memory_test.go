package beacon

import (
	"errors"
	"testing"
	"time"

	"github.com/microsoft/soundscape-core/core/geometry"
)

type manualTimer struct {
	pending []func()
}

func (t *manualTimer) afterFunc(_ time.Duration, fn func()) { t.pending = append(t.pending, fn) }

func (t *manualTimer) fire() {
	pending := t.pending
	t.pending = nil
	for _, fn := range pending {
		fn()
	}
}

var waypoint = Destination{ID: "waypoint-1", Name: "Fountain", Location: geometry.NewCoordinate(47.61, -122.0)}

func TestClearingAudibleBeaconFinishesAsynchronously(t *testing.T) {
	timer := &manualTimer{}
	manager := NewMemoryManager(WithTimer(timer.afterFunc))

	var finished []string
	manager.OnPlayerFinished(func(id string) { finished = append(finished, id) })

	if err := manager.SetDestination(waypoint, true, nil, "test"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	playerID, ok := manager.PlayerID()
	if !ok {
		t.Fatalf("expected a player id for an audible beacon")
	}
	if !manager.IsCurrentBeaconAsyncFinishable() {
		t.Fatalf("expected audible beacon to finish asynchronously")
	}

	if err := manager.ClearDestination("test"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if manager.IsDestinationSet() {
		t.Fatalf("expected destination to be cleared")
	}
	if len(finished) != 0 {
		t.Fatalf("expected finish to wait for the melody, got %v", finished)
	}

	timer.fire()
	if len(finished) != 1 || finished[0] != playerID {
		t.Fatalf("expected finish for %s, got %v", playerID, finished)
	}
}

func TestMutedBeaconFinishesSynchronously(t *testing.T) {
	timer := &manualTimer{}
	manager := NewMemoryManager(WithTimer(timer.afterFunc))

	if err := manager.SetDestination(waypoint, false, nil, "test"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if manager.IsCurrentBeaconAsyncFinishable() {
		t.Fatalf("expected muted beacon not to be async finishable")
	}
	if _, ok := manager.PlayerID(); ok {
		t.Fatalf("expected no player for a muted beacon")
	}

	if err := manager.ToggleDestinationAudio("test"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !manager.IsAudioEnabled() {
		t.Fatalf("expected audio to be enabled after toggle")
	}
	if err := manager.ToggleDestinationAudio("test"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := manager.ClearDestination("test"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(timer.pending) != 0 {
		t.Fatalf("expected no end melody for a muted beacon")
	}
}

func TestBeaconErrors(t *testing.T) {
	manager := NewMemoryManager()

	if err := manager.ClearDestination("test"); !errors.Is(err, ErrNoDestination) {
		t.Fatalf("expected ErrNoDestination, got %v", err)
	}
	if err := manager.ToggleDestinationAudio("test"); !errors.Is(err, ErrNoDestination) {
		t.Fatalf("expected ErrNoDestination, got %v", err)
	}

	invalid := Destination{ID: "bad", Location: geometry.NewCoordinate(120, 0)}
	if err := manager.SetDestination(invalid, true, nil, "test"); !errors.Is(err, ErrInvalidDestination) {
		t.Fatalf("expected ErrInvalidDestination, got %v", err)
	}
}
