package events

import (
	"testing"
	"time"

	"github.com/microsoft/soundscape-core/core/geometry"
)

func TestConstructorsEmitExpectedKinds(t *testing.T) {
	location := geometry.NewLocation(geometry.Coordinate{Latitude: 1, Longitude: 2}, time.Time{})

	testCases := []struct {
		name         string
		event        Event
		expected     Kind
		class        Class
		distribution Distribution
		blockable    bool
	}{
		{name: "location updated", event: NewLocationUpdated(location), expected: KindLocationUpdated, class: ClassStateChanged, distribution: Broadcast, blockable: true},
		{name: "behavior activated", event: NewBehaviorActivated("tour"), expected: KindBehaviorActivated, class: ClassStateChanged, distribution: Consumed},
		{name: "behavior deactivated", event: NewBehaviorDeactivated("tour"), expected: KindBehaviorDeactivated, class: ClassStateChanged, distribution: Consumed},
		{name: "locate", event: NewLocate(), expected: KindLocate, class: ClassUserInitiated, distribution: Consumed},
		{name: "glyph", event: NewGlyph("mode_enter"), expected: KindGlyph, class: ClassUserInitiated, distribution: Consumed},
		{name: "hush", event: NewHush(true), expected: KindHush, class: ClassUserInitiated, distribution: Consumed},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := testCase.event.Kind(); got != testCase.expected {
				t.Fatalf("expected kind %q, got %q", testCase.expected, got)
			}
			if got := testCase.event.Class(); got != testCase.class {
				t.Fatalf("expected class %v, got %v", testCase.class, got)
			}
			if got := testCase.event.Distribution(); got != testCase.distribution {
				t.Fatalf("expected distribution %v, got %v", testCase.distribution, got)
			}
			if got := testCase.event.Blockable(); got != testCase.blockable {
				t.Fatalf("expected blockable %v, got %v", testCase.blockable, got)
			}
		})
	}
}

func TestUserInitiatedEventsAreAlwaysConsumed(t *testing.T) {
	base := NewUserInitiatedBase("user.test", Broadcasted())

	if base.Distribution() != Consumed {
		t.Fatalf("expected user initiated event to be consumed, got %v", base.Distribution())
	}
}

func TestLocationUpdatedUsesLocationTimestamp(t *testing.T) {
	timestamp := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	event := NewLocationUpdated(geometry.NewLocation(geometry.Coordinate{}, timestamp))

	if !event.Timestamp().Equal(timestamp) {
		t.Fatalf("expected timestamp %v, got %v", timestamp, event.Timestamp())
	}
	if got := Age(event, timestamp.Add(time.Minute)); got != time.Minute {
		t.Fatalf("expected age of one minute, got %v", got)
	}
}
