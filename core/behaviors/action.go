package behaviors

import (
	"github.com/microsoft/soundscape-core/core/callouts"
	"github.com/microsoft/soundscape-core/core/events"
)

type ActionKind int

const (
	// ActionNone means the event was handled and there is nothing to do.
	ActionNone ActionKind = iota
	ActionPlayCallouts
	ActionProcessEvents
	ActionInterruptAndClearQueue
)

func (k ActionKind) String() string {
	switch k {
	case ActionPlayCallouts:
		return "play_callouts"
	case ActionProcessEvents:
		return "process_events"
	case ActionInterruptAndClearQueue:
		return "interrupt_and_clear_queue"
	}
	return "none"
}

// Action is what a generator wants done after handling an event.
type Action struct {
	Kind   ActionKind
	Group  *callouts.Group
	Events []events.Event
}

func NoAction() Action {
	return Action{Kind: ActionNone}
}

func PlayCallouts(group *callouts.Group) Action {
	return Action{Kind: ActionPlayCallouts, Group: group}
}

// ProcessEvents asks for events to be processed after the current one.
func ProcessEvents(evs ...events.Event) Action {
	return Action{Kind: ActionProcessEvents, Events: evs}
}

func InterruptAndClearQueue() Action {
	return Action{Kind: ActionInterruptAndClearQueue}
}
