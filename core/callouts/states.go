package callouts

type State int

const (
	StateOff State = iota
	StateStart
	StateStarting
	StateStop
	StateStopping
	StateAnnounceCallout
	StateAnnouncingCallout
	StateDelayingCalloutAnnounced
	StateComplete
	StateFailed
)

var stateNames = [...]string{
	StateOff:                      "off",
	StateStart:                    "start",
	StateStarting:                 "starting",
	StateStop:                     "stop",
	StateStopping:                 "stopping",
	StateAnnounceCallout:          "announceCallout",
	StateAnnouncingCallout:        "announcingCallout",
	StateDelayingCalloutAnnounced: "delayingCalloutAnnounced",
	StateComplete:                 "complete",
	StateFailed:                   "failed",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// active states are the ones a group can be hushed, stopped or failed from.
func (s State) active() bool {
	switch s {
	case StateStart, StateStarting, StateAnnounceCallout, StateAnnouncingCallout, StateDelayingCalloutAnnounced:
		return true
	}
	return false
}

type Trigger int

const (
	triggerStart Trigger = iota
	triggerStarting
	triggerStarted
	triggerAnnounce
	triggerSkip
	triggerCalloutAnnounced
	triggerDelayCalloutAnnounced
	triggerHush
	triggerStop
	triggerStopping
	triggerStopped
	triggerComplete
	triggerCompleted
	triggerFail
	triggerReset
)

var triggerNames = [...]string{
	triggerStart:                 "start",
	triggerStarting:              "starting",
	triggerStarted:               "started",
	triggerAnnounce:              "announce",
	triggerSkip:                  "skip",
	triggerCalloutAnnounced:      "calloutAnnounced",
	triggerDelayCalloutAnnounced: "delayCalloutAnnounced",
	triggerHush:                  "hush",
	triggerStop:                  "stop",
	triggerStopping:              "stopping",
	triggerStopped:               "stopped",
	triggerComplete:              "complete",
	triggerCompleted:             "completed",
	triggerFail:                  "fail",
	triggerReset:                 "reset",
}

func (t Trigger) String() string {
	if int(t) < len(triggerNames) {
		return triggerNames[t]
	}
	return "unknown"
}

// transitions lists the exact transitions per state. They take precedence
// over wildcardTransitions.
var transitions = map[State]map[Trigger]State{
	StateOff: {
		triggerStart: StateStart,
	},
	StateStart: {
		triggerStarting: StateStarting,
		triggerStarted:  StateAnnounceCallout,
	},
	StateStarting: {
		triggerStarted: StateAnnounceCallout,
	},
	StateAnnounceCallout: {
		triggerAnnounce: StateAnnouncingCallout,
		triggerSkip:     StateAnnounceCallout,
		triggerComplete: StateComplete,
	},
	StateAnnouncingCallout: {
		triggerDelayCalloutAnnounced: StateDelayingCalloutAnnounced,
	},
	StateDelayingCalloutAnnounced: {
		triggerCalloutAnnounced: StateAnnounceCallout,
	},
	StateStop: {
		triggerStopping: StateStopping,
		triggerStopped:  StateComplete,
	},
	StateStopping: {
		triggerStopped: StateComplete,
	},
	StateComplete: {
		triggerCompleted: StateOff,
	},
	StateFailed: {
		triggerReset: StateOff,
	},
}

// wildcardTransitions apply from any active state.
var wildcardTransitions = map[Trigger]State{
	triggerHush:     StateStop,
	triggerStop:     StateStop,
	triggerComplete: StateComplete,
	triggerFail:     StateFailed,
}

func nextState(from State, trigger Trigger) (State, bool) {
	if to, ok := transitions[from][trigger]; ok {
		return to, true
	}
	if to, ok := wildcardTransitions[trigger]; ok && from.active() {
		return to, true
	}
	return from, false
}
