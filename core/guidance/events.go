package guidance

import "github.com/microsoft/soundscape-core/core/events"

const (
	KindNextWaypoint     events.Kind = "guidance.next_waypoint"
	KindPreviousWaypoint events.Kind = "guidance.previous_waypoint"
)

// WaypointArrival is sent once the user reached a waypoint and the beacon
// has finished moving on.
type WaypointArrival struct {
	events.Base
	ContentID string
	Index     int
	Waypoint  Waypoint
	Progress  Progress
}

// WaypointDeparture is sent when the user leaves for the waypoint at Index.
type WaypointDeparture struct {
	events.Base
	ContentID string
	Index     int
	Waypoint  Waypoint
	Progress  Progress
}

type NextWaypoint struct{ events.Base }

func NewNextWaypoint() NextWaypoint {
	return NextWaypoint{Base: events.NewUserInitiatedBase(KindNextWaypoint)}
}

type PreviousWaypoint struct{ events.Base }

func NewPreviousWaypoint() PreviousWaypoint {
	return PreviousWaypoint{Base: events.NewUserInitiatedBase(KindPreviousWaypoint)}
}
