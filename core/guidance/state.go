package guidance

import (
	"slices"
	"time"
)

// State is the persisted progress through a piece of content.
type State struct {
	ContentID string        `json:"contentId"`
	TotalTime time.Duration `json:"totalTime"`
	IsFinal   bool          `json:"isFinal"`
	// WaypointIndex is the waypoint the user is heading to.
	WaypointIndex *int `json:"waypointIndex,omitempty"`
	// Visited lists the reached waypoints in the order they were reached.
	Visited []int `json:"visited"`
}

// valid reports whether the state fits content with count waypoints.
func (s *State) valid(count int) bool {
	if s.WaypointIndex != nil && (*s.WaypointIndex < 0 || *s.WaypointIndex >= count) {
		return false
	}
	for i, index := range s.Visited {
		if index < 0 || index >= count || slices.Contains(s.Visited[:i], index) {
			return false
		}
	}
	return true
}

func (s *State) visit(index int) bool {
	if slices.Contains(s.Visited, index) {
		return false
	}
	s.Visited = append(s.Visited, index)
	return true
}

type Progress struct {
	Completed int  `json:"completed"`
	Total     int  `json:"total"`
	IsDone    bool `json:"isDone"`
}

func progressOf(state *State, total int) Progress {
	completed := len(state.Visited)
	return Progress{Completed: completed, Total: total, IsDone: completed >= total}
}
