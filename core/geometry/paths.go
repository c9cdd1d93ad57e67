package geometry

import (
	"slices"
)

// PathIsCircular reports whether path is a closed loop: more than two points
// with the first repeated as the last.
func PathIsCircular(path []Coordinate) bool {
	return len(path) > 2 && path[0] == path[len(path)-1]
}

// Rotate reorders a circular path so that it starts and ends at coordinate.
// When reversedDirection is set the loop is walked the other way around. A
// non-circular path, or a coordinate that is not on the loop, yields an empty
// path.
func Rotate(circularPath []Coordinate, coordinate Coordinate, reversedDirection bool) []Coordinate {
	if !PathIsCircular(circularPath) {
		return []Coordinate{}
	}

	ring := circularPath[:len(circularPath)-1]
	index := slices.Index(ring, coordinate)
	if index < 0 {
		return []Coordinate{}
	}

	rotated := make([]Coordinate, 0, len(circularPath))
	rotated = append(rotated, ring[index:]...)
	rotated = append(rotated, ring[:index]...)
	rotated = append(rotated, coordinate)

	if reversedDirection {
		slices.Reverse(rotated)
	}
	return rotated
}

// Split returns the part of path that starts at coordinate and continues in
// the requested direction: towards the end of the path by default, or back
// towards its start (in reverse order) when reversedDirection is set. The
// result is empty when coordinate is not on the path.
func Split(path []Coordinate, coordinate Coordinate, reversedDirection bool) []Coordinate {
	index := slices.Index(path, coordinate)
	if index < 0 {
		return []Coordinate{}
	}

	if reversedDirection {
		return Reversed(path[:index+1])
	}
	return slices.Clone(path[index:])
}
