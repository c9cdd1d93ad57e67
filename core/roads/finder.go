package roads

import (
	"slices"

	"github.com/microsoft/soundscape-core/core/geometry"
	"github.com/microsoft/soundscape-core/core/spatial"
)

const (
	// RoadEndKey identifies the intersection synthesized at a dead end.
	RoadEndKey = "-1"

	DefaultMaxSegments = 32

	// bearingDistance is how far along a path its bearing is measured.
	bearingDistance = 10.0
)

// Direction selects which way a search follows a road's coordinates.
type Direction int

const (
	// Leading follows the road in the order of its coordinates.
	Leading Direction = iota
	// Trailing walks back towards the road's first coordinate.
	Trailing
)

func (d Direction) String() string {
	if d == Trailing {
		return "trailing"
	}
	return "leading"
}

type Style int

const (
	StyleStandard Style = iota
	StyleRoundabout
	StyleCircleDrive
	StyleRoadEnd
)

var styleNames = [...]string{"standard", "roundabout", "circle_drive", "road_end"}

func (s Style) String() string {
	if int(s) < len(styleNames) {
		return styleNames[s]
	}
	return "unknown"
}

// SearchResult is the path from a root coordinate along a road to the
// nearest intersection in one direction.
type SearchResult struct {
	// Road is the road the search started on. The path may continue onto
	// further segments of the same street.
	Road         *spatial.Road
	Direction    Direction
	Intersection *spatial.Intersection
	// Coordinates runs from the root to the intersection, both included.
	Coordinates []geometry.Coordinate
	Style       Style
}

func (r *SearchResult) Root() geometry.Coordinate {
	return r.Coordinates[0]
}

func (r *SearchResult) Length() float64 {
	return geometry.PathLength(r.Coordinates)
}

func (r *SearchResult) IsRoadEnd() bool {
	return r.Style == StyleRoadEnd
}

// Bearing is the direction of travel when leaving the root.
func (r *SearchResult) Bearing() (float64, bool) {
	return geometry.PathBearing(r.Coordinates, bearingDistance)
}

// ApproachBearing is the direction of travel when arriving at the
// intersection.
func (r *SearchResult) ApproachBearing() (float64, bool) {
	bearing, ok := geometry.PathBearing(geometry.Reversed(r.Coordinates), bearingDistance)
	if !ok {
		return 0, false
	}
	return geometry.OppositeBearing(bearing), true
}

// Finder searches a data view for the intersections reachable along roads.
type Finder struct {
	view                    *spatial.DataView
	preferMainIntersections bool
	maxSegments             int
}

type FinderOption func(*Finder)

// WithMainIntersections makes searches pass over intersections where fewer
// than two main streets meet.
func WithMainIntersections(prefer bool) FinderOption {
	return func(f *Finder) { f.preferMainIntersections = prefer }
}

// WithMaxSegments bounds how many connected segments a search may follow.
func WithMaxSegments(n int) FinderOption {
	return func(f *Finder) {
		if n > 0 {
			f.maxSegments = n
		}
	}
}

func NewFinder(view *spatial.DataView, opts ...FinderOption) *Finder {
	f := &Finder{view: view, maxSegments: DefaultMaxSegments}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Finder) View() *spatial.DataView {
	return f.view
}

// Search follows road from root in direction until it reaches an
// intersection. It fails when root is not on road, when there is nothing to
// walk in that direction, or when the road loops back to root without
// passing an intersection.
func (f *Finder) Search(road *spatial.Road, root geometry.Coordinate, direction Direction) (*SearchResult, bool) {
	if !road.Contains(root) {
		logger.Debug("search root is not on road", "road", road.Key, "root", root.String())
		return nil, false
	}

	s := &search{
		Finder:  f,
		root:    root,
		visited: map[geometry.Coordinate]struct{}{root: {}},
	}
	intersection, coordinates, ok := s.walk(road, root, direction == Trailing, []geometry.Coordinate{root}, 0)
	if !ok {
		return nil, false
	}

	return &SearchResult{
		Road:         road,
		Direction:    direction,
		Intersection: intersection,
		Coordinates:  coordinates,
		Style:        styleOf(intersection),
	}, true
}

// SearchAll searches road from root in both directions.
func (f *Finder) SearchAll(road *spatial.Road, root geometry.Coordinate) []*SearchResult {
	var results []*SearchResult
	for _, direction := range []Direction{Leading, Trailing} {
		if result, ok := f.Search(road, root, direction); ok {
			results = append(results, result)
		}
	}
	return results
}

type search struct {
	*Finder
	root    geometry.Coordinate
	visited map[geometry.Coordinate]struct{}
}

// walk follows one road segment starting at from. trailing holds the path
// walked so far and ends with from.
func (s *search) walk(road *spatial.Road, from geometry.Coordinate, reversed bool, trailing []geometry.Coordinate, depth int) (*spatial.Intersection, []geometry.Coordinate, bool) {
	var path []geometry.Coordinate
	if road.IsCircular() {
		path = geometry.Rotate(road.Coordinates, from, reversed)
	} else {
		path = geometry.Split(road.Coordinates, from, reversed)
	}
	if len(path) < 2 {
		return nil, nil, false
	}

	coordinates := slices.Clone(trailing)
	for _, coordinate := range path[1:] {
		if _, seen := s.visited[coordinate]; seen {
			if coordinate == s.root {
				logger.Debug("road search looped back to its root", "road", road.Key)
				return nil, nil, false
			}
			if intersection, ok := s.view.IntersectionAt(from); ok && depth > 0 {
				logger.Debug("road search found a cycle", "road", road.Key, "at", coordinate.String())
				return intersection, trailing, true
			}
			return nil, nil, false
		}
		s.visited[coordinate] = struct{}{}
		coordinates = append(coordinates, coordinate)

		if intersection, ok := s.view.IntersectionAt(coordinate); ok && s.qualifies(intersection) {
			return intersection, coordinates, true
		}
	}

	end := path[len(path)-1]
	intersection, ok := s.view.IntersectionAt(end)
	if !ok {
		return roadEnd(road, end), coordinates, true
	}

	next := continuation(intersection, road, end)
	if next == nil || depth+1 >= s.maxSegments {
		return intersection, coordinates, true
	}

	nextReversed := !next.IsCircular() && next.Coordinates[0] != end && next.Coordinates[len(next.Coordinates)-1] == end
	return s.walk(next, end, nextReversed, coordinates, depth+1)
}

func (s *search) qualifies(intersection *spatial.Intersection) bool {
	if s.preferMainIntersections {
		return intersection.IsMain()
	}
	return intersection.DistinctRoadCount(false) >= 2
}

// continuation picks the segment a search carries on with at an intersection
// it passed over: another segment of the same street, or the only other road.
func continuation(intersection *spatial.Intersection, road *spatial.Road, at geometry.Coordinate) *spatial.Road {
	others := intersection.OtherRoads(road)
	for _, other := range others {
		if other.SameStreet(road) && other.Contains(at) {
			return other
		}
	}
	if len(others) == 1 && others[0].Contains(at) {
		return others[0]
	}
	return nil
}

func roadEnd(road *spatial.Road, at geometry.Coordinate) *spatial.Intersection {
	return &spatial.Intersection{
		Key:        RoadEndKey,
		Coordinate: at,
		Roads:      []*spatial.Road{road},
	}
}

func styleOf(intersection *spatial.Intersection) Style {
	switch {
	case intersection.Key == RoadEndKey:
		return StyleRoadEnd
	case intersection.IsSmallRoundabout():
		return StyleRoundabout
	case intersection.IsMain() && intersection.HasCircleDrive():
		return StyleCircleDrive
	}
	return StyleStandard
}
