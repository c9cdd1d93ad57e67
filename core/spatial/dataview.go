package spatial

import (
	"cmp"
	"slices"

	"github.com/microsoft/soundscape-core/core/geometry"
)

// Provider answers nearest-neighbour queries around a location.
type Provider interface {
	DataView(location geometry.Coordinate, searchDistance float64) (*DataView, error)
}

// DataView is a snapshot of the spatial data around a location.
type DataView struct {
	Location       geometry.Coordinate
	SearchDistance float64
	Roads          []*Road
	Intersections  []*Intersection
	Markers        []Marker

	roadsByKey     map[string]*Road
	intersectionAt map[geometry.Coordinate]*Intersection
}

func NewDataView(location geometry.Coordinate, searchDistance float64, roads []*Road, intersections []*Intersection, markers []Marker) *DataView {
	view := &DataView{
		Location:       location,
		SearchDistance: searchDistance,
		Roads:          roads,
		Intersections:  intersections,
		Markers:        markers,
		roadsByKey:     make(map[string]*Road, len(roads)),
		intersectionAt: make(map[geometry.Coordinate]*Intersection, len(intersections)),
	}

	for _, road := range roads {
		view.roadsByKey[road.Key] = road
	}
	for _, intersection := range intersections {
		view.intersectionAt[intersection.Coordinate] = intersection
	}

	return view
}

func (v *DataView) Road(key string) (*Road, bool) {
	road, ok := v.roadsByKey[key]
	return road, ok
}

// IntersectionAt returns the intersection registered at coordinate.
func (v *DataView) IntersectionAt(coordinate geometry.Coordinate) (*Intersection, bool) {
	intersection, ok := v.intersectionAt[coordinate]
	return intersection, ok
}

// IntersectionsOn returns the intersections along road in path order.
func (v *DataView) IntersectionsOn(road *Road) []*Intersection {
	var intersections []*Intersection
	for _, coordinate := range road.Coordinates {
		if intersection, ok := v.intersectionAt[coordinate]; ok && !slices.Contains(intersections, intersection) {
			intersections = append(intersections, intersection)
		}
	}
	return intersections
}

// NearestRoad returns the road closest to coordinate together with the
// closest point on it and the distance to that point.
func (v *DataView) NearestRoad(coordinate geometry.Coordinate) (*Road, geometry.Coordinate, float64, bool) {
	var (
		best         *Road
		bestPoint    geometry.Coordinate
		bestDistance float64
	)

	for _, road := range v.Roads {
		point, ok := geometry.ClosestEdge(coordinate, road.Coordinates)
		if !ok {
			continue
		}
		if distance := geometry.Distance(coordinate, point); best == nil || distance < bestDistance {
			best, bestPoint, bestDistance = road, point, distance
		}
	}

	return best, bestPoint, bestDistance, best != nil
}

// NearestIntersection returns the closest intersection joining at least two
// different streets.
func (v *DataView) NearestIntersection(coordinate geometry.Coordinate) (*Intersection, float64, bool) {
	var (
		best         *Intersection
		bestDistance float64
	)

	for _, intersection := range v.Intersections {
		if intersection.DistinctRoadCount(false) < 2 {
			continue
		}
		if distance := geometry.Distance(coordinate, intersection.Coordinate); best == nil || distance < bestDistance {
			best, bestDistance = intersection, distance
		}
	}

	return best, bestDistance, best != nil
}

// MarkersWithin returns the markers within radius of coordinate, nearest
// first.
func (v *DataView) MarkersWithin(coordinate geometry.Coordinate, radius float64) []Marker {
	type candidate struct {
		marker   Marker
		distance float64
	}

	var candidates []candidate
	for _, marker := range v.Markers {
		if distance := geometry.Distance(coordinate, marker.Location); distance <= radius {
			candidates = append(candidates, candidate{marker: marker, distance: distance})
		}
	}
	slices.SortStableFunc(candidates, func(a, b candidate) int { return cmp.Compare(a.distance, b.distance) })

	markers := make([]Marker, 0, len(candidates))
	for _, c := range candidates {
		markers = append(markers, c.marker)
	}
	return markers
}
