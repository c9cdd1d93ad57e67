package roads

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/microsoft/soundscape-core/core/geometry"
	"github.com/microsoft/soundscape-core/core/spatial"
)

// DecisionPoint is a node of the road graph together with the edges leading
// away from it. Decision points are rebuilt from their data view every time
// rather than cached, since road data changes with settings.
type DecisionPoint struct {
	Node  *spatial.Intersection
	Edges []*AdjacentView
}

// NewDecisionPoint enumerates the edges leaving node, ordered by bearing.
// Edges reaching the same intersection with the same bearing are kept once.
func NewDecisionPoint(finder *Finder, node *spatial.Intersection) *DecisionPoint {
	point := &DecisionPoint{Node: node}

	type edge struct {
		view    *AdjacentView
		bearing float64
	}
	seen := map[string]struct{}{}
	var edges []edge

	for _, road := range node.Roads {
		for _, result := range finder.SearchAll(road, node.Coordinate) {
			bearing, ok := result.Bearing()
			if !ok {
				continue
			}

			key := fmt.Sprintf("%s@%s/%d", result.Intersection.Key, result.Intersection.Coordinate, int(math.Round(bearing)))
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			edges = append(edges, edge{view: NewAdjacentView(finder.View(), result), bearing: bearing})
		}
	}

	slices.SortStableFunc(edges, func(a, b edge) int { return cmp.Compare(a.bearing, b.bearing) })
	for _, e := range edges {
		point.Edges = append(point.Edges, e.view)
	}
	return point
}

// DecisionPointNear builds the decision point at the intersection nearest to
// location. Without any intersection in view it starts from the nearest
// vertex of the nearest road.
func DecisionPointNear(finder *Finder, location geometry.Coordinate) (*DecisionPoint, bool) {
	view := finder.View()
	if intersection, _, ok := view.NearestIntersection(location); ok {
		return NewDecisionPoint(finder, intersection), true
	}

	road, _, _, ok := view.NearestRoad(location)
	if !ok {
		return nil, false
	}

	nearest := road.Coordinates[0]
	for _, coordinate := range road.Coordinates[1:] {
		if geometry.Distance(location, coordinate) < geometry.Distance(location, nearest) {
			nearest = coordinate
		}
	}

	node := &spatial.Intersection{Key: RoadEndKey, Coordinate: nearest, Roads: []*spatial.Road{road}}
	if intersection, ok := view.IntersectionAt(nearest); ok {
		node = intersection
	}
	return NewDecisionPoint(finder, node), true
}

func (d *DecisionPoint) Location() geometry.Coordinate {
	return d.Node.Coordinate
}

// EdgeNearest returns the edge whose bearing is closest to bearing.
func (d *DecisionPoint) EdgeNearest(bearing float64) (*AdjacentView, bool) {
	var (
		best       *AdjacentView
		bestOffset float64
	)
	for _, edge := range d.Edges {
		edgeBearing, ok := edge.Bearing()
		if !ok {
			continue
		}
		if offset := geometry.BearingDifference(bearing, edgeBearing); best == nil || offset < bestOffset {
			best, bestOffset = edge, offset
		}
	}
	return best, best != nil
}

// EdgeTo returns the edge that ends at the intersection with key.
func (d *DecisionPoint) EdgeTo(key string) (*AdjacentView, bool) {
	for _, edge := range d.Edges {
		if edge.Endpoint().Key == key {
			return edge, true
		}
	}
	return nil, false
}

// Destination builds the decision point at the far end of the edge.
func (v *AdjacentView) Destination(finder *Finder) *DecisionPoint {
	return NewDecisionPoint(finder, v.Endpoint())
}
