package roads

import (
	"cmp"
	"slices"

	"github.com/microsoft/soundscape-core/core/geometry"
	"github.com/microsoft/soundscape-core/core/spatial"
)

// ResampleStep is the spacing in meters of the walking path along an edge.
const ResampleStep = 3.0

// AdjacentMarker is a marker passed while walking an edge.
type AdjacentMarker struct {
	spatial.Marker
	// Along is the distance walked from the start of the edge when the marker
	// is closest.
	Along float64
	// Distance separates the marker from the path at that point.
	Distance float64
}

// AdjacentView is a directed edge of the road graph: the road leading away
// from a decision point together with the markers along it.
type AdjacentView struct {
	Result  *SearchResult
	Path    []geometry.Coordinate
	Markers []AdjacentMarker
}

// NewAdjacentView resamples the search result into a walking path and
// collects the markers within their trigger range of it.
func NewAdjacentView(view *spatial.DataView, result *SearchResult) *AdjacentView {
	path := geometry.InterpolateToEqualDistance(result.Coordinates, ResampleStep)
	return &AdjacentView{
		Result:  result,
		Path:    path,
		Markers: adjacentMarkers(view.Markers, path),
	}
}

func adjacentMarkers(markers []spatial.Marker, path []geometry.Coordinate) []AdjacentMarker {
	if len(path) == 0 {
		return nil
	}

	along := make([]float64, len(path))
	for i := 1; i < len(path); i++ {
		along[i] = along[i-1] + geometry.Distance(path[i-1], path[i])
	}

	byKey := map[string]int{}
	var adjacent []AdjacentMarker
	for _, marker := range markers {
		best, bestDistance := -1, 0.0
		for i, coordinate := range path {
			if distance := geometry.Distance(marker.Location, coordinate); best < 0 || distance < bestDistance {
				best, bestDistance = i, distance
			}
		}
		if bestDistance > spatial.TriggerRange(marker.Category) {
			continue
		}

		candidate := AdjacentMarker{Marker: marker, Along: along[best], Distance: bestDistance}
		dedupKey := marker.Key
		if marker.Name != "" {
			dedupKey = marker.Category + "/" + marker.Name
		}
		if i, ok := byKey[dedupKey]; ok {
			if candidate.Distance < adjacent[i].Distance {
				adjacent[i] = candidate
			}
			continue
		}
		byKey[dedupKey] = len(adjacent)
		adjacent = append(adjacent, candidate)
	}

	slices.SortStableFunc(adjacent, func(a, b AdjacentMarker) int { return cmp.Compare(a.Along, b.Along) })
	return adjacent
}

func (v *AdjacentView) Endpoint() *spatial.Intersection {
	return v.Result.Intersection
}

func (v *AdjacentView) Bearing() (float64, bool) {
	return v.Result.Bearing()
}

func (v *AdjacentView) Length() float64 {
	return geometry.PathLength(v.Path)
}

// Name describes the street the edge follows.
func (v *AdjacentView) Name() string {
	return v.Result.Road.DisplayName()
}

// MarkersBetween returns the markers passed after walking more than from and
// at most to meters along the edge.
func (v *AdjacentView) MarkersBetween(from, to float64) []AdjacentMarker {
	var passed []AdjacentMarker
	for _, marker := range v.Markers {
		if marker.Along > from && marker.Along <= to {
			passed = append(passed, marker)
		}
	}
	return passed
}

// Refreshed rebuilds the edge against the finder's data view, which may
// differ from the one the edge was built from. It fails when the road is no
// longer part of the view.
func (v *AdjacentView) Refreshed(finder *Finder) (*AdjacentView, bool) {
	road, ok := finder.View().Road(v.Result.Road.Key)
	if !ok {
		return nil, false
	}

	result, ok := finder.Search(road, v.Result.Root(), v.Result.Direction)
	if !ok {
		return nil, false
	}
	return NewAdjacentView(finder.View(), result), true
}
