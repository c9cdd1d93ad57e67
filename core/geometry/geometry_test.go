package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A short stretch of Pike Street, Seattle, used throughout the geometry tests.
var pike = []Coordinate{
	{Latitude: 47.61000, Longitude: -122.34000},
	{Latitude: 47.61000, Longitude: -122.33900},
	{Latitude: 47.61000, Longitude: -122.33800},
	{Latitude: 47.61000, Longitude: -122.33700},
}

func TestDistance(t *testing.T) {
	spaceNeedle := Coordinate{Latitude: 47.6205, Longitude: -122.3493}
	pikePlace := Coordinate{Latitude: 47.6097, Longitude: -122.3422}

	assert.InDelta(t, 1317, Distance(spaceNeedle, pikePlace), 15, "Space Needle to Pike Place is ~1.3km")
	assert.Zero(t, Distance(pikePlace, pikePlace))
}

func TestBearing(t *testing.T) {
	origin := Coordinate{Latitude: 47.61, Longitude: -122.34}

	for _, want := range []float64{0, 90, 225} {
		got := Bearing(origin, Destination(origin, want, 100))
		assert.InDelta(t, 0, BearingDifference(want, got), 0.01, "bearing %v", want)
	}
}

func TestPathBearing(t *testing.T) {
	_, ok := PathBearing(nil, 10)
	assert.False(t, ok, "empty path has no bearing")

	_, ok = PathBearing(pike[:1], 10)
	assert.False(t, ok, "a single point has no bearing")

	bearing, ok := PathBearing(pike, 25)
	require.True(t, ok)
	assert.InDelta(t, 90, bearing, 0.5, "Pike runs due east in the fixture")
}

func TestReferenceCoordinate(t *testing.T) {
	first, ok := ReferenceCoordinate(pike, 0)
	require.True(t, ok)
	assert.Equal(t, pike[0], first)

	below, _ := ReferenceCoordinate(pike, -50)
	assert.Equal(t, pike[0], below)

	last, ok := ReferenceCoordinate(pike, math.MaxFloat64)
	require.True(t, ok)
	assert.Equal(t, pike[len(pike)-1], last)

	segment := Distance(pike[0], pike[1])
	middle, ok := ReferenceCoordinate(pike, segment/2)
	require.True(t, ok)
	assert.InDelta(t, segment/2, Distance(pike[0], middle), 0.1)

	_, ok = ReferenceCoordinate(nil, 10)
	assert.False(t, ok)
}

func TestSquaredDistance(t *testing.T) {
	start, end := pike[0], pike[1]

	onSegment := Interpolate(start, end, 0.5)
	assert.InDelta(t, 0, SquaredDistance(onSegment, start, end, DefaultZoom), 1e-3)

	beyond := Destination(end, 90, 20)
	clamped := SquaredDistance(beyond, start, end, DefaultZoom)
	direct := SquaredDistance(beyond, end, end, DefaultZoom)
	assert.InDelta(t, direct, clamped, 1e-6, "projection past the end clamps to the endpoint")

	north := Destination(onSegment, 0, 10)
	farther := Destination(onSegment, 0, 20)
	assert.Less(t, SquaredDistance(north, start, end, DefaultZoom), SquaredDistance(farther, start, end, DefaultZoom))
}

func TestClosestEdge(t *testing.T) {
	middle := Interpolate(pike[1], pike[2], 0.5)
	from := Destination(middle, 0, 15)

	closest, ok := ClosestEdge(from, pike)
	require.True(t, ok)
	assert.InDelta(t, 0, Distance(closest, middle), 0.5)

	_, ok = ClosestEdge(from, nil)
	assert.False(t, ok)
}

func TestInterpolateToEqualDistance(t *testing.T) {
	resampled := InterpolateToEqualDistance(pike, 10)

	for _, vertex := range pike {
		assert.Contains(t, resampled, vertex, "original vertices are preserved")
	}
	for i := 1; i < len(resampled); i++ {
		assert.LessOrEqual(t, Distance(resampled[i-1], resampled[i]), 10.01)
	}
	assert.InDelta(t, PathLength(pike), PathLength(resampled), 0.5)
}

func TestCentroidUsesBoundingBox(t *testing.T) {
	// An L-shaped polygon: the bounding box centre is not the area centroid.
	shape := Shape{
		Type: ShapePolygon,
		Parts: [][]Coordinate{{
			{Latitude: 0, Longitude: 0},
			{Latitude: 0, Longitude: 4},
			{Latitude: 1, Longitude: 4},
			{Latitude: 1, Longitude: 1},
			{Latitude: 4, Longitude: 1},
			{Latitude: 4, Longitude: 0},
			{Latitude: 0, Longitude: 0},
		}},
	}

	centroid, ok := Centroid(shape)
	require.True(t, ok)
	assert.Equal(t, Coordinate{Latitude: 2, Longitude: 2}, centroid)

	point, ok := Centroid(Shape{Type: ShapePoint, Coordinates: []Coordinate{{Latitude: 3, Longitude: 5}}})
	require.True(t, ok)
	assert.Equal(t, Coordinate{Latitude: 3, Longitude: 5}, point)

	_, ok = Centroid(Shape{Type: ShapeLineString})
	assert.False(t, ok)
}

func TestPathIsCircular(t *testing.T) {
	a, b, c := pike[0], pike[1], pike[2]

	assert.True(t, PathIsCircular([]Coordinate{a, b, c, a}))
	assert.False(t, PathIsCircular([]Coordinate{a, b, c}))
	assert.False(t, PathIsCircular([]Coordinate{a, a}), "two points are never a loop")
	assert.False(t, PathIsCircular(nil))
}

func TestRotate(t *testing.T) {
	a, b, c, d := pike[0], pike[1], pike[2], pike[3]
	loop := []Coordinate{a, b, c, d, a}

	assert.Equal(t, []Coordinate{c, d, a, b, c}, Rotate(loop, c, false))
	assert.Equal(t, []Coordinate{c, b, a, d, c}, Rotate(loop, c, true))
	assert.Empty(t, Rotate([]Coordinate{a, b, c}, b, false), "non-circular paths cannot be rotated")
	assert.Empty(t, Rotate(loop, Destination(a, 0, 50), false))
}

func TestRotateRoundTrip(t *testing.T) {
	a, b, c, d := pike[0], pike[1], pike[2], pike[3]
	loop := []Coordinate{a, b, c, d, a}

	assert.Equal(t, loop, Rotate(Rotate(loop, c, false), a, false))
	assert.Equal(t, loop, Rotate(Rotate(loop, c, true), a, true))
}

func TestSplit(t *testing.T) {
	assert.Equal(t, pike[1:], Split(pike, pike[1], false))
	assert.Equal(t, []Coordinate{pike[1], pike[0]}, Split(pike, pike[1], true))
	assert.Empty(t, Split(pike, Coordinate{}, false))
}

func TestCardinalDirection(t *testing.T) {
	assert.Equal(t, "north", CardinalDirection(359))
	assert.Equal(t, "east", CardinalDirection(92))
	assert.Equal(t, "southwest", CardinalDirection(-135))
	assert.InDelta(t, 20, BearingDifference(350, 10), 1e-9)
}
