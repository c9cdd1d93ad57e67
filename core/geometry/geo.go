package geometry

import (
	"math"
	"slices"
)

func toRadians(degrees float64) float64 { return degrees * math.Pi / 180 }

func toDegrees(radians float64) float64 { return radians * 180 / math.Pi }

// Distance calculates the great-circle distance between two coordinates using
// the haversine formula.
func Distance(a, b Coordinate) float64 {
	if a == b {
		return 0
	}

	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dlat := lat2 - lat1
	dlon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	return EarthRadius * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Bearing returns the initial great-circle bearing from a to b, normalized to
// [0, 360).
func Bearing(from, to Coordinate) float64 {
	lat1 := toRadians(from.Latitude)
	lat2 := toRadians(to.Latitude)
	dlon := toRadians(to.Longitude - from.Longitude)

	y := math.Sin(dlon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dlon)
	return NormalizeBearing(toDegrees(math.Atan2(y, x)))
}

// Destination returns the coordinate reached by travelling distance meters from
// origin along bearing.
func Destination(origin Coordinate, bearing, distance float64) Coordinate {
	delta := distance / EarthRadius
	theta := toRadians(bearing)
	lat1 := toRadians(origin.Latitude)
	lon1 := toRadians(origin.Longitude)

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(delta) + math.Cos(lat1)*math.Sin(delta)*math.Cos(theta))
	lon2 := lon1 + math.Atan2(math.Sin(theta)*math.Sin(delta)*math.Cos(lat1), math.Cos(delta)-math.Sin(lat1)*math.Sin(lat2))

	return Coordinate{
		Latitude:  toDegrees(lat2),
		Longitude: math.Mod(toDegrees(lon2)+540, 360) - 180,
	}
}

// Interpolate returns the point at fraction t of the way from start to end.
// Linear interpolation is adequate for the short road segments handled here.
func Interpolate(start, end Coordinate, t float64) Coordinate {
	return Coordinate{
		Latitude:  start.Latitude + t*(end.Latitude-start.Latitude),
		Longitude: start.Longitude + t*(end.Longitude-start.Longitude),
	}
}

// PathLength returns the summed segment lengths of path in meters.
func PathLength(path []Coordinate) float64 {
	total := 0.0
	for i := 1; i < len(path); i++ {
		total += Distance(path[i-1], path[i])
	}
	return total
}

// PathBearing returns the bearing from the first coordinate of path to the
// point that lies maxDistance meters along it (or to the last point when the
// path is shorter). It fails on an empty path or when the path does not move
// away from its first point.
func PathBearing(path []Coordinate, maxDistance float64) (float64, bool) {
	if len(path) == 0 {
		return 0, false
	}

	reference, ok := ReferenceCoordinate(path, maxDistance)
	if !ok || reference == path[0] {
		return 0, false
	}

	return Bearing(path[0], reference), true
}

// ReferenceCoordinate returns the coordinate target meters along path. Targets
// below zero clamp to the first point and targets beyond the path length clamp
// to the last point; anything in between is synthesized by interpolating the
// segment that contains it.
func ReferenceCoordinate(path []Coordinate, target float64) (Coordinate, bool) {
	if len(path) == 0 {
		return Coordinate{}, false
	}
	if target <= 0 || len(path) == 1 {
		return path[0], true
	}

	travelled := 0.0
	for i := 1; i < len(path); i++ {
		segment := Distance(path[i-1], path[i])
		if travelled+segment >= target {
			if segment == 0 {
				return path[i], true
			}
			return Interpolate(path[i-1], path[i], (target-travelled)/segment), true
		}
		travelled += segment
	}

	return path[len(path)-1], true
}

// InterpolateToEqualDistance resamples path so that consecutive points are at
// most step meters apart. Original vertices are always kept.
func InterpolateToEqualDistance(path []Coordinate, step float64) []Coordinate {
	if len(path) < 2 || step <= 0 {
		return slices.Clone(path)
	}

	resampled := []Coordinate{path[0]}
	for i := 1; i < len(path); i++ {
		start, end := path[i-1], path[i]
		segment := Distance(start, end)
		if segment > step {
			count := int(math.Ceil(segment / step))
			for j := 1; j < count; j++ {
				resampled = append(resampled, Interpolate(start, end, float64(j)/float64(count)))
			}
		}
		resampled = append(resampled, end)
	}

	return resampled
}

// Centroid returns the centre of the bounding box of shape. This is not the
// area centroid; for concave polygons the result may lie outside the shape.
func Centroid(shape Shape) (Coordinate, bool) {
	switch shape.Type {
	case ShapePoint, ShapeLineString:
		return CentroidOfCoordinates(shape.Coordinates)
	case ShapePolygon, ShapeMultiLineString, ShapeMultiPolygon:
		var all []Coordinate
		for _, part := range shape.Parts {
			all = append(all, part...)
		}
		return CentroidOfCoordinates(all)
	default:
		return Coordinate{}, false
	}
}

// CentroidOfCoordinates returns the bounding box centre of coordinates.
func CentroidOfCoordinates(coordinates []Coordinate) (Coordinate, bool) {
	if len(coordinates) == 0 {
		return Coordinate{}, false
	}

	minLat, maxLat := coordinates[0].Latitude, coordinates[0].Latitude
	minLon, maxLon := coordinates[0].Longitude, coordinates[0].Longitude
	for _, c := range coordinates[1:] {
		minLat = math.Min(minLat, c.Latitude)
		maxLat = math.Max(maxLat, c.Latitude)
		minLon = math.Min(minLon, c.Longitude)
		maxLon = math.Max(maxLon, c.Longitude)
	}

	return Coordinate{Latitude: (minLat + maxLat) / 2, Longitude: (minLon + maxLon) / 2}, true
}

// Reversed returns a reversed copy of path.
func Reversed(path []Coordinate) []Coordinate {
	reversed := slices.Clone(path)
	slices.Reverse(reversed)
	return reversed
}
