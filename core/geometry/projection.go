package geometry

import "math"

// DefaultZoom is the map zoom level used for pixel space calculations. At this
// level one pixel is well under a meter, which keeps results stable regardless
// of latitude.
const DefaultZoom = 21

const tileSize = 256.0

type pixel struct{ x, y float64 }

func mapSize(zoom int) float64 {
	return tileSize * math.Exp2(float64(zoom))
}

func toPixel(c Coordinate, zoom int) pixel {
	size := mapSize(zoom)
	lat := math.Max(math.Min(c.Latitude, 85.05112878), -85.05112878)
	sinLat := math.Sin(toRadians(lat))

	return pixel{
		x: (c.Longitude + 180) / 360 * size,
		y: (0.5 - math.Log((1+sinLat)/(1-sinLat))/(4*math.Pi)) * size,
	}
}

func fromPixel(p pixel, zoom int) Coordinate {
	size := mapSize(zoom)
	x := p.x/size - 0.5
	y := 0.5 - p.y/size

	return Coordinate{
		Latitude:  90 - 360*math.Atan(math.Exp(-y*2*math.Pi))/math.Pi,
		Longitude: 360 * x,
	}
}

// closestOnSegment projects p onto the segment v-w and clamps the projection
// to the segment's endpoints.
func closestOnSegment(p, v, w pixel) pixel {
	dx, dy := w.x-v.x, w.y-v.y
	lengthSquared := dx*dx + dy*dy
	if lengthSquared == 0 {
		return v
	}

	t := ((p.x-v.x)*dx + (p.y-v.y)*dy) / lengthSquared
	t = math.Max(0, math.Min(1, t))
	return pixel{x: v.x + t*dx, y: v.y + t*dy}
}

func squaredPixelDistance(a, b pixel) float64 {
	dx, dy := a.x-b.x, a.y-b.y
	return dx*dx + dy*dy
}

// SquaredDistance returns the squared distance, in pixels at the given zoom
// level, between location and the segment start-end. Projections beyond the
// segment clamp to the nearest endpoint.
func SquaredDistance(location, start, end Coordinate, zoom int) float64 {
	p := toPixel(location, zoom)
	closest := closestOnSegment(p, toPixel(start, zoom), toPixel(end, zoom))
	return squaredPixelDistance(p, closest)
}

// ClosestEdge returns the point on the boundary of path (a polyline, or a
// polygon ring whose last point repeats the first) that is nearest to from.
func ClosestEdge(from Coordinate, path []Coordinate) (Coordinate, bool) {
	switch len(path) {
	case 0:
		return Coordinate{}, false
	case 1:
		return path[0], true
	}

	p := toPixel(from, DefaultZoom)
	best := toPixel(path[0], DefaultZoom)
	bestDistance := math.Inf(1)

	previous := best
	for i := 1; i < len(path); i++ {
		current := toPixel(path[i], DefaultZoom)
		candidate := closestOnSegment(p, previous, current)
		if d := squaredPixelDistance(p, candidate); d < bestDistance {
			bestDistance = d
			best = candidate
		}
		previous = current
	}

	return fromPixel(best, DefaultZoom), true
}

// DistanceToPath returns the distance in meters from coordinate to the closest
// point of path.
func DistanceToPath(coordinate Coordinate, path []Coordinate) (float64, bool) {
	closest, ok := ClosestEdge(coordinate, path)
	if !ok {
		return 0, false
	}
	return Distance(coordinate, closest), true
}
