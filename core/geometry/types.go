package geometry

import (
	"fmt"
	"time"
)

// EarthRadius is the mean earth radius in meters used by every distance
// calculation in this package.
const EarthRadius = 6371000.0

// Coordinate is a WGS84 latitude/longitude pair in degrees.
type Coordinate struct {
	Latitude  float64 `json:"lat" msgpack:"lat"`
	Longitude float64 `json:"lon" msgpack:"lon"`
}

func NewCoordinate(latitude, longitude float64) Coordinate {
	return Coordinate{Latitude: latitude, Longitude: longitude}
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Latitude, c.Longitude)
}

// IsValid reports whether the coordinate lies within the WGS84 bounds.
func (c Coordinate) IsValid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}

// Distance returns the great-circle distance to other in meters.
func (c Coordinate) Distance(other Coordinate) float64 {
	return Distance(c, other)
}

// Bearing returns the initial bearing towards other in degrees [0, 360).
func (c Coordinate) Bearing(other Coordinate) float64 {
	return Bearing(c, other)
}

// Location is a coordinate observed at a point in time, as reported by a
// location provider. Negative Speed, Course or HorizontalAccuracy mean the
// value is unknown.
type Location struct {
	Coordinate
	Altitude           float64   `json:"alt,omitempty"`
	HorizontalAccuracy float64   `json:"accuracy"`
	Speed              float64   `json:"speed"`
	Course             float64   `json:"course"`
	Timestamp          time.Time `json:"timestamp"`
}

// NewLocation builds a location with unknown speed, course and accuracy.
func NewLocation(coordinate Coordinate, timestamp time.Time) Location {
	return Location{
		Coordinate:         coordinate,
		HorizontalAccuracy: -1,
		Speed:              -1,
		Course:             -1,
		Timestamp:          timestamp,
	}
}

func (l Location) HasCourse() bool { return l.Course >= 0 }

func (l Location) HasSpeed() bool { return l.Speed >= 0 }

// ShapeType enumerates the GeoJSON-like geometries accepted by Centroid.
type ShapeType string

const (
	ShapePoint           ShapeType = "Point"
	ShapeLineString      ShapeType = "LineString"
	ShapePolygon         ShapeType = "Polygon"
	ShapeMultiLineString ShapeType = "MultiLineString"
	ShapeMultiPolygon    ShapeType = "MultiPolygon"
)

// Shape is a minimal GeoJSON-like geometry. Points and line strings use
// Coordinates; polygons and multi geometries use Parts, one slice per ring or
// line.
type Shape struct {
	Type        ShapeType      `json:"type"`
	Coordinates []Coordinate   `json:"coordinates,omitempty"`
	Parts       [][]Coordinate `json:"parts,omitempty"`
}
