package spatial

import (
	"slices"

	"github.com/microsoft/soundscape-core/core/geometry"
)

type RoadClass string

const (
	ClassPrimary      RoadClass = "primary"
	ClassSecondary    RoadClass = "secondary"
	ClassTertiary     RoadClass = "tertiary"
	ClassResidential  RoadClass = "residential"
	ClassUnclassified RoadClass = "unclassified"
	ClassService      RoadClass = "service"
	ClassFootway      RoadClass = "footway"
)

// IsMain reports whether roads of this class are worth announcing at
// intersections.
func (c RoadClass) IsMain() bool {
	switch c {
	case ClassService, ClassFootway:
		return false
	}
	return true
}

// Road is one segment of a street. A long street is usually split into
// several segments that share their end coordinates.
type Road struct {
	Key         string
	Name        string
	Class       RoadClass
	Coordinates []geometry.Coordinate
	Roundabout  bool
}

func (r *Road) IsCircular() bool {
	return geometry.PathIsCircular(r.Coordinates)
}

// IsCircleDrive reports whether the road loops back on itself without being
// a roundabout, e.g. a close or a cul-de-sac loop.
func (r *Road) IsCircleDrive() bool {
	return r.IsCircular() && !r.Roundabout
}

func (r *Road) IsUnnamed() bool {
	return r.Name == ""
}

// DisplayName returns the road's name, or a description for unnamed roads.
func (r *Road) DisplayName() string {
	if r.Name != "" {
		return r.Name
	}
	switch r.Class {
	case ClassService:
		return "service road"
	case ClassFootway:
		return "walkway"
	}
	return "road"
}

// identity distinguishes streets at an intersection. Segments of the same
// named street share an identity; unnamed roads never do.
func (r *Road) identity() string {
	if r.Name != "" {
		return r.Name
	}
	return "#" + r.Key
}

// SameStreet reports whether r and other are segments of one named street.
func (r *Road) SameStreet(other *Road) bool {
	return r.identity() == other.identity()
}

func (r *Road) HasEndpoint(coordinate geometry.Coordinate) bool {
	if len(r.Coordinates) == 0 {
		return false
	}
	return r.Coordinates[0] == coordinate || r.Coordinates[len(r.Coordinates)-1] == coordinate
}

func (r *Road) Contains(coordinate geometry.Coordinate) bool {
	return slices.Contains(r.Coordinates, coordinate)
}

// Roundabout groups the intersections on a roundabout road.
type Roundabout struct {
	Key   string
	Large bool
}

// Intersection is a coordinate shared by at least two road segments.
type Intersection struct {
	Key        string
	Coordinate geometry.Coordinate
	Roads      []*Road
	Roundabout *Roundabout
}

// DistinctRoadCount counts the different streets meeting here. Two segments
// of the same street count once.
func (i *Intersection) DistinctRoadCount(mainOnly bool) int {
	seen := map[string]struct{}{}
	for _, road := range i.Roads {
		if mainOnly && !road.Class.IsMain() {
			continue
		}
		seen[road.identity()] = struct{}{}
	}
	return len(seen)
}

// IsMain reports whether at least two different main streets meet here.
func (i *Intersection) IsMain() bool {
	return i.DistinctRoadCount(true) >= 2
}

// IsSmallRoundabout reports whether the intersection sits on a roundabout
// small enough to be announced as a single intersection.
func (i *Intersection) IsSmallRoundabout() bool {
	return i.Roundabout != nil && !i.Roundabout.Large
}

func (i *Intersection) HasCircleDrive() bool {
	return slices.ContainsFunc(i.Roads, (*Road).IsCircleDrive)
}

// OtherRoads returns the roads at the intersection except road.
func (i *Intersection) OtherRoads(road *Road) []*Road {
	var others []*Road
	for _, candidate := range i.Roads {
		if candidate.Key != road.Key {
			others = append(others, candidate)
		}
	}
	return others
}

// RoadNames lists the distinct street names meeting here in a stable order.
func (i *Intersection) RoadNames() []string {
	var names []string
	for _, road := range i.Roads {
		name := road.DisplayName()
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	return names
}

// Marker is a point of interest.
type Marker struct {
	Key      string              `json:"key" msgpack:"key"`
	Name     string              `json:"name" msgpack:"name"`
	Category string              `json:"category" msgpack:"category"`
	Location geometry.Coordinate `json:"location" msgpack:"location"`
}

// Marker categories with their own trigger ranges.
const (
	CategoryLandmark = "landmark"
	CategoryTransit  = "transit"
	CategoryFood     = "food"
	CategoryShop     = "shop"
	CategoryPark     = "park"
	CategoryOther    = "other"
)

var triggerRanges = map[string]float64{
	CategoryLandmark: 40,
	CategoryTransit:  30,
	CategoryFood:     20,
	CategoryShop:     20,
	CategoryPark:     40,
}

// TriggerRange is how close the user must be to a marker of category before
// it is called out.
func TriggerRange(category string) float64 {
	if distance, ok := triggerRanges[category]; ok {
		return distance
	}
	return 15
}
