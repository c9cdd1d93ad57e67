package geometry

import "math"

// NormalizeBearing maps any angle in degrees to [0, 360).
func NormalizeBearing(bearing float64) float64 {
	bearing = math.Mod(bearing, 360)
	if bearing < 0 {
		bearing += 360
	}
	return bearing
}

// BearingDifference returns the smallest absolute angle between a and b, in
// [0, 180].
func BearingDifference(a, b float64) float64 {
	d := math.Abs(NormalizeBearing(a) - NormalizeBearing(b))
	if d > 180 {
		d = 360 - d
	}
	return d
}

// OppositeBearing returns the bearing pointing the other way.
func OppositeBearing(bearing float64) float64 {
	return NormalizeBearing(bearing + 180)
}

var cardinalDirections = [...]string{
	"north", "northeast", "east", "southeast", "south", "southwest", "west", "northwest",
}

// CardinalDirection names the eight-point compass direction of bearing.
func CardinalDirection(bearing float64) string {
	index := int(math.Round(NormalizeBearing(bearing)/45)) % len(cardinalDirections)
	return cardinalDirections[index]
}

// RelativeDirection describes target relative to heading using clock-face
// style names ("ahead", "to the right", "behind", "to the left").
func RelativeDirection(heading, target float64) string {
	delta := NormalizeBearing(target - heading)
	switch {
	case delta <= 30 || delta >= 330:
		return "ahead"
	case delta < 150:
		return "to the right"
	case delta <= 210:
		return "behind"
	default:
		return "to the left"
	}
}
