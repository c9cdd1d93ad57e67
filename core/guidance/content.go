package guidance

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/microsoft/soundscape-core/core/audio"
	"github.com/microsoft/soundscape-core/core/events"
	"github.com/microsoft/soundscape-core/core/geometry"
)

var ErrNoWaypoints = errors.New("content has no waypoints")

type Waypoint struct {
	ID       string              `json:"id"`
	Name     string              `json:"name"`
	Location geometry.Coordinate `json:"location"`
	// ArrivalText is read out after the arrival announcement.
	ArrivalText string `json:"arrivalText,omitempty"`
	// DepartureText is read out when leaving for this waypoint.
	DepartureText string `json:"departureText,omitempty"`
}

// Content is an authored sequence of waypoints: a tour or a route.
type Content struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Waypoints []Waypoint `json:"waypoints"`
}

func (c Content) Validate() error {
	if len(c.Waypoints) == 0 {
		return fmt.Errorf("%s: %w", c.ID, ErrNoWaypoints)
	}
	for i, waypoint := range c.Waypoints {
		if !waypoint.Location.IsValid() {
			return fmt.Errorf("waypoint %d of %s has an invalid location %s", i, c.ID, waypoint.Location)
		}
	}
	return nil
}

// LoadContent reads content from a JSON file.
func LoadContent(path string) (Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Content{}, fmt.Errorf("failed to read content: %w", err)
	}

	var content Content
	if err := json.Unmarshal(data, &content); err != nil {
		return Content{}, fmt.Errorf("failed to decode content %s: %w", path, err)
	}
	return content, content.Validate()
}

// Flavor is what differs between a guided tour and route guidance.
type Flavor struct {
	Name          string
	ArrivalKind   events.Kind
	DepartureKind events.Kind
	ArrivalEarcon string
	// Resumable flavors keep their progress across activations when asked
	// to resume.
	Resumable bool
	// TrackNearestIntersection keeps the intersection nearest to the user
	// up to date for display.
	TrackNearestIntersection bool
}

var (
	Tour = Flavor{
		Name:                     "tour",
		ArrivalKind:              "tour.waypoint_arrival",
		DepartureKind:            "tour.waypoint_departure",
		ArrivalEarcon:            audio.EarconTourPOI,
		Resumable:                true,
		TrackNearestIntersection: true,
	}
	Route = Flavor{
		Name:          "route",
		ArrivalKind:   "route.waypoint_arrival",
		DepartureKind: "route.waypoint_departure",
		ArrivalEarcon: audio.EarconBeaconFound,
	}
)
