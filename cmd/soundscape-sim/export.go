package main

import (
	"fmt"
	"os"

	kml "github.com/twpayne/go-kml"

	"github.com/microsoft/soundscape-core/core/geometry"
	"github.com/microsoft/soundscape-core/core/guidance"
)

func kmlCoordinate(c geometry.Coordinate) kml.Coordinate {
	return kml.Coordinate{Lon: c.Longitude, Lat: c.Latitude}
}

// exportKML writes the replayed trace, the waypoints and where each callout
// started.
func exportKML(path string, content guidance.Content, trace []geometry.Location, records []calloutRecord) error {
	coordinates := make([]kml.Coordinate, 0, len(trace))
	for _, location := range trace {
		coordinates = append(coordinates, kmlCoordinate(location.Coordinate))
	}

	waypoints := kml.Folder(kml.Name("Waypoints"))
	for i, waypoint := range content.Waypoints {
		waypoints.Add(kml.Placemark(
			kml.Name(fmt.Sprintf("%d. %s", i+1, waypoint.Name)),
			kml.Point(kml.Coordinates(kmlCoordinate(waypoint.Location))),
		))
	}

	spoken := kml.Folder(kml.Name("Callouts"))
	for _, record := range records {
		if record.Latitude == 0 && record.Longitude == 0 {
			continue
		}
		spoken.Add(kml.Placemark(
			kml.Name(record.Text),
			kml.Description(fmt.Sprintf("%s at %s", record.Category, record.Time.Format("15:04:05"))),
			kml.Point(kml.Coordinates(kml.Coordinate{Lon: record.Longitude, Lat: record.Latitude})),
		))
	}

	doc := kml.KML(kml.Document(
		kml.Name(content.Name),
		kml.Placemark(
			kml.Name("Trace"),
			kml.LineString(kml.Coordinates(coordinates...)),
		),
		waypoints,
		spoken,
	))

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create KML file: %w", err)
	}
	defer file.Close()

	if err := doc.WriteIndent(file, "", "  "); err != nil {
		return fmt.Errorf("failed to write KML: %w", err)
	}
	return file.Close()
}
