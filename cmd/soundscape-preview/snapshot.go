package main

import (
	"slices"
	"strings"

	"github.com/microsoft/soundscape-core/core/geometry"
	"github.com/microsoft/soundscape-core/core/preview"
)

// snapshot is what the view shows of the preview. It is taken on the
// navigator's goroutine and handed to the program as a message.
type snapshot struct {
	Active   bool
	Node     string
	Location geometry.Coordinate
	Edges    []edgeRow
	Focus    int
	CanBack  bool
	Unnamed  bool
}

type edgeRow struct {
	Name      string
	Direction string
	Length    float64
	Markers   []string
}

func takeSnapshot(behavior *preview.Behavior, unnamed bool) snapshot {
	point, ok := behavior.Current()
	if !ok {
		return snapshot{Unnamed: unnamed}
	}

	s := snapshot{
		Active:   true,
		Location: point.Location(),
		Focus:    -1,
		CanBack:  behavior.CanGoBack(),
		Unnamed:  unnamed,
	}

	names := make([]string, 0, len(point.Node.Roads))
	for _, road := range point.Node.Roads {
		if name := road.DisplayName(); !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	s.Node = strings.Join(names, " & ")

	focused, _ := behavior.Focused()
	for i, edge := range point.Edges {
		row := edgeRow{Name: edge.Name(), Length: edge.Length()}
		if bearing, ok := edge.Bearing(); ok {
			row.Direction = geometry.CardinalDirection(bearing)
		}
		for _, marker := range edge.Markers {
			row.Markers = append(row.Markers, marker.Marker.Name)
		}
		if edge == focused {
			s.Focus = i
		}
		s.Edges = append(s.Edges, row)
	}
	return s
}
