package spatial

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/microsoft/soundscape-core/core/geometry"
	"github.com/twpayne/go-polyline"
	"github.com/vmihailenco/msgpack/v5"
)

// Fixture is the on-disk form of a spatial data set. Road geometry is stored
// as Google encoded polylines.
type Fixture struct {
	Roads   []RoadFixture `json:"roads" msgpack:"roads"`
	Markers []Marker      `json:"markers" msgpack:"markers"`
}

type RoadFixture struct {
	Key        string `json:"key" msgpack:"key"`
	Name       string `json:"name,omitempty" msgpack:"name,omitempty"`
	Class      string `json:"class" msgpack:"class"`
	Roundabout bool   `json:"roundabout,omitempty" msgpack:"roundabout,omitempty"`
	Polyline   string `json:"polyline" msgpack:"polyline"`
}

const polylineScale = 1e5

var ErrUnknownFormat = errors.New("unknown fixture format")

// NewFixture encodes roads and markers for saving.
func NewFixture(roads []*Road, markers []Marker) *Fixture {
	fixture := &Fixture{Markers: markers}
	for _, road := range roads {
		coords := make([][]float64, 0, len(road.Coordinates))
		for _, c := range road.Coordinates {
			coords = append(coords, []float64{c.Latitude, c.Longitude})
		}
		fixture.Roads = append(fixture.Roads, RoadFixture{
			Key:        road.Key,
			Name:       road.Name,
			Class:      string(road.Class),
			Roundabout: road.Roundabout,
			Polyline:   string(polyline.EncodeCoords(coords)),
		})
	}
	return fixture
}

// Decode turns the fixture into roads and markers.
func (f *Fixture) Decode() ([]*Road, []Marker, error) {
	roads := make([]*Road, 0, len(f.Roads))
	for _, rf := range f.Roads {
		coords, _, err := polyline.DecodeCoords([]byte(rf.Polyline))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to decode geometry of road %s: %w", rf.Key, err)
		}

		road := &Road{Key: rf.Key, Name: rf.Name, Class: RoadClass(rf.Class), Roundabout: rf.Roundabout}
		for _, c := range coords {
			road.Coordinates = append(road.Coordinates, geometry.Coordinate{Latitude: snap(c[0]), Longitude: snap(c[1])})
		}
		roads = append(roads, road)
	}
	return roads, f.Markers, nil
}

// snap removes the drift of the delta decoding so that shared vertices
// compare equal.
func snap(v float64) float64 {
	return math.Round(v*polylineScale) / polylineScale
}

// LoadStore reads a fixture and builds a Store from it.
func LoadStore(path string, opts ...StoreOption) (*Store, error) {
	fixture, err := LoadFixture(path)
	if err != nil {
		return nil, err
	}

	roads, markers, err := fixture.Decode()
	if err != nil {
		return nil, err
	}
	return NewStore(roads, markers, opts...), nil
}

// LoadFixture reads a .json or .msgpack fixture, optionally zstd compressed
// with a trailing .zst.
func LoadFixture(path string) (*Fixture, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixture: %w", err)
	}
	defer file.Close()

	var r io.Reader = file
	name := path
	if strings.HasSuffix(name, ".zst") {
		decoder, err := zstd.NewReader(file)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		defer decoder.Close()
		r = decoder
		name = strings.TrimSuffix(name, ".zst")
	}

	var fixture Fixture
	switch filepath.Ext(name) {
	case ".json":
		err = json.NewDecoder(r).Decode(&fixture)
	case ".msgpack":
		err = msgpack.NewDecoder(r).Decode(&fixture)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnknownFormat)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode fixture %s: %w", path, err)
	}

	return &fixture, nil
}

// SaveFixture writes fixture in the format given by the path's extensions.
func SaveFixture(path string, fixture *Fixture) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create fixture: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("failed to close fixture: %w", closeErr)
		}
	}()

	var w io.Writer = file
	name := path
	if strings.HasSuffix(name, ".zst") {
		encoder, encErr := zstd.NewWriter(file)
		if encErr != nil {
			return fmt.Errorf("failed to create zstd writer: %w", encErr)
		}
		defer func() {
			if closeErr := encoder.Close(); err == nil && closeErr != nil {
				err = fmt.Errorf("failed to flush zstd writer: %w", closeErr)
			}
		}()
		w = encoder
		name = strings.TrimSuffix(name, ".zst")
	}

	switch filepath.Ext(name) {
	case ".json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(fixture)
	case ".msgpack":
		return msgpack.NewEncoder(w).Encode(fixture)
	}
	return fmt.Errorf("%s: %w", path, ErrUnknownFormat)
}
