package spatial

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/microsoft/soundscape-core/core/geometry"
)

const (
	DefaultCacheSize = 64
	DefaultCacheTTL  = 5 * time.Minute

	// largeRoundaboutLength is the circumference above which a roundabout
	// is announced intersection by intersection.
	largeRoundaboutLength = 150.0
	// cacheGrid is the size in degrees of the cells data views are cached by.
	cacheGrid = 1e-4
)

type cacheKey struct {
	lat, lon int64
	distance int64
}

// Store is an in-memory Provider over a fixed set of roads and markers.
// Intersections are derived from coordinates shared by road segments.
type Store struct {
	mu sync.RWMutex

	allRoads            []*Road
	markers             []Marker
	includeUnnamedRoads bool

	roads         []*Road
	intersections []*Intersection

	cache *expirable.LRU[cacheKey, *DataView]
}

type StoreOption func(*storeOptions)

type storeOptions struct {
	cacheSize           int
	cacheTTL            time.Duration
	includeUnnamedRoads bool
}

func WithCache(size int, ttl time.Duration) StoreOption {
	return func(o *storeOptions) {
		o.cacheSize = size
		o.cacheTTL = ttl
	}
}

func WithUnnamedRoads(include bool) StoreOption {
	return func(o *storeOptions) { o.includeUnnamedRoads = include }
}

func NewStore(roads []*Road, markers []Marker, opts ...StoreOption) *Store {
	options := storeOptions{cacheSize: DefaultCacheSize, cacheTTL: DefaultCacheTTL, includeUnnamedRoads: true}
	for _, opt := range opts {
		opt(&options)
	}

	s := &Store{
		allRoads:            roads,
		markers:             markers,
		includeUnnamedRoads: options.includeUnnamedRoads,
		cache:               expirable.NewLRU[cacheKey, *DataView](options.cacheSize, nil, options.cacheTTL),
	}
	s.rebuild()
	return s
}

// SetIncludeUnnamedRoads changes which roads take part in views. Cached
// views are dropped so that the next query reflects the new setting.
func (s *Store) SetIncludeUnnamedRoads(include bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.includeUnnamedRoads == include {
		return
	}
	s.includeUnnamedRoads = include
	s.rebuild()
	s.cache.Purge()
	logger.Info("spatial store rebuilt", "include_unnamed_roads", include, "roads", len(s.roads))
}

func (s *Store) IncludesUnnamedRoads() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.includeUnnamedRoads
}

// rebuild derives the active roads and their intersections. Callers hold mu.
func (s *Store) rebuild() {
	s.roads = nil
	for _, road := range s.allRoads {
		if road.IsUnnamed() && !s.includeUnnamedRoads {
			continue
		}
		s.roads = append(s.roads, road)
	}
	s.intersections = deriveIntersections(s.roads)
}

func deriveIntersections(roads []*Road) []*Intersection {
	var order []geometry.Coordinate
	byCoordinate := map[geometry.Coordinate][]*Road{}
	for _, road := range roads {
		seen := map[geometry.Coordinate]bool{}
		for _, coordinate := range road.Coordinates {
			if seen[coordinate] {
				continue
			}
			seen[coordinate] = true
			if _, ok := byCoordinate[coordinate]; !ok {
				order = append(order, coordinate)
			}
			byCoordinate[coordinate] = append(byCoordinate[coordinate], road)
		}
	}

	var intersections []*Intersection
	for _, coordinate := range order {
		roads := byCoordinate[coordinate]
		if len(roads) < 2 {
			continue
		}

		intersection := &Intersection{
			Key:        "i:" + coordinate.String(),
			Coordinate: coordinate,
			Roads:      roads,
		}
		for _, road := range roads {
			if road.Roundabout {
				intersection.Roundabout = &Roundabout{
					Key:   road.Key,
					Large: geometry.PathLength(road.Coordinates) > largeRoundaboutLength,
				}
				break
			}
		}
		intersections = append(intersections, intersection)
	}
	return intersections
}

func newCacheKey(location geometry.Coordinate, searchDistance float64) cacheKey {
	return cacheKey{
		lat:      int64(math.Round(location.Latitude / cacheGrid)),
		lon:      int64(math.Round(location.Longitude / cacheGrid)),
		distance: int64(math.Round(searchDistance)),
	}
}

func (s *Store) DataView(location geometry.Coordinate, searchDistance float64) (*DataView, error) {
	if !location.IsValid() {
		return nil, fmt.Errorf("invalid location %s", location)
	}
	if searchDistance <= 0 {
		return nil, fmt.Errorf("invalid search distance %v", searchDistance)
	}

	key := newCacheKey(location, searchDistance)
	if view, ok := s.cache.Get(key); ok {
		return view, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var roads []*Road
	for _, road := range s.roads {
		if distance, ok := geometry.DistanceToPath(location, road.Coordinates); ok && distance <= searchDistance {
			roads = append(roads, road)
		}
	}

	var intersections []*Intersection
	for _, intersection := range s.intersections {
		if geometry.Distance(location, intersection.Coordinate) <= searchDistance {
			intersections = append(intersections, intersection)
		}
	}

	var markers []Marker
	for _, marker := range s.markers {
		if geometry.Distance(location, marker.Location) <= searchDistance {
			markers = append(markers, marker)
		}
	}

	view := NewDataView(location, searchDistance, roads, intersections, markers)
	s.cache.Add(key, view)
	return view, nil
}
