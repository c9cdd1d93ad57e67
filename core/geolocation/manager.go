package geolocation

import (
	"maps"
	"slices"
	"sync"

	"github.com/microsoft/soundscape-core/core/geometry"
)

type locationSource struct {
	provider    LocationProvider
	unsubscribe func()
}

// Manager multiplexes pluggable location and heading providers. The most
// recently added provider of each kind is authoritative, so a simulation can
// take over from the device and hand back control when it is removed.
type Manager struct {
	mu sync.Mutex

	locationSources []locationSource
	headings        map[HeadingType][]HeadingProvider
	location        *geometry.Location

	subscribers map[int]func(geometry.Location)
	nextID      int
}

func NewManager() *Manager {
	return &Manager{
		headings:    map[HeadingType][]HeadingProvider{},
		subscribers: map[int]func(geometry.Location){},
	}
}

// AddLocationProvider makes provider the source of location updates.
func (m *Manager) AddLocationProvider(provider LocationProvider) {
	m.mu.Lock()
	if slices.ContainsFunc(m.locationSources, func(s locationSource) bool { return s.provider.ID() == provider.ID() }) {
		m.mu.Unlock()
		logger.Warn("location provider already added", "provider", provider.ID())
		return
	}

	source := locationSource{provider: provider}
	source.unsubscribe = provider.Subscribe(func(location geometry.Location) {
		m.receive(provider.ID(), location)
	})
	m.locationSources = append(m.locationSources, source)
	m.mu.Unlock()

	logger.Info("location provider added", "provider", provider.ID())
	if location, ok := provider.Location(); ok {
		m.receive(provider.ID(), location)
	}
}

// RemoveLocationProvider removes the provider with id. When it was
// authoritative, the previous provider's latest location is reported.
func (m *Manager) RemoveLocationProvider(id string) {
	m.mu.Lock()
	index := slices.IndexFunc(m.locationSources, func(s locationSource) bool { return s.provider.ID() == id })
	if index < 0 {
		m.mu.Unlock()
		return
	}

	source := m.locationSources[index]
	wasActive := index == len(m.locationSources)-1
	m.locationSources = slices.Delete(m.locationSources, index, index+1)

	var next LocationProvider
	if wasActive && len(m.locationSources) > 0 {
		next = m.locationSources[len(m.locationSources)-1].provider
	}
	m.mu.Unlock()

	source.unsubscribe()
	logger.Info("location provider removed", "provider", id)

	if next != nil {
		if location, ok := next.Location(); ok {
			m.receive(next.ID(), location)
		}
	}
}

func (m *Manager) receive(providerID string, location geometry.Location) {
	m.mu.Lock()
	if len(m.locationSources) == 0 || m.locationSources[len(m.locationSources)-1].provider.ID() != providerID {
		m.mu.Unlock()
		return
	}

	m.location = &location
	subscribers := make([]func(geometry.Location), 0, len(m.subscribers))
	for _, id := range slices.Sorted(maps.Keys(m.subscribers)) {
		subscribers = append(subscribers, m.subscribers[id])
	}
	m.mu.Unlock()

	for _, fn := range subscribers {
		fn(location)
	}
}

// Location returns the latest location from the authoritative provider.
func (m *Manager) Location() (geometry.Location, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.location == nil {
		return geometry.Location{}, false
	}
	return *m.location, true
}

// Subscribe registers fn for location updates from the authoritative
// provider.
func (m *Manager) Subscribe(fn func(geometry.Location)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.subscribers[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subscribers, id)
	}
}

func (m *Manager) AddHeadingProvider(kind HeadingType, provider HeadingProvider) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.headings[kind] = append(m.headings[kind], provider)
}

func (m *Manager) RemoveHeadingProvider(kind HeadingType, id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.headings[kind] = slices.DeleteFunc(m.headings[kind], func(p HeadingProvider) bool { return p.ID() == id })
}

// Heading returns the first heading available in the given order of kinds,
// DefaultHeadingOrder when none is given. Without a course provider the
// course of the latest location is used.
func (m *Manager) Heading(orderedBy ...HeadingType) (float64, HeadingType, bool) {
	if len(orderedBy) == 0 {
		orderedBy = DefaultHeadingOrder
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, kind := range orderedBy {
		if providers := m.headings[kind]; len(providers) > 0 {
			if heading, ok := providers[len(providers)-1].Heading(); ok {
				return heading, kind, true
			}
			continue
		}
		if kind == HeadingCourse && m.location != nil && m.location.HasCourse() {
			return m.location.Course, kind, true
		}
	}
	return 0, 0, false
}
