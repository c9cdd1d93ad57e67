package geolocation

import (
	"sync"

	"github.com/microsoft/soundscape-core/core/geometry"
)

// SimulatedLocationProvider reports locations set by its owner instead of a
// receiver. Street preview and trace replay install one on top of the real
// providers.
type SimulatedLocationProvider struct {
	id string

	mu          sync.Mutex
	location    *geometry.Location
	subscribers map[int]func(geometry.Location)
	nextID      int
}

func NewSimulatedLocationProvider(id string) *SimulatedLocationProvider {
	return &SimulatedLocationProvider{id: id, subscribers: map[int]func(geometry.Location){}}
}

func (p *SimulatedLocationProvider) ID() string { return p.id }

func (p *SimulatedLocationProvider) Location() (geometry.Location, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.location == nil {
		return geometry.Location{}, false
	}
	return *p.location, true
}

func (p *SimulatedLocationProvider) Subscribe(fn func(geometry.Location)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.subscribers[id] = fn

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subscribers, id)
	}
}

// SetLocation stores location and reports it to the subscribers.
func (p *SimulatedLocationProvider) SetLocation(location geometry.Location) {
	p.mu.Lock()
	p.location = &location
	subscribers := make([]func(geometry.Location), 0, len(p.subscribers))
	for _, fn := range p.subscribers {
		subscribers = append(subscribers, fn)
	}
	p.mu.Unlock()

	for _, fn := range subscribers {
		fn(location)
	}
}

// StaticHeadingProvider reports a fixed heading until it is changed.
type StaticHeadingProvider struct {
	id string

	mu      sync.Mutex
	heading *float64
}

func NewStaticHeadingProvider(id string) *StaticHeadingProvider {
	return &StaticHeadingProvider{id: id}
}

func (p *StaticHeadingProvider) ID() string { return p.id }

func (p *StaticHeadingProvider) Heading() (float64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.heading == nil {
		return 0, false
	}
	return *p.heading, true
}

func (p *StaticHeadingProvider) SetHeading(heading float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	heading = geometry.NormalizeBearing(heading)
	p.heading = &heading
}

func (p *StaticHeadingProvider) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.heading = nil
}
