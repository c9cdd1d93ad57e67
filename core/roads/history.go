package roads

import (
	"sync"
	"time"

	"github.com/microsoft/soundscape-core/core/geometry"
)

const (
	DefaultHistoryWindow = 5 * time.Minute
	DefaultHistoryRadius = 50.0
)

type historyEntry struct {
	time     time.Time
	location geometry.Coordinate
}

// MarkerHistory remembers where and when markers were called out so that
// walking back past a marker does not announce it again.
type MarkerHistory struct {
	mu sync.Mutex

	window  time.Duration
	radius  float64
	now     func() time.Time
	entries map[string]historyEntry
}

type HistoryOption func(*MarkerHistory)

// WithHistoryWindow suppresses a repeat call-out for window after the last
// one while the user is within radius meters of where it was made.
func WithHistoryWindow(window time.Duration, radius float64) HistoryOption {
	return func(h *MarkerHistory) {
		h.window = window
		h.radius = radius
	}
}

func WithHistoryClock(now func() time.Time) HistoryOption {
	return func(h *MarkerHistory) { h.now = now }
}

func NewMarkerHistory(opts ...HistoryOption) *MarkerHistory {
	h := &MarkerHistory{
		window:  DefaultHistoryWindow,
		radius:  DefaultHistoryRadius,
		now:     time.Now,
		entries: map[string]historyEntry{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *MarkerHistory) ShouldCallOut(key string, location geometry.Coordinate) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.shouldCallOut(key, location)
}

func (h *MarkerHistory) shouldCallOut(key string, location geometry.Coordinate) bool {
	entry, ok := h.entries[key]
	if !ok {
		return true
	}
	return h.now().Sub(entry.time) >= h.window || geometry.Distance(entry.location, location) >= h.radius
}

func (h *MarkerHistory) Record(key string, location geometry.Coordinate) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries[key] = historyEntry{time: h.now(), location: location}
}

// Take returns the markers that may be called out at location and records
// them as called out.
func (h *MarkerHistory) Take(markers []AdjacentMarker, location geometry.Coordinate) []AdjacentMarker {
	h.mu.Lock()
	defer h.mu.Unlock()

	var allowed []AdjacentMarker
	for _, marker := range markers {
		if !h.shouldCallOut(marker.Key, location) {
			continue
		}
		h.entries[marker.Key] = historyEntry{time: h.now(), location: location}
		allowed = append(allowed, marker)
	}
	return allowed
}

func (h *MarkerHistory) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clear(h.entries)
}
