package beacon

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/microsoft/soundscape-core/core/geometry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const DefaultEndMelodyDuration = 1500 * time.Millisecond

// MemoryManager is a Manager that keeps the beacon in memory. Clearing an
// audible beacon plays an end melody; the finish notification is delivered
// on its own goroutine once the melody is over.
type MemoryManager struct {
	mu sync.Mutex

	destination  *Destination
	audioEnabled bool
	playerID     string

	endMelody time.Duration
	afterFunc func(time.Duration, func())

	subscribers map[int]func(string)
	nextID      int
}

type MemoryManagerOption func(*MemoryManager)

// WithEndMelody sets how long the end melody plays. Zero disables it and
// makes beacons finish synchronously.
func WithEndMelody(duration time.Duration) MemoryManagerOption {
	return func(m *MemoryManager) { m.endMelody = duration }
}

// WithTimer replaces time.AfterFunc for scheduling the end of the melody.
func WithTimer(afterFunc func(time.Duration, func())) MemoryManagerOption {
	return func(m *MemoryManager) { m.afterFunc = afterFunc }
}

func NewMemoryManager(opts ...MemoryManagerOption) *MemoryManager {
	m := &MemoryManager{
		endMelody: DefaultEndMelodyDuration,
		afterFunc: func(d time.Duration, fn func()) { time.AfterFunc(d, fn) },

		subscribers: map[int]func(string){},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MemoryManager) SetDestination(destination Destination, enableAudio bool, userLocation *geometry.Location, logContext string) error {
	_, span := tracer.Start(context.Background(), "set destination", trace.WithAttributes(
		attribute.String("destination.id", destination.ID),
		attribute.Bool("audio", enableAudio),
		attribute.String("log_context", logContext),
	))
	defer span.End()

	if !destination.Location.IsValid() {
		err := fmt.Errorf("%w: %s", ErrInvalidDestination, destination.Location)
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid destination")
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.destination != nil {
		logger.Info("replacing destination", "previous", m.destination.ID, "context", logContext)
	}

	m.destination = &destination
	m.audioEnabled = enableAudio
	m.playerID = ""
	if enableAudio {
		m.playerID = uuid.NewString()
	}

	attrs := []any{"destination", destination.ID, "audio", enableAudio, "context", logContext}
	if userLocation != nil {
		attrs = append(attrs, "distance", geometry.Distance(userLocation.Coordinate, destination.Location))
	}
	logger.Info("destination set", attrs...)
	return nil
}

func (m *MemoryManager) ClearDestination(logContext string) error {
	m.mu.Lock()
	if m.destination == nil {
		m.mu.Unlock()
		return ErrNoDestination
	}

	finishing := m.audioEnabled && m.endMelody > 0 && m.playerID != ""
	playerID := m.playerID
	logger.Info("destination cleared", "destination", m.destination.ID, "end_melody", finishing, "context", logContext)

	m.destination = nil
	m.audioEnabled = false
	m.playerID = ""
	m.mu.Unlock()

	if finishing {
		m.afterFunc(m.endMelody, func() { m.finish(playerID) })
	}
	return nil
}

func (m *MemoryManager) ToggleDestinationAudio(logContext string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.destination == nil {
		return ErrNoDestination
	}

	m.audioEnabled = !m.audioEnabled
	m.playerID = ""
	if m.audioEnabled {
		m.playerID = uuid.NewString()
	}
	logger.Info("destination audio toggled", "audio", m.audioEnabled, "context", logContext)
	return nil
}

func (m *MemoryManager) Destination() (Destination, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.destination == nil {
		return Destination{}, false
	}
	return *m.destination, true
}

func (m *MemoryManager) IsDestinationSet() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.destination != nil
}

func (m *MemoryManager) IsAudioEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.destination != nil && m.audioEnabled
}

func (m *MemoryManager) IsCurrentBeaconAsyncFinishable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.destination != nil && m.audioEnabled && m.endMelody > 0
}

func (m *MemoryManager) PlayerID() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.playerID, m.playerID != ""
}

func (m *MemoryManager) OnPlayerFinished(fn func(playerID string)) func() {
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

func (m *MemoryManager) finish(playerID string) {
	m.mu.Lock()
	subscribers := make([]func(string), 0, len(m.subscribers))
	for _, id := range slices.Sorted(maps.Keys(m.subscribers)) {
		subscribers = append(subscribers, m.subscribers[id])
	}
	m.mu.Unlock()

	logger.Debug("beacon player finished", "player", playerID)
	for _, fn := range subscribers {
		fn(playerID)
	}
}
