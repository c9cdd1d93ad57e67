package beacon

import (
	"errors"

	"github.com/microsoft/soundscape-core/core/geometry"
)

var (
	ErrNoDestination      = errors.New("no destination set")
	ErrInvalidDestination = errors.New("invalid destination")
)

// Destination is the target of the audio beacon.
type Destination struct {
	// ID identifies what the destination refers to, e.g. a waypoint or a
	// marker key.
	ID       string
	Name     string
	Location geometry.Coordinate
}

// Manager owns the single active beacon. Behaviors clear the current beacon
// before setting a new one.
type Manager interface {
	SetDestination(destination Destination, enableAudio bool, userLocation *geometry.Location, logContext string) error
	ClearDestination(logContext string) error
	ToggleDestinationAudio(logContext string) error

	Destination() (Destination, bool)
	IsDestinationSet() bool
	IsAudioEnabled() bool
	// IsCurrentBeaconAsyncFinishable reports whether clearing the beacon
	// plays an end melody that finishes asynchronously.
	IsCurrentBeaconAsyncFinishable() bool
	// PlayerID identifies the audio player of the current beacon.
	PlayerID() (string, bool)

	// OnPlayerFinished registers fn to be called with the player id when a
	// beacon player's end melody finishes.
	OnPlayerFinished(fn func(playerID string)) (unsubscribe func())
}
