package callouts

import (
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/microsoft/soundscape-core/core/audio"
	"github.com/microsoft/soundscape-core/core/geometry"
)

// Callout is a unit of audio feedback. Sounds renders it for the given user
// location, which is nil when the location is unknown. isRepeat is set when
// the callout is replayed from an earlier location.
type Callout interface {
	ID() string
	LogCategory() string
	Sounds(location *geometry.Location, isRepeat bool) []audio.Sound
}

// StringCallout speaks a fixed phrase, optionally preceded by an earcon and
// optionally rendered from the direction of a target coordinate.
type StringCallout struct {
	id       string
	category string
	text     string
	earcon   string
	target   *geometry.Coordinate
}

type StringCalloutOption func(*StringCallout)

func WithEarcon(name string) StringCalloutOption {
	return func(c *StringCallout) { c.earcon = name }
}

// WithTarget renders the phrase from the direction of target.
func WithTarget(target geometry.Coordinate) StringCalloutOption {
	return func(c *StringCallout) { c.target = &target }
}

func NewStringCallout(category, text string, opts ...StringCalloutOption) *StringCallout {
	c := &StringCallout{id: uuid.NewString(), category: category, text: text}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *StringCallout) ID() string          { return c.id }
func (c *StringCallout) LogCategory() string { return c.category }
func (c *StringCallout) Text() string        { return c.text }

func (c *StringCallout) Sounds(location *geometry.Location, _ bool) []audio.Sound {
	var sounds []audio.Sound
	if c.earcon != "" {
		sounds = append(sounds, audio.NewEarcon(c.earcon))
	}
	if c.text == "" {
		return sounds
	}

	if c.target != nil && location != nil {
		bearing := geometry.Bearing(location.Coordinate, *c.target)
		return append(sounds, audio.NewDirectionalTTSSound(c.text, bearing))
	}
	return append(sounds, audio.NewTTSSound(c.text))
}

// DistanceCallout names a place together with its current distance, e.g.
// "Waypoint 2, 45 meters", spoken from the place's direction.
type DistanceCallout struct {
	id       string
	category string
	name     string
	target   geometry.Coordinate
	earcon   string
}

func NewDistanceCallout(category, name string, target geometry.Coordinate, earcon string) *DistanceCallout {
	return &DistanceCallout{id: uuid.NewString(), category: category, name: name, target: target, earcon: earcon}
}

func (c *DistanceCallout) ID() string          { return c.id }
func (c *DistanceCallout) LogCategory() string { return c.category }

func (c *DistanceCallout) Sounds(location *geometry.Location, isRepeat bool) []audio.Sound {
	var sounds []audio.Sound
	if c.earcon != "" {
		sounds = append(sounds, audio.NewEarcon(c.earcon))
	}
	if location == nil {
		return append(sounds, audio.NewTTSSound(c.name))
	}

	distance := geometry.Distance(location.Coordinate, c.target)
	bearing := geometry.Bearing(location.Coordinate, c.target)
	text := fmt.Sprintf("%s, %s", c.name, FormatDistance(distance))
	if isRepeat {
		text = fmt.Sprintf("%s, was %s", c.name, FormatDistance(distance))
	}
	return append(sounds, audio.NewDirectionalTTSSound(text, bearing))
}

// FormatDistance rounds a distance the way it is spoken: to 5 meters below
// a kilometer and to a tenth of a kilometer above.
func FormatDistance(meters float64) string {
	if meters >= 1000 {
		return fmt.Sprintf("%.1f kilometers", meters/1000)
	}

	rounded := int(math.Round(meters/5) * 5)
	if rounded <= 1 {
		return "1 meter"
	}
	return fmt.Sprintf("%d meters", rounded)
}
