package audio

import (
	"fmt"
	"strings"
)

// Sound is a unit of discrete audio: speech, an earcon or several sounds
// layered on top of each other.
type Sound interface {
	Description() string
}

// Earcon names understood by every engine.
const (
	EarconModeEnter     = "mode_enter"
	EarconModeExit      = "mode_exit"
	EarconHush          = "hush"
	EarconSenseLocation = "sense_location"
	EarconSensePOI      = "sense_poi"
	EarconBeaconFound   = "beacon_found"
	EarconTourPOI       = "tour_poi"
	EarconDeparture     = "departure"
	EarconPreviewStart  = "preview_start"
	EarconRoadFinder    = "road_finder"
	EarconInvalid       = "invalid"
)

// TTSSound is a phrase to be spoken. Bearing, when set, is the compass
// direction the phrase should appear to come from.
type TTSSound struct {
	Text    string
	Bearing *float64
}

func NewTTSSound(text string) TTSSound {
	return TTSSound{Text: text}
}

// NewDirectionalTTSSound returns speech rendered from bearing.
func NewDirectionalTTSSound(text string, bearing float64) TTSSound {
	return TTSSound{Text: text, Bearing: &bearing}
}

func (s TTSSound) Description() string {
	if s.Bearing != nil {
		return fmt.Sprintf("%q @%.0f°", s.Text, *s.Bearing)
	}
	return fmt.Sprintf("%q", s.Text)
}

type EarconSound struct {
	Name string
}

func NewEarcon(name string) EarconSound {
	return EarconSound{Name: name}
}

func (s EarconSound) Description() string {
	return "[" + s.Name + "]"
}

// LayeredSound plays all of its sounds at the same time.
type LayeredSound struct {
	Sounds []Sound
}

func NewLayeredSound(sounds ...Sound) LayeredSound {
	return LayeredSound{Sounds: sounds}
}

func (s LayeredSound) Description() string {
	parts := make([]string, 0, len(s.Sounds))
	for _, sound := range s.Sounds {
		parts = append(parts, sound.Description())
	}
	return strings.Join(parts, " + ")
}

// Describe joins the descriptions of a sequence of sounds.
func Describe(sounds []Sound) string {
	parts := make([]string, 0, len(sounds))
	for _, sound := range sounds {
		parts = append(parts, sound.Description())
	}
	return strings.Join(parts, ", ")
}
