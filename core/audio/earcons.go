package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

var ErrUnknownEarcon = errors.New("unknown earcon")

type tone struct {
	frequency float64
	duration  time.Duration
}

// EarconLibrary synthesizes earcons as short sequences of sine tones.
type EarconLibrary struct {
	earcons map[string][]tone
	volume  float64
}

func NewEarconLibrary() *EarconLibrary {
	return &EarconLibrary{
		volume: 0.4,
		earcons: map[string][]tone{
			EarconModeEnter:     {{523.25, 90 * time.Millisecond}, {659.25, 90 * time.Millisecond}, {783.99, 140 * time.Millisecond}},
			EarconModeExit:      {{783.99, 90 * time.Millisecond}, {659.25, 90 * time.Millisecond}, {523.25, 140 * time.Millisecond}},
			EarconHush:          {{440, 60 * time.Millisecond}, {330, 120 * time.Millisecond}},
			EarconSenseLocation: {{880, 80 * time.Millisecond}},
			EarconSensePOI:      {{987.77, 60 * time.Millisecond}, {1318.51, 60 * time.Millisecond}},
			EarconBeaconFound:   {{659.25, 120 * time.Millisecond}, {987.77, 220 * time.Millisecond}},
			EarconTourPOI:       {{587.33, 100 * time.Millisecond}, {880, 160 * time.Millisecond}},
			EarconDeparture:     {{698.46, 80 * time.Millisecond}, {880, 80 * time.Millisecond}},
			EarconPreviewStart:  {{392, 120 * time.Millisecond}, {587.33, 180 * time.Millisecond}},
			EarconRoadFinder:    {{1046.5, 50 * time.Millisecond}},
			EarconInvalid:       {{196, 200 * time.Millisecond}},
		},
	}
}

func (l *EarconLibrary) Synthesize(_ context.Context, sound Sound, encoding EncodingInfo) ([]byte, error) {
	earcon, ok := sound.(EarconSound)
	if !ok {
		return nil, fmt.Errorf("%T: %w", sound, ErrUnsupportedSound)
	}
	if encoding.Format != EncodingLinear16 {
		return nil, fmt.Errorf("earcons need %s, got %s: %w", EncodingLinear16, encoding.Format.Name(), ErrUnsupportedSound)
	}

	tones, ok := l.earcons[earcon.Name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", earcon.Name, ErrUnknownEarcon)
	}

	var pcm []byte
	for _, t := range tones {
		pcm = append(pcm, l.sine(t, encoding.SampleRate)...)
	}
	return pcm, nil
}

func (l *EarconLibrary) sine(t tone, sampleRate int) []byte {
	samples := int(math.Round(t.duration.Seconds() * float64(sampleRate)))
	fade := max(1, samples/10)

	pcm := make([]byte, samples*2)
	for i := range samples {
		envelope := 1.0
		if i < fade {
			envelope = float64(i) / float64(fade)
		} else if samples-i < fade {
			envelope = float64(samples-i) / float64(fade)
		}

		value := math.Sin(2*math.Pi*t.frequency*float64(i)/float64(sampleRate)) * l.volume * envelope
		binary.LittleEndian.PutUint16(pcm[i*2:], uint16(int16(value*math.MaxInt16)))
	}
	return pcm
}

// MixLinear16 sums little endian 16 bit PCM buffers, clipping at the sample
// range. The result is as long as the longest buffer.
func MixLinear16(buffers ...[]byte) []byte {
	length := 0
	for _, buffer := range buffers {
		length = max(length, len(buffer)&^1)
	}

	mixed := make([]byte, length)
	for i := 0; i < length; i += 2 {
		sum := 0
		for _, buffer := range buffers {
			if i+1 < len(buffer) {
				sum += int(int16(binary.LittleEndian.Uint16(buffer[i:])))
			}
		}
		sum = max(math.MinInt16, min(math.MaxInt16, sum))
		binary.LittleEndian.PutUint16(mixed[i:], uint16(int16(sum)))
	}
	return mixed
}
