package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Synthesizer renders a sound into PCM in the requested encoding.
type Synthesizer interface {
	Synthesize(ctx context.Context, sound Sound, encoding EncodingInfo) ([]byte, error)
}

// Output is a PCM sink that reports when playback reaches a mark.
type Output interface {
	SendAudio(audio []byte) error
	Mark(name string, callback func(string)) error
	ClearBuffer()
	EncodingInfo() EncodingInfo
}

// DiscretePlayer is an Engine that renders sounds with a Synthesizer and
// plays them on an Output. Completion is reported once the output passes the
// mark placed after the last sound.
type DiscretePlayer struct {
	baseCtx     context.Context
	synthesizer Synthesizer
	output      Output

	mu         sync.Mutex
	generation uint64
	playing    bool
	completion func(bool)
}

func NewDiscretePlayer(ctx context.Context, synthesizer Synthesizer, output Output) *DiscretePlayer {
	return &DiscretePlayer{baseCtx: ctx, synthesizer: synthesizer, output: output}
}

func (p *DiscretePlayer) Play(sounds []Sound, completion func(bool)) {
	if completion == nil {
		completion = func(bool) {}
	}

	p.mu.Lock()
	previous := p.completion
	if p.playing {
		p.output.ClearBuffer()
	}
	p.generation++
	generation := p.generation
	p.playing = true
	p.completion = completion
	p.mu.Unlock()

	if previous != nil {
		previous(false)
	}

	go p.render(generation, sounds, true)
}

func (p *DiscretePlayer) render(generation uint64, sounds []Sound, report bool) {
	ctx, span := tracer.Start(p.baseCtx, "render discrete sounds")
	defer span.End()
	span.SetAttributes(attribute.Int("audio.sound_count", len(sounds)))

	encoding := p.output.EncodingInfo()
	for _, sound := range sounds {
		pcm, err := p.synthesizer.Synthesize(ctx, sound, encoding)
		if err != nil {
			err = fmt.Errorf("failed to synthesize %s: %w", sound.Description(), err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if report {
				p.finish(generation, false)
			}
			return
		}

		if !p.send(generation, pcm) {
			return
		}
	}

	if !report {
		return
	}

	if err := p.output.Mark(uuid.NewString(), func(string) { p.finish(generation, true) }); err != nil {
		err = fmt.Errorf("failed to mark end of sounds: %w", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		p.finish(generation, false)
	}
}

// send writes pcm unless the request was superseded while it was rendering.
func (p *DiscretePlayer) send(generation uint64, pcm []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if generation != p.generation {
		return false
	}
	if err := p.output.SendAudio(pcm); err != nil {
		logger.Error("failed to send audio to output", "error", err)
		return false
	}
	return true
}

func (p *DiscretePlayer) finish(generation uint64, success bool) {
	p.mu.Lock()
	if generation != p.generation || !p.playing {
		p.mu.Unlock()
		return
	}
	p.playing = false
	completion := p.completion
	p.completion = nil
	p.mu.Unlock()

	completion(success)
}

func (p *DiscretePlayer) StopDiscrete(with Sound) {
	p.mu.Lock()
	p.generation++
	generation := p.generation
	completion := p.completion
	p.playing = false
	p.completion = nil
	p.output.ClearBuffer()
	p.mu.Unlock()

	if completion != nil {
		completion(false)
	}
	if with != nil {
		go p.render(generation, []Sound{with}, false)
	}
}

func (p *DiscretePlayer) IsDiscreteAudioPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.playing
}

var ErrUnsupportedSound = errors.New("unsupported sound")

// Renderer routes speech and earcons to their synthesizers and mixes layered
// sounds. It only supports linear16 output.
type Renderer struct {
	Speech  Synthesizer
	Earcons Synthesizer
}

func (r Renderer) Synthesize(ctx context.Context, sound Sound, encoding EncodingInfo) ([]byte, error) {
	switch s := sound.(type) {
	case TTSSound:
		if r.Speech == nil {
			return nil, fmt.Errorf("no speech synthesizer: %w", ErrUnsupportedSound)
		}
		return r.Speech.Synthesize(ctx, s, encoding)
	case EarconSound:
		if r.Earcons == nil {
			return nil, fmt.Errorf("no earcon synthesizer: %w", ErrUnsupportedSound)
		}
		return r.Earcons.Synthesize(ctx, s, encoding)
	case LayeredSound:
		layers := make([][]byte, 0, len(s.Sounds))
		for _, layer := range s.Sounds {
			pcm, err := r.Synthesize(ctx, layer, encoding)
			if err != nil {
				return nil, err
			}
			layers = append(layers, pcm)
		}
		return MixLinear16(layers...), nil
	}

	return nil, fmt.Errorf("%T: %w", sound, ErrUnsupportedSound)
}
