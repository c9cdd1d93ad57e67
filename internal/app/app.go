// Package app builds the collaborators shared by the soundscape binaries
// from the configuration.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/microsoft/soundscape-core/core/ambient"
	"github.com/microsoft/soundscape-core/core/audio"
	"github.com/microsoft/soundscape-core/core/audio/deepgram"
	"github.com/microsoft/soundscape-core/core/audio/miniaudio"
	"github.com/microsoft/soundscape-core/core/audio/portaudio"
	"github.com/microsoft/soundscape-core/core/beacon"
	"github.com/microsoft/soundscape-core/core/geolocation"
	"github.com/microsoft/soundscape-core/core/spatial"
	"github.com/microsoft/soundscape-core/internal/config"
)

type Services struct {
	Config      *config.Config
	Store       *spatial.Store
	Geolocation *geolocation.Manager
	Beacons     *beacon.MemoryManager
	Ambient     *ambient.Behavior
	Engine      audio.Engine

	closers []func()
}

// New builds the services. Callout text goes to out when the console audio
// backend is configured. now is the clock filters run on, time.Now when
// nil.
func New(ctx context.Context, cfg *config.Config, out io.Writer, now func() time.Time) (*Services, error) {
	if now == nil {
		now = time.Now
	}

	store, err := newStore(cfg.Spatial)
	if err != nil {
		return nil, err
	}

	s := &Services{
		Config:      cfg,
		Store:       store,
		Geolocation: geolocation.NewManager(),
		Beacons:     beacon.NewMemoryManager(cfg.Beacon.Options()...),
	}

	s.Ambient = ambient.NewBehavior(
		ambient.NewAutoGenerator(store, cfg.Ambient.AutoOptions(now)...),
		ambient.NewLocateGenerator(store, ambient.WithHeading(s.Heading)),
	)

	if err := s.newEngine(ctx, cfg.Audio, out); err != nil {
		return nil, err
	}
	return s, nil
}

func newStore(cfg config.SpatialConfig) (*spatial.Store, error) {
	if cfg.Fixture == "" {
		return spatial.NewStore(nil, nil, cfg.StoreOptions()...), nil
	}

	store, err := spatial.LoadStore(cfg.Fixture, cfg.StoreOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to load spatial data: %w", err)
	}
	return store, nil
}

func (s *Services) newEngine(ctx context.Context, cfg config.AudioConfig, out io.Writer) error {
	if cfg.Backend == "console" || cfg.Backend == "" {
		s.Engine = audio.NewConsoleEngine(out,
			audio.WithSpeechRate(cfg.WordsPerSecond),
			audio.WithEarconDuration(cfg.EarconDuration),
		)
		return nil
	}

	opts := []deepgram.Option{}
	if cfg.APIKey != "" {
		opts = append(opts, deepgram.WithAPIKey(cfg.APIKey))
	}
	if cfg.Voice != "" {
		opts = append(opts, deepgram.WithVoice(deepgram.Voice(cfg.Voice)))
	}
	speech, err := deepgram.NewSpeechSynthesizer(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to create speech synthesizer: %w", err)
	}

	var output audio.Output
	switch cfg.Backend {
	case "portaudio":
		client, err := portaudio.NewClient(portaudio.DefaultFramesPerBuffer)
		if err != nil {
			return fmt.Errorf("failed to open audio output: %w", err)
		}
		s.closers = append(s.closers, client.Close)
		output = client
	default:
		client, err := miniaudio.NewClient()
		if err != nil {
			return fmt.Errorf("failed to open audio output: %w", err)
		}
		s.closers = append(s.closers, client.Close)
		output = client
	}

	renderer := audio.Renderer{Speech: speech, Earcons: audio.NewEarconLibrary()}
	s.Engine = audio.NewDiscretePlayer(ctx, renderer, output)
	return nil
}

// Heading is the user's heading in the geolocation manager's default order.
func (s *Services) Heading() (float64, bool) {
	heading, _, ok := s.Geolocation.Heading()
	return heading, ok
}

func (s *Services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}
