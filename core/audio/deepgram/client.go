package deepgram

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/gorilla/websocket"
)

type Voice string

const defaultVoice Voice = "aura-2-thalia-en"

func GetAvailableVoices() []Voice {
	return []Voice{
		"aura-2-thalia-en",
		"aura-2-andromeda-en",
		"aura-2-apollo-en",
		"aura-2-arcas-en",
		"aura-2-helena-en",
		"aura-2-orion-en",
	}
}

// SpeechSynthesizer renders speech with Deepgram's streaming text to speech
// API. Every phrase uses its own websocket connection so a stopped phrase can
// never leak audio into the next one.
type SpeechSynthesizer struct {
	voice  Voice
	apiKey string
	host   string
	scheme string
	dialer *websocket.Dialer
}

type Option func(*SpeechSynthesizer)

func WithVoice(voice Voice) Option {
	return func(s *SpeechSynthesizer) { s.voice = voice }
}

func WithAPIKey(apiKey string) Option {
	return func(s *SpeechSynthesizer) { s.apiKey = apiKey }
}

// WithEndpoint points the synthesizer at another host, e.g. a local proxy.
func WithEndpoint(scheme, host string) Option {
	return func(s *SpeechSynthesizer) {
		s.scheme = scheme
		s.host = host
	}
}

func NewSpeechSynthesizer(_ context.Context, opts ...Option) (*SpeechSynthesizer, error) {
	synthesizer := &SpeechSynthesizer{
		voice:  defaultVoice,
		scheme: "wss",
		host:   "api.deepgram.com",
		dialer: websocket.DefaultDialer,
	}

	for _, opt := range opts {
		opt(synthesizer)
	}

	if !slices.Contains(GetAvailableVoices(), synthesizer.voice) {
		return nil, fmt.Errorf("invalid voice %q", synthesizer.voice)
	}

	if synthesizer.apiKey == "" {
		apiKey, ok := os.LookupEnv("DEEPGRAM_API_KEY")
		if !ok {
			return nil, fmt.Errorf("deepgram api key not found")
		}
		synthesizer.apiKey = apiKey
	}

	return synthesizer, nil
}

func (s *SpeechSynthesizer) SetVoice(voice Voice) {
	s.voice = voice
}
