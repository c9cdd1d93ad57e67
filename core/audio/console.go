package audio

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

const (
	defaultWordsPerSecond = 3.0
	defaultEarconDuration = 400 * time.Millisecond
)

// ConsoleEngine writes sounds as text and pretends to play them for as long
// as they would take to say out loud.
type ConsoleEngine struct {
	mu  sync.Mutex
	out io.Writer

	wordsPerSecond float64
	earconDuration time.Duration

	current *consoleRequest
}

type consoleRequest struct {
	timer      *time.Timer
	completion func(bool)
}

type ConsoleOption func(*ConsoleEngine)

func WithSpeechRate(wordsPerSecond float64) ConsoleOption {
	return func(e *ConsoleEngine) {
		if wordsPerSecond > 0 {
			e.wordsPerSecond = wordsPerSecond
		}
	}
}

func WithEarconDuration(duration time.Duration) ConsoleOption {
	return func(e *ConsoleEngine) { e.earconDuration = duration }
}

func NewConsoleEngine(out io.Writer, opts ...ConsoleOption) *ConsoleEngine {
	e := &ConsoleEngine{
		out:            out,
		wordsPerSecond: defaultWordsPerSecond,
		earconDuration: defaultEarconDuration,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

func (e *ConsoleEngine) Play(sounds []Sound, completion func(bool)) {
	if completion == nil {
		completion = func(bool) {}
	}

	e.mu.Lock()
	previous := e.current
	if previous != nil {
		previous.timer.Stop()
	}

	request := &consoleRequest{completion: completion}
	e.current = request
	fmt.Fprintf(e.out, "♪ %s\n", Describe(sounds))
	request.timer = time.AfterFunc(e.estimate(sounds), func() { e.finish(request) })
	e.mu.Unlock()

	if previous != nil {
		previous.completion(false)
	}
}

func (e *ConsoleEngine) finish(request *consoleRequest) {
	e.mu.Lock()
	if e.current != request {
		e.mu.Unlock()
		return
	}
	e.current = nil
	e.mu.Unlock()

	request.completion(true)
}

func (e *ConsoleEngine) StopDiscrete(with Sound) {
	e.mu.Lock()
	request := e.current
	e.current = nil
	if request != nil {
		request.timer.Stop()
	}
	if with != nil {
		fmt.Fprintf(e.out, "✕ %s\n", with.Description())
	}
	e.mu.Unlock()

	if request != nil {
		request.completion(false)
	}
}

func (e *ConsoleEngine) IsDiscreteAudioPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.current != nil
}

func (e *ConsoleEngine) estimate(sounds []Sound) time.Duration {
	var total time.Duration
	for _, sound := range sounds {
		total += e.soundDuration(sound)
	}
	return total
}

func (e *ConsoleEngine) soundDuration(sound Sound) time.Duration {
	switch s := sound.(type) {
	case TTSSound:
		words := len(strings.Fields(s.Text))
		return time.Duration(float64(words) / e.wordsPerSecond * float64(time.Second))
	case EarconSound:
		return e.earconDuration
	case LayeredSound:
		var longest time.Duration
		for _, layer := range s.Sounds {
			longest = max(longest, e.soundDuration(layer))
		}
		return longest
	}
	return 0
}
