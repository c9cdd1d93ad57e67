package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func awaitCompletion(t *testing.T, results <-chan bool) bool {
	t.Helper()

	select {
	case success := <-results:
		return success
	case <-time.After(2 * time.Second):
		t.Fatalf("expected completion to be called")
		return false
	}
}

func TestConsoleEngineCompletesPlayback(t *testing.T) {
	var out bytes.Buffer
	engine := NewConsoleEngine(&out, WithSpeechRate(100), WithEarconDuration(20*time.Millisecond))

	results := make(chan bool, 1)
	engine.Play([]Sound{NewEarcon(EarconSenseLocation), NewTTSSound("Main Street ahead")}, func(success bool) { results <- success })

	if !engine.IsDiscreteAudioPlaying() {
		t.Fatalf("expected engine to be playing")
	}
	if !awaitCompletion(t, results) {
		t.Fatalf("expected successful completion")
	}
	if engine.IsDiscreteAudioPlaying() {
		t.Fatalf("expected engine to be idle after completion")
	}
	if !strings.Contains(out.String(), `"Main Street ahead"`) {
		t.Fatalf("expected phrase in output, got %q", out.String())
	}
}

func TestConsoleEngineStopReportsFailure(t *testing.T) {
	var out bytes.Buffer
	engine := NewConsoleEngine(&out, WithSpeechRate(0.01))

	results := make(chan bool, 1)
	engine.Play([]Sound{NewTTSSound("a very long phrase")}, func(success bool) { results <- success })
	engine.StopDiscrete(NewEarcon(EarconHush))

	if awaitCompletion(t, results) {
		t.Fatalf("expected stopped playback to report failure")
	}
	if !strings.Contains(out.String(), "[hush]") {
		t.Fatalf("expected hush earcon in output, got %q", out.String())
	}
}

type fakeOutput struct {
	mu      sync.Mutex
	audio   []byte
	marks   []func(string)
	cleared int
}

func (o *fakeOutput) SendAudio(audio []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.audio = append(o.audio, audio...)
	return nil
}

func (o *fakeOutput) Mark(name string, callback func(string)) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.marks = append(o.marks, callback)
	return nil
}

func (o *fakeOutput) ClearBuffer() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.audio = nil
	o.marks = nil
	o.cleared++
}

func (o *fakeOutput) EncodingInfo() EncodingInfo { return GetDefaultEncodingInfo() }

// playAll pretends the device played everything queued.
func (o *fakeOutput) playAll() int {
	o.mu.Lock()
	marks := o.marks
	o.marks = nil
	o.mu.Unlock()

	for _, mark := range marks {
		mark("")
	}
	return len(marks)
}

func (o *fakeOutput) awaitMark(t *testing.T) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		o.mu.Lock()
		count := len(o.marks)
		o.mu.Unlock()
		if count > 0 {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("expected a playback mark")
}

type fakeSpeech struct{ err error }

func (s fakeSpeech) Synthesize(_ context.Context, sound Sound, _ EncodingInfo) ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []byte(sound.(TTSSound).Text), nil
}

func TestDiscretePlayerReportsCompletionAtMark(t *testing.T) {
	output := &fakeOutput{}
	player := NewDiscretePlayer(context.Background(), Renderer{Speech: fakeSpeech{}, Earcons: NewEarconLibrary()}, output)

	results := make(chan bool, 1)
	player.Play([]Sound{NewTTSSound("ab"), NewTTSSound("cd")}, func(success bool) { results <- success })

	output.awaitMark(t)
	if string(output.audio) != "abcd" {
		t.Fatalf("expected sounds to be sent in order, got %q", output.audio)
	}
	if !player.IsDiscreteAudioPlaying() {
		t.Fatalf("expected player to be playing until the mark")
	}

	output.playAll()
	if !awaitCompletion(t, results) {
		t.Fatalf("expected successful completion")
	}
}

func TestDiscretePlayerStopCompletesOnce(t *testing.T) {
	output := &fakeOutput{}
	player := NewDiscretePlayer(context.Background(), Renderer{Speech: fakeSpeech{}}, output)

	var mu sync.Mutex
	var calls []bool
	player.Play([]Sound{NewTTSSound("ab")}, func(success bool) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, success)
	})
	output.awaitMark(t)

	var marks []func(string)
	output.mu.Lock()
	marks = append(marks, output.marks...)
	output.mu.Unlock()

	player.StopDiscrete(nil)
	for _, mark := range marks {
		mark("")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(calls) != 1 || calls[0] {
		t.Fatalf("expected a single failed completion, got %v", calls)
	}
	if player.IsDiscreteAudioPlaying() {
		t.Fatalf("expected player to be idle after stop")
	}
}

func TestDiscretePlayerFailsOnSynthesisError(t *testing.T) {
	output := &fakeOutput{}
	player := NewDiscretePlayer(context.Background(), Renderer{Speech: fakeSpeech{err: errors.New("offline")}}, output)

	results := make(chan bool, 1)
	player.Play([]Sound{NewTTSSound("ab")}, func(success bool) { results <- success })

	if awaitCompletion(t, results) {
		t.Fatalf("expected synthesis error to fail playback")
	}
}

func TestEarconLibrarySynthesizesKnownEarcons(t *testing.T) {
	library := NewEarconLibrary()
	encoding := GetDefaultEncodingInfo()

	pcm, err := library.Synthesize(context.Background(), NewEarcon(EarconSenseLocation), encoding)
	if err != nil {
		t.Fatalf("expected earcon audio, got error %v", err)
	}
	if got := encoding.Duration(len(pcm)); got != 80*time.Millisecond {
		t.Fatalf("expected 80ms of audio, got %v", got)
	}

	if _, err := library.Synthesize(context.Background(), NewEarcon("unknown"), encoding); !errors.Is(err, ErrUnknownEarcon) {
		t.Fatalf("expected unknown earcon error, got %v", err)
	}
}

func TestMixLinear16ClipsAndPads(t *testing.T) {
	sample := func(values ...int16) []byte {
		buffer := make([]byte, len(values)*2)
		for i, value := range values {
			binary.LittleEndian.PutUint16(buffer[i*2:], uint16(value))
		}
		return buffer
	}

	mixed := MixLinear16(sample(30000, 100), sample(30000, -50, 7))
	expected := sample(32767, 50, 7)
	if !bytes.Equal(mixed, expected) {
		t.Fatalf("expected %v, got %v", expected, mixed)
	}
}
