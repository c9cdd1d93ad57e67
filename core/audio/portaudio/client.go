package portaudio

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/microsoft/soundscape-core/core/audio"
)

const DefaultFramesPerBuffer = 1024

// Client plays mono linear16 PCM on the default PortAudio output. It is an
// alternative audio.Output for hosts where miniaudio has no usable backend.
type Client struct {
	stream *portaudio.Stream
	out    []int16

	mu      sync.Mutex
	pending []byte
	marks   []playbackMark

	wake      chan struct{}
	done      chan struct{}
	exited    chan struct{}
	closeOnce sync.Once
}

type playbackMark struct {
	name     string
	position int
	callback func(string)
}

func NewClient(framesPerBuffer int) (*Client, error) {
	if framesPerBuffer <= 0 {
		framesPerBuffer = DefaultFramesPerBuffer
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	c := &Client{
		out:    make([]int16, framesPerBuffer),
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}

	stream, err := portaudio.OpenDefaultStream(0, 1, float64(audio.DefaultSampleRate), framesPerBuffer, c.out)
	if err != nil {
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to open PortAudio stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return nil, fmt.Errorf("failed to start PortAudio stream: %w", err)
	}
	c.stream = stream

	go c.run()
	return c, nil
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		<-c.exited
		_ = c.stream.Stop()
		_ = c.stream.Close()
		_ = portaudio.Terminate()
	})
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.EncodingInfo{
		SampleRate: audio.DefaultSampleRate,
		Format:     audio.EncodingLinear16,
	}
}

func (c *Client) SendAudio(pcm []byte) error {
	select {
	case <-c.done:
		return fmt.Errorf("portaudio client is closed")
	default:
	}

	c.mu.Lock()
	c.pending = append(c.pending, pcm...)
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
	return nil
}

// ClearBuffer drops queued audio together with its marks. Dropped marks are
// never called.
func (c *Client) ClearBuffer() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
	c.marks = nil
}

// Mark calls callback once everything sent so far has been written to the
// device.
func (c *Client) Mark(name string, callback func(string)) error {
	c.mu.Lock()
	if len(c.pending) == 0 {
		c.mu.Unlock()
		go callback(name)
		return nil
	}
	c.marks = append(c.marks, playbackMark{name: name, position: len(c.pending), callback: callback})
	c.mu.Unlock()
	return nil
}

// run writes pending audio one buffer at a time. Write blocks until the
// device has room, which paces the loop.
func (c *Client) run() {
	defer close(c.exited)

	for {
		c.mu.Lock()
		n := min(len(c.pending), len(c.out)*2)
		if n == 0 {
			c.mu.Unlock()
			select {
			case <-c.done:
				return
			case <-c.wake:
			}
			continue
		}

		clear(c.out)
		for i := 0; i+1 < n; i += 2 {
			c.out[i/2] = int16(binary.LittleEndian.Uint16(c.pending[i:]))
		}
		c.pending = c.pending[n:]
		passed := c.advanceMarks(n)
		c.mu.Unlock()

		if err := c.stream.Write(); err != nil {
			logger.Warn("failed to write to PortAudio stream", "error", err)
		}
		for _, mark := range passed {
			mark.callback(mark.name)
		}

		select {
		case <-c.done:
			return
		default:
		}
	}
}

// advanceMarks moves every mark back by written bytes and returns the ones
// that have now been reached. Callers hold mu.
func (c *Client) advanceMarks(written int) []playbackMark {
	var passed []playbackMark
	remaining := c.marks[:0]
	for _, mark := range c.marks {
		mark.position -= written
		if mark.position <= 0 {
			passed = append(passed, mark)
		} else {
			remaining = append(remaining, mark)
		}
	}
	c.marks = remaining
	return passed
}
