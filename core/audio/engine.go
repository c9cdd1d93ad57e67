package audio

// Engine plays discrete sounds one request at a time.
//
// Play starts playing sounds in order and calls completion once: with true
// when every sound finished, or with false when playback failed or was
// stopped. Completion may be called from any goroutine.
type Engine interface {
	Play(sounds []Sound, completion func(success bool))
	// StopDiscrete stops the current request. When with is not nil it is
	// played in place of the stopped sounds.
	StopDiscrete(with Sound)
	IsDiscreteAudioPlaying() bool
}
