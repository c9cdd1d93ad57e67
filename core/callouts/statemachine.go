package callouts

import (
	"context"
	"errors"
	"time"

	"github.com/microsoft/soundscape-core/core/audio"
	"github.com/microsoft/soundscape-core/core/geometry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var ErrAudioFailed = errors.New("audio playback failed")

// StateMachine plays one callout group at a time.
//
// It is not safe for concurrent use: every method must be called from the
// goroutine that runs the Dispatcher's functions. Audio completions and
// delay timers are delivered through the Dispatcher.
type StateMachine struct {
	engine     audio.Engine
	dispatcher Dispatcher
	delegate   StateMachineDelegate
	location   func() *geometry.Location
	baseCtx    context.Context

	state       State
	group       *Group
	current     Callout
	interrupted bool
	playHush    bool

	playToken       uint64
	delayGeneration uint64
	delayTimer      *time.Timer

	pending    []func()
	processing bool

	span trace.Span
}

type StateMachineOption func(*StateMachine)

// WithLocationProvider supplies the user location callouts are rendered
// from.
func WithLocationProvider(location func() *geometry.Location) StateMachineOption {
	return func(m *StateMachine) { m.location = location }
}

func WithContext(ctx context.Context) StateMachineOption {
	return func(m *StateMachine) { m.baseCtx = ctx }
}

func NewStateMachine(engine audio.Engine, dispatcher Dispatcher, delegate StateMachineDelegate, opts ...StateMachineOption) *StateMachine {
	m := &StateMachine{
		engine:     engine,
		dispatcher: dispatcher,
		delegate:   delegate,
		location:   func() *geometry.Location { return nil },
		baseCtx:    context.Background(),
		state:      StateOff,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

func (m *StateMachine) State() State {
	return m.state
}

// IsActive reports whether a group is currently being played.
func (m *StateMachine) IsActive() bool {
	return m.state != StateOff
}

// GroupID returns the id of the group being played.
func (m *StateMachine) GroupID() (string, bool) {
	if m.group == nil {
		return "", false
	}
	return m.group.ID, true
}

// Start begins playing group. It returns false, and does nothing, unless
// the machine is off.
func (m *StateMachine) Start(group *Group) bool {
	if group == nil {
		return false
	}
	if m.state != StateOff {
		logger.Info("callout group rejected, another group is playing",
			"group", group.ID, "state", m.state.String())
		return false
	}

	m.group = group
	m.current = nil
	m.interrupted = false
	m.playHush = false

	_, m.span = tracer.Start(m.baseCtx, "play callout group", trace.WithAttributes(
		attribute.String("callouts.group_id", group.ID),
		attribute.Int("callouts.count", len(group.Callouts)),
		attribute.String("callouts.log_context", group.LogContext),
	))

	m.fire(triggerStart)
	return true
}

// Hush stops the current group, optionally playing the hush earcon.
func (m *StateMachine) Hush(playSound bool) {
	if !m.state.active() {
		return
	}

	m.playHush = playSound
	m.fire(triggerHush)
}

// Stop stops the current group silently.
func (m *StateMachine) Stop() {
	if !m.state.active() {
		return
	}

	m.playHush = false
	m.fire(triggerStop)
}

func (m *StateMachine) fire(trigger Trigger) {
	m.enqueue(func() { m.apply(trigger) })
}

// enqueue runs fn after everything already queued. Triggers fired while a
// transition is being processed wait until it completes.
func (m *StateMachine) enqueue(fn func()) {
	m.pending = append(m.pending, fn)
	if m.processing {
		return
	}

	m.processing = true
	for len(m.pending) > 0 {
		next := m.pending[0]
		m.pending = m.pending[1:]
		next()
	}
	m.processing = false
}

func (m *StateMachine) apply(trigger Trigger) {
	to, ok := nextState(m.state, trigger)
	if !ok {
		logger.Debug("callout state machine ignored trigger",
			"state", m.state.String(), "trigger", trigger.String())
		return
	}

	from := m.state
	m.state = to
	if m.span != nil {
		m.span.AddEvent("transition", trace.WithAttributes(
			attribute.String("callouts.from", from.String()),
			attribute.String("callouts.to", to.String()),
			attribute.String("callouts.trigger", trigger.String()),
		))
	}

	m.enter(to)
}

func (m *StateMachine) enter(state State) {
	switch state {
	case StateStart:
		m.enterStart()
	case StateAnnounceCallout:
		m.enterAnnounceCallout()
	case StateAnnouncingCallout:
		m.enterAnnouncingCallout()
	case StateDelayingCalloutAnnounced:
		m.enterDelayingCalloutAnnounced()
	case StateStop:
		m.enterStop()
	case StateComplete:
		m.enterComplete()
	case StateFailed:
		m.enterFailed()
	case StateOff:
		m.enterOff()
	}
}

func (m *StateMachine) renderLocation() *geometry.Location {
	if m.group != nil && m.group.RepeatingFromLocation != nil {
		return m.group.RepeatingFromLocation
	}
	return m.location()
}

func (m *StateMachine) play(sounds []audio.Sound) {
	m.playToken++
	token := m.playToken
	m.engine.Play(sounds, func(success bool) {
		m.dispatcher.Dispatch(func() {
			m.enqueue(func() { m.soundsFinished(token, success) })
		})
	})
}

func (m *StateMachine) soundsFinished(token uint64, success bool) {
	switch m.state {
	case StateStopping:
		if token != m.playToken {
			return
		}
		m.fire(triggerStopped)
	case StateOff:
	case StateStarting:
		if token != m.playToken {
			return
		}
		if !success {
			m.fire(triggerFail)
			return
		}
		m.fire(triggerStarted)
	case StateAnnouncingCallout:
		if token != m.playToken {
			return
		}
		if !success {
			m.fire(triggerFail)
			return
		}
		if m.group.Delegate != nil {
			m.group.Delegate.CalloutFinished(m.current, true)
		}
		m.current = nil
		m.fire(triggerDelayCalloutAnnounced)
	default:
		logger.Debug("ignoring stale audio completion", "state", m.state.String())
	}
}

func (m *StateMachine) enterStart() {
	group := m.group
	if group.Delegate != nil {
		group.Delegate.CalloutsStarted(group)
	}
	if group.OnStart != nil {
		group.OnStart()
	}

	var sounds []audio.Sound
	if group.PlayModeSounds {
		sounds = append(sounds, audio.NewEarcon(audio.EarconModeEnter))
	}
	if group.Prefix != nil {
		sounds = append(sounds, group.Prefix.Sounds(m.renderLocation(), group.IsRepeat())...)
	}

	if len(sounds) == 0 {
		m.fire(triggerStarted)
		return
	}

	m.fire(triggerStarting)
	m.play(sounds)
}

func (m *StateMachine) enterAnnounceCallout() {
	group := m.group
	callout, ok := group.Next()
	if !ok {
		m.fire(triggerComplete)
		return
	}

	if group.Delegate != nil && !group.Delegate.IsCalloutWithinRegionToLive(callout) {
		logger.Debug("skipping callout outside its region to live",
			"callout", callout.ID(), "category", callout.LogCategory())
		calloutsSkipped.Add(m.baseCtx, 1, metric.WithAttributes(attribute.String("callouts.category", callout.LogCategory())))
		group.Delegate.CalloutSkipped(callout)
		m.fire(triggerSkip)
		return
	}

	m.current = callout
	m.fire(triggerAnnounce)
}

func (m *StateMachine) enterAnnouncingCallout() {
	group := m.group
	callout := m.current
	if group.Delegate != nil {
		group.Delegate.CalloutStarting(callout)
	}

	calloutsPlayed.Add(m.baseCtx, 1, metric.WithAttributes(attribute.String("callouts.category", callout.LogCategory())))
	sounds := callout.Sounds(m.renderLocation(), group.IsRepeat())
	if len(sounds) == 0 {
		m.soundsFinished(m.playToken, true)
		return
	}

	m.play(sounds)
}

func (m *StateMachine) enterDelayingCalloutAnnounced() {
	delay := m.group.CalloutDelay
	if delay <= 0 {
		m.fire(triggerCalloutAnnounced)
		return
	}

	m.delayGeneration++
	generation := m.delayGeneration
	m.delayTimer = time.AfterFunc(delay, func() {
		m.dispatcher.Dispatch(func() {
			m.enqueue(func() {
				if m.state == StateDelayingCalloutAnnounced && generation == m.delayGeneration {
					m.fire(triggerCalloutAnnounced)
				}
			})
		})
	})
}

func (m *StateMachine) cancelDelay() {
	m.delayGeneration++
	if m.delayTimer != nil {
		m.delayTimer.Stop()
		m.delayTimer = nil
	}
}

func (m *StateMachine) enterStop() {
	m.interrupted = true
	m.cancelDelay()

	if m.current != nil {
		if m.group.Delegate != nil {
			m.group.Delegate.CalloutFinished(m.current, false)
		}
		m.current = nil
	}

	var with audio.Sound
	if m.playHush {
		with = audio.NewEarcon(audio.EarconHush)
	}

	// stopping must be queued before StopDiscrete so that a synchronous
	// completion is handled in the stopping state.
	playing := m.engine.IsDiscreteAudioPlaying()
	if playing {
		m.fire(triggerStopping)
	} else {
		m.fire(triggerStopped)
	}

	if playing || with != nil {
		m.engine.StopDiscrete(with)
	}
}

func (m *StateMachine) enterComplete() {
	group := m.group
	finished := !m.interrupted
	if group.Delegate != nil {
		group.Delegate.CalloutsCompleted(group, finished)
	}
	if group.OnComplete != nil {
		group.OnComplete(finished)
	}

	if finished && group.PlayModeSounds {
		m.engine.Play([]audio.Sound{audio.NewEarcon(audio.EarconModeExit)}, nil)
	}

	m.fire(triggerCompleted)
}

func (m *StateMachine) enterFailed() {
	group := m.group
	m.interrupted = true
	m.cancelDelay()

	if m.span != nil {
		m.span.RecordError(ErrAudioFailed)
		m.span.SetStatus(codes.Error, ErrAudioFailed.Error())
	}
	logger.Warn("callout group failed", "group", group.ID, "log_context", group.LogContext)

	if group.Delegate != nil {
		if m.current != nil {
			group.Delegate.CalloutFinished(m.current, false)
		}
		group.Delegate.CalloutsCompleted(group, false)
	}
	m.current = nil
	if group.OnComplete != nil {
		group.OnComplete(false)
	}

	m.fire(triggerReset)
}

func (m *StateMachine) enterOff() {
	group := m.group
	if group == nil {
		return
	}

	m.group = nil
	m.current = nil
	if m.span != nil {
		m.span.End()
		m.span = nil
	}

	if m.delegate != nil {
		id := group.ID
		m.dispatcher.Dispatch(func() { m.delegate.CalloutsDidFinish(id) })
	}
}
