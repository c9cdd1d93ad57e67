package callouts

import (
	"sync"
	"testing"
	"time"

	"github.com/microsoft/soundscape-core/core/audio"
	"github.com/microsoft/soundscape-core/core/geometry"
)

type fakeEngine struct {
	mu          sync.Mutex
	plays       [][]audio.Sound
	completion  func(bool)
	stoppedWith []audio.Sound
	stops       int
}

func (e *fakeEngine) Play(sounds []audio.Sound, completion func(bool)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if completion == nil {
		completion = func(bool) {}
	}
	e.plays = append(e.plays, sounds)
	e.completion = completion
}

// finish completes the sounds that are currently playing.
func (e *fakeEngine) finish(success bool) {
	e.mu.Lock()
	completion := e.completion
	e.completion = nil
	e.mu.Unlock()

	if completion != nil {
		completion(success)
	}
}

func (e *fakeEngine) StopDiscrete(with audio.Sound) {
	e.mu.Lock()
	completion := e.completion
	e.completion = nil
	e.stops++
	if with != nil {
		e.stoppedWith = append(e.stoppedWith, with)
	}
	e.mu.Unlock()

	if completion != nil {
		completion(false)
	}
}

func (e *fakeEngine) IsDiscreteAudioPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.completion != nil
}

func (e *fakeEngine) playCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.plays)
}

type queueDispatcher struct {
	mu  sync.Mutex
	fns []func()
}

func (d *queueDispatcher) Dispatch(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fns = append(d.fns, fn)
}

func (d *queueDispatcher) drain() {
	for {
		d.mu.Lock()
		if len(d.fns) == 0 {
			d.mu.Unlock()
			return
		}
		fn := d.fns[0]
		d.fns = d.fns[1:]
		d.mu.Unlock()
		fn()
	}
}

// runLast runs only the most recently dispatched function, ahead of anything
// dispatched earlier.
func (d *queueDispatcher) runLast() {
	d.mu.Lock()
	if len(d.fns) == 0 {
		d.mu.Unlock()
		return
	}
	fn := d.fns[len(d.fns)-1]
	d.fns = d.fns[:len(d.fns)-1]
	d.mu.Unlock()
	fn()
}

type recordingDelegate struct {
	NopDelegate

	outOfRegion map[string]bool
	skipped     []string
	starting    []string
	finished    []bool
	started     int
	completed   []bool
}

func (d *recordingDelegate) IsCalloutWithinRegionToLive(callout Callout) bool {
	return !d.outOfRegion[callout.ID()]
}
func (d *recordingDelegate) CalloutSkipped(callout Callout)  { d.skipped = append(d.skipped, callout.ID()) }
func (d *recordingDelegate) CalloutStarting(callout Callout) { d.starting = append(d.starting, callout.ID()) }
func (d *recordingDelegate) CalloutFinished(_ Callout, completed bool) {
	d.finished = append(d.finished, completed)
}
func (d *recordingDelegate) CalloutsStarted(*Group) { d.started++ }
func (d *recordingDelegate) CalloutsCompleted(_ *Group, finished bool) {
	d.completed = append(d.completed, finished)
}

type finishRecorder struct{ ids []string }

func (r *finishRecorder) CalloutsDidFinish(id string) { r.ids = append(r.ids, id) }

func newTestMachine() (*StateMachine, *fakeEngine, *queueDispatcher, *finishRecorder) {
	engine := &fakeEngine{}
	dispatcher := &queueDispatcher{}
	finished := &finishRecorder{}
	return NewStateMachine(engine, dispatcher, finished), engine, dispatcher, finished
}

func threeCallouts() []Callout {
	return []Callout{
		NewStringCallout("test", "one"),
		NewStringCallout("test", "two"),
		NewStringCallout("test", "three"),
	}
}

func TestStateMachinePlaysGroupToCompletion(t *testing.T) {
	machine, engine, dispatcher, finished := newTestMachine()
	delegate := &recordingDelegate{}
	group := NewGroup(threeCallouts(), WithDelegate(delegate))

	if !machine.Start(group) {
		t.Fatalf("expected group to start")
	}

	for i := 0; i < 3; i++ {
		if machine.State() != StateAnnouncingCallout {
			t.Fatalf("expected announcing state before callout %d, got %v", i, machine.State())
		}
		engine.finish(true)
		dispatcher.drain()
	}

	if machine.State() != StateOff {
		t.Fatalf("expected machine to be off, got %v", machine.State())
	}
	if len(finished.ids) != 1 || finished.ids[0] != group.ID {
		t.Fatalf("expected a single finish notification for %s, got %v", group.ID, finished.ids)
	}
	if len(delegate.finished) != 3 || !delegate.finished[0] || !delegate.finished[2] {
		t.Fatalf("expected three completed callouts, got %v", delegate.finished)
	}
	if len(delegate.completed) != 1 || !delegate.completed[0] {
		t.Fatalf("expected group to complete as finished, got %v", delegate.completed)
	}
	if engine.playCount() != 3 {
		t.Fatalf("expected 3 plays, got %d", engine.playCount())
	}
}

func TestStateMachineRejectsStartWhilePlaying(t *testing.T) {
	machine, engine, dispatcher, finished := newTestMachine()
	first := NewGroup(threeCallouts()[:1])

	machine.Start(first)
	if machine.Start(NewGroup(threeCallouts())) {
		t.Fatalf("expected second group to be rejected")
	}

	engine.finish(true)
	dispatcher.drain()

	if len(finished.ids) != 1 || finished.ids[0] != first.ID {
		t.Fatalf("expected only the first group to finish, got %v", finished.ids)
	}
	if !machine.Start(NewGroup(threeCallouts()[:1])) {
		t.Fatalf("expected machine to accept a group once off")
	}
}

func TestStateMachineHushMidAnnounce(t *testing.T) {
	machine, engine, dispatcher, finished := newTestMachine()
	delegate := &recordingDelegate{}
	group := NewGroup(threeCallouts(), WithDelegate(delegate))

	machine.Start(group)
	machine.Hush(true)
	dispatcher.drain()

	if machine.State() != StateOff {
		t.Fatalf("expected machine to be off after hush, got %v", machine.State())
	}
	if len(delegate.finished) != 1 || delegate.finished[0] {
		t.Fatalf("expected only the in-flight callout to finish as incomplete, got %v", delegate.finished)
	}
	if len(delegate.completed) != 1 || delegate.completed[0] {
		t.Fatalf("expected group to complete as interrupted, got %v", delegate.completed)
	}
	if len(engine.stoppedWith) != 1 || engine.stoppedWith[0] != audio.NewEarcon(audio.EarconHush) {
		t.Fatalf("expected hush earcon, got %v", engine.stoppedWith)
	}
	if len(finished.ids) != 1 {
		t.Fatalf("expected a single finish notification, got %v", finished.ids)
	}
	if engine.playCount() != 1 {
		t.Fatalf("expected remaining callouts not to play, got %d plays", engine.playCount())
	}
}

func TestStateMachineStoppingIgnoresStaleCompletion(t *testing.T) {
	machine, engine, dispatcher, finished := newTestMachine()
	delegate := &recordingDelegate{}
	group := NewGroup(threeCallouts(), WithDelegate(delegate))

	machine.Start(group)
	engine.mu.Lock()
	stale := engine.completion
	engine.mu.Unlock()
	engine.finish(true)
	dispatcher.drain()

	machine.Hush(false)
	if machine.State() != StateStopping {
		t.Fatalf("expected machine to be stopping, got %v", machine.State())
	}

	// A late completion from the first callout arrives before the stop lands.
	stale(true)
	dispatcher.runLast()

	if machine.State() != StateStopping {
		t.Fatalf("expected stale completion to be ignored while stopping, got %v", machine.State())
	}
	if len(delegate.completed) != 0 {
		t.Fatalf("expected group to still be stopping, got completions %v", delegate.completed)
	}

	dispatcher.drain()

	if machine.State() != StateOff {
		t.Fatalf("expected machine to be off once the stop lands, got %v", machine.State())
	}
	if len(delegate.completed) != 1 || delegate.completed[0] {
		t.Fatalf("expected group to complete as interrupted, got %v", delegate.completed)
	}
	if len(finished.ids) != 1 || finished.ids[0] != group.ID {
		t.Fatalf("expected a single finish notification for %s, got %v", group.ID, finished.ids)
	}
}

func TestStateMachineFailureIsTerminalForGroupOnly(t *testing.T) {
	machine, engine, dispatcher, finished := newTestMachine()
	delegate := &recordingDelegate{}
	var completions []bool
	group := NewGroup(threeCallouts(), WithDelegate(delegate), WithModeSounds(),
		WithOnComplete(func(finished bool) { completions = append(completions, finished) }))

	machine.Start(group)
	engine.finish(true) // mode enter
	dispatcher.drain()
	engine.finish(false)
	dispatcher.drain()

	if machine.State() != StateOff {
		t.Fatalf("expected machine to be off after failure, got %v", machine.State())
	}
	if len(completions) != 1 || completions[0] {
		t.Fatalf("expected a failed completion, got %v", completions)
	}
	if engine.playCount() != 2 {
		t.Fatalf("expected no mode exit sound after failure, got %d plays", engine.playCount())
	}
	if len(finished.ids) != 1 {
		t.Fatalf("expected finish notification after failure, got %v", finished.ids)
	}

	if !machine.Start(NewGroup(threeCallouts())) {
		t.Fatalf("expected machine to be reusable after failure")
	}
}

func TestStateMachineSkipsCalloutsOutsideRegion(t *testing.T) {
	machine, engine, dispatcher, _ := newTestMachine()
	callouts := threeCallouts()
	delegate := &recordingDelegate{outOfRegion: map[string]bool{callouts[1].ID(): true}}

	machine.Start(NewGroup(callouts, WithDelegate(delegate)))
	engine.finish(true)
	dispatcher.drain()
	engine.finish(true)
	dispatcher.drain()

	if machine.State() != StateOff {
		t.Fatalf("expected machine to be off, got %v", machine.State())
	}
	if len(delegate.skipped) != 1 || delegate.skipped[0] != callouts[1].ID() {
		t.Fatalf("expected second callout to be skipped, got %v", delegate.skipped)
	}
	if len(delegate.starting) != 2 || delegate.starting[1] != callouts[2].ID() {
		t.Fatalf("expected first and third callouts to play, got %v", delegate.starting)
	}
}

func TestStateMachinePlaysModeSoundsAndPrefix(t *testing.T) {
	machine, engine, dispatcher, _ := newTestMachine()
	group := NewGroup(threeCallouts()[:1], WithModeSounds(), WithPrefix(NewStringCallout("test", "prefix")))

	machine.Start(group)
	if machine.State() != StateStarting {
		t.Fatalf("expected starting state, got %v", machine.State())
	}

	engine.finish(true)
	dispatcher.drain()
	engine.finish(true)
	dispatcher.drain()

	if len(engine.plays) != 3 {
		t.Fatalf("expected enter, callout and exit plays, got %v", engine.plays)
	}
	intro := engine.plays[0]
	if len(intro) != 2 || intro[0] != audio.NewEarcon(audio.EarconModeEnter) || intro[1] != audio.NewTTSSound("prefix") {
		t.Fatalf("expected mode enter and prefix, got %v", intro)
	}
	if outro := engine.plays[2]; len(outro) != 1 || outro[0] != audio.NewEarcon(audio.EarconModeExit) {
		t.Fatalf("expected mode exit earcon, got %v", outro)
	}
}

func TestStateMachineDelaysBetweenCallouts(t *testing.T) {
	machine, engine, dispatcher, finished := newTestMachine()
	machine.Start(NewGroup(threeCallouts()[:2], WithCalloutDelay(20*time.Millisecond)))

	engine.finish(true)
	dispatcher.drain()
	if machine.State() != StateDelayingCalloutAnnounced {
		t.Fatalf("expected delaying state, got %v", machine.State())
	}

	deadline := time.Now().Add(2 * time.Second)
	for machine.State() == StateDelayingCalloutAnnounced && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
		dispatcher.drain()
	}
	if machine.State() != StateAnnouncingCallout {
		t.Fatalf("expected second callout after the delay, got %v", machine.State())
	}

	engine.finish(true)
	dispatcher.drain()
	machine.Stop()
	dispatcher.drain()
	if machine.State() != StateOff {
		t.Fatalf("expected machine to be off, got %v", machine.State())
	}
	if len(finished.ids) != 1 {
		t.Fatalf("expected a single finish notification, got %v", finished.ids)
	}
}

func TestStateMachineHushDuringDelayCancelsTimer(t *testing.T) {
	machine, engine, dispatcher, finished := newTestMachine()
	machine.Start(NewGroup(threeCallouts(), WithCalloutDelay(10*time.Millisecond)))

	engine.finish(true)
	dispatcher.drain()
	machine.Hush(false)
	dispatcher.drain()

	time.Sleep(30 * time.Millisecond)
	dispatcher.drain()

	if machine.State() != StateOff {
		t.Fatalf("expected machine to stay off, got %v", machine.State())
	}
	if engine.playCount() != 1 {
		t.Fatalf("expected no callout after hush, got %d plays", engine.playCount())
	}
	if engine.stops != 0 {
		t.Fatalf("expected no audio to stop while delaying, got %d stops", engine.stops)
	}
	if len(finished.ids) != 1 {
		t.Fatalf("expected a single finish notification, got %v", finished.ids)
	}
}

func TestStringCalloutRendersFromTargetDirection(t *testing.T) {
	origin := geometry.Coordinate{Latitude: 47.6, Longitude: -122.3}
	target := geometry.Destination(origin, 90, 50)
	callout := NewStringCallout("poi", "Cafe", WithTarget(target), WithEarcon(audio.EarconSensePOI))

	location := geometry.NewLocation(origin, time.Time{})
	sounds := callout.Sounds(&location, false)
	if len(sounds) != 2 {
		t.Fatalf("expected earcon and speech, got %v", sounds)
	}
	speech, ok := sounds[1].(audio.TTSSound)
	if !ok || speech.Bearing == nil || geometry.BearingDifference(*speech.Bearing, 90) > 0.5 {
		t.Fatalf("expected speech from the east, got %v", sounds[1])
	}

	if got := callout.Sounds(nil, false)[1]; got != audio.NewTTSSound("Cafe") {
		t.Fatalf("expected plain speech without a location, got %v", got)
	}
}

func TestFormatDistance(t *testing.T) {
	testCases := map[float64]string{
		0.4:  "1 meter",
		12:   "10 meters",
		48:   "50 meters",
		1240: "1.2 kilometers",
	}
	for meters, expected := range testCases {
		if got := FormatDistance(meters); got != expected {
			t.Fatalf("expected %q for %vm, got %q", expected, meters, got)
		}
	}
}
