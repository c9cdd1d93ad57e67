package callouts

import (
	"time"

	"github.com/google/uuid"
	"github.com/microsoft/soundscape-core/core/geometry"
)

// QueueAction decides what happens to queued groups when a new group is
// added.
type QueueAction int

const (
	// Enqueue appends the group behind everything already queued.
	Enqueue QueueAction = iota
	// Clear drops the pending groups but lets the current one finish.
	Clear
	// InterruptAndClear hushes the current group and drops the pending ones.
	InterruptAndClear
)

func (a QueueAction) String() string {
	switch a {
	case Clear:
		return "clear"
	case InterruptAndClear:
		return "interrupt_and_clear"
	}
	return "enqueue"
}

// Group is an ordered set of callouts played as one sequence by the
// StateMachine.
type Group struct {
	ID       string
	Callouts []Callout
	Action   QueueAction

	// Prefix is played before the first callout.
	Prefix Callout
	// RepeatingFromLocation renders every callout from this location instead
	// of the current one.
	RepeatingFromLocation *geometry.Location
	// PlayModeSounds wraps the group in mode enter and exit earcons.
	PlayModeSounds bool
	// CalloutDelay is the pause between two callouts.
	CalloutDelay time.Duration
	LogContext   string

	Delegate   GroupDelegate
	OnStart    func()
	OnComplete func(finished bool)
	OnSkip     func()

	next int
}

type GroupOption func(*Group)

func WithAction(action QueueAction) GroupOption {
	return func(g *Group) { g.Action = action }
}

func WithPrefix(prefix Callout) GroupOption {
	return func(g *Group) { g.Prefix = prefix }
}

func WithRepeatingFrom(location geometry.Location) GroupOption {
	return func(g *Group) { g.RepeatingFromLocation = &location }
}

func WithModeSounds() GroupOption {
	return func(g *Group) { g.PlayModeSounds = true }
}

func WithCalloutDelay(delay time.Duration) GroupOption {
	return func(g *Group) { g.CalloutDelay = delay }
}

func WithLogContext(logContext string) GroupOption {
	return func(g *Group) { g.LogContext = logContext }
}

func WithDelegate(delegate GroupDelegate) GroupOption {
	return func(g *Group) { g.Delegate = delegate }
}

func WithOnStart(onStart func()) GroupOption {
	return func(g *Group) { g.OnStart = onStart }
}

func WithOnComplete(onComplete func(finished bool)) GroupOption {
	return func(g *Group) { g.OnComplete = onComplete }
}

func WithOnSkip(onSkip func()) GroupOption {
	return func(g *Group) { g.OnSkip = onSkip }
}

func NewGroup(callouts []Callout, opts ...GroupOption) *Group {
	g := &Group{ID: uuid.NewString(), Callouts: callouts, Action: Enqueue}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Next returns the next callout to play.
func (g *Group) Next() (Callout, bool) {
	if g.next >= len(g.Callouts) {
		return nil, false
	}
	callout := g.Callouts[g.next]
	g.next++
	return callout, true
}

// Remaining returns the callouts that have not been handed out by Next.
func (g *Group) Remaining() []Callout {
	return g.Callouts[g.next:]
}

func (g *Group) IsRepeat() bool {
	return g.RepeatingFromLocation != nil
}

// skipped notifies the group's observers that it will never play.
func (g *Group) skipped() {
	if g.Delegate != nil {
		g.Delegate.CalloutsSkipped(g)
	}
	if g.OnSkip != nil {
		g.OnSkip()
	}
}

// Skip reports a group that was dropped from the queue before it started.
func Skip(g *Group) {
	calloutsSkipped.Add(bgCtx, int64(len(g.Callouts)))
	g.skipped()
}
