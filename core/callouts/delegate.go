package callouts

// GroupDelegate follows a group through the StateMachine.
type GroupDelegate interface {
	// IsCalloutWithinRegionToLive reports whether a callout is still relevant.
	// Callouts that are not are skipped.
	IsCalloutWithinRegionToLive(callout Callout) bool
	CalloutSkipped(callout Callout)
	CalloutStarting(callout Callout)
	CalloutFinished(callout Callout, completed bool)
	CalloutsSkipped(group *Group)
	CalloutsStarted(group *Group)
	CalloutsCompleted(group *Group, finished bool)
}

// NopDelegate implements GroupDelegate with no side effects. Embed it to
// implement only the notifications you need.
type NopDelegate struct{}

func (NopDelegate) IsCalloutWithinRegionToLive(Callout) bool { return true }
func (NopDelegate) CalloutSkipped(Callout)                   {}
func (NopDelegate) CalloutStarting(Callout)                  {}
func (NopDelegate) CalloutFinished(Callout, bool)            {}
func (NopDelegate) CalloutsSkipped(*Group)                   {}
func (NopDelegate) CalloutsStarted(*Group)                   {}
func (NopDelegate) CalloutsCompleted(*Group, bool)           {}

// StateMachineDelegate is told when the state machine is done with a group
// and ready for the next one.
type StateMachineDelegate interface {
	CalloutsDidFinish(groupID string)
}

// Dispatcher runs functions on the goroutine that owns the state machine.
type Dispatcher interface {
	Dispatch(fn func())
}

type DispatcherFunc func(fn func())

func (f DispatcherFunc) Dispatch(fn func()) { f(fn) }
