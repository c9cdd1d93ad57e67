package navigation

import "github.com/microsoft/soundscape-core/core/callouts"

// enqueue adds group to the callout queue according to its QueueAction and
// starts it when nothing else is playing.
func (n *Navigator) enqueue(group *callouts.Group) {
	if group == nil {
		return
	}
	if group.Delegate == nil {
		group.Delegate = groupObserver{navigator: n, group: group}
	}

	switch group.Action {
	case callouts.Clear:
		n.clearQueue()
	case callouts.InterruptAndClear:
		n.clearQueue()
		n.machine.Stop()
	}

	n.pending = append(n.pending, group)
	logger.Debug("callout group queued", "group", group.ID, "action", group.Action.String(), "pending", len(n.pending))
	n.playNext()
}

// clearQueue drops every pending group, telling each it was skipped.
func (n *Navigator) clearQueue() {
	pending := n.pending
	n.pending = nil

	for _, group := range pending {
		groupsSkipped.Add(bgCtx, 1)
		callouts.Skip(group)
		if n.onGroupSkipped != nil {
			n.onGroupSkipped(group)
		}
	}
}

func (n *Navigator) playNext() {
	if n.machine.IsActive() || len(n.pending) == 0 {
		return
	}

	group := n.pending[0]
	n.pending[0] = nil
	n.pending = n.pending[1:]
	if !n.machine.Start(group) {
		logger.Warn("callout group could not be started", "group", group.ID)
	}
}

// CalloutsDidFinish is called by the state machine once it is off again.
func (n *Navigator) CalloutsDidFinish(groupID string) {
	logger.Debug("callout group finished", "group", groupID)
	n.playNext()
}

// groupObserver reports the callouts of groups without a delegate of their
// own to the navigator's callout callback.
type groupObserver struct {
	callouts.NopDelegate
	navigator *Navigator
	group     *callouts.Group
}

func (o groupObserver) CalloutStarting(callout callouts.Callout) {
	if o.navigator.onCallout != nil {
		o.navigator.onCallout(o.group, callout)
	}
}
