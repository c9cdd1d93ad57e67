package events

import "time"

type Kind string

// Class tells who caused an event: the user, or a change in the world or the
// app's state.
type Class int

const (
	ClassStateChanged Class = iota
	ClassUserInitiated
)

func (c Class) String() string {
	switch c {
	case ClassUserInitiated:
		return "user_initiated"
	case ClassStateChanged:
		return "state_changed"
	}
	return "unknown"
}

// Distribution controls how many generators see an event. A consumed event
// stops at the first generator that handles it; a broadcast event reaches
// every generator that responds to it.
type Distribution int

const (
	Consumed Distribution = iota
	Broadcast
)

func (d Distribution) String() string {
	if d == Broadcast {
		return "broadcast"
	}
	return "consumed"
}

type Event interface {
	Kind() Kind
	Timestamp() time.Time
	Class() Class
	// Blockable events are not delivered to generators a behavior has
	// currently blocked.
	Blockable() bool
	Distribution() Distribution
}

type Base struct {
	kind         Kind
	timestamp    time.Time
	class        Class
	blockable    bool
	distribution Distribution
}

type BaseOption func(*Base)

func WithTimestamp(timestamp time.Time) BaseOption {
	return func(b *Base) { b.timestamp = timestamp }
}

func Blockable() BaseOption {
	return func(b *Base) { b.blockable = true }
}

func Broadcasted() BaseOption {
	return func(b *Base) { b.distribution = Broadcast }
}

// NewBase creates the base of a state changed event. It is consumed and not
// blockable unless options say otherwise.
func NewBase(kind Kind, opts ...BaseOption) Base {
	base := Base{kind: kind, timestamp: time.Now(), class: ClassStateChanged, distribution: Consumed}
	for _, opt := range opts {
		opt(&base)
	}
	return base
}

// NewUserInitiatedBase creates the base of a user initiated event. User
// initiated events are always consumed.
func NewUserInitiatedBase(kind Kind, opts ...BaseOption) Base {
	base := NewBase(kind, opts...)
	base.class = ClassUserInitiated
	base.distribution = Consumed
	return base
}

func (b Base) Kind() Kind {
	return b.kind
}

func (b Base) Timestamp() time.Time {
	return b.timestamp
}

func (b Base) Class() Class {
	return b.class
}

func (b Base) Blockable() bool {
	return b.blockable
}

func (b Base) Distribution() Distribution {
	return b.distribution
}
