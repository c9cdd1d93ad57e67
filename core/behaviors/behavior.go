package behaviors

import (
	"github.com/google/uuid"
	"github.com/microsoft/soundscape-core/core/events"
)

// Behavior is a mode of the app that decides which generators handle
// events. Behaviors form a chain: a custom behavior runs on top of the
// default one, which is its parent.
type Behavior interface {
	ID() string
	Description() string

	Parent() Behavior
	IsActive() bool
	// Activate is called when the behavior becomes active on top of parent,
	// which is nil for the default behavior. delegate stays valid until the
	// behavior is deactivated.
	Activate(parent Behavior, delegate Delegate)
	// Deactivate is called when the behavior is removed and returns its
	// parent.
	Deactivate() Behavior

	AutoGenerators() []Generator
	ManualGenerators() []Generator
	// BlockedGenerators lists the generators, in this behavior or below it,
	// that must not receive blockable events.
	BlockedGenerators(manual bool) []GeneratorID
}

// Base implements the bookkeeping shared by all behaviors. Embed it and
// override Activate or Deactivate when the behavior needs to do more.
type Base struct {
	id          string
	description string
	parent      Behavior
	delegate    Delegate
	active      bool

	autoGenerators   []Generator
	manualGenerators []Generator

	blockedAuto   map[GeneratorID]struct{}
	blockedManual map[GeneratorID]struct{}
}

type BaseOption func(*Base)

func WithAutoGenerators(generators ...Generator) BaseOption {
	return func(b *Base) { b.autoGenerators = append(b.autoGenerators, generators...) }
}

func WithManualGenerators(generators ...Generator) BaseOption {
	return func(b *Base) { b.manualGenerators = append(b.manualGenerators, generators...) }
}

func WithID(id string) BaseOption {
	return func(b *Base) { b.id = id }
}

func NewBase(description string, opts ...BaseOption) *Base {
	b := &Base{
		id:            uuid.NewString(),
		description:   description,
		blockedAuto:   map[GeneratorID]struct{}{},
		blockedManual: map[GeneratorID]struct{}{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Base) ID() string          { return b.id }
func (b *Base) Description() string { return b.description }
func (b *Base) Parent() Behavior    { return b.parent }
func (b *Base) IsActive() bool      { return b.active }
func (b *Base) Delegate() Delegate  { return b.delegate }

func (b *Base) Activate(parent Behavior, delegate Delegate) {
	b.parent = parent
	b.delegate = delegate
	b.active = true
	logger.Info("behavior activated", "behavior", b.description, "id", b.id)
}

func (b *Base) Deactivate() Behavior {
	parent := b.parent
	b.parent = nil
	b.delegate = nil
	b.active = false
	clear(b.blockedAuto)
	clear(b.blockedManual)
	logger.Info("behavior deactivated", "behavior", b.description, "id", b.id)
	return parent
}

func (b *Base) AutoGenerators() []Generator   { return b.autoGenerators }
func (b *Base) ManualGenerators() []Generator { return b.manualGenerators }

func (b *Base) AddAutoGenerator(generator Generator) {
	b.autoGenerators = append(b.autoGenerators, generator)
}

func (b *Base) AddManualGenerator(generator Generator) {
	b.manualGenerators = append(b.manualGenerators, generator)
}

// Block stops the generator with id from receiving blockable events until
// it is unblocked.
func (b *Base) Block(id GeneratorID, manual bool) {
	if manual {
		b.blockedManual[id] = struct{}{}
		return
	}
	b.blockedAuto[id] = struct{}{}
}

func (b *Base) Unblock(id GeneratorID, manual bool) {
	if manual {
		delete(b.blockedManual, id)
		return
	}
	delete(b.blockedAuto, id)
}

func (b *Base) IsBlocking(id GeneratorID, manual bool) bool {
	if manual {
		_, ok := b.blockedManual[id]
		return ok
	}
	_, ok := b.blockedAuto[id]
	return ok
}

func (b *Base) BlockedGenerators(manual bool) []GeneratorID {
	blocked := b.blockedAuto
	if manual {
		blocked = b.blockedManual
	}

	ids := make([]GeneratorID, 0, len(blocked))
	for id := range blocked {
		ids = append(ids, id)
	}
	return ids
}

// Handle dispatches event through the behavior chain starting at top.
// User initiated events go to manual generators and all others to automatic
// ones. A consumed event stops at the first generator that handles it; a
// broadcast event reaches every responding generator. Blockable events skip
// the generators blocked anywhere in the chain.
func Handle(top Behavior, event events.Event, delegate Delegate) []Action {
	manual := event.Class() == events.ClassUserInitiated

	blocked := map[GeneratorID]struct{}{}
	if event.Blockable() {
		for b := top; b != nil; b = b.Parent() {
			for _, id := range b.BlockedGenerators(manual) {
				blocked[id] = struct{}{}
			}
		}
	}

	var actions []Action
	for b := top; b != nil; b = b.Parent() {
		generators := b.AutoGenerators()
		if manual {
			generators = b.ManualGenerators()
		}

		for _, generator := range generators {
			if !generator.RespondsTo(event.Kind()) {
				continue
			}
			if _, ok := blocked[generator.ID()]; ok {
				logger.Debug("generator blocked", "generator", generator.ID(), "event", event.Kind())
				continue
			}

			action, handled := generator.Handle(event, delegate)
			if !handled {
				continue
			}
			actions = append(actions, action)
			if event.Distribution() == events.Consumed {
				return actions
			}
		}
	}
	return actions
}
