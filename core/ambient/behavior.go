package ambient

import "github.com/microsoft/soundscape-core/core/behaviors"

// Behavior is the default behavior at the bottom of every behavior chain.
type Behavior struct {
	*behaviors.Base

	auto *AutoGenerator
}

func NewBehavior(auto *AutoGenerator, locate *LocateGenerator) *Behavior {
	return &Behavior{
		Base: behaviors.NewBase("Default",
			behaviors.WithID("default"),
			behaviors.WithAutoGenerators(auto),
			behaviors.WithManualGenerators(locate),
		),
		auto: auto,
	}
}

// Reset forgets what was already called out.
func (b *Behavior) Reset() {
	b.auto.Reset()
}
