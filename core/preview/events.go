package preview

import (
	"github.com/microsoft/soundscape-core/core/events"
	"github.com/microsoft/soundscape-core/core/roads"
)

const (
	KindFocusNext     events.Kind = "preview.focus_next"
	KindFocusPrevious events.Kind = "preview.focus_previous"
	KindGo            events.Kind = "preview.go"
	KindBack          events.Kind = "preview.back"
	KindDescribe      events.Kind = "preview.describe"

	KindNodeChanged events.Kind = "preview.node_changed"
)

// NodeChanged is sent after the preview moved to a new decision point.
type NodeChanged struct {
	events.Base
	From *roads.DecisionPoint
	To   *roads.DecisionPoint
	// Edge is the edge that was walked, nil for the starting point.
	Edge *roads.AdjacentView
	// Markers are the markers passed along Edge that were not called out
	// recently.
	Markers []roads.AdjacentMarker
	Back    bool
}

type FocusNext struct{ events.Base }

func NewFocusNext() FocusNext {
	return FocusNext{Base: events.NewUserInitiatedBase(KindFocusNext)}
}

type FocusPrevious struct{ events.Base }

func NewFocusPrevious() FocusPrevious {
	return FocusPrevious{Base: events.NewUserInitiatedBase(KindFocusPrevious)}
}

// Go walks the focused edge.
type Go struct{ events.Base }

func NewGo() Go {
	return Go{Base: events.NewUserInitiatedBase(KindGo)}
}

// Back returns to the previous decision point.
type Back struct{ events.Base }

func NewBack() Back {
	return Back{Base: events.NewUserInitiatedBase(KindBack)}
}

type Describe struct{ events.Base }

func NewDescribe() Describe {
	return Describe{Base: events.NewUserInitiatedBase(KindDescribe)}
}
