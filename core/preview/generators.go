package preview

import (
	"errors"
	"fmt"
	"strings"

	"github.com/microsoft/soundscape-core/core/audio"
	"github.com/microsoft/soundscape-core/core/behaviors"
	"github.com/microsoft/soundscape-core/core/callouts"
	"github.com/microsoft/soundscape-core/core/events"
	"github.com/microsoft/soundscape-core/core/geometry"
	"github.com/microsoft/soundscape-core/core/roads"
)

const (
	AutoGeneratorID   behaviors.GeneratorID = "preview.auto"
	ManualGeneratorID behaviors.GeneratorID = "preview.manual"

	logContext = "preview"

	// edgeTargetDistance places an edge's callout this far down the road.
	edgeTargetDistance = 20.0
)

// AutoGenerator announces every decision point the preview moves to.
type AutoGenerator struct {
	preview *Behavior
}

func (a *AutoGenerator) ID() behaviors.GeneratorID { return AutoGeneratorID }

func (a *AutoGenerator) RespondsTo(kind events.Kind) bool {
	return kind == KindNodeChanged
}

func (a *AutoGenerator) Handle(event events.Event, _ behaviors.Delegate) (behaviors.Action, bool) {
	e, ok := event.(NodeChanged)
	if !ok {
		return behaviors.Action{}, false
	}

	var list []callouts.Callout
	for _, marker := range e.Markers {
		list = append(list, callouts.NewStringCallout(logContext, "Passed "+marker.Name,
			callouts.WithEarcon(audio.EarconSensePOI),
			callouts.WithTarget(marker.Location),
		))
	}
	list = append(list, a.preview.describe(e.To, e.Edge)...)

	opts := []callouts.GroupOption{
		callouts.WithAction(callouts.InterruptAndClear),
		callouts.WithLogContext(logContext),
	}
	if e.From == nil && e.Edge == nil {
		opts = append(opts, callouts.WithModeSounds(),
			callouts.WithPrefix(callouts.NewStringCallout(logContext, "Street preview", callouts.WithEarcon(audio.EarconPreviewStart))))
	}
	return behaviors.PlayCallouts(callouts.NewGroup(list, opts...)), true
}

// ManualGenerator turns the user's preview commands into moves.
type ManualGenerator struct {
	preview *Behavior
}

func (m *ManualGenerator) ID() behaviors.GeneratorID { return ManualGeneratorID }

func (m *ManualGenerator) RespondsTo(kind events.Kind) bool {
	switch kind {
	case KindFocusNext, KindFocusPrevious, KindGo, KindBack, KindDescribe:
		return true
	}
	return false
}

func (m *ManualGenerator) Handle(event events.Event, _ behaviors.Delegate) (behaviors.Action, bool) {
	b := m.preview
	switch event.(type) {
	case FocusNext, FocusPrevious:
		focus := b.FocusNext
		if event.Kind() == KindFocusPrevious {
			focus = b.FocusPrevious
		}
		edge, ok := focus()
		if !ok {
			return behaviors.PlayCallouts(invalid("No roads here")), true
		}
		return behaviors.PlayCallouts(callouts.NewGroup(
			[]callouts.Callout{edgeCallout(edge, audio.EarconRoadFinder)},
			callouts.WithAction(callouts.InterruptAndClear),
			callouts.WithLogContext(logContext),
		)), true

	case Go:
		if err := b.Go(); err != nil {
			return behaviors.PlayCallouts(invalid(failureText(err))), true
		}
		return behaviors.NoAction(), true

	case Back:
		if err := b.Back(); err != nil {
			return behaviors.PlayCallouts(invalid(failureText(err))), true
		}
		return behaviors.NoAction(), true

	case Describe:
		point, ok := b.Current()
		if !ok {
			return behaviors.PlayCallouts(invalid(failureText(ErrNotActive))), true
		}
		return behaviors.PlayCallouts(callouts.NewGroup(b.describe(point, b.via),
			callouts.WithAction(callouts.InterruptAndClear),
			callouts.WithLogContext(logContext),
		)), true
	}
	return behaviors.Action{}, false
}

func failureText(err error) string {
	switch {
	case errors.Is(err, ErrNoFocus):
		return "Choose a road first"
	case errors.Is(err, ErrNoHistory):
		return "This is where the preview started"
	case errors.Is(err, ErrNotActive):
		return "Street preview is not running"
	}
	return "Unable to move"
}

func invalid(text string) *callouts.Group {
	return callouts.NewGroup(
		[]callouts.Callout{callouts.NewStringCallout(logContext, text, callouts.WithEarcon(audio.EarconInvalid))},
		callouts.WithAction(callouts.InterruptAndClear),
		callouts.WithLogContext(logContext),
	)
}

// nodeName describes a decision point, using the style of the edge that led
// to it when there is one.
func nodeName(point *roads.DecisionPoint, edge *roads.AdjacentView) string {
	if point.Node.Key == roads.RoadEndKey {
		if edge != nil {
			return "End of " + edge.Name()
		}
		return "Road ends"
	}

	names := strings.Join(point.Node.RoadNames(), " and ")
	style := roads.StyleStandard
	if edge != nil {
		style = edge.Result.Style
	}
	switch style {
	case roads.StyleRoundabout:
		return "Roundabout, " + names
	case roads.StyleCircleDrive:
		return "Circle drive, " + names
	}
	return "Intersection, " + names
}

func (b *Behavior) describe(point *roads.DecisionPoint, edge *roads.AdjacentView) []callouts.Callout {
	list := []callouts.Callout{
		callouts.NewStringCallout(logContext, nodeName(point, edge), callouts.WithTarget(point.Location())),
	}

	switch count := len(point.Edges); count {
	case 0:
		list = append(list, callouts.NewStringCallout(logContext, "No roads lead away from here"))
		return list
	case 1:
		list = append(list, callouts.NewStringCallout(logContext, "1 road"))
	default:
		list = append(list, callouts.NewStringCallout(logContext, fmt.Sprintf("%d roads", count)))
	}

	for _, candidate := range point.Edges {
		list = append(list, edgeCallout(candidate, ""))
	}
	if focused, ok := b.Focused(); ok {
		list = append(list, callouts.NewStringCallout(logContext, "Facing "+focused.Name(), callouts.WithEarcon(audio.EarconRoadFinder)))
	}
	return list
}

func edgeCallout(edge *roads.AdjacentView, earcon string) callouts.Callout {
	text := edge.Name()
	if bearing, ok := edge.Bearing(); ok {
		text = fmt.Sprintf("%s, %s", text, geometry.CardinalDirection(bearing))
	}

	opts := []callouts.StringCalloutOption{callouts.WithEarcon(earcon)}
	if target, ok := geometry.ReferenceCoordinate(edge.Path, edgeTargetDistance); ok {
		opts = append(opts, callouts.WithTarget(target))
	}
	return callouts.NewStringCallout(logContext, text, opts...)
}
