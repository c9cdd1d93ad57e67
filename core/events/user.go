package events

const (
	KindLocate Kind = "user.locate"
	KindGlyph  Kind = "user.glyph"
	KindHush   Kind = "user.hush"
)

// Locate asks for a description of where the user currently is.
type Locate struct{ Base }

func NewLocate() Locate {
	return Locate{Base: NewUserInitiatedBase(KindLocate)}
}

// Glyph plays a single earcon, e.g. as feedback for a button press.
type Glyph struct {
	Base
	Earcon string
}

func NewGlyph(earcon string) Glyph {
	return Glyph{Base: NewUserInitiatedBase(KindGlyph), Earcon: earcon}
}

// Hush silences current callouts. When PlaySound is set the hush earcon is
// played as they stop.
type Hush struct {
	Base
	PlaySound bool
}

func NewHush(playSound bool) Hush {
	return Hush{Base: NewUserInitiatedBase(KindHush), PlaySound: playSound}
}
