package selection

import (
	"strings"

	"golang.org/x/net/html"

	"wiki-annotator/internal/anchor"
	"wiki-annotator/internal/highlight"
)

const (
	menuOffset = 60
	edgeMargin = 10
	flipOffset = 20
)

// DefaultMenuSize is the footprint assumed for the action menu when clamping.
var DefaultMenuSize = Size{Width: 240, Height: 44}

type Point struct {
	X, Y float64
}

type Size struct {
	Width, Height float64
}

// Event is one finished selection gesture.
type Event struct {
	Range    *anchor.Range
	Pointer  Point
	Viewport Size
}

type ActionKind int

const (
	ActionHide ActionKind = iota
	ActionIgnore
	ActionEdit
	ActionCreate
)

func (k ActionKind) String() string {
	switch k {
	case ActionHide:
		return "hide"
	case ActionIgnore:
		return "ignore"
	case ActionEdit:
		return "edit"
	case ActionCreate:
		return "create"
	}
	return "unknown"
}

// Action tells the caller what to show after a selection event.
type Action struct {
	Kind         ActionKind
	AnnotationID string
	Text         string
	Menu         Point
}

// Pending is a validated selection waiting for a color or note.
type Pending struct {
	Range anchor.Range
	Text  string
}

// span is a held selection in normalized text offsets. Markers being added or
// removed split and merge text nodes but never change these offsets.
type span struct {
	start, end int
	text       string
}

// Tracker validates selections against one container and remembers the
// selection that a later create call consumes.
type Tracker struct {
	container *html.Node
	menuSize  Size
	pending   *span
}

func NewTracker(container *html.Node) *Tracker {
	return &Tracker{container: container, menuSize: DefaultMenuSize}
}

// SetMenuSize overrides the menu footprint used for edge clamping.
func (t *Tracker) SetMenuSize(s Size) {
	t.menuSize = s
}

// Handle classifies ev and updates the pending selection.
func (t *Tracker) Handle(ev Event) Action {
	if ev.Range == nil || ev.Range.Validate() != nil {
		t.pending = nil
		return Action{Kind: ActionHide}
	}
	text := strings.TrimSpace(ev.Range.Text())
	if text == "" {
		t.pending = nil
		return Action{Kind: ActionHide}
	}

	ancestor := ev.Range.CommonAncestor()
	if !anchor.Contains(t.container, ancestor) {
		t.pending = nil
		return Action{Kind: ActionIgnore}
	}

	menu := MenuPosition(ev.Pointer, ev.Viewport, t.menuSize)
	if id := highlight.MarkerID(ancestor); id != "" {
		t.pending = nil
		return Action{Kind: ActionEdit, AnnotationID: id, Menu: menu}
	}

	start, end, err := anchor.NewIndex(t.container).Offsets(*ev.Range)
	if err != nil || start >= end {
		t.pending = nil
		return Action{Kind: ActionHide}
	}
	t.pending = &span{start: start, end: end, text: text}
	return Action{Kind: ActionCreate, Text: text, Menu: menu}
}

// Pending returns the held selection, resolved against the current tree.
func (t *Tracker) Pending() (Pending, bool) {
	if t.pending == nil {
		return Pending{}, false
	}
	r, err := anchor.NewIndex(t.container).Range(t.pending.start, t.pending.end)
	if err != nil {
		t.pending = nil
		return Pending{}, false
	}
	return Pending{Range: r, Text: t.pending.text}, true
}

// Clear drops the held selection.
func (t *Tracker) Clear() {
	t.pending = nil
}

// MenuPosition places the menu above-left of the pointer, keeps it inside the
// horizontal viewport and flips it below the pointer when it would leave the top.
func MenuPosition(pointer Point, viewport Size, menu Size) Point {
	p := Point{X: pointer.X - menuOffset, Y: pointer.Y - menuOffset}
	if viewport.Width > 0 && p.X+menu.Width > viewport.Width-edgeMargin {
		p.X = viewport.Width - menu.Width - edgeMargin
	}
	if p.X < edgeMargin {
		p.X = edgeMargin
	}
	if p.Y < edgeMargin {
		p.Y = pointer.Y + flipOffset
	}
	return p
}
