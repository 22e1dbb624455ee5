package selection

import (
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"

	"wiki-annotator/internal/anchor"
	"wiki-annotator/internal/domain"
	"wiki-annotator/internal/highlight"
)

func parseDoc(t *testing.T, src string) (*html.Node, *html.Node) {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	require.NoError(t, err)
	container := anchor.FindByClass(doc, "wiki-content")
	require.NotNil(t, container)
	return doc, container
}

func rangeAt(t *testing.T, root *html.Node, start, end int) *anchor.Range {
	t.Helper()
	r, err := anchor.NewIndex(root).Range(start, end)
	require.NoError(t, err)
	return &r
}

var viewport = Size{Width: 1024, Height: 768}

func TestTracker_CreatesPendingSelection(t *testing.T) {
	_, container := parseDoc(t, `<div class="wiki-content">The quick brown fox jumps</div>`)
	tracker := NewTracker(container)

	action := tracker.Handle(Event{Range: rangeAt(t, container, 10, 19), Pointer: Point{X: 300, Y: 200}, Viewport: viewport})
	assert.Equal(t, ActionCreate, action.Kind)
	assert.Equal(t, "brown fox", action.Text)
	assert.Equal(t, Point{X: 240, Y: 140}, action.Menu)

	pending, ok := tracker.Pending()
	require.True(t, ok)
	assert.Equal(t, "brown fox", pending.Text)

	tracker.Clear()
	_, ok = tracker.Pending()
	assert.False(t, ok)
}

func TestTracker_HidesOnEmptySelection(t *testing.T) {
	_, container := parseDoc(t, `<div class="wiki-content">The quick brown fox jumps</div>`)
	tracker := NewTracker(container)

	tracker.Handle(Event{Range: rangeAt(t, container, 0, 3), Viewport: viewport})
	text := container.FirstChild
	collapsed := &anchor.Range{
		Start: anchor.Point{Node: text, Offset: 4},
		End:   anchor.Point{Node: text, Offset: 4},
	}
	assert.Equal(t, ActionHide, tracker.Handle(Event{Range: collapsed, Viewport: viewport}).Kind)
	_, ok := tracker.Pending()
	assert.False(t, ok)

	assert.Equal(t, ActionHide, tracker.Handle(Event{Viewport: viewport}).Kind)
}

func TestTracker_IgnoresSelectionOutsideContainer(t *testing.T) {
	doc, _ := parseDoc(t, `<nav>Menu item</nav><div class="wiki-content">Body text</div>`)
	nav := doc.FirstChild.LastChild.FirstChild
	tracker := NewTracker(anchor.FindByClass(doc, "wiki-content"))

	action := tracker.Handle(Event{Range: rangeAt(t, nav, 0, 4), Viewport: viewport})
	assert.Equal(t, ActionIgnore, action.Kind)
}

func TestTracker_EditsExistingHighlight(t *testing.T) {
	_, container := parseDoc(t, `<div class="wiki-content">The quick brown fox jumps</div>`)
	renderer := highlight.NewRenderer(container)
	_, err := renderer.Wrap(*rangeAt(t, container, 10, 19), highlight.Marker{ID: "h1", Color: domain.ColorYellow})
	require.NoError(t, err)

	tracker := NewTracker(container)
	action := tracker.Handle(Event{Range: rangeAt(t, container, 11, 14), Viewport: viewport})
	assert.Equal(t, ActionEdit, action.Kind)
	assert.Equal(t, "h1", action.AnnotationID)
	_, ok := tracker.Pending()
	assert.False(t, ok)
}

func TestTracker_PendingFollowsMarkerRemoval(t *testing.T) {
	_, container := parseDoc(t, `<div class="wiki-content">The quick brown fox jumps over the lazy dog</div>`)
	renderer := highlight.NewRenderer(container)
	_, err := renderer.Wrap(*rangeAt(t, container, 10, 19), highlight.Marker{ID: "h1", Color: domain.ColorYellow})
	require.NoError(t, err)

	tracker := NewTracker(container)
	require.Equal(t, ActionCreate, tracker.Handle(Event{Range: rangeAt(t, container, 35, 39), Viewport: viewport}).Kind)
	require.Equal(t, 1, renderer.Unwrap("h1"))

	pending, ok := tracker.Pending()
	require.True(t, ok)
	assert.Equal(t, "lazy", pending.Text)
	assert.Equal(t, "lazy", pending.Range.Text())
	assert.Equal(t, container.FirstChild, pending.Range.Start.Node)
	_, err = renderer.Wrap(pending.Range, highlight.Marker{ID: "h2", Color: domain.ColorGreen})
	assert.NoError(t, err)
}

func TestMenuPosition(t *testing.T) {
	menu := Size{Width: 200, Height: 40}

	tests := []struct {
		name    string
		pointer Point
		want    Point
	}{
		{"above-left of pointer", Point{X: 400, Y: 300}, Point{X: 340, Y: 240}},
		{"clamped to right edge", Point{X: 1000, Y: 300}, Point{X: 814, Y: 240}},
		{"clamped to left edge", Point{X: 30, Y: 300}, Point{X: 10, Y: 240}},
		{"flipped below near top", Point{X: 400, Y: 50}, Point{X: 340, Y: 70}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MenuPosition(tt.pointer, viewport, menu))
		})
	}
}

func TestDebouncer_RunsLastTrigger(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)
	var last atomic.Int32
	var runs atomic.Int32

	for i := int32(1); i <= 3; i++ {
		n := i
		d.Trigger(func() {
			runs.Add(1)
			last.Store(n)
		})
	}

	require.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())
	assert.Equal(t, int32(3), last.Load())
}

func TestDebouncer_Stop(t *testing.T) {
	d := NewDebouncer(time.Hour)
	assert.False(t, d.Stop())
	d.Trigger(func() {})
	assert.True(t, d.Stop())
}
