package highlight

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"wiki-annotator/internal/anchor"
	"wiki-annotator/internal/domain"
)

const (
	// ClassName marks every highlight fragment.
	ClassName = "wiki-highlight"
	// ClassHasNote is added to fragments of annotations carrying a note.
	ClassHasNote = "has-note"
	// AttrAnnotationID links a fragment to its annotation.
	AttrAnnotationID = "data-annotation-id"
)

var (
	ErrOverlap       = errors.New("range overlaps an existing highlight")
	ErrNotSplittable = errors.New("range cannot be aligned to text node boundaries")
	ErrEmptyRange    = errors.New("range contains no text")
)

// Marker describes the fragments to create for one annotation.
type Marker struct {
	ID      string
	Color   domain.Color
	Note    string
	OnClick func(id string)
}

// Renderer inserts and removes highlight markers inside one container.
// It is not safe for concurrent use; callers serialize mutations.
type Renderer struct {
	container *html.Node
	handlers  map[*html.Node]func()
}

// NewRenderer creates a renderer bound to container.
func NewRenderer(container *html.Node) *Renderer {
	return &Renderer{
		container: container,
		handlers:  make(map[*html.Node]func()),
	}
}

// Container returns the annotatable root.
func (r *Renderer) Container() *html.Node {
	return r.container
}

// Wrap materializes a marker over rng. Boundary text nodes are split so the
// range lands on node boundaries, then each run of adjacent sibling text nodes
// gets its own fragment sharing m.ID.
func (r *Renderer) Wrap(rng anchor.Range, m Marker) ([]*html.Node, error) {
	if err := rng.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotSplittable, err)
	}
	if !anchor.Contains(r.container, rng.CommonAncestor()) {
		return nil, fmt.Errorf("%w: %v", ErrNotSplittable, anchor.ErrOutsideContainer)
	}
	if id, ok := r.Overlapping(rng); ok {
		return nil, fmt.Errorf("%w: %s", ErrOverlap, id)
	}

	nodes := contributing(rng)
	if len(nodes) == 0 {
		return nil, ErrEmptyRange
	}

	// End first: when both boundaries share a node the start offset stays valid.
	if last := nodes[len(nodes)-1]; last == rng.End.Node && rng.End.Offset < len(last.Data) {
		splitText(last, rng.End.Offset)
	}
	if first := nodes[0]; first == rng.Start.Node && rng.Start.Offset > 0 {
		nodes[0] = splitText(first, rng.Start.Offset)
	}

	var fragments []*html.Node
	for _, run := range siblingRuns(nodes) {
		span := newMarkerNode(m)
		parent := run[0].Parent
		parent.InsertBefore(span, run[0])
		for _, n := range run {
			parent.RemoveChild(n)
			span.AppendChild(n)
		}
		if m.OnClick != nil {
			id, onClick := m.ID, m.OnClick
			r.handlers[span] = func() { onClick(id) }
		}
		fragments = append(fragments, span)
	}
	return fragments, nil
}

// Unwrap removes every fragment of id, puts the original nodes back and merges
// the text nodes the split left behind. It returns the number of fragments removed.
func (r *Renderer) Unwrap(id string) int {
	fragments := r.Fragments(id)
	for _, f := range fragments {
		parent := f.Parent
		for f.FirstChild != nil {
			c := f.FirstChild
			f.RemoveChild(c)
			parent.InsertBefore(c, f)
		}
		parent.RemoveChild(f)
		delete(r.handlers, f)
		mergeText(parent)
	}
	return len(fragments)
}

// Restyle updates color and note of the fragments of id in place.
func (r *Renderer) Restyle(id string, color domain.Color, note string) int {
	fragments := r.Fragments(id)
	for _, f := range fragments {
		f.Attr = markerAttrs(Marker{ID: id, Color: color, Note: note})
	}
	return len(fragments)
}

// Click dispatches a click on n to the handler of the enclosing marker.
func (r *Renderer) Click(n *html.Node) bool {
	marker := MarkerOf(n)
	if marker == nil {
		return false
	}
	handler, ok := r.handlers[marker]
	if !ok {
		return false
	}
	handler()
	return true
}

// Overlapping returns the id of a live highlight that rng intersects.
func (r *Renderer) Overlapping(rng anchor.Range) (string, bool) {
	for _, n := range contributing(rng) {
		if id := MarkerID(n); id != "" {
			return id, true
		}
	}
	return "", false
}

// Fragments returns the marker elements of id in document order.
func (r *Renderer) Fragments(id string) []*html.Node {
	var out []*html.Node
	walkMarkers(r.container, func(n *html.Node) {
		if attr(n, AttrAnnotationID) == id {
			out = append(out, n)
		}
	})
	return out
}

// Text returns the live text content of all fragments of id.
func (r *Renderer) Text(id string) string {
	var sb strings.Builder
	for _, f := range r.Fragments(id) {
		sb.WriteString(textContent(f))
	}
	return sb.String()
}

// IDs returns the annotation ids currently rendered, in document order.
func (r *Renderer) IDs() []string {
	seen := make(map[string]bool)
	var ids []string
	walkMarkers(r.container, func(n *html.Node) {
		id := attr(n, AttrAnnotationID)
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	})
	return ids
}

// MarkerOf returns the marker element enclosing n, if any.
func MarkerOf(n *html.Node) *html.Node {
	for ; n != nil; n = n.Parent {
		if isMarker(n) {
			return n
		}
	}
	return nil
}

// MarkerID returns the annotation id of the marker enclosing n, or "".
func MarkerID(n *html.Node) string {
	if m := MarkerOf(n); m != nil {
		return attr(m, AttrAnnotationID)
	}
	return ""
}

func newMarkerNode(m Marker) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     "span",
		DataAtom: atom.Span,
		Attr:     markerAttrs(m),
	}
}

func markerAttrs(m Marker) []html.Attribute {
	class := ClassName + " " + string(m.Color)
	title := "Click to edit"
	if strings.TrimSpace(m.Note) != "" {
		class += " " + ClassHasNote
		title = "Note: " + truncate(m.Note, 50)
	}
	return []html.Attribute{
		{Key: "class", Val: class},
		{Key: AttrAnnotationID, Val: m.ID},
		{Key: "title", Val: title},
	}
}

func isMarker(n *html.Node) bool {
	return n.Type == html.ElementNode && attr(n, AttrAnnotationID) != ""
}

func walkMarkers(n *html.Node, fn func(*html.Node)) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isMarker(c) {
			fn(c)
			continue
		}
		walkMarkers(c, fn)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
