package anchor

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

var (
	ErrInvalidRange     = errors.New("invalid range")
	ErrEmptySelection   = errors.New("selection contains no text")
	ErrOutsideContainer = errors.New("selection is outside the annotatable container")
	ErrNotFound         = errors.New("anchor not found in document")
)

// Point is a boundary point inside a text node. Offset is a byte offset into Node.Data.
type Point struct {
	Node   *html.Node
	Offset int
}

// Range is a live span of document content between two boundary points.
type Range struct {
	Start Point
	End   Point
}

// Validate checks that both boundaries sit inside text nodes of the same tree
// and that Start does not come after End.
func (r Range) Validate() error {
	for _, p := range []Point{r.Start, r.End} {
		if p.Node == nil {
			return fmt.Errorf("%w: missing boundary", ErrInvalidRange)
		}
		if p.Node.Type != html.TextNode {
			return fmt.Errorf("%w: boundary is not a text node", ErrInvalidRange)
		}
		if p.Offset < 0 || p.Offset > len(p.Node.Data) {
			return fmt.Errorf("%w: offset %d out of bounds", ErrInvalidRange, p.Offset)
		}
	}
	if rootOf(r.Start.Node) != rootOf(r.End.Node) {
		return fmt.Errorf("%w: boundaries belong to different documents", ErrInvalidRange)
	}
	if ComparePoints(r.Start, r.End) > 0 {
		return fmt.Errorf("%w: start after end", ErrInvalidRange)
	}
	return nil
}

// Collapsed reports whether the range selects nothing.
func (r Range) Collapsed() bool {
	return r.Start == r.End
}

// TextNodes returns every text node from Start.Node to End.Node in document order,
// skipping text that never renders (script, style and similar).
func (r Range) TextNodes() []*html.Node {
	var out []*html.Node
	for n := r.Start.Node; n != nil; n = nextNode(n) {
		if n.Type == html.TextNode && !isIgnored(n) {
			out = append(out, n)
		}
		if n == r.End.Node {
			break
		}
	}
	return out
}

// Text returns the raw text content covered by the range.
func (r Range) Text() string {
	var sb strings.Builder
	for _, n := range r.TextNodes() {
		from, to := 0, len(n.Data)
		if n == r.Start.Node {
			from = r.Start.Offset
		}
		if n == r.End.Node {
			to = r.End.Offset
		}
		if from < to {
			sb.WriteString(n.Data[from:to])
		}
	}
	return sb.String()
}

// CommonAncestor returns the deepest node containing both boundaries.
func (r Range) CommonAncestor() *html.Node {
	if r.Start.Node == r.End.Node {
		return r.Start.Node
	}
	seen := make(map[*html.Node]bool)
	for n := r.Start.Node; n != nil; n = n.Parent {
		seen[n] = true
	}
	for n := r.End.Node; n != nil; n = n.Parent {
		if seen[n] {
			return n
		}
	}
	return nil
}

// ComparePoints orders two boundary points in document order.
func ComparePoints(a, b Point) int {
	if a.Node == b.Node {
		switch {
		case a.Offset < b.Offset:
			return -1
		case a.Offset > b.Offset:
			return 1
		}
		return 0
	}
	return compareNodes(a.Node, b.Node)
}

// Contains reports whether n is root or one of its descendants.
func Contains(root, n *html.Node) bool {
	for ; n != nil; n = n.Parent {
		if n == root {
			return true
		}
	}
	return false
}

// FindByClass returns the first element under root carrying the given class.
func FindByClass(root *html.Node, class string) *html.Node {
	for n := root; n != nil; n = nextNode(n) {
		if n.Type != html.ElementNode {
			continue
		}
		for _, a := range n.Attr {
			if a.Key != "class" {
				continue
			}
			for _, c := range strings.Fields(a.Val) {
				if c == class {
					return n
				}
			}
		}
	}
	return nil
}

func compareNodes(a, b *html.Node) int {
	pa, pb := pathFromRoot(a), pathFromRoot(b)
	i := 0
	for i < len(pa) && i < len(pb) && pa[i] == pb[i] {
		i++
	}
	switch {
	case i == len(pa) && i == len(pb):
		return 0
	case i == len(pa):
		return -1
	case i == len(pb):
		return 1
	case i == 0:
		return 0
	}
	for s := pa[i].NextSibling; s != nil; s = s.NextSibling {
		if s == pb[i] {
			return -1
		}
	}
	return 1
}

func pathFromRoot(n *html.Node) []*html.Node {
	var path []*html.Node
	for ; n != nil; n = n.Parent {
		path = append(path, n)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func rootOf(n *html.Node) *html.Node {
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

// nextNode returns the node following n in a pre-order walk.
func nextNode(n *html.Node) *html.Node {
	if n.FirstChild != nil {
		return n.FirstChild
	}
	for ; n != nil; n = n.Parent {
		if n.NextSibling != nil {
			return n.NextSibling
		}
	}
	return nil
}

func isIgnored(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && ignoredElement(p) {
			return true
		}
	}
	return false
}
