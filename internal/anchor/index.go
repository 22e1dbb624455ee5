package anchor

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Index is the whitespace-normalized text of a container, with every normalized
// rune mapped back to the boundary points around it in the live tree.
//
// Runs of whitespace collapse to a single space and leading/trailing whitespace
// is dropped, so offsets survive reformatting of the markup.
type Index struct {
	root   *html.Node
	text   []rune
	starts []Point
	ends   []Point
}

// NewIndex snapshots the text of root. Any later mutation of the tree other than
// splitting text nodes or wrapping them invalidates the index.
func NewIndex(root *html.Node) *Index {
	idx := &Index{root: root}
	pending := false
	var spaceStart, spaceEnd Point

	walkText(root, func(n *html.Node) {
		data := n.Data
		for off := 0; off < len(data); {
			r, size := utf8.DecodeRuneInString(data[off:])
			if unicode.IsSpace(r) {
				if !pending && len(idx.text) > 0 {
					pending = true
					spaceStart, spaceEnd = Point{n, off}, Point{n, off + size}
				}
				off += size
				continue
			}
			if pending {
				idx.push(' ', spaceStart, spaceEnd)
				pending = false
			}
			idx.push(r, Point{n, off}, Point{n, off + size})
			off += size
		}
	})
	return idx
}

func (idx *Index) push(r rune, start, end Point) {
	idx.text = append(idx.text, r)
	idx.starts = append(idx.starts, start)
	idx.ends = append(idx.ends, end)
}

// Text returns the normalized text.
func (idx *Index) Text() string {
	return string(idx.text)
}

// Len returns the number of runes in the normalized text.
func (idx *Index) Len() int {
	return len(idx.text)
}

// Range converts the normalized rune span [start, end) into a live range.
func (idx *Index) Range(start, end int) (Range, error) {
	if start < 0 || end > len(idx.text) || start >= end {
		return Range{}, fmt.Errorf("%w: span [%d,%d) outside text of length %d", ErrInvalidRange, start, end, len(idx.text))
	}
	return Range{Start: idx.starts[start], End: idx.ends[end-1]}, nil
}

// Offsets converts a live range into the normalized rune span it covers.
func (idx *Index) Offsets(r Range) (int, int, error) {
	if err := r.Validate(); err != nil {
		return 0, 0, err
	}
	start := sort.Search(len(idx.starts), func(i int) bool {
		return ComparePoints(idx.starts[i], r.Start) >= 0
	})
	end := sort.Search(len(idx.ends), func(i int) bool {
		return ComparePoints(idx.ends[i], r.End) > 0
	})
	if end < start {
		end = start
	}
	return start, end, nil
}

// trim shrinks [start, end) so it neither starts nor ends on a collapsed space.
func (idx *Index) trim(start, end int) (int, int) {
	for start < end && idx.text[start] == ' ' {
		start++
	}
	for end > start && idx.text[end-1] == ' ' {
		end--
	}
	return start, end
}

// Find returns the start offset of every occurrence of text after normalization.
func (idx *Index) Find(text string) []int {
	return idx.find([]rune(NormalizeText(text)))
}

// find returns the offset of every occurrence of needle, overlapping ones included.
func (idx *Index) find(needle []rune) []int {
	var out []int
	if len(needle) == 0 {
		return out
	}
	for i := 0; i+len(needle) <= len(idx.text); i++ {
		if runesEqual(idx.text[i:i+len(needle)], needle) {
			out = append(out, i)
		}
	}
	return out
}

// NormalizeText collapses whitespace runs to single spaces and trims the ends,
// the same normalization Index applies to a container.
func NormalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func walkText(n *html.Node, fn func(*html.Node)) {
	if n.Type == html.TextNode {
		fn(n)
		return
	}
	if n.Type == html.ElementNode && ignoredElement(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkText(c, fn)
	}
}

func ignoredElement(n *html.Node) bool {
	switch strings.ToLower(n.Data) {
	case "script", "style", "noscript", "template":
		return true
	}
	return false
}

func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
