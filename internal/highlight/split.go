package highlight

import (
	"strings"

	"golang.org/x/net/html"

	"wiki-annotator/internal/anchor"
)

// contributing returns the text nodes that hold at least one character of rng.
// Whitespace-only nodes under elements that cannot contain a span are left out.
func contributing(rng anchor.Range) []*html.Node {
	var out []*html.Node
	for _, n := range rng.TextNodes() {
		from, to := 0, len(n.Data)
		if n == rng.Start.Node {
			from = rng.Start.Offset
		}
		if n == rng.End.Node {
			to = rng.End.Offset
		}
		if from >= to {
			continue
		}
		if strings.TrimSpace(n.Data) == "" && structural(n.Parent) {
			continue
		}
		out = append(out, n)
	}
	return out
}

// splitText cuts n at offset. n keeps the head; the returned node holds the
// tail and is inserted right after n.
func splitText(n *html.Node, offset int) *html.Node {
	tail := &html.Node{Type: html.TextNode, Data: n.Data[offset:]}
	n.Data = n.Data[:offset]
	n.Parent.InsertBefore(tail, n.NextSibling)
	return tail
}

// siblingRuns groups nodes into runs of directly adjacent siblings.
func siblingRuns(nodes []*html.Node) [][]*html.Node {
	var runs [][]*html.Node
	for i, n := range nodes {
		if i > 0 && n.PrevSibling == nodes[i-1] {
			runs[len(runs)-1] = append(runs[len(runs)-1], n)
			continue
		}
		runs = append(runs, []*html.Node{n})
	}
	return runs
}

// mergeText joins adjacent text node children of parent.
func mergeText(parent *html.Node) {
	for c := parent.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.TextNode && next != nil && next.Type == html.TextNode {
			c.Data += next.Data
			parent.RemoveChild(next)
			continue
		}
		c = next
	}
}

func structural(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return n != nil && n.Type == html.DocumentNode
	}
	switch strings.ToLower(n.Data) {
	case "html", "head", "table", "thead", "tbody", "tfoot", "tr", "colgroup",
		"ul", "ol", "dl", "select", "optgroup", "frameset":
		return true
	}
	return false
}
