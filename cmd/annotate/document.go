package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"wiki-annotator/internal/anchor"
	"wiki-annotator/internal/selection"
)

// page is a saved article loaded from disk.
type page struct {
	path      string
	url       string
	root      *html.Node
	container *html.Node
}

func loadPage(path, class, pageURL string) (*page, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening page: %w", err)
	}
	defer f.Close()

	root, err := html.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	container := anchor.FindByClass(root, class)
	if container == nil {
		return nil, fmt.Errorf("%s has no element with class %q", path, class)
	}

	if pageURL == "" {
		pageURL = canonicalURL(root)
	}
	if pageURL == "" {
		return nil, fmt.Errorf("%s has no canonical link; pass --url", path)
	}

	return &page{path: path, url: pageURL, root: root, container: container}, nil
}

// canonicalURL returns the href of <link rel="canonical">, if any.
func canonicalURL(root *html.Node) string {
	var found string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if found != "" {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Link {
			var rel, href string
			for _, a := range n.Attr {
				switch a.Key {
				case "rel":
					rel = a.Val
				case "href":
					href = a.Val
				}
			}
			if strings.EqualFold(strings.TrimSpace(rel), "canonical") && href != "" {
				found = href
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return found
}

// selectQuote turns the nth occurrence (1-based) of quote into a selection event.
func selectQuote(container *html.Node, quote string, occurrence int) (selection.Event, error) {
	idx := anchor.NewIndex(container)
	offsets := idx.Find(quote)
	if len(offsets) == 0 {
		return selection.Event{}, fmt.Errorf("text %q not found on the page", quote)
	}
	if occurrence < 1 || occurrence > len(offsets) {
		return selection.Event{}, fmt.Errorf("occurrence %d out of range: text appears %d time(s)", occurrence, len(offsets))
	}

	start := offsets[occurrence-1]
	r, err := idx.Range(start, start+len([]rune(anchor.NormalizeText(quote))))
	if err != nil {
		return selection.Event{}, err
	}
	return selection.Event{Range: &r}, nil
}

func writeOutput(path, content string) error {
	if path == "" || path == "-" {
		_, err := fmt.Fprint(os.Stdout, content)
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
