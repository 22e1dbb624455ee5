package anchor

import (
	"golang.org/x/net/html"

	"wiki-annotator/internal/domain"
)

const (
	// DefaultContextWords is how many whole words of context are kept on each side.
	DefaultContextWords = 1
	// DefaultContextRunes caps each context window.
	DefaultContextRunes = 32
)

// Codec converts live ranges into anchor descriptors and back.
type Codec struct {
	contextWords int
	contextRunes int
	weights      Weights
}

// Option configures a Codec.
type Option func(*Codec)

// WithContextWords sets how many words of prefix/suffix context are captured.
// Zero or less means "as many as fit in the rune limit".
func WithContextWords(n int) Option {
	return func(c *Codec) { c.contextWords = n }
}

// WithContextRunes sets the maximum length of each context window.
func WithContextRunes(n int) Option {
	return func(c *Codec) {
		if n > 0 {
			c.contextRunes = n
		}
	}
}

// WithWeights overrides the candidate scoring weights.
func WithWeights(w Weights) Option {
	return func(c *Codec) { c.weights = w }
}

// NewCodec creates a codec with the default context window and weights.
func NewCodec(opts ...Option) *Codec {
	c := &Codec{
		contextWords: DefaultContextWords,
		contextRunes: DefaultContextRunes,
		weights:      DefaultWeights,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Encode describes r so it can be found again inside container after a reload.
// Whitespace at either edge of r is not part of the anchor; see Trim.
func (c *Codec) Encode(r Range, container *html.Node) (domain.AnchorDescriptor, error) {
	idx, start, end, err := c.span(r, container)
	if err != nil {
		return domain.AnchorDescriptor{}, err
	}
	trimmed, err := idx.Range(start, end)
	if err != nil {
		return domain.AnchorDescriptor{}, err
	}

	return domain.AnchorDescriptor{
		QuotedText:        trimmed.Text(),
		PrefixContext:     string(contextBefore(idx.text[:start], c.contextWords, c.contextRunes)),
		SuffixContext:     string(contextAfter(idx.text[end:], c.contextWords, c.contextRunes)),
		ApproximateOffset: start,
	}, nil
}

// Trim returns r without leading or trailing whitespace: the range Encode
// describes and Decode gives back.
func (c *Codec) Trim(r Range, container *html.Node) (Range, error) {
	idx, start, end, err := c.span(r, container)
	if err != nil {
		return Range{}, err
	}
	return idx.Range(start, end)
}

// span validates r and returns its whitespace-trimmed normalized offsets.
func (c *Codec) span(r Range, container *html.Node) (*Index, int, int, error) {
	if err := r.Validate(); err != nil {
		return nil, 0, 0, err
	}
	if !Contains(container, r.CommonAncestor()) {
		return nil, 0, 0, ErrOutsideContainer
	}
	if NormalizeText(r.Text()) == "" {
		return nil, 0, 0, ErrEmptySelection
	}

	idx := NewIndex(container)
	start, end, err := idx.Offsets(r)
	if err != nil {
		return nil, 0, 0, err
	}
	start, end = idx.trim(start, end)
	if start >= end {
		return nil, 0, 0, ErrEmptySelection
	}
	return idx, start, end, nil
}

// Decode locates the text described by d inside container. It returns ErrNotFound
// when the quoted text no longer occurs.
func (c *Codec) Decode(d domain.AnchorDescriptor, container *html.Node) (Range, error) {
	needle := []rune(NormalizeText(d.QuotedText))
	if len(needle) == 0 {
		return Range{}, ErrNotFound
	}

	idx := NewIndex(container)
	offsets := idx.find(needle)
	switch len(offsets) {
	case 0:
		return Range{}, ErrNotFound
	case 1:
		return idx.Range(offsets[0], offsets[0]+len(needle))
	}

	best := c.rank(idx.text, offsets, len(needle), d)
	return idx.Range(best, best+len(needle))
}

// contextBefore returns up to words whole words (plus the whitespace separating
// them from the selection) that end right before the selection.
func contextBefore(text []rune, words, maxRunes int) []rune {
	if words <= 0 {
		words = len(text)
	}
	i := len(text)
	for w := 0; w < words && i > 0; w++ {
		for i > 0 && text[i-1] == ' ' {
			i--
		}
		for i > 0 && text[i-1] != ' ' {
			i--
		}
	}
	if len(text)-i > maxRunes {
		i = len(text) - maxRunes
	}
	return text[i:]
}

// contextAfter mirrors contextBefore for the text following the selection.
func contextAfter(text []rune, words, maxRunes int) []rune {
	if words <= 0 {
		words = len(text)
	}
	j := 0
	for w := 0; w < words && j < len(text); w++ {
		for j < len(text) && text[j] == ' ' {
			j++
		}
		for j < len(text) && text[j] != ' ' {
			j++
		}
	}
	if j > maxRunes {
		j = maxRunes
	}
	return text[:j]
}
