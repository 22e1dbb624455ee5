package anchor

import (
	"math"

	"wiki-annotator/internal/domain"
)

// Weights balances the signals used to pick between repeated occurrences of a quote.
type Weights struct {
	Prefix    float64
	Suffix    float64
	Proximity float64
}

// DefaultWeights favour surrounding text over the stored offset.
var DefaultWeights = Weights{Prefix: 2, Suffix: 2, Proximity: 1}

// partialMatch scales a context that only matches in part, so that any exact
// match always outranks it.
const partialMatch = 0.9

const scoreEpsilon = 1e-9

type candidate struct {
	offset   int
	distance int
	score    float64
}

func (c *Codec) rank(text []rune, offsets []int, length int, d domain.AnchorDescriptor) int {
	prefix := []rune(d.PrefixContext)
	suffix := []rune(d.SuffixContext)

	var best *candidate
	for _, off := range offsets {
		cand := candidate{offset: off, distance: abs(off - d.ApproximateOffset)}
		cand.score = c.weights.Prefix*contextScore(prefix, text[:off], commonSuffix) +
			c.weights.Suffix*contextScore(suffix, text[off+length:], commonPrefix) +
			c.weights.Proximity*proximity(cand.distance, len(text))
		if best == nil || cand.beats(*best) {
			cc := cand
			best = &cc
		}
	}
	return best.offset
}

func (a candidate) beats(b candidate) bool {
	if math.Abs(a.score-b.score) > scoreEpsilon {
		return a.score > b.score
	}
	if a.distance != b.distance {
		return a.distance < b.distance
	}
	return a.offset < b.offset
}

// contextScore is 1 for an exact match, a fraction below partialMatch for a
// partial one and 0 when nothing lines up or no context was recorded.
func contextScore(context, neighbour []rune, shared func(a, b []rune) int) float64 {
	if len(context) == 0 {
		return 0
	}
	n := shared(context, neighbour)
	if n == len(context) {
		return 1
	}
	return partialMatch * float64(n) / float64(len(context))
}

func proximity(distance, length int) float64 {
	if length == 0 {
		return 1
	}
	p := 1 - float64(distance)/float64(length)
	if p < 0 {
		return 0
	}
	return p
}

func commonSuffix(a, b []rune) int {
	n := 0
	for n < len(a) && n < len(b) && a[len(a)-1-n] == b[len(b)-1-n] {
		n++
	}
	return n
}

func commonPrefix(a, b []rune) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
