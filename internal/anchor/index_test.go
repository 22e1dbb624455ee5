package anchor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_CollapsesWhitespace(t *testing.T) {
	container := parseContainer(t, `<div class="wiki-content">
		Hello

		   <em>wide</em>   world  <script>var x = 1;</script></div>`)

	idx := NewIndex(container)
	assert.Equal(t, "Hello wide world", idx.Text())
	assert.Equal(t, 16, idx.Len())
}

func TestIndex_RangeAcrossNodes(t *testing.T) {
	container := parseContainer(t, `<div class="wiki-content">The <b>quick</b> brown</div>`)
	idx := NewIndex(container)

	r, err := idx.Range(1, 12)
	require.NoError(t, err)
	assert.Equal(t, "he quick br", r.Text())
	assert.Equal(t, container, r.CommonAncestor())

	start, end, err := idx.Offsets(r)
	require.NoError(t, err)
	assert.Equal(t, 1, start)
	assert.Equal(t, 12, end)
}

func TestIndex_RangeRejectsBadSpan(t *testing.T) {
	idx := NewIndex(parseContainer(t, `<div class="wiki-content">abc</div>`))

	_, err := idx.Range(2, 2)
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = idx.Range(0, 4)
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestIndex_MultibyteOffsets(t *testing.T) {
	container := parseContainer(t, `<div class="wiki-content">café über naïve</div>`)
	idx := NewIndex(container)

	r, err := idx.Range(5, 9)
	require.NoError(t, err)
	assert.Equal(t, "über", r.Text())
}

func TestComparePoints(t *testing.T) {
	container := parseContainer(t, `<div class="wiki-content">a<b>b</b>c</div>`)
	a := container.FirstChild
	b := a.NextSibling.FirstChild
	c := a.NextSibling.NextSibling

	assert.Equal(t, -1, ComparePoints(Point{a, 1}, Point{b, 0}))
	assert.Equal(t, 1, ComparePoints(Point{c, 0}, Point{b, 1}))
	assert.Equal(t, 0, ComparePoints(Point{b, 1}, Point{b, 1}))
}

func TestIndex_Find(t *testing.T) {
	container := parseContainer(t, `<div class="wiki-content">a cat and a  <i>cat</i></div>`)
	idx := NewIndex(container)

	assert.Equal(t, []int{2, 12}, idx.Find("cat"))
	assert.Equal(t, []int{0, 10}, idx.Find(" a\n cat "))
	assert.Empty(t, idx.Find("dog"))
	assert.Empty(t, idx.Find("   "))
}
