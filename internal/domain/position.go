package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// Position is the JSON document stored in a note's "position" field.
// Offsets and lengths count runes of the normalized container text.
type Position struct {
	HighlightID   string    `json:"highlightId"`
	StartOffset   int       `json:"startOffset"`
	EndOffset     int       `json:"endOffset"`
	TextLength    int       `json:"textLength"`
	Timestamp     time.Time `json:"timestamp"`
	PrefixContext string    `json:"prefixContext"`
	SuffixContext string    `json:"suffixContext"`
}

// NewPosition builds the stored form of an anchor. Lengths count the quote
// after whitespace normalization, like the offsets do.
func NewPosition(highlightID string, anchor AnchorDescriptor, at time.Time) Position {
	length := utf8.RuneCountInString(strings.Join(strings.Fields(anchor.QuotedText), " "))
	return Position{
		HighlightID:   highlightID,
		StartOffset:   anchor.ApproximateOffset,
		EndOffset:     anchor.ApproximateOffset + length,
		TextLength:    length,
		Timestamp:     at.UTC(),
		PrefixContext: anchor.PrefixContext,
		SuffixContext: anchor.SuffixContext,
	}
}

// Encode serializes the position for the form field.
func (p Position) Encode() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode position: %w", err)
	}
	return string(b), nil
}

// Anchor rebuilds the descriptor; the quote travels separately as highlightedText.
func (p Position) Anchor(quote string) AnchorDescriptor {
	return AnchorDescriptor{
		QuotedText:        quote,
		PrefixContext:     p.PrefixContext,
		SuffixContext:     p.SuffixContext,
		ApproximateOffset: p.StartOffset,
	}
}

// ParsePosition decodes a stored position. An empty string is an error.
func ParsePosition(raw string) (Position, error) {
	var p Position
	if raw == "" {
		return p, ErrInvalidPosition
	}
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	if p.StartOffset < 0 || p.EndOffset < p.StartOffset {
		return p, fmt.Errorf("%w: offsets out of order", ErrInvalidPosition)
	}
	return p, nil
}
