package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNewPosition_RoundTrip(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	anchor := AnchorDescriptor{
		QuotedText:        "brown fox",
		PrefixContext:     "quick ",
		SuffixContext:     " jumps",
		ApproximateOffset: 10,
	}

	p := NewPosition("wiki-highlight-1", anchor, at)
	if p.StartOffset != 10 || p.EndOffset != 19 || p.TextLength != 9 {
		t.Fatalf("unexpected offsets: %+v", p)
	}
	if p.Timestamp.Location() != time.UTC {
		t.Errorf("timestamp not in UTC: %v", p.Timestamp)
	}

	raw, err := p.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	parsed, err := ParsePosition(raw)
	if err != nil {
		t.Fatalf("ParsePosition: %v", err)
	}
	if got := parsed.Anchor("brown fox"); got != anchor {
		t.Errorf("Anchor() = %+v, want %+v", got, anchor)
	}
}

func TestNewPosition_CountsRunes(t *testing.T) {
	p := NewPosition("id", AnchorDescriptor{QuotedText: "Zürich", ApproximateOffset: 3}, time.Now())
	if p.TextLength != 6 || p.EndOffset != 9 {
		t.Errorf("expected rune based length, got %+v", p)
	}
}

func TestParsePosition_Invalid(t *testing.T) {
	for _, raw := range []string{
		"",
		"not json",
		`{"startOffset":-1,"endOffset":2}`,
		`{"startOffset":5,"endOffset":2}`,
	} {
		if _, err := ParsePosition(raw); !errors.Is(err, ErrInvalidPosition) {
			t.Errorf("ParsePosition(%q) = %v, want ErrInvalidPosition", raw, err)
		}
	}
}

func TestNewPosition_CountsNormalizedText(t *testing.T) {
	p := NewPosition("id", AnchorDescriptor{QuotedText: "brown \n\t fox", ApproximateOffset: 10}, time.Now())
	if p.TextLength != 9 || p.EndOffset != 19 {
		t.Errorf("expected collapsed whitespace in length, got %+v", p)
	}
}
