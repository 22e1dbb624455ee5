package domain

import (
	"fmt"
	"strings"
	"time"
)

// Color is the closed set of highlight colors a reader can pick.
type Color string

const (
	ColorYellow Color = "yellow"
	ColorBlue   Color = "blue"
	ColorGreen  Color = "green"
)

// DefaultColor is used when no color is supplied.
const DefaultColor = ColorYellow

// Colors returns every supported highlight color.
func Colors() []Color {
	return []Color{ColorYellow, ColorBlue, ColorGreen}
}

// ParseColor validates a color name. An empty value yields DefaultColor.
func ParseColor(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultColor, nil
	}
	for _, c := range Colors() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidColor, s)
}

// SyncState tracks where an annotation is in its round trip to storage.
type SyncState string

const (
	SyncPending  SyncState = "pending"
	SyncSaved    SyncState = "saved"
	SyncDeleting SyncState = "deleting"
	SyncError    SyncState = "error"
)

var syncTransitions = map[SyncState][]SyncState{
	SyncPending:  {SyncSaved, SyncError},
	SyncSaved:    {SyncPending, SyncDeleting},
	SyncDeleting: {SyncError},
	SyncError:    {SyncPending, SyncDeleting},
}

// CanTransition reports whether moving from s to next is allowed.
func (s SyncState) CanTransition(next SyncState) bool {
	for _, allowed := range syncTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// AnchorDescriptor is the durable relocation contract of an annotation.
type AnchorDescriptor struct {
	QuotedText        string `json:"quotedText"`
	PrefixContext     string `json:"prefixContext"`
	SuffixContext     string `json:"suffixContext"`
	ApproximateOffset int    `json:"approximateOffset"`
}

// Annotation is a highlight (and optional note) as seen by the reading client.
type Annotation struct {
	LocalID     string           `json:"localId"`
	ServerID    string           `json:"serverId,omitempty"`
	DocumentURL string           `json:"documentUrl"`
	Anchor      AnchorDescriptor `json:"anchor"`
	Color       Color            `json:"color"`
	Note        string           `json:"note,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	SyncState   SyncState        `json:"syncState"`
}

// Transition moves the annotation to next, rejecting moves the state machine does not allow.
func (a *Annotation) Transition(next SyncState) error {
	if !a.SyncState.CanTransition(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.SyncState, next)
	}
	a.SyncState = next
	a.UpdatedAt = time.Now()
	return nil
}

// HasNote reports whether a note text is attached.
func (a *Annotation) HasNote() bool {
	return strings.TrimSpace(a.Note) != ""
}

// Clone returns a copy safe to hand out of a session.
func (a *Annotation) Clone() *Annotation {
	c := *a
	return &c
}
