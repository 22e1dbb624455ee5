package domain

import (
	"context"
	"time"
)

// Note is the stored annotation record served by the notes API.
type Note struct {
	NoteID          int64     `json:"noteId"`
	UserID          string    `json:"userId"`
	PageURL         string    `json:"pageUrl"`
	HighlightedText string    `json:"highlightedText"`
	NoteContent     string    `json:"noteContent"`
	Position        string    `json:"position,omitempty"`
	HighlightColour Color     `json:"highlightColour"`
	CreatedDate     time.Time `json:"createdDate"`
	UpdatedDate     time.Time `json:"updatedDate"`
}

// NoteUpdate carries the editable fields of a note; nil means unchanged.
type NoteUpdate struct {
	NoteContent     *string
	HighlightColour *Color
}

// NotesByPage is the grouped listing used by the "my notes" view.
type NotesByPage struct {
	NotesByPage map[string][]*Note `json:"notesByPage"`
	TotalNotes  int                `json:"totalNotes"`
}

// NoteRepository defines persistence operations for notes.
type NoteRepository interface {
	Create(ctx context.Context, note *Note, token string) (*Note, error)
	GetByID(ctx context.Context, userID string, noteID int64, token string) (*Note, error)
	// ListByUser returns every note of the user, newest first.
	ListByUser(ctx context.Context, userID string, token string) ([]*Note, error)
	// ListByPage returns the notes of one page in insertion order.
	ListByPage(ctx context.Context, userID string, pageURL string, token string) ([]*Note, error)
	Update(ctx context.Context, note *Note, token string) (*Note, error)
	Delete(ctx context.Context, userID string, noteID int64, token string) error
}

// NoteService defines the use-case operations for notes.
type NoteService interface {
	SaveNote(ctx context.Context, userID string, note *Note, token string) (*Note, error)
	ListNotes(ctx context.Context, userID string, token string) ([]*Note, error)
	ListPageNotes(ctx context.Context, userID string, pageURL string, token string) ([]*Note, error)
	GroupNotesByPage(ctx context.Context, userID string, token string) (*NotesByPage, error)
	UpdateNote(ctx context.Context, userID string, noteID int64, update NoteUpdate, token string) (*Note, error)
	DeleteNote(ctx context.Context, userID string, noteID int64, token string) error
}
