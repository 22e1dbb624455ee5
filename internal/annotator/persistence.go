package annotator

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"wiki-annotator/internal/client"
	"wiki-annotator/internal/domain"
	"wiki-annotator/pkg/errors"
)

// LocalIDPrefix starts every client-generated annotation id.
const LocalIDPrefix = "wiki-highlight-"

// NotesAPI is the remote note store.
type NotesAPI interface {
	CreateNote(ctx context.Context, req client.CreateNoteRequest) (*domain.Note, error)
	UpdateNote(ctx context.Context, noteID int64, noteContent string, color domain.Color) (*domain.Note, error)
	DeleteNote(ctx context.Context, noteID int64) error
	ListPageNotes(ctx context.Context, pageURL string) ([]*domain.Note, error)
}

type operation int

const (
	opCreate operation = iota + 1
	opUpdate
	opDelete
)

func (o operation) String() string {
	switch o {
	case opCreate:
		return "create"
	case opUpdate:
		return "update"
	case opDelete:
		return "delete"
	}
	return "unknown"
}

// PersistenceClient maps annotations onto note API calls and reconciles
// their sync state with the outcome. It never retries on its own.
type PersistenceClient struct {
	api      NotesAPI
	notifier Notifier
	logger   domain.Logger
}

func NewPersistenceClient(api NotesAPI, notifier Notifier, logger domain.Logger) *PersistenceClient {
	return &PersistenceClient{api: api, notifier: notifier, logger: logger}
}

// Create stores a and returns the server id.
func (p *PersistenceClient) Create(ctx context.Context, a *domain.Annotation) (string, error) {
	position, err := domain.NewPosition(a.LocalID, a.Anchor, a.CreatedAt).Encode()
	if err != nil {
		return "", errors.NewInternalError("failed to encode position", err)
	}
	note, err := p.api.CreateNote(ctx, client.CreateNoteRequest{
		PageURL:         a.DocumentURL,
		HighlightedText: a.Anchor.QuotedText,
		NoteContent:     a.Note,
		Position:        position,
		Color:           a.Color,
	})
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(note.NoteID, 10), nil
}

// Update sends the note text and color of a.
func (p *PersistenceClient) Update(ctx context.Context, a *domain.Annotation) error {
	id, err := serverID(a)
	if err != nil {
		return err
	}
	_, err = p.api.UpdateNote(ctx, id, a.Note, a.Color)
	return err
}

func (p *PersistenceClient) Delete(ctx context.Context, a *domain.Annotation) error {
	id, err := serverID(a)
	if err != nil {
		return err
	}
	return p.api.DeleteNote(ctx, id)
}

// ListForDocument fetches the stored annotations of documentURL in storage
// order. Records with an unreadable position fall back to a quote-only anchor.
func (p *PersistenceClient) ListForDocument(ctx context.Context, documentURL string) ([]*domain.Annotation, error) {
	notes, err := p.api.ListPageNotes(ctx, documentURL)
	if err != nil {
		return nil, err
	}

	annotations := make([]*domain.Annotation, 0, len(notes))
	for _, n := range notes {
		desc := domain.AnchorDescriptor{QuotedText: n.HighlightedText}
		if pos, err := domain.ParsePosition(n.Position); err == nil {
			desc = pos.Anchor(n.HighlightedText)
		} else {
			p.logger.Debug("note position unreadable, using quote only", "note_id", n.NoteID, "error", err.Error())
		}
		color := n.HighlightColour
		if _, err := domain.ParseColor(string(color)); err != nil || color == "" {
			color = domain.DefaultColor
		}
		annotations = append(annotations, &domain.Annotation{
			LocalID:     NewLocalID(),
			ServerID:    strconv.FormatInt(n.NoteID, 10),
			DocumentURL: documentURL,
			Anchor:      desc,
			Color:       color,
			Note:        n.NoteContent,
			CreatedAt:   n.CreatedDate,
			UpdatedAt:   n.UpdatedDate,
			SyncState:   domain.SyncSaved,
		})
	}
	return annotations, nil
}

// settle applies the outcome of op to a. On success a create records the
// server id and moves to saved; a delete leaves a for the caller to drop.
func (p *PersistenceClient) settle(a *domain.Annotation, op operation, id string, err error) error {
	if err != nil {
		if terr := a.Transition(domain.SyncError); terr != nil {
			return terr
		}
		p.logger.Error("note sync failed", err, "op", op.String(), "annotation_id", a.LocalID)
		p.notifier.Notify(LevelError, failureMessage(op))
		return err
	}

	switch op {
	case opCreate:
		a.ServerID = id
		if terr := a.Transition(domain.SyncSaved); terr != nil {
			return terr
		}
		p.notifier.Notify(LevelSuccess, "Highlight saved.")
	case opUpdate:
		if terr := a.Transition(domain.SyncSaved); terr != nil {
			return terr
		}
		p.notifier.Notify(LevelSuccess, "Note updated.")
	case opDelete:
		p.notifier.Notify(LevelSuccess, "Highlight deleted.")
	}
	p.logger.Debug("note synced", "op", op.String(), "annotation_id", a.LocalID, "server_id", a.ServerID)
	return nil
}

func failureMessage(op operation) string {
	switch op {
	case opCreate:
		return "Failed to save highlight."
	case opUpdate:
		return "Failed to update note."
	case opDelete:
		return "Failed to delete highlight."
	}
	return "Failed to sync highlight."
}

func serverID(a *domain.Annotation) (int64, error) {
	id, err := strconv.ParseInt(a.ServerID, 10, 64)
	if err != nil {
		return 0, errors.NewValidationError("annotation has no server id", fmt.Sprintf("local id %s", a.LocalID))
	}
	return id, nil
}

// NewLocalID returns a fresh client-side annotation id.
func NewLocalID() string {
	return LocalIDPrefix + uuid.NewString()
}
